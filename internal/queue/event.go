// Package queue defines message payloads exchanged over the message broker.
package queue

// ActivityRecordedEvent is published whenever an exhibitor is created,
// updated, or moved between sectors. Names are carried in the event so the
// consumer can persist a self-contained audit row without querying the
// primary database.
type ActivityRecordedEvent struct {
	Type          string `json:"type"`
	ExhibitorID   uint64 `json:"exhibitor_id,omitempty"`
	ExhibitorName string `json:"exhibitor_name"`
	SectorID      uint64 `json:"sector_id,omitempty"`
	SectorName    string `json:"sector_name,omitempty"`
	FairID        uint64 `json:"fair_id,omitempty"`
	FairName      string `json:"fair_name,omitempty"`
	UserID        uint64 `json:"user_id"`
	RecordedAt    string `json:"recorded_at"`
}
