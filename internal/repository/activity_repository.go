package repository

import (
	"context"
	"database/sql"
	"time"
)

// Activity types recorded in the audit log.
const (
	ActivityCreate   = "create"
	ActivityUpdate   = "update"
	ActivityAssign   = "assign"
	ActivityUnassign = "unassign"
)

// Activity is one append-only audit log row. Names are denormalized at write
// time so the feed stays readable after the referenced rows are deleted.
// Rows are never updated or deleted by the application.
type Activity struct {
	ID            uint64
	Type          string
	ExhibitorID   sql.NullInt64
	ExhibitorName string
	SectorID      sql.NullInt64
	SectorName    sql.NullString
	FairID        sql.NullInt64
	FairName      sql.NullString
	UserID        uint64
	CreatedAt     time.Time
}

type ActivityRepo struct{ DB *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{DB: db} }

// Insert appends one activity row.
func (r *ActivityRepo) Insert(ctx context.Context, a Activity) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO activities
		 (type, exhibitor_id, exhibitor_name, sector_id, sector_name, fair_id, fair_name, user_id)
		 VALUES (?,?,?,?,?,?,?,?)`,
		a.Type, a.ExhibitorID, a.ExhibitorName, a.SectorID, a.SectorName, a.FairID, a.FairName, a.UserID)
	return err
}

// ListRecent returns the newest rows first, capped for display purposes.
func (r *ActivityRepo) ListRecent(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, type, exhibitor_id, exhibitor_name, sector_id, sector_name,
		        fair_id, fair_name, user_id, created_at
		 FROM activities ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Type, &a.ExhibitorID, &a.ExhibitorName,
			&a.SectorID, &a.SectorName, &a.FairID, &a.FairName, &a.UserID, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
