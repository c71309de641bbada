// Package capacity derives per-sector occupancy from the raw fair, sector
// and registration-link collections. Everything here is a pure function of
// its inputs: handlers re-fetch the collections after a confirmed mutation
// and recompute the view in full, which stays cheap at the row counts this
// product sees (low hundreds).
package capacity

import (
	"sort"
	"strings"

	"github.com/fairops/fairadmin/internal/repository"
)

// Row is the derived capacity view for one sector at one fair.
type Row struct {
	FairID             uint64  `json:"fair_id"`
	FairName           string  `json:"fair_name"`
	FairCity           string  `json:"fair_city"`
	SectorID           uint64  `json:"sector_id"`
	SectorName         string  `json:"sector_name"`
	TotalCapacity      int     `json:"total_capacity"`
	RegisteredCount    int     `json:"registered_count"`
	RemainingCount     int     `json:"remaining_count"` // negative when over-assigned
	UtilizationPercent float64 `json:"utilization_percent"`
}

// Status buckets drive the UI badge for a row. Evaluated in precedence
// order; the first match wins.
const (
	StatusCritical = "critical"  // remaining == 0
	StatusWarning  = "warning"   // remaining <= 2
	StatusNearFull = "near-full" // utilization >= 80%
	StatusHealthy  = "healthy"
)

// Status classifies a row. Over-assigned sectors (negative remaining) fall
// through remaining==0 into the warning bucket, matching the permissive
// over-capacity policy: assignment is never blocked, only flagged.
func (r Row) Status() string {
	switch {
	case r.RemainingCount == 0:
		return StatusCritical
	case r.RemainingCount <= 2:
		return StatusWarning
	case r.UtilizationPercent >= 80:
		return StatusNearFull
	default:
		return StatusHealthy
	}
}

// BuildRows derives one Row per sector. Registered counts are computed from
// the link collection with duplicate (exhibitor, sector) pairs collapsed, so
// a duplicate row that slipped past the unique key can never inflate a
// count. A sector whose fair is missing keeps empty fair fields rather than
// being dropped. Row order follows the sectors slice.
func BuildRows(fairs []repository.Fair, sectors []repository.Sector, links []repository.SectorLink) []Row {
	fairByID := make(map[uint64]repository.Fair, len(fairs))
	for _, f := range fairs {
		fairByID[f.ID] = f
	}

	seen := make(map[[2]uint64]bool, len(links))
	registered := make(map[uint64]int)
	for _, l := range links {
		pair := [2]uint64{l.ExhibitorID, l.SectorID}
		if seen[pair] {
			continue
		}
		seen[pair] = true
		registered[l.SectorID]++
	}

	rows := make([]Row, 0, len(sectors))
	for _, s := range sectors {
		f := fairByID[s.FairID]
		reg := registered[s.ID]
		var util float64
		if s.TotalCapacity > 0 {
			util = float64(reg) / float64(s.TotalCapacity) * 100
		}
		rows = append(rows, Row{
			FairID:             s.FairID,
			FairName:           f.Name,
			FairCity:           f.City,
			SectorID:           s.ID,
			SectorName:         s.Name,
			TotalCapacity:      s.TotalCapacity,
			RegisteredCount:    reg,
			RemainingCount:     s.TotalCapacity - reg,
			UtilizationPercent: util,
		})
	}
	return rows
}

// Filter narrows the derived view. Zero values mean "no restriction"; all
// set predicates are AND-combined, so application order never changes the
// result.
type Filter struct {
	FairID     uint64 // 0 = all fairs
	SectorName string // exact sector name across all fairs, "" = all
	ZeroOnly   bool   // keep only sectors with no registrations
	Search     string // case-insensitive substring over fair name/city/sector name
}

// Apply returns the rows passing every set predicate, preserving order.
func (f Filter) Apply(rows []Row) []Row {
	query := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if f.FairID != 0 && r.FairID != f.FairID {
			continue
		}
		if f.SectorName != "" && r.SectorName != f.SectorName {
			continue
		}
		if f.ZeroOnly && r.RegisteredCount != 0 {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(r.FairName), query) &&
			!strings.Contains(strings.ToLower(r.FairCity), query) &&
			!strings.Contains(strings.ToLower(r.SectorName), query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort keys for the capacity table.
const (
	SortByName      = "name"
	SortByCapacity  = "capacity"
	SortByRemaining = "remaining"
)

// Sort orders rows in place by the given key. Unknown keys fall back to
// name. The sort is stable so equal rows keep their fetch order.
func Sort(rows []Row, key string, desc bool) {
	less := func(a, b Row) bool { return a.SectorName < b.SectorName }
	switch key {
	case SortByCapacity:
		less = func(a, b Row) bool { return a.TotalCapacity < b.TotalCapacity }
	case SortByRemaining:
		less = func(a, b Row) bool { return a.RemainingCount < b.RemainingCount }
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

// Summary aggregates a filtered subset.
type Summary struct {
	TotalCapacity      int     `json:"total_capacity"`
	Registered         int     `json:"registered"`
	Remaining          int     `json:"remaining"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// Summarize sums capacity columns over rows; overall utilization is
// registered over capacity, 0 when total capacity is 0.
func Summarize(rows []Row) Summary {
	var s Summary
	for _, r := range rows {
		s.TotalCapacity += r.TotalCapacity
		s.Registered += r.RegisteredCount
		s.Remaining += r.RemainingCount
	}
	if s.TotalCapacity > 0 {
		s.UtilizationPercent = float64(s.Registered) / float64(s.TotalCapacity) * 100
	}
	return s
}

// SectorNames returns the deduplicated, sorted set of sector names across
// all fairs. The sector-name filter matches against this set, so filtering
// by e.g. "Photographers" selects that sector at every fair.
func SectorNames(sectors []repository.Sector) []string {
	set := make(map[string]bool, len(sectors))
	for _, s := range sectors {
		set[s.Name] = true
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CityRemaining is a per-city rollup of remaining spots.
type CityRemaining struct {
	City      string `json:"city"`
	Remaining int    `json:"remaining"`
}

// RemainingByCity groups remaining counts by fair city, most remaining
// first. Ties keep alphabetical city order so the output is deterministic.
func RemainingByCity(rows []Row) []CityRemaining {
	byCity := make(map[string]int)
	for _, r := range rows {
		byCity[r.FairCity] += r.RemainingCount
	}
	out := make([]CityRemaining, 0, len(byCity))
	for city, remaining := range byCity {
		out = append(out, CityRemaining{City: city, Remaining: remaining})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Remaining != out[j].Remaining {
			return out[i].Remaining > out[j].Remaining
		}
		return out[i].City < out[j].City
	})
	return out
}

// SectorRemaining is a per-sector-name rollup across fairs.
type SectorRemaining struct {
	Name      string `json:"name"`
	Remaining int    `json:"remaining"`
	Total     int    `json:"total"`
}

// TopSectorsByRemaining rolls rows up by sector name and returns at most
// the six names with the most remaining spots.
func TopSectorsByRemaining(rows []Row) []SectorRemaining {
	type agg struct{ remaining, total int }
	byName := make(map[string]agg)
	for _, r := range rows {
		a := byName[r.SectorName]
		a.remaining += r.RemainingCount
		a.total += r.TotalCapacity
		byName[r.SectorName] = a
	}
	out := make([]SectorRemaining, 0, len(byName))
	for name, a := range byName {
		out = append(out, SectorRemaining{Name: name, Remaining: a.remaining, Total: a.total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Remaining != out[j].Remaining {
			return out[i].Remaining > out[j].Remaining
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > 6 {
		out = out[:6]
	}
	return out
}
