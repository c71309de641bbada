package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// SectorLink is one row of 'exhibitor_sectors': a registration of an
// exhibitor into a sector. The (exhibitor_id, sector_id) pair carries a
// composite UNIQUE key so a concurrent duplicate insert fails at the data
// layer instead of inflating registered counts.
type SectorLink struct {
	ID          uint64
	ExhibitorID uint64
	SectorID    uint64
	CreatedAt   time.Time
}

// FairLink is one row of 'exhibitor_fairs', the fair-level association
// implied by sector registration. Same uniqueness rule as SectorLink.
type FairLink struct {
	ID          uint64
	ExhibitorID uint64
	FairID      uint64
	CreatedAt   time.Time
}

type LinkRepo struct{ DB *sql.DB }

func NewLinkRepo(db *sql.DB) *LinkRepo { return &LinkRepo{DB: db} }

// ListSectorLinks returns every sector link; the capacity engine derives
// registered counts from this collection in memory.
func (r *LinkRepo) ListSectorLinks(ctx context.Context) ([]SectorLink, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,exhibitor_id,sector_id,created_at FROM exhibitor_sectors")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SectorLink
	for rows.Next() {
		var l SectorLink
		if err := rows.Scan(&l.ID, &l.ExhibitorID, &l.SectorID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListFairLinks returns every fair link.
func (r *LinkRepo) ListFairLinks(ctx context.Context) ([]FairLink, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,exhibitor_id,fair_id,created_at FROM exhibitor_fairs")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FairLink
	for rows.Next() {
		var l FairLink
		if err := rows.Scan(&l.ID, &l.ExhibitorID, &l.FairID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CreateSectorLink inserts a sector link unless it already exists. It
// returns true when a new row was created. The existence check keeps the
// activity log free of duplicate 'assign' entries; the UNIQUE key closes the
// check-then-act race, and a duplicate-key error from a concurrent writer is
// reported as "not created" rather than a failure.
func (r *LinkRepo) CreateSectorLink(ctx context.Context, exhibitorID, sectorID uint64) (bool, error) {
	var existing uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM exhibitor_sectors WHERE exhibitor_id=? AND sector_id=? LIMIT 1",
		exhibitorID, sectorID).Scan(&existing)
	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO exhibitor_sectors (exhibitor_id, sector_id) VALUES (?,?)",
		exhibitorID, sectorID)
	if err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateFairLink inserts a fair link unless it already exists, returning
// true when a new row was created.
func (r *LinkRepo) CreateFairLink(ctx context.Context, exhibitorID, fairID uint64) (bool, error) {
	var existing uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM exhibitor_fairs WHERE exhibitor_id=? AND fair_id=? LIMIT 1",
		exhibitorID, fairID).Scan(&existing)
	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO exhibitor_fairs (exhibitor_id, fair_id) VALUES (?,?)",
		exhibitorID, fairID)
	if err != nil {
		if isDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteSectorLink removes one (exhibitor, sector) registration.
func (r *LinkRepo) DeleteSectorLink(ctx context.Context, exhibitorID, sectorID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM exhibitor_sectors WHERE exhibitor_id=? AND sector_id=?",
		exhibitorID, sectorID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFairLink removes one (exhibitor, fair) association. Sector links
// under the fair are untouched; callers decide whether that is sensible.
func (r *LinkRepo) DeleteFairLink(ctx context.Context, exhibitorID, fairID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM exhibitor_fairs WHERE exhibitor_id=? AND fair_id=?",
		exhibitorID, fairID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkedSectorIDs returns the subset of candidate sector ids the exhibitor
// is already registered in. Bulk assignment filters on this before inserting.
func (r *LinkRepo) LinkedSectorIDs(ctx context.Context, exhibitorID uint64, candidates []uint64) (map[uint64]bool, error) {
	return r.linkedIDs(ctx, "exhibitor_sectors", "sector_id", exhibitorID, candidates)
}

// LinkedFairIDs returns the subset of candidate fair ids already linked.
func (r *LinkRepo) LinkedFairIDs(ctx context.Context, exhibitorID uint64, candidates []uint64) (map[uint64]bool, error) {
	return r.linkedIDs(ctx, "exhibitor_fairs", "fair_id", exhibitorID, candidates)
}

func (r *LinkRepo) linkedIDs(ctx context.Context, table, col string, exhibitorID uint64, candidates []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool)
	if len(candidates) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(candidates)), ",")
	args := make([]any, 0, len(candidates)+1)
	args = append(args, exhibitorID)
	for _, id := range candidates {
		args = append(args, id)
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+col+" FROM "+table+" WHERE exhibitor_id=? AND "+col+" IN ("+placeholders+")",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// CreateSectorLinksBulk inserts several sector links in one statement.
// Callers pass pre-filtered ids (no duplicates); IGNORE keeps a racing
// writer from failing the whole batch.
func (r *LinkRepo) CreateSectorLinksBulk(ctx context.Context, exhibitorID uint64, sectorIDs []uint64) error {
	return r.bulkInsert(ctx, "exhibitor_sectors", "sector_id", exhibitorID, sectorIDs)
}

// CreateFairLinksBulk inserts several fair links in one statement.
func (r *LinkRepo) CreateFairLinksBulk(ctx context.Context, exhibitorID uint64, fairIDs []uint64) error {
	return r.bulkInsert(ctx, "exhibitor_fairs", "fair_id", exhibitorID, fairIDs)
}

func (r *LinkRepo) bulkInsert(ctx context.Context, table, col string, exhibitorID uint64, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	values := strings.TrimSuffix(strings.Repeat("(?,?),", len(ids)), ",")
	args := make([]any, 0, len(ids)*2)
	for _, id := range ids {
		args = append(args, exhibitorID, id)
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO "+table+" (exhibitor_id, "+col+") VALUES "+values,
		args...)
	return err
}
