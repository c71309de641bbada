package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Sector mirrors the 'sectors' table: an exhibitor category within a fair
// with an author-set capacity. Registered/remaining counts are never stored;
// the capacity engine derives them from the link table.
type Sector struct {
	ID            uint64
	FairID        uint64
	Name          string
	TotalCapacity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type SectorRepo struct{ DB *sql.DB }

func NewSectorRepo(db *sql.DB) *SectorRepo { return &SectorRepo{DB: db} }

const sectorCols = "id,fair_id,name,total_capacity,created_at,updated_at"

func collectSectors(rows *sql.Rows) ([]Sector, error) {
	defer rows.Close()
	var out []Sector
	for rows.Next() {
		var s Sector
		if err := rows.Scan(&s.ID, &s.FairID, &s.Name, &s.TotalCapacity, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// List returns all sectors ordered by name.
func (r *SectorRepo) List(ctx context.Context) ([]Sector, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+sectorCols+" FROM sectors ORDER BY name")
	if err != nil {
		return nil, err
	}
	return collectSectors(rows)
}

// ListByFair returns a fair's sectors ordered by name.
func (r *SectorRepo) ListByFair(ctx context.Context, fairID uint64) ([]Sector, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+sectorCols+" FROM sectors WHERE fair_id=? ORDER BY name", fairID)
	if err != nil {
		return nil, err
	}
	return collectSectors(rows)
}

// ListByIDs returns the sectors for a membership set. Used by bulk
// assignment to resolve denormalized names for the activity log.
func (r *SectorRepo) ListByIDs(ctx context.Context, ids []uint64) ([]Sector, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+sectorCols+" FROM sectors WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	return collectSectors(rows)
}

// GetByID fetches a sector by id.
func (r *SectorRepo) GetByID(ctx context.Context, id uint64) (Sector, error) {
	var s Sector
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+sectorCols+" FROM sectors WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.FairID, &s.Name, &s.TotalCapacity, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	return s, err
}

// Create inserts a sector and returns its ID.
func (r *SectorRepo) Create(ctx context.Context, fairID uint64, name string, totalCapacity int) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO sectors (fair_id, name, total_capacity) VALUES (?,?,?)",
		fairID, strings.TrimSpace(name), totalCapacity)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites a sector's name and capacity.
func (r *SectorRepo) Update(ctx context.Context, id uint64, name string, totalCapacity int) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sectors SET name=?, total_capacity=? WHERE id=?",
		strings.TrimSpace(name), totalCapacity, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a sector along with its exhibitor links. Sector deletion is
// deliberately not guarded against existing links.
func (r *SectorRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM exhibitor_sectors WHERE sector_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM sectors WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
