package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Fair mirrors the 'fairs' table: a scheduled event at a city/venue. Date is
// optional because fairs are often created before their date is fixed.
type Fair struct {
	ID        uint64
	Name      string
	City      string
	Date      sql.NullTime
	CreatedAt time.Time
	UpdatedAt time.Time
}

type FairRepo struct{ DB *sql.DB }

func NewFairRepo(db *sql.DB) *FairRepo { return &FairRepo{DB: db} }

// List returns all fairs ordered by name.
func (r *FairRepo) List(ctx context.Context) ([]Fair, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,city,date,created_at,updated_at FROM fairs ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Fair
	for rows.Next() {
		var f Fair
		if err := rows.Scan(&f.ID, &f.Name, &f.City, &f.Date, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetByID fetches a fair by id.
func (r *FairRepo) GetByID(ctx context.Context, id uint64) (Fair, error) {
	var f Fair
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,city,date,created_at,updated_at FROM fairs WHERE id=? LIMIT 1",
		id).Scan(&f.ID, &f.Name, &f.City, &f.Date, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return f, ErrNotFound
	}
	return f, err
}

// Create inserts a fair and returns its ID.
func (r *FairRepo) Create(ctx context.Context, name, city string, date sql.NullTime) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO fairs (name, city, date) VALUES (?,?,?)",
		strings.TrimSpace(name), strings.TrimSpace(city), date)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites the mutable columns of a fair.
func (r *FairRepo) Update(ctx context.Context, id uint64, name, city string, date sql.NullTime) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE fairs SET name=?, city=?, date=? WHERE id=?",
		strings.TrimSpace(name), strings.TrimSpace(city), date, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountSectors reports how many sectors a fair owns. The delete guard calls
// this before any DELETE is issued.
func (r *FairRepo) CountSectors(ctx context.Context, fairID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sectors WHERE fair_id=?", fairID).Scan(&n)
	return n, err
}

// Delete removes a fair together with its exhibitor links. Callers must have
// verified the referential guard (no owned sectors) first; this method only
// enforces existence.
func (r *FairRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM exhibitor_fairs WHERE fair_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM fairs WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
