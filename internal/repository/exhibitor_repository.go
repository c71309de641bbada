package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Exhibitor mirrors the 'exhibitors' table. Contact details are optional;
// the exhibitor has an independent lifecycle from fairs and sectors and is
// related to them only through the link tables.
type Exhibitor struct {
	ID        uint64
	Name      string
	Company   sql.NullString
	Email     sql.NullString
	Phone     sql.NullString
	Notes     sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ExhibitorRepo struct{ DB *sql.DB }

func NewExhibitorRepo(db *sql.DB) *ExhibitorRepo { return &ExhibitorRepo{DB: db} }

const exhibitorCols = "id,name,company,email,phone,notes,created_at,updated_at"

// List returns all exhibitors ordered by name.
func (r *ExhibitorRepo) List(ctx context.Context) ([]Exhibitor, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+exhibitorCols+" FROM exhibitors ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Exhibitor
	for rows.Next() {
		var e Exhibitor
		if err := rows.Scan(&e.ID, &e.Name, &e.Company, &e.Email, &e.Phone, &e.Notes,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetByID fetches an exhibitor by id.
func (r *ExhibitorRepo) GetByID(ctx context.Context, id uint64) (Exhibitor, error) {
	var e Exhibitor
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+exhibitorCols+" FROM exhibitors WHERE id=? LIMIT 1",
		id).Scan(&e.ID, &e.Name, &e.Company, &e.Email, &e.Phone, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}

// Create inserts an exhibitor and returns its ID.
func (r *ExhibitorRepo) Create(ctx context.Context, e Exhibitor) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO exhibitors (name, company, email, phone, notes) VALUES (?,?,?,?,?)",
		strings.TrimSpace(e.Name), e.Company, e.Email, e.Phone, e.Notes)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites the mutable columns of an exhibitor.
func (r *ExhibitorRepo) Update(ctx context.Context, e Exhibitor) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE exhibitors SET name=?, company=?, email=?, phone=?, notes=? WHERE id=?",
		strings.TrimSpace(e.Name), e.Company, e.Email, e.Phone, e.Notes, e.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an exhibitor along with both kinds of links.
func (r *ExhibitorRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM exhibitor_sectors WHERE exhibitor_id=?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM exhibitor_fairs WHERE exhibitor_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM exhibitors WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
