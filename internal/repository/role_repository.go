package repository

import (
	"context"
	"database/sql"
	"time"
)

// Application roles. Admin unlocks user management; sales is the default for
// new registrations.
const (
	RoleAdmin = "admin"
	RoleSales = "sales"
)

// UserRole mirrors the 'user_roles' table (one row per user).
type UserRole struct {
	ID        uint64
	UserID    uint64
	Role      string
	CreatedAt time.Time
}

type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// Create inserts the default role row inside the registration transaction.
func (r *RoleRepo) Create(ctx context.Context, tx *sql.Tx, userID uint64, role string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO user_roles (user_id, role) VALUES (?,?)", userID, role)
	return err
}

// GetByUserID returns the user's role. Absence (sql.ErrNoRows) is tolerated
// by the gate and treated as "no elevated role".
func (r *RoleRepo) GetByUserID(ctx context.Context, userID uint64) (string, error) {
	var role string
	err := r.DB.QueryRowContext(ctx,
		"SELECT role FROM user_roles WHERE user_id=? LIMIT 1", userID).Scan(&role)
	return role, err
}

// List returns every role row, keyed by user for the admin screen join.
func (r *RoleRepo) List(ctx context.Context) (map[uint64]string, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT user_id, role FROM user_roles")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64]string)
	for rows.Next() {
		var uid uint64
		var role string
		if err := rows.Scan(&uid, &role); err != nil {
			return nil, err
		}
		out[uid] = role
	}
	return out, rows.Err()
}

// Set changes a user's role.
func (r *RoleRepo) Set(ctx context.Context, userID uint64, role string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE user_roles SET role=? WHERE user_id=?", role, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
