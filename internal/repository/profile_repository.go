package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Approval states for a profile. Only approved profiles may hold a live
// session; the gate and middleware enforce this everywhere.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Profile mirrors the 'profiles' table: the user-visible identity plus the
// approval state that gates all data access.
type Profile struct {
	ID             uint64
	UserID         uint64
	Name           string
	Email          string
	IsActive       bool
	ApprovalStatus string
	LastLogin      sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

const profileCols = "id,user_id,name,email,is_active,approval_status,last_login,created_at,updated_at"

func scanProfile(row *sql.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.IsActive,
		&p.ApprovalStatus, &p.LastLogin, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts a pending profile inside the registration transaction.
func (r *ProfileRepo) Create(ctx context.Context, tx *sql.Tx, userID uint64, name, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := tx.ExecContext(ctx,
		"INSERT INTO profiles (user_id, name, email, is_active, approval_status) VALUES (?,?,?,1,?)",
		userID, strings.TrimSpace(name), email, ApprovalPending)
	return err
}

// GetByUserID fetches the profile owned by a user. sql.ErrNoRows is the
// "profile not provisioned yet" signal the gate retries on.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uint64) (Profile, error) {
	return scanProfile(r.DB.QueryRowContext(ctx,
		"SELECT "+profileCols+" FROM profiles WHERE user_id=? LIMIT 1", userID))
}

// GetByEmail fetches a profile by normalized email. Used by sign-up to block
// re-registration of rejected addresses.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanProfile(r.DB.QueryRowContext(ctx,
		"SELECT "+profileCols+" FROM profiles WHERE email=? LIMIT 1", email))
}

// List returns all profiles ordered by name, for the admin user screen.
func (r *ProfileRepo) List(ctx context.Context) ([]Profile, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+profileCols+" FROM profiles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.IsActive,
			&p.ApprovalStatus, &p.LastLogin, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetApproval moves a profile to the given approval status.
func (r *ProfileRepo) SetApproval(ctx context.Context, userID uint64, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE profiles SET approval_status=? WHERE user_id=?", status, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive toggles the is_active flag.
func (r *ProfileRepo) SetActive(ctx context.Context, userID uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE profiles SET is_active=? WHERE user_id=?", active, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin stamps last_login with the current time. Best-effort: the
// caller logs and ignores a failure, it never affects session state.
func (r *ProfileRepo) TouchLastLogin(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE profiles SET last_login=NOW() WHERE user_id=?", userID)
	return err
}
