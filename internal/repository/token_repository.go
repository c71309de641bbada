package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo manages refresh token rows. Tokens are stored hashed; a row is
// live while revoked_at is NULL and expires_at is in the future. Revocation
// is the server-side lever for forcing a sign-out: the approval middleware,
// the admin reject/deactivate paths and the background sweep all go through
// the revoke methods here.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh persists a freshly issued refresh token hash.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh resolves a token hash to its owner. A revoked or expired
// row answers sql.ErrNoRows, same as a missing one, so callers only see
// "valid" or "not valid".
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash)

	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	if err := row.Scan(&userID, &expiresAt, &revokedAt); err != nil {
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return userID, nil
}

// RevokeByHash spends a single token. Rotation calls this before issuing
// the replacement.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser kills every live session of one user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

// RevokeUnapproved revokes every active token whose owning profile is
// missing or no longer approved. The periodic re-validation sweep calls this
// so a pending/rejected/deleted user cannot keep refreshing a session.
func (r *TokenRepo) RevokeUnapproved(ctx context.Context) (int64, error) {
	var total int64
	res, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens rt
		 JOIN profiles p ON p.user_id = rt.user_id
		 SET rt.revoked_at = NOW()
		 WHERE rt.revoked_at IS NULL AND p.approval_status <> ?`,
		ApprovalApproved)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}
	res, err = r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens rt
		 LEFT JOIN profiles p ON p.user_id = rt.user_id
		 SET rt.revoked_at = NOW()
		 WHERE rt.revoked_at IS NULL AND p.id IS NULL`)
	if err != nil {
		return total, err
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}
	return total, nil
}
