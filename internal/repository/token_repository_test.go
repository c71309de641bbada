package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRefresh(t *testing.T) {
	cols := []string{"user_id", "expires_at", "revoked_at"}
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	t.Run("valid", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
			WithArgs("hash").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(7, future, nil))

		id, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "hash")
		require.NoError(t, err)
		assert.Equal(t, uint64(7), id)
	})

	t.Run("revoked", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
			WithArgs("hash").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(7, future, past))

		_, err = NewTokenRepo(db).ValidateRefresh(context.Background(), "hash")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("expired", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT user_id, expires_at, revoked_at FROM refresh_tokens").
			WithArgs("hash").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(7, past, nil))

		_, err = NewTokenRepo(db).ValidateRefresh(context.Background(), "hash")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestRevokeUnapproved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// First pass: owners whose approval was withdrawn.
	mock.ExpectExec("UPDATE refresh_tokens rt\\s+JOIN profiles p").
		WithArgs(ApprovalApproved).
		WillReturnResult(sqlmock.NewResult(0, 3))
	// Second pass: tokens whose owner's profile no longer exists.
	mock.ExpectExec("UPDATE refresh_tokens rt\\s+LEFT JOIN profiles p").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := NewTokenRepo(db).RevokeUnapproved(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
