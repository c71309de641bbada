package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSectorLinkNew(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM exhibitor_sectors").
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO exhibitor_sectors").
		WithArgs(uint64(1), uint64(2)).
		WillReturnResult(sqlmock.NewResult(10, 1))

	created, err := NewLinkRepo(db).CreateSectorLink(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSectorLinkAlreadyExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM exhibitor_sectors").
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(99))

	created, err := NewLinkRepo(db).CreateSectorLink(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, created, "existing link must be reported as not created")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSectorLinkDuplicateRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// A concurrent writer slips in between the existence check and the
	// insert; the unique-key violation is treated as "already linked".
	mock.ExpectQuery("SELECT id FROM exhibitor_sectors").
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO exhibitor_sectors").
		WithArgs(uint64(1), uint64(2)).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '1-2'"))

	created, err := NewLinkRepo(db).CreateSectorLink(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSectorLinkNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM exhibitor_sectors").
		WithArgs(uint64(1), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewLinkRepo(db).DeleteSectorLink(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSectorLinksBulk(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT IGNORE INTO exhibitor_sectors").
		WithArgs(uint64(1), uint64(2), uint64(1), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err = NewLinkRepo(db).CreateSectorLinksBulk(context.Background(), 1, []uint64{2, 3})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSectorLinksBulkEmptyIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewLinkRepo(db).CreateSectorLinksBulk(context.Background(), 1, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
