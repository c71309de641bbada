package capacity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 7, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "remaining-by-sector-2026-03-07.xlsx", Filename(ExportRemainingBySector, now))
	assert.Equal(t, "empty-sectors-2026-03-07.xlsx", Filename(ExportEmptySectors, now))
}

func TestRemainingWorkbook(t *testing.T) {
	rows := testRows()
	wb, err := RemainingWorkbook(rows, ExportScope{})
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	header, err := wb.GetCellValue(exportSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Fair", header)
	reg, err := wb.GetCellValue(exportSheet, "E1")
	require.NoError(t, err)
	assert.Equal(t, "Registered", reg)

	// First data row mirrors the first sector.
	name, err := wb.GetCellValue(exportSheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "Photographers", name)
	remaining, err := wb.GetCellValue(exportSheet, "F2")
	require.NoError(t, err)
	assert.Equal(t, "6", remaining)
}

func TestRemainingWorkbookScoped(t *testing.T) {
	rows := testRows()
	wb, err := RemainingWorkbook(rows, ExportScope{FairID: 2})
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	got, err := wb.GetRows(exportSheet)
	require.NoError(t, err)
	// Header plus the two sectors of fair 2.
	assert.Len(t, got, 3)
}

func TestEmptySectorsWorkbook(t *testing.T) {
	rows := testRows()
	wb, err := EmptySectorsWorkbook(rows, ExportScope{})
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()

	got, err := wb.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, got, 2) // header + the single unregistered sector

	// No Registered column in this projection.
	assert.Equal(t, []string{"Fair", "City", "Sector", "Total Capacity", "Remaining"}, got[0])
	assert.Equal(t, "Dresses", got[1][2])
}

func TestExportRefusedWhenEmpty(t *testing.T) {
	rows := testRows()

	_, err := RemainingWorkbook(rows, ExportScope{Search: "no-such-fair"})
	assert.ErrorIs(t, err, ErrNothingToExport)

	// Every sector of fair 1 has registrations, so the empty projection
	// scoped to it yields nothing.
	_, err = EmptySectorsWorkbook(rows, ExportScope{FairID: 1})
	assert.ErrorIs(t, err, ErrNothingToExport)

	_, err = RemainingWorkbook(nil, ExportScope{})
	assert.ErrorIs(t, err, ErrNothingToExport)
}
