package capacity

import (
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// Export kinds; the filename embeds the kind and the current date.
const (
	ExportRemainingBySector = "remaining-by-sector"
	ExportEmptySectors      = "empty-sectors"
)

// ErrNothingToExport is returned when a projection yields no rows; no file
// is produced in that case.
var ErrNothingToExport = errors.New("no rows to export")

const exportSheet = "Data"

// ExportScope selects the rows for an export. The fair may differ from the
// on-screen fair filter, and the zero-registrations toggle deliberately has
// no counterpart here: exports always see the full picture even while the
// screen shows a narrowed view.
type ExportScope struct {
	FairID     uint64 // 0 = all fairs
	SectorName string // "" = all sector names
	Search     string // same substring semantics as the on-screen search
}

func (s ExportScope) filter() Filter {
	return Filter{FairID: s.FairID, SectorName: s.SectorName, Search: s.Search}
}

// Filename builds "<kind>-<YYYY-MM-DD>.xlsx" for the download attachment.
func Filename(kind string, now time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", kind, now.Format("2006-01-02"))
}

// RemainingWorkbook builds the remaining-places-by-sector spreadsheet: one
// row per sector in scope with capacity, registered and remaining columns.
func RemainingWorkbook(rows []Row, scope ExportScope) (*excelize.File, error) {
	selected := scope.filter().Apply(rows)
	if len(selected) == 0 {
		return nil, ErrNothingToExport
	}
	header := []string{"Fair", "City", "Sector", "Total Capacity", "Registered", "Remaining"}
	records := make([][]any, 0, len(selected))
	for _, r := range selected {
		records = append(records, []any{
			r.FairName, r.FairCity, r.SectorName, r.TotalCapacity, r.RegisteredCount, r.RemainingCount,
		})
	}
	return buildWorkbook(header, records)
}

// EmptySectorsWorkbook builds the empty-sectors spreadsheet: sectors in
// scope with zero registrations. Returns ErrNothingToExport when every
// sector in scope has at least one registration.
func EmptySectorsWorkbook(rows []Row, scope ExportScope) (*excelize.File, error) {
	var empty []Row
	for _, r := range scope.filter().Apply(rows) {
		if r.RegisteredCount == 0 {
			empty = append(empty, r)
		}
	}
	if len(empty) == 0 {
		return nil, ErrNothingToExport
	}
	header := []string{"Fair", "City", "Sector", "Total Capacity", "Remaining"}
	records := make([][]any, 0, len(empty))
	for _, r := range empty {
		records = append(records, []any{
			r.FairName, r.FairCity, r.SectorName, r.TotalCapacity, r.RemainingCount,
		})
	}
	return buildWorkbook(header, records)
}

// buildWorkbook writes a header row plus records into a single sheet.
func buildWorkbook(header []string, records [][]any) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, name); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	for i, rec := range records {
		for col, v := range rec {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				_ = f.Close()
				return nil, err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}
