package capacity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairops/fairadmin/internal/repository"
)

func fair(id uint64, name, city string) repository.Fair {
	return repository.Fair{ID: id, Name: name, City: city}
}

func sector(id, fairID uint64, name string, cap int) repository.Sector {
	return repository.Sector{ID: id, FairID: fairID, Name: name, TotalCapacity: cap}
}

func link(exhibitorID, sectorID uint64) repository.SectorLink {
	return repository.SectorLink{ExhibitorID: exhibitorID, SectorID: sectorID}
}

func testRows() []Row {
	fairs := []repository.Fair{
		fair(1, "Expo Noivas SP", "São Paulo"),
		fair(2, "Casamentos Rio", "Rio de Janeiro"),
	}
	sectors := []repository.Sector{
		sector(10, 1, "Photographers", 10),
		sector(11, 1, "Buffets", 3),
		sector(12, 2, "Photographers", 5),
		sector(13, 2, "Dresses", 0),
	}
	links := []repository.SectorLink{
		link(100, 10), link(101, 10), link(102, 10), link(103, 10),
		link(100, 11), link(101, 11), link(102, 11),
		link(100, 12),
	}
	return BuildRows(fairs, sectors, links)
}

func TestBuildRowsCounts(t *testing.T) {
	rows := testRows()
	require.Len(t, rows, 4)

	byID := make(map[uint64]Row)
	for _, r := range rows {
		byID[r.SectorID] = r
	}

	assert.Equal(t, 4, byID[10].RegisteredCount)
	assert.Equal(t, 6, byID[10].RemainingCount)
	assert.InDelta(t, 40.0, byID[10].UtilizationPercent, 0.001)

	// Fully occupied sector.
	assert.Equal(t, 0, byID[11].RemainingCount)
	assert.InDelta(t, 100.0, byID[11].UtilizationPercent, 0.001)

	// Unregistered sector with zero capacity has zero utilization.
	assert.Equal(t, 0, byID[13].RegisteredCount)
	assert.Equal(t, 0, byID[13].RemainingCount)
	assert.Zero(t, byID[13].UtilizationPercent)
}

func TestBuildRowsDedupesDuplicateLinks(t *testing.T) {
	fairs := []repository.Fair{fair(1, "Expo", "SP")}
	sectors := []repository.Sector{sector(10, 1, "Buffets", 5)}
	links := []repository.SectorLink{
		link(100, 10),
		link(100, 10), // duplicate pair must not inflate the count
		link(101, 10),
	}
	rows := BuildRows(fairs, sectors, links)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].RegisteredCount)
	assert.Equal(t, 3, rows[0].RemainingCount)
}

func TestBuildRowsOverAssignedGoesNegative(t *testing.T) {
	fairs := []repository.Fair{fair(1, "Expo", "SP")}
	sectors := []repository.Sector{sector(10, 1, "Buffets", 2)}
	links := []repository.SectorLink{link(100, 10), link(101, 10), link(102, 10)}

	rows := BuildRows(fairs, sectors, links)
	require.Len(t, rows, 1)
	assert.Equal(t, -1, rows[0].RemainingCount)
	assert.InDelta(t, 150.0, rows[0].UtilizationPercent, 0.001)
}

func TestBuildRowsKeepsSectorWithMissingFair(t *testing.T) {
	sectors := []repository.Sector{sector(10, 99, "Orphan", 5)}
	rows := BuildRows(nil, sectors, nil)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].FairName)
	assert.Empty(t, rows[0].FairCity)
	assert.Equal(t, 5, rows[0].RemainingCount)
}

func TestStatusPrecedence(t *testing.T) {
	cases := []struct {
		name string
		row  Row
		want string
	}{
		{"full", Row{TotalCapacity: 3, RegisteredCount: 3, RemainingCount: 0, UtilizationPercent: 100}, StatusCritical},
		{"over-assigned", Row{TotalCapacity: 2, RegisteredCount: 3, RemainingCount: -1, UtilizationPercent: 150}, StatusWarning},
		{"two left", Row{TotalCapacity: 10, RegisteredCount: 8, RemainingCount: 2, UtilizationPercent: 80}, StatusWarning},
		{"near full", Row{TotalCapacity: 100, RegisteredCount: 85, RemainingCount: 15, UtilizationPercent: 85}, StatusNearFull},
		{"healthy", Row{TotalCapacity: 10, RegisteredCount: 3, RemainingCount: 7, UtilizationPercent: 30}, StatusHealthy},
		{"zero capacity empty", Row{TotalCapacity: 0, RegisteredCount: 0, RemainingCount: 0, UtilizationPercent: 0}, StatusCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.row.Status())
		})
	}
}

func TestFilterAND(t *testing.T) {
	rows := testRows()

	got := Filter{FairID: 1}.Apply(rows)
	assert.Len(t, got, 2)

	// Exact sector name crosses fairs.
	got = Filter{SectorName: "Photographers"}.Apply(rows)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(10), got[0].SectorID)
	assert.Equal(t, uint64(12), got[1].SectorID)

	// Combined predicates narrow each other.
	got = Filter{FairID: 2, SectorName: "Photographers"}.Apply(rows)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(12), got[0].SectorID)

	// Zero-only keeps unregistered sectors.
	got = Filter{ZeroOnly: true}.Apply(rows)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(13), got[0].SectorID)
}

func TestFilterSearchIsCaseInsensitive(t *testing.T) {
	rows := testRows()

	// Matches fair city.
	got := Filter{Search: "rio de"}.Apply(rows)
	assert.Len(t, got, 2)

	// Matches sector name regardless of case.
	got = Filter{Search: "PHOTO"}.Apply(rows)
	assert.Len(t, got, 2)

	// No match.
	got = Filter{Search: "nothing-here"}.Apply(rows)
	assert.Empty(t, got)
}

func TestFilterOrderIndependence(t *testing.T) {
	rows := testRows()

	// All predicates are ANDed, so one combined pass equals sequential
	// passes in any order.
	combined := Filter{FairID: 1, Search: "buff"}.Apply(rows)
	sequential := Filter{Search: "buff"}.Apply(Filter{FairID: 1}.Apply(rows))
	reversed := Filter{FairID: 1}.Apply(Filter{Search: "buff"}.Apply(rows))

	assert.Equal(t, combined, sequential)
	assert.Equal(t, combined, reversed)
}

func TestSort(t *testing.T) {
	rows := testRows()

	Sort(rows, SortByRemaining, false)
	// Two rows tie at zero remaining; stability keeps fetch order.
	assert.Equal(t, uint64(11), rows[0].SectorID)
	assert.Equal(t, uint64(13), rows[1].SectorID)
	assert.Equal(t, uint64(10), rows[len(rows)-1].SectorID)

	Sort(rows, SortByCapacity, true)
	assert.Equal(t, 10, rows[0].TotalCapacity)

	// Unknown keys fall back to name order.
	Sort(rows, "bogus", false)
	assert.Equal(t, "Buffets", rows[0].SectorName)
}

func TestSummarize(t *testing.T) {
	rows := testRows()
	s := Summarize(rows)
	assert.Equal(t, 18, s.TotalCapacity)
	assert.Equal(t, 8, s.Registered)
	assert.Equal(t, 10, s.Remaining)
	assert.InDelta(t, 100.0*8/18, s.UtilizationPercent, 0.001)

	empty := Summarize(nil)
	assert.Zero(t, empty.UtilizationPercent)
}

func TestSectorNamesDedupedAndSorted(t *testing.T) {
	sectors := []repository.Sector{
		sector(1, 1, "Photographers", 5),
		sector(2, 2, "Photographers", 8),
		sector(3, 1, "Buffets", 3),
	}
	assert.Equal(t, []string{"Buffets", "Photographers"}, SectorNames(sectors))
}

func TestRemainingByCity(t *testing.T) {
	rows := testRows()
	got := RemainingByCity(rows)
	require.Len(t, got, 2)
	assert.Equal(t, CityRemaining{City: "São Paulo", Remaining: 6}, got[0])
	assert.Equal(t, CityRemaining{City: "Rio de Janeiro", Remaining: 4}, got[1])
}

func TestTopSectorsByRemaining(t *testing.T) {
	rows := testRows()
	got := TopSectorsByRemaining(rows)
	require.NotEmpty(t, got)

	// Photographers rolls up across both fairs.
	assert.Equal(t, SectorRemaining{Name: "Photographers", Remaining: 10, Total: 15}, got[0])

	// Never more than six entries.
	var many []Row
	for i := 0; i < 10; i++ {
		many = append(many, Row{SectorName: string(rune('A' + i)), RemainingCount: i, TotalCapacity: i})
	}
	assert.Len(t, TopSectorsByRemaining(many), 6)
}
