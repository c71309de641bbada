package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/fairops/fairadmin/internal/capacity"
	"github.com/fairops/fairadmin/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CapacityHandler serves the derived occupancy view and its spreadsheet
// exports. Every request recomputes the view from fresh collections; nothing
// derived is ever persisted.
type CapacityHandler struct {
	Fairs   *repository.FairRepo
	Sectors *repository.SectorRepo
	Links   *repository.LinkRepo
}

func NewCapacityHandler(fairs *repository.FairRepo, sectors *repository.SectorRepo, links *repository.LinkRepo) *CapacityHandler {
	if fairs == nil || sectors == nil || links == nil {
		panic("nil repository passed to NewCapacityHandler")
	}
	return &CapacityHandler{Fairs: fairs, Sectors: sectors, Links: links}
}

// rowView decorates an engine row with its status bucket for the client.
type rowView struct {
	capacity.Row
	Status string `json:"status"`
}

func (h *CapacityHandler) buildRows(ctx context.Context) ([]capacity.Row, error) {
	fairs, err := h.Fairs.List(ctx)
	if err != nil {
		return nil, err
	}
	sectors, err := h.Sectors.List(ctx)
	if err != nil {
		return nil, err
	}
	links, err := h.Links.ListSectorLinks(ctx)
	if err != nil {
		return nil, err
	}
	return capacity.BuildRows(fairs, sectors, links), nil
}

func queryUint(c echo.Context, name string) (uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func queryBool(c echo.Context, name string) bool {
	switch strings.ToLower(strings.TrimSpace(c.QueryParam(name))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// View handles GET /v1/capacity: the filtered, sorted capacity table plus a
// summary over the same filtered subset.
func (h *CapacityHandler) View(c echo.Context) error {
	fairID, err := queryUint(c, "fair_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fair_id"})
	}
	f := capacity.Filter{
		FairID:     fairID,
		SectorName: strings.TrimSpace(c.QueryParam("sector")),
		ZeroOnly:   queryBool(c, "zero_only"),
		Search:     c.QueryParam("q"),
	}
	sortKey := strings.TrimSpace(c.QueryParam("sort"))
	desc := strings.EqualFold(strings.TrimSpace(c.QueryParam("order")), "desc")

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	rows, err := h.buildRows(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	selected := f.Apply(rows)
	capacity.Sort(selected, sortKey, desc)

	items := make([]rowView, 0, len(selected))
	for _, r := range selected {
		items = append(items, rowView{Row: r, Status: r.Status()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":   items,
		"summary": capacity.Summarize(selected),
	})
}

// SectorNames handles GET /v1/capacity/sectors: the distinct sector names
// across all fairs, for the exact-name filter.
func (h *CapacityHandler) SectorNames(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	sectors, err := h.Sectors.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": capacity.SectorNames(sectors)})
}

// CitySummary handles GET /v1/capacity/summary/cities: remaining places
// aggregated per city, largest first.
func (h *CapacityHandler) CitySummary(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	rows, err := h.buildRows(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": capacity.RemainingByCity(rows)})
}

// TopSectors handles GET /v1/capacity/summary/top-sectors: the sectors with
// the most remaining places.
func (h *CapacityHandler) TopSectors(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	rows, err := h.buildRows(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": capacity.TopSectorsByRemaining(rows)})
}

// ExportRemaining handles GET /v1/capacity/export/remaining: the
// remaining-places-by-sector spreadsheet as a download.
func (h *CapacityHandler) ExportRemaining(c echo.Context) error {
	return h.export(c, capacity.ExportRemainingBySector, capacity.RemainingWorkbook)
}

// ExportEmpty handles GET /v1/capacity/export/empty: sectors with zero
// registrations.
func (h *CapacityHandler) ExportEmpty(c echo.Context) error {
	return h.export(c, capacity.ExportEmptySectors, capacity.EmptySectorsWorkbook)
}

func (h *CapacityHandler) export(c echo.Context, kind string,
	build func([]capacity.Row, capacity.ExportScope) (*excelize.File, error)) error {
	fairID, err := queryUint(c, "fair_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fair_id"})
	}
	scope := capacity.ExportScope{
		FairID:     fairID,
		SectorName: strings.TrimSpace(c.QueryParam("sector")),
		Search:     c.QueryParam("q"),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	rows, err := h.buildRows(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	wb, err := build(rows, scope)
	if err != nil {
		if errors.Is(err, capacity.ErrNothingToExport) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no rows to export"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
	}

	defer func() { _ = wb.Close() }()

	name := capacity.Filename(kind, time.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Response().Header().Set(echo.HeaderContentType, xlsxContentType)
	c.Response().WriteHeader(http.StatusOK)
	return wb.Write(c.Response())
}
