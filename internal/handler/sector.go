package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fairops/fairadmin/internal/repository"
)

// SectorHandler owns the sector CRUD endpoints.
type SectorHandler struct {
	Sectors *repository.SectorRepo
	Fairs   *repository.FairRepo
}

func NewSectorHandler(sectors *repository.SectorRepo, fairs *repository.FairRepo) *SectorHandler {
	if sectors == nil || fairs == nil {
		panic("nil repository passed to NewSectorHandler")
	}
	return &SectorHandler{Sectors: sectors, Fairs: fairs}
}

type sectorView struct {
	ID            uint64    `json:"id"`
	FairID        uint64    `json:"fair_id"`
	Name          string    `json:"name"`
	TotalCapacity int       `json:"total_capacity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toSectorView(s repository.Sector) sectorView {
	return sectorView{
		ID:            s.ID,
		FairID:        s.FairID,
		Name:          s.Name,
		TotalCapacity: s.TotalCapacity,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// List handles GET /v1/sectors, optionally narrowed with ?fair_id=.
func (h *SectorHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	var (
		sectors []repository.Sector
		err     error
	)
	if raw := strings.TrimSpace(c.QueryParam("fair_id")); raw != "" {
		fairID, perr := strconv.ParseUint(raw, 10, 64)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fair_id"})
		}
		sectors, err = h.Sectors.ListByFair(ctx, fairID)
	} else {
		sectors, err = h.Sectors.List(ctx)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	items := make([]sectorView, 0, len(sectors))
	for _, s := range sectors {
		items = append(items, toSectorView(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/sectors/:id.
func (h *SectorHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	s, err := h.Sectors.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sector not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toSectorView(s))
}

// Create handles POST /v1/sectors. Capacity zero is allowed; such a sector
// shows as fully occupied until capacity is raised.
func (h *SectorHandler) Create(c echo.Context) error {
	var body struct {
		FairID        uint64 `json:"fair_id"`
		Name          string `json:"name"`
		TotalCapacity int    `json:"total_capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.FairID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fair_id is required"})
	}
	if body.TotalCapacity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_capacity must be >= 0"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if _, err := h.Fairs.GetByID(ctx, body.FairID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fair not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	id, err := h.Sectors.Create(ctx, body.FairID, name, body.TotalCapacity)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create sector failed"})
	}
	s, err := h.Sectors.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusCreated, toSectorView(s))
}

// Update handles PUT /v1/sectors/:id. Lowering capacity below the current
// registration count is allowed; the capacity view flags the sector instead.
func (h *SectorHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Name          string `json:"name"`
		TotalCapacity int    `json:"total_capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.TotalCapacity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_capacity must be >= 0"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if err := h.Sectors.Update(ctx, id, name, body.TotalCapacity); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sector not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update sector failed"})
	}
	s, err := h.Sectors.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toSectorView(s))
}

// Delete handles DELETE /v1/sectors/:id. Registrations in the sector are
// removed with it.
func (h *SectorHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if err := h.Sectors.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sector not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete sector failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
