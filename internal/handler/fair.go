package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fairops/fairadmin/internal/repository"
)

// FairHandler owns the fair CRUD endpoints.
type FairHandler struct {
	Fairs   *repository.FairRepo
	Sectors *repository.SectorRepo
}

func NewFairHandler(fairs *repository.FairRepo, sectors *repository.SectorRepo) *FairHandler {
	if fairs == nil || sectors == nil {
		panic("nil repository passed to NewFairHandler")
	}
	return &FairHandler{Fairs: fairs, Sectors: sectors}
}

type fairReq struct {
	Name string `json:"name"`
	City string `json:"city"`
	Date string `json:"date"` // YYYY-MM-DD, optional
}

type fairView struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Date      *string   `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toFairView(f repository.Fair) fairView {
	v := fairView{ID: f.ID, Name: f.Name, City: f.City, CreatedAt: f.CreatedAt, UpdatedAt: f.UpdatedAt}
	if f.Date.Valid {
		d := f.Date.Time.Format("2006-01-02")
		v.Date = &d
	}
	return v
}

func (r fairReq) validate() (name, city string, date sql.NullTime, errMsg string) {
	name = strings.TrimSpace(r.Name)
	city = strings.TrimSpace(r.City)
	if name == "" {
		return "", "", date, "name is required"
	}
	if city == "" {
		return "", "", date, "city is required"
	}
	if s := strings.TrimSpace(r.Date); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return "", "", date, "date must be YYYY-MM-DD"
		}
		date = sql.NullTime{Time: t, Valid: true}
	}
	return name, city, date, ""
}

// List handles GET /v1/fairs.
func (h *FairHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	fairs, err := h.Fairs.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]fairView, 0, len(fairs))
	for _, f := range fairs {
		items = append(items, toFairView(f))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/fairs/:id.
func (h *FairHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	f, err := h.Fairs.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fair not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toFairView(f))
}

// Create handles POST /v1/fairs.
func (h *FairHandler) Create(c echo.Context) error {
	var req fairReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name, city, date, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	id, err := h.Fairs.Create(ctx, name, city, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create fair failed"})
	}
	f, err := h.Fairs.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusCreated, toFairView(f))
}

// Update handles PUT /v1/fairs/:id.
func (h *FairHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req fairReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name, city, date, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if err := h.Fairs.Update(ctx, id, name, city, date); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fair not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update fair failed"})
	}
	f, err := h.Fairs.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toFairView(f))
}

// Delete handles DELETE /v1/fairs/:id. A fair that still owns sectors is
// not deletable; the sectors must be removed first.
func (h *FairHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	n, err := h.Fairs.CountSectors(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if n > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":         "fair has sectors; delete them first",
			"sectors_count": n,
		})
	}

	if err := h.Fairs.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fair not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete fair failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
