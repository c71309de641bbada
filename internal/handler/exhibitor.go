package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fairops/fairadmin/internal/queue"
	"github.com/fairops/fairadmin/internal/repository"
	queue_publisher "github.com/fairops/fairadmin/internal/service"
)

// ExhibitorHandler owns the exhibitor CRUD endpoints. Mutations feed the
// activity log through the broker-backed recorder.
type ExhibitorHandler struct {
	Exhibitors *repository.ExhibitorRepo
	Sectors    *repository.SectorRepo
	Fairs      *repository.FairRepo
	Links      *repository.LinkRepo
	rec        *activityRecorder
}

func NewExhibitorHandler(ex *repository.ExhibitorRepo, sectors *repository.SectorRepo,
	fairs *repository.FairRepo, links *repository.LinkRepo, activities *repository.ActivityRepo) *ExhibitorHandler {
	if ex == nil || sectors == nil || fairs == nil || links == nil || activities == nil {
		panic("nil repository passed to NewExhibitorHandler")
	}
	return &ExhibitorHandler{
		Exhibitors: ex,
		Sectors:    sectors,
		Fairs:      fairs,
		Links:      links,
		rec:        &activityRecorder{Activities: activities, Publish: queue_publisher.PublishActivityRecorded},
	}
}

type exhibitorReq struct {
	Name      string   `json:"name"`
	Company   string   `json:"company"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Notes     string   `json:"notes"`
	SectorIDs []uint64 `json:"sector_ids"` // initial registrations, create only
	FairIDs   []uint64 `json:"fair_ids"`   // extra fair links beyond those implied by sectors
}

type exhibitorView struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Company   string    `json:"company,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	SectorIDs []uint64  `json:"sector_ids,omitempty"`
	FairIDs   []uint64  `json:"fair_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toExhibitorView(e repository.Exhibitor) exhibitorView {
	return exhibitorView{
		ID:        e.ID,
		Name:      e.Name,
		Company:   e.Company.String,
		Email:     e.Email.String,
		Phone:     e.Phone.String,
		Notes:     e.Notes.String,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func optional(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// List handles GET /v1/exhibitors.
func (h *ExhibitorHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	items, err := h.Exhibitors.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]exhibitorView, 0, len(items))
	for _, e := range items {
		out = append(out, toExhibitorView(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get handles GET /v1/exhibitors/:id, including the ids of linked sectors
// and fairs.
func (h *ExhibitorHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	e, err := h.Exhibitors.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibitor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	view := toExhibitorView(e)

	sectorLinks, err := h.Links.ListSectorLinks(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	for _, l := range sectorLinks {
		if l.ExhibitorID == id {
			view.SectorIDs = append(view.SectorIDs, l.SectorID)
		}
	}
	fairLinks, err := h.Links.ListFairLinks(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	for _, l := range fairLinks {
		if l.ExhibitorID == id {
			view.FairIDs = append(view.FairIDs, l.FairID)
		}
	}
	return c.JSON(http.StatusOK, view)
}

// Create handles POST /v1/exhibitors. Initial sector registrations may be
// supplied and imply the owning fairs' links; each new registration is
// logged as its own assign entry alongside the create entry.
func (h *ExhibitorHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req exhibitorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	// Resolve sector ids up front so a bad id fails the whole request
	// before anything is written.
	sectors, err := h.Sectors.ListByIDs(ctx, req.SectorIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if len(sectors) != len(dedupe(req.SectorIDs)) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown sector id"})
	}

	id, err := h.Exhibitors.Create(ctx, repository.Exhibitor{
		Name:    name,
		Company: optional(req.Company),
		Email:   optional(req.Email),
		Phone:   optional(req.Phone),
		Notes:   optional(req.Notes),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create exhibitor failed"})
	}

	sectorIDs := make([]uint64, 0, len(sectors))
	fairIDs := dedupe(req.FairIDs)
	for _, s := range sectors {
		sectorIDs = append(sectorIDs, s.ID)
		fairIDs = append(fairIDs, s.FairID)
	}
	fairIDs = dedupe(fairIDs)

	if err := h.Links.CreateSectorLinksBulk(ctx, id, sectorIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "link sectors failed"})
	}
	if err := h.Links.CreateFairLinksBulk(ctx, id, fairIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "link fairs failed"})
	}

	h.rec.record(queue.ActivityRecordedEvent{
		Type:          repository.ActivityCreate,
		ExhibitorID:   id,
		ExhibitorName: name,
		UserID:        uid,
	})
	fairNames := h.fairNames(ctx, fairIDs)
	for _, s := range sectors {
		h.rec.record(queue.ActivityRecordedEvent{
			Type:          repository.ActivityAssign,
			ExhibitorID:   id,
			ExhibitorName: name,
			SectorID:      s.ID,
			SectorName:    s.Name,
			FairID:        s.FairID,
			FairName:      fairNames[s.FairID],
			UserID:        uid,
		})
	}

	e, err := h.Exhibitors.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	view := toExhibitorView(e)
	view.SectorIDs = sectorIDs
	view.FairIDs = fairIDs
	return c.JSON(http.StatusCreated, view)
}

// Update handles PUT /v1/exhibitors/:id. Links are managed through the
// assignment endpoints, not here.
func (h *ExhibitorHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req exhibitorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if err := h.Exhibitors.Update(ctx, repository.Exhibitor{
		ID:      id,
		Name:    name,
		Company: optional(req.Company),
		Email:   optional(req.Email),
		Phone:   optional(req.Phone),
		Notes:   optional(req.Notes),
	}); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibitor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update exhibitor failed"})
	}

	h.rec.record(queue.ActivityRecordedEvent{
		Type:          repository.ActivityUpdate,
		ExhibitorID:   id,
		ExhibitorName: name,
		UserID:        uid,
	})

	e, err := h.Exhibitors.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toExhibitorView(e))
}

// Delete handles DELETE /v1/exhibitors/:id. Registrations disappear with
// the exhibitor; past activity entries keep the denormalized name.
func (h *ExhibitorHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if err := h.Exhibitors.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibitor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete exhibitor failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// fairNames resolves fair display names for activity entries; failures
// degrade to empty names rather than failing the mutation.
func (h *ExhibitorHandler) fairNames(ctx context.Context, ids []uint64) map[uint64]string {
	out := make(map[uint64]string, len(ids))
	for _, id := range ids {
		f, err := h.Fairs.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out[id] = f.Name
	}
	return out
}

// dedupe removes duplicate ids preserving first-seen order.
func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
