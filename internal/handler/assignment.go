package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fairops/fairadmin/internal/queue"
	"github.com/fairops/fairadmin/internal/repository"
	queue_publisher "github.com/fairops/fairadmin/internal/service"
)

// AssignmentHandler manages the registration links between exhibitors and
// sectors/fairs. Assignment is idempotent: repeating a request neither
// duplicates a link nor produces a second activity entry. Over-capacity
// assignment is allowed; the capacity view flags it instead of blocking.
type AssignmentHandler struct {
	Exhibitors *repository.ExhibitorRepo
	Sectors    *repository.SectorRepo
	Fairs      *repository.FairRepo
	Links      *repository.LinkRepo
	rec        *activityRecorder
}

func NewAssignmentHandler(ex *repository.ExhibitorRepo, sectors *repository.SectorRepo,
	fairs *repository.FairRepo, links *repository.LinkRepo, activities *repository.ActivityRepo) *AssignmentHandler {
	if ex == nil || sectors == nil || fairs == nil || links == nil || activities == nil {
		panic("nil repository passed to NewAssignmentHandler")
	}
	return &AssignmentHandler{
		Exhibitors: ex,
		Sectors:    sectors,
		Fairs:      fairs,
		Links:      links,
		rec:        &activityRecorder{Activities: activities, Publish: queue_publisher.PublishActivityRecorded},
	}
}

// AssignSector handles POST /v1/exhibitors/:id/sectors. Registering into a
// sector implies the owning fair's link. Returns 201 when a new link was
// created and 200 when the registration already existed.
func (h *AssignmentHandler) AssignSector(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	exhibitorID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		SectorID uint64 `json:"sector_id"`
	}
	if err := c.Bind(&body); err != nil || body.SectorID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sector_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	e, err := h.Exhibitors.GetByID(ctx, exhibitorID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibitor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	s, err := h.Sectors.GetByID(ctx, body.SectorID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sector not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	created, err := h.Links.CreateSectorLink(ctx, exhibitorID, s.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}
	if !created {
		return c.JSON(http.StatusOK, echo.Map{"created": false})
	}
	if _, err := h.Links.CreateFairLink(ctx, exhibitorID, s.FairID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "link fair failed"})
	}

	var fairName string
	if f, ferr := h.Fairs.GetByID(ctx, s.FairID); ferr == nil {
		fairName = f.Name
	}
	h.rec.record(queue.ActivityRecordedEvent{
		Type:          repository.ActivityAssign,
		ExhibitorID:   e.ID,
		ExhibitorName: e.Name,
		SectorID:      s.ID,
		SectorName:    s.Name,
		FairID:        s.FairID,
		FairName:      fairName,
		UserID:        uid,
	})
	return c.JSON(http.StatusCreated, echo.Map{"created": true})
}

// AssignSectorsBulk handles POST /v1/exhibitors/:id/sectors/bulk. Already
// linked sectors are skipped; only genuinely new links produce activity
// entries.
func (h *AssignmentHandler) AssignSectorsBulk(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	exhibitorID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		SectorIDs []uint64 `json:"sector_ids"`
	}
	if err := c.Bind(&body); err != nil || len(body.SectorIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sector_ids required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	e, err := h.Exhibitors.GetByID(ctx, exhibitorID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibitor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	wanted := dedupe(body.SectorIDs)
	sectors, err := h.Sectors.ListByIDs(ctx, wanted)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if len(sectors) != len(wanted) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown sector id"})
	}

	already, err := h.Links.LinkedSectorIDs(ctx, exhibitorID, wanted)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	var fresh []repository.Sector
	newIDs := make([]uint64, 0, len(sectors))
	fairIDs := make([]uint64, 0, len(sectors))
	for _, s := range sectors {
		if already[s.ID] {
			continue
		}
		fresh = append(fresh, s)
		newIDs = append(newIDs, s.ID)
		fairIDs = append(fairIDs, s.FairID)
	}
	fairIDs = dedupe(fairIDs)

	if err := h.Links.CreateSectorLinksBulk(ctx, exhibitorID, newIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}
	if err := h.Links.CreateFairLinksBulk(ctx, exhibitorID, fairIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "link fairs failed"})
	}

	fairNames := make(map[uint64]string, len(fairIDs))
	for _, id := range fairIDs {
		if f, ferr := h.Fairs.GetByID(ctx, id); ferr == nil {
			fairNames[id] = f.Name
		}
	}
	for _, s := range fresh {
		h.rec.record(queue.ActivityRecordedEvent{
			Type:          repository.ActivityAssign,
			ExhibitorID:   e.ID,
			ExhibitorName: e.Name,
			SectorID:      s.ID,
			SectorName:    s.Name,
			FairID:        s.FairID,
			FairName:      fairNames[s.FairID],
			UserID:        uid,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"created": len(newIDs),
		"skipped": len(wanted) - len(newIDs),
	})
}

// UnassignSector handles DELETE /v1/exhibitors/:id/sectors/:sectorID. The
// implied fair link is kept: leaving one sector does not withdraw the
// exhibitor from the fair.
func (h *AssignmentHandler) UnassignSector(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	exhibitorID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	sectorID, err := parseID(c, "sectorID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sector id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	e, err := h.Exhibitors.GetByID(ctx, exhibitorID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibitor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	if err := h.Links.DeleteSectorLink(ctx, exhibitorID, sectorID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unassign failed"})
	}

	ev := queue.ActivityRecordedEvent{
		Type:          repository.ActivityUnassign,
		ExhibitorID:   e.ID,
		ExhibitorName: e.Name,
		SectorID:      sectorID,
		UserID:        uid,
	}
	if s, serr := h.Sectors.GetByID(ctx, sectorID); serr == nil {
		ev.SectorName = s.Name
		ev.FairID = s.FairID
		if f, ferr := h.Fairs.GetByID(ctx, s.FairID); ferr == nil {
			ev.FairName = f.Name
		}
	}
	h.rec.record(ev)
	return c.NoContent(http.StatusNoContent)
}

// LinkFair handles POST /v1/exhibitors/:id/fairs: a fair-level association
// without any sector registration.
func (h *AssignmentHandler) LinkFair(c echo.Context) error {
	exhibitorID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		FairID uint64 `json:"fair_id"`
	}
	if err := c.Bind(&body); err != nil || body.FairID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fair_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if _, err := h.Exhibitors.GetByID(ctx, exhibitorID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibitor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if _, err := h.Fairs.GetByID(ctx, body.FairID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fair not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	created, err := h.Links.CreateFairLink(ctx, exhibitorID, body.FairID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "link fair failed"})
	}
	if created {
		return c.JSON(http.StatusCreated, echo.Map{"created": true})
	}
	return c.JSON(http.StatusOK, echo.Map{"created": false})
}

// UnlinkFair handles DELETE /v1/exhibitors/:id/fairs/:fairID. Sector
// registrations under the fair are unaffected.
func (h *AssignmentHandler) UnlinkFair(c echo.Context) error {
	exhibitorID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	fairID, err := parseID(c, "fairID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid fair id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	if err := h.Links.DeleteFairLink(ctx, exhibitorID, fairID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fair link not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unlink failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
