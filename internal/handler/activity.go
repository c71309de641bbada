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

// ActivityHandler serves the recent-activity feed. The route sits behind
// the Redis response cache, so repeated dashboard polls rarely hit MySQL.
type ActivityHandler struct {
	Activities *repository.ActivityRepo
}

func NewActivityHandler(activities *repository.ActivityRepo) *ActivityHandler {
	if activities == nil {
		panic("nil repository passed to NewActivityHandler")
	}
	return &ActivityHandler{Activities: activities}
}

type activityView struct {
	ID            uint64    `json:"id"`
	Type          string    `json:"type"`
	ExhibitorID   *uint64   `json:"exhibitor_id"`
	ExhibitorName string    `json:"exhibitor_name"`
	SectorID      *uint64   `json:"sector_id"`
	SectorName    string    `json:"sector_name,omitempty"`
	FairID        *uint64   `json:"fair_id"`
	FairName      string    `json:"fair_name,omitempty"`
	UserID        uint64    `json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Recent handles GET /v1/activities, newest first. ?limit= caps the page,
// defaulting to 50.
func (h *ActivityHandler) Recent(c echo.Context) error {
	limit := 50
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), reqTimeout)
	defer cancel()

	rows, err := h.Activities.ListRecent(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	items := make([]activityView, 0, len(rows))
	for _, a := range rows {
		v := activityView{
			ID:            a.ID,
			Type:          a.Type,
			ExhibitorName: a.ExhibitorName,
			SectorName:    a.SectorName.String,
			FairName:      a.FairName.String,
			UserID:        a.UserID,
			CreatedAt:     a.CreatedAt,
		}
		if a.ExhibitorID.Valid {
			id := uint64(a.ExhibitorID.Int64)
			v.ExhibitorID = &id
		}
		if a.SectorID.Valid {
			id := uint64(a.SectorID.Int64)
			v.SectorID = &id
		}
		if a.FairID.Valid {
			id := uint64(a.FairID.Int64)
			v.FairID = &id
		}
		items = append(items, v)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
