package handler

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fairops/fairadmin/internal/queue"
	"github.com/fairops/fairadmin/internal/repository"
)

// reqTimeout bounds every database call made from a handler.
const reqTimeout = 5 * time.Second

// getUserID extracts the user_id placed in the context by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID parses a numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// activityRecorder publishes feed events to the broker and falls back to a
// direct insert when publishing fails, so the audit trail never depends on
// broker availability. Recording is best-effort: a failure is logged and the
// originating request still succeeds.
type activityRecorder struct {
	Activities *repository.ActivityRepo
	Publish    func(ctx context.Context, ev queue.ActivityRecordedEvent) error
}

func (rec *activityRecorder) record(ev queue.ActivityRecordedEvent) {
	ev.RecordedAt = time.Now().UTC().Format(time.RFC3339)

	ctx, cancel := context.WithTimeout(context.Background(), reqTimeout)
	defer cancel()

	if rec.Publish != nil {
		if err := rec.Publish(ctx, ev); err == nil {
			return
		}
	}
	if err := rec.Activities.Insert(ctx, queue.ActivityFromEvent(ev)); err != nil {
		log.Printf("activity: direct insert failed: %v", err)
	}
}
