package middleware

// approval.go enforces the approval gate on every protected request. A JWT
// may outlive an approval change (an admin rejecting a user, or deleting
// one), so the token alone is not proof of access: the profile is
// re-checked and an unapproved user is forcibly signed out wherever
// detected, mirroring the periodic re-validation sweep.

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fairops/fairadmin/internal/repository"
)

// approvalChecker is the slice of the profile repository this middleware
// needs; declared locally so tests can substitute a fake.
type approvalChecker interface {
	GetByUserID(ctx context.Context, userID uint64) (repository.Profile, error)
}

// tokenRevoker force-clears a user's refresh tokens when the gate fails.
type tokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// RequireApproved re-checks the caller's profile on each request and blocks
// anything but an approved, active account. Missing profile and
// pending/rejected statuses each get their own message, and the user's
// refresh tokens are revoked so the session cannot be renewed.
func RequireApproved(profiles approvalChecker, tokens tokenRevoker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := c.Get("user_id").(uint64)
			if !ok || uid == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			p, err := profiles.GetByUserID(ctx, uid)
			if err != nil {
				// A missing row means the account was deleted out from under
				// the session. Any other backend error is treated
				// conservatively: report unavailable, leave the session
				// untouched and let the next request or sweep retry.
				if err != sql.ErrNoRows {
					return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "profile check unavailable"})
				}
				_ = tokens.RevokeAllForUser(ctx, uid)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account profile not found, contact support"})
			}
			switch p.ApprovalStatus {
			case repository.ApprovalApproved:
				// allowed
			case repository.ApprovalPending:
				_ = tokens.RevokeAllForUser(ctx, uid)
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account pending admin approval"})
			default: // rejected or unknown
				_ = tokens.RevokeAllForUser(ctx, uid)
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account rejected, access denied"})
			}
			if !p.IsActive {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account deactivated"})
			}

			c.Set("profile", p)
			return next(c)
		}
	}
}
