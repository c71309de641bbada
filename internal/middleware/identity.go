package middleware

// identity.go holds helpers shared across middleware files. currentUserID
// renders the authenticated user id stored by JWTAuth as a string for cache
// and rate-limit keys; unauthenticated requests key as "anon".

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID returns the request's user id as a string, or "anon" when
// the request carries no authenticated user.
func currentUserID(c echo.Context) string {
	if v := c.Get("user_id"); v != nil {
		if id, ok := v.(uint64); ok && id != 0 {
			return strconv.FormatUint(id, 10)
		}
	}
	return "anon"
}
