package middleware

// identity.go provides typed accessors for the claims JWTAuth stores
// in the Echo context.  Handlers use these instead of repeating the
// c.Get type assertions.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's ID, or 0 when the request
// is anonymous.
func UserID(c echo.Context) uint64 {
	if v, ok := c.Get("user_id").(uint64); ok {
		return v
	}
	return 0
}

// Role returns the authenticated user's role, or "" when anonymous.
func Role(c echo.Context) string {
	if v, ok := c.Get("role").(string); ok {
		return v
	}
	return ""
}

// DisplayName returns the authenticated user's display name, or ""
// when anonymous.
func DisplayName(c echo.Context) string {
	if v, ok := c.Get("display_name").(string); ok {
		return v
	}
	return ""
}

// rateKeyUser renders the user identity for rate-limit key building.
// Anonymous requests share the "anon" bucket per IP.
func rateKeyUser(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
