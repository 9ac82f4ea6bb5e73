package middleware // reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the token's claims into the request context.
// Handlers behind it read the authenticated user via c.Get("user_id")
// (uint64), c.Get("role") and c.Get("display_name").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// Numeric claims decode as float64; normalize the subject
			// to uint64 once so handlers never repeat the dance.
			if sub, ok := claims["sub"].(float64); ok {
				c.Set("user_id", uint64(sub))
			}
			if role, ok := claims["role"].(string); ok {
				c.Set("role", role)
			}
			if name, ok := claims["name"].(string); ok {
				c.Set("display_name", name)
			}
			return next(c)
		}
	}
}
