package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/utils"
)

const testSecret = "test-secret"

func protectedServer(t *testing.T, mw ...echo.MiddlewareFunc) (*echo.Echo, *struct {
	userID uint64
	role   string
	name   string
}) {
	t.Helper()
	seen := &struct {
		userID uint64
		role   string
		name   string
	}{}
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		seen.userID = UserID(c)
		seen.role = Role(c)
		seen.name = DisplayName(c)
		return c.NoContent(http.StatusOK)
	}, mw...)
	return e, seen
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	e, seen := protectedServer(t, JWTAuth(testSecret))

	tok, err := utils.NewAccessToken(testSecret, 42, model.RoleStaff, "Nadia", 5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), seen.userID)
	assert.Equal(t, model.RoleStaff, seen.role)
	assert.Equal(t, "Nadia", seen.name)
}

func TestJWTAuthRejectsMissingAndBadTokens(t *testing.T) {
	e, _ := protectedServer(t, JWTAuth(testSecret))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with a different secret.
	tok, err := utils.NewAccessToken("other-secret", 1, model.RoleStaff, "x", 5)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e, _ := protectedServer(t, JWTAuth(testSecret), RequireRole(model.RoleAdmin))

	staff, err := utils.NewAccessToken(testSecret, 7, model.RoleStaff, "s", 5)
	require.NoError(t, err)
	admin, err := utils.NewAccessToken(testSecret, 8, model.RoleAdmin, "a", 5)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+staff.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+admin.Token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
