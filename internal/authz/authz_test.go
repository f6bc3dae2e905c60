package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/dkotenko/eshop/internal/models"
)

func runRequire(t *testing.T, cap Capability, role any) (bool, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != nil {
		c.Set("role", role)
	}

	called := false
	err := Require(cap)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return called, err
}

func TestRequireWithoutRoleIsUnauthorized(t *testing.T) {
	called, err := runRequire(t, CatalogWrite, nil)
	require.False(t, called)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireWrongRoleIsForbidden(t *testing.T) {
	called, err := runRequire(t, CatalogWrite, models.RoleUser)
	require.False(t, called)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestRequireAllowedRolePasses(t *testing.T) {
	called, err := runRequire(t, CatalogWrite, models.RoleManager)
	require.NoError(t, err)
	require.True(t, called)
}

func TestAllowedTable(t *testing.T) {
	require.True(t, Allowed(UsersManage, models.RoleAdmin))
	require.False(t, Allowed(UsersManage, models.RoleManager))
	require.True(t, Allowed(CartUse, models.RoleUser))
	require.False(t, Allowed(CartUse, models.RoleAdmin))
	require.False(t, Allowed(Capability("unknown"), models.RoleAdmin))
}
