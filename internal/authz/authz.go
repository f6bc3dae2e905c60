// Package authz holds the route capability table: one declarative map
// from capability to allowed roles, consulted by a single middleware.
package authz

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkotenko/eshop/internal/models"
)

type Capability string

const (
	CatalogWrite  Capability = "catalog:write"
	CouponsManage Capability = "coupons:manage"
	UsersManage   Capability = "users:manage"
	OrdersView    Capability = "orders:view"
	OrdersUpdate  Capability = "orders:update"
	CartUse       Capability = "cart:use"
	ReviewsWrite  Capability = "reviews:write"
	ProfileUse    Capability = "profile:use"
	UploadsWrite  Capability = "uploads:write"
)

var table = map[Capability][]string{
	CatalogWrite:  {models.RoleAdmin, models.RoleManager},
	CouponsManage: {models.RoleAdmin, models.RoleManager},
	UsersManage:   {models.RoleAdmin},
	OrdersView:    {models.RoleUser, models.RoleManager, models.RoleAdmin},
	OrdersUpdate:  {models.RoleAdmin, models.RoleManager},
	CartUse:       {models.RoleUser},
	ReviewsWrite:  {models.RoleUser},
	ProfileUse:    {models.RoleUser, models.RoleManager, models.RoleAdmin},
	UploadsWrite:  {models.RoleAdmin, models.RoleManager},
}

// Allowed reports whether a role may exercise a capability.
func Allowed(cap Capability, role string) bool {
	for _, r := range table[cap] {
		if r == role {
			return true
		}
	}
	return false
}

// Require checks the authenticated role from the request context
// against the capability table before the handler runs.
func Require(cap Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !Allowed(cap, role) {
				return echo.NewHTTPError(http.StatusForbidden,
					"role "+role+" is not allowed to access this route")
			}
			return next(c)
		}
	}
}
