package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/crud"
	"github.com/dkotenko/eshop/internal/models"
	"github.com/dkotenko/eshop/internal/query"
)

// NewCouponHandler builds the CRUD handler for coupons. Names are
// stored uppercase so lookup at apply time is case-insensitive.
func NewCouponHandler(db *gorm.DB) *crud.Handler[models.Coupon] {
	h := crud.New[models.Coupon](db, "coupon", query.Allow{
		Filter: []string{"name", "discount", "expire"},
		Sort:   []string{"name", "discount", "expire"},
		Select: []string{"id", "name", "discount", "expire"},
		Search: []string{"name"},
	})

	h.Decode = func(c echo.Context) (*models.Coupon, error) {
		var req struct {
			Name     string    `json:"name"     validate:"required,min=3,max=32"`
			Expire   time.Time `json:"expire"   validate:"required"`
			Discount float64   `json:"discount" validate:"required,gt=0,lte=100"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := c.Validate(&req); err != nil {
			return nil, err
		}
		return &models.Coupon{
			Name:     strings.ToUpper(req.Name),
			Expire:   req.Expire,
			Discount: req.Discount,
		}, nil
	}

	h.DecodeUpdate = func(c echo.Context) (*models.Coupon, error) {
		var req struct {
			Name     string    `json:"name"     validate:"omitempty,min=3,max=32"`
			Expire   time.Time `json:"expire"`
			Discount float64   `json:"discount" validate:"omitempty,gt=0,lte=100"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := c.Validate(&req); err != nil {
			return nil, err
		}
		return &models.Coupon{
			Name:     strings.ToUpper(req.Name),
			Expire:   req.Expire,
			Discount: req.Discount,
		}, nil
	}

	return h
}
