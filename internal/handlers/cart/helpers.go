package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/models"
)

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func loadCart(db *gorm.DB, userID uint) (models.Cart, error) {
	var cart models.Cart
	err := db.Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cart, echo.NewHTTPError(http.StatusNotFound, "no cart found for this user")
	}
	return cart, err
}

// recalcTotals recomputes the cart total from its lines. Any mutation
// invalidates a previously applied coupon.
func recalcTotals(tx *gorm.DB, cartID uint) error {
	var total float64
	err := tx.Model(&models.CartItem{}).
		Select("COALESCE(SUM(quantity * price), 0)").
		Where("cart_id = ?", cartID).
		Scan(&total).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.Cart{}).Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"total_cart_price":           round2(total),
			"total_price_after_discount": 0,
			"coupon_name":                "",
		}).Error
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
