package cart

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/handlers"
	"github.com/dkotenko/eshop/internal/models"
	"github.com/dkotenko/eshop/internal/mykafka"
	"github.com/dkotenko/eshop/internal/respond"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	cart, err := loadCart(h.DB, userID)
	if err != nil {
		return err
	}

	results := len(cart.Items)
	return c.JSON(http.StatusOK, respond.Envelope{
		Status:  "success",
		Results: &results,
		Data:    cart,
	})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint   `json:"productId" validate:"required"`
		Quantity  int    `json:"quantity"  validate:"omitempty,min=1"`
		Color     string `json:"color"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound,
				fmt.Sprintf("no product found with id %d", req.ProductID))
		}
		return err
	}

	var cart models.Cart
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).
			FirstOrCreate(&cart, models.Cart{UserID: userID}).Error; err != nil {
			return err
		}

		var item models.CartItem
		err := tx.Where("cart_id = ? AND product_id = ? AND color = ?",
			cart.ID, req.ProductID, req.Color).First(&item).Error
		switch {
		case err == nil:
			item.Quantity += req.Quantity
			if err := tx.Save(&item).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.CartItem{
				CartID:    cart.ID,
				ProductID: req.ProductID,
				Quantity:  req.Quantity,
				Color:     req.Color,
				Price:     product.EffectivePrice(),
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return recalcTotals(tx, cart.ID)
	})
	if txErr != nil {
		return txErr
	}

	cart, err = loadCart(h.DB, userID)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
	})

	return respond.Success(c, http.StatusOK, cart)
}

func (h *CartHandler) UpdateItemQuantity(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}
	itemID := c.Param("itemID")

	var req struct {
		Quantity int `json:"quantity" validate:"required,min=1"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	cart, err := loadCart(h.DB, userID)
	if err != nil {
		return err
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var item models.CartItem
		if err := tx.Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "no cart item found with id "+itemID)
			}
			return err
		}
		item.Quantity = req.Quantity
		if err := tx.Save(&item).Error; err != nil {
			return err
		}
		return recalcTotals(tx, cart.ID)
	})
	if txErr != nil {
		return txErr
	}

	cart, err = loadCart(h.DB, userID)
	if err != nil {
		return err
	}
	return respond.Success(c, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}
	itemID := c.Param("itemID")

	cart, err := loadCart(h.DB, userID)
	if err != nil {
		return err
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND cart_id = ?", itemID, cart.ID).Delete(&models.CartItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return echo.NewHTTPError(http.StatusNotFound, "no cart item found with id "+itemID)
		}
		return recalcTotals(tx, cart.ID)
	})
	if txErr != nil {
		return txErr
	}

	cart, err = loadCart(h.DB, userID)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":   "cart_item_removed",
		"userID": userID,
		"itemID": itemID,
	})

	return respond.Success(c, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	var cart models.Cart
	if err := h.DB.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.NoContent(http.StatusNoContent)
		}
		return err
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cart).Error
	})
	if txErr != nil {
		return txErr
	}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) ApplyCoupon(c echo.Context) error {
	userID, err := handlers.UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Coupon string `json:"coupon" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var coupon models.Coupon
	name := strings.ToUpper(req.Coupon)
	if err := h.DB.Where("name = ?", name).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "coupon "+name+" is invalid or expired")
		}
		return err
	}
	if time.Now().After(coupon.Expire) {
		return echo.NewHTTPError(http.StatusNotFound, "coupon "+name+" is invalid or expired")
	}

	cart, err := loadCart(h.DB, userID)
	if err != nil {
		return err
	}

	discounted := round2(cart.TotalCartPrice * (1 - coupon.Discount/100))
	err = h.DB.Model(&models.Cart{}).Where("id = ?", cart.ID).
		Updates(map[string]interface{}{
			"total_price_after_discount": discounted,
			"coupon_name":                coupon.Name,
		}).Error
	if err != nil {
		return err
	}

	cart, err = loadCart(h.DB, userID)
	if err != nil {
		return err
	}
	return respond.Success(c, http.StatusOK, cart)
}
