package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/models"
	"github.com/dkotenko/eshop/internal/respond"
)

// WishlistHandler manages the authenticated user's wishlist.
type WishlistHandler struct {
	DB      *gorm.DB
	BaseURL string
}

func (h *WishlistHandler) List(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	products := []models.Product{}
	err = h.DB.
		Joins("JOIN wishlist_items ON wishlist_items.product_id = products.id").
		Where("wishlist_items.user_id = ?", userID).
		Find(&products).Error
	if err != nil {
		return err
	}
	for i := range products {
		products[i].ImageCover = ImageURL(h.BaseURL, "products", products[i].ImageCover)
	}

	results := len(products)
	return c.JSON(http.StatusOK, respond.Envelope{
		Status:  "success",
		Results: &results,
		Data:    products,
	})
}

func (h *WishlistHandler) Add(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"productId" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound,
				fmt.Sprintf("no product found with id %d", req.ProductID))
		}
		return err
	}

	item := models.WishlistItem{UserID: userID, ProductID: req.ProductID}
	err = h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).
		FirstOrCreate(&item).Error
	if err != nil {
		return err
	}

	return respond.Success(c, http.StatusCreated, item)
}

func (h *WishlistHandler) Remove(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}
	productID := c.Param("productID")

	result := h.DB.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no wishlist item found with id "+productID)
	}
	return c.NoContent(http.StatusNoContent)
}
