package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/models"
	"github.com/dkotenko/eshop/internal/respond"
)

// AddressHandler manages the authenticated user's address book.
type AddressHandler struct {
	DB *gorm.DB
}

func (h *AddressHandler) List(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	addresses := []models.Address{}
	if err := h.DB.Where("user_id = ?", userID).Find(&addresses).Error; err != nil {
		return err
	}
	results := len(addresses)
	return c.JSON(http.StatusOK, respond.Envelope{
		Status:  "success",
		Results: &results,
		Data:    addresses,
	})
}

func (h *AddressHandler) Create(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Alias      string `json:"alias"   validate:"required,min=2,max=32"`
		Details    string `json:"details" validate:"required,min=5"`
		Phone      string `json:"phone"`
		City       string `json:"city"`
		PostalCode string `json:"postalCode"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	address := models.Address{
		UserID:     userID,
		Alias:      req.Alias,
		Details:    req.Details,
		Phone:      req.Phone,
		City:       req.City,
		PostalCode: req.PostalCode,
	}
	if err := h.DB.Create(&address).Error; err != nil {
		return err
	}
	return respond.Success(c, http.StatusCreated, address)
}

func (h *AddressHandler) Delete(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}
	id := c.Param("id")

	var address models.Address
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no address found with id "+id)
		}
		return err
	}
	if err := h.DB.Delete(&address).Error; err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
