package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/crud"
	"github.com/dkotenko/eshop/internal/models"
	"github.com/dkotenko/eshop/internal/query"
	"github.com/dkotenko/eshop/internal/respond"
)

// ReviewHandler covers reviews nested under products. List/get reuse
// the CRUD factory; writes are custom because they enforce ownership
// and keep the product's ratings aggregate current.
type ReviewHandler struct {
	DB   *gorm.DB
	crud *crud.Handler[models.Review]
}

func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	h := crud.New[models.Review](db, "review", query.Allow{
		Filter: []string{"rating", "user_id", "product_id"},
		Sort:   []string{"rating", "created_at"},
		Select: []string{"id", "title", "rating", "user_id", "product_id", "created_at", "updated_at"},
		Search: []string{"title"},
	})
	h.Scope = func(c echo.Context, db *gorm.DB) *gorm.DB {
		if strings.Contains(c.Path(), "/products/:id/reviews") {
			return db.Where("product_id = ?", c.Param("id"))
		}
		return db
	}
	return &ReviewHandler{DB: db, crud: h}
}

func (h *ReviewHandler) List(c echo.Context) error    { return h.crud.List(c) }
func (h *ReviewHandler) GetByID(c echo.Context) error { return h.crud.GetByID(c) }

func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Title     string  `json:"title"`
		Rating    float64 `json:"rating"    validate:"required,min=1,max=5"`
		ProductID uint    `json:"productId"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.Contains(c.Path(), "/products/:id/reviews") {
		parent := c.Param("id")
		id, err := strconv.Atoi(parent)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid product id "+parent)
		}
		req.ProductID = uint(id)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound,
			fmt.Sprintf("no product found with id %d", req.ProductID))
	}

	var existing models.Review
	err = h.DB.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "you already reviewed this product")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	review := models.Review{
		Title:     req.Title,
		Rating:    req.Rating,
		UserID:    userID,
		ProductID: req.ProductID,
	}
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		return recalcRatings(tx, review.ProductID)
	})
	if txErr != nil {
		return txErr
	}

	return respond.Success(c, http.StatusCreated, review)
}

func (h *ReviewHandler) Update(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}
	id := c.Param("id")

	var review models.Review
	if err := h.DB.Where("id = ?", id).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.crud.NotFound(id)
		}
		return err
	}
	if review.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "you can only update your own review")
	}

	var req struct {
		Title  string  `json:"title"`
		Rating float64 `json:"rating" validate:"omitempty,min=1,max=5"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Title != "" {
		review.Title = req.Title
	}
	if req.Rating != 0 {
		review.Rating = req.Rating
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&review).Error; err != nil {
			return err
		}
		return recalcRatings(tx, review.ProductID)
	})
	if txErr != nil {
		return txErr
	}

	return respond.Success(c, http.StatusOK, review)
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}
	id := c.Param("id")

	var review models.Review
	if err := h.DB.Where("id = ?", id).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.crud.NotFound(id)
		}
		return err
	}
	if review.UserID != userID && Role(c) != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "you can only delete your own review")
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&review).Error; err != nil {
			return err
		}
		return recalcRatings(tx, review.ProductID)
	})
	if txErr != nil {
		return txErr
	}

	return c.NoContent(http.StatusNoContent)
}

func recalcRatings(tx *gorm.DB, productID uint) error {
	var agg struct {
		Avg   float64
		Count int
	}
	err := tx.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return err
	}
	return tx.Model(&models.Product{}).Where("id = ?", productID).
		Updates(map[string]interface{}{
			"ratings_average":  agg.Avg,
			"ratings_quantity": agg.Count,
		}).Error
}
