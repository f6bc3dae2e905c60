package handlers

import (
	"fmt"
	"net/http"

	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/crud"
	"github.com/dkotenko/eshop/internal/models"
	"github.com/dkotenko/eshop/internal/mykafka"
	"github.com/dkotenko/eshop/internal/query"
)

// NewProductHandler builds the CRUD handler for products. GetByID
// expands the product's reviews.
func NewProductHandler(db *gorm.DB, producer *mykafka.Producer, baseURL string) *crud.Handler[models.Product] {
	h := crud.New[models.Product](db, "product", query.Allow{
		Filter: []string{
			"title", "slug", "price", "quantity", "sold",
			"category_id", "sub_category_id", "brand_id", "ratings_average",
		},
		Sort: []string{"price", "sold", "ratings_average", "created_at", "title"},
		Select: []string{
			"id", "title", "slug", "description", "quantity", "sold",
			"price", "price_after_discount", "image_cover", "category_id",
			"sub_category_id", "brand_id", "ratings_average", "ratings_quantity",
			"created_at", "updated_at",
		},
		Search: []string{"title", "description"},
	})

	h.Preload = []string{"Reviews"}

	h.Decode = func(c echo.Context) (*models.Product, error) {
		var req struct {
			Title              string  `json:"title"       validate:"required,min=3,max=100"`
			Description        string  `json:"description" validate:"required,min=20"`
			Quantity           int     `json:"quantity"    validate:"required,min=0"`
			Price              float64 `json:"price"       validate:"required,gt=0"`
			PriceAfterDiscount float64 `json:"priceAfterDiscount" validate:"omitempty,gt=0"`
			ImageCover         string  `json:"imageCover"  validate:"required"`
			CategoryID         uint    `json:"categoryId"  validate:"required"`
			SubCategoryID      *uint   `json:"subCategoryId"`
			BrandID            *uint   `json:"brandId"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := c.Validate(&req); err != nil {
			return nil, err
		}
		if req.PriceAfterDiscount > 0 && req.PriceAfterDiscount >= req.Price {
			return nil, echo.NewHTTPError(http.StatusBadRequest,
				map[string]string{"priceAfterDiscount": "priceAfterDiscount must be below price"})
		}

		var cat models.Category
		if err := db.First(&cat, req.CategoryID).Error; err != nil {
			return nil, echo.NewHTTPError(http.StatusNotFound,
				fmt.Sprintf("no category found with id %d", req.CategoryID))
		}

		return &models.Product{
			Title:              req.Title,
			Slug:               slug.Make(req.Title),
			Description:        req.Description,
			Quantity:           req.Quantity,
			Price:              req.Price,
			PriceAfterDiscount: req.PriceAfterDiscount,
			ImageCover:         req.ImageCover,
			CategoryID:         req.CategoryID,
			SubCategoryID:      req.SubCategoryID,
			BrandID:            req.BrandID,
		}, nil
	}

	h.DecodeUpdate = func(c echo.Context) (*models.Product, error) {
		var req struct {
			Title              string  `json:"title"       validate:"omitempty,min=3,max=100"`
			Description        string  `json:"description" validate:"omitempty,min=20"`
			Quantity           int     `json:"quantity"`
			Price              float64 `json:"price"       validate:"omitempty,gt=0"`
			PriceAfterDiscount float64 `json:"priceAfterDiscount"`
			ImageCover         string  `json:"imageCover"`
			CategoryID         uint    `json:"categoryId"`
			SubCategoryID      *uint   `json:"subCategoryId"`
			BrandID            *uint   `json:"brandId"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := c.Validate(&req); err != nil {
			return nil, err
		}
		patch := &models.Product{
			Title:              req.Title,
			Description:        req.Description,
			Quantity:           req.Quantity,
			Price:              req.Price,
			PriceAfterDiscount: req.PriceAfterDiscount,
			ImageCover:         req.ImageCover,
			CategoryID:         req.CategoryID,
			SubCategoryID:      req.SubCategoryID,
			BrandID:            req.BrandID,
		}
		if req.Title != "" {
			patch.Slug = slug.Make(req.Title)
		}
		return patch, nil
	}

	h.Present = func(p *models.Product) {
		p.ImageCover = ImageURL(baseURL, "products", p.ImageCover)
	}

	h.AfterWrite = func(c echo.Context, p *models.Product) {
		publish(c, producer, "product_events", fmt.Sprint(p.ID), map[string]any{
			"type":      "product_changed",
			"productID": p.ID,
			"title":     p.Title,
		})
	}

	return h
}
