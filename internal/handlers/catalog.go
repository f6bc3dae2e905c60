package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/crud"
	"github.com/dkotenko/eshop/internal/models"
	"github.com/dkotenko/eshop/internal/query"
)

// NewCategoryHandler builds the CRUD handler for categories.
func NewCategoryHandler(db *gorm.DB, baseURL string) *crud.Handler[models.Category] {
	h := crud.New[models.Category](db, "category", query.Allow{
		Filter: []string{"name", "slug"},
		Sort:   []string{"name", "created_at"},
		Select: []string{"id", "name", "slug", "image", "created_at", "updated_at"},
		Search: []string{"name"},
	})

	h.Decode = func(c echo.Context) (*models.Category, error) {
		var req struct {
			Name  string `json:"name"  validate:"required,min=3,max=32"`
			Image string `json:"image"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := c.Validate(&req); err != nil {
			return nil, err
		}
		return &models.Category{Name: req.Name, Slug: slug.Make(req.Name), Image: req.Image}, nil
	}

	h.DecodeUpdate = func(c echo.Context) (*models.Category, error) {
		var req struct {
			Name  string `json:"name"  validate:"omitempty,min=3,max=32"`
			Image string `json:"image"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := c.Validate(&req); err != nil {
			return nil, err
		}
		patch := &models.Category{Name: req.Name, Image: req.Image}
		if req.Name != "" {
			patch.Slug = slug.Make(req.Name)
		}
		return patch, nil
	}

	h.Present = func(cat *models.Category) {
		cat.Image = ImageURL(baseURL, "categories", cat.Image)
	}

	return h
}

// NewSubCategoryHandler builds the CRUD handler for subcategories. On
// the nested /categories/:categoryID/subcategories routes the list is
// scoped to the parent and creates inherit the parent id.
func NewSubCategoryHandler(db *gorm.DB) *crud.Handler[models.SubCategory] {
	h := crud.New[models.SubCategory](db, "subcategory", query.Allow{
		Filter: []string{"name", "slug", "category_id"},
		Sort:   []string{"name", "created_at"},
		Select: []string{"id", "name", "slug", "category_id", "created_at", "updated_at"},
		Search: []string{"name"},
	})

	h.Scope = func(c echo.Context, db *gorm.DB) *gorm.DB {
		if strings.Contains(c.Path(), "/categories/:id/subcategories") {
			return db.Where("category_id = ?", c.Param("id"))
		}
		return db
	}

	h.Decode = func(c echo.Context) (*models.SubCategory, error) {
		var req struct {
			Name       string `json:"name"       validate:"required,min=2,max=32"`
			CategoryID uint   `json:"categoryId"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if strings.Contains(c.Path(), "/categories/:id/subcategories") {
			parent := c.Param("id")
			id, err := strconv.Atoi(parent)
			if err != nil {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid category id "+parent)
			}
			req.CategoryID = uint(id)
		}
		if req.CategoryID == 0 {
			return nil, echo.NewHTTPError(http.StatusBadRequest, map[string]string{"categoryId": "categoryId is required"})
		}
		if err := c.Validate(&req); err != nil {
			return nil, err
		}

		var parent models.Category
		if err := db.First(&parent, req.CategoryID).Error; err != nil {
			return nil, echo.NewHTTPError(http.StatusNotFound,
				"no category found with id "+strconv.Itoa(int(req.CategoryID)))
		}
		return &models.SubCategory{Name: req.Name, Slug: slug.Make(req.Name), CategoryID: req.CategoryID}, nil
	}

	h.DecodeUpdate = func(c echo.Context) (*models.SubCategory, error) {
		var req struct {
			Name       string `json:"name" validate:"omitempty,min=2,max=32"`
			CategoryID uint   `json:"categoryId"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := c.Validate(&req); err != nil {
			return nil, err
		}
		patch := &models.SubCategory{Name: req.Name, CategoryID: req.CategoryID}
		if req.Name != "" {
			patch.Slug = slug.Make(req.Name)
		}
		return patch, nil
	}

	return h
}

// NewBrandHandler builds the CRUD handler for brands.
func NewBrandHandler(db *gorm.DB, baseURL string) *crud.Handler[models.Brand] {
	h := crud.New[models.Brand](db, "brand", query.Allow{
		Filter: []string{"name", "slug"},
		Sort:   []string{"name", "created_at"},
		Select: []string{"id", "name", "slug", "image", "created_at", "updated_at"},
		Search: []string{"name"},
	})

	h.Decode = func(c echo.Context) (*models.Brand, error) {
		var req struct {
			Name  string `json:"name"  validate:"required,min=2,max=32"`
			Image string `json:"image"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := c.Validate(&req); err != nil {
			return nil, err
		}
		return &models.Brand{Name: req.Name, Slug: slug.Make(req.Name), Image: req.Image}, nil
	}

	h.DecodeUpdate = func(c echo.Context) (*models.Brand, error) {
		var req struct {
			Name  string `json:"name" validate:"omitempty,min=2,max=32"`
			Image string `json:"image"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err := c.Validate(&req); err != nil {
			return nil, err
		}
		patch := &models.Brand{Name: req.Name, Image: req.Image}
		if req.Name != "" {
			patch.Slug = slug.Make(req.Name)
		}
		return patch, nil
	}

	h.Present = func(b *models.Brand) {
		b.Image = ImageURL(baseURL, "brands", b.Image)
	}

	return h
}
