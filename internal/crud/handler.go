// Package crud implements the shared list/get/create/update/delete
// handler reused by every catalog resource. A resource plugs in its
// query allow-lists, request decoding and an optional presentation
// transform; the rest is common.
package crud

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/query"
	"github.com/dkotenko/eshop/internal/respond"
)

type Handler[T any] struct {
	DB       *gorm.DB
	Resource string

	Allow query.Allow

	// Decode binds and validates a create request into a new record.
	Decode func(echo.Context) (*T, error)
	// DecodeUpdate binds a partial update; returned record's non-zero
	// fields are applied.
	DecodeUpdate func(echo.Context) (*T, error)
	// Present rewrites a record for display after retrieval, e.g.
	// qualifying stored image filenames into absolute URLs.
	Present func(*T)
	// Scope narrows every query, e.g. to a parent resource on nested
	// routes or to the requesting user.
	Scope func(echo.Context, *gorm.DB) *gorm.DB
	// AfterWrite runs once a create/update/delete committed.
	AfterWrite func(echo.Context, *T)
	// Preload names associations expanded on GetByID.
	Preload []string
}

func New[T any](db *gorm.DB, resource string, allow query.Allow) *Handler[T] {
	return &Handler[T]{DB: db, Resource: resource, Allow: allow}
}

func (h *Handler[T]) NotFound(id string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound,
		fmt.Sprintf("no %s found with id %s", h.Resource, id))
}

func (h *Handler[T]) base(c echo.Context) *gorm.DB {
	db := h.DB.Model(new(T))
	if h.Scope != nil {
		db = h.Scope(c, db)
	}
	return db
}

func (h *Handler[T]) List(c echo.Context) error {
	q := query.Parse(c.QueryParams(), h.Allow)

	var total int64
	if err := q.Scope(h.base(c)).Count(&total).Error; err != nil {
		return err
	}

	items := []T{}
	if err := q.Apply(h.base(c)).Find(&items).Error; err != nil {
		return err
	}
	if h.Present != nil {
		for i := range items {
			h.Present(&items[i])
		}
	}

	return respond.List(c, items, len(items), respond.NewPagination(q.Page, q.Limit, total))
}

func (h *Handler[T]) GetByID(c echo.Context) error {
	id := c.Param("id")
	if _, err := strconv.Atoi(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id "+id)
	}

	db := h.base(c)
	for _, assoc := range h.Preload {
		db = db.Preload(assoc)
	}

	var item T
	if err := db.Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.NotFound(id)
		}
		return err
	}
	if h.Present != nil {
		h.Present(&item)
	}
	return respond.Success(c, http.StatusOK, item)
}

func (h *Handler[T]) Create(c echo.Context) error {
	item, err := h.decodeCreate(c)
	if err != nil {
		return err
	}
	if err := h.DB.Create(item).Error; err != nil {
		return err
	}
	if h.Present != nil {
		h.Present(item)
	}
	if h.AfterWrite != nil {
		h.AfterWrite(c, item)
	}
	return respond.Success(c, http.StatusCreated, item)
}

func (h *Handler[T]) Update(c echo.Context) error {
	id := c.Param("id")
	if _, err := strconv.Atoi(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id "+id)
	}

	var existing T
	if err := h.base(c).Where("id = ?", id).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.NotFound(id)
		}
		return err
	}

	patch, err := h.decodeUpdate(c)
	if err != nil {
		return err
	}
	if err := h.DB.Model(&existing).Updates(patch).Error; err != nil {
		return err
	}

	if err := h.DB.Where("id = ?", id).First(&existing).Error; err != nil {
		return err
	}
	if h.Present != nil {
		h.Present(&existing)
	}
	if h.AfterWrite != nil {
		h.AfterWrite(c, &existing)
	}
	return respond.Success(c, http.StatusOK, existing)
}

func (h *Handler[T]) Delete(c echo.Context) error {
	id := c.Param("id")
	if _, err := strconv.Atoi(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id "+id)
	}

	var existing T
	if err := h.base(c).Where("id = ?", id).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.NotFound(id)
		}
		return err
	}

	if err := h.DB.Delete(&existing).Error; err != nil {
		return err
	}
	if h.AfterWrite != nil {
		h.AfterWrite(c, &existing)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler[T]) decodeCreate(c echo.Context) (*T, error) {
	if h.Decode != nil {
		return h.Decode(c)
	}
	item := new(T)
	if err := c.Bind(item); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return item, nil
}

func (h *Handler[T]) decodeUpdate(c echo.Context) (*T, error) {
	if h.DecodeUpdate != nil {
		return h.DecodeUpdate(c)
	}
	return h.decodeCreate(c)
}
