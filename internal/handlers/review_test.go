package handlers

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/models"
)

func seedReviewable(t *testing.T, db *gorm.DB) (models.User, models.Product) {
	user := models.User{Name: "reviewer", Email: "reviewer@example.com", PasswordHash: "x", Role: models.RoleUser, Active: true}
	require.NoError(t, db.Create(&user).Error)

	cat := models.Category{Name: "stuff", Slug: "stuff"}
	require.NoError(t, db.Create(&cat).Error)

	product := models.Product{Title: "boots", Description: "d", Price: 40, Quantity: 10, CategoryID: cat.ID}
	require.NoError(t, db.Create(&product).Error)
	return user, product
}

func nestedReviewContext(t *testing.T, userID uint, productID string, body any) echo.Context {
	_, c := doJSONRequest(t, http.MethodPost, "/api/v1/products/"+productID+"/reviews", body)
	c.SetPath("/api/v1/products/:id/reviews")
	c.SetParamNames("id")
	c.SetParamValues(productID)
	c.Set("userID", userID)
	c.Set("role", models.RoleUser)
	return c
}

func TestCreateReviewUpdatesProductRatings(t *testing.T) {
	db := newTestDB(t)
	user, product := seedReviewable(t, db)
	h := NewReviewHandler(db)

	c := nestedReviewContext(t, user.ID, "1", map[string]any{"title": "solid", "rating": 4})
	require.NoError(t, h.Create(c))

	other := models.User{Name: "other", Email: "other@example.com", PasswordHash: "x", Role: models.RoleUser, Active: true}
	require.NoError(t, db.Create(&other).Error)
	c = nestedReviewContext(t, other.ID, "1", map[string]any{"rating": 5})
	require.NoError(t, h.Create(c))

	var got models.Product
	require.NoError(t, db.First(&got, product.ID).Error)
	require.Equal(t, 4.5, got.RatingsAverage)
	require.Equal(t, 2, got.RatingsQuantity)
}

func TestCreateReviewTwiceIsConflict(t *testing.T) {
	db := newTestDB(t)
	user, _ := seedReviewable(t, db)
	h := NewReviewHandler(db)

	c := nestedReviewContext(t, user.ID, "1", map[string]any{"rating": 4})
	require.NoError(t, h.Create(c))

	c = nestedReviewContext(t, user.ID, "1", map[string]any{"rating": 2})
	err := h.Create(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestCreateReviewUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	user, _ := seedReviewable(t, db)
	h := NewReviewHandler(db)

	c := nestedReviewContext(t, user.ID, "55", map[string]any{"rating": 4})
	err := h.Create(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestUpdateReviewOwnershipEnforced(t *testing.T) {
	db := newTestDB(t)
	user, product := seedReviewable(t, db)
	h := NewReviewHandler(db)

	review := models.Review{Rating: 3, UserID: user.ID, ProductID: product.ID}
	require.NoError(t, db.Create(&review).Error)

	other := models.User{Name: "other", Email: "other@example.com", PasswordHash: "x", Role: models.RoleUser, Active: true}
	require.NoError(t, db.Create(&other).Error)

	_, c := doJSONRequest(t, http.MethodPut, "/api/v1/reviews/1", map[string]any{"rating": 1})
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("userID", other.ID)
	c.Set("role", models.RoleUser)

	err := h.Update(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestAdminCanDeleteAnyReview(t *testing.T) {
	db := newTestDB(t)
	user, product := seedReviewable(t, db)
	h := NewReviewHandler(db)

	review := models.Review{Rating: 5, UserID: user.ID, ProductID: product.ID}
	require.NoError(t, db.Create(&review).Error)
	require.NoError(t, recalcRatings(db, product.ID))

	admin := models.User{Name: "admin", Email: "admin@example.com", PasswordHash: "x", Role: models.RoleAdmin, Active: true}
	require.NoError(t, db.Create(&admin).Error)

	rec, c := doJSONRequest(t, http.MethodDelete, "/api/v1/reviews/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("userID", admin.ID)
	c.Set("role", models.RoleAdmin)

	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var got models.Product
	require.NoError(t, db.First(&got, product.ID).Error)
	require.Zero(t, got.RatingsAverage)
	require.Zero(t, got.RatingsQuantity)
}
