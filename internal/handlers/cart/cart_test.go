package cart

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/models"
	"github.com/dkotenko/eshop/internal/validate"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) (models.User, models.Product, models.Product) {
	user := models.User{Name: "buyer", Email: "buyer@example.com", PasswordHash: "x", Role: models.RoleUser, Active: true}
	require.NoError(t, db.Create(&user).Error)

	cat := models.Category{Name: "stuff", Slug: "stuff"}
	require.NoError(t, db.Create(&cat).Error)

	boots := models.Product{Title: "boots", Description: "d", Price: 40, Quantity: 10, CategoryID: cat.ID}
	require.NoError(t, db.Create(&boots).Error)

	hat := models.Product{Title: "hat", Description: "d", Price: 12.5, PriceAfterDiscount: 10, Quantity: 10, CategoryID: cat.ID}
	require.NoError(t, db.Create(&hat).Error)

	return user, boots, hat
}

func doCartRequest(t *testing.T, userID uint, method, target string, body any) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	e.Validator = validate.New()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("userID", userID)
	c.Set("role", models.RoleUser)
	return rec, c
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) models.Cart {
	var resp struct {
		Data models.Cart `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

func TestAddToCartCreatesAndMergesLines(t *testing.T) {
	db := newTestDB(t)
	user, boots, hat := seedCatalog(t, db)
	h := &CartHandler{DB: db}

	rec, c := doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": boots.ID, "quantity": 2})
	require.NoError(t, h.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeCart(t, rec)
	require.Len(t, got.Items, 1)
	require.Equal(t, 2, got.Items[0].Quantity)
	require.Equal(t, float64(40), got.Items[0].Price)
	require.Equal(t, float64(80), got.TotalCartPrice)

	// same product and color merges into the existing line
	rec, c = doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": boots.ID, "quantity": 1})
	require.NoError(t, h.AddToCart(c))

	got = decodeCart(t, rec)
	require.Len(t, got.Items, 1)
	require.Equal(t, 3, got.Items[0].Quantity)
	require.Equal(t, float64(120), got.TotalCartPrice)

	// discounted product is priced at its sale price
	rec, c = doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": hat.ID})
	require.NoError(t, h.AddToCart(c))

	got = decodeCart(t, rec)
	require.Len(t, got.Items, 2)
	require.Equal(t, float64(130), got.TotalCartPrice)
}

func TestAddToCartDistinctColorsAreSeparateLines(t *testing.T) {
	db := newTestDB(t)
	user, boots, _ := seedCatalog(t, db)
	h := &CartHandler{DB: db}

	_, c := doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": boots.ID, "color": "black"})
	require.NoError(t, h.AddToCart(c))

	rec, c := doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": boots.ID, "color": "brown"})
	require.NoError(t, h.AddToCart(c))

	got := decodeCart(t, rec)
	require.Len(t, got.Items, 2)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	db := newTestDB(t)
	user, _, _ := seedCatalog(t, db)
	h := &CartHandler{DB: db}

	_, c := doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": 999})
	err := h.AddToCart(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestUpdateItemQuantityRecomputesTotal(t *testing.T) {
	db := newTestDB(t)
	user, boots, _ := seedCatalog(t, db)
	h := &CartHandler{DB: db}

	rec, c := doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": boots.ID})
	require.NoError(t, h.AddToCart(c))
	itemID := decodeCart(t, rec).Items[0].ID

	rec, c = doCartRequest(t, user.ID, http.MethodPut, "/api/v1/cart/items/1",
		map[string]any{"quantity": 5})
	c.SetParamNames("itemID")
	c.SetParamValues(strconv.FormatUint(uint64(itemID), 10))
	require.NoError(t, h.UpdateItemQuantity(c))

	got := decodeCart(t, rec)
	require.Equal(t, 5, got.Items[0].Quantity)
	require.Equal(t, float64(200), got.TotalCartPrice)
}

func TestRemoveItemUnknownIDIs404(t *testing.T) {
	db := newTestDB(t)
	user, boots, _ := seedCatalog(t, db)
	h := &CartHandler{DB: db}

	_, c := doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": boots.ID})
	require.NoError(t, h.AddToCart(c))

	_, c = doCartRequest(t, user.ID, http.MethodDelete, "/api/v1/cart/items/77", nil)
	c.SetParamNames("itemID")
	c.SetParamValues("77")

	err := h.RemoveItem(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestApplyCouponDiscountsTotal(t *testing.T) {
	db := newTestDB(t)
	user, boots, _ := seedCatalog(t, db)
	h := &CartHandler{DB: db}

	require.NoError(t, db.Create(&models.Coupon{
		Name:     "SAVE25",
		Discount: 25,
		Expire:   time.Now().Add(24 * time.Hour),
	}).Error)

	_, c := doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": boots.ID, "quantity": 2})
	require.NoError(t, h.AddToCart(c))

	// lookup is case-insensitive via uppercasing
	rec, c := doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart/apply-coupon",
		map[string]any{"coupon": "save25"})
	require.NoError(t, h.ApplyCoupon(c))

	got := decodeCart(t, rec)
	require.Equal(t, float64(80), got.TotalCartPrice)
	require.Equal(t, float64(60), got.TotalPriceAfterDiscount)
	require.Equal(t, "SAVE25", got.CouponName)
}

func TestApplyCouponExpired(t *testing.T) {
	db := newTestDB(t)
	user, boots, _ := seedCatalog(t, db)
	h := &CartHandler{DB: db}

	require.NoError(t, db.Create(&models.Coupon{
		Name:     "OLD",
		Discount: 50,
		Expire:   time.Now().Add(-time.Hour),
	}).Error)

	_, c := doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": boots.ID})
	require.NoError(t, h.AddToCart(c))

	_, c = doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart/apply-coupon",
		map[string]any{"coupon": "OLD"})
	err := h.ApplyCoupon(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, he.Code)
	require.Contains(t, he.Message, "invalid or expired")
}

func TestCartMutationDropsAppliedCoupon(t *testing.T) {
	db := newTestDB(t)
	user, boots, _ := seedCatalog(t, db)
	h := &CartHandler{DB: db}

	require.NoError(t, db.Create(&models.Coupon{
		Name:     "SAVE25",
		Discount: 25,
		Expire:   time.Now().Add(24 * time.Hour),
	}).Error)

	_, c := doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": boots.ID, "quantity": 2})
	require.NoError(t, h.AddToCart(c))

	_, c = doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart/apply-coupon",
		map[string]any{"coupon": "SAVE25"})
	require.NoError(t, h.ApplyCoupon(c))

	rec, c := doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": boots.ID})
	require.NoError(t, h.AddToCart(c))

	got := decodeCart(t, rec)
	require.Equal(t, float64(120), got.TotalCartPrice)
	require.Zero(t, got.TotalPriceAfterDiscount)
	require.Empty(t, got.CouponName)
}

func TestClearCartDeletesCartAndLines(t *testing.T) {
	db := newTestDB(t)
	user, boots, _ := seedCatalog(t, db)
	h := &CartHandler{DB: db}

	_, c := doCartRequest(t, user.ID, http.MethodPost, "/api/v1/cart",
		map[string]any{"productId": boots.ID})
	require.NoError(t, h.AddToCart(c))

	rec, c := doCartRequest(t, user.ID, http.MethodDelete, "/api/v1/cart", nil)
	require.NoError(t, h.ClearCart(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var carts, items int64
	require.NoError(t, db.Model(&models.Cart{}).Count(&carts).Error)
	require.NoError(t, db.Model(&models.CartItem{}).Count(&items).Error)
	require.Zero(t, carts)
	require.Zero(t, items)

	// clearing an absent cart is still a 204
	rec, c = doCartRequest(t, user.ID, http.MethodDelete, "/api/v1/cart", nil)
	require.NoError(t, h.ClearCart(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetCartWithoutOneIs404(t *testing.T) {
	db := newTestDB(t)
	user, _, _ := seedCatalog(t, db)
	h := &CartHandler{DB: db}

	_, c := doCartRequest(t, user.ID, http.MethodGet, "/api/v1/cart", nil)
	err := h.GetCart(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, he.Code)
}
