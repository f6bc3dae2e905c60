package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/dkotenko/eshop/internal/authz"
	"github.com/dkotenko/eshop/internal/crud"
	"github.com/dkotenko/eshop/internal/handlers"
	"github.com/dkotenko/eshop/internal/handlers/cart"
	"github.com/dkotenko/eshop/internal/models"
	"github.com/dkotenko/eshop/internal/service"
)

type Deps struct {
	AuthHandler     *handlers.AuthHandler
	TokenService    *service.TokenService
	Categories      *crud.Handler[models.Category]
	SubCategories   *crud.Handler[models.SubCategory]
	Brands          *crud.Handler[models.Brand]
	Products        *crud.Handler[models.Product]
	Coupons         *crud.Handler[models.Coupon]
	Users           *crud.Handler[models.User]
	Reviews         *handlers.ReviewHandler
	CartHandler     *cart.CartHandler
	OrderHandler    *handlers.OrderHandler
	WishlistHandler *handlers.WishlistHandler
	AddressHandler  *handlers.AddressHandler
	ProfileHandler  *handlers.ProfileHandler
	UploadHandler   *handlers.UploadHandler
	SearchHandler   *handlers.SearchHandler
	UploadsDir      string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.Static("/uploads", d.UploadsDir)

	v1 := e.Group("/api/v1")
	auth := d.TokenService.AutoRefreshMiddleware

	v1.POST("/auth/register", d.AuthHandler.Register)
	v1.POST("/auth/login", d.AuthHandler.Login)
	v1.POST("/auth/logout", d.AuthHandler.LogOut)

	// catalog reads are public, writes are role-gated
	categories := v1.Group("/categories")
	categories.GET("", d.Categories.List)
	categories.GET("/:id", d.Categories.GetByID)
	categories.GET("/:id/subcategories", d.SubCategories.List)
	categories.POST("/:id/subcategories", d.SubCategories.Create, auth, authz.Require(authz.CatalogWrite))
	categories.POST("", d.Categories.Create, auth, authz.Require(authz.CatalogWrite))
	categories.PUT("/:id", d.Categories.Update, auth, authz.Require(authz.CatalogWrite))
	categories.DELETE("/:id", d.Categories.Delete, auth, authz.Require(authz.CatalogWrite))

	subcategories := v1.Group("/subcategories")
	subcategories.GET("", d.SubCategories.List)
	subcategories.GET("/:id", d.SubCategories.GetByID)
	subcategories.POST("", d.SubCategories.Create, auth, authz.Require(authz.CatalogWrite))
	subcategories.PUT("/:id", d.SubCategories.Update, auth, authz.Require(authz.CatalogWrite))
	subcategories.DELETE("/:id", d.SubCategories.Delete, auth, authz.Require(authz.CatalogWrite))

	brands := v1.Group("/brands")
	brands.GET("", d.Brands.List)
	brands.GET("/:id", d.Brands.GetByID)
	brands.POST("", d.Brands.Create, auth, authz.Require(authz.CatalogWrite))
	brands.PUT("/:id", d.Brands.Update, auth, authz.Require(authz.CatalogWrite))
	brands.DELETE("/:id", d.Brands.Delete, auth, authz.Require(authz.CatalogWrite))

	products := v1.Group("/products")
	products.GET("", d.Products.List)
	if d.SearchHandler != nil {
		products.GET("/search", d.SearchHandler.Search)
	}
	products.GET("/:id", d.Products.GetByID)
	products.GET("/:id/reviews", d.Reviews.List)
	products.POST("/:id/reviews", d.Reviews.Create, auth, authz.Require(authz.ReviewsWrite))
	products.POST("", d.Products.Create, auth, authz.Require(authz.CatalogWrite))
	products.PUT("/:id", d.Products.Update, auth, authz.Require(authz.CatalogWrite))
	products.DELETE("/:id", d.Products.Delete, auth, authz.Require(authz.CatalogWrite))

	reviews := v1.Group("/reviews")
	reviews.GET("", d.Reviews.List)
	reviews.GET("/:id", d.Reviews.GetByID)
	reviews.POST("", d.Reviews.Create, auth, authz.Require(authz.ReviewsWrite))
	reviews.PUT("/:id", d.Reviews.Update, auth, authz.Require(authz.ReviewsWrite))
	reviews.DELETE("/:id", d.Reviews.Delete, auth)

	coupons := v1.Group("/coupons", auth, authz.Require(authz.CouponsManage))
	coupons.GET("", d.Coupons.List)
	coupons.GET("/:id", d.Coupons.GetByID)
	coupons.POST("", d.Coupons.Create)
	coupons.PUT("/:id", d.Coupons.Update)
	coupons.DELETE("/:id", d.Coupons.Delete)

	users := v1.Group("/users", auth, authz.Require(authz.UsersManage))
	users.GET("", d.Users.List)
	users.GET("/:id", d.Users.GetByID)
	users.POST("", d.Users.Create)
	users.PUT("/:id", d.Users.Update)
	users.DELETE("/:id", d.Users.Delete)

	me := v1.Group("/me", auth, authz.Require(authz.ProfileUse))
	me.GET("", d.ProfileHandler.GetMe)
	me.PUT("", d.ProfileHandler.UpdateMe)
	me.PUT("/password", d.ProfileHandler.ChangePassword)
	me.DELETE("", d.ProfileHandler.DeactivateMe)

	addresses := v1.Group("/addresses", auth, authz.Require(authz.ProfileUse))
	addresses.GET("", d.AddressHandler.List)
	addresses.POST("", d.AddressHandler.Create)
	addresses.DELETE("/:id", d.AddressHandler.Delete)

	wishlist := v1.Group("/wishlist", auth, authz.Require(authz.CartUse))
	wishlist.GET("", d.WishlistHandler.List)
	wishlist.POST("", d.WishlistHandler.Add)
	wishlist.DELETE("/:productID", d.WishlistHandler.Remove)

	cartGroup := v1.Group("/cart", auth, authz.Require(authz.CartUse))
	cartGroup.GET("", d.CartHandler.GetCart)
	cartGroup.POST("", d.CartHandler.AddToCart)
	cartGroup.DELETE("", d.CartHandler.ClearCart)
	cartGroup.PUT("/apply-coupon", d.CartHandler.ApplyCoupon)
	cartGroup.PUT("/items/:itemID", d.CartHandler.UpdateItemQuantity)
	cartGroup.DELETE("/items/:itemID", d.CartHandler.RemoveItem)

	orders := v1.Group("/orders")
	orders.GET("", d.OrderHandler.List, auth, authz.Require(authz.OrdersView))
	orders.GET("/:id", d.OrderHandler.GetByID, auth, authz.Require(authz.OrdersView))
	orders.POST("/cash/:cartID", d.OrderHandler.CreateCashOrder, auth, authz.Require(authz.CartUse))
	orders.POST("/checkout-session/:cartID", d.OrderHandler.CheckoutSession, auth, authz.Require(authz.CartUse))
	orders.PUT("/:id/pay", d.OrderHandler.MarkPaid, auth, authz.Require(authz.OrdersUpdate))
	orders.PUT("/:id/deliver", d.OrderHandler.MarkDelivered, auth, authz.Require(authz.OrdersUpdate))

	// signed by the provider, not by a user token
	v1.POST("/webhook/checkout", d.OrderHandler.Webhook)

	uploads := v1.Group("/uploads", auth, authz.Require(authz.UploadsWrite))
	uploads.POST("/:resource", d.UploadHandler.Upload)
}
