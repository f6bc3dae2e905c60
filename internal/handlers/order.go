package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/crud"
	"github.com/dkotenko/eshop/internal/models"
	"github.com/dkotenko/eshop/internal/mykafka"
	"github.com/dkotenko/eshop/internal/payments"
	"github.com/dkotenko/eshop/internal/query"
	"github.com/dkotenko/eshop/internal/respond"
	"github.com/dkotenko/eshop/internal/sessions"
)

// SessionStore parks card-checkout sessions between session creation
// and the provider's completion webhook.
type SessionStore interface {
	Save(ctx context.Context, session sessions.CheckoutSession) error
	Get(ctx context.Context, id string) (sessions.CheckoutSession, error)
	Consume(ctx context.Context, id string) error
}

type OrderHandler struct {
	DB            *gorm.DB
	Producer      *mykafka.Producer
	Sessions      SessionStore
	Payments      *payments.Client
	WebhookSecret []byte
	TaxPrice      float64
	ShippingPrice float64

	crud *crud.Handler[models.Order]
}

type shippingAddress struct {
	Details    string `json:"details"`
	Phone      string `json:"phone"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

func NewOrderHandler(db *gorm.DB, producer *mykafka.Producer, store SessionStore,
	client *payments.Client, webhookSecret []byte, taxPrice, shippingPrice float64) *OrderHandler {

	h := &OrderHandler{
		DB:            db,
		Producer:      producer,
		Sessions:      store,
		Payments:      client,
		WebhookSecret: webhookSecret,
		TaxPrice:      taxPrice,
		ShippingPrice: shippingPrice,
	}

	h.crud = crud.New[models.Order](db, "order", query.Allow{
		Filter: []string{"user_id", "is_paid", "is_delivered", "payment_method"},
		Sort:   []string{"created_at", "total_order_price"},
		Select: []string{
			"id", "user_id", "tax_price", "shipping_price", "total_order_price",
			"payment_method", "is_paid", "paid_at", "is_delivered", "delivered_at", "created_at",
		},
	})
	h.crud.Preload = []string{"Items"}
	// plain users only ever see their own orders
	h.crud.Scope = func(c echo.Context, db *gorm.DB) *gorm.DB {
		if Role(c) == models.RoleUser {
			userID, _ := c.Get("userID").(uint)
			return db.Where("user_id = ?", userID)
		}
		return db
	}

	return h
}

func (h *OrderHandler) List(c echo.Context) error    { return h.crud.List(c) }
func (h *OrderHandler) GetByID(c echo.Context) error { return h.crud.GetByID(c) }

// CreateCashOrder turns the cart into a paid-on-delivery order: order
// record, stock decrement and cart deletion commit together or not at
// all.
func (h *OrderHandler) CreateCashOrder(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}
	cartID := c.Param("cartID")

	var addr shippingAddress
	if err := c.Bind(&addr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var order models.Order
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		cart, err := cartForCheckout(tx, cartID, userID)
		if err != nil {
			return err
		}
		order, err = h.placeOrder(tx, cart, cart.UserID, "cash", false, addr)
		return err
	})
	if txErr != nil {
		return txErr
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  order.UserID,
		"method":  "cash",
		"total":   order.TotalOrderPrice,
	})

	return respond.Success(c, http.StatusCreated, order)
}

// CheckoutSession parks a card-checkout session carrying the cart id
// and shipping address, and hands the same metadata to the payment
// provider. Nothing is ordered until the provider's webhook lands.
func (h *OrderHandler) CheckoutSession(c echo.Context) error {
	userID, err := UserID(c)
	if err != nil {
		return err
	}
	cartID := c.Param("cartID")

	var addr shippingAddress
	if err := c.Bind(&addr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if h.Sessions == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "card checkout is not enabled")
	}

	cart, err := cartForCheckout(h.DB, cartID, userID)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return err
	}

	total := orderTotal(cart, h.TaxPrice, h.ShippingPrice)
	session := sessions.CheckoutSession{
		ID:              uuid.NewString(),
		CartID:          cart.ID,
		CustomerEmail:   user.Email,
		AmountTotal:     total,
		ShippingDetails: addr.Details,
		ShippingPhone:   addr.Phone,
		ShippingCity:    addr.City,
		ShippingPostal:  addr.PostalCode,
	}
	ctx := c.Request().Context()
	if err := h.Sessions.Save(ctx, session); err != nil {
		return err
	}

	res, err := h.Payments.CreateSession(ctx, payments.SessionData{
		SessionID:       session.ID,
		CartID:          session.CartID,
		CustomerEmail:   session.CustomerEmail,
		AmountTotal:     session.AmountTotal,
		ShippingDetails: session.ShippingDetails,
		ShippingPhone:   session.ShippingPhone,
		ShippingCity:    session.ShippingCity,
		ShippingPostal:  session.ShippingPostal,
	})
	if err != nil {
		return err
	}

	return respond.Success(c, http.StatusOK, echo.Map{
		"sessionId":   session.ID,
		"checkoutUrl": res.CheckoutURL,
		"amountTotal": total,
	})
}

// Webhook handles the provider's asynchronous completion callback. The
// payload is trusted only after its HMAC signature checks out.
func (h *OrderHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read payload")
	}

	ev, err := payments.ParseEvent(body, c.Request().Header.Get(payments.SignatureHeader), h.WebhookSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if ev.Type != payments.EventCheckoutCompleted {
		return respond.Success(c, http.StatusOK, echo.Map{"received": true})
	}

	// the parked session, not the event payload, decides what gets
	// ordered. An unparked or already consumed id is rejected so a
	// replayed webhook cannot order twice.
	ctx := c.Request().Context()
	if h.Sessions == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "card checkout is not enabled")
	}
	parked, err := h.Sessions.Get(ctx, ev.Data.SessionID)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest,
				"unknown or already completed checkout session "+ev.Data.SessionID)
		}
		return err
	}

	var user models.User
	if err := h.DB.Where("email = ?", parked.CustomerEmail).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no user found with email "+parked.CustomerEmail)
		}
		return err
	}

	addr := shippingAddress{
		Details:    parked.ShippingDetails,
		Phone:      parked.ShippingPhone,
		City:       parked.ShippingCity,
		PostalCode: parked.ShippingPostal,
	}

	var order models.Order
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		cart, err := cartForCheckout(tx, fmt.Sprint(parked.CartID), user.ID)
		if err != nil {
			return err
		}
		order, err = h.placeOrder(tx, cart, user.ID, "card", true, addr)
		return err
	})
	if txErr != nil {
		return txErr
	}

	if err := h.Sessions.Consume(ctx, parked.ID); err != nil {
		c.Logger().Errorf("session consume error: %v", err)
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  order.UserID,
		"method":  "card",
		"total":   order.TotalOrderPrice,
	})

	return respond.Success(c, http.StatusOK, echo.Map{"received": true, "orderId": order.ID})
}

func (h *OrderHandler) MarkPaid(c echo.Context) error {
	return h.markFlag(c, func(order *models.Order) {
		now := time.Now()
		order.IsPaid = true
		order.PaidAt = &now
	})
}

func (h *OrderHandler) MarkDelivered(c echo.Context) error {
	return h.markFlag(c, func(order *models.Order) {
		now := time.Now()
		order.IsDelivered = true
		order.DeliveredAt = &now
	})
}

func (h *OrderHandler) markFlag(c echo.Context, set func(*models.Order)) error {
	id := c.Param("id")
	if _, err := strconv.Atoi(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id "+id)
	}

	var order models.Order
	if err := h.DB.Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.crud.NotFound(id)
		}
		return err
	}

	set(&order)
	if err := h.DB.Save(&order).Error; err != nil {
		return err
	}
	return respond.Success(c, http.StatusOK, order)
}

// cartForCheckout loads a cart with its lines, enforcing ownership
// when a non-zero user id is known.
func cartForCheckout(db *gorm.DB, cartID string, userID uint) (models.Cart, error) {
	var cart models.Cart
	if _, err := strconv.Atoi(cartID); err != nil {
		return cart, echo.NewHTTPError(http.StatusBadRequest, "invalid cart id "+cartID)
	}
	q := db.Preload("Items").Where("id = ?", cartID)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cart, echo.NewHTTPError(http.StatusNotFound, "no cart found with id "+cartID)
		}
		return cart, err
	}
	if len(cart.Items) == 0 {
		return cart, echo.NewHTTPError(http.StatusBadRequest, "cart is empty")
	}
	return cart, nil
}

func orderTotal(cart models.Cart, tax, shipping float64) float64 {
	base := cart.TotalCartPrice
	if cart.TotalPriceAfterDiscount > 0 {
		base = cart.TotalPriceAfterDiscount
	}
	return base + tax + shipping
}

// placeOrder snapshots the cart into an order, moves stock to sold and
// deletes the cart. Runs inside the caller's transaction.
func (h *OrderHandler) placeOrder(tx *gorm.DB, cart models.Cart, userID uint,
	method string, paid bool, addr shippingAddress) (models.Order, error) {

	order := models.Order{
		UserID:          userID,
		TaxPrice:        h.TaxPrice,
		ShippingPrice:   h.ShippingPrice,
		TotalOrderPrice: orderTotal(cart, h.TaxPrice, h.ShippingPrice),
		PaymentMethod:   method,
		ShippingDetails: addr.Details,
		ShippingPhone:   addr.Phone,
		ShippingCity:    addr.City,
		ShippingPostal:  addr.PostalCode,
	}
	if paid {
		now := time.Now()
		order.IsPaid = true
		order.PaidAt = &now
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Color:     item.Color,
			Price:     item.Price,
		})
	}

	if err := tx.Create(&order).Error; err != nil {
		return order, err
	}

	for _, item := range cart.Items {
		err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
			UpdateColumns(map[string]interface{}{
				"quantity": gorm.Expr("quantity - ?", item.Quantity),
				"sold":     gorm.Expr("sold + ?", item.Quantity),
			}).Error
		if err != nil {
			return order, err
		}
	}

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return order, err
	}
	if err := tx.Delete(&models.Cart{}, cart.ID).Error; err != nil {
		return order, err
	}

	return order, nil
}
