package models

import (
	"time"
)

const (
	RoleUser    = "user"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	Active       bool      `gorm:"default:true"             json:"active"`
	Phone        string    `json:"phone,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"userId"`
	Role      string `json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expiresAt"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type Address struct {
	ID         uint   `gorm:"primaryKey"     json:"id"`
	UserID     uint   `gorm:"index;not null" json:"userId"`
	Alias      string `gorm:"not null"       json:"alias"`
	Details    string `gorm:"not null"       json:"details"`
	Phone      string `json:"phone,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

type Category struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	Slug      string    `gorm:"index"           json:"slug"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SubCategory struct {
	ID         uint      `gorm:"primaryKey"      json:"id"`
	Name       string    `gorm:"unique;not null" json:"name"`
	Slug       string    `gorm:"index"           json:"slug"`
	CategoryID uint      `gorm:"index;not null"  json:"categoryId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Brand struct {
	ID        uint      `gorm:"primaryKey"      json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	Slug      string    `gorm:"index"           json:"slug"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Product struct {
	ID                 uint      `gorm:"primaryKey"     json:"id"`
	Title              string    `gorm:"not null"       json:"title"`
	Slug               string    `gorm:"index"          json:"slug"`
	Description        string    `gorm:"not null"       json:"description"`
	Quantity           int       `gorm:"not null"       json:"quantity"`
	Sold               int       `gorm:"default:0"      json:"sold"`
	Price              float64   `gorm:"not null"       json:"price"`
	PriceAfterDiscount float64   `json:"priceAfterDiscount,omitempty"`
	ImageCover         string    `json:"imageCover,omitempty"`
	CategoryID         uint      `gorm:"index;not null" json:"categoryId"`
	SubCategoryID      *uint     `gorm:"index"          json:"subCategoryId,omitempty"`
	BrandID            *uint     `gorm:"index"          json:"brandId,omitempty"`
	RatingsAverage     float64   `json:"ratingsAverage"`
	RatingsQuantity    int       `json:"ratingsQuantity"`
	Reviews            []Review  `gorm:"constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// EffectivePrice is the unit price a buyer actually pays.
func (p Product) EffectivePrice() float64 {
	if p.PriceAfterDiscount > 0 {
		return p.PriceAfterDiscount
	}
	return p.Price
}

type Review struct {
	ID        uint      `gorm:"primaryKey"                              json:"id"`
	Title     string    `json:"title,omitempty"`
	Rating    float64   `gorm:"not null"                                json:"rating"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_user_product" json:"userId"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_review_user_product" json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Coupon struct {
	ID       uint      `gorm:"primaryKey"      json:"id"`
	Name     string    `gorm:"unique;not null" json:"name"`
	Expire   time.Time `gorm:"not null"        json:"expire"`
	Discount float64   `gorm:"not null"        json:"discount"`
}

type Cart struct {
	ID                      uint       `gorm:"primaryKey"       json:"id"`
	UserID                  uint       `gorm:"uniqueIndex"      json:"userId"`
	Items                   []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	TotalCartPrice          float64    `json:"totalCartPrice"`
	TotalPriceAfterDiscount float64    `json:"totalPriceAfterDiscount,omitempty"`
	CouponName              string     `json:"couponName,omitempty"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID        uint    `gorm:"primaryKey"     json:"id"`
	CartID    uint    `gorm:"index;not null" json:"cartId"`
	ProductID uint    `gorm:"not null"       json:"productId"`
	Quantity  int     `gorm:"default:1;check:quantity>0" json:"quantity"`
	Color     string  `json:"color,omitempty"`
	Price     float64 `gorm:"not null"       json:"price"`
}

type Order struct {
	ID              uint        `gorm:"primaryKey"     json:"id"`
	UserID          uint        `gorm:"index;not null" json:"userId"`
	Items           []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	TaxPrice        float64     `json:"taxPrice"`
	ShippingPrice   float64     `json:"shippingPrice"`
	TotalOrderPrice float64     `json:"totalOrderPrice"`
	PaymentMethod   string      `gorm:"not null;default:cash" json:"paymentMethod"`
	IsPaid          bool        `gorm:"default:false"  json:"isPaid"`
	PaidAt          *time.Time  `json:"paidAt,omitempty"`
	IsDelivered     bool        `gorm:"default:false"  json:"isDelivered"`
	DeliveredAt     *time.Time  `json:"deliveredAt,omitempty"`
	ShippingDetails string      `json:"shippingDetails,omitempty"`
	ShippingPhone   string      `json:"shippingPhone,omitempty"`
	ShippingCity    string      `json:"shippingCity,omitempty"`
	ShippingPostal  string      `json:"shippingPostal,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey"     json:"id"`
	OrderID   uint    `gorm:"index;not null" json:"orderId"`
	ProductID uint    `gorm:"not null"       json:"productId"`
	Quantity  int     `gorm:"not null"       json:"quantity"`
	Color     string  `json:"color,omitempty"`
	Price     float64 `gorm:"not null"       json:"price"`
}

type WishlistItem struct {
	ID        uint `gorm:"primaryKey"                                    json:"id"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"userId"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"productId"`
}

// All lists every persisted model for migration.
func All() []any {
	return []any{
		&User{}, &RefreshToken{}, &Address{},
		&Category{}, &SubCategory{}, &Brand{},
		&Product{}, &Review{}, &Coupon{},
		&Cart{}, &CartItem{}, &Order{}, &OrderItem{},
		&WishlistItem{},
	}
}
