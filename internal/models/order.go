package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusCart      OrderStatus = "cart"
	StatusPending   OrderStatus = "pending"
	StatusDelivered OrderStatus = "delivered"
)

// Typed-string comparisons don't work in templates, these do.
func (s OrderStatus) IsPending() bool   { return s == StatusPending }
func (s OrderStatus) IsDelivered() bool { return s == StatusDelivered }

// Order doubles as the shopping cart while Status is "cart". A user has at
// most one cart-status order at a time; once checked out it only moves
// forward: cart -> pending -> delivered.
type Order struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;index"`
	User      User
	Status    OrderStatus     `gorm:"size:20;not null;default:cart;index"`
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	CashierID *uint
	Cashier   *User       `gorm:"foreignKey:CashierID"`
	Lines     []OrderLine `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderLine struct {
	ID        uint `gorm:"primaryKey"`
	OrderID   uint `gorm:"not null;index"`
	ProductID uint `gorm:"not null;index"`
	// the schema mirrors what DeleteProduct does in its transaction, so a
	// row deleted outside the service cannot strand lines either
	Product Product `gorm:"constraint:OnDelete:CASCADE"`
	Quantity  int `gorm:"not null;default:1"`
	// UnitPrice is snapshotted from the product when the line is created and
	// never follows later catalog price changes.
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
