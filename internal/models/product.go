package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"size:100;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock       int             `gorm:"not null;default:0"`
	CategoryID  uint            `gorm:"not null;index"`
	Category    Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
