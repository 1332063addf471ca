package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	Id          string          `json:"id" gorm:"primaryKey;size:36"`
	Name        string          `json:"name" gorm:"not null"`
	Description string          `json:"description"`
	SKU         *string         `json:"sku" gorm:"size:64;uniqueIndex"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null;default:0"`
	TaxRate     decimal.Decimal `json:"tax_rate" gorm:"type:numeric(7,4);not null;default:0"` // percent
	Active      bool            `json:"active" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if product.Id == "" {
		product.Id = uuid.NewString()
	}
	return
}
