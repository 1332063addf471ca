package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money goes over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is the current/live state of a billing document.
// Subtotal, TaxAmount and Total are derived from Items and Discount; they are
// recomputed by the ledger before every write and never taken from input.
type Invoice struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	InvoiceNumber string    `json:"invoice_number" gorm:"size:32;uniqueIndex;not null"`
	CustomerID    uint      `json:"customer_id" gorm:"not null;index"`
	Customer      *Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID;references:Id;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`

	Items     []InvoiceItem   `json:"items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Subtotal  decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2);not null;default:0"`
	TaxAmount decimal.Decimal `json:"tax_amount" gorm:"type:numeric(12,2);not null;default:0"`
	Discount  decimal.Decimal `json:"discount" gorm:"type:numeric(12,2);not null;default:0"`
	Total     decimal.Decimal `json:"total" gorm:"type:numeric(12,2);not null;default:0"`

	// State
	Status    InvoiceStatus `json:"status" gorm:"size:16;not null;default:draft;index"`
	IssueDate time.Time     `json:"issue_date" gorm:"not null"`
	DueDate   time.Time     `json:"due_date" gorm:"not null;index"`
	PaidDate  *time.Time    `json:"paid_date"`

	Notes string `json:"notes" gorm:"type:text"`
	Terms string `json:"terms" gorm:"type:text"`

	// Optimistic concurrency: bumped on every save.
	Version   int       `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// InvoiceItem is owned by its invoice; Amount is derived (Quantity × UnitPrice).
type InvoiceItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	InvoiceID   uint            `json:"-" gorm:"not null;index"`
	Position    int             `json:"position" gorm:"not null;default:0"`
	ProductID   *string         `json:"product_id" gorm:"size:36;index"`
	Description string          `json:"description" gorm:"not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:numeric(12,3);not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	TaxRate     decimal.Decimal `json:"tax_rate" gorm:"type:numeric(7,4);not null;default:0"` // percent
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
}

// InvoiceSequence backs invoice number generation; LastValue is incremented
// under a row lock inside the creating transaction.
type InvoiceSequence struct {
	Name      string `gorm:"primaryKey;size:32"`
	LastValue int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
