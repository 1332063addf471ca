package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodDebitCard    PaymentMethod = "debit_card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodOther        PaymentMethod = "other"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment references an invoice but does not own it; several payments may
// point at the same invoice.
type Payment struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	InvoiceID     uint            `json:"invoice_id" gorm:"not null;index:idx_payments_invoice_date,priority:1"`
	Invoice       *Invoice        `json:"invoice,omitempty" gorm:"foreignKey:InvoiceID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	CustomerID    uint            `json:"customer_id" gorm:"not null;index"`
	Customer      *Customer       `json:"customer,omitempty" gorm:"foreignKey:CustomerID;references:Id;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Method        PaymentMethod   `json:"payment_method" gorm:"size:20;not null"`
	TransactionID string          `json:"transaction_id" gorm:"size:128"`
	PaymentDate   time.Time       `json:"payment_date" gorm:"not null;index:idx_payments_invoice_date,priority:2"`
	Status        PaymentStatus   `json:"status" gorm:"size:16;not null;default:completed"`
	Notes         string          `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time       `json:"created_at"`
}
