package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"billing-backend/models"
)

// Decimal places the columns hold for inputs that are not money.
const (
	QuantityPlaces = 3
	RatePlaces     = 4
)

// fits reports whether d needs no more than places decimal places.
func fits(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// ValidateInvoice rejects negative inputs, inputs finer than their column
// precision and missing required fields. Derived fields are not inspected;
// they are recomputed anyway.
func ValidateInvoice(inv *models.Invoice) error {
	if inv.CustomerID == 0 {
		return invalid("customer_id", "is required")
	}
	if inv.DueDate.IsZero() {
		return invalid("due_date", "is required")
	}
	if inv.Discount.IsNegative() {
		return invalid("discount", "must not be negative")
	}
	if !fits(inv.Discount, MoneyPlaces) {
		return invalid("discount", "must have at most %d decimal places", MoneyPlaces)
	}
	if !IsKnownStatus(inv.Status) {
		return invalid("status", "unknown status %q", inv.Status)
	}
	for i, it := range inv.Items {
		field := fmt.Sprintf("items[%d]", i)
		switch {
		case strings.TrimSpace(it.Description) == "":
			return invalid(field+".description", "is required")
		case it.Quantity.IsNegative():
			return invalid(field+".quantity", "must not be negative")
		case it.UnitPrice.IsNegative():
			return invalid(field+".unit_price", "must not be negative")
		case it.TaxRate.IsNegative():
			return invalid(field+".tax_rate", "must not be negative")
		case !fits(it.Quantity, QuantityPlaces):
			return invalid(field+".quantity", "must have at most %d decimal places", QuantityPlaces)
		case !fits(it.UnitPrice, MoneyPlaces):
			return invalid(field+".unit_price", "must have at most %d decimal places", MoneyPlaces)
		case !fits(it.TaxRate, RatePlaces):
			return invalid(field+".tax_rate", "must have at most %d decimal places", RatePlaces)
		}
	}
	return nil
}

// ValidatePayment checks amount, method and status of p.
func ValidatePayment(p *models.Payment) error {
	if p.InvoiceID == 0 {
		return invalid("invoice_id", "is required")
	}
	if p.Amount.IsNegative() {
		return invalid("amount", "must not be negative")
	}
	if !fits(p.Amount, MoneyPlaces) {
		return invalid("amount", "must have at most %d decimal places", MoneyPlaces)
	}
	switch p.Method {
	case models.PaymentMethodCash, models.PaymentMethodCreditCard, models.PaymentMethodDebitCard,
		models.PaymentMethodBankTransfer, models.PaymentMethodCheck, models.PaymentMethodOther:
	default:
		return invalid("payment_method", "unknown method %q", p.Method)
	}
	switch p.Status {
	case models.PaymentStatusCompleted, models.PaymentStatusPending,
		models.PaymentStatusFailed, models.PaymentStatusRefunded:
	default:
		return invalid("status", "unknown status %q", p.Status)
	}
	return nil
}

// ValidateProduct checks the catalogue price and rate that invoice lines copy.
func ValidateProduct(p *models.Product) error {
	switch {
	case p.UnitPrice.IsNegative():
		return invalid("unit_price", "must not be negative")
	case !fits(p.UnitPrice, MoneyPlaces):
		return invalid("unit_price", "must have at most %d decimal places", MoneyPlaces)
	case p.TaxRate.IsNegative():
		return invalid("tax_rate", "must not be negative")
	case !fits(p.TaxRate, RatePlaces):
		return invalid("tax_rate", "must have at most %d decimal places", RatePlaces)
	}
	return nil
}
