package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"billing-backend/models"
)

// MoneyPlaces is the number of decimal places kept on derived money fields.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Totals are the derived financial fields of an invoice.
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// Recompute derives item amounts and invoice totals from items and discount.
// Each items[i].Amount is overwritten with Quantity × UnitPrice rounded
// half-even to MoneyPlaces. The discount is not clamped: an empty invoice with
// a discount has a negative total.
func Recompute(items []models.InvoiceItem, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for i := range items {
		items[i].Amount = ItemAmount(items[i])
		subtotal = subtotal.Add(items[i].Amount)
		tax = tax.Add(items[i].Amount.Mul(items[i].TaxRate).Div(hundred))
	}
	tax = tax.RoundBank(MoneyPlaces)
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax).Sub(discount),
	}
}

// ItemAmount is quantity × unit price at money precision.
func ItemAmount(item models.InvoiceItem) decimal.Decimal {
	return item.Quantity.Mul(item.UnitPrice).RoundBank(MoneyPlaces)
}

// Apply recomputes inv in place: item amounts, subtotal, tax amount and total.
func Apply(inv *models.Invoice) {
	t := Recompute(inv.Items, inv.Discount)
	inv.Subtotal = t.Subtotal
	inv.TaxAmount = t.TaxAmount
	inv.Total = t.Total
}

// CheckInvariants verifies the derived fields and the paid-date rule of inv.
// A failure is a programming error: Apply must run before any save.
func CheckInvariants(inv *models.Invoice) error {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for i, it := range inv.Items {
		if !it.Amount.Equal(ItemAmount(it)) {
			return fmt.Errorf("%w: item %d amount %s", ErrInvariantViolation, i, it.Amount)
		}
		subtotal = subtotal.Add(it.Amount)
		tax = tax.Add(it.Amount.Mul(it.TaxRate).Div(hundred))
	}
	switch {
	case !inv.Subtotal.Equal(subtotal):
		return fmt.Errorf("%w: subtotal %s != %s", ErrInvariantViolation, inv.Subtotal, subtotal)
	case !inv.TaxAmount.Equal(tax.RoundBank(MoneyPlaces)):
		return fmt.Errorf("%w: tax amount %s != %s", ErrInvariantViolation, inv.TaxAmount, tax.RoundBank(MoneyPlaces))
	case !inv.Total.Equal(inv.Subtotal.Add(inv.TaxAmount).Sub(inv.Discount)):
		return fmt.Errorf("%w: total %s", ErrInvariantViolation, inv.Total)
	case (inv.Status == models.InvoiceStatusPaid) != (inv.PaidDate != nil):
		return fmt.Errorf("%w: paid date with status %s", ErrInvariantViolation, inv.Status)
	}
	return nil
}
