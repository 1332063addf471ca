package ledger

import (
	"fmt"
	"time"

	"billing-backend/models"
)

// Allowed status moves. Paid and cancelled have no outgoing edges.
var transitions = map[models.InvoiceStatus][]models.InvoiceStatus{
	models.InvoiceStatusDraft:   {models.InvoiceStatusSent, models.InvoiceStatusPaid, models.InvoiceStatusCancelled},
	models.InvoiceStatusSent:    {models.InvoiceStatusPaid, models.InvoiceStatusOverdue, models.InvoiceStatusCancelled},
	models.InvoiceStatusOverdue: {models.InvoiceStatusPaid},
}

func IsKnownStatus(s models.InvoiceStatus) bool {
	switch s {
	case models.InvoiceStatusDraft, models.InvoiceStatusSent, models.InvoiceStatusPaid,
		models.InvoiceStatusOverdue, models.InvoiceStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s models.InvoiceStatus) bool {
	return s == models.InvoiceStatusPaid || s == models.InvoiceStatusCancelled
}

func CanTransition(from, to models.InvoiceStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves inv to status to. Moving to paid stamps PaidDate with at.
func Transition(inv *models.Invoice, to models.InvoiceStatus, at time.Time) error {
	if !CanTransition(inv.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, to)
	}
	inv.Status = to
	if to == models.InvoiceStatusPaid {
		paid := at
		inv.PaidDate = &paid
	}
	return nil
}

// Settles reports whether a payment of amount settles inv. Only an exact
// match with the total counts; partial and over-payments do not.
func Settles(inv *models.Invoice, p *models.Payment) bool {
	return !IsTerminal(inv.Status) && p.Amount.Equal(inv.Total)
}

// ApplyPayment moves inv to paid when p settles it, dating it with the payment
// date. It reports whether inv changed.
func ApplyPayment(inv *models.Invoice, p *models.Payment) bool {
	if !Settles(inv, p) {
		return false
	}
	return Transition(inv, models.InvoiceStatusPaid, p.PaymentDate) == nil
}

// IsOverdue reports whether inv is a sent invoice past its due date at now.
func IsOverdue(inv *models.Invoice, now time.Time) bool {
	return inv.Status == models.InvoiceStatusSent && inv.DueDate.Before(now)
}
