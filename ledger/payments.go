package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"billing-backend/models"
)

type NewPayment struct {
	InvoiceID     uint
	CustomerID    uint // zero: the invoice's customer
	Amount        decimal.Decimal
	Method        models.PaymentMethod
	TransactionID string
	PaymentDate   *time.Time
	Status        models.PaymentStatus
	Notes         string
}

// RecordPayment stores a payment against an existing invoice. A payment whose
// amount equals the invoice total exactly moves the invoice to paid, dated
// with the payment date; any other amount leaves the invoice as it is.
func (s *Service) RecordPayment(ctx context.Context, in NewPayment) (*models.Payment, error) {
	p := &models.Payment{
		InvoiceID:     in.InvoiceID,
		CustomerID:    in.CustomerID,
		Amount:        in.Amount,
		Method:        in.Method,
		TransactionID: in.TransactionID,
		Status:        in.Status,
		Notes:         in.Notes,
	}
	if in.PaymentDate != nil {
		p.PaymentDate = in.PaymentDate.UTC()
	} else {
		p.PaymentDate = s.now()
	}
	if p.Status == "" {
		p.Status = models.PaymentStatusCompleted
	}
	if err := ValidatePayment(p); err != nil {
		return nil, err
	}

	err := s.store.Transaction(ctx, func(st Store) error {
		inv, err := st.LoadInvoice(ctx, p.InvoiceID)
		if err != nil {
			return err
		}
		if p.CustomerID == 0 {
			p.CustomerID = inv.CustomerID
		} else {
			ok, err := st.CustomerExists(ctx, p.CustomerID)
			if err != nil {
				return err
			}
			if !ok {
				return NotFound("customer")
			}
		}
		if err := st.SavePayment(ctx, p); err != nil {
			return err
		}
		if !ApplyPayment(inv, p) {
			return nil
		}
		s.log.Info().Str("invoice", inv.InvoiceNumber).Uint("payment", p.ID).Msg("invoice settled by payment")
		return s.save(ctx, st, inv)
	})
	if err != nil {
		return nil, err
	}
	return s.store.LoadPayment(ctx, p.ID)
}

func (s *Service) GetPayment(ctx context.Context, id uint) (*models.Payment, error) {
	return s.store.LoadPayment(ctx, id)
}

func (s *Service) ListPayments(ctx context.Context, page Page) ([]models.Payment, error) {
	return s.store.ListPayments(ctx, page)
}

// ListPaymentsByInvoice fails with NotFound when the invoice does not exist.
func (s *Service) ListPaymentsByInvoice(ctx context.Context, invoiceID uint) ([]models.Payment, error) {
	if _, err := s.store.LoadInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.store.ListPaymentsByInvoice(ctx, invoiceID)
}

// DeletePayment removes the payment record only; invoice status is not rolled back.
func (s *Service) DeletePayment(ctx context.Context, id uint) error {
	return s.store.Transaction(ctx, func(st Store) error {
		if _, err := st.LoadPayment(ctx, id); err != nil {
			return err
		}
		return st.DeletePayment(ctx, id)
	})
}
