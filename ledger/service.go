package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billing-backend/logger"
	"billing-backend/models"
)

// Service runs invoice and payment operations against a Store. Every
// operation that writes an invoice recomputes it and checks its invariants
// first.
type Service struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger
}

type Option func(*Service)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: func() time.Time { return time.Now().UTC() }, log: logger.WithComponent("ledger")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInvoice is the caller-supplied part of an invoice. Derived fields and the
// invoice number are not part of it.
type NewInvoice struct {
	CustomerID uint
	Items      []models.InvoiceItem
	Discount   decimal.Decimal
	IssueDate  time.Time
	DueDate    time.Time
	Notes      string
	Terms      string
}

// InvoiceUpdate holds the fields to change; nil means unchanged. A non-nil
// Items replaces the whole item list.
type InvoiceUpdate struct {
	CustomerID *uint
	Items      *[]models.InvoiceItem
	Discount   *decimal.Decimal
	IssueDate  *time.Time
	DueDate    *time.Time
	Notes      *string
	Terms      *string
	Status     *models.InvoiceStatus
	Version    *int
}

func (s *Service) CreateInvoice(ctx context.Context, in NewInvoice) (*models.Invoice, error) {
	inv := &models.Invoice{
		CustomerID: in.CustomerID,
		Items:      copyItems(in.Items),
		Discount:   in.Discount,
		Status:     models.InvoiceStatusDraft,
		IssueDate:  in.IssueDate,
		DueDate:    in.DueDate,
		Notes:      in.Notes,
		Terms:      in.Terms,
		Version:    1,
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = s.now()
	}
	if err := ValidateInvoice(inv); err != nil {
		return nil, err
	}

	err := s.store.Transaction(ctx, func(st Store) error {
		if err := checkReferences(ctx, st, inv); err != nil {
			return err
		}
		number, err := st.NextInvoiceNumber(ctx)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		if err := s.prepare(inv); err != nil {
			return err
		}
		return st.CreateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("invoice", inv.InvoiceNumber).Str("total", inv.Total.String()).Msg("invoice created")
	return s.store.LoadInvoice(ctx, inv.ID)
}

func (s *Service) GetInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	return s.store.LoadInvoice(ctx, id)
}

// ListInvoices returns one page, newest first, plus the overall count.
func (s *Service) ListInvoices(ctx context.Context, page Page) ([]models.Invoice, int64, error) {
	invoices, err := s.store.ListInvoices(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.store.CountInvoices(ctx)
	if err != nil {
		return nil, 0, err
	}
	return invoices, count, nil
}

func (s *Service) UpdateInvoice(ctx context.Context, id uint, upd InvoiceUpdate) (*models.Invoice, error) {
	err := s.store.Transaction(ctx, func(st Store) error {
		inv, err := st.LoadInvoice(ctx, id)
		if err != nil {
			return err
		}
		if upd.Version != nil && *upd.Version != inv.Version {
			return fmt.Errorf("%w: invoice %s is at version %d", ErrConflict, inv.InvoiceNumber, inv.Version)
		}
		if upd.CustomerID != nil {
			inv.CustomerID = *upd.CustomerID
			inv.Customer = nil
		}
		if upd.Items != nil {
			inv.Items = copyItems(*upd.Items)
		}
		if upd.Discount != nil {
			inv.Discount = *upd.Discount
		}
		if upd.IssueDate != nil {
			inv.IssueDate = *upd.IssueDate
		}
		if upd.DueDate != nil {
			inv.DueDate = *upd.DueDate
		}
		if upd.Notes != nil {
			inv.Notes = *upd.Notes
		}
		if upd.Terms != nil {
			inv.Terms = *upd.Terms
		}
		if upd.Status != nil && *upd.Status != inv.Status {
			if !IsKnownStatus(*upd.Status) {
				return invalid("status", "unknown status %q", *upd.Status)
			}
			if err := Transition(inv, *upd.Status, s.now()); err != nil {
				return err
			}
		}
		if err := ValidateInvoice(inv); err != nil {
			return err
		}
		if err := checkReferences(ctx, st, inv); err != nil {
			return err
		}
		return s.save(ctx, st, inv)
	})
	if err != nil {
		return nil, err
	}
	return s.store.LoadInvoice(ctx, id)
}

// MarkPaid moves a non-terminal invoice to paid, dated now, regardless of the
// payments recorded against it.
func (s *Service) MarkPaid(ctx context.Context, id uint) (*models.Invoice, error) {
	err := s.store.Transaction(ctx, func(st Store) error {
		inv, err := st.LoadInvoice(ctx, id)
		if err != nil {
			return err
		}
		if err := Transition(inv, models.InvoiceStatusPaid, s.now()); err != nil {
			return err
		}
		return s.save(ctx, st, inv)
	})
	if err != nil {
		return nil, err
	}
	return s.store.LoadInvoice(ctx, id)
}

// DeleteInvoice removes an invoice and its items. Invoices with recorded
// payments are kept.
func (s *Service) DeleteInvoice(ctx context.Context, id uint) error {
	return s.store.Transaction(ctx, func(st Store) error {
		inv, err := st.LoadInvoice(ctx, id)
		if err != nil {
			return err
		}
		payments, err := st.ListPaymentsByInvoice(ctx, id)
		if err != nil {
			return err
		}
		if len(payments) > 0 {
			return fmt.Errorf("%w: invoice %s has %d recorded payments", ErrConflict, inv.InvoiceNumber, len(payments))
		}
		return st.DeleteInvoice(ctx, id)
	})
}

// SweepOverdue moves every sent invoice whose due date has passed to overdue.
func (s *Service) SweepOverdue(ctx context.Context) (int64, error) {
	n, err := s.store.MarkOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("invoices marked overdue")
	}
	return n, nil
}

// prepare recomputes inv, asserts its invariants and touches UpdatedAt.
// Dates are stored in UTC.
func (s *Service) prepare(inv *models.Invoice) error {
	inv.IssueDate = inv.IssueDate.UTC()
	inv.DueDate = inv.DueDate.UTC()
	if inv.PaidDate != nil {
		paid := inv.PaidDate.UTC()
		inv.PaidDate = &paid
	}
	Apply(inv)
	if err := CheckInvariants(inv); err != nil {
		s.log.Error().Err(err).Str("invoice", inv.InvoiceNumber).Msg("refusing to persist invoice")
		return err
	}
	inv.UpdatedAt = s.now()
	return nil
}

func (s *Service) save(ctx context.Context, st Store, inv *models.Invoice) error {
	if err := s.prepare(inv); err != nil {
		return err
	}
	return st.SaveInvoice(ctx, inv)
}

func checkReferences(ctx context.Context, st Store, inv *models.Invoice) error {
	ok, err := st.CustomerExists(ctx, inv.CustomerID)
	if err != nil {
		return err
	}
	if !ok {
		return NotFound("customer")
	}
	for _, it := range inv.Items {
		if it.ProductID == nil {
			continue
		}
		ok, err := st.ProductExists(ctx, *it.ProductID)
		if err != nil {
			return err
		}
		if !ok {
			return NotFound("product")
		}
	}
	return nil
}

// copyItems detaches items from caller storage and resets their identity;
// item rows are owned by the invoice and rewritten on every save.
func copyItems(items []models.InvoiceItem) []models.InvoiceItem {
	out := make([]models.InvoiceItem, len(items))
	for i, it := range items {
		it.ID = 0
		it.InvoiceID = 0
		it.Position = i
		out[i] = it
	}
	return out
}
