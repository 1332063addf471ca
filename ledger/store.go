package ledger

import (
	"context"
	"time"

	"billing-backend/models"
)

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

// Store is the persistence boundary the ledger works against.
// Load methods return a NotFoundError when the id does not resolve;
// SaveInvoice returns ErrConflict when inv.Version is stale.
type Store interface {
	// Transaction runs fn against a Store bound to one database transaction.
	Transaction(ctx context.Context, fn func(Store) error) error

	LoadInvoice(ctx context.Context, id uint) (*models.Invoice, error)
	ListInvoices(ctx context.Context, page Page) ([]models.Invoice, error)
	CountInvoices(ctx context.Context) (int64, error)
	NextInvoiceNumber(ctx context.Context) (string, error)
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	SaveInvoice(ctx context.Context, inv *models.Invoice) error
	DeleteInvoice(ctx context.Context, id uint) error
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)

	CustomerExists(ctx context.Context, id uint) (bool, error)
	ProductExists(ctx context.Context, id string) (bool, error)

	LoadPayment(ctx context.Context, id uint) (*models.Payment, error)
	ListPayments(ctx context.Context, page Page) ([]models.Payment, error)
	ListPaymentsByInvoice(ctx context.Context, invoiceID uint) ([]models.Payment, error)
	SavePayment(ctx context.Context, p *models.Payment) error
	DeletePayment(ctx context.Context, id uint) error
}
