package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"billing-backend/ledger"
	"billing-backend/models"
)

// Store is the GORM-backed ledger.Store.
type Store struct {
	db *gorm.DB
}

var _ ledger.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Transaction(ctx context.Context, fn func(ledger.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) LoadInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&inv, id).Error
	if err != nil {
		return nil, translate(err, "invoice")
	}
	return &inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, page ledger.Page) ([]models.Invoice, error) {
	var invoices []models.Invoice
	q := paginate(s.db.WithContext(ctx), page).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("created_at desc, id desc")
	if err := q.Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (s *Store) CountInvoices(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Invoice{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return n, nil
}

// NextInvoiceNumber increments the persisted invoice sequence. The UPDATE
// takes the row lock, so concurrent creators serialize until commit. The
// sequence row is seeded from the current invoice count on first use.
func (s *Store) NextInvoiceNumber(ctx context.Context) (string, error) {
	var seq models.InvoiceSequence
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := bump(tx)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Invoice{}).Count(&count).Error; err != nil {
				return err
			}
			seed := models.InvoiceSequence{Name: ledger.InvoiceSequenceName, LastValue: count}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
				return err
			}
			if err := bump(tx).Error; err != nil {
				return err
			}
		}
		return tx.Where("name = ?", ledger.InvoiceSequenceName).Take(&seq).Error
	})
	if err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return ledger.FormatInvoiceNumber(seq.LastValue), nil
}

func bump(tx *gorm.DB) *gorm.DB {
	return tx.Model(&models.InvoiceSequence{}).
		Where("name = ?", ledger.InvoiceSequenceName).
		Update("last_value", gorm.Expr("last_value + ?", 1))
}

func (s *Store) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	if err := s.db.WithContext(ctx).Omit("Customer").Create(inv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ledger.Invalid("invoice_number", "already exists")
		}
		return translate(err, "invoice")
	}
	return nil
}

// SaveInvoice writes inv if its version is still current, bumps the version
// and rewrites the item rows.
func (s *Store) SaveInvoice(ctx context.Context, inv *models.Invoice) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.Invoice{}).
		Where("id = ? AND version = ?", inv.ID, inv.Version).
		Updates(map[string]any{
			"customer_id": inv.CustomerID,
			"subtotal":    inv.Subtotal,
			"tax_amount":  inv.TaxAmount,
			"discount":    inv.Discount,
			"total":       inv.Total,
			"status":      inv.Status,
			"issue_date":  inv.IssueDate,
			"due_date":    inv.DueDate,
			"paid_date":   inv.PaidDate,
			"notes":       inv.Notes,
			"terms":       inv.Terms,
			"version":     inv.Version + 1,
			"updated_at":  inv.UpdatedAt,
		})
	if res.Error != nil {
		return translate(res.Error, "invoice")
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(&models.Invoice{}).Where("id = ?", inv.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ledger.NotFound("invoice")
		}
		return fmt.Errorf("%w: invoice %s was modified concurrently", ledger.ErrConflict, inv.InvoiceNumber)
	}
	inv.Version++

	if err := db.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
		return fmt.Errorf("replace invoice items: %w", err)
	}
	for i := range inv.Items {
		inv.Items[i].ID = 0
		inv.Items[i].InvoiceID = inv.ID
		inv.Items[i].Position = i
	}
	if len(inv.Items) > 0 {
		if err := db.Create(&inv.Items).Error; err != nil {
			return fmt.Errorf("replace invoice items: %w", err)
		}
	}
	return nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
		return fmt.Errorf("delete invoice items: %w", err)
	}
	res := db.Delete(&models.Invoice{}, id)
	if res.Error != nil {
		return translate(res.Error, "invoice")
	}
	if res.RowsAffected == 0 {
		return ledger.NotFound("invoice")
	}
	return nil
}

func (s *Store) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoiceStatusSent, now).
		Updates(map[string]any{
			"status":     models.InvoiceStatusOverdue,
			"version":    gorm.Expr("version + ?", 1),
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("mark overdue: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) CustomerExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("lookup customer: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ProductExists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("lookup product: %w", err)
	}
	return n > 0, nil
}

func (s *Store) LoadPayment(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	err := s.db.WithContext(ctx).Preload("Customer").Preload("Invoice").First(&p, id).Error
	if err != nil {
		return nil, translate(err, "payment")
	}
	return &p, nil
}

func (s *Store) ListPayments(ctx context.Context, page ledger.Page) ([]models.Payment, error) {
	var payments []models.Payment
	q := paginate(s.db.WithContext(ctx), page).
		Preload("Customer").
		Preload("Invoice").
		Order("created_at desc, id desc")
	if err := q.Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (s *Store) ListPaymentsByInvoice(ctx context.Context, invoiceID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Where("invoice_id = ?", invoiceID).
		Order("created_at desc, id desc").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("list payments for invoice %d: %w", invoiceID, err)
	}
	return payments, nil
}

func (s *Store) SavePayment(ctx context.Context, p *models.Payment) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return translate(err, "payment")
	}
	return nil
}

func (s *Store) DeletePayment(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Payment{}, id)
	if res.Error != nil {
		return translate(res.Error, "payment")
	}
	if res.RowsAffected == 0 {
		return ledger.NotFound("payment")
	}
	return nil
}

func paginate(db *gorm.DB, page ledger.Page) *gorm.DB {
	if page.Limit > 0 {
		db = db.Limit(page.Limit)
	}
	if page.Offset > 0 {
		db = db.Offset(page.Offset)
	}
	return db
}

// translate maps gorm errors onto the ledger's error kinds.
func translate(err error, entity string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ledger.NotFound(entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ledger.Invalid(entity, "already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %s is still referenced", ledger.ErrConflict, entity)
	}
	return fmt.Errorf("%s: %w", entity, err)
}

// Translate exposes translate to handlers that query the DB directly.
func Translate(err error, entity string) error { return translate(err, entity) }
