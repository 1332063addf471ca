package database

import (
	"fmt"

	"gorm.io/gorm"

	"billing-backend/models"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns/index tags)
// - on postgres, CHECK constraints for the non-negative money inputs
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Product{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.InvoiceSequence{},
		&models.Payment{},
		&models.IdempotencyKey{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	checks := []struct{ table, name, expr string }{
		{"products", "chk_products_unit_price_nonneg", "unit_price >= 0"},
		{"invoices", "chk_invoices_discount_nonneg", "discount >= 0"},
		{"invoice_items", "chk_invoice_items_quantity_nonneg", "quantity >= 0"},
		{"invoice_items", "chk_invoice_items_unit_price_nonneg", "unit_price >= 0"},
		{"invoice_items", "chk_invoice_items_tax_rate_nonneg", "tax_rate >= 0"},
		{"payments", "chk_payments_amount_nonneg", "amount >= 0"},
		{"invoices", "chk_invoices_paid_date", "(status = 'paid') = (paid_date IS NOT NULL)"},
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, c := range checks {
			stmt := fmt.Sprintf(`
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%[1]s'::regclass
		  AND conname  = '%[2]s'
	) THEN
		ALTER TABLE %[1]s ADD CONSTRAINT %[2]s CHECK (%[3]s);
	END IF;
END $$;`, c.table, c.name, c.expr)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint %s failed: %w", c.name, err)
			}
		}
		return nil
	})
}
