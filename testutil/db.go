// Package testutil provides database fixtures for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"billing-backend/database"
	"billing-backend/models"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory sqlite database with the schema migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:billing_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := database.Open("sqlite", dsn, false)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Customer inserts a customer with a unique email.
func Customer(t testing.TB, db *gorm.DB, name string) models.Customer {
	t.Helper()

	c := models.Customer{
		Name:  name,
		Email: fmt.Sprintf("customer%d@example.com", dbSeq.Add(1)),
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// Product inserts an active product.
func Product(t testing.TB, db *gorm.DB, name, unitPrice string) models.Product {
	t.Helper()

	p := models.Product{
		Name:      name,
		UnitPrice: decimal.RequireFromString(unitPrice),
		Active:    true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}
