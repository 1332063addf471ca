package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"billing-backend/database"
	"billing-backend/ledger"
	"billing-backend/models"
	"billing-backend/testutil"
)

type serviceSetup struct {
	DB       *gorm.DB
	Svc      *ledger.Service
	Customer models.Customer
	Now      time.Time
	ctx      context.Context
}

func newServiceSetup(t *testing.T) *serviceSetup {
	t.Helper()

	db := testutil.NewDB(t)
	s := &serviceSetup{
		DB:       db,
		Customer: testutil.Customer(t, db, "Ada Lovelace"),
		Now:      time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
		ctx:      context.Background(),
	}
	s.Svc = ledger.NewService(database.NewStore(db), ledger.WithClock(func() time.Time { return s.Now }))
	return s
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// exampleInvoice totals 125: 2×50 at 10% plus 1×20 untaxed, minus 5.
func (s *serviceSetup) exampleInvoice() ledger.NewInvoice {
	return ledger.NewInvoice{
		CustomerID: s.Customer.Id,
		Items: []models.InvoiceItem{
			{Description: "Consulting", Quantity: dec("2"), UnitPrice: dec("50"), TaxRate: dec("10")},
			{Description: "Support", Quantity: dec("1"), UnitPrice: dec("20"), TaxRate: dec("0")},
		},
		Discount: dec("5"),
		DueDate:  s.Now.AddDate(0, 0, 30),
	}
}

func (s *serviceSetup) create(t *testing.T) *models.Invoice {
	t.Helper()
	inv, err := s.Svc.CreateInvoice(s.ctx, s.exampleInvoice())
	require.NoError(t, err)
	return inv
}

func (s *serviceSetup) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB.Model(model).Count(&n).Error)
	return n
}

func TestCreateInvoiceComputesTotals(t *testing.T) {
	s := newServiceSetup(t)

	inv := s.create(t)

	assert.Equal(t, "INV-00001", inv.InvoiceNumber)
	assert.Equal(t, models.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, 1, inv.Version)
	assert.True(t, inv.Subtotal.Equal(dec("120")), "subtotal %s", inv.Subtotal)
	assert.True(t, inv.TaxAmount.Equal(dec("10")), "tax %s", inv.TaxAmount)
	assert.True(t, inv.Total.Equal(dec("125")), "total %s", inv.Total)
	require.Len(t, inv.Items, 2)
	assert.True(t, inv.Items[0].Amount.Equal(dec("100")))
	assert.True(t, inv.Items[1].Amount.Equal(dec("20")))
	require.NotNil(t, inv.Customer)
	assert.Equal(t, s.Customer.Email, inv.Customer.Email)
	assert.True(t, inv.IssueDate.Equal(s.Now), "issue date defaults to now")
	assert.Nil(t, inv.PaidDate)
}

func TestInvoiceNumbersAreSequential(t *testing.T) {
	s := newServiceSetup(t)

	first := s.create(t)
	second := s.create(t)

	assert.Equal(t, "INV-00001", first.InvoiceNumber)
	assert.Equal(t, "INV-00002", second.InvoiceNumber)
}

func TestInvoiceNumbersSurviveDeletion(t *testing.T) {
	s := newServiceSetup(t)

	first := s.create(t)
	s.create(t)
	require.NoError(t, s.Svc.DeleteInvoice(s.ctx, first.ID))

	third := s.create(t)
	assert.Equal(t, "INV-00003", third.InvoiceNumber)
}

func TestConcurrentCreatesGetUniqueNumbers(t *testing.T) {
	s := newServiceSetup(t)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := s.Svc.CreateInvoice(s.ctx, s.exampleInvoice())
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers[inv.InvoiceNumber] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, numbers, n)
}

func TestCreateInvoiceRejectsNegativeInput(t *testing.T) {
	s := newServiceSetup(t)

	cases := map[string]func(*ledger.NewInvoice){
		"quantity":   func(in *ledger.NewInvoice) { in.Items[0].Quantity = dec("-1") },
		"unit price": func(in *ledger.NewInvoice) { in.Items[0].UnitPrice = dec("-1") },
		"discount":   func(in *ledger.NewInvoice) { in.Discount = dec("-1") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := s.exampleInvoice()
			mutate(&in)

			_, err := s.Svc.CreateInvoice(s.ctx, in)
			assert.True(t, errors.Is(err, ledger.ErrValidation), "got %v", err)
		})
	}
	assert.Zero(t, s.count(t, &models.Invoice{}))
	assert.Zero(t, s.count(t, &models.InvoiceItem{}))
}

func TestCreateInvoiceUnknownReferences(t *testing.T) {
	s := newServiceSetup(t)

	in := s.exampleInvoice()
	in.CustomerID = 9999
	_, err := s.Svc.CreateInvoice(s.ctx, in)
	assert.True(t, errors.Is(err, ledger.ErrNotFound), "got %v", err)

	in = s.exampleInvoice()
	missing := "00000000-0000-0000-0000-000000000000"
	in.Items[0].ProductID = &missing
	_, err = s.Svc.CreateInvoice(s.ctx, in)
	assert.True(t, errors.Is(err, ledger.ErrNotFound), "got %v", err)

	assert.Zero(t, s.count(t, &models.Invoice{}))
}

func TestCreateInvoiceWithProduct(t *testing.T) {
	s := newServiceSetup(t)
	product := testutil.Product(t, s.DB, "Widget", "12.50")

	in := s.exampleInvoice()
	in.Items[0].ProductID = &product.Id
	inv, err := s.Svc.CreateInvoice(s.ctx, in)
	require.NoError(t, err)
	require.NotNil(t, inv.Items[0].ProductID)
	assert.Equal(t, product.Id, *inv.Items[0].ProductID)
}

func TestExactPaymentMarksInvoicePaid(t *testing.T) {
	s := newServiceSetup(t)
	inv := s.create(t)
	paidAt := time.Date(2025, 3, 20, 14, 0, 0, 0, time.UTC)

	p, err := s.Svc.RecordPayment(s.ctx, ledger.NewPayment{
		InvoiceID:   inv.ID,
		Amount:      dec("125"),
		Method:      models.PaymentMethodBankTransfer,
		PaymentDate: &paidAt,
	})
	require.NoError(t, err)
	assert.Equal(t, s.Customer.Id, p.CustomerID, "customer defaults to the invoice's")
	assert.Equal(t, models.PaymentStatusCompleted, p.Status)

	got, err := s.Svc.GetInvoice(s.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, got.Status)
	require.NotNil(t, got.PaidDate)
	assert.True(t, got.PaidDate.Equal(paidAt), "paid date %s", got.PaidDate)
	assert.Equal(t, 2, got.Version)
}

func TestPartialPaymentLeavesStatus(t *testing.T) {
	s := newServiceSetup(t)
	inv := s.create(t)

	_, err := s.Svc.RecordPayment(s.ctx, ledger.NewPayment{
		InvoiceID: inv.ID,
		Amount:    dec("50"),
		Method:    models.PaymentMethodCash,
	})
	require.NoError(t, err)

	got, err := s.Svc.GetInvoice(s.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusDraft, got.Status)
	assert.Nil(t, got.PaidDate)
	assert.Equal(t, 1, got.Version)

	payments, err := s.Svc.ListPaymentsByInvoice(s.ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestPaymentOnPaidInvoiceKeepsPaidDate(t *testing.T) {
	s := newServiceSetup(t)
	inv := s.create(t)
	paid, err := s.Svc.MarkPaid(s.ctx, inv.ID)
	require.NoError(t, err)

	later := s.Now.AddDate(0, 1, 0)
	_, err = s.Svc.RecordPayment(s.ctx, ledger.NewPayment{
		InvoiceID:   inv.ID,
		Amount:      dec("125"),
		Method:      models.PaymentMethodCash,
		PaymentDate: &later,
	})
	require.NoError(t, err)

	got, err := s.Svc.GetInvoice(s.ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidDate.Equal(*paid.PaidDate))
}

func TestPaymentAgainstMissingInvoice(t *testing.T) {
	s := newServiceSetup(t)

	_, err := s.Svc.RecordPayment(s.ctx, ledger.NewPayment{
		InvoiceID: 4242,
		Amount:    dec("10"),
		Method:    models.PaymentMethodCash,
	})
	assert.True(t, errors.Is(err, ledger.ErrNotFound), "got %v", err)
	assert.Zero(t, s.count(t, &models.Payment{}))
}

func TestPaymentValidation(t *testing.T) {
	s := newServiceSetup(t)
	inv := s.create(t)

	_, err := s.Svc.RecordPayment(s.ctx, ledger.NewPayment{InvoiceID: inv.ID, Amount: dec("-1"), Method: models.PaymentMethodCash})
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	_, err = s.Svc.RecordPayment(s.ctx, ledger.NewPayment{InvoiceID: inv.ID, Amount: dec("1"), Method: "barter"})
	assert.True(t, errors.Is(err, ledger.ErrValidation))

	_, err = s.Svc.RecordPayment(s.ctx, ledger.NewPayment{InvoiceID: inv.ID, CustomerID: 777, Amount: dec("1"), Method: models.PaymentMethodCash})
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	assert.Zero(t, s.count(t, &models.Payment{}))
}

func TestSubCentPaymentDoesNotSettle(t *testing.T) {
	s := newServiceSetup(t)
	inv := s.create(t)

	_, err := s.Svc.RecordPayment(s.ctx, ledger.NewPayment{
		InvoiceID: inv.ID,
		Amount:    dec("125.004"),
		Method:    models.PaymentMethodCash,
	})
	assert.True(t, errors.Is(err, ledger.ErrValidation), "got %v", err)

	got, err := s.Svc.GetInvoice(s.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusDraft, got.Status)
	assert.Zero(t, s.count(t, &models.Payment{}))
}

func TestFractionalQuantityTotalsAreStable(t *testing.T) {
	s := newServiceSetup(t)

	in := s.exampleInvoice()
	in.Items = []models.InvoiceItem{
		{Description: "Hosting", Quantity: dec("1.0005"), UnitPrice: dec("100"), TaxRate: dec("0")},
	}
	_, err := s.Svc.CreateInvoice(s.ctx, in)
	assert.True(t, errors.Is(err, ledger.ErrValidation), "got %v", err)

	in.Items = []models.InvoiceItem{
		{Description: "Hosting", Quantity: dec("1.125"), UnitPrice: dec("100.01"), TaxRate: dec("7.5")},
		{Description: "Import duty", Quantity: dec("1"), UnitPrice: dec("10"), TaxRate: dec("150")},
	}
	inv, err := s.Svc.CreateInvoice(s.ctx, in)
	require.NoError(t, err)
	require.Len(t, inv.Items, 2)
	assert.True(t, inv.Items[0].Quantity.Equal(dec("1.125")))
	assert.True(t, inv.Items[0].Amount.Equal(dec("112.51")), "amount %s", inv.Items[0].Amount)
	assert.True(t, inv.TaxAmount.Equal(dec("23.44")), "tax %s", inv.TaxAmount)
	assert.True(t, inv.Total.Equal(dec("140.95")), "total %s", inv.Total)

	paid, err := s.Svc.MarkPaid(s.ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, paid.Subtotal.Equal(inv.Subtotal))
	assert.True(t, paid.TaxAmount.Equal(inv.TaxAmount))
	assert.True(t, paid.Total.Equal(inv.Total), "total moved to %s", paid.Total)
}

func TestMarkPaid(t *testing.T) {
	for _, start := range []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusSent} {
		t.Run(string(start), func(t *testing.T) {
			s := newServiceSetup(t)
			inv := s.create(t)
			if start != models.InvoiceStatusDraft {
				_, err := s.Svc.UpdateInvoice(s.ctx, inv.ID, ledger.InvoiceUpdate{Status: &start})
				require.NoError(t, err)
			}

			got, err := s.Svc.MarkPaid(s.ctx, inv.ID)
			require.NoError(t, err)
			assert.Equal(t, models.InvoiceStatusPaid, got.Status)
			require.NotNil(t, got.PaidDate)
			assert.True(t, got.PaidDate.Equal(s.Now))
		})
	}
}

func TestMarkPaidOnTerminalInvoice(t *testing.T) {
	s := newServiceSetup(t)
	inv := s.create(t)
	cancelled := models.InvoiceStatusCancelled
	_, err := s.Svc.UpdateInvoice(s.ctx, inv.ID, ledger.InvoiceUpdate{Status: &cancelled})
	require.NoError(t, err)

	_, err = s.Svc.MarkPaid(s.ctx, inv.ID)
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition), "got %v", err)

	_, err = s.Svc.MarkPaid(s.ctx, 31337)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

func TestUpdateInvoiceRecomputes(t *testing.T) {
	s := newServiceSetup(t)
	inv := s.create(t)

	items := []models.InvoiceItem{
		{Description: "Audit", Quantity: dec("3"), UnitPrice: dec("10"), TaxRate: dec("20")},
	}
	discount := decimal.Zero
	notes := "revised"
	got, err := s.Svc.UpdateInvoice(s.ctx, inv.ID, ledger.InvoiceUpdate{Items: &items, Discount: &discount, Notes: &notes})
	require.NoError(t, err)

	assert.True(t, got.Subtotal.Equal(dec("30")))
	assert.True(t, got.TaxAmount.Equal(dec("6")))
	assert.True(t, got.Total.Equal(dec("36")))
	assert.Equal(t, "revised", got.Notes)
	assert.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)
	assert.Equal(t, 2, got.Version)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(1), s.count(t, &models.InvoiceItem{}))
}

func TestUpdateInvoiceVersionConflict(t *testing.T) {
	s := newServiceSetup(t)
	inv := s.create(t)

	notes := "first"
	_, err := s.Svc.UpdateInvoice(s.ctx, inv.ID, ledger.InvoiceUpdate{Notes: &notes, Version: &inv.Version})
	require.NoError(t, err)

	notes = "stale"
	_, err = s.Svc.UpdateInvoice(s.ctx, inv.ID, ledger.InvoiceUpdate{Notes: &notes, Version: &inv.Version})
	assert.True(t, errors.Is(err, ledger.ErrConflict), "got %v", err)

	got, err := s.Svc.GetInvoice(s.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Notes)
}

func TestUpdateInvoiceInvalidTransition(t *testing.T) {
	s := newServiceSetup(t)
	inv := s.create(t)

	overdue := models.InvoiceStatusOverdue
	_, err := s.Svc.UpdateInvoice(s.ctx, inv.ID, ledger.InvoiceUpdate{Status: &overdue})
	assert.True(t, errors.Is(err, ledger.ErrInvalidTransition), "draft cannot go overdue")

	bogus := models.InvoiceStatus("archived")
	_, err = s.Svc.UpdateInvoice(s.ctx, inv.ID, ledger.InvoiceUpdate{Status: &bogus})
	assert.True(t, errors.Is(err, ledger.ErrValidation))
}

func TestSweepOverdue(t *testing.T) {
	s := newServiceSetup(t)
	sent := models.InvoiceStatusSent

	pastDue := s.create(t)
	due := s.Now.AddDate(0, 0, -1)
	_, err := s.Svc.UpdateInvoice(s.ctx, pastDue.ID, ledger.InvoiceUpdate{Status: &sent, DueDate: &due})
	require.NoError(t, err)

	notYet := s.create(t)
	_, err = s.Svc.UpdateInvoice(s.ctx, notYet.ID, ledger.InvoiceUpdate{Status: &sent})
	require.NoError(t, err)

	draft := s.create(t)
	_, err = s.Svc.UpdateInvoice(s.ctx, draft.ID, ledger.InvoiceUpdate{DueDate: &due})
	require.NoError(t, err)

	n, err := s.Svc.SweepOverdue(s.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.Svc.GetInvoice(s.ctx, pastDue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusOverdue, got.Status)

	got, err = s.Svc.GetInvoice(s.ctx, notYet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusSent, got.Status)

	got, err = s.Svc.GetInvoice(s.ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusDraft, got.Status)
}

func TestDeleteInvoiceWithPayments(t *testing.T) {
	s := newServiceSetup(t)
	inv := s.create(t)
	_, err := s.Svc.RecordPayment(s.ctx, ledger.NewPayment{InvoiceID: inv.ID, Amount: dec("10"), Method: models.PaymentMethodCash})
	require.NoError(t, err)

	err = s.Svc.DeleteInvoice(s.ctx, inv.ID)
	assert.True(t, errors.Is(err, ledger.ErrConflict), "got %v", err)
	assert.Equal(t, int64(1), s.count(t, &models.Invoice{}))

	other := s.create(t)
	require.NoError(t, s.Svc.DeleteInvoice(s.ctx, other.ID))
	_, err = s.Svc.GetInvoice(s.ctx, other.ID)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
	assert.Equal(t, int64(2), s.count(t, &models.InvoiceItem{}), "only the remaining invoice's items are left")
}

func TestDeletePaymentKeepsInvoiceStatus(t *testing.T) {
	s := newServiceSetup(t)
	inv := s.create(t)
	p, err := s.Svc.RecordPayment(s.ctx, ledger.NewPayment{InvoiceID: inv.ID, Amount: dec("125"), Method: models.PaymentMethodCheck})
	require.NoError(t, err)

	require.NoError(t, s.Svc.DeletePayment(s.ctx, p.ID))
	err = s.Svc.DeletePayment(s.ctx, p.ID)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	got, err := s.Svc.GetInvoice(s.ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, got.Status)
}

func TestListInvoicesPaginates(t *testing.T) {
	s := newServiceSetup(t)
	for i := 0; i < 3; i++ {
		s.create(t)
	}

	page, total, err := s.Svc.ListInvoices(s.ctx, ledger.Page{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	rest, _, err := s.Svc.ListInvoices(s.ctx, ledger.Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	_, err = s.Svc.ListPaymentsByInvoice(s.ctx, 999)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}
