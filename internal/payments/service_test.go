package payments_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/helios-erp/helios-erp/internal/invoicing"
	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/payments"
	"github.com/helios-erp/helios-erp/internal/store/memstore"
)

type fixture struct {
	store     *memstore.Store
	ledger    *ledger.Service
	invoicing *invoicing.Service
	payments  *payments.Service
	customer  invoicing.Customer
	invoice   invoicing.Invoice
}

// newFixture seeds the chart and creates one customer with a 145000 invoice
// (125000 net plus 16% VAT).
func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	codes := ledger.DefaultCodes()

	ledgerSvc := ledger.NewService(store.Ledger(), nil)
	require.NoError(t, ledgerSvc.SeedChart(ctx, ledger.DefaultChart()))

	invSvc := invoicing.NewService(store.Invoicing(), codes)
	customer, err := invSvc.CreateCustomer(ctx, invoicing.CreateCustomerInput{Name: "Acme Ltd"})
	require.NoError(t, err)
	invoice, err := invSvc.CreateInvoice(ctx, invoicing.CreateInvoiceInput{
		CustomerID: customer.ID,
		Lines: []invoicing.LineInput{{
			Description: "Widgets",
			Quantity:    decimal.NewFromInt(100),
			UnitPrice:   decimal.NewFromInt(1250),
			TaxRate:     decimal.NewFromInt(16),
		}},
	})
	require.NoError(t, err)

	return fixture{
		store:     store,
		ledger:    ledgerSvc,
		invoicing: invSvc,
		payments:  payments.NewService(store.Payments(), codes),
		customer:  customer,
		invoice:   invoice,
	}
}

func (f fixture) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	acc, err := f.ledger.GetAccount(context.Background(), code)
	require.NoError(t, err)
	return acc.Balance
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRecordPaymentSettlesInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payment, err := f.payments.RecordPayment(ctx, payments.RecordPaymentInput{
		CustomerID: f.customer.ID,
		Amount:     dec("145000"),
		Method:     "bank_transfer",
		Allocations: []payments.AllocationInput{
			{InvoiceID: f.invoice.ID, Amount: dec("145000")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "PAY-000001", payment.Number)
	require.NotZero(t, payment.JournalEntryID)
	require.Len(t, payment.Allocations, 1)

	invoice, err := f.invoicing.GetInvoice(ctx, f.invoice.ID)
	require.NoError(t, err)
	require.Equal(t, invoicing.InvoiceStatusPaid, invoice.Status)
	require.True(t, invoice.Balance.IsZero())
	require.True(t, invoice.PaidAmount.Equal(dec("145000")))

	// Dr Cash / Cr AR settles the receivable.
	require.True(t, f.balance(t, "1000").Equal(dec("145000")))
	require.True(t, f.balance(t, "1100").IsZero())

	customer, err := f.invoicing.GetCustomer(ctx, f.customer.ID)
	require.NoError(t, err)
	require.True(t, customer.Balance.IsZero())
}

func TestRecordPaymentPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.payments.RecordPayment(ctx, payments.RecordPaymentInput{
		CustomerID: f.customer.ID,
		Amount:     dec("45000"),
		Method:     "mpesa",
		Allocations: []payments.AllocationInput{
			{InvoiceID: f.invoice.ID, Amount: dec("45000")},
		},
	})
	require.NoError(t, err)

	invoice, err := f.invoicing.GetInvoice(ctx, f.invoice.ID)
	require.NoError(t, err)
	require.Equal(t, invoicing.InvoiceStatusPartiallyPaid, invoice.Status)
	require.True(t, invoice.Balance.Equal(dec("100000")))

	customer, err := f.invoicing.GetCustomer(ctx, f.customer.ID)
	require.NoError(t, err)
	require.True(t, customer.Balance.Equal(dec("100000")))
}

func TestRecordPaymentAllocationMismatch(t *testing.T) {
	f := newFixture(t)
	_, err := f.payments.RecordPayment(context.Background(), payments.RecordPaymentInput{
		CustomerID: f.customer.ID,
		Amount:     dec("1000"),
		Allocations: []payments.AllocationInput{
			{InvoiceID: f.invoice.ID, Amount: dec("900")},
		},
	})
	require.ErrorIs(t, err, payments.ErrAllocationMismatch)
}

func TestRecordPaymentOverAllocation(t *testing.T) {
	f := newFixture(t)
	_, err := f.payments.RecordPayment(context.Background(), payments.RecordPaymentInput{
		CustomerID: f.customer.ID,
		Amount:     dec("150000"),
		Allocations: []payments.AllocationInput{
			{InvoiceID: f.invoice.ID, Amount: dec("150000")},
		},
	})
	require.ErrorIs(t, err, payments.ErrAllocationExceedsBalance)

	// The failed transaction must leave cash untouched.
	require.True(t, f.balance(t, "1000").IsZero())
}

func TestRecordPaymentAgainstPaidInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.payments.RecordPayment(ctx, payments.RecordPaymentInput{
		CustomerID: f.customer.ID,
		Amount:     dec("145000"),
		Allocations: []payments.AllocationInput{
			{InvoiceID: f.invoice.ID, Amount: dec("145000")},
		},
	})
	require.NoError(t, err)

	_, err = f.payments.RecordPayment(ctx, payments.RecordPaymentInput{
		CustomerID: f.customer.ID,
		Amount:     dec("1"),
		Allocations: []payments.AllocationInput{
			{InvoiceID: f.invoice.ID, Amount: dec("1")},
		},
	})
	require.ErrorIs(t, err, invoicing.ErrInvalidState)
}

func TestRecordPaymentSplitAcrossInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second, err := f.invoicing.CreateInvoice(ctx, invoicing.CreateInvoiceInput{
		CustomerID: f.customer.ID,
		Lines: []invoicing.LineInput{{
			Description: "Gadgets",
			Quantity:    decimal.NewFromInt(10),
			UnitPrice:   decimal.NewFromInt(500),
			TaxRate:     decimal.Zero,
		}},
	})
	require.NoError(t, err)

	_, err = f.payments.RecordPayment(ctx, payments.RecordPaymentInput{
		CustomerID: f.customer.ID,
		Amount:     dec("150000"),
		Allocations: []payments.AllocationInput{
			{InvoiceID: f.invoice.ID, Amount: dec("145000")},
			{InvoiceID: second.ID, Amount: dec("5000")},
		},
	})
	require.NoError(t, err)

	for _, id := range []int64{f.invoice.ID, second.ID} {
		invoice, err := f.invoicing.GetInvoice(ctx, id)
		require.NoError(t, err)
		require.Equal(t, invoicing.InvoiceStatusPaid, invoice.Status)
	}

	payList, err := f.payments.ListPayments(ctx, f.customer.ID)
	require.NoError(t, err)
	require.Len(t, payList, 1)
	require.Len(t, payList[0].Allocations, 2)
}
