package invoicing_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/helios-erp/helios-erp/internal/invoicing"
	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/store/memstore"
)

type fixture struct {
	store     *memstore.Store
	ledger    *ledger.Service
	invoicing *invoicing.Service
	customer  invoicing.Customer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	ledgerSvc := ledger.NewService(store.Ledger(), nil)
	require.NoError(t, ledgerSvc.SeedChart(ctx, ledger.DefaultChart()))

	svc := invoicing.NewService(store.Invoicing(), ledger.DefaultCodes())
	customer, err := svc.CreateCustomer(ctx, invoicing.CreateCustomerInput{
		Name: "Acme Ltd", Email: "billing@acme.example",
	})
	require.NoError(t, err)
	return fixture{store: store, ledger: ledgerSvc, invoicing: svc, customer: customer}
}

func (f fixture) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	acc, err := f.ledger.GetAccount(context.Background(), code)
	require.NoError(t, err)
	return acc.Balance
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func standardLines() []invoicing.LineInput {
	return []invoicing.LineInput{{
		Description: "Widgets",
		Quantity:    decimal.NewFromInt(100),
		UnitPrice:   decimal.NewFromInt(1250),
		TaxRate:     decimal.NewFromInt(16),
	}}
}

func TestCreateInvoicePostsBalancedEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice, err := f.invoicing.CreateInvoice(ctx, invoicing.CreateInvoiceInput{
		CustomerID: f.customer.ID,
		Lines:      standardLines(),
		CreatedBy:  "clerk",
	})
	require.NoError(t, err)

	require.Equal(t, "INV-000001", invoice.Number)
	require.Equal(t, invoicing.InvoiceStatusDraft, invoice.Status)
	require.True(t, invoice.Subtotal.Equal(dec("125000")))
	require.True(t, invoice.TaxAmount.Equal(dec("20000")))
	require.True(t, invoice.Total.Equal(dec("145000")))
	require.True(t, invoice.Balance.Equal(invoice.Total))
	require.NotZero(t, invoice.JournalEntryID)

	// Dr AR 145000 / Cr Revenue 125000 / Cr VAT output 20000.
	require.True(t, f.balance(t, "1100").Equal(dec("145000")))
	require.True(t, f.balance(t, "4000").Equal(dec("125000")))
	require.True(t, f.balance(t, "2200").Equal(dec("20000")))

	entry, err := f.ledger.GetJournalEntry(ctx, invoice.JournalEntryID)
	require.NoError(t, err)
	require.Equal(t, ledger.JournalStatusPosted, entry.Status)
	require.Equal(t, "invoicing", entry.SourceModule)
	require.Len(t, entry.Lines, 3)

	customer, err := f.invoicing.GetCustomer(ctx, f.customer.ID)
	require.NoError(t, err)
	require.True(t, customer.Balance.Equal(dec("145000")))
}

func TestCreateInvoiceUnknownCustomer(t *testing.T) {
	f := newFixture(t)
	_, err := f.invoicing.CreateInvoice(context.Background(), invoicing.CreateInvoiceInput{
		CustomerID: 404,
		Lines:      standardLines(),
	})
	require.ErrorIs(t, err, invoicing.ErrCustomerNotFound)

	// Nothing may leak out of the failed transaction.
	require.True(t, f.balance(t, "1100").IsZero())
}

func TestSendInvoiceLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice, err := f.invoicing.CreateInvoice(ctx, invoicing.CreateInvoiceInput{
		CustomerID: f.customer.ID,
		Lines:      standardLines(),
	})
	require.NoError(t, err)

	sent, err := f.invoicing.SendInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, invoicing.InvoiceStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	_, err = f.invoicing.SendInvoice(ctx, invoice.ID)
	require.ErrorIs(t, err, invoicing.ErrInvalidState)
}

func TestEstimateHasNoAccountingImpact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	estimate, err := f.invoicing.CreateEstimate(ctx, invoicing.CreateEstimateInput{
		CustomerID: f.customer.ID,
		Lines:      standardLines(),
	})
	require.NoError(t, err)
	require.Equal(t, "EST-000001", estimate.Number)
	require.True(t, estimate.Total.Equal(dec("145000")))

	require.True(t, f.balance(t, "1100").IsZero())
	require.True(t, f.balance(t, "4000").IsZero())
}

func TestConvertAcceptedEstimate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	estimate, err := f.invoicing.CreateEstimate(ctx, invoicing.CreateEstimateInput{
		CustomerID: f.customer.ID,
		Lines:      standardLines(),
	})
	require.NoError(t, err)

	_, err = f.invoicing.UpdateEstimateStatus(ctx, estimate.ID, invoicing.EstimateStatusSent)
	require.NoError(t, err)
	_, err = f.invoicing.UpdateEstimateStatus(ctx, estimate.ID, invoicing.EstimateStatusAccepted)
	require.NoError(t, err)

	invoice, err := f.invoicing.ConvertEstimateToInvoice(ctx, estimate.ID, "clerk")
	require.NoError(t, err)
	require.True(t, invoice.Total.Equal(estimate.Total))
	require.NotNil(t, invoice.EstimateID)
	require.Equal(t, estimate.ID, *invoice.EstimateID)
	require.True(t, f.balance(t, "1100").Equal(dec("145000")))

	estimates, err := f.invoicing.ListEstimates(ctx)
	require.NoError(t, err)
	require.Len(t, estimates, 1)
	require.Equal(t, invoicing.EstimateStatusConverted, estimates[0].Status)
	require.NotNil(t, estimates[0].ConvertedInvoiceID)

	// Converted estimates are immutable.
	_, err = f.invoicing.ConvertEstimateToInvoice(ctx, estimate.ID, "clerk")
	require.ErrorIs(t, err, invoicing.ErrInvalidState)
	_, err = f.invoicing.UpdateEstimateStatus(ctx, estimate.ID, invoicing.EstimateStatusDraft)
	require.ErrorIs(t, err, invoicing.ErrInvalidState)
}

func TestConvertRequiresAcceptedStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	estimate, err := f.invoicing.CreateEstimate(ctx, invoicing.CreateEstimateInput{
		CustomerID: f.customer.ID,
		Lines:      standardLines(),
	})
	require.NoError(t, err)

	_, err = f.invoicing.ConvertEstimateToInvoice(ctx, estimate.ID, "clerk")
	require.ErrorIs(t, err, invoicing.ErrInvalidState)
}

func TestListInvoicesByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.invoicing.CreateInvoice(ctx, invoicing.CreateInvoiceInput{
		CustomerID: f.customer.ID,
		Lines:      standardLines(),
	})
	require.NoError(t, err)
	_, err = f.invoicing.CreateInvoice(ctx, invoicing.CreateInvoiceInput{
		CustomerID: f.customer.ID,
		Lines:      standardLines(),
	})
	require.NoError(t, err)

	_, err = f.invoicing.SendInvoice(ctx, first.ID)
	require.NoError(t, err)

	sent, err := f.invoicing.ListInvoices(ctx, invoicing.InvoiceFilter{Status: invoicing.InvoiceStatusSent})
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.Equal(t, first.ID, sent[0].ID)

	all, err := f.invoicing.ListInvoices(ctx, invoicing.InvoiceFilter{CustomerID: f.customer.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
}
