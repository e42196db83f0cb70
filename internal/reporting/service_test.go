package reporting_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/helios-erp/helios-erp/internal/invoicing"
	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/payments"
	"github.com/helios-erp/helios-erp/internal/reporting"
	"github.com/helios-erp/helios-erp/internal/store/memstore"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedActivity posts one 145000 invoice (125000 net, 16% VAT) and collects
// 45000 of it, leaving 100000 receivable.
func seedActivity(t *testing.T) *memstore.Store {
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

	paySvc := payments.NewService(store.Payments(), codes)
	_, err = paySvc.RecordPayment(ctx, payments.RecordPaymentInput{
		CustomerID: customer.ID,
		Amount:     dec("45000"),
		Allocations: []payments.AllocationInput{
			{InvoiceID: invoice.ID, Amount: dec("45000")},
		},
	})
	require.NoError(t, err)
	return store
}

func TestServiceTrialBalanceBalances(t *testing.T) {
	store := seedActivity(t)
	svc := reporting.NewService(store, nil, ledger.DefaultCodes())

	tb, err := svc.TrialBalance(context.Background(), time.Time{})
	require.NoError(t, err)
	require.True(t, tb.Balanced(), "debit %s credit %s", tb.TotalDebit, tb.TotalCredit)
	require.True(t, tb.TotalDebit.Equal(dec("145000")))
}

func TestServiceBalanceSheetIdentity(t *testing.T) {
	store := seedActivity(t)
	svc := reporting.NewService(store, nil, ledger.DefaultCodes())

	bs, err := svc.BalanceSheet(context.Background(), time.Time{})
	require.NoError(t, err)
	require.True(t, bs.Identity(), "assets %s liabilities+equity %s",
		bs.TotalAssets, bs.TotalLiabilitiesAndEquity)
	require.True(t, bs.TotalAssets.Equal(dec("145000")))
}

func TestServiceProfitAndLoss(t *testing.T) {
	store := seedActivity(t)
	svc := reporting.NewService(store, nil, ledger.DefaultCodes())

	pl, err := svc.ProfitAndLoss(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.True(t, pl.Revenue.Total.Equal(dec("125000")))
	require.True(t, pl.NetIncome.Equal(dec("125000")))
}

func TestServiceCashFlow(t *testing.T) {
	store := seedActivity(t)
	svc := reporting.NewService(store, nil, ledger.DefaultCodes())

	cf, err := svc.CashFlow(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.True(t, cf.EndingCash.Equal(dec("45000")))
	total := cf.Operating.Add(cf.Investing).Add(cf.Financing).Add(cf.OtherActivity)
	require.True(t, total.Equal(cf.NetCashFlow))
}

func TestServiceARAging(t *testing.T) {
	store := seedActivity(t)
	svc := reporting.NewService(store, nil, ledger.DefaultCodes())

	aging, err := svc.ARAging(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.True(t, aging.Total.Equal(dec("100000")), "total %s", aging.Total)
	require.Len(t, aging.Rows, 1)
}

func TestServiceVATReturn(t *testing.T) {
	store := seedActivity(t)
	svc := reporting.NewService(store, nil, ledger.DefaultCodes())

	ret, err := svc.VATReturn(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.True(t, ret.OutputVAT.Equal(dec("20000")))
	require.True(t, ret.VATPayable.Equal(dec("20000")))
}

func TestServiceCachesReports(t *testing.T) {
	store := seedActivity(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := reporting.NewCache(client, time.Minute)
	svc := reporting.NewService(store, cache, ledger.DefaultCodes())
	ctx := context.Background()

	asOf := time.Time{}
	first, err := svc.TrialBalance(ctx, asOf)
	require.NoError(t, err)

	// The second call is served from Redis and must decode identically.
	second, err := svc.TrialBalance(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, second.Rows, len(first.Rows))
	require.True(t, first.TotalDebit.Equal(dec("145000")))
	require.True(t, second.TotalDebit.Equal(first.TotalDebit))

	// A bump addresses a fresh key, so new postings become visible.
	require.NoError(t, cache.Bump(ctx))
	third, err := svc.TrialBalance(ctx, asOf)
	require.NoError(t, err)
	require.True(t, third.Balanced())
}
