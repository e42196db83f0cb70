package reporting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/helios-erp/helios-erp/internal/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func acct(code, name string, typ ledger.AccountType, subtype, opening, debit, credit string) AccountBalance {
	return AccountBalance{
		Code: code, Name: name, Type: typ, Subtype: subtype,
		Opening: dec(opening), Debit: dec(debit), Credit: dec(credit),
	}
}

// One invoiced sale with VAT, partially collected.
func invoicedPeriod() []AccountBalance {
	return []AccountBalance{
		acct("1000", "Cash and Bank", ledger.AccountTypeAsset, "Current Asset", "0", "45000", "0"),
		acct("1100", "Accounts Receivable", ledger.AccountTypeAsset, "Current Asset", "0", "145000", "45000"),
		acct("2200", "VAT Output", ledger.AccountTypeLiability, "Current Liability", "0", "0", "20000"),
		acct("4000", "Sales Revenue", ledger.AccountTypeRevenue, "Operating Revenue", "0", "0", "125000"),
	}
}

func TestBuildTrialBalanceBalances(t *testing.T) {
	tb := BuildTrialBalance(invoicedPeriod())
	require.True(t, tb.Balanced(), "debit %s credit %s", tb.TotalDebit, tb.TotalCredit)
	require.True(t, tb.TotalDebit.Equal(dec("145000")))
	require.Len(t, tb.Rows, 4)
	// Rows sorted by code; credit-direction closings land in the credit column.
	require.Equal(t, "1000", tb.Rows[0].Code)
	require.True(t, tb.Rows[3].Credit.Equal(dec("125000")))
}

func TestBuildTrialBalanceSkipsZeroClosings(t *testing.T) {
	accounts := append(invoicedPeriod(),
		acct("1200", "Inventory", ledger.AccountTypeAsset, "Current Asset", "0", "500", "500"))
	tb := BuildTrialBalance(accounts)
	require.Len(t, tb.Rows, 4)
}

func TestBuildProfitAndLossSections(t *testing.T) {
	accounts := append(invoicedPeriod(),
		acct("5000", "Cost of Sales", ledger.AccountTypeExpense, "Cost of Sales", "0", "40000", "0"),
		acct("6200", "Rent Expense", ledger.AccountTypeExpense, "Operating Expense", "0", "25000", "0"),
	)
	pl := BuildProfitAndLoss(accounts)
	require.True(t, pl.Revenue.Total.Equal(dec("125000")))
	require.True(t, pl.CostOfSales.Total.Equal(dec("40000")))
	require.True(t, pl.GrossProfit.Equal(dec("85000")))
	require.True(t, pl.OperatingExpenses.Total.Equal(dec("25000")))
	require.True(t, pl.OperatingIncome.Equal(dec("60000")))
	require.True(t, pl.NetIncome.Equal(dec("60000")))
	require.True(t, pl.GrossMargin.Equal(dec("68")), "gross margin %s", pl.GrossMargin)
	require.True(t, pl.NetMargin.Equal(dec("48")), "net margin %s", pl.NetMargin)
}

func TestBuildProfitAndLossZeroRevenue(t *testing.T) {
	pl := BuildProfitAndLoss([]AccountBalance{
		acct("6200", "Rent Expense", ledger.AccountTypeExpense, "Operating Expense", "0", "1000", "0"),
	})
	require.True(t, pl.GrossMargin.IsZero())
	require.True(t, pl.NetMargin.IsZero())
}

func TestBuildBalanceSheetIdentity(t *testing.T) {
	bs := BuildBalanceSheet(invoicedPeriod())

	// Cash 45000 + AR 100000 on the asset side.
	require.True(t, bs.TotalAssets.Equal(dec("145000")), "assets %s", bs.TotalAssets)
	require.True(t, bs.CurrentLiabilities.Total.Equal(dec("20000")))

	// Accumulated revenue rolls into a synthetic retained earnings line.
	require.True(t, bs.Equity.Total.Equal(dec("125000")))
	require.Len(t, bs.Equity.Accounts, 1)
	require.Equal(t, "Retained Earnings (current)", bs.Equity.Accounts[0].Name)

	require.True(t, bs.Identity(), "assets %s liabilities+equity %s",
		bs.TotalAssets, bs.TotalLiabilitiesAndEquity)
}

func TestBuildBalanceSheetClassifiesSubtypes(t *testing.T) {
	bs := BuildBalanceSheet([]AccountBalance{
		acct("1500", "Property and Equipment", ledger.AccountTypeAsset, "Fixed Asset", "0", "80000", "0"),
		acct("2700", "Long Term Loans", ledger.AccountTypeLiability, "Long Term Liability", "0", "0", "50000"),
		acct("3000", "Share Capital", ledger.AccountTypeEquity, "Equity", "0", "0", "30000"),
	})
	require.True(t, bs.FixedAssets.Total.Equal(dec("80000")))
	require.True(t, bs.LongTermLiabilities.Total.Equal(dec("50000")))
	require.True(t, bs.Equity.Total.Equal(dec("30000")))
	require.True(t, bs.Identity())
}

func TestBuildCashFlowTiesToCashAccounts(t *testing.T) {
	cf := BuildCashFlow(invoicedPeriod(), ledger.DefaultCodes())

	require.True(t, cf.NetIncome.Equal(dec("125000")))
	// AR grew by 100000, consuming that much of the income.
	require.True(t, cf.Operating.Equal(dec("25000")), "operating %s", cf.Operating)
	require.True(t, cf.BeginningCash.IsZero())
	require.True(t, cf.EndingCash.Equal(dec("45000")))
	require.True(t, cf.NetCashFlow.Equal(dec("45000")))
	// The VAT liability movement is not an operating adjustment; it lands in
	// the residual so the statement still ties to cash.
	require.True(t, cf.OtherActivity.Equal(dec("20000")), "other %s", cf.OtherActivity)
	require.True(t, cf.Investing.IsZero())
	require.True(t, cf.Financing.IsZero())
	total := cf.Operating.Add(cf.Investing).Add(cf.Financing).Add(cf.OtherActivity)
	require.True(t, total.Equal(cf.NetCashFlow))
}

func TestBuildCashFlowClassifiesInvestingAndFinancing(t *testing.T) {
	// Borrow 50000 (Dr cash / Cr loans), buy equipment for 80000
	// (Dr equipment / Cr cash).
	accounts := []AccountBalance{
		acct("1000", "Cash and Bank", ledger.AccountTypeAsset, "Current Asset", "0", "50000", "80000"),
		acct("1500", "Property and Equipment", ledger.AccountTypeAsset, "Fixed Asset", "0", "80000", "0"),
		acct("2700", "Long Term Loans", ledger.AccountTypeLiability, "Long Term Liability", "0", "0", "50000"),
	}
	cf := BuildCashFlow(accounts, ledger.DefaultCodes())

	require.True(t, cf.Operating.IsZero())
	require.True(t, cf.Investing.Equal(dec("-80000")), "investing %s", cf.Investing)
	require.True(t, cf.Financing.Equal(dec("50000")), "financing %s", cf.Financing)
	require.True(t, cf.OtherActivity.IsZero(), "other %s", cf.OtherActivity)
	require.True(t, cf.NetCashFlow.Equal(dec("-30000")))
	total := cf.Operating.Add(cf.Investing).Add(cf.Financing).Add(cf.OtherActivity)
	require.True(t, total.Equal(cf.NetCashFlow))
}

func TestBuildARAgingBuckets(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	invoices := []OpenInvoice{
		{InvoiceID: 1, CustomerID: 1, CustomerName: "Acme", IssueDate: asOf, Balance: dec("100")},
		{InvoiceID: 2, CustomerID: 1, CustomerName: "Acme", IssueDate: asOf.Add(-15 * day), Balance: dec("200")},
		{InvoiceID: 3, CustomerID: 1, CustomerName: "Acme", IssueDate: asOf.Add(-45 * day), Balance: dec("300")},
		{InvoiceID: 4, CustomerID: 2, CustomerName: "Beta", IssueDate: asOf.Add(-75 * day), Balance: dec("400")},
		{InvoiceID: 5, CustomerID: 2, CustomerName: "Beta", IssueDate: asOf.Add(-120 * day), Balance: dec("500")},
	}

	report := BuildARAging(invoices, asOf)
	require.Len(t, report.Rows, 2)
	require.True(t, report.Total.Equal(dec("1500")))

	acme := report.Rows[0]
	require.Equal(t, int64(1), acme.CustomerID)
	require.True(t, acme.Current.Equal(dec("100")))
	require.True(t, acme.Days1To30.Equal(dec("200")))
	require.True(t, acme.Days31To60.Equal(dec("300")))
	require.True(t, acme.Total.Equal(dec("600")))

	beta := report.Rows[1]
	require.True(t, beta.Days61To90.Equal(dec("400")))
	require.True(t, beta.Over90.Equal(dec("500")))
	require.True(t, beta.Total.Equal(dec("900")))
}

func TestBuildVATReturn(t *testing.T) {
	codes := ledger.DefaultCodes()
	accounts := []AccountBalance{
		acct("2200", "VAT Output", ledger.AccountTypeLiability, "Current Liability", "0", "0", "20000"),
		acct("1300", "VAT Input", ledger.AccountTypeAsset, "Current Asset", "0", "1600", "0"),
		acct("1310", "Withholding VAT", ledger.AccountTypeAsset, "Current Asset", "0", "500", "0"),
	}
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	ret := BuildVATReturn(accounts, codes, from, to)
	require.True(t, ret.OutputVAT.Equal(dec("20000")))
	require.True(t, ret.InputVAT.Equal(dec("1600")))
	require.True(t, ret.NetVAT.Equal(dec("18400")))
	require.True(t, ret.WithholdingVAT.Equal(dec("500")))
	require.True(t, ret.VATPayable.Equal(dec("17900")))

	// Due on the 20th of the month after the period ends.
	require.Equal(t, time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC), ret.DueDate)
}
