package reporting

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
)

// CashFlowLine is one labelled adjustment.
type CashFlowLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// CashFlow is the indirect-method cash flow statement for a period.
type CashFlow struct {
	NetIncome     decimal.Decimal `json:"net_income"`
	Adjustments   []CashFlowLine  `json:"adjustments"`
	Operating     decimal.Decimal `json:"operating"`
	Investing     decimal.Decimal `json:"investing"`
	Financing     decimal.Decimal `json:"financing"`
	OtherActivity decimal.Decimal `json:"other_activity"`
	NetCashFlow   decimal.Decimal `json:"net_cash_flow"`
	BeginningCash decimal.Decimal `json:"beginning_cash"`
	EndingCash    decimal.Decimal `json:"ending_cash"`
}

// BuildCashFlow derives operating cash flow indirectly: period net income
// adjusted by working capital movement in receivables, payables and
// inventory. Fixed asset movement is investing activity; long-term liability
// and equity movement is financing. Whatever none of the sections explains
// (VAT and payroll control accounts) lands in OtherActivity so the statement
// always ties out to the cash accounts.
func BuildCashFlow(accounts []AccountBalance, codes ledger.CodeSet) CashFlow {
	cf := CashFlow{
		NetIncome:     decimal.Zero,
		Operating:     decimal.Zero,
		Investing:     decimal.Zero,
		Financing:     decimal.Zero,
		BeginningCash: decimal.Zero,
		EndingCash:    decimal.Zero,
	}
	deltaAR := decimal.Zero
	deltaAP := decimal.Zero
	deltaInventory := decimal.Zero
	for _, acc := range accounts {
		movement := acc.PeriodMovement()
		switch {
		case acc.Type == ledger.AccountTypeRevenue:
			cf.NetIncome = cf.NetIncome.Add(movement.Neg())
		case acc.Type == ledger.AccountTypeExpense:
			cf.NetIncome = cf.NetIncome.Sub(movement)
		case acc.Code == codes.Cash:
			cf.BeginningCash = cf.BeginningCash.Add(acc.Opening)
			cf.EndingCash = cf.EndingCash.Add(acc.Closing())
		case acc.Code == codes.AccountsReceivable:
			deltaAR = deltaAR.Add(movement)
		case acc.Code == codes.AccountsPayable:
			deltaAP = deltaAP.Add(movement.Neg())
		case acc.Code == codes.Inventory:
			deltaInventory = deltaInventory.Add(movement)
		case acc.Type == ledger.AccountTypeAsset && strings.Contains(strings.ToLower(acc.Subtype), "fixed"):
			// Asset growth is a cash outflow.
			cf.Investing = cf.Investing.Sub(movement)
		case acc.Type == ledger.AccountTypeLiability && strings.Contains(strings.ToLower(acc.Subtype), "long"):
			// Movement is debit-direction; borrowing credits the account.
			cf.Financing = cf.Financing.Sub(movement)
		case acc.Type == ledger.AccountTypeEquity:
			cf.Financing = cf.Financing.Sub(movement)
		}
	}

	cf.Adjustments = []CashFlowLine{
		{Label: "Increase in accounts receivable", Amount: deltaAR.Neg()},
		{Label: "Increase in accounts payable", Amount: deltaAP},
		{Label: "Increase in inventory", Amount: deltaInventory.Neg()},
	}
	cf.Operating = cf.NetIncome.Sub(deltaAR).Add(deltaAP).Sub(deltaInventory)
	cf.NetCashFlow = cf.EndingCash.Sub(cf.BeginningCash)
	cf.OtherActivity = cf.NetCashFlow.Sub(cf.Operating).Sub(cf.Investing).Sub(cf.Financing)
	return cf
}
