package reporting

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
)

// PLAccount is one revenue or expense line.
type PLAccount struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// PLSection groups accounts by nature with a total.
type PLSection struct {
	Label    string          `json:"label"`
	Accounts []PLAccount     `json:"accounts"`
	Total    decimal.Decimal `json:"total"`
}

// ProfitAndLoss is the income statement for a period.
type ProfitAndLoss struct {
	Revenue           PLSection       `json:"revenue"`
	CostOfSales       PLSection       `json:"cost_of_sales"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	OperatingExpenses PLSection       `json:"operating_expenses"`
	OperatingIncome   decimal.Decimal `json:"operating_income"`
	NetIncome         decimal.Decimal `json:"net_income"`
	GrossMargin       decimal.Decimal `json:"gross_margin"`
	NetMargin         decimal.Decimal `json:"net_margin"`
}

// BuildProfitAndLoss aggregates period movement of revenue and expense
// accounts. Expenses whose subtype mentions cost of sales form their own
// section. Margins are percentages, zero when revenue is zero.
func BuildProfitAndLoss(accounts []AccountBalance) ProfitAndLoss {
	pl := ProfitAndLoss{
		Revenue:           newPLSection("Revenue"),
		CostOfSales:       newPLSection("Cost of Sales"),
		OperatingExpenses: newPLSection("Operating Expenses"),
	}
	for _, acc := range accounts {
		movement := acc.PeriodMovement()
		switch acc.Type {
		case ledger.AccountTypeRevenue:
			addPLRow(&pl.Revenue, acc, movement.Neg())
		case ledger.AccountTypeExpense:
			if strings.Contains(strings.ToLower(acc.Subtype), "cost of sales") {
				addPLRow(&pl.CostOfSales, acc, movement)
			} else {
				addPLRow(&pl.OperatingExpenses, acc, movement)
			}
		}
	}
	sortPLSection(&pl.Revenue)
	sortPLSection(&pl.CostOfSales)
	sortPLSection(&pl.OperatingExpenses)

	pl.GrossProfit = pl.Revenue.Total.Sub(pl.CostOfSales.Total)
	pl.OperatingIncome = pl.GrossProfit.Sub(pl.OperatingExpenses.Total)
	pl.NetIncome = pl.OperatingIncome
	pl.GrossMargin = margin(pl.GrossProfit, pl.Revenue.Total)
	pl.NetMargin = margin(pl.NetIncome, pl.Revenue.Total)
	return pl
}

func newPLSection(label string) PLSection {
	return PLSection{Label: label, Total: decimal.Zero}
}

func addPLRow(section *PLSection, acc AccountBalance, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	section.Accounts = append(section.Accounts, PLAccount{Code: acc.Code, Name: acc.Name, Amount: amount})
	section.Total = section.Total.Add(amount)
}

func sortPLSection(section *PLSection) {
	sort.Slice(section.Accounts, func(i, j int) bool {
		return section.Accounts[i].Code < section.Accounts[j].Code
	})
}

func margin(numerator, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return numerator.Mul(decimal.NewFromInt(100)).Div(revenue).Round(2)
}
