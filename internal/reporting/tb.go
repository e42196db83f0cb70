package reporting

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow places an account's closing balance on its natural side.
type TrialBalanceRow struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// TrialBalance lists every account with activity and the column totals.
type TrialBalance struct {
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
}

// Balanced reports whether the debit and credit columns agree.
func (tb TrialBalance) Balanced() bool {
	return tb.TotalDebit.Equal(tb.TotalCredit)
}

// BuildTrialBalance converts account balances into trial balance rows. A
// debit-direction closing lands in the debit column, a credit-direction one
// in the credit column. Zero-balance accounts are skipped.
func BuildTrialBalance(accounts []AccountBalance) TrialBalance {
	tb := TrialBalance{
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, acc := range accounts {
		closing := acc.Closing()
		if closing.IsZero() {
			continue
		}
		row := TrialBalanceRow{Code: acc.Code, Name: acc.Name, Debit: decimal.Zero, Credit: decimal.Zero}
		if closing.IsPositive() {
			row.Debit = closing
		} else {
			row.Credit = closing.Neg()
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	return tb
}
