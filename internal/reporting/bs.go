package reporting

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
)

// BSAccount is one balance sheet line. Assets are debit-positive,
// liabilities and equity credit-positive.
type BSAccount struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// BSSection holds the lines and total of one classification.
type BSSection struct {
	Label    string          `json:"label"`
	Accounts []BSAccount     `json:"accounts"`
	Total    decimal.Decimal `json:"total"`
}

// BalanceSheet is the statement of financial position at a date.
type BalanceSheet struct {
	CurrentAssets             BSSection       `json:"current_assets"`
	FixedAssets               BSSection       `json:"fixed_assets"`
	TotalAssets               decimal.Decimal `json:"total_assets"`
	CurrentLiabilities        BSSection       `json:"current_liabilities"`
	LongTermLiabilities       BSSection       `json:"long_term_liabilities"`
	TotalLiabilities          decimal.Decimal `json:"total_liabilities"`
	Equity                    BSSection       `json:"equity"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
}

// Identity reports whether Assets = Liabilities + Equity holds.
func (bs BalanceSheet) Identity() bool {
	return bs.TotalAssets.Equal(bs.TotalLiabilitiesAndEquity)
}

// BuildBalanceSheet classifies closing balances as of a date. Accumulated
// revenue and expense roll into a retained earnings line under equity, which
// is what makes the accounting identity hold.
func BuildBalanceSheet(accounts []AccountBalance) BalanceSheet {
	bs := BalanceSheet{
		CurrentAssets:       BSSection{Label: "Current Assets", Total: decimal.Zero},
		FixedAssets:         BSSection{Label: "Fixed Assets", Total: decimal.Zero},
		CurrentLiabilities:  BSSection{Label: "Current Liabilities", Total: decimal.Zero},
		LongTermLiabilities: BSSection{Label: "Long Term Liabilities", Total: decimal.Zero},
		Equity:              BSSection{Label: "Equity", Total: decimal.Zero},
	}
	retained := decimal.Zero
	for _, acc := range accounts {
		closing := acc.Closing()
		switch acc.Type {
		case ledger.AccountTypeAsset:
			if strings.Contains(strings.ToLower(acc.Subtype), "fixed") {
				addBSRow(&bs.FixedAssets, acc, closing)
			} else {
				addBSRow(&bs.CurrentAssets, acc, closing)
			}
		case ledger.AccountTypeLiability:
			if strings.Contains(strings.ToLower(acc.Subtype), "long") {
				addBSRow(&bs.LongTermLiabilities, acc, closing.Neg())
			} else {
				addBSRow(&bs.CurrentLiabilities, acc, closing.Neg())
			}
		case ledger.AccountTypeEquity:
			addBSRow(&bs.Equity, acc, closing.Neg())
		case ledger.AccountTypeRevenue, ledger.AccountTypeExpense:
			retained = retained.Add(closing.Neg())
		}
	}
	if !retained.IsZero() {
		bs.Equity.Accounts = append(bs.Equity.Accounts, BSAccount{
			Name:    "Retained Earnings (current)",
			Balance: retained,
		})
		bs.Equity.Total = bs.Equity.Total.Add(retained)
	}

	for _, section := range []*BSSection{
		&bs.CurrentAssets, &bs.FixedAssets,
		&bs.CurrentLiabilities, &bs.LongTermLiabilities, &bs.Equity,
	} {
		sort.Slice(section.Accounts, func(i, j int) bool {
			return section.Accounts[i].Code < section.Accounts[j].Code
		})
	}

	bs.TotalAssets = bs.CurrentAssets.Total.Add(bs.FixedAssets.Total)
	bs.TotalLiabilities = bs.CurrentLiabilities.Total.Add(bs.LongTermLiabilities.Total)
	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities.Add(bs.Equity.Total)
	return bs
}

func addBSRow(section *BSSection, acc AccountBalance, balance decimal.Decimal) {
	if balance.IsZero() {
		return
	}
	section.Accounts = append(section.Accounts, BSAccount{Code: acc.Code, Name: acc.Name, Balance: balance})
	section.Total = section.Total.Add(balance)
}
