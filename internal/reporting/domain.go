// Package reporting assembles read-only financial views over posted ledger
// activity. Builders are pure functions over Repository rows; the service
// wraps them with optional Redis caching.
package reporting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
)

// AccountBalance aggregates one account's posted activity for a window.
// Opening is signed in the debit direction (debits positive) so that
// Closing is uniform across account types.
type AccountBalance struct {
	Code    string             `json:"code"`
	Name    string             `json:"name"`
	Type    ledger.AccountType `json:"type"`
	Subtype string             `json:"subtype"`
	Opening decimal.Decimal    `json:"opening"`
	Debit   decimal.Decimal    `json:"debit"`
	Credit  decimal.Decimal    `json:"credit"`
}

// Closing is the debit-direction closing balance.
func (a AccountBalance) Closing() decimal.Decimal {
	return a.Opening.Add(a.Debit).Sub(a.Credit)
}

// PeriodMovement is the debit-direction activity inside the window.
func (a AccountBalance) PeriodMovement() decimal.Decimal {
	return a.Debit.Sub(a.Credit)
}

// OpenInvoice is an unpaid or partially paid invoice for aging.
type OpenInvoice struct {
	InvoiceID    int64           `json:"invoice_id"`
	Number       string          `json:"number"`
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	IssueDate    time.Time       `json:"issue_date"`
	DueDate      time.Time       `json:"due_date"`
	Balance      decimal.Decimal `json:"balance"`
}

// Repository is the reporting read port. Only posted journal activity is
// visible through it; drafts never reach a report.
type Repository interface {
	// AccountBalances returns, per account, the debit-direction balance
	// accumulated before from and the debit/credit sums inside [from, to].
	// A zero from means no opening cutoff; a zero to means no upper bound.
	AccountBalances(ctx context.Context, from, to time.Time) ([]AccountBalance, error)
	// OpenInvoices returns invoices issued on or before asOf that still
	// carry a balance.
	OpenInvoices(ctx context.Context, asOf time.Time) ([]OpenInvoice, error)
}
