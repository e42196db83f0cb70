package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/reporting"
)

var _ reporting.Repository = (*Store)(nil)

// AccountBalances aggregates applied journal activity per account. Drafts
// are invisible; reversed entries stay in the fold because their posted
// reversal carries the offset.
func (s *Store) AccountBalances(ctx context.Context, from, to time.Time) ([]reporting.AccountBalance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make(map[int64]*reporting.AccountBalance)
	rowFor := func(accountID int64) *reporting.AccountBalance {
		if row, ok := rows[accountID]; ok {
			return row
		}
		acc := s.data.accounts[accountID]
		row := &reporting.AccountBalance{
			Code:    acc.Code,
			Name:    acc.Name,
			Type:    acc.Type,
			Subtype: acc.Subtype,
			Opening: decimal.Zero,
			Debit:   decimal.Zero,
			Credit:  decimal.Zero,
		}
		rows[accountID] = row
		return row
	}

	for _, entry := range s.data.entries {
		if entry.Status == ledger.JournalStatusDraft {
			continue
		}
		if !to.IsZero() && entry.Date.After(to) {
			continue
		}
		before := !from.IsZero() && entry.Date.Before(from)
		for _, line := range entry.Lines {
			row := rowFor(line.AccountID)
			if before {
				row.Opening = row.Opening.Add(line.Debit).Sub(line.Credit)
				continue
			}
			row.Debit = row.Debit.Add(line.Debit)
			row.Credit = row.Credit.Add(line.Credit)
		}
	}

	out := make([]reporting.AccountBalance, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// OpenInvoices returns invoices issued on or before asOf that still carry a
// balance, with the customer name resolved for display.
func (s *Store) OpenInvoices(ctx context.Context, asOf time.Time) ([]reporting.OpenInvoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]reporting.OpenInvoice, 0)
	for _, inv := range s.data.invoices {
		if !inv.Balance.IsPositive() {
			continue
		}
		if inv.IssueDate.After(asOf) {
			continue
		}
		name := ""
		if c, ok := s.data.customers[inv.CustomerID]; ok {
			name = c.Name
		}
		out = append(out, reporting.OpenInvoice{
			InvoiceID:    inv.ID,
			Number:       inv.Number,
			CustomerID:   inv.CustomerID,
			CustomerName: name,
			IssueDate:    inv.IssueDate,
			DueDate:      inv.DueDate,
			Balance:      inv.Balance,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceID < out[j].InvoiceID })
	return out, nil
}
