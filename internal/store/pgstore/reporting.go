package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/helios-erp/helios-erp/internal/reporting"
)

var _ reporting.Repository = (*Store)(nil)

// AccountBalances aggregates applied journal activity per account straight
// from the lines. Drafts are excluded; reversed entries stay in because
// their posted reversal carries the offset.
func (s *Store) AccountBalances(ctx context.Context, from, to time.Time) ([]reporting.AccountBalance, error) {
	query := `
		SELECT a.code, a.name, a.type, a.subtype,
			COALESCE(SUM(CASE WHEN $1::timestamptz IS NOT NULL AND e.date < $1 THEN l.debit - l.credit ELSE 0 END), 0) AS opening,
			COALESCE(SUM(CASE WHEN $1::timestamptz IS NULL OR e.date >= $1 THEN l.debit ELSE 0 END), 0) AS debit,
			COALESCE(SUM(CASE WHEN $1::timestamptz IS NULL OR e.date >= $1 THEN l.credit ELSE 0 END), 0) AS credit
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.journal_id
		JOIN accounts a ON a.id = l.account_id
		WHERE e.status <> 'DRAFT'
			AND ($2::timestamptz IS NULL OR e.date <= $2)
		GROUP BY a.code, a.name, a.type, a.subtype
		ORDER BY a.code`

	rows, err := s.pool.Query(ctx, query, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, fmt.Errorf("pgstore: account balances: %w", err)
	}
	defer rows.Close()

	var out []reporting.AccountBalance
	for rows.Next() {
		var row reporting.AccountBalance
		if err := rows.Scan(&row.Code, &row.Name, &row.Type, &row.Subtype,
			&row.Opening, &row.Debit, &row.Credit); err != nil {
			return nil, fmt.Errorf("pgstore: scan account balance: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// OpenInvoices returns invoices issued on or before asOf that still carry a
// balance.
func (s *Store) OpenInvoices(ctx context.Context, asOf time.Time) ([]reporting.OpenInvoice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT i.id, i.number, i.customer_id, c.name, i.issue_date, i.due_date, i.balance
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		WHERE i.balance > 0 AND i.issue_date <= $1
		ORDER BY i.id`, asOf)
	if err != nil {
		return nil, fmt.Errorf("pgstore: open invoices: %w", err)
	}
	defer rows.Close()

	var out []reporting.OpenInvoice
	for rows.Next() {
		var inv reporting.OpenInvoice
		if err := rows.Scan(&inv.InvoiceID, &inv.Number, &inv.CustomerID,
			&inv.CustomerName, &inv.IssueDate, &inv.DueDate, &inv.Balance); err != nil {
			return nil, fmt.Errorf("pgstore: scan open invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
