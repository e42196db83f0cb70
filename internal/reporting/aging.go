package reporting

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AgingRow buckets one customer's open invoice balances by age in days
// since issue.
type AgingRow struct {
	CustomerID   int64           `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Current      decimal.Decimal `json:"current"`
	Days1To30    decimal.Decimal `json:"days_1_30"`
	Days31To60   decimal.Decimal `json:"days_31_60"`
	Days61To90   decimal.Decimal `json:"days_61_90"`
	Over90       decimal.Decimal `json:"over_90"`
	Total        decimal.Decimal `json:"total"`
}

// ARAging is the receivables aging report as of a date.
type ARAging struct {
	AsOf  time.Time       `json:"as_of"`
	Rows  []AgingRow      `json:"rows"`
	Total decimal.Decimal `json:"total"`
}

// BuildARAging buckets open invoices per customer by asOf minus issue date.
// The report total equals the sum of outstanding customer balances.
func BuildARAging(invoices []OpenInvoice, asOf time.Time) ARAging {
	byCustomer := make(map[int64]*AgingRow)
	ids := make([]int64, 0)
	for _, inv := range invoices {
		row, ok := byCustomer[inv.CustomerID]
		if !ok {
			row = &AgingRow{
				CustomerID:   inv.CustomerID,
				CustomerName: inv.CustomerName,
				Current:      decimal.Zero,
				Days1To30:    decimal.Zero,
				Days31To60:   decimal.Zero,
				Days61To90:   decimal.Zero,
				Over90:       decimal.Zero,
				Total:        decimal.Zero,
			}
			byCustomer[inv.CustomerID] = row
			ids = append(ids, inv.CustomerID)
		}
		age := int(asOf.Sub(inv.IssueDate).Hours() / 24)
		switch {
		case age <= 0:
			row.Current = row.Current.Add(inv.Balance)
		case age <= 30:
			row.Days1To30 = row.Days1To30.Add(inv.Balance)
		case age <= 60:
			row.Days31To60 = row.Days31To60.Add(inv.Balance)
		case age <= 90:
			row.Days61To90 = row.Days61To90.Add(inv.Balance)
		default:
			row.Over90 = row.Over90.Add(inv.Balance)
		}
		row.Total = row.Total.Add(inv.Balance)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	report := ARAging{AsOf: asOf, Total: decimal.Zero}
	for _, id := range ids {
		row := byCustomer[id]
		report.Rows = append(report.Rows, *row)
		report.Total = report.Total.Add(row.Total)
	}
	return report
}
