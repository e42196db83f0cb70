package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/invoicing"
	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/payments"
	"github.com/helios-erp/helios-erp/internal/payroll"
	"github.com/helios-erp/helios-erp/internal/purchasing"
)

// tx satisfies every domain transaction port against one dataset clone.
type tx struct {
	data *dataset
}

var _ payments.Tx = (*tx)(nil)
var _ payroll.Tx = (*tx)(nil)
var _ purchasing.Tx = (*tx)(nil)

// ledger

func (t *tx) InsertAccount(ctx context.Context, acc ledger.Account) (ledger.Account, error) {
	if _, ok := t.data.accountCodes[acc.Code]; ok {
		return ledger.Account{}, ledger.ErrDuplicateCode
	}
	acc.ID = t.data.nextSeq()
	t.data.accounts[acc.ID] = acc
	t.data.accountCodes[acc.Code] = acc.ID
	return acc, nil
}

func (t *tx) GetAccount(ctx context.Context, id int64) (ledger.Account, error) {
	acc, ok := t.data.accounts[id]
	if !ok {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return acc, nil
}

func (t *tx) GetAccountByCode(ctx context.Context, code string) (ledger.Account, error) {
	id, ok := t.data.accountCodes[code]
	if !ok {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return t.data.accounts[id], nil
}

func (t *tx) GetAccountForUpdate(ctx context.Context, id int64) (ledger.Account, error) {
	// The store mutex already serializes transactions; locking is a no-op.
	return t.GetAccount(ctx, id)
}

func (t *tx) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	out := make([]ledger.Account, 0, len(t.data.accounts))
	for _, acc := range t.data.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (t *tx) UpdateAccountBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	acc, ok := t.data.accounts[id]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	acc.Balance = balance
	t.data.accounts[id] = acc
	return nil
}

func (t *tx) SetAccountActive(ctx context.Context, id int64, active bool) error {
	acc, ok := t.data.accounts[id]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	acc.IsActive = active
	t.data.accounts[id] = acc
	return nil
}

func (t *tx) InsertJournalEntry(ctx context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error) {
	entry.ID = t.data.nextSeq()
	lines := make([]ledger.JournalLine, len(entry.Lines))
	copy(lines, entry.Lines)
	for i := range lines {
		lines[i].ID = t.data.nextSeq()
		lines[i].JournalID = entry.ID
	}
	entry.Lines = lines
	t.data.entries[entry.ID] = entry
	return entry, nil
}

func (t *tx) GetJournalEntry(ctx context.Context, id int64) (ledger.JournalEntry, error) {
	entry, ok := t.data.entries[id]
	if !ok {
		return ledger.JournalEntry{}, ledger.ErrJournalNotFound
	}
	return entry, nil
}

func (t *tx) UpdateJournalStatus(ctx context.Context, id int64, status ledger.JournalStatus, reversedBy *int64, postedAt *time.Time) error {
	entry, ok := t.data.entries[id]
	if !ok {
		return ledger.ErrJournalNotFound
	}
	entry.Status = status
	if reversedBy != nil {
		entry.ReversedBy = reversedBy
	}
	if postedAt != nil {
		entry.PostedAt = postedAt
	}
	t.data.entries[id] = entry
	return nil
}

func (t *tx) ListJournalEntries(ctx context.Context, filter ledger.JournalFilter) ([]ledger.JournalEntry, error) {
	out := make([]ledger.JournalEntry, 0)
	for _, entry := range t.data.entries {
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		if filter.SourceModule != "" && entry.SourceModule != filter.SourceModule {
			continue
		}
		if !filter.From.IsZero() && entry.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && entry.Date.After(filter.To) {
			continue
		}
		if filter.AccountID != 0 {
			hit := false
			for _, line := range entry.Lines {
				if line.AccountID == filter.AccountID {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) NextSequence(ctx context.Context, scope string) (int64, error) {
	t.data.sequences[scope]++
	return t.data.sequences[scope], nil
}

// invoicing

func (t *tx) InsertCustomer(ctx context.Context, c invoicing.Customer) (invoicing.Customer, error) {
	c.ID = t.data.nextSeq()
	t.data.customers[c.ID] = c
	return c, nil
}

func (t *tx) GetCustomer(ctx context.Context, id int64) (invoicing.Customer, error) {
	c, ok := t.data.customers[id]
	if !ok {
		return invoicing.Customer{}, invoicing.ErrCustomerNotFound
	}
	return c, nil
}

func (t *tx) GetCustomerForUpdate(ctx context.Context, id int64) (invoicing.Customer, error) {
	return t.GetCustomer(ctx, id)
}

func (t *tx) ListCustomers(ctx context.Context) ([]invoicing.Customer, error) {
	out := make([]invoicing.Customer, 0, len(t.data.customers))
	for _, c := range t.data.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) UpdateCustomerBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	c, ok := t.data.customers[id]
	if !ok {
		return invoicing.ErrCustomerNotFound
	}
	c.Balance = balance
	t.data.customers[id] = c
	return nil
}

func (t *tx) InsertInvoice(ctx context.Context, inv invoicing.Invoice) (invoicing.Invoice, error) {
	inv.ID = t.data.nextSeq()
	lines := make([]invoicing.InvoiceLine, len(inv.Lines))
	copy(lines, inv.Lines)
	for i := range lines {
		lines[i].ID = t.data.nextSeq()
		lines[i].InvoiceID = inv.ID
	}
	inv.Lines = lines
	t.data.invoices[inv.ID] = inv
	return inv, nil
}

func (t *tx) GetInvoice(ctx context.Context, id int64) (invoicing.Invoice, error) {
	inv, ok := t.data.invoices[id]
	if !ok {
		return invoicing.Invoice{}, invoicing.ErrInvoiceNotFound
	}
	return inv, nil
}

func (t *tx) GetInvoiceForUpdate(ctx context.Context, id int64) (invoicing.Invoice, error) {
	return t.GetInvoice(ctx, id)
}

func (t *tx) UpdateInvoice(ctx context.Context, inv invoicing.Invoice) error {
	if _, ok := t.data.invoices[inv.ID]; !ok {
		return invoicing.ErrInvoiceNotFound
	}
	t.data.invoices[inv.ID] = inv
	return nil
}

func (t *tx) ListInvoices(ctx context.Context, filter invoicing.InvoiceFilter) ([]invoicing.Invoice, error) {
	out := make([]invoicing.Invoice, 0)
	for _, inv := range t.data.invoices {
		if filter.CustomerID != 0 && inv.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) InsertEstimate(ctx context.Context, est invoicing.Estimate) (invoicing.Estimate, error) {
	est.ID = t.data.nextSeq()
	lines := make([]invoicing.EstimateLine, len(est.Lines))
	copy(lines, est.Lines)
	for i := range lines {
		lines[i].ID = t.data.nextSeq()
		lines[i].EstimateID = est.ID
	}
	est.Lines = lines
	t.data.estimates[est.ID] = est
	return est, nil
}

func (t *tx) GetEstimateForUpdate(ctx context.Context, id int64) (invoicing.Estimate, error) {
	est, ok := t.data.estimates[id]
	if !ok {
		return invoicing.Estimate{}, invoicing.ErrEstimateNotFound
	}
	return est, nil
}

func (t *tx) UpdateEstimate(ctx context.Context, est invoicing.Estimate) error {
	if _, ok := t.data.estimates[est.ID]; !ok {
		return invoicing.ErrEstimateNotFound
	}
	t.data.estimates[est.ID] = est
	return nil
}

func (t *tx) ListEstimates(ctx context.Context) ([]invoicing.Estimate, error) {
	out := make([]invoicing.Estimate, 0, len(t.data.estimates))
	for _, est := range t.data.estimates {
		out = append(out, est)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// payments

func (t *tx) InsertPayment(ctx context.Context, p payments.Payment) (payments.Payment, error) {
	p.ID = t.data.nextSeq()
	allocs := make([]payments.Allocation, len(p.Allocations))
	copy(allocs, p.Allocations)
	for i := range allocs {
		allocs[i].ID = t.data.nextSeq()
		allocs[i].PaymentID = p.ID
	}
	p.Allocations = allocs
	t.data.payments[p.ID] = p
	return p, nil
}

func (t *tx) GetPayment(ctx context.Context, id int64) (payments.Payment, error) {
	p, ok := t.data.payments[id]
	if !ok {
		return payments.Payment{}, payments.ErrPaymentNotFound
	}
	return p, nil
}

func (t *tx) ListPayments(ctx context.Context, customerID int64) ([]payments.Payment, error) {
	out := make([]payments.Payment, 0)
	for _, p := range t.data.payments {
		if customerID != 0 && p.CustomerID != customerID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// payroll

func (t *tx) InsertEmployee(ctx context.Context, e payroll.Employee) (payroll.Employee, error) {
	e.ID = t.data.nextSeq()
	t.data.employees[e.ID] = e
	return e, nil
}

func (t *tx) GetEmployee(ctx context.Context, id int64) (payroll.Employee, error) {
	e, ok := t.data.employees[id]
	if !ok {
		return payroll.Employee{}, payroll.ErrEmployeeNotFound
	}
	return e, nil
}

func (t *tx) UpdateEmployee(ctx context.Context, e payroll.Employee) error {
	if _, ok := t.data.employees[e.ID]; !ok {
		return payroll.ErrEmployeeNotFound
	}
	t.data.employees[e.ID] = e
	return nil
}

func (t *tx) ListEmployees(ctx context.Context, activeOnly bool) ([]payroll.Employee, error) {
	out := make([]payroll.Employee, 0, len(t.data.employees))
	for _, e := range t.data.employees {
		if activeOnly && !e.IsActive {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) InsertRun(ctx context.Context, r payroll.Run) (payroll.Run, error) {
	r.ID = t.data.nextSeq()
	slips := make([]payroll.Payslip, len(r.Payslips))
	copy(slips, r.Payslips)
	for i := range slips {
		slips[i].ID = t.data.nextSeq()
		slips[i].RunID = r.ID
	}
	r.Payslips = slips
	t.data.runs[r.ID] = r
	return r, nil
}

func (t *tx) GetRun(ctx context.Context, id int64) (payroll.Run, error) {
	r, ok := t.data.runs[id]
	if !ok {
		return payroll.Run{}, payroll.ErrRunNotFound
	}
	return r, nil
}

func (t *tx) GetRunForUpdate(ctx context.Context, id int64) (payroll.Run, error) {
	return t.GetRun(ctx, id)
}

func (t *tx) GetRunByPeriod(ctx context.Context, period string) (payroll.Run, error) {
	for _, r := range t.data.runs {
		if r.Period == period {
			return r, nil
		}
	}
	return payroll.Run{}, payroll.ErrRunNotFound
}

func (t *tx) UpdateRun(ctx context.Context, r payroll.Run) error {
	if _, ok := t.data.runs[r.ID]; !ok {
		return payroll.ErrRunNotFound
	}
	t.data.runs[r.ID] = r
	return nil
}

func (t *tx) ListRuns(ctx context.Context) ([]payroll.Run, error) {
	out := make([]payroll.Run, 0, len(t.data.runs))
	for _, r := range t.data.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// purchasing

func (t *tx) InsertVendor(ctx context.Context, v purchasing.Vendor) (purchasing.Vendor, error) {
	v.ID = t.data.nextSeq()
	t.data.vendors[v.ID] = v
	return v, nil
}

func (t *tx) GetVendor(ctx context.Context, id int64) (purchasing.Vendor, error) {
	v, ok := t.data.vendors[id]
	if !ok {
		return purchasing.Vendor{}, purchasing.ErrVendorNotFound
	}
	return v, nil
}

func (t *tx) GetVendorForUpdate(ctx context.Context, id int64) (purchasing.Vendor, error) {
	return t.GetVendor(ctx, id)
}

func (t *tx) ListVendors(ctx context.Context) ([]purchasing.Vendor, error) {
	out := make([]purchasing.Vendor, 0, len(t.data.vendors))
	for _, v := range t.data.vendors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) UpdateVendorBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	v, ok := t.data.vendors[id]
	if !ok {
		return purchasing.ErrVendorNotFound
	}
	v.Balance = balance
	t.data.vendors[id] = v
	return nil
}

func (t *tx) InsertPurchase(ctx context.Context, p purchasing.Purchase) (purchasing.Purchase, error) {
	p.ID = t.data.nextSeq()
	lines := make([]purchasing.PurchaseLine, len(p.Lines))
	copy(lines, p.Lines)
	for i := range lines {
		lines[i].ID = t.data.nextSeq()
		lines[i].PurchaseID = p.ID
	}
	p.Lines = lines
	t.data.purchases[p.ID] = p
	return p, nil
}

func (t *tx) GetPurchase(ctx context.Context, id int64) (purchasing.Purchase, error) {
	p, ok := t.data.purchases[id]
	if !ok {
		return purchasing.Purchase{}, purchasing.ErrPurchaseNotFound
	}
	return p, nil
}

func (t *tx) ListPurchases(ctx context.Context, vendorID int64) ([]purchasing.Purchase, error) {
	out := make([]purchasing.Purchase, 0)
	for _, p := range t.data.purchases {
		if vendorID != 0 && p.VendorID != vendorID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
