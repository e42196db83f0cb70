// Package memstore is an in-memory implementation of every persistence port
// in the engine. Transactions clone the dataset, mutate the clone and swap
// it in on success, so a failed workflow leaves no partial state behind.
// It backs tests and the default single-node deployment.
package memstore

import (
	"context"
	"sync"

	"github.com/helios-erp/helios-erp/internal/invoicing"
	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/payments"
	"github.com/helios-erp/helios-erp/internal/payroll"
	"github.com/helios-erp/helios-erp/internal/purchasing"
)

// dataset holds every collection. Rows are stored by value and replaced
// whole on write; nothing mutates a row in place, which is what makes the
// shallow clone in withTx sound.
type dataset struct {
	accounts     map[int64]ledger.Account
	accountCodes map[string]int64
	entries      map[int64]ledger.JournalEntry
	customers    map[int64]invoicing.Customer
	invoices     map[int64]invoicing.Invoice
	estimates    map[int64]invoicing.Estimate
	payments     map[int64]payments.Payment
	employees    map[int64]payroll.Employee
	runs         map[int64]payroll.Run
	vendors      map[int64]purchasing.Vendor
	purchases    map[int64]purchasing.Purchase
	sequences    map[string]int64
	nextID       int64
}

func newDataset() *dataset {
	return &dataset{
		accounts:     make(map[int64]ledger.Account),
		accountCodes: make(map[string]int64),
		entries:      make(map[int64]ledger.JournalEntry),
		customers:    make(map[int64]invoicing.Customer),
		invoices:     make(map[int64]invoicing.Invoice),
		estimates:    make(map[int64]invoicing.Estimate),
		payments:     make(map[int64]payments.Payment),
		employees:    make(map[int64]payroll.Employee),
		runs:         make(map[int64]payroll.Run),
		vendors:      make(map[int64]purchasing.Vendor),
		purchases:    make(map[int64]purchasing.Purchase),
		sequences:    make(map[string]int64),
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		accounts:     make(map[int64]ledger.Account, len(d.accounts)),
		accountCodes: make(map[string]int64, len(d.accountCodes)),
		entries:      make(map[int64]ledger.JournalEntry, len(d.entries)),
		customers:    make(map[int64]invoicing.Customer, len(d.customers)),
		invoices:     make(map[int64]invoicing.Invoice, len(d.invoices)),
		estimates:    make(map[int64]invoicing.Estimate, len(d.estimates)),
		payments:     make(map[int64]payments.Payment, len(d.payments)),
		employees:    make(map[int64]payroll.Employee, len(d.employees)),
		runs:         make(map[int64]payroll.Run, len(d.runs)),
		vendors:      make(map[int64]purchasing.Vendor, len(d.vendors)),
		purchases:    make(map[int64]purchasing.Purchase, len(d.purchases)),
		sequences:    make(map[string]int64, len(d.sequences)),
		nextID:       d.nextID,
	}
	for k, v := range d.accounts {
		c.accounts[k] = v
	}
	for k, v := range d.accountCodes {
		c.accountCodes[k] = v
	}
	for k, v := range d.entries {
		c.entries[k] = v
	}
	for k, v := range d.customers {
		c.customers[k] = v
	}
	for k, v := range d.invoices {
		c.invoices[k] = v
	}
	for k, v := range d.estimates {
		c.estimates[k] = v
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	for k, v := range d.employees {
		c.employees[k] = v
	}
	for k, v := range d.runs {
		c.runs[k] = v
	}
	for k, v := range d.vendors {
		c.vendors[k] = v
	}
	for k, v := range d.purchases {
		c.purchases[k] = v
	}
	for k, v := range d.sequences {
		c.sequences[k] = v
	}
	return c
}

func (d *dataset) nextSeq() int64 {
	d.nextID++
	return d.nextID
}

// Store holds the dataset behind a mutex. Transactions run one at a time,
// which gives the same serializable behaviour the SQL store gets from row
// locks.
type Store struct {
	mu   sync.RWMutex
	data *dataset
}

// New builds an empty store.
func New() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) withTx(ctx context.Context, fn func(context.Context, *tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.data.clone()
	if err := fn(ctx, &tx{data: work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// Ledger exposes the store through the ledger port.
func (s *Store) Ledger() ledger.Store { return ledgerStore{s} }

// Invoicing exposes the store through the invoicing port.
func (s *Store) Invoicing() invoicing.Store { return invoicingStore{s} }

// Payments exposes the store through the payments port.
func (s *Store) Payments() payments.Store { return paymentsStore{s} }

// Payroll exposes the store through the payroll port.
func (s *Store) Payroll() payroll.Store { return payrollStore{s} }

// Purchasing exposes the store through the purchasing port.
func (s *Store) Purchasing() purchasing.Store { return purchasingStore{s} }

// The facade types adapt withTx to each consumer-defined port. They all
// share the same underlying transaction type.

type ledgerStore struct{ s *Store }

func (f ledgerStore) WithTx(ctx context.Context, fn func(context.Context, ledger.Tx) error) error {
	return f.s.withTx(ctx, func(ctx context.Context, t *tx) error { return fn(ctx, t) })
}

type invoicingStore struct{ s *Store }

func (f invoicingStore) WithTx(ctx context.Context, fn func(context.Context, invoicing.Tx) error) error {
	return f.s.withTx(ctx, func(ctx context.Context, t *tx) error { return fn(ctx, t) })
}

type paymentsStore struct{ s *Store }

func (f paymentsStore) WithTx(ctx context.Context, fn func(context.Context, payments.Tx) error) error {
	return f.s.withTx(ctx, func(ctx context.Context, t *tx) error { return fn(ctx, t) })
}

type payrollStore struct{ s *Store }

func (f payrollStore) WithTx(ctx context.Context, fn func(context.Context, payroll.Tx) error) error {
	return f.s.withTx(ctx, func(ctx context.Context, t *tx) error { return fn(ctx, t) })
}

type purchasingStore struct{ s *Store }

func (f purchasingStore) WithTx(ctx context.Context, fn func(context.Context, purchasing.Tx) error) error {
	return f.s.withTx(ctx, func(ctx context.Context, t *tx) error { return fn(ctx, t) })
}
