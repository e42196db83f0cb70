// Package pgstore is the PostgreSQL implementation of every persistence
// port in the engine, built on pgx. All workflow writes run inside a
// repeatable-read transaction; account and party rows are locked with
// SELECT ... FOR UPDATE before their balances move.
package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helios-erp/helios-erp/internal/invoicing"
	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/payments"
	"github.com/helios-erp/helios-erp/internal/payroll"
	"github.com/helios-erp/helios-erp/internal/platform/db"
	"github.com/helios-erp/helios-erp/internal/purchasing"
)

// Store wraps the connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New builds a store over an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) withTx(ctx context.Context, fn func(context.Context, *tx) error) error {
	return db.WithTx(ctx, s.pool, func(pgtx pgx.Tx) error {
		return fn(ctx, &tx{q: pgtx})
	})
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
