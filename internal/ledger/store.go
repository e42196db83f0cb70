package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Tx exposes ledger storage operations inside one transaction. Subledger
// workflow transactions embed this interface so they can post journal
// entries atomically with their own records.
type Tx interface {
	InsertAccount(ctx context.Context, acc Account) (Account, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	GetAccountByCode(ctx context.Context, code string) (Account, error)
	// GetAccountForUpdate locks the account row for the balance update.
	GetAccountForUpdate(ctx context.Context, id int64) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	UpdateAccountBalance(ctx context.Context, id int64, balance decimal.Decimal) error
	SetAccountActive(ctx context.Context, id int64, active bool) error

	InsertJournalEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	GetJournalEntry(ctx context.Context, id int64) (JournalEntry, error)
	// UpdateJournalStatus transitions an entry. A non-nil postedAt is
	// persisted so posted-from-draft entries carry a posting timestamp.
	UpdateJournalStatus(ctx context.Context, id int64, status JournalStatus, reversedBy *int64, postedAt *time.Time) error
	ListJournalEntries(ctx context.Context, filter JournalFilter) ([]JournalEntry, error)

	// NextSequence atomically increments and returns the named counter.
	// Record numbering must come from here, never from count+1.
	NextSequence(ctx context.Context, scope string) (int64, error)
}

// Store is the ledger's persistence port. All reads and writes run inside
// WithTx; either everything inside fn becomes visible or nothing does.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}
