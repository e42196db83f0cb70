package ledger

import "errors"

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates less than two lines.
	ErrTooFewLines = errors.New("ledger: journal requires at least two lines")
	// ErrDuplicateCode indicates the account code is already taken.
	ErrDuplicateCode = errors.New("ledger: account code already exists")
	// ErrAccountNotFound indicates a missing account.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrCodeNotConfigured indicates a well-known account code has not been
	// provisioned in the chart of accounts. Deployment fault, not user input.
	ErrCodeNotConfigured = errors.New("ledger: account code not configured")
	// ErrAccountHasBalance indicates deactivation of a non-zero account.
	ErrAccountHasBalance = errors.New("ledger: account balance must be zero to deactivate")
	// ErrJournalNotFound indicates a missing entry.
	ErrJournalNotFound = errors.New("ledger: journal entry not found")
	// ErrAlreadyPosted indicates the entry is not in draft.
	ErrAlreadyPosted = errors.New("ledger: journal entry already posted")
	// ErrAlreadyReversed indicates the entry was reversed before.
	ErrAlreadyReversed = errors.New("ledger: journal entry already reversed")
	// ErrNotPosted indicates reversal of a non-posted entry.
	ErrNotPosted = errors.New("ledger: journal entry is not posted")
)
