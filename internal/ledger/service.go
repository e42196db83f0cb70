package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const minorUnitExponent = 2

// Invalidator is notified after balances change so cached reports expire.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service implements the chart of accounts, the posting engine and the
// balance accumulator.
type Service struct {
	store Store
	cache Invalidator
	now   func() time.Time
}

// NewService builds a Service instance. cache may be nil.
func NewService(store Store, cache Invalidator) *Service {
	return &Service{store: store, cache: cache, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Validate ensures posting input meets minimum criteria. Amount comparison
// happens on minor-unit rounded decimals, never on floats.
func (in PostingInput) Validate() error {
	if len(in.Lines) < 2 {
		return ErrTooFewLines
	}
	debit := decimal.Zero
	credit := decimal.Zero
	for idx, line := range in.Lines {
		if line.AccountID == 0 && strings.TrimSpace(line.AccountCode) == "" {
			return fmt.Errorf("ledger: line %d missing account", idx)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("ledger: line %d negative amount", idx)
		}
		debit = debit.Add(line.Debit.Round(minorUnitExponent))
		credit = credit.Add(line.Credit.Round(minorUnitExponent))
	}
	if !debit.Equal(credit) {
		return ErrUnbalanced
	}
	if in.SourceModule == "" {
		return errors.New("ledger: source module required")
	}
	return nil
}

// CreateAccount registers a chart-of-accounts node. Codes are unique across
// active and inactive accounts.
func (s *Service) CreateAccount(ctx context.Context, input CreateAccountInput) (Account, error) {
	if strings.TrimSpace(input.Code) == "" {
		return Account{}, errors.New("ledger: account code required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return Account{}, errors.New("ledger: account name required")
	}
	if !input.Type.Valid() {
		return Account{}, fmt.Errorf("ledger: invalid account type %q", input.Type)
	}
	var created Account
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetAccountByCode(ctx, input.Code); err == nil {
			return ErrDuplicateCode
		} else if !errors.Is(err, ErrAccountNotFound) {
			return err
		}
		now := s.now()
		acc, err := tx.InsertAccount(ctx, Account{
			Code:      input.Code,
			Name:      input.Name,
			Type:      input.Type,
			Subtype:   input.Subtype,
			Balance:   decimal.Zero,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		created = acc
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	return created, nil
}

// GetAccount looks an account up by numeric id or by code.
func (s *Service) GetAccount(ctx context.Context, idOrCode string) (Account, error) {
	var acc Account
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		found, err := tx.GetAccountByCode(ctx, idOrCode)
		if err == nil {
			acc = found
			return nil
		}
		if !errors.Is(err, ErrAccountNotFound) {
			return err
		}
		var id int64
		if _, scanErr := fmt.Sscanf(idOrCode, "%d", &id); scanErr != nil {
			return ErrAccountNotFound
		}
		acc, err = tx.GetAccount(ctx, id)
		return err
	})
	if err != nil {
		return Account{}, err
	}
	return acc, nil
}

// ListAccounts returns the chart of accounts ordered by code.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		accounts, err = tx.ListAccounts(ctx)
		return err
	})
	return accounts, err
}

// DeactivateAccount soft-deletes an account. Policy: the balance must be
// zero; accounts referenced by journal entries are never hard-deleted.
func (s *Service) DeactivateAccount(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		acc, err := tx.GetAccountForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !acc.Balance.IsZero() {
			return ErrAccountHasBalance
		}
		return tx.SetAccountActive(ctx, id, false)
	})
}

// CreateDraft stores an entry in DRAFT status without touching balances.
func (s *Service) CreateDraft(ctx context.Context, input PostingInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		entry, err = insertEntry(ctx, tx, input, JournalStatusDraft, s.now())
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// Post transitions a draft entry to POSTED and applies balance deltas for
// every referenced account within the same transaction.
func (s *Service) Post(ctx context.Context, entryID int64) (JournalEntry, error) {
	var entry JournalEntry
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		entry, err = PostDraftTx(ctx, tx, entryID, s.now())
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.bump(ctx)
	return entry, nil
}

// PostDirect creates and posts an entry atomically. This is the path used by
// all subledger workflows, which synthesize already-balanced entries.
func (s *Service) PostDirect(ctx context.Context, input PostingInput) (JournalEntry, error) {
	var entry JournalEntry
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		entry, err = PostEntryTx(ctx, tx, input, s.now())
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.bump(ctx)
	return entry, nil
}

// Reverse creates and posts a new entry with debit/credit swapped on every
// line and marks the original REVERSED. The original is never deleted.
func (s *Service) Reverse(ctx context.Context, entryID int64, actor string) (JournalEntry, error) {
	var reversal JournalEntry
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		reversal, err = ReverseEntryTx(ctx, tx, entryID, actor, s.now())
		return err
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.bump(ctx)
	return reversal, nil
}

// GetJournalEntry fetches one entry with lines.
func (s *Service) GetJournalEntry(ctx context.Context, id int64) (JournalEntry, error) {
	var entry JournalEntry
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		entry, err = tx.GetJournalEntry(ctx, id)
		return err
	})
	return entry, err
}

// ListJournalEntries returns entries matching the filter.
func (s *Service) ListJournalEntries(ctx context.Context, filter JournalFilter) ([]JournalEntry, error) {
	var entries []JournalEntry
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		entries, err = tx.ListJournalEntries(ctx, filter)
		return err
	})
	return entries, err
}

// Recompute replays every posted line touching the account and writes the
// result back. The incremental accumulator must always agree with this.
func (s *Service) Recompute(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	balance := decimal.Zero
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		acc, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		entries, err := tx.ListJournalEntries(ctx, JournalFilter{AccountID: accountID})
		if err != nil {
			return err
		}
		for _, entry := range entries {
			// A reversed entry stays in the fold; the reversal entry that
			// negated it is posted alongside. Only drafts never applied.
			if entry.Status == JournalStatusDraft {
				continue
			}
			for _, line := range entry.Lines {
				if line.AccountID != accountID {
					continue
				}
				balance = balance.Add(line.BalanceDelta(acc.Type))
			}
		}
		return tx.UpdateAccountBalance(ctx, accountID, balance)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// SeedChart provisions any missing accounts from the given chart. Existing
// codes are left untouched so re-running at startup is safe.
func (s *Service) SeedChart(ctx context.Context, chart []CreateAccountInput) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		for _, input := range chart {
			if _, err := tx.GetAccountByCode(ctx, input.Code); err == nil {
				continue
			} else if !errors.Is(err, ErrAccountNotFound) {
				return err
			}
			now := s.now()
			if _, err := tx.InsertAccount(ctx, Account{
				Code:      input.Code,
				Name:      input.Name,
				Type:      input.Type,
				Subtype:   input.Subtype,
				Balance:   decimal.Zero,
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}

// ResolveCode finds the account behind a well-known code. A miss is a
// configuration fault (ErrCodeNotConfigured), not a lookup failure.
func ResolveCode(ctx context.Context, tx Tx, code string) (Account, error) {
	acc, err := tx.GetAccountByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Account{}, fmt.Errorf("%w: %s", ErrCodeNotConfigured, code)
		}
		return Account{}, err
	}
	return acc, nil
}

// PostEntryTx validates, inserts and posts an entry inside the caller's
// transaction. Workflows call this so subledger rows, the journal entry and
// all balance updates commit or roll back together.
func PostEntryTx(ctx context.Context, tx Tx, input PostingInput, now time.Time) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	entry, err := insertEntry(ctx, tx, input, JournalStatusPosted, now)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := applyLines(ctx, tx, entry.Lines, now); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// PostDraftTx posts a previously created draft entry.
func PostDraftTx(ctx context.Context, tx Tx, entryID int64, now time.Time) (JournalEntry, error) {
	entry, err := tx.GetJournalEntry(ctx, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	if entry.Status != JournalStatusDraft {
		return JournalEntry{}, ErrAlreadyPosted
	}
	input := PostingInput{
		SourceModule: entry.SourceModule,
		Lines:        linesToInputs(entry.Lines),
	}
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	if err := tx.UpdateJournalStatus(ctx, entryID, JournalStatusPosted, nil, &now); err != nil {
		return JournalEntry{}, err
	}
	if err := applyLines(ctx, tx, entry.Lines, now); err != nil {
		return JournalEntry{}, err
	}
	entry.Status = JournalStatusPosted
	entry.PostedAt = &now
	return entry, nil
}

// ReverseEntryTx posts the inverse of a posted entry and marks the original
// REVERSED, inside the caller's transaction.
func ReverseEntryTx(ctx context.Context, tx Tx, entryID int64, actor string, now time.Time) (JournalEntry, error) {
	original, err := tx.GetJournalEntry(ctx, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	switch original.Status {
	case JournalStatusPosted:
	case JournalStatusReversed:
		return JournalEntry{}, ErrAlreadyReversed
	default:
		return JournalEntry{}, ErrNotPosted
	}
	input := PostingInput{
		Date:         original.Date,
		Reference:    original.Reference,
		Memo:         fmt.Sprintf("Reversal of %s", original.Number),
		SourceModule: original.SourceModule + ":REVERSAL",
		SourceID:     uuid.New(),
		CreatedBy:    actor,
		Lines:        reverseLines(original.Lines),
	}
	reversal, err := PostEntryTx(ctx, tx, input, now)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := tx.UpdateJournalStatus(ctx, original.ID, JournalStatusReversed, &reversal.ID, nil); err != nil {
		return JournalEntry{}, err
	}
	reversal.ReversalOf = &original.ID
	return reversal, nil
}

func insertEntry(ctx context.Context, tx Tx, input PostingInput, status JournalStatus, now time.Time) (JournalEntry, error) {
	seq, err := tx.NextSequence(ctx, "journal_entry")
	if err != nil {
		return JournalEntry{}, err
	}
	lines := make([]JournalLine, 0, len(input.Lines))
	for _, in := range input.Lines {
		acc, err := resolveLineAccount(ctx, tx, in)
		if err != nil {
			return JournalEntry{}, err
		}
		lines = append(lines, JournalLine{
			AccountID:   acc.ID,
			AccountCode: acc.Code,
			AccountName: acc.Name,
			Debit:       in.Debit.Round(minorUnitExponent),
			Credit:      in.Credit.Round(minorUnitExponent),
			Memo:        in.Memo,
		})
	}
	entry := JournalEntry{
		Number:       fmt.Sprintf("JE-%06d", seq),
		Date:         input.Date,
		Reference:    input.Reference,
		Memo:         input.Memo,
		SourceModule: input.SourceModule,
		SourceID:     input.SourceID,
		CreatedBy:    input.CreatedBy,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
		Lines:        lines,
	}
	if status == JournalStatusPosted {
		entry.PostedAt = &now
	}
	return tx.InsertJournalEntry(ctx, entry)
}

func resolveLineAccount(ctx context.Context, tx Tx, in LineInput) (Account, error) {
	if in.AccountID != 0 {
		return tx.GetAccount(ctx, in.AccountID)
	}
	return ResolveCode(ctx, tx, in.AccountCode)
}

// applyLines is the incremental balance accumulator. Accounts are locked and
// updated one line at a time so concurrent postings serialize per account.
func applyLines(ctx context.Context, tx Tx, lines []JournalLine, now time.Time) error {
	for _, line := range lines {
		acc, err := tx.GetAccountForUpdate(ctx, line.AccountID)
		if err != nil {
			return err
		}
		next := acc.Balance.Add(line.BalanceDelta(acc.Type))
		if err := tx.UpdateAccountBalance(ctx, acc.ID, next); err != nil {
			return err
		}
	}
	return nil
}

func reverseLines(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID: line.AccountID,
			Debit:     line.Credit,
			Credit:    line.Debit,
			Memo:      line.Memo,
		})
	}
	return out
}

func linesToInputs(lines []JournalLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
			Memo:      line.Memo,
		})
	}
	return out
}
