package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/store/memstore"
)

func newLedger(t *testing.T) (*ledger.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := ledger.NewService(store.Ledger(), nil)
	require.NoError(t, svc.SeedChart(context.Background(), ledger.DefaultChart()))
	return svc, store
}

func balance(t *testing.T, svc *ledger.Service, code string) decimal.Decimal {
	t.Helper()
	acc, err := svc.GetAccount(context.Background(), code)
	require.NoError(t, err)
	return acc.Balance
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateAccountRejectsDuplicateCode(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, ledger.CreateAccountInput{
		Code: "7000", Name: "Consulting Revenue", Type: ledger.AccountTypeRevenue,
	})
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, ledger.CreateAccountInput{
		Code: "7000", Name: "Again", Type: ledger.AccountTypeRevenue,
	})
	require.ErrorIs(t, err, ledger.ErrDuplicateCode)
}

func TestCreateAccountRejectsInvalidType(t *testing.T) {
	svc, _ := newLedger(t)
	_, err := svc.CreateAccount(context.Background(), ledger.CreateAccountInput{
		Code: "9999", Name: "Mystery", Type: ledger.AccountType("CONTRA"),
	})
	require.Error(t, err)
}

func TestPostDirectAppliesSignConvention(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	_, err := svc.PostDirect(ctx, ledger.PostingInput{
		SourceModule: "manual",
		Lines: []ledger.LineInput{
			{AccountCode: "1000", Debit: dec("500")},
			{AccountCode: "4000", Credit: dec("500")},
		},
	})
	require.NoError(t, err)

	// Debit-normal asset and credit-normal revenue both move positive.
	require.True(t, balance(t, svc, "1000").Equal(dec("500")))
	require.True(t, balance(t, svc, "4000").Equal(dec("500")))
}

func TestPostDirectRejectsUnbalanced(t *testing.T) {
	svc, _ := newLedger(t)
	_, err := svc.PostDirect(context.Background(), ledger.PostingInput{
		SourceModule: "manual",
		Lines: []ledger.LineInput{
			{AccountCode: "1000", Debit: dec("500")},
			{AccountCode: "4000", Credit: dec("499.99")},
		},
	})
	require.ErrorIs(t, err, ledger.ErrUnbalanced)
}

func TestPostDirectRejectsSingleLine(t *testing.T) {
	svc, _ := newLedger(t)
	_, err := svc.PostDirect(context.Background(), ledger.PostingInput{
		SourceModule: "manual",
		Lines:        []ledger.LineInput{{AccountCode: "1000", Debit: decimal.Zero}},
	})
	require.ErrorIs(t, err, ledger.ErrTooFewLines)
}

func TestPostDirectRejectsUnknownCode(t *testing.T) {
	svc, _ := newLedger(t)
	_, err := svc.PostDirect(context.Background(), ledger.PostingInput{
		SourceModule: "manual",
		Lines: []ledger.LineInput{
			{AccountCode: "1000", Debit: dec("10")},
			{AccountCode: "8888", Credit: dec("10")},
		},
	})
	require.ErrorIs(t, err, ledger.ErrCodeNotConfigured)
}

func TestDraftThenPost(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, ledger.PostingInput{
		SourceModule: "manual",
		Lines: []ledger.LineInput{
			{AccountCode: "6200", Debit: dec("1200")},
			{AccountCode: "1000", Credit: dec("1200")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, ledger.JournalStatusDraft, draft.Status)

	// Drafts never touch balances.
	require.True(t, balance(t, svc, "6200").IsZero())

	posted, err := svc.Post(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, ledger.JournalStatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)
	require.True(t, balance(t, svc, "6200").Equal(dec("1200")))
	require.True(t, balance(t, svc, "1000").Equal(dec("-1200")))

	// The timestamp must survive the store, not just the returned value.
	reread, err := svc.GetJournalEntry(ctx, draft.ID)
	require.NoError(t, err)
	require.NotNil(t, reread.PostedAt)

	_, err = svc.Post(ctx, draft.ID)
	require.ErrorIs(t, err, ledger.ErrAlreadyPosted)
}

func TestReverseRestoresBalances(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	entry, err := svc.PostDirect(ctx, ledger.PostingInput{
		SourceModule: "manual",
		Lines: []ledger.LineInput{
			{AccountCode: "1100", Debit: dec("900")},
			{AccountCode: "4000", Credit: dec("900")},
		},
	})
	require.NoError(t, err)

	reversal, err := svc.Reverse(ctx, entry.ID, "auditor")
	require.NoError(t, err)
	require.Equal(t, ledger.JournalStatusPosted, reversal.Status)
	require.NotNil(t, reversal.ReversalOf)
	require.Equal(t, entry.ID, *reversal.ReversalOf)

	require.True(t, balance(t, svc, "1100").IsZero())
	require.True(t, balance(t, svc, "4000").IsZero())

	original, err := svc.GetJournalEntry(ctx, entry.ID)
	require.NoError(t, err)
	require.Equal(t, ledger.JournalStatusReversed, original.Status)

	_, err = svc.Reverse(ctx, entry.ID, "auditor")
	require.ErrorIs(t, err, ledger.ErrAlreadyReversed)
}

func TestReverseRejectsDraft(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, ledger.PostingInput{
		SourceModule: "manual",
		Lines: []ledger.LineInput{
			{AccountCode: "1000", Debit: dec("10")},
			{AccountCode: "4000", Credit: dec("10")},
		},
	})
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, draft.ID, "auditor")
	require.ErrorIs(t, err, ledger.ErrNotPosted)
}

func TestRecomputeMatchesIncrementalBalance(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	first, err := svc.PostDirect(ctx, ledger.PostingInput{
		SourceModule: "manual",
		Lines: []ledger.LineInput{
			{AccountCode: "1000", Debit: dec("300")},
			{AccountCode: "4000", Credit: dec("300")},
		},
	})
	require.NoError(t, err)

	_, err = svc.PostDirect(ctx, ledger.PostingInput{
		SourceModule: "manual",
		Lines: []ledger.LineInput{
			{AccountCode: "1000", Debit: dec("200")},
			{AccountCode: "4000", Credit: dec("200")},
		},
	})
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, first.ID, "auditor")
	require.NoError(t, err)

	cash, err := svc.GetAccount(ctx, "1000")
	require.NoError(t, err)
	require.True(t, cash.Balance.Equal(dec("200")))

	// Replaying reversed and posted entries must agree with the accumulator.
	replayed, err := svc.Recompute(ctx, cash.ID)
	require.NoError(t, err)
	require.True(t, replayed.Equal(cash.Balance), "replayed %s stored %s", replayed, cash.Balance)
}

func TestDeactivateAccountRequiresZeroBalance(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	_, err := svc.PostDirect(ctx, ledger.PostingInput{
		SourceModule: "manual",
		Lines: []ledger.LineInput{
			{AccountCode: "1000", Debit: dec("50")},
			{AccountCode: "4000", Credit: dec("50")},
		},
	})
	require.NoError(t, err)

	cash, err := svc.GetAccount(ctx, "1000")
	require.NoError(t, err)
	require.ErrorIs(t, svc.DeactivateAccount(ctx, cash.ID), ledger.ErrAccountHasBalance)

	idle, err := svc.GetAccount(ctx, "6300")
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateAccount(ctx, idle.ID))

	refreshed, err := svc.GetAccount(ctx, "6300")
	require.NoError(t, err)
	require.False(t, refreshed.IsActive)
}

func TestSeedChartIsIdempotent(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	require.NoError(t, svc.SeedChart(ctx, ledger.DefaultChart()))

	accounts, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, len(ledger.DefaultChart()))
}

func TestListJournalEntriesFilters(t *testing.T) {
	svc, _ := newLedger(t)
	ctx := context.Background()

	_, err := svc.PostDirect(ctx, ledger.PostingInput{
		SourceModule: "manual",
		Lines: []ledger.LineInput{
			{AccountCode: "1000", Debit: dec("75")},
			{AccountCode: "4000", Credit: dec("75")},
		},
	})
	require.NoError(t, err)

	posted, err := svc.ListJournalEntries(ctx, ledger.JournalFilter{Status: ledger.JournalStatusPosted})
	require.NoError(t, err)
	require.Len(t, posted, 1)

	none, err := svc.ListJournalEntries(ctx, ledger.JournalFilter{SourceModule: "payroll"})
	require.NoError(t, err)
	require.Empty(t, none)
}
