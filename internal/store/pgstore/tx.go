package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/payments"
	"github.com/helios-erp/helios-erp/internal/payroll"
	"github.com/helios-erp/helios-erp/internal/purchasing"
)

const uniqueViolation = "23505"

// tx satisfies every domain transaction port over one pgx transaction.
type tx struct {
	q pgx.Tx
}

var _ payments.Tx = (*tx)(nil)
var _ payroll.Tx = (*tx)(nil)
var _ purchasing.Tx = (*tx)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ledger

func (t *tx) InsertAccount(ctx context.Context, acc ledger.Account) (ledger.Account, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO accounts (code, name, type, subtype, balance, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		acc.Code, acc.Name, acc.Type, acc.Subtype, acc.Balance, acc.IsActive, acc.CreatedAt, acc.UpdatedAt,
	).Scan(&acc.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.Account{}, ledger.ErrDuplicateCode
		}
		return ledger.Account{}, fmt.Errorf("pgstore: insert account: %w", err)
	}
	return acc, nil
}

const accountColumns = `id, code, name, type, subtype, balance, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var acc ledger.Account
	err := row.Scan(&acc.ID, &acc.Code, &acc.Name, &acc.Type, &acc.Subtype,
		&acc.Balance, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	if err != nil {
		return ledger.Account{}, fmt.Errorf("pgstore: scan account: %w", err)
	}
	return acc, nil
}

func (t *tx) GetAccount(ctx context.Context, id int64) (ledger.Account, error) {
	return scanAccount(t.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (t *tx) GetAccountByCode(ctx context.Context, code string) (ledger.Account, error) {
	return scanAccount(t.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE code = $1`, code))
}

func (t *tx) GetAccountForUpdate(ctx context.Context, id int64) (ledger.Account, error) {
	return scanAccount(t.q.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
}

func (t *tx) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := t.q.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list accounts: %w", err)
	}
	defer rows.Close()
	var out []ledger.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (t *tx) UpdateAccountBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE accounts SET balance = $2, updated_at = NOW() WHERE id = $1`, id, balance)
	if err != nil {
		return fmt.Errorf("pgstore: update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (t *tx) SetAccountActive(ctx context.Context, id int64, active bool) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE accounts SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("pgstore: set account active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (t *tx) InsertJournalEntry(ctx context.Context, entry ledger.JournalEntry) (ledger.JournalEntry, error) {
	err := t.q.QueryRow(ctx, `
		INSERT INTO journal_entries (
			number, date, reference, memo, source_module, source_id, created_by,
			status, reversal_of, reversed_by, posted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		entry.Number, entry.Date, entry.Reference, entry.Memo, entry.SourceModule,
		entry.SourceID, entry.CreatedBy, entry.Status, entry.ReversalOf,
		entry.ReversedBy, entry.PostedAt, entry.CreatedAt, entry.UpdatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return ledger.JournalEntry{}, fmt.Errorf("pgstore: insert journal entry: %w", err)
	}
	for i := range entry.Lines {
		entry.Lines[i].JournalID = entry.ID
		err := t.q.QueryRow(ctx, `
			INSERT INTO journal_lines (journal_id, account_id, account_code, account_name, debit, credit, memo)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			entry.ID, entry.Lines[i].AccountID, entry.Lines[i].AccountCode,
			entry.Lines[i].AccountName, entry.Lines[i].Debit, entry.Lines[i].Credit,
			entry.Lines[i].Memo,
		).Scan(&entry.Lines[i].ID)
		if err != nil {
			return ledger.JournalEntry{}, fmt.Errorf("pgstore: insert journal line: %w", err)
		}
	}
	return entry, nil
}

const entryColumns = `id, number, date, reference, memo, source_module, source_id,
	created_by, status, reversal_of, reversed_by, posted_at, created_at, updated_at`

func scanEntry(row pgx.Row) (ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	err := row.Scan(&e.ID, &e.Number, &e.Date, &e.Reference, &e.Memo,
		&e.SourceModule, &e.SourceID, &e.CreatedBy, &e.Status,
		&e.ReversalOf, &e.ReversedBy, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.JournalEntry{}, ledger.ErrJournalNotFound
	}
	if err != nil {
		return ledger.JournalEntry{}, fmt.Errorf("pgstore: scan journal entry: %w", err)
	}
	return e, nil
}

func (t *tx) loadLines(ctx context.Context, entryIDs []int64) (map[int64][]ledger.JournalLine, error) {
	rows, err := t.q.Query(ctx, `
		SELECT id, journal_id, account_id, account_code, account_name, debit, credit, memo
		FROM journal_lines WHERE journal_id = ANY($1) ORDER BY id`, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("pgstore: load journal lines: %w", err)
	}
	defer rows.Close()
	out := make(map[int64][]ledger.JournalLine)
	for rows.Next() {
		var l ledger.JournalLine
		if err := rows.Scan(&l.ID, &l.JournalID, &l.AccountID, &l.AccountCode,
			&l.AccountName, &l.Debit, &l.Credit, &l.Memo); err != nil {
			return nil, fmt.Errorf("pgstore: scan journal line: %w", err)
		}
		out[l.JournalID] = append(out[l.JournalID], l)
	}
	return out, rows.Err()
}

func (t *tx) GetJournalEntry(ctx context.Context, id int64) (ledger.JournalEntry, error) {
	entry, err := scanEntry(t.q.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE id = $1`, id))
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	lines, err := t.loadLines(ctx, []int64{entry.ID})
	if err != nil {
		return ledger.JournalEntry{}, err
	}
	entry.Lines = lines[entry.ID]
	return entry, nil
}

func (t *tx) UpdateJournalStatus(ctx context.Context, id int64, status ledger.JournalStatus, reversedBy *int64, postedAt *time.Time) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE journal_entries
		SET status = $2, reversed_by = COALESCE($3, reversed_by),
			posted_at = COALESCE($4, posted_at), updated_at = NOW()
		WHERE id = $1`, id, status, reversedBy, postedAt)
	if err != nil {
		return fmt.Errorf("pgstore: update journal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrJournalNotFound
	}
	return nil
}

func (t *tx) ListJournalEntries(ctx context.Context, filter ledger.JournalFilter) ([]ledger.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE 1=1`
	args := make([]interface{}, 0, 5)
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.SourceModule != "" {
		args = append(args, filter.SourceModule)
		query += fmt.Sprintf(" AND source_module = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	if filter.AccountID != 0 {
		args = append(args, filter.AccountID)
		query += fmt.Sprintf(" AND id IN (SELECT journal_id FROM journal_lines WHERE account_id = $%d)", len(args))
	}
	query += " ORDER BY id"

	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list journal entries: %w", err)
	}
	defer rows.Close()
	var out []ledger.JournalEntry
	var ids []int64
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
		ids = append(ids, entry.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}
	lines, err := t.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Lines = lines[out[i].ID]
	}
	return out, nil
}

func (t *tx) NextSequence(ctx context.Context, scope string) (int64, error) {
	var value int64
	err := t.q.QueryRow(ctx, `
		INSERT INTO sequences (scope, value) VALUES ($1, 1)
		ON CONFLICT (scope) DO UPDATE SET value = sequences.value + 1
		RETURNING value`, scope).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("pgstore: next sequence: %w", err)
	}
	return value, nil
}
