package reporting

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/helios-erp/helios-erp/internal/ledger"
)

const dateKeyLayout = "2006-01-02"

// Service serves the report suite. cache may be nil, in which case every
// call hits the repository. Concurrent identical requests collapse into one
// repository round trip.
type Service struct {
	repo  Repository
	cache *Cache
	codes ledger.CodeSet
	group singleflight.Group
}

// NewService builds a Service instance.
func NewService(repo Repository, cache *Cache, codes ledger.CodeSet) *Service {
	return &Service{repo: repo, cache: cache, codes: codes}
}

// ProfitAndLoss returns the income statement for [from, to].
func (s *Service) ProfitAndLoss(ctx context.Context, from, to time.Time) (ProfitAndLoss, error) {
	var out ProfitAndLoss
	err := s.fetch(ctx, keyFor("pl", from, to), &out, func(ctx context.Context) (interface{}, error) {
		accounts, err := s.repo.AccountBalances(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return BuildProfitAndLoss(accounts), nil
	})
	return out, err
}

// BalanceSheet returns the statement of financial position as of a date.
func (s *Service) BalanceSheet(ctx context.Context, asOf time.Time) (BalanceSheet, error) {
	var out BalanceSheet
	err := s.fetch(ctx, keyFor("bs", time.Time{}, asOf), &out, func(ctx context.Context) (interface{}, error) {
		accounts, err := s.repo.AccountBalances(ctx, time.Time{}, asOf)
		if err != nil {
			return nil, err
		}
		return BuildBalanceSheet(accounts), nil
	})
	return out, err
}

// CashFlow returns the indirect-method cash flow statement for [from, to].
func (s *Service) CashFlow(ctx context.Context, from, to time.Time) (CashFlow, error) {
	var out CashFlow
	err := s.fetch(ctx, keyFor("cashflow", from, to), &out, func(ctx context.Context) (interface{}, error) {
		accounts, err := s.repo.AccountBalances(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return BuildCashFlow(accounts, s.codes), nil
	})
	return out, err
}

// ARAging returns receivables aging as of a date.
func (s *Service) ARAging(ctx context.Context, asOf time.Time) (ARAging, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC().Truncate(24 * time.Hour)
	}
	var out ARAging
	err := s.fetch(ctx, keyFor("aging_ar", time.Time{}, asOf), &out, func(ctx context.Context) (interface{}, error) {
		invoices, err := s.repo.OpenInvoices(ctx, asOf)
		if err != nil {
			return nil, err
		}
		return BuildARAging(invoices, asOf), nil
	})
	return out, err
}

// TrialBalance returns the trial balance as of a date.
func (s *Service) TrialBalance(ctx context.Context, asOf time.Time) (TrialBalance, error) {
	var out TrialBalance
	err := s.fetch(ctx, keyFor("tb", time.Time{}, asOf), &out, func(ctx context.Context) (interface{}, error) {
		accounts, err := s.repo.AccountBalances(ctx, time.Time{}, asOf)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(accounts), nil
	})
	return out, err
}

// VATReturn returns the VAT filing summary for [from, to].
func (s *Service) VATReturn(ctx context.Context, from, to time.Time) (VATReturn, error) {
	var out VATReturn
	err := s.fetch(ctx, keyFor("vat", from, to), &out, func(ctx context.Context) (interface{}, error) {
		accounts, err := s.repo.AccountBalances(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return BuildVATReturn(accounts, s.codes, from, to), nil
	})
	return out, err
}

// fetch collapses concurrent identical requests and shares the decoded
// payload between them, so dest is only written from the JSON round trip.
func (s *Service) fetch(ctx context.Context, keyBase string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	key, err := s.cache.BuildKey(ctx, keyBase)
	if err != nil {
		return err
	}
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		var payload json.RawMessage
		if err := s.cache.FetchJSON(ctx, key, &payload, loader); err != nil {
			return nil, err
		}
		return payload, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.(json.RawMessage), dest)
}

func keyFor(report string, from, to time.Time) string {
	fromPart := "-"
	if !from.IsZero() {
		fromPart = from.Format(dateKeyLayout)
	}
	toPart := "-"
	if !to.IsZero() {
		toPart = to.Format(dateKeyLayout)
	}
	return "reports:" + report + ":" + fromPart + ":" + toPart
}
