package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/tax"
)

const sourceModule = "payroll"

// Service implements the payroll workflow against jurisdiction tax tables.
type Service struct {
	store  Store
	codes  ledger.CodeSet
	tables tax.Tables
	cache  ledger.Invalidator
	now    func() time.Time
}

// NewService builds a Service instance.
func NewService(store Store, codes ledger.CodeSet, tables tax.Tables) *Service {
	return &Service{store: store, codes: codes, tables: tables, now: time.Now}
}

// WithInvalidator wires the report cache invalidation hook.
func (s *Service) WithInvalidator(cache ledger.Invalidator) {
	s.cache = cache
}

func (s *Service) bump(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Bump(ctx)
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateEmployee registers an active employee.
func (s *Service) CreateEmployee(ctx context.Context, input CreateEmployeeInput) (Employee, error) {
	if input.Name == "" {
		return Employee{}, errors.New("payroll: employee name required")
	}
	if input.Salary.IsNegative() {
		return Employee{}, errors.New("payroll: salary must be non-negative")
	}
	var employee Employee
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		now := s.now()
		var err error
		employee, err = tx.InsertEmployee(ctx, Employee{
			Name:      input.Name,
			Email:     input.Email,
			Salary:    input.Salary,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		return Employee{}, err
	}
	return employee, nil
}

// GetEmployee fetches one employee.
func (s *Service) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	var employee Employee
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		employee, err = tx.GetEmployee(ctx, id)
		return err
	})
	return employee, err
}

// ListEmployees returns employees, active only when requested.
func (s *Service) ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error) {
	var out []Employee
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListEmployees(ctx, activeOnly)
		return err
	})
	return out, err
}

// UpdateSalary changes an employee's gross salary going forward. Processed
// runs keep the amounts they were computed with.
func (s *Service) UpdateSalary(ctx context.Context, id int64, salary decimal.Decimal) (Employee, error) {
	if salary.IsNegative() {
		return Employee{}, errors.New("payroll: salary must be non-negative")
	}
	var employee Employee
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		e, err := tx.GetEmployee(ctx, id)
		if err != nil {
			return err
		}
		e.Salary = salary
		e.UpdatedAt = s.now()
		if err := tx.UpdateEmployee(ctx, e); err != nil {
			return err
		}
		employee = e
		return nil
	})
	if err != nil {
		return Employee{}, err
	}
	return employee, nil
}

// DeactivateEmployee excludes an employee from future runs.
func (s *Service) DeactivateEmployee(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		e, err := tx.GetEmployee(ctx, id)
		if err != nil {
			return err
		}
		e.IsActive = false
		e.UpdatedAt = s.now()
		return tx.UpdateEmployee(ctx, e)
	})
}

// CreateRun computes payslips for all active employees and stores a DRAFT
// run for the period. Amounts are fixed at creation; salary changes after
// this point do not affect the run.
func (s *Service) CreateRun(ctx context.Context, input ProcessRunInput) (Run, error) {
	if _, err := time.Parse("2006-01", input.Period); err != nil {
		return Run{}, fmt.Errorf("payroll: period must be YYYY-MM: %w", err)
	}
	var run Run
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetRunByPeriod(ctx, input.Period); err == nil {
			return ErrDuplicatePeriod
		} else if !errors.Is(err, ErrRunNotFound) {
			return err
		}
		employees, err := tx.ListEmployees(ctx, true)
		if err != nil {
			return err
		}
		if len(employees) == 0 {
			return ErrNoEmployees
		}

		now := s.now()
		seq, err := tx.NextSequence(ctx, "payroll_run")
		if err != nil {
			return err
		}
		run = Run{
			Number:      fmt.Sprintf("RUN-%06d", seq),
			SourceRef:   uuid.New(),
			Period:      input.Period,
			Status:      RunStatusDraft,
			TotalGross:  decimal.Zero,
			TotalPAYE:   decimal.Zero,
			TotalSocial: decimal.Zero,
			TotalHealth: decimal.Zero,
			TotalNet:    decimal.Zero,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		for _, e := range employees {
			slip := s.computePayslip(e)
			run.Payslips = append(run.Payslips, slip)
			run.TotalGross = run.TotalGross.Add(slip.Gross)
			run.TotalPAYE = run.TotalPAYE.Add(slip.PAYE)
			run.TotalSocial = run.TotalSocial.Add(slip.Social)
			run.TotalHealth = run.TotalHealth.Add(slip.Health)
			run.TotalNet = run.TotalNet.Add(slip.Net)
		}
		run, err = tx.InsertRun(ctx, run)
		return err
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ProcessRun posts the aggregate journal entry for a DRAFT run and marks it
// PROCESSED. The salary expense is recognized in full; the deductions sit in
// payable accounts until remitted to the authorities.
func (s *Service) ProcessRun(ctx context.Context, runID int64, createdBy string) (Run, error) {
	var run Run
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		r, err := tx.GetRunForUpdate(ctx, runID)
		if err != nil {
			return err
		}
		if r.Status != RunStatusDraft {
			return ErrInvalidState
		}
		now := s.now()
		r.Status = RunStatusProcessing
		r.UpdatedAt = now
		if err := tx.UpdateRun(ctx, r); err != nil {
			return err
		}

		lines := []ledger.LineInput{
			{AccountCode: s.codes.SalariesExpense, Debit: r.TotalGross, Memo: r.Number},
		}
		for _, credit := range []struct {
			code   string
			amount decimal.Decimal
		}{
			{s.codes.PAYEPayable, r.TotalPAYE},
			{s.codes.SocialPayable, r.TotalSocial},
			{s.codes.HealthPayable, r.TotalHealth},
			{s.codes.Cash, r.TotalNet},
		} {
			if credit.amount.IsPositive() {
				lines = append(lines, ledger.LineInput{
					AccountCode: credit.code, Credit: credit.amount, Memo: r.Number,
				})
			}
		}
		entry, err := ledger.PostEntryTx(ctx, tx, ledger.PostingInput{
			Date:         now,
			Reference:    r.Number,
			Memo:         fmt.Sprintf("Payroll %s", r.Period),
			SourceModule: sourceModule,
			SourceID:     r.SourceRef,
			CreatedBy:    createdBy,
			Lines:        lines,
		}, now)
		if err != nil {
			return err
		}

		r.Status = RunStatusProcessed
		r.JournalEntryID = entry.ID
		r.ProcessedAt = &now
		r.UpdatedAt = now
		if err := tx.UpdateRun(ctx, r); err != nil {
			return err
		}
		run = r
		return nil
	})
	if err != nil {
		return Run{}, err
	}
	s.bump(ctx)
	return run, nil
}

// GetRun fetches one run with payslips.
func (s *Service) GetRun(ctx context.Context, id int64) (Run, error) {
	var run Run
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		run, err = tx.GetRun(ctx, id)
		return err
	})
	return run, err
}

// ListRuns returns all payroll runs.
func (s *Service) ListRuns(ctx context.Context) ([]Run, error) {
	var out []Run
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListRuns(ctx)
		return err
	})
	return out, err
}

func (s *Service) computePayslip(e Employee) Payslip {
	exp := s.tables.Exponent()
	gross := e.Salary.Round(exp)
	paye := tax.Progressive(gross, s.tables.PAYE.Brackets, s.tables.PAYE.Relief, exp)
	social := tax.CappedPercentage(gross, s.tables.SocialSecurity.Rate, s.tables.SocialSecurity.Cap, exp)
	health := tax.BracketedFlat(gross, s.tables.HealthBands)
	net := gross.Sub(paye).Sub(social).Sub(health)
	return Payslip{
		EmployeeID:   e.ID,
		EmployeeName: e.Name,
		Gross:        gross,
		PAYE:         paye,
		Social:       social,
		Health:       health,
		Net:          net,
	}
}
