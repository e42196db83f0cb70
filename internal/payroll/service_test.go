package payroll_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/payroll"
	"github.com/helios-erp/helios-erp/internal/store/memstore"
	"github.com/helios-erp/helios-erp/internal/tax"
)

const kenyaYAML = `
jurisdiction: KE
currency:
  code: KES
  exponent: 2
paye:
  relief: 2400
  brackets:
    - { min: 0, max: 24000, rate: 10 }
    - { min: 24000, max: 32333, rate: 25 }
    - { min: 32333, rate: 30 }
social_security:
  rate: 6
  cap: 1080
health:
  bands:
    - { min: 0, max: 5999, contribution: 150 }
    - { min: 6000, max: 11999, contribution: 300 }
    - { min: 12000, max: 19999, contribution: 500 }
    - { min: 20000, max: 49999, contribution: 1000 }
    - { min: 50000, max: 99999, contribution: 1500 }
    - { min: 100000, max: 999999999, contribution: 1700 }
withholding:
  professional_fees: 5
vat:
  standard_rate: 16
`

type fixture struct {
	store   *memstore.Store
	ledger  *ledger.Service
	payroll *payroll.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	ledgerSvc := ledger.NewService(store.Ledger(), nil)
	require.NoError(t, ledgerSvc.SeedChart(ctx, ledger.DefaultChart()))

	tables, err := tax.Parse([]byte(kenyaYAML))
	require.NoError(t, err)

	return fixture{
		store:   store,
		ledger:  ledgerSvc,
		payroll: payroll.NewService(store.Payroll(), ledger.DefaultCodes(), tables),
	}
}

func (f fixture) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	acc, err := f.ledger.GetAccount(context.Background(), code)
	require.NoError(t, err)
	return acc.Balance
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f fixture) addEmployee(t *testing.T, name string, salary string) payroll.Employee {
	t.Helper()
	e, err := f.payroll.CreateEmployee(context.Background(), payroll.CreateEmployeeInput{
		Name: name, Salary: dec(salary),
	})
	require.NoError(t, err)
	return e
}

func TestCreateRunComputesKenyanDeductions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addEmployee(t, "Wanjiku", "50000")

	run, err := f.payroll.CreateRun(ctx, payroll.ProcessRunInput{Period: "2025-01"})
	require.NoError(t, err)
	require.Equal(t, payroll.RunStatusDraft, run.Status)
	require.Len(t, run.Payslips, 1)

	slip := run.Payslips[0]
	require.True(t, slip.Gross.Equal(dec("50000")))
	// 24000*10% + 8333*25% + 17667*30% - 2400 relief.
	require.True(t, slip.PAYE.Equal(dec("7383.35")), "paye %s", slip.PAYE)
	// 6% of 50000 hits the 1080 cap.
	require.True(t, slip.Social.Equal(dec("1080")), "social %s", slip.Social)
	// 50000 lands in the 50000-99999 band.
	require.True(t, slip.Health.Equal(dec("1500")), "health %s", slip.Health)
	require.True(t, slip.Net.Equal(dec("40036.65")), "net %s", slip.Net)

	require.True(t, run.TotalGross.Equal(slip.Gross))
	require.True(t, run.TotalNet.Equal(slip.Net))
}

func TestCreateRunLowIncomeBelowRelief(t *testing.T) {
	f := newFixture(t)
	f.addEmployee(t, "Otieno", "20000")

	run, err := f.payroll.CreateRun(context.Background(), payroll.ProcessRunInput{Period: "2025-02"})
	require.NoError(t, err)

	slip := run.Payslips[0]
	require.True(t, slip.PAYE.IsZero(), "paye %s", slip.PAYE)
	require.True(t, slip.Social.Equal(dec("1080")), "social %s", slip.Social)
	require.True(t, slip.Health.Equal(dec("1000")), "health %s", slip.Health)
	require.True(t, slip.Net.Equal(dec("17920")), "net %s", slip.Net)
}

func TestCreateRunRejectsDuplicatePeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addEmployee(t, "Wanjiku", "50000")

	_, err := f.payroll.CreateRun(ctx, payroll.ProcessRunInput{Period: "2025-03"})
	require.NoError(t, err)

	_, err = f.payroll.CreateRun(ctx, payroll.ProcessRunInput{Period: "2025-03"})
	require.ErrorIs(t, err, payroll.ErrDuplicatePeriod)
}

func TestCreateRunRejectsBadPeriod(t *testing.T) {
	f := newFixture(t)
	f.addEmployee(t, "Wanjiku", "50000")

	_, err := f.payroll.CreateRun(context.Background(), payroll.ProcessRunInput{Period: "March 2025"})
	require.Error(t, err)
}

func TestCreateRunRequiresActiveEmployees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.payroll.CreateRun(ctx, payroll.ProcessRunInput{Period: "2025-04"})
	require.ErrorIs(t, err, payroll.ErrNoEmployees)

	e := f.addEmployee(t, "Wanjiku", "50000")
	require.NoError(t, f.payroll.DeactivateEmployee(ctx, e.ID))

	_, err = f.payroll.CreateRun(ctx, payroll.ProcessRunInput{Period: "2025-04"})
	require.ErrorIs(t, err, payroll.ErrNoEmployees)
}

func TestProcessRunPostsAggregateEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addEmployee(t, "Wanjiku", "50000")

	run, err := f.payroll.CreateRun(ctx, payroll.ProcessRunInput{Period: "2025-05"})
	require.NoError(t, err)

	processed, err := f.payroll.ProcessRun(ctx, run.ID, "hr")
	require.NoError(t, err)
	require.Equal(t, payroll.RunStatusProcessed, processed.Status)
	require.NotZero(t, processed.JournalEntryID)
	require.NotNil(t, processed.ProcessedAt)

	// Dr salaries expense, Cr the three payables and net cash.
	require.True(t, f.balance(t, "6100").Equal(dec("50000")))
	require.True(t, f.balance(t, "2300").Equal(dec("7383.35")))
	require.True(t, f.balance(t, "2310").Equal(dec("1080")))
	require.True(t, f.balance(t, "2320").Equal(dec("1500")))
	require.True(t, f.balance(t, "1000").Equal(dec("-40036.65")))

	entry, err := f.ledger.GetJournalEntry(ctx, processed.JournalEntryID)
	require.NoError(t, err)
	require.Equal(t, "payroll", entry.SourceModule)
	require.Equal(t, ledger.JournalStatusPosted, entry.Status)

	_, err = f.payroll.ProcessRun(ctx, run.ID, "hr")
	require.ErrorIs(t, err, payroll.ErrInvalidState)
}

func TestSalaryChangeDoesNotTouchExistingRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.addEmployee(t, "Wanjiku", "50000")

	run, err := f.payroll.CreateRun(ctx, payroll.ProcessRunInput{Period: "2025-06"})
	require.NoError(t, err)

	_, err = f.payroll.UpdateSalary(ctx, e.ID, dec("80000"))
	require.NoError(t, err)

	stored, err := f.payroll.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, stored.TotalGross.Equal(dec("50000")))
}

func TestListEmployeesActiveFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addEmployee(t, "Wanjiku", "50000")
	e := f.addEmployee(t, "Otieno", "30000")
	require.NoError(t, f.payroll.DeactivateEmployee(ctx, e.ID))

	active, err := f.payroll.ListEmployees(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)

	all, err := f.payroll.ListEmployees(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
