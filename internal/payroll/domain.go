package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
)

// RunStatus enumerates payroll run lifecycle values.
type RunStatus string

const (
	RunStatusDraft      RunStatus = "DRAFT"
	RunStatusProcessing RunStatus = "PROCESSING"
	RunStatusProcessed  RunStatus = "PROCESSED"
)

var (
	// ErrEmployeeNotFound indicates a missing employee.
	ErrEmployeeNotFound = errors.New("payroll: employee not found")
	// ErrRunNotFound indicates a missing payroll run.
	ErrRunNotFound = errors.New("payroll: run not found")
	// ErrDuplicatePeriod indicates a run already exists for the period.
	ErrDuplicatePeriod = errors.New("payroll: run already exists for period")
	// ErrInvalidState indicates the lifecycle forbids the transition.
	ErrInvalidState = errors.New("payroll: invalid state for operation")
	// ErrNoEmployees indicates no active employees for the run.
	ErrNoEmployees = errors.New("payroll: no active employees")
)

// Employee is a payroll subject with a monthly gross salary.
type Employee struct {
	ID        int64
	Name      string
	Email     string
	Salary    decimal.Decimal
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payslip carries one employee's computed amounts for a run.
type Payslip struct {
	ID           int64
	RunID        int64
	EmployeeID   int64
	EmployeeName string
	Gross        decimal.Decimal
	PAYE         decimal.Decimal
	Social       decimal.Decimal
	Health       decimal.Decimal
	Net          decimal.Decimal
}

// Run aggregates one pay period. Totals are the column sums of its payslips.
type Run struct {
	ID             int64
	Number         string
	SourceRef      uuid.UUID
	Period         string
	Status         RunStatus
	TotalGross     decimal.Decimal
	TotalPAYE      decimal.Decimal
	TotalSocial    decimal.Decimal
	TotalHealth    decimal.Decimal
	TotalNet       decimal.Decimal
	JournalEntryID int64
	ProcessedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Payslips       []Payslip
}

// CreateEmployeeInput carries employee registration fields.
type CreateEmployeeInput struct {
	Name   string          `json:"name" validate:"required"`
	Email  string          `json:"email" validate:"omitempty,email"`
	Salary decimal.Decimal `json:"salary"`
}

// ProcessRunInput identifies the period to run, formatted YYYY-MM.
type ProcessRunInput struct {
	Period    string    `json:"period" validate:"required,len=7"`
	Date      time.Time `json:"date"`
	CreatedBy string    `json:"created_by"`
}

// Tx is the payroll transaction port. It embeds the ledger port so payslips
// and the aggregate journal entry commit together.
type Tx interface {
	ledger.Tx

	InsertEmployee(ctx context.Context, e Employee) (Employee, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	UpdateEmployee(ctx context.Context, e Employee) error
	ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error)

	InsertRun(ctx context.Context, r Run) (Run, error)
	GetRun(ctx context.Context, id int64) (Run, error)
	GetRunForUpdate(ctx context.Context, id int64) (Run, error)
	GetRunByPeriod(ctx context.Context, period string) (Run, error)
	UpdateRun(ctx context.Context, r Run) error
	ListRuns(ctx context.Context) ([]Run, error)
}

// Store is the payroll persistence port.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}
