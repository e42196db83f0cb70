package invoicing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
)

// InvoiceStatus enumerates invoice lifecycle values.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
)

// EstimateStatus enumerates estimate lifecycle values.
type EstimateStatus string

const (
	EstimateStatusDraft     EstimateStatus = "DRAFT"
	EstimateStatusSent      EstimateStatus = "SENT"
	EstimateStatusAccepted  EstimateStatus = "ACCEPTED"
	EstimateStatusDeclined  EstimateStatus = "DECLINED"
	EstimateStatusConverted EstimateStatus = "CONVERTED"
)

var (
	// ErrCustomerNotFound indicates a missing customer.
	ErrCustomerNotFound = errors.New("invoicing: customer not found")
	// ErrInvoiceNotFound indicates a missing invoice.
	ErrInvoiceNotFound = errors.New("invoicing: invoice not found")
	// ErrEstimateNotFound indicates a missing estimate.
	ErrEstimateNotFound = errors.New("invoicing: estimate not found")
	// ErrInvalidState indicates the lifecycle forbids the transition.
	ErrInvalidState = errors.New("invoicing: invalid state for operation")
)

// Customer carries the denormalized running balance of outstanding invoice
// totals. It must always equal the sum of unpaid invoice balances.
type Customer struct {
	ID        int64
	Name      string
	Email     string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceLine is one billed item.
type InvoiceLine struct {
	ID          int64
	InvoiceID   int64
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Amount      decimal.Decimal
	TaxAmount   decimal.Decimal
}

// Invoice is the business-facing view; the journal entry referenced by
// JournalEntryID is the accounting-facing view of the same event.
type Invoice struct {
	ID             int64
	Number         string
	SourceRef      uuid.UUID
	CustomerID     int64
	IssueDate      time.Time
	DueDate        time.Time
	Status         InvoiceStatus
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	PaidAmount     decimal.Decimal
	Balance        decimal.Decimal
	JournalEntryID int64
	EstimateID     *int64
	SentAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Lines          []InvoiceLine
}

// EstimateLine mirrors InvoiceLine for quotes.
type EstimateLine struct {
	ID          int64
	EstimateID  int64
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Amount      decimal.Decimal
	TaxAmount   decimal.Decimal
}

// Estimate is a quote that may later become an invoice.
type Estimate struct {
	ID                 int64
	Number             string
	CustomerID         int64
	IssueDate          time.Time
	ExpiryDate         time.Time
	Status             EstimateStatus
	Subtotal           decimal.Decimal
	TaxAmount          decimal.Decimal
	Total              decimal.Decimal
	ConvertedInvoiceID *int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Lines              []EstimateLine
}

// LineInput describes a billed item on an invoice or estimate request.
type LineInput struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// CreateCustomerInput carries customer registration fields.
type CreateCustomerInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

// CreateInvoiceInput groups fields for the invoice workflow.
type CreateInvoiceInput struct {
	CustomerID int64       `json:"customer_id" validate:"required"`
	IssueDate  time.Time   `json:"issue_date"`
	DueDate    time.Time   `json:"due_date"`
	Lines      []LineInput `json:"lines" validate:"required,min=1,dive"`
	CreatedBy  string      `json:"created_by"`
}

// CreateEstimateInput groups fields for estimate creation.
type CreateEstimateInput struct {
	CustomerID int64       `json:"customer_id" validate:"required"`
	IssueDate  time.Time   `json:"issue_date"`
	ExpiryDate time.Time   `json:"expiry_date"`
	Lines      []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	CustomerID int64
	Status     InvoiceStatus
}

// Tx is the invoicing transaction port. It embeds the ledger port so the
// journal entry posts in the same transaction as the subledger rows.
type Tx interface {
	ledger.Tx

	InsertCustomer(ctx context.Context, c Customer) (Customer, error)
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	GetCustomerForUpdate(ctx context.Context, id int64) (Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	UpdateCustomerBalance(ctx context.Context, id int64, balance decimal.Decimal) error

	InsertInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
	GetInvoiceForUpdate(ctx context.Context, id int64) (Invoice, error)
	UpdateInvoice(ctx context.Context, inv Invoice) error
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)

	InsertEstimate(ctx context.Context, est Estimate) (Estimate, error)
	GetEstimateForUpdate(ctx context.Context, id int64) (Estimate, error)
	UpdateEstimate(ctx context.Context, est Estimate) error
	ListEstimates(ctx context.Context) ([]Estimate, error)
}

// Store is the invoicing persistence port.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}
