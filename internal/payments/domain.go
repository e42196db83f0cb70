package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/invoicing"
)

var (
	// ErrPaymentNotFound indicates a missing payment.
	ErrPaymentNotFound = errors.New("payments: payment not found")
	// ErrAllocationMismatch indicates allocations do not sum to the amount.
	ErrAllocationMismatch = errors.New("payments: allocations must sum to the payment amount")
	// ErrAllocationExceedsBalance indicates over-allocation to one invoice.
	ErrAllocationExceedsBalance = errors.New("payments: allocation exceeds invoice balance")
)

// Payment records money received from a customer.
type Payment struct {
	ID             int64
	Number         string
	SourceRef      uuid.UUID
	CustomerID     int64
	Amount         decimal.Decimal
	Date           time.Time
	Method         string
	JournalEntryID int64
	CreatedAt      time.Time
	Allocations    []Allocation
}

// Allocation applies part of a payment to one invoice.
type Allocation struct {
	ID        int64
	PaymentID int64
	InvoiceID int64
	Amount    decimal.Decimal
}

// AllocationInput pairs an invoice with the amount applied to it.
type AllocationInput struct {
	InvoiceID int64           `json:"invoice_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

// RecordPaymentInput groups fields for the payment workflow.
type RecordPaymentInput struct {
	CustomerID  int64             `json:"customer_id" validate:"required"`
	Amount      decimal.Decimal   `json:"amount"`
	Date        time.Time         `json:"date"`
	Method      string            `json:"method"`
	Allocations []AllocationInput `json:"allocations" validate:"required,min=1,dive"`
	CreatedBy   string            `json:"created_by"`
}

// Tx is the payments transaction port. It embeds the invoicing port (which
// embeds the ledger port) so invoice updates, the journal entry and the
// customer balance move in one transaction.
type Tx interface {
	invoicing.Tx

	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	GetPayment(ctx context.Context, id int64) (Payment, error)
	ListPayments(ctx context.Context, customerID int64) ([]Payment, error)
}

// Store is the payments persistence port.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}
