package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/invoicing"
	"github.com/helios-erp/helios-erp/internal/ledger"
)

const sourceModule = "payments"

// Service implements the payment workflow.
type Service struct {
	store Store
	codes ledger.CodeSet
	cache ledger.Invalidator
	now   func() time.Time
}

// NewService builds a Service instance.
func NewService(store Store, codes ledger.CodeSet) *Service {
	return &Service{store: store, codes: codes, now: time.Now}
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

// RecordPayment applies a customer payment across one or more invoices,
// posts Dr Cash / Cr AR and reduces the customer running balance, all in
// one transaction.
func (s *Service) RecordPayment(ctx context.Context, input RecordPaymentInput) (Payment, error) {
	if !input.Amount.IsPositive() {
		return Payment{}, errors.New("payments: amount must be positive")
	}
	if len(input.Allocations) == 0 {
		return Payment{}, errors.New("payments: at least one allocation required")
	}
	allocated := decimal.Zero
	for _, alloc := range input.Allocations {
		if !alloc.Amount.IsPositive() {
			return Payment{}, errors.New("payments: allocation amount must be positive")
		}
		allocated = allocated.Add(alloc.Amount)
	}
	if !allocated.Equal(input.Amount) {
		return Payment{}, ErrAllocationMismatch
	}

	var payment Payment
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		customer, err := tx.GetCustomerForUpdate(ctx, input.CustomerID)
		if err != nil {
			return err
		}

		now := s.now()
		date := input.Date
		if date.IsZero() {
			date = now
		}

		for _, alloc := range input.Allocations {
			inv, err := tx.GetInvoiceForUpdate(ctx, alloc.InvoiceID)
			if err != nil {
				return err
			}
			if inv.CustomerID != customer.ID {
				return fmt.Errorf("payments: invoice %s does not belong to customer %d", inv.Number, customer.ID)
			}
			if inv.Status == invoicing.InvoiceStatusPaid {
				return invoicing.ErrInvalidState
			}
			if alloc.Amount.GreaterThan(inv.Balance) {
				return fmt.Errorf("%w: invoice %s", ErrAllocationExceedsBalance, inv.Number)
			}
			inv.PaidAmount = inv.PaidAmount.Add(alloc.Amount)
			inv.Balance = inv.Total.Sub(inv.PaidAmount)
			if inv.Balance.LessThanOrEqual(decimal.Zero) {
				inv.Status = invoicing.InvoiceStatusPaid
			} else {
				inv.Status = invoicing.InvoiceStatusPartiallyPaid
			}
			inv.UpdatedAt = now
			if err := tx.UpdateInvoice(ctx, inv); err != nil {
				return err
			}
		}

		seq, err := tx.NextSequence(ctx, "payment")
		if err != nil {
			return err
		}
		payment = Payment{
			Number:     fmt.Sprintf("PAY-%06d", seq),
			SourceRef:  uuid.New(),
			CustomerID: customer.ID,
			Amount:     input.Amount,
			Date:       date,
			Method:     input.Method,
			CreatedAt:  now,
		}
		for _, alloc := range input.Allocations {
			payment.Allocations = append(payment.Allocations, Allocation{
				InvoiceID: alloc.InvoiceID,
				Amount:    alloc.Amount,
			})
		}

		entry, err := ledger.PostEntryTx(ctx, tx, ledger.PostingInput{
			Date:         date,
			Reference:    payment.Number,
			Memo:         fmt.Sprintf("Payment %s from %s", payment.Number, customer.Name),
			SourceModule: sourceModule,
			SourceID:     payment.SourceRef,
			CreatedBy:    input.CreatedBy,
			Lines: []ledger.LineInput{
				{AccountCode: s.codes.Cash, Debit: input.Amount, Memo: payment.Number},
				{AccountCode: s.codes.AccountsReceivable, Credit: input.Amount, Memo: payment.Number},
			},
		}, now)
		if err != nil {
			return err
		}
		payment.JournalEntryID = entry.ID

		payment, err = tx.InsertPayment(ctx, payment)
		if err != nil {
			return err
		}
		return tx.UpdateCustomerBalance(ctx, customer.ID, customer.Balance.Sub(input.Amount))
	})
	if err != nil {
		return Payment{}, err
	}
	s.bump(ctx)
	return payment, nil
}

// GetPayment fetches one payment with allocations.
func (s *Service) GetPayment(ctx context.Context, id int64) (Payment, error) {
	var payment Payment
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		payment, err = tx.GetPayment(ctx, id)
		return err
	})
	return payment, err
}

// ListPayments returns payments, optionally scoped to one customer.
func (s *Service) ListPayments(ctx context.Context, customerID int64) ([]Payment, error) {
	var out []Payment
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListPayments(ctx, customerID)
		return err
	})
	return out, err
}
