package invoicing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
)

const sourceModule = "invoicing"

var hundred = decimal.NewFromInt(100)

// Service implements the invoice and estimate workflows. Every mutating call
// is one store transaction: subledger rows, journal entry, account balances
// and the customer running balance commit together or not at all.
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

// CreateCustomer registers a customer with a zero running balance.
func (s *Service) CreateCustomer(ctx context.Context, input CreateCustomerInput) (Customer, error) {
	if input.Name == "" {
		return Customer{}, errors.New("invoicing: customer name required")
	}
	var customer Customer
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		now := s.now()
		var err error
		customer, err = tx.InsertCustomer(ctx, Customer{
			Name:      input.Name,
			Email:     input.Email,
			Balance:   decimal.Zero,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		return Customer{}, err
	}
	return customer, nil
}

// GetCustomer fetches one customer.
func (s *Service) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	var customer Customer
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		customer, err = tx.GetCustomer(ctx, id)
		return err
	})
	return customer, err
}

// ListCustomers returns all customers.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		customers, err = tx.ListCustomers(ctx)
		return err
	})
	return customers, err
}

// CreateInvoice computes money fields from the lines, stores the invoice,
// posts Dr AR / Cr Revenue / Cr VAT output and bumps the customer balance.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (Invoice, error) {
	if len(input.Lines) == 0 {
		return Invoice{}, errors.New("invoicing: at least one line is required")
	}
	var invoice Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		invoice, err = s.createInvoiceTx(ctx, tx, input, nil)
		return err
	})
	if err != nil {
		return Invoice{}, err
	}
	s.bump(ctx)
	return invoice, nil
}

func (s *Service) createInvoiceTx(ctx context.Context, tx Tx, input CreateInvoiceInput, estimateID *int64) (Invoice, error) {
	customer, err := tx.GetCustomerForUpdate(ctx, input.CustomerID)
	if err != nil {
		return Invoice{}, err
	}

	now := s.now()
	issueDate := input.IssueDate
	if issueDate.IsZero() {
		issueDate = now
	}
	dueDate := input.DueDate
	if dueDate.IsZero() {
		dueDate = issueDate.AddDate(0, 0, 30)
	}

	lines, subtotal, taxAmount := computeLines(input.Lines)
	total := subtotal.Add(taxAmount)

	seq, err := tx.NextSequence(ctx, "invoice")
	if err != nil {
		return Invoice{}, err
	}
	invoice := Invoice{
		Number:     fmt.Sprintf("INV-%06d", seq),
		SourceRef:  uuid.New(),
		CustomerID: customer.ID,
		IssueDate:  issueDate,
		DueDate:    dueDate,
		Status:     InvoiceStatusDraft,
		Subtotal:   subtotal,
		TaxAmount:  taxAmount,
		Total:      total,
		PaidAmount: decimal.Zero,
		Balance:    total,
		EstimateID: estimateID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Lines:      lines,
	}

	posting := ledger.PostingInput{
		Date:         issueDate,
		Reference:    invoice.Number,
		Memo:         fmt.Sprintf("Invoice %s for %s", invoice.Number, customer.Name),
		SourceModule: sourceModule,
		SourceID:     invoice.SourceRef,
		CreatedBy:    input.CreatedBy,
		Lines: []ledger.LineInput{
			{AccountCode: s.codes.AccountsReceivable, Debit: total, Memo: invoice.Number},
			{AccountCode: s.codes.Revenue, Credit: subtotal, Memo: invoice.Number},
		},
	}
	if taxAmount.IsPositive() {
		posting.Lines = append(posting.Lines, ledger.LineInput{
			AccountCode: s.codes.VATOutput, Credit: taxAmount, Memo: invoice.Number,
		})
	}
	entry, err := ledger.PostEntryTx(ctx, tx, posting, now)
	if err != nil {
		return Invoice{}, err
	}
	invoice.JournalEntryID = entry.ID

	invoice, err = tx.InsertInvoice(ctx, invoice)
	if err != nil {
		return Invoice{}, err
	}
	if err := tx.UpdateCustomerBalance(ctx, customer.ID, customer.Balance.Add(total)); err != nil {
		return Invoice{}, err
	}
	return invoice, nil
}

// SendInvoice transitions DRAFT to SENT with a timestamp.
func (s *Service) SendInvoice(ctx context.Context, invoiceID int64) (Invoice, error) {
	var invoice Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		inv, err := tx.GetInvoiceForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != InvoiceStatusDraft {
			return ErrInvalidState
		}
		now := s.now()
		inv.Status = InvoiceStatusSent
		inv.SentAt = &now
		inv.UpdatedAt = now
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return Invoice{}, err
	}
	return invoice, nil
}

// GetInvoice fetches one invoice with lines.
func (s *Service) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	var invoice Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		invoice, err = tx.GetInvoice(ctx, id)
		return err
	})
	return invoice, err
}

// ListInvoices returns invoices matching the filter.
func (s *Service) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	var invoices []Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		invoices, err = tx.ListInvoices(ctx, filter)
		return err
	})
	return invoices, err
}

// CreateEstimate stores a quote. Estimates have no accounting impact until
// converted.
func (s *Service) CreateEstimate(ctx context.Context, input CreateEstimateInput) (Estimate, error) {
	if len(input.Lines) == 0 {
		return Estimate{}, errors.New("invoicing: at least one line is required")
	}
	var estimate Estimate
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetCustomer(ctx, input.CustomerID); err != nil {
			return err
		}
		now := s.now()
		issueDate := input.IssueDate
		if issueDate.IsZero() {
			issueDate = now
		}
		seq, err := tx.NextSequence(ctx, "estimate")
		if err != nil {
			return err
		}
		lines, subtotal, taxAmount := computeLines(input.Lines)
		estLines := make([]EstimateLine, 0, len(lines))
		for _, l := range lines {
			estLines = append(estLines, EstimateLine{
				Description: l.Description,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				TaxRate:     l.TaxRate,
				Amount:      l.Amount,
				TaxAmount:   l.TaxAmount,
			})
		}
		estimate, err = tx.InsertEstimate(ctx, Estimate{
			Number:     fmt.Sprintf("EST-%06d", seq),
			CustomerID: input.CustomerID,
			IssueDate:  issueDate,
			ExpiryDate: input.ExpiryDate,
			Status:     EstimateStatusDraft,
			Subtotal:   subtotal,
			TaxAmount:  taxAmount,
			Total:      subtotal.Add(taxAmount),
			CreatedAt:  now,
			UpdatedAt:  now,
			Lines:      estLines,
		})
		return err
	})
	if err != nil {
		return Estimate{}, err
	}
	return estimate, nil
}

// ListEstimates returns all estimates.
func (s *Service) ListEstimates(ctx context.Context) ([]Estimate, error) {
	var estimates []Estimate
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		estimates, err = tx.ListEstimates(ctx)
		return err
	})
	return estimates, err
}

// UpdateEstimateStatus moves an estimate along DRAFT -> SENT -> ACCEPTED or
// DECLINED. Converted estimates are immutable.
func (s *Service) UpdateEstimateStatus(ctx context.Context, estimateID int64, status EstimateStatus) (Estimate, error) {
	var estimate Estimate
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		est, err := tx.GetEstimateForUpdate(ctx, estimateID)
		if err != nil {
			return err
		}
		if est.Status == EstimateStatusConverted || status == EstimateStatusConverted {
			return ErrInvalidState
		}
		est.Status = status
		est.UpdatedAt = s.now()
		if err := tx.UpdateEstimate(ctx, est); err != nil {
			return err
		}
		estimate = est
		return nil
	})
	if err != nil {
		return Estimate{}, err
	}
	return estimate, nil
}

// ConvertEstimateToInvoice turns an ACCEPTED estimate into an invoice via
// the regular invoice workflow and marks the estimate converted with a
// back-reference.
func (s *Service) ConvertEstimateToInvoice(ctx context.Context, estimateID int64, createdBy string) (Invoice, error) {
	var invoice Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		est, err := tx.GetEstimateForUpdate(ctx, estimateID)
		if err != nil {
			return err
		}
		if est.Status != EstimateStatusAccepted {
			return ErrInvalidState
		}
		lines := make([]LineInput, 0, len(est.Lines))
		for _, l := range est.Lines {
			lines = append(lines, LineInput{
				Description: l.Description,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				TaxRate:     l.TaxRate,
			})
		}
		estID := est.ID
		invoice, err = s.createInvoiceTx(ctx, tx, CreateInvoiceInput{
			CustomerID: est.CustomerID,
			Lines:      lines,
			CreatedBy:  createdBy,
		}, &estID)
		if err != nil {
			return err
		}
		est.Status = EstimateStatusConverted
		est.ConvertedInvoiceID = &invoice.ID
		est.UpdatedAt = s.now()
		return tx.UpdateEstimate(ctx, est)
	})
	if err != nil {
		return Invoice{}, err
	}
	s.bump(ctx)
	return invoice, nil
}

func computeLines(inputs []LineInput) ([]InvoiceLine, decimal.Decimal, decimal.Decimal) {
	lines := make([]InvoiceLine, 0, len(inputs))
	subtotal := decimal.Zero
	taxAmount := decimal.Zero
	for _, in := range inputs {
		amount := in.Quantity.Mul(in.UnitPrice).Round(2)
		tax := amount.Mul(in.TaxRate).Div(hundred).Round(2)
		lines = append(lines, InvoiceLine{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
			Amount:      amount,
			TaxAmount:   tax,
		})
		subtotal = subtotal.Add(amount)
		taxAmount = taxAmount.Add(tax)
	}
	return lines, subtotal, taxAmount
}
