package purchasing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
)

const sourceModule = "purchasing"

var hundred = decimal.NewFromInt(100)

// Service implements the purchase workflow.
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

// CreateVendor registers a vendor with a zero running balance.
func (s *Service) CreateVendor(ctx context.Context, input CreateVendorInput) (Vendor, error) {
	if input.Name == "" {
		return Vendor{}, errors.New("purchasing: vendor name required")
	}
	var vendor Vendor
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		now := s.now()
		var err error
		vendor, err = tx.InsertVendor(ctx, Vendor{
			Name:      input.Name,
			Email:     input.Email,
			Balance:   decimal.Zero,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		return Vendor{}, err
	}
	return vendor, nil
}

// GetVendor fetches one vendor.
func (s *Service) GetVendor(ctx context.Context, id int64) (Vendor, error) {
	var vendor Vendor
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		vendor, err = tx.GetVendor(ctx, id)
		return err
	})
	return vendor, err
}

// ListVendors returns all vendors.
func (s *Service) ListVendors(ctx context.Context) ([]Vendor, error) {
	var out []Vendor
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListVendors(ctx)
		return err
	})
	return out, err
}

// CreatePurchase records a vendor bill. Each line debits the account it
// names, recoverable VAT debits the VAT input account and the gross total
// credits accounts payable. The vendor balance drops by the total.
func (s *Service) CreatePurchase(ctx context.Context, input CreatePurchaseInput) (Purchase, error) {
	if len(input.Lines) == 0 {
		return Purchase{}, errors.New("purchasing: at least one line is required")
	}
	var purchase Purchase
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		vendor, err := tx.GetVendorForUpdate(ctx, input.VendorID)
		if err != nil {
			return err
		}

		now := s.now()
		date := input.Date
		if date.IsZero() {
			date = now
		}

		seq, err := tx.NextSequence(ctx, "purchase")
		if err != nil {
			return err
		}
		purchase = Purchase{
			Number:    fmt.Sprintf("PO-%06d", seq),
			SourceRef: uuid.New(),
			VendorID:  vendor.ID,
			Date:      date,
			Reference: input.Reference,
			Subtotal:  decimal.Zero,
			TaxAmount: decimal.Zero,
			CreatedAt: now,
		}

		var postingLines []ledger.LineInput
		for _, in := range input.Lines {
			amount := in.Quantity.Mul(in.UnitPrice).Round(2)
			tax := amount.Mul(in.TaxRate).Div(hundred).Round(2)
			purchase.Lines = append(purchase.Lines, PurchaseLine{
				Description: in.Description,
				AccountCode: in.AccountCode,
				Quantity:    in.Quantity,
				UnitPrice:   in.UnitPrice,
				TaxRate:     in.TaxRate,
				Amount:      amount,
				TaxAmount:   tax,
			})
			purchase.Subtotal = purchase.Subtotal.Add(amount)
			purchase.TaxAmount = purchase.TaxAmount.Add(tax)
			postingLines = append(postingLines, ledger.LineInput{
				AccountCode: in.AccountCode, Debit: amount, Memo: in.Description,
			})
		}
		purchase.Total = purchase.Subtotal.Add(purchase.TaxAmount)
		if purchase.TaxAmount.IsPositive() {
			postingLines = append(postingLines, ledger.LineInput{
				AccountCode: s.codes.VATInput, Debit: purchase.TaxAmount, Memo: purchase.Number,
			})
		}
		postingLines = append(postingLines, ledger.LineInput{
			AccountCode: s.codes.AccountsPayable, Credit: purchase.Total, Memo: purchase.Number,
		})

		entry, err := ledger.PostEntryTx(ctx, tx, ledger.PostingInput{
			Date:         date,
			Reference:    purchase.Number,
			Memo:         fmt.Sprintf("Purchase %s from %s", purchase.Number, vendor.Name),
			SourceModule: sourceModule,
			SourceID:     purchase.SourceRef,
			CreatedBy:    input.CreatedBy,
			Lines:        postingLines,
		}, now)
		if err != nil {
			return err
		}
		purchase.JournalEntryID = entry.ID

		purchase, err = tx.InsertPurchase(ctx, purchase)
		if err != nil {
			return err
		}
		return tx.UpdateVendorBalance(ctx, vendor.ID, vendor.Balance.Sub(purchase.Total))
	})
	if err != nil {
		return Purchase{}, err
	}
	s.bump(ctx)
	return purchase, nil
}

// GetPurchase fetches one purchase with lines.
func (s *Service) GetPurchase(ctx context.Context, id int64) (Purchase, error) {
	var purchase Purchase
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		purchase, err = tx.GetPurchase(ctx, id)
		return err
	})
	return purchase, err
}

// ListPurchases returns purchases, optionally scoped to one vendor.
func (s *Service) ListPurchases(ctx context.Context, vendorID int64) ([]Purchase, error) {
	var out []Purchase
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListPurchases(ctx, vendorID)
		return err
	})
	return out, err
}
