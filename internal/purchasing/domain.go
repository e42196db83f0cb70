package purchasing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
)

var (
	// ErrVendorNotFound indicates a missing vendor.
	ErrVendorNotFound = errors.New("purchasing: vendor not found")
	// ErrPurchaseNotFound indicates a missing purchase.
	ErrPurchaseNotFound = errors.New("purchasing: purchase not found")
)

// Vendor carries a running balance of our net position: negative means we
// owe the vendor.
type Vendor struct {
	ID        int64
	Name      string
	Email     string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PurchaseLine is one purchased item, debited to its target account.
type PurchaseLine struct {
	ID          int64
	PurchaseID  int64
	Description string
	AccountCode string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Amount      decimal.Decimal
	TaxAmount   decimal.Decimal
}

// Purchase is a vendor bill. Each line debits its own expense or asset
// account; the VAT input and AP legs are aggregated.
type Purchase struct {
	ID             int64
	Number         string
	SourceRef      uuid.UUID
	VendorID       int64
	Date           time.Time
	Reference      string
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
	JournalEntryID int64
	CreatedAt      time.Time
	Lines          []PurchaseLine
}

// CreateVendorInput carries vendor registration fields.
type CreateVendorInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

// PurchaseLineInput names the target account each line lands on.
type PurchaseLineInput struct {
	Description string          `json:"description" validate:"required"`
	AccountCode string          `json:"account_code" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// CreatePurchaseInput groups fields for the purchase workflow.
type CreatePurchaseInput struct {
	VendorID  int64               `json:"vendor_id" validate:"required"`
	Date      time.Time           `json:"date"`
	Reference string              `json:"reference"`
	Lines     []PurchaseLineInput `json:"lines" validate:"required,min=1,dive"`
	CreatedBy string              `json:"created_by"`
}

// Tx is the purchasing transaction port.
type Tx interface {
	ledger.Tx

	InsertVendor(ctx context.Context, v Vendor) (Vendor, error)
	GetVendor(ctx context.Context, id int64) (Vendor, error)
	GetVendorForUpdate(ctx context.Context, id int64) (Vendor, error)
	ListVendors(ctx context.Context) ([]Vendor, error)
	UpdateVendorBalance(ctx context.Context, id int64, balance decimal.Decimal) error

	InsertPurchase(ctx context.Context, p Purchase) (Purchase, error)
	GetPurchase(ctx context.Context, id int64) (Purchase, error)
	ListPurchases(ctx context.Context, vendorID int64) ([]Purchase, error)
}

// Store is the purchasing persistence port.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
}
