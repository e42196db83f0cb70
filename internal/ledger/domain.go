package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether the account type is one of the five CoA categories.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalBalanceSign is the single source of truth for how a debit or credit
// moves an account balance. Debit-normal types return +1, credit-normal -1.
// Balances are stored so that a positive value always means movement in the
// account's normal-balance direction.
func NormalBalanceSign(t AccountType) int {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return 1
	default:
		return -1
	}
}

// JournalStatus enumerates journal lifecycle values.
type JournalStatus string

const (
	JournalStatusDraft    JournalStatus = "DRAFT"
	JournalStatusPosted   JournalStatus = "POSTED"
	JournalStatusReversed JournalStatus = "REVERSED"
)

// Account models a chart of accounts node.
type Account struct {
	ID        int64
	Code      string
	Name      string
	Type      AccountType
	Subtype   string
	Balance   decimal.Decimal
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JournalEntry captures posting metadata and its lines.
type JournalEntry struct {
	ID           int64
	Number       string
	Date         time.Time
	Reference    string
	Memo         string
	SourceModule string
	SourceID     uuid.UUID
	CreatedBy    string
	Status       JournalStatus
	ReversalOf   *int64
	ReversedBy   *int64
	PostedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Lines        []JournalLine
}

// JournalLine stores a debit or credit amount for an account. Code and name
// are denormalized for display; AccountID is authoritative.
type JournalLine struct {
	ID          int64
	JournalID   int64
	AccountID   int64
	AccountCode string
	AccountName string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Memo        string
}

// BalanceDelta returns the signed effect of the line on the account balance
// under the stored-sign convention.
func (l JournalLine) BalanceDelta(t AccountType) decimal.Decimal {
	if NormalBalanceSign(t) > 0 {
		return l.Debit.Sub(l.Credit)
	}
	return l.Credit.Sub(l.Debit)
}

// CreateAccountInput carries fields for chart-of-accounts setup.
type CreateAccountInput struct {
	Code    string
	Name    string
	Type    AccountType
	Subtype string
}

// LineInput describes a journal line for a posting request. The account may
// be referenced by id or by code; workflows use well-known codes.
type LineInput struct {
	AccountID   int64
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Memo        string
}

// PostingInput groups fields required to create a journal entry.
type PostingInput struct {
	Date         time.Time
	Reference    string
	Memo         string
	SourceModule string
	SourceID     uuid.UUID
	CreatedBy    string
	Lines        []LineInput
}

// JournalFilter narrows journal entry listings.
type JournalFilter struct {
	Status       JournalStatus
	AccountID    int64
	SourceModule string
	From         time.Time
	To           time.Time
}

// CodeSet holds the well-known account codes workflows post against.
// A missing code at posting time is a deployment fault, reported as
// ErrCodeNotConfigured rather than ErrAccountNotFound.
type CodeSet struct {
	Cash               string
	AccountsReceivable string
	AccountsPayable    string
	Inventory          string
	Revenue            string
	VATOutput          string
	VATInput           string
	WithholdingVAT     string
	SalariesExpense    string
	PAYEPayable        string
	SocialPayable      string
	HealthPayable      string
}

// DefaultCodes returns the code set the default chart provisions.
func DefaultCodes() CodeSet {
	return CodeSet{
		Cash:               "1000",
		AccountsReceivable: "1100",
		Inventory:          "1200",
		AccountsPayable:    "2100",
		VATOutput:          "2200",
		VATInput:           "1300",
		WithholdingVAT:     "1310",
		PAYEPayable:        "2300",
		SocialPayable:      "2310",
		HealthPayable:      "2320",
		Revenue:            "4000",
		SalariesExpense:    "6100",
	}
}

// DefaultChart provisions the accounts every workflow depends on plus the
// usual operating set. Deployments with their own chart seed that instead.
func DefaultChart() []CreateAccountInput {
	return []CreateAccountInput{
		{Code: "1000", Name: "Cash and Bank", Type: AccountTypeAsset, Subtype: "Current Asset"},
		{Code: "1100", Name: "Accounts Receivable", Type: AccountTypeAsset, Subtype: "Current Asset"},
		{Code: "1200", Name: "Inventory", Type: AccountTypeAsset, Subtype: "Current Asset"},
		{Code: "1300", Name: "VAT Input", Type: AccountTypeAsset, Subtype: "Current Asset"},
		{Code: "1310", Name: "Withholding VAT", Type: AccountTypeAsset, Subtype: "Current Asset"},
		{Code: "1500", Name: "Property and Equipment", Type: AccountTypeAsset, Subtype: "Fixed Asset"},
		{Code: "2100", Name: "Accounts Payable", Type: AccountTypeLiability, Subtype: "Current Liability"},
		{Code: "2200", Name: "VAT Output", Type: AccountTypeLiability, Subtype: "Current Liability"},
		{Code: "2300", Name: "PAYE Payable", Type: AccountTypeLiability, Subtype: "Current Liability"},
		{Code: "2310", Name: "Social Security Payable", Type: AccountTypeLiability, Subtype: "Current Liability"},
		{Code: "2320", Name: "Health Contribution Payable", Type: AccountTypeLiability, Subtype: "Current Liability"},
		{Code: "2700", Name: "Long Term Loans", Type: AccountTypeLiability, Subtype: "Long Term Liability"},
		{Code: "3000", Name: "Share Capital", Type: AccountTypeEquity, Subtype: "Equity"},
		{Code: "3100", Name: "Retained Earnings", Type: AccountTypeEquity, Subtype: "Equity"},
		{Code: "4000", Name: "Sales Revenue", Type: AccountTypeRevenue, Subtype: "Operating Revenue"},
		{Code: "5000", Name: "Cost of Sales", Type: AccountTypeExpense, Subtype: "Cost of Sales"},
		{Code: "6100", Name: "Salaries and Wages", Type: AccountTypeExpense, Subtype: "Operating Expense"},
		{Code: "6200", Name: "Rent Expense", Type: AccountTypeExpense, Subtype: "Operating Expense"},
		{Code: "6300", Name: "Office Expenses", Type: AccountTypeExpense, Subtype: "Operating Expense"},
	}
}
