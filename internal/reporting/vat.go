package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/helios-erp/helios-erp/internal/ledger"
)

// VATReturn summarises a filing period. Payable is the net position after
// withholding credits; a negative value is a refund claim.
type VATReturn struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	OutputVAT      decimal.Decimal `json:"output_vat"`
	InputVAT       decimal.Decimal `json:"input_vat"`
	NetVAT         decimal.Decimal `json:"net_vat"`
	WithholdingVAT decimal.Decimal `json:"withholding_vat"`
	VATPayable     decimal.Decimal `json:"vat_payable"`
	DueDate        time.Time       `json:"due_date"`
}

// BuildVATReturn reads the period movement of the VAT control accounts.
// Output VAT accrues as credits on the output account, input VAT as debits
// on the input account. The return is due on the 20th of the month after
// the period ends.
func BuildVATReturn(accounts []AccountBalance, codes ledger.CodeSet, from, to time.Time) VATReturn {
	ret := VATReturn{
		From:           from,
		To:             to,
		OutputVAT:      decimal.Zero,
		InputVAT:       decimal.Zero,
		WithholdingVAT: decimal.Zero,
	}
	for _, acc := range accounts {
		switch acc.Code {
		case codes.VATOutput:
			ret.OutputVAT = ret.OutputVAT.Add(acc.Credit.Sub(acc.Debit))
		case codes.VATInput:
			ret.InputVAT = ret.InputVAT.Add(acc.Debit.Sub(acc.Credit))
		case codes.WithholdingVAT:
			ret.WithholdingVAT = ret.WithholdingVAT.Add(acc.Debit.Sub(acc.Credit))
		}
	}
	ret.NetVAT = ret.OutputVAT.Sub(ret.InputVAT)
	ret.VATPayable = ret.NetVAT.Sub(ret.WithholdingVAT)

	anchor := to
	if anchor.IsZero() {
		anchor = time.Now()
	}
	ret.DueDate = time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location()).
		AddDate(0, 1, 19)
	return ret
}
