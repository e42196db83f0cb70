// Package tax implements jurisdiction-configurable tax arithmetic. All
// calculators are pure functions over bracket tables; nothing in here knows
// which country the tables describe.
package tax

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Bracket is one progressive-tax band. A nil Max marks the open-ended top
// bracket.
type Bracket struct {
	Min  decimal.Decimal
	Max  *decimal.Decimal
	Rate decimal.Decimal
}

// FlatBand maps a salary range to a fixed contribution. Matching is on Min
// (a band reaches up to the next band's floor); Max carries the published
// upper bound for display. The last band is open-ended.
type FlatBand struct {
	Min          decimal.Decimal
	Max          decimal.Decimal
	Contribution decimal.Decimal
}

// Currency describes the functional currency's minor unit.
type Currency struct {
	Code     string
	Exponent int32
}

// PAYETable is the progressive income tax configuration.
type PAYETable struct {
	Relief   decimal.Decimal
	Brackets []Bracket
}

// SocialTable is a capped-percentage contribution.
type SocialTable struct {
	Rate decimal.Decimal
	Cap  decimal.Decimal
}

// Tables bundles the jurisdiction configuration the payroll workflow and the
// VAT return depend on.
type Tables struct {
	Jurisdiction   string
	Currency       Currency
	PAYE           PAYETable
	SocialSecurity SocialTable
	HealthBands    []FlatBand
	Withholding    map[string]decimal.Decimal
	VATRate        decimal.Decimal
}

// tablesFile mirrors the YAML layout with plain numbers; Load converts to
// decimals once so the calculators never touch floats.
type tablesFile struct {
	Jurisdiction string `yaml:"jurisdiction"`
	Currency     struct {
		Code string `yaml:"code"`
		// Pointer so an explicit zero (currencies without minor units) is
		// distinguishable from an omitted field.
		Exponent *int32 `yaml:"exponent"`
	} `yaml:"currency"`
	PAYE struct {
		Relief   float64 `yaml:"relief"`
		Brackets []struct {
			Min  float64  `yaml:"min"`
			Max  *float64 `yaml:"max"`
			Rate float64  `yaml:"rate"`
		} `yaml:"brackets"`
	} `yaml:"paye"`
	SocialSecurity struct {
		Rate float64 `yaml:"rate"`
		Cap  float64 `yaml:"cap"`
	} `yaml:"social_security"`
	Health struct {
		Bands []struct {
			Min          float64 `yaml:"min"`
			Max          float64 `yaml:"max"`
			Contribution float64 `yaml:"contribution"`
		} `yaml:"bands"`
	} `yaml:"health"`
	Withholding map[string]float64 `yaml:"withholding"`
	VAT         struct {
		StandardRate float64 `yaml:"standard_rate"`
	} `yaml:"vat"`
}

// Load reads and validates a jurisdiction table file.
func Load(path string) (Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("tax: read tables: %w", err)
	}
	return Parse(raw)
}

// Parse decodes jurisdiction tables from YAML.
func Parse(raw []byte) (Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Tables{}, fmt.Errorf("tax: parse tables: %w", err)
	}
	exponent := int32(2)
	if f.Currency.Exponent != nil {
		exponent = *f.Currency.Exponent
	}
	t := Tables{
		Jurisdiction: f.Jurisdiction,
		Currency:     Currency{Code: f.Currency.Code, Exponent: exponent},
		PAYE:         PAYETable{Relief: decimal.NewFromFloat(f.PAYE.Relief)},
		SocialSecurity: SocialTable{
			Rate: decimal.NewFromFloat(f.SocialSecurity.Rate),
			Cap:  decimal.NewFromFloat(f.SocialSecurity.Cap),
		},
		Withholding: make(map[string]decimal.Decimal, len(f.Withholding)),
		VATRate:     decimal.NewFromFloat(f.VAT.StandardRate),
	}
	for _, b := range f.PAYE.Brackets {
		bracket := Bracket{
			Min:  decimal.NewFromFloat(b.Min),
			Rate: decimal.NewFromFloat(b.Rate),
		}
		if b.Max != nil {
			max := decimal.NewFromFloat(*b.Max)
			bracket.Max = &max
		}
		t.PAYE.Brackets = append(t.PAYE.Brackets, bracket)
	}
	for _, b := range f.Health.Bands {
		t.HealthBands = append(t.HealthBands, FlatBand{
			Min:          decimal.NewFromFloat(b.Min),
			Max:          decimal.NewFromFloat(b.Max),
			Contribution: decimal.NewFromFloat(b.Contribution),
		})
	}
	for category, rate := range f.Withholding {
		t.Withholding[category] = decimal.NewFromFloat(rate)
	}
	if err := t.Validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// Validate checks table ordering so the calculators can assume it.
func (t Tables) Validate() error {
	if t.Currency.Exponent < 0 {
		return errors.New("tax: currency exponent must be non-negative")
	}
	for i, b := range t.PAYE.Brackets {
		if b.Rate.IsNegative() {
			return fmt.Errorf("tax: paye bracket %d has negative rate", i)
		}
		if i > 0 && b.Min.LessThan(t.PAYE.Brackets[i-1].Min) {
			return fmt.Errorf("tax: paye brackets out of order at %d", i)
		}
		if b.Max != nil && b.Max.LessThanOrEqual(b.Min) {
			return fmt.Errorf("tax: paye bracket %d max not above min", i)
		}
	}
	for i, b := range t.HealthBands {
		if i > 0 && b.Min.LessThan(t.HealthBands[i-1].Min) {
			return fmt.Errorf("tax: health bands out of order at %d", i)
		}
	}
	if t.SocialSecurity.Rate.IsNegative() || t.SocialSecurity.Cap.IsNegative() {
		return errors.New("tax: social security rate and cap must be non-negative")
	}
	return nil
}

// Exponent returns the currency's minor-unit exponent. Parse defaults an
// omitted value to 2; an explicit zero is kept as configured.
func (t Tables) Exponent() int32 {
	return t.Currency.Exponent
}
