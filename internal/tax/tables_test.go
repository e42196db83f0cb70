package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
jurisdiction: KE
currency:
  code: KES
  exponent: 2
paye:
  relief: 2400
  brackets:
    - { min: 0, max: 24000, rate: 10 }
    - { min: 24000, max: 32333, rate: 25 }
    - { min: 32333, rate: 30 }
social_security:
  rate: 6
  cap: 1080
health:
  bands:
    - { min: 0, max: 5999, contribution: 150 }
    - { min: 6000, max: 11999, contribution: 300 }
withholding:
  rent: 10
vat:
  standard_rate: 16
`

func TestParseTables(t *testing.T) {
	tables, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.Equal(t, "KE", tables.Jurisdiction)
	require.Equal(t, int32(2), tables.Exponent())
	require.Len(t, tables.PAYE.Brackets, 3)
	require.Nil(t, tables.PAYE.Brackets[2].Max)
	require.Len(t, tables.HealthBands, 2)
	require.True(t, tables.VATRate.Equal(decimal.NewFromInt(16)))
	require.True(t, tables.Withholding["rent"].Equal(decimal.NewFromInt(10)))
}

func TestParseRejectsUnorderedBrackets(t *testing.T) {
	bad := `
paye:
  brackets:
    - { min: 24000, max: 32333, rate: 25 }
    - { min: 0, max: 24000, rate: 10 }
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
}

func TestParseRejectsInvertedBracket(t *testing.T) {
	bad := `
paye:
  brackets:
    - { min: 24000, max: 10000, rate: 10 }
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
}

func TestExponentDefaultsToTwo(t *testing.T) {
	tables, err := Parse([]byte("jurisdiction: XX"))
	require.NoError(t, err)
	require.Equal(t, int32(2), tables.Exponent())
}

func TestExponentExplicitZeroKept(t *testing.T) {
	tables, err := Parse([]byte("currency:\n  code: JPY\n  exponent: 0\n"))
	require.NoError(t, err)
	require.Equal(t, int32(0), tables.Exponent())
}
