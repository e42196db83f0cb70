package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func kenyaBrackets() []Bracket {
	max1 := decimal.NewFromInt(24000)
	max2 := decimal.NewFromInt(32333)
	return []Bracket{
		{Min: decimal.Zero, Max: &max1, Rate: decimal.NewFromInt(10)},
		{Min: max1, Max: &max2, Rate: decimal.NewFromInt(25)},
		{Min: max2, Rate: decimal.NewFromInt(30)},
	}
}

func TestProgressiveAcrossBrackets(t *testing.T) {
	relief := decimal.NewFromInt(2400)
	// 24000*10% + 8333*25% + 17667*30% - 2400
	got := Progressive(decimal.NewFromInt(50000), kenyaBrackets(), relief, 2)
	require.True(t, got.Equal(decimal.RequireFromString("7383.35")), "got %s", got)
}

func TestProgressiveReliefClipsAtZero(t *testing.T) {
	relief := decimal.NewFromInt(2400)
	got := Progressive(decimal.NewFromInt(20000), kenyaBrackets(), relief, 2)
	require.True(t, got.IsZero(), "got %s", got)
}

func TestProgressiveMonotonic(t *testing.T) {
	relief := decimal.NewFromInt(2400)
	prev := decimal.Zero
	for gross := int64(10000); gross <= 200000; gross += 10000 {
		tax := Progressive(decimal.NewFromInt(gross), kenyaBrackets(), relief, 2)
		require.True(t, tax.GreaterThanOrEqual(prev), "tax decreased at gross %d", gross)
		prev = tax
	}
}

func TestBracketedFlatBands(t *testing.T) {
	bands := []FlatBand{
		{Min: decimal.Zero, Max: decimal.NewFromInt(5999), Contribution: decimal.NewFromInt(150)},
		{Min: decimal.NewFromInt(6000), Max: decimal.NewFromInt(11999), Contribution: decimal.NewFromInt(300)},
		{Min: decimal.NewFromInt(12000), Max: decimal.NewFromInt(19999), Contribution: decimal.NewFromInt(500)},
	}
	cases := []struct {
		gross int64
		want  int64
	}{
		{0, 150},
		{5999, 150},
		{6000, 300},
		{15000, 500},
		{1000000, 500}, // above every band falls into the last one
	}
	for _, tc := range cases {
		got := BracketedFlat(decimal.NewFromInt(tc.gross), bands)
		require.True(t, got.Equal(decimal.NewFromInt(tc.want)), "gross %d: got %s", tc.gross, got)
	}
	require.True(t, BracketedFlat(decimal.NewFromInt(100), nil).IsZero())
}

func TestBracketedFlatFractionalBoundaries(t *testing.T) {
	bands := []FlatBand{
		{Min: decimal.Zero, Max: decimal.NewFromInt(5999), Contribution: decimal.NewFromInt(150)},
		{Min: decimal.NewFromInt(6000), Max: decimal.NewFromInt(11999), Contribution: decimal.NewFromInt(300)},
		{Min: decimal.NewFromInt(12000), Max: decimal.NewFromInt(19999), Contribution: decimal.NewFromInt(500)},
	}
	// A decimal salary in the gap between integer band bounds belongs to the
	// band below it, never to the top band.
	cases := []struct {
		gross string
		want  int64
	}{
		{"5999.50", 150},
		{"5999.99", 150},
		{"11999.01", 300},
		{"12000.00", 500},
	}
	for _, tc := range cases {
		got := BracketedFlat(decimal.RequireFromString(tc.gross), bands)
		require.True(t, got.Equal(decimal.NewFromInt(tc.want)), "gross %s: got %s", tc.gross, got)
	}
}

func TestCappedPercentage(t *testing.T) {
	rate := decimal.NewFromInt(6)
	cap := decimal.NewFromInt(1080)
	below := CappedPercentage(decimal.NewFromInt(10000), rate, cap, 2)
	require.True(t, below.Equal(decimal.NewFromInt(600)), "got %s", below)
	capped := CappedPercentage(decimal.NewFromInt(50000), rate, cap, 2)
	require.True(t, capped.Equal(cap), "got %s", capped)
}

func TestWithholding(t *testing.T) {
	rates := map[string]decimal.Decimal{
		"professional_fees": decimal.NewFromInt(5),
		"rent":              decimal.NewFromInt(10),
	}
	got := Withholding(decimal.NewFromInt(100000), "rent", rates, 2)
	require.True(t, got.Equal(decimal.NewFromInt(10000)), "got %s", got)

	// Unknown categories withhold nothing.
	got = Withholding(decimal.NewFromInt(100000), "royalties", rates, 2)
	require.True(t, got.IsZero(), "got %s", got)
}
