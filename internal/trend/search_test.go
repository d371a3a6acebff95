package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sideways-trend/internal/errors"
)

func TestUnit(t *testing.T) {
	prices := []int64{1050, 990, 1010}

	r := Unit(1, prices)
	assert.Equal(t, Range{First: 1, Last: 1, Low: 990, High: 990}, r)
	assert.Equal(t, 1, r.Len())
	assert.True(t, Qualifies(r, 0))

	assert.Panics(t, func() { Unit(3, prices) })
	assert.Panics(t, func() { Unit(-1, prices) })
	assert.Panics(t, func() { Unit(0, []int64{0}) })
}

func TestMerge(t *testing.T) {
	prices := []int64{100, 120, 90, 110}

	a := Merge(Unit(0, prices), Unit(1, prices))
	assert.Equal(t, Range{First: 0, Last: 1, Low: 100, High: 120}, a)

	// Descending order of arguments.
	b := Merge(Unit(3, prices), Unit(2, prices))
	assert.Equal(t, Range{First: 2, Last: 3, Low: 90, High: 110}, b)

	all := Merge(a, b)
	assert.Equal(t, Range{First: 0, Last: 3, Low: 90, High: 120}, all)
	assert.Equal(t, 4, all.Len())

	// Inputs are left untouched.
	assert.Equal(t, Range{First: 0, Last: 1, Low: 100, High: 120}, a)

	assert.Panics(t, func() { Merge(Unit(0, prices), Unit(2, prices)) })
	assert.Panics(t, func() { Merge(a, a) })
}

func TestQualifies(t *testing.T) {
	tests := []struct {
		name   string
		r      Range
		maxPct float64
		want   bool
	}{
		{"flat", Range{0, 3, 100, 100}, 0, true},
		{"exactly at limit", Range{0, 1, 100, 105}, 5, true},
		{"just over limit", Range{0, 1, 100, 106}, 5, false},
		{"relative to low", Range{0, 1, 90, 99}, 10, true},
		{"large threshold", Range{0, 9, 100, 200}, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Qualifies(tt.r, tt.maxPct))
		})
	}
}

func TestSpreadPercent(t *testing.T) {
	assert.InDelta(t, 0.0, SpreadPercent(Range{0, 0, 500, 500}), 1e-9)
	assert.InDelta(t, 8.0, SpreadPercent(Range{2, 3, 100, 108}), 1e-9)
	assert.InDelta(t, 12.5, SpreadPercent(Range{0, 4, 800, 900}), 1e-9)
}

func TestLongestSideways(t *testing.T) {
	tests := []struct {
		name   string
		prices []int64
		maxPct float64
		want   Range
	}{
		{
			name:   "single price",
			prices: []int64{4200},
			maxPct: 5,
			want:   Range{First: 0, Last: 0, Low: 4200, High: 4200},
		},
		{
			name:   "flat series",
			prices: []int64{100, 100, 100, 100, 100},
			maxPct: 0,
			want:   Range{First: 0, Last: 4, Low: 100, High: 100},
		},
		{
			// Every day-over-day move is above 5%.
			name:   "strict uptrend",
			prices: []int64{100, 106, 112, 118, 124},
			maxPct: 5,
			want:   Range{First: 0, Last: 0, Low: 100, High: 100},
		},
		{
			name:   "two qualifying pairs keep the first",
			prices: []int64{100, 104, 112, 116, 124},
			maxPct: 5,
			want:   Range{First: 0, Last: 1, Low: 100, High: 104},
		},
		{
			name:   "everything qualifies",
			prices: []int64{150, 100, 200, 120, 180, 110},
			maxPct: 100,
			want:   Range{First: 0, Last: 5, Low: 100, High: 200},
		},
		{
			name:   "plateau in the middle",
			prices: []int64{500, 100, 101, 102, 101, 100, 300},
			maxPct: 2,
			want:   Range{First: 1, Last: 5, Low: 100, High: 102},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LongestSideways(tt.maxPct, tt.prices, 0, len(tt.prices)-1)
			assert.Equal(t, tt.want, got)

			naive := LongestSidewaysNaive(tt.maxPct, tt.prices)
			assert.Equal(t, tt.want, naive)
		})
	}
}

func TestLongestSideways_SubInterval(t *testing.T) {
	prices := []int64{100, 100, 100, 300, 300, 300, 300}

	got := LongestSideways(0, prices, 0, 3)
	assert.Equal(t, Range{First: 0, Last: 2, Low: 100, High: 100}, got)

	got = LongestSideways(0, prices, 3, 6)
	assert.Equal(t, Range{First: 3, Last: 6, Low: 300, High: 300}, got)
}

func TestLongestSideways_ContractViolations(t *testing.T) {
	prices := []int64{100, 101}

	assert.Panics(t, func() { LongestSideways(5, prices, 1, 0) })
	assert.Panics(t, func() { LongestSideways(5, prices, 0, 2) })
	assert.Panics(t, func() { LongestSideways(5, nil, 0, 0) })
	assert.Panics(t, func() { LongestSideways(-1, prices, 0, 1) })
	assert.Panics(t, func() { LongestSidewaysNaive(5, nil) })
	assert.Panics(t, func() { LongestSideways(5, []int64{100, -3}, 0, 1) })
}

// The left extension is fixed at its longest qualifying length before the
// right side is grown. Here [0,1] is the longest left extension, and paired
// with anything on the right it exceeds 10%, while [1,3] qualifies.
func TestLongestSideways_FixedLeftExtensionMissesLongerCrossing(t *testing.T) {
	prices := []int64{90, 99, 100, 108}

	crossing, ok := longestCrossing(10, prices, 0, 2, 3)
	assert.False(t, ok, "crossing = %+v", crossing)

	got := LongestSideways(10, prices, 0, len(prices)-1)
	assert.Equal(t, Range{First: 0, Last: 1, Low: 90, High: 99}, got)

	naive := LongestSidewaysNaive(10, prices)
	assert.Equal(t, Range{First: 1, Last: 3, Low: 99, High: 108}, naive)
	assert.True(t, Qualifies(naive, 10))
}

func TestLongestCrossing(t *testing.T) {
	prices := []int64{300, 100, 102, 101, 103, 400}

	got, ok := longestCrossing(3, prices, 0, 3, 5)
	require.True(t, ok)
	assert.Equal(t, Range{First: 1, Last: 4, Low: 100, High: 103}, got)

	// Even the two days around the split are too far apart.
	_, ok = longestCrossing(3, []int64{100, 200}, 0, 1, 1)
	assert.False(t, ok)
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, DivideAndConquer, alg)

	alg, err = ParseAlgorithm(" Naive ")
	require.NoError(t, err)
	assert.Equal(t, Naive, alg)

	_, err = ParseAlgorithm("greedy")
	assert.True(t, errors.Is(err, errors.ErrUnknownAlgorithm))
}

func TestFind(t *testing.T) {
	prices := []int64{90, 99, 100, 108}

	assert.Equal(t, 2, Find(DivideAndConquer, 10, prices).Len())
	assert.Equal(t, 3, Find(Naive, 10, prices).Len())
	assert.Panics(t, func() { Find(Naive, 10, nil) })
}
