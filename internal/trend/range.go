// Package trend finds sideways trends in closing-price series.
package trend

import (
	"fmt"
	"math"
)

// Range is a closed index interval [First, Last] over a price series together
// with the lowest and highest price observed inside it. Prices are integer
// minor units (cents).
type Range struct {
	First int   `json:"first_index"`
	Last  int   `json:"last_index"`
	Low   int64 `json:"low_price"`
	High  int64 `json:"high_price"`
}

// Unit returns the length-1 range at index i.
func Unit(i int, prices []int64) Range {
	if i < 0 || i >= len(prices) {
		panic(fmt.Sprintf("trend: index %d out of bounds [0, %d)", i, len(prices)))
	}
	p := prices[i]
	if p <= 0 {
		panic(fmt.Sprintf("trend: price at index %d must be positive, got %d", i, p))
	}
	return Range{First: i, Last: i, Low: p, High: p}
}

// Len returns the number of trading days covered by r.
func (r Range) Len() int {
	return r.Last - r.First + 1
}

// Merge combines two adjacent ranges into the range spanning both. Either
// argument may come first in index order.
func Merge(a, b Range) Range {
	if b.First != a.Last+1 && a.First != b.Last+1 {
		panic(fmt.Sprintf("trend: cannot merge non-adjacent ranges [%d,%d] and [%d,%d]",
			a.First, a.Last, b.First, b.Last))
	}
	return Range{
		First: min(a.First, b.First),
		Last:  max(a.Last, b.Last),
		Low:   min(a.Low, b.Low),
		High:  max(a.High, b.High),
	}
}

// SpreadPercent returns the spread of r as a percentage of its low price.
func SpreadPercent(r Range) float64 {
	return 100 * float64(r.High-r.Low) / float64(r.Low)
}

// Qualifies reports whether r is a sideways trend, i.e. its high is within
// maxPctChange percent of its low.
func Qualifies(r Range, maxPctChange float64) bool {
	return SpreadPercent(r) <= maxPctChange
}

func checkThreshold(maxPctChange float64) {
	if math.IsNaN(maxPctChange) || math.IsInf(maxPctChange, 0) || maxPctChange < 0 {
		panic(fmt.Sprintf("trend: max percent change must be finite and non-negative, got %v", maxPctChange))
	}
}
