package trend

import "fmt"

// LongestSideways returns the longest sideways trend in prices[first..last]
// (inclusive) using divide and conquer. Among ranges of equal length the one
// found in the left half wins, then the right half, then the one crossing the
// midpoint.
func LongestSideways(maxPctChange float64, prices []int64, first, last int) Range {
	checkThreshold(maxPctChange)
	if first < 0 || last >= len(prices) || first > last {
		panic(fmt.Sprintf("trend: invalid interval [%d, %d] for %d prices", first, last, len(prices)))
	}
	return longestSideways(maxPctChange, prices, first, last)
}

func longestSideways(maxPctChange float64, prices []int64, first, last int) Range {
	if first == last {
		return Unit(first, prices)
	}

	mid := (first + last) / 2
	longest := longestSideways(maxPctChange, prices, first, mid)
	if right := longestSideways(maxPctChange, prices, mid+1, last); right.Len() > longest.Len() {
		longest = right
	}
	if crossing, ok := longestCrossing(maxPctChange, prices, first, mid+1, last); ok && crossing.Len() > longest.Len() {
		longest = crossing
	}
	return longest
}

// longestCrossing returns the longest sideways trend in prices[first..last]
// that contains both midIndex-1 and midIndex. The left side is fixed at its
// longest qualifying extension before the right side is grown, so a longer
// crossing range built from a shorter left extension is not considered. The
// second result is false when no crossing range qualifies.
func longestCrossing(maxPctChange float64, prices []int64, first, midIndex, last int) (Range, bool) {
	lower := Unit(midIndex-1, prices)
	for i := midIndex - 2; i >= first; i-- {
		extended := Merge(Unit(i, prices), lower)
		if !Qualifies(extended, maxPctChange) {
			// Spread only widens as the range grows.
			break
		}
		lower = extended
	}

	upper := Unit(midIndex, prices)
	uppers := []Range{upper}
	for i := midIndex + 1; i <= last; i++ {
		upper = Merge(upper, Unit(i, prices))
		if !Qualifies(upper, maxPctChange) {
			break
		}
		uppers = append(uppers, upper)
	}

	var best Range
	found := false
	for _, u := range uppers {
		crossing := Merge(lower, u)
		if !Qualifies(crossing, maxPctChange) {
			break
		}
		best, found = crossing, true
	}
	return best, found
}

// LongestSidewaysNaive returns the longest sideways trend in prices by
// checking every (start, end) pair. It is quadratic and serves as a reference
// for LongestSideways. Ties go to the smallest start, then the smallest end.
func LongestSidewaysNaive(maxPctChange float64, prices []int64) Range {
	checkThreshold(maxPctChange)
	if len(prices) == 0 {
		panic("trend: empty price series")
	}

	longest := Unit(0, prices)
	for i := range prices {
		r := Unit(i, prices)
		for j := i + 1; j < len(prices); j++ {
			r = Merge(r, Unit(j, prices))
			if Qualifies(r, maxPctChange) && r.Len() > longest.Len() {
				longest = r
			}
		}
	}
	return longest
}
