package trend

import (
	"fmt"
	"strings"

	"sideways-trend/internal/errors"
)

// Algorithm selects the search used by Find.
type Algorithm string

const (
	DivideAndConquer Algorithm = "divide"
	Naive            Algorithm = "naive"
)

// ParseAlgorithm converts a configuration or flag value to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case "", DivideAndConquer:
		return DivideAndConquer, nil
	case Naive:
		return Naive, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownAlgorithm, s)
	}
}

// Find runs the selected search over the whole price series.
func Find(alg Algorithm, maxPctChange float64, prices []int64) Range {
	if len(prices) == 0 {
		panic("trend: empty price series")
	}
	if alg == Naive {
		return LongestSidewaysNaive(maxPctChange, prices)
	}
	return LongestSideways(maxPctChange, prices, 0, len(prices)-1)
}
