package verify

import (
	"math"
	"slices"
)

// percentile returns the p-th percentile (0-100) of values using linear
// interpolation between closest ranks, the same definition numpy uses by
// default. It returns NaN for an empty slice and does not modify values.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func median(values []float64) float64 {
	return percentile(values, 50)
}
