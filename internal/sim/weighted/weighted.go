// Package weighted draws one entry from a candidate list with probability
// proportional to its weight.
package weighted

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// ErrInvalidDistribution is returned when the weights cannot form a
// probability distribution: empty input, a negative or non-finite weight,
// or an all-zero set.
var ErrInvalidDistribution = errors.New("invalid weight distribution")

// Select returns index i with probability weights[i]/sum(weights).
// Entries with zero weight are never returned.
func Select(rng *rand.Rand, weights []float64) (int, error) {
	cum, err := cumulative(weights)
	if err != nil {
		return 0, err
	}
	total := cum[len(cum)-1]
	r := rng.Float64() * total
	// First prefix strictly greater than r; zero-width slots can never win.
	i := sort.Search(len(cum), func(i int) bool { return cum[i] > r })
	if i >= len(cum) {
		// r rounded up to total; fall back to the last positive slot.
		i = lastPositive(weights)
	}
	return i, nil
}

// Pick selects one element of items using weight to read each entry's weight.
func Pick[T any](rng *rand.Rand, items []T, weight func(T) float64) (T, error) {
	var zero T
	ws := make([]float64, len(items))
	for i, it := range items {
		ws[i] = weight(it)
	}
	i, err := Select(rng, ws)
	if err != nil {
		return zero, err
	}
	return items[i], nil
}

func cumulative(weights []float64) ([]float64, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrInvalidDistribution)
	}
	cum := make([]float64, len(weights))
	var total float64
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight[%d]=%v", ErrInvalidDistribution, i, w)
		}
		total += w
		cum[i] = total
	}
	if total <= 0 || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: total weight %v", ErrInvalidDistribution, total)
	}
	return cum, nil
}

func lastPositive(weights []float64) int {
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return len(weights) - 1
}

// Validate reports whether weights form a usable distribution.
func Validate(weights []float64) error {
	_, err := cumulative(weights)
	return err
}
