package gem

import (
	"math/rand/v2"

	"hoardgen.ai/internal/sim/catalogs"
)

const (
	// Categories below WorthlessBelow draw from the flat trinket range.
	WorthlessBelow = 6
	MaxCategory    = 17

	worthlessMin = 0.1
	worthlessMax = 5.0
)

// Bracket is a half-open [Min, Max) range of whole gold pieces.
type Bracket struct {
	Min int
	Max int
}

func (b Bracket) Empty() bool { return b.Max <= b.Min }

// brackets is indexed by value category. 0-4 are unreachable behind the
// worthless short-circuit but keep the indexes aligned.
var brackets = [MaxCategory + 1]Bracket{
	{1, 1}, {1, 1}, {1, 1}, {1, 1}, {1, 1},
	{1, 25},
	{25, 75},
	{75, 250},
	{250, 750},
	{750, 2500},
	{2500, 10000},
	{10000, 20000},
	{20000, 40000},
	{40000, 80000},
	{80000, 200000},
	{200000, 400000},
	{400000, 800000},
	{800000, 1000000},
}

// Category sums the mineral's base category and the three attribute deltas.
func Category(t catalogs.GemType, cut, size, quality catalogs.GemAttribute) int {
	return t.ValueCategory + cut.ValueCategoryDelta + size.ValueCategoryDelta + quality.ValueCategoryDelta
}

// BracketFor returns the range a category samples from, after clamping.
// ok is false for categories that fall in the worthless range.
func BracketFor(category int) (b Bracket, ok bool) {
	if category < WorthlessBelow {
		return Bracket{}, false
	}
	if category > MaxCategory {
		category = MaxCategory
	}
	return brackets[category], true
}

// ComputeValue samples a monetary value for the attribute combination.
// Every call is an independent draw.
func ComputeValue(rng *rand.Rand, t catalogs.GemType, cut, size, quality catalogs.GemAttribute) float64 {
	return SampleCategory(rng, Category(t, cut, size, quality))
}

func SampleCategory(rng *rand.Rand, category int) float64 {
	b, ok := BracketFor(category)
	if !ok {
		return worthlessMin + rng.Float64()*(worthlessMax-worthlessMin)
	}
	return float64(b.Min + rng.IntN(b.Max-b.Min))
}
