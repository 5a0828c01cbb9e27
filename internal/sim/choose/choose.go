// Package choose builds duplicate-free trait selections under exclusion
// pool quotas.
package choose

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"hoardgen.ai/internal/sim/catalogs"
	"hoardgen.ai/internal/sim/expool"
	"hoardgen.ai/internal/sim/weighted"
)

// ErrInfeasibleSelection is returned when fewer than the requested number of
// traits can be chosen without repeating a record or overfilling a pool.
var ErrInfeasibleSelection = errors.New("infeasible selection")

// Choose returns exactly count distinct traits drawn by weight from items.
//
// Each draw is taken over the traits that are still eligible: not chosen yet
// and not in a full pool. This is the distribution a fresh draw over the whole
// table would have once rejected draws are discarded. Accepted traits
// increment their pool in pools.
func Choose(rng *rand.Rand, items []catalogs.Trait, pools *expool.Set, count int) ([]catalogs.Trait, error) {
	if count < 0 {
		return nil, fmt.Errorf("choose: negative count %d", count)
	}
	if count == 0 {
		return []catalogs.Trait{}, nil
	}
	ws := make([]float64, len(items))
	for i, it := range items {
		ws[i] = it.Weight
	}
	if err := weighted.Validate(ws); err != nil {
		return nil, fmt.Errorf("choose: %w", err)
	}

	cands, cws := distinct(items)
	chosen := make([]bool, len(cands))
	out := make([]catalogs.Trait, 0, count)

	eligible := make([]int, 0, len(cands))
	eligibleW := make([]float64, 0, len(cands))
	for len(out) < count {
		eligible, eligibleW = eligible[:0], eligibleW[:0]
		for i, c := range cands {
			if chosen[i] || cws[i] <= 0 || pools.Blocked(c) {
				continue
			}
			eligible = append(eligible, i)
			eligibleW = append(eligibleW, cws[i])
		}
		if len(eligible) == 0 {
			return nil, fmt.Errorf("%w: want %d traits, only %d satisfy exclusion pools", ErrInfeasibleSelection, count, len(out))
		}
		k, err := weighted.Select(rng, eligibleW)
		if err != nil {
			return nil, fmt.Errorf("choose: %w", err)
		}
		i := eligible[k]
		chosen[i] = true
		out = append(out, cands[i])
		if p := pools.Lookup(cands[i]); p != nil {
			p.Increment()
		}
	}
	return out, nil
}

// MaxFeasible is the largest count Choose can satisfy for items under fresh
// pools built from the same table.
func MaxFeasible(items []catalogs.Trait) int {
	cands, cws := distinct(items)
	groups := map[string]bool{}
	n := 0
	for i, c := range cands {
		if cws[i] <= 0 {
			continue
		}
		if c.ExPool == "" {
			n++
			continue
		}
		if !groups[c.ExPool] {
			groups[c.ExPool] = true
			n++
		}
	}
	return n
}

// distinct collapses records that are equal field-for-field, summing their
// weights so each record keeps its share of the table.
func distinct(items []catalogs.Trait) ([]catalogs.Trait, []float64) {
	pos := make(map[catalogs.Trait]int, len(items))
	cands := make([]catalogs.Trait, 0, len(items))
	ws := make([]float64, 0, len(items))
	for _, it := range items {
		if i, ok := pos[it]; ok {
			ws[i] += it.Weight
			continue
		}
		pos[it] = len(cands)
		cands = append(cands, it)
		ws = append(ws, it.Weight)
	}
	return cands, ws
}
