// Package wine generates wines from note, feel and container tables.
package wine

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"hoardgen.ai/internal/sim/catalogs"
	"hoardgen.ai/internal/sim/choose"
	"hoardgen.ai/internal/sim/expool"
	"hoardgen.ai/internal/sim/weighted"
)

type Color string

const (
	White Color = "white"
	Red   Color = "red"
)

var Colors = []Color{White, Red}

const BaseValue = 1

type Wine struct {
	Notes     []catalogs.Trait
	Feels     []catalogs.Trait
	Container catalogs.LiquidContainer
	BaseValue int
	Color     Color
}

// TotalValue is derived on every call, never stored.
func (w Wine) TotalValue() float64 {
	v := 1.0
	for _, n := range w.Notes {
		v *= n.ValueMod
	}
	for _, f := range w.Feels {
		v *= f.ValueMod
	}
	return v * w.Container.ValueMod * float64(w.Container.Oz) * float64(w.BaseValue)
}

func (w Wine) Describe() string {
	return fmt.Sprintf("This is a %s wine in a %s (%d oz). It has notes of %s and feels %s. It is worth %.2f GP.",
		w.Color,
		strings.ToLower(w.Container.Name),
		w.Container.Oz,
		joinNames(w.Notes),
		joinNames(w.Feels),
		w.TotalValue(),
	)
}

func joinNames(ts []catalogs.Trait) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = strings.ToLower(t.Name)
	}
	switch len(names) {
	case 0:
		return "nothing"
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

// Counts bounds how many notes and feels one wine receives: a uniform draw
// from [Min, MaxExclusive).
type Counts struct {
	NotesMin          int
	NotesMaxExclusive int
	FeelsMin          int
	FeelsMaxExclusive int
}

func DefaultCounts() Counts {
	return Counts{NotesMin: 1, NotesMaxExclusive: 4, FeelsMin: 1, FeelsMaxExclusive: 4}
}

func (c Counts) Validate() error {
	if c.NotesMin < 0 || c.NotesMaxExclusive <= c.NotesMin {
		return fmt.Errorf("notes range [%d, %d) is empty", c.NotesMin, c.NotesMaxExclusive)
	}
	if c.FeelsMin < 0 || c.FeelsMaxExclusive <= c.FeelsMin {
		return fmt.Errorf("feels range [%d, %d) is empty", c.FeelsMin, c.FeelsMaxExclusive)
	}
	return nil
}

// Generator owns the wine tables. It is not safe for concurrent use.
type Generator struct {
	cat    *catalogs.WineCatalog
	counts Counts
	rng    *rand.Rand
	log    *slog.Logger
}

func NewGenerator(cat *catalogs.WineCatalog, counts Counts, rng *rand.Rand, logger *slog.Logger) (*Generator, error) {
	if cat == nil {
		return nil, fmt.Errorf("wine: nil catalog")
	}
	if rng == nil {
		return nil, fmt.Errorf("wine: nil random source")
	}
	if err := counts.Validate(); err != nil {
		return nil, fmt.Errorf("wine: %w", err)
	}
	if err := feasible(cat.Notes, counts.NotesMaxExclusive-1); err != nil {
		return nil, err
	}
	if err := feasible(cat.Feels, counts.FeelsMaxExclusive-1); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{cat: cat, counts: counts, rng: rng, log: logger.With("component", "wine")}, nil
}

func (g *Generator) Generate() (Wine, error) {
	w := Wine{BaseValue: BaseValue}
	var err error
	if w.Container, err = weighted.Pick(g.rng, g.cat.Containers.Rows, containerWeight); err != nil {
		return w, fmt.Errorf("%s: %w", g.cat.Containers.Name, err)
	}

	notePools := g.pools(g.cat.Notes)
	feelPools := g.pools(g.cat.Feels)

	nNotes := g.draw(g.counts.NotesMin, g.counts.NotesMaxExclusive)
	if w.Notes, err = choose.Choose(g.rng, g.cat.Notes.Rows, notePools, nNotes); err != nil {
		return w, fmt.Errorf("%s: %w", g.cat.Notes.Name, err)
	}
	nFeels := g.draw(g.counts.FeelsMin, g.counts.FeelsMaxExclusive)
	if w.Feels, err = choose.Choose(g.rng, g.cat.Feels.Rows, feelPools, nFeels); err != nil {
		return w, fmt.Errorf("%s: %w", g.cat.Feels.Name, err)
	}
	w.Color = Colors[g.rng.IntN(len(Colors))]
	return w, nil
}

// feasible rejects a table that cannot supply the largest count the
// generator may draw for it under fresh exclusion pools.
func feasible(t catalogs.Table[catalogs.Trait], most int) error {
	if n := choose.MaxFeasible(t.Rows); most > n {
		return fmt.Errorf("wine: %s: up to %d traits requested, at most %d fit the exclusion pools: %w",
			t.Name, most, n, choose.ErrInfeasibleSelection)
	}
	return nil
}

// pools builds the session-scoped exclusion pools for one table.
func (g *Generator) pools(t catalogs.Table[catalogs.Trait]) *expool.Set {
	s := expool.Build(t.Rows)
	for _, name := range s.Names() {
		g.log.Debug("created pool", "table", t.Name, "pool", name)
	}
	return s
}

func (g *Generator) draw(lo, hiExclusive int) int {
	return lo + g.rng.IntN(hiExclusive-lo)
}

func containerWeight(c catalogs.LiquidContainer) float64 { return c.Weight }
