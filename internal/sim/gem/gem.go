// Package gem generates gems from weighted reference tables and prices them
// by value category.
package gem

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"hoardgen.ai/internal/sim/catalogs"
	"hoardgen.ai/internal/sim/weighted"
)

type Gem struct {
	MineralType catalogs.GemType
	// BaseValue is drawn from the mineral's own range at generation time.
	// It is kept for data shape only; Value never reads it.
	BaseValue float64
	Cut       catalogs.GemAttribute
	Size      catalogs.GemAttribute
	Quality   catalogs.GemAttribute
}

func (g Gem) Category() int {
	return Category(g.MineralType, g.Cut, g.Size, g.Quality)
}

// Value draws a fresh worth from the gem's bracket. It is not cached:
// repeated calls give independent samples.
func (g Gem) Value(rng *rand.Rand) float64 {
	return ComputeValue(rng, g.MineralType, g.Cut, g.Size, g.Quality)
}

// Describe renders the one-line description with the given worth.
func (g Gem) Describe(value float64) string {
	return fmt.Sprintf("This is a %scut %s. It is %s sized and of %s clarity. It is worth %s GP.",
		g.Cut.Name,
		strings.ToLower(g.MineralType.Name),
		strings.ToLower(g.Size.Name),
		strings.ToLower(g.Quality.Name),
		FormatValue(value),
	)
}

func FormatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// Generator owns the four gem tables. It is not safe for concurrent use;
// it shares the caller's random source.
type Generator struct {
	cat *catalogs.GemCatalog
	rng *rand.Rand
	log *slog.Logger
}

func NewGenerator(cat *catalogs.GemCatalog, rng *rand.Rand, logger *slog.Logger) (*Generator, error) {
	if cat == nil {
		return nil, fmt.Errorf("gem: nil catalog")
	}
	if rng == nil {
		return nil, fmt.Errorf("gem: nil random source")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{cat: cat, rng: rng, log: logger.With("component", "gem")}, nil
}

func (g *Generator) Generate() (Gem, error) {
	var out Gem
	var err error
	if out.MineralType, err = weighted.Pick(g.rng, g.cat.Types.Rows, gemTypeWeight); err != nil {
		return out, fmt.Errorf("%s: %w", g.cat.Types.Name, err)
	}
	out.BaseValue = g.baseValue(out.MineralType)
	if out.Cut, err = weighted.Pick(g.rng, g.cat.Cuts.Rows, attributeWeight); err != nil {
		return out, fmt.Errorf("%s: %w", g.cat.Cuts.Name, err)
	}
	if out.Size, err = weighted.Pick(g.rng, g.cat.Sizes.Rows, attributeWeight); err != nil {
		return out, fmt.Errorf("%s: %w", g.cat.Sizes.Name, err)
	}
	if out.Quality, err = weighted.Pick(g.rng, g.cat.Qualities.Rows, attributeWeight); err != nil {
		return out, fmt.Errorf("%s: %w", g.cat.Qualities.Name, err)
	}
	g.log.Debug("generated gem", "type", out.MineralType.Name, "category", out.Category())
	return out, nil
}

// Value prices gem with the generator's random source.
func (g *Generator) Value(gem Gem) float64 { return gem.Value(g.rng) }

func (g *Generator) baseValue(t catalogs.GemType) float64 {
	if t.ValueMax <= t.ValueMin {
		return float64(t.ValueMin)
	}
	return float64(t.ValueMin + g.rng.IntN(t.ValueMax-t.ValueMin))
}

func gemTypeWeight(t catalogs.GemType) float64       { return t.Weight }
func attributeWeight(a catalogs.GemAttribute) float64 { return a.Weight }
