package protocol

import (
	"github.com/google/uuid"

	"hoardgen.ai/internal/sim/catalogs"
	"hoardgen.ai/internal/sim/gem"
	"hoardgen.ai/internal/sim/wine"
)

// GEM
type GemRecord struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ID              string  `json:"id"`
	RunID           string  `json:"run_id"`
	Mineral         string  `json:"mineral"`
	Cut             string  `json:"cut"`
	Size            string  `json:"size"`
	Quality         string  `json:"quality"`
	Category        int     `json:"category"`
	BaseValue       float64 `json:"base_value"`
	Value           float64 `json:"value"`
	Description     string  `json:"description"`
}

// WINE
type WineRecord struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ID              string   `json:"id"`
	RunID           string   `json:"run_id"`
	Color           string   `json:"color"`
	Container       string   `json:"container"`
	Oz              int      `json:"oz"`
	Notes           []string `json:"notes"`
	Feels           []string `json:"feels"`
	BaseValue       int      `json:"base_value"`
	TotalValue      float64  `json:"total_value"`
	Description     string   `json:"description"`
}

// ERROR
type ErrorRecord struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RunID           string `json:"run_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

// NewGemRecord captures g with one sampled value. The same value is used for
// the description so the record is self-consistent.
func NewGemRecord(runID string, g gem.Gem, value float64) GemRecord {
	return GemRecord{
		Type:            TypeGem,
		ProtocolVersion: Version,
		ID:              uuid.NewString(),
		RunID:           runID,
		Mineral:         g.MineralType.Name,
		Cut:             g.Cut.Name,
		Size:            g.Size.Name,
		Quality:         g.Quality.Name,
		Category:        g.Category(),
		BaseValue:       g.BaseValue,
		Value:           value,
		Description:     g.Describe(value),
	}
}

func NewWineRecord(runID string, w wine.Wine) WineRecord {
	return WineRecord{
		Type:            TypeWine,
		ProtocolVersion: Version,
		ID:              uuid.NewString(),
		RunID:           runID,
		Color:           string(w.Color),
		Container:       w.Container.Name,
		Oz:              w.Container.Oz,
		Notes:           names(w.Notes),
		Feels:           names(w.Feels),
		BaseValue:       w.BaseValue,
		TotalValue:      w.TotalValue(),
		Description:     w.Describe(),
	}
}

func NewErrorRecord(runID string, err error) ErrorRecord {
	return ErrorRecord{
		Type:            TypeError,
		ProtocolVersion: Version,
		RunID:           runID,
		Code:            CodeFor(err),
		Message:         err.Error(),
	}
}

func names(ts []catalogs.Trait) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

// Summary is the human-readable line for text output.
func (r GemRecord) Summary() string  { return r.Description }
func (r WineRecord) Summary() string { return r.Description }
func (r ErrorRecord) Summary() string {
	return "error " + r.Code + ": " + r.Message
}
