package tuning

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"hoardgen.ai/internal/sim/wine"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Tuning struct {
	DataDir string `yaml:"data_dir" json:"data_dir" env:"HOARDGEN_DATA_DIR"`
	// Seed 0 derives a seed from the clock.
	Seed int64 `yaml:"seed" json:"seed" env:"HOARDGEN_SEED"`

	Gem     GemTuning     `yaml:"gem" json:"gem"`
	Wine    WineTuning    `yaml:"wine" json:"wine"`
	Output  OutputTuning  `yaml:"output" json:"output"`
	Index   IndexTuning   `yaml:"index" json:"index"`
	Metrics MetricsTuning `yaml:"metrics" json:"metrics"`
}

type GemTuning struct {
	Count int `yaml:"count" json:"count"`
}

type WineTuning struct {
	Count             int `yaml:"count" json:"count"`
	NotesMin          int `yaml:"notes_min" json:"notes_min"`
	NotesMaxExclusive int `yaml:"notes_max_exclusive" json:"notes_max_exclusive"`
	FeelsMin          int `yaml:"feels_min" json:"feels_min"`
	FeelsMaxExclusive int `yaml:"feels_max_exclusive" json:"feels_max_exclusive"`
}

type OutputTuning struct {
	Format string `yaml:"format" json:"format" env:"HOARDGEN_OUTPUT_FORMAT"`
	// Path "" writes to stdout. A .zst suffix compresses the stream.
	Path string `yaml:"path" json:"path" env:"HOARDGEN_OUTPUT_PATH"`
}

type IndexTuning struct {
	// Path "" disables the catalog index.
	Path string `yaml:"path" json:"path" env:"HOARDGEN_INDEX_PATH"`
}

type MetricsTuning struct {
	Textfile string `yaml:"textfile" json:"textfile" env:"HOARDGEN_METRICS_TEXTFILE"`
}

func Defaults() Tuning {
	c := wine.DefaultCounts()
	return Tuning{
		DataDir: "./configs/data",
		Gem:     GemTuning{Count: 19},
		Wine: WineTuning{
			Count:             1,
			NotesMin:          c.NotesMin,
			NotesMaxExclusive: c.NotesMaxExclusive,
			FeelsMin:          c.FeelsMin,
			FeelsMaxExclusive: c.FeelsMaxExclusive,
		},
		Output: OutputTuning{Format: FormatText},
	}
}

//go:embed tuning.schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("tuning.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

// Load reads a hoardgen.yaml on top of Defaults. Unknown keys and wrongly
// typed values are rejected by the embedded schema before decoding.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := validateRaw(raw); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func validateRaw(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	// Round-trip through JSON so the validator sees JSON types only.
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	return s.Validate(v)
}

// ApplyEnv overrides t with any HOARDGEN_* variables that are set.
func ApplyEnv(t *Tuning) error {
	if err := env.Parse(t); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	t.DataDir = strings.TrimSpace(t.DataDir)
	t.Output.Format = strings.ToLower(strings.TrimSpace(t.Output.Format))
	if t.Output.Format == "" {
		t.Output.Format = FormatText
	}
	t.Output.Path = strings.TrimSpace(t.Output.Path)
	t.Index.Path = strings.TrimSpace(t.Index.Path)
	t.Metrics.Textfile = strings.TrimSpace(t.Metrics.Textfile)
}

func (t Tuning) Validate() error {
	t.Normalize()
	if t.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if t.Gem.Count < 0 {
		return fmt.Errorf("gem.count must be >= 0")
	}
	if t.Wine.Count < 0 {
		return fmt.Errorf("wine.count must be >= 0")
	}
	if err := t.WineCounts().Validate(); err != nil {
		return fmt.Errorf("wine: %w", err)
	}
	switch t.Output.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("output.format %q must be %q or %q", t.Output.Format, FormatText, FormatJSON)
	}
	return nil
}

func (t Tuning) WineCounts() wine.Counts {
	return wine.Counts{
		NotesMin:          t.Wine.NotesMin,
		NotesMaxExclusive: t.Wine.NotesMaxExclusive,
		FeelsMin:          t.Wine.FeelsMin,
		FeelsMaxExclusive: t.Wine.FeelsMaxExclusive,
	}
}
