package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoardgen.ai/internal/sim/catalogs"
	"hoardgen.ai/internal/sim/choose"
	"hoardgen.ai/internal/sim/gem"
	"hoardgen.ai/internal/sim/weighted"
	"hoardgen.ai/internal/sim/wine"
)

var sampleGem = gem.Gem{
	MineralType: catalogs.GemType{Name: "Ruby", ValueMin: 2000, ValueMax: 8000, ValueCategory: 12, Weight: 2},
	BaseValue:   4321,
	Cut:         catalogs.GemAttribute{Name: "brilliant-", ValueCategoryDelta: 2, Weight: 3},
	Size:        catalogs.GemAttribute{Name: "Small", ValueCategoryDelta: -1, Weight: 14},
	Quality:     catalogs.GemAttribute{Name: "Clear", ValueCategoryDelta: 0, Weight: 10},
}

var sampleWine = wine.Wine{
	Notes:     []catalogs.Trait{{Name: "cherry", ValueMod: 1.1, Weight: 1}, {Name: "oak", ValueMod: 0.9, Weight: 1, ExPool: "wood"}},
	Feels:     []catalogs.Trait{{Name: "dry", ValueMod: 1.0, Weight: 1}},
	Container: catalogs.LiquidContainer{Name: "glass bottle", ValueMod: 1.2, Weight: 1, Oz: 12},
	BaseValue: 1,
	Color:     wine.Red,
}

func TestGemRecord(t *testing.T) {
	run := uuid.NewString()
	rec := NewGemRecord(run, sampleGem, 25000)
	assert.Equal(t, TypeGem, rec.Type)
	assert.Equal(t, run, rec.RunID)
	assert.Equal(t, 13, rec.Category)
	assert.Equal(t, 4321.0, rec.BaseValue)
	assert.Contains(t, rec.Description, "worth 25000 GP")
	_, err := uuid.Parse(rec.ID)
	require.NoError(t, err)

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, Validate(b))

	base, err := DecodeBase(b)
	require.NoError(t, err)
	assert.Equal(t, BaseRecord{Type: TypeGem, ProtocolVersion: Version}, base)
}

func TestWineRecord(t *testing.T) {
	rec := NewWineRecord("run-1", sampleWine)
	assert.Equal(t, []string{"cherry", "oak"}, rec.Notes)
	assert.Equal(t, []string{"dry"}, rec.Feels)
	assert.Equal(t, "red", rec.Color)
	assert.InDelta(t, 14.256, rec.TotalValue, 1e-9)

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, Validate(b))
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"unknown type":  `{"type":"SWORD","protocol_version":"1.0"}`,
		"missing field": `{"type":"GEM","protocol_version":"1.0","id":"x"}`,
		"bad color":     `{"type":"WINE","protocol_version":"1.0","id":"x","run_id":"r","color":"rose","container":"jug","oz":1,"notes":[],"feels":[],"base_value":1,"total_value":1,"description":""}`,
		"not json":      `{`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			err := Validate([]byte(line))
			var se *SchemaError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, ErrSchema, CodeFor(err))
		})
	}
}

func TestCodeFor(t *testing.T) {
	dle := &catalogs.DataLoadError{Table: "gem_types.csv", Err: catalogs.ErrEmptyTable}
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("load: %w", dle), ErrDataLoad},
		{fmt.Errorf("pick: %w", weighted.ErrInvalidDistribution), ErrInvalidDistribution},
		{fmt.Errorf("notes: %w", choose.ErrInfeasibleSelection), ErrInfeasible},
		{errors.New("boom"), ErrInternal},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CodeFor(c.err))
	}
}

func TestErrorRecord(t *testing.T) {
	rec := NewErrorRecord("run-2", fmt.Errorf("feels: %w", choose.ErrInfeasibleSelection))
	assert.Equal(t, ErrInfeasible, rec.Code)

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, Validate(b))
}
