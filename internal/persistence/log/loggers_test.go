package log

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoardgen.ai/internal/protocol"
	"hoardgen.ai/internal/sim/catalogs"
	"hoardgen.ai/internal/sim/gem"
)

var ruby = gem.Gem{
	MineralType: catalogs.GemType{Name: "Ruby", ValueMin: 2000, ValueMax: 8000, ValueCategory: 12, Weight: 2},
	BaseValue:   2500,
	Cut:         catalogs.GemAttribute{Name: "step-", ValueCategoryDelta: 1, Weight: 1},
	Size:        catalogs.GemAttribute{Name: "Medium", Weight: 1},
	Quality:     catalogs.GemAttribute{Name: "Clear", Weight: 1},
}

func TestRecordWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewRecordWriter(&buf, FormatText, false)
	require.NoError(t, err)
	require.NoError(t, w.Write(protocol.NewGemRecord("run", ruby, 50000)))
	require.NoError(t, w.Close())

	assert.Equal(t, "This is a step-cut ruby. It is medium sized and of clear clarity. It is worth 50000 GP.\n", buf.String())
	assert.Error(t, w.Write(protocol.NewGemRecord("run", ruby, 1)), "closed writer must refuse writes")
}

func TestRecordWriter_JSONLZstdRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "gems.jsonl.zst")
	w, err := Open(path, FormatJSON)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Write(protocol.NewGemRecord("run-7", ruby, float64(40000+i))))
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	lines, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	for i, l := range lines {
		require.NoError(t, protocol.Validate(l))
		var rec protocol.GemRecord
		require.NoError(t, json.Unmarshal(l, &rec))
		assert.Equal(t, "run-7", rec.RunID)
		assert.Equal(t, float64(40000+i), rec.Value)
	}
}

func TestRecordWriter_PlainJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gems.jsonl")
	w, err := Open(path, FormatJSON)
	require.NoError(t, err)
	require.NoError(t, w.Write(protocol.NewGemRecord("run", ruby, 1)))
	require.NoError(t, w.Close())

	lines, err := ReadJSONL(path)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(string(lines[0]), `{"type":"GEM"`))
}

func TestRecordWriter_RejectsInvalidRecord(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewRecordWriter(&buf, FormatJSON, false)
	require.NoError(t, err)
	bad := protocol.NewGemRecord("run", ruby, 1)
	bad.Mineral = ""
	err = w.Write(bad)
	require.Error(t, err)
	assert.Equal(t, protocol.ErrSchema, protocol.CodeFor(err))
}

func TestNewRecordWriter_UnknownFormat(t *testing.T) {
	_, err := NewRecordWriter(&bytes.Buffer{}, "xml", false)
	assert.Error(t, err)
}
