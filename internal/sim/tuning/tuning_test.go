package tuning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "hoardgen.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_ShippedConfig(t *testing.T) {
	tune, err := Load("../../../configs/hoardgen.yaml")
	require.NoError(t, err)
	assert.Equal(t, "./configs/data", tune.DataDir)
	assert.Equal(t, 19, tune.Gem.Count)
	assert.Equal(t, 1, tune.Wine.NotesMin)
	assert.Equal(t, 4, tune.Wine.NotesMaxExclusive)
	assert.Equal(t, FormatText, tune.Output.Format)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	tune, err := Load(writeYAML(t, "gem:\n  count: 3\nseed: 77\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, tune.Gem.Count)
	assert.Equal(t, int64(77), tune.Seed)
	assert.Equal(t, Defaults().Wine, tune.Wine)
	assert.Equal(t, Defaults().DataDir, tune.DataDir)
}

func TestLoad_EmptyFileIsDefaults(t *testing.T) {
	tune, err := Load(writeYAML(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), tune)
}

func TestLoad_SchemaRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "gems:\n  count: 3\n",
		"wrong type":       "seed: abc\n",
		"negative count":   "gem:\n  count: -1\n",
		"bad format":       "output:\n  format: xml\n",
		"fractional count": "wine:\n  count: 1.5\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "tuning.yaml")
		})
	}
}

func TestLoad_SemanticValidation(t *testing.T) {
	_, err := Load(writeYAML(t, "wine:\n  notes_min: 3\n  notes_max_exclusive: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notes range")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("HOARDGEN_DATA_DIR", "/srv/tables")
	t.Setenv("HOARDGEN_SEED", "1234")
	t.Setenv("HOARDGEN_INDEX_PATH", "/tmp/index.db")

	tune := Defaults()
	tune.Gem.Count = 5
	require.NoError(t, ApplyEnv(&tune))
	assert.Equal(t, "/srv/tables", tune.DataDir)
	assert.Equal(t, int64(1234), tune.Seed)
	assert.Equal(t, "/tmp/index.db", tune.Index.Path)
	assert.Equal(t, 5, tune.Gem.Count, "unset variables must not clobber file values")
	assert.Equal(t, FormatText, tune.Output.Format)
}

func TestApplyEnv_BadValue(t *testing.T) {
	t.Setenv("HOARDGEN_SEED", "not-a-number")
	tune := Defaults()
	assert.Error(t, ApplyEnv(&tune))
}

func TestNormalize(t *testing.T) {
	tune := Defaults()
	tune.Output.Format = "  JSON "
	tune.Index.Path = " idx.db "
	tune.Normalize()
	assert.Equal(t, FormatJSON, tune.Output.Format)
	assert.Equal(t, "idx.db", tune.Index.Path)
	require.NoError(t, tune.Validate())

	tune.Output.Format = ""
	tune.Normalize()
	assert.Equal(t, FormatText, tune.Output.Format)
}
