package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoardgen.ai/internal/protocol"
	"hoardgen.ai/internal/sim/choose"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Generated("gem", 120)
	m.Generated("gem", 3)
	m.Generated("wine", 14.2)
	m.Failed("wine", choose.ErrInfeasibleSelection)
	m.Failed("wine", nil)
	m.TableRows("gem_types.csv", 10)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.generated.WithLabelValues("gem")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generated.WithLabelValues("wine")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("wine", protocol.ErrInfeasible)))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.tableRows.WithLabelValues("gem_types.csv")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Generated("gem", 42)
	m.Failed("gem", errors.New("boom"))

	path := filepath.Join(t.TempDir(), "hoardgen.prom")
	require.NoError(t, m.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `hoardgen_items_generated_total{kind="gem"} 1`)
	assert.Contains(t, out, `hoardgen_generation_failures_total{code="E_INTERNAL",kind="gem"} 1`)
	assert.Contains(t, out, "hoardgen_item_value_gp_bucket")

	assert.NoError(t, m.WriteTextfile(""))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Generated("gem", 1)
	m.Failed("gem", errors.New("x"))
	m.TableRows("t", 1)
	assert.NoError(t, m.WriteTextfile("ignored"))
}
