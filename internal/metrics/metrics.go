// Package metrics counts generation activity for one process and can dump it
// in the node_exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"hoardgen.ai/internal/protocol"
)

type Metrics struct {
	reg *prometheus.Registry

	generated *prometheus.CounterVec
	failures  *prometheus.CounterVec
	value     *prometheus.HistogramVec
	tableRows *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hoardgen",
			Name:      "items_generated_total",
			Help:      "Items generated, by kind.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hoardgen",
			Name:      "generation_failures_total",
			Help:      "Failed generations, by kind and error code.",
		}, []string{"kind", "code"}),
		value: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hoardgen",
			Name:      "item_value_gp",
			Help:      "Sampled item value in gold pieces.",
			Buckets:   []float64{5, 25, 75, 250, 750, 2500, 10000, 20000, 40000, 80000, 200000, 400000, 800000, 1000000},
		}, []string{"kind"}),
		tableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hoardgen",
			Name:      "catalog_rows",
			Help:      "Rows loaded per reference table.",
		}, []string{"table"}),
	}
	m.reg.MustRegister(m.generated, m.failures, m.value, m.tableRows)
	return m
}

func (m *Metrics) Generated(kind string, value float64) {
	if m == nil {
		return
	}
	m.generated.WithLabelValues(kind).Inc()
	m.value.WithLabelValues(kind).Observe(value)
}

func (m *Metrics) Failed(kind string, err error) {
	if m == nil || err == nil {
		return
	}
	m.failures.WithLabelValues(kind, protocol.CodeFor(err)).Inc()
}

func (m *Metrics) TableRows(table string, n int) {
	if m == nil {
		return
	}
	m.tableRows.WithLabelValues(table).Set(float64(n))
}

// WriteTextfile writes the current values to path. An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
