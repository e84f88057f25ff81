// Package metrics exposes registry activity as Prometheus metrics.
//
// Metrics collected:
//   - nftreg_operations_total: operations by op and outcome ("ok", an error
//     code, or "error")
//   - nftreg_events_total: committed notifications by kind
//   - nftreg_total_supply: tokens in existence after the last commit
package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/registry"
)

// Namespace prefixes every metric name.
const Namespace = "nftreg"

var (
	_ registry.Recorder = (*Collector)(nil)
	_ registry.Observer = (*Collector)(nil)
)

// Collector records registry operations. It implements registry.Recorder
// and registry.Observer; pass it to both WithRecorder and WithObserver.
type Collector struct {
	gatherer   prometheus.Gatherer
	operations *prometheus.CounterVec
	events     *prometheus.CounterVec
	supply     prometheus.Gauge
}

// New registers the collector's metrics with a fresh registry.
func New() *Collector {
	return NewWith(prometheus.NewRegistry())
}

// NewWith registers the collector's metrics with reg.
func NewWith(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		gatherer: reg,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Registry operations by operation and outcome",
		}, []string{"op", "outcome"}),

		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_total",
			Help:      "Committed registry notifications by kind",
		}, []string{"kind"}),

		supply: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "total_supply",
			Help:      "Tokens currently in existence",
		}),
	}
}

// ObserveOperation implements registry.Recorder.
func (c *Collector) ObserveOperation(op, outcome string) {
	c.operations.WithLabelValues(op, outcome).Inc()
}

// SetSupply implements registry.Recorder.
func (c *Collector) SetSupply(total uint64) {
	c.supply.Set(float64(total))
}

// Notify implements registry.Observer.
func (c *Collector) Notify(ev ir.Event) {
	c.events.WithLabelValues(string(ev.Kind)).Inc()
}

// Gatherer returns the registry the metrics are registered with.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.gatherer
}

// OperationCount is one op/outcome counter value.
type OperationCount struct {
	Op      string `json:"op"`
	Outcome string `json:"outcome"`
	Count   uint64 `json:"count"`
}

// Stats is a point-in-time summary of the collected metrics.
type Stats struct {
	Operations []OperationCount `json:"operations"`
	Events     map[string]uint64 `json:"events"`
	Supply     uint64            `json:"total_supply"`
}

// Stats gathers the current metric values.
func (c *Collector) Stats() (Stats, error) {
	families, err := c.gatherer.Gather()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Events: make(map[string]uint64)}
	for _, mf := range families {
		switch mf.GetName() {
		case Namespace + "_operations_total":
			for _, m := range mf.GetMetric() {
				labels := make(map[string]string, len(m.GetLabel()))
				for _, lp := range m.GetLabel() {
					labels[lp.GetName()] = lp.GetValue()
				}
				stats.Operations = append(stats.Operations, OperationCount{
					Op:      labels["op"],
					Outcome: labels["outcome"],
					Count:   uint64(m.GetCounter().GetValue()),
				})
			}
		case Namespace + "_events_total":
			for _, m := range mf.GetMetric() {
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "kind" {
						stats.Events[lp.GetValue()] = uint64(m.GetCounter().GetValue())
					}
				}
			}
		case Namespace + "_total_supply":
			for _, m := range mf.GetMetric() {
				stats.Supply = uint64(m.GetGauge().GetValue())
			}
		}
	}

	sort.Slice(stats.Operations, func(i, j int) bool {
		a, b := stats.Operations[i], stats.Operations[j]
		if a.Op != b.Op {
			return a.Op < b.Op
		}
		return a.Outcome < b.Outcome
	})
	return stats, nil
}
