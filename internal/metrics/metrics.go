// Package metrics defines the Prometheus collectors a graph updates as it
// is mutated.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

// Operation label values.
const (
	OpAddNode = "add_node"
	OpDelNode = "del_node"
	OpAddEdge = "add_edge"
	OpDelEdge = "del_edge"
)

// Graph holds the collectors for one graph. A nil *Graph is valid and
// records nothing.
type Graph struct {
	// Nodes tracks the number of live nodes.
	Nodes prometheus.Gauge

	// Edges tracks the number of live hyperlinks.
	Edges prometheus.Gauge

	// Operations counts mutations by operation and result.
	Operations *prometheus.CounterVec
}

// NewGraph creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewGraph(reg prometheus.Registerer) (*Graph, error) {
	m := &Graph{
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linkgraph_nodes",
			Help: "Number of live nodes in the graph",
		}),
		Edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linkgraph_edges",
			Help: "Number of live hyperlinks in the graph",
		}),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkgraph_operations_total",
				Help: "Graph mutations by operation and result",
			},
			[]string{"op", "result"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Nodes, m.Edges, m.Operations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe counts one operation outcome.
func (m *Graph) Observe(op string, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, Result(err)).Inc()
}

// SetCounts updates the size gauges.
func (m *Graph) SetCounts(nodes, edges int) {
	if m == nil {
		return
	}
	m.Nodes.Set(float64(nodes))
	m.Edges.Set(float64(edges))
}

// Result maps an operation error to its result label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, types.ErrNotFound):
		return "not_found"
	case errors.Is(err, types.ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, types.ErrAlreadyInserted):
		return "already_inserted"
	default:
		return "error"
	}
}
