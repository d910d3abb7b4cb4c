// Package linkgraph is the public entry point for building graph stores.
// It wires a types.Config onto the adjacency implementation while keeping
// that implementation internal.
//
// Example:
//
//	g, err := linkgraph.New(types.Config{FatalPolicy: types.FatalExit},
//	    linkgraph.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	a, _ := g.AddNode(types.NewNode("A"))
package linkgraph

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/linkgraph/internal/adjacency"
	"github.com/mesh-intelligence/linkgraph/internal/fatal"
	"github.com/mesh-intelligence/linkgraph/internal/metrics"
	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

// Version is the linkgraph release.
const Version = "0.1.0"

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger for debug mutation logs and fatal reports.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegisterer sets where collectors are registered when cfg.Metrics is
// on. Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// New returns an empty graph configured by cfg.
func New(cfg types.Config, opts ...Option) (types.Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	gopts := []adjacency.Option{
		adjacency.WithLogger(o.logger),
		adjacency.WithFatalReporter(fatal.ForPolicy(cfg.FatalPolicy, o.logger)),
	}
	if cfg.Metrics {
		m, err := metrics.NewGraph(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		gopts = append(gopts, adjacency.WithMetrics(m))
	}
	return adjacency.New(gopts...), nil
}
