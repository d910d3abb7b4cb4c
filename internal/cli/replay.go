package cli

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/linkgraph/internal/paths"
	"github.com/mesh-intelligence/linkgraph/internal/scenario"
	"github.com/mesh-intelligence/linkgraph/pkg/linkgraph"
	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

// replay resolves and loads the named scenario, builds a graph from the
// loaded settings and runs the scenario against it.
func replay(name string) (types.Graph, error) {
	path, err := paths.ResolveScenario(name, current.configDir)
	if err != nil {
		return nil, exitError(exitUserError, err)
	}
	s, err := scenario.LoadFile(path)
	if err != nil {
		return nil, exitError(exitUserError, err)
	}

	reg := prometheus.NewRegistry()
	g, err := linkgraph.New(current.settings.graphConfig(),
		linkgraph.WithLogger(current.logger),
		linkgraph.WithRegisterer(reg))
	if err != nil {
		return nil, exitError(exitSysError, err)
	}

	res, err := scenario.Run(g, s)
	if err != nil {
		return nil, exitError(exitUserError, fmt.Errorf("%s: %w", path, err))
	}
	current.logger.Info("scenario applied",
		zap.String("path", path),
		zap.Int("ops", res.Applied),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()))

	if current.settings.Metrics {
		logMetrics(current.logger, reg)
	}
	return g, nil
}

// logMetrics writes every gathered sample at info level.
func logMetrics(logger *zap.Logger, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		logger.Warn("gather metrics", zap.Error(err))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			value := m.GetGauge().GetValue()
			if c := m.GetCounter(); c != nil {
				value = c.GetValue()
			}
			logger.Info("metric",
				zap.String("name", mf.GetName()),
				zap.String("labels", strings.Join(labels, ",")),
				zap.Float64("value", value))
		}
	}
}
