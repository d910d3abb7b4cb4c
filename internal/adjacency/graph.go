// Package adjacency implements types.Graph as an in-memory id table.
//
// Nodes are never referenced by address across the store. Each node id
// indexes a slot holding the node, its outgoing hyperlinks in insertion
// order, and its backlinks: one source id per incoming hyperlink. Removed
// slots stay as nil tombstones so ids are never reused.
package adjacency

import (
	"fmt"
	"iter"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/linkgraph/internal/fatal"
	"github.com/mesh-intelligence/linkgraph/internal/metrics"
	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

var _ types.Graph = (*Graph)(nil)

// entry is the storage slot of one live node.
type entry struct {
	node *types.Node
	out  []*types.Hyperlink // outgoing hyperlinks, insertion order
	back []types.NodeID     // one source id per incoming hyperlink
}

// Graph is the adjacency-indexed multigraph store.
//
// Mutating calls hold the write lock for their whole duration, lookups
// hold the read lock. A node deletion touches the target's slot, every
// backlink source and every edge destination, so the whole instance is the
// locking unit.
type Graph struct {
	mu      sync.RWMutex
	entries []*entry // indexed by NodeID; slot 0 (NoID) is never used
	live    int      // number of non-nil entries
	edges   int      // number of live hyperlinks

	logger    *zap.Logger
	fatal     types.FatalReporter
	metrics   *metrics.Graph
	newLinkID func() string
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger mutations are reported to at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Graph) { g.logger = logger }
}

// WithFatalReporter sets the reporter for broken invariants.
func WithFatalReporter(r types.FatalReporter) Option {
	return func(g *Graph) { g.fatal = r }
}

// WithMetrics sets the collectors the graph updates.
func WithMetrics(m *metrics.Graph) Option {
	return func(g *Graph) { g.metrics = m }
}

// New returns an empty graph. Without options it logs nothing, records no
// metrics and panics on broken invariants.
func New(opts ...Option) *Graph {
	g := &Graph{
		entries:   make([]*entry, 1, 16),
		newLinkID: generateUUID,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.fatal == nil {
		g.fatal = fatal.PanicReporter{Logger: g.logger}
	}
	return g
}

// generateUUID generates a new UUID v7 for link ids.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// slot returns the entry for id, or nil when id is unset, unallocated or
// removed. The caller must hold g.mu.
func (g *Graph) slot(id types.NodeID) *entry {
	if id == types.NoID || uint64(id) >= uint64(len(g.entries)) {
		return nil
	}
	return g.entries[id]
}

// lookup is slot with a caller-facing error.
func (g *Graph) lookup(id types.NodeID) (*entry, error) {
	e := g.slot(id)
	if e == nil {
		return nil, fmt.Errorf("%w: node %s", types.ErrInvalidReference, id)
	}
	return e, nil
}

// fail reports a broken invariant and panics. It never returns.
func (g *Graph) fail(code, format string, args ...any) {
	_, file, line, _ := runtime.Caller(1)
	ierr := &types.InternalError{
		Code:    code,
		File:    file,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
	g.fatal.Report(ierr)
	panic(ierr)
}

// observe records an operation outcome and refreshes the size gauges.
func (g *Graph) observe(op string, err error) {
	g.metrics.Observe(op, err)
	if err == nil {
		g.metrics.SetCounts(g.live, g.edges)
	}
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.live
}

// EdgeCount returns the number of live hyperlinks.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges
}

// Nodes yields live nodes in id order. The set is captured when iteration
// starts, so the loop body may mutate the graph.
func (g *Graph) Nodes() iter.Seq[*types.Node] {
	return func(yield func(*types.Node) bool) {
		g.mu.RLock()
		nodes := make([]*types.Node, 0, g.live)
		for _, e := range g.entries {
			if e != nil {
				nodes = append(nodes, e.node)
			}
		}
		g.mu.RUnlock()

		for _, n := range nodes {
			if !yield(n) {
				return
			}
		}
	}
}
