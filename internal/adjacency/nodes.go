package adjacency

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/linkgraph/internal/binding"
	"github.com/mesh-intelligence/linkgraph/internal/metrics"
	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

// AddNode inserts n under the next sequential id.
// Returns ErrAlreadyInserted if n already carries an id; the id is left as is.
func (g *Graph) AddNode(n *types.Node) (types.NodeRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ref, err := g.addNode(n)
	g.observe(metrics.OpAddNode, err)
	return ref, err
}

func (g *Graph) addNode(n *types.Node) (types.NodeRef, error) {
	if n == nil {
		return types.NodeRef{}, fmt.Errorf("%w: nil node", types.ErrInvalidReference)
	}
	if n.Inserted() {
		return types.NodeRef{}, fmt.Errorf("%w: node %q has id %s", types.ErrAlreadyInserted, n.Name, n.ID())
	}

	id := types.NodeID(len(g.entries))
	n.Bind(binding.Token{}, id)
	g.entries = append(g.entries, &entry{node: n})
	g.live++

	g.logger.Debug("node added", zap.Stringer("node_id", id), zap.String("name", n.Name))
	return types.NodeRef{ID: id}, nil
}

// DelNode removes the node named by ref together with every hyperlink that
// starts or ends at it, then resets ref and the node's id to NoID.
// Returns ErrInvalidReference if ref does not name a live node.
func (g *Graph) DelNode(ref *types.NodeRef) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.delNode(ref)
	g.observe(metrics.OpDelNode, err)
	return err
}

func (g *Graph) delNode(ref *types.NodeRef) error {
	if ref == nil {
		return fmt.Errorf("%w: nil node ref", types.ErrInvalidReference)
	}
	id := ref.ID
	target, err := g.lookup(id)
	if err != nil {
		return err
	}

	// Everything the deletion will touch is checked before the first write,
	// so a corrupt neighbour is reported with the store still intact.
	g.verifyNeighbours(id, target)

	// Incoming: drop every hyperlink of each backlink source that ends here.
	seen := make(map[types.NodeID]bool, len(target.back))
	for _, u := range target.back {
		if u == id || seen[u] {
			continue
		}
		seen[u] = true
		src := g.entries[u]
		before := len(src.out)
		src.out = slices.DeleteFunc(src.out, func(h *types.Hyperlink) bool { return h.To() == id })
		g.edges -= before - len(src.out)
	}

	// Outgoing: drop one backlink per hyperlink from each destination.
	// Self-loops leave with the slot itself.
	for _, h := range target.out {
		if h.To() != id {
			dst := g.entries[h.To()]
			i := slices.Index(dst.back, id)
			dst.back = slices.Delete(dst.back, i, i+1)
		}
	}
	g.edges -= len(target.out)

	g.entries[id] = nil
	g.live--
	target.node.Bind(binding.Token{}, types.NoID)
	ref.ID = types.NoID

	g.logger.Debug("node removed",
		zap.Stringer("node_id", id),
		zap.Int("out_edges", len(target.out)),
		zap.Int("backlinks", len(target.back)))
	return nil
}

// verifyNeighbours checks that every backlink source of the target is live
// and that every destination holds a backlink for each hyperlink the target
// sends it. The caller must hold the write lock.
func (g *Graph) verifyNeighbours(id types.NodeID, target *entry) {
	for _, u := range target.back {
		if g.slot(u) == nil {
			g.fail(types.CodeDanglingEdge, "node %s has a backlink from removed node %s", id, u)
		}
	}

	need := make(map[types.NodeID]int)
	for _, h := range target.out {
		if h.To() != id {
			need[h.To()]++
		}
	}
	for v, n := range need {
		dst := g.slot(v)
		if dst == nil {
			g.fail(types.CodeDanglingEdge, "node %s has a hyperlink to removed node %s", id, v)
		}
		have := 0
		for _, b := range dst.back {
			if b == id {
				have++
			}
		}
		if have < n {
			g.fail(types.CodeBacklinkMissing, "node %s holds %d backlinks for node %s, want %d", v, have, id, n)
		}
	}
}

// Node resolves a node handle.
func (g *Graph) Node(ref types.NodeRef) (*types.Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, err := g.lookup(ref.ID)
	if err != nil {
		return nil, err
	}
	return e.node, nil
}

// WidgetOf returns the widget trees owned by the node.
func (g *Graph) WidgetOf(ref types.NodeRef) ([]*types.Widget, error) {
	n, err := g.Node(ref)
	if err != nil {
		return nil, err
	}
	return n.Widgets(), nil
}

// OutEdges returns handles to the node's outgoing hyperlinks in insertion
// order.
func (g *Graph) OutEdges(ref types.NodeRef) ([]types.EdgeRef, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, err := g.lookup(ref.ID)
	if err != nil {
		return nil, err
	}
	refs := make([]types.EdgeRef, len(e.out))
	for i, h := range e.out {
		refs[i] = h.Ref()
	}
	return refs, nil
}

// Backlinks returns a copy of the node's backlink list.
func (g *Graph) Backlinks(ref types.NodeRef) ([]types.NodeID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, err := g.lookup(ref.ID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.back), nil
}
