package adjacency

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/linkgraph/internal/binding"
	"github.com/mesh-intelligence/linkgraph/internal/metrics"
	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

// AddEdge inserts h, assigns it a UUID v7 link id and records a backlink on
// its destination. Parallel hyperlinks and self-loops are accepted as is.
func (g *Graph) AddEdge(h *types.Hyperlink) (types.EdgeRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ref, err := g.addEdge(h)
	g.observe(metrics.OpAddEdge, err)
	return ref, err
}

func (g *Graph) addEdge(h *types.Hyperlink) (types.EdgeRef, error) {
	if h == nil {
		return types.EdgeRef{}, fmt.Errorf("%w: nil hyperlink", types.ErrInvalidReference)
	}
	if h.LinkID() != "" {
		return types.EdgeRef{}, fmt.Errorf("%w: hyperlink %s", types.ErrAlreadyInserted, h.LinkID())
	}
	src, err := g.lookup(h.From())
	if err != nil {
		return types.EdgeRef{}, fmt.Errorf("hyperlink source: %w", err)
	}
	dst, err := g.lookup(h.To())
	if err != nil {
		return types.EdgeRef{}, fmt.Errorf("hyperlink destination: %w", err)
	}

	h.Bind(binding.Token{}, g.newLinkID())
	src.out = append(src.out, h)
	dst.back = append(dst.back, h.From())
	g.edges++

	g.logger.Debug("hyperlink added",
		zap.String("link_id", h.LinkID()),
		zap.Stringer("from", h.From()),
		zap.Stringer("to", h.To()))
	return h.Ref(), nil
}

// DelEdge removes the hyperlink whose link id is ref.LinkID from the source's
// list and one backlink for the source from the destination.
// Returns ErrInvalidReference if the source is not live and ErrNotFound if
// it holds no hyperlink with that id and destination.
func (g *Graph) DelEdge(ref types.EdgeRef) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.delEdge(ref)
	g.observe(metrics.OpDelEdge, err)
	return err
}

func (g *Graph) delEdge(ref types.EdgeRef) error {
	src, err := g.lookup(ref.From)
	if err != nil {
		return fmt.Errorf("hyperlink source: %w", err)
	}
	i := indexLink(src.out, ref)
	if i < 0 {
		return fmt.Errorf("%w: hyperlink %q from node %s", types.ErrNotFound, ref.LinkID, ref.From)
	}

	dst := g.slot(ref.To)
	if dst == nil {
		g.fail(types.CodeDanglingEdge, "hyperlink %s points to removed node %s", ref.LinkID, ref.To)
	}
	b := slices.Index(dst.back, ref.From)
	if b < 0 {
		g.fail(types.CodeBacklinkMissing, "node %s holds no backlink for hyperlink %s from node %s", ref.To, ref.LinkID, ref.From)
	}

	src.out = slices.Delete(src.out, i, i+1)
	dst.back = slices.Delete(dst.back, b, b+1)
	g.edges--

	g.logger.Debug("hyperlink removed",
		zap.String("link_id", ref.LinkID),
		zap.Stringer("from", ref.From),
		zap.Stringer("to", ref.To))
	return nil
}

// indexLink returns the position of the hyperlink named by ref, or -1.
func indexLink(out []*types.Hyperlink, ref types.EdgeRef) int {
	if ref.LinkID == "" {
		return -1
	}
	return slices.IndexFunc(out, func(h *types.Hyperlink) bool {
		return h.LinkID() == ref.LinkID && h.To() == ref.To
	})
}

// Edge resolves a hyperlink handle.
func (g *Graph) Edge(ref types.EdgeRef) (*types.Hyperlink, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	src, err := g.lookup(ref.From)
	if err != nil {
		return nil, err
	}
	i := indexLink(src.out, ref)
	if i < 0 {
		return nil, fmt.Errorf("%w: hyperlink %q from node %s", types.ErrNotFound, ref.LinkID, ref.From)
	}
	return src.out[i], nil
}

// SourceOf returns a handle to the source node of ref.
func (g *Graph) SourceOf(ref types.EdgeRef) (types.NodeRef, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, err := g.lookup(ref.From); err != nil {
		return types.NodeRef{}, err
	}
	return ref.Source(), nil
}

// TargetOf returns a handle to the destination node of ref.
func (g *Graph) TargetOf(ref types.EdgeRef) (types.NodeRef, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, err := g.lookup(ref.To); err != nil {
		return types.NodeRef{}, err
	}
	return ref.Target(), nil
}
