package scenario

import (
	"fmt"
	"io"

	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

// Snapshot is a JSON-serializable picture of a graph.
type Snapshot struct {
	NodeCount int            `json:"node_count"`
	EdgeCount int            `json:"edge_count"`
	Nodes     []NodeSnapshot `json:"nodes"`
}

// NodeSnapshot is one live node with its adjacency.
type NodeSnapshot struct {
	ID        types.NodeID       `json:"id"`
	Name      string             `json:"name"`
	Attrs     types.AttrSet      `json:"attrs"`
	Widgets   []*types.Widget    `json:"widgets,omitempty"`
	Out       []*types.Hyperlink `json:"out"`
	Backlinks []types.NodeID     `json:"backlinks"`
}

// Take captures every live node of g in id order.
func Take(g types.Graph) (*Snapshot, error) {
	snap := &Snapshot{
		NodeCount: g.NodeCount(),
		EdgeCount: g.EdgeCount(),
		Nodes:     []NodeSnapshot{},
	}
	for n := range g.Nodes() {
		ref := n.Ref()
		refs, err := g.OutEdges(ref)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", ref.ID, err)
		}
		out := make([]*types.Hyperlink, 0, len(refs))
		for _, r := range refs {
			h, err := g.Edge(r)
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", ref.ID, err)
			}
			out = append(out, h)
		}
		back, err := g.Backlinks(ref)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", ref.ID, err)
		}
		if back == nil {
			back = []types.NodeID{}
		}
		snap.Nodes = append(snap.Nodes, NodeSnapshot{
			ID:        ref.ID,
			Name:      n.Name,
			Attrs:     n.Attrs,
			Widgets:   n.Widgets(),
			Out:       out,
			Backlinks: back,
		})
	}
	return snap, nil
}

// WriteText prints a one-line summary per node.
func (s *Snapshot) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d nodes, %d edges\n", s.NodeCount, s.EdgeCount); err != nil {
		return err
	}
	for _, n := range s.Nodes {
		if _, err := fmt.Fprintf(w, "%s\t%s\tout=%d\tback=%d", n.ID, n.Name, len(n.Out), len(n.Backlinks)); err != nil {
			return err
		}
		for k, v := range n.Attrs.All() {
			if _, err := fmt.Fprintf(w, "\t%s=%s", k, v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
