package types

import "iter"

// Graph is an id-indexed multigraph that owns its nodes and hyperlinks.
// Callers hold NodeRef and EdgeRef handles; the graph resolves them against
// its own table. Every mutating call either succeeds completely or returns
// an error without touching the store.
type Graph interface {
	// AddNode inserts n, assigns it the next id and returns a handle.
	// Returns ErrAlreadyInserted if n already has an id; n is unchanged.
	AddNode(n *Node) (NodeRef, error)

	// DelNode removes the node and every hyperlink that starts or ends at
	// it, then resets ref and the node's id to NoID.
	// Returns ErrInvalidReference if ref does not name a live node.
	DelNode(ref *NodeRef) error

	// AddEdge inserts h, assigns it a link id and records the backlink on
	// its destination. Parallel edges and self-loops are accepted.
	// Returns ErrInvalidReference if either endpoint is not live and
	// ErrAlreadyInserted if h already has a link id.
	AddEdge(h *Hyperlink) (EdgeRef, error)

	// DelEdge removes the hyperlink named by ref and one matching backlink.
	// Returns ErrInvalidReference if the source is not live and
	// ErrNotFound if the source holds no such hyperlink.
	DelEdge(ref EdgeRef) error

	// Node resolves a node handle.
	Node(ref NodeRef) (*Node, error)

	// Edge resolves a hyperlink handle.
	Edge(ref EdgeRef) (*Hyperlink, error)

	// WidgetOf returns the widget trees owned by the node.
	WidgetOf(ref NodeRef) ([]*Widget, error)

	// SourceOf returns a handle to the hyperlink's source node.
	SourceOf(ref EdgeRef) (NodeRef, error)

	// TargetOf returns a handle to the hyperlink's destination node.
	TargetOf(ref EdgeRef) (NodeRef, error)

	// OutEdges returns handles to the node's outgoing hyperlinks in
	// insertion order.
	OutEdges(ref NodeRef) ([]EdgeRef, error)

	// Backlinks returns the source ids of the node's incoming hyperlinks,
	// one entry per hyperlink.
	Backlinks(ref NodeRef) ([]NodeID, error)

	// Nodes yields live nodes in id order.
	Nodes() iter.Seq[*Node]

	NodeCount() int
	EdgeCount() int

	// CheckSymmetry audits the whole store and returns the first broken
	// invariant it finds, or nil.
	CheckSymmetry() *InternalError
}
