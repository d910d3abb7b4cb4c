package types

import "strconv"

// NodeID identifies a node inside one graph. Ids are assigned on insertion,
// start at 1 and are never reused.
type NodeID uint64

// NoID is the id of a node that is not in any graph.
const NoID NodeID = 0

func (id NodeID) String() string {
	if id == NoID {
		return "unset"
	}
	return strconv.FormatUint(uint64(id), 10)
}

// NodeRef is a non-owning handle to a node.
type NodeRef struct {
	ID NodeID `json:"id"`
}

// IsZero reports whether r refers to no node.
func (r NodeRef) IsZero() bool { return r.ID == NoID }

// EdgeRef is a non-owning handle to a hyperlink. LinkID is the unique id
// assigned on insertion; From and To locate the edge's lists.
type EdgeRef struct {
	LinkID string `json:"link_id"`
	From   NodeID `json:"from"`
	To     NodeID `json:"to"`
}

// Source returns a ref to the edge's source node.
func (r EdgeRef) Source() NodeRef { return NodeRef{ID: r.From} }

// Target returns a ref to the edge's destination node.
func (r EdgeRef) Target() NodeRef { return NodeRef{ID: r.To} }
