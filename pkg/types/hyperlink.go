package types

import (
	"encoding/json"

	"github.com/mesh-intelligence/linkgraph/internal/binding"
)

// DefaultWeight is the weight NewHyperlink assigns.
const DefaultWeight = 1.0

// Hyperlink is a directed edge between two nodes of the same graph.
// Parallel hyperlinks and self-loops are allowed. The endpoints are fixed by
// NewHyperlink; the link id is empty until the graph inserts the hyperlink.
type Hyperlink struct {
	Weight float64
	Attrs  AttrSet

	linkID   string
	from, to NodeID
}

// NewHyperlink returns an unattached hyperlink from one node to another.
func NewHyperlink(from, to NodeRef) *Hyperlink {
	return &Hyperlink{
		Weight: DefaultWeight,
		Attrs:  NewAttrSet(),
		from:   from.ID,
		to:     to.ID,
	}
}

// LinkID returns the UUID v7 generated on insertion, or "".
func (h *Hyperlink) LinkID() string { return h.linkID }

// From returns the source node.
func (h *Hyperlink) From() NodeID { return h.from }

// To returns the destination node.
func (h *Hyperlink) To() NodeID { return h.to }

// Bind sets the hyperlink's link id. Graph implementations call it on insert.
func (h *Hyperlink) Bind(_ binding.Token, linkID string) { h.linkID = linkID }

// Ref returns a handle to h. The handle is only usable once h is inserted.
func (h *Hyperlink) Ref() EdgeRef {
	return EdgeRef{LinkID: h.linkID, From: h.from, To: h.to}
}

type hyperlinkJSON struct {
	LinkID string    `json:"link_id"`
	From   NodeID    `json:"from"`
	To     NodeID    `json:"to"`
	Weight jsonFloat `json:"weight"`
	Attrs  AttrSet   `json:"attrs"`
}

// MarshalJSON encodes the hyperlink as {"link_id", "from", "to", "weight",
// "attrs"}. A non-finite weight is written as a string, like float attributes.
func (h *Hyperlink) MarshalJSON() ([]byte, error) {
	return json.Marshal(hyperlinkJSON{
		LinkID: h.linkID,
		From:   h.from,
		To:     h.to,
		Weight: jsonFloat(h.Weight),
		Attrs:  h.Attrs,
	})
}
