package types

import (
	"encoding/json"

	"github.com/mesh-intelligence/linkgraph/internal/binding"
)

// Node is a graph vertex: a name, a set of attributes and the widget trees
// it owns. Its id stays NoID until a Graph inserts the node; the graph then
// owns it until DelNode resets the id. Only the graph can change the id.
type Node struct {
	Name  string
	Attrs AttrSet

	id      NodeID
	widgets []*Widget
}

// NewNode returns an unattached node.
func NewNode(name string) *Node {
	return &Node{Name: name, Attrs: NewAttrSet()}
}

// ID returns the id assigned on insertion, or NoID.
func (n *Node) ID() NodeID { return n.id }

// Bind sets the node's id. Graph implementations call it on insert and
// remove.
func (n *Node) Bind(_ binding.Token, id NodeID) { n.id = id }

// Ref returns a handle to n.
func (n *Node) Ref() NodeRef { return NodeRef{ID: n.id} }

// Inserted reports whether n currently belongs to a graph.
func (n *Node) Inserted() bool { return n.id != NoID }

// AddWidget attaches w as a top-level widget and returns it.
func (n *Node) AddWidget(w *Widget) *Widget {
	n.widgets = append(n.widgets, w)
	return w
}

// Widgets returns the node's top-level widgets.
func (n *Node) Widgets() []*Widget { return n.widgets }

type nodeJSON struct {
	ID    NodeID  `json:"id"`
	Name  string  `json:"name"`
	Attrs AttrSet `json:"attrs"`
}

// MarshalJSON encodes the node as {"id", "name", "attrs"}.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeJSON{ID: n.id, Name: n.Name, Attrs: n.Attrs})
}
