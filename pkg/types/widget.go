package types

import (
	"encoding/json"
	"fmt"
)

// Widget is a named, attributed element of the tree a node owns. Widgets
// have no graph semantics; they are plain owned children.
type Widget struct {
	Name  string
	Attrs AttrSet

	children []*Widget
}

// NewWidget returns a widget with no children.
func NewWidget(name string) *Widget {
	return &Widget{Name: name, Attrs: NewAttrSet()}
}

// AddChild appends c and returns it.
func (w *Widget) AddChild(c *Widget) *Widget {
	w.children = append(w.children, c)
	return c
}

// Child returns the i-th child.
func (w *Widget) Child(i int) (*Widget, error) {
	if i < 0 || i >= len(w.children) {
		return nil, fmt.Errorf("%w: child %d of %d", ErrOutOfRange, i, len(w.children))
	}
	return w.children[i], nil
}

// Children returns the direct children.
func (w *Widget) Children() []*Widget { return w.children }

// Len returns the number of direct children.
func (w *Widget) Len() int { return len(w.children) }

// Walk visits w and its descendants depth-first, parents before children.
// depth is 0 for w. Returning false from fn stops the walk.
func (w *Widget) Walk(fn func(depth int, w *Widget) bool) {
	w.walk(0, fn)
}

func (w *Widget) walk(depth int, fn func(int, *Widget) bool) bool {
	if !fn(depth, w) {
		return false
	}
	for _, c := range w.children {
		if !c.walk(depth+1, fn) {
			return false
		}
	}
	return true
}

type widgetJSON struct {
	Name     string    `json:"name"`
	Attrs    AttrSet   `json:"attrs"`
	Children []*Widget `json:"children,omitempty"`
}

// MarshalJSON includes the children, which are not exported fields.
func (w *Widget) MarshalJSON() ([]byte, error) {
	return json.Marshal(widgetJSON{Name: w.Name, Attrs: w.Attrs, Children: w.children})
}
