package scenario

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

// OpError reports the operation that stopped a run.
type OpError struct {
	Index int
	Op    string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("op %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Result holds the handles a run produced, by scenario key. Deleted nodes
// keep their key with a zero ref; deleted edges are removed.
type Result struct {
	Nodes map[string]types.NodeRef
	Edges map[string]types.EdgeRef

	// Applied is the number of operations that succeeded.
	Applied int
}

// Run inserts the scenario's nodes and edges into g, then applies its
// operations in order. It stops at the first failing operation and returns
// an *OpError naming it, together with the partial result.
func Run(g types.Graph, s *Scenario) (*Result, error) {
	res := &Result{
		Nodes: make(map[string]types.NodeRef, len(s.Nodes)),
		Edges: make(map[string]types.EdgeRef, len(s.Edges)),
	}

	for _, spec := range s.Nodes {
		n := types.NewNode(spec.Name)
		spec.Attrs.apply(&n.Attrs)
		for _, w := range spec.Widgets {
			n.AddWidget(buildWidget(w))
		}
		ref, err := g.AddNode(n)
		if err != nil {
			return res, fmt.Errorf("add node %q: %w", spec.Key, err)
		}
		res.Nodes[spec.Key] = ref
	}

	for i, spec := range s.Edges {
		h := types.NewHyperlink(res.Nodes[spec.From], res.Nodes[spec.To])
		if spec.Weight != 0 {
			h.Weight = spec.Weight
		}
		spec.Attrs.apply(&h.Attrs)
		ref, err := g.AddEdge(h)
		if err != nil {
			return res, fmt.Errorf("add edge %d: %w", i, err)
		}
		if spec.Key != "" {
			res.Edges[spec.Key] = ref
		}
	}

	for i := range s.Ops {
		op := &s.Ops[i]
		if err := res.apply(g, op); err != nil {
			return res, &OpError{Index: i, Op: op.Name(), Err: err}
		}
		res.Applied++
	}
	return res, nil
}

func buildWidget(spec WidgetSpec) *types.Widget {
	w := types.NewWidget(spec.Name)
	spec.Attrs.apply(&w.Attrs)
	for _, c := range spec.Children {
		w.AddChild(buildWidget(c))
	}
	return w
}

func (r *Result) apply(g types.Graph, op *Op) error {
	switch op.Name() {
	case OpDelEdge:
		ref, ok := r.Edges[op.DelEdge]
		if !ok {
			return fmt.Errorf("%w: edge %q already deleted", types.ErrNotFound, op.DelEdge)
		}
		if err := g.DelEdge(ref); err != nil {
			return err
		}
		delete(r.Edges, op.DelEdge)
		return nil

	case OpDelNode:
		ref := r.Nodes[op.DelNode]
		if err := g.DelNode(&ref); err != nil {
			return err
		}
		r.Nodes[op.DelNode] = ref
		return nil
	}

	a := op.attrOp()
	n, err := g.Node(r.Nodes[a.Node])
	if err != nil {
		return err
	}

	if op.Name() == OpSetAttr {
		v, err := valueOf(&a.Value)
		if err != nil {
			return err
		}
		n.Attrs.Set(a.Key, v)
		return nil
	}

	cur, ok := n.Attrs.Get(a.Key)
	if !ok {
		return fmt.Errorf("%w: attribute %q on node %q", types.ErrNotFound, a.Key, a.Node)
	}
	if op.Name() == OpPop {
		if cur.IsString() {
			return fmt.Errorf("%w: pop from text attribute %q", types.ErrTypeMismatch, a.Key)
		}
		if !cur.PopLast() {
			return fmt.Errorf("%w: pop from empty attribute %q", types.ErrOutOfRange, a.Key)
		}
		return nil
	}
	return appendValue(cur, &a.Value)
}

// appendValue appends every element of the YAML value to cur. The append
// runs on a copy so a failure part way leaves cur unchanged.
func appendValue(cur *types.AttrValue, n *yaml.Node) error {
	v, err := valueOf(n)
	if err != nil {
		return err
	}
	next := cur.Clone()
	if v.IsInts() {
		for _, x := range v.IntSlice() {
			if err := next.AppendInt(x); err != nil {
				return err
			}
		}
	} else {
		for _, x := range v.FloatSlice() {
			if err := next.AppendFloat(x); err != nil {
				return err
			}
		}
	}
	*cur = next
	return nil
}
