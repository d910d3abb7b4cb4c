// Package scenario loads graph scenarios from YAML and replays them against
// a types.Graph.
//
// A scenario declares nodes, hyperlinks between them and an ordered list of
// operations. Nodes and edges carry keys so operations can name them:
//
//	nodes:
//	  - key: a
//	    name: A
//	    attrs: {root: 1, pos: [0.5, 1.5]}
//	edges:
//	  - {key: ab, from: a, to: b, weight: 2}
//	ops:
//	  - del_edge: ab
//	  - append: {node: a, key: pos, value: 2.5}
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

// ErrInvalidScenario is returned for documents that do not describe a
// runnable scenario.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is a decoded scenario document.
type Scenario struct {
	Nodes []NodeSpec `yaml:"nodes"`
	Edges []EdgeSpec `yaml:"edges"`
	Ops   []Op       `yaml:"ops"`
}

// NodeSpec declares one node. Key defaults to Name.
type NodeSpec struct {
	Key     string       `yaml:"key"`
	Name    string       `yaml:"name"`
	Attrs   Attrs        `yaml:"attrs"`
	Widgets []WidgetSpec `yaml:"widgets"`
}

// WidgetSpec declares a widget and its children.
type WidgetSpec struct {
	Name     string       `yaml:"name"`
	Attrs    Attrs        `yaml:"attrs"`
	Children []WidgetSpec `yaml:"children"`
}

// EdgeSpec declares one hyperlink. Key is optional; only keyed edges can be
// named by operations. A zero Weight means types.DefaultWeight.
type EdgeSpec struct {
	Key    string  `yaml:"key"`
	From   string  `yaml:"from"`
	To     string  `yaml:"to"`
	Weight float64 `yaml:"weight"`
	Attrs  Attrs   `yaml:"attrs"`
}

// Op is one operation. Exactly one field is set.
type Op struct {
	DelEdge string  `yaml:"del_edge"`
	DelNode string  `yaml:"del_node"`
	SetAttr *AttrOp `yaml:"set_attr"`
	Append  *AttrOp `yaml:"append"`
	Pop     *AttrOp `yaml:"pop"`
}

// AttrOp addresses one attribute of a node.
type AttrOp struct {
	Node  string    `yaml:"node"`
	Key   string    `yaml:"key"`
	Value yaml.Node `yaml:"value"`
}

// Operation names, as written in scenario files.
const (
	OpDelEdge = "del_edge"
	OpDelNode = "del_node"
	OpSetAttr = "set_attr"
	OpAppend  = "append"
	OpPop     = "pop"
)

// Name returns the operation's name, or "" if op sets no field.
func (op *Op) Name() string {
	switch {
	case op.DelEdge != "":
		return OpDelEdge
	case op.DelNode != "":
		return OpDelNode
	case op.SetAttr != nil:
		return OpSetAttr
	case op.Append != nil:
		return OpAppend
	case op.Pop != nil:
		return OpPop
	}
	return ""
}

func (op *Op) fieldCount() int {
	n := 0
	for _, set := range []bool{op.DelEdge != "", op.DelNode != "", op.SetAttr != nil, op.Append != nil, op.Pop != nil} {
		if set {
			n++
		}
	}
	return n
}

// Attr is one decoded attribute.
type Attr struct {
	Key   string
	Value types.AttrValue
}

// Attrs is an attribute mapping in document order.
type Attrs []Attr

// UnmarshalYAML decodes a mapping of attribute names to values.
func (a *Attrs) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: attrs must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		v, err := valueOf(n.Content[i+1])
		if err != nil {
			return fmt.Errorf("attribute %q: %w", key, err)
		}
		*a = append(*a, Attr{Key: key, Value: v})
	}
	return nil
}

// apply stores every attribute in s.
func (a Attrs) apply(s *types.AttrSet) {
	for _, attr := range a {
		s.Set(attr.Key, attr.Value.Clone())
	}
}

// valueOf maps a YAML value onto an AttrValue: !!int to Int, !!float to
// Float, !!str to Text, a sequence of integers to Ints and a sequence
// holding any float to Floats. The non-finite floats .nan, .inf and -.inf
// are kept as they are.
func valueOf(n *yaml.Node) (types.AttrValue, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int":
			var v int64
			if err := n.Decode(&v); err != nil {
				return types.AttrValue{}, err
			}
			return types.Int(v), nil
		case "!!float":
			var v float64
			if err := n.Decode(&v); err != nil {
				return types.AttrValue{}, err
			}
			return types.Float(v), nil
		case "!!str":
			return types.Text(n.Value), nil
		}
		return types.AttrValue{}, fmt.Errorf("line %d: unsupported scalar %s", n.Line, n.ShortTag())

	case yaml.SequenceNode:
		anyFloat := false
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return types.AttrValue{}, fmt.Errorf("line %d: sequences hold numbers only", item.Line)
			}
			switch item.ShortTag() {
			case "!!int":
			case "!!float":
				anyFloat = true
			default:
				return types.AttrValue{}, fmt.Errorf("line %d: sequences hold numbers only, got %s", item.Line, item.ShortTag())
			}
		}
		if anyFloat {
			var vs []float64
			if err := n.Decode(&vs); err != nil {
				return types.AttrValue{}, err
			}
			return types.Floats(vs...), nil
		}
		var vs []int64
		if err := n.Decode(&vs); err != nil {
			return types.AttrValue{}, err
		}
		return types.Ints(vs...), nil
	}
	return types.AttrValue{}, fmt.Errorf("line %d: unsupported attribute value", n.Line)
}

// Load decodes and validates a scenario. Unknown fields are rejected.
func Load(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidScenario)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads a scenario from path.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario: %w", err)
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks that keys are unique and that every edge and operation
// names a declared key. It does not check that operations succeed.
func (s *Scenario) Validate() error {
	nodes := make(map[string]bool, len(s.Nodes))
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.Key == "" {
			n.Key = n.Name
		}
		if n.Key == "" {
			return fmt.Errorf("%w: node %d has neither key nor name", ErrInvalidScenario, i)
		}
		if nodes[n.Key] {
			return fmt.Errorf("%w: duplicate node key %q", ErrInvalidScenario, n.Key)
		}
		nodes[n.Key] = true
	}

	edges := make(map[string]bool, len(s.Edges))
	for i, e := range s.Edges {
		if !nodes[e.From] || !nodes[e.To] {
			return fmt.Errorf("%w: edge %d links unknown node (%q -> %q)", ErrInvalidScenario, i, e.From, e.To)
		}
		if e.Key == "" {
			continue
		}
		if edges[e.Key] {
			return fmt.Errorf("%w: duplicate edge key %q", ErrInvalidScenario, e.Key)
		}
		edges[e.Key] = true
	}

	for i := range s.Ops {
		if err := s.Ops[i].validate(nodes, edges); err != nil {
			return fmt.Errorf("%w: op %d: %v", ErrInvalidScenario, i, err)
		}
	}
	return nil
}

func (op *Op) validate(nodes, edges map[string]bool) error {
	if op.fieldCount() != 1 {
		return errors.New("want exactly one of del_edge, del_node, set_attr, append, pop")
	}
	switch op.Name() {
	case OpDelEdge:
		if !edges[op.DelEdge] {
			return fmt.Errorf("unknown edge %q", op.DelEdge)
		}
		return nil
	case OpDelNode:
		if !nodes[op.DelNode] {
			return fmt.Errorf("unknown node %q", op.DelNode)
		}
		return nil
	}

	a := op.attrOp()
	if !nodes[a.Node] {
		return fmt.Errorf("unknown node %q", a.Node)
	}
	if a.Key == "" {
		return errors.New("missing attribute key")
	}
	switch op.Name() {
	case OpPop:
		if !a.Value.IsZero() {
			return errors.New("pop takes no value")
		}
	default:
		if a.Value.IsZero() {
			return errors.New("missing value")
		}
		v, err := valueOf(&a.Value)
		if err != nil {
			return err
		}
		if op.Name() == OpAppend && v.IsString() {
			return errors.New("append takes numbers only")
		}
	}
	return nil
}

func (op *Op) attrOp() *AttrOp {
	switch {
	case op.SetAttr != nil:
		return op.SetAttr
	case op.Append != nil:
		return op.Append
	default:
		return op.Pop
	}
}
