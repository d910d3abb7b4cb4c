package adjacency

import (
	"cmp"
	"fmt"
	"runtime"
	"slices"

	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

// pair is an ordered (source, destination) node pair.
type pair struct {
	from, to types.NodeID
}

// CheckSymmetry audits every slot: node ids match their slot, every
// hyperlink's endpoints are live, and for every pair (u, v) the number of
// u→v hyperlinks equals the number of u backlinks on v. It returns the first
// violation in id order, or nil. Nothing is reported to the FatalReporter;
// the caller decides what a violation means.
func (g *Graph) CheckSymmetry() *types.InternalError {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make(map[pair]int)
	backs := make(map[pair]int)
	total := 0

	for i, e := range g.entries {
		if e == nil {
			continue
		}
		id := types.NodeID(i)
		if e.node.ID() != id {
			return violation(types.CodeIDMismatch, "slot %s holds node with id %s", id, e.node.ID())
		}
		for _, h := range e.out {
			if h.From() != id {
				return violation(types.CodeIDMismatch, "hyperlink %s in slot %s has source %s", h.LinkID(), id, h.From())
			}
			if g.slot(h.To()) == nil {
				return violation(types.CodeDanglingEdge, "hyperlink %s points to removed node %s", h.LinkID(), h.To())
			}
			edges[pair{id, h.To()}]++
			total++
		}
		for _, u := range e.back {
			if g.slot(u) == nil {
				return violation(types.CodeDanglingEdge, "node %s has a backlink from removed node %s", id, u)
			}
			backs[pair{u, id}]++
		}
	}

	for _, p := range sortedPairs(edges, backs) {
		switch have, want := backs[p], edges[p]; {
		case have < want:
			return violation(types.CodeBacklinkMissing, "node %s holds %d backlinks for node %s, want %d", p.to, have, p.from, want)
		case have > want:
			return violation(types.CodeBacklinkExtra, "node %s holds %d backlinks for node %s, want %d", p.to, have, p.from, want)
		}
	}

	if total != g.edges {
		return violation(types.CodeDanglingEdge, "edge count %d, found %d hyperlinks", g.edges, total)
	}
	return nil
}

func sortedPairs(maps ...map[pair]int) []pair {
	var pairs []pair
	seen := make(map[pair]bool)
	for _, m := range maps {
		for p := range m {
			if !seen[p] {
				seen[p] = true
				pairs = append(pairs, p)
			}
		}
	}
	slices.SortFunc(pairs, func(a, b pair) int {
		return cmp.Or(cmp.Compare(a.from, b.from), cmp.Compare(a.to, b.to))
	})
	return pairs
}

func violation(code, format string, args ...any) *types.InternalError {
	_, file, line, _ := runtime.Caller(1)
	return &types.InternalError{
		Code:    code,
		File:    file,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}
