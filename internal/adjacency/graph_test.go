package adjacency

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/linkgraph/internal/binding"
	"github.com/mesh-intelligence/linkgraph/internal/metrics"
	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

// recordingReporter keeps reported violations instead of ending the process.
type recordingReporter struct {
	got []*types.InternalError
}

func (r *recordingReporter) Report(err *types.InternalError) {
	r.got = append(r.got, err)
}

// newTestGraph returns a graph whose link ids are "l1", "l2", ...
func newTestGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	g := New(opts...)
	n := 0
	g.newLinkID = func() string {
		n++
		return fmt.Sprintf("l%d", n)
	}
	return g
}

func addNode(t *testing.T, g *Graph, name string) types.NodeRef {
	t.Helper()
	ref, err := g.AddNode(types.NewNode(name))
	require.NoError(t, err)
	return ref
}

func addEdge(t *testing.T, g *Graph, from, to types.NodeRef) types.EdgeRef {
	t.Helper()
	ref, err := g.AddEdge(types.NewHyperlink(from, to))
	require.NoError(t, err)
	return ref
}

func requireSymmetric(t *testing.T, g *Graph) {
	t.Helper()
	if v := g.CheckSymmetry(); v != nil {
		t.Fatalf("store invariant broken: %v", v)
	}
}

func TestAddNode_AssignsSequentialIDs(t *testing.T) {
	g := newTestGraph(t)

	for want := types.NodeID(1); want <= 3; want++ {
		n := types.NewNode(fmt.Sprintf("n%d", want))
		ref, err := g.AddNode(n)
		require.NoError(t, err)
		assert.Equal(t, want, ref.ID)
		assert.Equal(t, want, n.ID())
	}
	assert.Equal(t, 3, g.NodeCount())
}

func TestAddNode_Twice(t *testing.T) {
	g := newTestGraph(t)
	n := types.NewNode("root")

	ref, err := g.AddNode(n)
	require.NoError(t, err)

	_, err = g.AddNode(n)
	assert.ErrorIs(t, err, types.ErrAlreadyInserted)
	assert.Equal(t, ref.ID, n.ID(), "failed insert must not change the id")
	assert.Equal(t, 1, g.NodeCount())
}

func TestAddNode_Nil(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.AddNode(nil)
	assert.ErrorIs(t, err, types.ErrInvalidReference)
}

func TestIDsAreNotReused(t *testing.T) {
	g := newTestGraph(t)
	a := addNode(t, g, "a")
	require.NoError(t, g.DelNode(&a))

	b := addNode(t, g, "b")
	assert.Equal(t, types.NodeID(2), b.ID)
}

func TestDelNode_InvalidReference(t *testing.T) {
	g := newTestGraph(t)
	a := addNode(t, g, "a")

	tests := []struct {
		name string
		ref  *types.NodeRef
	}{
		{name: "nil ref", ref: nil},
		{name: "unset id", ref: &types.NodeRef{}},
		{name: "unallocated id", ref: &types.NodeRef{ID: 99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, g.DelNode(tt.ref), types.ErrInvalidReference)
		})
	}

	stale := a
	require.NoError(t, g.DelNode(&a))
	assert.ErrorIs(t, g.DelNode(&stale), types.ErrInvalidReference, "removed id")
}

func TestDelNode_ResetsHandles(t *testing.T) {
	g := newTestGraph(t)
	n := types.NewNode("a")
	ref, err := g.AddNode(n)
	require.NoError(t, err)

	require.NoError(t, g.DelNode(&ref))
	assert.True(t, ref.IsZero())
	assert.False(t, n.Inserted())
	assert.Equal(t, 0, g.NodeCount())

	_, err = g.Node(types.NodeRef{ID: 1})
	assert.ErrorIs(t, err, types.ErrInvalidReference)

	// The node can join a graph again once removed.
	again, err := g.AddNode(n)
	require.NoError(t, err)
	assert.Equal(t, types.NodeID(2), again.ID)
}

func TestDelNode_RemovesIncidentEdges(t *testing.T) {
	g := newTestGraph(t)
	a := addNode(t, g, "A")
	b := addNode(t, g, "B")
	c := addNode(t, g, "C")
	addEdge(t, g, a, b)
	addEdge(t, g, a, b)
	addEdge(t, g, b, c)
	require.Equal(t, 3, g.EdgeCount())

	require.NoError(t, g.DelNode(&b))

	out, err := g.OutEdges(a)
	require.NoError(t, err)
	assert.Empty(t, out)

	back, err := g.Backlinks(c)
	require.NoError(t, err)
	assert.Empty(t, back)

	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, 2, g.NodeCount())
	requireSymmetric(t, g)
}

func TestDelNode_LeavesNoDanglingIDs(t *testing.T) {
	g := newTestGraph(t)
	refs := make([]types.NodeRef, 5)
	for i := range refs {
		refs[i] = addNode(t, g, fmt.Sprintf("n%d", i))
	}
	// Every node links to every node, itself included.
	for _, from := range refs {
		for _, to := range refs {
			addEdge(t, g, from, to)
		}
	}

	victim := refs[2]
	gone := victim.ID
	require.NoError(t, g.DelNode(&victim))

	for _, r := range slices.Delete(slices.Clone(refs), 2, 3) {
		out, err := g.OutEdges(r)
		require.NoError(t, err)
		assert.Len(t, out, 4)
		for _, e := range out {
			assert.NotEqual(t, gone, e.To)
		}
		back, err := g.Backlinks(r)
		require.NoError(t, err)
		assert.Len(t, back, 4)
		assert.NotContains(t, back, gone)
	}
	assert.Equal(t, 16, g.EdgeCount())
	requireSymmetric(t, g)
}

func TestDelNode_SelfLoop(t *testing.T) {
	g := newTestGraph(t)
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	addEdge(t, g, a, a)
	addEdge(t, g, a, a)
	addEdge(t, g, a, b)
	addEdge(t, g, b, a)

	back, err := g.Backlinks(a)
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.NodeID{a.ID, a.ID, b.ID}, back)

	require.NoError(t, g.DelNode(&a))
	assert.Equal(t, 0, g.EdgeCount())

	out, err := g.OutEdges(b)
	require.NoError(t, err)
	assert.Empty(t, out)
	requireSymmetric(t, g)
}

func TestAddEdge(t *testing.T) {
	g := newTestGraph(t)
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")

	h := types.NewHyperlink(a, b)
	h.Attrs.Set("label", types.Text("uses"))
	ref, err := g.AddEdge(h)
	require.NoError(t, err)

	assert.Equal(t, types.EdgeRef{LinkID: "l1", From: a.ID, To: b.ID}, ref)
	assert.Equal(t, "l1", h.LinkID())

	got, err := g.Edge(ref)
	require.NoError(t, err)
	assert.Same(t, h, got)

	back, err := g.Backlinks(b)
	require.NoError(t, err)
	assert.Equal(t, []types.NodeID{a.ID}, back)

	_, err = g.AddEdge(h)
	assert.ErrorIs(t, err, types.ErrAlreadyInserted)
	assert.Equal(t, 1, g.EdgeCount())
}

func TestAddEdge_InvalidEndpoints(t *testing.T) {
	g := newTestGraph(t)
	a := addNode(t, g, "a")
	missing := types.NodeRef{ID: 42}

	tests := []struct {
		name string
		h    *types.Hyperlink
	}{
		{name: "nil hyperlink", h: nil},
		{name: "unset source", h: types.NewHyperlink(types.NodeRef{}, a)},
		{name: "unknown source", h: types.NewHyperlink(missing, a)},
		{name: "unknown destination", h: types.NewHyperlink(a, missing)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.AddEdge(tt.h)
			assert.ErrorIs(t, err, types.ErrInvalidReference)
			if tt.h != nil {
				assert.Empty(t, tt.h.LinkID())
			}
		})
	}
	assert.Equal(t, 0, g.EdgeCount())
	requireSymmetric(t, g)
}

func TestAddEdge_DefaultLinkIDsAreUUIDs(t *testing.T) {
	g := New()
	a, err := g.AddNode(types.NewNode("a"))
	require.NoError(t, err)

	first, err := g.AddEdge(types.NewHyperlink(a, a))
	require.NoError(t, err)
	second, err := g.AddEdge(types.NewHyperlink(a, a))
	require.NoError(t, err)

	assert.Len(t, first.LinkID, 36)
	assert.NotEqual(t, first.LinkID, second.LinkID)
}

func TestDelEdge_ParallelEdges(t *testing.T) {
	for k := 1; k <= 4; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			g := newTestGraph(t)
			a := addNode(t, g, "a")
			b := addNode(t, g, "b")
			refs := make([]types.EdgeRef, k)
			for i := range refs {
				refs[i] = addEdge(t, g, a, b)
			}

			victim := refs[k/2]
			require.NoError(t, g.DelEdge(victim))

			out, err := g.OutEdges(a)
			require.NoError(t, err)
			assert.Len(t, out, k-1)
			assert.NotContains(t, out, victim)

			back, err := g.Backlinks(b)
			require.NoError(t, err)
			assert.Len(t, back, k-1)
			requireSymmetric(t, g)
		})
	}
}

func TestDelEdge_Errors(t *testing.T) {
	g := newTestGraph(t)
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	ref := addEdge(t, g, a, b)

	tests := []struct {
		name    string
		ref     types.EdgeRef
		wantErr error
	}{
		{name: "unset source", ref: types.EdgeRef{LinkID: ref.LinkID, To: b.ID}, wantErr: types.ErrInvalidReference},
		{name: "unknown source", ref: types.EdgeRef{LinkID: ref.LinkID, From: 9, To: b.ID}, wantErr: types.ErrInvalidReference},
		{name: "empty link id", ref: types.EdgeRef{From: a.ID, To: b.ID}, wantErr: types.ErrNotFound},
		{name: "unknown link id", ref: types.EdgeRef{LinkID: "nope", From: a.ID, To: b.ID}, wantErr: types.ErrNotFound},
		{name: "wrong destination", ref: types.EdgeRef{LinkID: ref.LinkID, From: a.ID, To: a.ID}, wantErr: types.ErrNotFound},
		{name: "wrong source", ref: types.EdgeRef{LinkID: ref.LinkID, From: b.ID, To: b.ID}, wantErr: types.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, g.DelEdge(tt.ref), tt.wantErr)
		})
	}

	assert.Equal(t, 1, g.EdgeCount(), "failed deletes must not mutate")
	require.NoError(t, g.DelEdge(ref))
	assert.ErrorIs(t, g.DelEdge(ref), types.ErrNotFound, "second delete")
	requireSymmetric(t, g)
}

func TestLookups(t *testing.T) {
	g := newTestGraph(t)
	n := types.NewNode("a")
	w := n.AddWidget(types.NewWidget("panel"))
	a, err := g.AddNode(n)
	require.NoError(t, err)
	b := addNode(t, g, "b")
	e := addEdge(t, g, a, b)

	widgets, err := g.WidgetOf(a)
	require.NoError(t, err)
	assert.Equal(t, []*types.Widget{w}, widgets)

	src, err := g.SourceOf(e)
	require.NoError(t, err)
	assert.Equal(t, a, src)

	dst, err := g.TargetOf(e)
	require.NoError(t, err)
	assert.Equal(t, b, dst)

	_, err = g.WidgetOf(types.NodeRef{})
	assert.ErrorIs(t, err, types.ErrInvalidReference)
	_, err = g.SourceOf(types.EdgeRef{})
	assert.ErrorIs(t, err, types.ErrInvalidReference)
	_, err = g.TargetOf(types.EdgeRef{From: a.ID, To: 77})
	assert.ErrorIs(t, err, types.ErrInvalidReference)
	_, err = g.Edge(types.EdgeRef{LinkID: "zzz", From: a.ID, To: b.ID})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestNodes_IdOrder(t *testing.T) {
	g := newTestGraph(t)
	refs := []types.NodeRef{addNode(t, g, "a"), addNode(t, g, "b"), addNode(t, g, "c")}
	require.NoError(t, g.DelNode(&refs[1]))

	var names []string
	for n := range g.Nodes() {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"a", "c"}, names)

	// Mutating inside the loop must not deadlock.
	for n := range g.Nodes() {
		ref := n.Ref()
		require.NoError(t, g.DelNode(&ref))
	}
	assert.Equal(t, 0, g.NodeCount())
}

func TestRandomOperationsKeepSymmetry(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	g := newTestGraph(t)
	var nodes []types.NodeRef
	var edges []types.EdgeRef

	for step := 0; step < 2000; step++ {
		switch op := rng.IntN(12); {
		case op < 3 || len(nodes) == 0:
			nodes = append(nodes, addNode(t, g, fmt.Sprintf("n%d", step)))
		case op < 7:
			from := nodes[rng.IntN(len(nodes))]
			to := nodes[rng.IntN(len(nodes))]
			edges = append(edges, addEdge(t, g, from, to))
		case op < 9 && len(edges) > 0:
			i := rng.IntN(len(edges))
			err := g.DelEdge(edges[i])
			// The edge may already be gone with one of its nodes.
			if err != nil && !errors.Is(err, types.ErrNotFound) {
				require.ErrorIs(t, err, types.ErrInvalidReference, "step %d", step)
			}
			edges = slices.Delete(edges, i, i+1)
		case op == 9 && len(edges) > 0:
			// Whatever a caller does to a stored hyperlink, the store stays intact.
			h, err := g.Edge(edges[rng.IntN(len(edges))])
			if err != nil {
				break
			}
			h.Weight = rng.Float64()
			h.Attrs = types.NewAttrSet()
			_, err = g.AddEdge(h)
			require.ErrorIs(t, err, types.ErrAlreadyInserted, "step %d", step)
		case op == 10:
			n, err := g.Node(nodes[rng.IntN(len(nodes))])
			require.NoError(t, err, "step %d", step)
			n.Name = "touched"
			_, err = g.AddNode(n)
			require.ErrorIs(t, err, types.ErrAlreadyInserted, "step %d", step)
		default:
			i := rng.IntN(len(nodes))
			require.NoError(t, g.DelNode(&nodes[i]), "step %d", step)
			nodes = slices.Delete(nodes, i, i+1)
		}
		requireSymmetric(t, g)
	}
	assert.Equal(t, len(nodes), g.NodeCount())
}

func TestDelEdge_MissingBacklinkIsFatal(t *testing.T) {
	rep := &recordingReporter{}
	g := newTestGraph(t, WithFatalReporter(rep))
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	ref := addEdge(t, g, a, b)

	// Corrupt the store behind the API.
	g.entries[b.ID].back = nil

	assert.Panics(t, func() { _ = g.DelEdge(ref) })
	require.Len(t, rep.got, 1)
	assert.Equal(t, types.CodeBacklinkMissing, rep.got[0].Code)
	assert.ErrorIs(t, rep.got[0], types.ErrInternal)
	assert.NotEmpty(t, rep.got[0].File)

	// The edge is still there: the violation was caught before mutating.
	out, err := g.OutEdges(a)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestDelNode_CorruptNeighbourIsFatal(t *testing.T) {
	rep := &recordingReporter{}
	g := newTestGraph(t, WithFatalReporter(rep))
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	addEdge(t, g, a, b)
	addEdge(t, g, a, b)
	g.entries[b.ID].back = g.entries[b.ID].back[:1]

	defer func() {
		r := recover()
		require.NotNil(t, r)
		ierr, ok := r.(*types.InternalError)
		require.True(t, ok)
		assert.Equal(t, types.CodeBacklinkMissing, ierr.Code)
		assert.Equal(t, 2, g.NodeCount(), "no slot removed")
	}()
	_ = g.DelNode(&a)
}

func TestCheckSymmetry_Detects(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(g *Graph, a, b types.NodeRef)
		code    string
	}{
		{
			name:    "missing backlink",
			corrupt: func(g *Graph, a, b types.NodeRef) { g.entries[b.ID].back = nil },
			code:    types.CodeBacklinkMissing,
		},
		{
			name: "extra backlink",
			corrupt: func(g *Graph, a, b types.NodeRef) {
				g.entries[b.ID].back = append(g.entries[b.ID].back, a.ID)
			},
			code: types.CodeBacklinkExtra,
		},
		{
			name:    "dangling destination",
			corrupt: func(g *Graph, a, b types.NodeRef) { g.entries[b.ID] = nil },
			code:    types.CodeDanglingEdge,
		},
		{
			name:    "id mismatch",
			corrupt: func(g *Graph, a, b types.NodeRef) { g.entries[a.ID].node.Bind(binding.Token{}, 77) },
			code:    types.CodeIDMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGraph(t)
			a := addNode(t, g, "a")
			b := addNode(t, g, "b")
			addEdge(t, g, a, b)
			requireSymmetric(t, g)

			tt.corrupt(g, a, b)
			v := g.CheckSymmetry()
			require.NotNil(t, v)
			assert.Equal(t, tt.code, v.Code)
		})
	}
}

func TestStoredEntitiesCannotBeRebound(t *testing.T) {
	g := newTestGraph(t)
	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	c := addNode(t, g, "c")
	e := addEdge(t, g, a, b)
	addEdge(t, g, b, a)
	addEdge(t, g, c, c)

	h, err := g.Edge(e)
	require.NoError(t, err)
	h.Weight = -3
	h.Attrs.Set("moved", types.Int(1))
	h.Attrs = types.NewAttrSet()
	_, err = g.AddEdge(h)
	assert.ErrorIs(t, err, types.ErrAlreadyInserted)

	stale := e
	stale.To = c.ID
	assert.ErrorIs(t, g.DelEdge(stale), types.ErrNotFound)
	requireSymmetric(t, g)

	n, err := g.Node(a)
	require.NoError(t, err)
	n.Name = "renamed"
	n.Attrs = types.NewAttrSet()
	_, err = g.AddNode(n)
	assert.ErrorIs(t, err, types.ErrAlreadyInserted)
	assert.Equal(t, 3, g.NodeCount())
	requireSymmetric(t, g)

	for node := range g.Nodes() {
		_, err := g.AddNode(node)
		assert.ErrorIs(t, err, types.ErrAlreadyInserted)
	}

	// A removed node may come back, but only under a fresh id.
	nb, err := g.Node(b)
	require.NoError(t, err)
	require.NoError(t, g.DelNode(&b))
	assert.False(t, nb.Inserted())
	requireSymmetric(t, g)
	again, err := g.AddNode(nb)
	require.NoError(t, err)
	assert.Equal(t, types.NodeID(4), again.ID)
	assert.Equal(t, again.ID, nb.ID())
	requireSymmetric(t, g)

	require.NoError(t, g.DelNode(&c))
	requireSymmetric(t, g)
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewGraph(reg)
	require.NoError(t, err)
	g := newTestGraph(t, WithMetrics(m))

	a := addNode(t, g, "a")
	b := addNode(t, g, "b")
	e := addEdge(t, g, a, b)
	addEdge(t, g, b, a)
	require.NoError(t, g.DelEdge(e))
	assert.Error(t, g.DelEdge(e))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Nodes))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Edges))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Operations.WithLabelValues(metrics.OpAddNode, "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Operations.WithLabelValues(metrics.OpDelEdge, "not_found")))
}

func TestDebugLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	g := newTestGraph(t, WithLogger(zap.New(core)))

	a := addNode(t, g, "a")
	e := addEdge(t, g, a, a)
	require.NoError(t, g.DelEdge(e))
	require.NoError(t, g.DelNode(&a))

	var msgs []string
	for _, entry := range logs.All() {
		msgs = append(msgs, entry.Message)
	}
	assert.Equal(t, []string{"node added", "hyperlink added", "hyperlink removed", "node removed"}, msgs)
	assert.Equal(t, "l1", logs.FilterMessage("hyperlink added").All()[0].ContextMap()["link_id"])
}
