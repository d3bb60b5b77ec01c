package traversal

import (
	"testing"

	"github.com/selvadb/selva/internal/edge"
	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
	"github.com/selvadb/selva/internal/rpn"
	"github.com/stretchr/testify/require"
)

func id(s string) nodeid.ID { return nodeid.FromString(s) }

func buildS1(t *testing.T) *hierarchy.Hierarchy {
	t.Helper()
	h := hierarchy.New()
	h.SetHierarchy(id("c"), []nodeid.ID{id("a"), id("b")}, nil)
	h.SetHierarchy(id("d"), []nodeid.ID{id("b")}, nil)
	return h
}

func collectIDs(h *hierarchy.Hierarchy, start nodeid.ID, dir Direction) []nodeid.ID {
	var out []nodeid.ID
	_ = Walk(h, start, dir, Options{}, Callbacks{Node: func(n *hierarchy.Node) bool {
		out = append(out, n.ID)
		return false
	}})
	return out
}

func TestBFSDescendantsSkipsStartNode(t *testing.T) {
	h := buildS1(t)
	descOfB := collectIDs(h, id("b"), BFSDescendants)
	require.ElementsMatch(t, []nodeid.ID{id("c"), id("d")}, descOfB)
}

func TestBFSAncestorsOfC(t *testing.T) {
	h := buildS1(t)
	ancOfC := collectIDs(h, id("c"), BFSAncestors)
	require.ElementsMatch(t, []nodeid.ID{id("a"), id("b")}, ancOfC)
}

func TestAncestorsOfCAfterAddingParentScenarioS2(t *testing.T) {
	h := buildS1(t)
	h.AddHierarchy(id("b"), []nodeid.ID{id("e")}, nil)

	ancOfC := collectIDs(h, id("c"), BFSAncestors)
	require.ElementsMatch(t, []nodeid.ID{id("a"), id("b"), id("e")}, ancOfC)
}

func TestCycleSafetyVisitsEachNodeOnce(t *testing.T) {
	h := hierarchy.New()
	h.AddHierarchy(id("a"), nil, []nodeid.ID{id("b")})
	h.AddHierarchy(id("b"), nil, []nodeid.ID{id("a")})

	visits := 0
	_ = Walk(h, id("a"), BFSDescendants, Options{}, Callbacks{Node: func(n *hierarchy.Node) bool {
		visits++
		return false
	}})
	require.Equal(t, 1, visits)
}

func TestBFSEdgeFieldFollowsArcsOnly(t *testing.T) {
	h := hierarchy.New()
	a, _ := h.Upsert(id("a"))
	constraint := &edge.Constraint{ID: "friend"}
	require.NoError(t, a.Edges.Add(h, id("a"), "friend", constraint, id("b")))
	h.Upsert(id("b"))

	got := collectIDs(h, id("a"), BFSEdgeField)
	opts := Options{EdgeField: "friend"}
	var out []nodeid.ID
	_ = Walk(h, id("a"), BFSEdgeField, opts, Callbacks{Node: func(n *hierarchy.Node) bool {
		out = append(out, n.ID)
		return false
	}})
	require.Equal(t, []nodeid.ID{id("a")}, got, "no EdgeField configured means no adjacency: only the start node is visited")
	require.ElementsMatch(t, []nodeid.ID{id("a"), id("b")}, out)
}

func TestExpressionDrivenTraversalFollowsReturnedFields(t *testing.T) {
	h := hierarchy.New()
	h.SetHierarchy(id("a"), nil, []nodeid.ID{id("b")})

	expr, err := rpn.Compile(`"children" mkset`)
	require.NoError(t, err)

	var out []nodeid.ID
	err = Walk(h, id("a"), Expression, Options{FieldExpr: expr}, Callbacks{Node: func(n *hierarchy.Node) bool {
		out = append(out, n.ID)
		return false
	}})
	require.NoError(t, err)
	require.ElementsMatch(t, []nodeid.ID{id("a"), id("b")}, out)
}

func TestExpressionDrivenTraversalVisitsOverlappingFieldsOnce(t *testing.T) {
	h := hierarchy.New()
	a, _ := h.Upsert(id("a"))
	h.SetHierarchy(id("a"), nil, []nodeid.ID{id("b")})
	constraint := &edge.Constraint{ID: "friend"}
	require.NoError(t, a.Edges.Add(h, id("a"), "friend", constraint, id("b")))

	expr, err := rpn.Compile(`"children" mkset "friend" mkset union`)
	require.NoError(t, err)

	var fireChildCount int
	err = Walk(h, id("a"), Expression, Options{FieldExpr: expr}, Callbacks{
		Node: func(n *hierarchy.Node) bool { return false },
		Child: func(field string, from, to *hierarchy.Node) {
			fireChildCount++
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, fireChildCount, "b is reachable via both children and friend; it must be visited once")
}

func TestFindWildcardEmitsScalarFields(t *testing.T) {
	h := hierarchy.New()
	n, _ := h.Upsert(id("a"))
	require.NoError(t, n.Object.Set("title", object.StringValue("x")))
	require.NoError(t, n.Object.Set("nested", object.ObjectValue(object.New())))

	results, err := Find(h, id("a"), Node, Options{}, FieldSpec{Fields: []string{"*"}}, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "title", results[0].Path)
}

func TestFindMergeAllDedupsByPathAcrossNodes(t *testing.T) {
	h := hierarchy.New()
	h.SetHierarchy(id("a"), nil, []nodeid.ID{id("b"), id("c")})
	b, _ := h.FindNode(id("b"))
	require.NoError(t, b.Object.Set("title", object.StringValue("b-title")))
	c, _ := h.FindNode(id("c"))
	require.NoError(t, c.Object.Set("title", object.StringValue("c-title")))

	results, err := Find(h, id("a"), BFSDescendants, Options{}, FieldSpec{Fields: []string{"title"}, Merge: MergeAll}, 0)
	require.NoError(t, err)
	require.Len(t, results, 1, "merge ALL dedups the title path across both descendant nodes")
}

func TestOrderItemComparesByKeyThenNodeID(t *testing.T) {
	items := []OrderItem{
		{Kind: OrderText, Text: "b", NodeID: id("2")},
		{Kind: OrderText, Text: "a", NodeID: id("1")},
	}
	require.True(t, items[1].Less(items[0]))
	require.False(t, items[0].Less(items[1]))
}

func TestWalkReportsStartNotFound(t *testing.T) {
	h := hierarchy.New()
	err := Walk(h, id("missing"), BFSDescendants, Options{}, Callbacks{})
	require.ErrorIs(t, err, ErrStartNotFound)
}
