package hierarchy

import (
	"testing"

	"github.com/selvadb/selva/internal/nodeid"
	"github.com/stretchr/testify/require"
)

func id(s string) nodeid.ID { return nodeid.FromString(s) }

func TestUpsertCreatesImplicitHeadNode(t *testing.T) {
	h := New()
	n, created := h.Upsert(id("a"))
	require.True(t, created)
	require.True(t, n.Implicit)
	require.True(t, n.IsHead())

	again, created := h.Upsert(id("a"))
	require.False(t, created)
	require.Same(t, n, again)
}

func TestSetHierarchyMaintainsBiconsistentParentChild(t *testing.T) {
	h := New()
	h.SetHierarchy(id("a"), []nodeid.ID{nodeid.Root}, []nodeid.ID{id("b"), id("c")})

	a, _ := h.FindNode(id("a"))
	b, _ := h.FindNode(id("b"))
	root, _ := h.FindNode(nodeid.Root)

	require.True(t, a.Parents.Has(nodeid.Root))
	require.True(t, root.Children.Has(id("a")))
	require.True(t, a.Children.Has(id("b")))
	require.True(t, b.Parents.Has(id("a")))
}

func TestSetHierarchyReplacesPreviousEdgesDestructively(t *testing.T) {
	h := New()
	h.SetHierarchy(id("a"), nil, []nodeid.ID{id("b")})
	h.SetHierarchy(id("a"), nil, []nodeid.ID{id("c")})

	a, _ := h.FindNode(id("a"))
	b, _ := h.FindNode(id("b"))
	require.False(t, a.Children.Has(id("b")))
	require.True(t, a.Children.Has(id("c")))
	require.True(t, b.IsHead())
}

func TestHeadSetTracksParentlessNodes(t *testing.T) {
	h := New()
	h.SetHierarchy(id("a"), nil, []nodeid.ID{id("b")})

	heads := map[nodeid.ID]bool{}
	h.Heads(func(i nodeid.ID) bool { heads[i] = true; return true })
	require.True(t, heads[id("a")])
	require.True(t, heads[nodeid.Root])
	require.False(t, heads[id("b")])

	h.SetHierarchy(id("b"), nil, nil)
	heads = map[nodeid.ID]bool{}
	h.Heads(func(i nodeid.ID) bool { heads[i] = true; return true })
	require.True(t, heads[id("b")])
}

func TestAddAndDelHierarchyAreIncremental(t *testing.T) {
	h := New()
	h.AddHierarchy(id("a"), nil, []nodeid.ID{id("b")})
	h.AddHierarchy(id("a"), nil, []nodeid.ID{id("c")})

	a, _ := h.FindNode(id("a"))
	require.True(t, a.Children.Has(id("b")))
	require.True(t, a.Children.Has(id("c")))

	h.DelHierarchy(id("a"), nil, []nodeid.ID{id("b")})
	require.False(t, a.Children.Has(id("b")))
	require.True(t, a.Children.Has(id("c")))
}

func TestDeleteNodeWithoutForceDetachesOnlyTheDeletedEdge(t *testing.T) {
	h := New()
	h.SetHierarchy(id("a"), nil, []nodeid.ID{id("shared")})
	h.SetHierarchy(id("b"), nil, []nodeid.ID{id("shared")})

	deleted := h.DeleteNode(id("a"), REPLY_IDS)
	require.Equal(t, []nodeid.ID{id("a")}, deleted)

	shared, ok := h.FindNode(id("shared"))
	require.True(t, ok, "shared child survives: still reachable from b")
	require.False(t, shared.Parents.Has(id("a")))
	require.True(t, shared.Parents.Has(id("b")))
}

func TestDeleteNodeForceCascadesOrphanedChildren(t *testing.T) {
	h := New()
	h.SetHierarchy(id("a"), nil, []nodeid.ID{id("only")})

	deleted := h.DeleteNode(id("a"), FORCE|REPLY_IDS)
	require.ElementsMatch(t, []nodeid.ID{id("a"), id("only")}, deleted)

	_, ok := h.FindNode(id("only"))
	require.False(t, ok)
}

func TestDeleteNodeRefusesRoot(t *testing.T) {
	h := New()
	h.DeleteNode(nodeid.Root, FORCE)
	_, ok := h.FindNode(nodeid.Root)
	require.True(t, ok)
}

func TestDeleteNodePurgesAliases(t *testing.T) {
	h := New()
	h.Upsert(id("a"))
	h.aliases["@a1"] = id("a")
	h.aliasRev[id("a")] = map[string]struct{}{"@a1": {}}

	h.DeleteNode(id("a"), 0)
	_, ok := h.aliases["@a1"]
	require.False(t, ok)
	require.Empty(t, h.aliasRev[id("a")])
}

func TestContainerForAndTypeOfImplementNodeAccessor(t *testing.T) {
	h := New()
	n, _ := h.Upsert(id("gr"))
	c, ok := h.ContainerFor(id("gr"))
	require.True(t, ok)
	require.Same(t, n.Edges, c)

	typ, ok := h.TypeOf(id("gr"))
	require.True(t, ok)
	require.Equal(t, n.ID.Type(), typ)

	_, ok = h.ContainerFor(id("missing"))
	require.False(t, ok)
}

func TestStampDetectsRevisitWithinSameTransaction(t *testing.T) {
	h := New()
	n, _ := h.Upsert(id("a"))
	h.NextTransaction()

	require.True(t, h.Stamp(n))
	require.False(t, h.Stamp(n), "second stamp in same generation is a revisit")

	h.NextTransaction()
	require.True(t, h.Stamp(n), "new generation resets the stamp")
}
