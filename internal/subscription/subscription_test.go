package subscription

import (
	"testing"

	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/rpn"
	"github.com/selvadb/selva/internal/traversal"
	"github.com/stretchr/testify/require"
)

func id(s string) nodeid.ID { return nodeid.FromString(s) }

func newWired(t *testing.T) (*hierarchy.Hierarchy, *Manager) {
	t.Helper()
	h := hierarchy.New()
	mgr := NewManager(h)
	h.SetEventSink(mgr)
	return h, mgr
}

func TestAddMarkerRefreshesMembershipImmediately(t *testing.T) {
	h, mgr := newWired(t)
	h.SetHierarchy(id("a"), []nodeid.ID{nodeid.Root}, []nodeid.ID{id("b")})

	subID := NewID("sub-1")
	mk, err := mgr.AddMarker(subID, 1, ChField|EvtRefresh, nodeid.Root, traversal.BFSDescendants, nil, "", nil, nil, "client-1", nil, NoTrigger)
	require.NoError(t, err)

	a, _ := h.FindNode(id("a"))
	b, _ := h.FindNode(id("b"))
	require.True(t, a.Markers.Contains(mk.GID))
	require.True(t, b.Markers.Contains(mk.GID))
}

func TestFieldChangeDeliversOncePerSubscriptionPerBatch(t *testing.T) {
	h, mgr := newWired(t)
	h.SetHierarchy(id("ma1"), []nodeid.ID{nodeid.Root}, nil)

	var delivered []EventFlag
	mgr.Deliver = func(clientID string, subID ID, flag EventFlag, node nodeid.ID) {
		delivered = append(delivered, flag)
	}

	subID := NewID("sub-s5")
	_, err := mgr.AddMarker(subID, 1, ChField, nodeid.Root, traversal.BFSDescendants, nil, "", nil, nil, "client-1", nil, NoTrigger)
	require.NoError(t, err)

	mgr.BeginBatch()
	mgr.PrecheckNode(id("ma1"))
	mgr.DeferFieldChange(id("ma1"), "title")
	mgr.DeferFieldChange(id("ma1"), "body")
	mgr.EndBatch()

	require.Len(t, delivered, 1)
	require.Equal(t, ChField, delivered[0])
}

func TestFieldFilterAdmitsOnlyListedFields(t *testing.T) {
	h, mgr := newWired(t)
	h.SetHierarchy(id("a"), []nodeid.ID{nodeid.Root}, nil)

	var delivered int
	mgr.Deliver = func(string, ID, EventFlag, nodeid.ID) { delivered++ }

	subID := NewID("sub-ff")
	_, err := mgr.AddMarker(subID, 1, ChField, nodeid.Root, traversal.BFSDescendants, nil, "", nil, []string{"title"}, "client-1", nil, NoTrigger)
	require.NoError(t, err)

	mgr.BeginBatch()
	mgr.DeferFieldChange(id("a"), "body")
	mgr.EndBatch()
	require.Zero(t, delivered)

	mgr.BeginBatch()
	mgr.DeferFieldChange(id("a"), "title")
	mgr.EndBatch()
	require.Equal(t, 1, delivered)
}

func TestCreatedTriggerFiresOncePerNodePerBatch(t *testing.T) {
	h, mgr := newWired(t)
	expr, err := rpn.Compile(`"type" f "ma" eq`)
	require.NoError(t, err)

	var delivered int
	mgr.Deliver = func(string, ID, EventFlag, nodeid.ID) { delivered++ }

	subID := NewID("sub-trig")
	_, err = mgr.AddMarker(subID, 1, EvtTrigger, nodeid.ID{}, 0, nil, "", expr, nil, "client-1", nil, TriggerCreated)
	require.NoError(t, err)

	n, _ := h.Upsert(id("ma1"))
	_, _ = n.Object.SetString("type", "ma", 0)

	mgr.BeginBatch()
	mgr.FireCreatedTrigger(id("ma1"))
	mgr.FireCreatedTrigger(id("ma1"))
	mgr.EndBatch()

	require.Equal(t, 1, delivered)
}

func TestDeleteNodeRemovesAnchoredMarker(t *testing.T) {
	h, mgr := newWired(t)
	h.SetHierarchy(id("a"), []nodeid.ID{nodeid.Root}, nil)

	subID := NewID("sub-del")
	_, err := mgr.AddMarker(subID, 1, ChField, id("a"), traversal.BFSDescendants, nil, "", nil, nil, "client-1", nil, NoTrigger)
	require.NoError(t, err)

	h.DeleteNode(id("a"), 0)

	_, found := mgr.Marker(subID, 1)
	require.False(t, found)
}

func TestMissingAccessorMarkerFiresOnceAndIsRemoved(t *testing.T) {
	h, mgr := newWired(t)
	var delivered int
	mgr.Deliver = func(string, ID, EventFlag, nodeid.ID) { delivered++ }

	subID := NewID("sub-missing")
	mgr.AddMissingAccessorMarker(subID, 1, "some-alias", "client-1")

	h.SetAlias("some-alias", id("a"))
	require.Equal(t, 1, delivered)

	delivered = 0
	h.SetAlias("some-alias", id("b"))
	require.Zero(t, delivered)
}

func TestDeleteSubscriptionRemovesAllItsMarkers(t *testing.T) {
	h, mgr := newWired(t)
	h.SetHierarchy(id("a"), []nodeid.ID{nodeid.Root}, nil)

	subID := NewID("sub-multi")
	_, err := mgr.AddMarker(subID, 1, ChField, nodeid.Root, traversal.BFSDescendants, nil, "", nil, nil, "c", nil, NoTrigger)
	require.NoError(t, err)
	_, err = mgr.AddMarker(subID, 2, ChHierarchy, nodeid.Root, traversal.BFSDescendants, nil, "", nil, nil, "c", nil, NoTrigger)
	require.NoError(t, err)

	require.NoError(t, mgr.DeleteSubscription(subID))
	_, found := mgr.Marker(subID, 1)
	require.False(t, found)
	_, found = mgr.Marker(subID, 2)
	require.False(t, found)

	a, _ := h.FindNode(id("a"))
	require.Equal(t, uint64(0), a.Markers.GetCardinality())
}
