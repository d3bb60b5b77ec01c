// Copyright 2026 The Selva Authors
// This file is part of Selva.
//
// Selva is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Selva is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Selva. If not, see <http://www.gnu.org/licenses/>.

package modify

import (
	"testing"
	"time"

	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/rpn"
	"github.com/selvadb/selva/internal/subscription"
	"github.com/selvadb/selva/internal/traversal"
	"github.com/stretchr/testify/require"
)

func id(s string) nodeid.ID { return nodeid.FromString(s) }

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func newWired(t *testing.T) (*hierarchy.Hierarchy, *subscription.Manager) {
	t.Helper()
	h := hierarchy.New()
	mgr := subscription.NewManager(h)
	h.SetEventSink(mgr)
	return h, mgr
}

func TestApplyCreatesNodeAndStampsTimestamps(t *testing.T) {
	h, mgr := newWired(t)
	now := time.UnixMilli(1700000000000)
	op := Operation{Hierarchy: h, Subscription: mgr, Now: fixedClock(now)}

	res, err := op.Apply(Request{
		Target: id("a"),
		Triplets: []Triplet{
			{Type: ScalarSet, Field: "title", Scalar: ScalarString, Str: "hello"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, id("a"), res.NodeID)
	require.Len(t, res.Results, 1)
	require.Equal(t, Updated, res.Results[0].Outcome)

	n, found := h.FindNode(id("a"))
	require.True(t, found)
	lk := n.Object.GetPath("createdAt")
	require.True(t, lk.IsFound())
	require.Equal(t, now.UnixMilli(), lk.Value.Long)
	lk = n.Object.GetPath("updatedAt")
	require.True(t, lk.IsFound())
	require.Equal(t, now.UnixMilli(), lk.Value.Long)
}

func TestApplyUpdatesUpdatedAtOnlyWhenFieldsChange(t *testing.T) {
	h, mgr := newWired(t)
	t0 := time.UnixMilli(1700000000000)
	op := Operation{Hierarchy: h, Subscription: mgr, Now: fixedClock(t0)}

	_, err := op.Apply(Request{
		Target:   id("a"),
		Triplets: []Triplet{{Type: ScalarSet, Field: "title", Scalar: ScalarString, Str: "hello"}},
	})
	require.NoError(t, err)

	t1 := t0.Add(time.Hour)
	op.Now = fixedClock(t1)
	res, err := op.Apply(Request{
		Target:   id("a"),
		Triplets: []Triplet{{Type: ScalarSet, Field: "title", Scalar: ScalarString, Str: "hello"}},
	})
	require.NoError(t, err)
	require.Equal(t, Unchanged, res.Results[0].Outcome)

	n, _ := h.FindNode(id("a"))
	lk := n.Object.GetPath("updatedAt")
	require.Equal(t, t0.UnixMilli(), lk.Value.Long)

	res, err = op.Apply(Request{
		Target:   id("a"),
		Triplets: []Triplet{{Type: ScalarSet, Field: "title", Scalar: ScalarString, Str: "world"}},
	})
	require.NoError(t, err)
	require.Equal(t, Updated, res.Results[0].Outcome)

	n, _ = h.FindNode(id("a"))
	lk = n.Object.GetPath("updatedAt")
	require.Equal(t, t1.UnixMilli(), lk.Value.Long)
}

func TestApplyCreateFlagRejectsExistingTarget(t *testing.T) {
	h, mgr := newWired(t)
	op := Operation{Hierarchy: h, Subscription: mgr, Now: fixedClock(time.UnixMilli(0))}

	_, err := op.Apply(Request{Target: id("a"), Flags: 0})
	require.NoError(t, err)

	_, err = op.Apply(Request{Target: id("a"), Flags: Create})
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestApplyUpdateFlagRejectsMissingTarget(t *testing.T) {
	h, mgr := newWired(t)
	op := Operation{Hierarchy: h, Subscription: mgr, Now: fixedClock(time.UnixMilli(0))}

	_, err := op.Apply(Request{Target: id("ghost"), Flags: Update})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApplyNoRootRejectsRootTarget(t *testing.T) {
	h, mgr := newWired(t)
	op := Operation{Hierarchy: h, Subscription: mgr, Now: fixedClock(time.UnixMilli(0))}

	_, err := op.Apply(Request{Target: nodeid.Root, Flags: NoRoot})
	require.ErrorIs(t, err, ErrRootForbidden)
}

func TestApplyAliasResolvesToExistingTarget(t *testing.T) {
	h, mgr := newWired(t)
	op := Operation{Hierarchy: h, Subscription: mgr, Now: fixedClock(time.UnixMilli(0))}

	_, err := op.Apply(Request{
		Target:   id("a"),
		Triplets: []Triplet{{Type: Alias, Members: []string{"my-alias"}}},
	})
	require.NoError(t, err)

	res, err := op.Apply(Request{
		Target:   id("b"),
		Triplets: []Triplet{{Type: Alias, Members: []string{"my-alias"}}, {Type: ScalarSet, Field: "title", Scalar: ScalarString, Str: "x"}},
	})
	require.NoError(t, err)
	require.Equal(t, id("a"), res.NodeID)

	_, found := h.FindNode(id("b"))
	require.False(t, found)
}

func TestApplyDeliversDeferredFieldChangeOnceForMultipleTriplets(t *testing.T) {
	h, mgr := newWired(t)
	expr, err := rpn.Compile(`"type" f "ma" eq`)
	require.NoError(t, err)

	var delivered int
	mgr.Deliver = func(string, subscription.ID, subscription.EventFlag, nodeid.ID) { delivered++ }

	h.Upsert(id("root-child"))
	h.SetHierarchy(id("root-child"), []nodeid.ID{nodeid.Root}, nil)
	n, _ := h.FindNode(id("root-child"))
	_, _ = n.Object.SetString("type", "ma", 0)

	subID := subscription.NewID("sub-modify")
	_, err = mgr.AddMarker(subID, 1, subscription.ChField, nodeid.Root, traversal.BFSDescendants, nil, "", expr, nil, "client-1", nil, subscription.NoTrigger)
	require.NoError(t, err)

	op := Operation{Hierarchy: h, Subscription: mgr, Now: fixedClock(time.UnixMilli(1))}
	_, err = op.Apply(Request{
		Target: id("root-child"),
		Triplets: []Triplet{
			{Type: ScalarSet, Field: "title", Scalar: ScalarString, Str: "x"},
			{Type: ScalarSet, Field: "body", Scalar: ScalarString, Str: "y"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, delivered)
}

func TestApplyBuildsReplicationMessageFromUpdatedTriplets(t *testing.T) {
	h, mgr := newWired(t)
	sink := NewRingBuffer(8)
	op := Operation{Hierarchy: h, Subscription: mgr, Replication: sink, Now: fixedClock(time.UnixMilli(5))}

	_, err := op.Apply(Request{
		Target: id("a"),
		Triplets: []Triplet{
			{Type: ScalarSet, Field: "title", Scalar: ScalarString, Str: "x"},
		},
	})
	require.NoError(t, err)

	msgs := sink.Drain()
	require.Len(t, msgs, 1)
	require.Equal(t, id("a"), msgs[0].Target)

	var sawTitle, sawCreatedAt, sawUpdatedAt bool
	for _, tr := range msgs[0].Triplets {
		switch tr.Field {
		case "title":
			sawTitle = true
		case fieldCreatedAt:
			sawCreatedAt = true
		case fieldUpdatedAt:
			sawUpdatedAt = true
		}
	}
	require.True(t, sawTitle)
	require.True(t, sawCreatedAt)
	require.True(t, sawUpdatedAt)
}

func TestApplyIncrementCreatesThenAccumulates(t *testing.T) {
	h, mgr := newWired(t)
	op := Operation{Hierarchy: h, Subscription: mgr, Now: fixedClock(time.UnixMilli(0))}

	_, err := op.Apply(Request{
		Target:   id("a"),
		Triplets: []Triplet{{Type: Increment, Field: "views", Scalar: ScalarLong, Long: 3}},
	})
	require.NoError(t, err)
	_, err = op.Apply(Request{
		Target:   id("a"),
		Triplets: []Triplet{{Type: Increment, Field: "views", Scalar: ScalarLong, Long: 4}},
	})
	require.NoError(t, err)

	n, _ := h.FindNode(id("a"))
	lk := n.Object.GetPath("views")
	require.True(t, lk.IsFound())
	require.EqualValues(t, 7, lk.Value.Long)
}

func TestApplyArrayTrimKeepsOnlyLastN(t *testing.T) {
	h, mgr := newWired(t)
	op := Operation{Hierarchy: h, Subscription: mgr, Now: fixedClock(time.UnixMilli(0))}

	_, err := op.Apply(Request{
		Target: id("a"),
		Triplets: []Triplet{
			{Type: ArrayPush, Field: "log", Scalar: ScalarString, Str: "1"},
			{Type: ArrayPush, Field: "log", Scalar: ScalarString, Str: "2"},
			{Type: ArrayPush, Field: "log", Scalar: ScalarString, Str: "3"},
			{Type: ArrayTrim, Field: "log", N: 2},
		},
	})
	require.NoError(t, err)

	n, _ := h.FindNode(id("a"))
	length, err := n.Object.GetArrayLen("log")
	require.NoError(t, err)
	require.Equal(t, 2, length)
}
