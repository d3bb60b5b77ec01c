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

package autoindex

import (
	"context"
	"testing"
	"time"

	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/subscription"
	"github.com/selvadb/selva/internal/traversal"
	"github.com/stretchr/testify/require"
)

func id(s string) nodeid.ID { return nodeid.FromString(s) }

func newWired(t *testing.T) (*hierarchy.Hierarchy, *subscription.Manager, *Engine) {
	t.Helper()
	h := hierarchy.New()
	mgr := subscription.NewManager(h)
	h.SetEventSink(mgr)
	e := NewEngine(h, mgr, DefaultConfig())
	return h, mgr, e
}

func TestQueryCreatesCandidateOnFirstMiss(t *testing.T) {
	_, _, e := newWired(t)
	q := Query{Anchor: nodeid.Root, Dir: traversal.BFSDescendants}

	icb, servable := e.Query(q)
	require.NotNil(t, icb)
	require.False(t, servable)
	require.Equal(t, uint32(1), icb.ID)
}

func TestQueryIncrementsPopularityOnHit(t *testing.T) {
	_, _, e := newWired(t)
	q := Query{Anchor: nodeid.Root, Dir: traversal.BFSDescendants}

	first, _ := e.Query(q)
	second, _ := e.Query(q)
	require.Same(t, first, second)
	require.Equal(t, 2, second.popCur)
}

func TestQueryIneligibleDirectionIsNeverTracked(t *testing.T) {
	_, _, e := newWired(t)
	icb, servable := e.Query(Query{Anchor: nodeid.Root, Dir: traversal.Children})
	require.Nil(t, icb)
	require.False(t, servable)
	require.Empty(t, e.List())
}

func TestIcbTickProposesAboveThreshold(t *testing.T) {
	h, _, e := newWired(t)
	for i := 0; i < 40; i++ {
		h.Upsert(id(string(rune('a' + i))))
		h.SetHierarchy(id(string(rune('a'+i))), []nodeid.ID{nodeid.Root}, nil)
	}
	q := Query{Anchor: nodeid.Root, Dir: traversal.BFSDescendants}
	icb, _ := e.Query(q)
	icb.valid = true
	icb.set = nodeid.NewSet()
	for i := 0; i < 40; i++ {
		icb.set.Add(id(string(rune('a' + i))))
	}

	// With PopLowPass 0.25 the size average climbs 10, 17.5, 23.1, 27.3,
	// 30.5, 32.9: the sixth tick is the first to reach the threshold of 32.
	for i := 0; i < 6; i++ {
		e.IcbTick(icb)
	}
	require.Equal(t, 1, e.top.Len())
}

func TestMaterializeBuildsResultFromRefresh(t *testing.T) {
	h, _, e := newWired(t)
	h.SetHierarchy(id("a"), []nodeid.ID{nodeid.Root}, nil)
	h.SetHierarchy(id("b"), []nodeid.ID{nodeid.Root}, nil)

	icb, err := e.NewPermanent(Query{Anchor: nodeid.Root, Dir: traversal.BFSDescendants})
	require.NoError(t, err)
	require.True(t, icb.Active())
	require.True(t, icb.Valid())

	result := icb.Result(h)
	require.Len(t, result, 2)
}

func TestMaterializedIndexGrowsOnNewMatchingNode(t *testing.T) {
	h, _, e := newWired(t)
	h.SetHierarchy(id("a"), []nodeid.ID{nodeid.Root}, nil)

	icb, err := e.NewPermanent(Query{Anchor: nodeid.Root, Dir: traversal.BFSDescendants})
	require.NoError(t, err)
	require.Len(t, icb.Result(h), 1)

	h.SetHierarchy(id("b"), []nodeid.ID{nodeid.Root}, nil)
	require.Len(t, icb.Result(h), 2)
}

func TestDiscardInvalidatesButKeepsICB(t *testing.T) {
	h, _, e := newWired(t)
	h.SetHierarchy(id("a"), []nodeid.ID{nodeid.Root}, nil)

	icb, err := e.NewPermanent(Query{Anchor: nodeid.Root, Dir: traversal.BFSDescendants})
	require.NoError(t, err)

	e.discard(icb)
	require.False(t, icb.Valid())
	require.False(t, icb.Active())
	_, found := e.m.get(icb.Name)
	require.True(t, found)
}

func TestDestroyRemovesICBEntirely(t *testing.T) {
	h, _, e := newWired(t)
	h.SetHierarchy(id("a"), []nodeid.ID{nodeid.Root}, nil)

	icb, err := e.NewPermanent(Query{Anchor: nodeid.Root, Dir: traversal.BFSDescendants})
	require.NoError(t, err)
	name := icb.Name

	e.destroy(icb)
	_, found := e.m.get(name)
	require.False(t, found)
}

func TestBuildNameIsPureFunctionOfQuery(t *testing.T) {
	q1 := Query{Anchor: id("root"), Dir: traversal.BFSDescendants, OrderField: "title", OrderAsc: true}
	q2 := Query{Anchor: id("root"), Dir: traversal.BFSDescendants, OrderField: "title", OrderAsc: true}
	require.Equal(t, BuildName(q1), BuildName(q2))

	q3 := Query{Anchor: id("root"), Dir: traversal.BFSDescendants, OrderField: "title", OrderAsc: false}
	require.NotEqual(t, BuildName(q1), BuildName(q3))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	h, _, e := newWired(t)
	h.SetHierarchy(id("a"), []nodeid.ID{nodeid.Root}, nil)
	_, err := e.NewPermanent(Query{Anchor: nodeid.Root, Dir: traversal.BFSDescendants})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()
	err = e.Run(ctx, 5*time.Millisecond, 5*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
