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

package subscription

import (
	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/rpn"
	"github.com/selvadb/selva/internal/traversal"
)

// Refresh re-evaluates mk's membership by walking from its anchor, per
// §4.4's three-step refresh contract. It is idempotent: re-running it when
// the hierarchy has not changed yields the same membership set, since
// matchAndVisit/Stamp make each node's outcome a pure function of current
// state.
func (m *Manager) Refresh(mk *Marker) {
	if mk.Detached {
		return
	}
	if _, ok := m.h.FindNode(mk.Anchor); !ok {
		return
	}
	m.h.NextTransaction()
	stillReached := nodeid.NewSet()
	err := traversal.Walk(m.h, mk.Anchor, mk.Direction, traversal.Options{
		EdgeField: mk.EdgeField,
		FieldExpr: mk.FieldExpr,
		Filter:    mk.FilterExpr,
	}, traversal.Callbacks{
		Node: func(n *hierarchy.Node) bool {
			n.Markers.Add(mk.GID)
			stillReached.Add(n.ID)
			if mk.Flags.Has(EvtRefresh) {
				m.notify(mk, EvtRefresh, n.ID)
			}
			return false
		},
	})
	if err != nil {
		log.Error("marker refresh failed", "sub", mk.SubID, "marker", mk.ID, "err", err)
		return
	}
	// Drop membership for nodes the marker no longer reaches.
	mk.Reached.Each(func(id nodeid.ID) bool {
		if !stillReached.Has(id) {
			if n, ok := m.h.FindNode(id); ok {
				n.Markers.Remove(mk.GID)
			}
		}
		return true
	})
	mk.Reached = stillReached
}

// matches reports whether n currently satisfies mk's filter expression
// (absent filter = always matches), per §4.4's refresh step 3.
func (m *Manager) matches(mk *Marker, n *hierarchy.Node) bool {
	if mk.FilterExpr == nil {
		return true
	}
	ok, err := mk.FilterExpr.EvalBool(rpn.Context{Node: nodeFieldReader{n.Object}})
	return err == nil && ok
}

// notify delivers flag for node through mk's delivery target: deferred if a
// batch is open, immediate otherwise. Action-callback markers always fire
// immediately, since they are the auto-indexer's own synchronous
// maintenance hook, not a client-facing deferred event.
func (m *Manager) notify(mk *Marker, flag EventFlag, node nodeid.ID) {
	if mk.Action != nil {
		mk.Action.OnEvent(flag, node)
		return
	}
	m.enqueueDeferred(mk, flag, node)
}
