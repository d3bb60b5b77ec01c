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
	"github.com/selvadb/selva/internal/idalloc"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/rpn"
	"github.com/selvadb/selva/internal/selvalog"
	"github.com/selvadb/selva/internal/traversal"
)

var log = selvalog.New("component", "subscription")

// DeliverFunc is how a deferred or missing-accessor event reaches its
// client, standing in for the I/O-worker ring buffer of §5: the core only
// enqueues a fixed-shape record and must never block, so implementations
// are expected to be non-blocking (e.g. a channel send with a default
// drop-and-count case).
type DeliverFunc func(clientID string, subID ID, flag EventFlag, node nodeid.ID)

// Manager implements hierarchy.EventSink and is the subscription & event
// system of spec.md §4.4: marker placement/refresh, the deferred-event
// queue, trigger markers and missing-accessor markers.
type Manager struct {
	h *hierarchy.Hierarchy

	gids *idalloc.Allocator

	subs    map[ID]*Subscription
	markers map[uint32]*Marker // keyed by GID
	detached []*Marker
	triggers []*Marker
	missing  map[string][]*Marker

	// batch state, valid only between BeginBatch/EndBatch.
	inBatch      bool
	precheck     map[nodeid.ID]map[uint32]bool
	deferredSub  map[ID]map[EventFlag]nodeid.ID
	triggerFired map[nodeid.ID]map[TriggerKind]bool

	Deliver DeliverFunc
}

var _ hierarchy.EventSink = (*Manager)(nil)

// NewManager wires a Manager to h. The caller must still call
// h.SetEventSink(mgr) to complete the wiring (kept as two steps so tests can
// construct a Manager without a live hierarchy callback loop until ready).
func NewManager(h *hierarchy.Hierarchy) *Manager {
	return &Manager{
		h:       h,
		gids:    idalloc.New(),
		subs:    make(map[ID]*Subscription),
		markers: make(map[uint32]*Marker),
		missing: make(map[string][]*Marker),
	}
}

func (m *Manager) subscriptionFor(subID ID) *Subscription {
	sub, ok := m.subs[subID]
	if !ok {
		sub = &Subscription{ID: subID, Markers: make(map[uint32]*Marker)}
		m.subs[subID] = sub
	}
	return sub
}

// AddMarker registers a marker under subID per §4.4's AddMarker contract,
// refreshing it immediately unless its scope is detached (whole-hierarchy).
func (m *Manager) AddMarker(subID ID, markerID uint32, flags EventFlag, anchor nodeid.ID, dir traversal.Direction, fieldExpr *rpn.Expression, edgeField string, filterExpr *rpn.Expression, fieldFilter []string, clientID string, action ActionCallback, trigger TriggerKind) (*Marker, error) {
	sub := m.subscriptionFor(subID)
	if _, exists := sub.Markers[markerID]; exists {
		return nil, ErrExists
	}
	mk := newMarker(subID, markerID)
	mk.Flags = flags
	mk.Anchor = anchor
	mk.Direction = dir
	mk.FieldExpr = fieldExpr
	mk.EdgeField = edgeField
	mk.FilterExpr = filterExpr
	mk.ClientID = clientID
	mk.Action = action
	mk.Trigger = trigger
	if len(fieldFilter) > 0 {
		mk.FieldFilter = make(map[string]struct{}, len(fieldFilter))
		for _, f := range fieldFilter {
			mk.FieldFilter[f] = struct{}{}
		}
	}
	mk.GID = m.gids.Alloc()

	sub.Markers[markerID] = mk
	m.markers[mk.GID] = mk
	if trigger != NoTrigger {
		m.triggers = append(m.triggers, mk)
	}
	if isDetachedAnchor(anchor) {
		mk.Detached = true
		m.detached = append(m.detached, mk)
		return mk, nil
	}
	m.Refresh(mk)
	return mk, nil
}

// isDetachedAnchor reports whether anchor designates "the whole hierarchy"
// scope rather than a specific node, per §4.4 "Detached markers".
func isDetachedAnchor(anchor nodeid.ID) bool {
	return anchor.IsZero()
}

// PlaceActionMarker registers an action-callback marker under the reserved
// system subscription, used only by the auto-indexer to materialize an ICB
// (§4.5 "Materialization"). markerID must be reserved from the same
// allocator the caller uses for ICB ids so it stays unique within systemID.
func (m *Manager) PlaceActionMarker(markerID uint32, flags EventFlag, anchor nodeid.ID, dir traversal.Direction, filterExpr *rpn.Expression, action ActionCallback) (*Marker, error) {
	return m.AddMarker(systemID, markerID, flags, anchor, dir, nil, "", filterExpr, nil, "", action, NoTrigger)
}

// RemoveMarkerByID destroys a single marker, per §3's "destroyed by client"
// lifecycle (as opposed to DeleteSubscription destroying all of them).
func (m *Manager) RemoveMarkerByID(subID ID, markerID uint32) error {
	sub, ok := m.subs[subID]
	if !ok {
		return ErrNotFound
	}
	mk, ok := sub.Markers[markerID]
	if !ok {
		return ErrNotFound
	}
	delete(sub.Markers, markerID)
	m.removeMarker(mk)
	if len(sub.Markers) == 0 {
		delete(m.subs, subID)
	}
	return nil
}

// DeleteSubscription removes every marker in subID from every node's
// membership set and from the hierarchy's detached list, then drops the
// subscription record (§4.4 "Subscription deletion").
func (m *Manager) DeleteSubscription(subID ID) error {
	sub, ok := m.subs[subID]
	if !ok {
		return ErrNotFound
	}
	for _, mk := range sub.Markers {
		m.removeMarker(mk)
	}
	delete(m.subs, subID)
	// One-shot missing-accessor markers never fired are swept too: §9's
	// open question is resolved here as "delete with the subscription".
	for accessor, list := range m.missing {
		kept := list[:0]
		for _, mk := range list {
			if mk.SubID != subID {
				kept = append(kept, mk)
			}
		}
		if len(kept) == 0 {
			delete(m.missing, accessor)
		} else {
			m.missing[accessor] = kept
		}
	}
	return nil
}

// removeMarker unlinks mk from every node it currently reaches, the
// detached/trigger lists, and frees its GID.
func (m *Manager) removeMarker(mk *Marker) {
	mk.Reached.Each(func(id nodeid.ID) bool {
		if n, ok := m.h.FindNode(id); ok {
			n.Markers.Remove(mk.GID)
		}
		return true
	})
	delete(m.markers, mk.GID)
	m.gids.Free(mk.GID)
	if mk.Detached {
		m.detached = removeFromSlice(m.detached, mk)
	}
	if mk.Trigger != NoTrigger {
		m.triggers = removeFromSlice(m.triggers, mk)
	}
}

func removeFromSlice(s []*Marker, target *Marker) []*Marker {
	for i, mk := range s {
		if mk == target {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// Marker looks up a marker by subscription and marker id.
func (m *Manager) Marker(subID ID, markerID uint32) (*Marker, bool) {
	sub, ok := m.subs[subID]
	if !ok {
		return nil, false
	}
	mk, ok := sub.Markers[markerID]
	return mk, ok
}
