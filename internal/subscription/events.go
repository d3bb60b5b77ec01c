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

import "github.com/selvadb/selva/internal/nodeid"

// BeginBatch opens the three-phase mutation batch of §4.4: precheck, apply,
// defer. internal/modify calls this once per request before touching any
// store.
func (m *Manager) BeginBatch() {
	m.inBatch = true
	m.precheck = make(map[nodeid.ID]map[uint32]bool)
	m.deferredSub = make(map[ID]map[EventFlag]nodeid.ID)
	m.triggerFired = make(map[nodeid.ID]map[TriggerKind]bool)
}

// PrecheckNode records, for every marker currently on n, whether n matches
// that marker's filter before any write is applied (§4.4 step 1), so
// DeferFieldChange can later tell "was matching, now not" apart from
// "stopped matching" if a future caller needs that distinction.
func (m *Manager) PrecheckNode(id nodeid.ID) {
	n, ok := m.h.FindNode(id)
	if !ok {
		return
	}
	states := make(map[uint32]bool)
	it := n.Markers.Iterator()
	for it.HasNext() {
		gid := it.Next()
		mk, ok := m.markers[gid]
		if !ok || mk.FilterExpr == nil {
			continue
		}
		states[gid] = m.matches(mk, n)
	}
	m.precheck[id] = states
}

// WasMatching reports the precheck-phase match state recorded for mk on id,
// or false if none was recorded (no filter, or id was never prechecked).
func (m *Manager) WasMatching(id nodeid.ID, mk *Marker) bool {
	states, ok := m.precheck[id]
	if !ok {
		return false
	}
	return states[mk.GID]
}

// DeferFieldChange walks the markers reaching id and, for each with
// ChField set and a field filter admitting field, enqueues (or delivers
// immediately outside a batch) a deferred event (§4.4 step 3, §4.6
// "DeferFieldChangeEvents").
func (m *Manager) DeferFieldChange(id nodeid.ID, field string) {
	n, ok := m.h.FindNode(id)
	if !ok {
		return
	}
	it := n.Markers.Iterator()
	for it.HasNext() {
		gid := it.Next()
		mk, ok := m.markers[gid]
		if !ok || !mk.Flags.Has(ChField) || !mk.wantsField(field) {
			continue
		}
		if !m.matches(mk, n) {
			continue
		}
		m.notify(mk, ChField, id)
	}
}

// OnHierarchyChanged implements hierarchy.EventSink: a node's parent/child
// set changed structurally.
func (m *Manager) OnHierarchyChanged(id nodeid.ID) {
	m.deferStructural(id, ChHierarchy)
}

// OnHierarchyCleared implements hierarchy.EventSink: id's subtree
// relationship was fully cleared (used ahead of a cascading delete).
func (m *Manager) OnHierarchyCleared(id nodeid.ID) {
	m.deferStructural(id, ClHierarchy)
}

// OnNodeCreated implements hierarchy.EventSink. Trigger firing for
// creation is deferred to internal/modify's explicit FireCreatedTrigger
// call, made after the node's initial field writes land, per §4.4's
// "fires exactly once per new node per mutation batch, after the node's
// initial field writes, so the filter observes the final state".
func (m *Manager) OnNodeCreated(id nodeid.ID) {}

// OnNodeWillBeDeleted implements hierarchy.EventSink: fires the DELETED
// trigger and a ClHierarchy deferred event before the node is unlinked.
func (m *Manager) OnNodeWillBeDeleted(id nodeid.ID) {
	m.fireTrigger(id, TriggerDeleted)
	m.deferStructural(id, ClHierarchy)
}

// RefreshMarkersFor implements hierarchy.EventSink: re-evaluates every
// marker already reaching id, used after a structural mutation touching it.
func (m *Manager) RefreshMarkersFor(id nodeid.ID) {
	n, ok := m.h.FindNode(id)
	if !ok {
		return
	}
	gids := n.Markers.ToArray()
	for _, gid := range gids {
		if mk, ok := m.markers[gid]; ok {
			m.Refresh(mk)
		}
	}
}

// RemoveMarkersOn implements hierarchy.EventSink: drops every marker
// anchored on id entirely (its anchor no longer exists), and unlinks id
// from every other marker's membership (its Reached set), per §4.1
// "subscription markers anchored on the node are removed". Anchored
// markers are found by scanning the marker table rather than id's own
// membership set, since a skip-start direction (e.g. BFS_DESCENDANTS) never
// records the anchor itself as a member.
func (m *Manager) RemoveMarkersOn(id nodeid.ID) {
	if n, ok := m.h.FindNode(id); ok {
		gids := n.Markers.ToArray()
		for _, gid := range gids {
			if mk, ok := m.markers[gid]; ok {
				mk.Reached.Remove(id)
			}
		}
	}
	for _, mk := range m.markersAnchoredOn(id) {
		if sub, ok := m.subs[mk.SubID]; ok {
			delete(sub.Markers, mk.ID)
			if len(sub.Markers) == 0 {
				delete(m.subs, mk.SubID)
			}
		}
		m.removeMarker(mk)
	}
}

func (m *Manager) markersAnchoredOn(id nodeid.ID) []*Marker {
	var out []*Marker
	for _, mk := range m.markers {
		if !mk.Detached && mk.Anchor == id {
			out = append(out, mk)
		}
	}
	return out
}

// FireMissingAccessor implements hierarchy.EventSink: delivers and removes
// every one-shot marker waiting on accessor (§4.4 "Missing-accessor
// markers").
func (m *Manager) FireMissingAccessor(accessor string) {
	list := m.missing[accessor]
	if len(list) == 0 {
		return
	}
	delete(m.missing, accessor)
	for _, mk := range list {
		if sub, ok := m.subs[mk.SubID]; ok {
			delete(sub.Markers, mk.ID)
			if len(sub.Markers) == 0 {
				delete(m.subs, mk.SubID)
			}
		}
		if m.Deliver != nil && mk.ClientID != "" {
			m.Deliver(mk.ClientID, mk.SubID, EvtTrigger, nodeid.ID{})
		}
	}
}

// AddMissingAccessorMarker installs a one-shot marker that fires the next
// time accessor (an alias or node id string) comes into existence.
func (m *Manager) AddMissingAccessorMarker(subID ID, markerID uint32, accessor, clientID string) *Marker {
	sub := m.subscriptionFor(subID)
	mk := newMarker(subID, markerID)
	mk.ClientID = clientID
	mk.Flags = EvtTrigger
	sub.Markers[markerID] = mk
	m.missing[accessor] = append(m.missing[accessor], mk)
	return mk
}

// deferStructural walks the markers reaching id plus every detached marker,
// notifying those with flag set.
func (m *Manager) deferStructural(id nodeid.ID, flag EventFlag) {
	if n, ok := m.h.FindNode(id); ok {
		gids := n.Markers.ToArray()
		for _, gid := range gids {
			mk, ok := m.markers[gid]
			if !ok || !mk.Flags.Has(flag) {
				continue
			}
			m.notify(mk, flag, id)
		}
	}
	for _, mk := range m.detached {
		if mk.Flags.Has(flag) {
			m.notify(mk, flag, id)
		}
	}
}

// fireTrigger fires every trigger marker of kind whose filter matches id,
// at most once per (node, kind) within the open batch (§5 "trigger events
// fire once per (node, trigger kind)").
func (m *Manager) fireTrigger(id nodeid.ID, kind TriggerKind) {
	n, ok := m.h.FindNode(id)
	if !ok {
		return
	}
	fired := m.triggerFired[id]
	if fired == nil {
		fired = make(map[TriggerKind]bool)
		if m.triggerFired != nil {
			m.triggerFired[id] = fired
		}
	}
	if fired[kind] {
		return
	}
	matchedAny := false
	for _, mk := range m.triggers {
		if mk.Trigger != kind {
			continue
		}
		if !m.matches(mk, n) {
			continue
		}
		matchedAny = true
		m.notify(mk, EvtTrigger, id)
	}
	if matchedAny {
		fired[kind] = true
	}
}

// FireCreatedTrigger fires CREATED triggers for id; internal/modify calls
// this after id's initial field writes complete.
func (m *Manager) FireCreatedTrigger(id nodeid.ID) { m.fireTrigger(id, TriggerCreated) }

// FireUpdatedTrigger fires UPDATED triggers for id.
func (m *Manager) FireUpdatedTrigger(id nodeid.ID) { m.fireTrigger(id, TriggerUpdated) }

// enqueueDeferred records flag for subID, deduplicated so a batch touching
// the same subscription's markers repeatedly still yields one event per
// (subscription, event-kind) (§4.4, invariant P9). Outside an open batch it
// delivers immediately instead.
func (m *Manager) enqueueDeferred(mk *Marker, flag EventFlag, node nodeid.ID) {
	if !m.inBatch {
		if m.Deliver != nil && mk.ClientID != "" {
			m.Deliver(mk.ClientID, mk.SubID, flag, node)
		}
		return
	}
	byFlag, ok := m.deferredSub[mk.SubID]
	if !ok {
		byFlag = make(map[EventFlag]nodeid.ID)
		m.deferredSub[mk.SubID] = byFlag
	}
	if _, exists := byFlag[flag]; !exists {
		byFlag[flag] = node
	}
}

// DeferredQueueDepth returns the number of distinct (subscription,
// event-kind) entries currently pending delivery, for the deferred-event
// queue depth gauge of SPEC_FULL §B.
func (m *Manager) DeferredQueueDepth() int {
	n := 0
	for _, byFlag := range m.deferredSub {
		n += len(byFlag)
	}
	return n
}

// EndBatch flushes the deferred-event queue, delivering once per
// (subscription, event-kind), then clears all batch state (§4.4 "At the end
// of the batch").
func (m *Manager) EndBatch() {
	if m.Deliver != nil {
		for subID, byFlag := range m.deferredSub {
			sub, ok := m.subs[subID]
			if !ok {
				continue
			}
			var clientID string
			for _, mk := range sub.Markers {
				if mk.ClientID != "" {
					clientID = mk.ClientID
					break
				}
			}
			if clientID == "" {
				continue
			}
			for flag, node := range byFlag {
				m.Deliver(clientID, subID, flag, node)
			}
		}
	}
	m.inBatch = false
	m.precheck = nil
	m.deferredSub = nil
	m.triggerFired = nil
}
