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
	"crypto/sha256"

	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/rpn"
	"github.com/selvadb/selva/internal/traversal"
)

// EventFlag is the bitset of events a marker listens for, per §3's
// SubscriptionMarker "bitset of event flags".
type EventFlag uint8

const (
	// ChHierarchy fires when a node's parent/child set changes structurally.
	ChHierarchy EventFlag = 1 << iota
	// ChField fires when an object/edge field changes on a matched node.
	ChField
	// EvtRefresh fires once per node when a marker is (re)placed, letting an
	// action callback seed its cached state.
	EvtRefresh
	// ClHierarchy fires when a matched node is removed from the hierarchy.
	ClHierarchy
	// EvtTrigger marks a trigger-style marker; see TriggerKind.
	EvtTrigger
)

// Has reports whether f includes bit.
func (f EventFlag) Has(bit EventFlag) bool { return f&bit != 0 }

// TriggerKind is the lifecycle event a trigger marker fires on, independent
// of anchor membership (§4.4 "Trigger markers").
type TriggerKind uint8

const (
	NoTrigger TriggerKind = iota
	TriggerCreated
	TriggerUpdated
	TriggerDeleted
)

// ID is the 32-byte opaque subscription id, "sha256-shaped" per §3.
type ID [32]byte

// NewID derives a subscription id from a caller-supplied seed (e.g. a
// client-generated request token), matching the "sha256-shaped" wording of
// §3 without mandating any particular preimage.
func NewID(seed string) ID {
	return sha256.Sum256([]byte(seed))
}

// systemID is the reserved subscription identity under which the
// auto-indexer's action-callback markers are registered; they have no
// client delivery target and are never exposed through the subscribe
// command surface.
var systemID = ID{0x53, 0x45, 0x4c, 0x56, 0x41}

// ActionCallback is invoked directly (not deferred) for markers created
// with owner context instead of a client id — used only by the
// auto-indexer to maintain an ICB's cached result incrementally (§4.5).
type ActionCallback interface {
	OnEvent(flag EventFlag, node nodeid.ID)
}

// Marker is a SubscriptionMarker (§3): an anchor plus traversal descriptor,
// an optional field filter and RPN match expression, and either a client id
// to deliver deferred events to or an action callback.
type Marker struct {
	GID uint32 // global membership-bitmap id (internal; see DESIGN.md)

	SubID ID
	ID    uint32 // unique within SubID

	Flags     EventFlag
	Anchor    nodeid.ID
	Direction traversal.Direction
	FieldExpr *rpn.Expression
	EdgeField string

	FilterExpr  *rpn.Expression
	FieldFilter map[string]struct{} // empty/nil = all fields

	ClientID string // delivery target; empty when Action is set
	Action   ActionCallback
	Trigger  TriggerKind

	// Detached markers are scoped to the whole hierarchy or "all new
	// nodes" rather than any one node's membership set (§4.4 "Detached
	// markers").
	Detached bool

	// Reached tracks every node this marker currently reaches, so removal
	// and precheck/defer bookkeeping avoid a full hierarchy scan.
	Reached *nodeid.Set
}

func newMarker(subID ID, markerID uint32) *Marker {
	return &Marker{SubID: subID, ID: markerID, Reached: nodeid.NewSet()}
}

// wantsField reports whether m's field filter (empty = all) includes name.
func (m *Marker) wantsField(name string) bool {
	if len(m.FieldFilter) == 0 {
		return true
	}
	_, ok := m.FieldFilter[name]
	return ok
}

// Subscription owns a non-empty set of markers under one client-visible id
// (§3).
type Subscription struct {
	ID      ID
	Markers map[uint32]*Marker
}
