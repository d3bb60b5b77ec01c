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

// Package command implements spec.md §6: the named command surface the core
// exposes to a dispatcher, stopping short of wire framing (that is this
// module's explicit non-goal). Core wires every store and collaborator
// together and exposes one typed Go method per command; Registry maps the
// §6 command names onto those methods for a caller that only has a name and
// a positional argument list, without needing to know Core's Go API.
package command

import (
	"github.com/selvadb/selva/internal/autoindex"
	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/idalloc"
	"github.com/selvadb/selva/internal/metrics"
	"github.com/selvadb/selva/internal/modify"
	"github.com/selvadb/selva/internal/persist"
	"github.com/selvadb/selva/internal/selvalog"
	"github.com/selvadb/selva/internal/subscription"
)

var log = selvalog.New("component", "command")

// Args is the positional argument list of a dispatched command, decoded by
// the handler that owns that command's name.
type Args []any

// Handler executes one named command against a decoded Args list.
type Handler func(Args) (any, error)

// Core wires every store and collaborator a command needs: the hierarchy
// (and, through it, the object and edge stores), the subscription manager,
// the auto-indexing engine, and the modify operation template. It also owns
// the two pieces of state that belong to the command surface itself rather
// than any one store: the node-type display-name map and the pub-sub
// channel bitmasks.
type Core struct {
	Hierarchy    *hierarchy.Hierarchy
	Subscription *subscription.Manager
	Index        *autoindex.Engine
	ModifyOp     modify.Operation

	// Metrics is optional: a nil *metrics.Collector makes every Observe*
	// call a no-op, so a caller that doesn't care about metrics can leave
	// it unset.
	Metrics *metrics.Collector

	// Detached is optional: a nil store makes hierarchy.del reject the
	// DETACH flag instead of silently discarding the subtree.
	Detached *persist.DetachedStore

	types      *typeRegistry
	pubsub     *pubsubHub
	missingIDs *idalloc.Allocator
}

// NewCore constructs a Core over already-wired collaborators (h, sub, idx
// should already be cross-wired via h.SetEventSink(sub) by the caller, the
// way every other package in this module leaves wiring to its caller rather
// than hiding it). Call SetMetrics afterward to enable the optional
// observability hooks.
func NewCore(h *hierarchy.Hierarchy, sub *subscription.Manager, idx *autoindex.Engine, mod modify.Operation) *Core {
	return &Core{
		Hierarchy:    h,
		Subscription: sub,
		Index:        idx,
		ModifyOp:     mod,
		types:        newTypeRegistry(),
		pubsub:       newPubsubHub(),
		missingIDs:   idalloc.New(),
	}
}

// SetMetrics wires a metrics collector into Core after construction.
func (c *Core) SetMetrics(m *metrics.Collector) { c.Metrics = m }

// SetDetachedStore wires the detached-subtree store into Core after
// construction, enabling the DETACH flag on hierarchy.del.
func (c *Core) SetDetachedStore(d *persist.DetachedStore) { c.Detached = d }
