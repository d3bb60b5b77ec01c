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

package command

import (
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/subscription"
)

// ResolveNodeID implements resolve.nodeId: the first candidate that exists,
// treating each argument as either a node id (by shape) or an alias (by
// lookup). When subID is non-empty and the match was by alias, a
// missing-accessor marker is installed for that alias, per §6 ("if a
// subscription id is supplied and the match was by alias, a missing-accessor
// marker is installed for the alias that matched"): a later RemoveAlias
// followed by re-registration of the same alias name is the scenario this
// lets a client learn about.
//
// markerID is drawn from Core's own allocator rather than one scoped to
// subID, so it stays unique across every resolve.nodeId call; it can still
// collide with a marker id a client chose directly via its own AddMarker
// calls on the same subID, since subscription.Marker keys are per-subID, not
// global. A production dispatcher would hand resolve.nodeId its own reserved
// sub-range the way the auto-indexer reserves systemID's.
func (c *Core) ResolveNodeID(subID string, clientID string, candidates ...string) (nodeid.ID, bool) {
	id, matchedByAlias, ok := c.Hierarchy.Resolve(candidates...)
	if !ok {
		return nodeid.ID{}, false
	}
	if matchedByAlias && subID != "" {
		sid := subscription.NewID(subID)
		markerID := c.missingIDs.Alloc()
		c.Subscription.AddMissingAccessorMarker(sid, markerID, matchedAlias(candidates, id, c), clientID)
	}
	return id, true
}

// matchedAlias finds which candidate string actually resolved to id by
// alias lookup (as opposed to matching by id shape), so the missing-accessor
// marker is installed against that specific alias rather than every
// candidate.
func matchedAlias(candidates []string, id nodeid.ID, c *Core) string {
	for _, cand := range candidates {
		if cand == id.String() {
			continue
		}
		if resolved, ok := c.Hierarchy.ResolveAlias(cand); ok && resolved == id {
			return cand
		}
	}
	return ""
}
