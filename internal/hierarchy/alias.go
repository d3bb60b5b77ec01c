package hierarchy

import (
	"github.com/selvadb/selva/internal/nodeid"
)

// aliasField is the reverse-set field name every aliased node carries in
// its own Object, mirroring the alias map entry (invariant P3).
const aliasField = "aliases"

// SetAlias points alias at id, creating id if needed. If alias already
// resolved to a different node, it is first removed from that node's
// reverse set. Returns the id alias previously resolved to, if any.
func (h *Hierarchy) SetAlias(alias string, id nodeid.ID) (nodeid.ID, bool) {
	prev, hadPrev := h.aliases[alias]
	if hadPrev && prev == id {
		return prev, true
	}
	if hadPrev {
		h.removeAliasReverse(prev, alias)
	}
	n, _ := h.Upsert(id)
	h.aliases[alias] = id
	if h.aliasRev[id] == nil {
		h.aliasRev[id] = make(map[string]struct{})
	}
	h.aliasRev[id][alias] = struct{}{}
	if h.aliasBloom != nil {
		h.aliasBloom.Add(bloomHash(alias))
	}
	_, _ = n.Object.AddStringSet(aliasField, alias)
	h.sink.FireMissingAccessor(alias)
	return prev, hadPrev
}

// RemoveAlias deletes alias from both the alias map and its target's
// reverse set, if it exists.
func (h *Hierarchy) RemoveAlias(alias string) (nodeid.ID, bool) {
	id, ok := h.aliases[alias]
	if !ok {
		return nodeid.ID{}, false
	}
	h.removeAliasReverse(id, alias)
	delete(h.aliases, alias)
	return id, true
}

func (h *Hierarchy) removeAliasReverse(id nodeid.ID, alias string) {
	delete(h.aliasRev[id], alias)
	if len(h.aliasRev[id]) == 0 {
		delete(h.aliasRev, id)
	}
	if n, ok := h.FindNode(id); ok {
		_, _ = n.Object.RemString(aliasField, alias)
	}
}

// ResolveAlias looks up alias, consulting the bloom filter first to skip
// the map lookup on a near-certain miss.
func (h *Hierarchy) ResolveAlias(alias string) (nodeid.ID, bool) {
	if h.aliasBloom != nil && !h.aliasBloom.Contains(bloomHash(alias)) {
		return nodeid.ID{}, false
	}
	id, ok := h.aliases[alias]
	return id, ok
}

// Resolve implements §4.5 resolve.nodeId: it treats each candidate as a
// node id first (if one already exists in the index) and otherwise as an
// alias, returning the first match. matchedByAlias reports whether the hit
// came from the alias map, which callers use to decide whether to install
// a missing-accessor marker.
func (h *Hierarchy) Resolve(candidates ...string) (id nodeid.ID, matchedByAlias bool, ok bool) {
	for _, c := range candidates {
		asID := nodeid.FromString(c)
		if _, found := h.FindNode(asID); found {
			return asID, false, true
		}
		if resolved, found := h.ResolveAlias(c); found {
			return resolved, true, true
		}
	}
	return nodeid.ID{}, false, false
}

func bloomHash(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}
