package hierarchy

import (
	"github.com/google/btree"
	"github.com/holiman/bloomfilter/v2"
	"github.com/selvadb/selva/internal/edge"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/selvalog"
)

var log = selvalog.New("component", "hierarchy")

// DeleteFlag is a bitmask of DeleteNode behaviors.
type DeleteFlag uint8

const (
	// FORCE cascades the delete into children that the deletion leaves
	// with no remaining parents. A child that still has other parents is
	// left in place with only the reference from the deleted node dropped,
	// with or without FORCE.
	FORCE DeleteFlag = 1 << iota
	// DETACH marks the deleted subtree as detached (compressed and stored
	// externally) instead of discarding it; see internal/persist.
	DETACH
	// REPLY_IDS asks DeleteNode to collect every id it actually deleted.
	REPLY_IDS
)

// EventSink receives structural and field-change notifications as the
// hierarchy mutates, so the subscription subsystem can defer and dedupe
// events without the hierarchy package importing it (see DESIGN.md).
type EventSink interface {
	OnHierarchyChanged(id nodeid.ID)
	OnHierarchyCleared(id nodeid.ID)
	OnNodeCreated(id nodeid.ID)
	OnNodeWillBeDeleted(id nodeid.ID)
	// RefreshMarkersFor re-evaluates marker membership for a node whose
	// parent/child set just changed, e.g. after AddHierarchy/SetHierarchy.
	RefreshMarkersFor(id nodeid.ID)
	// RemoveMarkersOn drops every marker recorded against id's membership
	// set, used when id is deleted.
	RemoveMarkersOn(id nodeid.ID)
	// FireMissingAccessor notifies one-shot markers waiting on an
	// accessor (id or alias) that just came into existence.
	FireMissingAccessor(accessor string)
}

type noopSink struct{}

func (noopSink) OnHierarchyChanged(nodeid.ID)     {}
func (noopSink) OnHierarchyCleared(nodeid.ID)     {}
func (noopSink) OnNodeCreated(nodeid.ID)          {}
func (noopSink) OnNodeWillBeDeleted(nodeid.ID)    {}
func (noopSink) RefreshMarkersFor(nodeid.ID)      {}
func (noopSink) RemoveMarkersOn(nodeid.ID)        {}
func (noopSink) FireMissingAccessor(string)       {}

// Hierarchy is the aggregate root: the by-id node index, the head set, the
// edge-constraint registry, the alias map and the transaction counter.
// Subscription/auto-index state live in sibling packages and are wired in
// through EventSink.
type Hierarchy struct {
	nodes *btree.BTreeG[*Node]
	heads map[nodeid.ID]struct{}

	Constraints *edge.Registry

	aliases    map[string]nodeid.ID
	aliasRev   map[nodeid.ID]map[string]struct{}
	aliasBloom *bloomfilter.Filter

	txCounter uint64

	sink EventSink
}

func byID(a, b *Node) bool { return a.ID.Less(b.ID) }

// New constructs an empty hierarchy with the synthetic root node present.
func New() *Hierarchy {
	bf, err := bloomfilter.New(1<<20, 6)
	if err != nil {
		// bloomfilter.New only fails on invalid parameters; the constants
		// above are static and valid, so this is unreachable in practice.
		bf = nil
	}
	h := &Hierarchy{
		nodes:       btree.NewG(32, byID),
		heads:       make(map[nodeid.ID]struct{}),
		Constraints: edge.NewRegistry(),
		aliases:     make(map[string]nodeid.ID),
		aliasRev:    make(map[nodeid.ID]map[string]struct{}),
		aliasBloom:  bf,
		sink:        noopSink{},
	}
	root := newNode(nodeid.Root)
	root.Implicit = false
	h.nodes.ReplaceOrInsert(root)
	h.heads[nodeid.Root] = struct{}{}
	return h
}

// SetEventSink wires the subscription manager that should be notified of
// structural and field changes. Must be called once during startup, before
// any mutation.
func (h *Hierarchy) SetEventSink(sink EventSink) {
	if sink == nil {
		sink = noopSink{}
	}
	h.sink = sink
}

// NextTransaction increments and returns the transaction counter, starting
// a new traversal generation (§3).
func (h *Hierarchy) NextTransaction() uint64 {
	h.txCounter++
	return h.txCounter
}

// Stamp marks n as visited in the current traversal generation, returning
// false if it was already stamped (a cycle/revisit).
func (h *Hierarchy) Stamp(n *Node) bool {
	if n.txStamp == h.txCounter {
		return false
	}
	n.txStamp = h.txCounter
	return true
}

// FindNode performs an O(log N) by-id lookup.
func (h *Hierarchy) FindNode(id nodeid.ID) (*Node, bool) {
	return h.nodes.Get(&Node{ID: id})
}

// ContainerFor implements edge.NodeAccessor.
func (h *Hierarchy) ContainerFor(id nodeid.ID) (*edge.Container, bool) {
	n, ok := h.FindNode(id)
	if !ok {
		return nil, false
	}
	return n.Edges, true
}

// TypeOf implements edge.NodeAccessor.
func (h *Hierarchy) TypeOf(id nodeid.ID) ([nodeid.TypeLen]byte, bool) {
	n, ok := h.FindNode(id)
	if !ok {
		return [nodeid.TypeLen]byte{}, false
	}
	return n.ID.Type(), true
}

// Heads calls fn for every orphan head node (parents empty), including
// root. Stable while no mutation occurs.
func (h *Hierarchy) Heads(fn func(nodeid.ID) bool) {
	for id := range h.heads {
		if !fn(id) {
			return
		}
	}
}

// All calls fn for every node currently in the hierarchy, in id order.
// Stops early if fn returns false. Used by internal/persist to snapshot
// the whole tree for a dump.
func (h *Hierarchy) All(fn func(*Node) bool) {
	h.nodes.Ascend(func(n *Node) bool {
		return fn(n)
	})
}

// recomputeHeadMembership updates the head-set entry for id after its
// parent set may have changed (invariant P2).
func (h *Hierarchy) recomputeHeadMembership(n *Node) {
	if n.IsHead() {
		h.heads[n.ID] = struct{}{}
	} else {
		delete(h.heads, n.ID)
	}
}

// Upsert returns the existing node for id, or creates one: installed in the
// by-id index, added to the head-set, with empty object/edge container, and
// marked implicitly-created.
func (h *Hierarchy) Upsert(id nodeid.ID) (*Node, bool) {
	if n, ok := h.FindNode(id); ok {
		return n, false
	}
	n := newNode(id)
	h.nodes.ReplaceOrInsert(n)
	h.heads[id] = struct{}{}
	h.sink.OnNodeCreated(id)
	return n, true
}

// link adds the parent/child edge in both directions (invariant P1).
func (h *Hierarchy) link(parent, child *Node) {
	if child.Parents.Add(parent.ID) {
		parent.Children.Add(child.ID)
	}
}

func (h *Hierarchy) unlink(parent, child *Node) {
	if child.Parents.Remove(parent.ID) {
		parent.Children.Remove(child.ID)
	}
}

// SetHierarchy destructively replaces both parents and children of id with
// exactly the given sets. Missing referenced nodes are created. Head-set
// membership is recomputed for id and for every node whose relationship to
// id changed.
func (h *Hierarchy) SetHierarchy(id nodeid.ID, parents, children []nodeid.ID) {
	n, _ := h.Upsert(id)

	oldParents := n.Parents.Clone()
	oldChildren := n.Children.Clone()

	wantParents := nodeid.NewSet(parents...)
	wantChildren := nodeid.NewSet(children...)

	oldParents.Each(func(p nodeid.ID) bool {
		if !wantParents.Has(p) {
			if pn, ok := h.FindNode(p); ok {
				h.unlink(pn, n)
				h.recomputeHeadMembership(n)
			}
		}
		return true
	})
	wantParents.Each(func(p nodeid.ID) bool {
		pn, _ := h.Upsert(p)
		h.link(pn, n)
		return true
	})

	oldChildren.Each(func(c nodeid.ID) bool {
		if !wantChildren.Has(c) {
			if cn, ok := h.FindNode(c); ok {
				h.unlink(n, cn)
				h.recomputeHeadMembership(cn)
			}
		}
		return true
	})
	wantChildren.Each(func(c nodeid.ID) bool {
		cn, _ := h.Upsert(c)
		h.link(n, cn)
		h.recomputeHeadMembership(cn)
		return true
	})

	h.recomputeHeadMembership(n)
	h.sink.OnHierarchyChanged(id)
	h.sink.RefreshMarkersFor(id)
}

// AddHierarchy unions parents/children into id's existing sets.
func (h *Hierarchy) AddHierarchy(id nodeid.ID, parents, children []nodeid.ID) {
	n, _ := h.Upsert(id)
	for _, p := range parents {
		pn, _ := h.Upsert(p)
		h.link(pn, n)
	}
	for _, c := range children {
		cn, _ := h.Upsert(c)
		h.link(n, cn)
		h.recomputeHeadMembership(cn)
	}
	h.recomputeHeadMembership(n)
	h.sink.OnHierarchyChanged(id)
	h.sink.RefreshMarkersFor(id)
}

// DelHierarchy subtracts parents/children from id's existing sets.
func (h *Hierarchy) DelHierarchy(id nodeid.ID, parents, children []nodeid.ID) {
	n, ok := h.FindNode(id)
	if !ok {
		return
	}
	for _, p := range parents {
		if pn, ok := h.FindNode(p); ok {
			h.unlink(pn, n)
		}
	}
	for _, c := range children {
		if cn, ok := h.FindNode(c); ok {
			h.unlink(n, cn)
			h.recomputeHeadMembership(cn)
		}
	}
	h.recomputeHeadMembership(n)
	h.sink.OnHierarchyChanged(id)
	h.sink.RefreshMarkersFor(id)
}

// DeleteNode removes id, maintaining referential integrity: every
// parent/child/edge-field reference to it is removed, its aliases are
// purged, and markers anchored on it are removed. With FORCE, children left
// with no remaining parents are cascaded into.
func (h *Hierarchy) DeleteNode(id nodeid.ID, flags DeleteFlag) []nodeid.ID {
	var deleted []nodeid.ID
	h.deleteNode(id, flags, &deleted)
	return deleted
}

func (h *Hierarchy) deleteNode(id nodeid.ID, flags DeleteFlag, deleted *[]nodeid.ID) {
	n, ok := h.FindNode(id)
	if !ok {
		return
	}
	if id.IsRoot() {
		log.Warn("refusing to delete root", "id", id.String())
		return
	}
	h.sink.OnNodeWillBeDeleted(id)

	children := append([]nodeid.ID(nil), n.Children.Slice()...)
	parents := append([]nodeid.ID(nil), n.Parents.Slice()...)

	for _, pid := range parents {
		if pn, ok := h.FindNode(pid); ok {
			h.unlink(pn, n)
		}
	}
	for _, cid := range children {
		if cn, ok := h.FindNode(cid); ok {
			h.unlink(n, cn)
			h.recomputeHeadMembership(cn)
		}
	}

	// Referential integrity: drop every edge-field arc anywhere that
	// points at id.
	h.nodes.Ascend(func(other *Node) bool {
		if other.ID != id {
			other.Edges.RemoveReferencesTo(h, other.ID, id)
		}
		return true
	})

	h.purgeAliasesOf(id)
	h.sink.RemoveMarkersOn(id)

	h.nodes.Delete(&Node{ID: id})
	delete(h.heads, id)
	if flags&REPLY_IDS != 0 {
		*deleted = append(*deleted, id)
	}

	if flags&FORCE != 0 {
		for _, cid := range children {
			if cn, ok := h.FindNode(cid); ok && cn.Parents.Len() == 0 {
				h.deleteNode(cid, flags, deleted)
			}
		}
	}
}

// purgeAliasesOf removes every alias pointing at id from both the alias map
// and id's reverse set (invariant P3). id's node may already be gone from
// the index by the time this runs during deletion.
func (h *Hierarchy) purgeAliasesOf(id nodeid.ID) {
	for a := range h.aliasRev[id] {
		delete(h.aliases, a)
	}
	delete(h.aliasRev, id)
}
