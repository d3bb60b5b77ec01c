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

// Package persist serializes the hierarchy to and from a plain
// representation suitable for msgpack encoding, compression and checksumming.
// The on-disk byte layout is this package's own invention: spec.md is
// explicit that the dump format and the detached-subtree compression format
// are both out of scope.
package persist

import (
	"fmt"

	"github.com/selvadb/selva/internal/edge"
	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
)

// aliasField mirrors the unexported field name internal/hierarchy.aliasField
// uses to store a node's own alias reverse-set on its Object. Restoring that
// field (like any other Object field) is enough to replay SetAlias for every
// alias without internal/hierarchy exporting its alias maps.
const aliasField = "aliases"

// ValueSnapshot is a plain mirror of object.Value, recursive for nested
// objects and arrays, suitable for msgpack encoding.
type ValueSnapshot struct {
	Kind    uint8
	Meta    uint16
	Long    int64
	Double  float64
	Str     string
	Obj     []FieldSnapshot
	SetKind uint8
	SetStr  []string
	SetLong []int64
	SetDbl  []float64
	SetNode [][nodeid.Len]byte
	Arr     []ValueSnapshot
}

// FieldSnapshot is one key/value pair of an Object, in the Object's
// iteration order.
type FieldSnapshot struct {
	Key   string
	Value ValueSnapshot
}

// EdgeArcSnapshot is one destination of an edge field, with its optional
// per-destination metadata object.
type EdgeArcSnapshot struct {
	Dst  [nodeid.Len]byte
	Meta []FieldSnapshot
}

// EdgeFieldSnapshot is one named edge field with the constraint that
// governs it, so restoring a dump can recreate the constraint registry
// entries it depends on.
type EdgeFieldSnapshot struct {
	Name         string
	ConstraintID string
	Flags        uint8
	SrcType      [nodeid.TypeLen]byte
	InverseField string
	Arcs         []EdgeArcSnapshot
}

// NodeSnapshot is one node's full state apart from its position in the
// parent/child graph, which HierarchySnapshot.Children carries separately
// so that topology can be replayed after every node exists.
type NodeSnapshot struct {
	ID       [nodeid.Len]byte
	Fields   []FieldSnapshot
	Edges    []EdgeFieldSnapshot
	Children [][nodeid.Len]byte
	Implicit bool
}

// HierarchySnapshot is a whole hierarchy, or a detached subtree, as a flat
// node list plus the detached subtree's own root. Parents records the
// root's parent set at the moment of detach, so Restore can re-link the
// subtree under the same parents; it is empty for a whole-hierarchy dump,
// whose root is always the synthetic root node.
type HierarchySnapshot struct {
	Root    [nodeid.Len]byte
	Parents [][nodeid.Len]byte
	Nodes   []NodeSnapshot
}

func idBytes(id nodeid.ID) [nodeid.Len]byte { return [nodeid.Len]byte(id) }

func snapshotValue(v object.Value) ValueSnapshot {
	vs := ValueSnapshot{
		Kind:    uint8(v.Kind),
		Meta:    v.Meta,
		Long:    v.Long,
		Double:  v.Double,
		Str:     v.Str,
		SetKind: uint8(v.SetKind),
	}
	switch v.Kind {
	case object.KindObject:
		if v.Obj != nil {
			vs.Obj = snapshotObject(v.Obj)
		}
	case object.KindSet:
		switch v.SetKind {
		case object.SetString:
			for s := range v.SetStr {
				vs.SetStr = append(vs.SetStr, s)
			}
		case object.SetLong:
			for n := range v.SetLong {
				vs.SetLong = append(vs.SetLong, n)
			}
		case object.SetDouble:
			for f := range v.SetDbl {
				vs.SetDbl = append(vs.SetDbl, f)
			}
		case object.SetNodeID:
			for id := range v.SetNode {
				vs.SetNode = append(vs.SetNode, idBytes(id))
			}
		}
	case object.KindArray:
		for _, e := range v.Arr {
			vs.Arr = append(vs.Arr, snapshotValue(e))
		}
	case object.KindOpaque:
		// Opaque values wrap a live Go pointer owned by a collaborator
		// (e.g. a decoded protobuf); there is nothing portable to persist,
		// so a restored opaque key comes back null. Kind is still recorded
		// so callers can see the key existed.
	}
	return vs
}

func restoreValue(vs ValueSnapshot) object.Value {
	v := object.Value{
		Kind:    object.Kind(vs.Kind),
		Meta:    vs.Meta,
		Long:    vs.Long,
		Double:  vs.Double,
		Str:     vs.Str,
		SetKind: object.SetKind(vs.SetKind),
	}
	switch v.Kind {
	case object.KindObject:
		v.Obj = object.New()
		for _, f := range vs.Obj {
			_ = v.Obj.Set(f.Key, restoreValue(f.Value))
		}
	case object.KindSet:
		switch v.SetKind {
		case object.SetString:
			v.SetStr = make(map[string]struct{}, len(vs.SetStr))
			for _, s := range vs.SetStr {
				v.SetStr[s] = struct{}{}
			}
		case object.SetLong:
			v.SetLong = make(map[int64]struct{}, len(vs.SetLong))
			for _, n := range vs.SetLong {
				v.SetLong[n] = struct{}{}
			}
		case object.SetDouble:
			v.SetDbl = make(map[float64]struct{}, len(vs.SetDbl))
			for _, f := range vs.SetDbl {
				v.SetDbl[f] = struct{}{}
			}
		case object.SetNodeID:
			v.SetNode = make(map[nodeid.ID]struct{}, len(vs.SetNode))
			for _, b := range vs.SetNode {
				v.SetNode[nodeid.ID(b)] = struct{}{}
			}
		}
	case object.KindArray:
		v.Arr = make([]object.Value, 0, len(vs.Arr))
		for _, e := range vs.Arr {
			v.Arr = append(v.Arr, restoreValue(e))
		}
	case object.KindOpaque:
		v.Kind = object.KindNull
	}
	return v
}

func snapshotObject(o *object.Object) []FieldSnapshot {
	var out []FieldSnapshot
	o.Each(func(key string, v object.Value) bool {
		out = append(out, FieldSnapshot{Key: key, Value: snapshotValue(v)})
		return true
	})
	return out
}

func restoreObject(o *object.Object, fields []FieldSnapshot) {
	for _, f := range fields {
		_ = o.Set(f.Key, restoreValue(f.Value))
	}
}

func snapshotEdges(c *edge.Container) []EdgeFieldSnapshot {
	var out []EdgeFieldSnapshot
	for _, name := range c.Names() {
		f, ok := c.Field(name)
		if !ok {
			continue
		}
		efs := EdgeFieldSnapshot{Name: f.Name}
		if f.Constraint != nil {
			efs.ConstraintID = f.Constraint.ID
			efs.Flags = uint8(f.Constraint.Flags)
			efs.SrcType = f.Constraint.SrcType
			efs.InverseField = f.Constraint.InverseField
		}
		for _, dst := range f.Arcs.Slice() {
			arc := EdgeArcSnapshot{Dst: idBytes(dst)}
			if meta := f.Metadata(dst, false); meta != nil {
				arc.Meta = snapshotObject(meta)
			}
			efs.Arcs = append(efs.Arcs, arc)
		}
		out = append(out, efs)
	}
	return out
}

// SnapshotNode captures n's object and edge state. Parent/child topology is
// captured separately by the caller, since it spans more than one node.
func SnapshotNode(n *hierarchy.Node) NodeSnapshot {
	return NodeSnapshot{
		ID:       idBytes(n.ID),
		Fields:   snapshotObject(n.Object),
		Edges:    snapshotEdges(n.Edges),
		Children: childrenBytes(n),
		Implicit: n.Implicit,
	}
}

func childrenBytes(n *hierarchy.Node) [][nodeid.Len]byte {
	ids := n.Children.Slice()
	out := make([][nodeid.Len]byte, len(ids))
	for i, id := range ids {
		out[i] = idBytes(id)
	}
	return out
}

// ApplyNodeSnapshot recreates ns's object fields and edge arcs on h, upserting
// the node if it does not already exist. It does not touch parent/child
// topology; call ApplyTopology afterward once every node in the snapshot has
// been applied.
func ApplyNodeSnapshot(h *hierarchy.Hierarchy, ns NodeSnapshot) error {
	id := nodeid.ID(ns.ID)
	n, _ := h.Upsert(id)
	n.Implicit = ns.Implicit
	restoreObject(n.Object, ns.Fields)

	for _, ef := range ns.Edges {
		c, ok := h.Constraints.Get(ef.ConstraintID)
		if !ok {
			c = &edge.Constraint{
				ID:           ef.ConstraintID,
				Flags:        edge.Flag(ef.Flags),
				SrcType:      ef.SrcType,
				InverseField: ef.InverseField,
			}
			h.Constraints.Register(c)
		}
		for _, arc := range ef.Arcs {
			dst := nodeid.ID(arc.Dst)
			// ErrExists is expected here: a bidirectional field's inverse
			// arc may already have been installed while restoring the
			// other endpoint's own snapshot.
			if err := n.Edges.Add(h, id, ef.Name, c, dst); err != nil && err != edge.ErrExists {
				return fmt.Errorf("persist: restore edge %s->%s: %w", id, dst, err)
			}
			if len(arc.Meta) > 0 {
				if f, ok := n.Edges.Field(ef.Name); ok {
					if meta := f.Metadata(dst, true); meta != nil {
						restoreObject(meta, arc.Meta)
					}
				}
			}
		}
	}
	return nil
}

// ApplyTopology links every node to the children recorded in its snapshot.
// Run this only after ApplyNodeSnapshot has been called for every node in
// the snapshot, so that every referenced id already exists.
func ApplyTopology(h *hierarchy.Hierarchy, ns NodeSnapshot) {
	if len(ns.Children) == 0 {
		return
	}
	children := make([]nodeid.ID, len(ns.Children))
	for i, b := range ns.Children {
		children[i] = nodeid.ID(b)
	}
	h.AddHierarchy(nodeid.ID(ns.ID), nil, children)
}

// restoreAliases replays SetAlias for every alias a restored node carries in
// its own aliasField reverse-set, populating the hierarchy's alias map and
// bloom filter (neither of which round-trips through ApplyNodeSnapshot,
// since they are private to internal/hierarchy).
func restoreAliases(h *hierarchy.Hierarchy, id nodeid.ID, fields []FieldSnapshot) {
	for _, f := range fields {
		if f.Key != aliasField || f.Value.Kind != uint8(object.KindSet) {
			continue
		}
		for _, alias := range f.Value.SetStr {
			h.SetAlias(alias, id)
		}
	}
}

// SnapshotSubtree captures root and every one of its descendants (BFS order)
// as a HierarchySnapshot, for DETACH.
func SnapshotSubtree(h *hierarchy.Hierarchy, root nodeid.ID) (HierarchySnapshot, error) {
	n, ok := h.FindNode(root)
	if !ok {
		return HierarchySnapshot{}, fmt.Errorf("persist: node %s not found", root)
	}
	hs := HierarchySnapshot{Root: idBytes(root)}
	for _, p := range n.Parents.Slice() {
		hs.Parents = append(hs.Parents, idBytes(p))
	}
	seen := map[nodeid.ID]bool{root: true}
	queue := []*hierarchy.Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		hs.Nodes = append(hs.Nodes, SnapshotNode(cur))
		cur.Children.Each(func(cid nodeid.ID) bool {
			if seen[cid] {
				return true
			}
			seen[cid] = true
			if cn, ok := h.FindNode(cid); ok {
				queue = append(queue, cn)
			}
			return true
		})
	}
	return hs, nil
}

// SnapshotHierarchy captures every node currently in h.
func SnapshotHierarchy(h *hierarchy.Hierarchy) HierarchySnapshot {
	hs := HierarchySnapshot{Root: idBytes(nodeid.Root)}
	h.All(func(n *hierarchy.Node) bool {
		hs.Nodes = append(hs.Nodes, SnapshotNode(n))
		return true
	})
	return hs
}

// Restore recreates every node in hs on h, in two passes: object/edge state
// first (so every id exists), then parent/child topology and aliases.
func Restore(h *hierarchy.Hierarchy, hs HierarchySnapshot) error {
	for _, ns := range hs.Nodes {
		if err := ApplyNodeSnapshot(h, ns); err != nil {
			return err
		}
	}
	for _, ns := range hs.Nodes {
		ApplyTopology(h, ns)
	}
	for _, ns := range hs.Nodes {
		restoreAliases(h, nodeid.ID(ns.ID), ns.Fields)
	}
	if len(hs.Parents) > 0 {
		parents := make([]nodeid.ID, len(hs.Parents))
		for i, b := range hs.Parents {
			parents[i] = nodeid.ID(b)
		}
		h.AddHierarchy(nodeid.ID(hs.Root), parents, nil)
	}
	return nil
}
