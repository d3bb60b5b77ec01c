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

// Package hierarchy is the node index, parent/child multigraph and typed
// edge-field store described in spec.md §4.1.
package hierarchy

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/selvadb/selva/internal/edge"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
)

// Node owns its id, its schemaless Object, its edge-field container and its
// marker-membership set. A node with no parents is a head.
type Node struct {
	ID      nodeid.ID
	Object  *object.Object
	Edges   *edge.Container
	Parents *nodeid.Set
	Children *nodeid.Set

	// Markers is the marker-membership set: the ids (§3) of every
	// SubscriptionMarker currently reaching this node, maintained by
	// refresh operations. Roaring bitmaps keep this compact even when a
	// hot node (e.g. root) is reached by thousands of markers.
	Markers *roaring.Bitmap

	// Implicit is cleared on the first explicit modify touching a node
	// that was created as a side effect of an edge/hierarchy reference.
	Implicit bool

	// txStamp is the transaction counter value as of this node's last
	// visit in a traversal; used for cycle-safe single-pass visiting
	// without a separate visited-set (§3, §4.3 "Cycle safety").
	txStamp uint64
}

func newNode(id nodeid.ID) *Node {
	return &Node{
		ID:       id,
		Object:   object.New(),
		Edges:    edge.NewContainer(),
		Parents:  nodeid.NewSet(),
		Children: nodeid.NewSet(),
		Markers:  roaring.New(),
		Implicit: true,
	}
}

// IsHead reports whether n currently has no parents.
func (n *Node) IsHead() bool {
	return n.Parents.Len() == 0
}
