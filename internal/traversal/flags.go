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

// Package traversal walks the hierarchy graph per spec.md §4.3: directional
// DFS/BFS over parents/children/edge-fields, and RPN-expression-driven
// traversal that decides which adjacency to follow at each node.
package traversal

// Direction is a bitset of traversal intents, so one call site can
// describe exactly the walk spec.md §4.3 asks for.
type Direction uint32

const (
	Node Direction = 1 << iota
	Array
	Set
	Ref
	EdgeField
	Children
	Parents
	BFSAncestors
	BFSDescendants
	DFSAncestors
	DFSDescendants
	DFSFull
	BFSEdgeField
	BFSExpression
	Expression
)

// Has reports whether d includes bit.
func (d Direction) Has(bit Direction) bool { return d&bit != 0 }

// skipsStart reports whether the starting node is excluded from the
// visited set for this direction, per §4.3's "the starting node is the
// query subject, not a result" rule for BFS ancestor/descendant walks.
func (d Direction) skipsStart() bool {
	return d.Has(BFSAncestors) || d.Has(BFSDescendants)
}

// EligibleForIndex reports whether this direction may back an auto-index
// ICB, per §4.5 "directions in the allowed set".
func (d Direction) EligibleForIndex() bool {
	return d.Has(BFSAncestors) || d.Has(BFSDescendants) || d.Has(BFSExpression)
}
