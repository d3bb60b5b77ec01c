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

// Package modify implements spec.md §4.6: the atomic per-request batch of
// typed field mutations, alias resolution, automatic timestamps, and the
// replication message that results.
package modify

import (
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
)

// Flag is a bitmask of modify-request behaviors.
type Flag uint8

const (
	// NoRoot rejects a request whose target resolves to the root node.
	NoRoot Flag = 1 << iota
	// NoMerge clears the node's object before applying triplets, instead
	// of merging into its existing fields.
	NoMerge
	// Create fails the request if the target already exists.
	Create
	// Update fails the request if the target does not already exist.
	Update
)

// Has reports whether f includes bit.
func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// TripletType tags which of §4.6's mutation kinds a Triplet performs.
type TripletType uint8

const (
	// ScalarSet is a plain, unconditional scalar write.
	ScalarSet TripletType = iota
	// DefaultScalarSet writes only if the field is currently absent.
	DefaultScalarSet
	// Alias is the string-array "$alias" triplet.
	Alias
	// SetOp adds members to a typed set field.
	SetOp
	// Del removes a field outright.
	Del
	// EdgeMeta writes a key under an edge arc's per-destination metadata
	// object.
	EdgeMeta
	// Increment adds a delta to a numeric scalar, creating it if absent.
	Increment
	// ArrayPush appends to an array field.
	ArrayPush
	// ArrayInsert inserts at a specific array index.
	ArrayInsert
	// ArrayTrim keeps only the last N elements of an array (the "queue
	// trim" operation).
	ArrayTrim
	// ArrayRemove removes the element at a specific array index.
	ArrayRemove
	// ObjectMeta sets the 16-bit user-metadata word of an existing field.
	ObjectMeta
)

// ScalarKind tags which concrete field of a Triplet holds the operand for
// ScalarSet/DefaultScalarSet/Increment/ArrayPush triplets.
type ScalarKind uint8

const (
	ScalarLong ScalarKind = iota
	ScalarDouble
	ScalarString
)

// Triplet is one (type, field, value) unit of a modify request, per §4.6's
// request shape.
type Triplet struct {
	Type   TripletType
	Field  string
	Scalar ScalarKind

	Long   int64
	Double float64
	Str    string

	// Members backs SetOp string and node-id sets (the elements to add)
	// and Alias (candidate/assigned alias strings). A SetLong op adds Long
	// and a SetDouble op adds Double; their Members values are not parsed
	// (a SetLong op with no Members adds nothing).
	Members []string
	SetKind object.SetKind

	Index int // ArrayInsert/ArrayRemove
	N     int // ArrayTrim: number of trailing elements to keep

	Meta uint16 // ObjectMeta

	EdgeField string    // EdgeMeta
	EdgeDst   nodeid.ID // EdgeMeta
}

// Outcome is the three-valued per-triplet result §4.6 describes.
type Outcome uint8

const (
	// Unchanged: no observable effect.
	Unchanged Outcome = iota
	// Updated: an effect occurred and needs replication.
	Updated
	// Replicate: no effect, but must still be replicated (an Alias
	// triplet that lists at least one alias).
	Replicate
)

// Request is one modify operation: the target node, request-level flags,
// and the ordered triplets to apply.
type Request struct {
	Target   nodeid.ID
	Flags    Flag
	Triplets []Triplet
}

// TripletResult pairs a triplet with its outcome (a failed triplet reports
// Unchanged and fills Err).
type TripletResult struct {
	Outcome Outcome
	Err     error
}

// Result is the response shape of §6's modify command: the resolved node id
// plus one outcome per triplet.
type Result struct {
	NodeID  nodeid.ID
	Results []TripletResult
}
