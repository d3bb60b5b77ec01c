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

// Package nodeid defines the fixed-width node identifier used throughout the
// hierarchy, object and edge stores.
package nodeid

import "strings"

// Len is the fixed byte width of a NodeId. The first TypeLen bytes are the
// type code; the rest is the instance suffix, NUL-padded.
const Len = 10

// TypeLen is the width of the type-code prefix carried by every NodeId.
const TypeLen = 2

// Root is the id of the always-present synthetic root node.
var Root = ID{'r', 'o', 'o', 't'}

// ID is a 10-byte node identifier. Equality is byte-wise.
type ID [Len]byte

// Type returns the 2-byte type code prefix of the id.
func (id ID) Type() [TypeLen]byte {
	var t [TypeLen]byte
	copy(t[:], id[:TypeLen])
	return t
}

// TypeString returns the type code as a string, stripped of NUL padding.
func (id ID) TypeString() string {
	return strings.TrimRight(string(id[:TypeLen]), "\x00")
}

// String returns the id's printable form: the id stripped of trailing NUL
// padding. This is the form clients see and the form used in log messages.
func (id ID) String() string {
	return strings.TrimRight(string(id[:]), "\x00")
}

// IsZero reports whether id is the zero value (no bytes set).
func (id ID) IsZero() bool {
	return id == ID{}
}

// IsRoot reports whether id identifies the synthetic root node.
func (id ID) IsRoot() bool {
	return id == Root
}

// Less provides a total order over ids, used by the by-id node index and by
// every sorted parent/child set.
func (id ID) Less(other ID) bool {
	return string(id[:]) < string(other[:])
}

// FromString builds an ID from a printable string, NUL-padding (or
// truncating) to Len bytes. A string longer than Len is truncated, matching
// the source's fixed-width id buffers.
func FromString(s string) ID {
	var id ID
	n := copy(id[:], s)
	_ = n
	return id
}

// FromTypeAndName builds an ID from an explicit 2-byte type code and an
// instance-name suffix, the common construction path for upsert-by-type
// callers (e.g. "gr" + "phnode_ma1").
func FromTypeAndName(typeCode [TypeLen]byte, name string) ID {
	var id ID
	copy(id[:TypeLen], typeCode[:])
	copy(id[TypeLen:], name)
	return id
}
