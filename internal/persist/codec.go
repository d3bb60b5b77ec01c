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

package persist

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

var mh codec.MsgpackHandle

// EncodeSnapshot serializes hs with the same msgpack handle
// internal/modify uses for replication messages.
func EncodeSnapshot(hs HierarchySnapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, &mh)
	if err := enc.Encode(hs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(data []byte) (HierarchySnapshot, error) {
	var hs HierarchySnapshot
	dec := codec.NewDecoderBytes(data, &mh)
	err := dec.Decode(&hs)
	return hs, err
}
