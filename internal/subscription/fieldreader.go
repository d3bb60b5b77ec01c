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

package subscription

import (
	"github.com/selvadb/selva/internal/object"
	"github.com/selvadb/selva/internal/rpn"
)

// nodeFieldReader adapts an Object to rpn.FieldReader for marker filter
// evaluation, mirroring internal/traversal's private adapter of the same
// shape (§9: the RPN context only needs a narrow read view).
type nodeFieldReader struct {
	obj *object.Object
}

func (r nodeFieldReader) ReadField(path string) (rpn.Value, bool) {
	if r.obj == nil {
		return rpn.Value{}, false
	}
	lk := r.obj.GetPath(path)
	if !lk.IsFound() {
		return rpn.Value{}, false
	}
	switch lk.Value.Kind {
	case object.KindLong:
		return rpn.Value{Kind: rpn.KindDouble, D: float64(lk.Value.Long)}, true
	case object.KindDouble:
		return rpn.Value{Kind: rpn.KindDouble, D: lk.Value.Double}, true
	case object.KindString:
		return rpn.Value{Kind: rpn.KindString, S: lk.Value.Str}, true
	default:
		return rpn.Value{}, false
	}
}
