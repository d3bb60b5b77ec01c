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

package autoindex

import (
	"encoding/base64"
	"strings"

	"github.com/selvadb/selva/internal/traversal"
)

// BuildName computes the deterministic ICB name of §4.5: "id || '.' ||
// dirLetter [ || '.' || base64(dir_expr) ] [ || '.' || orderLetter || '.'
// || base64(order_field) ] [ || '.' || base64(filter) ]". Lookup by name is
// therefore a pure function of the query signature.
func BuildName(q Query) string {
	var b strings.Builder
	b.WriteString(q.Anchor.String())
	b.WriteByte('.')
	b.WriteByte(dirLetter(q.Dir))
	if q.DirExprSrc != "" {
		b.WriteByte('.')
		b.WriteString(b64(q.DirExprSrc))
	}
	if q.OrderField != "" {
		b.WriteByte('.')
		if q.OrderAsc {
			b.WriteByte('A')
		} else {
			b.WriteByte('D')
		}
		b.WriteByte('.')
		b.WriteString(b64(q.OrderField))
	}
	if q.FilterSrc != "" {
		b.WriteByte('.')
		b.WriteString(b64(q.FilterSrc))
	}
	return b.String()
}

func dirLetter(dir traversal.Direction) byte {
	switch {
	case dir.Has(traversal.BFSAncestors):
		return 'A'
	case dir.Has(traversal.BFSDescendants):
		return 'D'
	case dir.Has(traversal.BFSExpression):
		return 'E'
	default:
		return '?'
	}
}

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
