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

// Package autoindex implements spec.md §4.5: a popularity-driven cache of
// precomputed find-result sets (Index Control Blocks), materialized and kept
// coherent by piggybacking on internal/subscription's action-callback
// markers rather than any bespoke invalidation path.
package autoindex

import (
	"sort"

	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
	"github.com/selvadb/selva/internal/rpn"
	"github.com/selvadb/selva/internal/subscription"
	"github.com/selvadb/selva/internal/traversal"
)

// permanentBoost artificially inflates a user-created ICB's score so it
// resists eviction from the top-indices list, per §4.5 "Permanent ICBs...
// receive an artificially boosted score to resist eviction".
const permanentBoost = 1e6

// Query describes one eligible find call's cacheable signature: the naming
// rule's inputs plus the compiled expressions needed to materialize and
// maintain a result. The Src fields hold the original RPN source text so
// BuildName can encode it; the compiled *rpn.Expression fields are what the
// walk and filter actually evaluate.
type Query struct {
	Anchor nodeid.ID
	Dir    traversal.Direction

	DirExpr    *rpn.Expression
	DirExprSrc string

	OrderField string
	OrderAsc   bool

	Filter    *rpn.Expression
	FilterSrc string

	EdgeField string
}

// ICB is an Index Control Block: a cached find signature, its popularity and
// result-size statistics, and (once materialized) the maintained result set
// itself.
type ICB struct {
	ID   uint32
	Name string

	Anchor     nodeid.ID
	Dir        traversal.Direction
	DirExpr    *rpn.Expression
	EdgeField  string
	OrderField string
	OrderAsc   bool
	Filter     *rpn.Expression

	// Permanent ICBs are user-created via index.new and are never destroyed
	// by the popularity-driven eviction pass.
	Permanent bool

	popCur  int
	popAve  float64
	sizeAve float64

	valid  bool
	active bool
	marker *subscription.Marker

	set     *nodeid.Set
	ordered []nodeid.ID
}

func newICB(id uint32, name string, q Query) *ICB {
	return &ICB{
		ID:         id,
		Name:       name,
		Anchor:     q.Anchor,
		Dir:        q.Dir,
		DirExpr:    q.DirExpr,
		EdgeField:  q.EdgeField,
		OrderField: q.OrderField,
		OrderAsc:   q.OrderAsc,
		Filter:     q.Filter,
	}
}

// isOrdered reports whether this ICB maintains a sorted vector rather than
// an unordered set, per §4.5 "Ordered vs unordered".
func (icb *ICB) isOrdered() bool { return icb.OrderField != "" }

// score is popAve × sizeAve, boosted for permanent ICBs so they resist
// eviction from the top-indices list (§4.5 step 3).
func (icb *ICB) score() float64 {
	s := icb.popAve * icb.sizeAve
	if icb.Permanent {
		s *= permanentBoost
	}
	return s
}

// Valid reports whether the cached result can currently be served.
func (icb *ICB) Valid() bool { return icb.valid }

// Active reports whether the ICB is currently materialized (has a live
// maintenance marker).
func (icb *ICB) Active() bool { return icb.active }

// PopAve returns the current low-pass-filtered popularity average, for
// index.list's reporting surface.
func (icb *ICB) PopAve() float64 { return icb.popAve }

// SizeAve returns the current low-pass-filtered result-size average.
func (icb *ICB) SizeAve() float64 { return icb.sizeAve }

func (icb *ICB) initResult() {
	if icb.isOrdered() {
		icb.ordered = nil
	} else {
		icb.set = nodeid.NewSet()
	}
	icb.valid = true
}

func (icb *ICB) clearResult() {
	icb.set = nil
	icb.ordered = nil
}

func (icb *ICB) addResult(id nodeid.ID) {
	if icb.isOrdered() {
		for _, existing := range icb.ordered {
			if existing == id {
				return
			}
		}
		icb.ordered = append(icb.ordered, id)
		return
	}
	if icb.set == nil {
		icb.set = nodeid.NewSet()
	}
	icb.set.Add(id)
}

// Result returns the cached node ids, sorting an ordered ICB's vector by its
// order field at read time (the vector itself is maintained append-only;
// §4.3's ordering rules apply lazily here rather than on every insert).
func (icb *ICB) Result(h *hierarchy.Hierarchy) []nodeid.ID {
	if !icb.valid {
		return nil
	}
	if !icb.isOrdered() {
		return icb.set.Slice()
	}
	ids := append([]nodeid.ID(nil), icb.ordered...)
	sortByField(h, ids, icb.OrderField, icb.OrderAsc)
	return ids
}

func sortByField(h *hierarchy.Hierarchy, ids []nodeid.ID, field string, asc bool) {
	sort.Slice(ids, func(i, j int) bool {
		if asc {
			return compareByField(h, ids[i], ids[j], field)
		}
		return compareByField(h, ids[j], ids[i], field)
	})
}

func compareByField(h *hierarchy.Hierarchy, a, b nodeid.ID, field string) bool {
	na, _ := h.FindNode(a)
	nb, _ := h.FindNode(b)
	if na == nil || nb == nil {
		return a.Less(b)
	}
	va := na.Object.GetPath(field)
	vb := nb.Object.GetPath(field)
	if !va.IsFound() || !vb.IsFound() {
		return a.Less(b)
	}
	if va.Value.Kind != vb.Value.Kind {
		return a.Less(b)
	}
	switch va.Value.Kind {
	case object.KindLong:
		return va.Value.Long < vb.Value.Long
	case object.KindDouble:
		return va.Value.Double < vb.Value.Double
	case object.KindString:
		return va.Value.Str < vb.Value.Str
	default:
		return a.Less(b)
	}
}
