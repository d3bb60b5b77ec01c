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

package command

import (
	"fmt"
	"strings"

	"github.com/selvadb/selva/internal/autoindex"
	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
	"github.com/selvadb/selva/internal/rpn"
	"github.com/selvadb/selva/internal/traversal"
)

// FindRequest is hierarchy.find's decoded argument list (§6).
type FindRequest struct {
	Anchor nodeid.ID
	Dir    traversal.Direction

	DirExpr    *rpn.Expression
	DirExprSrc string
	EdgeField  string

	Filter    *rpn.Expression
	FilterSrc string

	Fields traversal.FieldSpec

	OrderField string
	OrderAsc   bool

	Offset int
	Limit  int
}

// HierarchyFind implements hierarchy.find: it consults the auto-indexing
// engine for a cached result (upserting a candidate on a miss, per §4.5)
// before falling back to a live traversal walk, then applies offset/limit.
// The indexed fast path only covers an explicit field list: FieldsRPN and
// InheritRPN selections always take the live-walk path, since an ICB only
// remembers node ids, not which late-bound fields a caller wants from them.
func (c *Core) HierarchyFind(req FindRequest) ([]traversal.ResultTriple, error) {
	if req.Fields.Merge != traversal.MergeNone && req.Limit > 0 {
		return nil, fmt.Errorf("hierarchy.find: %w: merge with limit", ErrBadCombination)
	}
	if req.Fields.Merge != traversal.MergeNone && req.Fields.FieldsRPN != nil {
		return nil, fmt.Errorf("hierarchy.find: %w: fields_rpn with merge", ErrBadCombination)
	}

	opts := traversal.Options{
		EdgeField:  req.EdgeField,
		FieldExpr:  req.DirExpr,
		EdgeFilter: nil,
		Filter:     req.Filter,
	}

	useIndexed := req.Fields.FieldsRPN == nil && req.Fields.InheritRPN == nil
	if useIndexed && c.Index != nil {
		icb, servable := c.Index.Query(autoindex.Query{
			Anchor:     req.Anchor,
			Dir:        req.Dir,
			DirExpr:    req.DirExpr,
			DirExprSrc: req.DirExprSrc,
			OrderField: req.OrderField,
			OrderAsc:   req.OrderAsc,
			Filter:     req.Filter,
			FilterSrc:  req.FilterSrc,
			EdgeField:  req.EdgeField,
		})
		if servable {
			c.Metrics.ObserveIndexHit()
			ids := icb.Result(c.Hierarchy)
			return c.triplesFromIDs(ids, req), nil
		}
		c.Metrics.ObserveIndexMiss()
	}

	fetch := req.Limit
	if fetch > 0 {
		fetch += req.Offset
	}
	results, err := traversal.Find(c.Hierarchy, req.Anchor, req.Dir, opts, req.Fields, fetch)
	if err != nil {
		return nil, fmt.Errorf("hierarchy.find: %w", err)
	}
	return applyOffset(results, req.Offset), nil
}

func applyOffset(results []traversal.ResultTriple, offset int) []traversal.ResultTriple {
	if offset <= 0 {
		return results
	}
	if offset >= len(results) {
		return nil
	}
	return results[offset:]
}

// triplesFromIDs builds result triples for an indexed hit's cached id list,
// honoring only req.Fields.Fields (an explicit field list, "*" meaning
// every scalar top-level field) and req.Offset/Limit.
func (c *Core) triplesFromIDs(ids []nodeid.ID, req FindRequest) []traversal.ResultTriple {
	if req.Offset > 0 {
		if req.Offset >= len(ids) {
			return nil
		}
		ids = ids[req.Offset:]
	}
	if req.Limit > 0 && len(ids) > req.Limit {
		ids = ids[:req.Limit]
	}
	var out []traversal.ResultTriple
	for _, id := range ids {
		n, ok := c.Hierarchy.FindNode(id)
		if !ok {
			continue
		}
		for _, f := range req.Fields.Fields {
			if f == "*" {
				for _, k := range n.Object.Keys() {
					if lk := n.Object.GetPath(k); lk.IsFound() && lk.Value.Kind != object.KindObject {
						out = append(out, traversal.ResultTriple{NodeID: id, Path: k, Value: lk.Value})
					}
				}
				continue
			}
			lk := n.Object.GetPath(f)
			if lk.IsFound() {
				out = append(out, traversal.ResultTriple{NodeID: id, Path: f, Value: lk.Value})
			}
		}
	}
	return out
}

// InheritRequest is hierarchy.inherit's decoded argument list.
type InheritRequest struct {
	NodeID nodeid.ID
	Types  []string
	Fields []string
}

// HierarchyInherit implements hierarchy.inherit: for each requested field,
// walk ancestors breadth-first (starting at nodeID itself, since hierarchy
// pseudo-fields resolve at the queried node per §6) until one whose type is
// in Types carries the field.
func (c *Core) HierarchyInherit(req InheritRequest) ([]traversal.ResultTriple, error) {
	var out []traversal.ResultTriple
	for _, field := range req.Fields {
		v, id, ok := c.inheritField(req.NodeID, req.Types, field)
		if !ok {
			continue
		}
		out = append(out, traversal.ResultTriple{NodeID: id, Path: field, Value: v})
	}
	return out, nil
}

func (c *Core) inheritField(start nodeid.ID, types []string, field string) (object.Value, nodeid.ID, bool) {
	n, ok := c.Hierarchy.FindNode(start)
	if !ok {
		return object.Value{}, nodeid.ID{}, false
	}
	if typeAllowed(n.ID, types) {
		if lk := n.Object.GetPath(field); lk.IsFound() {
			return lk.Value, n.ID, true
		}
	}
	var found object.Value
	var foundID nodeid.ID
	var ok2 bool
	_ = traversal.Walk(c.Hierarchy, start, traversal.BFSAncestors, traversal.Options{}, traversal.Callbacks{
		Node: func(anc *hierarchy.Node) bool {
			if !typeAllowed(anc.ID, types) {
				return false
			}
			lk := anc.Object.GetPath(field)
			if lk.IsFound() {
				found, foundID, ok2 = lk.Value, anc.ID, true
				return true
			}
			return false
		},
	})
	return found, foundID, ok2
}

func typeAllowed(id nodeid.ID, types []string) bool {
	if len(types) == 0 {
		return true
	}
	t := id.TypeString()
	for _, want := range types {
		if strings.EqualFold(want, t) {
			return true
		}
	}
	return false
}
