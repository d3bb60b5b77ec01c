package traversal

import (
	"strings"

	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
	"github.com/selvadb/selva/internal/rpn"
)

// MergeStrategy selects how result triples from multiple source nodes
// combine, per §4.3 "merge strategy".
type MergeStrategy uint8

const (
	MergeNone MergeStrategy = iota
	MergeAll
	MergeNamed
	MergeDeep
)

// FieldSpec is the find operation's result-shaping request.
type FieldSpec struct {
	// Fields is an explicit field list; "*" means every scalar top-level
	// field.
	Fields []string
	// FieldsRPN, if set, is evaluated per node (register 0 = the node)
	// and must yield a StringSet of field names, for late-bound selection.
	FieldsRPN *rpn.Expression
	// InheritRPN is evaluated the same way; any returned name prefixed
	// with '^' is resolved by walking ancestors until the field is found
	// rather than read directly off the node.
	InheritRPN *rpn.Expression
	// ExcludedFields drops every field whose path equals one of these
	// names exactly. Prefixes are not matched, and Find does not follow
	// edge-field dereferences, so no prefix stripping takes place.
	ExcludedFields []string
	Merge          MergeStrategy
}

// ResultTriple is one (node, field path, value) entry of a find result, the
// shape §4.3 merge strategies produce.
type ResultTriple struct {
	NodeID nodeid.ID
	Path   string
	Value  object.Value
}

// Find walks h from start in direction dir applying opts, and for every
// matched node resolves spec's field selection into result triples,
// deduplicating by field path across source nodes per the requested merge
// strategy. limit <= 0 means unbounded.
func Find(h *hierarchy.Hierarchy, start nodeid.ID, dir Direction, opts Options, spec FieldSpec, limit int) ([]ResultTriple, error) {
	var results []ResultTriple
	seen := make(map[string]bool)
	excluded := make(map[string]bool, len(spec.ExcludedFields))
	for _, f := range spec.ExcludedFields {
		excluded[f] = true
	}

	emit := func(n *hierarchy.Node) bool {
		for _, t := range fieldTriples(h, n, spec, excluded) {
			if spec.Merge != MergeNone {
				if seen[t.Path] {
					continue
				}
				seen[t.Path] = true
			}
			results = append(results, t)
		}
		return limit > 0 && len(results) >= limit
	}

	err := Walk(h, start, dir, opts, Callbacks{Node: emit})
	return results, err
}

func fieldTriples(h *hierarchy.Hierarchy, n *hierarchy.Node, spec FieldSpec, excluded map[string]bool) []ResultTriple {
	names := fieldNames(h, n, spec)
	out := make([]ResultTriple, 0, len(names))
	for _, name := range names {
		inherit := strings.HasPrefix(name, "^")
		clean := strings.TrimPrefix(name, "^")
		if excluded[clean] {
			continue
		}
		var v object.Value
		var ok bool
		if inherit {
			v, ok = inheritField(h, n, clean)
		} else {
			lk := n.Object.GetPath(clean)
			v, ok = lk.Value, lk.IsFound()
		}
		if !ok {
			continue
		}
		if spec.Merge != MergeDeep && v.Kind == object.KindObject {
			continue
		}
		out = append(out, ResultTriple{NodeID: n.ID, Path: clean, Value: v})
	}
	return out
}

func fieldNames(h *hierarchy.Hierarchy, n *hierarchy.Node, spec FieldSpec) []string {
	var names []string
	for _, f := range spec.Fields {
		if f == "*" {
			for _, k := range n.Object.Keys() {
				if lk := n.Object.GetPath(k); lk.IsFound() && lk.Value.Kind != object.KindObject {
					names = append(names, k)
				}
			}
			continue
		}
		names = append(names, f)
	}
	names = append(names, namesFromExpr(n, spec.FieldsRPN, false)...)
	names = append(names, namesFromExpr(n, spec.InheritRPN, true)...)
	return names
}

func namesFromExpr(n *hierarchy.Node, expr *rpn.Expression, inherit bool) []string {
	if expr == nil {
		return nil
	}
	ctx := rpn.Context{Node: objectFieldReader{n.Object}}
	v, err := expr.Eval(ctx)
	if err != nil || v.Kind != rpn.KindStringSet {
		return nil
	}
	var out []string
	for name := range v.Set {
		if inherit && !strings.HasPrefix(name, "^") {
			name = "^" + name
		}
		out = append(out, name)
	}
	return out
}

// inheritField implements the get-next-existing pattern for ^-prefixed
// inherit requests: walk ancestors breadth-first until one carries the
// field.
func inheritField(h *hierarchy.Hierarchy, start *hierarchy.Node, path string) (object.Value, bool) {
	var found object.Value
	var ok bool
	_ = Walk(h, start.ID, BFSAncestors, Options{}, Callbacks{Node: func(n *hierarchy.Node) bool {
		lk := n.Object.GetPath(path)
		if lk.IsFound() {
			found, ok = lk.Value, true
			return true
		}
		return false
	}})
	return found, ok
}
