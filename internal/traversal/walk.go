package traversal

import (
	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
	"github.com/selvadb/selva/internal/rpn"
	"golang.org/x/exp/slices"
)

// Options configures the parts of a Walk that are not implied by Direction
// alone: which edge field to follow, the expressions driving expression-
// based traversal, and an optional node-match filter independent of
// adjacency expansion.
type Options struct {
	// EdgeField names the field BFSEdgeField follows.
	EdgeField string
	// FieldExpr drives BFSExpression/Expression: evaluated with the
	// current node as register 0, it must yield a StringSet of field
	// names to follow from that node.
	FieldExpr *rpn.Expression
	// EdgeFilter, if set, runs once per discovered candidate arc (current
	// node as register 0, candidate as register 1) and vetoes the arc
	// when it evaluates false.
	EdgeFilter *rpn.Expression
	// Filter, if set, must evaluate true for a node to be treated as a
	// "match" by the Node callback's return contract; Walk itself only
	// uses it to decide whether to invoke Node, not to prune adjacency.
	Filter *rpn.Expression
}

type neighbor struct {
	field string
	id    nodeid.ID
}

// Walk traverses h starting at start in direction dir, invoking cb at each
// step. It returns ErrStartNotFound if start does not exist, or
// ErrMaxDepthExceeded if the walk visits more than MaxSteps nodes.
func Walk(h *hierarchy.Hierarchy, start nodeid.ID, dir Direction, opts Options, cb Callbacks) error {
	startNode, ok := h.FindNode(start)
	if !ok {
		return ErrStartNotFound
	}
	cb.fireHead(startNode)

	h.NextTransaction()
	h.Stamp(startNode)

	visitStart := !dir.skipsStart()
	if visitStart {
		if matchAndVisit(h, startNode, opts, cb) {
			return nil
		}
	}

	if dir.Has(DFSAncestors) || dir.Has(DFSDescendants) || dir.Has(DFSFull) || dir.Has(Expression) {
		return dfs(h, startNode, dir, opts, cb)
	}
	return bfs(h, startNode, dir, opts, cb)
}

// matchAndVisit fires the Node callback, applying opts.Filter first when
// present. Returns true if the callback asked the walk to stop.
func matchAndVisit(h *hierarchy.Hierarchy, n *hierarchy.Node, opts Options, cb Callbacks) bool {
	if opts.Filter != nil {
		ctx := rpn.Context{Node: objectFieldReader{n.Object}}
		ok, err := opts.Filter.EvalBool(ctx)
		if err != nil || !ok {
			return false
		}
	}
	return cb.fireNode(n)
}

func neighborsOf(h *hierarchy.Hierarchy, n *hierarchy.Node, dir Direction, opts Options) []neighbor {
	switch {
	case dir.Has(BFSExpression) || dir.Has(Expression):
		return expressionNeighbors(h, n, opts)
	case dir.Has(BFSEdgeField):
		return edgeFieldNeighbors(n, opts.EdgeField)
	case dir.Has(DFSAncestors), dir.Has(BFSAncestors):
		return setNeighbors("parents", n.Parents.Slice())
	case dir.Has(DFSDescendants), dir.Has(BFSDescendants), dir.Has(DFSFull):
		return setNeighbors("children", n.Children.Slice())
	default:
		return nil
	}
}

func setNeighbors(field string, ids []nodeid.ID) []neighbor {
	out := make([]neighbor, len(ids))
	for i, id := range ids {
		out[i] = neighbor{field: field, id: id}
	}
	return out
}

func edgeFieldNeighbors(n *hierarchy.Node, field string) []neighbor {
	f, ok := n.Edges.Field(field)
	if !ok {
		return nil
	}
	return setNeighbors(field, f.Arcs.Slice())
}

// expressionNeighbors implements §4.3's expression-driven adjacency: the
// field expression runs with the node as register 0 and must return a
// StringSet of field names; each is resolved in turn as a hierarchy
// pseudo-field, an edge field, or an object field holding node-id strings.
func expressionNeighbors(h *hierarchy.Hierarchy, n *hierarchy.Node, opts Options) []neighbor {
	if opts.FieldExpr == nil {
		return nil
	}
	ctx := rpn.Context{Node: objectFieldReader{n.Object}}
	v, err := opts.FieldExpr.Eval(ctx)
	if err != nil || v.Kind != rpn.KindStringSet {
		return nil
	}
	var out []neighbor
	for name := range v.Set {
		switch name {
		case "parents", "ancestors":
			out = append(out, setNeighbors(name, n.Parents.Slice())...)
		case "children", "descendants":
			out = append(out, setNeighbors(name, n.Children.Slice())...)
		default:
			if f, ok := n.Edges.Field(name); ok {
				out = append(out, setNeighbors(name, f.Arcs.Slice())...)
				continue
			}
			if lk := n.Object.GetPath(name); lk.IsFound() {
				out = append(out, setNeighbors(name, objectFieldAsIDs(lk.Value))...)
			}
		}
	}
	return dedupNeighbors(out)
}

// dedupNeighbors collapses neighbor entries that name the same node twice,
// which happens when an expression's field-name set resolves two distinct
// names ("children" and an edge field, say) to an overlapping id. The
// field-name set is itself unordered (it comes out of a Go map range), so
// there is no discovery order worth preserving; sorting by node id instead
// makes the surviving order deterministic.
func dedupNeighbors(out []neighbor) []neighbor {
	if len(out) < 2 {
		return out
	}
	byID := append([]neighbor(nil), out...)
	slices.SortFunc(byID, func(a, b neighbor) int {
		switch {
		case a.id.Less(b.id):
			return -1
		case b.id.Less(a.id):
			return 1
		default:
			return 0
		}
	})
	byID = slices.CompactFunc(byID, func(a, b neighbor) bool { return a.id == b.id })
	return byID
}

// objectFieldAsIDs extracts node ids from an object field holding either a
// set of node-id strings, a set of NodeID values, or an array of strings,
// per §4.3's "object field containing a set of node-id strings or an array
// of node ids" clause.
func objectFieldAsIDs(v object.Value) []nodeid.ID {
	var out []nodeid.ID
	switch v.Kind {
	case object.KindSet:
		switch v.SetKind {
		case object.SetString:
			for s := range v.SetStr {
				out = append(out, nodeid.FromString(s))
			}
		case object.SetNodeID:
			for id := range v.SetNode {
				out = append(out, id)
			}
		}
	case object.KindArray:
		for _, e := range v.Arr {
			if e.Kind == object.KindString {
				out = append(out, nodeid.FromString(e.Str))
			}
		}
	}
	return out
}

func passesEdgeFilter(h *hierarchy.Hierarchy, from, to *hierarchy.Node, opts Options) bool {
	if opts.EdgeFilter == nil {
		return true
	}
	ctx := rpn.Context{Node: objectFieldReader{from.Object}}
	ctx.Registers[1] = rpn.Value{Kind: rpn.KindString, S: to.ID.String()}
	ok, err := opts.EdgeFilter.EvalBool(ctx)
	return err == nil && ok
}

func bfs(h *hierarchy.Hierarchy, start *hierarchy.Node, dir Direction, opts Options, cb Callbacks) error {
	queue := []*hierarchy.Node{start}
	steps := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range neighborsOf(h, cur, dir, opts) {
			child, ok := h.FindNode(nb.id)
			if !ok || !h.Stamp(child) {
				continue
			}
			if !passesEdgeFilter(h, cur, child, opts) {
				continue
			}
			cb.fireChild(nb.field, cur, child)
			steps++
			if steps > MaxSteps {
				return ErrMaxDepthExceeded
			}
			if matchAndVisit(h, child, opts, cb) {
				return nil
			}
			queue = append(queue, child)
		}
	}
	return nil
}

func dfs(h *hierarchy.Hierarchy, start *hierarchy.Node, dir Direction, opts Options, cb Callbacks) error {
	steps := 0
	var visit func(n *hierarchy.Node) (stop bool, err error)
	visit = func(n *hierarchy.Node) (bool, error) {
		for _, nb := range neighborsOf(h, n, dir, opts) {
			child, ok := h.FindNode(nb.id)
			if !ok || !h.Stamp(child) {
				continue
			}
			if !passesEdgeFilter(h, n, child, opts) {
				continue
			}
			cb.fireChild(nb.field, n, child)
			steps++
			if steps > MaxSteps {
				return false, ErrMaxDepthExceeded
			}
			if matchAndVisit(h, child, opts, cb) {
				return true, nil
			}
			if stop, err := visit(child); stop || err != nil {
				return stop, err
			}
		}
		return false, nil
	}
	_, err := visit(start)
	return err
}
