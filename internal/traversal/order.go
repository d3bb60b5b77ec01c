package traversal

import (
	"strings"

	"github.com/selvadb/selva/internal/nodeid"
)

// OrderKind tags which sort-key variant an OrderItem carries, per §9's
// "design the order item as a sum type over its sort-key variant" note.
type OrderKind uint8

const (
	OrderEmpty OrderKind = iota
	OrderText
	OrderDouble
)

// OrderItem pairs a node with the sort key derived from its named ordering
// field. Comparison is total: items compare by key first (within the same
// variant), falling back to node id for stability; items of differing
// variants are rare in practice (a field is consistently one kind across a
// result set) and fall back straight to node id.
type OrderItem struct {
	Kind   OrderKind
	Text   string
	Double float64
	NodeID nodeid.ID
}

// Less implements the total order §4.3 "Ordering of results" describes:
// primary key by variant, secondary by node id.
func (a OrderItem) Less(b OrderItem) bool {
	if a.Kind != b.Kind {
		return a.NodeID.Less(b.NodeID)
	}
	switch a.Kind {
	case OrderText:
		// Locale-aware collation is out of scope (§1 Non-goals); a
		// case-folded byte compare stands in as the "transform so the
		// comparator is a simple byte compare" step.
		at, bt := strings.ToLower(a.Text), strings.ToLower(b.Text)
		if at != bt {
			return at < bt
		}
	case OrderDouble:
		if a.Double != b.Double {
			return a.Double < b.Double
		}
	}
	return a.NodeID.Less(b.NodeID)
}
