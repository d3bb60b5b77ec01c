package traversal

import "github.com/selvadb/selva/internal/hierarchy"

// Callbacks is the optional callback surface spec.md §4.3 describes: Head
// fires once for the starting node, Node fires for each visited node and
// can interrupt the walk by returning true, Child fires for each
// adjacency discovered, naming the field it was reached through.
type Callbacks struct {
	Head  func(n *hierarchy.Node)
	Node  func(n *hierarchy.Node) (stop bool)
	Child func(field string, from, to *hierarchy.Node)
}

func (cb Callbacks) fireHead(n *hierarchy.Node) {
	if cb.Head != nil {
		cb.Head(n)
	}
}

func (cb Callbacks) fireNode(n *hierarchy.Node) bool {
	if cb.Node != nil {
		return cb.Node(n)
	}
	return false
}

func (cb Callbacks) fireChild(field string, from, to *hierarchy.Node) {
	if cb.Child != nil {
		cb.Child(field, from, to)
	}
}
