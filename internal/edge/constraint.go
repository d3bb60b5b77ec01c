// Package edge implements the typed named-arc bundles ("edge fields") that
// hang off a hierarchy node, per spec.md §3/§4.1.
package edge

import "github.com/selvadb/selva/internal/nodeid"

// Flag is a bitmask of EdgeFieldConstraint behaviors.
type Flag uint8

const (
	// SingleRef: at most one arc may exist in the field at a time; adding a
	// second arc replaces the first.
	SingleRef Flag = 1 << iota
	// Bidirectional: an inverse arc is maintained on the destination node,
	// in the field named by Constraint.InverseField.
	Bidirectional
	// Dynamic: the field may be created on demand by a write, rather than
	// requiring the constraint to be pre-registered against a field name.
	Dynamic
)

// Has reports whether f includes bit.
func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

// Constraint describes how a named edge field behaves: its flags, the
// source node type it expects, and (for bidirectional fields) the name of
// the inverse field on the destination.
type Constraint struct {
	ID           string
	Flags        Flag
	SrcType      [nodeid.TypeLen]byte
	InverseField string
}

// Registry is the hierarchy-wide table of registered edge-field
// constraints, keyed by constraint id.
type Registry struct {
	byID map[string]*Constraint
}

// NewRegistry returns an empty constraint registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Constraint)}
}

// Register installs or replaces a constraint under its id.
func (r *Registry) Register(c *Constraint) {
	r.byID[c.ID] = c
}

// Get returns the constraint registered under id, if any.
func (r *Registry) Get(id string) (*Constraint, bool) {
	c, ok := r.byID[id]
	return c, ok
}
