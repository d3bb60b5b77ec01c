package edge

import (
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
)

// Container is the set of edge fields owned by one node, keyed by field
// name. It is created lazily: a node with no outgoing arcs has a Container
// with zero fields.
type Container struct {
	fields map[string]*Field
}

// NewContainer returns an empty edge-field container.
func NewContainer() *Container {
	return &Container{fields: make(map[string]*Field)}
}

// Field returns the named field, if it has been created.
func (c *Container) Field(name string) (*Field, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// Names returns the names of every field currently present.
func (c *Container) Names() []string {
	names := make([]string, 0, len(c.fields))
	for n := range c.fields {
		names = append(names, n)
	}
	return names
}

// NodeAccessor lets the edge package reach the destination node's own
// container (to maintain a bidirectional inverse arc) and type (to enforce
// a constraint's expected source type) without depending on the hierarchy
// package, avoiding an import cycle.
type NodeAccessor interface {
	ContainerFor(id nodeid.ID) (*Container, bool)
	TypeOf(id nodeid.ID) ([nodeid.TypeLen]byte, bool)
}

// Add creates field on src (if absent) under constraint c and adds an arc
// to dst. SINGLE_REF replaces any existing arc; BIDIRECTIONAL also adds the
// inverse arc on dst in c.InverseField. Returns ErrExists if the arc is
// already present (SINGLE_REF fields included), or ErrConstraintViolation
// if src's type does not match c.SrcType.
func (c *Container) Add(acc NodeAccessor, srcID nodeid.ID, field string, c2 *Constraint, dst nodeid.ID) error {
	if t, ok := acc.TypeOf(srcID); ok && c2.SrcType != ([nodeid.TypeLen]byte{}) && t != c2.SrcType {
		return ErrConstraintViolation
	}
	f, ok := c.fields[field]
	if !ok {
		f = newField(field, c2)
		c.fields[field] = f
	}
	if f.Has(dst) {
		return ErrExists
	}
	if f.Constraint.Flags.Has(SingleRef) {
		f.Arcs.Each(func(old nodeid.ID) bool {
			c.removeArcOneSide(acc, srcID, f, old)
			return false
		})
	}
	f.Arcs.Add(dst)
	if f.Constraint.Flags.Has(Bidirectional) {
		if dstContainer, ok := acc.ContainerFor(dst); ok {
			inv, ok := dstContainer.fields[f.Constraint.InverseField]
			if !ok {
				inv = newField(f.Constraint.InverseField, f.Constraint)
				dstContainer.fields[f.Constraint.InverseField] = inv
			}
			inv.Arcs.Add(srcID)
		}
	}
	return nil
}

// removeArcOneSide removes dst from f and, if f is bidirectional, removes
// the inverse arc pointing back at srcID.
func (c *Container) removeArcOneSide(acc NodeAccessor, srcID nodeid.ID, f *Field, dst nodeid.ID) {
	f.Arcs.Remove(dst)
	f.dropMetadata(dst)
	if f.Constraint.Flags.Has(Bidirectional) {
		if dstContainer, ok := acc.ContainerFor(dst); ok {
			if inv, ok := dstContainer.fields[f.Constraint.InverseField]; ok {
				inv.Arcs.Remove(srcID)
				inv.dropMetadata(srcID)
			}
		}
	}
}

// Delete removes the arc src.field -> dst (and its inverse, for
// bidirectional fields), freeing any per-arc metadata.
func (c *Container) Delete(acc NodeAccessor, srcID nodeid.ID, field string, dst nodeid.ID) error {
	f, ok := c.fields[field]
	if !ok || !f.Has(dst) {
		return ErrNotFound
	}
	c.removeArcOneSide(acc, srcID, f, dst)
	return nil
}

// ClearField removes every arc of field (and their inverses), then drops
// the field itself.
func (c *Container) ClearField(acc NodeAccessor, srcID nodeid.ID, field string) error {
	f, ok := c.fields[field]
	if !ok {
		return ErrNotFound
	}
	for _, dst := range append([]nodeid.ID(nil), f.Arcs.Slice()...) {
		c.removeArcOneSide(acc, srcID, f, dst)
	}
	delete(c.fields, field)
	return nil
}

// GetFieldEdgeMetadata returns the metadata Object for (field, dst),
// lazily creating it when create is true and the arc exists.
func (c *Container) GetFieldEdgeMetadata(field string, dst nodeid.ID, create bool) (*object.Object, bool) {
	f, ok := c.fields[field]
	if !ok {
		return nil, false
	}
	m := f.Metadata(dst, create)
	if m == nil {
		return nil, false
	}
	return m, true
}

// RemoveReferencesTo deletes every arc (on any field of this container)
// that points at dst, with its inverse for bidirectional fields; used by
// hierarchy node deletion to maintain referential integrity (§4.1).
func (c *Container) RemoveReferencesTo(acc NodeAccessor, ownerID nodeid.ID, dst nodeid.ID) {
	for _, f := range c.fields {
		if f.Has(dst) {
			c.removeArcOneSide(acc, ownerID, f, dst)
		}
	}
}
