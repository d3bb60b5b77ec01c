package edge

import (
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
)

// Field is a named outgoing-arc bundle from one node: a sorted sequence of
// destination references, an optional nested Object of per-destination
// metadata keyed by the destination's printable id, and a reference to the
// constraint that governs it.
type Field struct {
	Name       string
	Constraint *Constraint
	Arcs       *nodeid.Set
	Meta       *object.Object
}

func newField(name string, c *Constraint) *Field {
	return &Field{Name: name, Constraint: c, Arcs: nodeid.NewSet()}
}

// Has reports whether dst is an arc destination of this field.
func (f *Field) Has(dst nodeid.ID) bool {
	if f == nil {
		return false
	}
	return f.Arcs.Has(dst)
}

// Metadata returns the metadata Object for dst, creating it (and the
// field's Meta container) if create is true and the arc exists.
func (f *Field) Metadata(dst nodeid.ID, create bool) *object.Object {
	if !f.Has(dst) {
		return nil
	}
	if f.Meta == nil {
		if !create {
			return nil
		}
		f.Meta = object.New()
	}
	key := dst.String()
	lk := f.Meta.GetPath(key)
	if lk.IsFound() && lk.Value.Kind == object.KindObject {
		return lk.Value.Obj
	}
	if !create {
		return nil
	}
	child := object.New()
	_ = f.Meta.Set(key, object.ObjectValue(child))
	return child
}

func (f *Field) dropMetadata(dst nodeid.ID) {
	if f.Meta == nil {
		return
	}
	f.Meta.Delete(dst.String())
}
