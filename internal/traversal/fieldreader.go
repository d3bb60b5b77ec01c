package traversal

import (
	"github.com/selvadb/selva/internal/object"
	"github.com/selvadb/selva/internal/rpn"
)

// objectFieldReader adapts an Object to rpn.FieldReader, translating the
// object store's richer Value into the evaluator's narrower Bool/Double/
// String/StringSet domain. A nested object or a non-string-element set is
// not representable and reads as absent.
type objectFieldReader struct {
	obj *object.Object
}

func (r objectFieldReader) ReadField(path string) (rpn.Value, bool) {
	if r.obj == nil {
		return rpn.Value{}, false
	}
	lk := r.obj.GetPath(path)
	if !lk.IsFound() {
		return rpn.Value{}, false
	}
	return fromObjectValue(lk.Value)
}

func fromObjectValue(v object.Value) (rpn.Value, bool) {
	switch v.Kind {
	case object.KindLong:
		return rpn.Value{Kind: rpn.KindDouble, D: float64(v.Long)}, true
	case object.KindDouble:
		return rpn.Value{Kind: rpn.KindDouble, D: v.Double}, true
	case object.KindString:
		return rpn.Value{Kind: rpn.KindString, S: v.Str}, true
	case object.KindSet:
		if v.SetKind != object.SetString {
			return rpn.Value{}, false
		}
		set := make(map[string]struct{}, len(v.SetStr))
		for k := range v.SetStr {
			set[k] = struct{}{}
		}
		return rpn.Value{Kind: rpn.KindStringSet, Set: set}, true
	default:
		return rpn.Value{}, false
	}
}
