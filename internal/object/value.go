package object

import "github.com/selvadb/selva/internal/nodeid"

// Kind tags the dynamic type carried by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindLong
	KindDouble
	KindString
	KindObject
	KindSet
	KindArray
	KindOpaque
)

// SetKind tags the element type of a Set-kind Value.
type SetKind uint8

const (
	SetString SetKind = iota
	SetLong
	SetDouble
	SetNodeID
)

// OpaqueValue is an escape hatch for pointer-typed values carried by an
// Object (e.g. a decoded protocol buffer owned by a collaborator). The type
// tag lets a reply formatter dispatch to the right per-opts reply callback
// without the object store itself understanding the payload.
type OpaqueValue struct {
	TypeTag string
	Data    any
}

// Value is the dynamic value stored under an Object key: null, a long
// integer, a double, a string, a nested Object, a typed Set, a typed Array,
// or an OpaquePtr. Meta carries the 16-bit per-key user-metadata word (set
// via object.setMeta / read via object.getMeta).
type Value struct {
	Kind    Kind
	Meta    uint16
	Long    int64
	Double  float64
	Str     string
	Obj     *Object
	SetKind SetKind
	SetStr  map[string]struct{}
	SetLong map[int64]struct{}
	SetDbl  map[float64]struct{}
	SetNode map[nodeid.ID]struct{}
	Arr     []Value
	Opaque  *OpaqueValue
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// LongValue wraps an integer.
func LongValue(v int64) Value { return Value{Kind: KindLong, Long: v} }

// DoubleValue wraps a double.
func DoubleValue(v float64) Value { return Value{Kind: KindDouble, Double: v} }

// StringValue wraps a string.
func StringValue(v string) Value { return Value{Kind: KindString, Str: v} }

// ObjectValue wraps a nested object.
func ObjectValue(o *Object) Value { return Value{Kind: KindObject, Obj: o} }

// IsSameSetKind reports whether an existing Set-kind value can accept an
// element of kind k without violating the "must stay one element kind"
// constraint (§4.2 "fails with a type error if the key exists with a
// different set kind").
func (v Value) IsSameSetKind(k SetKind) bool {
	return v.Kind == KindSet && v.SetKind == k
}

// Clone returns a deep copy of v, needed whenever a value crosses into a
// structure with independent lifetime (merge results, replication payloads).
func (v Value) Clone() Value {
	out := v
	if v.Obj != nil {
		out.Obj = v.Obj.Clone()
	}
	if v.SetStr != nil {
		out.SetStr = make(map[string]struct{}, len(v.SetStr))
		for k := range v.SetStr {
			out.SetStr[k] = struct{}{}
		}
	}
	if v.SetLong != nil {
		out.SetLong = make(map[int64]struct{}, len(v.SetLong))
		for k := range v.SetLong {
			out.SetLong[k] = struct{}{}
		}
	}
	if v.SetDbl != nil {
		out.SetDbl = make(map[float64]struct{}, len(v.SetDbl))
		for k := range v.SetDbl {
			out.SetDbl[k] = struct{}{}
		}
	}
	if v.SetNode != nil {
		out.SetNode = make(map[nodeid.ID]struct{}, len(v.SetNode))
		for k := range v.SetNode {
			out.SetNode[k] = struct{}{}
		}
	}
	if v.Arr != nil {
		out.Arr = make([]Value, len(v.Arr))
		for i, e := range v.Arr {
			out.Arr[i] = e.Clone()
		}
	}
	return out
}
