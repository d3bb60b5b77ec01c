package object

import (
	"strings"

	"golang.org/x/exp/slices"
)

// entry is one key/value pair in insertion order.
type entry struct {
	key   string
	value Value
}

// Object is the per-node schemaless key-value container. Iteration order is
// insertion order (§3); lookup is O(1) via the index map, kept in sync with
// the ordered entries slice.
type Object struct {
	entries []entry
	index   map[string]int
}

// New returns an empty Object.
func New() *Object {
	return &Object{index: make(map[string]int)}
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	if o == nil {
		return New()
	}
	out := &Object{
		entries: make([]entry, len(o.entries)),
		index:   make(map[string]int, len(o.index)),
	}
	for i, e := range o.entries {
		out.entries[i] = entry{key: e.key, value: e.value.Clone()}
		out.index[e.key] = i
	}
	return out
}

// Len returns the number of top-level keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.entries)
}

// Get returns the value directly under key (no dot-path resolution).
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	i, ok := o.index[key]
	if !ok {
		return Value{}, false
	}
	return o.entries[i].value, true
}

// Set unconditionally stores value under key, preserving key's existing
// position if it was already present (so rewriting a field does not move it
// to the end of iteration order).
func (o *Object) Set(key string, value Value) error {
	if i, ok := o.index[key]; ok {
		o.entries[i].value = value
		return nil
	}
	if len(o.entries) >= MaxKeys {
		return ErrMaxKeysExceeded
	}
	o.index[key] = len(o.entries)
	o.entries = append(o.entries, entry{key: key, value: value})
	return nil
}

// SetMeta stores the 16-bit user-metadata word carried alongside key's
// value (§3 "Each key additionally carries a 16-bit user-metadata word").
func (o *Object) SetMeta(key string, meta uint16) error {
	i, ok := o.index[key]
	if !ok {
		return ErrNotFound
	}
	o.entries[i].value.Meta = meta
	return nil
}

// GetMeta returns the metadata word stored alongside key's value.
func (o *Object) GetMeta(key string) (uint16, error) {
	i, ok := o.index[key]
	if !ok {
		return 0, ErrNotFound
	}
	return o.entries[i].value.Meta, nil
}

// Delete removes key, reporting whether it had been present.
func (o *Object) Delete(key string) bool {
	i, ok := o.index[key]
	if !ok {
		return false
	}
	o.entries = slices.Delete(o.entries, i, i+1)
	delete(o.index, key)
	for k, idx := range o.index {
		if idx > i {
			o.index[k] = idx - 1
		}
	}
	return true
}

// Keys returns the top-level keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.entries))
	for i, e := range o.entries {
		keys[i] = e.key
	}
	return keys
}

// Each calls fn for every top-level key/value pair in insertion order. fn
// returning false stops iteration.
func (o *Object) Each(fn func(key string, v Value) bool) {
	if o == nil {
		return
	}
	for _, e := range o.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// splitPath splits a dot-notation key path, honoring the "segments
// containing a literal '.' are disambiguated by the layered container
// lookup path" rule of §3: a literal dot inside a segment is written
// escaped as "\.".
func splitPath(path string) []string {
	if !strings.Contains(path, ".") {
		return []string{path}
	}
	var segs []string
	var cur strings.Builder
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '\\' && i+1 < len(path) && path[i+1] == '.' {
			cur.WriteByte('.')
			i++
			continue
		}
		if c == '.' {
			segs = append(segs, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	segs = append(segs, cur.String())
	return segs
}

// JoinPath is the inverse of splitPath, escaping literal dots in segments.
func JoinPath(segs []string) string {
	escaped := make([]string, len(segs))
	for i, s := range segs {
		escaped[i] = strings.ReplaceAll(s, ".", `\.`)
	}
	return strings.Join(escaped, ".")
}

// GetPath resolves a dot-separated key path, descending into nested Objects.
// A wildcard "*" segment is only meaningful to the reply formatter (Reply),
// not to plain Get/GetPath resolution, which requires an exact key at every
// level.
func (o *Object) GetPath(path string) Lookup[Value] {
	segs := splitPath(path)
	cur := o
	for i, seg := range segs {
		v, ok := cur.Get(seg)
		if !ok {
			return Absent[Value]()
		}
		if i == len(segs)-1 {
			return Ok(v)
		}
		if v.Kind != KindObject {
			return Fail[Value](ErrWrongType)
		}
		cur = v.Obj
	}
	return Absent[Value]()
}

// ensureNestedObject walks/creates intermediate Objects for all but the last
// path segment, returning the final container and the leaf key. It refuses
// to overwrite a conflicting scalar, per §4.2.
func (o *Object) ensureNestedObject(segs []string) (*Object, string, error) {
	cur := o
	for _, seg := range segs[:len(segs)-1] {
		v, ok := cur.Get(seg)
		if !ok {
			child := New()
			if err := cur.Set(seg, ObjectValue(child)); err != nil {
				return nil, "", err
			}
			cur = child
			continue
		}
		if v.Kind != KindObject {
			return nil, "", ErrWrongType
		}
		cur = v.Obj
	}
	return cur, segs[len(segs)-1], nil
}
