package object

import "github.com/selvadb/selva/internal/nodeid"

// WriteMode distinguishes update (only if present) from default (only if
// absent) from set (unconditional), per §4.2.
type WriteMode uint8

const (
	WriteSet WriteMode = iota
	WriteDefault
	WriteUpdate
)

// scalarWrite is the shared body of SetLongLong/SetDouble/SetString: it
// auto-creates intermediate objects, applies the write-mode gate, and
// reports whether the observable state changed.
func (o *Object) scalarWrite(path string, mode WriteMode, next Value, equal func(Value) bool) (changed bool, err error) {
	segs := splitPath(path)
	parent, leaf, err := o.ensureNestedObject(segs)
	if err != nil {
		return false, err
	}
	cur, present := parent.Get(leaf)
	switch mode {
	case WriteUpdate:
		if !present {
			return false, nil
		}
	case WriteDefault:
		if present {
			return false, nil
		}
	}
	if present && cur.Kind != KindNull && cur.Kind != next.Kind {
		return false, ErrWrongType
	}
	if present && equal != nil && equal(cur) {
		return false, nil
	}
	if err := parent.Set(leaf, next); err != nil {
		return false, err
	}
	return true, nil
}

// SetLongLong writes an integer scalar at path under the given write mode.
func (o *Object) SetLongLong(path string, v int64, mode WriteMode) (bool, error) {
	return o.scalarWrite(path, mode, LongValue(v), func(cur Value) bool { return cur.Kind == KindLong && cur.Long == v })
}

// SetDouble writes a double scalar at path under the given write mode.
func (o *Object) SetDouble(path string, v float64, mode WriteMode) (bool, error) {
	return o.scalarWrite(path, mode, DoubleValue(v), func(cur Value) bool { return cur.Kind == KindDouble && cur.Double == v })
}

// SetString writes a string scalar at path under the given write mode.
func (o *Object) SetString(path string, v string, mode WriteMode) (bool, error) {
	return o.scalarWrite(path, mode, StringValue(v), func(cur Value) bool { return cur.Kind == KindString && cur.Str == v })
}

// IncrementLongLong adds delta to the integer at path (creating it with
// value delta if absent), returning the new value and whether it changed.
func (o *Object) IncrementLongLong(path string, delta int64) (int64, bool, error) {
	segs := splitPath(path)
	parent, leaf, err := o.ensureNestedObject(segs)
	if err != nil {
		return 0, false, err
	}
	cur, present := parent.Get(leaf)
	if present && cur.Kind != KindLong {
		return 0, false, ErrWrongType
	}
	next := delta
	if present {
		next = cur.Long + delta
	}
	if err := parent.Set(leaf, LongValue(next)); err != nil {
		return 0, false, err
	}
	return next, delta != 0, nil
}

// IncrementDouble adds delta to the double at path (creating it with value
// delta if absent), returning the new value and whether it changed.
func (o *Object) IncrementDouble(path string, delta float64) (float64, bool, error) {
	segs := splitPath(path)
	parent, leaf, err := o.ensureNestedObject(segs)
	if err != nil {
		return 0, false, err
	}
	cur, present := parent.Get(leaf)
	if present && cur.Kind != KindDouble {
		return 0, false, ErrWrongType
	}
	next := delta
	if present {
		next = cur.Double + delta
	}
	if err := parent.Set(leaf, DoubleValue(next)); err != nil {
		return 0, false, err
	}
	return next, delta != 0, nil
}

func (o *Object) setContainer(path string, kind SetKind) (*Object, string, *Value, error) {
	segs := splitPath(path)
	parent, leaf, err := o.ensureNestedObject(segs)
	if err != nil {
		return nil, "", nil, err
	}
	cur, present := parent.Get(leaf)
	if !present {
		v := Value{Kind: KindSet, SetKind: kind}
		switch kind {
		case SetString:
			v.SetStr = map[string]struct{}{}
		case SetLong:
			v.SetLong = map[int64]struct{}{}
		case SetDouble:
			v.SetDbl = map[float64]struct{}{}
		case SetNodeID:
			v.SetNode = map[nodeid.ID]struct{}{}
		}
		if err := parent.Set(leaf, v); err != nil {
			return nil, "", nil, err
		}
		cur, _ = parent.Get(leaf)
	}
	if !cur.IsSameSetKind(kind) {
		return nil, "", nil, ErrWrongType
	}
	return parent, leaf, &cur, nil
}

// AddStringSet adds members to the string set at path, creating it if
// absent. It fails with ErrWrongType if path already holds a set of a
// different element kind.
func (o *Object) AddStringSet(path string, members ...string) (bool, error) {
	parent, leaf, cur, err := o.setContainer(path, SetString)
	if err != nil {
		return false, err
	}
	changed := false
	for _, m := range members {
		if _, exists := cur.SetStr[m]; !exists {
			cur.SetStr[m] = struct{}{}
			changed = true
		}
	}
	_ = parent.Set(leaf, *cur)
	return changed, nil
}

// AddLongLongSet adds members to the integer set at path, creating it if
// absent.
func (o *Object) AddLongLongSet(path string, members ...int64) (bool, error) {
	parent, leaf, cur, err := o.setContainer(path, SetLong)
	if err != nil {
		return false, err
	}
	changed := false
	for _, m := range members {
		if _, exists := cur.SetLong[m]; !exists {
			cur.SetLong[m] = struct{}{}
			changed = true
		}
	}
	_ = parent.Set(leaf, *cur)
	return changed, nil
}

// AddDoubleSet adds members to the double set at path, creating it if
// absent.
func (o *Object) AddDoubleSet(path string, members ...float64) (bool, error) {
	parent, leaf, cur, err := o.setContainer(path, SetDouble)
	if err != nil {
		return false, err
	}
	changed := false
	for _, m := range members {
		if _, exists := cur.SetDbl[m]; !exists {
			cur.SetDbl[m] = struct{}{}
			changed = true
		}
	}
	_ = parent.Set(leaf, *cur)
	return changed, nil
}

// AddNodeIDSet adds members to the node-id set at path, creating it if
// absent. Node-id sets back the "aliases" reverse-set field and edge-field
// style object fields that reference other nodes by id.
func (o *Object) AddNodeIDSet(path string, members ...nodeid.ID) (bool, error) {
	parent, leaf, cur, err := o.setContainer(path, SetNodeID)
	if err != nil {
		return false, err
	}
	changed := false
	for _, m := range members {
		if _, exists := cur.SetNode[m]; !exists {
			cur.SetNode[m] = struct{}{}
			changed = true
		}
	}
	_ = parent.Set(leaf, *cur)
	return changed, nil
}

// RemString removes a member from the string set at path.
func (o *Object) RemString(path string, member string) (bool, error) {
	lk := o.GetPath(path)
	if !lk.IsFound() || lk.Value.Kind != KindSet || lk.Value.SetKind != SetString {
		return false, nil
	}
	v := lk.Value
	if _, ok := v.SetStr[member]; !ok {
		return false, nil
	}
	delete(v.SetStr, member)
	return true, o.setLeaf(path, v)
}

// RemLongLong removes a member from the integer set at path.
func (o *Object) RemLongLong(path string, member int64) (bool, error) {
	lk := o.GetPath(path)
	if !lk.IsFound() || lk.Value.Kind != KindSet || lk.Value.SetKind != SetLong {
		return false, nil
	}
	v := lk.Value
	if _, ok := v.SetLong[member]; !ok {
		return false, nil
	}
	delete(v.SetLong, member)
	return true, o.setLeaf(path, v)
}

// setLeaf writes v back to an already-existing leaf at path (used after
// in-place mutation of a set/array value pulled out by GetPath).
func (o *Object) setLeaf(path string, v Value) error {
	segs := splitPath(path)
	parent, leaf, err := o.ensureNestedObject(segs)
	if err != nil {
		return err
	}
	return parent.Set(leaf, v)
}

// InsertArray appends values to the array at path, creating it if absent.
func (o *Object) InsertArray(path string, values ...Value) error {
	lk := o.GetPath(path)
	var arr Value
	if lk.IsFound() {
		if lk.Value.Kind != KindArray {
			return ErrWrongType
		}
		arr = lk.Value
	} else {
		arr = Value{Kind: KindArray}
	}
	arr.Arr = append(arr.Arr, values...)
	return o.setLeaf(path, arr)
}

// InsertArrayIndex inserts values at idx in the array at path, shifting
// subsequent elements right. An idx equal to the array's length appends.
func (o *Object) InsertArrayIndex(path string, idx int, values ...Value) error {
	lk := o.GetPath(path)
	var arr Value
	if lk.IsFound() {
		if lk.Value.Kind != KindArray {
			return ErrWrongType
		}
		arr = lk.Value
	} else {
		arr = Value{Kind: KindArray}
	}
	if idx < 0 || idx > len(arr.Arr) {
		return ErrNotFound
	}
	grown := make([]Value, 0, len(arr.Arr)+len(values))
	grown = append(grown, arr.Arr[:idx]...)
	grown = append(grown, values...)
	grown = append(grown, arr.Arr[idx:]...)
	arr.Arr = grown
	return o.setLeaf(path, arr)
}

// AssignArrayIndex overwrites the element at idx in the array at path.
func (o *Object) AssignArrayIndex(path string, idx int, v Value) error {
	lk := o.GetPath(path)
	if !lk.IsFound() || lk.Value.Kind != KindArray {
		return ErrWrongType
	}
	arr := lk.Value
	if idx < 0 || idx >= len(arr.Arr) {
		return ErrNotFound
	}
	arr.Arr[idx] = v
	return o.setLeaf(path, arr)
}

// RemoveArrayIndex removes the element at idx from the array at path.
func (o *Object) RemoveArrayIndex(path string, idx int) error {
	lk := o.GetPath(path)
	if !lk.IsFound() || lk.Value.Kind != KindArray {
		return ErrWrongType
	}
	arr := lk.Value
	if idx < 0 || idx >= len(arr.Arr) {
		return ErrNotFound
	}
	arr.Arr = append(arr.Arr[:idx], arr.Arr[idx+1:]...)
	return o.setLeaf(path, arr)
}

// GetArrayLen returns the length of the array at path.
func (o *Object) GetArrayLen(path string) (int, error) {
	lk := o.GetPath(path)
	if !lk.IsFound() {
		return 0, nil
	}
	if lk.Value.Kind != KindArray {
		return 0, ErrWrongType
	}
	return len(lk.Value.Arr), nil
}
