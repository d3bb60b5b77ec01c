// Copyright 2026 The Selva Authors
// This file is part of Selva.
//
// Selva is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Selva is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Selva. If not, see <http://www.gnu.org/licenses/>.

package command

import (
	"fmt"
	"strings"

	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
)

// ObjectGet implements object.get: resolve path against id's object,
// descending into nested objects.
func (c *Core) ObjectGet(id nodeid.ID, path string) (object.Value, bool, error) {
	n, ok := c.Hierarchy.FindNode(id)
	if !ok {
		return object.Value{}, false, ErrNodeNotFound
	}
	lk := n.Object.GetPath(path)
	if lk.State == object.LookupError {
		return object.Value{}, false, fmt.Errorf("object.get %s: %w", path, lk.Err)
	}
	return lk.Value, lk.IsFound(), nil
}

// ObjectExists implements object.exists.
func (c *Core) ObjectExists(id nodeid.ID, path string) (bool, error) {
	_, found, err := c.ObjectGet(id, path)
	return found, err
}

// ObjectType implements object.type, reporting the Kind of the value at
// path.
func (c *Core) ObjectType(id nodeid.ID, path string) (object.Kind, error) {
	v, found, err := c.ObjectGet(id, path)
	if err != nil {
		return object.KindNull, err
	}
	if !found {
		return object.KindNull, fmt.Errorf("object.type %s: %w", path, object.ErrNotFound)
	}
	return v.Kind, nil
}

// ObjectLen implements object.len: the top-level key count of id's object.
func (c *Core) ObjectLen(id nodeid.ID) (int, error) {
	n, ok := c.Hierarchy.FindNode(id)
	if !ok {
		return 0, ErrNodeNotFound
	}
	return n.Object.Len(), nil
}

// ObjectDel implements object.del, removing the top-level key named by path
// (deletion does not descend into nested objects; §4.2 deletes a whole
// field).
func (c *Core) ObjectDel(id nodeid.ID, path string) (bool, error) {
	n, ok := c.Hierarchy.FindNode(id)
	if !ok {
		return false, ErrNodeNotFound
	}
	return n.Object.Delete(path), nil
}

// ObjectSet implements object.set. Scalar kinds reuse the auto-vivifying,
// write-mode-aware path setters of internal/object/ops.go, so a set at a
// nested path creates intermediate objects the same way modify triplets do.
// Non-scalar kinds (Object/Set/Array/Opaque) only support a bare top-level
// key: ops.go's nested-path auto-vivification is scalar-only, and widening
// it to arbitrary value kinds isn't something any caller in this module
// needs yet.
func (c *Core) ObjectSet(id nodeid.ID, path string, v object.Value) (bool, error) {
	n, ok := c.Hierarchy.FindNode(id)
	if !ok {
		return false, ErrNodeNotFound
	}
	switch v.Kind {
	case object.KindLong:
		return n.Object.SetLongLong(path, v.Long, object.WriteSet)
	case object.KindDouble:
		return n.Object.SetDouble(path, v.Double, object.WriteSet)
	case object.KindString:
		return n.Object.SetString(path, v.Str, object.WriteSet)
	default:
		if strings.Contains(path, ".") {
			return false, ErrUnsupportedPath
		}
		if err := n.Object.Set(path, v); err != nil {
			return false, err
		}
		return true, nil
	}
}

// ObjectGetMeta implements object.getMeta. Like SetMeta/GetMeta themselves,
// this only addresses a top-level key.
func (c *Core) ObjectGetMeta(id nodeid.ID, key string) (uint16, error) {
	n, ok := c.Hierarchy.FindNode(id)
	if !ok {
		return 0, ErrNodeNotFound
	}
	return n.Object.GetMeta(key)
}

// ObjectSetMeta implements object.setMeta.
func (c *Core) ObjectSetMeta(id nodeid.ID, key string, meta uint16) error {
	n, ok := c.Hierarchy.FindNode(id)
	if !ok {
		return ErrNodeNotFound
	}
	return n.Object.SetMeta(key, meta)
}
