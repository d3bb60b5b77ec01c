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

	"github.com/selvadb/selva/internal/autoindex"
	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/modify"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/object"
)

// bind registers every §6 command name against a thin Handler adapter that
// decodes Args positionally and calls the matching Core method. It is the
// only place in this module that knows the wire-agnostic argument order;
// everything downstream of it is normal typed Go.
func (c *Core) bind(r *Registry) {
	r.Register("object.get", c.handleObjectGet)
	r.Register("object.exists", c.handleObjectExists)
	r.Register("object.type", c.handleObjectType)
	r.Register("object.len", c.handleObjectLen)
	r.Register("object.del", c.handleObjectDel)
	r.Register("object.set", c.handleObjectSet)
	r.Register("object.getMeta", c.handleObjectGetMeta)
	r.Register("object.setMeta", c.handleObjectSetMeta)

	r.Register("hierarchy.find", c.handleHierarchyFind)
	r.Register("hierarchy.inherit", c.handleHierarchyInherit)
	r.Register("hierarchy.types.add", c.handleHierarchyTypesAdd)
	r.Register("hierarchy.types.clear", c.handleHierarchyTypesClear)
	r.Register("hierarchy.types.list", c.handleHierarchyTypesList)
	r.Register("hierarchy.del", c.handleHierarchyDel)
	r.Register("hierarchy.restore", c.handleHierarchyRestore)

	r.Register("modify", c.handleModify)
	r.Register("resolve.nodeId", c.handleResolveNodeID)

	r.Register("index.list", c.handleIndexList)
	r.Register("index.new", c.handleIndexNew)
	r.Register("index.del", c.handleIndexDel)

	r.Register("subscribe", c.handleSubscribe)
	r.Register("unsubscribe", c.handleUnsubscribe)
	r.Register("publish", c.handlePublish)
}

func argErr(pos int, want string) error {
	return fmt.Errorf("%w: argument %d must be %s", ErrInvalidArgument, pos, want)
}

func argID(a Args, i int) (nodeid.ID, error) {
	if i >= len(a) {
		return nodeid.ID{}, argErr(i, "a node id")
	}
	switch v := a[i].(type) {
	case nodeid.ID:
		return v, nil
	case string:
		return nodeid.FromString(v), nil
	default:
		return nodeid.ID{}, argErr(i, "a node id")
	}
}

func argString(a Args, i int) (string, error) {
	if i >= len(a) {
		return "", argErr(i, "a string")
	}
	s, ok := a[i].(string)
	if !ok {
		return "", argErr(i, "a string")
	}
	return s, nil
}

func argStrings(a Args, i int) ([]string, error) {
	if i >= len(a) {
		return nil, nil
	}
	ss, ok := a[i].([]string)
	if !ok {
		return nil, argErr(i, "a string list")
	}
	return ss, nil
}

func argInt(a Args, i int) (int, error) {
	if i >= len(a) {
		return 0, nil
	}
	switch v := a[i].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, argErr(i, "an integer")
	}
}

func argUint32(a Args, i int) (uint32, error) {
	if i >= len(a) {
		return 0, argErr(i, "an integer")
	}
	switch v := a[i].(type) {
	case uint32:
		return v, nil
	case int:
		return uint32(v), nil
	case int64:
		return uint32(v), nil
	default:
		return 0, argErr(i, "an integer")
	}
}

func argValue(a Args, i int) (object.Value, error) {
	if i >= len(a) {
		return object.Value{}, argErr(i, "a value")
	}
	v, ok := a[i].(object.Value)
	if !ok {
		return object.Value{}, argErr(i, "a value")
	}
	return v, nil
}

func (c *Core) handleObjectGet(a Args) (any, error) {
	id, err := argID(a, 0)
	if err != nil {
		return nil, err
	}
	path, err := argString(a, 1)
	if err != nil {
		return nil, err
	}
	v, found, err := c.ObjectGet(id, path)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return v, nil
}

func (c *Core) handleObjectExists(a Args) (any, error) {
	id, err := argID(a, 0)
	if err != nil {
		return nil, err
	}
	path, err := argString(a, 1)
	if err != nil {
		return nil, err
	}
	return c.ObjectExists(id, path)
}

func (c *Core) handleObjectType(a Args) (any, error) {
	id, err := argID(a, 0)
	if err != nil {
		return nil, err
	}
	path, err := argString(a, 1)
	if err != nil {
		return nil, err
	}
	return c.ObjectType(id, path)
}

func (c *Core) handleObjectLen(a Args) (any, error) {
	id, err := argID(a, 0)
	if err != nil {
		return nil, err
	}
	return c.ObjectLen(id)
}

func (c *Core) handleObjectDel(a Args) (any, error) {
	id, err := argID(a, 0)
	if err != nil {
		return nil, err
	}
	path, err := argString(a, 1)
	if err != nil {
		return nil, err
	}
	return c.ObjectDel(id, path)
}

func (c *Core) handleObjectSet(a Args) (any, error) {
	id, err := argID(a, 0)
	if err != nil {
		return nil, err
	}
	path, err := argString(a, 1)
	if err != nil {
		return nil, err
	}
	v, err := argValue(a, 2)
	if err != nil {
		return nil, err
	}
	return c.ObjectSet(id, path, v)
}

func (c *Core) handleObjectGetMeta(a Args) (any, error) {
	id, err := argID(a, 0)
	if err != nil {
		return nil, err
	}
	key, err := argString(a, 1)
	if err != nil {
		return nil, err
	}
	return c.ObjectGetMeta(id, key)
}

func (c *Core) handleObjectSetMeta(a Args) (any, error) {
	id, err := argID(a, 0)
	if err != nil {
		return nil, err
	}
	key, err := argString(a, 1)
	if err != nil {
		return nil, err
	}
	meta, err := argUint32(a, 2)
	if err != nil {
		return nil, err
	}
	return nil, c.ObjectSetMeta(id, key, uint16(meta))
}

// handleHierarchyFind expects a single pre-decoded FindRequest as argument
// 0: hierarchy.find's argument grammar (direction expressions, filters,
// field specs) is rich enough that flattening it into a positional Args
// list would just reinvent FindRequest with extra steps, so the dispatcher
// layer above Registry is expected to build one directly.
func (c *Core) handleHierarchyFind(a Args) (any, error) {
	if len(a) == 0 {
		return nil, argErr(0, "a FindRequest")
	}
	req, ok := a[0].(FindRequest)
	if !ok {
		return nil, argErr(0, "a FindRequest")
	}
	return c.HierarchyFind(req)
}

func (c *Core) handleHierarchyInherit(a Args) (any, error) {
	if len(a) == 0 {
		return nil, argErr(0, "an InheritRequest")
	}
	req, ok := a[0].(InheritRequest)
	if !ok {
		return nil, argErr(0, "an InheritRequest")
	}
	return c.HierarchyInherit(req)
}

func (c *Core) handleHierarchyTypesAdd(a Args) (any, error) {
	typeCode, err := argString(a, 0)
	if err != nil {
		return nil, err
	}
	displayName, err := argString(a, 1)
	if err != nil {
		return nil, err
	}
	c.HierarchyTypesAdd(typeCode, displayName)
	return nil, nil
}

func (c *Core) handleHierarchyTypesClear(Args) (any, error) {
	c.HierarchyTypesClear()
	return nil, nil
}

func (c *Core) handleHierarchyTypesList(Args) (any, error) {
	return c.HierarchyTypesList(), nil
}

func (c *Core) handleHierarchyDel(a Args) (any, error) {
	id, err := argID(a, 0)
	if err != nil {
		return nil, err
	}
	flagBits, err := argInt(a, 1)
	if err != nil {
		return nil, err
	}
	return c.HierarchyDelete(id, hierarchy.DeleteFlag(flagBits))
}

func (c *Core) handleHierarchyRestore(a Args) (any, error) {
	id, err := argID(a, 0)
	if err != nil {
		return nil, err
	}
	return nil, c.HierarchyRestore(id)
}

// handleModify expects a single pre-decoded modify.Request, for the same
// reason handleHierarchyFind does: a modify call's triplet list is already
// a structured value by the time anything in this module sees it.
func (c *Core) handleModify(a Args) (any, error) {
	if len(a) == 0 {
		return nil, argErr(0, "a modify.Request")
	}
	req, ok := a[0].(modify.Request)
	if !ok {
		return nil, argErr(0, "a modify.Request")
	}
	return c.Modify(req)
}

func (c *Core) handleResolveNodeID(a Args) (any, error) {
	subID, err := argString(a, 0)
	if err != nil {
		return nil, err
	}
	clientID, err := argString(a, 1)
	if err != nil {
		return nil, err
	}
	candidates, err := argStrings(a, 2)
	if err != nil {
		return nil, err
	}
	id, ok := c.ResolveNodeID(subID, clientID, candidates...)
	if !ok {
		return nil, nil
	}
	return id, nil
}

func (c *Core) handleIndexList(Args) (any, error) {
	return c.IndexList(), nil
}

func (c *Core) handleIndexNew(a Args) (any, error) {
	if len(a) == 0 {
		return nil, argErr(0, "an autoindex.Query")
	}
	q, ok := a[0].(autoindex.Query)
	if !ok {
		return nil, argErr(0, "an autoindex.Query")
	}
	return c.IndexNew(q)
}

func (c *Core) handleIndexDel(a Args) (any, error) {
	name, err := argString(a, 0)
	if err != nil {
		return nil, err
	}
	discardOnly := false
	if len(a) > 1 {
		b, ok := a[1].(bool)
		if !ok {
			return nil, argErr(1, "a boolean")
		}
		discardOnly = b
	}
	return nil, c.IndexDel(name, discardOnly)
}

func (c *Core) handleSubscribe(a Args) (any, error) {
	connID, err := argString(a, 0)
	if err != nil {
		return nil, err
	}
	channel, err := argUint32(a, 1)
	if err != nil {
		return nil, err
	}
	return nil, c.Subscribe(connID, channel)
}

func (c *Core) handleUnsubscribe(a Args) (any, error) {
	connID, err := argString(a, 0)
	if err != nil {
		return nil, err
	}
	channel, err := argUint32(a, 1)
	if err != nil {
		return nil, err
	}
	c.Unsubscribe(connID, channel)
	return nil, nil
}

// handlePublish expects a PublishFunc as argument 2: publish has no wire
// framing in this module (§C), so the caller supplies how a subscribed
// connection actually receives the payload.
func (c *Core) handlePublish(a Args) (any, error) {
	channel, err := argUint32(a, 0)
	if err != nil {
		return nil, err
	}
	if len(a) < 3 {
		return nil, argErr(2, "a PublishFunc")
	}
	deliver, ok := a[2].(PublishFunc)
	if !ok {
		return nil, argErr(2, "a PublishFunc")
	}
	c.Publish(channel, a[1], deliver)
	return nil, nil
}
