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

// typeRegistry is the node-type code to display-name map of §6
// ("hierarchy.types.add / clear / list — manage the node-type → display-name
// map"). It is plain command-surface metadata, not part of any node's own
// state, so it lives here rather than in internal/hierarchy.
type typeRegistry struct {
	names map[string]string
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{names: make(map[string]string)}
}

func (r *typeRegistry) add(typeCode, displayName string) {
	r.names[typeCode] = displayName
}

func (r *typeRegistry) clear() {
	r.names = make(map[string]string)
}

func (r *typeRegistry) list() map[string]string {
	out := make(map[string]string, len(r.names))
	for k, v := range r.names {
		out[k] = v
	}
	return out
}

// HierarchyTypesAdd implements hierarchy.types.add.
func (c *Core) HierarchyTypesAdd(typeCode, displayName string) {
	c.types.add(typeCode, displayName)
}

// HierarchyTypesClear implements hierarchy.types.clear.
func (c *Core) HierarchyTypesClear() {
	c.types.clear()
}

// HierarchyTypesList implements hierarchy.types.list.
func (c *Core) HierarchyTypesList() map[string]string {
	return c.types.list()
}
