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

	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
)

// ErrDetachUnavailable is returned by HierarchyDelete when DETACH is
// requested but no DetachedStore has been wired via SetDetachedStore.
var ErrDetachUnavailable = fmt.Errorf("hierarchy.del: detach requested but no detached store is configured")

// HierarchyDelete implements DeleteNode (§3): it removes id and, depending
// on flags, cascades into orphaned children (FORCE), collects every id
// actually deleted (REPLY_IDS), and detaches the subtree instead of
// discarding it (DETACH). DETACH adds FORCE, so descendants left without
// parents are removed together with id. The whole subtree under id is
// snapshotted first, including descendants that stay live because they
// still have other parents.
func (c *Core) HierarchyDelete(id nodeid.ID, flags hierarchy.DeleteFlag) ([]nodeid.ID, error) {
	if flags&hierarchy.DETACH != 0 {
		if c.Detached == nil {
			return nil, ErrDetachUnavailable
		}
		if err := c.Detached.Detach(c.Hierarchy, id); err != nil {
			return nil, fmt.Errorf("hierarchy.del: %w", err)
		}
		flags |= hierarchy.FORCE
	}
	return c.Hierarchy.DeleteNode(id, flags), nil
}

// HierarchyRestore re-links a subtree previously removed with DETACH back
// into the live hierarchy under its original parents, releasing the
// detached bytes.
func (c *Core) HierarchyRestore(id nodeid.ID) error {
	if c.Detached == nil {
		return ErrDetachUnavailable
	}
	return c.Detached.Restore(c.Hierarchy, id)
}
