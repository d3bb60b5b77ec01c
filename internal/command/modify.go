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

	"github.com/selvadb/selva/internal/modify"
)

// Modify implements the modify command of §4.6/§6: it is a thin pass-through
// to the wired modify.Operation, existing so the command surface has one
// place that namespaces the operation's errors before they cross to a
// caller, per §7's "command-layer errors prefixed distinctly from
// core-layer".
func (c *Core) Modify(req modify.Request) (modify.Result, error) {
	res, err := c.ModifyOp.Apply(req)
	if err != nil {
		return modify.Result{}, fmt.Errorf("modify: %w", err)
	}
	return res, nil
}
