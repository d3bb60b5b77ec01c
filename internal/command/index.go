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
)

// IndexEntry is one index.list row: the ICB's low-pass popularity and
// result-size averages and its current state. Separate take, total and
// indexed-take size averages are not tracked or reported.
type IndexEntry struct {
	Name      string
	Permanent bool
	Active    bool
	Valid     bool
	PopAve    float64
	SizeAve   float64
}

// IndexList implements index.list.
func (c *Core) IndexList() []IndexEntry {
	icbs := c.Index.List()
	out := make([]IndexEntry, 0, len(icbs))
	for _, icb := range icbs {
		out = append(out, IndexEntry{
			Name:      icb.Name,
			Permanent: icb.Permanent,
			Active:    icb.Active(),
			Valid:     icb.Valid(),
			PopAve:    icb.PopAve(),
			SizeAve:   icb.SizeAve(),
		})
	}
	return out
}

// IndexNew implements index.new, creating a permanent ICB from a query
// signature decoded from `key, dir, ref_field, order, order_field, nodeId,
// filter` arguments.
func (c *Core) IndexNew(q autoindex.Query) (*autoindex.ICB, error) {
	icb, err := c.Index.NewPermanent(q)
	if err != nil {
		return nil, fmt.Errorf("index.new: %w", err)
	}
	return icb, nil
}

// IndexDel implements index.del.
func (c *Core) IndexDel(name string, discardOnly bool) error {
	if err := c.Index.Delete(name, discardOnly); err != nil {
		return fmt.Errorf("index.del: %w", err)
	}
	return nil
}
