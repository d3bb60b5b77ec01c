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

package autoindex

import (
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/subscription"
)

var _ subscription.ActionCallback = (*ICB)(nil)

// OnEvent implements subscription.ActionCallback, maintaining the ICB's
// cached result incrementally per §4.5's "Materialization" rules. The
// delivery site already gates ChField calls on the marker's filter still
// matching (internal/subscription.DeferFieldChange), so OnEvent only ever
// sees nodes that currently belong in the result.
//
// ActionCallback carries no field name, so an ordered ICB cannot tell
// whether the field that just changed is its own order field; it
// conservatively invalidates on every field change instead, a strictly
// safe superset of the spec's "invalidate only on the order field" rule.
func (icb *ICB) OnEvent(flag subscription.EventFlag, node nodeid.ID) {
	switch {
	case flag.Has(subscription.EvtRefresh):
		if !icb.valid {
			icb.initResult()
		}
		icb.addResult(node)
	case flag.Has(subscription.ClHierarchy):
		icb.valid = false
		icb.clearResult()
	case flag.Has(subscription.ChField):
		if icb.isOrdered() {
			icb.valid = false
			icb.clearResult()
			return
		}
		if icb.valid {
			icb.addResult(node)
		}
	case flag.Has(subscription.ChHierarchy):
		if icb.valid {
			icb.addResult(node)
		}
	}
}
