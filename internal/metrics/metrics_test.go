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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		if m.Counter != nil {
			return m.Counter.GetValue()
		}
		if m.Gauge != nil {
			return m.Gauge.GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestObserveIndexHitAndMiss(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveIndexHit()
	c.ObserveIndexHit()
	c.ObserveIndexMiss()

	require.Equal(t, 2.0, gatherValue(t, reg, "selva_find_index_hits_total"))
	require.Equal(t, 1.0, gatherValue(t, reg, "selva_find_index_misses_total"))
}

func TestSetDeferredQueueDepth(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetDeferredQueueDepth(7)
	require.Equal(t, 7.0, gatherValue(t, reg, "selva_subscription_deferred_queue_depth"))
}

func TestAddReplicationDropped(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.AddReplicationDropped(3)
	c.AddReplicationDropped(2)
	require.Equal(t, 5.0, gatherValue(t, reg, "selva_modify_replication_dropped_total"))
}

func TestNilCollectorMethodsAreNoOps(t *testing.T) {
	var c *Collector
	require.NotPanics(t, func() {
		c.ObserveIndexHit()
		c.ObserveIndexMiss()
		c.SetDeferredQueueDepth(1)
		c.AddReplicationDropped(1)
		c.SetMaterializedIndices(1)
	})
}
