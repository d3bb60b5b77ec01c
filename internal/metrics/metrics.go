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

// Package metrics exposes the handful of Prometheus series this store's
// background machinery earns: auto-index hit/miss counts, the subscription
// deferred-event queue depth, and the replication ring buffer's drop
// counter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every metric this module registers. A nil *Collector is
// valid and every method on it is then a no-op, so wiring it through Core
// is optional.
type Collector struct {
	indexHits   prometheus.Counter
	indexMisses prometheus.Counter

	deferredQueueDepth prometheus.Gauge

	replicationDropped prometheus.Counter

	materializedIndices prometheus.Gauge
}

// New registers every series on reg and returns the collector. Passing
// prometheus.NewRegistry() keeps tests hermetic; cmd/selvad also passes a
// registry of its own rather than prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		indexHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "selva",
			Subsystem: "find",
			Name:      "index_hits_total",
			Help:      "Find requests served from a materialized index.",
		}),
		indexMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "selva",
			Subsystem: "find",
			Name:      "index_misses_total",
			Help:      "Find requests that fell back to a live traversal walk.",
		}),
		deferredQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "selva",
			Subsystem: "subscription",
			Name:      "deferred_queue_depth",
			Help:      "Pending deferred-event entries awaiting end-of-batch delivery.",
		}),
		replicationDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "selva",
			Subsystem: "modify",
			Name:      "replication_dropped_total",
			Help:      "Replication messages dropped because the ring buffer was full.",
		}),
		materializedIndices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "selva",
			Subsystem: "find",
			Name:      "materialized_indices",
			Help:      "Currently active (materialized) index control blocks.",
		}),
	}
	reg.MustRegister(c.indexHits, c.indexMisses, c.deferredQueueDepth, c.replicationDropped, c.materializedIndices)
	return c
}

// ObserveIndexHit records a find request served from a materialized index.
func (c *Collector) ObserveIndexHit() {
	if c == nil {
		return
	}
	c.indexHits.Inc()
}

// ObserveIndexMiss records a find request that fell back to a live walk.
func (c *Collector) ObserveIndexMiss() {
	if c == nil {
		return
	}
	c.indexMisses.Inc()
}

// SetDeferredQueueDepth reports the subscription manager's current deferred-
// event queue depth.
func (c *Collector) SetDeferredQueueDepth(n int) {
	if c == nil {
		return
	}
	c.deferredQueueDepth.Set(float64(n))
}

// AddReplicationDropped accounts for newly dropped replication messages
// since the last observation (the ring buffer's counter is cumulative, so
// callers pass the delta).
func (c *Collector) AddReplicationDropped(delta uint64) {
	if c == nil || delta == 0 {
		return
	}
	c.replicationDropped.Add(float64(delta))
}

// SetMaterializedIndices reports the auto-indexing engine's current active
// ICB count.
func (c *Collector) SetMaterializedIndices(n int) {
	if c == nil {
		return
	}
	c.materializedIndices.Set(float64(n))
}
