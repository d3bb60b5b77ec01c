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
	"context"
	"time"

	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/idalloc"
	"github.com/selvadb/selva/internal/selvalog"
	"github.com/selvadb/selva/internal/subscription"
	"github.com/tidwall/btree"
)

var log = selvalog.New("component", "autoindex")

// Config holds the §6 FIND_INDEXING_* / FIND_INDICES_MAX tunables.
type Config struct {
	// IndicesMax bounds the number of simultaneously materialized indices;
	// 0 disables indexing outright.
	IndicesMax int
	// IndexingThreshold is the minimum average find-result size considered
	// worth indexing.
	IndexingThreshold float64
	// PopLowPass is the smoothing factor (0,1] applied to the popularity
	// and size moving averages on each icbTick.
	PopLowPass float64
	// MinPopularity is the small popularity-average floor below which a
	// discarded-but-kept ICB is destroyed outright instead.
	MinPopularity float64
}

// DefaultConfig mirrors the kind of defaults spec.md §6 implies without
// pinning exact numbers: generous enough to let a handful of hot queries
// materialize without immediately indexing everything.
func DefaultConfig() Config {
	return Config{
		IndicesMax:        16,
		IndexingThreshold: 32,
		PopLowPass:        0.25,
		MinPopularity:     0.5,
	}
}

// Engine is the auto-indexer: the by-name ICB map, the bounded top-indices
// "poptop" list, and the id allocator for ICB ids. It runs entirely through
// internal/subscription's action-callback markers — it never touches the
// hierarchy directly once an ICB is materialized.
type Engine struct {
	h   *hierarchy.Hierarchy
	sub *subscription.Manager
	cfg Config

	ids  *idalloc.Allocator
	byID map[uint32]*ICB
	m    *indexMap
	top  *btree.BTreeG[*ICB]

	activeCount int
}

// NewEngine wires an Engine to h and sub (already wired to each other via
// h.SetEventSink).
func NewEngine(h *hierarchy.Hierarchy, sub *subscription.Manager, cfg Config) *Engine {
	return &Engine{
		h:    h,
		sub:  sub,
		cfg:  cfg,
		ids:  idalloc.New(),
		byID: make(map[uint32]*ICB),
		m:    newIndexMap(),
		top:  btree.NewBTreeG(scoreLess),
	}
}

// scoreLess orders ICBs ascending by score, breaking ties by name so every
// entry occupies a distinct position in the poptop tree.
func scoreLess(a, b *ICB) bool {
	sa, sb := a.score(), b.score()
	if sa != sb {
		return sa < sb
	}
	return a.Name < b.Name
}

// Query implements §4.5's "Upsert on query": consult the index map by name,
// bumping the popularity counter on a hit, or create a fresh candidate ICB
// on a miss. It returns the ICB and whether its cached result can be served
// right now (present, valid, and materialized). Directions outside the
// eligible set (§4.5) are never indexed; Query still returns ok=false for
// them without tracking an ICB.
func (e *Engine) Query(q Query) (icb *ICB, servable bool) {
	if e.cfg.IndicesMax == 0 || !q.Dir.EligibleForIndex() {
		return nil, false
	}
	name := BuildName(q)
	if existing, found := e.m.get(name); found {
		existing.popCur++
		return existing, existing.active && existing.valid
	}
	icb = newICB(e.ids.Alloc(), name, q)
	icb.popCur = 1
	e.byID[icb.ID] = icb
	e.m.put(icb)
	return icb, false
}

// NewPermanent registers a user-created ICB via the index.new command,
// materializing it immediately and marking it Permanent so eviction never
// destroys it (§4.5 "Permanent ICBs (user-created)").
func (e *Engine) NewPermanent(q Query) (*ICB, error) {
	name := BuildName(q)
	if existing, found := e.m.get(name); found {
		return existing, nil
	}
	icb := newICB(e.ids.Alloc(), name, q)
	icb.Permanent = true
	e.byID[icb.ID] = icb
	e.m.put(icb)
	if err := e.materialize(icb); err != nil {
		return nil, err
	}
	return icb, nil
}

// Delete drops an index by name, per the index.del command: discardOnly
// clears the cached result but keeps the ICB (it can re-materialize later
// on popularity), otherwise the ICB is destroyed outright.
func (e *Engine) Delete(name string, discardOnly bool) error {
	icb, found := e.m.get(name)
	if !found {
		return ErrNotFound
	}
	if discardOnly {
		e.discard(icb)
		return nil
	}
	e.destroy(icb)
	return nil
}

// List enumerates every tracked ICB, for the index.list command.
func (e *Engine) List() []*ICB {
	var out []*ICB
	e.m.each(func(icb *ICB) { out = append(out, icb) })
	return out
}

func lowPass(prev, sample, alpha float64) float64 {
	return prev + alpha*(sample-prev)
}

// IcbTick runs one icb_proc cycle (§4.5 "fired every
// find_indexing_icb_update_interval"): update the low-pass popularity and
// size averages, then propose the ICB to the top-indices list if its size
// average now clears the indexing threshold.
func (e *Engine) IcbTick(icb *ICB) {
	// The top list is ordered by score, which moves with the averages below:
	// take icb out first and put it back at its new score afterwards.
	_, tracked := e.top.Delete(icb)

	icb.popAve = lowPass(icb.popAve, float64(icb.popCur), e.cfg.PopLowPass)
	icb.popCur = 0

	size := 0
	if icb.valid {
		size = len(icb.Result(e.h))
	}
	icb.sizeAve = lowPass(icb.sizeAve, float64(size), e.cfg.PopLowPass)

	if icb.sizeAve >= e.cfg.IndexingThreshold {
		e.propose(icb)
	} else if tracked {
		e.top.Set(icb)
	}
}

// propose inserts icb into the bounded top-indices poptop, evicting the
// current lowest-scoring entry if the list is already at its 2×IndicesMax
// capacity and icb outscores it (§4.5 "bounded poptop... holding the
// 2 × find_indices_max most popular candidates").
func (e *Engine) propose(icb *ICB) {
	capacity := 2 * e.cfg.IndicesMax
	if e.top.Len() >= capacity {
		lowest, ok := e.top.Min()
		if !ok || scoreLess(icb, lowest) || icb == lowest {
			return
		}
		e.top.Delete(lowest)
	}
	e.top.Delete(icb) // re-insert at the current score if already present
	e.top.Set(icb)
}

// HierarchyTick runs one hierarchy-level find_indexing_interval cycle
// (§4.5 "Top-indices list"): compute the median score as the cut-limit,
// discard or destroy entries below it, and materialize eligible entries
// above it up to IndicesMax active indices.
func (e *Engine) HierarchyTick() {
	if e.top.Len() == 0 {
		return
	}
	entries := make([]*ICB, 0, e.top.Len())
	e.top.Scan(func(icb *ICB) bool {
		entries = append(entries, icb)
		return true
	})
	cutLimit := entries[len(entries)/2].score()

	for _, icb := range entries {
		if icb.score() < cutLimit {
			if icb.Permanent {
				continue
			}
			if icb.popAve > e.cfg.MinPopularity {
				e.discard(icb)
			} else {
				e.destroy(icb)
			}
			continue
		}
		if !icb.active && e.activeCount < e.cfg.IndicesMax {
			if err := e.materialize(icb); err != nil {
				log.Error("materialize failed", "icb", icb.Name, "err", err)
			}
		}
	}
}

// materialize places the marker of §4.5 "Materialization": flags
// CH_HIERARCHY | CH_FIELD | REFRESH, anchored on the ICB's node, with the
// ICB itself as the action callback maintaining its cached result.
func (e *Engine) materialize(icb *ICB) error {
	flags := subscription.ChHierarchy | subscription.ChField | subscription.EvtRefresh
	mk, err := e.sub.PlaceActionMarker(icb.ID, flags, icb.Anchor, icb.Dir, icb.Filter, icb)
	if err != nil {
		return err
	}
	icb.marker = mk
	icb.active = true
	e.activeCount++
	return nil
}

// discard invalidates icb's cached result and removes its maintenance
// marker but keeps the ICB and its map/poptop entries, so it can
// re-materialize later without losing its popularity history (§4.5 step 2
// "discard the index but keep the ICB").
func (e *Engine) discard(icb *ICB) {
	if icb.marker != nil {
		_ = e.sub.RemoveMarkerByID(icb.marker.SubID, icb.marker.ID)
		icb.marker = nil
	}
	if icb.active {
		icb.active = false
		e.activeCount--
	}
	icb.valid = false
	icb.clearResult()
}

// destroy removes icb entirely: its marker, its map and poptop entries, and
// frees its id (§4.5 step 2 "destroy the ICB entirely").
func (e *Engine) destroy(icb *ICB) {
	if icb.marker != nil {
		_ = e.sub.RemoveMarkerByID(icb.marker.SubID, icb.marker.ID)
		icb.marker = nil
	}
	if icb.active {
		e.activeCount--
	}
	e.top.Delete(icb)
	e.m.delete(icb)
	delete(e.byID, icb.ID)
	e.ids.Free(icb.ID)
}

// Run drives IcbTick (every icbInterval, over every tracked ICB) and
// HierarchyTick (every hierarchyInterval) from one goroutine until ctx is
// canceled, matching spec.md §4.6's "background timers... execute on the
// core's scheduler via timer callbacks" — both timer kinds share this single
// loop so neither ever runs concurrently with the other or with itself.
func (e *Engine) Run(ctx context.Context, icbInterval, hierarchyInterval time.Duration) error {
	icbTicker := time.NewTicker(icbInterval)
	defer icbTicker.Stop()
	hierarchyTicker := time.NewTicker(hierarchyInterval)
	defer hierarchyTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-icbTicker.C:
			for _, icb := range e.List() {
				e.IcbTick(icb)
			}
		case <-hierarchyTicker.C:
			e.HierarchyTick()
		}
	}
}
