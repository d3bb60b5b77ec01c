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

package persist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/time/rate"

	"github.com/selvadb/selva/internal/hierarchy"
	"github.com/selvadb/selva/internal/nodeid"
	"github.com/selvadb/selva/internal/selvalog"
)

var log = selvalog.New("component", "persist")

// ErrNotDetached is returned by Restore when no detached subtree is stored
// under the given root id.
var ErrNotDetached = fmt.Errorf("persist: no detached subtree under that id")

// ErrChecksumMismatch is returned when a detached blob's stored checksum
// does not match its contents, e.g. after on-disk corruption.
var ErrChecksumMismatch = fmt.Errorf("persist: checksum mismatch")

type detachedEntry struct {
	checksum   [32]byte
	data       []byte
	compressed bool
	detachedAt time.Time
}

// DetachedStore holds the subtrees removed from the live hierarchy by
// DeleteNode's DETACH flag. Spec.md describes these as "owned by the
// hierarchy's detached map"; internal/hierarchy cannot own them directly
// without importing internal/persist's codec and compression machinery
// (which itself imports internal/hierarchy to build snapshots), so the
// store lives here and internal/command wires it alongside the Hierarchy
// it serves.
//
// A subtree is stored uncompressed at Detach time: DETACH is a request-path
// operation and compression is comparatively expensive, so it is deferred
// to Sweep, matching HIERARCHY_AUTO_COMPRESS_PERIOD_MS / _OLD_AGE_LIM's
// framing as a background sweep rather than an inline cost.
type DetachedStore struct {
	mu      sync.Mutex
	level   int
	now     func() time.Time
	entries map[nodeid.ID]*detachedEntry
}

// NewDetachedStore returns an empty store that compresses at level (see
// Compress) once Sweep decides an entry is old enough.
func NewDetachedStore(level int) *DetachedStore {
	return &DetachedStore{level: level, now: time.Now, entries: make(map[nodeid.ID]*detachedEntry)}
}

// Detach snapshots and encodes the subtree rooted at root and stores it
// under root's id, uncompressed, replacing any entry already stored there.
// h itself is not modified.
func (s *DetachedStore) Detach(h *hierarchy.Hierarchy, root nodeid.ID) error {
	hs, err := SnapshotSubtree(h, root)
	if err != nil {
		return err
	}
	encoded, err := EncodeSnapshot(hs)
	if err != nil {
		return fmt.Errorf("persist: detach %s: %w", root, err)
	}
	s.mu.Lock()
	s.entries[root] = &detachedEntry{checksum: blake2b.Sum256(encoded), data: encoded, detachedAt: s.now()}
	s.mu.Unlock()
	return nil
}

// Has reports whether root has a detached subtree stored.
func (s *DetachedStore) Has(root nodeid.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[root]
	return ok
}

// Len returns the number of detached subtrees currently held.
func (s *DetachedStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep compresses every stored subtree that is not yet compressed and has
// been detached for at least ageLimit, per HIERARCHY_AUTO_COMPRESS_OLD_AGE_LIM.
// It compresses as many eligible entries as it can and returns how many
// succeeded alongside the last error encountered, rather than stopping at
// the first failure.
func (s *DetachedStore) Sweep(now time.Time, ageLimit time.Duration) (int, error) {
	s.mu.Lock()
	due := make([]nodeid.ID, 0)
	for id, e := range s.entries {
		if !e.compressed && now.Sub(e.detachedAt) >= ageLimit {
			due = append(due, id)
		}
	}
	s.mu.Unlock()

	compressed := 0
	var lastErr error
	for _, id := range due {
		if err := s.compressEntry(id); err != nil {
			lastErr = fmt.Errorf("persist: sweep %s: %w", id, err)
			continue
		}
		compressed++
	}
	return compressed, lastErr
}

func (s *DetachedStore) compressEntry(id nodeid.ID) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return nil // restored or discarded concurrently with the sweep
	}
	out, err := Compress(e.data, s.level)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.entries[id]; ok && cur == e {
		e.data = out
		e.compressed = true
		e.checksum = blake2b.Sum256(out)
	}
	return nil
}

// Run ticks Sweep every period until ctx is canceled, per spec.md's
// background-timer model (§4.6 "Background timers... execute on the core's
// scheduler via timer callbacks"). A failed sweep is logged and retried on
// the next tick rather than aborting the loop, backing off to half the
// configured frequency until a sweep succeeds again.
func (s *DetachedStore) Run(ctx context.Context, period, ageLimit time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	limiter := rate.NewLimiter(rate.Every(period), 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !limiter.Allow() {
				continue
			}
			n, err := s.Sweep(s.now(), ageLimit)
			if err != nil {
				log.Error("compression sweep failed", "err", err, "compressed", n)
				limiter.SetLimit(rate.Every(2 * period))
				continue
			}
			if n > 0 {
				log.Debug("compression sweep complete", "compressed", n)
			}
			limiter.SetLimit(rate.Every(period))
		}
	}
}

// Restore decodes the subtree stored under root (decompressing first if
// Sweep had already compressed it), re-links it into h, and releases the
// stored bytes, per spec.md's "their memory is released when the subtree
// is restored or when the node is hard-deleted".
func (s *DetachedStore) Restore(h *hierarchy.Hierarchy, root nodeid.ID) error {
	s.mu.Lock()
	entry, ok := s.entries[root]
	s.mu.Unlock()
	if !ok {
		return ErrNotDetached
	}
	if blake2b.Sum256(entry.data) != entry.checksum {
		return ErrChecksumMismatch
	}
	encoded := entry.data
	if entry.compressed {
		var err error
		encoded, err = Decompress(entry.data)
		if err != nil {
			return fmt.Errorf("persist: restore %s: %w", root, err)
		}
	}
	hs, err := DecodeSnapshot(encoded)
	if err != nil {
		return fmt.Errorf("persist: restore %s: %w", root, err)
	}
	if err := Restore(h, hs); err != nil {
		return fmt.Errorf("persist: restore %s: %w", root, err)
	}
	s.mu.Lock()
	delete(s.entries, root)
	s.mu.Unlock()
	return nil
}

// Discard releases a detached subtree's bytes without restoring it, for
// when the detached node is hard-deleted while still detached.
func (s *DetachedStore) Discard(root nodeid.ID) {
	s.mu.Lock()
	delete(s.entries, root)
	s.mu.Unlock()
}
