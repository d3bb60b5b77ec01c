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

// Package idalloc is the monotonic-counter-plus-free-list id allocator
// spec.md §3 and §9 call for: "a marker id reserved from an id allocator"
// for both subscription markers and ICB marker ids. Ids are never reused
// while outstanding; Free only makes an id eligible for reuse once its
// owner is gone.
package idalloc

// Allocator hands out uint32 ids starting at 1 (0 is reserved as a sentinel
// "no id" value by callers), preferring freed ids over growing the
// monotonic counter.
type Allocator struct {
	next uint32
	free []uint32
}

// New returns an allocator whose first Alloc returns 1.
func New() *Allocator {
	return &Allocator{next: 1}
}

// Alloc returns an id not currently outstanding.
func (a *Allocator) Alloc() uint32 {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	id := a.next
	a.next++
	return id
}

// Free returns id to the pool for reuse.
func (a *Allocator) Free(id uint32) {
	a.free = append(a.free, id)
}

// Outstanding reports the number of ids handed out and not yet freed.
func (a *Allocator) Outstanding() int {
	return int(a.next) - 1 - len(a.free)
}
