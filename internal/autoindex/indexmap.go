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

import "github.com/spaolacci/murmur3"

// numBuckets is the fixed bucket count of the ICB index map. Chains are
// expected to stay short: the number of distinct find signatures live at
// once is bounded by client query variety, not hierarchy size.
const numBuckets = 256

// indexMap is the by-name ICB lookup table, per §4.5 "Every eligible find
// query consults the index map by name". Buckets are chosen by hashing the
// deterministic name with murmur3, the pack's non-cryptographic hash of
// choice, rather than relying on Go's built-in map (which the spec's
// "hashing the name to a bucket id" phrasing implies is hand-rolled in the
// original).
type indexMap struct {
	buckets [numBuckets][]*ICB
}

func newIndexMap() *indexMap {
	return &indexMap{}
}

func bucketFor(name string) uint32 {
	return murmur3.Sum32([]byte(name)) % numBuckets
}

func (m *indexMap) get(name string) (*ICB, bool) {
	for _, icb := range m.buckets[bucketFor(name)] {
		if icb.Name == name {
			return icb, true
		}
	}
	return nil, false
}

func (m *indexMap) put(icb *ICB) {
	b := bucketFor(icb.Name)
	m.buckets[b] = append(m.buckets[b], icb)
}

func (m *indexMap) delete(icb *ICB) {
	b := bucketFor(icb.Name)
	chain := m.buckets[b]
	for i, cur := range chain {
		if cur == icb {
			m.buckets[b] = append(chain[:i], chain[i+1:]...)
			return
		}
	}
}

// each calls fn for every ICB in the map.
func (m *indexMap) each(fn func(*ICB)) {
	for _, chain := range m.buckets {
		for _, icb := range chain {
			fn(icb)
		}
	}
}
