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
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/gofrs/flock"
	"golang.org/x/crypto/blake2b"

	"github.com/selvadb/selva/internal/hierarchy"
)

// Dump file layout: MAGIC(4) | VERSION(2) | FLAGS(2) | BODYLEN(8) |
// CHECKSUM(32, blake2b-256 of the body as written, i.e. post-compression)
// | BODY. The layout and the compression format it carries are this
// package's own invention; spec.md leaves both unspecified.
const (
	magic         = "SLVA"
	formatVersion = uint16(1)
	preambleLen   = 4 + 2 + 2 + 8 + 32

	flagCompressed = uint16(1 << 0)
)

// Dump writes h's entire state to path, compressing the body at level
// (compress/flate's scale) when compress is true. A gofrs/flock exclusive
// lock on path serializes concurrent dumps against each other, per the
// single-writer model §5 describes for the core itself; Load does not take
// the lock.
func Dump(h *hierarchy.Hierarchy, path string, compress bool, level int) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("persist: dump: %w", err)
	}
	if !locked {
		return fmt.Errorf("persist: dump: %s is locked by another writer", path)
	}
	defer lock.Unlock()

	encoded, err := EncodeSnapshot(SnapshotHierarchy(h))
	if err != nil {
		return fmt.Errorf("persist: dump: %w", err)
	}

	body := encoded
	flags := uint16(0)
	if compress {
		body, err = Compress(encoded, level)
		if err != nil {
			return fmt.Errorf("persist: dump: %w", err)
		}
		flags |= flagCompressed
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("persist: dump: %w", err)
	}
	defer f.Close()

	if err := writePreamble(f, flags, body); err != nil {
		return fmt.Errorf("persist: dump: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		return fmt.Errorf("persist: dump: %w", err)
	}
	return f.Sync()
}

func writePreamble(f *os.File, flags uint16, body []byte) error {
	var pre [preambleLen]byte
	copy(pre[0:4], magic)
	binary.LittleEndian.PutUint16(pre[4:6], formatVersion)
	binary.LittleEndian.PutUint16(pre[6:8], flags)
	binary.LittleEndian.PutUint64(pre[8:16], uint64(len(body)))
	sum := blake2b.Sum256(body)
	copy(pre[16:48], sum[:])
	_, err := f.Write(pre[:])
	return err
}

// Load reads a file written by Dump into a fresh hierarchy.Hierarchy through
// a read-only memory map. The body is copied out of the map into its own
// buffer before it is checksummed and decoded.
func Load(path string) (*hierarchy.Hierarchy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("persist: load: %w", err)
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("persist: load: %w", err)
	}
	defer m.Unmap()

	if len(m) < preambleLen {
		return nil, fmt.Errorf("persist: load: truncated file")
	}
	if string(m[0:4]) != magic {
		return nil, fmt.Errorf("persist: load: bad magic")
	}
	if v := binary.LittleEndian.Uint16(m[4:6]); v != formatVersion {
		return nil, fmt.Errorf("persist: load: unsupported version %d", v)
	}
	flags := binary.LittleEndian.Uint16(m[6:8])
	bodyLen := binary.LittleEndian.Uint64(m[8:16])
	var wantSum [32]byte
	copy(wantSum[:], m[16:48])

	if uint64(len(m))-preambleLen < bodyLen {
		return nil, fmt.Errorf("persist: load: truncated body")
	}
	body := make([]byte, bodyLen)
	copy(body, m[preambleLen:uint64(preambleLen)+bodyLen])

	if blake2b.Sum256(body) != wantSum {
		return nil, ErrChecksumMismatch
	}

	encoded := body
	if flags&flagCompressed != 0 {
		encoded, err = Decompress(body)
		if err != nil {
			return nil, fmt.Errorf("persist: load: %w", err)
		}
	}
	hs, err := DecodeSnapshot(encoded)
	if err != nil {
		return nil, fmt.Errorf("persist: load: %w", err)
	}

	h := hierarchy.New()
	if err := Restore(h, hs); err != nil {
		return nil, fmt.Errorf("persist: load: %w", err)
	}
	return h, nil
}
