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

//go:build linux || darwin

package memguard

import "golang.org/x/sys/unix"

// addressSpaceLimit reads this process's RLIMIT_AS soft limit. A soft limit
// of RLIM_INFINITY reports as unlimited (0, false).
func addressSpaceLimit() (uint64, bool, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_AS, &lim); err != nil {
		return 0, false, err
	}
	if lim.Cur == unix.RLIM_INFINITY {
		return 0, false, nil
	}
	return uint64(lim.Cur), true, nil
}
