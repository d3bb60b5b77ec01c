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

// Package memguard implements spec.md §7's memory-pressure distinction:
// "memory exhaustion in slab-pool acquisition is fatal (the pool aborts);
// variable-allocator failures propagate as ENOMEM". It samples process RSS
// and the configured byte budget, and exposes both the fatal-abort check
// and the soft-error check over that sample.
package memguard

import (
	"errors"
	"fmt"
	"os"

	"github.com/pbnjay/memory"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/selvadb/selva/internal/selvalog"
)

var log = selvalog.New("component", "memguard")

// ErrOutOfMemory is the non-fatal error a variable (heap-style) allocation
// returns when the configured budget is exceeded.
var ErrOutOfMemory = errors.New("memguard: out of memory")

// Monitor samples this process's resident set size against a byte budget.
type Monitor struct {
	proc       *process.Process
	budget     uint64
	lastRSS    uint64
	totalBytes uint64
}

// New constructs a Monitor for the current process, with budget bytes as
// the ceiling both check methods compare RSS against. budget == 0 derives
// a budget from a fixed fraction of total system memory (see DefaultBudget).
func New(budget uint64) (*Monitor, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("memguard: %w", err)
	}
	total := memory.TotalMemory()
	if budget == 0 {
		budget = DefaultBudget(total)
		if limit, ok, err := addressSpaceLimit(); err != nil {
			log.Warn("rlimit probe failed, ignoring", "err", err)
		} else if ok && limit < budget {
			log.Info("RLIMIT_AS below derived budget, capping", "rlimit_as", limit, "derived", budget)
			budget = limit
		}
	}
	return &Monitor{proc: p, budget: budget, totalBytes: total}, nil
}

// DefaultBudget reserves three quarters of totalBytes for this process,
// leaving headroom for the OS and other processes on the host.
func DefaultBudget(totalBytes uint64) uint64 {
	return totalBytes / 4 * 3
}

// TotalSystemMemory is the host's total physical memory, as reported at
// Monitor construction.
func (m *Monitor) TotalSystemMemory() uint64 { return m.totalBytes }

// Budget is the configured byte ceiling.
func (m *Monitor) Budget() uint64 { return m.budget }

// Sample refreshes and returns the process's current resident set size.
func (m *Monitor) Sample() (uint64, error) {
	info, err := m.proc.MemoryInfo()
	if err != nil {
		return 0, fmt.Errorf("memguard: sample rss: %w", err)
	}
	m.lastRSS = info.RSS
	return info.RSS, nil
}

// LastSample is the RSS value from the most recent Sample call, or 0 if
// Sample has never been called.
func (m *Monitor) LastSample() uint64 { return m.lastRSS }

// CheckSlabAcquisition samples RSS and aborts the process (Crit-level log
// plus os.Exit) if acquiring an additional requested bytes of slab-pool
// memory would exceed the budget, per §7's "memory exhaustion in slab-pool
// acquisition is fatal (the pool aborts)". It never returns when it aborts.
func (m *Monitor) CheckSlabAcquisition(requested uint64) error {
	rss, err := m.Sample()
	if err != nil {
		return err
	}
	if rss+requested > m.budget {
		log.Crit("slab pool exhausted, aborting", "rss", rss, "requested", requested, "budget", m.budget)
		abort()
	}
	return nil
}

// CheckVariableAllocation samples RSS and returns ErrOutOfMemory (without
// aborting) if acquiring requested bytes through the variable allocator
// would exceed the budget, per §7's "variable-allocator failures propagate
// as ENOMEM".
func (m *Monitor) CheckVariableAllocation(requested uint64) error {
	rss, err := m.Sample()
	if err != nil {
		return err
	}
	if rss+requested > m.budget {
		return fmt.Errorf("%w: rss %d + requested %d > budget %d", ErrOutOfMemory, rss, requested, m.budget)
	}
	return nil
}

// abort is a var so tests can stub it instead of actually exiting the
// process.
var abort = func() { os.Exit(1) }
