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

package memguard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultBudgetIsThreeQuartersOfTotal(t *testing.T) {
	require.Equal(t, uint64(750), DefaultBudget(1000))
}

func TestNewDerivesBudgetWhenZero(t *testing.T) {
	m, err := New(0)
	require.NoError(t, err)
	// A host with a binding RLIMIT_AS below three quarters of system memory
	// caps the derived budget at that limit instead, so this only holds as
	// an upper bound.
	require.LessOrEqual(t, m.Budget(), DefaultBudget(m.TotalSystemMemory()))
	require.NotZero(t, m.Budget())
}

func TestAddressSpaceLimitNeverErrorsOnThisPlatform(t *testing.T) {
	_, _, err := addressSpaceLimit()
	require.NoError(t, err)
}

func TestSampleUpdatesLastSample(t *testing.T) {
	m, err := New(0)
	require.NoError(t, err)
	require.Zero(t, m.LastSample())

	rss, err := m.Sample()
	require.NoError(t, err)
	require.NotZero(t, rss)
	require.Equal(t, rss, m.LastSample())
}

func TestCheckVariableAllocationReturnsErrOutOfMemoryOverBudget(t *testing.T) {
	m, err := New(1)
	require.NoError(t, err)

	err = m.CheckVariableAllocation(1)
	require.ErrorIs(t, err, ErrOutOfMemory)
}

func TestCheckVariableAllocationUnderBudgetSucceeds(t *testing.T) {
	m, err := New(0)
	require.NoError(t, err)

	require.NoError(t, m.CheckVariableAllocation(1))
}

func TestCheckSlabAcquisitionAbortsOverBudget(t *testing.T) {
	m, err := New(1)
	require.NoError(t, err)

	aborted := false
	prev := abort
	abort = func() { aborted = true }
	defer func() { abort = prev }()

	require.NoError(t, m.CheckSlabAcquisition(1))
	require.True(t, aborted)
}

func TestCheckSlabAcquisitionUnderBudgetDoesNotAbort(t *testing.T) {
	m, err := New(0)
	require.NoError(t, err)

	aborted := false
	prev := abort
	abort = func() { aborted = true }
	defer func() { abort = prev }()

	require.NoError(t, m.CheckSlabAcquisition(1))
	require.False(t, aborted)
}
