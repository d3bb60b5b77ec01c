package idalloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocIsMonotonicUntilFreed(t *testing.T) {
	a := New()
	require.Equal(t, uint32(1), a.Alloc())
	require.Equal(t, uint32(2), a.Alloc())
	require.Equal(t, 2, a.Outstanding())
}

func TestFreedIdsAreReused(t *testing.T) {
	a := New()
	first := a.Alloc()
	second := a.Alloc()
	a.Free(first)
	require.Equal(t, first, a.Alloc())
	require.Equal(t, 2, a.Outstanding())
	_ = second
}
