package nodeid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringStripsPadding(t *testing.T) {
	id := FromString("root")
	require.Equal(t, "root", id.String())
	require.Len(t, id, Len)
}

func TestTypeString(t *testing.T) {
	id := FromTypeAndName([TypeLen]byte{'m', 'a'}, "1")
	require.Equal(t, "ma", id.TypeString())
	require.Equal(t, "ma1", id.String())
}

func TestRootRecognized(t *testing.T) {
	require.True(t, Root.IsRoot())
	require.True(t, FromString("root").IsRoot())
	require.False(t, FromString("grphnode_ma1").IsRoot())
}

func TestSetOrderingAndMembership(t *testing.T) {
	a, b, c := FromString("a"), FromString("b"), FromString("c")
	s := NewSet(c, a, b)
	require.Equal(t, []ID{a, b, c}, s.Slice())
	require.True(t, s.Has(b))
	require.True(t, s.Remove(b))
	require.False(t, s.Has(b))
	require.Equal(t, 2, s.Len())
}

func TestSetAllReplacesDestructively(t *testing.T) {
	s := NewSet(FromString("a"), FromString("b"))
	s.SetAll([]ID{FromString("c")})
	require.Equal(t, []ID{FromString("c")}, s.Slice())
}
