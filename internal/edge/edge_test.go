package edge

import (
	"testing"

	"github.com/selvadb/selva/internal/nodeid"
	"github.com/stretchr/testify/require"
)

type fakeAccessor struct {
	containers map[nodeid.ID]*Container
	types      map[nodeid.ID][nodeid.TypeLen]byte
}

func newFakeAccessor() *fakeAccessor {
	return &fakeAccessor{containers: map[nodeid.ID]*Container{}, types: map[nodeid.ID][nodeid.TypeLen]byte{}}
}

func (a *fakeAccessor) ContainerFor(id nodeid.ID) (*Container, bool) {
	c, ok := a.containers[id]
	if !ok {
		c = NewContainer()
		a.containers[id] = c
	}
	return c, true
}

func (a *fakeAccessor) TypeOf(id nodeid.ID) ([nodeid.TypeLen]byte, bool) {
	t, ok := a.types[id]
	return t, ok
}

func TestSingleRefReplacesExistingArc(t *testing.T) {
	acc := newFakeAccessor()
	a, b, c := nodeid.FromString("a"), nodeid.FromString("b"), nodeid.FromString("c")
	constraint := &Constraint{ID: "single", Flags: SingleRef}

	srcContainer, _ := acc.ContainerFor(a)
	require.NoError(t, srcContainer.Add(acc, a, "a", constraint, b))
	require.NoError(t, srcContainer.Add(acc, a, "a", constraint, c))

	f, _ := srcContainer.Field("a")
	require.False(t, f.Has(b))
	require.True(t, f.Has(c))
	require.Equal(t, 1, f.Arcs.Len())
}

func TestBidirectionalMaintainsInverse(t *testing.T) {
	acc := newFakeAccessor()
	a, b := nodeid.FromString("a"), nodeid.FromString("b")
	constraint := &Constraint{ID: "bi", Flags: Bidirectional, InverseField: "parentOf"}

	srcContainer, _ := acc.ContainerFor(a)
	require.NoError(t, srcContainer.Add(acc, a, "childOf", constraint, b))

	dstContainer, _ := acc.ContainerFor(b)
	inv, ok := dstContainer.Field("parentOf")
	require.True(t, ok)
	require.True(t, inv.Has(a))

	require.NoError(t, srcContainer.Delete(acc, a, "childOf", b))
	inv, ok = dstContainer.Field("parentOf")
	require.True(t, ok)
	require.False(t, inv.Has(a))
}

func TestAddExistingArcFails(t *testing.T) {
	acc := newFakeAccessor()
	a, b := nodeid.FromString("a"), nodeid.FromString("b")
	constraint := &Constraint{ID: "multi"}
	srcContainer, _ := acc.ContainerFor(a)
	require.NoError(t, srcContainer.Add(acc, a, "f", constraint, b))
	require.ErrorIs(t, srcContainer.Add(acc, a, "f", constraint, b), ErrExists)
}

func TestClearFieldRemovesEveryArc(t *testing.T) {
	acc := newFakeAccessor()
	a, b, c := nodeid.FromString("a"), nodeid.FromString("b"), nodeid.FromString("c")
	constraint := &Constraint{ID: "multi"}
	srcContainer, _ := acc.ContainerFor(a)
	require.NoError(t, srcContainer.Add(acc, a, "f", constraint, b))
	require.NoError(t, srcContainer.Add(acc, a, "f", constraint, c))
	require.NoError(t, srcContainer.ClearField(acc, a, "f"))
	_, ok := srcContainer.Field("f")
	require.False(t, ok)
}
