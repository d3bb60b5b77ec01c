package object

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarWriteModes(t *testing.T) {
	o := New()
	changed, err := o.SetLongLong("count", 1, WriteSet)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = o.SetLongLong("count", 1, WriteDefault)
	require.NoError(t, err)
	require.False(t, changed, "default must not overwrite an existing value")

	changed, err = o.SetLongLong("missing", 5, WriteUpdate)
	require.NoError(t, err)
	require.False(t, changed, "update must not create an absent value")

	changed, err = o.SetLongLong("count", 2, WriteUpdate)
	require.NoError(t, err)
	require.True(t, changed)
}

func TestNestedPathAutoCreatesObjects(t *testing.T) {
	o := New()
	_, err := o.SetString("a.b.c", "x", WriteSet)
	require.NoError(t, err)
	lk := o.GetPath("a.b.c")
	require.True(t, lk.IsFound())
	require.Equal(t, "x", lk.Value.Str)
}

func TestConflictingScalarIsTypeError(t *testing.T) {
	o := New()
	_, err := o.SetLongLong("a", 1, WriteSet)
	require.NoError(t, err)
	_, err = o.SetString("a.b", "x", WriteSet)
	require.ErrorIs(t, err, ErrWrongType)
}

func TestSetKindMismatchIsTypeError(t *testing.T) {
	o := New()
	_, err := o.AddStringSet("tags", "a")
	require.NoError(t, err)
	_, err = o.AddLongLongSet("tags", 1)
	require.ErrorIs(t, err, ErrWrongType)
}

func TestArrayOps(t *testing.T) {
	o := New()
	require.NoError(t, o.InsertArray("list", LongValue(1), LongValue(2)))
	n, err := o.GetArrayLen("list")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, o.InsertArrayIndex("list", 1, LongValue(99)))
	lk := o.GetPath("list")
	require.Equal(t, int64(99), lk.Value.Arr[1].Long)

	require.NoError(t, o.AssignArrayIndex("list", 0, LongValue(7)))
	lk = o.GetPath("list")
	require.Equal(t, int64(7), lk.Value.Arr[0].Long)

	require.NoError(t, o.RemoveArrayIndex("list", 0))
	n, _ = o.GetArrayLen("list")
	require.Equal(t, 2, n)
}

func TestIncrement(t *testing.T) {
	o := New()
	v, changed, err := o.IncrementLongLong("n", 5)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, int64(5), v)

	v, _, err = o.IncrementLongLong("n", -2)
	require.NoError(t, err)
	require.Equal(t, int64(3), v)
}

func TestReplyTranslatesSetsAndWildcard(t *testing.T) {
	o := New()
	_, _ = o.AddStringSet("tags", "b", "a")
	inner := New()
	_, _ = inner.SetLongLong("x", 1, WriteSet)
	_ = o.Set("nested", ObjectValue(inner))

	r, err := o.Reply("tags", nil)
	require.NoError(t, err)
	require.Equal(t, ReplyArray, r.Kind)
	require.True(t, r.IsSet)
	require.Equal(t, []string{"a", "b"}, []string{r.Items[0].Str, r.Items[1].Str})

	wild, err := o.Reply("*", nil)
	require.NoError(t, err)
	require.Equal(t, ReplyPairs, wild.Kind)
	require.Len(t, wild.Pairs, 2)
}

func TestKeyOrderIsInsertionOrder(t *testing.T) {
	o := New()
	_ = o.Set("z", LongValue(1))
	_ = o.Set("a", LongValue(2))
	_ = o.Set("m", LongValue(3))
	require.Equal(t, []string{"z", "a", "m"}, o.Keys())
}
