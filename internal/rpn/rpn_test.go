package rpn

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeNode map[string]Value

func (n fakeNode) ReadField(path string) (Value, bool) {
	v, ok := n[path]
	return v, ok
}

func TestFieldEqualityMatchesFilterExpression(t *testing.T) {
	expr, err := Compile(`"type" f "ma" eq`)
	require.NoError(t, err)

	node := fakeNode{"type": stringVal("ma")}
	ok, err := expr.EvalBool(Context{Node: node})
	require.NoError(t, err)
	require.True(t, ok)

	node["type"] = stringVal("ge")
	ok, err = expr.EvalBool(Context{Node: node})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMissingFieldCoercesToFalse(t *testing.T) {
	expr, err := Compile(`"missing" f`)
	require.NoError(t, err)
	v, err := expr.Eval(Context{Node: fakeNode{}})
	require.NoError(t, err)
	require.Equal(t, KindBool, v.Kind)
	require.False(t, v.B)
}

func TestExpressionDrivenTraversalBuildsFieldNameSet(t *testing.T) {
	expr, err := Compile(`"children" mkset "friends" mkset union`)
	require.NoError(t, err)
	v, err := expr.Eval(Context{})
	require.NoError(t, err)
	require.Equal(t, KindStringSet, v.Kind)
	require.Contains(t, v.Set, "children")
	require.Contains(t, v.Set, "friends")
}

func TestArithmeticAndDivideByZero(t *testing.T) {
	expr, err := Compile(`10 2 div`)
	require.NoError(t, err)
	v, err := expr.Eval(Context{})
	require.NoError(t, err)
	require.Equal(t, 5.0, v.D)

	expr, err = Compile(`10 0 div`)
	require.NoError(t, err)
	_, err = expr.Eval(Context{})
	require.ErrorIs(t, err, ErrDivideByZero)
}

func TestRegisterReadReturnsStoredValue(t *testing.T) {
	expr, err := Compile(`#0`)
	require.NoError(t, err)
	ctx := Context{}
	ctx.Registers[0] = boolVal(true)
	v, err := expr.Eval(ctx)
	require.NoError(t, err)
	require.True(t, v.B)
}

func TestUnknownOpcodeFailsCompilation(t *testing.T) {
	_, err := Compile(`#0 bogus`)
	require.ErrorIs(t, err, ErrIllegalOpcode)
}

func TestStackUnderflowOnEval(t *testing.T) {
	expr, err := Compile(`eq`)
	require.NoError(t, err)
	_, err = expr.Eval(Context{})
	require.ErrorIs(t, err, ErrStackUnderflow)
}

func TestTypeMismatchOnArithmeticWithString(t *testing.T) {
	expr, err := Compile(`"a" "b" add`)
	require.NoError(t, err)
	_, err = expr.Eval(Context{})
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestSetMembership(t *testing.T) {
	expr, err := Compile(`"x" mkset "y" mkset union "y" in`)
	require.NoError(t, err)
	v, err := expr.Eval(Context{})
	require.NoError(t, err)
	require.True(t, v.Bool())
}

func TestFieldFetchCallsReaderWithExactPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := NewMockFieldReader(ctrl)
	reader.EXPECT().ReadField("title").Return(stringVal("hello"), true)

	expr, err := Compile(`"title" f`)
	require.NoError(t, err)
	v, err := expr.Eval(Context{Node: reader})
	require.NoError(t, err)
	require.Equal(t, "hello", v.S)
}

func TestFieldFetchOnMissingReaderValueCoercesToFalse(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := NewMockFieldReader(ctrl)
	reader.EXPECT().ReadField("missing").Return(Value{}, false)

	expr, err := Compile(`"missing" f`)
	require.NoError(t, err)
	v, err := expr.Eval(Context{Node: reader})
	require.NoError(t, err)
	require.False(t, v.Bool())
}
