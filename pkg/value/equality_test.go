package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualNumberCoercion(t *testing.T) {
	require.True(t, Equal(Int(3), Int(3)))
	require.True(t, Equal(Int(3), Float(3.0000000001)))
	require.False(t, Equal(Int(3), Float(3.1)))
}

func TestEqualStringByHashLengthBytes(t *testing.T) {
	a := NewString("hello")
	b := NewString("hello")
	c := NewString("world")
	require.True(t, Equal(Obj(a), Obj(b)))
	require.False(t, Equal(Obj(a), Obj(c)))
}

func TestEqualListElementwise(t *testing.T) {
	l1 := NewList(Int(1), Int(2), Obj(NewString("x")))
	l2 := NewList(Int(1), Int(2), Obj(NewString("x")))
	l3 := NewList(Int(1), Int(2))
	require.True(t, Equal(Obj(l1), Obj(l2)))
	require.False(t, Equal(Obj(l1), Obj(l3)))
}

func TestStrictEqualRequiresSameClass(t *testing.T) {
	intCls := NewClass("Int", nil)
	floatCls := NewClass("Float", nil)
	a := Value{Kind: KindInt, Class: intCls, n: 3}
	b := Value{Kind: KindFloat, Class: floatCls, f: 3.0}
	require.True(t, Equal(a, b))
	require.False(t, StrictEqual(a, b))
}

func TestParseNumberPrefixes(t *testing.T) {
	v, err := ParseNumber("0x1A")
	require.NoError(t, err)
	require.Equal(t, int64(26), v.AsInt())

	v, err = ParseNumber("0b101")
	require.NoError(t, err)
	require.Equal(t, int64(5), v.AsInt())

	v, err = ParseNumber("3.5")
	require.NoError(t, err)
	require.True(t, v.IsFloat())
	require.Equal(t, 3.5, v.ToFloat64())
}

func TestToBoolCoercion(t *testing.T) {
	require.False(t, ToBool(Null()))
	require.False(t, ToBool(Undefined()))
	require.False(t, ToBool(Int(0)))
	require.True(t, ToBool(Int(1)))
	require.False(t, ToBool(Obj(NewString(""))))
	require.True(t, ToBool(Obj(NewString("x"))))
}
