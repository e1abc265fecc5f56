package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpvalueOpenCloseSharedMutation(t *testing.T) {
	f := NewFiber()
	f.Stack[0] = Int(10)

	u1 := NewOpenUpvalue(f.Stack, 0)
	f.PushOpenUpvalue(u1)
	u2 := f.FindOpenUpvalue(0)
	require.Same(t, u1, u2)

	u1.Set(Int(20))
	require.Equal(t, int64(20), f.Stack[0].AsInt())
	require.Equal(t, int64(20), u2.Get().AsInt())

	f.CloseUpvaluesFrom(0)
	require.False(t, u1.IsOpen())
	require.Equal(t, int64(20), u1.Get().AsInt())

	u1.Set(Int(99))
	require.Equal(t, int64(99), u1.Get().AsInt())
	require.Equal(t, int64(20), f.Stack[0].AsInt(), "closed upvalue writes must not alias the stack anymore")
}

func TestEnsureStackRebasesOpenUpvalues(t *testing.T) {
	f := NewFiber()
	f.Stack[5] = Int(42)
	u := NewOpenUpvalue(f.Stack, 5)
	f.PushOpenUpvalue(u)

	f.EnsureStack(10000)
	require.Equal(t, int64(42), u.Get().AsInt(), "upvalue must still read the same logical slot after growth")

	u.Set(Int(7))
	require.Equal(t, int64(7), f.Stack[5].AsInt())
}

func TestPushOpenUpvalueDescendingOrder(t *testing.T) {
	f := NewFiber()
	low := NewOpenUpvalue(f.Stack, 2)
	high := NewOpenUpvalue(f.Stack, 8)
	mid := NewOpenUpvalue(f.Stack, 5)
	f.PushOpenUpvalue(low)
	f.PushOpenUpvalue(high)
	f.PushOpenUpvalue(mid)

	indices := []int{}
	for u := f.OpenUpvalues; u != nil; u = u.Next {
		indices = append(indices, u.Index)
	}
	require.Equal(t, []int{8, 5, 2}, indices)
}
