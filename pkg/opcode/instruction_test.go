package opcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestABCRoundTrip(t *testing.T) {
	inst := EncodeABC(OpADD, 10, 20, 30)
	require.Equal(t, OpADD, inst.Opcode())
	a, b, c := inst.DecodeABC()
	require.Equal(t, uint8(10), a)
	require.Equal(t, uint8(20), b)
	require.Equal(t, uint8(30), c)
}

func TestABC10RoundTrip(t *testing.T) {
	inst := EncodeABC10(OpEQ, 5, 6, 1000)
	a, b, c := inst.DecodeABC10()
	require.Equal(t, uint8(5), a)
	require.Equal(t, uint8(6), b)
	require.Equal(t, uint16(1000), c)
}

func TestASB17SignedRoundTrip(t *testing.T) {
	for _, n := range []int32{0, 1, -1, 12345, -12345, 131071, -131071} {
		inst := EncodeASB17(OpLOADI, 3, n)
		a, v := inst.DecodeASB17()
		require.Equal(t, uint8(3), a)
		require.Equal(t, n, v)
	}
}

func TestA26RoundTrip(t *testing.T) {
	inst := EncodeA26(OpJUMP, 1<<25-1)
	require.Equal(t, uint32(1<<25-1), inst.DecodeA26())
}

func TestAFB17RoundTrip(t *testing.T) {
	inst := EncodeAFB17(OpJUMPF, 7, true, 42)
	a, flag, b := inst.DecodeAFB17()
	require.Equal(t, uint8(7), a)
	require.True(t, flag)
	require.Equal(t, uint32(42), b)
}

func TestOpcodeNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < Count; i++ {
		name := Op(i).String()
		require.False(t, seen[name] && name != "UNKNOWN", "duplicate opcode name %s", name)
		seen[name] = true
	}
}
