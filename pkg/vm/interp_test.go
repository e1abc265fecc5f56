package vm

import (
	"testing"

	"github.com/kristofer/gravity/pkg/opcode"
	"github.com/kristofer/gravity/pkg/value"
	"github.com/stretchr/testify/require"
)

func buildFn(id string, nparams, nlocals, ntemps, nupvalues int, code []opcode.Instruction, constants ...value.Value) *value.Function {
	words := make([]uint32, len(code))
	for i, inst := range code {
		words[i] = uint32(inst)
	}
	return value.NewNativeFunction(id, words, constants, nparams, nlocals, ntemps, nupvalues)
}

func TestArithmeticFastPath(t *testing.T) {
	// r0 = 2; r1 = 3; r0 = r0 + r1; RET r0
	code := []opcode.Instruction{
		opcode.EncodeASB17(opcode.OpLOADI, 0, 2),
		opcode.EncodeASB17(opcode.OpLOADI, 1, 3),
		opcode.EncodeABC10(opcode.OpADD, 0, 0, 1),
		opcode.EncodeAB18(opcode.OpRET, 0, 0),
	}
	fn := buildFn("main", 0, 2, 0, 0, code)

	vm := NewVM(DefaultConfig(), Delegate{})
	closure := vm.allocClosure(fn)
	result, err := vm.RunClosure(closure, nil)
	require.NoError(t, err)
	require.True(t, result.IsInt())
	require.Equal(t, int64(5), result.AsInt())
}

func TestStringConcatenation(t *testing.T) {
	code := []opcode.Instruction{
		opcode.EncodeAB18(opcode.OpLOADK, 0, 0),
		opcode.EncodeAB18(opcode.OpLOADK, 1, 1),
		opcode.EncodeABC10(opcode.OpADD, 0, 0, 1),
		opcode.EncodeAB18(opcode.OpRET, 0, 0),
	}
	fn := buildFn("concat", 0, 2, 0, 0, code,
		value.Obj(value.NewString("hello, ")),
		value.Obj(value.NewString("world")))

	vm := NewVM(DefaultConfig(), Delegate{})
	closure := vm.allocClosure(fn)
	result, err := vm.RunClosure(closure, nil)
	require.NoError(t, err)
	require.Equal(t, "hello, world", result.String().Value())
}

func TestClosureUpvalueSharedMutation(t *testing.T) {
	// A simple counter closure: outer frame holds a local (r0 = 0) that
	// CLOSURE captures by reference; the inner function increments and
	// returns it. Exercises OpCLOSURE's capture-descriptor convention and
	// open->closed upvalue transition on RET.
	innerCode := []opcode.Instruction{
		opcode.EncodeABC(opcode.OpLOADU, 0, 0, 0),
		opcode.EncodeASB17(opcode.OpLOADI, 1, 1),
		opcode.EncodeABC10(opcode.OpADD, 0, 0, 1),
		opcode.EncodeABC(opcode.OpSTOREU, 0, 0, 0),
		opcode.EncodeAB18(opcode.OpRET, 0, 0),
	}
	inner := buildFn("increment", 0, 2, 0, 1, innerCode)

	outerCode := []opcode.Instruction{
		opcode.EncodeASB17(opcode.OpLOADI, 0, 0), // r0 = local counter
		opcode.EncodeAB18(opcode.OpCLOSURE, 1, 0),
		opcode.EncodeABC(opcode.OpMOVE, 1, 0, 0), // capture-descriptor: isLocal=1, src=r0
		opcode.EncodeAB18(opcode.OpRET, 1, 0),
	}
	outer := buildFn("makeCounter", 0, 2, 0, 0, outerCode, value.Obj(inner))

	vm := NewVM(DefaultConfig(), Delegate{})
	outerClosure := vm.allocClosure(outer)
	result, err := vm.RunClosure(outerClosure, nil)
	require.NoError(t, err)
	require.True(t, result.IsObject())
	counter := result.Closure()
	require.NotNil(t, counter)

	r1, err := vm.RunClosure(counter, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), r1.AsInt())

	r2, err := vm.RunClosure(counter, nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), r2.AsInt())
}

func TestGCCollectReclaimsUnreachableStrings(t *testing.T) {
	vm := NewVM(DefaultConfig(), Delegate{})
	for i := 0; i < 1000; i++ {
		vm.allocString("garbage")
	}
	before := vm.gc.allocated
	vm.CollectGarbage()
	require.Less(t, vm.gc.allocated, before)
}
