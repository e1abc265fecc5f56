// Package integration exercises the runtime end to end, against the
// concrete scenarios of spec.md's testable-properties section. Since
// this repo has no parser/compiler (out of scope, see SPEC_FULL.md
// §1), every program here is assembled directly as bytecode,
// the same way pkg/vm's own unit tests build theirs.
package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/gravity/pkg/opcode"
	"github.com/kristofer/gravity/pkg/optional"
	"github.com/kristofer/gravity/pkg/value"
	"github.com/kristofer/gravity/pkg/vm"
)

func buildFn(id string, nparams, nlocals, ntemps, nupvalues int, code []opcode.Instruction, constants ...value.Value) *value.Function {
	words := make([]uint32, len(code))
	for i, inst := range code {
		words[i] = uint32(inst)
	}
	return value.NewNativeFunction(id, words, constants, nparams, nlocals, ntemps, nupvalues)
}

// TestClosureCounterSharedMutation is scenario 1: a closure over a
// mutable local, called three times, accumulating 1+2+3.
func TestClosureCounterSharedMutation(t *testing.T) {
	incCode := []opcode.Instruction{
		opcode.EncodeABC(opcode.OpLOADU, 0, 0, 0),
		opcode.EncodeASB17(opcode.OpLOADI, 1, 1),
		opcode.EncodeABC10(opcode.OpADD, 0, 0, 1),
		opcode.EncodeABC(opcode.OpSTOREU, 0, 0, 0),
		opcode.EncodeAB18(opcode.OpRET, 0, 0),
	}
	inc := buildFn("inc", 0, 2, 0, 1, incCode)

	makeCode := []opcode.Instruction{
		opcode.EncodeASB17(opcode.OpLOADI, 0, 0),
		opcode.EncodeAB18(opcode.OpCLOSURE, 1, 0),
		opcode.EncodeABC(opcode.OpMOVE, 1, 0, 0), // capture local r0 by reference
		opcode.EncodeAB18(opcode.OpRET, 1, 0),
	}
	make := buildFn("make", 0, 2, 0, 0, makeCode, value.Obj(inc))

	machine := vm.NewVM(vm.DefaultConfig(), vm.Delegate{})
	counterResult, err := machine.RunClosure(machine.NewClosure(make), nil)
	require.NoError(t, err)
	counter := counterResult.Closure()
	require.NotNil(t, counter)

	var sum int64
	for i := 0; i < 3; i++ {
		r, err := machine.RunClosure(counter, nil)
		require.NoError(t, err)
		sum += r.AsInt()
	}
	require.Equal(t, int64(6), sum)
}

// TestFiberPingPong is scenario 2: a fiber that yields three values
// before terminating; a fourth call observes its final null result and
// Terminated status.
func TestFiberPingPong(t *testing.T) {
	code := []opcode.Instruction{
		opcode.EncodeASB17(opcode.OpLOADI, 0, 10),
		opcode.EncodeAB18(opcode.OpYIELD, 0, 0),
		opcode.EncodeASB17(opcode.OpLOADI, 0, 20),
		opcode.EncodeAB18(opcode.OpYIELD, 0, 0),
		opcode.EncodeASB17(opcode.OpLOADI, 0, 30),
		opcode.EncodeAB18(opcode.OpYIELD, 0, 0),
	}
	fn := buildFn("producer", 0, 1, 0, 0, code)

	machine := vm.NewVM(vm.DefaultConfig(), vm.Delegate{})
	closure := machine.NewClosure(fn)
	fiber := machine.NewFiber()

	expected := []int64{10, 20, 30}
	for _, want := range expected {
		r, err := machine.Call(fiber, closure, nil)
		require.NoError(t, err)
		require.Equal(t, want, r.AsInt())
		require.Equal(t, value.FiberSuspended, fiber.Status)
		require.False(t, fiber.IsDone())
	}

	r, err := machine.Call(fiber, closure, nil)
	require.NoError(t, err)
	require.True(t, r.IsNull())
	require.Equal(t, value.FiberTerminated, fiber.Status)
	require.True(t, fiber.IsDone())
}

// TestMapDotSugar is scenario 3: dot access on a Map reads a matching
// key when present and falls through to a unary method send (`count`)
// otherwise.
func TestMapDotSugar(t *testing.T) {
	machine := vm.NewVM(vm.DefaultConfig(), vm.Delegate{})
	optional.RegisterAll(machine)

	m := machine.NewMap()
	m.Table.Set(value.Obj(machine.NewString("k1")), value.Int(10))
	m.Table.Set(value.Obj(machine.NewString("k2")), value.Int(20))

	code := []opcode.Instruction{
		opcode.EncodeABC10(opcode.OpLOAD, 1, 0, 0), // r1 = r0.k1
		opcode.EncodeAB18(opcode.OpLOADK, 2, 1),    // r2 = "k2"
		opcode.EncodeABC(opcode.OpLOADAT, 3, 0, 2), // r3 = r0["k2"]
		opcode.EncodeABC10(opcode.OpLOAD, 4, 0, 2), // r4 = r0.count (unary send)
		opcode.EncodeABC10(opcode.OpADD, 5, 1, 3),
		opcode.EncodeABC10(opcode.OpADD, 5, 5, 4),
		opcode.EncodeAB18(opcode.OpRET, 5, 0),
	}
	fn := buildFn("main", 1, 5, 0, 0, code,
		value.Obj(machine.NewString("k1")),
		value.Obj(machine.NewString("k2")),
		value.Obj(machine.NewString("count")),
	)

	result, err := machine.RunClosure(machine.NewClosure(fn), []value.Value{value.Obj(m)})
	require.NoError(t, err)
	require.Equal(t, int64(32), result.AsInt())
}

// TestInheritanceSuperDispatch is scenario 4: B.f calls super.f and adds
// 2, exercising OpSUPERINVOKE's defining-class walk.
func TestInheritanceSuperDispatch(t *testing.T) {
	machine := vm.NewVM(vm.DefaultConfig(), vm.Delegate{})

	classA := value.NewClass("A", machine.ObjectSuper())
	classB := value.NewClass("B", classA)

	aFCode := []opcode.Instruction{
		opcode.EncodeASB17(opcode.OpLOADI, 1, 1),
		opcode.EncodeAB18(opcode.OpRET, 1, 0),
	}
	aF := buildFn("f", 0, 2, 0, 0, aFCode)
	classA.Methods["f"] = value.Obj(aF)

	bFCode := []opcode.Instruction{
		opcode.EncodeABC(opcode.OpLOADS, 0, 0, 0),         // r0 = self
		opcode.EncodeABC10(opcode.OpSUPERINVOKE, 1, 0, 0), // r1 = super.f()
		opcode.EncodeASB17(opcode.OpLOADI, 2, 2),
		opcode.EncodeABC10(opcode.OpADD, 1, 1, 2),
		opcode.EncodeAB18(opcode.OpRET, 1, 0),
	}
	bF := buildFn("f", 0, 3, 0, 0, bFCode, value.Obj(machine.NewString("f")))
	classB.Methods["f"] = value.Obj(bF)

	instance := machine.NewInstance(classB)

	mainCode := []opcode.Instruction{
		opcode.EncodeABC10(opcode.OpINVOKE, 1, 0, 0), // r1 = r0.f()
		opcode.EncodeAB18(opcode.OpRET, 1, 0),
	}
	mainFn := buildFn("main", 1, 2, 0, 0, mainCode, value.Obj(machine.NewString("f")))

	result, err := machine.RunClosure(machine.NewClosure(mainFn), []value.Value{value.Obj(instance)})
	require.NoError(t, err)
	require.Equal(t, int64(3), result.AsInt())
}

// TestGCCycleReclaim is scenario 5, scaled down from the spec's 100,000
// iterations to keep the suite fast: repeatedly allocate and discard a
// 1,000-element List and confirm the collector reclaims it rather than
// letting live bytes grow unbounded.
func TestGCCycleReclaim(t *testing.T) {
	machine := vm.NewVM(vm.DefaultConfig(), vm.Delegate{})

	items := make([]value.Value, 1000)
	for i := range items {
		items[i] = value.Int(int64(i))
	}

	machine.CollectGarbage()
	for i := 0; i < 2000; i++ {
		machine.NewList(items...)
		if i%100 == 0 {
			machine.CollectGarbage()
		}
	}
	machine.CollectGarbage()
	steady := machine.MemAllocated()

	for i := 0; i < 2000; i++ {
		machine.NewList(items...)
	}
	machine.CollectGarbage()
	require.LessOrEqual(t, machine.MemAllocated(), 2*steady)
}

// TestStringSplitJoinRoundTrip is scenario 6: splitting on a separator
// and rejoining on the same separator is identity, and the intermediate
// list's count (read via dot sugar) sees every segment, including the
// empty one between adjacent separators.
func TestStringSplitJoinRoundTrip(t *testing.T) {
	machine := vm.NewVM(vm.DefaultConfig(), vm.Delegate{})
	input := value.Obj(machine.NewString("a,b,,c"))

	countCode := []opcode.Instruction{
		opcode.EncodeAB18(opcode.OpLOADK, 1, 0),          // r1 = ","
		opcode.EncodeABC10(opcode.OpINVOKE, 2, 0, 1),     // r2 = r0.split(r1)
		opcode.EncodeABC10(opcode.OpLOAD, 3, 2, 2),       // r3 = r2.count
		opcode.EncodeAB18(opcode.OpRET, 3, 0),
	}
	countFn := buildFn("splitCount", 1, 3, 0, 0, countCode,
		value.Obj(machine.NewString(",")),
		value.Obj(machine.NewString("split")),
		value.Obj(machine.NewString("count")),
	)
	countResult, err := machine.RunClosure(machine.NewClosure(countFn), []value.Value{input})
	require.NoError(t, err)
	require.Equal(t, int64(4), countResult.AsInt())

	roundTripCode := []opcode.Instruction{
		opcode.EncodeAB18(opcode.OpLOADK, 1, 0),      // r1 = ","
		opcode.EncodeABC10(opcode.OpINVOKE, 2, 0, 1), // r2 = r0.split(r1)
		opcode.EncodeAB18(opcode.OpLOADK, 3, 0),      // r3 = ","
		opcode.EncodeABC10(opcode.OpINVOKE, 4, 2, 2), // r4 = r2.join(r3)
		opcode.EncodeAB18(opcode.OpRET, 4, 0),
	}
	roundTripFn := buildFn("splitJoin", 1, 4, 0, 0, roundTripCode,
		value.Obj(machine.NewString(",")),
		value.Obj(machine.NewString("split")),
		value.Obj(machine.NewString("join")),
	)
	joinedResult, err := machine.RunClosure(machine.NewClosure(roundTripFn), []value.Value{input})
	require.NoError(t, err)
	require.Equal(t, "a,b,,c", joinedResult.String().Value())
}
