package vm

import "github.com/kristofer/gravity/pkg/value"

// callCtx is the concrete type behind a NativeCallback's ctx parameter
// (value.NativeCallback is typed interface{} precisely so package value
// need not import package vm; see spec.md §4.1 "fn(vm, args, nargs,
// rindex) -> bool").
type callCtx struct {
	vm    *VM
	fiber *value.Fiber
	base  int // current frame's StackStart
}

// Set writes a native callback's result into register rindex of the
// currently executing frame.
func (c *callCtx) Set(rindex uint32, v value.Value) {
	c.fiber.Stack[c.base+int(rindex)] = v
}

// NewFiber creates a new, never-executed fiber ready to be started via
// Call (spec.md §4.5).
func (vm *VM) NewFiber() *value.Fiber {
	return vm.allocFiber()
}

// pushFrame pushes a call frame for closure onto f, growing the value
// stack if the callee's locals/temps don't fit below the current SP.
// definingCls records the class whose v-table this closure was resolved
// from (nil for plain, non-method calls), so a later SUPERINVOKE inside
// the callee's body resumes the lookup one level below it.
func (vm *VM) pushFrame(f *value.Fiber, closure *value.Closure, destReg int, args []value.Value, outloop bool, definingCls *value.Class) {
	fn := closure.Fn
	base := f.SP
	needed := base + fn.NParams + fn.NLocals + fn.NTemps + 1
	f.EnsureStack(needed)

	for i := 0; i < fn.NParams; i++ {
		if i < len(args) {
			f.Stack[base+i] = args[i]
		} else if i < len(fn.Defaults) {
			f.Stack[base+i] = fn.Defaults[i]
		} else {
			f.Stack[base+i] = value.Null()
		}
	}
	for i := fn.NParams; i < fn.NParams+fn.NLocals+fn.NTemps; i++ {
		f.Stack[base+i] = value.Null()
	}
	f.SP = needed

	var argList *value.List
	if fn.UsesArgs {
		argList = vm.allocList(append([]value.Value(nil), args...)...)
	}

	f.Frames = append(f.Frames, value.CallFrame{
		IP:          0,
		StackStart:  base,
		Closure:     closure,
		DestReg:     destReg,
		NArgs:       len(args),
		Arguments:   argList,
		Outloop:     outloop,
		DefiningCls: definingCls,
	})
}

// popFrame closes any upvalues pointing into the departing frame's
// registers and restores the fiber's stack pointer, per spec.md §4.4's
// RET-time close contract.
func (vm *VM) popFrame(f *value.Fiber) value.CallFrame {
	cf := f.Frames[len(f.Frames)-1]
	f.Frames = f.Frames[:len(f.Frames)-1]
	f.CloseUpvaluesFrom(cf.StackStart)
	f.SP = cf.StackStart
	return cf
}

// Call starts (or resumes) fiber f running closure with args, driving it
// to completion or to its first Yield, matching the embedding API's
// run_closure / Fiber.call operation (spec.md §4.1, §4.5).
func (vm *VM) Call(f *value.Fiber, closure *value.Closure, args []value.Value) (value.Value, error) {
	if f.Status == value.FiberNeverExecuted {
		vm.pushFrame(f, closure, 0, args, true, nil)
	}
	f.Status = value.FiberRunning
	vm.current = f
	return vm.run(f)
}

// RunClosure is the embedding-API entry point (spec.md §4.1): allocate a
// fresh fiber and run closure to completion on it.
func (vm *VM) RunClosure(closure *value.Closure, args []value.Value) (value.Value, error) {
	f := vm.NewFiber()
	return vm.Call(f, closure, args)
}

// Try runs closure on a fresh or caller-supplied fiber, catching any
// runtime error instead of propagating it, per spec.md §4.5's `try`
// transfer semantics.
func (vm *VM) Try(f *value.Fiber, closure *value.Closure, args []value.Value) (value.Value, *RuntimeError) {
	if f.Status == value.FiberNeverExecuted {
		vm.pushFrame(f, closure, 0, args, true, nil)
	}
	f.Trying = true
	f.Status = value.FiberTrying
	result, err := vm.Call(f, closure, args)
	f.Trying = false
	if err != nil {
		if rerr, ok := err.(*RuntimeError); ok {
			f.Status = value.FiberAbortedWithError
			f.Error = rerr.Message
			return value.Value{}, rerr
		}
	}
	return result, nil
}

// Yield suspends the currently running fiber, transferring control back
// to its caller with result as the value the paused `call`/`resume`
// point observes (spec.md §4.5). The fiber's frames are left intact so
// a later Call resumes execution right after the yielding instruction.
func (vm *VM) Yield(f *value.Fiber, result value.Value) {
	f.Status = value.FiberSuspended
	f.Result = result
}

// YieldWaitTime suspends f like Yield and sets f.HasYieldWait. The
// duration is not recorded (f.YieldWait is left as it was) and Call does
// not check HasYieldWait, so the next Call resumes f at once.
func (vm *VM) YieldWaitTime(f *value.Fiber, result value.Value, dur interface{ Seconds() float64 }) {
	vm.Yield(f, result)
	f.HasYieldWait = true
}

// Abort marks f as aborted with message, reports the error once through
// the Delegate and returns it as a *RuntimeError. Control is not
// transferred to f's caller; the caller sees only the returned error.
func (vm *VM) Abort(f *value.Fiber, message string) error {
	f.Status = value.FiberAbortedWithError
	f.Error = message
	err := vm.runtimeErrorf(f, "%s", message)
	return err
}
