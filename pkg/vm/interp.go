package vm

import (
	"github.com/kristofer/gravity/pkg/opcode"
	"github.com/kristofer/gravity/pkg/value"
)

// run drives fiber f's interpreter loop until it returns, yields, or
// aborts with an error (spec.md §4.3's register-based dispatch loop).
//
// Registers are a window into f.Stack starting at the current frame's
// StackStart; operand C in the ABC10 layout may name either a register
// (c < opcode.InlineConstBase) or an inline small integer literal
// (c - opcode.InlineConstBase), per spec.md §4.3.
func (vm *VM) run(f *value.Fiber) (value.Value, error) {
	for {
		if len(f.Frames) == 0 {
			f.Status = value.FiberTerminated
			return f.Result, nil
		}
		frame := &f.Frames[len(f.Frames)-1]
		fn := frame.Closure.Fn

		if frame.IP >= len(fn.Bytecode) {
			cf := vm.popFrame(f)
			f.Result = value.Null()
			if len(f.Frames) > 0 {
				f.Stack[f.Frames[len(f.Frames)-1].StackStart+cf.DestReg] = value.Null()
			}
			continue
		}

		inst := opcode.Instruction(fn.Bytecode[frame.IP])
		op := inst.Opcode()
		base := frame.StackStart
		reg := f.Stack

		advance := true

		switch op {
		case opcode.OpNOP:
			// no-op

		case opcode.OpHALT:
			f.Status = value.FiberTerminated
			return f.Result, nil

		case opcode.OpJUMP:
			target := inst.DecodeA26()
			frame.IP = int(target)
			advance = false

		case opcode.OpJUMPF:
			a, flag, b := inst.DecodeAFB17()
			cond := vm.truthy(reg[base+int(a)])
			if cond == flag {
				frame.IP = int(b)
				advance = false
			}

		case opcode.OpRET:
			a, _ := inst.DecodeAB18()
			result := reg[base+int(a)]
			cf := vm.popFrame(f)
			f.Result = result
			if len(f.Frames) > 0 {
				f.Stack[f.Frames[len(f.Frames)-1].StackStart+cf.DestReg] = result
			}
			continue

		case opcode.OpRET0:
			cf := vm.popFrame(f)
			f.Result = value.Null()
			if len(f.Frames) > 0 {
				f.Stack[f.Frames[len(f.Frames)-1].StackStart+cf.DestReg] = value.Null()
			}
			continue

		case opcode.OpCALL:
			a, b, c := inst.DecodeABC()
			callee := reg[base+int(b)]
			closure := callee.Closure()
			if closure == nil {
				return value.Value{}, vm.runtimeErrorf(f, "attempt to call a non-callable value")
			}
			args := append([]value.Value(nil), reg[base+int(b)+1:base+int(b)+1+int(c)]...)
			if closure.Fn.Tag == value.FuncInternal {
				vm.invokeInternal(f, closure, args, base+int(a))
			} else {
				frame.IP++
				vm.pushFrame(f, closure, int(a), args, false, nil)
				continue
			}

		case opcode.OpINVOKE:
			a, b, c := inst.DecodeABC10()
			vm.dispatch(f, frame, a, b, c, false)
			advance = false

		case opcode.OpSUPERINVOKE:
			a, b, c := inst.DecodeABC10()
			vm.dispatch(f, frame, a, b, c, true)
			advance = false

		case opcode.OpMOVE:
			a, b, _ := inst.DecodeABC()
			reg[base+int(a)] = reg[base+int(b)]

		case opcode.OpLOADK:
			a, b := inst.DecodeAB18()
			reg[base+int(a)] = fn.Constants[b]

		case opcode.OpLOADI:
			a, imm := inst.DecodeASB17()
			reg[base+int(a)] = value.Int(int64(imm))

		case opcode.OpLOADG:
			a, b := inst.DecodeAB18()
			name := fn.Constants[b].String().Value()
			v, _ := vm.Global(name)
			reg[base+int(a)] = v

		case opcode.OpSTOREG:
			a, b := inst.DecodeAB18()
			name := fn.Constants[b].String().Value()
			vm.SetGlobal(name, reg[base+int(a)])

		case opcode.OpLOADU:
			a, b, _ := inst.DecodeABC()
			reg[base+int(a)] = frame.Closure.Upvalues[b].Get()

		case opcode.OpSTOREU:
			a, b, _ := inst.DecodeABC()
			frame.Closure.Upvalues[b].Set(reg[base+int(a)])

		case opcode.OpLOADS:
			a, _, _ := inst.DecodeABC()
			reg[base+int(a)] = frame.Closure.Context

		case opcode.OpLOAD:
			a, b, c := inst.DecodeABC10()
			name := fn.Constants[c].String().Value()
			reg[base+int(a)] = vm.getProperty(f, reg[base+int(b)], name)

		case opcode.OpSTORE:
			a, b, c := inst.DecodeABC10()
			name := fn.Constants[c].String().Value()
			vm.setProperty(reg[base+int(a)], name, reg[base+int(b)])

		case opcode.OpLOADAT:
			a, b, c := inst.DecodeABC()
			reg[base+int(a)] = vm.indexGet(f, reg[base+int(b)], reg[base+int(c)])

		case opcode.OpSTOREAT:
			a, b, c := inst.DecodeABC()
			vm.indexSet(reg[base+int(a)], reg[base+int(b)], reg[base+int(c)])

		case opcode.OpADD, opcode.OpSUB, opcode.OpMUL, opcode.OpDIV, opcode.OpREM:
			a, b, c := inst.DecodeABC10()
			reg[base+int(a)] = vm.arith(f, op, reg[base+int(b)], operandC(reg, base, c))

		case opcode.OpNEG:
			a, b, _ := inst.DecodeABC()
			reg[base+int(a)] = vm.negate(reg[base+int(b)])

		case opcode.OpAND:
			a, b, c := inst.DecodeABC10()
			reg[base+int(a)] = value.Bool(vm.truthy(reg[base+int(b)]) && vm.truthy(operandC(reg, base, c)))

		case opcode.OpOR:
			a, b, c := inst.DecodeABC10()
			reg[base+int(a)] = value.Bool(vm.truthy(reg[base+int(b)]) || vm.truthy(operandC(reg, base, c)))

		case opcode.OpNOT:
			a, b, _ := inst.DecodeABC()
			reg[base+int(a)] = value.Bool(!vm.truthy(reg[base+int(b)]))

		case opcode.OpEQ:
			a, b, c := inst.DecodeABC10()
			reg[base+int(a)] = value.Bool(value.Equal(reg[base+int(b)], operandC(reg, base, c)))

		case opcode.OpNEQ:
			a, b, c := inst.DecodeABC10()
			reg[base+int(a)] = value.Bool(!value.Equal(reg[base+int(b)], operandC(reg, base, c)))

		case opcode.OpEQQ:
			a, b, c := inst.DecodeABC10()
			reg[base+int(a)] = value.Bool(value.StrictEqual(reg[base+int(b)], operandC(reg, base, c)))

		case opcode.OpNEQQ:
			a, b, c := inst.DecodeABC10()
			reg[base+int(a)] = value.Bool(!value.StrictEqual(reg[base+int(b)], operandC(reg, base, c)))

		case opcode.OpLT, opcode.OpGT, opcode.OpLEQ, opcode.OpGEQ:
			a, b, c := inst.DecodeABC10()
			result, err := vm.compare(f, op, reg[base+int(b)], operandC(reg, base, c))
			if err != nil {
				return value.Value{}, err
			}
			reg[base+int(a)] = result

		case opcode.OpISA:
			a, b, c := inst.DecodeABC()
			target := reg[base+int(c)].ClassObj()
			reg[base+int(a)] = value.Bool(target != nil && reg[base+int(b)].Class != nil && reg[base+int(b)].Class.IsA(target))

		case opcode.OpMATCH:
			a, b, c := inst.DecodeABC()
			reg[base+int(a)] = value.Bool(value.Equal(reg[base+int(b)], reg[base+int(c)]))

		case opcode.OpLSHIFT, opcode.OpRSHIFT, opcode.OpBAND, opcode.OpBOR, opcode.OpBXOR:
			a, b, c := inst.DecodeABC10()
			reg[base+int(a)] = vm.bitwise(op, reg[base+int(b)], operandC(reg, base, c))

		case opcode.OpBNOT:
			a, b, _ := inst.DecodeABC()
			reg[base+int(a)] = value.Int(^reg[base+int(b)].AsInt())

		case opcode.OpMAPNEW:
			a, _ := inst.DecodeAB18()
			reg[base+int(a)] = value.Obj(vm.allocMap())

		case opcode.OpLISTNEW:
			a, capHint := inst.DecodeAB18()
			reg[base+int(a)] = value.Obj(vm.allocList(make([]value.Value, 0, int(capHint))...))

		case opcode.OpRANGENEW:
			a, b, c := inst.DecodeABC()
			from := reg[base+int(b)].AsInt()
			to := reg[base+int(c)].AsInt()
			reg[base+int(a)] = value.Obj(vm.allocRange(from, to, true))

		case opcode.OpSETLIST:
			a, b, _ := inst.DecodeABC()
			l := reg[base+int(a)].List()
			l.Items = append(l.Items, reg[base+int(b)])

		case opcode.OpCLOSURE:
			a, poolIdx := inst.DecodeAB18()
			protoVal := fn.Constants[poolIdx]
			proto := protoVal.Obj.(*value.Function)
			closure := vm.allocClosure(proto)
			for i := 0; i < proto.NUpvalues; i++ {
				frame.IP++
				desc := opcode.Instruction(fn.Bytecode[frame.IP])
				isLocal, srcIdx, _ := desc.DecodeABC()
				if isLocal != 0 {
					idx := base + int(srcIdx)
					if existing := f.FindOpenUpvalue(idx); existing != nil {
						closure.Upvalues[i] = existing
					} else {
						uv := value.NewOpenUpvalue(f.Stack, idx)
						f.PushOpenUpvalue(uv)
						closure.Upvalues[i] = uv
					}
				} else {
					closure.Upvalues[i] = frame.Closure.Upvalues[srcIdx]
				}
			}
			reg[base+int(a)] = value.Obj(closure)

		case opcode.OpCLOSE:
			a, _ := inst.DecodeAB18()
			f.CloseUpvaluesFrom(base + int(a))

		case opcode.OpYIELD:
			a, _ := inst.DecodeAB18()
			frame.IP++
			vm.Yield(f, reg[base+int(a)])
			return f.Result, nil

		default:
			return value.Value{}, vm.runtimeErrorf(f, "unimplemented opcode %s", op)
		}

		if advance {
			frame.IP++
		}
	}
}

// operandC resolves the ABC10 C operand, honoring the inline-small-int
// convention of spec.md §4.3: a value at or above InlineConstBase is a
// literal (c - InlineConstBase) rather than a register index.
func operandC(reg []value.Value, base int, c uint16) value.Value {
	if c >= opcode.InlineConstBase {
		return value.Int(int64(c) - opcode.InlineConstBase)
	}
	return reg[base+int(c)]
}

func (vm *VM) truthy(v value.Value) bool { return value.ToBool(v) }

func (vm *VM) invokeInternal(f *value.Fiber, closure *value.Closure, args []value.Value, destAbs int) {
	ctx := &callCtx{vm: vm, fiber: f, base: destAbs}
	fullArgs := append([]value.Value{closure.Context}, args...)
	closure.Fn.Internal(ctx, fullArgs, 0)
}

// getProperty implements dot-access (OpLOAD): for a Map it is sugar for
// a string-keyed lookup, and for an Instance it reads the stored ivar of
// that name; when neither applies it falls through to a unary message
// send (e.g. `m.count`, see sendUnary), and a name that resolves to
// nothing reads as null.
func (vm *VM) getProperty(f *value.Fiber, receiver value.Value, name string) value.Value {
	if m, ok := receiver.Obj.(*value.Map); ok {
		if v, ok := m.Table.Get(value.Obj(vm.allocString(name))); ok {
			return v
		}
	}
	if inst, ok := receiver.Obj.(*value.Instance); ok && receiver.Class != nil {
		if idx, ok := receiver.Class.IvarIndex[name]; ok && idx < len(inst.Fields) {
			return inst.Fields[idx]
		}
	}
	if v, ok := vm.sendUnary(receiver, name); ok {
		return v
	}
	return value.Null()
}

// sendUnary resolves name on receiver's class and, if it names a native
// (Internal) zero-argument method, invokes it immediately and returns
// its result — the computed-property path dot-sugar relies on. Script
// (Native-tag) methods are returned unevaluated: invoking compiled
// bytecode synchronously here would recurse into run() for a frame this
// loop iteration doesn't own, so those still require an explicit
// OpINVOKE.
func (vm *VM) sendUnary(receiver value.Value, name string) (value.Value, bool) {
	if receiver.Class == nil {
		return value.Value{}, false
	}
	methodVal, _, ok := receiver.Class.Lookup(name)
	if !ok {
		return value.Value{}, false
	}
	fnObj, isFn := methodVal.Obj.(*value.Function)
	if !isFn || fnObj.Tag != value.FuncInternal {
		return methodVal, true
	}
	scratch := &value.Fiber{Stack: make([]value.Value, 1)}
	fnObj.Internal(&callCtx{vm: vm, fiber: scratch}, []value.Value{receiver}, 0)
	return scratch.Stack[0], true
}

func (vm *VM) setProperty(receiver value.Value, name string, v value.Value) {
	switch obj := receiver.Obj.(type) {
	case *value.Map:
		obj.Table.Set(value.Obj(vm.allocString(name)), v)
	case *value.Instance:
		if receiver.Class != nil {
			idx := receiver.Class.IvarSlot(name)
			if idx >= len(obj.Fields) {
				grown := make([]value.Value, idx+1)
				copy(grown, obj.Fields)
				for i := len(obj.Fields); i < len(grown); i++ {
					grown[i] = value.Null()
				}
				obj.Fields = grown
			}
			obj.Fields[idx] = v
		}
	}
}

func (vm *VM) indexGet(f *value.Fiber, receiver, key value.Value) value.Value {
	switch obj := receiver.Obj.(type) {
	case *value.List:
		idx := int(key.AsInt())
		if idx < 0 || idx >= len(obj.Items) {
			return value.Null()
		}
		return obj.Items[idx]
	case *value.Map:
		v, _ := obj.Table.Get(key)
		return v
	case *value.String:
		idx := int(key.AsInt())
		if idx < 0 || idx >= obj.Len() {
			return value.Null()
		}
		return value.Obj(vm.allocString(string(obj.Bytes[idx])))
	}
	return value.Null()
}

func (vm *VM) indexSet(receiver, key, v value.Value) {
	switch obj := receiver.Obj.(type) {
	case *value.List:
		idx := int(key.AsInt())
		if idx >= 0 && idx < len(obj.Items) {
			obj.Items[idx] = v
		} else if idx == len(obj.Items) {
			obj.Items = append(obj.Items, v)
		}
	case *value.Map:
		obj.Table.Set(key, v)
	}
}

// dispatch implements method-send (INVOKE/SUPERINVOKE), per spec.md's
// "method-dispatch fast paths": resolve a selector by walking the
// receiver's (or, for super, the defining class's super) class chain,
// bind it as the callee's context, and push (or run, for internal
// methods) a frame for it.
func (vm *VM) dispatch(f *value.Fiber, frame *value.CallFrame, a, b uint8, selIdx uint16, super bool) {
	fn := frame.Closure.Fn
	base := frame.StackStart
	receiver := f.Stack[base+int(b)]
	selector := fn.Constants[selIdx].String().Value()

	var methodVal value.Value
	var definingCls *value.Class
	var ok bool
	if super {
		methodVal, definingCls, ok = value.LookupFrom(frame.DefiningCls, selector)
	} else if receiver.Class != nil {
		methodVal, definingCls, ok = receiver.Class.Lookup(selector)
	}
	if !ok {
		// An unresolved selector reads as null. Config.SilentNull is not
		// consulted: no runtime error is raised here whatever its value.
		f.Stack[base+int(a)] = value.Null()
		frame.IP++
		return
	}

	closure := methodVal.Closure()
	if closure == nil {
		fnObj := methodVal.Obj.(*value.Function)
		closure = vm.allocClosure(fnObj)
	}
	closure.Context = receiver

	nparams := closure.Fn.NParams
	args := make([]value.Value, nparams)
	copy(args, f.Stack[base+int(b)+1:base+int(b)+1+nparams])

	frame.IP++
	if closure.Fn.Tag == value.FuncInternal {
		vm.invokeInternal(f, closure, args, base+int(a))
		return
	}
	vm.pushFrame(f, closure, int(a), args, false, definingCls)
}
