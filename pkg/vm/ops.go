package vm

import (
	"github.com/kristofer/gravity/pkg/opcode"
	"github.com/kristofer/gravity/pkg/value"
)

// arith implements the ADD/SUB/MUL/DIV/REM fast paths of spec.md §4.3:
// Int-Int stays Int, any Float operand promotes to Float, and String+
// concatenates (the one non-numeric ADD overload every Gravity program
// exercises).
func (vm *VM) arith(f *value.Fiber, op opcode.Op, a, b value.Value) value.Value {
	if op == opcode.OpADD {
		if as, ok := a.Obj.(*value.String); ok {
			bs := vm.stringify(b)
			return value.Obj(vm.allocString(as.Value() + bs))
		}
	}
	if a.Kind == value.KindInt && b.Kind == value.KindInt {
		x, y := a.AsInt(), b.AsInt()
		switch op {
		case opcode.OpADD:
			return value.Int(x + y)
		case opcode.OpSUB:
			return value.Int(x - y)
		case opcode.OpMUL:
			return value.Int(x * y)
		case opcode.OpDIV:
			if y == 0 {
				return value.Float(0)
			}
			return value.Int(x / y)
		case opcode.OpREM:
			if y == 0 {
				return value.Int(0)
			}
			return value.Int(x % y)
		}
	}
	x, y := a.ToFloat64(), b.ToFloat64()
	switch op {
	case opcode.OpADD:
		return value.Float(x + y)
	case opcode.OpSUB:
		return value.Float(x - y)
	case opcode.OpMUL:
		return value.Float(x * y)
	case opcode.OpDIV:
		return value.Float(x / y)
	case opcode.OpREM:
		return value.Float(float64(int64(x) % int64(y)))
	}
	return value.Null()
}

func (vm *VM) negate(a value.Value) value.Value {
	if a.Kind == value.KindInt {
		return value.Int(-a.AsInt())
	}
	return value.Float(-a.ToFloat64())
}

// compare implements LT/GT/LEQ/GEQ. Only numbers and strings (lexical
// byte order) have an ordering in spec.md §4.6; anything else raises.
func (vm *VM) compare(f *value.Fiber, op opcode.Op, a, b value.Value) (value.Value, error) {
	less, ok := vm.orderedLess(a, b)
	if !ok {
		return value.Value{}, vm.runtimeErrorf(f, "values of type %s are not comparable", vm.typeName(a))
	}
	equal := !less && !func() bool { l, _ := vm.orderedLess(b, a); return l }()
	switch op {
	case opcode.OpLT:
		return value.Bool(less), nil
	case opcode.OpGT:
		gt, _ := vm.orderedLess(b, a)
		return value.Bool(gt), nil
	case opcode.OpLEQ:
		return value.Bool(less || equal), nil
	case opcode.OpGEQ:
		gt, _ := vm.orderedLess(b, a)
		return value.Bool(gt || equal), nil
	}
	return value.Bool(false), nil
}

func (vm *VM) orderedLess(a, b value.Value) (bool, bool) {
	if a.IsNumber() && b.IsNumber() {
		return a.ToFloat64() < b.ToFloat64(), true
	}
	as, aok := a.Obj.(*value.String)
	bs, bok := b.Obj.(*value.String)
	if aok && bok {
		return as.Value() < bs.Value(), true
	}
	return false, false
}

func (vm *VM) typeName(v value.Value) string {
	if v.Class != nil {
		return v.Class.Name
	}
	return "unknown"
}

func (vm *VM) bitwise(op opcode.Op, a, b value.Value) value.Value {
	x, y := a.AsInt(), b.AsInt()
	switch op {
	case opcode.OpLSHIFT:
		return value.Int(x << uint(y))
	case opcode.OpRSHIFT:
		return value.Int(x >> uint(y))
	case opcode.OpBAND:
		return value.Int(x & y)
	case opcode.OpBOR:
		return value.Int(x | y)
	case opcode.OpBXOR:
		return value.Int(x ^ y)
	}
	return value.Int(0)
}
