package vm

import (
	"fmt"
	"strings"

	"github.com/kristofer/gravity/pkg/value"
)

// bootstrapCoreClasses wires the reserved-identifier class hierarchy of
// spec.md §3/§6: every core class is a subclass of Object. Each keeps
// the standalone metaclass NewClass gives it; none is linked to Class.
func (vm *VM) bootstrapCoreClasses() {
	vm.ObjectClass = value.NewClass("Object", nil)
	vm.ClassClass = value.NewClass("Class", vm.ObjectClass)

	newCore := func(name string) *value.Class { return value.NewClass(name, vm.ObjectClass) }

	vm.IntClass = newCore("Int")
	vm.FloatClass = newCore("Float")
	vm.BoolClass = newCore("Bool")
	vm.NullClass = newCore("Null")
	vm.UndefinedClass = newCore("Undefined")
	vm.StringClass = newCore("String")
	vm.FunctionClass = newCore("Function")
	vm.ClosureClass = newCore("Closure")
	vm.FiberClass = newCore("Fiber")
	vm.InstanceClass = newCore("Instance")
	vm.ListClass = newCore("List")
	vm.MapClass = newCore("Map")
	vm.RangeClass = newCore("Range")
	vm.UpvalueClass = newCore("Upvalue")
	vm.SystemClass = newCore("System")

	for _, c := range []*value.Class{
		vm.ObjectClass, vm.ClassClass, vm.IntClass, vm.FloatClass, vm.BoolClass,
		vm.NullClass, vm.UndefinedClass, vm.StringClass, vm.FunctionClass,
		vm.ClosureClass, vm.FiberClass, vm.InstanceClass, vm.ListClass,
		vm.MapClass, vm.RangeClass, vm.UpvalueClass, vm.SystemClass,
	} {
		vm.DefineClass(c)
	}
}

// defineNative installs an instance method taking nparams explicit
// arguments beyond its implicit receiver; dispatch (OpINVOKE) sizes the
// register window it forwards to the callee from this count.
func (vm *VM) defineNative(class *value.Class, name string, nparams int, fn value.NativeCallback) {
	class.Methods[name] = value.Obj(value.NewInternalFunctionN(name, fn, nparams))
}

func (vm *VM) defineStatic(class *value.Class, name string, nparams int, fn value.NativeCallback) {
	class.Meta.Methods[name] = value.Obj(value.NewInternalFunctionN(name, fn, nparams))
}

// registerCoreMethods installs the handful of methods every native
// (non-bridged) Gravity program relies on without importing an optional
// module: String formatting/concatenation, List/Map basics, and the
// reflective `class`/`isa`/`toString` operations common to every Object.
func (vm *VM) registerCoreMethods() {
	vm.defineNative(vm.ObjectClass, "toString", 0, func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(*callCtx)
		c.Set(rindex, value.Obj(c.vm.allocString(c.vm.stringify(args[0]))))
		return true
	})
	vm.defineNative(vm.ObjectClass, "class", 0, func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(*callCtx)
		c.Set(rindex, value.Obj(args[0].Class))
		return true
	})
	vm.defineNative(vm.ObjectClass, "isa", 1, func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(*callCtx)
		target := args[1].ClassObj()
		ok := target != nil && args[0].Class != nil && args[0].Class.IsA(target)
		c.Set(rindex, value.Bool(ok))
		return true
	})

	vm.defineNative(vm.StringClass, "length", 0, func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(*callCtx)
		c.Set(rindex, value.Int(int64(args[0].String().Len())))
		return true
	})
	vm.defineNative(vm.StringClass, "upper", 0, func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(*callCtx)
		c.Set(rindex, value.Obj(c.vm.allocString(strings.ToUpper(args[0].String().Value()))))
		return true
	})
	vm.defineNative(vm.StringClass, "lower", 0, func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(*callCtx)
		c.Set(rindex, value.Obj(c.vm.allocString(strings.ToLower(args[0].String().Value()))))
		return true
	})
	vm.defineNative(vm.StringClass, "split", 1, func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(*callCtx)
		sep := ""
		if len(args) > 1 {
			sep = args[1].String().Value()
		}
		var parts []string
		if sep == "" {
			parts = strings.Fields(args[0].String().Value())
		} else {
			parts = strings.Split(args[0].String().Value(), sep)
		}
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = value.Obj(c.vm.allocString(p))
		}
		c.Set(rindex, value.Obj(c.vm.allocList(items...)))
		return true
	})

	vm.defineNative(vm.ListClass, "count", 0, func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(*callCtx)
		c.Set(rindex, value.Int(int64(args[0].List().Len())))
		return true
	})
	vm.defineNative(vm.ListClass, "push", 1, func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(*callCtx)
		l := args[0].List()
		l.Items = append(l.Items, args[1])
		c.Set(rindex, args[0])
		return true
	})
	vm.defineNative(vm.ListClass, "join", 1, func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(*callCtx)
		sep := ""
		if len(args) > 1 {
			sep = args[1].String().Value()
		}
		parts := make([]string, args[0].List().Len())
		for i, it := range args[0].List().Items {
			parts[i] = c.vm.stringify(it)
		}
		c.Set(rindex, value.Obj(c.vm.allocString(strings.Join(parts, sep))))
		return true
	})

	vm.defineNative(vm.MapClass, "count", 0, func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(*callCtx)
		c.Set(rindex, value.Int(int64(args[0].Map().Len())))
		return true
	})

	vm.defineNative(vm.RangeClass, "count", 0, func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(*callCtx)
		c.Set(rindex, value.Int(args[0].Range().Len()))
		return true
	})
}

// stringify implements Object.toString's default rendering for values
// with no class-overridden method (spec.md §4.6 coercion-to-string
// rules: null/undefined, numbers, strings pass through verbatim).
func (vm *VM) stringify(v value.Value) string {
	switch v.Kind {
	case value.KindNull:
		return "null"
	case value.KindUndefined:
		return "undefined"
	case value.KindBool:
		return fmt.Sprintf("%v", v.AsBool())
	case value.KindInt:
		return fmt.Sprintf("%d", v.AsInt())
	case value.KindFloat:
		return fmt.Sprintf("%g", v.ToFloat64())
	case value.KindObject:
		switch o := v.Obj.(type) {
		case *value.String:
			return o.Value()
		case *value.Range:
			return fmt.Sprintf("%d...%d", o.From, o.To)
		case *value.List:
			parts := make([]string, len(o.Items))
			for i, it := range o.Items {
				parts[i] = vm.stringify(it)
			}
			return "[" + strings.Join(parts, ", ") + "]"
		case *value.Class:
			return o.Name
		default:
			if v.Class != nil {
				return "<" + v.Class.Name + ">"
			}
			return "<object>"
		}
	default:
		return ""
	}
}
