// Package optional implements Gravity's reference stdlib-optional
// modules (Math/File/Json/Http/Env), bound into a VM through its
// embedding API rather than known to the interpreter core. Grounded on
// the original gravity_opt_math.c/gravity_opt_file.c/gravity_opt_json.c/
// gravity_http.c/gravity_opt_env.c and the teacher's primitives.go.
package optional

import (
	"math"

	"github.com/kristofer/gravity/pkg/value"
)

// Host is the subset of *vm.VM the optional modules need: allocators and
// class/global registration. Defined here (rather than importing
// package vm directly) so optional has no import-cycle risk and can be
// exercised with a fake in unit tests.
type Host interface {
	NewString(s string) *value.String
	NewList(items ...value.Value) *value.List
	NewMap() *value.Map
	DefineClass(class *value.Class)
	ObjectSuper() *value.Class
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Null()
}

func argFloat(args []value.Value, i int) float64 {
	v := arg(args, i)
	if v.IsNumber() {
		return v.ToFloat64()
	}
	return 0
}

// NewMathClass builds the Math static class: a thin wrapper over Go's
// math package, grounded on gravity_opt_math.c's function table. Mixed
// Int/Float arguments promote to Float (spec.md's numeric-coercion
// rules), resolving the ambiguity the original C's xrt-family functions
// left between truncating and promoting behavior.
func NewMathClass(h Host) *value.Class {
	cls := value.NewClass("Math", h.ObjectSuper())

	unary := func(name string, fn func(float64) float64) {
		cls.Meta.Methods[name] = value.Obj(value.NewInternalFunctionN(name, func(ctx interface{}, args []value.Value, rindex uint32) bool {
			c, ok := ctx.(setter)
			if !ok {
				return false
			}
			c.Set(rindex, value.Float(fn(argFloat(args, 1))))
			return true
		}, 1))
	}

	unary("sqrt", math.Sqrt)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("abs", math.Abs)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("log", math.Log)
	unary("log2", math.Log2)
	unary("exp", math.Exp)

	cls.Meta.Methods["pow"] = value.Obj(value.NewInternalFunctionN("pow", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		c.Set(rindex, value.Float(math.Pow(argFloat(args, 1), argFloat(args, 2))))
		return true
	}, 2))
	cls.Meta.Methods["max"] = value.Obj(value.NewInternalFunctionN("max", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		c.Set(rindex, value.Float(math.Max(argFloat(args, 1), argFloat(args, 2))))
		return true
	}, 2))
	cls.Meta.Methods["min"] = value.Obj(value.NewInternalFunctionN("min", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		c.Set(rindex, value.Float(math.Min(argFloat(args, 1), argFloat(args, 2))))
		return true
	}, 2))

	cls.Meta.Statics = cls.Meta.Methods
	cls.Statics["PI"] = value.Float(math.Pi)
	cls.Statics["E"] = value.Float(math.E)

	return cls
}
