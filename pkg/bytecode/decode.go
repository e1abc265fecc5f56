package bytecode

import (
	"fmt"

	"github.com/kristofer/gravity/pkg/value"
)

// decodeCtx accumulates classes by name across a decode so that Super
// references (by name, per spec.md §6) can be resolved once every class
// in the unit has been materialized.
type decodeCtx struct {
	classesByName map[string]*value.Class
	pendingSupers []pendingSuper
}

type pendingSuper struct {
	class     *value.Class
	superName string
}

func newDecodeCtx() *decodeCtx {
	return &decodeCtx{classesByName: make(map[string]*value.Class)}
}

// resolveSupers performs the second pass described in spec.md §6:
// "deserialization resolves superclasses by name in a second pass".
func (ctx *decodeCtx) resolveSupers() error {
	for _, p := range ctx.pendingSupers {
		super, ok := ctx.classesByName[p.superName]
		if !ok {
			return fmt.Errorf("bytecode: class %q references unknown superclass %q", p.class.Name, p.superName)
		}
		p.class.Super = super
	}
	return nil
}

// DecodeValue is the inverse of EncodeValue.
func DecodeValue(cj ConstJSON) (value.Value, error) {
	ctx := newDecodeCtx()
	v, err := decodeValue(cj, ctx)
	if err != nil {
		return value.Value{}, err
	}
	if err := ctx.resolveSupers(); err != nil {
		return value.Value{}, err
	}
	return v, nil
}

func decodeValue(cj ConstJSON, ctx *decodeCtx) (value.Value, error) {
	switch cj.Type {
	case "null":
		return value.Null(), nil
	case "undefined":
		return value.Undefined(), nil
	case "bool":
		if cj.Bool == nil {
			return value.Value{}, fmt.Errorf("bytecode: bool constant missing payload")
		}
		return value.Bool(*cj.Bool), nil
	case "int":
		if cj.Int == nil {
			return value.Value{}, fmt.Errorf("bytecode: int constant missing payload")
		}
		return value.Int(*cj.Int), nil
	case "float":
		if cj.Float == nil {
			return value.Value{}, fmt.Errorf("bytecode: float constant missing payload")
		}
		return value.Float(*cj.Float), nil
	case "string":
		if cj.Str == nil {
			return value.Value{}, fmt.Errorf("bytecode: string constant missing payload")
		}
		return value.Obj(value.NewString(*cj.Str)), nil
	case "range":
		if cj.Range == nil {
			return value.Value{}, fmt.Errorf("bytecode: range constant missing payload")
		}
		r := cj.Range
		return value.Obj(value.NewRange(r.From, r.To, r.Inclusive)), nil
	case "map":
		if cj.Map == nil {
			return value.Value{}, fmt.Errorf("bytecode: map constant missing payload")
		}
		m := value.NewMap()
		for i := range cj.Map.Keys {
			k, err := decodeValue(cj.Map.Keys[i], ctx)
			if err != nil {
				return value.Value{}, err
			}
			v, err := decodeValue(cj.Map.Values[i], ctx)
			if err != nil {
				return value.Value{}, err
			}
			m.Table.Set(k, v)
		}
		return value.Obj(m), nil
	case "function":
		if cj.Function == nil {
			return value.Value{}, fmt.Errorf("bytecode: function constant missing payload")
		}
		fn, err := decodeFunction(cj.Function, ctx)
		if err != nil {
			return value.Value{}, err
		}
		return value.Obj(fn), nil
	case "class":
		if cj.Class == nil {
			return value.Value{}, fmt.Errorf("bytecode: class constant missing payload")
		}
		cls, err := decodeClass(cj.Class, ctx)
		if err != nil {
			return value.Value{}, err
		}
		return value.Obj(cls), nil
	case "instance":
		if cj.Instance == nil {
			return value.Value{}, fmt.Errorf("bytecode: instance constant missing payload")
		}
		inst, err := decodeInstance(cj.Instance, ctx)
		if err != nil {
			return value.Value{}, err
		}
		return value.Obj(inst), nil
	default:
		return value.Value{}, fmt.Errorf("bytecode: unknown constant type %q", cj.Type)
	}
}

func decodeInstance(ij *InstanceJSON, ctx *decodeCtx) (*value.Instance, error) {
	cls := ctx.classesByName[ij.Class]
	inst := &value.Instance{}
	inst.Header.Class = cls
	for _, fj := range ij.Ivars {
		v, err := decodeValue(fj, ctx)
		if err != nil {
			return nil, err
		}
		inst.Fields = append(inst.Fields, v)
	}
	return inst, nil
}

// DecodeFunction is the inverse of EncodeFunction for a standalone
// top-level function unit (e.g. a `$moduleinit` closure).
func DecodeFunction(fj *FunctionJSON) (*value.Function, error) {
	ctx := newDecodeCtx()
	fn, err := decodeFunction(fj, ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.resolveSupers(); err != nil {
		return nil, err
	}
	return fn, nil
}

func decodeFunction(fj *FunctionJSON, ctx *decodeCtx) (*value.Function, error) {
	code, err := DecodeInstructions(fj.Bytecode)
	if err != nil {
		return nil, err
	}
	fn := &value.Function{
		Identifier: fj.Identifier,
		Tag:        parseTag(fj.Tag),
		Bytecode:   code,
		NParams:    fj.NParams,
		NLocals:    fj.NLocals,
		NTemps:     fj.NTemps,
		NUpvalues:  fj.NUpvalues,
		UsesArgs:   fj.UseArgs,
		Purity:     fj.Purity,
		ParamNames: fj.PNames,
	}
	for _, cj := range fj.Pool {
		v, err := decodeValue(cj, ctx)
		if err != nil {
			return nil, err
		}
		fn.Constants = append(fn.Constants, v)
	}
	for _, dj := range fj.PValues {
		v, err := decodeValue(dj, ctx)
		if err != nil {
			return nil, err
		}
		fn.Defaults = append(fn.Defaults, v)
	}
	return fn, nil
}

// DecodeClass is the inverse of EncodeClass for a standalone top-level
// class unit. A Super of "" or "Object" leaves the decoded class's Super
// nil; any other Super names a class decoded in this same call, and an
// unknown name makes DecodeClass return an error.
func DecodeClass(cj *ClassJSON) (*value.Class, error) {
	ctx := newDecodeCtx()
	cls, err := decodeClass(cj, ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.resolveSupers(); err != nil {
		return nil, err
	}
	return cls, nil
}

func decodeClass(cj *ClassJSON, ctx *decodeCtx) (*value.Class, error) {
	cls := value.NewClass(cj.Identifier, nil)
	cls.NumIvar = cj.NIvar
	cls.IsStruct = cj.Struct
	cls.Meta.NumIvar = cj.SIvar
	ctx.classesByName[cj.Identifier] = cls
	if cj.Super != "" && cj.Super != "Object" {
		ctx.pendingSupers = append(ctx.pendingSupers, pendingSuper{class: cls, superName: cj.Super})
	}
	for _, m := range cj.Inner {
		if m.Str == nil {
			return nil, fmt.Errorf("bytecode: class %q has an inner entry with no name", cj.Identifier)
		}
		v, err := decodeValue(m, ctx)
		if err != nil {
			return nil, err
		}
		cls.Methods[*m.Str] = v
	}
	for _, m := range cj.Meta {
		if m.Str == nil {
			return nil, fmt.Errorf("bytecode: class %q has a meta entry with no name", cj.Identifier)
		}
		v, err := decodeValue(m, ctx)
		if err != nil {
			return nil, err
		}
		cls.Meta.Methods[*m.Str] = v
	}
	return cls, nil
}

// Unit is a top-level serialized module: a `$moduleinit` Function whose
// constant pool transitively reaches every Class the module defines.
// Decoding through Unit runs superclass resolution once across the whole
// module rather than per-constant, matching spec.md §6's two-pass
// description for a complete compiled file.
type Unit struct {
	Init *FunctionJSON `json:"init"`
}

func DecodeUnit(u *Unit) (*value.Function, error) {
	return DecodeFunction(u.Init)
}

func EncodeUnit(init *value.Function) (*Unit, error) {
	fj, err := EncodeFunction(init)
	if err != nil {
		return nil, err
	}
	return &Unit{Init: fj}, nil
}
