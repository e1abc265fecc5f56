// Package bytecode implements the JSON serialization format of spec.md
// §6: the wire format the (out-of-scope) compiler emits and this
// runtime's embedding API consumes.
//
// Every serialized object carries a mandatory "type" field: "function",
// "class", "instance", "range", or "map". Bytecode instructions are
// encoded as an uppercase-hex string, one 32-bit instruction per 8 hex
// characters, big-endian within the string (spec.md §6).
package bytecode

import (
	"encoding/hex"
	"fmt"

	"github.com/kristofer/gravity/pkg/value"
)

// EncodeInstructions renders raw encoded instructions (package opcode's
// Instruction, stored as uint32 on value.Function) as the uppercase-hex
// string format of spec.md §6.
func EncodeInstructions(code []uint32) string {
	buf := make([]byte, len(code)*4)
	for i, u := range code {
		buf[i*4+0] = byte(u >> 24)
		buf[i*4+1] = byte(u >> 16)
		buf[i*4+2] = byte(u >> 8)
		buf[i*4+3] = byte(u)
	}
	return fmt.Sprintf("%X", buf)
}

// DecodeInstructions parses the uppercase-hex bytecode string back into
// raw instruction words. DecodeInstructions(EncodeInstructions(x)) == x
// (spec.md §8 round-trip property).
func DecodeInstructions(s string) ([]uint32, error) {
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("bytecode: invalid hex bytecode: %w", err)
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("bytecode: hex bytecode length %d is not a multiple of 4 bytes", len(buf))
	}
	out := make([]uint32, len(buf)/4)
	for i := range out {
		out[i] = uint32(buf[i*4+0])<<24 | uint32(buf[i*4+1])<<16 | uint32(buf[i*4+2])<<8 | uint32(buf[i*4+3])
	}
	return out, nil
}

// ConstJSON is a tagged encoding of a single constant-pool entry or
// top-level serialized object. Exactly one payload field besides Type is
// populated, selected by Type. Str doubles as a method/ivar name label
// when an entry appears inside ClassJSON.Inner/Meta.
type ConstJSON struct {
	Type string `json:"type"`

	Int   *int64   `json:"int,omitempty"`
	Float *float64 `json:"float,omitempty"`
	Str   *string  `json:"string,omitempty"`
	Bool  *bool    `json:"bool,omitempty"`

	Function *FunctionJSON `json:"function,omitempty"`
	Class    *ClassJSON    `json:"class,omitempty"`
	Instance *InstanceJSON `json:"instance,omitempty"`
	Range    *RangeJSON    `json:"range,omitempty"`
	Map      *MapJSON      `json:"map,omitempty"`
}

type RangeJSON struct {
	From      int64 `json:"from"`
	To        int64 `json:"to"`
	Inclusive bool  `json:"inclusive"`
}

type MapJSON struct {
	Keys   []ConstJSON `json:"keys"`
	Values []ConstJSON `json:"values"`
}

// FunctionJSON is the §6 wire encoding of a Function object.
type FunctionJSON struct {
	Identifier string      `json:"identifier"`
	Tag        string      `json:"tag"`
	NParams    int         `json:"nparams"`
	NLocals    int         `json:"nlocals"`
	NTemps     int         `json:"ntemps"`
	NUpvalues  int         `json:"nupvalues"`
	UseArgs    bool        `json:"useargs"`
	Purity     bool        `json:"purity"`
	Bytecode   string      `json:"bytecode"`
	Pool       []ConstJSON `json:"pool"`
	PValues    []ConstJSON `json:"pvalues,omitempty"`
	PNames     []string    `json:"pnames,omitempty"`
}

// ClassJSON is the §6 wire encoding of a Class object. Super is resolved
// by name in a second deserialization pass (spec.md §6); "Object", the
// root's name, decodes to a nil Super.
type ClassJSON struct {
	Identifier string      `json:"identifier"`
	Super      string      `json:"super,omitempty"`
	NIvar      int         `json:"nivar"`
	SIvar      int         `json:"sivar"`
	Struct     bool        `json:"struct"`
	Inner      []ConstJSON `json:"inner,omitempty"`
	Meta       []ConstJSON `json:"meta,omitempty"`
}

// InstanceJSON is the §6 wire encoding of a prebuilt Instance constant.
type InstanceJSON struct {
	Class string      `json:"class"`
	Ivars []ConstJSON `json:"ivars"`
}

func tagName(t value.FunctionTag) string {
	switch t {
	case value.FuncInternal:
		return "internal"
	case value.FuncBridged:
		return "bridged"
	case value.FuncSpecial:
		return "special"
	default:
		return "native"
	}
}

func parseTag(s string) value.FunctionTag {
	switch s {
	case "internal":
		return value.FuncInternal
	case "bridged":
		return value.FuncBridged
	case "special":
		return value.FuncSpecial
	default:
		return value.FuncNative
	}
}

// EncodeValue renders a runtime Value as its tagged JSON encoding. Only
// the kinds the serialization format covers (spec.md §6) are supported;
// others (Fiber, Upvalue, open-ended native closures) never appear in a
// constant pool and return an error.
func EncodeValue(v value.Value) (ConstJSON, error) {
	switch v.Kind {
	case value.KindNull:
		return ConstJSON{Type: "null"}, nil
	case value.KindUndefined:
		return ConstJSON{Type: "undefined"}, nil
	case value.KindBool:
		b := v.AsBool()
		return ConstJSON{Type: "bool", Bool: &b}, nil
	case value.KindInt:
		n := v.AsInt()
		return ConstJSON{Type: "int", Int: &n}, nil
	case value.KindFloat:
		f := v.ToFloat64()
		return ConstJSON{Type: "float", Float: &f}, nil
	case value.KindObject:
		return encodeObject(v)
	default:
		return ConstJSON{}, fmt.Errorf("bytecode: value kind %v has no wire encoding", v.Kind)
	}
}

func encodeObject(v value.Value) (ConstJSON, error) {
	switch obj := v.Obj.(type) {
	case *value.String:
		s := obj.Value()
		return ConstJSON{Type: "string", Str: &s}, nil
	case *value.Range:
		return ConstJSON{Type: "range", Range: &RangeJSON{From: obj.From, To: obj.To, Inclusive: true}}, nil
	case *value.Map:
		mj := &MapJSON{}
		var encErr error
		obj.Table.Each(func(k, val value.Value) {
			if encErr != nil {
				return
			}
			kc, err := EncodeValue(k)
			if err != nil {
				encErr = err
				return
			}
			vc, err := EncodeValue(val)
			if err != nil {
				encErr = err
				return
			}
			mj.Keys = append(mj.Keys, kc)
			mj.Values = append(mj.Values, vc)
		})
		if encErr != nil {
			return ConstJSON{}, encErr
		}
		return ConstJSON{Type: "map", Map: mj}, nil
	case *value.Function:
		fj, err := EncodeFunction(obj)
		if err != nil {
			return ConstJSON{}, err
		}
		return ConstJSON{Type: "function", Function: fj}, nil
	case *value.Class:
		cj, err := EncodeClass(obj)
		if err != nil {
			return ConstJSON{}, err
		}
		return ConstJSON{Type: "class", Class: cj}, nil
	case *value.Instance:
		ij, err := encodeInstance(obj)
		if err != nil {
			return ConstJSON{}, err
		}
		return ConstJSON{Type: "instance", Instance: ij}, nil
	default:
		return ConstJSON{}, fmt.Errorf("bytecode: object type %T has no wire encoding", obj)
	}
}

func encodeInstance(inst *value.Instance) (*InstanceJSON, error) {
	className := ""
	if inst.Header.Class != nil {
		className = inst.Header.Class.Name
	}
	ij := &InstanceJSON{Class: className}
	for _, f := range inst.Fields {
		c, err := EncodeValue(f)
		if err != nil {
			return nil, err
		}
		ij.Ivars = append(ij.Ivars, c)
	}
	return ij, nil
}

// EncodeFunction renders a Function object per spec.md §6.
func EncodeFunction(fn *value.Function) (*FunctionJSON, error) {
	fj := &FunctionJSON{
		Identifier: fn.Identifier,
		Tag:        tagName(fn.Tag),
		NParams:    fn.NParams,
		NLocals:    fn.NLocals,
		NTemps:     fn.NTemps,
		NUpvalues:  fn.NUpvalues,
		UseArgs:    fn.UsesArgs,
		Purity:     fn.Purity,
		Bytecode:   EncodeInstructions(fn.Bytecode),
		PNames:     fn.ParamNames,
	}
	for _, c := range fn.Constants {
		cj, err := EncodeValue(c)
		if err != nil {
			return nil, err
		}
		fj.Pool = append(fj.Pool, cj)
	}
	for _, d := range fn.Defaults {
		cj, err := EncodeValue(d)
		if err != nil {
			return nil, err
		}
		fj.PValues = append(fj.PValues, cj)
	}
	return fj, nil
}

// EncodeClass renders a Class object per spec.md §6. Methods are encoded
// in Inner (instance side) and Meta (static/metaclass side), sorted by
// name for deterministic output.
func EncodeClass(c *value.Class) (*ClassJSON, error) {
	cj := &ClassJSON{
		Identifier: c.Name,
		NIvar:      c.NumIvar,
		Struct:     c.IsStruct,
	}
	if c.Super != nil {
		cj.Super = c.Super.Name
	}
	for _, name := range sortedKeys(c.Methods) {
		fv := c.Methods[name]
		cj2, err := EncodeValue(fv)
		if err != nil {
			return nil, err
		}
		cj2.Str = strPtr(name)
		cj.Inner = append(cj.Inner, cj2)
	}
	if c.Meta != nil {
		cj.SIvar = c.Meta.NumIvar
		for _, name := range sortedKeys(c.Meta.Methods) {
			fv := c.Meta.Methods[name]
			cj2, err := EncodeValue(fv)
			if err != nil {
				return nil, err
			}
			cj2.Str = strPtr(name)
			cj.Meta = append(cj.Meta, cj2)
		}
	}
	return cj, nil
}

func strPtr(s string) *string { return &s }

func sortedKeys(m map[string]value.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// insertion sort: avoids importing "sort" for what is typically a
	// handful of methods per class, and keeps this package dependency-free
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
