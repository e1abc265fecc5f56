// Package value implements the Gravity tagged value and heap object model.
//
// A Value is a small tagged pair: a runtime Class plus a payload that is
// either an inline scalar (int, float, bool) or a reference to a
// heap-allocated Object. Go has no native tagged union, so the payload is
// modeled with an explicit Kind discriminant and three scalar fields plus
// an Object reference, rather than a true 16-byte union — see DESIGN.md.
//
// Every heap Object variant embeds a Header, which is what the garbage
// collector (package vm) walks to mark, blacken and sweep the heap.
package value

import "fmt"

// Kind discriminates the payload carried by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindUndefined
	KindBool
	KindInt
	KindFloat
	KindObject
	KindError
)

// Value is the uniform representation of every Gravity runtime value.
//
// Only heap values carry a Class: Obj copies the object's header class,
// while the scalar constructors (Null, Undefined, Bool, Int, Float) and
// the error sentinel (Kind == KindError, whose Msg carries an optional
// diagnostic) leave Class nil.
type Value struct {
	Class *Class
	Kind  Kind
	n     int64   // Int payload, and Bool as 0/1
	f     float64 // Float payload
	Obj   Object  // heap reference, valid when Kind == KindObject
	Msg   string  // diagnostic text for the KindError sentinel
}

// Object is implemented by every heap-allocated, GC-managed value.
//
// The per-variant free/size/blacken GC steps are not methods of this
// interface: the collector in package vm implements them as type
// switches over the variants (freeObject, objectSize, blacken).
type Object interface {
	Header() *Header
	// TypeName returns the object variant's debug name (e.g. "String").
	TypeName() string
}

// Header is embedded at the front of every heap Object.
type Header struct {
	Class *Class
	GC    GCInfo
}

// GCInfo is the mark-sweep bookkeeping the collector maintains per object.
type GCInfo struct {
	Dark    bool    // true while gray/black during the current cycle
	Visited bool    // spare flag; the collector does not read or set it
	Next    Object  // intrusive linked-list pointer threading all live objects
	id      uint64  // allocation-order id slot; nothing assigns it
}

func (h *Header) Header() *Header { return h }

// Constructors for inline (non-heap) values. Heap constructors live next
// to their variant type (NewString, NewList, ...).

func Null() Value      { return Value{Kind: KindNull} }
func Undefined() Value { return Value{Kind: KindUndefined, n: 1} }

func Bool(b bool) Value {
	n := int64(0)
	if b {
		n = 1
	}
	return Value{Kind: KindBool, n: n}
}

func Int(i int64) Value     { return Value{Kind: KindInt, n: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, f: f} }

func Obj(o Object) Value {
	var class *Class
	if o != nil {
		class = o.Header().Class
	}
	return Value{Kind: KindObject, Obj: o, Class: class}
}

// Errorf builds the invalid/error sentinel value described in spec.md §3.
func Errorf(format string, args ...interface{}) Value {
	return Value{Kind: KindError, Msg: fmt.Sprintf(format, args...)}
}

func (v Value) IsNull() bool      { return v.Kind == KindNull }
func (v Value) IsUndefined() bool { return v.Kind == KindUndefined }
func (v Value) IsBool() bool      { return v.Kind == KindBool }
func (v Value) IsInt() bool       { return v.Kind == KindInt }
func (v Value) IsFloat() bool     { return v.Kind == KindFloat }
func (v Value) IsObject() bool    { return v.Kind == KindObject }
func (v Value) IsError() bool     { return v.Kind == KindError }

// IsValid reports whether v is not the error sentinel (spec.md §3
// invariant).
func (v Value) IsValid() bool { return v.Kind != KindError }

func (v Value) AsBool() bool       { return v.n != 0 }
func (v Value) AsInt() int64       { return v.n }
func (v Value) AsFloat() float64   { return v.f }

// IsNumber reports whether v is Int or Float.
func (v Value) IsNumber() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// ToFloat64 widens an Int value to float64 and returns a Float value's
// payload; it never panics, and for any other Kind it returns 0.
func (v Value) ToFloat64() float64 {
	if v.Kind == KindInt {
		return float64(v.n)
	}
	return v.f
}

func IsString(v Value) bool {
	s, ok := v.Obj.(*String)
	return v.Kind == KindObject && ok && s != nil
}

// String returns the heap *String if v holds one, else nil.
func (v Value) String() *String {
	if v.Kind != KindObject {
		return nil
	}
	s, _ := v.Obj.(*String)
	return s
}

func (v Value) List() *List {
	if v.Kind != KindObject {
		return nil
	}
	l, _ := v.Obj.(*List)
	return l
}

func (v Value) Map() *Map {
	if v.Kind != KindObject {
		return nil
	}
	m, _ := v.Obj.(*Map)
	return m
}

func (v Value) Instance() *Instance {
	if v.Kind != KindObject {
		return nil
	}
	i, _ := v.Obj.(*Instance)
	return i
}

func (v Value) ClassObj() *Class {
	if v.Kind != KindObject {
		return nil
	}
	c, _ := v.Obj.(*Class)
	return c
}

func (v Value) Closure() *Closure {
	if v.Kind != KindObject {
		return nil
	}
	c, _ := v.Obj.(*Closure)
	return c
}

func (v Value) Fiber() *Fiber {
	if v.Kind != KindObject {
		return nil
	}
	f, _ := v.Obj.(*Fiber)
	return f
}

func (v Value) Range() *Range {
	if v.Kind != KindObject {
		return nil
	}
	r, _ := v.Obj.(*Range)
	return r
}
