package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// floatEpsilon is the absolute-difference tolerance for Float == Float
// comparisons (spec.md §4.6).
const floatEpsilon = 1e-9

// InstanceEqualsHook lets package vm install bridged-equality dispatch
// ("Instances with bridged xdata delegate to bridge_equals", spec.md
// §4.6) without value importing vm. Left nil, Equal falls back to
// pointer identity for instances, exactly as the spec specifies for
// instances without bridged xdata.
var InstanceEqualsHook func(a, b *Instance) bool

// Equal implements the `==` operator of spec.md §4.6: a type-class
// check followed by payload comparison.
func Equal(a, b Value) bool {
	switch {
	case a.Kind == KindNull && b.Kind == KindNull:
		return true
	case a.Kind == KindUndefined && b.Kind == KindUndefined:
		return true
	case a.Kind == KindBool && b.Kind == KindBool:
		return a.n == b.n
	case a.IsNumber() && b.IsNumber():
		if a.Kind == KindInt && b.Kind == KindInt {
			return a.n == b.n
		}
		return math.Abs(a.ToFloat64()-b.ToFloat64()) < floatEpsilon
	case a.Kind == KindObject && b.Kind == KindObject:
		return equalObjects(a.Obj, b.Obj)
	default:
		return false
	}
}

func equalObjects(a, b Object) bool {
	if a == b {
		return true
	}
	switch av := a.(type) {
	case *String:
		bv, ok := b.(*String)
		return ok && av.Equal(bv)
	case *Range:
		bv, ok := b.(*Range)
		return ok && av.Equal(bv)
	case *List:
		bv, ok := b.(*List)
		return ok && av.Equal(bv, Equal)
	case *Map:
		bv, ok := b.(*Map)
		return ok && av.Equal(bv)
	case *Instance:
		bv, ok := b.(*Instance)
		if !ok {
			return false
		}
		if av.Bridged != nil && InstanceEqualsHook != nil {
			return InstanceEqualsHook(av, bv)
		}
		return a == b
	default:
		return a == b
	}
}

// StrictEqual implements `===`: class identity then `==` (spec.md §4.6).
// Scalar values carry a nil Class, so their Kind stands in for the class:
// Int 3 and Float 3.0 are `==` but not `===`.
func StrictEqual(a, b Value) bool {
	return a.Kind == b.Kind && a.Class == b.Class && Equal(a, b)
}

// HashValue computes the hash code used by the Map/globals table
// (spec.md §4.2): Int/Bool/Null hash their integer payload, Float hashes
// its printed representation, String reuses its precomputed hash, and
// everything else hashes by object identity.
func HashValue(v Value) uint32 {
	switch v.Kind {
	case KindNull:
		return 0
	case KindUndefined:
		return 1
	case KindBool, KindInt:
		return hashInt64(v.n)
	case KindFloat:
		return fnv32([]byte(strconv.FormatFloat(v.f, 'g', -1, 64)))
	case KindObject:
		if s, ok := v.Obj.(*String); ok {
			return s.Hash
		}
		return hashPointer(v.Obj)
	default:
		return 0
	}
}

func hashInt64(n int64) uint32 {
	u := uint64(n)
	u ^= u >> 33
	u *= 0xff51afd7ed558ccd
	u ^= u >> 33
	return uint32(u)
}

func hashPointer(o Object) uint32 {
	return fnv32([]byte(fmt.Sprintf("%p", o)))
}

// ToBool implements the JUMPF-without-flag coercion rules of spec.md
// §4.3: null/undefined -> false, Bool/Int nonzero -> true, Float nonzero
// -> true, String nonempty -> true. Class-overridden Bool() conversions
// are handled one level up, in the interpreter, since they require
// method dispatch.
func ToBool(v Value) bool {
	switch v.Kind {
	case KindNull, KindUndefined:
		return false
	case KindBool, KindInt:
		return v.n != 0
	case KindFloat:
		return v.f != 0
	case KindObject:
		if s, ok := v.Obj.(*String); ok {
			return s.Len() > 0
		}
		return true
	default:
		return false
	}
}

// ToFloat implements the numeric-coercion rules of spec.md §4.6 for the
// built-in scalar kinds; String parsing needs an allocator for its
// error path and is handled by ParseNumber below.
func ToFloat(v Value) float64 {
	switch v.Kind {
	case KindInt:
		return float64(v.n)
	case KindFloat:
		return v.f
	case KindBool:
		return float64(v.n)
	default:
		return 0
	}
}

// ParseNumber parses a Gravity numeric literal string per spec.md §4.6:
// base-0 integers including 0b/0o/0x prefixes, and a dot forces Float.
func ParseNumber(s string) (Value, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Int(0), nil
	}
	if strings.ContainsAny(trimmed, ".eE") && !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	}
	n, err := strconv.ParseInt(trimmed, 0, 64)
	if err != nil {
		// fall back to float for forms ParseInt's base-0 rejects (e.g. "1e3")
		if f, ferr := strconv.ParseFloat(trimmed, 64); ferr == nil {
			return Float(f), nil
		}
		return Value{}, err
	}
	return Int(n), nil
}
