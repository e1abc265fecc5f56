package optional_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/gravity/pkg/optional"
	"github.com/kristofer/gravity/pkg/value"
	"github.com/kristofer/gravity/pkg/vm"
)

// callStatic drives a native Function's callback directly, standing in
// for the dispatch the interpreter's OpINVOKE case performs, since
// these tests exercise the optional modules in isolation from a
// running fiber.
func callStatic(t *testing.T, class *value.Class, name string, args ...value.Value) value.Value {
	t.Helper()
	fnVal, ok := class.Meta.Methods[name]
	require.True(t, ok, "method %s not registered", name)
	fn := fnVal.Obj.(*value.Function)
	require.NotNil(t, fn.Internal)

	result := make([]value.Value, 1)
	ok = fn.Internal(testCtx{result: result}, append([]value.Value{value.Null()}, args...), 0)
	require.True(t, ok)
	return result[0]
}

type testCtx struct{ result []value.Value }

func (c testCtx) Set(rindex uint32, v value.Value) { c.result[rindex] = v }

func newVM(t *testing.T) *vm.VM {
	t.Helper()
	return vm.NewVM(vm.DefaultConfig(), vm.Delegate{})
}

func TestMathSqrtAndPow(t *testing.T) {
	m := newVM(t)
	cls := optional.NewMathClass(m)
	got := callStatic(t, cls, "sqrt", value.Float(16))
	require.Equal(t, 4.0, got.ToFloat64())

	got = callStatic(t, cls, "pow", value.Float(2), value.Float(10))
	require.Equal(t, 1024.0, got.ToFloat64())
}

func TestFileWriteReadRoundTrip(t *testing.T) {
	m := newVM(t)
	cls := optional.NewFileClass(m)

	path := t.TempDir() + "/greeting.txt"
	ok := callStatic(t, cls, "write", value.Obj(m.NewString(path)), value.Obj(m.NewString("hello")))
	require.True(t, ok.AsBool())

	got := callStatic(t, cls, "read", value.Obj(m.NewString(path)))
	require.Equal(t, "hello", got.String().Value())

	exists := callStatic(t, cls, "exists", value.Obj(m.NewString(path)))
	require.True(t, exists.AsBool())

	removed := callStatic(t, cls, "remove", value.Obj(m.NewString(path)))
	require.True(t, removed.AsBool())
	_, statErr := os.Stat(path)
	require.Error(t, statErr)
}

func TestJsonStringifyParseRoundTrip(t *testing.T) {
	m := newVM(t)
	cls := optional.NewJsonClass(m)

	list := m.NewList(value.Int(1), value.Int(2), value.Obj(m.NewString("x")))
	got := callStatic(t, cls, "stringify", value.Obj(list))
	require.Contains(t, got.String().Value(), "\"x\"")

	parsed := callStatic(t, cls, "parse", got)
	require.NotNil(t, parsed.List())
	require.Equal(t, 3, parsed.List().Len())
	require.Equal(t, 1.0, parsed.List().Items[0].ToFloat64())
}

func TestEnvGetSetKeys(t *testing.T) {
	m := newVM(t)
	cls := optional.NewEnvClass(m)

	ok := callStatic(t, cls, "set", value.Obj(m.NewString("GRAVITY_OPTIONAL_TEST")), value.Obj(m.NewString("1")))
	require.True(t, ok.AsBool())

	got := callStatic(t, cls, "get", value.Obj(m.NewString("GRAVITY_OPTIONAL_TEST")))
	require.Equal(t, "1", got.String().Value())

	keys := callStatic(t, cls, "keys")
	require.NotNil(t, keys.List())
	found := false
	for _, k := range keys.List().Items {
		if k.String().Value() == "GRAVITY_OPTIONAL_TEST" {
			found = true
		}
	}
	require.True(t, found)
}

func TestRegisterAllBindsEveryClassAsGlobal(t *testing.T) {
	m := newVM(t)
	optional.RegisterAll(m)

	for _, name := range []string{"Math", "File", "Json", "Http", "Env"} {
		v, ok := m.Global(name)
		require.True(t, ok, "global %s not registered", name)
		require.NotNil(t, v.ClassObj())
		require.Equal(t, name, v.ClassObj().Name)
	}
}
