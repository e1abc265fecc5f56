package bytecode

import (
	"encoding/json"
	"testing"

	"github.com/kristofer/gravity/pkg/value"
	"github.com/stretchr/testify/require"
)

func TestInstructionHexRoundTrip(t *testing.T) {
	code := []uint32{0x04000001, 0x18040005, 0xFFFFFFFF, 0}
	hexStr := EncodeInstructions(code)
	require.Equal(t, len(code)*8, len(hexStr))

	decoded, err := DecodeInstructions(hexStr)
	require.NoError(t, err)
	require.Equal(t, code, decoded)
}

func TestDecodeInstructionsRejectsOddLength(t *testing.T) {
	_, err := DecodeInstructions("ABC")
	require.Error(t, err)
}

func TestFunctionJSONRoundTrip(t *testing.T) {
	fn := value.NewNativeFunction("counter", []uint32{0x01, 0x02}, []value.Value{
		value.Int(42),
		value.Float(3.5),
		value.Obj(value.NewString("hello")),
	}, 1, 2, 0, 1)
	fn.ParamNames = []string{"start"}

	fj, err := EncodeFunction(fn)
	require.NoError(t, err)

	raw, err := json.Marshal(fj)
	require.NoError(t, err)

	var roundFj FunctionJSON
	require.NoError(t, json.Unmarshal(raw, &roundFj))

	decoded, err := DecodeFunction(&roundFj)
	require.NoError(t, err)

	require.Equal(t, fn.Identifier, decoded.Identifier)
	require.Equal(t, fn.Bytecode, decoded.Bytecode)
	require.Equal(t, fn.ParamNames, decoded.ParamNames)
	require.Len(t, decoded.Constants, 3)
	require.True(t, decoded.Constants[0].IsInt())
	require.Equal(t, int64(42), decoded.Constants[0].AsInt())
	require.True(t, decoded.Constants[2].IsObject())
	require.Equal(t, "hello", decoded.Constants[2].String().Value())
}

func TestClassJSONRoundTripResolvesSuperByName(t *testing.T) {
	base := value.NewClass("Animal", nil)
	base.NumIvar = 1
	sub := value.NewClass("Dog", base)
	sub.NumIvar = 2
	sub.Methods["bark"] = value.Obj(value.NewNativeFunction("bark", nil, nil, 0, 0, 0, 0))

	cj, err := EncodeClass(sub)
	require.NoError(t, err)
	require.Equal(t, "Animal", cj.Super)

	baseCj, err := EncodeClass(base)
	require.NoError(t, err)

	// Super resolution is a whole-module, second-pass operation (spec.md
	// §6): Dog's encoding only names "Animal", so both classes must be
	// decoded through one shared context for the reference to resolve.
	moduleInit := &FunctionJSON{
		Identifier: "$moduleinit",
		Tag:        "native",
		Bytecode:   "",
		Pool:       []ConstJSON{{Type: "class", Class: baseCj}, {Type: "class", Class: cj}},
	}
	decodedFn, err := DecodeFunction(moduleInit)
	require.NoError(t, err)
	require.Len(t, decodedFn.Constants, 2)

	dog := decodedFn.Constants[1].ClassObj()
	require.NotNil(t, dog)
	require.Equal(t, "Dog", dog.Name)
	require.NotNil(t, dog.Super)
	require.Equal(t, "Animal", dog.Super.Name)
}
