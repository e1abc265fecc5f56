package optional

import (
	"os"
	"strings"

	"github.com/kristofer/gravity/pkg/value"
)

// NewEnvClass builds the Env static class, grounded on the canonical
// gravity_opt_env.c variant (the sibling gravity_env.c in the same
// tree is an older, unused duplicate): get/set/keys over process
// environment variables.
func NewEnvClass(h Host) *value.Class {
	cls := value.NewClass("Env", h.ObjectSuper())

	cls.Meta.Methods["get"] = value.Obj(value.NewInternalFunctionN("get", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		v, ok := os.LookupEnv(argString(args, 1))
		if !ok {
			c.Set(rindex, value.Null())
			return true
		}
		c.Set(rindex, value.Obj(h.NewString(v)))
		return true
	}, 1))

	cls.Meta.Methods["set"] = value.Obj(value.NewInternalFunctionN("set", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		err := os.Setenv(argString(args, 1), argString(args, 2))
		c.Set(rindex, value.Bool(err == nil))
		return true
	}, 2))

	cls.Meta.Methods["keys"] = value.Obj(value.NewInternalFunctionN("keys", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		environ := os.Environ()
		items := make([]value.Value, len(environ))
		for i, kv := range environ {
			name, _, _ := strings.Cut(kv, "=")
			items[i] = value.Obj(h.NewString(name))
		}
		c.Set(rindex, value.Obj(h.NewList(items...)))
		return true
	}, 0))

	return cls
}
