package optional

import (
	"os"

	"github.com/kristofer/gravity/pkg/value"
)

type setter interface {
	Set(uint32, value.Value)
}

func argString(args []value.Value, i int) string {
	v := arg(args, i)
	if v.IsObject() {
		if s := v.String(); s != nil {
			return s.Value()
		}
	}
	return ""
}

// NewFileClass builds the File static class, grounded on
// gravity_opt_file.c's read/write/exists/remove entry points and the
// teacher's deleted primitives.go file helpers. Paths are resolved
// relative to the host process's working directory; no sandboxing is
// performed here, matching the original's direct os-level access.
func NewFileClass(h Host) *value.Class {
	cls := value.NewClass("File", h.ObjectSuper())

	cls.Meta.Methods["read"] = value.Obj(value.NewInternalFunctionN("read", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		data, err := os.ReadFile(argString(args, 1))
		if err != nil {
			c.Set(rindex, value.Null())
			return true
		}
		c.Set(rindex, value.Obj(h.NewString(string(data))))
		return true
	}, 1))

	cls.Meta.Methods["write"] = value.Obj(value.NewInternalFunctionN("write", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		err := os.WriteFile(argString(args, 1), []byte(argString(args, 2)), 0644)
		c.Set(rindex, value.Bool(err == nil))
		return true
	}, 2))

	cls.Meta.Methods["exists"] = value.Obj(value.NewInternalFunctionN("exists", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		_, err := os.Stat(argString(args, 1))
		c.Set(rindex, value.Bool(err == nil))
		return true
	}, 1))

	cls.Meta.Methods["remove"] = value.Obj(value.NewInternalFunctionN("remove", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		c.Set(rindex, value.Bool(os.Remove(argString(args, 1)) == nil))
		return true
	}, 1))

	return cls
}
