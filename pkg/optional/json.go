package optional

import (
	"encoding/json"

	"github.com/kristofer/gravity/pkg/value"
)

// NewJsonClass builds the Json static class: stringify/parse grounded
// on gravity_opt_json.c, expressed over encoding/json via an
// intermediate interface{} tree rather than a custom recursive-descent
// parser.
func NewJsonClass(h Host) *value.Class {
	cls := value.NewClass("Json", h.ObjectSuper())

	cls.Meta.Methods["stringify"] = value.Obj(value.NewInternalFunctionN("stringify", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		tree := toJSONTree(arg(args, 1))
		data, err := json.Marshal(tree)
		if err != nil {
			c.Set(rindex, value.Null())
			return true
		}
		c.Set(rindex, value.Obj(h.NewString(string(data))))
		return true
	}, 1))

	cls.Meta.Methods["parse"] = value.Obj(value.NewInternalFunctionN("parse", func(ctx interface{}, args []value.Value, rindex uint32) bool {
		c := ctx.(setter)
		var tree interface{}
		if err := json.Unmarshal([]byte(argString(args, 1)), &tree); err != nil {
			c.Set(rindex, value.Null())
			return true
		}
		c.Set(rindex, fromJSONTree(h, tree))
		return true
	}, 1))

	return cls
}

// toJSONTree converts a Gravity value into a plain Go value suitable
// for encoding/json, mirroring the round-trip gravity_opt_json.c
// performs through its own value union.
func toJSONTree(v value.Value) interface{} {
	switch {
	case v.IsNull(), v.IsUndefined():
		return nil
	case v.IsBool():
		return v.AsBool()
	case v.IsInt():
		return v.AsInt()
	case v.IsFloat():
		return v.ToFloat64()
	case v.IsObject():
		switch {
		case v.String() != nil:
			return v.String().Value()
		case v.List() != nil:
			l := v.List()
			items := make([]interface{}, len(l.Items))
			for i, it := range l.Items {
				items[i] = toJSONTree(it)
			}
			return items
		case v.Map() != nil:
			m := v.Map()
			obj := make(map[string]interface{}, m.Len())
			m.Table.Each(func(k, val value.Value) {
				obj[keyString(k)] = toJSONTree(val)
			})
			return obj
		}
	}
	return nil
}

func keyString(k value.Value) string {
	if k.IsObject() && k.String() != nil {
		return k.String().Value()
	}
	return ""
}

// fromJSONTree is the inverse of toJSONTree, reconstructing Gravity
// Null/Bool/Int/Float/String/List/Map values from a decoded
// encoding/json interface{} tree. Numbers always decode to Float since
// encoding/json represents every JSON number as float64.
func fromJSONTree(h Host, tree interface{}) value.Value {
	switch t := tree.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(t)
	case float64:
		return value.Float(t)
	case string:
		return value.Obj(h.NewString(t))
	case []interface{}:
		items := make([]value.Value, len(t))
		for i, it := range t {
			items[i] = fromJSONTree(h, it)
		}
		return value.Obj(h.NewList(items...))
	case map[string]interface{}:
		m := h.NewMap()
		for k, v := range t {
			m.Table.Set(value.Obj(h.NewString(k)), fromJSONTree(h, v))
		}
		return value.Obj(m)
	}
	return value.Null()
}
