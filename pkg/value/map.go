package value

import "github.com/kristofer/gravity/pkg/hash"

// Map is Gravity's Value->Value hash table object (spec.md §3), built on
// the shared chained hash table in package hash.
type Map struct {
	Header
	Table *hash.Table[Value, Value]
}

func (m *Map) TypeName() string { return "Map" }

func NewMap() *Map {
	return &Map{Table: hash.New[Value, Value](HashValue, func(a, b Value) bool { return Equal(a, b) })}
}

func (m *Map) Len() int { return m.Table.Len() }

// Equal implements §4.6 "Maps compare by multiset of key-value pairs":
// same size, and every key in m has an equal value in o.
func (m *Map) Equal(o *Map) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil || m.Table.Len() != o.Table.Len() {
		return false
	}
	match := true
	m.Table.Each(func(k, v Value) {
		if !match {
			return
		}
		ov, ok := o.Table.Get(k)
		if !ok || !Equal(v, ov) {
			match = false
		}
	})
	return match
}
