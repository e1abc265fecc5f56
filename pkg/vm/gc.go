package vm

import "github.com/kristofer/gravity/pkg/value"

// Config holds the tunables of spec.md §4.7's collector and the
// embedding API's trust/null-reporting knobs.
type Config struct {
	GCMinThreshold int64   // never collect below this many bytes allocated
	GCRatio        float64 // threshold = max(min, allocated*(1+ratio/100))
	SilentNull     bool    // not read by the VM: unresolved sends and properties yield null either way
	TrustUserCode  bool    // not read by the VM
}

// DefaultConfig mirrors gravity's published collector defaults.
func DefaultConfig() Config {
	return Config{
		GCMinThreshold: 1 << 20, // 1 MiB
		GCRatio:        50,      // grow by 50% of live bytes before next run
		SilentNull:     false,
		TrustUserCode:  false,
	}
}

// GC is the tri-color mark-sweep collector of spec.md §4.7. It threads
// every live object through Header.GC.Next so a full heap walk never
// needs an auxiliary set.
type GC struct {
	cfg Config

	first     value.Object // head of the intrusive all-objects list
	allocated int64        // approximate live bytes
	threshold int64

	gray     []value.Object // the gray worklist
	tempRoot []value.Value  // embedder-pinned temporary roots (GC.PushTemp/PopTemp)

	disabled bool
}

func newGC(cfg Config) *GC {
	g := &GC{cfg: cfg}
	g.threshold = cfg.GCMinThreshold
	return g
}

// register links o onto the all-objects list and accounts for its size.
// Every allocation the VM performs must go through this so the collector
// can find and eventually free it.
func (g *GC) register(o value.Object) {
	o.Header().GC.Next = g.first
	g.first = o
	g.allocated += objectSize(o)
}

// PushTemp pins v as a GC root for the duration of a native call that
// builds intermediate heap values the interpreter hasn't yet stored
// anywhere reachable (spec.md §4.7 temp-root stack).
func (g *GC) PushTemp(v value.Value) { g.tempRoot = append(g.tempRoot, v) }

// PopTemp releases the most recently pushed temporary root.
func (g *GC) PopTemp() {
	if len(g.tempRoot) > 0 {
		g.tempRoot = g.tempRoot[:len(g.tempRoot)-1]
	}
}

// SetEnabled toggles collection; the embedding API exposes this as
// vm.VM.GCSetEnabled for callers doing bulk allocation up front.
func (g *GC) SetEnabled(enabled bool) { g.disabled = !enabled }

// ShouldCollect reports whether the allocator has crossed the threshold
// computed from spec.md §4.7: max(gcminthreshold, allocated*(1+ratio/100)).
func (g *GC) ShouldCollect() bool {
	return !g.disabled && g.allocated >= g.threshold
}

// Collect runs one full mark-sweep cycle, rooted at the supplied fibers
// and any embedder-held globals/registered values.
func (g *GC) Collect(roots [][]value.Value, fibers []*value.Fiber) {
	if g.disabled {
		return
	}
	g.markRoots(roots, fibers)
	g.propagate()
	g.sweep()
	g.recomputeThreshold()
}

func (g *GC) markRoots(roots [][]value.Value, fibers []*value.Fiber) {
	for _, root := range roots {
		for _, v := range root {
			g.markValue(v)
		}
	}
	for _, v := range g.tempRoot {
		g.markValue(v)
	}
	for o := g.first; o != nil; o = o.Header().GC.Next {
		if c, ok := o.(*value.Closure); ok && c.RefCount > 0 {
			g.markObject(c)
		}
	}
	for _, f := range fibers {
		g.markValue(value.Obj(f))
		for _, v := range f.Stack[:f.SP] {
			g.markValue(v)
		}
		for _, cf := range f.Frames {
			if cf.Closure != nil {
				g.markValue(value.Obj(cf.Closure))
			}
			if cf.Arguments != nil {
				g.markValue(value.Obj(cf.Arguments))
			}
		}
		for u := f.OpenUpvalues; u != nil; u = u.Next {
			g.markValue(value.Obj(u))
		}
	}
}

func (g *GC) markValue(v value.Value) {
	if v.Kind != value.KindObject || v.Obj == nil {
		return
	}
	g.markObject(v.Obj)
}

func (g *GC) markObject(o value.Object) {
	h := o.Header()
	if h.GC.Dark {
		return
	}
	h.GC.Dark = true
	g.gray = append(g.gray, o)
}

// propagate blackens every gray object, marking the objects it
// references (spec.md §4.7's per-variant blacken callback).
func (g *GC) propagate() {
	for len(g.gray) > 0 {
		n := len(g.gray) - 1
		o := g.gray[n]
		g.gray = g.gray[:n]
		g.blacken(o)
	}
}

// blacken walks an object's outbound references, the Go equivalent of
// spec.md §4.7's per-variant "blacken" callback table.
func (g *GC) blacken(o value.Object) {
	if o.Header().Class != nil {
		g.markObject(o.Header().Class)
	}
	switch obj := o.(type) {
	case *value.List:
		for _, v := range obj.Items {
			g.markValue(v)
		}
	case *value.Map:
		obj.Table.Each(func(k, v value.Value) {
			g.markValue(k)
			g.markValue(v)
		})
	case *value.Instance:
		for _, v := range obj.Fields {
			g.markValue(v)
		}
	case *value.Class:
		for _, v := range obj.Methods {
			g.markValue(v)
		}
		for _, v := range obj.Statics {
			g.markValue(v)
		}
		if obj.Super != nil {
			g.markObject(obj.Super)
		}
		if obj.Meta != nil && obj.Meta != obj {
			g.markObject(obj.Meta)
		}
	case *value.Closure:
		if obj.Fn != nil {
			g.markObject(obj.Fn)
		}
		for _, uv := range obj.Upvalues {
			if uv != nil {
				g.markObject(uv)
			}
		}
		g.markValue(obj.Context)
	case *value.Function:
		for _, v := range obj.Constants {
			g.markValue(v)
		}
		for _, v := range obj.Defaults {
			g.markValue(v)
		}
		if obj.Getter != nil {
			g.markObject(obj.Getter)
		}
		if obj.Setter != nil {
			g.markObject(obj.Setter)
		}
	case *value.Upvalue:
		g.markValue(obj.Get())
	case *value.Fiber:
		for _, v := range obj.Stack[:obj.SP] {
			g.markValue(v)
		}
	case *value.Module:
		for _, v := range obj.Exports {
			g.markValue(v)
		}
	}
}

// sweep unlinks and frees every object that stayed white, matching the
// teacher's single-pass "walk the list, splice out the dead" approach.
func (g *GC) sweep() {
	var prev value.Object
	live := int64(0)
	for o := g.first; o != nil; {
		h := o.Header()
		next := h.GC.Next
		if h.GC.Dark {
			h.GC.Dark = false
			live += objectSize(o)
			prev = o
			o = next
			continue
		}
		freeObject(o)
		if prev == nil {
			g.first = next
		} else {
			prev.Header().GC.Next = next
		}
		o = next
	}
	g.allocated = live
}

func (g *GC) recomputeThreshold() {
	grown := int64(float64(g.allocated) * (1 + g.cfg.GCRatio/100))
	if grown < g.cfg.GCMinThreshold {
		grown = g.cfg.GCMinThreshold
	}
	g.threshold = grown
}

// objectSize approximates an object's heap footprint for the allocation
// threshold, the Go analogue of spec.md §4.7's per-variant size
// callback.
func objectSize(o value.Object) int64 {
	const headerSize = 32
	switch v := o.(type) {
	case *value.String:
		return headerSize + int64(len(v.Bytes))
	case *value.List:
		return headerSize + int64(len(v.Items))*24
	case *value.Map:
		return headerSize + int64(v.Table.Len())*48
	case *value.Instance:
		return headerSize + int64(len(v.Fields))*24
	case *value.Function:
		return headerSize + int64(len(v.Bytecode))*4 + int64(len(v.Constants))*24
	case *value.Closure:
		return headerSize + int64(len(v.Upvalues))*8
	case *value.Fiber:
		return headerSize + int64(len(v.Stack))*24
	default:
		return headerSize
	}
}

// freeObject runs the per-variant free callback of spec.md §4.7. Go's
// own GC reclaims the Go-heap memory once unreachable; this hook exists
// for variants that hold non-Go resources: a bridged instance's xdata is
// released by calling its own Free method, when it has one
// (Delegate.BridgeFree is not called).
func freeObject(o value.Object) {
	if inst, ok := o.(*value.Instance); ok && inst.Bridged != nil {
		if freer, ok := inst.Bridged.(interface{ Free() }); ok {
			freer.Free()
		}
	}
}
