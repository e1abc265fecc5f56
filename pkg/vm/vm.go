package vm

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kristofer/gravity/pkg/hash"
	"github.com/kristofer/gravity/pkg/value"
)

// Delegate is the embedder's callback surface (spec.md §4.1's "delegate
// callbacks"): error reporting plus the bridged-object hooks a host
// application installs to own native instance lifetimes. Every method is
// optional; a nil Delegate (or nil field) falls back to the VM's
// built-in behavior.
type Delegate struct {
	ReportError func(kind ErrorKind, message string, line, col int)

	BridgeAllocate   func(vm *VM, class *value.Class) (interface{}, error)
	BridgeFree       func(vm *VM, xdata interface{})
	BridgeClone      func(vm *VM, xdata interface{}) interface{}
	BridgeEquals     func(vm *VM, a, b interface{}) bool
	BridgeString     func(vm *VM, xdata interface{}) string
	BridgeGetValue   func(vm *VM, xdata interface{}, key string) (value.Value, bool)
	BridgeSetValue   func(vm *VM, xdata interface{}, key string, v value.Value) bool
	BridgeInitInstance func(vm *VM, inst *value.Instance, args []value.Value) error
}

// VM is one Gravity runtime: its core classes, global namespace, garbage
// collector, and the set of fibers it is currently scheduling.
type VM struct {
	cfg      Config
	gc       *GC
	delegate Delegate

	globals *hash.Table[string, value.Value]

	// Core classes, bootstrapped once at NewVM time (spec.md §3/§6's
	// reserved identifier list).
	ObjectClass   *value.Class
	ClassClass    *value.Class
	IntClass      *value.Class
	FloatClass    *value.Class
	BoolClass     *value.Class
	NullClass     *value.Class
	UndefinedClass *value.Class
	StringClass   *value.Class
	FunctionClass *value.Class
	ClosureClass  *value.Class
	FiberClass    *value.Class
	InstanceClass *value.Class
	ListClass     *value.Class
	MapClass      *value.Class
	RangeClass    *value.Class
	UpvalueClass  *value.Class
	SystemClass   *value.Class

	fibers  []*value.Fiber
	current *value.Fiber

	debugLevel DebugLevel
	breakpoints map[int]bool
}

func strHash(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// NewVM bootstraps a VM's core class hierarchy and global namespace.
func NewVM(cfg Config, delegate Delegate) *VM {
	vm := &VM{
		cfg:         cfg,
		gc:          newGC(cfg),
		delegate:    delegate,
		globals:     hash.New[string, value.Value](strHash, func(a, b string) bool { return a == b }),
		breakpoints: make(map[int]bool),
	}
	vm.bootstrapCoreClasses()
	vm.registerCoreMethods()
	return vm
}

// allocString, allocList, ... register a freshly built heap object on
// the collector's object list; every allocation the VM performs for
// script code routes through one of these rather than the bare
// value.New* constructors so the GC can find it.

func (vm *VM) allocString(s string) *value.String {
	o := value.NewString(s)
	o.Header.Class = vm.StringClass
	vm.gc.register(o)
	vm.maybeCollect()
	return o
}

func (vm *VM) allocList(items ...value.Value) *value.List {
	o := value.NewList(items...)
	o.Header.Class = vm.ListClass
	vm.gc.register(o)
	vm.maybeCollect()
	return o
}

func (vm *VM) allocMap() *value.Map {
	o := value.NewMap()
	o.Header.Class = vm.MapClass
	vm.gc.register(o)
	vm.maybeCollect()
	return o
}

func (vm *VM) allocRange(from, to int64, inclusive bool) *value.Range {
	o := value.NewRange(from, to, inclusive)
	o.Header.Class = vm.RangeClass
	vm.gc.register(o)
	vm.maybeCollect()
	return o
}

func (vm *VM) allocInstance(class *value.Class) *value.Instance {
	o := value.NewInstance(class)
	vm.gc.register(o)
	vm.maybeCollect()
	return o
}

func (vm *VM) allocClosure(fn *value.Function) *value.Closure {
	o := value.NewClosure(fn)
	o.Header.Class = vm.ClosureClass
	vm.gc.register(o)
	vm.maybeCollect()
	return o
}

func (vm *VM) allocFiber() *value.Fiber {
	f := value.NewFiber()
	f.Header.Class = vm.FiberClass
	f.ID = uuid.NewString()
	vm.gc.register(f)
	vm.fibers = append(vm.fibers, f)
	vm.maybeCollect()
	return f
}

// Global reads a VM-level global variable (spec.md §4.2's shared string-
// keyed table, backing LOADG/STOREG).
func (vm *VM) Global(name string) (value.Value, bool) { return vm.globals.Get(name) }

// SetGlobal writes a VM-level global.
func (vm *VM) SetGlobal(name string, v value.Value) { vm.globals.Set(name, v) }

// DefineClass registers a class under its name as a global, the
// embedding-API operation SPEC_FULL.md names for binding optional
// modules (Math, File, Json, Http, Env) into a VM instance.
func (vm *VM) DefineClass(class *value.Class) {
	vm.globals.Set(class.Name, value.Obj(class))
}

// gcRoots collects the VM's globals as GC roots for GC.Collect; the
// fibers are passed to Collect separately by CollectGarbage.
func (vm *VM) gcRoots() [][]value.Value {
	vals := make([]value.Value, 0, vm.globals.Len())
	vm.globals.Each(func(_ string, v value.Value) { vals = append(vals, v) })
	return [][]value.Value{vals}
}

// CollectGarbage runs one GC cycle immediately, bypassing the threshold
// check — the embedding API's explicit collection hook.
func (vm *VM) CollectGarbage() {
	vm.gc.Collect(vm.gcRoots(), vm.fibers)
}

// GCSetEnabled toggles automatic collection (spec.md §4.7 GC control
// knobs in the embedding API).
func (vm *VM) GCSetEnabled(enabled bool) { vm.gc.SetEnabled(enabled) }

func (vm *VM) maybeCollect() {
	if vm.gc.ShouldCollect() {
		vm.CollectGarbage()
	}
}

func (vm *VM) reportError(kind ErrorKind, msg string) {
	if vm.delegate.ReportError != nil {
		vm.delegate.ReportError(kind, msg, 0, 0)
	}
}

func (vm *VM) runtimeErrorf(f *value.Fiber, format string, args ...interface{}) *RuntimeError {
	msg := fmt.Sprintf(format, args...)
	vm.reportError(ErrorRuntime, msg)
	return newRuntimeError(msg, captureStack(f))
}
