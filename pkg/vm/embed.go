package vm

import (
	"github.com/kristofer/gravity/pkg/bytecode"
	"github.com/kristofer/gravity/pkg/value"
)

// LoadModule deserializes a compiled unit (spec.md §6) and runs its
// `$moduleinit` closure on a fresh fiber, mirroring the embedding API's
// module-load operation (spec.md §4.1).
func (vm *VM) LoadModule(unit *bytecode.Unit) (value.Value, error) {
	fn, err := bytecode.DecodeUnit(unit)
	if err != nil {
		return value.Value{}, err
	}
	fn.Identifier = "$moduleinit"
	closure := vm.allocClosure(fn)
	return vm.RunClosure(closure, nil)
}

// RegisterValue binds a host value under name in the VM's global
// namespace, the embedding API's "value registration" operation.
func (vm *VM) RegisterValue(name string, v value.Value) { vm.SetGlobal(name, v) }

// RegisterNativeFunction binds a Go callback as a callable global,
// without a bridged class.
func (vm *VM) RegisterNativeFunction(name string, fn value.NativeCallback) {
	closure := vm.allocClosure(value.NewInternalFunction(name, fn))
	vm.SetGlobal(name, value.Obj(closure))
}

// NewBridgedInstance allocates an Instance whose xdata is owned by the
// embedder (spec.md §4.1's bridged-object model), invoking the
// Delegate's BridgeAllocate hook if one is installed.
func (vm *VM) NewBridgedInstance(class *value.Class, args []value.Value) (*value.Instance, error) {
	inst := vm.allocInstance(class)
	if vm.delegate.BridgeAllocate != nil {
		xdata, err := vm.delegate.BridgeAllocate(vm, class)
		if err != nil {
			return nil, err
		}
		inst.Bridged = xdata
	}
	if vm.delegate.BridgeInitInstance != nil {
		if err := vm.delegate.BridgeInitInstance(vm, inst, args); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// Pin increments a closure's embedder-held reference count so the
// collector never reclaims it between native calls (spec.md §4.1's GC
// control knobs, "pin/unpin" for host-retained callables).
func (vm *VM) Pin(c *value.Closure) { c.RefCount++ }

// Unpin releases a previous Pin.
func (vm *VM) Unpin(c *value.Closure) {
	if c.RefCount > 0 {
		c.RefCount--
	}
}

// NewString exposes the allocator to embedders constructing arguments
// for a native callback or a RunClosure call.
func (vm *VM) NewString(s string) *value.String { return vm.allocString(s) }

// NewList exposes the allocator for embedder-constructed List arguments.
func (vm *VM) NewList(items ...value.Value) *value.List { return vm.allocList(items...) }

// NewMap exposes the allocator for embedder-constructed Map arguments.
func (vm *VM) NewMap() *value.Map { return vm.allocMap() }

// NewInstance exposes the allocator for a plain (non-bridged) instance
// of a script-defined class.
func (vm *VM) NewInstance(class *value.Class) *value.Instance { return vm.allocInstance(class) }

// NewClosure wraps a Function (native bytecode, an Internal callback,
// or a Bridged entry point) as a callable Closure, for embedders that
// build Function values directly rather than through LoadModule.
func (vm *VM) NewClosure(fn *value.Function) *value.Closure { return vm.allocClosure(fn) }

// ObjectSuper exposes the root Object class so optional modules can
// parent their static classes onto it without importing package vm's
// internals.
func (vm *VM) ObjectSuper() *value.Class { return vm.ObjectClass }

// StringifyResult renders a value the way Object.toString's default
// path does, for hosts (like cmd/gravity) that want to print a
// top-level result without running script-level toString dispatch.
func (vm *VM) StringifyResult(v value.Value) string { return vm.stringify(v) }

// MemAllocated reports the collector's current live-bytes estimate
// (spec.md §4.7), for embedders monitoring heap growth across GC cycles.
func (vm *VM) MemAllocated() int64 { return vm.gc.allocated }
