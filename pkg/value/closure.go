package value

// Upvalue is a captured variable (spec.md §3, §4.4): open while the
// defining frame is live (it aliases a stack slot via Stack/Index),
// closed afterward (it owns Closed). Open upvalues for a fiber are kept
// in a singly linked list sorted by descending stack depth so capture
// can reuse an existing Upvalue instead of allocating a duplicate.
type Upvalue struct {
	Header

	open   bool
	Stack  []Value // the owning fiber's stack slice, while open
	Index  int     // slot index into Stack, while open
	Closed Value   // owned storage, once closed

	Next *Upvalue // next-lower-address open upvalue in the fiber's list
}

func (u *Upvalue) TypeName() string { return "Upvalue" }

// NewOpenUpvalue creates an upvalue that aliases stack[index].
func NewOpenUpvalue(stack []Value, index int) *Upvalue {
	return &Upvalue{open: true, Stack: stack, Index: index}
}

func (u *Upvalue) IsOpen() bool { return u.open }

// StackIndex reports the slot this upvalue aliases while open; callers
// must check IsOpen first.
func (u *Upvalue) StackIndex() int { return u.Index }

// Get reads the current value, whether open (live stack slot) or closed
// (owned storage).
func (u *Upvalue) Get() Value {
	if u.open {
		return u.Stack[u.Index]
	}
	return u.Closed
}

// Set writes through to the live slot (open) or the owned storage
// (closed). Two closures sharing this Upvalue both observe the write,
// satisfying the invariant of spec.md §4.4.
func (u *Upvalue) Set(v Value) {
	if u.open {
		u.Stack[u.Index] = v
		return
	}
	u.Closed = v
}

// Close copies the current slot value into owned storage and redirects
// future reads/writes there, per the RET/CLOSE semantics of §4.4.
func (u *Upvalue) Close() {
	if !u.open {
		return
	}
	u.Closed = u.Stack[u.Index]
	u.open = false
	u.Stack = nil
}

// Rebase updates Index after the owning fiber's stack slice was
// reallocated (spec.md §8: "their stack pointers/indices still identify
// the same logical slots they did before").
func (u *Upvalue) Rebase(newStack []Value, delta int) {
	if !u.open {
		return
	}
	u.Index += delta
	u.Stack = newStack
}

// Closure pairs a Function with its captured Upvalues, an optional bound
// receiver ("context"), and an embedder pin count (spec.md §3).
type Closure struct {
	Header

	Fn       *Function
	Upvalues []*Upvalue
	Context  Value // optional bound receiver; Kind==KindNull when unbound
	RefCount int32 // embedder pinning, see vm.Pin/Unpin
}

func (c *Closure) TypeName() string { return "Closure" }

func NewClosure(fn *Function) *Closure {
	return &Closure{Fn: fn, Upvalues: make([]*Upvalue, fn.NUpvalues), Context: Null()}
}
