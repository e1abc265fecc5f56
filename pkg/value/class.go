package value

// Class is the heap Object backing every Gravity class and metaclass.
//
// Method lookup walks Class -> Class.Super -> ... and stops at Object
// (Super == nil). Anonymous per-instance classes (spec.md §3, prefix
// "$$") are injected above an instance's class on first bind to host
// per-instance methods without mutating the shared class.
type Class struct {
	Header

	Name       string
	Meta       *Class // every class has a metaclass; a metaclass's own Meta is nil
	Super      *Class
	NumIvar    int // instance-variable slot count, grows when subclassed
	IsStruct   bool
	IsInited   bool
	HasOuter   bool
	Anonymous  bool // true for "$$"-prefixed per-instance classes

	Methods   map[string]Value // name -> Closure/Function/Special value
	Statics   map[string]Value // metaclass-level ("static") storage
	IvarIndex map[string]int   // ivar name -> Instance.Fields slot, assigned on first store

	// Bridged is the embedder's opaque xdata for a native class, invoked
	// through vm.Delegate callbacks (spec.md §4.1). Nil for pure script
	// classes.
	Bridged interface{}
}

func (c *Class) TypeName() string { return "Class" }

// NewClass allocates a class whose metaclass is freshly created too.
// The metaclass's header class is the metaclass itself and its Meta and
// Super are nil, so no metaclass, the root Object's included, is linked
// to the core Class class.
func NewClass(name string, super *Class) *Class {
	c := &Class{
		Name:    name,
		Super:   super,
		Methods: make(map[string]Value),
		Statics: make(map[string]Value),
	}
	c.Header.Class = nil // patched by the metaclass wiring below
	meta := &Class{
		Name:    "meta:" + name,
		Methods: make(map[string]Value),
		Statics: make(map[string]Value),
	}
	c.Meta = meta
	meta.Header.Class = meta // a metaclass's class is itself in the bootstrap core
	c.Header.Class = meta
	return c
}

// Lookup walks the superclass chain for a v-table key or method name.
// Returns the defining class alongside the value so callers (e.g. super
// dispatch) can resume the search one level below it.
func (c *Class) Lookup(name string) (Value, *Class, bool) {
	for cur := c; cur != nil; cur = cur.Super {
		if v, ok := cur.Methods[name]; ok {
			return v, cur, true
		}
	}
	return Value{}, nil, false
}

// LookupFrom starts the walk at `from` (used for super sends: from is
// the class that defined the calling method, so lookup begins at its
// superclass).
func LookupFrom(from *Class, name string) (Value, *Class, bool) {
	if from == nil {
		return Value{}, nil, false
	}
	return from.Super.Lookup(name)
}

// IvarSlot returns the Instance.Fields index bound to name, assigning
// the next free slot (and growing NumIvar) the first time name is
// stored to, matching the dynamic-ivar convention implied by dot-sugar
// field assignment having no compiled slot index to work from.
func (c *Class) IvarSlot(name string) int {
	if c.IvarIndex == nil {
		c.IvarIndex = make(map[string]int)
	}
	if idx, ok := c.IvarIndex[name]; ok {
		return idx
	}
	idx := c.NumIvar
	c.IvarIndex[name] = idx
	c.NumIvar++
	return idx
}

// IsA reports whether c is class, or a transitive subclass of class,
// implementing the ISA opcode's superclass walk.
func (c *Class) IsA(class *Class) bool {
	for cur := c; cur != nil; cur = cur.Super {
		if cur == class {
			return true
		}
	}
	return false
}

// Instance is a heap object: a pointer to its runtime class plus an
// ivar slot array sized by the class (spec.md §3).
type Instance struct {
	Header
	Fields []Value

	// Bridged is the embedder's opaque xdata for a native instance.
	Bridged interface{}
}

func (i *Instance) TypeName() string { return "Instance" }

// NewInstance allocates ivar storage sized to class.NumIvar, defaulting
// every slot to Null per spec.md's convention that uninitialized ivars
// read as null rather than panicking.
func NewInstance(class *Class) *Instance {
	inst := &Instance{Fields: make([]Value, class.NumIvar)}
	for i := range inst.Fields {
		inst.Fields[i] = Null()
	}
	inst.Header.Class = class
	return inst
}

// Module is a named export table (spec.md §3); used for `$moduleinit`
// globals population and for embedder-registered native modules.
type Module struct {
	Header
	Name    string
	Exports map[string]Value
}

func (m *Module) TypeName() string { return "Module" }

func NewModule(name string) *Module {
	return &Module{Name: name, Exports: make(map[string]Value)}
}
