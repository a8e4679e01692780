package di

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/kbukum/bindkit/errors"
	"github.com/kbukum/bindkit/typeid"
)

// Manifest is an explicit Discoverer: every injection point is declared up
// front, typically by generated code, and nothing is found by scanning.
type Manifest struct {
	mu      sync.RWMutex
	entries map[typeid.ID]*manifestEntry
}

type manifestEntry struct {
	members []Member
	ctor    Constructor
	static  bool
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{entries: make(map[typeid.ID]*manifestEntry)}
}

func (m *Manifest) entry(t reflect.Type) *manifestEntry {
	id := typeid.For(t)
	e, ok := m.entries[id]
	if !ok {
		e = &manifestEntry{}
		m.entries[id] = e
	}
	return e
}

// Add appends members to the injection points of owner.
func (m *Manifest) Add(owner reflect.Type, members ...Member) *Manifest {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(owner)
	e.members = append(e.members, members...)
	return m
}

// AddStatic declares owner static and appends members to it.
func (m *Manifest) AddStatic(owner reflect.Type, members ...Member) *Manifest {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(owner)
	e.static = true
	e.members = append(e.members, members...)
	return m
}

// SetConstructor declares fn, a func(P) T or func(P) (T, error), as the
// constructor of T.
func (m *Manifest) SetConstructor(fn any) error {
	v, out, err := checkFunc(fn, "constructor")
	if err != nil {
		return err
	}
	if v.Type().NumIn() != 1 {
		return errors.TypeMismatch(fmt.Sprintf("constructor must take exactly one parameter, got %s", v.Type()))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(out).ctor = funcConstructor{fn: v, param: v.Type().In(0)}
	return nil
}

// Members implements Discoverer.
func (m *Manifest) Members(owner reflect.Type) []Member {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[typeid.For(owner)]; ok {
		return e.members
	}
	return nil
}

// Constructor implements Discoverer.
func (m *Manifest) Constructor(t reflect.Type) (Constructor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[typeid.For(t)]; ok && e.ctor != nil {
		return e.ctor, true
	}
	return nil, false
}

// IsStatic implements Discoverer.
func (m *Manifest) IsStatic(t reflect.Type) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[typeid.For(t)]
	return ok && e.static
}

// --- Typed members ---

type typedMember[O, V any] struct {
	name   string
	kind   MemberKind
	static bool
	set    func(o *O, v V) error
	clear  func(o *O)
}

func (m *typedMember[O, V]) Name() string       { return m.name }
func (m *typedMember[O, V]) Kind() MemberKind   { return m.kind }
func (m *typedMember[O, V]) Type() reflect.Type { return typeid.Of[V]() }
func (m *typedMember[O, V]) Static() bool       { return m.static }

func (m *typedMember[O, V]) Assign(owner, v reflect.Value) error {
	o, err := m.owner(owner)
	if err != nil {
		return err
	}
	val, ok := v.Interface().(V)
	if !ok {
		return errors.NotAssignable(typeid.Of[V](), v.Type())
	}
	return m.set(o, val)
}

func (m *typedMember[O, V]) Clear(owner reflect.Value) bool {
	if m.clear == nil {
		return false
	}
	o, err := m.owner(owner)
	if err != nil {
		return false
	}
	m.clear(o)
	return true
}

func (m *typedMember[O, V]) owner(owner reflect.Value) (*O, error) {
	if m.static {
		return nil, nil
	}
	if !owner.IsValid() {
		return nil, errors.InvalidState(fmt.Sprintf("%s %s needs an instance", m.kind, m.name))
	}
	o, ok := owner.Interface().(*O)
	if !ok || o == nil {
		return nil, errors.NotAssignable(reflect.TypeOf((*O)(nil)), owner.Type())
	}
	return o, nil
}

// FieldMember declares a field of O, reached through ref.
func FieldMember[O, V any](name string, ref func(*O) *V) Member {
	return &typedMember[O, V]{
		name:  name,
		kind:  KindField,
		set:   func(o *O, v V) error { *ref(o) = v; return nil },
		clear: func(o *O) { var zero V; *ref(o) = zero },
	}
}

// PropertyMember declares a value of O written through set.
func PropertyMember[O, V any](name string, set func(*O, V)) Member {
	return &typedMember[O, V]{
		name:  name,
		kind:  KindProperty,
		set:   func(o *O, v V) error { set(o, v); return nil },
		clear: func(o *O) { var zero V; set(o, zero) },
	}
}

// MethodMember declares a single-argument method of O, usually given as a
// method expression such as (*Service).InjectLogger.
func MethodMember[O, V any](name string, fn func(*O, V)) Member {
	return &typedMember[O, V]{
		name: name,
		kind: KindMethod,
		set:  func(o *O, v V) error { fn(o, v); return nil },
	}
}

// VarMember declares a static injection point backed by a variable, usually
// package level.
func VarMember[V any](name string, ptr *V) Member {
	return &typedMember[struct{}, V]{
		name:   name,
		kind:   KindField,
		static: true,
		set:    func(_ *struct{}, v V) error { *ptr = v; return nil },
		clear:  func(*struct{}) { var zero V; *ptr = zero },
	}
}

// FuncMember declares a static single-argument function as an injection
// point.
func FuncMember[V any](name string, fn func(V)) Member {
	return &typedMember[struct{}, V]{
		name:   name,
		kind:   KindMethod,
		static: true,
		set:    func(_ *struct{}, v V) error { fn(v); return nil },
	}
}
