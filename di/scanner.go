package di

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/kbukum/bindkit/errors"
	"github.com/kbukum/bindkit/typeid"
)

// TagName marks struct fields as injection points: `inject:""`. The value
// "-" excludes a field.
const TagName = "inject"

// MethodPrefix marks methods as injection points. Exported methods of *T
// named Inject<Something> taking one argument, returning nothing or an
// error, are called with the resolved value.
const MethodPrefix = "Inject"

// Scanner discovers injection points by reflection and caches the result
// per type. Constructors and static owners cannot be discovered by
// reflection and are registered explicitly.
type Scanner struct {
	mu      sync.RWMutex
	scanned map[typeid.ID][]Member
	ctors   map[typeid.ID]Constructor
	statics map[typeid.ID][]Member
}

// NewScanner creates an empty scanner.
func NewScanner() *Scanner {
	return &Scanner{
		scanned: make(map[typeid.ID][]Member),
		ctors:   make(map[typeid.ID]Constructor),
		statics: make(map[typeid.ID][]Member),
	}
}

// RegisterConstructor registers fn, a func(P) T or func(P) (T, error), as
// the constructor of T. P is resolved against the registry when T is
// created.
func (s *Scanner) RegisterConstructor(fn any) error {
	v, out, err := checkFunc(fn, "constructor")
	if err != nil {
		return err
	}
	if v.Type().NumIn() != 1 {
		return errors.TypeMismatch(fmt.Sprintf("constructor must take exactly one parameter, got %s", v.Type()))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctors[typeid.For(out)] = funcConstructor{fn: v, param: v.Type().In(0)}
	return nil
}

// RegisterStatic declares t a static owner with the given members, which
// must all be static. Registering t again replaces its members.
func (s *Scanner) RegisterStatic(t reflect.Type, members ...Member) error {
	if t == nil {
		return errors.NullArgument("type")
	}
	for _, m := range members {
		if m == nil {
			return errors.NullArgument("member")
		}
		if !m.Static() {
			return errors.TypeMismatch(fmt.Sprintf("member %s of static type %s is not static", m.Name(), t))
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statics[typeid.For(t)] = append([]Member(nil), members...)
	return nil
}

// Members implements Discoverer.
func (s *Scanner) Members(owner reflect.Type) []Member {
	if owner == nil {
		return nil
	}
	id := typeid.For(owner)
	s.mu.RLock()
	if m, ok := s.statics[id]; ok {
		s.mu.RUnlock()
		return m
	}
	m, ok := s.scanned[id]
	s.mu.RUnlock()
	if ok {
		return m
	}

	m = scan(owner)
	s.mu.Lock()
	s.scanned[id] = m
	s.mu.Unlock()
	return m
}

// Constructor implements Discoverer.
func (s *Scanner) Constructor(t reflect.Type) (Constructor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.ctors[typeid.For(t)]
	return c, ok
}

// IsStatic implements Discoverer.
func (s *Scanner) IsStatic(t reflect.Type) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.statics[typeid.For(t)]
	return ok
}

func scan(owner reflect.Type) []Member {
	var members []Member
	if owner.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(owner) {
			tag, ok := f.Tag.Lookup(TagName)
			if !ok || tag == "-" || !f.IsExported() || throughPointer(owner, f.Index) {
				continue
			}
			members = append(members, &structField{name: f.Name, index: f.Index, typ: f.Type})
		}
	}
	if owner.Kind() == reflect.Interface || owner.Kind() == reflect.Pointer {
		return members
	}
	pt := reflect.PointerTo(owner)
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if !strings.HasPrefix(m.Name, MethodPrefix) || !injectable(m.Type) {
			continue
		}
		members = append(members, &structMethod{name: m.Name, typ: m.Type.In(1)})
	}
	return members
}

// injectable reports whether a method type (receiver included) takes one
// argument and returns nothing or an error.
func injectable(mt reflect.Type) bool {
	if mt.NumIn() != 2 || mt.IsVariadic() {
		return false
	}
	return mt.NumOut() == 0 || (mt.NumOut() == 1 && mt.Out(0) == errorType)
}

// throughPointer reports whether a promoted field is reached through an
// embedded pointer, which may be nil.
func throughPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Pointer {
			return true
		}
		t = f.Type
	}
	return false
}

type structField struct {
	name  string
	index []int
	typ   reflect.Type
}

func (f *structField) Name() string       { return f.name }
func (f *structField) Kind() MemberKind   { return KindField }
func (f *structField) Type() reflect.Type { return f.typ }
func (f *structField) Static() bool       { return false }

func (f *structField) Assign(owner, v reflect.Value) error {
	field, err := f.field(owner)
	if err != nil {
		return err
	}
	field.Set(v)
	return nil
}

func (f *structField) Clear(owner reflect.Value) bool {
	field, err := f.field(owner)
	if err != nil {
		return false
	}
	field.SetZero()
	return true
}

func (f *structField) field(owner reflect.Value) (reflect.Value, error) {
	if !owner.IsValid() || owner.Kind() != reflect.Pointer || owner.IsNil() {
		return reflect.Value{}, errors.InvalidState(fmt.Sprintf("field %s needs an instance", f.name))
	}
	return owner.Elem().FieldByIndex(f.index), nil
}

type structMethod struct {
	name string
	typ  reflect.Type
}

func (m *structMethod) Name() string       { return m.name }
func (m *structMethod) Kind() MemberKind   { return KindMethod }
func (m *structMethod) Type() reflect.Type { return m.typ }
func (m *structMethod) Static() bool       { return false }

// Assign calls the method with v. A panic in the method is returned as a
// CONSTRUCTION_ERROR wrapping the panic value.
func (m *structMethod) Assign(owner, v reflect.Value) (err error) {
	if !owner.IsValid() || owner.Kind() != reflect.Pointer || owner.IsNil() {
		return errors.InvalidState(fmt.Sprintf("method %s needs an instance", m.name))
	}
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			err = errors.New(errors.ErrCodeConstruction,
				fmt.Sprintf("method %s.%s panicked", owner.Type().Elem(), m.name)).WithCause(cause)
		}
	}()
	out := owner.MethodByName(m.name).Call([]reflect.Value{v})
	if len(out) == 1 {
		if err, _ := out[0].Interface().(error); err != nil {
			return err
		}
	}
	return nil
}

func (m *structMethod) Clear(reflect.Value) bool { return false }
