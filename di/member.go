package di

import (
	"reflect"
)

// Member is one injection point of an owner type.
//
// For instance members, owner is a pointer to the instance. Static members
// receive the zero reflect.Value and ignore it.
type Member interface {
	Name() string
	Kind() MemberKind
	// Type is the type resolved against the registry.
	Type() reflect.Type
	Static() bool
	// Assign stores v, which is assignable to Type.
	Assign(owner, v reflect.Value) error
	// Clear resets the member to its zero value and reports whether it
	// could.
	Clear(owner reflect.Value) bool
}

// Constructor is a single-parameter constructor for a type.
type Constructor interface {
	// Param is the type resolved against the registry.
	Param() reflect.Type
	Call(arg reflect.Value) (reflect.Value, error)
}

// Discoverer reports the injection points of types. The engine never
// inspects types itself.
type Discoverer interface {
	// Members returns the injection points of owner, a non-pointer type.
	Members(owner reflect.Type) []Member
	// Constructor returns the constructor producing t, if any.
	Constructor(t reflect.Type) (Constructor, bool)
	// IsStatic reports whether t is a static owner: members only, never
	// instantiated.
	IsStatic(t reflect.Type) bool
}

// Chain combines discoverers. For each query the first discoverer with a
// non-empty answer wins.
type Chain []Discoverer

// Members implements Discoverer.
func (c Chain) Members(owner reflect.Type) []Member {
	for _, d := range c {
		if m := d.Members(owner); len(m) > 0 {
			return m
		}
	}
	return nil
}

// Constructor implements Discoverer.
func (c Chain) Constructor(t reflect.Type) (Constructor, bool) {
	for _, d := range c {
		if ctor, ok := d.Constructor(t); ok {
			return ctor, true
		}
	}
	return nil, false
}

// IsStatic implements Discoverer.
func (c Chain) IsStatic(t reflect.Type) bool {
	for _, d := range c {
		if d.IsStatic(t) {
			return true
		}
	}
	return false
}

// funcConstructor adapts a func(P) T or func(P) (T, error).
type funcConstructor struct {
	fn    reflect.Value
	param reflect.Type
}

func (c funcConstructor) Param() reflect.Type { return c.param }

func (c funcConstructor) Call(arg reflect.Value) (reflect.Value, error) {
	return callFunc(c.fn, []reflect.Value{arg})
}
