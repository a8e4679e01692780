// Package typeid provides stable, hashable identifiers for Go types.
//
// Registries key their tables by ID rather than by reflect.Type so that the
// key is a plain comparable string that can be logged, serialized and
// produced by generated code without touching reflection metadata.
package typeid

import (
	"reflect"
	"strconv"
	"sync"
)

// ID identifies a Go type. The zero ID identifies no type.
type ID string

// None is the identifier of the absent type.
const None ID = ""

// Of returns the reflect.Type of T. Interface type parameters yield the
// interface type itself, not the type of a nil value.
func Of[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// IDOf returns the identifier of T.
func IDOf[T any]() ID {
	return For(Of[T]())
}

// interned holds the ID handed out for every type seen so far; claimed maps
// each ID back to its type. Distinct types whose spellings collide, such as
// two function-local types with the same name in one package, get "#2",
// "#3" and so on in the order they are first seen.
var (
	interned sync.Map // reflect.Type -> ID
	claimMu  sync.Mutex
	claimed  = make(map[ID]reflect.Type)
)

// For returns the identifier of t. Named types are identified by their
// import path and name; unnamed types by their full type literal, built
// recursively from the identifiers of their components. Every distinct
// type gets a distinct ID for the life of the process.
func For(t reflect.Type) ID {
	if t == nil {
		return None
	}
	if id, ok := interned.Load(t); ok {
		return id.(ID)
	}
	// Spell outside the lock: components are interned through For.
	base := ID(name(t))

	claimMu.Lock()
	defer claimMu.Unlock()
	if id, ok := interned.Load(t); ok {
		return id.(ID)
	}
	id := base
	for n := 2; ; n++ {
		owner, taken := claimed[id]
		if !taken || owner == t {
			break
		}
		id = base + ID("#"+strconv.Itoa(n))
	}
	claimed[id] = t
	interned.Store(t, id)
	return id
}

func name(t reflect.Type) string {
	if t.Name() != "" {
		if pkg := t.PkgPath(); pkg != "" {
			return pkg + "." + t.Name()
		}
		// predeclared types and instantiated generics in the universe scope
		return t.String()
	}
	elem := func() string { return string(For(t.Elem())) }
	switch t.Kind() {
	case reflect.Pointer:
		return "*" + elem()
	case reflect.Slice:
		return "[]" + elem()
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + elem()
	case reflect.Map:
		return "map[" + string(For(t.Key())) + "]" + elem()
	case reflect.Chan:
		switch t.ChanDir() {
		case reflect.RecvDir:
			return "<-chan " + elem()
		case reflect.SendDir:
			return "chan<- " + elem()
		}
		return "chan " + elem()
	default:
		// func, struct and interface literals
		return t.String()
	}
}

// String implements fmt.Stringer.
func (id ID) String() string {
	if id == None {
		return "<none>"
	}
	return string(id)
}

// IsNone reports whether id identifies no type.
func (id ID) IsNone() bool { return id == None }

// Deref returns the element type of a pointer type, or t itself.
func Deref(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// IsAbstract reports whether t can never be instantiated as a binding
// target: interfaces, and pointers to interfaces.
func IsAbstract(t reflect.Type) bool {
	return t.Kind() == reflect.Interface || (t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Interface)
}
