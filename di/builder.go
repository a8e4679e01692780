package di

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/kbukum/bindkit/errors"
	"github.com/kbukum/bindkit/typeid"
)

// Builder is the construction primitive: it produces an uninjected value
// of type t. Failures are construction errors.
type Builder interface {
	Build(t reflect.Type, args ...any) (reflect.Value, error)
}

// ReflectBuilder builds values with registered factories, falling back to
// reflection for types without one.
type ReflectBuilder struct {
	mu        sync.RWMutex
	factories map[typeid.ID]reflect.Value
}

// NewReflectBuilder creates a builder with no factories.
func NewReflectBuilder() *ReflectBuilder {
	return &ReflectBuilder{factories: make(map[typeid.ID]reflect.Value)}
}

// RegisterFactory registers fn as the way to build its result type. fn must
// be a function returning (T) or (T, error); its parameters receive the
// arguments passed to Build. A later factory for the same type replaces the
// earlier one.
func (b *ReflectBuilder) RegisterFactory(fn any) error {
	v, out, err := checkFunc(fn, "factory")
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.factories[typeid.For(out)] = v
	return nil
}

// Build implements Builder.
func (b *ReflectBuilder) Build(t reflect.Type, args ...any) (reflect.Value, error) {
	if t == nil {
		return reflect.Value{}, errors.NullArgument("type")
	}
	b.mu.RLock()
	fn, ok := b.factories[typeid.For(t)]
	b.mu.RUnlock()

	if ok {
		in, err := factoryArgs(fn.Type(), args)
		if err != nil {
			return reflect.Value{}, errors.Construction(t.String(), err)
		}
		out, err := callFunc(fn, in)
		if err != nil {
			return reflect.Value{}, errors.Construction(t.String(), err)
		}
		if isNilValue(out) {
			return reflect.Value{}, errors.Construction(t.String(), fmt.Errorf("factory returned nil"))
		}
		return out, nil
	}
	if len(args) > 0 {
		return reflect.Value{}, errors.Construction(t.String(),
			fmt.Errorf("no factory registered to accept %d arguments", len(args)))
	}
	v, err := zeroValue(t)
	if err != nil {
		return reflect.Value{}, errors.Construction(t.String(), err)
	}
	return v, nil
}

func zeroValue(t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Interface {
			return reflect.Value{}, fmt.Errorf("cannot instantiate pointer to interface")
		}
		return reflect.New(t.Elem()), nil
	case reflect.Map:
		return reflect.MakeMap(t), nil
	case reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return reflect.Value{}, fmt.Errorf("cannot instantiate %s without a factory", t.Kind())
	default:
		return reflect.New(t).Elem(), nil
	}
}

func factoryArgs(ft reflect.Type, args []any) ([]reflect.Value, error) {
	if ft.NumIn() != len(args) {
		return nil, fmt.Errorf("factory takes %d arguments, got %d", ft.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		want := ft.In(i)
		if a == nil {
			switch want.Kind() {
			case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
				in[i] = reflect.Zero(want)
				continue
			}
			return nil, fmt.Errorf("argument %d: nil is not a %s", i, want)
		}
		v := reflect.ValueOf(a)
		if !v.Type().AssignableTo(want) {
			return nil, fmt.Errorf("argument %d: %s is not assignable to %s", i, v.Type(), want)
		}
		in[i] = v
	}
	return in, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// checkFunc validates a constructor-like function and returns its produced
// type.
func checkFunc(fn any, what string) (reflect.Value, reflect.Type, error) {
	if fn == nil {
		return reflect.Value{}, nil, errors.NullArgument(what)
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func || v.IsNil() {
		return reflect.Value{}, nil, errors.TypeMismatch(fmt.Sprintf("%s must be a function, got %s", what, t))
	}
	if t.IsVariadic() {
		return reflect.Value{}, nil, errors.TypeMismatch(fmt.Sprintf("%s must not be variadic", what))
	}
	switch {
	case t.NumOut() == 1 && t.Out(0) != errorType:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		return reflect.Value{}, nil, errors.TypeMismatch(
			fmt.Sprintf("%s must return either (instance) or (instance, error), got %s", what, t))
	}
	return v, t.Out(0), nil
}

// callFunc invokes fn and unpacks its (instance) or (instance, error)
// results. A panic in fn is returned as an error.
func callFunc(fn reflect.Value, in []reflect.Value) (out reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	results := fn.Call(in)
	if len(results) == 2 {
		if e := results[1].Interface(); e != nil {
			return reflect.Value{}, e.(error)
		}
	}
	return results[0], nil
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
