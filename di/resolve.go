package di

import (
	"reflect"

	"github.com/kbukum/bindkit/errors"
	"github.com/kbukum/bindkit/typeid"
)

// Make creates and injects a T, returning construction errors.
// Use this when a failure to build should be handled.
//
// Example:
//
//	svc, err := di.Make[*Service](engine)
//	if err != nil {
//	    return fmt.Errorf("build service: %w", err)
//	}
func Make[T any](e *Engine, args ...any) (T, error) {
	var zero T
	v, err := e.CreateInstance(typeid.Of[T](), args...)
	if err != nil {
		return zero, err
	}
	result, ok := v.(T)
	if !ok {
		return zero, errors.NotAssignable(typeid.Of[T](), reflect.TypeOf(v))
	}
	return result, nil
}

// MustMake creates and injects a T, panics on error.
// Use this during wiring, where a failure is a programming error.
//
// Example:
//
//	svc := di.MustMake[*Service](engine)
func MustMake[T any](e *Engine, args ...any) T {
	v, err := Make[T](e, args...)
	if err != nil {
		panic(err)
	}
	return v
}

// InjectNew allocates a zero T and injects it, bypassing constructors and
// factories.
//
// Example:
//
//	svc, err := di.InjectNew[Service](engine)
func InjectNew[T any](e *Engine) (*T, error) {
	v := new(T)
	if err := e.Inject(v); err != nil {
		return nil, err
	}
	return v, nil
}
