package binding

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/kbukum/bindkit/errors"
	"github.com/kbukum/bindkit/typeid"
)

// Predicate restricts a binding to owners for which it returns true.
type Predicate func(owner reflect.Type) bool

// Descriptor describes one binding rule. Descriptors are created by
// Registry.Bind and configured through their setters; they belong to the
// registry until it is released.
type Descriptor struct {
	source    reflect.Type
	target    reflect.Type
	owner     reflect.Type
	predicate Predicate
	instance  any

	registry *Registry
	pooled   bool
}

// reset clears every field so no stale rule can leak into a new binding.
func (d *Descriptor) reset() {
	d.source = nil
	d.target = nil
	d.owner = nil
	d.predicate = nil
	d.instance = nil
	d.registry = nil
}

// Source returns the type this rule satisfies.
func (d *Descriptor) Source() reflect.Type { return d.source }

// Target returns the concrete type to construct, or nil.
func (d *Descriptor) Target() reflect.Type { return d.target }

// Owner returns the owner restriction, or nil.
func (d *Descriptor) Owner() reflect.Type { return d.owner }

// Instance returns the bound instance, or nil.
func (d *Descriptor) Instance() any { return d.instance }

// HasPredicate reports whether a predicate restricts the rule.
func (d *Descriptor) HasPredicate() bool { return d.predicate != nil }

// HasInstance reports whether the rule carries a ready instance.
func (d *Descriptor) HasInstance() bool { return d.instance != nil }

// IsEmpty reports whether the rule has neither a target nor an instance.
// Empty rules are never materialized.
func (d *Descriptor) IsEmpty() bool {
	return d.target == nil && d.instance == nil
}

// Bound reports whether the descriptor still belongs to a registry.
func (d *Descriptor) Bound() bool { return d.registry != nil }

// Accepts evaluates the predicate for owner. A rule without predicate
// accepts nothing on this criterion.
func (d *Descriptor) Accepts(owner reflect.Type) bool {
	return d.predicate != nil && d.predicate(owner)
}

// --- Configuration ---

// To binds the source type to target, a concrete type assignable to it.
// It panics with an *errors.AppError on misuse; see SetTarget.
func (d *Descriptor) To(target reflect.Type) *Descriptor {
	must(d.SetTarget(target))
	return d
}

// ToInstance binds the source type to a ready instance.
// It panics with an *errors.AppError on misuse; see SetInstance.
func (d *Descriptor) ToInstance(instance any) *Descriptor {
	must(d.SetInstance(instance))
	return d
}

// Where restricts the rule with a predicate over the owner type.
// It panics with an *errors.AppError on misuse; see SetPredicate.
func (d *Descriptor) Where(p Predicate) *Descriptor {
	must(d.SetPredicate(p))
	return d
}

// SetTarget binds the source type to target. The target must be a
// non-interface type assignable to the source type. Any instance set
// earlier is dropped.
func (d *Descriptor) SetTarget(target reflect.Type) error {
	if target == nil {
		return errors.NullArgument("target")
	}
	return d.update(func() error {
		if typeid.IsAbstract(target) {
			return errors.TypeMismatch(fmt.Sprintf("binding target %s can not be an interface", target)).
				WithDetail("target", target.String())
		}
		if !target.AssignableTo(d.source) {
			return errors.NotAssignable(d.source, target)
		}
		d.target = target
		d.instance = nil
		return nil
	})
}

// SetInstance binds the source type to instance. Nil values, including
// typed nil pointers, are rejected. Any target set earlier is dropped.
func (d *Descriptor) SetInstance(instance any) error {
	if isNil(instance) {
		return errors.NullArgument("instance")
	}
	return d.update(func() error {
		instanceType := reflect.TypeOf(instance)
		if !instanceType.AssignableTo(d.source) {
			return errors.NotAssignable(d.source, instanceType)
		}
		d.instance = instance
		d.target = nil
		return nil
	})
}

// SetPredicate restricts the rule with p.
func (d *Descriptor) SetPredicate(p Predicate) error {
	if p == nil {
		return errors.NullArgument("predicate")
	}
	return d.update(func() error {
		d.predicate = p
		return nil
	})
}

// update applies fn under the owning registry's lock and re-checks the
// registry's no-duplicates invariant.
func (d *Descriptor) update(fn func() error) error {
	r := d.registry
	if r == nil {
		return errors.InvalidState("descriptor is not bound to a registry")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.registry != r {
		return errors.InvalidState("descriptor is not bound to a registry")
	}
	if err := fn(); err != nil {
		return err
	}
	r.settle(d)
	return nil
}

// identical reports field-for-field equality. Predicates are opaque, so two
// rules that both carry one are never identical.
func (d *Descriptor) identical(o *Descriptor) bool {
	if d.predicate != nil || o.predicate != nil {
		return false
	}
	return d.source == o.source &&
		d.target == o.target &&
		d.owner == o.owner &&
		SameInstance(d.instance, o.instance)
}

// String implements fmt.Stringer.
func (d *Descriptor) String() string {
	var b strings.Builder
	b.WriteString(typeid.For(d.source).String())
	b.WriteString(" -> ")
	switch {
	case d.instance != nil:
		fmt.Fprintf(&b, "instance(%T)", d.instance)
	case d.target != nil:
		b.WriteString(typeid.For(d.target).String())
	default:
		b.WriteString("<empty>")
	}
	if d.owner != nil {
		fmt.Fprintf(&b, " owner=%s", typeid.For(d.owner))
	}
	if d.predicate != nil {
		b.WriteString(" where")
	}
	return b.String()
}

// To is the generic form of Descriptor.To.
func To[T any](d *Descriptor) *Descriptor {
	return d.To(typeid.Of[T]())
}

// SameInstance reports whether a and b are the same instance: equal for
// comparable values, and the same underlying storage for maps, slices and
// funcs. It never panics.
func SameInstance(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if !ta.Comparable() {
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		switch ta.Kind() {
		case reflect.Map, reflect.Func:
			return va.Pointer() == vb.Pointer()
		case reflect.Slice:
			return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
		default:
			return false
		}
	}
	// comparable structs may still hold incomparable values in interface fields
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
