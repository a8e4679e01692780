package di

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kbukum/bindkit/binding"
	"github.com/kbukum/bindkit/config"
	"github.com/kbukum/bindkit/errors"
	"github.com/kbukum/bindkit/logger"
	"github.com/kbukum/bindkit/observability"
	"github.com/kbukum/bindkit/typeid"
)

// DefaultMaxDepth bounds nested construction when no option sets it.
const DefaultMaxDepth = 64

// Engine populates the injection points of instances from the rules of its
// current registry and remembers what it injected so a later SwitchContext
// can re-inject it. All public methods serialize on one lock.
type Engine struct {
	mu         sync.Mutex
	id         string
	reg        *binding.Registry
	discoverer Discoverer
	builder    Builder
	log        *logger.Logger
	metrics    *observability.Metrics
	stale      StalePolicy
	maxDepth   int
	cache      []tracked
	disposed   bool
}

// tracked is one injected (owner, instance) pair. Static owners have a nil
// instance.
type tracked struct {
	owner    reflect.Type
	instance any
}

// Option configures an Engine.
type Option func(*Engine) error

// WithDiscoverer sets how injection points are found. The default is a
// fresh Scanner.
func WithDiscoverer(d Discoverer) Option {
	return func(e *Engine) error {
		if d == nil {
			return errors.NullArgument("discoverer")
		}
		e.discoverer = d
		return nil
	}
}

// WithBuilder sets the construction primitive. The default is a fresh
// ReflectBuilder.
func WithBuilder(b Builder) Option {
	return func(e *Engine) error {
		if b == nil {
			return errors.NullArgument("builder")
		}
		e.builder = b
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) error {
		e.log = l
		return nil
	}
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) error {
		e.metrics = m
		return nil
	}
}

// WithStalePolicy sets what SwitchContext does with values assigned from
// the previous registry.
func WithStalePolicy(p StalePolicy) Option {
	return func(e *Engine) error {
		e.stale = p
		return nil
	}
}

// WithMaxDepth bounds nested construction.
func WithMaxDepth(n int) Option {
	return func(e *Engine) error {
		if n < 1 {
			return errors.InvalidConfig(fmt.Sprintf("max depth must be at least 1, got %d", n))
		}
		e.maxDepth = n
		return nil
	}
}

// FromConfig applies the injection section of cfg.
func FromConfig(cfg *config.Engine) Option {
	return func(e *Engine) error {
		if cfg == nil {
			return errors.NullArgument("config")
		}
		p, err := ParseStalePolicy(cfg.Injection.StalePolicy)
		if err != nil {
			return errors.InvalidConfig(err.Error())
		}
		e.stale = p
		if cfg.Injection.MaxDepth > 0 {
			e.maxDepth = cfg.Injection.MaxDepth
		}
		return nil
	}
}

// New creates an engine resolving against reg.
func New(reg *binding.Registry, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, errors.NullArgument("registry")
	}
	e := &Engine{
		id:       uuid.NewString(),
		reg:      reg,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.discoverer == nil {
		e.discoverer = NewScanner()
	}
	if e.builder == nil {
		e.builder = NewReflectBuilder()
	}
	if e.log == nil {
		e.log = logger.Get("bindkit.di")
	}
	e.log = e.log.WithFields(logger.Fields(logger.FieldEngineID, e.id))
	e.log.Debug("engine created", logger.Fields(logger.FieldRegistry, reg.Name(), "stale_policy", e.stale.String()))
	return e, nil
}

// ID returns the engine id used in logs.
func (e *Engine) ID() string { return e.id }

// Registry returns the current registry.
func (e *Engine) Registry() *binding.Registry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg
}

// Inject populates the injection points of instance, which must be a
// non-nil pointer. The owner type is the pointed-to type. Members without a
// usable rule are left untouched.
func (e *Engine) Inject(instance any) error {
	v := reflect.ValueOf(instance)
	if isNilValue(v) {
		return errors.NullArgument("instance")
	}
	if v.Kind() != reflect.Pointer {
		return errors.TypeMismatch(fmt.Sprintf("instance must be a pointer, got %T", instance))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(); err != nil {
		return err
	}
	if owner := v.Type().Elem(); e.discoverer.IsStatic(owner) {
		return errors.InvalidState(fmt.Sprintf("type %s is static, use InjectStatic", owner))
	}
	return e.inject(v, newBuild(), true)
}

// InjectStatic populates the static injection points of t.
func (e *Engine) InjectStatic(t reflect.Type) error {
	if t == nil {
		return errors.NullArgument("type")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(); err != nil {
		return err
	}
	if !e.discoverer.IsStatic(t) {
		return errors.InvalidState(fmt.Sprintf("type %s is not static", t))
	}
	if err := e.injectMembers(t, reflect.Value{}, newBuild()); err != nil {
		return err
	}
	e.track(t, nil)
	return nil
}

// CreateInstance builds a value of type t and injects it. A registered
// constructor whose parameter resolves is preferred; otherwise the builder
// is called with args. Pointer types yield a pointer; other types are
// injected through a temporary pointer and returned by value, untracked.
func (e *Engine) CreateInstance(t reflect.Type, args ...any) (any, error) {
	if t == nil {
		return nil, errors.NullArgument("type")
	}
	if typeid.IsAbstract(t) {
		return nil, errors.TypeMismatch(fmt.Sprintf("cannot create abstract type %s", t))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(); err != nil {
		return nil, err
	}
	v, err := e.create(t, newBuild(), args)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// SwitchContext makes reg the current registry and re-injects every
// tracked instance, in the order they were first injected, against it.
// Switching to the current registry is a no-op. When releaseOld is set the
// previous registry is released first. Replay continues past failures; all
// of them are returned joined.
func (e *Engine) SwitchContext(reg *binding.Registry, releaseOld bool) error {
	if reg == nil {
		return errors.NullArgument("registry")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.usable(); err != nil {
		return err
	}
	if reg == e.reg {
		return nil
	}

	old := e.reg
	e.reg = reg
	if releaseOld {
		old.Release()
	}

	snapshot := slices.Clone(e.cache)
	var errs []error
	for _, c := range snapshot {
		if err := e.replay(c); err != nil {
			errs = append(errs, err)
		}
	}

	e.metrics.RecordSwitch(context.Background(), len(snapshot))
	e.log.Info("context switched", logger.Fields(
		"from", old.Name(),
		"to", reg.Name(),
		logger.FieldCount, len(snapshot),
		"failed", len(errs),
	))
	return stderrors.Join(errs...)
}

// Release stops tracking. A reflect.Type drops every entry for that owner
// type, *T meaning T; any other value drops every entry holding that instance. Assigned
// values are not undone.
func (e *Engine) Release(ownerOrInstance any) {
	if ownerOrInstance == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	owner, byType := ownerOrInstance.(reflect.Type)
	owner = typeid.Deref(owner)
	kept := e.cache[:0]
	for _, c := range e.cache {
		if byType && c.owner == owner || !byType && binding.SameInstance(c.instance, ownerOrInstance) {
			continue
		}
		kept = append(kept, c)
	}
	dropped := len(e.cache) - len(kept)
	clear(e.cache[len(kept):])
	e.cache = kept
	e.untrack(dropped)
}

// ReleaseAll stops tracking everything. Assigned values are not undone.
func (e *Engine) ReleaseAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.releaseAll()
}

// Tracked returns the number of tracked entries.
func (e *Engine) Tracked() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

// IsTracked reports whether an owner type or an instance is tracked. As in
// Release, *T means T.
func (e *Engine) IsTracked(ownerOrInstance any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	owner, byType := ownerOrInstance.(reflect.Type)
	owner = typeid.Deref(owner)
	for _, c := range e.cache {
		if byType && c.owner == owner || !byType && ownerOrInstance != nil && binding.SameInstance(c.instance, ownerOrInstance) {
			return true
		}
	}
	return false
}

// Dispose releases all tracking and makes further injection fail with a
// state error. The registry is left to its owner. Dispose is idempotent.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.releaseAll()
	e.disposed = true
	e.log.Debug("engine disposed")
}

// --- internals; callers hold mu ---

// build carries the state of one top-level operation.
type build struct {
	stack     []reflect.Type
	injecting map[any]bool
}

func newBuild() *build {
	return &build{injecting: make(map[any]bool)}
}

func (b *build) path(next reflect.Type) string {
	parts := make([]string, 0, len(b.stack)+1)
	for _, t := range b.stack {
		parts = append(parts, t.String())
	}
	return strings.Join(append(parts, next.String()), " -> ")
}

func (e *Engine) usable() error {
	if e.disposed {
		return errors.InvalidState("engine is disposed")
	}
	return nil
}

// inject populates the members of the instance ptr points to. An instance
// already being injected higher up the same operation is skipped, which
// lets bound instances refer to themselves.
func (e *Engine) inject(ptr reflect.Value, b *build, track bool) error {
	key := ptr.Interface()
	if b.injecting[key] {
		return nil
	}
	b.injecting[key] = true
	defer delete(b.injecting, key)

	owner := ptr.Type().Elem()
	if err := e.injectMembers(owner, ptr, b); err != nil {
		return err
	}
	if track {
		e.track(owner, key)
	}
	return nil
}

func (e *Engine) injectMembers(owner reflect.Type, ptr reflect.Value, b *build) error {
	for _, m := range e.discoverer.Members(owner) {
		target := ptr
		if m.Static() {
			target = reflect.Value{}
		}
		if err := e.assign(m, owner, target, b); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) assign(m Member, owner reflect.Type, target reflect.Value, b *build) error {
	d := e.reg.Resolve(m.Type(), owner)
	if d == nil {
		if e.log.Enabled(zerolog.DebugLevel) {
			e.log.Debug("member skipped", e.memberFields(m, owner))
		}
		return nil
	}
	v, err := e.materialize(d, b)
	if err != nil {
		return err
	}
	if !v.Type().AssignableTo(m.Type()) {
		return errors.NotAssignable(m.Type(), v.Type())
	}
	if err := m.Assign(target, v); err != nil {
		return err
	}
	e.metrics.RecordAssignment(context.Background(), m.Kind().String())
	if e.log.Enabled(zerolog.DebugLevel) {
		fields := e.memberFields(m, owner)
		fields[logger.FieldTarget] = typeid.For(v.Type()).String()
		e.log.Debug("member assigned", fields)
	}
	return nil
}

func (e *Engine) memberFields(m Member, owner reflect.Type) map[string]any {
	return logger.Fields(
		logger.FieldMember, m.Name(),
		logger.FieldKind, m.Kind().String(),
		logger.FieldOwner, typeid.For(owner).String(),
		logger.FieldSource, typeid.For(m.Type()).String(),
	)
}

// materialize turns a rule into a value. Bound instances are injected
// themselves before they are handed out.
func (e *Engine) materialize(d *binding.Descriptor, b *build) (reflect.Value, error) {
	if inst := d.Instance(); inst != nil {
		v := reflect.ValueOf(inst)
		if v.Kind() == reflect.Pointer && !e.discoverer.IsStatic(v.Type().Elem()) {
			if err := e.inject(v, b, true); err != nil {
				return reflect.Value{}, err
			}
		}
		return v, nil
	}
	return e.create(d.Target(), b, nil)
}

func (e *Engine) create(t reflect.Type, b *build, args []any) (reflect.Value, error) {
	if e.discoverer.IsStatic(typeid.Deref(t)) {
		return reflect.Value{}, errors.InvalidState(fmt.Sprintf("static type %s cannot be instantiated", t))
	}
	if slices.Contains(b.stack, t) {
		return reflect.Value{}, errors.InvalidState("circular construction: " + b.path(t)).
			WithDetail("type", t.String())
	}
	if len(b.stack) >= e.maxDepth {
		return reflect.Value{}, errors.InvalidState(fmt.Sprintf("construction deeper than %d: %s", e.maxDepth, b.path(t)))
	}
	b.stack = append(b.stack, t)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	v, err := e.construct(t, b, args)
	if err != nil {
		e.metrics.RecordConstruction(context.Background(), "error")
		return reflect.Value{}, err
	}
	e.metrics.RecordConstruction(context.Background(), "ok")

	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if v.Kind() == reflect.Pointer {
		if err := e.inject(v, b, true); err != nil {
			return reflect.Value{}, err
		}
		return v, nil
	}
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	if err := e.inject(ptr, b, false); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

// construct produces an uninjected value of type t.
func (e *Engine) construct(t reflect.Type, b *build, args []any) (reflect.Value, error) {
	if ctor, ok := e.discoverer.Constructor(t); ok {
		if d := e.reg.Resolve(ctor.Param(), typeid.Deref(t)); d != nil {
			arg, err := e.materialize(d, b)
			if err != nil {
				return reflect.Value{}, err
			}
			if !arg.Type().AssignableTo(ctor.Param()) {
				return reflect.Value{}, errors.NotAssignable(ctor.Param(), arg.Type())
			}
			v, err := ctor.Call(arg)
			if err != nil {
				return reflect.Value{}, errors.Construction(t.String(), err)
			}
			if isNilValue(v) {
				return reflect.Value{}, errors.Construction(t.String(), fmt.Errorf("constructor returned nil"))
			}
			return v, nil
		}
	}
	v, err := e.builder.Build(t, args...)
	if err != nil {
		return reflect.Value{}, errors.Construction(t.String(), err)
	}
	if isNilValue(v) {
		return reflect.Value{}, errors.Construction(t.String(), fmt.Errorf("builder returned nil"))
	}
	return v, nil
}

// replay re-injects one tracked entry against the current registry.
func (e *Engine) replay(c tracked) error {
	var ptr reflect.Value
	if c.instance != nil {
		ptr = reflect.ValueOf(c.instance)
	}
	if e.stale == ClearStale {
		for _, m := range e.discoverer.Members(c.owner) {
			if !m.Kind().Clearable() {
				continue
			}
			target := ptr
			if m.Static() {
				target = reflect.Value{}
			}
			m.Clear(target)
		}
	}
	if c.instance == nil {
		return e.injectMembers(c.owner, reflect.Value{}, newBuild())
	}
	return e.inject(ptr, newBuild(), true)
}

// track records (owner, instance), replacing an equal entry in place.
func (e *Engine) track(owner reflect.Type, instance any) {
	for i, c := range e.cache {
		if c.owner == owner && binding.SameInstance(c.instance, instance) {
			e.cache[i] = tracked{owner: owner, instance: instance}
			return
		}
	}
	e.cache = append(e.cache, tracked{owner: owner, instance: instance})
	e.metrics.RecordTracked(context.Background(), 1)
}

func (e *Engine) untrack(n int) {
	if n > 0 {
		e.metrics.RecordTracked(context.Background(), -n)
	}
}

func (e *Engine) releaseAll() {
	n := len(e.cache)
	e.cache = nil
	e.untrack(n)
}
