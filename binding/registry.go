package binding

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/bindkit/errors"
	"github.com/kbukum/bindkit/logger"
	"github.com/kbukum/bindkit/observability"
	"github.com/kbukum/bindkit/typeid"
)

// Registry maps source types to ordered candidate descriptors. All methods
// are guarded by one coarse lock; predicates run while it is held and must
// not call back into the same registry.
type Registry struct {
	mu       sync.Mutex
	name     string
	bindings map[typeid.ID][]*Descriptor
	pool     *Pool
	resolver Resolver
	log      *logger.Logger
	metrics  *observability.Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithPool sets the descriptor pool.
func WithPool(p *Pool) Option {
	return func(r *Registry) { r.pool = p }
}

// WithPolicy sets the resolution policy.
func WithPolicy(p Policy) Option {
	return func(r *Registry) { r.resolver.Policy = p }
}

// WithName sets the registry name used in logs and metrics.
func WithName(name string) Option {
	return func(r *Registry) { r.name = name }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		bindings: make(map[typeid.ID][]*Descriptor),
		pool:     defaultPool,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pool == nil {
		r.pool = defaultPool
	}
	if r.name == "" {
		r.name = "registry-" + uuid.NewString()[:8]
	}
	if r.log == nil {
		r.log = logger.Get("bindkit.binding")
	}
	r.log = r.log.WithFields(logger.Fields(logger.FieldRegistry, r.name))
	return r
}

// Name returns the registry name.
func (r *Registry) Name() string { return r.name }

// Policy returns the resolution policy.
func (r *Registry) Policy() Policy { return r.resolver.Policy }

// Bind declares a rule for source with no owner restriction and returns it
// for configuration. It panics with an *errors.AppError if source is nil.
func (r *Registry) Bind(source reflect.Type) *Descriptor {
	return r.BindOwned(source, nil)
}

// BindOwned declares a rule for source that applies to members of owner.
// A pointer owner is taken as its element type, the type the engine
// reports for an injected *T. It panics with an *errors.AppError if source is nil.
func (r *Registry) BindOwned(source, owner reflect.Type) *Descriptor {
	d, err := r.TryBind(source, owner)
	must(err)
	return d
}

// TryBind is BindOwned returning the error instead of panicking.
func (r *Registry) TryBind(source, owner reflect.Type) (*Descriptor, error) {
	if source == nil {
		return nil, errors.NullArgument("source")
	}
	d := r.pool.Acquire()
	d.source = source
	d.owner = typeid.Deref(owner)

	r.mu.Lock()
	defer r.mu.Unlock()
	d.registry = r

	id := typeid.For(source)
	list := r.bindings[id]
	for i, existing := range list {
		if existing.identical(d) {
			list[i] = d
			r.discard(existing)
			r.log.Debug("rule replaced", logger.Fields(logger.FieldSource, id))
			return d, nil
		}
	}
	r.bindings[id] = append(list, d)
	r.log.Debug("rule declared", logger.Fields(logger.FieldSource, id, logger.FieldOwner, typeid.For(owner)))
	return d, nil
}

// settle restores the no-duplicates invariant after d changed: an identical
// earlier rule is replaced in place by d. Must hold mu.
func (r *Registry) settle(d *Descriptor) {
	id := typeid.For(d.source)
	list := r.bindings[id]
	at, dup := -1, -1
	for i, e := range list {
		switch {
		case e == d:
			at = i
		case dup < 0 && e.identical(d):
			dup = i
		}
	}
	if at < 0 || dup < 0 {
		return
	}
	displaced := list[dup]
	list[dup] = d
	r.bindings[id] = append(list[:at], list[at+1:]...)
	list[len(list)-1] = nil
	r.discard(displaced)
	r.log.Debug("rule replaced", logger.Fields(logger.FieldSource, id))
}

// discard returns a descriptor that left the table to the pool.
func (r *Registry) discard(d *Descriptor) {
	d.registry = nil
	r.pool.Release(d)
}

// Resolve returns the best rule for source when injecting into a member of
// owner, or nil. The stored candidate list is re-sorted as a side effect.
func (r *Registry) Resolve(source, owner reflect.Type) *Descriptor {
	if source == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.bindings[typeid.For(source)]
	best := r.resolver.Best(list, owner)

	outcome := observability.OutcomeHit
	switch {
	case len(list) == 0:
		outcome = observability.OutcomeMiss
	case best == nil:
		outcome = observability.OutcomeEmpty
	}
	r.metrics.RecordResolution(context.Background(), r.name, outcome)
	return best
}

// Candidates returns a copy of the stored rules for source in their
// current order.
func (r *Registry) Candidates(source reflect.Type) []*Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.bindings[typeid.For(source)]
	out := make([]*Descriptor, len(list))
	copy(out, list)
	return out
}

// Sources returns the identifiers of all bound source types, sorted.
func (r *Registry) Sources() []typeid.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]typeid.ID, 0, len(r.bindings))
	for id := range r.bindings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of stored rules.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, list := range r.bindings {
		n += len(list)
	}
	return n
}

// Release returns every rule to the pool and empties the registry. The
// registry stays usable. Calling Release on an empty registry is a no-op.
func (r *Registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, list := range r.bindings {
		for _, d := range list {
			r.discard(d)
			n++
		}
		delete(r.bindings, id)
	}
	if n == 0 {
		return
	}
	r.metrics.RecordRelease(context.Background(), r.name, n)
	r.log.Debug("registry released", logger.Fields(logger.FieldCount, n))
}

// For declares a rule for T. See Registry.Bind.
func For[T any](r *Registry) *Descriptor {
	return r.Bind(typeid.Of[T]())
}

// ForOwner declares a rule for T applying to members of O. See
// Registry.BindOwned.
func ForOwner[T, O any](r *Registry) *Descriptor {
	return r.BindOwned(typeid.Of[T](), typeid.Of[O]())
}
