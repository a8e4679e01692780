package di

import (
	"bytes"
	"context"
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kbukum/bindkit/binding"
	"github.com/kbukum/bindkit/config"
	"github.com/kbukum/bindkit/errors"
	"github.com/kbukum/bindkit/logger"
	"github.com/kbukum/bindkit/observability"
	"github.com/kbukum/bindkit/typeid"
)

func TestNewEngine(t *testing.T) {
	if _, err := New(nil); !errors.IsCode(err, errors.ErrCodeNullArgument) {
		t.Errorf("expected NULL_ARGUMENT for nil registry, got %v", err)
	}
	if _, err := New(newRegistry("a"), WithMaxDepth(0)); !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG for zero depth, got %v", err)
	}
	if _, err := New(newRegistry("a"), WithDiscoverer(nil)); !errors.IsCode(err, errors.ErrCodeNullArgument) {
		t.Errorf("expected NULL_ARGUMENT for nil discoverer, got %v", err)
	}

	reg := newRegistry("a")
	e := newEngine(t, reg)
	if e.Registry() != reg {
		t.Error("expected engine to use the given registry")
	}
	if e.ID() == "" || e.ID() == newEngine(t, reg).ID() {
		t.Error("expected unique engine ids")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Engine{}
	cfg.ApplyDefaults()
	cfg.Injection.StalePolicy = "clear"
	cfg.Injection.MaxDepth = 3

	e := newEngine(t, newRegistry("a"), FromConfig(cfg))
	if e.stale != ClearStale || e.maxDepth != 3 {
		t.Errorf("config not applied: stale=%s depth=%d", e.stale, e.maxDepth)
	}

	cfg.Injection.StalePolicy = "sometimes"
	if _, err := New(newRegistry("a"), FromConfig(cfg)); !errors.IsCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
	if _, err := New(newRegistry("a"), FromConfig(nil)); !errors.IsCode(err, errors.ErrCodeNullArgument) {
		t.Errorf("expected NULL_ARGUMENT, got %v", err)
	}
}

func TestInjectRoutesLoggingToBoundImplementation(t *testing.T) {
	rec := &recorder{}
	reg := newRegistry("net")
	reg.BindOwned(loggerType, fooType).To(netType)
	reg.Bind(transportType).ToInstance(rec)

	e := newEngine(t, reg)
	f := &foo{}
	if err := e.Inject(f); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if _, ok := f.Log.(*netLogger); !ok {
		t.Fatalf("expected *netLogger, got %T", f.Log)
	}

	f.Log.Log("hello")
	if got := rec.Lines(); len(got) != 1 || got[0] != "net: hello" {
		t.Errorf("expected the recording transport to receive the line, got %v", got)
	}
	if f.Plain != nil || f.Skip != nil || f.hidden != nil {
		t.Error("untagged, excluded and unexported fields must stay untouched")
	}
}

func TestUnboundMemberLeftNil(t *testing.T) {
	e := newEngine(t, newRegistry("empty"))
	f := &foo{}
	if err := e.Inject(f); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if f.Log != nil {
		t.Errorf("expected nil logger, got %T", f.Log)
	}
	if !e.IsTracked(f) {
		t.Error("instance must be tracked even when nothing was assigned")
	}
}

func TestEmptyRuleIsSkipped(t *testing.T) {
	reg := newRegistry("a")
	reg.BindOwned(loggerType, fooType)
	reg.Bind(loggerType).To(consoleType)

	f := &foo{}
	if err := newEngine(t, reg).Inject(f); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if f.Log != nil {
		t.Errorf("an empty winning rule must skip the member, got %T", f.Log)
	}
}

func TestInjectArgumentErrors(t *testing.T) {
	e := newEngine(t, newRegistry("a"))
	var typedNil *foo
	tests := []struct {
		name     string
		instance any
		code     errors.ErrorCode
	}{
		{"nil", nil, errors.ErrCodeNullArgument},
		{"typed nil", typedNil, errors.ErrCodeNullArgument},
		{"not a pointer", foo{}, errors.ErrCodeTypeMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := e.Inject(tc.instance); !errors.IsCode(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestMethodInjection(t *testing.T) {
	reg := newRegistry("a")
	reg.Bind(loggerType).To(consoleType)

	b := &bar{}
	if err := newEngine(t, reg).Inject(b); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if _, ok := b.viaMethod.(*consoleLogger); !ok || b.calls != 1 {
		t.Errorf("expected InjectLogger to be called once, got %T calls=%d", b.viaMethod, b.calls)
	}
	if b.Log == b.viaMethod {
		t.Error("each member must get its own constructed value")
	}
}

type failingSetter struct{}

var errRejected = stderrors.New("rejected")

func (*failingSetter) InjectTransport(transport) error { return errRejected }

func TestMethodErrorPropagates(t *testing.T) {
	reg := newRegistry("a")
	reg.Bind(transportType).ToInstance(&recorder{})

	err := newEngine(t, reg).Inject(&failingSetter{})
	if !stderrors.Is(err, errRejected) {
		t.Errorf("expected method error, got %v", err)
	}
}

type panickingSetter struct{}

func (*panickingSetter) InjectTransport(transport) { panic("transport rejected") }

func TestMethodPanicIsReturned(t *testing.T) {
	reg := newRegistry("a")
	reg.Bind(transportType).ToInstance(&recorder{})

	err := newEngine(t, reg).Inject(&panickingSetter{})
	if !errors.IsCode(err, errors.ErrCodeConstruction) {
		t.Fatalf("expected CONSTRUCTION_ERROR, got %v", err)
	}
	if !strings.Contains(err.Error(), "InjectTransport") || !strings.Contains(err.Error(), "transport rejected") {
		t.Errorf("expected method name and panic value in %q", err.Error())
	}
}

func TestBoundInstanceIsInjected(t *testing.T) {
	rec := &recorder{}
	shared := &netLogger{}
	reg := newRegistry("a")
	reg.Bind(loggerType).ToInstance(shared)
	reg.Bind(transportType).ToInstance(rec)

	e := newEngine(t, reg)
	f := &foo{}
	if err := e.Inject(f); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if f.Log != shared {
		t.Fatal("expected the bound instance")
	}
	if shared.Out != rec {
		t.Error("bound instance must be injected before it is handed out")
	}
	if !e.IsTracked(shared) {
		t.Error("bound instance must be tracked")
	}
}

func TestSelfReferencingInstance(t *testing.T) {
	n := &node{}
	reg := newRegistry("a")
	reg.Bind(reflect.TypeOf(n)).ToInstance(n)

	if err := newEngine(t, reg).Inject(n); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if n.Next != n {
		t.Error("expected node to point at itself")
	}
}

func TestCreateInstance(t *testing.T) {
	reg := newRegistry("a")
	reg.Bind(loggerType).To(netType)
	e := newEngine(t, reg)

	v, err := e.CreateInstance(reflect.TypeOf(&foo{}))
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	f, ok := v.(*foo)
	if !ok {
		t.Fatalf("expected *foo, got %T", v)
	}
	if _, ok := f.Log.(*netLogger); !ok {
		t.Errorf("expected injected logger, got %T", f.Log)
	}
	if !e.IsTracked(f) || !e.IsTracked(f.Log) {
		t.Error("created instance and its constructed member must be tracked")
	}
}

func TestCreateInstanceByValue(t *testing.T) {
	reg := newRegistry("a")
	reg.Bind(loggerType).To(netType)
	e := newEngine(t, reg)

	v, err := e.CreateInstance(fooType)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	f, ok := v.(foo)
	if !ok {
		t.Fatalf("expected foo value, got %T", v)
	}
	if f.Log == nil {
		t.Error("value target must be injected")
	}
	if e.IsTracked(fooType) {
		t.Error("values returned by value must not be tracked")
	}
}

func TestCreateInstanceErrors(t *testing.T) {
	e := newEngine(t, newRegistry("a"))
	if _, err := e.CreateInstance(nil); !errors.IsCode(err, errors.ErrCodeNullArgument) {
		t.Errorf("expected NULL_ARGUMENT, got %v", err)
	}
	if _, err := e.CreateInstance(loggerType); !errors.IsCode(err, errors.ErrCodeTypeMismatch) {
		t.Errorf("expected TYPE_ERROR for an interface, got %v", err)
	}
	if _, err := e.CreateInstance(reflect.TypeOf(&foo{}), "unexpected"); !errors.IsCode(err, errors.ErrCodeConstruction) {
		t.Errorf("expected CONSTRUCTION_ERROR for arguments without factory, got %v", err)
	}
}

func TestConstructorInjection(t *testing.T) {
	rec := &recorder{}
	scanner := NewScanner()
	if err := scanner.RegisterConstructor(newClient); err != nil {
		t.Fatalf("RegisterConstructor failed: %v", err)
	}
	reg := newRegistry("a")
	reg.Bind(transportType).ToInstance(rec)
	reg.Bind(loggerType).To(consoleType)

	c, err := Make[*client](newEngine(t, reg, WithDiscoverer(scanner)))
	if err != nil {
		t.Fatalf("Make failed: %v", err)
	}
	if c.tr != rec {
		t.Error("expected constructor to receive the bound transport")
	}
	if c.Log == nil {
		t.Error("constructed instance must also be member-injected")
	}
}

func TestConstructorFallsBackToBuilder(t *testing.T) {
	scanner := NewScanner()
	if err := scanner.RegisterConstructor(newClient); err != nil {
		t.Fatalf("RegisterConstructor failed: %v", err)
	}
	c, err := Make[*client](newEngine(t, newRegistry("a"), WithDiscoverer(scanner)))
	if err != nil {
		t.Fatalf("Make failed: %v", err)
	}
	if c.tr != nil {
		t.Error("unresolved constructor parameter must fall back to the builder")
	}
}

type service struct {
	Name string
	Log  debugLogger `inject:""`
}

func TestFactoryWithArgs(t *testing.T) {
	b := NewReflectBuilder()
	if err := b.RegisterFactory(func(name string) *service { return &service{Name: name} }); err != nil {
		t.Fatalf("RegisterFactory failed: %v", err)
	}
	reg := newRegistry("a")
	reg.Bind(loggerType).To(netType)

	s, err := Make[*service](newEngine(t, reg, WithBuilder(b)), "billing")
	if err != nil {
		t.Fatalf("Make failed: %v", err)
	}
	if s.Name != "billing" || s.Log == nil {
		t.Errorf("expected factory result to be injected, got %+v", s)
	}
}

func TestConstructionErrorPropagates(t *testing.T) {
	errDown := stderrors.New("db down")
	appErr := errors.New(errors.ErrCodeConstruction, "pool exhausted")

	tests := []struct {
		name    string
		factory any
		check   func(t *testing.T, err error)
	}{
		{"wrapped once", func() (*netLogger, error) { return nil, errDown }, func(t *testing.T, err error) {
			if !stderrors.Is(err, errDown) {
				t.Errorf("expected cause to be reachable, got %v", err)
			}
		}},
		{"passed through", func() (*netLogger, error) { return nil, appErr }, func(t *testing.T, err error) {
			if err != error(appErr) {
				t.Errorf("expected construction error unchanged, got %v", err)
			}
		}},
		{"panic", func() *netLogger { panic("boom") }, func(t *testing.T, err error) {
			if !strings.Contains(err.Error(), "boom") {
				t.Errorf("expected panic message, got %v", err)
			}
		}},
		{"nil result", func() *netLogger { return nil }, func(t *testing.T, err error) {
			if !strings.Contains(err.Error(), "nil") {
				t.Errorf("expected nil result error, got %v", err)
			}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := NewReflectBuilder()
			if err := b.RegisterFactory(tc.factory); err != nil {
				t.Fatalf("RegisterFactory failed: %v", err)
			}
			reg := newRegistry("a")
			reg.Bind(loggerType).To(netType)

			f := &foo{}
			err := newEngine(t, reg, WithBuilder(b)).Inject(f)
			if !errors.IsCode(err, errors.ErrCodeConstruction) {
				t.Fatalf("expected CONSTRUCTION_ERROR, got %v", err)
			}
			tc.check(t, err)
			if f.Log != nil {
				t.Error("member must stay unassigned on failure")
			}
		})
	}
}

func TestCircularConstruction(t *testing.T) {
	reg := newRegistry("a")
	reg.Bind(reflect.TypeOf(&cycleA{})).To(reflect.TypeOf(&cycleA{}))
	reg.Bind(reflect.TypeOf(&cycleB{})).To(reflect.TypeOf(&cycleB{}))

	_, err := Make[*cycleA](newEngine(t, reg))
	if !errors.IsCode(err, errors.ErrCodeInvalidState) {
		t.Fatalf("expected STATE_ERROR, got %v", err)
	}
	if !strings.Contains(err.Error(), "circular") {
		t.Errorf("expected cycle in message, got %v", err)
	}
}

func TestMaxDepth(t *testing.T) {
	reg := newRegistry("a")
	reg.Bind(loggerType).To(netType)

	_, err := Make[*foo](newEngine(t, reg, WithMaxDepth(1)))
	if !errors.IsCode(err, errors.ErrCodeInvalidState) {
		t.Fatalf("expected STATE_ERROR, got %v", err)
	}
	if _, err := Make[*foo](newEngine(t, reg, WithMaxDepth(2))); err != nil {
		t.Errorf("depth 2 must suffice, got %v", err)
	}
}

type settings struct{}

var settingsLog debugLogger

func staticEngine(t *testing.T, reg *binding.Registry) *Engine {
	t.Helper()
	scanner := NewScanner()
	if err := scanner.RegisterStatic(typeid.Of[settings](), VarMember("Log", &settingsLog)); err != nil {
		t.Fatalf("RegisterStatic failed: %v", err)
	}
	t.Cleanup(func() { settingsLog = nil })
	return newEngine(t, reg, WithDiscoverer(scanner))
}

func TestInjectStatic(t *testing.T) {
	reg := newRegistry("a")
	reg.Bind(loggerType).To(consoleType)
	e := staticEngine(t, reg)

	if err := e.InjectStatic(typeid.Of[settings]()); err != nil {
		t.Fatalf("InjectStatic failed: %v", err)
	}
	if _, ok := settingsLog.(*consoleLogger); !ok {
		t.Errorf("expected static variable to be assigned, got %T", settingsLog)
	}
	if !e.IsTracked(typeid.Of[settings]()) {
		t.Error("static owner must be tracked")
	}
}

func TestStaticOwnerErrors(t *testing.T) {
	e := staticEngine(t, newRegistry("a"))
	if err := e.InjectStatic(fooType); !errors.IsCode(err, errors.ErrCodeInvalidState) {
		t.Errorf("expected STATE_ERROR for non-static type, got %v", err)
	}
	if err := e.InjectStatic(nil); !errors.IsCode(err, errors.ErrCodeNullArgument) {
		t.Errorf("expected NULL_ARGUMENT, got %v", err)
	}
	if err := e.Inject(&settings{}); !errors.IsCode(err, errors.ErrCodeInvalidState) {
		t.Errorf("expected STATE_ERROR injecting a static type, got %v", err)
	}
	if _, err := e.CreateInstance(typeid.Of[settings]()); !errors.IsCode(err, errors.ErrCodeInvalidState) {
		t.Errorf("expected STATE_ERROR creating a static type, got %v", err)
	}
}

func TestSwitchContextReinjects(t *testing.T) {
	regA := newRegistry("a")
	regA.Bind(loggerType).To(netType)
	regB := newRegistry("b")
	regB.Bind(loggerType).To(consoleType)

	e := newEngine(t, regA)
	f := MustMake[*foo](e)
	if _, ok := f.Log.(*netLogger); !ok {
		t.Fatalf("expected *netLogger before switch, got %T", f.Log)
	}

	if err := e.SwitchContext(regB, false); err != nil {
		t.Fatalf("SwitchContext failed: %v", err)
	}
	if _, ok := f.Log.(*consoleLogger); !ok {
		t.Errorf("expected *consoleLogger after switch, got %T", f.Log)
	}
	if e.Registry() != regB {
		t.Error("expected current registry to change")
	}
	if regA.Len() != 1 {
		t.Error("old registry must survive without releaseOld")
	}
}

func TestSwitchContextReleasesOld(t *testing.T) {
	regA := newRegistry("a")
	regA.Bind(loggerType).To(netType)
	e := newEngine(t, regA)

	if err := e.SwitchContext(newRegistry("b"), true); err != nil {
		t.Fatalf("SwitchContext failed: %v", err)
	}
	if regA.Len() != 0 {
		t.Errorf("expected old registry released, got %d rules", regA.Len())
	}
}

func TestSwitchContextSameOrNil(t *testing.T) {
	reg := newRegistry("a")
	reg.Bind(loggerType).To(netType)
	e := newEngine(t, reg)
	f := MustMake[*foo](e)
	before := f.Log

	if err := e.SwitchContext(reg, true); err != nil {
		t.Fatalf("switching to the current registry must be a no-op, got %v", err)
	}
	if f.Log != before || reg.Len() != 1 {
		t.Error("no-op switch must neither re-inject nor release")
	}
	if err := e.SwitchContext(nil, false); !errors.IsCode(err, errors.ErrCodeNullArgument) {
		t.Errorf("expected NULL_ARGUMENT, got %v", err)
	}
}

func TestSwitchContextLeavesStaleValues(t *testing.T) {
	regA := newRegistry("a")
	regA.Bind(loggerType).To(netType)
	e := newEngine(t, regA)
	f := MustMake[*foo](e)

	if err := e.SwitchContext(newRegistry("empty"), false); err != nil {
		t.Fatalf("SwitchContext failed: %v", err)
	}
	if _, ok := f.Log.(*netLogger); !ok {
		t.Errorf("unbound member must keep its previous value, got %T", f.Log)
	}
}

func TestSwitchContextClearStale(t *testing.T) {
	regA := newRegistry("a")
	regA.Bind(loggerType).To(netType)
	e := newEngine(t, regA, WithStalePolicy(ClearStale))
	f := MustMake[*foo](e)
	b := MustMake[*bar](e)

	if err := e.SwitchContext(newRegistry("empty"), false); err != nil {
		t.Fatalf("SwitchContext failed: %v", err)
	}
	if f.Log != nil || b.Log != nil {
		t.Errorf("field members must be cleared, got %T and %T", f.Log, b.Log)
	}
	if b.viaMethod == nil {
		t.Error("method members cannot be cleared")
	}
}

type orderProbe struct {
	id  int
	log *[]int
}

func (p *orderProbe) InjectTransport(transport) { *p.log = append(*p.log, p.id) }

func TestSwitchContextReplaysInInsertionOrder(t *testing.T) {
	var calls []int
	regA := newRegistry("a")
	regA.Bind(transportType).ToInstance(consoleSinkless{})
	regB := newRegistry("b")
	regB.Bind(transportType).ToInstance(consoleSinkless{})

	e := newEngine(t, regA)
	probes := []*orderProbe{{id: 1, log: &calls}, {id: 2, log: &calls}, {id: 3, log: &calls}}
	for _, p := range probes {
		if err := e.Inject(p); err != nil {
			t.Fatalf("Inject failed: %v", err)
		}
	}
	// re-injecting keeps the original position
	if err := e.Inject(probes[0]); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	calls = nil

	if err := e.SwitchContext(regB, false); err != nil {
		t.Fatalf("SwitchContext failed: %v", err)
	}
	if len(calls) != 3 || calls[0] != 1 || calls[1] != 2 || calls[2] != 3 {
		t.Errorf("expected replay in insertion order, got %v", calls)
	}
}

// consoleSinkless is a value transport used where identity does not matter.
type consoleSinkless struct{}

func (consoleSinkless) Send(string) {}

func TestSwitchContextJoinsErrors(t *testing.T) {
	regA := newRegistry("a")
	e := newEngine(t, regA)
	f := &foo{}
	if err := e.Inject(f); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}

	regB := newRegistry("b")
	regB.Bind(reflect.TypeOf(&cycleA{})).To(reflect.TypeOf(&cycleA{}))
	regB.Bind(reflect.TypeOf(&cycleB{})).To(reflect.TypeOf(&cycleB{}))
	regB.Bind(loggerType).To(consoleType)
	if err := e.Inject(&cycleB{}); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}

	err := e.SwitchContext(regB, false)
	if !errors.IsCode(err, errors.ErrCodeInvalidState) {
		t.Fatalf("expected the cycle error to surface, got %v", err)
	}
	if _, ok := f.Log.(*consoleLogger); !ok {
		t.Errorf("replay must continue past failures, got %T", f.Log)
	}
}

func TestCacheDedupe(t *testing.T) {
	e := newEngine(t, newRegistry("a"))
	f := &foo{}
	for i := 0; i < 3; i++ {
		if err := e.Inject(f); err != nil {
			t.Fatalf("Inject failed: %v", err)
		}
	}
	if e.Tracked() != 1 {
		t.Errorf("expected one tracked entry, got %d", e.Tracked())
	}
}

func TestRelease(t *testing.T) {
	regA := newRegistry("a")
	regA.Bind(loggerType).To(netType)
	e := newEngine(t, regA)

	f1, f2 := &foo{}, &foo{}
	b := &bar{}
	for _, v := range []any{f1, f2, b} {
		if err := e.Inject(v); err != nil {
			t.Fatalf("Inject failed: %v", err)
		}
	}

	e.Release(f1)
	if e.IsTracked(f1) || !e.IsTracked(f2) {
		t.Fatal("Release(instance) must drop exactly that instance")
	}

	regB := newRegistry("b")
	regB.Bind(loggerType).To(consoleType)
	if err := e.SwitchContext(regB, false); err != nil {
		t.Fatalf("SwitchContext failed: %v", err)
	}
	if _, ok := f1.Log.(*netLogger); !ok {
		t.Error("released instance must keep its value and not be re-injected")
	}
	if _, ok := f2.Log.(*consoleLogger); !ok {
		t.Error("tracked instance must be re-injected")
	}

	e.Release(fooType)
	if e.IsTracked(fooType) || !e.IsTracked(b) {
		t.Error("Release(type) must drop every entry of that owner only")
	}

	if err := e.Inject(f2); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	if !e.IsTracked(reflect.PointerTo(fooType)) {
		t.Error("IsTracked(*T) must match owner T")
	}
	e.Release(reflect.TypeOf(&foo{}))
	if e.IsTracked(fooType) {
		t.Error("Release(*T) must drop entries of owner T")
	}

	e.Release(nil)
	e.ReleaseAll()
	if e.Tracked() != 0 {
		t.Errorf("expected nothing tracked, got %d", e.Tracked())
	}
}

func TestDispose(t *testing.T) {
	e := newEngine(t, newRegistry("a"))
	if err := e.Inject(&foo{}); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	e.Dispose()
	e.Dispose()

	if e.Tracked() != 0 {
		t.Error("Dispose must release tracking")
	}
	if err := e.Inject(&foo{}); !errors.IsCode(err, errors.ErrCodeInvalidState) {
		t.Errorf("expected STATE_ERROR after Dispose, got %v", err)
	}
	if err := e.SwitchContext(newRegistry("b"), false); !errors.IsCode(err, errors.ErrCodeInvalidState) {
		t.Errorf("expected STATE_ERROR after Dispose, got %v", err)
	}
}

func TestGenericHelpers(t *testing.T) {
	reg := newRegistry("a")
	reg.Bind(loggerType).To(consoleType)
	e := newEngine(t, reg)

	f, err := InjectNew[foo](e)
	if err != nil || f.Log == nil {
		t.Fatalf("InjectNew failed: %v %+v", err, f)
	}
	if _, err := Make[debugLogger](e); !errors.IsCode(err, errors.ErrCodeTypeMismatch) {
		t.Errorf("expected TYPE_ERROR for an interface, got %v", err)
	}

	defer func() {
		if err, _ := recover().(error); !errors.IsCode(err, errors.ErrCodeInvalidState) {
			t.Errorf("expected STATE_ERROR panic, got %v", err)
		}
	}()
	reg.Bind(reflect.TypeOf(&cycleA{})).To(reflect.TypeOf(&cycleA{}))
	reg.Bind(reflect.TypeOf(&cycleB{})).To(reflect.TypeOf(&cycleB{}))
	MustMake[*cycleA](e)
	t.Fatal("expected panic")
}

func TestEngineLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, &logger.Config{Level: "debug", Format: "json"}, "test")
	reg := newRegistry("logged")
	reg.Bind(loggerType).To(netType)

	e, err := New(reg, WithLogger(log))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := e.Inject(&foo{}); err != nil {
		t.Fatalf("Inject failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"message":"member assigned"`, `"member":"Log"`, `"engine_id":"` + e.ID() + `"`, `"message":"member skipped"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in log output:\n%s", want, out)
		}
	}
}

func TestEngineMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	m, err := observability.NewMetrics(mp.Meter(observability.MeterName))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	reg := newRegistry("a")
	reg.Bind(loggerType).To(netType)
	e := newEngine(t, reg, WithMetrics(m))
	MustMake[*foo](e)
	if err := e.SwitchContext(newRegistry("b"), false); err != nil {
		t.Fatalf("SwitchContext failed: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if s, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					totals[md.Name] += dp.Value
				}
			}
		}
	}
	// foo and the netLogger built for it
	if totals["bindkit.construction.total"] != 2 || totals["bindkit.injection.tracked"] != 2 {
		t.Errorf("unexpected totals: %v", totals)
	}
	if totals["bindkit.injection.assignments"] != 1 || totals["bindkit.context.switches"] != 1 {
		t.Errorf("unexpected totals: %v", totals)
	}
}
