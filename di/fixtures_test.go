package di

import (
	"reflect"
	"sync"
	"testing"

	"github.com/kbukum/bindkit/binding"
	"github.com/kbukum/bindkit/logger"
	"github.com/kbukum/bindkit/typeid"
)

type debugLogger interface {
	Log(msg string)
}

type transport interface {
	Send(line string)
}

// recorder is a transport double that keeps every line it is sent.
type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) Send(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

type netLogger struct {
	Out transport `inject:""`
}

func (n *netLogger) Log(msg string) {
	if n.Out != nil {
		n.Out.Send("net: " + msg)
	}
}

type consoleLogger struct {
	Out transport `inject:""`
}

func (c *consoleLogger) Log(msg string) {
	if c.Out != nil {
		c.Out.Send("console: " + msg)
	}
}

type foo struct {
	Log    debugLogger `inject:""`
	Plain  transport
	Skip   transport   `inject:"-"`
	hidden debugLogger `inject:""`
}

type bar struct {
	Log       debugLogger `inject:""`
	viaMethod debugLogger
	calls     int
}

func (b *bar) InjectLogger(l debugLogger) {
	b.viaMethod = l
	b.calls++
}

type cycleA struct {
	B *cycleB `inject:""`
}

type cycleB struct {
	A *cycleA `inject:""`
}

type node struct {
	Next *node `inject:""`
}

type client struct {
	tr  transport
	Log debugLogger `inject:""`
}

func newClient(tr transport) *client { return &client{tr: tr} }

var (
	loggerType    = typeid.Of[debugLogger]()
	transportType = typeid.Of[transport]()
	fooType       = typeid.Of[foo]()
	barType       = typeid.Of[bar]()
	netType       = reflect.TypeOf(&netLogger{})
	consoleType   = reflect.TypeOf(&consoleLogger{})
)

func newRegistry(name string) *binding.Registry {
	return binding.NewRegistry(
		binding.WithPool(binding.NewPool(0)),
		binding.WithName(name),
		binding.WithLogger(logger.NewNop()),
	)
}

func newEngine(t *testing.T, reg *binding.Registry, opts ...Option) *Engine {
	t.Helper()
	e, err := New(reg, append([]Option{WithLogger(logger.NewNop())}, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}
