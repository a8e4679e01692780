package binding

import (
	"reflect"

	"github.com/kbukum/bindkit/typeid"
)

type logSink interface {
	Log(msg string)
}

type netSink struct{ addr string }

func (n *netSink) Log(string) {}

type consoleSink struct{}

func (consoleSink) Log(string) {}

type foo struct{}

type bar struct{}

var (
	sinkType    = typeid.Of[logSink]()
	netType     = reflect.TypeOf(&netSink{})
	consoleType = reflect.TypeOf(consoleSink{})
	fooType     = typeid.Of[foo]()
	barType     = typeid.Of[bar]()
)

func newTestRegistry(opts ...Option) *Registry {
	return NewRegistry(append([]Option{WithPool(NewPool(0))}, opts...)...)
}
