package cli

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/kbukum/bindkit/binding"
	"github.com/kbukum/bindkit/component"
	"github.com/kbukum/bindkit/di"
	"github.com/kbukum/bindkit/typeid"
)

// Logger is the abstraction the demo components depend on.
type Logger interface {
	Log(msg string)
}

// NetLogger ships lines to a remote collector.
type NetLogger struct {
	Out io.Writer `inject:""`
}

func (l *NetLogger) Log(msg string) {
	if l.Out != nil {
		fmt.Fprintf(l.Out, "net: %s", msg)
	}
}

// ConsoleLogger writes lines locally.
type ConsoleLogger struct {
	Out io.Writer `inject:""`
}

func (l *ConsoleLogger) Log(msg string) {
	if l.Out != nil {
		fmt.Fprintf(l.Out, "console: %s", msg)
	}
}

// Service receives its logger through a field.
type Service struct {
	Log Logger `inject:""`
}

// Auditor receives its logger through a method.
type Auditor struct {
	log Logger
}

func (a *Auditor) InjectLogger(l Logger) { a.log = l }

// Worker has an explicit opt-out in the local context.
type Worker struct {
	Log Logger `inject:""`
}

// sink remembers the last line written to it.
type sink struct {
	last string
}

func (s *sink) Write(p []byte) (int, error) {
	s.last = string(p)
	return len(p), nil
}

func (s *sink) take() string {
	line := s.last
	s.last = ""
	return line
}

var (
	loggerType = typeid.Of[Logger]()
	writerType = typeid.Of[io.Writer]()
)

func isAudit(owner reflect.Type) bool {
	return owner != nil && strings.HasPrefix(owner.Name(), "Audit")
}

// productionBindings routes Service to the network, anything audit-like to
// the console, and leaves other owners to the general rules.
func productionBindings(reg *binding.Registry, out io.Writer) {
	binding.ForOwner[Logger, Service](reg).To(typeid.Of[*NetLogger]())
	binding.For[Logger](reg).Where(isAudit).To(typeid.Of[*ConsoleLogger]())
	reg.Bind(writerType).ToInstance(out)
}

// localBindings sends everything to the console except Worker, which is
// explicitly unbound.
func localBindings(reg *binding.Registry, out io.Writer) {
	reg.Bind(loggerType).To(typeid.Of[*ConsoleLogger]())
	binding.ForOwner[Logger, Worker](reg)
	reg.Bind(writerType).ToInstance(out)
}

// owner is one demo component as seen by the report.
type owner struct {
	name   string
	typ    reflect.Type
	logger func() Logger
}

func owners(svc *Service, aud *Auditor, wrk *Worker) []owner {
	return []owner{
		{"Service", typeid.Of[Service](), func() Logger { return svc.Log }},
		{"Auditor", typeid.Of[Auditor](), func() Logger { return aud.log }},
		{"Worker", typeid.Of[Worker](), func() Logger { return wrk.Log }},
	}
}

func registryComponent(reg *binding.Registry) component.Component {
	return &component.Func{
		ID: "registry." + reg.Name(),
		StopFn: func(context.Context) error {
			reg.Release()
			return nil
		},
		HealthFn: func(context.Context) component.Health {
			n := reg.Len()
			if n == 0 {
				return component.Health{Status: component.StatusDegraded, Message: "no bindings"}
			}
			return component.Health{Status: component.StatusHealthy, Message: fmt.Sprintf("bindings=%d", n)}
		},
	}
}

func engineComponent(e *di.Engine) component.Component {
	return &component.Func{
		ID: "engine",
		StopFn: func(context.Context) error {
			e.Dispose()
			return nil
		},
		HealthFn: func(context.Context) component.Health {
			return component.Health{
				Status:  component.StatusHealthy,
				Message: fmt.Sprintf("registry=%s tracked=%d", e.Registry().Name(), e.Tracked()),
			}
		},
	}
}
