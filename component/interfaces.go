package component

import "context"

// HealthStatus is the coarse state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health is the last known state of one component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a part of the process with a start/stop lifecycle.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	// Stop releases what Start acquired. It is called at most once per
	// successful Start.
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Func adapts plain functions to Component. Nil hooks are no-ops and a nil
// HealthFn reports healthy.
type Func struct {
	ID       string
	StartFn  func(ctx context.Context) error
	StopFn   func(ctx context.Context) error
	HealthFn func(ctx context.Context) Health
}

func (f *Func) Name() string { return f.ID }

func (f *Func) Start(ctx context.Context) error {
	if f.StartFn == nil {
		return nil
	}
	return f.StartFn(ctx)
}

func (f *Func) Stop(ctx context.Context) error {
	if f.StopFn == nil {
		return nil
	}
	return f.StopFn(ctx)
}

func (f *Func) Health(ctx context.Context) Health {
	if f.HealthFn == nil {
		return Health{Name: f.ID, Status: StatusHealthy}
	}
	h := f.HealthFn(ctx)
	if h.Name == "" {
		h.Name = f.ID
	}
	return h
}
