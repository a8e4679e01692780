package binding

import "sync"

// Pool recycles Descriptors across registry churn. It is safe for
// concurrent use.
type Pool struct {
	mu   sync.Mutex
	free []*Descriptor
}

var defaultPool = NewPool(0)

// DefaultPool returns the process-wide pool used by registries created
// without WithPool. Call Clear on it to isolate tests.
func DefaultPool() *Pool { return defaultPool }

// NewPool returns a pool holding prealloc cleared descriptors.
func NewPool(prealloc int) *Pool {
	p := &Pool{free: make([]*Descriptor, 0, prealloc)}
	for i := 0; i < prealloc; i++ {
		p.free = append(p.free, &Descriptor{pooled: true})
	}
	return p
}

// Acquire returns a cleared descriptor, recycled when one is available.
func (p *Pool) Acquire() *Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.free)
	if n == 0 {
		return &Descriptor{}
	}
	d := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	d.pooled = false
	return d
}

// Release clears d and makes it available again. Releasing a descriptor
// that is already pooled is a no-op.
func (p *Pool) Release(d *Descriptor) {
	if d == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if d.pooled {
		return
	}
	d.reset()
	d.pooled = true
	p.free = append(p.free, d)
}

// Len returns the number of descriptors available for reuse.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Clear drops every pooled descriptor.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.free)
	p.free = p.free[:0]
}
