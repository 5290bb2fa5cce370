package fmu

import "sync"

// Pool keeps instantiated instances for reuse. Reused instances are reset by
// Evaluate instead of being instantiated again.
type Pool struct {
	d *Driver

	mu     sync.Mutex
	idle   []*Instance
	closed bool
}

func NewPool(d *Driver) *Pool {
	return &Pool{d: d}
}

// Get returns an idle instance or instantiates a new one.
func (p *Pool) Get() (*Instance, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		in := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return in, nil
	}
	p.mu.Unlock()

	in := p.d.NewInstance()
	if err := in.Instantiate(); err != nil {
		return nil, err
	}
	return in, nil
}

// Put returns in to the pool. Instances that are no longer live, or that come
// back after Close, are freed.
func (p *Pool) Put(in *Instance) {
	if !in.State().Live() {
		in.Free()
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		in.Free()
		return
	}
	p.idle = append(p.idle, in)
}

// Discard frees in without returning it to the pool.
func (p *Pool) Discard(in *Instance) {
	in.Free()
}

// Close frees every idle instance.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, in := range p.idle {
		in.Free()
	}
	p.idle = nil
	p.closed = true
}

func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}
