package sandbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrPoolClosed = errors.New("sandbox pool is closed")
	ErrTimeout    = errors.New("sandbox acquisition timeout")
)

// AcquireTimeout bounds how long Acquire waits for a free runtime
const AcquireTimeout = 5 * time.Second

// Pool hands out whole runtimes, one caller at a time each. A runtime that
// comes back is reset, so the next script starts with a fresh VM and an
// unconstructed registry.
type Pool struct {
	config Config
	idle   chan *Runtime
	size   int
	wait   time.Duration
	mu     sync.RWMutex
	closed bool

	executions   atomic.Int64
	failures     atomic.Int64
	resets       atomic.Int64
	replacements atomic.Int64
}

// NewPool builds size runtimes up front; size <= 0 means 4
func NewPool(config Config, size int) (*Pool, error) {
	if size <= 0 {
		size = 4
	}

	p := &Pool{
		config: config,
		idle:   make(chan *Runtime, size),
		size:   size,
		wait:   AcquireTimeout,
	}

	for i := 0; i < size; i++ {
		rt, err := New(config)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.idle <- rt
	}

	return p, nil
}

// Acquire takes an idle runtime, waiting up to AcquireTimeout
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	timer := time.NewTimer(p.wait)
	defer timer.Stop()

	select {
	case rt := <-p.idle:
		return rt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Release gives a runtime back. Its modules, globals and console are
// discarded first; a runtime that cannot be reset is swapped for a new one.
func (p *Pool) Release(rt *Runtime) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return rt.Close()
	}

	rt, err := p.recycle(rt)
	if rt == nil {
		return err
	}

	select {
	case p.idle <- rt:
	default:
		rt.Close()
	}
	return err
}

// recycle resets rt, or closes it and builds a replacement. The returned
// error is the reset failure even when a replacement was built.
func (p *Pool) recycle(rt *Runtime) (*Runtime, error) {
	err := rt.Reset()
	if err == nil {
		p.resets.Add(1)
		return rt, nil
	}

	rt.Close()
	replacement, newErr := New(p.config)
	if newErr != nil {
		return nil, errors.Join(err, newErr)
	}
	p.replacements.Add(1)
	return replacement, err
}

// Execute runs script on a pooled runtime and releases it afterwards
func (p *Pool) Execute(ctx context.Context, script string) (*Result, error) {
	rt, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(rt)

	p.executions.Add(1)
	result, err := rt.Execute(ctx, script)
	if err != nil {
		p.failures.Add(1)
	}
	return result, err
}

// Close closes every idle runtime; runtimes released later are closed then
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.idle)
	for rt := range p.idle {
		rt.Close()
	}
	return nil
}

// Stats reports occupancy and counters
func (p *Pool) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"size":         p.size,
		"available":    len(p.idle),
		"in_use":       p.size - len(p.idle),
		"closed":       p.closed,
		"executions":   p.executions.Load(),
		"failures":     p.failures.Load(),
		"resets":       p.resets.Load(),
		"replacements": p.replacements.Load(),
	}
}
