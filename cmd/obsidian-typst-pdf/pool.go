package main

import (
	"runtime"
	"sync"

	typstexport "github.com/AlexKucera/obsidian-typst-pdf-export-sub001"
)

// MaxPoolSize caps parallel renderer subprocesses.
const MaxPoolSize = 8

// ServicePool manages typstexport.Service instances for parallel
// conversion. Each service owns its own scratch directory, so pooled
// services never contend on temp files. Services are created lazily on
// first acquire.
type ServicePool struct {
	size     int
	newSvc   func() Converter
	services []Converter
	sem      chan Converter
	mu       sync.Mutex
	created  int
	closed   bool
}

// NewServicePool creates a pool with capacity for n services sharing
// the given options.
func NewServicePool(n int, opts ...typstexport.Option) *ServicePool {
	if n < 1 {
		n = 1
	}
	return &ServicePool{
		size:     n,
		newSvc:   func() Converter { return typstexport.New(opts...) },
		services: make([]Converter, 0, n),
		sem:      make(chan Converter, n),
	}
}

var _ Pool = (*ServicePool)(nil)

// Acquire gets a service from the pool, creating one if capacity
// allows. Blocks while all services are in use.
func (p *ServicePool) Acquire() Converter {
	select {
	case svc := <-p.sem:
		return svc
	default:
	}

	p.mu.Lock()
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		svc := p.newSvc()

		p.mu.Lock()
		p.services = append(p.services, svc)
		p.mu.Unlock()
		return svc
	}
	p.mu.Unlock()

	return <-p.sem
}

// Release returns a service to the pool.
func (p *ServicePool) Release(svc Converter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.sem <- svc
	}
}

// Close closes every created service and drops their scratch space.
func (p *ServicePool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	services := p.services
	p.mu.Unlock()

	var lastErr error
	for _, svc := range services {
		if err := svc.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Size returns the pool capacity.
func (p *ServicePool) Size() int {
	return p.size
}

// resolvePoolSize determines pool size: explicit setting first, then
// half of GOMAXPROCS clamped to [1, MaxPoolSize].
func resolvePoolSize(configured int) int {
	if configured > 0 {
		if configured > MaxPoolSize {
			return MaxPoolSize
		}
		return configured
	}

	n := runtime.GOMAXPROCS(0) / 2
	if n < 1 {
		return 1
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
