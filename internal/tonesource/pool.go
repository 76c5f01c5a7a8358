package tonesource

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nullteam/toneengine/internal/cadence"
	"github.com/nullteam/toneengine/internal/metrics"
	"github.com/sourcegraph/conc"
)

// Pool indexes running Sources by canonical cadence name and shares
// one Source across concurrent requests for the same repeating
// cadence, per spec: a lookup that finds a live repeatable source
// with refcount >= 1 already running shares it, otherwise a new
// Source is constructed and started on its own worker goroutine.
type Pool struct {
	registry *cadence.Registry
	logger   *slog.Logger

	mu      sync.Mutex
	byName  map[string]*Source
	workers conc.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	metrics *metrics.Metrics
}

// WithMetrics attaches a Metrics recorder; subsequently started and
// stopped sources report to it. Returns p for chaining.
func (p *Pool) WithMetrics(m *metrics.Metrics) *Pool {
	p.metrics = m
	return p
}

// NewPool creates a Pool resolving names against registry. The pool's
// own context governs every Source it starts; cancelling it (via
// Close) stops all running sources.
func NewPool(registry *cadence.Registry, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		registry: registry,
		logger:   logger,
		byName:   make(map[string]*Source),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// GetTone implements the Request API of spec.md 6: it canonicalizes
// name in place via the registry, then returns either a shared
// running Source (repeat_all cadences only) or a freshly started one,
// wired to emit frames to the emit callback. Returns nil if name does
// not resolve to a known cadence.
func (p *Pool) GetTone(name, languagePrefix string, emit func(frame []int16)) *Source {
	desc, canonical, ok := p.registry.Resolve(name, languagePrefix, true)
	if !ok {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if desc.RepeatAll {
		if existing, ok := p.byName[canonical]; ok {
			select {
			case <-existing.Done():
				delete(p.byName, canonical)
			default:
				if existing.RefCount() >= 1 {
					existing.AddRef()
					return existing
				}
			}
		}
	}

	src := New(canonical, desc.Cadence, Infinite, p.logger)
	if desc.RepeatAll {
		p.byName[canonical] = src
	}

	if p.metrics != nil {
		p.metrics.RecordSourceStarted()
	}
	p.workers.Go(func() {
		src.Run(p.ctx, emit)
		if p.metrics != nil {
			p.metrics.RecordSourceStopped()
		}
		if desc.RepeatAll {
			p.mu.Lock()
			if p.byName[canonical] == src {
				delete(p.byName, canonical)
			}
			p.mu.Unlock()
		}
	})
	return src
}

// Release decrements src's reference count and, if it drops to zero,
// stops the source and removes it from the pool.
func (p *Pool) Release(src *Source) {
	if src.Release() > 0 {
		return
	}
	src.Stop()
	p.mu.Lock()
	if p.byName[src.Name()] == src {
		delete(p.byName, src.Name())
	}
	p.mu.Unlock()
}

// ActiveNames lists the canonical names of currently shared, running
// sources, for diagnostics endpoints.
func (p *Pool) ActiveNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.byName))
	for name := range p.byName {
		names = append(names, name)
	}
	return names
}

// Close cancels every running source and waits for their worker
// goroutines to exit.
func (p *Pool) Close() error {
	p.cancel()
	p.workers.Wait()
	return nil
}
