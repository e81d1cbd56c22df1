package fetch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PollerOptions configures a Poller.
type PollerOptions[T any] struct {
	// Immediate runs the first poll on Start instead of after one interval.
	Immediate bool
	// OnResult is called after every poll.
	OnResult func(T, error)
	Context  string
	Errors   ErrorReporter
	Logger   *zap.Logger
}

// Poller runs a call on a fixed interval and keeps the latest result. A
// poll that outlasts the interval is not waited for, so polls may overlap
// and the last one to finish wins.
type Poller[T any] struct {
	fn       func(context.Context) (T, error)
	interval time.Duration
	opts     PollerOptions[T]
	log      *zap.Logger

	mu      sync.Mutex
	latest  T
	hasData bool
	lastErr error
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPoller returns a stopped poller.
func NewPoller[T any](fn func(context.Context) (T, error), interval time.Duration, opts PollerOptions[T]) *Poller[T] {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller[T]{fn: fn, interval: interval, opts: opts, log: log}
}

// Start begins polling until Stop is called or ctx is done. Starting a
// running poller does nothing.
func (p *Poller[T]) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	go p.loop(ctx)
}

func (p *Poller[T]) loop(ctx context.Context) {
	defer p.wg.Done()

	if p.opts.Immediate {
		p.spawn(ctx)
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.spawn(ctx)
		}
	}
}

func (p *Poller[T]) spawn(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.poll(ctx)
	}()
}

func (p *Poller[T]) poll(ctx context.Context) {
	v, err := p.fn(ctx)
	if err != nil && ctx.Err() != nil {
		// stopped mid-flight
		return
	}

	p.mu.Lock()
	p.lastErr = err
	if err == nil {
		p.latest = v
		p.hasData = true
	}
	p.mu.Unlock()

	if err != nil {
		p.log.Debug("poll failed", zap.String("context", p.opts.Context), zap.Error(err))
		report(p.opts.Errors, p.opts.Context, err)
	}
	if p.opts.OnResult != nil {
		p.opts.OnResult(v, err)
	}
}

// Stop ends polling and waits for in-flight polls to return.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	p.wg.Wait()
}

// Running reports whether the poller has been started and not stopped.
func (p *Poller[T]) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Latest returns the last successful result.
func (p *Poller[T]) Latest() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.hasData
}

// Err returns the error of the most recent poll.
func (p *Poller[T]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
