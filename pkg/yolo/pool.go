package yolo

import (
	"context"
	"fmt"
	"image"
	"runtime/debug"
	"sync"
	"time"
)

const (
	DefaultPoolSize       = 1
	DefaultAcquireTimeout = 5 * time.Second
)

// Factory creates one Runner for the pool.
type Factory func() (Runner, error)

// Pool owns a fixed set of runners. Each runner serves one request at a time,
// so the pool size bounds the number of concurrent inferences.
type Pool struct {
	sessions       chan Runner
	size           int
	labels         Labels
	acquireTimeout time.Duration
	mu             sync.Mutex
	closed         bool
	metrics        *poolMetrics
}

type poolMetrics struct {
	mu              sync.RWMutex
	inUse           int
	totalAcquired   int64
	totalReleased   int64
	acquireFailures int64
	waitTime        time.Duration
}

// Metrics is a snapshot of pool counters.
type Metrics struct {
	PoolSize        int   `json:"pool_size"`
	SessionsInUse   int   `json:"sessions_in_use"`
	TotalAcquired   int64 `json:"total_acquired"`
	TotalReleased   int64 `json:"total_released"`
	AcquireFailures int64 `json:"acquire_failures"`
	WaitTimeMs      int64 `json:"wait_time_ms"`
}

type PoolOption func(*Pool)

func WithAcquireTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		p.acquireTimeout = d
	}
}

func NewPool(size int, labels Labels, factory Factory, options ...PoolOption) (*Pool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}

	pool := &Pool{
		sessions:       make(chan Runner, size),
		size:           size,
		labels:         labels,
		acquireTimeout: DefaultAcquireTimeout,
		metrics:        &poolMetrics{},
	}
	for _, option := range options {
		option(pool)
	}

	for i := 0; i < size; i++ {
		runner, err := factory()
		if err != nil {
			pool.Destroy()
			return nil, fmt.Errorf("failed to initialize session %d: %w", i, err)
		}
		pool.sessions <- runner
	}

	return pool, nil
}

func (p *Pool) Acquire(ctx context.Context) (Runner, error) {
	start := time.Now()
	defer func() {
		p.metrics.mu.Lock()
		p.metrics.waitTime += time.Since(start)
		p.metrics.mu.Unlock()
	}()

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case runner, ok := <-p.sessions:
		if !ok {
			return nil, ErrPoolClosed
		}
		p.metrics.mu.Lock()
		p.metrics.inUse++
		p.metrics.totalAcquired++
		p.metrics.mu.Unlock()
		return runner, nil
	case <-timer.C:
		p.metrics.mu.Lock()
		p.metrics.acquireFailures++
		p.metrics.mu.Unlock()
		return nil, ErrPoolBusy
	case <-ctx.Done():
		p.metrics.mu.Lock()
		p.metrics.acquireFailures++
		p.metrics.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrPoolBusy, ctx.Err())
	}
}

func (p *Pool) Release(runner Runner) {
	p.metrics.mu.Lock()
	p.metrics.inUse--
	p.metrics.totalReleased++
	p.metrics.mu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		runner.Destroy()
		return
	}

	p.sessions <- runner
}

type runResult struct {
	predictions []Prediction
	err         error
}

// Detect runs img through one pooled runner. Inference happens on its own
// goroutine; if ctx ends first Detect returns ErrTimeout and the runner goes
// back to the pool once inference completes.
func (p *Pool) Detect(ctx context.Context, img image.Image) (Batch, error) {
	runner, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	done := make(chan runResult, 1)
	go func() {
		defer p.Release(runner)
		defer func() {
			if r := recover(); r != nil {
				done <- runResult{err: fmt.Errorf("%w: %v\n%s", ErrRunnerPanic, r, debug.Stack())}
			}
		}()
		predictions, err := runner.Run(img)
		done <- runResult{predictions: predictions, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return Batch{res.predictions}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
}

func (p *Pool) Labels() Labels {
	return p.labels
}

func (p *Pool) Metrics() Metrics {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()

	return Metrics{
		PoolSize:        p.size,
		SessionsInUse:   p.metrics.inUse,
		TotalAcquired:   p.metrics.totalAcquired,
		TotalReleased:   p.metrics.totalReleased,
		AcquireFailures: p.metrics.acquireFailures,
		WaitTimeMs:      p.metrics.waitTime.Milliseconds(),
	}
}

// Destroy closes the pool. Idle runners are destroyed now, busy ones when
// they are released.
func (p *Pool) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.sessions)

	for runner := range p.sessions {
		runner.Destroy()
	}
}
