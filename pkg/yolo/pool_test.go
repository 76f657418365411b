package yolo

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	predictions []Prediction
	err         error
	delay       time.Duration
	release     chan struct{}
	panicValue  interface{}
	running     *int32
	maxSeen     *int32
	destroyed   atomic.Bool
}

func (r *fakeRunner) Run(image.Image) ([]Prediction, error) {
	if r.running != nil {
		n := atomic.AddInt32(r.running, 1)
		defer atomic.AddInt32(r.running, -1)
		for {
			seen := atomic.LoadInt32(r.maxSeen)
			if n <= seen || atomic.CompareAndSwapInt32(r.maxSeen, seen, n) {
				break
			}
		}
	}
	if r.release != nil {
		<-r.release
	}
	time.Sleep(r.delay)
	if r.panicValue != nil {
		panic(r.panicValue)
	}
	return r.predictions, r.err
}

func (r *fakeRunner) Destroy() {
	r.destroyed.Store(true)
}

func testImage() image.Image {
	return imaging.New(8, 8, color.White)
}

func newTestPool(t *testing.T, size int, newRunner func() *fakeRunner, options ...PoolOption) *Pool {
	t.Helper()
	pool, err := NewPool(size, Labels{"good_apple"}, func() (Runner, error) {
		return newRunner(), nil
	}, options...)
	require.NoError(t, err)
	t.Cleanup(pool.Destroy)
	return pool
}

func TestPoolDetectReturnsSingleImageBatch(t *testing.T) {
	want := []Prediction{{Box: [4]float32{1, 2, 3, 4}, Confidence: 0.9, Class: 0}}
	pool := newTestPool(t, 1, func() *fakeRunner { return &fakeRunner{predictions: want} })

	batch, err := pool.Detect(context.Background(), testImage())

	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, want, batch[0])

	metrics := pool.Metrics()
	assert.Equal(t, 1, metrics.PoolSize)
	assert.Equal(t, int64(1), metrics.TotalAcquired)
	assert.Eventually(t, func() bool { return pool.Metrics().TotalReleased == 1 }, time.Second, time.Millisecond)
}

func TestPoolDetectPropagatesRunnerError(t *testing.T) {
	boom := errors.New("device fault")
	pool := newTestPool(t, 1, func() *fakeRunner { return &fakeRunner{err: boom} })

	_, err := pool.Detect(context.Background(), testImage())

	assert.ErrorIs(t, err, boom)
}

func TestPoolDetectRecoversRunnerPanic(t *testing.T) {
	pool := newTestPool(t, 1, func() *fakeRunner { return &fakeRunner{panicValue: "tensor shape mismatch"} })

	_, err := pool.Detect(context.Background(), testImage())

	require.ErrorIs(t, err, ErrRunnerPanic)
	assert.Contains(t, err.Error(), "tensor shape mismatch")
	assert.Eventually(t, func() bool { return pool.Metrics().TotalReleased == 1 }, time.Second, time.Millisecond)

	_, err = pool.Detect(context.Background(), testImage())
	assert.ErrorIs(t, err, ErrRunnerPanic)
	assert.Equal(t, int64(2), pool.Metrics().TotalAcquired)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var running, maxSeen int32
	pool := newTestPool(t, 2, func() *fakeRunner {
		return &fakeRunner{delay: 10 * time.Millisecond, running: &running, maxSeen: &maxSeen}
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Detect(context.Background(), testImage())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&maxSeen), int32(2))
	assert.Equal(t, int64(8), pool.Metrics().TotalAcquired)
}

func TestPoolAcquireTimesOutWhenBusy(t *testing.T) {
	release := make(chan struct{})
	pool := newTestPool(t, 1, func() *fakeRunner { return &fakeRunner{release: release} },
		WithAcquireTimeout(20*time.Millisecond))

	go pool.Detect(context.Background(), testImage())
	require.Eventually(t, func() bool { return pool.Metrics().SessionsInUse == 1 }, time.Second, time.Millisecond)

	_, err := pool.Detect(context.Background(), testImage())
	assert.ErrorIs(t, err, ErrPoolBusy)
	assert.Equal(t, int64(1), pool.Metrics().AcquireFailures)

	close(release)
}

func TestPoolDetectTimeoutKeepsSessionUntilRunEnds(t *testing.T) {
	release := make(chan struct{})
	pool := newTestPool(t, 1, func() *fakeRunner { return &fakeRunner{release: release} })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := pool.Detect(ctx, testImage())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, pool.Metrics().SessionsInUse)

	close(release)
	assert.Eventually(t, func() bool { return pool.Metrics().SessionsInUse == 0 }, time.Second, time.Millisecond)
}

func TestNewPoolFactoryFailureDestroysCreatedRunners(t *testing.T) {
	created := []*fakeRunner{}
	calls := 0

	_, err := NewPool(3, nil, func() (Runner, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("no memory")
		}
		r := &fakeRunner{}
		created = append(created, r)
		return r, nil
	})

	require.Error(t, err)
	require.Len(t, created, 1)
	assert.True(t, created[0].destroyed.Load())
}

func TestPoolDestroy(t *testing.T) {
	runner := &fakeRunner{}
	pool, err := NewPool(1, nil, func() (Runner, error) { return runner, nil })
	require.NoError(t, err)

	pool.Destroy()
	pool.Destroy()

	assert.True(t, runner.destroyed.Load())
	_, err = pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}
