package stream

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kallebelins/mvp24hours-go/errors"
)

func TestProcess_OrderPreserved(t *testing.T) {
	p := Append(
		New(func(ctx context.Context, in int) (int, error) {
			return in * 2, nil
		}),
		func(ctx context.Context, in int) (int, error) {
			return in + 1, nil
		},
	)

	out := Process(context.Background(), p, FromSlice([]int{1, 2, 3, 4, 5}))
	defer out.Close()

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 5, 7, 9, 11}, got)
}

func TestProcess_StageErrorEndsStream(t *testing.T) {
	errBroken := pkgerrors.New("broken item")
	p := New(func(ctx context.Context, in int) (int, error) {
		if in == 3 {
			return 0, errBroken
		}
		return in, nil
	})

	out := Process(context.Background(), p, FromSlice([]int{1, 2, 3, 4}))
	defer out.Close()

	got, err := Collect(context.Background(), out)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, []int{1, 2}, got)
}

func TestProcess_SourceErrorPropagates(t *testing.T) {
	srcErr := pkgerrors.New("source exploded")
	ch := make(chan result[int], 2)
	ch <- result[int]{val: 1, ok: true}
	ch <- result[int]{err: srcErr}
	close(ch)

	p := New(func(ctx context.Context, in int) (int, error) {
		return in, nil
	})
	out := Process(context.Background(), p, &resultSourceIter[int]{ch: ch})
	defer out.Close()

	got, err := Collect(context.Background(), out)
	require.Error(t, err)
	assert.ErrorIs(t, err, srcErr)
	assert.Equal(t, []int{1}, got)
}

// resultSourceIter feeds scripted results, including errors, into a run.
type resultSourceIter[T any] struct {
	ch chan result[T]
}

func (it *resultSourceIter[T]) Next(_ context.Context) (T, bool, error) {
	r, open := <-it.ch
	if !open {
		var zero T
		return zero, false, nil
	}
	return r.val, r.ok, r.err
}

func (it *resultSourceIter[T]) Close() error { return nil }

func TestProcess_BackpressureBlocksProducer(t *testing.T) {
	var produced atomic.Int32
	src := make(chan int)
	go func() {
		defer close(src)
		for i := 0; i < 100; i++ {
			src <- i
			produced.Add(1)
		}
	}()

	p := New(func(ctx context.Context, in int) (int, error) {
		return in, nil
	}, WithCapacity(1))

	out := Process(context.Background(), p, FromChan(src))
	defer out.Close()

	// Pull nothing; the producer may fill the stage queues and no more.
	time.Sleep(50 * time.Millisecond)
	stalled := produced.Load()
	assert.LessOrEqual(t, stalled, int32(6), "producer should stall against full queues")

	// Draining releases the producer.
	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.Len(t, got, 100)
}

func TestProcess_CloseReleasesStages(t *testing.T) {
	started := make(chan struct{}, 1)
	p := New(func(ctx context.Context, in int) (int, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		return in, nil
	})

	src := make(chan int)
	go func() {
		for i := 0; ; i++ {
			src <- i
		}
	}()

	out := Process(context.Background(), p, FromChan(src))
	<-started
	require.NoError(t, out.Close())

	_, _, err := out.Next(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStreamClosed))
}

func TestProcess_ParentCancellationUnblocksNext(t *testing.T) {
	p := New(func(ctx context.Context, in int) (int, error) {
		return in, nil
	})

	src := make(chan int)
	out := Process(context.Background(), p, FromChan(src))
	defer out.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, _, err := out.Next(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCanceled))
}

func TestProcessParallel_AllItemsProcessed(t *testing.T) {
	p := New(func(ctx context.Context, in int) (int, error) {
		return in * in, nil
	})

	items := make([]int, 50)
	want := make([]int, 50)
	for i := range items {
		items[i] = i
		want[i] = i * i
	}

	out := ProcessParallel(context.Background(), p, FromSlice(items), 8)
	defer out.Close()

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, got)
}

func TestProcessParallel_ErrorSurfaced(t *testing.T) {
	errBad := pkgerrors.New("bad item")
	p := New(func(ctx context.Context, in int) (int, error) {
		if in == 7 {
			return 0, errBad
		}
		return in, nil
	})

	out := ProcessParallel(context.Background(), p, FromSlice([]int{1, 7, 3}), 2)
	defer out.Close()

	_, err := Collect(context.Background(), out)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBad)
}

func TestProcessParallel_ConcurrencyBound(t *testing.T) {
	var current, peak atomic.Int32
	p := New(func(ctx context.Context, in int) (int, error) {
		n := current.Add(1)
		for {
			hi := peak.Load()
			if n <= hi || peak.CompareAndSwap(hi, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		current.Add(-1)
		return in, nil
	})

	items := make([]int, 20)
	out := ProcessParallel(context.Background(), p, FromSlice(items), 3)
	defer out.Close()

	_, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestProcessParallel_ZeroWorkersDefaultsToOne(t *testing.T) {
	p := New(func(ctx context.Context, in int) (int, error) {
		return in + 1, nil
	})

	out := ProcessParallel(context.Background(), p, FromSlice([]int{1, 2}), 0)
	defer out.Close()

	got, err := Collect(context.Background(), out)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2, 3}, got)
}
