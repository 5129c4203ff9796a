package base

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTask is a builder-style task description used by the executor below
type fakeTask struct {
	value int
	delay time.Duration
	err   error
}

func task(value int) fakeTask { return fakeTask{value: value} }

func (f fakeTask) withDelay(d time.Duration) fakeTask { f.delay = d; return f }

func (f fakeTask) withFailure(err error) fakeTask { f.err = err; return f }

func runTask(ctx context.Context, key string, f fakeTask) (int, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if f.err != nil {
		return 0, f.err
	}
	return f.value, nil
}

func TestParallelLoader_AllSucceed(t *testing.T) {
	loader := NewParallelLoader[fakeTask, int](0)
	items := map[string]fakeTask{"a": task(1), "b": task(2), "c": task(3)}

	results, errs := loader.Execute(context.Background(), items, runTask)

	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 3}, results)
	assert.False(t, errs.HasErrors())
}

func TestParallelLoader_FailureDoesNotAffectOthers(t *testing.T) {
	loader := NewParallelLoader[fakeTask, int](0)
	items := map[string]fakeTask{
		"ok":   task(7).withDelay(20 * time.Millisecond),
		"fail": task(0).withFailure(fmt.Errorf("boom")),
	}

	results, errs := loader.Execute(context.Background(), items, runTask)

	assert.Equal(t, map[string]int{"ok": 7}, results)
	require.Equal(t, 1, errs.GetErrorCount())
	e, ok := errs.Get("fail")
	require.True(t, ok)
	assert.EqualError(t, e.Err, "boom")
}

func TestParallelLoader_RunsConcurrently(t *testing.T) {
	loader := NewParallelLoader[fakeTask, int](0)
	items := map[string]fakeTask{}
	for i := 0; i < 5; i++ {
		items[fmt.Sprintf("t%d", i)] = task(i).withDelay(50 * time.Millisecond)
	}

	start := time.Now()
	results, _ := loader.Execute(context.Background(), items, runTask)

	assert.Len(t, results, 5)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestParallelLoader_OverallTimeoutReturnsPartial(t *testing.T) {
	loader := NewParallelLoader[fakeTask, int](30 * time.Millisecond)
	var finished int32
	items := map[string]fakeTask{
		"fast": task(1),
		"slow": task(2).withDelay(300 * time.Millisecond),
	}

	results, errs := loader.Execute(context.Background(), items, func(ctx context.Context, k string, f fakeTask) (int, error) {
		v, err := runTask(ctx, k, f)
		atomic.AddInt32(&finished, 1)
		return v, err
	})

	assert.Equal(t, map[string]int{"fast": 1}, results)
	e, ok := errs.Get("slow")
	require.True(t, ok)
	assert.Contains(t, e.Err.Error(), "overall timeout")
	assert.Equal(t, ErrorTypeTimeout, e.ErrorType)

	// The slow task is not cancelled by the collection timeout
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&finished) == 2 }, time.Second, 10*time.Millisecond)
}

func TestParallelLoader_ContextCancelled(t *testing.T) {
	loader := NewParallelLoader[fakeTask, int](0)
	ctx, cancel := context.WithCancel(context.Background())
	items := map[string]fakeTask{"slow": task(1).withDelay(time.Second)}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	results, errs := loader.Execute(ctx, items, runTask)
	assert.Empty(t, results)
	e, ok := errs.Get("slow")
	require.True(t, ok)
	assert.Equal(t, ErrorTypeCancelled, e.ErrorType)
}

func TestParallelLoader_NoItems(t *testing.T) {
	loader := NewParallelLoader[fakeTask, int](0)
	results, errs := loader.Execute(context.Background(), nil, runTask)
	assert.Empty(t, results)
	assert.False(t, errs.HasErrors())
}
