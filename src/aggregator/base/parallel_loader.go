package base

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"statcan-proxy/src/internal/common"
)

// result represents the outcome of one keyed task
type result[TResult any] struct {
	key    string
	result TResult
	err    error
}

// ParallelLoader runs one task per key concurrently and collects every outcome.
// Tasks are independent: a failure in one never cancels the others.
type ParallelLoader[TItem, TResult any] struct {
	overallTimeout time.Duration
}

// NewParallelLoader creates a loader. An overallTimeout of zero waits for every task.
func NewParallelLoader[TItem, TResult any](overallTimeout time.Duration) *ParallelLoader[TItem, TResult] {
	return &ParallelLoader[TItem, TResult]{
		overallTimeout: overallTimeout,
	}
}

// Execute starts executor for every item and returns successful results by key
// together with the collected failures. When the overall timeout or ctx ends
// collection early, tasks still running keep running; only their results are
// missing from the return value.
func (p *ParallelLoader[TItem, TResult]) Execute(
	ctx context.Context,
	items map[string]TItem,
	executor func(context.Context, string, TItem) (TResult, error),
) (map[string]TResult, *ErrorCollector) {
	results := make(map[string]TResult)
	collector := NewErrorCollector()

	if len(items) == 0 {
		return results, collector
	}

	// Buffered so late tasks never block after collection stops
	resultCh := make(chan result[TResult], len(items))

	for key, item := range items {
		go func(k string, it TItem) {
			res, err := executor(ctx, k, it)
			resultCh <- result[TResult]{key: k, result: res, err: err}
		}(key, item)
	}

	var overall <-chan time.Time
	if p.overallTimeout > 0 {
		timer := time.NewTimer(p.overallTimeout)
		defer timer.Stop()
		overall = timer.C
	}

	responded := make(map[string]bool, len(items))
	for len(responded) < len(items) {
		select {
		case r := <-resultCh:
			responded[r.key] = true
			if r.err != nil {
				collector.Add(r.key, r.err)
				continue
			}
			results[r.key] = r.result

		case <-overall:
			common.ClientLogger.Warn("Overall timeout reached, returning partial results (%d/%d tasks finished)", len(responded), len(items))
			addMissing(collector, items, responded, fmt.Errorf("overall timeout - no result received"))
			return results, collector

		case <-ctx.Done():
			addMissing(collector, items, responded, ctx.Err())
			return results, collector
		}
	}

	if collector.HasErrors() {
		common.ClientLogger.Warn("Some tasks failed during parallel load: %s", strings.Join(collector.GetErrors(), "; "))
	}

	return results, collector
}

func addMissing[TItem any](collector *ErrorCollector, items map[string]TItem, responded map[string]bool, err error) {
	keys := make([]string, 0, len(items))
	for key := range items {
		if !responded[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		collector.Add(key, err)
	}
}
