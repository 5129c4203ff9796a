package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"statcan-proxy/src/internal/types"
)

// fakeResponse is one canned answer. A non-nil wait channel holds the answer back until closed.
type fakeResponse struct {
	body string
	err  error
	wait chan struct{}
}

// fakeFetcher answers by the first vector id of a batch, or from a queue
// consumed in call order when one is set.
type fakeFetcher struct {
	mu    sync.Mutex
	byID  map[int64]fakeResponse
	queue []fakeResponse
	calls []types.VectorQueryBatch
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{byID: make(map[int64]fakeResponse)}
}

func (f *fakeFetcher) withBody(firstID int64, body string) *fakeFetcher {
	f.byID[firstID] = fakeResponse{body: body}
	return f
}

func (f *fakeFetcher) withError(firstID int64, err error) *fakeFetcher {
	f.byID[firstID] = fakeResponse{err: err}
	return f
}

func (f *fakeFetcher) withHeld(firstID int64, body string, wait chan struct{}) *fakeFetcher {
	f.byID[firstID] = fakeResponse{body: body, wait: wait}
	return f
}

func (f *fakeFetcher) thenRespond(r fakeResponse) *fakeFetcher {
	f.queue = append(f.queue, r)
	return f
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) FetchVectors(ctx context.Context, batch types.VectorQueryBatch) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, batch)
	var r fakeResponse
	var ok bool
	if len(f.queue) > 0 {
		r, ok = f.queue[0], true
		f.queue = f.queue[1:]
	} else if len(batch) > 0 {
		r, ok = f.byID[batch[0].VectorID]
	}
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no response configured")
	}
	if r.wait != nil {
		select {
		case <-r.wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.body), nil
}

// observations builds a provider body with one entry per value. A nil value
// produces an entry whose vectorDataPoint is empty.
func observations(values ...interface{}) string {
	entries := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			entries[i] = fmt.Sprintf(`{"status":"SUCCESS","object":{"vectorId":%d,"vectorDataPoint":[]}}`, i)
			continue
		}
		entries[i] = fmt.Sprintf(`{"status":"SUCCESS","object":{"vectorId":%d,"vectorDataPoint":[{"refPer":"2021-01-01","value":%v}]}}`, i, v)
	}
	return "[" + strings.Join(entries, ",") + "]"
}
