package aggregator

import (
	"context"
	"errors"
	"sort"
	"sync"

	"statcan-proxy/src/internal/common"
	"statcan-proxy/src/internal/types"
)

// ErrViewClosed is returned by Wait once the owning view has been closed
var ErrViewClosed = errors.New("dataset view closed")

// DatasetState is the (loading, data, error) tuple observed for one dataset.
// Data and Error are never both set; neither is set while loading.
type DatasetState struct {
	Loading bool             `json:"loading"`
	Data    *types.ChartData `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Failed reports a terminal error state
func (s DatasetState) Failed() bool {
	return !s.Loading && s.Error != ""
}

// Succeeded reports a terminal state carrying data
func (s DatasetState) Succeeded() bool {
	return !s.Loading && s.Data != nil
}

// Phase names the state for display
func (s DatasetState) Phase() string {
	switch {
	case s.Loading:
		return "loading"
	case s.Error != "":
		return "error"
	case s.Data != nil:
		return "success"
	default:
		return "idle"
	}
}

func (s DatasetState) clone() DatasetState {
	s.Data = s.Data.Clone()
	return s
}

// Cell owns the state of one dataset. Only the latest load may move it to a
// terminal state, and nothing moves it after its view closes.
type Cell struct {
	name string

	mu      sync.Mutex
	state   DatasetState
	gen     uint64
	closed  bool
	done    chan struct{}
	subs    map[int]func(DatasetState)
	nextSub int

	// held across a transition and its notifications so subscribers see
	// transitions in the order they were applied
	deliverMu sync.Mutex
}

func newCell(name string) *Cell {
	return &Cell{
		name:  name,
		state: DatasetState{Loading: true},
		done:  make(chan struct{}),
		subs:  make(map[int]func(DatasetState)),
	}
}

// Name returns the dataset name the cell belongs to
func (c *Cell) Name() string {
	return c.name
}

// State returns a copy of the current state
func (c *Cell) State() DatasetState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn for every later state change and returns a function
// that removes it. fn must not start a load on the same cell.
func (c *Cell) Subscribe(fn func(DatasetState)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Wait blocks until the cell holds a terminal state, the view closes, or ctx ends
func (c *Cell) Wait(ctx context.Context) (DatasetState, error) {
	for {
		c.mu.Lock()
		state, closed, done := c.state.clone(), c.closed, c.done
		c.mu.Unlock()

		if !state.Loading {
			return state, nil
		}
		if closed {
			return state, ErrViewClosed
		}

		select {
		case <-done:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

// begin moves the cell to loading and returns the generation of the new load.
// A cell that is already loading is not re-announced.
func (c *Cell) begin() (uint64, bool) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, false
	}
	c.gen++
	gen := c.gen
	wasLoading := c.state.Loading
	c.state = DatasetState{Loading: true}
	if !wasLoading {
		c.done = make(chan struct{})
	}
	subs := c.subscribers()
	c.mu.Unlock()

	if !wasLoading {
		notify(subs, DatasetState{Loading: true})
	}
	return gen, true
}

// finish applies the terminal state of load gen. It reports false when the
// result was discarded because a newer load started or the view closed.
func (c *Cell) finish(gen uint64, state DatasetState) bool {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	if c.closed || gen != c.gen || !c.state.Loading {
		c.mu.Unlock()
		common.ClientLogger.Debug("Discarding stale result for %s (generation %d)", c.name, gen)
		return false
	}
	state.Loading = false
	c.state = state
	close(c.done)
	subs := c.subscribers()
	snapshot := c.state.clone()
	c.mu.Unlock()

	notify(subs, snapshot)
	return true
}

func (c *Cell) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.subs = make(map[int]func(DatasetState))
	if c.state.Loading {
		close(c.done)
	}
}

// subscribers returns the callbacks in registration order; c.mu must be held
func (c *Cell) subscribers() []func(DatasetState) {
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(DatasetState), len(ids))
	for i, id := range ids {
		out[i] = c.subs[id]
	}
	return out
}

func notify(subs []func(DatasetState), state DatasetState) {
	for _, fn := range subs {
		fn(state.clone())
	}
}

// View is the set of dataset cells that live as long as one page is shown.
// Closing it is the unmount: every later update is dropped.
type View struct {
	mu     sync.RWMutex
	order  []string
	cells  map[string]*Cell
	closed bool
}

// NewView mounts a cell per name, each starting in the loading state.
// Duplicate names share one cell.
func NewView(names ...string) *View {
	v := &View{cells: make(map[string]*Cell, len(names))}
	for _, name := range names {
		if _, ok := v.cells[name]; ok {
			continue
		}
		v.cells[name] = newCell(name)
		v.order = append(v.order, name)
	}
	return v
}

// Cell returns the cell for name
func (v *View) Cell(name string) (*Cell, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c, ok := v.cells[name]
	return c, ok
}

// Names returns the dataset names in mount order
func (v *View) Names() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.order...)
}

// Snapshot copies every cell's current state
func (v *View) Snapshot() map[string]DatasetState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]DatasetState, len(v.cells))
	for name, c := range v.cells {
		out[name] = c.State()
	}
	return out
}

// Wait blocks until every cell is terminal and returns their states
func (v *View) Wait(ctx context.Context) (map[string]DatasetState, error) {
	out := make(map[string]DatasetState)
	for _, name := range v.Names() {
		c, _ := v.Cell(name)
		state, err := c.Wait(ctx)
		out[name] = state
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Close unmounts the view. Loads still in flight finish but their results are dropped.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	for _, c := range v.cells {
		c.close()
	}
}

// Closed reports whether Close was called
func (v *View) Closed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.closed
}
