package aggregator

import (
	"context"
	"fmt"

	"statcan-proxy/src/aggregator/base"
	"statcan-proxy/src/internal/common"
	internalErrors "statcan-proxy/src/internal/errors"
	"statcan-proxy/src/internal/types"
)

// Loader runs the loading -> terminal cycle for datasets against one fetcher
type Loader struct {
	fetcher  types.VectorFetcher
	parallel *base.ParallelLoader[*loadTask, DatasetState]
}

type loadTask struct {
	cell    *Cell
	gen     uint64
	dataset *Dataset
}

// NewLoader creates a loader. fetcher may be nil when only static datasets are loaded.
func NewLoader(fetcher types.VectorFetcher) *Loader {
	return &Loader{
		fetcher:  fetcher,
		parallel: base.NewParallelLoader[*loadTask, DatasetState](0),
	}
}

// Build fetches and reshapes one dataset without touching any cell
func (l *Loader) Build(ctx context.Context, ds *Dataset) (*types.ChartData, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if !ds.NeedsFetch() {
		return ds.Build(nil)
	}
	if l.fetcher == nil {
		return nil, fmt.Errorf("dataset %s needs a fetcher", ds.Name)
	}

	body, err := l.fetcher.FetchVectors(ctx, ds.NewBatch())
	if err != nil {
		return nil, err
	}
	return ds.Build(body)
}

// Load sets cell to loading, runs one load of ds and returns the terminal state
// it produced. That state reaches the cell only if no newer load started and
// the view is still open.
func (l *Loader) Load(ctx context.Context, cell *Cell, ds *Dataset) DatasetState {
	gen, ok := cell.begin()
	if !ok {
		return cell.State()
	}
	state, _ := l.complete(ctx, &loadTask{cell: cell, gen: gen, dataset: ds})
	return state
}

// Start is Load in the background. The cell is already loading when Start returns.
// The channel yields the terminal state once.
func (l *Loader) Start(ctx context.Context, cell *Cell, ds *Dataset) <-chan DatasetState {
	out := make(chan DatasetState, 1)
	gen, ok := cell.begin()
	if !ok {
		out <- cell.State()
		close(out)
		return out
	}

	go func() {
		defer close(out)
		state, _ := l.complete(ctx, &loadTask{cell: cell, gen: gen, dataset: ds})
		out <- state
	}()
	return out
}

// LoadView loads every dataset into its cell in view concurrently and waits for all
// of them. One dataset's failure never affects another's state. The returned map
// holds the terminal state each load produced; failures are also in the collector.
func (l *Loader) LoadView(ctx context.Context, view *View, datasets []*Dataset) (map[string]DatasetState, *base.ErrorCollector) {
	tasks := make(map[string]*loadTask, len(datasets))
	unmounted := base.NewErrorCollector()

	for _, ds := range datasets {
		cell, ok := view.Cell(ds.Name)
		if !ok {
			unmounted.AddTyped(ds.Name, internalErrors.NewValidationError("dataset",
				fmt.Sprintf("%s is not mounted in this view", ds.Name)), base.ErrorTypeValidation)
			continue
		}
		gen, ok := cell.begin()
		if !ok {
			continue
		}
		tasks[ds.Name] = &loadTask{cell: cell, gen: gen, dataset: ds}
	}

	states, collector := l.parallel.Execute(ctx, tasks, func(ctx context.Context, _ string, t *loadTask) (DatasetState, error) {
		return l.complete(ctx, t)
	})

	for name := range tasks {
		if _, ok := states[name]; ok {
			continue
		}
		if e, ok := collector.Get(name); ok {
			states[name] = DatasetState{Error: e.Err.Error()}
		}
	}
	for _, e := range unmounted.GetErrorsByType(base.ErrorTypeValidation) {
		collector.AddTyped(e.Key, e.Err, e.ErrorType)
	}
	return states, collector
}

func (l *Loader) complete(ctx context.Context, t *loadTask) (DatasetState, error) {
	data, err := l.Build(ctx, t.dataset)

	var state DatasetState
	if err != nil {
		common.ClientLogger.Error("Loading %s failed: %s", t.dataset.Name, common.SanitizeErrorForLogging(err))
		state = DatasetState{Error: err.Error()}
	} else {
		state = DatasetState{Data: data}
	}

	t.cell.finish(t.gen, state)
	return state, err
}
