package aggregator

import (
	"encoding/json"
	"fmt"

	"statcan-proxy/src/internal/common"
	internalErrors "statcan-proxy/src/internal/errors"
	"statcan-proxy/src/internal/types"
)

// SeriesSpec describes one output series. A series with Static values is
// literal data; otherwise each label's value is extracted from the provider entry
// at the same position.
type SeriesSpec struct {
	Label   string
	Extract ValueExtractor
	Static  []float64
}

func (s SeriesSpec) fromProvider() bool {
	return s.Static == nil
}

func (s SeriesSpec) extractor() ValueExtractor {
	if s.Extract == nil {
		return FirstObservation
	}
	return s.Extract
}

// Dataset is one chart's worth of queries and reshaping rules.
type Dataset struct {
	Name   string
	Title  string
	Labels []string
	// Batch is the query template; position i feeds Labels[i]
	Batch  types.VectorQueryBatch
	Series []SeriesSpec
	// Strict fails the load on a missing field instead of substituting 0
	Strict bool
	// MatchByID aligns provider entries by object.vectorId instead of position
	MatchByID bool
}

// NeedsFetch reports whether the dataset has any provider-backed series
func (d *Dataset) NeedsFetch() bool {
	for _, s := range d.Series {
		if s.fromProvider() {
			return true
		}
	}
	return false
}

// NewBatch returns a fresh copy of the query template for one request
func (d *Dataset) NewBatch() types.VectorQueryBatch {
	return types.NewBatch(d.Batch...)
}

// Validate checks that labels, queries and static values line up
func (d *Dataset) Validate() error {
	if d.Name == "" {
		return internalErrors.NewValidationError("name", "dataset name is required")
	}
	if len(d.Labels) == 0 {
		return internalErrors.NewValidationError("labels", fmt.Sprintf("dataset %s has no labels", d.Name))
	}
	if len(d.Series) == 0 {
		return internalErrors.NewValidationError("series", fmt.Sprintf("dataset %s has no series", d.Name))
	}
	for _, s := range d.Series {
		if !s.fromProvider() && len(s.Static) != len(d.Labels) {
			return internalErrors.NewValidationError("series",
				fmt.Sprintf("series %q has %d values for %d labels", s.Label, len(s.Static), len(d.Labels)))
		}
	}
	if d.NeedsFetch() {
		if len(d.Batch) != len(d.Labels) {
			return internalErrors.NewValidationError("batch",
				fmt.Sprintf("dataset %s has %d queries for %d labels", d.Name, len(d.Batch), len(d.Labels)))
		}
	} else if len(d.Batch) > 0 {
		return internalErrors.NewValidationError("batch",
			fmt.Sprintf("dataset %s has queries but no series reads them", d.Name))
	}
	return nil
}

// Build reshapes a provider body into chart data. body is ignored when the
// dataset needs no fetch.
func (d *Dataset) Build(body json.RawMessage) (*types.ChartData, error) {
	var entries []*types.VectorResult
	if d.NeedsFetch() {
		resp, err := types.DecodeProviderResponse(body)
		if err != nil {
			return nil, internalErrors.NewMalformedResponse(0, nil, fmt.Errorf("provider response is not an array: %w", err))
		}
		if d.MatchByID {
			entries = d.alignByID(resp)
		} else {
			entries = alignByPosition(resp, len(d.Labels))
		}
	}

	chart := &types.ChartData{
		Labels: append([]string(nil), d.Labels...),
		Series: make([]types.Series, 0, len(d.Series)),
	}
	defaulted := 0
	for _, spec := range d.Series {
		values := make([]float64, len(d.Labels))
		if !spec.fromProvider() {
			copy(values, spec.Static)
			chart.Series = append(chart.Series, types.Series{Label: spec.Label, Values: values})
			continue
		}

		extract := spec.extractor()
		for i := range d.Labels {
			entry := entries[i]
			if entry != nil {
				if v, ok := extract(*entry); ok {
					values[i] = v
					continue
				}
			}
			reason := "no provider entry"
			if entry != nil {
				reason = "entry has no observation value"
			}

			mismatch := internalErrors.NewShapeMismatch(d.Name, i, reason)
			if d.Strict {
				return nil, mismatch
			}
			common.ClientLogger.Debug("%v, using 0", mismatch)
			defaulted++
		}
		chart.Series = append(chart.Series, types.Series{Label: spec.Label, Values: values})
	}

	if defaulted > 0 {
		common.ClientLogger.Warn("Dataset %s: %d values missing from provider response, defaulted to 0", d.Name, defaulted)
	}
	return chart, nil
}

// alignByPosition pairs entry i with label i. Extra entries are ignored.
func alignByPosition(resp types.ProviderResponse, n int) []*types.VectorResult {
	out := make([]*types.VectorResult, n)
	for i := 0; i < n; i++ {
		if res, ok := resp.Result(i); ok {
			out[i] = &res
		}
	}
	return out
}

// alignByID pairs each query with the entry whose object carries the same vector id
func (d *Dataset) alignByID(resp types.ProviderResponse) []*types.VectorResult {
	byID := make(map[int64]*types.VectorResult, len(resp))
	for i := range resp {
		res, ok := resp.Result(i)
		if !ok || res.Object == nil {
			continue
		}
		if _, seen := byID[res.Object.VectorID]; !seen {
			byID[res.Object.VectorID] = &res
		}
	}
	out := make([]*types.VectorResult, len(d.Labels))
	for i, q := range d.Batch {
		if i < len(out) {
			out[i] = byID[q.VectorID]
		}
	}
	return out
}
