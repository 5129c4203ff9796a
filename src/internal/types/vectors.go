package types

import (
	"encoding/json"
)

// VectorQuery asks the provider for the latestN most recent observations of one series.
type VectorQuery struct {
	VectorID int64 `json:"vectorId"`
	LatestN  int   `json:"latestN"`
}

// VectorQueryBatch is an ordered list of queries. Position i of the batch
// corresponds to position i of the provider response and of the caller's labels.
type VectorQueryBatch []VectorQuery

// NewBatch copies queries into a fresh batch so callers never share backing arrays.
func NewBatch(queries ...VectorQuery) VectorQueryBatch {
	batch := make(VectorQueryBatch, len(queries))
	copy(batch, queries)
	return batch
}

// LatestBatch builds one query per vector, each asking for the latest n points.
func LatestBatch(n int, vectorIDs ...int64) VectorQueryBatch {
	batch := make(VectorQueryBatch, len(vectorIDs))
	for i, id := range vectorIDs {
		batch[i] = VectorQuery{VectorID: id, LatestN: n}
	}
	return batch
}

// VectorIDs returns the vector ids in batch order.
func (b VectorQueryBatch) VectorIDs() []int64 {
	ids := make([]int64, len(b))
	for i, q := range b {
		ids[i] = q.VectorID
	}
	return ids
}

// DataPoint is one observation in a provider series.
type DataPoint struct {
	RefPer   string   `json:"refPer,omitempty"`
	Value    *float64 `json:"value"`
	Decimals int      `json:"decimals,omitempty"`
}

// VectorObject is the provider's payload for one query. VectorDataPoint may be empty.
type VectorObject struct {
	VectorID        int64       `json:"vectorId"`
	ProductID       int64       `json:"productId,omitempty"`
	Coordinate      string      `json:"coordinate,omitempty"`
	VectorDataPoint []DataPoint `json:"vectorDataPoint"`
}

// VectorResult is one element of a ProviderResponse.
type VectorResult struct {
	Status string        `json:"status,omitempty"`
	Object *VectorObject `json:"object"`
}

// Points returns the observations or nil when the object is missing.
func (r VectorResult) Points() []DataPoint {
	if r.Object == nil {
		return nil
	}
	return r.Object.VectorDataPoint
}

// ProviderResponse holds the per-query entries undecoded so one bad entry
// cannot fail the whole response.
type ProviderResponse []json.RawMessage

// DecodeProviderResponse splits a provider body into its positional entries.
// Only the top level must be a JSON array.
func DecodeProviderResponse(body []byte) (ProviderResponse, error) {
	var entries ProviderResponse
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Result decodes entry i. ok is false when i is out of range or the entry
// does not have the expected shape.
func (p ProviderResponse) Result(i int) (VectorResult, bool) {
	var res VectorResult
	if i < 0 || i >= len(p) {
		return res, false
	}
	if err := json.Unmarshal(p[i], &res); err != nil {
		return VectorResult{}, false
	}
	return res, true
}

// ErrorBody is the JSON body of a failed proxy call. Details carries the
// provider's own error payload when the provider answered.
type ErrorBody struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}
