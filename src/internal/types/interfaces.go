package types

import (
	"context"
	"encoding/json"
)

// VectorFetcher sends one batch to a statistics backend and returns the raw
// response body. Implementations are the HTTP proxy client and the in-process
// forwarder; both must preserve batch order and never split a batch.
type VectorFetcher interface {
	FetchVectors(ctx context.Context, batch VectorQueryBatch) (json.RawMessage, error)
}
