package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"statcan-proxy/src/config"
	"statcan-proxy/src/internal/common"
	"statcan-proxy/src/internal/errors"
	"statcan-proxy/src/internal/types"
	"statcan-proxy/src/internal/version"
)

// Forwarder relays a whole batch to the provider's bulk endpoint in a single
// request. It keeps no state between calls.
type Forwarder struct {
	client   *http.Client
	endpoint string
	maxBytes int64
}

// NewForwarder builds a forwarder from upstream configuration
func NewForwarder(cfg *config.UpstreamConfig) *Forwarder {
	return NewForwarderWithClient(cfg.URL, &http.Client{Timeout: cfg.Timeout}, cfg.MaxResponseBytes)
}

// NewForwarderWithClient lets tests and embedders supply their own http.Client
func NewForwarderWithClient(endpoint string, client *http.Client, maxBytes int64) *Forwarder {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxResponseBytes
	}
	return &Forwarder{
		client:   client,
		endpoint: endpoint,
		maxBytes: maxBytes,
	}
}

// Endpoint returns the provider URL batches are sent to
func (f *Forwarder) Endpoint() string {
	return f.endpoint
}

// Forward encodes batch and sends it to the provider.
// Every failure is a *errors.ProxyFailure; a partial body is never returned.
func (f *Forwarder) Forward(ctx context.Context, batch types.VectorQueryBatch) (json.RawMessage, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, errors.NewProxyFailure(errors.KindNetwork, "encode batch: "+err.Error(), 0, nil, err)
	}
	return f.ForwardRaw(ctx, payload)
}

// ForwardRaw sends payload to the provider byte for byte and returns the
// provider body unchanged. Failures are reported as for Forward.
func (f *Forwarder) ForwardRaw(ctx context.Context, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewProxyFailure(errors.KindNetwork, "build provider request: "+err.Error(), 0, nil, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "statcan-proxy/"+version.GetVersion())

	resp, err := f.client.Do(req)
	if err != nil {
		common.ProxyLogger.Error("Provider request failed: %s", common.SanitizeErrorForLogging(err))
		return nil, errors.NewNetworkFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		common.ProxyLogger.Error("Reading provider response failed: %s", common.SanitizeErrorForLogging(err))
		return nil, errors.NewNetworkFailure(err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, errors.NewMalformedResponse(resp.StatusCode, nil,
			fmt.Errorf("response exceeds %d bytes", f.maxBytes))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		common.ProxyLogger.Warn("Provider returned status %d: %s", resp.StatusCode, common.SanitizeErrorForLogging(body))
		return nil, errors.NewUpstreamFailure(resp.StatusCode, body)
	}

	if !json.Valid(body) {
		return nil, errors.NewMalformedResponse(resp.StatusCode, body, fmt.Errorf("body is not valid JSON"))
	}

	common.ProxyLogger.Debug("Provider answered a %d byte batch with %d bytes", len(payload), len(body))
	return json.RawMessage(body), nil
}

// FetchVectors lets the aggregation client call the provider in-process,
// bypassing the HTTP proxy hop.
func (f *Forwarder) FetchVectors(ctx context.Context, batch types.VectorQueryBatch) (json.RawMessage, error) {
	return f.Forward(ctx, batch)
}

var _ types.VectorFetcher = (*Forwarder)(nil)
