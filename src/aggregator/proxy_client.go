package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"statcan-proxy/src/config"
	"statcan-proxy/src/internal/common"
	internalErrors "statcan-proxy/src/internal/errors"
	"statcan-proxy/src/internal/types"
	"statcan-proxy/src/internal/version"
)

// ProxyPath is the proxy route that accepts vector batches
const ProxyPath = "/api/statcan"

// ProxyClient sends batches to the proxy service over HTTP
type ProxyClient struct {
	client   *http.Client
	endpoint string
	maxBytes int64
}

// NewProxyClient builds a client for the configured backend
func NewProxyClient(cfg *config.ClientConfig) *ProxyClient {
	return NewProxyClientWithHTTP(cfg.BackendURL, &http.Client{Timeout: cfg.Timeout})
}

// NewProxyClientWithHTTP lets tests supply their own http.Client
func NewProxyClientWithHTTP(backendURL string, client *http.Client) *ProxyClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ProxyClient{
		client:   client,
		endpoint: strings.TrimRight(backendURL, "/") + ProxyPath,
		maxBytes: config.DefaultMaxResponseBytes,
	}
}

// WithMaxResponseBytes caps how much of a proxy response is read
func (p *ProxyClient) WithMaxResponseBytes(n int64) *ProxyClient {
	if n > 0 {
		p.maxBytes = n
	}
	return p
}

// Endpoint returns the full proxy URL
func (p *ProxyClient) Endpoint() string {
	return p.endpoint
}

// FetchVectors posts batch to the proxy. A non-2xx answer becomes a
// ProxyFailure carrying the proxy's error message.
func (p *ProxyClient) FetchVectors(ctx context.Context, batch types.VectorQueryBatch) (json.RawMessage, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, internalErrors.WrapWithContext("encode batch", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, internalErrors.WrapWithContext("build proxy request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "statcan-proxy-client/"+version.GetVersion())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, internalErrors.NewNetworkFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return nil, internalErrors.NewNetworkFailure(err)
	}
	if int64(len(body)) > p.maxBytes {
		return nil, internalErrors.NewMalformedResponse(resp.StatusCode, nil,
			fmt.Errorf("response exceeds %d bytes", p.maxBytes))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
		var eb types.ErrorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		common.ClientLogger.Debug("Proxy returned %d: %s", resp.StatusCode, common.SanitizeErrorForLogging(body))
		return nil, internalErrors.NewProxyFailure(internalErrors.KindUpstream, msg, resp.StatusCode, eb.Details, nil)
	}

	if !json.Valid(body) {
		return nil, internalErrors.NewMalformedResponse(resp.StatusCode, body, fmt.Errorf("body is not valid JSON"))
	}
	return json.RawMessage(body), nil
}

var _ types.VectorFetcher = (*ProxyClient)(nil)
