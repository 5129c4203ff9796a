package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"statcan-proxy/src/internal/errors"
	"statcan-proxy/src/internal/types"
)

// fakeProvider records the last batch it received and answers with a canned response
type fakeProvider struct {
	status   int
	body     string
	delay    time.Duration
	received types.VectorQueryBatch
	raw      []byte
	calls    int
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.calls++
	raw, _ := io.ReadAll(r.Body)
	p.raw = raw
	_ = json.Unmarshal(raw, &p.received)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(p.status)
	_, _ = w.Write([]byte(p.body))
}

// echoProvider answers each query with one observation whose value is the vector id
func echoProvider() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch types.VectorQueryBatch
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		out := make([]types.VectorResult, len(batch))
		for i, q := range batch {
			v := float64(q.VectorID)
			out[i] = types.VectorResult{
				Status: "SUCCESS",
				Object: &types.VectorObject{VectorID: q.VectorID, VectorDataPoint: []types.DataPoint{{Value: &v}}},
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	})
}

func newTestForwarder(url string) *Forwarder {
	return NewForwarderWithClient(url, &http.Client{Timeout: 2 * time.Second}, 1<<20)
}

func TestForwarder_RelaysBodyVerbatim(t *testing.T) {
	body := `[{"object":{"vectorDataPoint":[{"value":42.5}]}}]`
	provider := &fakeProvider{status: http.StatusOK, body: body}
	srv := httptest.NewServer(provider)
	defer srv.Close()

	batch := types.NewBatch(types.VectorQuery{VectorID: 128597, LatestN: 1})
	got, err := newTestForwarder(srv.URL).Forward(context.Background(), batch)

	require.NoError(t, err)
	assert.Equal(t, body, string(got))
	assert.Equal(t, batch, provider.received)
	assert.Equal(t, 1, provider.calls)
}

func TestForwarder_PreservesLengthAndOrder(t *testing.T) {
	srv := httptest.NewServer(echoProvider())
	defer srv.Close()

	batch := types.LatestBatch(1, 1206826, 1206820, 1206823)
	got, err := newTestForwarder(srv.URL).Forward(context.Background(), batch)
	require.NoError(t, err)

	resp, err := types.DecodeProviderResponse(got)
	require.NoError(t, err)
	require.Len(t, resp, len(batch))
	for i, q := range batch {
		res, ok := resp.Result(i)
		require.True(t, ok)
		assert.Equal(t, q.VectorID, res.Object.VectorID)
	}
}

func TestForwarder_Failures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    errors.FailureKind
		wantMessage string
	}{
		{
			name:        "provider error payload",
			status:      http.StatusInternalServerError,
			body:        `{"error":"timeout"}`,
			wantKind:    errors.KindUpstream,
			wantMessage: "timeout",
		},
		{
			name:        "provider status without payload",
			status:      http.StatusServiceUnavailable,
			body:        ``,
			wantKind:    errors.KindUpstream,
			wantMessage: "upstream returned status 503",
		},
		{
			name:        "success status with html body",
			status:      http.StatusOK,
			body:        `<html>maintenance</html>`,
			wantKind:    errors.KindMalformed,
			wantMessage: "malformed provider response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(&fakeProvider{status: tt.status, body: tt.body})
			defer srv.Close()

			got, err := newTestForwarder(srv.URL).Forward(context.Background(), types.LatestBatch(1, 1))
			require.Error(t, err)
			assert.Nil(t, got, "a failed forward must not return a body")

			pf, ok := errors.AsProxyFailure(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, pf.Kind)
			assert.True(t, strings.HasPrefix(pf.Message, tt.wantMessage), pf.Message)
		})
	}
}

func TestForwarder_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(&fakeProvider{status: http.StatusOK, body: `[]`})
	url := srv.URL
	srv.Close()

	_, err := newTestForwarder(url).Forward(context.Background(), types.LatestBatch(1, 1))
	require.Error(t, err)
	assert.True(t, errors.IsNetworkFailure(err))

	pf, _ := errors.AsProxyFailure(err)
	assert.Nil(t, pf.Details)
}

func TestForwarder_ClientTimeoutIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(&fakeProvider{status: http.StatusOK, body: `[]`, delay: 200 * time.Millisecond})
	defer srv.Close()

	f := NewForwarderWithClient(srv.URL, &http.Client{Timeout: 20 * time.Millisecond}, 1024)
	_, err := f.Forward(context.Background(), types.LatestBatch(1, 1))
	require.Error(t, err)
	assert.True(t, errors.IsNetworkFailure(err))
	assert.True(t, errors.IsTimeoutError(err))
}

func TestForwarder_RejectsOversizedResponse(t *testing.T) {
	big := `[` + strings.Repeat(`{"object":null},`, 100) + `{}]`
	srv := httptest.NewServer(&fakeProvider{status: http.StatusOK, body: big})
	defer srv.Close()

	f := NewForwarderWithClient(srv.URL, nil, 64)
	_, err := f.Forward(context.Background(), types.LatestBatch(1, 1))
	require.Error(t, err)
	pf, ok := errors.AsProxyFailure(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindMalformed, pf.Kind)
	assert.Contains(t, pf.Message, "exceeds 64 bytes")
}

func TestForwarder_ForwardRawSendsPayloadUnchanged(t *testing.T) {
	provider := &fakeProvider{status: http.StatusOK, body: `[]`}
	srv := httptest.NewServer(provider)
	defer srv.Close()

	payload := []byte(`[ {"vectorId":128597, "latestN":1, "coordinate":"1.1"} ]`)
	got, err := newTestForwarder(srv.URL).ForwardRaw(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
	assert.Equal(t, string(payload), string(provider.raw))
}

func TestForwarder_RequestBuildFailureIsProxyFailure(t *testing.T) {
	_, err := newTestForwarder("http://bad host/wds").Forward(context.Background(), types.LatestBatch(1, 1))
	require.Error(t, err)
	pf, ok := errors.AsProxyFailure(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindNetwork, pf.Kind)
	assert.Contains(t, pf.Message, "build provider request")
}

func TestForwarder_ImplementsVectorFetcher(t *testing.T) {
	srv := httptest.NewServer(echoProvider())
	defer srv.Close()

	var fetcher types.VectorFetcher = newTestForwarder(srv.URL)
	got, err := fetcher.FetchVectors(context.Background(), types.LatestBatch(1, 7))
	require.NoError(t, err)
	assert.Contains(t, string(got), `"vectorId":7`)
}
