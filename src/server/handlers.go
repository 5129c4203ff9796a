package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"statcan-proxy/src/internal/common"
	"statcan-proxy/src/internal/errors"
	"statcan-proxy/src/internal/types"
	"statcan-proxy/src/internal/version"
)

// maxRequestBytes bounds the inbound batch body
const maxRequestBytes = 1 << 20

// ErrorResponse is the JSON body of every failed proxy call
type ErrorResponse = types.ErrorBody

// HealthResponse is the response body for the health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// handleRoot confirms the backend is running
func (g *HTTPGateway) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Backend is running!"))
}

// handleHealth handles GET /health requests.
func (g *HTTPGateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.GetVersion(),
	})
}

// handleStatCan handles POST /api/statcan: one batch in, one provider response out.
// Only the batch shape is checked; the provider judges the query values.
func (g *HTTPGateway) handleStatCan(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error(), nil)
		return
	}
	if err := checkBatchShape(raw); err != nil {
		sendError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	body, err := g.forwarder.ForwardRaw(r.Context(), raw)
	if err != nil {
		reqID := RequestIDFromContext(r.Context())
		if pf, ok := errors.AsProxyFailure(err); ok {
			common.ProxyLogger.Error("Forward failed (%s) [%s]: %s", pf.Kind, reqID, common.SanitizeErrorForLogging(pf))
			sendError(w, http.StatusInternalServerError, pf.Message, pf.Details)
			return
		}
		common.ProxyLogger.Error("Forward failed [%s]: %v", reqID, err)
		sendError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// checkBatchShape accepts a non-empty JSON array whose entries are all objects
func checkBatchShape(raw []byte) error {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("Invalid JSON: %w", err)
	}
	if len(entries) == 0 {
		return errors.NewValidationError("batch", "at least one vector query is required")
	}
	for i, entry := range entries {
		trimmed := bytes.TrimSpace(entry)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return errors.NewValidationError(fmt.Sprintf("batch[%d]", i), "each vector query must be an object")
		}
	}
	return nil
}

// sendJSON sends a JSON response with the given status code.
func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		common.ProxyLogger.Error("Failed to encode response: %v", err)
	}
}

func sendError(w http.ResponseWriter, status int, message string, details json.RawMessage) {
	sendJSON(w, status, ErrorResponse{Error: message, Details: details})
}
