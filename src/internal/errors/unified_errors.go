// Package errors provides the failure taxonomy shared by the proxy and the aggregation client.
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// FailureKind classifies a ProxyFailure
type FailureKind string

const (
	// KindNetwork means no response was received from the provider
	KindNetwork FailureKind = "network"
	// KindUpstream means the provider answered with a non-success status
	KindUpstream FailureKind = "upstream"
	// KindMalformed means the provider answered 2xx with a body that is not JSON
	KindMalformed FailureKind = "malformed"
)

// ProxyFailure is the single error surfaced by a forward operation.
// Details holds the raw provider body when one was received.
type ProxyFailure struct {
	Kind    FailureKind     `json:"kind"`
	Message string          `json:"error"`
	Status  int             `json:"status,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
	Cause   error           `json:"-"`
}

func (e *ProxyFailure) Error() string {
	return e.Message
}

func (e *ProxyFailure) Unwrap() error {
	return e.Cause
}

// ValidationError represents request shape errors rejected before forwarding
type ValidationError struct {
	Parameter string `json:"parameter"`
	Message   string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for parameter '%s': %s", e.Parameter, e.Message)
}

// ShapeMismatchError reports a provider entry that lacks the field a value extractor needs
type ShapeMismatchError struct {
	Dataset string `json:"dataset"`
	Index   int    `json:"index"`
	Reason  string `json:"reason"`
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch in %s at index %d: %s", e.Dataset, e.Index, e.Reason)
}

// Error constructors

// NewProxyFailure creates a ProxyFailure of the given kind
func NewProxyFailure(kind FailureKind, message string, status int, details []byte, cause error) *ProxyFailure {
	return &ProxyFailure{
		Kind:    kind,
		Message: message,
		Status:  status,
		Details: detailsJSON(details),
		Cause:   cause,
	}
}

// NewNetworkFailure wraps a transport error; no provider body exists
func NewNetworkFailure(cause error) *ProxyFailure {
	msg := "network failure"
	if cause != nil {
		msg = cause.Error()
	}
	return NewProxyFailure(KindNetwork, msg, 0, nil, cause)
}

// NewUpstreamFailure builds the failure for a non-success provider status.
// A string "error" or "message" field in the body becomes the failure message.
func NewUpstreamFailure(status int, body []byte) *ProxyFailure {
	msg := providerMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("upstream returned status %d", status)
	}
	return NewProxyFailure(KindUpstream, msg, status, body, nil)
}

// NewMalformedResponse reports a 2xx provider body that cannot be relayed as JSON
func NewMalformedResponse(status int, body []byte, cause error) *ProxyFailure {
	msg := "malformed provider response"
	if cause != nil {
		msg = fmt.Sprintf("malformed provider response: %v", cause)
	}
	return NewProxyFailure(KindMalformed, msg, status, body, cause)
}

// NewValidationError creates a new validation error for the specified parameter
func NewValidationError(parameter, message string) *ValidationError {
	return &ValidationError{
		Parameter: parameter,
		Message:   message,
	}
}

// NewShapeMismatch creates a shape mismatch for one positional entry
func NewShapeMismatch(dataset string, index int, reason string) *ShapeMismatchError {
	return &ShapeMismatchError{
		Dataset: dataset,
		Index:   index,
		Reason:  reason,
	}
}

// Error classification functions

// AsProxyFailure extracts a ProxyFailure from an error chain
func AsProxyFailure(err error) (*ProxyFailure, bool) {
	var pf *ProxyFailure
	if stderrors.As(err, &pf) {
		return pf, true
	}
	return nil, false
}

// IsNetworkFailure checks if the error means no response was received
func IsNetworkFailure(err error) bool {
	if pf, ok := AsProxyFailure(err); ok {
		return pf.Kind == KindNetwork
	}
	return false
}

// IsUpstreamFailure checks if the provider answered but the answer is unusable
func IsUpstreamFailure(err error) bool {
	if pf, ok := AsProxyFailure(err); ok {
		return pf.Kind == KindUpstream || pf.Kind == KindMalformed
	}
	return false
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return stderrors.As(err, &ve)
}

// IsShapeMismatch checks if the error is a shape mismatch
func IsShapeMismatch(err error) bool {
	var se *ShapeMismatchError
	return stderrors.As(err, &se)
}

// IsTimeoutError checks if the error is a timeout error
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "deadline exceeded")
}

// IsCancellationError checks if the error is a cancellation error
func IsCancellationError(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, context.Canceled)
}

// Error wrapping utilities

// WrapWithContext wraps an error with operation context
func WrapWithContext(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// detailsJSON keeps JSON bodies as-is and quotes anything else so Details always marshals
func detailsJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return json.RawMessage(quoted)
}

func providerMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "message"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
