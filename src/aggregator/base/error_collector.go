package base

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	internalErrors "statcan-proxy/src/internal/errors"
)

// ErrorType represents different categories of errors that can occur
type ErrorType string

const (
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeShape      ErrorType = "shape"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeCancelled  ErrorType = "cancelled"
	ErrorTypeGeneral    ErrorType = "general"
)

// KeyedError represents an error attributed to one dataset
type KeyedError struct {
	Key       string
	Err       error
	ErrorType ErrorType
	Timestamp time.Time
}

// ErrorCollector provides thread-safe collection and reporting of per-dataset errors
type ErrorCollector struct {
	mu     sync.RWMutex
	errors []KeyedError
}

// NewErrorCollector creates a new ErrorCollector instance
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]KeyedError, 0),
	}
}

// Add adds an error with automatic type detection
func (ec *ErrorCollector) Add(key string, err error) {
	if err == nil {
		return
	}
	ec.AddTyped(key, err, DetectErrorType(err))
}

// AddTyped adds an error with explicit type classification
func (ec *ErrorCollector) AddTyped(key string, err error, errorType ErrorType) {
	if err == nil {
		return
	}

	ec.mu.Lock()
	defer ec.mu.Unlock()

	ec.errors = append(ec.errors, KeyedError{
		Key:       key,
		Err:       err,
		ErrorType: errorType,
		Timestamp: time.Now(),
	})
}

// GetErrors returns formatted error messages for logging/reporting
func (ec *ErrorCollector) GetErrors() []string {
	ec.mu.RLock()
	defer ec.mu.RUnlock()

	if len(ec.errors) == 0 {
		return nil
	}

	messages := make([]string, len(ec.errors))
	for i, e := range ec.errors {
		messages[i] = fmt.Sprintf("%s: %v", e.Key, e.Err)
	}
	return messages
}

// Get returns the error recorded for key
func (ec *ErrorCollector) Get(key string) (KeyedError, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()

	for _, e := range ec.errors {
		if e.Key == key {
			return e, true
		}
	}
	return KeyedError{}, false
}

// GetErrorsByType returns errors filtered by type
func (ec *ErrorCollector) GetErrorsByType(errorType ErrorType) []KeyedError {
	ec.mu.RLock()
	defer ec.mu.RUnlock()

	var filtered []KeyedError
	for _, e := range ec.errors {
		if e.ErrorType == errorType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// HasErrors returns true if any errors have been collected
func (ec *ErrorCollector) HasErrors() bool {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return len(ec.errors) > 0
}

// GetErrorCount returns the total number of errors collected
func (ec *ErrorCollector) GetErrorCount() int {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return len(ec.errors)
}

// Keys returns the sorted keys that have errors
func (ec *ErrorCollector) Keys() []string {
	ec.mu.RLock()
	defer ec.mu.RUnlock()

	set := make(map[string]bool)
	for _, e := range ec.errors {
		set[e.Key] = true
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetErrorSummary returns a formatted summary of all errors by type
func (ec *ErrorCollector) GetErrorSummary() string {
	ec.mu.RLock()
	defer ec.mu.RUnlock()

	if len(ec.errors) == 0 {
		return "No errors"
	}

	byType := make(map[ErrorType][]string)
	for _, e := range ec.errors {
		byType[e.ErrorType] = append(byType[e.ErrorType], fmt.Sprintf("%s: %v", e.Key, e.Err))
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, string(t))
	}
	sort.Strings(types)

	parts := make([]string, 0, len(types))
	for _, t := range types {
		list := byType[ErrorType(t)]
		parts = append(parts, fmt.Sprintf("%s (%d): %s", t, len(list), strings.Join(list, "; ")))
	}
	return strings.Join(parts, " | ")
}

// DetectErrorType maps an error onto the failure taxonomy
func DetectErrorType(err error) ErrorType {
	switch {
	case err == nil:
		return ErrorTypeGeneral
	case internalErrors.IsCancellationError(err):
		return ErrorTypeCancelled
	case internalErrors.IsNetworkFailure(err):
		return ErrorTypeNetwork
	case internalErrors.IsUpstreamFailure(err):
		return ErrorTypeUpstream
	case internalErrors.IsShapeMismatch(err):
		return ErrorTypeShape
	case internalErrors.IsValidationError(err):
		return ErrorTypeValidation
	case internalErrors.IsTimeoutError(err):
		return ErrorTypeTimeout
	default:
		return ErrorTypeGeneral
	}
}
