package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error codes for test UI domain errors
const (
	ErrCodeWorkerRunning   = "worker_running"
	ErrCodeWorkerSpawn     = "worker_spawn"
	ErrCodeChunkTooLarge   = "chunk_too_large"
	ErrCodeChannelClosed   = "channel_closed"
	ErrCodeChannelSetup    = "channel_setup"
	ErrCodeDriverCrashed   = "driver_crashed"
	ErrCodeGoNotFound      = "go_not_found"
	ErrCodeUnknownMethod   = "unknown_method"
	ErrCodeUnknownTest     = "unknown_test"
	ErrCodeConfig          = "config"
	ErrCodeCachePersisting = "cache_persisting"
)

// TestUIError represents a domain-specific error
type TestUIError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *TestUIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TestUIError) Unwrap() error {
	return e.Cause
}

// NewError creates a new TestUIError
func NewError(code, message string) *TestUIError {
	return &TestUIError{
		Code:    code,
		Message: message,
	}
}

// WrapError creates a new TestUIError that wraps another error
func WrapError(code, message string, cause error) *TestUIError {
	return &TestUIError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrWorkerRunning is returned when a worker is started while another one is alive
func ErrWorkerRunning() *TestUIError {
	return NewError(ErrCodeWorkerRunning, "tests are already running")
}

// ErrWorkerSpawn wraps a failure to start the worker process
func ErrWorkerSpawn(cause error) *TestUIError {
	return WrapError(ErrCodeWorkerSpawn, "could not start worker process", cause)
}

// ErrChunkTooLarge is returned for a chunk that can never fit in the channel
func ErrChunkTooLarge(size, capacity int) *TestUIError {
	return NewError(ErrCodeChunkTooLarge, fmt.Sprintf("chunk of %d bytes exceeds channel capacity %d", size, capacity))
}

// ErrChannelClosed wraps a write to a channel whose reader went away
func ErrChannelClosed(cause error) *TestUIError {
	return WrapError(ErrCodeChannelClosed, "channel closed", cause)
}

// ErrChannelSetup wraps failures creating or opening channel endpoints
func ErrChannelSetup(what string, cause error) *TestUIError {
	return WrapError(ErrCodeChannelSetup, fmt.Sprintf("channel setup failed: %s", what), cause)
}

// ErrDriverCrashed wraps an unexpected failure of the test driver itself
func ErrDriverCrashed(cause error) *TestUIError {
	return WrapError(ErrCodeDriverCrashed, "test driver crashed", cause)
}

// ErrGoNotFound returns an error when the go binary is missing
func ErrGoNotFound(binary string) *TestUIError {
	return NewError(ErrCodeGoNotFound, fmt.Sprintf("go toolchain not found: %s", binary))
}

// ErrUnknownMethod is returned by the dispatcher for an unhandled event method
func ErrUnknownMethod(method string) *TestUIError {
	return NewError(ErrCodeUnknownMethod, fmt.Sprintf("unknown event method %q", method))
}

// ErrUnknownTest is returned when an event references a test that was never seen
func ErrUnknownTest(id string) *TestUIError {
	return NewError(ErrCodeUnknownTest, fmt.Sprintf("unknown test %q", id))
}

// ErrConfig wraps configuration load failures
func ErrConfig(message string, cause error) *TestUIError {
	return WrapError(ErrCodeConfig, message, cause)
}

// ErrCachePersisting wraps last-failed cache read/write failures
func ErrCachePersisting(operation string, cause error) *TestUIError {
	return WrapError(ErrCodeCachePersisting, fmt.Sprintf("last-failed cache %s failed", operation), cause)
}

// GetErrorCode returns the error code if err wraps a TestUIError, or empty string
func GetErrorCode(err error) string {
	var te *TestUIError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
