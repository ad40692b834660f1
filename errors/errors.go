// Package errors provides standardized error handling for the Into engine.
// It includes error classification, standard error variables, and helper
// functions for consistent error wrapping across operations, sockets and
// the engine.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorConfig represents configuration errors raised synchronously
	// from Check(), e.g. an unconnected required input or an invalid
	// parameter range.
	ErrorConfig ErrorClass = iota
	// ErrorType represents unsupported-type failures: a processing step
	// received a Variant whose type tag it does not handle.
	ErrorType
	// ErrorRuntime represents data-dependent failures inside a processing
	// step. They abort the offending operation's run.
	ErrorRuntime
	// ErrorConnection represents topology mutations attempted while an
	// endpoint was not stopped.
	ErrorConnection
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorConfig:
		return "config"
	case ErrorType:
		return "type"
	case ErrorRuntime:
		return "runtime"
	case ErrorConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Lifecycle errors
	ErrNotStopped     = errors.New("operation not stopped")
	ErrNotRunning     = errors.New("operation not running")
	ErrAlreadyRunning = errors.New("operation already running")
	ErrInterrupted    = errors.New("operation interrupted")
	ErrWaitTimeout    = errors.New("wait timed out")

	// Connection errors
	ErrAlreadyConnected  = errors.New("socket already connected")
	ErrNotConnected      = errors.New("socket not connected")
	ErrUnknownPort       = errors.New("unknown port")
	ErrDirectionMismatch = errors.New("socket direction mismatch")

	// Configuration errors
	ErrUnconnectedInput = errors.New("required input not connected")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnknownProperty  = errors.New("unknown property")
	ErrUnknownFactory   = errors.New("unknown operation type")
	ErrDuplicateName    = errors.New("duplicate operation name")

	// Data errors
	ErrUnknownType = errors.New("unsupported object type")
	ErrQueueClosed = errors.New("socket queue closed")
)

// ClassifiedError wraps an error with its classification and the identity
// of the operation that produced it.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsConfig checks if an error is a configuration error
func IsConfig(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorConfig
	}
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrUnconnectedInput) ||
		errors.Is(err, ErrUnknownProperty) ||
		errors.Is(err, ErrUnknownFactory) ||
		errors.Is(err, ErrDuplicateName)
}

// IsType checks if an error is an unsupported-type failure
func IsType(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorType
	}
	return errors.Is(err, ErrUnknownType)
}

// IsConnection checks if an error is a connection error
func IsConnection(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorConnection
	}
	return errors.Is(err, ErrAlreadyConnected) ||
		errors.Is(err, ErrNotConnected) ||
		errors.Is(err, ErrNotStopped) ||
		errors.Is(err, ErrDirectionMismatch)
}

// IsRuntime checks if an error is a runtime execution error
func IsRuntime(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorRuntime
	}
	return !IsConfig(err) && !IsType(err) && !IsConnection(err)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	switch {
	case IsConfig(err):
		return ErrorConfig
	case IsType(err):
		return ErrorType
	case IsConnection(err):
		return ErrorConnection
	default:
		return ErrorRuntime
	}
}

// newClassified creates a new classified error.
// This is an internal helper - use the Wrap* functions instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapConfig wraps an error as a configuration error with context
func WrapConfig(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorConfig, wrappedErr, component, method, wrappedErr.Error())
}

// WrapType wraps an error as an unsupported-type failure with context
func WrapType(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorType, wrappedErr, component, method, wrappedErr.Error())
}

// WrapRuntime wraps an error as a runtime execution error with context
func WrapRuntime(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorRuntime, wrappedErr, component, method, wrappedErr.Error())
}

// WrapConnection wraps an error as a connection error with context
func WrapConnection(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorConnection, wrappedErr, component, method, wrappedErr.Error())
}

// FailingOperation extracts the name of the operation that produced err, if
// the error carries one. Used by the engine to surface "which node failed".
func FailingOperation(err error) string {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Component
	}
	return ""
}
