package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassString(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorConfig, "config"},
		{ErrorType, "type"},
		{ErrorRuntime, "runtime"},
		{ErrorConnection, "connection"},
		{ErrorClass(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.class.String())
	}
}

func TestWrapFormat(t *testing.T) {
	base := errors.New("queue full")
	err := Wrap(base, "scaler", "Process", "step execution")
	require.Error(t, err)
	assert.Equal(t, "scaler.Process: step execution failed: queue full", err.Error())
	assert.True(t, errors.Is(err, base))

	assert.Nil(t, Wrap(nil, "scaler", "Process", "step execution"))
}

func TestClassifiedWrappers(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
		check func(error) bool
	}{
		{"config", WrapConfig, ErrorConfig, IsConfig},
		{"type", WrapType, ErrorType, IsType},
		{"runtime", WrapRuntime, ErrorRuntime, IsRuntime},
		{"connection", WrapConnection, ErrorConnection, IsConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wrap(base, "op", "Method", "action")
			require.Error(t, err)
			assert.True(t, tt.check(err))
			assert.Equal(t, tt.class, Classify(err))
			assert.True(t, errors.Is(err, base))

			var ce *ClassifiedError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "op", ce.Component)
			assert.Equal(t, "Method", ce.Operation)

			assert.Nil(t, tt.wrap(nil, "op", "Method", "action"))
		})
	}
}

func TestSentinelClassification(t *testing.T) {
	assert.True(t, IsConfig(fmt.Errorf("check: %w", ErrUnconnectedInput)))
	assert.True(t, IsConfig(ErrInvalidConfig))
	assert.True(t, IsType(ErrUnknownType))
	assert.True(t, IsConnection(ErrNotStopped))
	assert.True(t, IsConnection(ErrAlreadyConnected))
	assert.True(t, IsRuntime(errors.New("anything else")))

	assert.False(t, IsConfig(nil))
	assert.False(t, IsType(nil))
	assert.False(t, IsConnection(nil))
	assert.False(t, IsRuntime(nil))
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	inner := WrapType(ErrUnknownType, "scaler", "Process", "type dispatch")
	outer := WrapRuntime(inner, "scaler", "Process", "processing step")

	// errors.As finds the outermost classified error first.
	assert.Equal(t, ErrorRuntime, Classify(outer))
	assert.True(t, errors.Is(outer, ErrUnknownType))
}

func TestFailingOperation(t *testing.T) {
	err := WrapRuntime(errors.New("boom"), "generator-1", "Process", "processing step")
	assert.Equal(t, "generator-1", FailingOperation(err))

	wrapped := fmt.Errorf("execute: %w", err)
	assert.Equal(t, "generator-1", FailingOperation(wrapped))

	assert.Equal(t, "", FailingOperation(errors.New("anonymous")))
}
