// Package operation implements the graph node model of the Into engine:
// the lifecycle state machine, input and output sockets with their queues,
// the flow controllers deciding processing-step readiness, and the threaded
// and synchronous execution strategies.
package operation

import (
	"time"
)

// Operation is a graph node with named input and output sockets and a
// lifecycle. Both leaf operations (DefaultOperation) and nested graphs
// implement it.
type Operation interface {
	// Name returns the unique instance name of the operation.
	Name() string

	// State returns the current lifecycle state.
	State() State

	// Input returns the named input socket, or nil if there is none.
	Input(name string) *InputSocket

	// Output returns the named output socket, or nil if there is none.
	Output(name string) *OutputSocket

	// Inputs returns the input sockets in declaration order.
	Inputs() []*InputSocket

	// Outputs returns the output sockets in declaration order.
	Outputs() []*OutputSocket

	// Check validates configuration and (re)allocates per-run resources.
	// It must be called while stopped, before Start. With reset true,
	// accumulated state such as counters is reinitialized.
	Check(reset bool) error

	// Start requests the transition towards the running state. On a
	// paused operation it requests resumption.
	Start() error

	// Pause requests the transition towards the paused state. The
	// transition completes once the operation reaches quiescence.
	Pause() error

	// Stop requests the transition towards the stopped state. The
	// transition completes once the operation reaches quiescence.
	Stop() error

	// Interrupt aborts the operation immediately, bypassing quiescence.
	// Safe to call concurrently with an in-flight processing step.
	Interrupt()

	// Wait blocks until the operation reaches the target state or the
	// timeout elapses. A negative timeout waits forever.
	Wait(target State, timeout time.Duration) bool

	// AddStateListener registers an observer for state transitions.
	AddStateListener(fn StateListener)

	// Err returns the first execution error captured during the last
	// run, or nil.
	Err() error

	// SetProperty configures the operation by property name.
	SetProperty(name string, value any) error

	// Property reads a configuration value by property name.
	Property(name string) (any, error)
}
