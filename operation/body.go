package operation

import (
	"errors"

	"github.com/hesitationer/into/variant"
)

// Finished is returned by a source body's Process to signal the natural
// end of its data. The operation then emits stop tags downstream and
// stops itself.
var Finished = errors.New("source finished")

// Body is the contract concrete processing plugins implement. A body is
// bound to exactly one DefaultOperation; it emits results by calling Emit
// on the output sockets it constructed.
//
// For an operation with connected inputs, Process receives the input set
// the flow controller collected. For a pure source driven by a threaded
// processor, Process is called with a nil step once per loop iteration and
// may return Finished to end the run.
type Body interface {
	// Process executes one processing step. Errors abort the run and are
	// reported upward with the operation's identity.
	Process(step *Step) error

	// Check validates configuration before a run. With reset true,
	// accumulated state is reinitialized.
	Check(reset bool) error
}

// ControlObserver is an optional Body extension notified of every control
// tag the operation flushes, before the tag is forwarded downstream.
type ControlObserver interface {
	ObserveControl(tag variant.Tag)
}

// StopHooks is an optional Body extension with hook points around
// lifecycle edges, for resource cleanup.
type StopHooks interface {
	// AboutToStop is called after the operation reached a terminal
	// state, before its processor is released.
	AboutToStop()
}

// Configurable is an optional Body extension exposing a compile-time
// property table for configure-by-name access.
type Configurable interface {
	Properties() PropertyMap
}
