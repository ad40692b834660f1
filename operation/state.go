package operation

// State represents the current lifecycle state of an operation
type State int

const (
	// StateStopped indicates the operation is idle. Initial and normal
	// terminal state.
	StateStopped State = iota
	// StateStarting indicates a start request was accepted and the
	// operation is waiting for sync-start tags on its inputs.
	StateStarting
	// StateRunning indicates the operation is processing data.
	StateRunning
	// StatePausing indicates a pause request was accepted and the
	// operation is draining its inputs to quiescence.
	StatePausing
	// StatePaused indicates the operation reached quiescence after a
	// pause request.
	StatePaused
	// StateStopping indicates a stop request was accepted and the
	// operation is draining its inputs to quiescence.
	StateStopping
	// StateInterrupted indicates the operation was aborted. Abnormal
	// terminal state.
	StateInterrupted
)

// String returns a string representation of the operation state
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StatePausing:
		return "pausing"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	case StateInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is one of the two terminal states.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateInterrupted
}

// StateListener observes state transitions of one operation. Listeners are
// invoked synchronously after the transition is visible, in registration
// order, without any operation lock held.
type StateListener func(op Operation, old, new State)
