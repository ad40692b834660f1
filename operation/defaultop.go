package operation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hesitationer/into/errors"
	"github.com/hesitationer/into/metric"
	"github.com/hesitationer/into/variant"
)

// ProcessorKind selects the execution strategy bound to an operation.
type ProcessorKind int

const (
	// Threaded gives the operation a dedicated goroutine that pulls
	// ready input sets. Required for pure sources.
	Threaded ProcessorKind = iota
	// Synchronous executes the processing step inline on the thread that
	// delivered the triggering object. Not usable for pure sources.
	Synchronous
)

// String returns the processor kind name.
func (k ProcessorKind) String() string {
	if k == Synchronous {
		return "synchronous"
	}
	return "threaded"
}

// DefaultOperation is the standard Operation implementation binding a Body,
// a socket set, a flow controller and an execution strategy together.
type DefaultOperation struct {
	name string
	id   uuid.UUID
	kind ProcessorKind
	body Body

	logger   *slog.Logger
	metrics  *metric.Metrics
	priority int

	inputs    []*InputSocket
	outputs   []*OutputSocket
	inByName  map[string]*InputSocket
	outByName map[string]*OutputSocket

	// stepMu serializes processing steps with source-side lifecycle tag
	// emission. Never held while waiting for input.
	stepMu sync.Mutex

	mu          sync.Mutex
	state       State
	stateCh     chan struct{}
	err         error
	listeners   []StateListener
	hookFired   bool
	connectedIn []*InputSocket
	proc        processor
	controller  FlowController
	runCtx      context.Context
	runCancel   context.CancelFunc
}

// NewDefault creates an operation with the given sockets, execution
// strategy and body. The sockets become owned by the operation.
func NewDefault(name string, kind ProcessorKind, body Body,
	inputs []*InputSocket, outputs []*OutputSocket) *DefaultOperation {

	op := &DefaultOperation{
		name:      name,
		id:        uuid.New(),
		kind:      kind,
		body:      body,
		logger:    slog.Default().With("operation", name),
		inputs:    inputs,
		outputs:   outputs,
		inByName:  make(map[string]*InputSocket, len(inputs)),
		outByName: make(map[string]*OutputSocket, len(outputs)),
		state:     StateStopped,
		stateCh:   make(chan struct{}),
	}
	for _, in := range inputs {
		in.owner = op
		op.inByName[in.Name()] = in
	}
	for _, out := range outputs {
		out.owner = op
		op.outByName[out.Name()] = out
	}
	return op
}

// Name returns the unique instance name.
func (op *DefaultOperation) Name() string { return op.name }

// ID returns the instance identifier.
func (op *DefaultOperation) ID() uuid.UUID { return op.id }

// Kind returns the execution strategy.
func (op *DefaultOperation) Kind() ProcessorKind { return op.kind }

// Priority returns the advisory processing priority.
func (op *DefaultOperation) Priority() int { return op.priority }

// SetPriority records an advisory processing priority. Goroutines carry
// no scheduler priority, so the value is informational only.
func (op *DefaultOperation) SetPriority(p int) { op.priority = p }

// SetLogger replaces the operation logger.
func (op *DefaultOperation) SetLogger(logger *slog.Logger) {
	if logger != nil {
		op.logger = logger.With("operation", op.name)
	}
}

// SetMetrics attaches engine metrics to the operation. Pass nil to detach.
func (op *DefaultOperation) SetMetrics(registry *metric.MetricsRegistry) {
	if registry == nil {
		op.metrics = nil
		return
	}
	op.metrics = registry.CoreMetrics()
}

// Input returns the named input socket, or nil.
func (op *DefaultOperation) Input(name string) *InputSocket { return op.inByName[name] }

// Output returns the named output socket, or nil.
func (op *DefaultOperation) Output(name string) *OutputSocket { return op.outByName[name] }

// Inputs returns the input sockets in declaration order.
func (op *DefaultOperation) Inputs() []*InputSocket { return op.inputs }

// Outputs returns the output sockets in declaration order.
func (op *DefaultOperation) Outputs() []*OutputSocket { return op.outputs }

// State returns the current lifecycle state.
func (op *DefaultOperation) State() State {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.state
}

// Err returns the first execution error captured during the last run.
func (op *DefaultOperation) Err() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.err
}

// AddStateListener registers an observer for state transitions.
func (op *DefaultOperation) AddStateListener(fn StateListener) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.listeners = append(op.listeners, fn)
}

// RunContext returns a context that is canceled when the operation leaves
// the running portion of its lifecycle. Bodies use it for interruptible
// waits inside a processing step.
func (op *DefaultOperation) RunContext() context.Context {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.runCtx == nil {
		return context.Background()
	}
	return op.runCtx
}

// SetProperty configures the operation by property name.
func (op *DefaultOperation) SetProperty(name string, value any) error {
	cfg, ok := op.body.(Configurable)
	if !ok {
		return errors.WrapConfig(
			fmt.Errorf("%q: %w", name, errors.ErrUnknownProperty),
			op.name, "SetProperty", "operation has no properties")
	}
	return cfg.Properties().setProperty(op.name, name, value)
}

// Property reads a configuration value by property name.
func (op *DefaultOperation) Property(name string) (any, error) {
	cfg, ok := op.body.(Configurable)
	if !ok {
		return nil, errors.WrapConfig(
			fmt.Errorf("%q: %w", name, errors.ErrUnknownProperty),
			op.name, "Property", "operation has no properties")
	}
	return cfg.Properties().property(op.name, name)
}

// Properties returns the body's property table, or nil if the operation
// is not configurable. Used by graph persistence.
func (op *DefaultOperation) Properties() PropertyMap {
	if cfg, ok := op.body.(Configurable); ok {
		return cfg.Properties()
	}
	return nil
}

// isSource reports whether the operation has no connected inputs after the
// last Check.
func (op *DefaultOperation) isSource() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return len(op.connectedIn) == 0
}

// Check validates configuration and (re)allocates per-run resources.
func (op *DefaultOperation) Check(reset bool) error {
	op.mu.Lock()
	if op.state != StateStopped {
		op.mu.Unlock()
		return errors.WrapConfig(errors.ErrNotStopped, op.name, "Check", "state validation")
	}
	op.mu.Unlock()

	var connected []*InputSocket
	for _, in := range op.inputs {
		in.reset()
		if in.Connected() {
			connected = append(connected, in)
		} else if !in.Optional() {
			return errors.WrapConfig(
				fmt.Errorf("input %q: %w", in.Name(), errors.ErrUnconnectedInput),
				op.name, "Check", "connection validation")
		}
	}
	if op.kind == Synchronous && len(connected) == 0 {
		return errors.WrapConfig(
			fmt.Errorf("synchronous processor needs connected inputs: %w", errors.ErrInvalidConfig),
			op.name, "Check", "processor validation")
	}

	if err := op.body.Check(reset); err != nil {
		return errors.WrapConfig(err, op.name, "Check", "body validation")
	}

	proc := newProcessor(op)
	runCtx, runCancel := context.WithCancel(context.Background())

	op.mu.Lock()
	op.connectedIn = connected
	if len(connected) > 0 {
		op.controller = newDefaultController(connected)
	} else {
		op.controller = nil
	}
	op.proc = proc
	op.err = nil
	op.hookFired = false
	if op.runCancel != nil {
		op.runCancel()
	}
	op.runCtx, op.runCancel = runCtx, runCancel
	op.mu.Unlock()

	for _, in := range connected {
		in.receiver = proc.notify
		in.delivered = op.deliveredHook(in)
	}
	if op.metrics != nil {
		for _, out := range op.outputs {
			out.emitted = op.emittedHook(out)
		}
	}
	return nil
}

func (op *DefaultOperation) deliveredHook(in *InputSocket) func() {
	if op.metrics == nil {
		return nil
	}
	received := op.metrics.ObjectsReceived.WithLabelValues(op.name, in.Name())
	depth := op.metrics.QueueDepth.WithLabelValues(op.name, in.Name())
	return func() {
		received.Inc()
		depth.Set(float64(in.Len()))
	}
}

func (op *DefaultOperation) emittedHook(out *OutputSocket) func() {
	emitted := op.metrics.ObjectsEmitted.WithLabelValues(op.name, out.Name())
	return func() { emitted.Inc() }
}

// Start moves a stopped operation towards running, or resumes a paused
// source. Consumers resume when the resume tags of their producers arrive.
func (op *DefaultOperation) Start() error {
	op.mu.Lock()
	switch op.state {
	case StateStopped:
		if op.proc == nil {
			op.mu.Unlock()
			return errors.WrapConfig(
				fmt.Errorf("check not called: %w", errors.ErrInvalidConfig),
				op.name, "Start", "state validation")
		}
		op.setStateLocked(StateStarting)
		source := len(op.connectedIn) == 0
		proc := op.proc
		op.mu.Unlock()

		if source {
			op.emitControl(variant.SyncStart)
			op.setState(StateRunning)
		}
		proc.start()
		return nil

	case StatePaused:
		source := len(op.connectedIn) == 0
		op.mu.Unlock()
		if source {
			op.emitControl(variant.Resume)
			op.setState(StateRunning)
		}
		return nil

	case StateStarting, StateRunning:
		op.mu.Unlock()
		return nil

	default:
		st := op.state
		op.mu.Unlock()
		return errors.WrapConfig(
			fmt.Errorf("cannot start from %s: %w", st, errors.ErrNotStopped),
			op.name, "Start", "state validation")
	}
}

// Pause requests the transition towards paused. A source pauses
// immediately after emitting pause tags; an operation with connected
// inputs enters pausing and completes once pause tags reach quiescence.
func (op *DefaultOperation) Pause() error {
	if op.isSource() {
		op.stepMu.Lock()
		defer op.stepMu.Unlock()
		if op.State() != StateRunning {
			return nil
		}
		op.emitControl(variant.Pause)
		op.setState(StatePaused)
		return nil
	}

	op.mu.Lock()
	if op.state == StateRunning || op.state == StateStarting {
		op.setStateLocked(StatePausing)
	}
	op.mu.Unlock()
	return nil
}

// Stop requests the transition towards stopped, symmetric to Pause with
// stop tags.
func (op *DefaultOperation) Stop() error {
	if op.isSource() {
		op.stepMu.Lock()
		defer op.stepMu.Unlock()
		switch op.State() {
		case StateRunning, StatePaused, StateStarting:
			op.emitControl(variant.Stop)
			op.setState(StateStopped)
		}
		return nil
	}

	op.mu.Lock()
	switch op.state {
	case StateRunning, StateStarting, StatePausing, StatePaused:
		op.setStateLocked(StateStopping)
		proc := op.proc
		op.mu.Unlock()
		if proc != nil {
			proc.notify()
		}
		return nil
	}
	op.mu.Unlock()
	return nil
}

// Interrupt aborts the operation immediately, bypassing quiescence. The
// in-flight processing step, if any, runs to completion asynchronously,
// but no further steps are scheduled.
func (op *DefaultOperation) Interrupt() {
	op.mu.Lock()
	if op.state == StateStopped {
		op.mu.Unlock()
		return
	}
	op.setStateLocked(StateInterrupted)
	proc := op.proc
	op.mu.Unlock()

	for _, in := range op.inputs {
		in.close()
	}
	if proc != nil {
		proc.interrupt()
	}
}

// Wait blocks until the operation reaches the target state or the timeout
// elapses. A negative timeout waits forever.
func (op *DefaultOperation) Wait(target State, timeout time.Duration) bool {
	return waitState(op, target, timeout)
}

// waitState implements Wait over the state channel broadcast shared by
// DefaultOperation and Compound.
type stateWaiter interface {
	State() State
	stateChanged() <-chan struct{}
}

func waitState(w stateWaiter, target State, timeout time.Duration) bool {
	var deadline <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		ch := w.stateChanged()
		if w.State() == target {
			return true
		}
		select {
		case <-ch:
		case <-deadline:
			return w.State() == target
		}
	}
}

func (op *DefaultOperation) stateChanged() <-chan struct{} {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.stateCh
}

// setState transitions to the new state and notifies listeners outside
// the lock.
func (op *DefaultOperation) setState(new State) {
	op.mu.Lock()
	op.setStateLocked(new)
	op.mu.Unlock()
}

// setStateLocked performs the transition bookkeeping and schedules the
// listener notification. Callers hold op.mu.
func (op *DefaultOperation) setStateLocked(new State) {
	old := op.state
	if old == new {
		return
	}
	op.state = new
	close(op.stateCh)
	op.stateCh = make(chan struct{})
	listeners := make([]StateListener, len(op.listeners))
	copy(listeners, op.listeners)

	var hook StopHooks
	if new.Terminal() {
		if op.runCancel != nil {
			op.runCancel()
		}
		if h, ok := op.body.(StopHooks); ok && !op.hookFired {
			op.hookFired = true
			hook = h
		}
	}

	op.mu.Unlock()
	defer op.mu.Lock()

	if op.metrics != nil {
		op.metrics.OperationState.WithLabelValues(op.name).Set(float64(new))
	}
	op.logger.Debug("state changed", "from", old.String(), "to", new.String())
	for _, fn := range listeners {
		fn(op, old, new)
	}
	if hook != nil {
		hook.AboutToStop()
	}
}

// transitionIf moves to the new state only from one of the given states.
func (op *DefaultOperation) transitionIf(to State, from ...State) {
	op.mu.Lock()
	defer op.mu.Unlock()
	for _, f := range from {
		if op.state == f {
			op.setStateLocked(to)
			return
		}
	}
}

// emitControl fans a control tag out on every output socket.
func (op *DefaultOperation) emitControl(tag variant.Tag) {
	v := variant.NewControl(tag)
	for _, out := range op.outputs {
		_ = out.Emit(v)
	}
}

// runStep lets the flow controller evaluate readiness and executes at most
// one processing step or control flush. Returns whether progress was made.
// Serialized by stepMu; the at-most-one-step guarantee follows from the
// processor never calling runStep concurrently.
func (op *DefaultOperation) runStep() bool {
	op.stepMu.Lock()
	defer op.stepMu.Unlock()

	op.mu.Lock()
	controller := op.controller
	st := op.state
	op.mu.Unlock()
	if controller == nil || st.Terminal() {
		return false
	}

	fs, step, tag := controller.Prepare()
	switch fs {
	case FlowControl:
		op.handleControl(tag)
		return true

	case FlowProcess:
		start := time.Now()
		err := op.body.Process(step)
		if op.metrics != nil {
			op.metrics.ProcessingDuration.WithLabelValues(op.name).Observe(time.Since(start).Seconds())
			status := "ok"
			if err != nil {
				status = "error"
			}
			op.metrics.ObjectsProcessed.WithLabelValues(op.name, status).Inc()
		}
		if err != nil {
			op.fail(err)
			return false
		}
		return true
	}
	return false
}

// handleControl forwards a flushed control tag downstream and applies its
// state effect. Runs with stepMu held, in the data stream's own position.
func (op *DefaultOperation) handleControl(tag variant.Tag) {
	if obs, ok := op.body.(ControlObserver); ok {
		obs.ObserveControl(tag)
	}
	op.emitControl(tag)

	switch tag {
	case variant.SyncStart:
		op.transitionIf(StateRunning, StateStarting)
	case variant.Pause:
		op.transitionIf(StatePaused, StateRunning, StatePausing, StateStarting)
	case variant.Resume:
		op.transitionIf(StateRunning, StatePaused, StatePausing)
	case variant.Stop:
		op.mu.Lock()
		if !op.state.Terminal() {
			op.setStateLocked(StateStopped)
		}
		op.mu.Unlock()
	}
}

// fail captures the first execution error, tells downstream operations to
// stop, and marks the operation interrupted. Further steps are not
// scheduled; siblings are shut down by the engine's cascade.
func (op *DefaultOperation) fail(err error) {
	var wrapped error
	if errors.Classify(err) == errors.ErrorType {
		wrapped = errors.WrapType(err, op.name, "Process", "processing step")
	} else {
		wrapped = errors.WrapRuntime(err, op.name, "Process", "processing step")
	}

	op.mu.Lock()
	if op.err == nil {
		op.err = wrapped
	}
	op.mu.Unlock()

	op.logger.Error("processing step failed", "error", err)
	if op.metrics != nil {
		op.metrics.ErrorsTotal.WithLabelValues(op.name, errors.Classify(err).String()).Inc()
	}

	op.emitControl(variant.Stop)
	for _, in := range op.inputs {
		in.close()
	}
	op.mu.Lock()
	if !op.state.Terminal() {
		op.setStateLocked(StateInterrupted)
	}
	op.mu.Unlock()
	if proc := op.procRef(); proc != nil {
		proc.interrupt()
	}
}

func (op *DefaultOperation) procRef() processor {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.proc
}

// hasPending reports whether any connected input has queued objects.
func (op *DefaultOperation) hasPending() bool {
	op.mu.Lock()
	connected := op.connectedIn
	op.mu.Unlock()
	for _, in := range connected {
		if in.Len() > 0 {
			return true
		}
	}
	return false
}
