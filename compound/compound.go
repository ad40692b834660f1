// Package compound implements nested-graph composition: a container of
// child operations that behaves as a single operation to its parent. It
// exposes a subset of child sockets as its own ports and forwards
// lifecycle transitions to all children in dependency order. The
// compound's own state is a reduction over its children's states.
package compound

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hesitationer/into/errors"
	"github.com/hesitationer/into/operation"
)

// exposure maps an external port name to one child socket.
type exposure struct {
	child  string
	socket string
}

// Compound is an operation composed of child operations. Children are
// owned exclusively; their lifetime does not exceed the compound's.
type Compound struct {
	name   string
	logger *slog.Logger

	mu         sync.Mutex
	children   map[string]operation.Operation
	childOrder []string
	exposedIn  map[string]exposure
	exposedOut map[string]exposure
	inOrder    []string
	outOrder   []string
	state      operation.State
	stateCh    chan struct{}
	listeners  []operation.StateListener
	err        error
}

// New creates an empty compound with the given name.
func New(name string) *Compound {
	return &Compound{
		name:       name,
		logger:     slog.Default().With("compound", name),
		children:   make(map[string]operation.Operation),
		exposedIn:  make(map[string]exposure),
		exposedOut: make(map[string]exposure),
		state:      operation.StateStopped,
		stateCh:    make(chan struct{}),
	}
}

// SetLogger replaces the compound logger.
func (c *Compound) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger.With("compound", c.name)
	}
}

// Name returns the compound name.
func (c *Compound) Name() string { return c.name }

// State returns the reduced lifecycle state over all children.
func (c *Compound) State() operation.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the first execution error captured from any child.
func (c *Compound) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// AddStateListener registers an observer for reduced state transitions.
func (c *Compound) AddStateListener(fn operation.StateListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// AddOperation adds a child. The child must be stopped and its name unique
// within the compound.
func (c *Compound) AddOperation(op operation.Operation) error {
	if op == nil {
		return errors.WrapConfig(errors.ErrInvalidConfig, c.name, "AddOperation", "nil operation")
	}
	if op.State() != operation.StateStopped {
		return errors.WrapConnection(errors.ErrNotStopped, c.name, "AddOperation", "child state check")
	}

	c.mu.Lock()
	if _, exists := c.children[op.Name()]; exists {
		c.mu.Unlock()
		return errors.WrapConfig(
			fmt.Errorf("%q: %w", op.Name(), errors.ErrDuplicateName),
			c.name, "AddOperation", "name uniqueness check")
	}
	c.children[op.Name()] = op
	c.childOrder = append(c.childOrder, op.Name())
	c.mu.Unlock()

	op.AddStateListener(c.childListener(op))
	return nil
}

// RemoveOperation removes a stopped child and its exposures. Connections
// to the removed child's sockets are severed.
func (c *Compound) RemoveOperation(name string) error {
	c.mu.Lock()
	op, exists := c.children[name]
	c.mu.Unlock()
	if !exists {
		return errors.WrapConfig(
			fmt.Errorf("%q: %w", name, errors.ErrUnknownPort),
			c.name, "RemoveOperation", "child lookup")
	}
	if op.State() != operation.StateStopped {
		return errors.WrapConnection(errors.ErrNotStopped, c.name, "RemoveOperation", "child state check")
	}

	for _, in := range op.Inputs() {
		for _, out := range in.Connections() {
			_ = operation.Disconnect(out, in)
		}
	}
	for _, out := range op.Outputs() {
		for _, in := range out.Connections() {
			_ = operation.Disconnect(out, in)
		}
	}

	c.mu.Lock()
	delete(c.children, name)
	for i, n := range c.childOrder {
		if n == name {
			c.childOrder = append(c.childOrder[:i], c.childOrder[i+1:]...)
			break
		}
	}
	for ext, exp := range c.exposedIn {
		if exp.child == name {
			delete(c.exposedIn, ext)
			c.inOrder = removeString(c.inOrder, ext)
		}
	}
	for ext, exp := range c.exposedOut {
		if exp.child == name {
			delete(c.exposedOut, ext)
			c.outOrder = removeString(c.outOrder, ext)
		}
	}
	c.mu.Unlock()
	c.reduceState()
	return nil
}

// ReplaceOperation swaps a stopped child for a replacement, preserving
// external exposures and inbound/outbound connections by re-pointing them
// to the replacement's same-named sockets. Fails with a configuration
// error, leaving the graph unchanged, if the replacement is missing a
// socket that carried a connection or exposure.
func (c *Compound) ReplaceOperation(name string, repl operation.Operation) error {
	c.mu.Lock()
	old, exists := c.children[name]
	c.mu.Unlock()
	if !exists {
		return errors.WrapConfig(
			fmt.Errorf("%q: %w", name, errors.ErrUnknownPort),
			c.name, "ReplaceOperation", "child lookup")
	}
	if repl == nil {
		return errors.WrapConfig(errors.ErrInvalidConfig, c.name, "ReplaceOperation", "nil replacement")
	}
	if old.State() != operation.StateStopped || repl.State() != operation.StateStopped {
		return errors.WrapConnection(errors.ErrNotStopped, c.name, "ReplaceOperation", "endpoint state check")
	}

	// Validate before mutating anything.
	for _, in := range old.Inputs() {
		if len(in.Connections()) == 0 && !c.inputExposed(name, in.Name()) {
			continue
		}
		if repl.Input(in.Name()) == nil {
			return errors.WrapConfig(
				fmt.Errorf("replacement is missing input %q: %w", in.Name(), errors.ErrUnknownPort),
				c.name, "ReplaceOperation", "port compatibility check")
		}
	}
	for _, out := range old.Outputs() {
		if len(out.Connections()) == 0 && !c.outputExposed(name, out.Name()) {
			continue
		}
		if repl.Output(out.Name()) == nil {
			return errors.WrapConfig(
				fmt.Errorf("replacement is missing output %q: %w", out.Name(), errors.ErrUnknownPort),
				c.name, "ReplaceOperation", "port compatibility check")
		}
	}

	// Re-point connections.
	for _, in := range old.Inputs() {
		for _, out := range in.Connections() {
			_ = operation.Disconnect(out, in)
			_ = operation.Connect(out, repl.Input(in.Name()))
		}
	}
	for _, out := range old.Outputs() {
		for _, in := range out.Connections() {
			_ = operation.Disconnect(out, in)
			_ = operation.Connect(repl.Output(out.Name()), in)
		}
	}

	c.mu.Lock()
	delete(c.children, name)
	c.children[repl.Name()] = repl
	for i, n := range c.childOrder {
		if n == name {
			c.childOrder[i] = repl.Name()
			break
		}
	}
	for ext, exp := range c.exposedIn {
		if exp.child == name {
			c.exposedIn[ext] = exposure{child: repl.Name(), socket: exp.socket}
		}
	}
	for ext, exp := range c.exposedOut {
		if exp.child == name {
			c.exposedOut[ext] = exposure{child: repl.Name(), socket: exp.socket}
		}
	}
	c.mu.Unlock()

	repl.AddStateListener(c.childListener(repl))
	c.reduceState()
	return nil
}

// Operation returns a child by name.
func (c *Compound) Operation(name string) (operation.Operation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	op, ok := c.children[name]
	return op, ok
}

// Operations returns the children in insertion order.
func (c *Compound) Operations() []operation.Operation {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := make([]operation.Operation, 0, len(c.childOrder))
	for _, name := range c.childOrder {
		ops = append(ops, c.children[name])
	}
	return ops
}

// ExposeInput maps an external port name to a child's input socket.
func (c *Compound) ExposeInput(external, child, socket string) error {
	if err := c.validateExposure(child, socket, operation.DirectionInput, "ExposeInput"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.exposedIn[external]; !exists {
		c.inOrder = append(c.inOrder, external)
	}
	c.exposedIn[external] = exposure{child: child, socket: socket}
	return nil
}

// ExposeOutput maps an external port name to a child's output socket.
func (c *Compound) ExposeOutput(external, child, socket string) error {
	if err := c.validateExposure(child, socket, operation.DirectionOutput, "ExposeOutput"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.exposedOut[external]; !exists {
		c.outOrder = append(c.outOrder, external)
	}
	c.exposedOut[external] = exposure{child: child, socket: socket}
	return nil
}

// UnexposeInput removes an external input mapping.
func (c *Compound) UnexposeInput(external string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.exposedIn, external)
	c.inOrder = removeString(c.inOrder, external)
}

// UnexposeOutput removes an external output mapping.
func (c *Compound) UnexposeOutput(external string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.exposedOut, external)
	c.outOrder = removeString(c.outOrder, external)
}

func (c *Compound) validateExposure(child, socket string, dir operation.Direction, method string) error {
	c.mu.Lock()
	op, exists := c.children[child]
	c.mu.Unlock()
	if !exists {
		return errors.WrapConfig(
			fmt.Errorf("child %q: %w", child, errors.ErrUnknownPort),
			c.name, method, "child lookup")
	}
	if dir == operation.DirectionInput && op.Input(socket) == nil ||
		dir == operation.DirectionOutput && op.Output(socket) == nil {
		return errors.WrapConfig(
			fmt.Errorf("socket %s.%s: %w", child, socket, errors.ErrUnknownPort),
			c.name, method, "socket lookup")
	}
	return nil
}

func (c *Compound) inputExposed(child, socket string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, exp := range c.exposedIn {
		if exp.child == child && exp.socket == socket {
			return true
		}
	}
	return false
}

func (c *Compound) outputExposed(child, socket string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, exp := range c.exposedOut {
		if exp.child == child && exp.socket == socket {
			return true
		}
	}
	return false
}

// Input resolves an exposed external input port to the child socket.
func (c *Compound) Input(name string) *operation.InputSocket {
	c.mu.Lock()
	exp, ok := c.exposedIn[name]
	op := c.children[exp.child]
	c.mu.Unlock()
	if !ok || op == nil {
		return nil
	}
	return op.Input(exp.socket)
}

// Output resolves an exposed external output port to the child socket.
func (c *Compound) Output(name string) *operation.OutputSocket {
	c.mu.Lock()
	exp, ok := c.exposedOut[name]
	op := c.children[exp.child]
	c.mu.Unlock()
	if !ok || op == nil {
		return nil
	}
	return op.Output(exp.socket)
}

// Inputs returns the exposed input sockets in exposure order.
func (c *Compound) Inputs() []*operation.InputSocket {
	c.mu.Lock()
	order := append([]string(nil), c.inOrder...)
	c.mu.Unlock()
	sockets := make([]*operation.InputSocket, 0, len(order))
	for _, name := range order {
		if in := c.Input(name); in != nil {
			sockets = append(sockets, in)
		}
	}
	return sockets
}

// Outputs returns the exposed output sockets in exposure order.
func (c *Compound) Outputs() []*operation.OutputSocket {
	c.mu.Lock()
	order := append([]string(nil), c.outOrder...)
	c.mu.Unlock()
	sockets := make([]*operation.OutputSocket, 0, len(order))
	for _, name := range order {
		if out := c.Output(name); out != nil {
			sockets = append(sockets, out)
		}
	}
	return sockets
}

// Exposures returns the external port mappings as "child.socket" strings,
// keyed by external name. Used by graph persistence.
func (c *Compound) Exposures() (inputs, outputs map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inputs = make(map[string]string, len(c.exposedIn))
	outputs = make(map[string]string, len(c.exposedOut))
	for ext, exp := range c.exposedIn {
		inputs[ext] = exp.child + "." + exp.socket
	}
	for ext, exp := range c.exposedOut {
		outputs[ext] = exp.child + "." + exp.socket
	}
	return inputs, outputs
}

// SetProperty configures a child by dotted name: "child.property".
func (c *Compound) SetProperty(name string, value any) error {
	child, prop, err := c.splitProperty(name, "SetProperty")
	if err != nil {
		return err
	}
	return child.SetProperty(prop, value)
}

// Property reads a child configuration value by dotted name.
func (c *Compound) Property(name string) (any, error) {
	child, prop, err := c.splitProperty(name, "Property")
	if err != nil {
		return nil, err
	}
	return child.Property(prop)
}

func (c *Compound) splitProperty(name, method string) (operation.Operation, string, error) {
	childName, prop, found := strings.Cut(name, ".")
	if !found {
		return nil, "", errors.WrapConfig(
			fmt.Errorf("%q: %w", name, errors.ErrUnknownProperty),
			c.name, method, "dotted name required")
	}
	c.mu.Lock()
	child, ok := c.children[childName]
	c.mu.Unlock()
	if !ok {
		return nil, "", errors.WrapConfig(
			fmt.Errorf("child %q: %w", childName, errors.ErrUnknownProperty),
			c.name, method, "child lookup")
	}
	return child, prop, nil
}

// Check validates all children concurrently.
func (c *Compound) Check(reset bool) error {
	var g errgroup.Group
	for _, op := range c.Operations() {
		op := op
		g.Go(func() error {
			return op.Check(reset)
		})
	}
	if err := g.Wait(); err != nil {
		return errors.WrapConfig(err, c.name, "Check", "child validation")
	}
	c.mu.Lock()
	c.err = nil
	c.mu.Unlock()
	return nil
}

// Start forwards the start request to every child, consumers before their
// producers so that no sync-start tag is ever delivered to a child that
// has not begun accepting.
func (c *Compound) Start() error {
	order := c.topoOrder()
	for i := len(order) - 1; i >= 0; i-- {
		if err := order[i].Start(); err != nil {
			return err
		}
	}
	return nil
}

// Pause forwards the pause request to every child, producers first, so
// the pause tags chase the last data items through the graph.
func (c *Compound) Pause() error {
	for _, op := range c.topoOrder() {
		if err := op.Pause(); err != nil {
			return err
		}
	}
	return nil
}

// Stop forwards the stop request to every child, producers first.
func (c *Compound) Stop() error {
	for _, op := range c.topoOrder() {
		if err := op.Stop(); err != nil {
			return err
		}
	}
	return nil
}

// Interrupt aborts every child immediately.
func (c *Compound) Interrupt() {
	for _, op := range c.Operations() {
		op.Interrupt()
	}
}

// Wait blocks until the reduced state reaches the target or the timeout
// elapses. A negative timeout waits forever.
func (c *Compound) Wait(target operation.State, timeout time.Duration) bool {
	var deadline <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		c.mu.Lock()
		ch := c.stateCh
		st := c.state
		c.mu.Unlock()
		if st == target {
			return true
		}
		select {
		case <-ch:
		case <-deadline:
			return c.State() == target
		}
	}
}

// WaitIdle blocks until every child, transitively, reached a terminal
// state (stopped or interrupted), or the timeout elapses.
func (c *Compound) WaitIdle(timeout time.Duration) bool {
	var deadline <-chan time.Time
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	for {
		c.mu.Lock()
		ch := c.stateCh
		c.mu.Unlock()
		if c.idle() {
			return true
		}
		select {
		case <-ch:
		case <-deadline:
			return c.idle()
		}
	}
}

func (c *Compound) idle() bool {
	for _, op := range c.Operations() {
		if !op.State().Terminal() {
			return false
		}
	}
	return true
}

// childListener feeds child transitions into the state reduction. It
// ignores children that were removed or replaced after registration.
func (c *Compound) childListener(child operation.Operation) operation.StateListener {
	return func(op operation.Operation, old, new operation.State) {
		c.mu.Lock()
		current, ok := c.children[child.Name()]
		c.mu.Unlock()
		if !ok || current != child {
			return
		}
		if new == operation.StateInterrupted {
			if err := child.Err(); err != nil {
				c.mu.Lock()
				if c.err == nil {
					c.err = err
				}
				c.mu.Unlock()
			}
		}
		c.reduceState()
	}
}

// reduceState recomputes the compound state from the children: AND for
// forward progress, OR for failure.
func (c *Compound) reduceState() {
	ops := c.Operations()

	reduced := reduce(ops)

	c.mu.Lock()
	old := c.state
	c.state = reduced
	// Wake Wait and WaitIdle on every child transition: idleness can
	// change while the reduced state stays the same (e.g. siblings
	// stopping after one child interrupted).
	close(c.stateCh)
	c.stateCh = make(chan struct{})
	if old == reduced {
		c.mu.Unlock()
		return
	}
	listeners := make([]operation.StateListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	c.logger.Debug("state changed", "from", old.String(), "to", reduced.String())
	for _, fn := range listeners {
		fn(c, old, reduced)
	}
}

func reduce(ops []operation.Operation) operation.State {
	if len(ops) == 0 {
		return operation.StateStopped
	}

	counts := make(map[operation.State]int, 7)
	for _, op := range ops {
		counts[op.State()]++
	}
	if counts[operation.StateInterrupted] > 0 {
		return operation.StateInterrupted
	}
	for st, n := range counts {
		if n == len(ops) {
			return st
		}
	}
	switch {
	case counts[operation.StateStarting] > 0:
		return operation.StateStarting
	case counts[operation.StateStopping] > 0 || counts[operation.StateStopped] > 0:
		return operation.StateStopping
	case counts[operation.StatePausing] > 0 || counts[operation.StatePaused] > 0:
		return operation.StatePausing
	default:
		return operation.StateRunning
	}
}

// topoOrder returns the children sources-first. Cycles are tolerated: the
// remaining nodes of a cycle are appended in insertion order, since tags,
// not call order, carry lifecycle correctness.
func (c *Compound) topoOrder() []operation.Operation {
	ops := c.Operations()

	// Map each child's input sockets back to the owning child.
	inputOwner := make(map[*operation.InputSocket]int)
	for i, op := range ops {
		for _, in := range op.Inputs() {
			inputOwner[in] = i
		}
	}

	// indegree counts distinct upstream edges inside this compound.
	indegree := make([]int, len(ops))
	downstream := make([][]int, len(ops))
	for i, op := range ops {
		seen := make(map[int]bool)
		for _, out := range op.Outputs() {
			for _, in := range out.Connections() {
				j, ok := inputOwner[in]
				if !ok || j == i || seen[j] {
					continue
				}
				seen[j] = true
				downstream[i] = append(downstream[i], j)
				indegree[j]++
			}
		}
	}

	order := make([]operation.Operation, 0, len(ops))
	queue := make([]int, 0, len(ops))
	done := make([]bool, len(ops))
	for i := range ops {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		done[i] = true
		order = append(order, ops[i])
		for _, j := range downstream[i] {
			indegree[j]--
			if indegree[j] == 0 && !done[j] {
				queue = append(queue, j)
			}
		}
	}
	for i := range ops {
		if !done[i] {
			order = append(order, ops[i])
		}
	}
	return order
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
