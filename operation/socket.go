package operation

import (
	"fmt"
	"sync"

	"github.com/hesitationer/into/errors"
	"github.com/hesitationer/into/variant"
)

// Direction for socket data flow
type Direction string

// Direction constants for socket data flow
const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// socketOwner is what a socket knows about the operation it belongs to.
// Connection mutations are only legal while both owners are stopped.
type socketOwner interface {
	Name() string
	State() State
}

// InputSocket is a connection endpoint that buffers incoming objects in a
// single FIFO queue. Appends happen under the socket lock, so each
// producer's emission order is preserved; the relative order between
// different producers is whatever the lock arbitration yields.
type InputSocket struct {
	name     string
	group    int
	optional bool

	mu       sync.Mutex
	notFull  *sync.Cond
	queue    []variant.Variant
	capacity int // 0 = unbounded; otherwise Emit blocks when full
	closed   bool

	connections map[*OutputSocket]struct{}
	owner       socketOwner

	// receiver is invoked after every successful delivery, outside the
	// queue lock. Wired by the owning operation's processor at Check.
	receiver func()
	// delivered is an optional metrics hook, also called outside the lock.
	delivered func()
}

// NewInput creates an input socket with the given name in group 0.
func NewInput(name string) *InputSocket {
	in := &InputSocket{
		name:        name,
		connections: make(map[*OutputSocket]struct{}),
	}
	in.notFull = sync.NewCond(&in.mu)
	return in
}

// Name returns the socket name.
func (in *InputSocket) Name() string { return in.name }

// Direction returns DirectionInput.
func (in *InputSocket) Direction() Direction { return DirectionInput }

// Group returns the synchronization group id.
func (in *InputSocket) Group() int { return in.group }

// SetGroup assigns the synchronization group id. Sockets in the same group
// must be ready together for a processing step.
func (in *InputSocket) SetGroup(g int) { in.group = g }

// Optional reports whether the socket may stay unconnected.
func (in *InputSocket) Optional() bool { return in.optional }

// SetOptional marks the socket as optional.
func (in *InputSocket) SetOptional(o bool) { in.optional = o }

// Connected reports whether at least one upstream output is connected.
func (in *InputSocket) Connected() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.connections) > 0
}

// Connections returns the connected upstream outputs. Order is undefined.
func (in *InputSocket) Connections() []*OutputSocket {
	in.mu.Lock()
	defer in.mu.Unlock()
	conns := make([]*OutputSocket, 0, len(in.connections))
	for out := range in.connections {
		conns = append(conns, out)
	}
	return conns
}

// QueueCapacity returns the configured queue bound; 0 means unbounded.
func (in *InputSocket) QueueCapacity() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.capacity
}

// SetQueueCapacity bounds the queue. With a bound in place an emitting
// producer blocks until space is available or the queue is closed. Zero
// restores the unbounded default. Only legal while the owner is stopped.
func (in *InputSocket) SetQueueCapacity(n int) error {
	if in.owner != nil && in.owner.State() != StateStopped {
		return errors.WrapConnection(errors.ErrNotStopped,
			socketComponent(in.owner, in.name), "SetQueueCapacity", "queue reconfiguration")
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if n < 0 {
		n = 0
	}
	in.capacity = n
	return nil
}

// Len returns the number of queued objects.
func (in *InputSocket) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.queue)
}

// deliver appends one object to the queue, blocking while a bounded queue
// is full. The receiver notification runs after the lock is released so
// that a synchronous downstream step never executes under this queue lock.
func (in *InputSocket) deliver(v variant.Variant) error {
	in.mu.Lock()
	for in.capacity > 0 && len(in.queue) >= in.capacity && !in.closed {
		in.notFull.Wait()
	}
	if in.closed {
		in.mu.Unlock()
		return errors.ErrQueueClosed
	}
	in.queue = append(in.queue, v)
	in.mu.Unlock()

	if in.delivered != nil {
		in.delivered()
	}
	if in.receiver != nil {
		in.receiver()
	}
	return nil
}

// head returns the first queued object without removing it.
func (in *InputSocket) head() (variant.Variant, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.queue) == 0 {
		return variant.Variant{}, false
	}
	return in.queue[0], true
}

// pop removes and returns the first queued object.
func (in *InputSocket) pop() (variant.Variant, bool) {
	in.mu.Lock()
	if len(in.queue) == 0 {
		in.mu.Unlock()
		return variant.Variant{}, false
	}
	v := in.queue[0]
	in.queue = in.queue[1:]
	in.mu.Unlock()
	in.notFull.Signal()
	return v, true
}

// reset drops all queued objects and reopens a closed queue. Called from
// Check while the owner is stopped.
func (in *InputSocket) reset() {
	in.mu.Lock()
	in.queue = nil
	in.closed = false
	in.mu.Unlock()
}

// close marks the queue closed and wakes any producer blocked on a bounded
// queue. Used by Interrupt.
func (in *InputSocket) close() {
	in.mu.Lock()
	in.closed = true
	in.mu.Unlock()
	in.notFull.Broadcast()
}

// OutputSocket is a connection endpoint that fans out emitted objects to
// all connected inputs, in connection order.
type OutputSocket struct {
	name  string
	group int

	mu          sync.Mutex
	connections []*InputSocket
	owner       socketOwner

	// emitted is an optional metrics hook.
	emitted func()
}

// NewOutput creates an output socket with the given name in group 0.
func NewOutput(name string) *OutputSocket {
	return &OutputSocket{name: name}
}

// Name returns the socket name.
func (out *OutputSocket) Name() string { return out.name }

// Direction returns DirectionOutput.
func (out *OutputSocket) Direction() Direction { return DirectionOutput }

// Group returns the synchronization group id.
func (out *OutputSocket) Group() int { return out.group }

// SetGroup assigns the synchronization group id.
func (out *OutputSocket) SetGroup(g int) { out.group = g }

// Connected reports whether at least one downstream input is connected.
func (out *OutputSocket) Connected() bool {
	out.mu.Lock()
	defer out.mu.Unlock()
	return len(out.connections) > 0
}

// Connections returns the connected downstream inputs in connection order.
func (out *OutputSocket) Connections() []*InputSocket {
	out.mu.Lock()
	defer out.mu.Unlock()
	conns := make([]*InputSocket, len(out.connections))
	copy(conns, out.connections)
	return conns
}

// Emit fans the object out to every connected input, preserving emission
// order per connection. Inputs whose queue was closed by an interrupt are
// skipped. Emitting on an unconnected output is a no-op.
func (out *OutputSocket) Emit(v variant.Variant) error {
	for _, in := range out.Connections() {
		if err := in.deliver(v); err != nil {
			// Closed by interrupt downstream; the shutdown cascade
			// handles the rest of the graph.
			continue
		}
	}
	if out.emitted != nil {
		out.emitted()
	}
	return nil
}

// Connect adds a connection from an output socket to an input socket. Both
// owning operations must be stopped. Fan-out on the output and fan-in on
// the input are both permitted.
func Connect(out *OutputSocket, in *InputSocket) error {
	if out == nil || in == nil {
		return errors.WrapConnection(errors.ErrNotConnected, "Socket", "Connect", "nil socket")
	}
	if err := requireStopped("Connect", out.owner, in.owner); err != nil {
		return err
	}

	in.mu.Lock()
	if _, dup := in.connections[out]; dup {
		in.mu.Unlock()
		return errors.WrapConnection(errors.ErrAlreadyConnected,
			socketComponent(in.owner, in.name), "Connect", "duplicate connection")
	}
	in.connections[out] = struct{}{}
	in.mu.Unlock()

	out.mu.Lock()
	out.connections = append(out.connections, in)
	out.mu.Unlock()
	return nil
}

// Disconnect removes a connection previously made with Connect. Both
// owning operations must be stopped.
func Disconnect(out *OutputSocket, in *InputSocket) error {
	if out == nil || in == nil {
		return errors.WrapConnection(errors.ErrNotConnected, "Socket", "Disconnect", "nil socket")
	}
	if err := requireStopped("Disconnect", out.owner, in.owner); err != nil {
		return err
	}

	in.mu.Lock()
	if _, ok := in.connections[out]; !ok {
		in.mu.Unlock()
		return errors.WrapConnection(errors.ErrNotConnected,
			socketComponent(in.owner, in.name), "Disconnect", "connection lookup")
	}
	delete(in.connections, out)
	in.mu.Unlock()

	out.mu.Lock()
	for i, c := range out.connections {
		if c == in {
			out.connections = append(out.connections[:i], out.connections[i+1:]...)
			break
		}
	}
	out.mu.Unlock()
	return nil
}

func requireStopped(method string, owners ...socketOwner) error {
	for _, owner := range owners {
		if owner == nil {
			continue
		}
		if st := owner.State(); st != StateStopped {
			return errors.WrapConnection(
				fmt.Errorf("operation %s is %s: %w", owner.Name(), st, errors.ErrNotStopped),
				owner.Name(), method, "endpoint state check")
		}
	}
	return nil
}

func socketComponent(owner socketOwner, socket string) string {
	if owner == nil {
		return socket
	}
	return owner.Name() + "." + socket
}
