package ops

import (
	"sync"

	"github.com/hesitationer/into/operation"
	"github.com/hesitationer/into/variant"
)

// Collector is a sink gathering every received object into memory.
// Intended for tests and for capping off otherwise dangling outputs.
type Collector struct {
	op *operation.DefaultOperation
	in *operation.InputSocket

	mu     sync.Mutex
	values []variant.Variant
}

// NewCollector creates a synchronous sink with one input socket "input".
func NewCollector(name string) *Collector {
	return newCollector(name, operation.Synchronous)
}

// NewThreadedCollector creates a collector with its own goroutine, for
// decoupling a fast producer from the collection.
func NewThreadedCollector(name string) *Collector {
	return newCollector(name, operation.Threaded)
}

func newCollector(name string, kind operation.ProcessorKind) *Collector {
	c := &Collector{}
	c.in = operation.NewInput("input")
	c.op = operation.NewDefault(name, kind, c,
		[]*operation.InputSocket{c.in}, nil)
	return c
}

// Op returns the underlying operation.
func (c *Collector) Op() *operation.DefaultOperation { return c.op }

// Input returns the input socket, for queue configuration in tests.
func (c *Collector) Input() *operation.InputSocket { return c.in }

// Check validates configuration.
func (c *Collector) Check(reset bool) error {
	if reset {
		c.mu.Lock()
		c.values = nil
		c.mu.Unlock()
	}
	return nil
}

// Process stores one object.
func (c *Collector) Process(step *operation.Step) error {
	c.mu.Lock()
	c.values = append(c.values, step.Object(c.in.Name()))
	c.mu.Unlock()
	return nil
}

// Values returns a snapshot of the collected objects.
func (c *Collector) Values() []variant.Variant {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]variant.Variant, len(c.values))
	copy(out, c.values)
	return out
}

// Ints returns the collected objects as integers, skipping anything that
// is not an integer variant.
func (c *Collector) Ints() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int64, 0, len(c.values))
	for _, v := range c.values {
		if n, err := v.AsInt(); err == nil {
			out = append(out, n)
		}
	}
	return out
}
