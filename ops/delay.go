package ops

import (
	"time"

	"github.com/hesitationer/into/operation"
)

// Delay forwards objects unchanged after a configurable per-object pause.
// It runs threaded, which makes it the canonical slow consumer: objects
// queue up on its input while it sleeps.
type Delay struct {
	op  *operation.DefaultOperation
	in  *operation.InputSocket
	out *operation.OutputSocket

	delay time.Duration
}

// NewDelay creates a threaded delay with sockets "input" and "output".
func NewDelay(name string) *Delay {
	d := &Delay{delay: time.Millisecond}
	d.in = operation.NewInput("input")
	d.out = operation.NewOutput("output")
	d.op = operation.NewDefault(name, operation.Threaded, d,
		[]*operation.InputSocket{d.in},
		[]*operation.OutputSocket{d.out})
	return d
}

// Op returns the underlying operation.
func (d *Delay) Op() *operation.DefaultOperation { return d.op }

// Input returns the input socket, for queue inspection in tests.
func (d *Delay) Input() *operation.InputSocket { return d.in }

// Properties returns the property table.
func (d *Delay) Properties() operation.PropertyMap {
	return operation.PropertyMap{
		"delay": operation.DurationProperty("delay", "Pause per object", &d.delay),
	}
}

// Check validates configuration.
func (d *Delay) Check(reset bool) error { return nil }

// Process sleeps, then forwards the object. The sleep is cut short when
// the run is interrupted.
func (d *Delay) Process(step *operation.Step) error {
	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		select {
		case <-timer.C:
		case <-d.op.RunContext().Done():
			timer.Stop()
			return nil
		}
	}
	return d.out.Emit(step.Object(d.in.Name()))
}
