package ops

import (
	"fmt"

	"github.com/hesitationer/into/errors"
	"github.com/hesitationer/into/operation"
)

// Failer is a passthrough that fails deliberately on the Nth data object.
// It exists to exercise the failure cascade: the processing error turns
// into an interrupted operation and stop tags for everything downstream.
type Failer struct {
	op  *operation.DefaultOperation
	in  *operation.InputSocket
	out *operation.OutputSocket

	failAt int64
	seen   int64
}

// NewFailer creates a synchronous failing passthrough with sockets
// "input" and "output". With fail_at at its zero default it never fails.
func NewFailer(name string) *Failer {
	f := &Failer{}
	f.in = operation.NewInput("input")
	f.out = operation.NewOutput("output")
	f.op = operation.NewDefault(name, operation.Synchronous, f,
		[]*operation.InputSocket{f.in},
		[]*operation.OutputSocket{f.out})
	return f
}

// Op returns the underlying operation.
func (f *Failer) Op() *operation.DefaultOperation { return f.op }

// Properties returns the property table.
func (f *Failer) Properties() operation.PropertyMap {
	return operation.PropertyMap{
		"fail_at": operation.IntProperty("fail_at",
			"1-based index of the object to fail on, 0 disables", &f.failAt),
	}
}

// Check resets the object counter.
func (f *Failer) Check(reset bool) error {
	if reset {
		f.seen = 0
	}
	return nil
}

// Process forwards one object, or fails when the configured index is hit.
func (f *Failer) Process(step *operation.Step) error {
	f.seen++
	if f.failAt > 0 && f.seen == f.failAt {
		return errors.WrapRuntime(
			fmt.Errorf("configured failure on object %d", f.seen),
			f.op.Name(), "Process", "injected fault")
	}
	return f.out.Emit(step.Object(f.in.Name()))
}
