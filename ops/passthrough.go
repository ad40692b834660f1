package ops

import (
	"github.com/hesitationer/into/operation"
)

// Passthrough forwards objects unchanged. Useful as a structural
// placeholder in a graph and as a replacement target when rewiring.
type Passthrough struct {
	op  *operation.DefaultOperation
	in  *operation.InputSocket
	out *operation.OutputSocket
}

// NewPassthrough creates a synchronous identity operation with sockets
// "input" and "output".
func NewPassthrough(name string) *Passthrough {
	p := &Passthrough{}
	p.in = operation.NewInput("input")
	p.out = operation.NewOutput("output")
	p.op = operation.NewDefault(name, operation.Synchronous, p,
		[]*operation.InputSocket{p.in},
		[]*operation.OutputSocket{p.out})
	return p
}

// Op returns the underlying operation.
func (p *Passthrough) Op() *operation.DefaultOperation { return p.op }

// Check validates configuration.
func (p *Passthrough) Check(reset bool) error { return nil }

// Process forwards one object.
func (p *Passthrough) Process(step *operation.Step) error {
	return p.out.Emit(step.Object(p.in.Name()))
}
