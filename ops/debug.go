package ops

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hesitationer/into/operation"
	"github.com/hesitationer/into/variant"
)

// Debug prints every object passing through it and forwards it
// unchanged. It is useful for debugging connections.
//
// The format may contain the variables $name (operation name), $count
// (objects received since reset), $type (type tag of the object), $value
// (a rendering of the payload) and $symbol (a one-character symbol: '.'
// for data, '<' sync start, '>' sync end, 'S' stop, 'P' pause,
// 'R' resume).
type Debug struct {
	op  *operation.DefaultOperation
	in  *operation.InputSocket
	out *operation.OutputSocket

	format      string
	showControl bool
	count       int64
	writer      io.Writer
}

// NewDebug creates a pass-through printer with sockets "input" and
// "output", writing to stdout.
func NewDebug(name string) *Debug {
	d := &Debug{
		format: "$name: $type received ($count since reset)\n",
		writer: os.Stdout,
	}
	d.in = operation.NewInput("input")
	d.out = operation.NewOutput("output")
	d.op = operation.NewDefault(name, operation.Synchronous, d,
		[]*operation.InputSocket{d.in},
		[]*operation.OutputSocket{d.out})
	return d
}

// Op returns the underlying operation.
func (d *Debug) Op() *operation.DefaultOperation { return d.op }

// SetWriter redirects the debug output. Only legal while stopped.
func (d *Debug) SetWriter(w io.Writer) {
	if w != nil {
		d.writer = w
	}
}

// Properties returns the property table.
func (d *Debug) Properties() operation.PropertyMap {
	return operation.PropertyMap{
		"format": operation.StringProperty("format",
			"Output format with $name, $count, $type, $value and $symbol variables", &d.format),
		"showControlObjects": operation.BoolProperty("showControlObjects",
			"Print control objects too", &d.showControl),
	}
}

// Check validates configuration.
func (d *Debug) Check(reset bool) error {
	if reset {
		d.count = 0
	}
	return nil
}

// Process prints one object and forwards it.
func (d *Debug) Process(step *operation.Step) error {
	obj := step.Object(d.in.Name())
	d.count++
	d.print(obj)
	return d.out.Emit(obj)
}

// ObserveControl prints flushed control tags when enabled. The tag is
// forwarded by the operation itself.
func (d *Debug) ObserveControl(tag variant.Tag) {
	if !d.showControl {
		return
	}
	d.print(variant.NewControl(tag))
}

func (d *Debug) print(obj variant.Variant) {
	line := d.format
	line = strings.ReplaceAll(line, "$name", d.op.Name())
	line = strings.ReplaceAll(line, "$count", fmt.Sprintf("%d", d.count))
	line = strings.ReplaceAll(line, "$type", obj.Tag().String())
	line = strings.ReplaceAll(line, "$value", obj.Format())
	line = strings.ReplaceAll(line, "$symbol", obj.Tag().Symbol())
	fmt.Fprint(d.writer, line)
}
