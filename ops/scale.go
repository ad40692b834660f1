package ops

import (
	"fmt"

	"github.com/hesitationer/into/errors"
	"github.com/hesitationer/into/operation"
	"github.com/hesitationer/into/variant"
)

// Scale multiplies numeric objects by a configurable factor. Integers
// stay integers, floats stay floats, float matrices are scaled element
// by element. Anything else is an unsupported-type failure.
type Scale struct {
	op     *operation.DefaultOperation
	in     *operation.InputSocket
	out    *operation.OutputSocket
	factor float64
}

// NewScale creates a synchronous scaling transform with sockets "input"
// and "output".
func NewScale(name string) *Scale {
	s := &Scale{factor: 1}
	s.in = operation.NewInput("input")
	s.out = operation.NewOutput("output")
	s.op = operation.NewDefault(name, operation.Synchronous, s,
		[]*operation.InputSocket{s.in},
		[]*operation.OutputSocket{s.out})
	return s
}

// Op returns the underlying operation.
func (s *Scale) Op() *operation.DefaultOperation { return s.op }

// Properties returns the property table.
func (s *Scale) Properties() operation.PropertyMap {
	return operation.PropertyMap{
		"factor": operation.FloatProperty("factor", "Multiplication factor", &s.factor),
	}
}

// Check validates configuration.
func (s *Scale) Check(reset bool) error { return nil }

// Process scales one object.
func (s *Scale) Process(step *operation.Step) error {
	obj := step.Object(s.in.Name())

	switch obj.Tag() {
	case variant.Int:
		v, _ := obj.AsInt()
		return s.out.Emit(variant.NewInt(int64(float64(v) * s.factor)))

	case variant.Float:
		v, _ := obj.AsFloat()
		return s.out.Emit(variant.NewFloat(v * s.factor))

	case variant.FloatMatrix:
		m, _ := obj.AsFloatMatrix()
		scaled := m.Clone()
		data := scaled.Data()
		for i := range data {
			data[i] *= s.factor
		}
		return s.out.Emit(variant.NewFloatMatrix(scaled))

	default:
		return errors.WrapType(
			fmt.Errorf("input %q carries %s: %w", s.in.Name(), obj.Tag(), errors.ErrUnknownType),
			s.op.Name(), "Process", "type dispatch")
	}
}
