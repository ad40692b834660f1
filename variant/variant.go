// Package variant implements the tagged value container that carries all
// data flowing through sockets. A Variant holds exactly one item of a
// dynamically selected type; readers must dispatch on the type tag before
// interpreting the payload. Control tags occupy a tag range disjoint from
// data types and are never reinterpreted as data.
package variant

import (
	"fmt"

	"github.com/hesitationer/into/errors"
)

// Tag identifies the payload type of a Variant.
type Tag uint32

// Data type tags.
const (
	Invalid Tag = iota
	Int
	Float
	Bool
	String
	IntMatrix
	FloatMatrix
	ComplexMatrix
)

// controlBase starts the control tag range. Everything at or above it is a
// control tag, not data.
const controlBase Tag = 0x10000

// Control tags threaded inline with data on the same sockets.
const (
	// SyncStart marks the beginning of a run on a connection. Emitted on
	// every output before any data item.
	SyncStart Tag = controlBase + iota
	// SyncEnd marks the end of a synchronized unit.
	SyncEnd
	// Stop requests downstream operations to stop once the tag is reached.
	Stop
	// Pause requests downstream operations to pause once the tag is reached.
	Pause
	// Resume reverses a previous Pause.
	Resume
)

// String returns a human-readable name for the tag.
func (t Tag) String() string {
	switch t {
	case Invalid:
		return "invalid"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case IntMatrix:
		return "int-matrix"
	case FloatMatrix:
		return "float-matrix"
	case ComplexMatrix:
		return "complex-matrix"
	case SyncStart:
		return "sync-start"
	case SyncEnd:
		return "sync-end"
	case Stop:
		return "stop"
	case Pause:
		return "pause"
	case Resume:
		return "resume"
	default:
		return fmt.Sprintf("tag(%#x)", uint32(t))
	}
}

// IsControl reports whether the tag belongs to the control range.
func (t Tag) IsControl() bool {
	return t >= controlBase
}

// Symbol returns a one-character rendering used by the debug operation:
// '.' for data, '<' sync start, '>' sync end, 'S' stop, 'P' pause,
// 'R' resume.
func (t Tag) Symbol() string {
	switch t {
	case SyncStart:
		return "<"
	case SyncEnd:
		return ">"
	case Stop:
		return "S"
	case Pause:
		return "P"
	case Resume:
		return "R"
	default:
		return "."
	}
}

// Variant is a tagged container for one data item or one control tag.
// The zero Variant is invalid.
type Variant struct {
	tag     Tag
	payload any
}

// Tag returns the type tag.
func (v Variant) Tag() Tag {
	return v.tag
}

// IsValid reports whether the variant carries anything at all.
func (v Variant) IsValid() bool {
	return v.tag != Invalid
}

// IsControl reports whether the variant is a control tag.
func (v Variant) IsControl() bool {
	return v.tag.IsControl()
}

// NewControl creates a control variant. The tag must be in the control
// range; anything else yields an invalid variant.
func NewControl(tag Tag) Variant {
	if !tag.IsControl() {
		return Variant{}
	}
	return Variant{tag: tag}
}

// NewInt creates an integer variant.
func NewInt(v int64) Variant {
	return Variant{tag: Int, payload: v}
}

// NewFloat creates a floating-point variant.
func NewFloat(v float64) Variant {
	return Variant{tag: Float, payload: v}
}

// NewBool creates a boolean variant.
func NewBool(v bool) Variant {
	return Variant{tag: Bool, payload: v}
}

// NewString creates a string variant.
func NewString(v string) Variant {
	return Variant{tag: String, payload: v}
}

// NewIntMatrix creates an integer matrix variant.
func NewIntMatrix(m *Matrix[int64]) Variant {
	return Variant{tag: IntMatrix, payload: m}
}

// NewFloatMatrix creates a floating-point matrix variant.
func NewFloatMatrix(m *Matrix[float64]) Variant {
	return Variant{tag: FloatMatrix, payload: m}
}

// NewComplexMatrix creates a complex matrix variant.
func NewComplexMatrix(m *Matrix[complex128]) Variant {
	return Variant{tag: ComplexMatrix, payload: m}
}

// AsInt returns the integer payload, or an unsupported-type error if the
// tag does not match.
func (v Variant) AsInt() (int64, error) {
	if v.tag != Int {
		return 0, v.typeError(Int)
	}
	return v.payload.(int64), nil
}

// AsFloat returns the floating-point payload. An Int payload is widened.
func (v Variant) AsFloat() (float64, error) {
	switch v.tag {
	case Float:
		return v.payload.(float64), nil
	case Int:
		return float64(v.payload.(int64)), nil
	default:
		return 0, v.typeError(Float)
	}
}

// AsBool returns the boolean payload.
func (v Variant) AsBool() (bool, error) {
	if v.tag != Bool {
		return false, v.typeError(Bool)
	}
	return v.payload.(bool), nil
}

// AsString returns the string payload.
func (v Variant) AsString() (string, error) {
	if v.tag != String {
		return "", v.typeError(String)
	}
	return v.payload.(string), nil
}

// AsIntMatrix returns the integer matrix payload.
func (v Variant) AsIntMatrix() (*Matrix[int64], error) {
	if v.tag != IntMatrix {
		return nil, v.typeError(IntMatrix)
	}
	return v.payload.(*Matrix[int64]), nil
}

// AsFloatMatrix returns the floating-point matrix payload.
func (v Variant) AsFloatMatrix() (*Matrix[float64], error) {
	if v.tag != FloatMatrix {
		return nil, v.typeError(FloatMatrix)
	}
	return v.payload.(*Matrix[float64]), nil
}

// AsComplexMatrix returns the complex matrix payload.
func (v Variant) AsComplexMatrix() (*Matrix[complex128], error) {
	if v.tag != ComplexMatrix {
		return nil, v.typeError(ComplexMatrix)
	}
	return v.payload.(*Matrix[complex128]), nil
}

func (v Variant) typeError(want Tag) error {
	return errors.WrapType(
		fmt.Errorf("have %s, want %s: %w", v.tag, want, errors.ErrUnknownType),
		"Variant", "As"+want.String(), "payload dispatch")
}

// Format renders the payload for human consumption. Control variants render
// as their tag name.
func (v Variant) Format() string {
	switch v.tag {
	case Invalid:
		return "<invalid>"
	case Int:
		return fmt.Sprintf("%d", v.payload.(int64))
	case Float:
		return fmt.Sprintf("%g", v.payload.(float64))
	case Bool:
		return fmt.Sprintf("%t", v.payload.(bool))
	case String:
		return v.payload.(string)
	case IntMatrix:
		return v.payload.(*Matrix[int64]).String()
	case FloatMatrix:
		return v.payload.(*Matrix[float64]).String()
	case ComplexMatrix:
		return v.payload.(*Matrix[complex128]).String()
	default:
		return v.tag.String()
	}
}
