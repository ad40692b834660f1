package variant

import (
	"fmt"
	"strings"
)

// Element constrains the element types carried by matrix variants.
type Element interface {
	int64 | float64 | complex128
}

// Matrix is a dense row-major matrix of numeric or complex elements.
type Matrix[T Element] struct {
	rows, cols int
	data       []T
}

// NewMatrix creates a zero-initialized rows x cols matrix.
func NewMatrix[T Element](rows, cols int) *Matrix[T] {
	if rows < 0 || cols < 0 {
		rows, cols = 0, 0
	}
	return &Matrix[T]{rows: rows, cols: cols, data: make([]T, rows*cols)}
}

// MatrixFrom wraps existing row-major data. The slice is not copied;
// len(data) must equal rows*cols.
func MatrixFrom[T Element](rows, cols int, data []T) (*Matrix[T], error) {
	if len(data) != rows*cols {
		return nil, fmt.Errorf("matrix data length %d does not match %dx%d", len(data), rows, cols)
	}
	return &Matrix[T]{rows: rows, cols: cols, data: data}, nil
}

// Rows returns the row count.
func (m *Matrix[T]) Rows() int { return m.rows }

// Cols returns the column count.
func (m *Matrix[T]) Cols() int { return m.cols }

// At returns the element at (r, c).
func (m *Matrix[T]) At(r, c int) T { return m.data[r*m.cols+c] }

// Set assigns the element at (r, c).
func (m *Matrix[T]) Set(r, c int, v T) { m.data[r*m.cols+c] = v }

// Data returns the backing row-major slice.
func (m *Matrix[T]) Data() []T { return m.data }

// Clone returns a deep copy.
func (m *Matrix[T]) Clone() *Matrix[T] {
	out := NewMatrix[T](m.rows, m.cols)
	copy(out.data, m.data)
	return out
}

func (m *Matrix[T]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dx%d[", m.rows, m.cols)
	for i, v := range m.data {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%v", v)
		if i == 7 && len(m.data) > 8 {
			b.WriteString(" ...")
			break
		}
	}
	b.WriteString("]")
	return b.String()
}
