// Package graph implements a small computation graph over batched float64
// arrays: elementwise arithmetic and logic, conditional selection, sum
// reduction, horizon stacking, and stochastic sampling primitives. Booleans
// are encoded 0/1. A graph carries its own seed, so evaluating the same
// nodes twice yields identical results.
package graph

import "fmt"

// Shape is the dimension list of a tensor. The first dimension is the
// batch dimension by convention.
type Shape []int

// Size returns the total number of elements.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether two shapes are identical.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	return fmt.Sprintf("%v", []int(s))
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// Tensor is a dense row-major array of float64 values.
type Tensor struct {
	Shape Shape
	Data  []float64
}

// NewTensor creates a tensor from a shape and backing data.
func NewTensor(shape Shape, data []float64) (*Tensor, error) {
	if len(data) != shape.Size() {
		return nil, fmt.Errorf("tensor data length %d does not match shape %v (size %d)",
			len(data), shape, shape.Size())
	}
	return &Tensor{Shape: shape.Clone(), Data: data}, nil
}

// Fill creates a tensor of the given shape with every element set to v.
func Fill(shape Shape, v float64) *Tensor {
	data := make([]float64, shape.Size())
	for i := range data {
		data[i] = v
	}
	return &Tensor{Shape: shape.Clone(), Data: data}
}

// Scalar creates a [1] tensor holding a single value.
func Scalar(v float64) *Tensor {
	return &Tensor{Shape: Shape{1}, Data: []float64{v}}
}

// broadcastShapes computes the elementwise result shape of two operand
// shapes. Operands are compatible when they are identical, when one is a
// single element, or when they have equal rank and each dimension matches
// or is 1.
func broadcastShapes(a, b Shape) (Shape, error) {
	if a.Equal(b) {
		return a.Clone(), nil
	}
	if a.Size() == 1 {
		return b.Clone(), nil
	}
	if b.Size() == 1 {
		return a.Clone(), nil
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("incompatible shapes %v and %v", a, b)
	}
	out := make(Shape, len(a))
	for i := range a {
		switch {
		case a[i] == b[i]:
			out[i] = a[i]
		case a[i] == 1:
			out[i] = b[i]
		case b[i] == 1:
			out[i] = a[i]
		default:
			return nil, fmt.Errorf("incompatible shapes %v and %v", a, b)
		}
	}
	return out, nil
}

// broadcastIndex returns a map from flat output indices to flat input
// indices for an input shape broadcast to the output shape.
func broadcastIndex(out, in Shape) func(int) int {
	if in.Size() == 1 {
		return func(int) int { return 0 }
	}
	if in.Equal(out) {
		return func(i int) int { return i }
	}
	// Equal rank with some dimensions of size 1: stride arithmetic.
	inStrides := make([]int, len(in))
	stride := 1
	for d := len(in) - 1; d >= 0; d-- {
		inStrides[d] = stride
		stride *= in[d]
	}
	outStrides := make([]int, len(out))
	stride = 1
	for d := len(out) - 1; d >= 0; d-- {
		outStrides[d] = stride
		stride *= out[d]
	}
	return func(i int) int {
		idx := 0
		for d := 0; d < len(out); d++ {
			coord := (i / outStrides[d]) % out[d]
			if in[d] != 1 {
				idx += coord * inStrides[d]
			}
		}
		return idx
	}
}
