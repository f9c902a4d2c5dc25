package tensor

import (
	"errors"
	"fmt"
	"math"
)

// Tensor is a dense, row-major float32 tensor resident in host memory. It is
// the hand-off type between a training loop and the experiment logger.
type Tensor struct {
	shape []int64
	data  []float32
}

// New creates a tensor from data and shape. Both slices are copied.
func New(data []float32, shape []int64) (*Tensor, error) {
	total, err := elemCount(shape)
	if err != nil {
		return nil, err
	}

	if len(data) != total {
		return nil, fmt.Errorf("tensor: data length %d does not match shape %v (%d elements)", len(data), shape, total)
	}

	s := append([]int64(nil), shape...)
	d := append([]float32(nil), data...)

	return &Tensor{shape: s, data: d}, nil
}

// FromSlice wraps a 1-D copy of samples.
func FromSlice(samples []float32) *Tensor {
	return &Tensor{
		shape: []int64{int64(len(samples))},
		data:  append([]float32(nil), samples...),
	}
}

func (t *Tensor) Shape() []int64 {
	if t == nil {
		return nil
	}

	return append([]int64(nil), t.shape...)
}

// RawData returns the underlying data slice.
// Callers must treat it as read-only.
func (t *Tensor) RawData() []float32 {
	if t == nil {
		return nil
	}

	return t.data
}

func (t *Tensor) ElemCount() int {
	if t == nil {
		return 0
	}

	return len(t.data)
}

// Leading reduces t to its trailing rank dimensions by taking the first item
// of every leading dimension. A [B, T] batch with rank 1 yields the first
// waveform [T]. The result never aliases t.
func (t *Tensor) Leading(rank int) (*Tensor, error) {
	if t == nil {
		return nil, errors.New("tensor: leading on nil tensor")
	}

	if rank < 1 || len(t.shape) < rank {
		return nil, fmt.Errorf("tensor: cannot reduce shape %v to rank %d", t.shape, rank)
	}

	for _, d := range t.shape[:len(t.shape)-rank] {
		if d == 0 {
			return nil, fmt.Errorf("tensor: cannot take the first item of empty shape %v", t.shape)
		}
	}

	// Row-major: index 0 on every leading axis is the contiguous prefix.
	trailing := t.shape[len(t.shape)-rank:]
	n, _ := elemCount(trailing)

	return New(t.data[:n], trailing)
}

func elemCount(shape []int64) (int, error) {
	total := int64(1)
	for i, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("tensor: shape %v has negative dimension at %d", shape, i)
		}
		if d > 0 && total > math.MaxInt/d {
			return 0, fmt.Errorf("tensor: shape %v too large", shape)
		}

		total *= d
	}

	return int(total), nil
}
