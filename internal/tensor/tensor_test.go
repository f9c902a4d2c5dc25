package tensor

import (
	"math"
	"testing"
)

func TestNewRejectsMismatchedLength(t *testing.T) {
	if _, err := New([]float32{1, 2, 3}, []int64{2, 2}); err == nil {
		t.Fatal("expected error for 3 values in a [2 2] shape")
	}
}

func TestNewRejectsNegativeDim(t *testing.T) {
	if _, err := New(nil, []int64{-1}); err == nil {
		t.Fatal("expected error for negative dimension")
	}
}

func TestNewCopiesInput(t *testing.T) {
	data := []float32{1, 2}
	x, err := New(data, []int64{2})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	data[0] = 99
	if x.RawData()[0] != 1 {
		t.Fatalf("tensor aliases caller data: %v", x.RawData())
	}
}

func TestFromSlice(t *testing.T) {
	x := FromSlice([]float32{0.5, -0.5, 0.25})
	if got := x.Shape(); !equalI64(got, []int64{3}) {
		t.Fatalf("shape = %v, want [3]", got)
	}
	if x.ElemCount() != 3 {
		t.Fatalf("elems = %d, want 3", x.ElemCount())
	}
}

func TestNilTensorAccessors(t *testing.T) {
	var x *Tensor
	if x.Shape() != nil || x.RawData() != nil {
		t.Fatal("nil tensor accessors should return nil")
	}
	if x.ElemCount() != 0 {
		t.Fatal("nil tensor elems should be 0")
	}
	if _, err := x.Leading(1); err == nil {
		t.Fatal("expected error from Leading on nil tensor")
	}
}

func TestLeading(t *testing.T) {
	x, _ := New([]float32{1, 2, 3, 4, 5, 6, 7, 8}, []int64{2, 1, 4})

	wave, err := x.Leading(1)
	if err != nil {
		t.Fatalf("leading: %v", err)
	}
	if got := wave.Shape(); !equalI64(got, []int64{4}) {
		t.Fatalf("shape = %v, want [4]", got)
	}
	if got := wave.RawData(); !equalF32(got, []float32{1, 2, 3, 4}, 0) {
		t.Fatalf("data = %v", got)
	}

	mat, err := x.Leading(2)
	if err != nil {
		t.Fatalf("leading: %v", err)
	}
	if got := mat.Shape(); !equalI64(got, []int64{1, 4}) {
		t.Fatalf("shape = %v, want [1 4]", got)
	}

	if got := mat.RawData(); !equalF32(got, []float32{1, 2, 3, 4}, 0) {
		t.Fatalf("data = %v", got)
	}

	if _, err := x.Leading(4); err == nil {
		t.Fatal("expected error asking for rank above tensor rank")
	}
	if _, err := x.Leading(0); err == nil {
		t.Fatal("expected error asking for rank 0")
	}
}

func TestLeadingRejectsEmptyBatch(t *testing.T) {
	x, err := New(nil, []int64{0, 4})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := x.Leading(1); err == nil {
		t.Fatal("expected error taking the first item of an empty batch")
	}
}

func TestLeadingDoesNotAliasSource(t *testing.T) {
	x, _ := New([]float32{1, 2, 3, 4}, []int64{2, 2})
	row, err := x.Leading(1)
	if err != nil {
		t.Fatalf("leading: %v", err)
	}
	row.RawData()[0] = 42
	if x.RawData()[0] != 1 {
		t.Fatal("Leading must not alias the source")
	}
}

func TestLeadingSameRankCopies(t *testing.T) {
	x := FromSlice([]float32{1, 2})
	y, err := x.Leading(1)
	if err != nil {
		t.Fatalf("leading: %v", err)
	}
	y.RawData()[0] = float32(math.Pi)
	if x.RawData()[0] != 1 {
		t.Fatal("Leading at same rank must not alias the source")
	}
}
