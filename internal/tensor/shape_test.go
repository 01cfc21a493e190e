package tensor

import (
	"testing"
)

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{1, 3, 1024, 1024}, 3145728},
		{Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("NumElements(%v) = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShapeString(t *testing.T) {
	if got := (Shape{1, 3, 1024, 1024}).String(); got != "(1,3,1024,1024)" {
		t.Errorf("String() = %q, want (1,3,1024,1024)", got)
	}
}

func TestShapeComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Fatalf("ComputeStrides() = %v, want %v", strides, want)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{1, 3, 48, 48}).Validate(); err != nil {
		t.Errorf("unexpected error for valid shape: %v", err)
	}
	if err := (Shape{1, 0, 48}).Validate(); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b Shape
		want Shape
	}{
		{Shape{2, 3}, Shape{2, 3}, Shape{2, 3}},
		{Shape{4, 1, 3}, Shape{2, 3}, Shape{4, 2, 3}},
		{Shape{1, 256, 1, 1}, Shape{2, 256, 48, 48}, Shape{2, 256, 48, 48}},
		{Shape{3}, Shape{2, 1}, Shape{2, 3}},
	}
	for _, tt := range tests {
		got, _, err := BroadcastShapes(tt.a, tt.b)
		if err != nil {
			t.Errorf("BroadcastShapes(%v, %v) failed: %v", tt.a, tt.b, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("BroadcastShapes(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}

	if _, _, err := BroadcastShapes(Shape{2, 3}, Shape{4, 3}); err == nil {
		t.Error("expected error for incompatible shapes")
	}
}
