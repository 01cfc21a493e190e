package cpu_test

import (
	"math"
	"testing"

	"github.com/harism/ml-depth-pro/internal/backend/cpu"
	"github.com/harism/ml-depth-pro/internal/tensor"
)

func fromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.Tensor[float32, *cpu.Backend] {
	t.Helper()
	out, err := tensor.FromSlice[float32](data, shape, cpu.New())
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	return out
}

func TestAddSameShape(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	got := a.Add(b).Data()
	want := []float32{11, 22, 33, 44}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Add = %v, want %v", got, want)
		}
	}
}

func TestAddBroadcast(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromSlice(t, []float32{10, 20, 30}, tensor.Shape{1, 3})

	out := a.Add(b)
	if !out.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("broadcast Add shape = %v, want (2,3)", out.Shape())
	}
	want := []float32{11, 22, 33, 14, 25, 36}
	got := out.Data()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("broadcast Add = %v, want %v", got, want)
		}
	}
}

func TestMulScalarBroadcastPerBatch(t *testing.T) {
	// Per-batch focal scaling pattern: (N,1,H,W) * (N,1,1,1).
	cid := fromSlice(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 1, 2, 2})
	f := fromSlice(t, []float32{2, 10}, tensor.Shape{2, 1, 1, 1})

	got := cid.Mul(f).Data()
	want := []float32{2, 4, 6, 8, 50, 60, 70, 80}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Mul = %v, want %v", got, want)
		}
	}
}

func TestMatMul(t *testing.T) {
	a := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})

	got := a.MatMul(b).Data()
	want := []float32{19, 22, 43, 50}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MatMul = %v, want %v", got, want)
		}
	}
}

func TestBatchMatMul(t *testing.T) {
	a := fromSlice(t, []float32{
		1, 0, 0, 1, // identity
		2, 0, 0, 2, // 2*identity
	}, tensor.Shape{2, 2, 2})
	b := fromSlice(t, []float32{
		1, 2, 3, 4,
		1, 2, 3, 4,
	}, tensor.Shape{2, 2, 2})

	got := a.BatchMatMul(b).Data()
	want := []float32{1, 2, 3, 4, 2, 4, 6, 8}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("BatchMatMul = %v, want %v", got, want)
		}
	}
}

func TestConv2DIdentityKernel(t *testing.T) {
	input := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	kernel := fromSlice(t, []float32{3}, tensor.Shape{1, 1, 1, 1})

	raw := cpu.New().Conv2D(input.Raw(), kernel.Raw(), 1, 0)
	if !raw.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Conv2D shape = %v, want (1,1,2,2)", raw.Shape())
	}
	got := raw.AsFloat32()
	want := []float32{3, 6, 9, 12}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Conv2D = %v, want %v", got, want)
		}
	}
}

func TestConv2DStridePadding(t *testing.T) {
	input := fromSlice(t, make([]float32, 16), tensor.Shape{1, 1, 4, 4})
	kernel := fromSlice(t, make([]float32, 9), tensor.Shape{1, 1, 3, 3})

	raw := cpu.New().Conv2D(input.Raw(), kernel.Raw(), 2, 1)
	if !raw.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Conv2D stride-2 pad-1 shape = %v, want (1,1,2,2)", raw.Shape())
	}
}

func TestInterpolateIdentity(t *testing.T) {
	in := fromSlice(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, tensor.Shape{1, 1, 3, 3})

	got := in.Interpolate(3, 3).Data()
	for i, v := range in.Data() {
		if got[i] != v {
			t.Fatalf("identity Interpolate changed values: %v", got)
		}
	}
}

func TestInterpolateUpsample(t *testing.T) {
	// Half-pixel-center sampling: output corners see only the nearest
	// input corner, interior positions blend 75/25.
	in := fromSlice(t, []float32{0, 4, 8, 12}, tensor.Shape{1, 1, 2, 2})

	out := in.Interpolate(4, 4)
	if !out.Shape().Equal(tensor.Shape{1, 1, 4, 4}) {
		t.Fatalf("Interpolate shape = %v, want (1,1,4,4)", out.Shape())
	}
	if got := out.At(0, 0, 0, 0); got != 0 {
		t.Errorf("corner (0,0) = %v, want 0", got)
	}
	if got := out.At(0, 0, 3, 3); got != 12 {
		t.Errorf("corner (3,3) = %v, want 12", got)
	}
	// Row 0, column 1: src x = 0.25 -> 0.75*0 + 0.25*4 = 1.
	if got := out.At(0, 0, 0, 1); math.Abs(float64(got-1)) > 1e-6 {
		t.Errorf("(0,1) = %v, want 1", got)
	}
}

func TestInterpolateDownsampleAverages(t *testing.T) {
	in := fromSlice(t, []float32{0, 4, 8, 12}, tensor.Shape{1, 1, 2, 2})

	got := in.Interpolate(1, 1).At(0, 0, 0, 0)
	if math.Abs(float64(got-6)) > 1e-6 {
		t.Errorf("2x2 -> 1x1 = %v, want mean 6", got)
	}
}

func TestSoftmax(t *testing.T) {
	in := fromSlice(t, []float32{1, 2, 3, 1, 1, 1}, tensor.Shape{2, 3})

	out := in.Softmax(-1)
	data := out.Data()
	for row := 0; row < 2; row++ {
		var sum float64
		for col := 0; col < 3; col++ {
			sum += float64(data[row*3+col])
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("softmax row %d sums to %v, want 1", row, sum)
		}
	}
	// Uniform logits give uniform probabilities.
	for col := 0; col < 3; col++ {
		if math.Abs(float64(data[3+col])-1.0/3.0) > 1e-5 {
			t.Errorf("uniform row: p[%d] = %v, want 1/3", col, data[3+col])
		}
	}
}

func TestMeanDim(t *testing.T) {
	in := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	out := in.MeanDim(1, false)
	if !out.Shape().Equal(tensor.Shape{2}) {
		t.Fatalf("MeanDim shape = %v, want (2)", out.Shape())
	}
	got := out.Data()
	if got[0] != 2 || got[1] != 5 {
		t.Errorf("MeanDim = %v, want [2 5]", got)
	}

	kept := in.MeanDim(1, true)
	if !kept.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("MeanDim keepDim shape = %v, want (2,1)", kept.Shape())
	}
}

func TestClampReciprocal(t *testing.T) {
	in := fromSlice(t, []float32{1e5, 1, 1e-6}, tensor.Shape{3})

	got := in.Clamp(1e-4, 1e4).Reciprocal().Data()
	want := []float32{1e-4, 1, 1e4}
	for i := range want {
		if math.Abs(float64(got[i]-want[i]))/float64(want[i]) > 1e-6 {
			t.Fatalf("Clamp+Reciprocal = %v, want %v", got, want)
		}
	}
}

func TestTan(t *testing.T) {
	in := fromSlice(t, []float32{0, float32(math.Pi / 4)}, tensor.Shape{2})

	got := in.Tan().Data()
	if math.Abs(float64(got[0])) > 1e-6 || math.Abs(float64(got[1])-1) > 1e-5 {
		t.Errorf("Tan = %v, want [0 1]", got)
	}
}

func TestTranspose(t *testing.T) {
	in := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{1, 2, 3})

	out := in.Transpose(0, 2, 1)
	if !out.Shape().Equal(tensor.Shape{1, 3, 2}) {
		t.Fatalf("Transpose shape = %v, want (1,3,2)", out.Shape())
	}
	if out.At(0, 0, 1) != 4 || out.At(0, 2, 0) != 3 {
		t.Errorf("Transpose values wrong: %v", out.Data())
	}
}

func TestNarrow(t *testing.T) {
	in := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{1, 3, 2})

	out := in.Narrow(1, 1, 2)
	if !out.Shape().Equal(tensor.Shape{1, 2, 2}) {
		t.Fatalf("Narrow shape = %v, want (1,2,2)", out.Shape())
	}
	want := []float32{3, 4, 5, 6}
	got := out.Data()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Narrow = %v, want %v", got, want)
		}
	}
}

func TestCat(t *testing.T) {
	a := fromSlice(t, []float32{1, 2}, tensor.Shape{1, 1, 2})
	b := fromSlice(t, []float32{3, 4, 5, 6}, tensor.Shape{1, 2, 2})

	out := tensor.Cat([]*tensor.Tensor[float32, *cpu.Backend]{a, b}, 1)
	if !out.Shape().Equal(tensor.Shape{1, 3, 2}) {
		t.Fatalf("Cat shape = %v, want (1,3,2)", out.Shape())
	}
	want := []float32{1, 2, 3, 4, 5, 6}
	got := out.Data()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Cat = %v, want %v", got, want)
		}
	}
}

func TestReshapeSqueezeUnsqueeze(t *testing.T) {
	in := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	r := in.Reshape(3, 2)
	if !r.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("Reshape shape = %v, want (3,2)", r.Shape())
	}

	u := in.Unsqueeze(0)
	if !u.Shape().Equal(tensor.Shape{1, 2, 3}) {
		t.Fatalf("Unsqueeze shape = %v, want (1,2,3)", u.Shape())
	}
	s := u.Squeeze(0)
	if !s.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("Squeeze shape = %v, want (2,3)", s.Shape())
	}
}

func TestRelu(t *testing.T) {
	in := fromSlice(t, []float32{-2, 0, 3}, tensor.Shape{3})

	got := in.Relu().Data()
	want := []float32{0, 0, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Relu = %v, want %v", got, want)
		}
	}
}

func TestCast(t *testing.T) {
	in := fromSlice(t, []float32{0.4, 1.6, 300}, tensor.Shape{3})

	u8 := tensor.CastTo[uint8](in, tensor.Uint8)
	got := u8.Data()
	if got[2] != 255 {
		t.Errorf("Cast to uint8 should clamp: got %v", got)
	}
}
