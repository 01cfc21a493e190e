// Package trace captures a module's computation as a fixed execution
// graph using the decorator pattern.
//
// Backend wraps any tensor.Backend implementation and records every
// invocation into a Tape while delegating the actual computation to
// the inner backend. Running a module once over example inputs with
// recording enabled yields a Program: a non-branching graph whose
// structure the exporter compares across runs to detect data-dependent
// control flow.
//
// Usage:
//
//	tracer := trace.New(cpu.New())
//	tracer.Tape().StartRecording()
//	// ... run the module over example inputs ...
//	program := tracer.Tape().Program()
package trace

import (
	"strconv"
	"strings"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Backend wraps a tensor.Backend and records operations in a Tape.
type Backend struct {
	inner tensor.Backend
	tape  *Tape
}

// New creates a tracing backend wrapping the given backend.
func New(inner tensor.Backend) *Backend {
	return &Backend{
		inner: inner,
		tape:  NewTape(),
	}
}

// Tape returns the tape for recording control and program snapshots.
func (b *Backend) Tape() *Tape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *Backend) Inner() tensor.Backend {
	return b.inner
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "Trace(" + b.inner.Name() + ")"
}

// Device returns the compute device of the wrapped backend.
func (b *Backend) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *Backend) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(a, c)
	b.tape.Record("add", nil, []*tensor.RawTensor{a, c}, result)
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *Backend) Sub(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sub(a, c)
	b.tape.Record("sub", nil, []*tensor.RawTensor{a, c}, result)
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *Backend) Mul(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mul(a, c)
	b.tape.Record("mul", nil, []*tensor.RawTensor{a, c}, result)
	return result
}

// Div performs element-wise division and records the operation.
func (b *Backend) Div(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Div(a, c)
	b.tape.Record("div", nil, []*tensor.RawTensor{a, c}, result)
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *Backend) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(a, c)
	b.tape.Record("matmul", nil, []*tensor.RawTensor{a, c}, result)
	return result
}

// BatchMatMul performs batched matrix multiplication and records the
// operation.
func (b *Backend) BatchMatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.BatchMatMul(a, c)
	b.tape.Record("batch_matmul", nil, []*tensor.RawTensor{a, c}, result)
	return result
}

// Conv2D performs 2D convolution and records the operation.
func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	result := b.inner.Conv2D(input, kernel, stride, padding)
	b.tape.Record("conv2d", map[string]string{
		"stride":  strconv.Itoa(stride),
		"padding": strconv.Itoa(padding),
	}, []*tensor.RawTensor{input, kernel}, result)
	return result
}

// Interpolate2D performs bilinear resizing and records the operation.
func (b *Backend) Interpolate2D(x *tensor.RawTensor, outH, outW int) *tensor.RawTensor {
	result := b.inner.Interpolate2D(x, outH, outW)
	b.tape.Record("interpolate2d", map[string]string{
		"out_h": strconv.Itoa(outH),
		"out_w": strconv.Itoa(outW),
	}, []*tensor.RawTensor{x}, result)
	return result
}

// MulScalar multiplies by a scalar and records the operation.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.MulScalar(x, scalar)
	b.tape.Record("mul_scalar", map[string]string{
		"value": formatFloat(scalar),
	}, []*tensor.RawTensor{x}, result)
	return result
}

// AddScalar adds a scalar and records the operation.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.AddScalar(x, scalar)
	b.tape.Record("add_scalar", map[string]string{
		"value": formatFloat(scalar),
	}, []*tensor.RawTensor{x}, result)
	return result
}

// Tan applies the tangent and records the operation.
func (b *Backend) Tan(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Tan(x)
	b.tape.Record("tan", nil, []*tensor.RawTensor{x}, result)
	return result
}

// Reciprocal computes 1/x and records the operation.
func (b *Backend) Reciprocal(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Reciprocal(x)
	b.tape.Record("reciprocal", nil, []*tensor.RawTensor{x}, result)
	return result
}

// Clamp limits to a range and records the operation.
func (b *Backend) Clamp(x *tensor.RawTensor, lo, hi float64) *tensor.RawTensor {
	result := b.inner.Clamp(x, lo, hi)
	b.tape.Record("clamp", map[string]string{
		"lo": formatFloat(lo),
		"hi": formatFloat(hi),
	}, []*tensor.RawTensor{x}, result)
	return result
}

// Relu applies max(0, x) and records the operation.
func (b *Backend) Relu(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Relu(x)
	b.tape.Record("relu", nil, []*tensor.RawTensor{x}, result)
	return result
}

// Softmax normalizes along a dimension and records the operation.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	result := b.inner.Softmax(x, dim)
	b.tape.Record("softmax", map[string]string{
		"dim": strconv.Itoa(dim),
	}, []*tensor.RawTensor{x}, result)
	return result
}

// MeanDim averages along a dimension and records the operation.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := b.inner.MeanDim(x, dim, keepDim)
	b.tape.Record("mean_dim", map[string]string{
		"dim":      strconv.Itoa(dim),
		"keep_dim": strconv.FormatBool(keepDim),
	}, []*tensor.RawTensor{x}, result)
	return result
}

// Reshape changes the shape and records the operation.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Reshape(t, newShape)
	b.tape.Record("reshape", map[string]string{
		"shape": formatInts([]int(newShape)),
	}, []*tensor.RawTensor{t}, result)
	return result
}

// Transpose permutes dimensions and records the operation.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	result := b.inner.Transpose(t, axes...)
	b.tape.Record("transpose", map[string]string{
		"axes": formatInts(axes),
	}, []*tensor.RawTensor{t}, result)
	return result
}

// Narrow selects a slice along a dimension and records the operation.
func (b *Backend) Narrow(t *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	result := b.inner.Narrow(t, dim, start, length)
	b.tape.Record("narrow", map[string]string{
		"dim":    strconv.Itoa(dim),
		"start":  strconv.Itoa(start),
		"length": strconv.Itoa(length),
	}, []*tensor.RawTensor{t}, result)
	return result
}

// Cat concatenates tensors and records the operation.
func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	result := b.inner.Cat(tensors, dim)
	b.tape.Record("cat", map[string]string{
		"dim": strconv.Itoa(dim),
	}, tensors, result)
	return result
}

// Unsqueeze inserts a size-1 dimension and records the operation.
func (b *Backend) Unsqueeze(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	result := b.inner.Unsqueeze(t, dim)
	b.tape.Record("unsqueeze", map[string]string{
		"dim": strconv.Itoa(dim),
	}, []*tensor.RawTensor{t}, result)
	return result
}

// Squeeze removes a size-1 dimension and records the operation.
func (b *Backend) Squeeze(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	result := b.inner.Squeeze(t, dim)
	b.tape.Record("squeeze", map[string]string{
		"dim": strconv.Itoa(dim),
	}, []*tensor.RawTensor{t}, result)
	return result
}

// Cast converts the element type and records the operation.
func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	result := b.inner.Cast(x, dtype)
	b.tape.Record("cast", map[string]string{
		"dtype": dtype.String(),
	}, []*tensor.RawTensor{x}, result)
	return result
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
