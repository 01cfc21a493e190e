// Package cpu implements the pure Go compute backend used by the
// conversion pipeline. Kernels operate on float32 tensors; shape or
// dtype misuse is a programmer error and panics.
package cpu

import (
	"fmt"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Backend implements tensor operations on the CPU.
type Backend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *Backend {
	return &Backend{device: tensor.CPU}
}

// Name returns the backend name.
func (cpu *Backend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *Backend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with broadcasting.
func (cpu *Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *Backend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b, func(x, y float32) float32 { return x / y })
}

// binaryOp applies op element-wise with NumPy-style broadcasting.
func (cpu *Backend) binaryOp(name string, a, b *tensor.RawTensor, op func(x, y float32) float32) *tensor.RawTensor {
	requireFloat32(name, a)
	requireFloat32(name, b)

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	out := mustNewRaw(outShape, tensor.Float32, cpu.device)
	aData, bData, outData := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()

	if !needsBroadcast {
		for i := range outData {
			outData[i] = op(aData[i], bData[i])
		}
		return out
	}

	// Broadcast path: walk output coordinates and map each back to the
	// source offsets with stride arithmetic.
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	idx := make([]int, len(outShape))
	for i := range outData {
		var aOff, bOff int
		for d := range idx {
			aOff += idx[d] * aStrides[d]
			bOff += idx[d] * bStrides[d]
		}
		outData[i] = op(aData[aOff], bData[bOff])
		advance(idx, outShape)
	}
	return out
}

// broadcastStrides computes per-output-dimension strides into a source
// tensor, with 0 strides on broadcast dimensions.
func broadcastStrides(src, out tensor.Shape) []int {
	srcStrides := src.ComputeStrides()
	strides := make([]int, len(out))
	offset := len(out) - len(src)
	for d := range out {
		if d < offset {
			continue // missing leading dim, stride 0
		}
		if src[d-offset] == 1 && out[d] != 1 {
			continue // broadcast dim, stride 0
		}
		strides[d] = srcStrides[d-offset]
	}
	return strides
}

// advance increments a multi-dimensional index in row-major order.
func advance(idx []int, shape tensor.Shape) {
	for d := len(idx) - 1; d >= 0; d-- {
		idx[d]++
		if idx[d] < shape[d] {
			return
		}
		idx[d] = 0
	}
}

func requireFloat32(op string, t *tensor.RawTensor) {
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: expected float32 tensor, got %s", op, t.DType()))
	}
}

func mustNewRaw(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("failed to create tensor: %v", err))
	}
	return out
}
