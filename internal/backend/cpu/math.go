package cpu

import (
	"fmt"
	"math"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// MulScalar multiplies every element by a scalar.
func (cpu *Backend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	s := float32(scalar)
	return cpu.unaryOp("mulscalar", x, func(v float32) float32 { return v * s })
}

// AddScalar adds a scalar to every element.
func (cpu *Backend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	s := float32(scalar)
	return cpu.unaryOp("addscalar", x, func(v float32) float32 { return v + s })
}

// Tan applies the tangent element-wise.
func (cpu *Backend) Tan(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("tan", x, func(v float32) float32 { return float32(math.Tan(float64(v))) })
}

// Reciprocal computes 1/x element-wise.
func (cpu *Backend) Reciprocal(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("reciprocal", x, func(v float32) float32 { return 1.0 / v })
}

// Clamp limits every element to the [lo, hi] range.
func (cpu *Backend) Clamp(x *tensor.RawTensor, lo, hi float64) *tensor.RawTensor {
	if lo > hi {
		panic(fmt.Sprintf("clamp: lo %v > hi %v", lo, hi))
	}
	l, h := float32(lo), float32(hi)
	return cpu.unaryOp("clamp", x, func(v float32) float32 {
		if v < l {
			return l
		}
		if v > h {
			return h
		}
		return v
	})
}

// Relu applies max(0, x) element-wise.
func (cpu *Backend) Relu(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("relu", x, func(v float32) float32 {
		if v < 0 {
			return 0
		}
		return v
	})
}

func (cpu *Backend) unaryOp(name string, x *tensor.RawTensor, op func(float32) float32) *tensor.RawTensor {
	requireFloat32(name, x)
	out := mustNewRaw(x.Shape().Clone(), tensor.Float32, cpu.device)
	inData, outData := x.AsFloat32(), out.AsFloat32()
	for i := range inData {
		outData[i] = op(inData[i])
	}
	return out
}

// Softmax normalizes along the given dimension. Negative dim counts
// from the end.
func (cpu *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	requireFloat32("softmax", x)

	shape := x.Shape()
	dim = normalizeDim("softmax", dim, len(shape))

	out := mustNewRaw(shape.Clone(), tensor.Float32, cpu.device)
	inData, outData := x.AsFloat32(), out.AsFloat32()

	outer, size, inner := splitDims(shape, dim)
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*size*inner + in

			// Numerically stable softmax: shift by the row maximum.
			maxVal := inData[base]
			for i := 1; i < size; i++ {
				if v := inData[base+i*inner]; v > maxVal {
					maxVal = v
				}
			}
			var sum float32
			for i := 0; i < size; i++ {
				e := float32(math.Exp(float64(inData[base+i*inner] - maxVal)))
				outData[base+i*inner] = e
				sum += e
			}
			for i := 0; i < size; i++ {
				outData[base+i*inner] /= sum
			}
		}
	}
	return out
}

// MeanDim averages along a dimension.
func (cpu *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	requireFloat32("meandim", x)

	shape := x.Shape()
	dim = normalizeDim("meandim", dim, len(shape))

	outShape := make(tensor.Shape, 0, len(shape))
	for d, s := range shape {
		if d == dim {
			if keepDim {
				outShape = append(outShape, 1)
			}
			continue
		}
		outShape = append(outShape, s)
	}

	out := mustNewRaw(outShape, tensor.Float32, cpu.device)
	inData, outData := x.AsFloat32(), out.AsFloat32()

	outer, size, inner := splitDims(shape, dim)
	inv := 1.0 / float32(size)
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*size*inner + in
			var sum float32
			for i := 0; i < size; i++ {
				sum += inData[base+i*inner]
			}
			outData[o*inner+in] = sum * inv
		}
	}
	return out
}

// Cast converts elements to a different data type.
func (cpu *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}
	out := mustNewRaw(x.Shape().Clone(), dtype, cpu.device)

	read := func(i int) float64 {
		switch x.DType() {
		case tensor.Float32:
			return float64(x.AsFloat32()[i])
		case tensor.Float64:
			return x.AsFloat64()[i]
		case tensor.Uint8:
			return float64(x.AsUint8()[i])
		default:
			panic(fmt.Sprintf("cast: unsupported source dtype %s", x.DType()))
		}
	}

	n := x.NumElements()
	switch dtype {
	case tensor.Float32:
		data := out.AsFloat32()
		for i := 0; i < n; i++ {
			data[i] = float32(read(i))
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i := 0; i < n; i++ {
			data[i] = read(i)
		}
	case tensor.Uint8:
		data := out.AsUint8()
		for i := 0; i < n; i++ {
			v := read(i)
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			data[i] = uint8(v)
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s", dtype))
	}
	return out
}

// splitDims factors a shape into (outer, size, inner) around dim.
func splitDims(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, size, inner = 1, shape[dim], 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	return outer, size, inner
}

func normalizeDim(op string, dim, rank int) int {
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		panic(fmt.Sprintf("%s: dimension %d out of range for rank %d", op, dim, rank))
	}
	return dim
}
