package cpu

import (
	"fmt"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Reshape returns a view of the same data under a new shape.
func (cpu *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	out, err := t.WithShape(newShape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return out
}

// Transpose permutes dimensions. With no axes, all dimensions are
// reversed.
func (cpu *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	rank := len(shape)

	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		panic(fmt.Sprintf("transpose: got %d axes for rank %d tensor", len(axes), rank))
	}
	seen := make([]bool, rank)
	for _, a := range axes {
		if a < 0 || a >= rank || seen[a] {
			panic(fmt.Sprintf("transpose: invalid axes %v for rank %d", axes, rank))
		}
		seen[a] = true
	}

	outShape := make(tensor.Shape, rank)
	for i, a := range axes {
		outShape[i] = shape[a]
	}

	out := mustNewRaw(outShape, t.DType(), cpu.device)
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("transpose: expected float32 tensor, got %s", t.DType()))
	}

	inData, outData := t.AsFloat32(), out.AsFloat32()
	inStrides := shape.ComputeStrides()
	idx := make([]int, rank)
	for i := range outData {
		var off int
		for d := range idx {
			off += idx[d] * inStrides[axes[d]]
		}
		outData[i] = inData[off]
		advance(idx, outShape)
	}
	return out
}

// Narrow selects [start, start+length) along the given dimension.
func (cpu *Backend) Narrow(t *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := t.Shape()
	dim = normalizeDim("narrow", dim, len(shape))
	if start < 0 || length <= 0 || start+length > shape[dim] {
		panic(fmt.Sprintf("narrow: range [%d,%d) out of bounds for dimension %d (size %d)",
			start, start+length, dim, shape[dim]))
	}
	requireFloat32("narrow", t)

	outShape := shape.Clone()
	outShape[dim] = length
	out := mustNewRaw(outShape, tensor.Float32, cpu.device)

	inData, outData := t.AsFloat32(), out.AsFloat32()
	outer, _, inner := splitDims(shape, dim)
	for o := 0; o < outer; o++ {
		src := (o*shape[dim] + start) * inner
		dst := o * length * inner
		copy(outData[dst:dst+length*inner], inData[src:src+length*inner])
	}
	return out
}

// Cat concatenates tensors along a dimension. All tensors must share
// dtype and every dimension except dim.
func (cpu *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors to concatenate")
	}
	first := tensors[0].Shape()
	dim = normalizeDim("cat", dim, len(first))

	total := 0
	for _, t := range tensors {
		requireFloat32("cat", t)
		s := t.Shape()
		if len(s) != len(first) {
			panic(fmt.Sprintf("cat: rank mismatch %v vs %v", first, s))
		}
		for d := range s {
			if d != dim && s[d] != first[d] {
				panic(fmt.Sprintf("cat: shapes %v and %v differ outside dimension %d", first, s, dim))
			}
		}
		total += s[dim]
	}

	outShape := first.Clone()
	outShape[dim] = total
	out := mustNewRaw(outShape, tensor.Float32, cpu.device)
	outData := out.AsFloat32()

	outer, _, inner := splitDims(outShape, dim)
	offset := 0
	for _, t := range tensors {
		size := t.Shape()[dim]
		inData := t.AsFloat32()
		for o := 0; o < outer; o++ {
			src := o * size * inner
			dst := (o*total + offset) * inner
			copy(outData[dst:dst+size*inner], inData[src:src+size*inner])
		}
		offset += size
	}
	return out
}

// Unsqueeze inserts a dimension of size 1 at the given position.
func (cpu *Backend) Unsqueeze(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	if dim < 0 {
		dim += len(shape) + 1
	}
	if dim < 0 || dim > len(shape) {
		panic(fmt.Sprintf("unsqueeze: dimension %d out of range for rank %d", dim, len(shape)))
	}
	outShape := make(tensor.Shape, 0, len(shape)+1)
	outShape = append(outShape, shape[:dim]...)
	outShape = append(outShape, 1)
	outShape = append(outShape, shape[dim:]...)
	return cpu.Reshape(t, outShape)
}

// Squeeze removes a dimension of size 1 at the given position.
func (cpu *Backend) Squeeze(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	dim = normalizeDim("squeeze", dim, len(shape))
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, expected 1", dim, shape[dim]))
	}
	outShape := make(tensor.Shape, 0, len(shape)-1)
	outShape = append(outShape, shape[:dim]...)
	outShape = append(outShape, shape[dim+1:]...)
	return cpu.Reshape(t, outShape)
}
