package nn

import (
	"fmt"
	"math/rand"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Linear implements a fully connected layer: y = x @ W.T + b.
//
// Weight shape is [out_features, in_features], bias [out_features].
// Input may be [batch, in_features] or [batch, tokens, in_features];
// token inputs are flattened for the matmul and restored afterwards.
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B]
	bias        *Parameter[B]
	backend     B
}

// NewLinear creates a new Linear layer with Xavier-initialized weights
// and zero bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	weight := NewParameter("weight",
		Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, rng, backend))
	bias := NewParameter("bias",
		tensor.Zeros[float32](tensor.Shape{outFeatures}, backend))

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward computes the output of the linear layer.
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 && len(shape) != 3 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D or 3D input, got shape %v", shape))
	}
	if shape[len(shape)-1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, shape[len(shape)-1]))
	}

	x := input
	if len(shape) == 3 {
		x = x.Reshape(shape[0]*shape[1], shape[2])
	}

	wT := l.weight.Tensor().Transpose() // [in_features, out_features]
	output := x.MatMul(wT)
	output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))

	if len(shape) == 3 {
		output = output.Reshape(shape[0], shape[1], l.outFeatures)
	}
	return output
}

// Parameters returns the weight and bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}
