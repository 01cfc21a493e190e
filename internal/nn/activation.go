package nn

import (
	"github.com/harism/ml-depth-pro/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies the activation.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Relu()
}

// Parameters returns an empty slice; ReLU has no state.
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// GlobalAvgPool averages an (N,C,H,W) tensor over its spatial
// dimensions, producing (N,C).
type GlobalAvgPool[B tensor.Backend] struct{}

// NewGlobalAvgPool creates a new global average pooling module.
func NewGlobalAvgPool[B tensor.Backend]() *GlobalAvgPool[B] {
	return &GlobalAvgPool[B]{}
}

// Forward averages over height then width.
func (g *GlobalAvgPool[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.MeanDim(3, false).MeanDim(2, false)
}

// Parameters returns an empty slice; pooling has no state.
func (g *GlobalAvgPool[B]) Parameters() []*Parameter[B] {
	return nil
}
