package nn

import (
	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Parameter is a named weight tensor. Parameters are read-only during
// every operation the conversion pipeline performs; they change only
// when the resolution adapter resamples them offline.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a new named parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Replace swaps the parameter tensor. Used by the resolution adapter,
// which resamples existing weights instead of reinitializing them.
func (p *Parameter[B]) Replace(t *tensor.Tensor[float32, B]) {
	p.tensor = t
}
