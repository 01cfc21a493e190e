package nn

import (
	"fmt"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Sequential chains modules; each module's output becomes the next
// module's input.
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward applies all modules in sequence.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input
	for _, module := range s.modules {
		output = module.Forward(output)
	}
	return output
}

// Parameters returns the parameters of all modules, with names prefixed
// by the module index to avoid collisions.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for i, module := range s.modules {
		for _, p := range module.Parameters() {
			params = append(params, NewParameter(fmt.Sprintf("%d.%s", i, p.Name()), p.Tensor()))
		}
	}
	return params
}

// Len returns the number of modules in the sequence.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}
