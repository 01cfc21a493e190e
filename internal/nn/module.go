// Package nn implements the neural network building blocks used by the
// depth conversion pipeline: a Module interface, parameters, and the
// layers the backbone, decoder and regression heads are assembled from.
//
// Design follows the usual Forward/Parameters module pattern adapted
// for Go generics.
package nn

import (
	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Module is the base interface for all network components.
//
// Modules compose to build larger blocks:
//
//	head := nn.NewSequential(
//	    nn.NewConv2D(256, 128, 3, 3, 2, 1, rng, backend),
//	    nn.NewReLU[tensor.Backend](),
//	)
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module for a single input
	// tensor. Shape requirements are module-specific.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all parameters of this module, including
	// nested ones. Modules without state return an empty slice.
	Parameters() []*Parameter[B]
}

// StateDict flattens a module's parameters into a name -> raw tensor
// map, prefixing each name. Used when assembling the weight section of
// a deployment package.
func StateDict[B tensor.Backend](prefix string, m Module[B]) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for _, p := range m.Parameters() {
		name := p.Name()
		if prefix != "" {
			name = prefix + "." + name
		}
		out[name] = p.Tensor().Raw()
	}
	return out
}
