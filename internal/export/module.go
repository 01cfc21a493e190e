package export

import (
	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Module is anything the exporter can trace and package. Apply takes
// the module's inputs in declared order and returns its outputs in
// declared order; both sides may carry more than one tensor.
type Module interface {
	// Name is the logical component name; the package file is named
	// after it.
	Name() string

	// Apply executes the module once over example inputs.
	Apply(inputs []*tensor.F32) ([]*tensor.F32, error)

	// StateDict returns the module's weights for the package's weight
	// section.
	StateDict() map[string]*tensor.RawTensor
}
