package export

import (
	"fmt"
	"time"

	"github.com/harism/ml-depth-pro/internal/tensor"
	"github.com/harism/ml-depth-pro/internal/trace"
)

// Format constants for the .dppkg container.
const (
	MagicBytes      = "DPKG"
	FormatVersion   = 1
	HeaderAlignment = 64 // weight section alignment
)

// TensorSpec declares one input or output of a packaged module.
type TensorSpec struct {
	Name  string `json:"name"`
	Shape []int  `json:"shape"`
	DType string `json:"dtype"`
}

// WeightMeta describes one weight tensor in the package's weight
// section.
type WeightMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from start of the weight section
	Size   int64  `json:"size"`
}

// Manifest is the JSON header of a deployment package.
type Manifest struct {
	FormatVersion int          `json:"format_version"`
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	CreatedAt     time.Time    `json:"created_at"`
	Target        Target       `json:"target"`
	Units         ComputeUnits `json:"compute_units"`
	Precision     Precision    `json:"precision"`
	Inputs        []TensorSpec `json:"inputs"`
	Outputs       []TensorSpec `json:"outputs"`
	Program       *trace.Program `json:"program"`
	Weights       []WeightMeta `json:"weights"`
	Checksum      string       `json:"checksum"` // SHA-256 of the weight section, hex
}

// DeploymentPackage is the immutable artifact the exporter produces:
// a traced graph, declared input/output shapes, platform constraints
// and the precision-reduced weights. Written once, never mutated.
type DeploymentPackage struct {
	Manifest Manifest

	weights []byte
}

// ValidateInputs accepts exactly the shapes the package was exported
// with, in order. Any other shape set is rejected, never reshaped.
func (p *DeploymentPackage) ValidateInputs(shapes []tensor.Shape) error {
	if len(shapes) != len(p.Manifest.Inputs) {
		return fmt.Errorf("package %q declares %d inputs, got %d: %w",
			p.Manifest.Name, len(p.Manifest.Inputs), len(shapes), ErrShapeRejected)
	}
	for i, spec := range p.Manifest.Inputs {
		if !shapes[i].Equal(tensor.Shape(spec.Shape)) {
			return fmt.Errorf("package %q input %d declares shape %v, got %v: %w",
				p.Manifest.Name, i, spec.Shape, shapes[i], ErrShapeRejected)
		}
	}
	return nil
}

// WeightData returns the raw bytes of one weight tensor.
func (p *DeploymentPackage) WeightData(name string) ([]byte, error) {
	for _, w := range p.Manifest.Weights {
		if w.Name == name {
			return p.weights[w.Offset : w.Offset+w.Size], nil
		}
	}
	return nil, fmt.Errorf("package %q has no weight %q", p.Manifest.Name, name)
}

// WeightSection returns the package's full weight blob.
func (p *DeploymentPackage) WeightSection() []byte {
	return p.weights
}
