package depth

import (
	"github.com/harism/ml-depth-pro/internal/nn"
	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Tensor is the pipeline's working tensor type.
type Tensor = tensor.F32

// Transform normalizes a raw image tensor and resizes it to the
// model's square working side. Pure and stateless given its
// configuration.
type Transform struct {
	norm *nn.Normalize[tensor.Backend]
	pre  *nn.Sequential[tensor.Backend]
	size int
}

// NewTransform creates the input transform: per-channel
// re-centering/re-scaling followed by a bilinear resize to side,
// chained as a sequential stage.
func NewTransform(mean, std []float32, size int, backend tensor.Backend) *Transform {
	norm := nn.NewNormalize(mean, std, backend)
	return &Transform{
		norm: norm,
		pre:  nn.NewSequential[tensor.Backend](norm, nn.NewInterpolate[tensor.Backend](size, size)),
		size: size,
	}
}

// Forward validates the input is (N,3,H,W), normalizes per channel and
// resizes to the working side.
func (t *Transform) Forward(x *Tensor) (*Tensor, error) {
	shape := x.Shape()
	if len(shape) != 4 || shape[1] != 3 {
		return nil, shapeError("transform", "(N,3,H,W)", shape)
	}
	return t.pre.Forward(x), nil
}

// Size returns the square working side.
func (t *Transform) Size() int {
	return t.size
}

// SetSize retargets the resize stage. Called when the model is adapted
// to a new working resolution.
func (t *Transform) SetSize(size int) {
	t.size = size
	t.pre = nn.NewSequential[tensor.Backend](t.norm, nn.NewInterpolate[tensor.Backend](size, size))
}

// Name identifies the transform in deployment packages.
func (t *Transform) Name() string {
	return "transform"
}

// Apply runs the transform over a single example input. Implements the
// exportable module contract.
func (t *Transform) Apply(inputs []*Tensor) ([]*Tensor, error) {
	if len(inputs) != 1 {
		return nil, shapeError("transform", "1 input", tensor.Shape{len(inputs)})
	}
	out, err := t.Forward(inputs[0])
	if err != nil {
		return nil, err
	}
	return []*Tensor{out}, nil
}

// StateDict returns the transform's weights. The transform is
// stateless, so the map is empty.
func (t *Transform) StateDict() map[string]*tensor.RawTensor {
	return nn.StateDict("", t.pre)
}
