package depth

import (
	"math/rand"

	"github.com/harism/ml-depth-pro/internal/nn"
	"github.com/harism/ml-depth-pro/internal/tensor"
)

// canonicalSide is the fixed spatial side the coarse feature map is
// brought to before FOV estimation. Canonicalizing first insulates the
// FOV estimate from working-resolution changes.
const canonicalSide = 48

// Inverse-depth clamp bounds. The clamp runs before reciprocation, so
// metric depth is always finite and within [1e-4, 1e4].
const (
	minInverseDepth = 1e-4
	maxInverseDepth = 1e4
)

// DepthRecovery converts the decoder's feature maps and the original
// transformed image into an absolute metric depth map. It is a pure,
// deterministic function of its inputs.
type DepthRecovery struct {
	fov *FovNetwork

	// Canonical inverse-depth regression head. Stride-1 convolutions
	// keep the output at the dense feature map's spatial size.
	head *nn.Sequential[tensor.Backend]
}

// NewDepthRecovery builds the recovery module over the given FOV
// estimator. featureChannels is the dense feature map's channel width.
func NewDepthRecovery(fov *FovNetwork, featureChannels int, rng *rand.Rand, backend tensor.Backend) *DepthRecovery {
	return &DepthRecovery{
		fov: fov,
		head: nn.NewSequential[tensor.Backend](
			nn.NewConv2D(featureChannels, featureChannels/2, 3, 3, 1, 1, rng, backend),
			nn.NewReLU[tensor.Backend](),
			nn.NewConv2D(featureChannels/2, 1, 1, 1, 1, 0, rng, backend),
			nn.NewReLU[tensor.Backend](),
		),
	}
}

// Fov returns the FOV estimator.
func (d *DepthRecovery) Fov() *FovNetwork {
	return d.fov
}

// Forward recovers metric depth from the transformed image x
// (N,3,H,W), the dense feature map (N,Cf,Hf,Wf) and the coarse feature
// map (N,Cc,Hc,Wc). The output has the dense map's spatial size.
func (d *DepthRecovery) Forward(x, features, coarse *Tensor) (*Tensor, error) {
	xs, fs, cs := x.Shape(), features.Shape(), coarse.Shape()
	if len(xs) != 4 || xs[1] != 3 {
		return nil, shapeError("depth recovery", "(N,3,H,W) image", xs)
	}
	if len(fs) != 4 {
		return nil, shapeError("depth recovery", "(N,C,H,W) dense features", fs)
	}
	if len(cs) != 4 {
		return nil, shapeError("depth recovery", "(N,C,H,W) coarse features", cs)
	}
	if xs[0] != fs[0] || xs[0] != cs[0] {
		return nil, shapeError("depth recovery",
			"matching batch sizes across image and feature maps", tensor.Shape{xs[0], fs[0], cs[0]})
	}

	c := Canonicalize(coarse)

	fovDeg, err := d.fov.Forward(x, c)
	if err != nil {
		return nil, err
	}
	fPx := FocalFromDegrees(fovDeg) // [N,1]

	cid := d.head.Forward(features)
	return MetricFromCanonical(cid, fPx.Reshape(xs[0], 1, 1, 1)), nil
}

// Canonicalize brings a coarse feature map to the fixed canonical
// side. Maps already at the canonical side pass through unchanged, so
// the operation is idempotent.
func Canonicalize(coarse *Tensor) *Tensor {
	shape := coarse.Shape()
	if shape[2] == canonicalSide && shape[3] == canonicalSide {
		return coarse
	}
	return coarse.Interpolate(canonicalSide, canonicalSide)
}

// MetricFromCanonical converts a canonical inverse-depth map to metric
// depth given the per-batch normalized focal length: the product is
// clamped to the inverse-depth bounds before reciprocation.
func MetricFromCanonical(cid, fPx *Tensor) *Tensor {
	return cid.Mul(fPx).Clamp(minInverseDepth, maxInverseDepth).Reciprocal()
}

// Name identifies the recovery module in deployment packages.
func (d *DepthRecovery) Name() string {
	return "depth"
}

// Apply recovers depth from one example triple: image, dense features,
// coarse features.
func (d *DepthRecovery) Apply(inputs []*Tensor) ([]*Tensor, error) {
	if len(inputs) != 3 {
		return nil, shapeError("depth recovery", "3 inputs (image, features, coarse)", tensor.Shape{len(inputs)})
	}
	out, err := d.Forward(inputs[0], inputs[1], inputs[2])
	if err != nil {
		return nil, err
	}
	return []*Tensor{out}, nil
}

// StateDict flattens the FOV estimator and the regression head.
func (d *DepthRecovery) StateDict() map[string]*tensor.RawTensor {
	out := nn.StateDict("head", d.head)
	for _, p := range d.fov.parameters() {
		out["fov."+p.Name()] = p.Tensor().Raw()
	}
	return out
}
