package depth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/harism/ml-depth-pro/internal/nn"
	"github.com/harism/ml-depth-pro/internal/tensor"
	"github.com/harism/ml-depth-pro/internal/vit"
)

// FovVariant selects how the field of view is estimated. The variant
// is resolved once at model construction and carried as configuration;
// nothing inspects capabilities per call. Trace-based export freezes
// whichever variant the traced instance carries, so deploying both
// requires two exported packages from two instances.
type FovVariant int

const (
	// FovWithoutAuxEncoder regresses FOV directly from the canonical
	// coarse feature map.
	FovWithoutAuxEncoder FovVariant = iota
	// FovWithAuxEncoder fuses a dedicated low-resolution image encoding
	// with the canonical coarse feature map before regression.
	FovWithAuxEncoder
)

func (v FovVariant) String() string {
	switch v {
	case FovWithoutAuxEncoder:
		return "without-aux-encoder"
	case FovWithAuxEncoder:
		return "with-aux-encoder"
	default:
		return fmt.Sprintf("FovVariant(%d)", int(v))
	}
}

// FovNetwork estimates the field of view in degrees from the original
// image and the canonical coarse feature map.
type FovNetwork struct {
	variant FovVariant
	encoder *vit.ViT // nil unless FovWithAuxEncoder

	// downsample projects the canonical coarse map onto the auxiliary
	// encoder's token grid for the fusion sum.
	downsample *nn.Conv2D[tensor.Backend]

	headConv *nn.Conv2D[tensor.Backend]
	pool     *nn.GlobalAvgPool[tensor.Backend]
	headFC   *nn.Linear[tensor.Backend]

	backend tensor.Backend
}

// NewFovNetwork builds the FOV estimator. aux must be non-nil exactly
// for FovWithAuxEncoder; coarseChannels is the channel width of the
// canonical coarse feature map.
func NewFovNetwork(variant FovVariant, aux *vit.ViT, coarseChannels int, rng *rand.Rand, backend tensor.Backend) (*FovNetwork, error) {
	f := &FovNetwork{
		variant: variant,
		pool:    nn.NewGlobalAvgPool[tensor.Backend](),
		backend: backend,
	}

	headIn := coarseChannels
	switch variant {
	case FovWithAuxEncoder:
		if aux == nil {
			return nil, fmt.Errorf("depth: fov variant %s requires an auxiliary encoder", variant)
		}
		g := aux.GridSize()
		if g <= 0 || canonicalSide%g != 0 {
			return nil, fmt.Errorf("depth: auxiliary token grid %d does not divide the canonical side %d", g, canonicalSide)
		}
		stride := canonicalSide / g
		f.encoder = aux
		f.downsample = nn.NewConv2D(coarseChannels, aux.Dim(), stride, stride, stride, 0, rng, backend)
		headIn = aux.Dim()
	case FovWithoutAuxEncoder:
		if aux != nil {
			return nil, fmt.Errorf("depth: fov variant %s does not take an auxiliary encoder", variant)
		}
	default:
		return nil, fmt.Errorf("depth: unknown fov variant %d", int(variant))
	}

	f.headConv = nn.NewConv2D(headIn, 64, 3, 3, 2, 1, rng, backend)
	f.headFC = nn.NewLinear(64, 1, rng, backend)
	return f, nil
}

// Variant returns the construction-time FOV variant.
func (f *FovNetwork) Variant() FovVariant {
	return f.variant
}

// Forward estimates FOV degrees, one scalar per batch element, from
// the transformed image and the canonical (48x48) coarse feature map.
// The coarse map enters as a pure input: no gradient state flows into
// the regression.
func (f *FovNetwork) Forward(x, coarse *Tensor) (*Tensor, error) {
	var h *Tensor
	switch f.variant {
	case FovWithAuxEncoder:
		side := f.encoder.ImgSize()
		// The downscale factor is derived from the image's current
		// side, so the auxiliary encoder always receives its expected
		// input regardless of the working resolution.
		low := x.Interpolate(side, side)

		g := f.encoder.GridSize()
		n := x.Shape()[0]
		tokens := f.encoder.Forward(low)
		tokens = tokens.Narrow(1, 1, g*g) // drop summary token
		spatial := tokens.Transpose(0, 2, 1).Reshape(n, f.encoder.Dim(), g, g)

		projected := f.downsample.Forward(coarse.Detach())
		if !projected.Shape().Equal(spatial.Shape()) {
			return nil, shapeError("fov fusion", spatial.Shape().String(), projected.Shape())
		}
		h = spatial.Add(projected)
	case FovWithoutAuxEncoder:
		h = coarse.Detach()
	}

	pooled := f.pool.Forward(f.headConv.Forward(h).Relu())
	return f.headFC.Forward(pooled), nil
}

// FocalFromDegrees converts FOV degrees to normalized focal length:
// f_px = 0.5 * tan(pi * fov_deg / 360). Strictly increasing on
// (0, 180) degrees.
func FocalFromDegrees(deg *Tensor) *Tensor {
	return deg.MulScalar(math.Pi / 360).Tan().MulScalar(0.5)
}

func (f *FovNetwork) parameters() []*nn.Parameter[tensor.Backend] {
	var params []*nn.Parameter[tensor.Backend]
	add := func(prefix string, ps []*nn.Parameter[tensor.Backend]) {
		for _, p := range ps {
			params = append(params, nn.NewParameter(prefix+"."+p.Name(), p.Tensor()))
		}
	}
	if f.encoder != nil {
		add("encoder", f.encoder.Parameters())
	}
	if f.downsample != nil {
		add("downsample", f.downsample.Parameters())
	}
	add("head.conv", f.headConv.Parameters())
	add("head.fc", f.headFC.Parameters())
	return params
}
