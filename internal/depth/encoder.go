package depth

import (
	"fmt"
	"math/rand"

	"github.com/harism/ml-depth-pro/internal/nn"
	"github.com/harism/ml-depth-pro/internal/tensor"
	"github.com/harism/ml-depth-pro/internal/vit"
)

// Encoder extracts a multi-scale feature pyramid from a transformed
// image. Two weight-sharing-family backbones contribute: a patch
// encoder supplies the fine levels and an image encoder supplies the
// coarsest, globally-pooled-context level. Each pyramid level is
// projected to its channel width by a 1x1 neck and resized to the
// level's stride.
type Encoder struct {
	patch *vit.ViT
	image *vit.ViT

	necks    []*nn.Conv2D[tensor.Backend]
	channels []int
	scales   []int

	size    int
	backend tensor.Backend
}

// NewEncoder builds the pyramid encoder. channels and scales describe
// the per-level output width and stride relative to the working side.
func NewEncoder(patch, image *vit.ViT, channels, scales []int, size int, rng *rand.Rand, backend tensor.Backend) (*Encoder, error) {
	if len(channels) != len(scales) {
		return nil, fmt.Errorf("depth: encoder has %d channel widths but %d scales", len(channels), len(scales))
	}
	necks := make([]*nn.Conv2D[tensor.Backend], len(channels))
	for i, ch := range channels {
		src := patch.Dim()
		if i == len(channels)-1 {
			src = image.Dim()
		}
		necks[i] = nn.NewConv2D(src, ch, 1, 1, 1, 0, rng, backend)
	}
	return &Encoder{
		patch:    patch,
		image:    image,
		necks:    necks,
		channels: append([]int(nil), channels...),
		scales:   append([]int(nil), scales...),
		size:     size,
		backend:  backend,
	}, nil
}

// Forward produces the feature pyramid, finest level first.
func (e *Encoder) Forward(x *Tensor) ([]*Tensor, error) {
	shape := x.Shape()
	if len(shape) != 4 || shape[1] != 3 || shape[2] != e.size || shape[3] != e.size {
		return nil, shapeError("encoder", fmt.Sprintf("(N,3,%d,%d)", e.size, e.size), shape)
	}

	fine := e.spatialTokens(e.patch, x)
	global := e.spatialTokens(e.image, x)

	out := make([]*Tensor, len(e.necks))
	for i, neck := range e.necks {
		src := fine
		if i == len(e.necks)-1 {
			src = global
		}
		side := e.size / e.scales[i]
		out[i] = neck.Forward(src).Interpolate(side, side)
	}
	return out, nil
}

// spatialTokens runs a backbone and folds its patch tokens back into a
// spatial map, dropping the leading summary token.
func (e *Encoder) spatialTokens(v *vit.ViT, x *Tensor) *Tensor {
	g := v.GridSize()
	n := x.Shape()[0]
	tokens := v.Forward(x)                  // [N, 1+g*g, dim]
	tokens = tokens.Narrow(1, 1, g*g)       // drop summary token
	return tokens.Transpose(0, 2, 1).Reshape(n, v.Dim(), g, g)
}

// AdaptResolution rewrites both backbones for a new working side: each
// patch-embedding kernel is resampled to the working patch side, then
// the token grid is recomputed for the new image side. Applied
// independently to each sub-encoder. The divisibility check runs
// before either backbone is touched.
func (e *Encoder) AdaptResolution(patchSize, size int) error {
	if patchSize <= 0 || size <= 0 || size%patchSize != 0 {
		return fmt.Errorf("depth: working side %d with patch side %d: %w",
			size, patchSize, vit.ErrUnsupportedResolution)
	}
	for _, v := range []*vit.ViT{e.patch, e.image} {
		if err := vit.ResamplePatchEmbed(v, patchSize); err != nil {
			return err
		}
		if _, err := vit.AdaptResolution(v, size); err != nil {
			return err
		}
	}
	e.size = size
	return nil
}

// GridSize returns the patch encoder's tokens-per-side count.
func (e *Encoder) GridSize() int {
	return e.patch.GridSize()
}

// Size returns the working side the encoder currently expects.
func (e *Encoder) Size() int {
	return e.size
}

// Channels returns the per-level channel widths, finest level first.
func (e *Encoder) Channels() []int {
	return append([]int(nil), e.channels...)
}

// Scales returns the per-level strides relative to the working side.
func (e *Encoder) Scales() []int {
	return append([]int(nil), e.scales...)
}

// Name identifies the encoder in deployment packages.
func (e *Encoder) Name() string {
	return "encoder"
}

// Apply runs the encoder over a single example image and returns the
// pyramid levels in order.
func (e *Encoder) Apply(inputs []*Tensor) ([]*Tensor, error) {
	if len(inputs) != 1 {
		return nil, shapeError("encoder", "1 input", tensor.Shape{len(inputs)})
	}
	return e.Forward(inputs[0])
}

// StateDict flattens both backbones and the neck projections.
func (e *Encoder) StateDict() map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for _, p := range e.patch.Parameters() {
		out["patch."+p.Name()] = p.Tensor().Raw()
	}
	for _, p := range e.image.Parameters() {
		out["image."+p.Name()] = p.Tensor().Raw()
	}
	for i, neck := range e.necks {
		for _, p := range neck.Parameters() {
			out[fmt.Sprintf("neck.%d.%s", i, p.Name())] = p.Tensor().Raw()
		}
	}
	return out
}
