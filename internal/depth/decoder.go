package depth

import (
	"fmt"
	"math/rand"

	"github.com/harism/ml-depth-pro/internal/nn"
	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Decoder fuses the encoder's feature pyramid top-down into a dense
// feature map at the finest level's resolution, plus the coarse map
// used for field-of-view estimation.
type Decoder struct {
	laterals []*nn.Conv2D[tensor.Backend] // 1x1 projections to dim
	fusions  []*nn.Conv2D[tensor.Backend] // 3x3 post-merge convolutions
	channels []int
	dim      int
	backend  tensor.Backend
}

// NewDecoder creates a decoder for a pyramid with the given per-level
// channel widths (finest first). dim is the fused feature width.
func NewDecoder(channels []int, dim int, rng *rand.Rand, backend tensor.Backend) *Decoder {
	laterals := make([]*nn.Conv2D[tensor.Backend], len(channels))
	fusions := make([]*nn.Conv2D[tensor.Backend], len(channels)-1)
	for i, ch := range channels {
		laterals[i] = nn.NewConv2D(ch, dim, 1, 1, 1, 0, rng, backend)
	}
	for i := range fusions {
		fusions[i] = nn.NewConv2D(dim, dim, 3, 3, 1, 1, rng, backend)
	}
	return &Decoder{
		laterals: laterals,
		fusions:  fusions,
		channels: append([]int(nil), channels...),
		dim:      dim,
		backend:  backend,
	}
}

// Forward fuses the pyramid (finest level first) and returns the dense
// feature map at the finest level's spatial size together with the
// coarse feature map at the coarsest level's spatial size.
func (d *Decoder) Forward(levels []*Tensor) (features, coarse *Tensor, err error) {
	if len(levels) != len(d.laterals) {
		return nil, nil, shapeError("decoder",
			fmt.Sprintf("%d pyramid levels", len(d.laterals)), tensor.Shape{len(levels)})
	}
	for i, lvl := range levels {
		shape := lvl.Shape()
		if len(shape) != 4 || shape[1] != d.channels[i] {
			return nil, nil, shapeError("decoder",
				fmt.Sprintf("level %d with %d channels", i, d.channels[i]), shape)
		}
	}

	last := len(levels) - 1
	coarse = d.laterals[last].Forward(levels[last])

	// Top-down: upsample the running fusion to the next finer level,
	// add its lateral projection, then smooth.
	fused := coarse
	for i := last - 1; i >= 0; i-- {
		target := levels[i].Shape()
		fused = fused.Interpolate(target[2], target[3])
		fused = fused.Add(d.laterals[i].Forward(levels[i]))
		fused = d.fusions[i].Forward(fused).Relu()
	}
	return fused, coarse, nil
}

// Dim returns the fused feature width.
func (d *Decoder) Dim() int {
	return d.dim
}

// Name identifies the decoder in deployment packages.
func (d *Decoder) Name() string {
	return "decoder"
}

// Apply fuses one example pyramid. Outputs are the dense map followed
// by the coarse map.
func (d *Decoder) Apply(inputs []*Tensor) ([]*Tensor, error) {
	features, coarse, err := d.Forward(inputs)
	if err != nil {
		return nil, err
	}
	return []*Tensor{features, coarse}, nil
}

// StateDict flattens the lateral and fusion convolutions.
func (d *Decoder) StateDict() map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for i, l := range d.laterals {
		for _, p := range l.Parameters() {
			out[fmt.Sprintf("lateral.%d.%s", i, p.Name())] = p.Tensor().Raw()
		}
	}
	for i, f := range d.fusions {
		for _, p := range f.Parameters() {
			out[fmt.Sprintf("fusion.%d.%s", i, p.Name())] = p.Tensor().Raw()
		}
	}
	return out
}
