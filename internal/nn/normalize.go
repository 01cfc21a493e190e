package nn

import (
	"fmt"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Normalize re-centers and re-scales an (N,C,H,W) tensor per channel:
// out = (x - mean[c]) / std[c].
type Normalize[B tensor.Backend] struct {
	mean *tensor.Tensor[float32, B] // [1,C,1,1]
	std  *tensor.Tensor[float32, B] // [1,C,1,1]
	ch   int
}

// NewNormalize creates a per-channel normalization module.
func NewNormalize[B tensor.Backend](mean, std []float32, backend B) *Normalize[B] {
	if len(mean) != len(std) {
		panic(fmt.Sprintf("normalize: mean has %d channels, std has %d", len(mean), len(std)))
	}
	for i, s := range std {
		if s == 0 {
			panic(fmt.Sprintf("normalize: zero std for channel %d", i))
		}
	}

	c := len(mean)
	m, err := tensor.FromSlice[float32, B](mean, tensor.Shape{1, c, 1, 1}, backend)
	if err != nil {
		panic(err)
	}
	s, err := tensor.FromSlice[float32, B](std, tensor.Shape{1, c, 1, 1}, backend)
	if err != nil {
		panic(err)
	}

	return &Normalize[B]{mean: m, std: s, ch: c}
}

// Forward normalizes the input per channel.
func (n *Normalize[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 || shape[1] != n.ch {
		panic(fmt.Sprintf("normalize: expected (N,%d,H,W) input, got %v", n.ch, shape))
	}
	return input.Sub(n.mean).Div(n.std)
}

// Parameters returns an empty slice; mean and std are configuration,
// not weights.
func (n *Normalize[B]) Parameters() []*Parameter[B] {
	return nil
}

// Interpolate resizes (N,C,H,W) inputs to a fixed spatial size using
// bilinear sampling without corner alignment.
type Interpolate[B tensor.Backend] struct {
	outH, outW int
}

// NewInterpolate creates a fixed-size bilinear resize module.
func NewInterpolate[B tensor.Backend](outH, outW int) *Interpolate[B] {
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("interpolate: invalid target size %dx%d", outH, outW))
	}
	return &Interpolate[B]{outH: outH, outW: outW}
}

// Forward resizes the input.
func (i *Interpolate[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Interpolate(i.outH, i.outW)
}

// Parameters returns an empty slice; resizing has no state.
func (i *Interpolate[B]) Parameters() []*Parameter[B] {
	return nil
}
