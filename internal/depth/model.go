// Package depth implements FOV-conditioned metric depth recovery: the
// input transform, the multi-scale encoder/decoder pair, the depth
// recovery head and the pipeline composing them, together with the
// model factory the conversion command drives.
package depth

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/harism/ml-depth-pro/internal/tensor"
	"github.com/harism/ml-depth-pro/internal/vit"
)

// Config carries the model factory's construction parameters.
type Config struct {
	// ImgSize is the square working side the backbones are built at.
	ImgSize   int
	PatchSize int

	EncoderDim   int
	EncoderDepth int

	// DecoderDim is the fused feature width.
	DecoderDim int
	// Channels and Scales describe the encoder pyramid, finest first.
	Channels []int
	Scales   []int

	FovVariant   FovVariant
	AuxImgSize   int
	AuxPatchSize int
	AuxDim       int
	AuxDepth     int

	// Mean and Std re-center raw pixel values per channel.
	Mean []float32
	Std  []float32

	// Seed drives weight initialization.
	Seed int64
}

// DefaultConfig returns the stock configuration: backbones built at a
// 1536 working side with 16-pixel patches, a five-level pyramid and an
// auxiliary FOV encoder at a fixed 384 side.
func DefaultConfig() Config {
	return Config{
		ImgSize:      1536,
		PatchSize:    16,
		EncoderDim:   64,
		EncoderDepth: 2,
		DecoderDim:   256,
		Channels:     []int{256, 256, 512, 1024, 1024},
		Scales:       []int{2, 4, 8, 16, 32},
		FovVariant:   FovWithAuxEncoder,
		AuxImgSize:   384,
		AuxPatchSize: 16,
		AuxDim:       64,
		AuxDepth:     1,
		Mean:         []float32{0.5, 0.5, 0.5},
		Std:          []float32{0.5, 0.5, 0.5},
		Seed:         0,
	}
}

// Model bundles the four pipeline stages built by the factory.
type Model struct {
	Transform *Transform
	Encoder   *Encoder
	Decoder   *Decoder
	Recovery  *DepthRecovery

	cfg Config
	// baseSize is the working side the model was constructed at; the
	// auxiliary FOV encoder's geometry is only exact at this side.
	baseSize int
}

// NewModel constructs all submodules from the configuration. Weights
// are initialized from cfg.Seed, so construction is reproducible.
func NewModel(cfg Config, backend tensor.Backend) (*Model, error) {
	if len(cfg.Channels) != len(cfg.Scales) || len(cfg.Channels) == 0 {
		return nil, fmt.Errorf("depth: %d pyramid channel widths for %d scales", len(cfg.Channels), len(cfg.Scales))
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	patchEnc, err := vit.New(vit.Config{
		ImgSize: cfg.ImgSize, PatchSize: cfg.PatchSize,
		Dim: cfg.EncoderDim, Depth: cfg.EncoderDepth,
	}, rng, backend)
	if err != nil {
		return nil, err
	}
	imageEnc, err := vit.New(vit.Config{
		ImgSize: cfg.ImgSize, PatchSize: cfg.PatchSize,
		Dim: cfg.EncoderDim, Depth: cfg.EncoderDepth,
	}, rng, backend)
	if err != nil {
		return nil, err
	}

	encoder, err := NewEncoder(patchEnc, imageEnc, cfg.Channels, cfg.Scales, cfg.ImgSize, rng, backend)
	if err != nil {
		return nil, err
	}
	decoder := NewDecoder(cfg.Channels, cfg.DecoderDim, rng, backend)

	var aux *vit.ViT
	if cfg.FovVariant == FovWithAuxEncoder {
		aux, err = vit.New(vit.Config{
			ImgSize: cfg.AuxImgSize, PatchSize: cfg.AuxPatchSize,
			Dim: cfg.AuxDim, Depth: cfg.AuxDepth,
		}, rng, backend)
		if err != nil {
			return nil, err
		}
	}
	fov, err := NewFovNetwork(cfg.FovVariant, aux, cfg.DecoderDim, rng, backend)
	if err != nil {
		return nil, err
	}
	recovery := NewDepthRecovery(fov, cfg.DecoderDim, rng, backend)

	return &Model{
		Transform: NewTransform(cfg.Mean, cfg.Std, cfg.ImgSize, backend),
		Encoder:   encoder,
		Decoder:   decoder,
		Recovery:  recovery,
		cfg:       cfg,
		baseSize:  cfg.ImgSize,
	}, nil
}

// AdaptResolution rewrites the model for a new square working side.
// Both pyramid backbones are re-gridded at the configured patch side,
// independently of each other; the auxiliary FOV encoder keeps its
// fixed input side and is not adapted, which is a known gap when the
// working resolution changes.
func (m *Model) AdaptResolution(size int) error {
	if err := m.Encoder.AdaptResolution(m.cfg.PatchSize, size); err != nil {
		return err
	}
	m.Transform.SetSize(size)
	m.cfg.ImgSize = size

	if m.cfg.FovVariant == FovWithAuxEncoder && size != m.baseSize {
		log.Printf("depth: working side adapted to %d; auxiliary fov encoder stays at side %d and relies on the image downscale to bridge the gap", size, m.cfg.AuxImgSize)
	}
	return nil
}

// Pipeline returns the end-to-end inference composition.
func (m *Model) Pipeline() *Pipeline {
	return NewPipeline(m.Transform, m.Encoder, m.Decoder, m.Recovery)
}

// Config returns the model's current configuration.
func (m *Model) Config() Config {
	return m.cfg
}
