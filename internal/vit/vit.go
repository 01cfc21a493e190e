// Package vit implements the minimal vision transformer backbone the
// depth model is built on, together with the offline resolution
// adapter that rewrites a backbone pretrained at one square size to
// operate at another.
package vit

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/harism/ml-depth-pro/internal/nn"
	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Config describes a ViT variant.
type Config struct {
	ImgSize   int // square input side in pixels
	PatchSize int // square patch side in pixels
	Dim       int // token embedding dimension
	Depth     int // number of transformer blocks
}

// ViT is a vision transformer: patch-embedding projection, a prepended
// summary token, learned positional embeddings and a stack of
// single-head attention blocks. The transformer internals are opaque
// to the rest of the pipeline; only the token layout (1 summary token
// followed by grid*grid patch tokens) and the grid size are contractual.
type ViT struct {
	cfg  Config
	grid int // tokens per side

	patch  *nn.Conv2D[tensor.Backend]
	cls    *nn.Parameter[tensor.Backend] // [1,1,dim] summary token
	pos    *nn.Parameter[tensor.Backend] // [1,1+grid*grid,dim]
	blocks []*block

	backend tensor.Backend
}

// New creates a ViT with the given configuration.
func New(cfg Config, rng *rand.Rand, backend tensor.Backend) (*ViT, error) {
	if cfg.PatchSize <= 0 || cfg.ImgSize%cfg.PatchSize != 0 {
		return nil, fmt.Errorf("vit: image size %d with patch size %d: %w",
			cfg.ImgSize, cfg.PatchSize, ErrUnsupportedResolution)
	}
	grid := cfg.ImgSize / cfg.PatchSize

	patch := nn.NewConv2D(3, cfg.Dim, cfg.PatchSize, cfg.PatchSize, cfg.PatchSize, 0, rng, backend)

	cls := nn.NewParameter("cls",
		nn.Xavier(cfg.Dim, cfg.Dim, tensor.Shape{1, 1, cfg.Dim}, rng, backend))
	pos := nn.NewParameter("pos",
		nn.Xavier(cfg.Dim, cfg.Dim, tensor.Shape{1, 1 + grid*grid, cfg.Dim}, rng, backend))

	blocks := make([]*block, cfg.Depth)
	for i := range blocks {
		blocks[i] = newBlock(cfg.Dim, rng, backend)
	}

	return &ViT{
		cfg:     cfg,
		grid:    grid,
		patch:   patch,
		cls:     cls,
		pos:     pos,
		blocks:  blocks,
		backend: backend,
	}, nil
}

// Forward embeds an (N,3,S,S) image into tokens (N, 1+grid*grid, dim).
// The first token is the prepended summary token.
func (v *ViT) Forward(x *tensor.F32) *tensor.F32 {
	shape := x.Shape()
	if len(shape) != 4 || shape[2] != v.cfg.ImgSize || shape[3] != v.cfg.ImgSize {
		panic(fmt.Sprintf("vit: expected (N,3,%d,%d) input, got %v", v.cfg.ImgSize, v.cfg.ImgSize, shape))
	}
	n := shape[0]

	p := v.patch.Forward(x) // [N,dim,g,g]
	tokens := p.Reshape(n, v.cfg.Dim, v.grid*v.grid).Transpose(0, 2, 1)

	// Broadcast the summary token over the batch and prepend it.
	cls := tensor.Zeros[float32](tensor.Shape{n, 1, v.cfg.Dim}, v.backend).Add(v.cls.Tensor())
	tokens = tensor.Cat([]*tensor.F32{cls, tokens}, 1)

	tokens = tokens.Add(v.pos.Tensor())
	for _, blk := range v.blocks {
		tokens = blk.forward(tokens)
	}
	return tokens
}

// GridSize returns the tokens-per-side count of the patch grid.
func (v *ViT) GridSize() int {
	return v.grid
}

// ImgSize returns the square input side the backbone currently expects.
func (v *ViT) ImgSize() int {
	return v.cfg.ImgSize
}

// PatchSize returns the square patch side.
func (v *ViT) PatchSize() int {
	return v.cfg.PatchSize
}

// Dim returns the token embedding dimension.
func (v *ViT) Dim() int {
	return v.cfg.Dim
}

// Parameters returns all parameters, names prefixed per component.
func (v *ViT) Parameters() []*nn.Parameter[tensor.Backend] {
	params := []*nn.Parameter[tensor.Backend]{v.cls, v.pos}
	for _, p := range v.patch.Parameters() {
		params = append(params, nn.NewParameter("patch."+p.Name(), p.Tensor()))
	}
	for i, blk := range v.blocks {
		for _, p := range blk.parameters() {
			params = append(params, nn.NewParameter(fmt.Sprintf("block.%d.%s", i, p.Name()), p.Tensor()))
		}
	}
	return params
}

// block is one pre-projection transformer block: single-head
// self-attention and a two-layer MLP, both with residual connections.
type block struct {
	q, k, v, proj *nn.Linear[tensor.Backend]
	fc1, fc2      *nn.Linear[tensor.Backend]
	scale         float64
}

func newBlock(dim int, rng *rand.Rand, backend tensor.Backend) *block {
	return &block{
		q:     nn.NewLinear(dim, dim, rng, backend),
		k:     nn.NewLinear(dim, dim, rng, backend),
		v:     nn.NewLinear(dim, dim, rng, backend),
		proj:  nn.NewLinear(dim, dim, rng, backend),
		fc1:   nn.NewLinear(dim, 2*dim, rng, backend),
		fc2:   nn.NewLinear(2*dim, dim, rng, backend),
		scale: 1.0 / math.Sqrt(float64(dim)),
	}
}

func (b *block) forward(x *tensor.F32) *tensor.F32 {
	q := b.q.Forward(x)
	k := b.k.Forward(x)
	v := b.v.Forward(x)

	scores := q.BatchMatMul(k.Transpose(0, 2, 1)).MulScalar(b.scale)
	attn := scores.Softmax(-1)
	x = x.Add(b.proj.Forward(attn.BatchMatMul(v)))

	return x.Add(b.fc2.Forward(b.fc1.Forward(x).Relu()))
}

func (b *block) parameters() []*nn.Parameter[tensor.Backend] {
	named := []struct {
		name string
		mod  *nn.Linear[tensor.Backend]
	}{
		{"q", b.q}, {"k", b.k}, {"v", b.v}, {"proj", b.proj}, {"fc1", b.fc1}, {"fc2", b.fc2},
	}
	var params []*nn.Parameter[tensor.Backend]
	for _, nm := range named {
		for _, p := range nm.mod.Parameters() {
			params = append(params, nn.NewParameter(nm.name+"."+p.Name(), p.Tensor()))
		}
	}
	return params
}
