package depth

// Pipeline composes Transform, Encoder, Decoder and DepthRecovery
// behind a single call. Purely compositional.
type Pipeline struct {
	transform *Transform
	encoder   *Encoder
	decoder   *Decoder
	recovery  *DepthRecovery
}

// NewPipeline wires the four stages together.
func NewPipeline(t *Transform, e *Encoder, d *Decoder, r *DepthRecovery) *Pipeline {
	return &Pipeline{transform: t, encoder: e, decoder: d, recovery: r}
}

// Forward runs end-to-end inference. An unbatched (3,H,W) image is
// promoted to batch size 1.
func (p *Pipeline) Forward(x *Tensor) (*Tensor, error) {
	if shape := x.Shape(); len(shape) == 3 && shape[0] == 3 {
		x = x.Unsqueeze(0)
	}

	image, err := p.transform.Forward(x)
	if err != nil {
		return nil, err
	}
	levels, err := p.encoder.Forward(image)
	if err != nil {
		return nil, err
	}
	features, coarse, err := p.decoder.Forward(levels)
	if err != nil {
		return nil, err
	}
	return p.recovery.Forward(image, features, coarse)
}
