package depth_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harism/ml-depth-pro/internal/backend/cpu"
	"github.com/harism/ml-depth-pro/internal/depth"
	"github.com/harism/ml-depth-pro/internal/tensor"
	"github.com/harism/ml-depth-pro/internal/vit"
)

func newBackend() tensor.Backend {
	return cpu.New()
}

func TestFocalFromDegrees(t *testing.T) {
	backend := newBackend()
	deg, err := tensor.FromSlice[float32]([]float32{20, 48.4297, 90, 140}, tensor.Shape{4, 1}, backend)
	require.NoError(t, err)

	f := depth.FocalFromDegrees(deg).Data()

	// Strictly increasing over (0, 180) degrees.
	for i := 1; i < len(f); i++ {
		assert.Greater(t, f[i], f[i-1])
	}
	assert.InDelta(t, 0.2249, float64(f[1]), 1e-3)
	assert.InDelta(t, 0.5, float64(f[2]), 1e-5) // tan(45 deg) / 2
}

func TestCanonicalizeIdempotent(t *testing.T) {
	backend := newBackend()

	large := tensor.RandnFrom[float32](tensor.Shape{1, 8, 96, 96}, rand.New(rand.NewSource(1)), backend)
	once := depth.Canonicalize(large)
	require.Equal(t, tensor.Shape{1, 8, 48, 48}, once.Shape())

	twice := depth.Canonicalize(once)
	assert.Same(t, once, twice, "a map already at the canonical side must pass through unchanged")
}

func TestFovWithoutAuxEncoder(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(2))
	fov, err := depth.NewFovNetwork(depth.FovWithoutAuxEncoder, nil, 8, rng, backend)
	require.NoError(t, err)
	assert.Equal(t, depth.FovWithoutAuxEncoder, fov.Variant())

	x := tensor.RandnFrom[float32](tensor.Shape{2, 3, 32, 32}, rand.New(rand.NewSource(3)), backend)
	coarse := tensor.RandnFrom[float32](tensor.Shape{2, 8, 48, 48}, rand.New(rand.NewSource(4)), backend)

	deg, err := fov.Forward(x, coarse)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 1}, deg.Shape())
}

func TestFovWithAuxEncoder(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(5))

	// Grid 48/8 = 6 divides the canonical side, so the coarse map can
	// be projected onto the token grid for the fusion sum.
	aux, err := vit.New(vit.Config{ImgSize: 48, PatchSize: 8, Dim: 16, Depth: 1}, rng, backend)
	require.NoError(t, err)
	fov, err := depth.NewFovNetwork(depth.FovWithAuxEncoder, aux, 8, rng, backend)
	require.NoError(t, err)

	// The image side differs from the auxiliary side; the downscale
	// factor is derived from the current side.
	x := tensor.RandnFrom[float32](tensor.Shape{1, 3, 64, 64}, rand.New(rand.NewSource(6)), backend)
	coarse := tensor.RandnFrom[float32](tensor.Shape{1, 8, 48, 48}, rand.New(rand.NewSource(7)), backend)

	deg, err := fov.Forward(x, coarse)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1}, deg.Shape())
}

func TestFovFusionRequiresCanonicalCoarse(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(9))

	aux, err := vit.New(vit.Config{ImgSize: 48, PatchSize: 8, Dim: 16, Depth: 1}, rng, backend)
	require.NoError(t, err)
	fov, err := depth.NewFovNetwork(depth.FovWithAuxEncoder, aux, 8, rng, backend)
	require.NoError(t, err)

	x := tensor.RandnFrom[float32](tensor.Shape{1, 3, 48, 48}, rand.New(rand.NewSource(10)), backend)
	// A coarse map that skipped canonicalization projects onto a 12x12
	// grid instead of the 6x6 token grid.
	coarse := tensor.RandnFrom[float32](tensor.Shape{1, 8, 96, 96}, rand.New(rand.NewSource(11)), backend)

	_, err = fov.Forward(x, coarse)
	require.ErrorIs(t, err, depth.ErrShapeMismatch)
}

func TestFovConstructionRejectsMismatchedVariant(t *testing.T) {
	backend := newBackend()
	rng := rand.New(rand.NewSource(8))

	_, err := depth.NewFovNetwork(depth.FovWithAuxEncoder, nil, 8, rng, backend)
	assert.Error(t, err, "aux variant requires an encoder")

	aux, err := vit.New(vit.Config{ImgSize: 48, PatchSize: 8, Dim: 16, Depth: 1}, rng, backend)
	require.NoError(t, err)
	_, err = depth.NewFovNetwork(depth.FovWithoutAuxEncoder, aux, 8, rng, backend)
	assert.Error(t, err, "non-aux variant must not take an encoder")
}

func TestFovVariantString(t *testing.T) {
	assert.Equal(t, "with-aux-encoder", depth.FovWithAuxEncoder.String())
	assert.Equal(t, "without-aux-encoder", depth.FovWithoutAuxEncoder.String())
}
