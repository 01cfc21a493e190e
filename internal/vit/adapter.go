package vit

import (
	"errors"
	"fmt"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// ErrUnsupportedResolution reports a target image size that is not an
// integer multiple of the patch size.
var ErrUnsupportedResolution = errors.New("vit: target resolution is not a multiple of the patch size")

// ResamplePatchEmbed rewrites the patch-embedding projection to a new
// square patch side. The existing kernel is resampled bilinearly over
// its spatial extent, never reinitialized, so the learned filters keep
// their structure at the new receptive field. The convolution stride
// follows the new patch side so patches stay non-overlapping.
func ResamplePatchEmbed(v *ViT, patchSize int) error {
	if patchSize <= 0 {
		return fmt.Errorf("vit: patch size %d: %w", patchSize, ErrUnsupportedResolution)
	}
	if v.cfg.ImgSize%patchSize != 0 {
		return fmt.Errorf("vit: image size %d with patch size %d: %w",
			v.cfg.ImgSize, patchSize, ErrUnsupportedResolution)
	}
	if patchSize == v.cfg.PatchSize {
		return nil
	}

	weight := v.patch.Weight()
	// Kernel [dim, 3, p, p] resamples directly: the spatial dims are the
	// trailing two, exactly what bilinear interpolation operates on.
	resampled := weight.Tensor().Interpolate(patchSize, patchSize)
	weight.Replace(resampled)
	v.patch.SetKernelGeometry(patchSize, patchSize, patchSize)

	v.cfg.PatchSize = patchSize
	return resampleTokenGrid(v, v.cfg.ImgSize/patchSize)
}

// AdaptResolution rewrites a backbone pretrained at one square size to
// operate at another. The patch size is kept; the token grid grows or
// shrinks with the image, and the positional embedding grid is
// interpolated bilinearly to the new token count. The summary token's
// embedding is preserved untouched. On failure the backbone is left
// unmodified.
func AdaptResolution(v *ViT, imgSize int) (*ViT, error) {
	if imgSize <= 0 || imgSize%v.cfg.PatchSize != 0 {
		return nil, fmt.Errorf("vit: image size %d with patch size %d: %w",
			imgSize, v.cfg.PatchSize, ErrUnsupportedResolution)
	}
	if imgSize == v.cfg.ImgSize {
		return v, nil
	}

	v.cfg.ImgSize = imgSize
	if err := resampleTokenGrid(v, imgSize/v.cfg.PatchSize); err != nil {
		return nil, err
	}
	return v, nil
}

// resampleTokenGrid interpolates the positional embeddings from the
// current grid to a new one and records the new grid size.
func resampleTokenGrid(v *ViT, grid int) error {
	if grid == v.grid {
		return nil
	}

	pos := v.pos.Tensor() // [1, 1+g*g, dim]
	oldGrid := v.grid
	dim := v.cfg.Dim

	cls := pos.Narrow(1, 0, 1)
	spatial := pos.Narrow(1, 1, oldGrid*oldGrid)

	// [1,g*g,dim] -> [1,dim,g,g] for bilinear resampling, then back.
	spatial = spatial.Transpose(0, 2, 1).Reshape(1, dim, oldGrid, oldGrid)
	spatial = spatial.Interpolate(grid, grid)
	spatial = spatial.Reshape(1, dim, grid*grid).Transpose(0, 2, 1)

	v.pos.Replace(tensor.Cat([]*tensor.F32{cls, spatial}, 1))
	v.grid = grid
	return nil
}
