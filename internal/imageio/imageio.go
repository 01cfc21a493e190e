// Package imageio loads raster images into channel-first tensors for
// the conversion pipeline.
package imageio

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Load decodes a JPEG or PNG file into a (3,H,W) float32 tensor with
// values in [0,1]. When maxSide is positive, images whose longest side
// exceeds it are downscaled (aspect preserved) before conversion.
func Load(path string, maxSide int, backend tensor.Backend) (*tensor.F32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %q: %w", path, err)
	}
	return FromImage(capSize(img, maxSide), backend)
}

// FromImage converts a decoded image into a (3,H,W) float32 tensor
// with values in [0,1].
func FromImage(img image.Image, backend tensor.Backend) (*tensor.F32, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("image has empty bounds %v", bounds)
	}

	data := make([]float32, 3*h*w)
	plane := h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := y*w + x
			data[i] = float32(r) / 65535
			data[plane+i] = float32(g) / 65535
			data[2*plane+i] = float32(b) / 65535
		}
	}
	return tensor.FromSlice[float32](data, tensor.Shape{3, h, w}, backend)
}

// capSize downscales an image whose longest side exceeds maxSide.
func capSize(img image.Image, maxSide int) image.Image {
	if maxSide <= 0 {
		return img
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}
	if w >= h {
		return resize.Resize(uint(maxSide), 0, img, resize.Bilinear)
	}
	return resize.Resize(0, uint(maxSide), img, resize.Bilinear)
}
