// Package viz renders pipeline results for visual inspection: the
// transformed input image and the recovered metric depth map.
package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// SaveImage writes a (3,H,W) or (1,3,H,W) tensor with values in [0,1]
// as a PNG file.
func SaveImage(path string, img *tensor.F32) error {
	raw, h, w, err := spatial(img, 3)
	if err != nil {
		return err
	}
	plane := h * w

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			out.SetNRGBA(x, y, color.NRGBA{
				R: toByte(raw[i]),
				G: toByte(raw[plane+i]),
				B: toByte(raw[2*plane+i]),
				A: 255,
			})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer file.Close()
	return png.Encode(file, out)
}

// SaveDepthMap renders a (H,W), (1,H,W) or (1,1,H,W) depth map as a
// heat map. The color range is clipped to the 2nd..98th percentile so
// a few extreme pixels do not wash out the rest.
func SaveDepthMap(path string, depth *tensor.F32) error {
	raw, h, w, err := spatial(depth, 1)
	if err != nil {
		return err
	}

	sorted := make([]float64, len(raw))
	for i, v := range raw {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)
	lo := stat.Quantile(0.02, stat.Empirical, sorted, nil)
	hi := stat.Quantile(0.98, stat.Empirical, sorted, nil)
	if hi <= lo {
		hi = lo + 1
	}

	grid := &depthGrid{values: raw, rows: h, cols: w}
	heat := plotter.NewHeatMap(grid, moreland.SmoothBlueRed().Palette(255))
	heat.Min, heat.Max = lo, hi

	p := plot.New()
	p.Title.Text = "metric depth (m)"
	p.HideAxes()
	p.Add(heat)
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}

// spatial flattens a tensor to its spatial plane, accepting optional
// leading batch and channel dimensions of the expected channel count.
func spatial(t *tensor.F32, channels int) ([]float32, int, int, error) {
	shape := t.Shape()
	switch len(shape) {
	case 2:
		if channels == 1 {
			return t.Data(), shape[0], shape[1], nil
		}
	case 3:
		if shape[0] == channels {
			return t.Data(), shape[1], shape[2], nil
		}
	case 4:
		if shape[0] == 1 && shape[1] == channels {
			return t.Data(), shape[2], shape[3], nil
		}
	}
	return nil, 0, 0, fmt.Errorf("viz: expected a %d-channel spatial tensor, got shape %v", channels, shape)
}

// depthGrid adapts a row-major depth plane to the heat map's grid
// interface. Row 0 is drawn at the top.
type depthGrid struct {
	values []float32
	rows   int
	cols   int
}

func (g *depthGrid) Dims() (int, int) {
	return g.cols, g.rows
}

func (g *depthGrid) Z(c, r int) float64 {
	return float64(g.values[(g.rows-1-r)*g.cols+c])
}

func (g *depthGrid) X(c int) float64 {
	return float64(c)
}

func (g *depthGrid) Y(r int) float64 {
	return float64(r)
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
