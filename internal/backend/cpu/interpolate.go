package cpu

import (
	"fmt"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Interpolate2D resizes the spatial dimensions of an (N,C,H,W) tensor
// using bilinear sampling without corner alignment: a destination pixel
// center maps to src = (dst + 0.5) * (in/out) - 0.5, clamped to the
// valid range. Identity sizes return a copy, so resizing a map that is
// already at the target grid is a no-op on values.
func (cpu *Backend) Interpolate2D(x *tensor.RawTensor, outH, outW int) *tensor.RawTensor {
	requireFloat32("interpolate2d", x)

	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("interpolate2d: input must be 4D [N,C,H,W], got %dD", len(shape)))
	}
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("interpolate2d: invalid output size %dx%d", outH, outW))
	}

	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	out := mustNewRaw(tensor.Shape{n, c, outH, outW}, tensor.Float32, cpu.device)
	inData, outData := x.AsFloat32(), out.AsFloat32()

	if outH == h && outW == w {
		copy(outData, inData)
		return out
	}

	scaleY := float64(h) / float64(outH)
	scaleX := float64(w) / float64(outW)

	// Precompute the horizontal sampling positions once per resize.
	x0s := make([]int, outW)
	x1s := make([]int, outW)
	wxs := make([]float32, outW)
	for ox := 0; ox < outW; ox++ {
		sx := (float64(ox)+0.5)*scaleX - 0.5
		if sx < 0 {
			sx = 0
		}
		x0 := int(sx)
		if x0 > w-1 {
			x0 = w - 1
		}
		x1 := x0 + 1
		if x1 > w-1 {
			x1 = w - 1
		}
		x0s[ox], x1s[ox], wxs[ox] = x0, x1, float32(sx-float64(x0))
	}

	for b := 0; b < n; b++ {
		for ch := 0; ch < c; ch++ {
			plane := inData[((b*c+ch)*h)*w : ((b*c+ch)*h+h)*w]
			outPlane := outData[((b*c+ch)*outH)*outW : ((b*c+ch)*outH+outH)*outW]
			for oy := 0; oy < outH; oy++ {
				sy := (float64(oy)+0.5)*scaleY - 0.5
				if sy < 0 {
					sy = 0
				}
				y0 := int(sy)
				if y0 > h-1 {
					y0 = h - 1
				}
				y1 := y0 + 1
				if y1 > h-1 {
					y1 = h - 1
				}
				wy := float32(sy - float64(y0))

				row0 := plane[y0*w : y0*w+w]
				row1 := plane[y1*w : y1*w+w]
				outRow := outPlane[oy*outW : oy*outW+outW]
				for ox := 0; ox < outW; ox++ {
					x0, x1, wx := x0s[ox], x1s[ox], wxs[ox]
					top := row0[x0] + (row0[x1]-row0[x0])*wx
					bot := row1[x0] + (row1[x1]-row1[x0])*wx
					outRow[ox] = top + (bot-top)*wy
				}
			}
		}
	}
	return out
}
