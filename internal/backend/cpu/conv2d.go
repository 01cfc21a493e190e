package cpu

import (
	"fmt"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// Conv2D performs 2D convolution.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
//
// where out = (in + 2*padding - kernel) / stride + 1.
func (cpu *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	requireFloat32("conv2d", input)
	requireFloat32("conv2d", kernel)

	inShape, kShape := input.Shape(), kernel.Shape()
	if len(inShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inShape)))
	}
	if len(kShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kShape)))
	}
	if inShape[1] != kShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", inShape[1], kShape[1]))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid stride=%d padding=%d", stride, padding))
	}

	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kh, kw := kShape[0], kShape[2], kShape[3]

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions out_h=%d out_w=%d (check stride/padding)", hOut, wOut))
	}

	out := mustNewRaw(tensor.Shape{n, cOut, hOut, wOut}, tensor.Float32, cpu.device)
	inData, kData, outData := input.AsFloat32(), kernel.AsFloat32(), out.AsFloat32()

	for b := 0; b < n; b++ {
		for co := 0; co < cOut; co++ {
			for oy := 0; oy < hOut; oy++ {
				for ox := 0; ox < wOut; ox++ {
					var sum float32
					for ci := 0; ci < cIn; ci++ {
						kBase := ((co*cIn + ci) * kh) * kw
						iBase := ((b*cIn + ci) * h) * w
						for ky := 0; ky < kh; ky++ {
							iy := oy*stride + ky - padding
							if iy < 0 || iy >= h {
								continue
							}
							for kx := 0; kx < kw; kx++ {
								ix := ox*stride + kx - padding
								if ix < 0 || ix >= w {
									continue
								}
								sum += inData[iBase+iy*w+ix] * kData[kBase+ky*kw+kx]
							}
						}
					}
					outData[((b*cOut+co)*hOut+oy)*wOut+ox] = sum
				}
			}
		}
	}
	return out
}
