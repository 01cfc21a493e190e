package cpu

import (
	"fmt"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M,K) @ (K,N) -> (M,N).
func (cpu *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32("matmul", a)
	requireFloat32("matmul", b)

	as, bs := a.Shape(), b.Shape()
	if len(as) != 2 || len(bs) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v @ %v", as, bs))
	}
	if as[1] != bs[0] {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch: %v @ %v", as, bs))
	}

	m, k, n := as[0], as[1], bs[1]
	out := mustNewRaw(tensor.Shape{m, n}, tensor.Float32, cpu.device)
	matmul(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n)
	return out
}

// BatchMatMul performs batched matrix multiplication:
// (B,M,K) @ (B,K,N) -> (B,M,N).
func (cpu *Backend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32("batchmatmul", a)
	requireFloat32("batchmatmul", b)

	as, bs := a.Shape(), b.Shape()
	if len(as) != 3 || len(bs) != 3 {
		panic(fmt.Sprintf("batchmatmul: expected 3D tensors, got %v @ %v", as, bs))
	}
	if as[0] != bs[0] {
		panic(fmt.Sprintf("batchmatmul: batch sizes differ: %v @ %v", as, bs))
	}
	if as[2] != bs[1] {
		panic(fmt.Sprintf("batchmatmul: inner dimensions mismatch: %v @ %v", as, bs))
	}

	batch, m, k, n := as[0], as[1], as[2], bs[2]
	out := mustNewRaw(tensor.Shape{batch, m, n}, tensor.Float32, cpu.device)

	aData, bData, outData := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
	for i := 0; i < batch; i++ {
		matmul(outData[i*m*n:(i+1)*m*n], aData[i*m*k:(i+1)*m*k], bData[i*k*n:(i+1)*k*n], m, k, n)
	}
	return out
}

// matmul computes out = a @ b with the cache-friendly ikj loop order.
func matmul(out, a, b []float32, m, k, n int) {
	for i := 0; i < m; i++ {
		outRow := out[i*n : (i+1)*n]
		for kk := 0; kk < k; kk++ {
			av := a[i*k+kk]
			if av == 0 {
				continue
			}
			bRow := b[kk*n : (kk+1)*n]
			for j := range outRow {
				outRow[j] += av * bRow[j]
			}
		}
	}
}
