package tensor

// Backend defines the interface that compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - cpu: pure Go kernels, the only compute backend
//   - trace: decorator that records every invocation into a Program
//     while delegating computation to an inner backend
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations.
	// MatMul: (M,K) @ (K,N) -> (M,N)
	// BatchMatMul: (B,M,K) @ (B,K,N) -> (B,M,N)
	MatMul(a, b *RawTensor) *RawTensor
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Conv2D convolves (N,Cin,H,W) with (Cout,Cin,Kh,Kw).
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor

	// Interpolate2D resizes the spatial dimensions of an (N,C,H,W)
	// tensor to (outH,outW) using bilinear sampling without corner
	// alignment.
	Interpolate2D(x *RawTensor, outH, outW int) *RawTensor

	// Scalar operations.
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor

	// Element-wise math.
	Tan(x *RawTensor) *RawTensor
	Reciprocal(x *RawTensor) *RawTensor
	Clamp(x *RawTensor, lo, hi float64) *RawTensor
	Relu(x *RawTensor) *RawTensor

	// Softmax along a dimension.
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reductions.
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Shape and layout operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Narrow(t *RawTensor, dim, start, length int) *RawTensor
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Unsqueeze(t *RawTensor, dim int) *RawTensor
	Squeeze(t *RawTensor, dim int) *RawTensor

	// Type conversion.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
