package tensor

// Backend is the interface every compute backend implements. Backends carry
// out the actual arithmetic for tensor operations; the CPU backend is the
// reference implementation, the WebGPU backend offloads float32 work to the
// GPU, and the autodiff backend decorates either with gradient recording.
//
// Backend methods panic on shape or dtype misuse: these are programmer
// errors, and the public constructors validate user input before any backend
// call is reached.
type Backend interface {
	// Element-wise binary operations with broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations.
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Element-wise operations with a scalar.
	AddScalar(x *RawTensor, scalar any) *RawTensor
	SubScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor

	// Element-wise math.
	Neg(x *RawTensor) *RawTensor
	Exp(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Abs(x *RawTensor) *RawTensor

	// Reductions.
	Sum(x *RawTensor) *RawTensor    // scalar result, shape {1}
	Max(x *RawTensor) *RawTensor    // scalar result, shape {1}
	Dot(a, b *RawTensor) *RawTensor // 1-D inner product, shape {1}

	// Manipulation.
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Gather1D(x *RawTensor, index *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
