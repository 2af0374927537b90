package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// newOrSkip creates a backend or skips when no GPU is available.
func newOrSkip(t *testing.T) *Backend {
	t.Helper()
	backend, err := New()
	if err != nil {
		t.Skipf("WebGPU not available on this system: %v", err)
	}
	t.Cleanup(backend.Close)
	return backend
}

func raw32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), data)
	return raw
}

func TestBackendInterface(t *testing.T) {
	backend := newOrSkip(t)
	var _ tensor.Backend = backend
	assert.Equal(t, "WebGPU", backend.Name())
	assert.Equal(t, tensor.WebGPU, backend.Device())
}

func TestElementwise(t *testing.T) {
	backend := newOrSkip(t)

	a := raw32(t, []float32{1, 2, 3, 4}, tensor.Shape{4})
	b := raw32(t, []float32{10, 20, 30, 40}, tensor.Shape{4})

	tests := []struct {
		name string
		op   func(x, y *tensor.RawTensor) *tensor.RawTensor
		want []float32
	}{
		{"add", backend.Add, []float32{11, 22, 33, 44}},
		{"sub", backend.Sub, []float32{-9, -18, -27, -36}},
		{"mul", backend.Mul, []float32{10, 40, 90, 160}},
		{"div", backend.Div, []float32{0.1, 0.1, 0.1, 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.op(a, b)
			assert.InDeltaSlice(t, tt.want, got.AsFloat32(), 1e-6)
		})
	}
}

func TestScalarAndUnary(t *testing.T) {
	backend := newOrSkip(t)

	x := raw32(t, []float32{1, 4, 9}, tensor.Shape{3})

	got := backend.MulScalar(x, float32(2))
	assert.InDeltaSlice(t, []float32{2, 8, 18}, got.AsFloat32(), 1e-6)

	got = backend.Sqrt(x)
	assert.InDeltaSlice(t, []float32{1, 2, 3}, got.AsFloat32(), 1e-6)

	got = backend.Neg(x)
	assert.InDeltaSlice(t, []float32{-1, -4, -9}, got.AsFloat32(), 1e-6)
}

func TestMatMul(t *testing.T) {
	backend := newOrSkip(t)

	a := raw32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := raw32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	got := backend.MatMul(a, b)
	assert.Equal(t, tensor.Shape{2, 2}, got.Shape())
	assert.InDeltaSlice(t, []float32{58, 64, 139, 154}, got.AsFloat32(), 1e-4)
}

func TestFloat64FallsBackToCPU(t *testing.T) {
	backend := newOrSkip(t)

	raw, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float64, tensor.WebGPU)
	require.NoError(t, err)
	copy(raw.AsFloat64(), []float64{1.5, 2.5})

	got := backend.AddScalar(raw, 1.0)
	assert.InDeltaSlice(t, []float64{2.5, 3.5}, got.AsFloat64(), 1e-12)
}
