package linop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigrad-ml/scigrad/internal/backend/cpu"
	"github.com/scigrad-ml/scigrad/internal/linop"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

func raw64(t *testing.T, data []float64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	tt, err := tensor.FromSlice(data, shape, cpu.New())
	require.NoError(t, err)
	return tt.Raw()
}

func TestNewMatrixValidation(t *testing.T) {
	backend := cpu.New()

	tests := []struct {
		name      string
		data      []float64
		shape     tensor.Shape
		hermitian bool
		wantErr   bool
	}{
		{"plain rectangular", []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, false, false},
		{"symmetric declared hermitian", []float64{2, 1, 1, 3}, tensor.Shape{2, 2}, true, false},
		{"asymmetric declared hermitian", []float64{2, 1, 0, 3}, tensor.Shape{2, 2}, true, true},
		{"rectangular declared hermitian", []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, true, true},
		{"not a matrix", []float64{1, 2, 3}, tensor.Shape{3}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := linop.NewMatrix(raw64(t, tt.data, tt.shape), backend, tt.hermitian)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatrixMV(t *testing.T) {
	backend := cpu.New()
	op, err := linop.NewMatrix(raw64(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}), backend, false)
	require.NoError(t, err)

	x := raw64(t, []float64{1, 0, -1}, tensor.Shape{3})
	y := op.MV(x)

	assert.Equal(t, tensor.Shape{2}, y.Shape())
	assert.InDeltaSlice(t, []float64{-2, -2}, y.AsFloat64(), 1e-12)
}

func TestMatrixMM(t *testing.T) {
	backend := cpu.New()
	op, err := linop.NewMatrix(raw64(t, []float64{2, 0, 0, 3}, tensor.Shape{2, 2}), backend, true)
	require.NoError(t, err)

	x := raw64(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := op.MM(x)

	assert.Equal(t, tensor.Shape{2, 2}, y.Shape())
	assert.InDeltaSlice(t, []float64{2, 4, 9, 12}, y.AsFloat64(), 1e-12)
}

func TestMatrixMVShapeMismatchPanics(t *testing.T) {
	backend := cpu.New()
	op, err := linop.NewMatrix(raw64(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2}), backend, false)
	require.NoError(t, err)

	assert.Panics(t, func() {
		op.MV(raw64(t, []float64{1, 2, 3}, tensor.Shape{3}))
	})
}

func TestFuncOperator(t *testing.T) {
	backend := cpu.New()

	// Matrix-free diagonal operator diag(1, 2, 3).
	diag := []float64{1, 2, 3}
	op, err := linop.NewFunc(3, 3, true, tensor.Float64, backend, func(x *tensor.RawTensor) *tensor.RawTensor {
		out, _ := tensor.NewRaw(tensor.Shape{3}, tensor.Float64, tensor.CPU)
		in := x.AsFloat64()
		for i, d := range diag {
			out.AsFloat64()[i] = d * in[i]
		}
		return out
	})
	require.NoError(t, err)

	y := op.MV(raw64(t, []float64{1, 1, 1}, tensor.Shape{3}))
	assert.InDeltaSlice(t, []float64{1, 2, 3}, y.AsFloat64(), 1e-12)

	dense := op.Dense()
	assert.Equal(t, tensor.Shape{3, 3}, dense.Shape())
	assert.InDeltaSlice(t, []float64{1, 0, 0, 0, 2, 0, 0, 0, 3}, dense.AsFloat64(), 1e-12)

	ym := op.MM(raw64(t, []float64{1, 4, 2, 5, 3, 6}, tensor.Shape{3, 2}))
	assert.InDeltaSlice(t, []float64{1, 4, 4, 10, 9, 18}, ym.AsFloat64(), 1e-12)
}

func TestFuncValidation(t *testing.T) {
	backend := cpu.New()
	mv := func(x *tensor.RawTensor) *tensor.RawTensor { return x.Clone() }

	_, err := linop.NewFunc(2, 3, true, tensor.Float64, backend, mv)
	assert.Error(t, err, "hermitian must be square")

	_, err = linop.NewFunc(0, 0, false, tensor.Float64, backend, mv)
	assert.Error(t, err)

	_, err = linop.NewFunc(3, 3, false, tensor.Int64, backend, mv)
	assert.Error(t, err)

	_, err = linop.NewFunc(3, 3, false, tensor.Float64, backend, nil)
	assert.Error(t, err)
}

func TestIdentity(t *testing.T) {
	backend := cpu.New()
	id := linop.NewIdentity(3, tensor.Float64, backend)

	assert.True(t, id.Hermitian())

	x := raw64(t, []float64{4, 5, 6}, tensor.Shape{3})
	assert.Equal(t, []float64{4, 5, 6}, id.MV(x).AsFloat64())

	dense := id.Dense()
	assert.InDeltaSlice(t, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, dense.AsFloat64(), 0)
}

func TestScaleAndAdd(t *testing.T) {
	backend := cpu.New()
	a, err := linop.NewMatrix(raw64(t, []float64{1, 2, 2, 5}, tensor.Shape{2, 2}), backend, true)
	require.NoError(t, err)

	// A - 3*I
	shifted, err := linop.Add(a, linop.Scale(linop.NewIdentity(2, tensor.Float64, backend), -3))
	require.NoError(t, err)

	assert.True(t, shifted.Hermitian())

	x := raw64(t, []float64{1, 1}, tensor.Shape{2})
	y := shifted.MV(x)
	assert.InDeltaSlice(t, []float64{0, 4}, y.AsFloat64(), 1e-12)

	dense := shifted.Dense()
	assert.InDeltaSlice(t, []float64{-2, 2, 2, 2}, dense.AsFloat64(), 1e-12)
}

func TestAddShapeMismatch(t *testing.T) {
	backend := cpu.New()
	a, err := linop.NewMatrix(raw64(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}), backend, false)
	require.NoError(t, err)

	_, err = linop.Add(a, linop.NewIdentity(2, tensor.Float64, backend))
	assert.Error(t, err)
}
