package interp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/scigrad-ml/scigrad/internal/autodiff"
	"github.com/scigrad-ml/scigrad/internal/backend/cpu"
	"github.com/scigrad-ml/scigrad/internal/interp"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

func raw64(t *testing.T, data []float64) *tensor.RawTensor {
	t.Helper()
	tt, err := tensor.FromSlice(data, tensor.Shape{len(data)}, cpu.New())
	require.NoError(t, err)
	return tt.Raw()
}

var (
	gridX = []float64{0, 0.5, 1.2, 2.0, 3.5, 4.0}
	gridY = []float64{1.0, 0.2, -0.5, 1.5, 2.0, 0.3}
)

func TestCubicSplineKnots(t *testing.T) {
	s, err := interp.NewCubicSpline1D(raw64(t, gridX), cpu.New(), nil)
	require.NoError(t, err)

	yq, err := s.EvalWith(raw64(t, gridX), raw64(t, gridY))
	require.NoError(t, err)
	assert.InDeltaSlice(t, gridY, yq.AsFloat64(), 1e-12, "spline must reproduce the samples at the knots")
}

func TestCubicSplineLinearData(t *testing.T) {
	// A natural spline reproduces affine data exactly, including outside
	// the grid where the edge polynomials extrapolate.
	y := make([]float64, len(gridX))
	for i, v := range gridX {
		y[i] = 2*v + 1
	}

	s, err := interp.NewCubicSpline1D(raw64(t, gridX), cpu.New(), nil)
	require.NoError(t, err)

	xq := []float64{-1, 0.25, 0.9, 1.7, 3.9, 5.5}
	yq, err := s.EvalWith(raw64(t, xq), raw64(t, y))
	require.NoError(t, err)

	for q, v := range xq {
		assert.InDelta(t, 2*v+1, yq.AsFloat64()[q], 1e-10, "query %d", q)
	}
}

func TestCubicSplinePathsAgree(t *testing.T) {
	s, err := interp.NewCubicSpline1D(raw64(t, gridX), cpu.New(), nil)
	require.NoError(t, err)

	sparse := []float64{0.3, 2.7}
	dense := []float64{0.3, 2.7, 0.1, 0.6, 1.0, 1.5, 2.2, 3.0, 3.6, 3.9}

	yqSparse, err := s.EvalWith(raw64(t, sparse), raw64(t, gridY))
	require.NoError(t, err)
	yqDense, err := s.EvalWith(raw64(t, dense), raw64(t, gridY))
	require.NoError(t, err)

	// The Hermite and coefficient paths must describe the same polynomial.
	assert.InDelta(t, yqDense.AsFloat64()[0], yqSparse.AsFloat64()[0], 1e-12)
	assert.InDelta(t, yqDense.AsFloat64()[1], yqSparse.AsFloat64()[1], 1e-12)
}

func TestCubicSplineManyQueries(t *testing.T) {
	// Enough points to push both evaluation paths through the chunked
	// parallel loop; affine data keeps the expected values exact.
	n := 300
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = 0.1 * float64(i)
		y[i] = 2*x[i] + 1
	}

	s, err := interp.NewCubicSpline1D(raw64(t, x), cpu.New(), nil)
	require.NoError(t, err)

	sparseQ := make([]float64, 128) // fewer queries than knots: Hermite path
	for q := range sparseQ {
		sparseQ[q] = 0.23 * float64(q)
	}
	denseQ := make([]float64, 600) // more queries than knots: coefficient path
	for q := range denseQ {
		denseQ[q] = 0.05 * float64(q)
	}

	ys, err := s.EvalWith(raw64(t, sparseQ), raw64(t, y))
	require.NoError(t, err)
	for q, v := range sparseQ {
		require.InDelta(t, 2*v+1, ys.AsFloat64()[q], 1e-9, "sparse query %d", q)
	}

	yd, err := s.EvalWith(raw64(t, denseQ), raw64(t, y))
	require.NoError(t, err)
	for q, v := range denseQ {
		require.InDelta(t, 2*v+1, yd.AsFloat64()[q], 1e-9, "dense query %d", q)
	}
}

func TestCubicSplineConstructorY(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s, err := interp.NewCubicSpline1D(raw64(t, gridX), cpu.New(), &interp.SplineOptions{
		Y:      raw64(t, gridY),
		Logger: zap.New(core),
	})
	require.NoError(t, err)

	xq := raw64(t, []float64{0.7, 2.5})
	want, err := s.Eval(xq)
	require.NoError(t, err)

	// The construction-time y wins and the override is reported.
	other := make([]float64, len(gridY))
	got, err := s.EvalWith(xq, raw64(t, other))
	require.NoError(t, err)

	assert.Equal(t, want.AsFloat64(), got.AsFloat64())
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "ignored")
}

func TestCubicSplineValidation(t *testing.T) {
	backend := cpu.New()
	x := raw64(t, gridX)

	t.Run("unsupported boundary condition", func(t *testing.T) {
		_, err := interp.NewCubicSpline1D(x, backend, &interp.SplineOptions{BCType: "clamped"})
		assert.ErrorContains(t, err, "natural")
	})

	t.Run("non-increasing x", func(t *testing.T) {
		_, err := interp.NewCubicSpline1D(raw64(t, []float64{0, 1, 1}), backend, nil)
		assert.ErrorContains(t, err, "strictly increasing")
	})

	t.Run("too few points", func(t *testing.T) {
		_, err := interp.NewCubicSpline1D(raw64(t, []float64{0}), backend, nil)
		assert.Error(t, err)
	})

	t.Run("missing y", func(t *testing.T) {
		s, err := interp.NewCubicSpline1D(x, backend, nil)
		require.NoError(t, err)
		_, err = s.Eval(raw64(t, []float64{0.5}))
		assert.ErrorContains(t, err, "y must be given")
	})

	t.Run("y shape mismatch", func(t *testing.T) {
		s, err := interp.NewCubicSpline1D(x, backend, nil)
		require.NoError(t, err)
		_, err = s.EvalWith(raw64(t, []float64{0.5}), raw64(t, []float64{1, 2}))
		assert.ErrorContains(t, err, "match the grid")
	})
}

func TestCubicSplineGrad(t *testing.T) {
	xq := []float64{0.3, 1.0, 2.6, 3.8}

	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	y, err := tensor.FromSlice(gridY, tensor.Shape{len(gridY)}, backend)
	require.NoError(t, err)

	s, err := interp.NewCubicSpline1D(raw64(t, gridX), backend, nil)
	require.NoError(t, err)

	yq, err := s.EvalWith(raw64(t, xq), y.Raw())
	require.NoError(t, err)

	loss := backend.Sum(yq)
	grads := autodiff.Backward(tensor.New[float64](loss, backend), backend)

	grad := grads[y.Raw()]
	require.NotNil(t, grad, "gradient must reach y")
	g := grad.AsFloat64()

	f := func(yv []float64) float64 {
		plain, err := interp.NewCubicSpline1D(raw64(t, gridX), cpu.New(), nil)
		require.NoError(t, err)
		out, err := plain.EvalWith(raw64(t, xq), raw64(t, yv))
		require.NoError(t, err)
		sum := 0.0
		for _, v := range out.AsFloat64() {
			sum += v
		}
		return sum
	}

	const eps = 1e-6
	for i := range gridY {
		plus := append([]float64(nil), gridY...)
		minus := append([]float64(nil), gridY...)
		plus[i] += eps
		minus[i] -= eps
		numerical := (f(plus) - f(minus)) / (2 * eps)
		assert.InDelta(t, numerical, g[i], 1e-7, "grad_y entry %d", i)
	}
}

func TestLinear1D(t *testing.T) {
	l, err := interp.NewLinear1D(raw64(t, gridX), cpu.New())
	require.NoError(t, err)

	t.Run("knots", func(t *testing.T) {
		yq, err := l.Eval(raw64(t, gridX), raw64(t, gridY))
		require.NoError(t, err)
		assert.InDeltaSlice(t, gridY, yq.AsFloat64(), 1e-12)
	})

	t.Run("midpoints", func(t *testing.T) {
		yq, err := l.Eval(raw64(t, []float64{0.25, 1.6}), raw64(t, gridY))
		require.NoError(t, err)
		assert.InDelta(t, (gridY[0]+gridY[1])/2, yq.AsFloat64()[0], 1e-12)
		assert.InDelta(t, (gridY[2]+gridY[3])/2, yq.AsFloat64()[1], 1e-12)
	})

	t.Run("extrapolation", func(t *testing.T) {
		yq, err := l.Eval(raw64(t, []float64{-0.5}), raw64(t, gridY))
		require.NoError(t, err)
		slope := (gridY[1] - gridY[0]) / (gridX[1] - gridX[0])
		assert.InDelta(t, gridY[0]-0.5*slope, yq.AsFloat64()[0], 1e-12)
	})
}

func TestLinear1DGrad(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	y, err := tensor.FromSlice(gridY, tensor.Shape{len(gridY)}, backend)
	require.NoError(t, err)

	l, err := interp.NewLinear1D(raw64(t, gridX), backend)
	require.NoError(t, err)

	// 0.25 sits halfway through [0, 0.5], so the weight splits evenly.
	yq, err := l.Eval(raw64(t, []float64{0.25}), y.Raw())
	require.NoError(t, err)

	loss := backend.Sum(yq)
	grads := autodiff.Backward(tensor.New[float64](loss, backend), backend)

	grad := grads[y.Raw()]
	require.NotNil(t, grad)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0, 0, 0, 0}, grad.AsFloat64(), 1e-12)
}
