package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigrad-ml/scigrad/internal/autodiff"
	"github.com/scigrad-ml/scigrad/internal/backend/cpu"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

func TestTapeRecording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()

	x, err := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, backend)
	require.NoError(t, err)
	y, err := tensor.FromSlice([]float64{4, 5, 6}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	// Nothing is recorded until StartRecording.
	backend.Add(x.Raw(), y.Raw())
	assert.Equal(t, 0, tape.NumOps())

	tape.StartRecording()
	backend.Add(x.Raw(), y.Raw())
	backend.Mul(x.Raw(), y.Raw())
	assert.Equal(t, 2, tape.NumOps())

	tape.StopRecording()
	backend.Sub(x.Raw(), y.Raw())
	assert.Equal(t, 2, tape.NumOps())

	tape.Clear()
	assert.Equal(t, 0, tape.NumOps())
}

func TestBackwardAdd(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, backend)
	y, _ := tensor.FromSlice([]float64{4, 5, 6}, tensor.Shape{3}, backend)

	z := backend.Add(x.Raw(), y.Raw())
	result := tensor.New[float64](z, backend)

	grads := autodiff.Backward(result, backend)

	require.Contains(t, grads, x.Raw())
	require.Contains(t, grads, y.Raw())
	assert.Equal(t, []float64{1, 1, 1}, grads[x.Raw()].AsFloat64())
	assert.Equal(t, []float64{1, 1, 1}, grads[y.Raw()].AsFloat64())
}

func TestBackwardMul(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, backend)
	y, _ := tensor.FromSlice([]float64{4, 5, 6}, tensor.Shape{3}, backend)

	z := backend.Mul(x.Raw(), y.Raw())
	result := tensor.New[float64](z, backend)

	grads := autodiff.Backward(result, backend)

	// d(x*y)/dx = y, d(x*y)/dy = x
	assert.Equal(t, []float64{4, 5, 6}, grads[x.Raw()].AsFloat64())
	assert.Equal(t, []float64{1, 2, 3}, grads[y.Raw()].AsFloat64())
}

func TestBackwardMatMul(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	b, _ := tensor.FromSlice([]float64{5, 6, 7, 8}, tensor.Shape{2, 2}, backend)

	c := backend.MatMul(a.Raw(), b.Raw())
	result := tensor.New[float64](c, backend)

	grads := autodiff.Backward(result, backend)

	// With seed G = ones: grad_A = G @ Bᵀ, grad_B = Aᵀ @ G.
	assert.InDeltaSlice(t, []float64{11, 15, 11, 15}, grads[a.Raw()].AsFloat64(), 1e-12)
	assert.InDeltaSlice(t, []float64{4, 4, 6, 6}, grads[b.Raw()].AsFloat64(), 1e-12)
}

func TestBackwardBroadcast(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	row, _ := tensor.FromSlice([]float64{10, 20, 30}, tensor.Shape{3}, backend)

	z := backend.Add(a.Raw(), row.Raw())
	result := tensor.New[float64](z, backend)

	grads := autodiff.Backward(result, backend)

	// The broadcast operand's gradient is reduced back to its shape.
	require.Contains(t, grads, row.Raw())
	assert.Equal(t, tensor.Shape{3}, grads[row.Raw()].Shape())
	assert.Equal(t, []float64{2, 2, 2}, grads[row.Raw()].AsFloat64())
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1}, grads[a.Raw()].AsFloat64())
}

func TestBackwardAccumulation(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float64{3}, tensor.Shape{1}, backend)

	// y = x*x + x, dy/dx = 2x + 1 = 7. x contributes through two paths so
	// its gradient must accumulate.
	sq := backend.Mul(x.Raw(), x.Raw())
	y := backend.Add(sq, x.Raw())
	result := tensor.New[float64](y, backend)

	grads := autodiff.Backward(result, backend)
	assert.InDelta(t, 7.0, grads[x.Raw()].AsFloat64()[0], 1e-12)
}

func TestBackwardSum(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)

	s := backend.Sum(x.Raw())
	result := tensor.New[float64](s, backend)

	grads := autodiff.Backward(result, backend)
	assert.Equal(t, tensor.Shape{2, 2}, grads[x.Raw()].Shape())
	assert.Equal(t, []float64{1, 1, 1, 1}, grads[x.Raw()].AsFloat64())
}

func TestBackwardDot(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, backend)
	b, _ := tensor.FromSlice([]float64{4, 5, 6}, tensor.Shape{3}, backend)

	d := backend.Dot(a.Raw(), b.Raw())
	result := tensor.New[float64](d, backend)

	grads := autodiff.Backward(result, backend)
	assert.Equal(t, []float64{4, 5, 6}, grads[a.Raw()].AsFloat64())
	assert.Equal(t, []float64{1, 2, 3}, grads[b.Raw()].AsFloat64())
}

func TestBackwardTranspose(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	w, _ := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2}, backend)

	at := backend.Transpose(a.Raw())
	c := backend.Mul(at, w.Raw())
	result := tensor.New[float64](c, backend)

	grads := autodiff.Backward(result, backend)

	// Gradient flows back through the inverse permutation to the original.
	require.Contains(t, grads, a.Raw())
	assert.Equal(t, tensor.Shape{2, 3}, grads[a.Raw()].Shape())
	assert.Equal(t, []float64{1, 3, 5, 2, 4, 6}, grads[a.Raw()].AsFloat64())
}

func TestBackwardGather(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float64{10, 20, 30, 40}, tensor.Shape{4}, backend)
	idx, _ := tensor.FromSlice([]int64{1, 3, 1}, tensor.Shape{3}, backend)

	g := backend.Gather1D(x.Raw(), idx.Raw())
	result := tensor.New[float64](g, backend)

	grads := autodiff.Backward(result, backend)

	// Repeated indices scatter-add.
	assert.Equal(t, []float64{0, 2, 0, 1}, grads[x.Raw()].AsFloat64())
}

func TestBackwardCat(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	a, _ := tensor.FromSlice([]float64{1, 2}, tensor.Shape{2}, backend)
	b, _ := tensor.FromSlice([]float64{3, 4, 5}, tensor.Shape{3}, backend)

	c := backend.Cat([]*tensor.RawTensor{a.Raw(), b.Raw()}, 0)
	w, _ := tensor.FromSlice([]float64{1, 2, 3, 4, 5}, tensor.Shape{5}, backend)
	y := backend.Mul(c, w.Raw())
	result := tensor.New[float64](y, backend)

	grads := autodiff.Backward(result, backend)

	assert.Equal(t, []float64{1, 2}, grads[a.Raw()].AsFloat64())
	assert.Equal(t, []float64{3, 4, 5}, grads[b.Raw()].AsFloat64())
}

func TestBackwardMaxNotRecorded(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	x, _ := tensor.FromSlice([]float64{1, 5, 3}, tensor.Shape{3}, backend)
	backend.Max(x.Raw())

	assert.Equal(t, 0, tape.NumOps())
}

func TestRecordedOperandsNotMutated(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float64{1, 2, 3}, tensor.Shape{3}, backend)
	y, _ := tensor.FromSlice([]float64{4, 5, 6}, tensor.Shape{3}, backend)

	z := backend.Add(x.Raw(), y.Raw())

	// The wrapped backend must not reuse x's buffer in place while the tape
	// holds a reference to it.
	assert.Equal(t, []float64{1, 2, 3}, x.Raw().AsFloat64())
	assert.Equal(t, []float64{5, 7, 9}, z.AsFloat64())
}
