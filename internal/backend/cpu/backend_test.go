package cpu

import (
	"math"
	"testing"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

const epsilon = 1e-6

func newFloat64(t *testing.T, data []float64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float64, tensor.CPU)
	if err != nil {
		t.Fatalf("failed to create tensor: %v", err)
	}
	copy(raw.AsFloat64(), data)
	return raw
}

func TestAdd(t *testing.T) {
	backend := New()

	tests := []struct {
		name     string
		a, b     []float64
		sa, sb   tensor.Shape
		expected []float64
		shape    tensor.Shape
	}{
		{
			name: "same shape",
			a:    []float64{1, 2, 3, 4}, sa: tensor.Shape{2, 2},
			b: []float64{10, 20, 30, 40}, sb: tensor.Shape{2, 2},
			expected: []float64{11, 22, 33, 44}, shape: tensor.Shape{2, 2},
		},
		{
			name: "broadcast row",
			a:    []float64{1, 2, 3, 4, 5, 6}, sa: tensor.Shape{2, 3},
			b: []float64{10, 20, 30}, sb: tensor.Shape{1, 3},
			expected: []float64{11, 22, 33, 14, 25, 36}, shape: tensor.Shape{2, 3},
		},
		{
			name: "broadcast column",
			a:    []float64{1, 2, 3, 4, 5, 6}, sa: tensor.Shape{3, 2},
			b: []float64{1, 10, 100}, sb: tensor.Shape{3, 1},
			expected: []float64{2, 3, 13, 14, 105, 106}, shape: tensor.Shape{3, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newFloat64(t, tt.a, tt.sa)
			defer a.ForceNonUnique()() // exercise the non-inplace path
			b := newFloat64(t, tt.b, tt.sb)

			result := backend.Add(a, b)
			if !result.Shape().Equal(tt.shape) {
				t.Fatalf("shape = %v, want %v", result.Shape(), tt.shape)
			}
			for i, v := range result.AsFloat64() {
				if math.Abs(v-tt.expected[i]) > epsilon {
					t.Errorf("result[%d] = %f, want %f", i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestAddInplace(t *testing.T) {
	backend := New()

	a := newFloat64(t, []float64{1, 2, 3}, tensor.Shape{3})
	b := newFloat64(t, []float64{4, 5, 6}, tensor.Shape{3})

	result := backend.Add(a, b)
	if result != a {
		t.Error("expected inplace result when buffer is unique")
	}
	want := []float64{5, 7, 9}
	for i, v := range result.AsFloat64() {
		if v != want[i] {
			t.Errorf("result[%d] = %f, want %f", i, v, want[i])
		}
	}
}

func TestMatMul(t *testing.T) {
	backend := New()

	a := newFloat64(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := newFloat64(t, []float64{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	result := backend.MatMul(a, b)
	if !result.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("shape = %v, want [2 2]", result.Shape())
	}

	want := []float64{58, 64, 139, 154}
	for i, v := range result.AsFloat64() {
		if math.Abs(v-want[i]) > epsilon {
			t.Errorf("result[%d] = %f, want %f", i, v, want[i])
		}
	}
}

func TestMatMulMismatch(t *testing.T) {
	backend := New()
	a := newFloat64(t, make([]float64, 6), tensor.Shape{2, 3})
	b := newFloat64(t, make([]float64, 4), tensor.Shape{2, 2})

	defer func() {
		if recover() == nil {
			t.Error("expected panic on shape mismatch")
		}
	}()
	backend.MatMul(a, b)
}

func TestTranspose(t *testing.T) {
	backend := New()

	a := newFloat64(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	result := backend.Transpose(a)

	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", result.Shape())
	}
	want := []float64{1, 4, 2, 5, 3, 6}
	for i, v := range result.AsFloat64() {
		if v != want[i] {
			t.Errorf("result[%d] = %f, want %f", i, v, want[i])
		}
	}
}

func TestTranspose3D(t *testing.T) {
	backend := New()

	a := newFloat64(t, []float64{0, 1, 2, 3, 4, 5, 6, 7}, tensor.Shape{2, 2, 2})
	result := backend.Transpose(a, 2, 0, 1)

	if !result.Shape().Equal(tensor.Shape{2, 2, 2}) {
		t.Fatalf("shape = %v, want [2 2 2]", result.Shape())
	}
	// out[i,j,k] = in[j,k,i]
	want := []float64{0, 2, 4, 6, 1, 3, 5, 7}
	for i, v := range result.AsFloat64() {
		if v != want[i] {
			t.Errorf("result[%d] = %f, want %f", i, v, want[i])
		}
	}
}

func TestReductions(t *testing.T) {
	backend := New()

	x := newFloat64(t, []float64{3, -1, 4, 1.5}, tensor.Shape{4})

	if got := backend.Sum(x).AsFloat64()[0]; math.Abs(got-7.5) > epsilon {
		t.Errorf("Sum = %f, want 7.5", got)
	}
	if got := backend.Max(x).AsFloat64()[0]; got != 4 {
		t.Errorf("Max = %f, want 4", got)
	}

	y := newFloat64(t, []float64{1, 2, 3, 4}, tensor.Shape{4})
	if got := backend.Dot(x, y).AsFloat64()[0]; math.Abs(got-(3-2+12+6)) > epsilon {
		t.Errorf("Dot = %f, want 19", got)
	}
}

func TestScalarOps(t *testing.T) {
	backend := New()

	x := newFloat64(t, []float64{1, 2, 3}, tensor.Shape{3})
	got := backend.MulScalar(x, 2.0).AsFloat64()
	want := []float64{2, 4, 6}
	for i := range want {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("MulScalar[%d] = %f, want %f", i, got[i], want[i])
		}
	}

	got = backend.AddScalar(x, -1.0).AsFloat64()
	want = []float64{0, 1, 2}
	for i := range want {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("AddScalar[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestCat(t *testing.T) {
	backend := New()

	a := newFloat64(t, []float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := newFloat64(t, []float64{5, 6}, tensor.Shape{2, 1})

	result := backend.Cat([]*tensor.RawTensor{a, b}, 1)
	if !result.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("shape = %v, want [2 3]", result.Shape())
	}
	want := []float64{1, 2, 5, 3, 4, 6}
	for i, v := range result.AsFloat64() {
		if v != want[i] {
			t.Errorf("result[%d] = %f, want %f", i, v, want[i])
		}
	}
}

func TestCatDim0(t *testing.T) {
	backend := New()

	a := newFloat64(t, []float64{1, 2}, tensor.Shape{1, 2})
	b := newFloat64(t, []float64{3, 4, 5, 6}, tensor.Shape{2, 2})

	result := backend.Cat([]*tensor.RawTensor{a, b}, 0)
	if !result.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3 2]", result.Shape())
	}
	want := []float64{1, 2, 3, 4, 5, 6}
	for i, v := range result.AsFloat64() {
		if v != want[i] {
			t.Errorf("result[%d] = %f, want %f", i, v, want[i])
		}
	}
}

func TestGather1D(t *testing.T) {
	backend := New()

	x := newFloat64(t, []float64{10, 20, 30, 40}, tensor.Shape{4})
	idx, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int64, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(idx.AsInt64(), []int64{2, 0, 3})

	result := backend.Gather1D(x, idx)
	want := []float64{30, 10, 40}
	for i, v := range result.AsFloat64() {
		if v != want[i] {
			t.Errorf("result[%d] = %f, want %f", i, v, want[i])
		}
	}
}

func TestGather1DInt32(t *testing.T) {
	backend := New()

	x, err := tensor.NewRaw(tensor.Shape{4}, tensor.Int32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(x.AsInt32(), []int32{10, 20, 30, 40})
	idx, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int64, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(idx.AsInt64(), []int64{3, 1})

	result := backend.Gather1D(x, idx)
	want := []int32{40, 20}
	for i, v := range result.AsInt32() {
		if v != want[i] {
			t.Errorf("result[%d] = %d, want %d", i, v, want[i])
		}
	}
}

func TestUnaryOps(t *testing.T) {
	backend := New()

	x := newFloat64(t, []float64{0, 1, 4}, tensor.Shape{3})

	sqrt := backend.Sqrt(x).AsFloat64()
	for i, want := range []float64{0, 1, 2} {
		if math.Abs(sqrt[i]-want) > epsilon {
			t.Errorf("Sqrt[%d] = %f, want %f", i, sqrt[i], want)
		}
	}

	neg := backend.Neg(x).AsFloat64()
	for i, want := range []float64{0, -1, -4} {
		if neg[i] != want {
			t.Errorf("Neg[%d] = %f, want %f", i, neg[i], want)
		}
	}

	e := backend.Exp(x).AsFloat64()
	for i, v := range []float64{0, 1, 4} {
		if math.Abs(e[i]-math.Exp(v)) > epsilon {
			t.Errorf("Exp[%d] = %f, want %f", i, e[i], math.Exp(v))
		}
	}
}
