package linop

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Func is a matrix-free Operator defined by a function that applies the
// operator to a vector. Dense and MM fall back to repeated MV, so Func is
// only worthwhile when the matrix itself is too large or too structured to
// build.
type Func struct {
	rows, cols int
	hermitian  bool
	dtype      tensor.DataType
	backend    tensor.Backend
	mv         func(x *tensor.RawTensor) *tensor.RawTensor
}

// NewFunc wraps a vector-apply function as an Operator of shape
// {rows, cols}. dtype declares the element type MV expects and produces.
func NewFunc(rows, cols int, hermitian bool, dtype tensor.DataType, backend tensor.Backend, mv func(x *tensor.RawTensor) *tensor.RawTensor) (*Func, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("linop: invalid operator shape {%d, %d}", rows, cols)
	}
	if hermitian && rows != cols {
		return nil, fmt.Errorf("linop: hermitian operator must be square, got shape {%d, %d}", rows, cols)
	}
	if !dtype.IsFloat() {
		return nil, fmt.Errorf("linop: operator dtype must be float, got %s", dtype)
	}
	if mv == nil {
		return nil, fmt.Errorf("linop: mv function must not be nil")
	}
	return &Func{rows: rows, cols: cols, hermitian: hermitian, dtype: dtype, backend: backend, mv: mv}, nil
}

// Rows returns the output dimension.
func (f *Func) Rows() int { return f.rows }

// Cols returns the input dimension.
func (f *Func) Cols() int { return f.cols }

// Hermitian reports whether the operator was declared symmetric.
func (f *Func) Hermitian() bool { return f.hermitian }

// DType returns the declared element type.
func (f *Func) DType() tensor.DataType { return f.dtype }

// Backend returns the compute backend.
func (f *Func) Backend() tensor.Backend { return f.backend }

// MV applies the wrapped function to x.
func (f *Func) MV(x *tensor.RawTensor) *tensor.RawTensor {
	checkVec(f, x)
	out := f.mv(x)
	if len(out.Shape()) != 1 || out.Shape()[0] != f.rows {
		panic(fmt.Sprintf("linop: mv returned shape %v, want {%d}", out.Shape(), f.rows))
	}
	return out
}

// MM applies the operator column by column.
func (f *Func) MM(x *tensor.RawTensor) *tensor.RawTensor {
	return mmByColumns(f, x)
}

// Dense materializes the operator with cols applications of MV.
func (f *Func) Dense() *tensor.RawTensor {
	return denseByColumns(f, f.dtype, f.backend.Device())
}
