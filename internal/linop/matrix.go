package linop

import (
	"fmt"
	"math"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Matrix is an Operator backed by an explicit dense matrix.
type Matrix struct {
	mat       *tensor.RawTensor
	backend   tensor.Backend
	hermitian bool
}

// NewMatrix wraps a dense matrix of shape {rows, cols} as an Operator.
// When hermitian is true the matrix must be square and symmetric; asymmetry
// beyond floating-point tolerance is an error, not a warning, because the
// symmetric eigensolvers silently return garbage on asymmetric input.
func NewMatrix(mat *tensor.RawTensor, backend tensor.Backend, hermitian bool) (*Matrix, error) {
	if len(mat.Shape()) != 2 {
		return nil, fmt.Errorf("linop: matrix must be 2-D, got shape %v", mat.Shape())
	}
	if !mat.DType().IsFloat() {
		return nil, fmt.Errorf("linop: matrix must be a float tensor, got %s", mat.DType())
	}
	if hermitian {
		if mat.Shape()[0] != mat.Shape()[1] {
			return nil, fmt.Errorf("linop: hermitian matrix must be square, got shape %v", mat.Shape())
		}
		if err := checkSymmetric(mat); err != nil {
			return nil, err
		}
	}
	return &Matrix{mat: mat, backend: backend, hermitian: hermitian}, nil
}

// Rows returns the output dimension.
func (m *Matrix) Rows() int { return m.mat.Shape()[0] }

// Cols returns the input dimension.
func (m *Matrix) Cols() int { return m.mat.Shape()[1] }

// Hermitian reports whether the matrix was declared symmetric.
func (m *Matrix) Hermitian() bool { return m.hermitian }

// DType returns the element type of the underlying matrix.
func (m *Matrix) DType() tensor.DataType { return m.mat.DType() }

// Backend returns the compute backend.
func (m *Matrix) Backend() tensor.Backend { return m.backend }

// Raw returns the underlying matrix without copying.
func (m *Matrix) Raw() *tensor.RawTensor { return m.mat }

// MV computes mat @ x for a vector x of shape {cols}.
func (m *Matrix) MV(x *tensor.RawTensor) *tensor.RawTensor {
	checkVec(m, x)
	col := m.backend.Reshape(x, tensor.Shape{m.Cols(), 1})
	out := m.backend.MatMul(m.mat, col)
	return m.backend.Reshape(out, tensor.Shape{m.Rows()})
}

// MM computes mat @ x for a matrix x of shape {cols, k}.
func (m *Matrix) MM(x *tensor.RawTensor) *tensor.RawTensor {
	checkMat(m, x)
	return m.backend.MatMul(m.mat, x)
}

// Dense returns a copy of the underlying matrix.
func (m *Matrix) Dense() *tensor.RawTensor {
	return m.mat.Clone()
}

func checkSymmetric(mat *tensor.RawTensor) error {
	n := mat.Shape()[0]
	var tol float64
	switch mat.DType() {
	case tensor.Float32:
		tol = 1e-5
	default:
		tol = 1e-10
	}
	at := func(i, j int) float64 {
		switch mat.DType() {
		case tensor.Float32:
			return float64(mat.AsFloat32()[i*n+j])
		default:
			return mat.AsFloat64()[i*n+j]
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := at(i, j), at(j, i)
			if math.Abs(a-b) > tol*(1+math.Abs(a)) {
				return fmt.Errorf("linop: matrix declared hermitian but [%d,%d]=%g differs from [%d,%d]=%g", i, j, a, j, i, b)
			}
		}
	}
	return nil
}
