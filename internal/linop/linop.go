// Package linop defines real linear operators for the iterative and direct
// solvers in linalg. An operator may be backed by an explicit matrix or by a
// matrix-free function, so large structured problems never have to
// materialize a dense matrix to be solved or diagonalized.
package linop

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Operator is a real linear operator of shape rows × cols.
//
// Constructors validate shapes and symmetry and return errors; the apply
// methods MV and MM treat mismatched operands as programmer errors and panic,
// matching the backend contract.
type Operator interface {
	// Rows returns the output dimension.
	Rows() int
	// Cols returns the input dimension.
	Cols() int
	// Hermitian reports whether the operator is symmetric. Routines that
	// require symmetry (eigendecomposition, conjugate gradient) check this
	// flag rather than probing the operator numerically.
	Hermitian() bool
	// DType returns the element type MV expects and produces.
	DType() tensor.DataType
	// MV applies the operator to a vector of shape {cols} and returns a
	// vector of shape {rows}.
	MV(x *tensor.RawTensor) *tensor.RawTensor
	// MM applies the operator to every column of a matrix of shape
	// {cols, k} and returns a matrix of shape {rows, k}.
	MM(x *tensor.RawTensor) *tensor.RawTensor
	// Dense materializes the operator as a matrix of shape {rows, cols}.
	// For matrix-free operators this costs cols applications of MV.
	Dense() *tensor.RawTensor
	// Backend returns the compute backend the operator allocates results on.
	Backend() tensor.Backend
}

func checkVec(op Operator, x *tensor.RawTensor) {
	if len(x.Shape()) != 1 || x.Shape()[0] != op.Cols() {
		panic(fmt.Sprintf("linop: MV expects vector of shape {%d}, got %v", op.Cols(), x.Shape()))
	}
}

func checkMat(op Operator, x *tensor.RawTensor) {
	if len(x.Shape()) != 2 || x.Shape()[0] != op.Cols() {
		panic(fmt.Sprintf("linop: MM expects matrix of shape {%d, k}, got %v", op.Cols(), x.Shape()))
	}
}

func mustRaw(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic("linop: " + err.Error())
	}
	return out
}

// column copies column j of a {n, k} matrix into a fresh vector of shape {n}.
func column(x *tensor.RawTensor, j int) *tensor.RawTensor {
	n, k := x.Shape()[0], x.Shape()[1]
	out := mustRaw(tensor.Shape{n}, x.DType(), x.Device())
	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), out.AsFloat32()
		for i := 0; i < n; i++ {
			dst[i] = src[i*k+j]
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), out.AsFloat64()
		for i := 0; i < n; i++ {
			dst[i] = src[i*k+j]
		}
	default:
		panic("linop: unsupported dtype " + x.DType().String())
	}
	return out
}

// setColumn writes vector v into column j of a {n, k} matrix.
func setColumn(x *tensor.RawTensor, j int, v *tensor.RawTensor) {
	n, k := x.Shape()[0], x.Shape()[1]
	switch x.DType() {
	case tensor.Float32:
		src, dst := v.AsFloat32(), x.AsFloat32()
		for i := 0; i < n; i++ {
			dst[i*k+j] = src[i]
		}
	case tensor.Float64:
		src, dst := v.AsFloat64(), x.AsFloat64()
		for i := 0; i < n; i++ {
			dst[i*k+j] = src[i]
		}
	default:
		panic("linop: unsupported dtype " + x.DType().String())
	}
}

// mmByColumns implements MM in terms of MV for matrix-free operators.
func mmByColumns(op Operator, x *tensor.RawTensor) *tensor.RawTensor {
	checkMat(op, x)
	k := x.Shape()[1]
	out := mustRaw(tensor.Shape{op.Rows(), k}, x.DType(), x.Device())
	for j := 0; j < k; j++ {
		setColumn(out, j, op.MV(column(x, j)))
	}
	return out
}

// denseByColumns materializes an operator by applying it to basis vectors.
func denseByColumns(op Operator, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	n, c := op.Rows(), op.Cols()
	out := mustRaw(tensor.Shape{n, c}, dtype, device)
	for j := 0; j < c; j++ {
		e := mustRaw(tensor.Shape{c}, dtype, device)
		switch dtype {
		case tensor.Float32:
			e.AsFloat32()[j] = 1
		case tensor.Float64:
			e.AsFloat64()[j] = 1
		}
		setColumn(out, j, op.MV(e))
	}
	return out
}
