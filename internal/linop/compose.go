package linop

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Identity is the n × n identity operator. It shows up as the default
// overlap matrix in generalized eigenvalue problems.
type Identity struct {
	n       int
	dtype   tensor.DataType
	backend tensor.Backend
}

// NewIdentity returns the identity operator of size n.
func NewIdentity(n int, dtype tensor.DataType, backend tensor.Backend) *Identity {
	return &Identity{n: n, dtype: dtype, backend: backend}
}

func (id *Identity) Rows() int               { return id.n }
func (id *Identity) Cols() int               { return id.n }
func (id *Identity) Hermitian() bool         { return true }
func (id *Identity) DType() tensor.DataType  { return id.dtype }
func (id *Identity) Backend() tensor.Backend { return id.backend }

// MV returns a copy of x.
func (id *Identity) MV(x *tensor.RawTensor) *tensor.RawTensor {
	checkVec(id, x)
	return x.Clone()
}

// MM returns a copy of x.
func (id *Identity) MM(x *tensor.RawTensor) *tensor.RawTensor {
	checkMat(id, x)
	return x.Clone()
}

// Dense returns the identity matrix.
func (id *Identity) Dense() *tensor.RawTensor {
	out := mustRaw(tensor.Shape{id.n, id.n}, id.dtype, id.backend.Device())
	switch id.dtype {
	case tensor.Float32:
		data := out.AsFloat32()
		for i := 0; i < id.n; i++ {
			data[i*id.n+i] = 1
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i := 0; i < id.n; i++ {
			data[i*id.n+i] = 1
		}
	}
	return out
}

// Scaled is an operator multiplied by a scalar.
type Scaled struct {
	op    Operator
	scale float64
}

// Scale returns s * op.
func Scale(op Operator, s float64) *Scaled {
	return &Scaled{op: op, scale: s}
}

func (s *Scaled) Rows() int               { return s.op.Rows() }
func (s *Scaled) Cols() int               { return s.op.Cols() }
func (s *Scaled) Hermitian() bool         { return s.op.Hermitian() }
func (s *Scaled) DType() tensor.DataType  { return s.op.DType() }
func (s *Scaled) Backend() tensor.Backend { return s.op.Backend() }

func (s *Scaled) MV(x *tensor.RawTensor) *tensor.RawTensor {
	return s.op.Backend().MulScalar(s.op.MV(x), s.scale)
}

func (s *Scaled) MM(x *tensor.RawTensor) *tensor.RawTensor {
	return s.op.Backend().MulScalar(s.op.MM(x), s.scale)
}

func (s *Scaled) Dense() *tensor.RawTensor {
	return s.op.Backend().MulScalar(s.op.Dense(), s.scale)
}

// Sum is the pointwise sum of two operators of equal shape. A + s*I built
// from Sum and Scale gives shifted operators for free, which the iterative
// solvers rely on.
type Sum struct {
	a, b Operator
}

// Add returns a + b. The operators must have equal shapes.
func Add(a, b Operator) (*Sum, error) {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return nil, fmt.Errorf("linop: cannot add operators of shapes {%d, %d} and {%d, %d}",
			a.Rows(), a.Cols(), b.Rows(), b.Cols())
	}
	return &Sum{a: a, b: b}, nil
}

func (s *Sum) Rows() int               { return s.a.Rows() }
func (s *Sum) Cols() int               { return s.a.Cols() }
func (s *Sum) Hermitian() bool         { return s.a.Hermitian() && s.b.Hermitian() }
func (s *Sum) DType() tensor.DataType  { return s.a.DType() }
func (s *Sum) Backend() tensor.Backend { return s.a.Backend() }

func (s *Sum) MV(x *tensor.RawTensor) *tensor.RawTensor {
	return s.a.Backend().Add(s.a.MV(x), s.b.MV(x))
}

func (s *Sum) MM(x *tensor.RawTensor) *tensor.RawTensor {
	return s.a.Backend().Add(s.a.MM(x), s.b.MM(x))
}

func (s *Sum) Dense() *tensor.RawTensor {
	return s.a.Backend().Add(s.a.Dense(), s.b.Dense())
}
