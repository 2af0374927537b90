package optimize

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/scigrad-ml/scigrad/internal/autodiff"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Stepper applies one parameter update given the current gradient.
// Implementations mutate x in place and may keep per-slot state, so a
// Stepper must not be shared between Minimize calls.
type Stepper interface {
	Step(x, grad []float64)
}

// GDConfig holds configuration for gradient descent.
type GDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// GradientDescent implements plain gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	x = x - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	x = x - lr * velocity
type GradientDescent struct {
	lr       float64
	momentum float64
	velocity []float64
}

// NewGradientDescent creates a gradient descent stepper.
func NewGradientDescent(config GDConfig) *GradientDescent {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &GradientDescent{lr: config.LR, momentum: config.Momentum}
}

func (s *GradientDescent) Step(x, grad []float64) {
	if s.momentum == 0 {
		for i := range x {
			x[i] -= s.lr * grad[i]
		}
		return
	}
	if s.velocity == nil {
		s.velocity = make([]float64, len(x))
	}
	for i := range x {
		s.velocity[i] = s.momentum*s.velocity[i] + grad[i]
		x[i] -= s.lr * s.velocity[i]
	}
}

// AdamConfig holds configuration for the Adam stepper.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for the running moment averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// Adam implements the Adam update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)
//	x = x - lr * m_hat / (sqrt(v_hat) + eps)
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	t     int
	m     []float64
	v     []float64
}

// NewAdam creates an Adam stepper with defaults filled in.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{lr: config.LR, beta1: config.Betas[0], beta2: config.Betas[1], eps: config.Eps}
}

func (a *Adam) Step(x, grad []float64) {
	if a.m == nil {
		a.m = make([]float64, len(x))
		a.v = make([]float64, len(x))
	}
	a.t++
	biasCorrection1 := 1 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1 - math.Pow(a.beta2, float64(a.t))
	for i := range x {
		g := grad[i]
		a.m[i] = a.beta1*a.m[i] + (1-a.beta1)*g
		a.v[i] = a.beta2*a.v[i] + (1-a.beta2)*g*g
		mHat := a.m[i] / biasCorrection1
		vHat := a.v[i] / biasCorrection2
		x[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
}

// MinimizeOptions configures Minimize.
type MinimizeOptions struct {
	// Stepper performs the parameter updates (default: NewAdam with defaults).
	Stepper Stepper
	// MaxIter caps the number of gradient steps (default 500).
	MaxIter int
	// GradTol stops the iteration once the max-norm of the gradient
	// drops below it (default 1e-7).
	GradTol float64
	// Logger receives per-iteration diagnostics (default no-op).
	Logger *zap.Logger
}

func (o *MinimizeOptions) withDefaults() MinimizeOptions {
	opts := MinimizeOptions{}
	if o != nil {
		opts = *o
	}
	if opts.Stepper == nil {
		opts.Stepper = NewAdam(AdamConfig{})
	}
	if opts.MaxIter == 0 {
		opts.MaxIter = 500
	}
	if opts.GradTol == 0 {
		opts.GradTol = 1e-7
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

// Minimize drives f toward a local minimum starting from x0. The backend
// must carry a gradient tape; each iteration re-records f(x) on it and
// backpropagates to obtain the gradient of the scalar objective with
// respect to x. The tape is cleared on every iteration and left empty,
// with recording turned off, when Minimize returns.
//
// f must build its result through backend operations on x so that the
// tape can reach it, and must return a single-element tensor.
func Minimize(
	f func(x *tensor.RawTensor) (*tensor.RawTensor, error),
	x0 *tensor.RawTensor,
	backend tensor.Backend,
	o *MinimizeOptions,
) (*tensor.RawTensor, error) {
	opts := o.withDefaults()

	bc, ok := backend.(autodiff.BackwardCapable)
	if !ok {
		return nil, fmt.Errorf("optimize: backend %s does not support automatic differentiation", backend.Name())
	}
	if x0 == nil || x0.DType() != tensor.Float64 {
		return nil, fmt.Errorf("optimize: x0 must be a float64 tensor")
	}

	tape := bc.GetTape()
	// Clone shares the buffer, but the stepper writes x in place through
	// the float64 view; materialize a private copy so x0 stays intact.
	x, err := materialize(x0)
	if err != nil {
		return nil, err
	}

	for iter := 0; iter < opts.MaxIter; iter++ {
		tape.Clear()
		tape.StartRecording()
		loss, err := f(x)
		tape.StopRecording()
		if err != nil {
			tape.Clear()
			return nil, err
		}
		if loss.Shape().NumElements() != 1 || loss.DType() != tensor.Float64 {
			tape.Clear()
			return nil, fmt.Errorf("optimize: objective must return a float64 scalar, got %v %v", loss.DType(), loss.Shape())
		}

		seed, err := tensor.NewRaw(loss.Shape(), tensor.Float64, loss.Device())
		if err != nil {
			tape.Clear()
			return nil, err
		}
		seed.AsFloat64()[0] = 1
		grads := tape.Backward(seed, backend)
		tape.Clear()

		grad := grads[x]
		if grad == nil {
			return nil, fmt.Errorf("optimize: objective does not depend on x")
		}

		g := grad.AsFloat64()
		gradNorm := normInf(g)
		opts.Logger.Debug("minimize iteration",
			zap.Int("iter", iter),
			zap.Float64("loss", loss.AsFloat64()[0]),
			zap.Float64("grad_norm", gradNorm))
		if gradNorm < opts.GradTol {
			return x, nil
		}

		opts.Stepper.Step(x.AsFloat64(), g)
	}

	opts.Logger.Warn("minimize did not converge",
		zap.Int("max_iter", opts.MaxIter),
		zap.Float64("grad_tol", opts.GradTol))
	return x, nil
}

// materialize copies t into a freshly allocated buffer so in-place writes
// cannot reach the source through the shared copy-on-write buffer.
func materialize(t *tensor.RawTensor) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		return nil, err
	}
	copy(out.Data(), t.Data())
	return out, nil
}
