package autodiff

import (
	"github.com/scigrad-ml/scigrad/internal/autodiff/ops"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// GradientTape records operations during the forward pass and replays them
// in reverse to compute gradients (reverse-mode automatic differentiation).
type GradientTape struct {
	operations []ops.Operation
	recording  bool
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{operations: make([]ops.Operation, 0, 64)}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() { t.recording = true }

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() { t.recording = false }

// IsRecording reports whether the tape currently records operations.
func (t *GradientTape) IsRecording() bool { return t.recording }

// Record appends an operation if the tape is recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear drops all recorded operations; the recording state is preserved.
func (t *GradientTape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int { return len(t.operations) }

// Backward walks the tape in reverse from the output gradient, applying the
// chain rule and accumulating gradients for tensors used more than once.
// Returns a map from operand tensor to its accumulated gradient.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	// Gradient arithmetic must not be recorded.
	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	lastOp := t.operations[len(t.operations)-1]
	grads[lastOp.Output()] = outputGrad

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outGrad, ok := grads[op.Output()]
		if !ok {
			// No gradient flows through this operation.
			continue
		}

		inputGrads := op.Backward(outGrad, backend)
		for j, input := range op.Inputs() {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				// Keep the existing gradient intact: in-place accumulation
				// would corrupt seeds or gradients that are still referenced.
				restore := existing.ForceNonUnique()
				grads[input] = backend.Add(existing, inputGrads[j])
				restore()
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}
	return grads
}
