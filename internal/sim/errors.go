package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBodies indicates a query that needs at least one body.
	ErrNoBodies = errors.New("sim: no bodies")

	// ErrInvalidBody indicates a body rejected at insertion.
	ErrInvalidBody = errors.New("sim: invalid body")

	// ErrInvalidJoint indicates a joint rejected at insertion.
	ErrInvalidJoint = errors.New("sim: invalid joint")

	// ErrIndexOutOfRange indicates a body index that was never issued.
	ErrIndexOutOfRange = errors.New("sim: body index out of range")

	// ErrInvalidParams indicates a non-positive timestep or step count.
	ErrInvalidParams = errors.New("sim: invalid parameters")

	// ErrBackend matches every failure reported by the compute backend.
	ErrBackend = errors.New("sim: compute backend failure")
)

// BackendError wraps a dispatch failure with the kernel that caused it.
// It matches ErrBackend and unwraps to the backend's own error.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("sim: backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// StepError records the tick at which a step failed.
type StepError struct {
	Tick int
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("sim: step %d (t=%.4f): %v", e.Tick, e.Time, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
