package compute

import (
	"errors"
	"fmt"
)

// Dispatch errors.
var (
	// ErrShapeMismatch indicates a buffer whose byte length disagrees with its
	// declared shape, or a binding list a kernel cannot accept.
	ErrShapeMismatch = errors.New("compute: buffer shape mismatch")

	// ErrBackendUnavailable indicates the requested backend cannot be
	// initialized on this machine or build.
	ErrBackendUnavailable = errors.New("compute: backend unavailable")

	// ErrUnknownKernel indicates a kernel id outside the catalog.
	ErrUnknownKernel = errors.New("compute: unknown kernel")

	// ErrUnsupportedKernel indicates a catalog kernel the backend has no
	// implementation for.
	ErrUnsupportedKernel = errors.New("compute: kernel not supported by backend")
)

// ShapeMismatchError carries the kernel and binding that failed validation.
// Binding is -1 when the binding list as a whole was rejected.
type ShapeMismatchError struct {
	Kernel  Kernel
	Binding int
	Reason  string
}

func (e *ShapeMismatchError) Error() string {
	if e.Binding < 0 {
		return fmt.Sprintf("compute: %s: %s", e.Kernel, e.Reason)
	}
	return fmt.Sprintf("compute: %s binding %d: %s", e.Kernel, e.Binding, e.Reason)
}

func (e *ShapeMismatchError) Unwrap() error {
	return ErrShapeMismatch
}

func mismatch(k Kernel, binding int, format string, args ...any) error {
	return &ShapeMismatchError{Kernel: k, Binding: binding, Reason: fmt.Sprintf(format, args...)}
}
