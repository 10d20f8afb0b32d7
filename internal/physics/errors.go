package physics

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShape indicates non-positive or non-finite shape dimensions.
	ErrInvalidShape = errors.New("physics: invalid shape")

	// ErrInvalidBody indicates non-finite state or a negative material
	// coefficient.
	ErrInvalidBody = errors.New("physics: invalid body")

	// ErrInvalidJoint indicates a joint that cannot be resolved as given.
	ErrInvalidJoint = errors.New("physics: invalid joint")

	// ErrUnsupportedPair indicates a shape pair with no narrow-phase detector.
	ErrUnsupportedPair = errors.New("physics: unsupported shape pair")
)

// UnsupportedPairError names the pair of kinds that had no detector.
type UnsupportedPairError struct {
	A, B Kind
}

func (e *UnsupportedPairError) Error() string {
	return fmt.Sprintf("physics: unsupported shape pair %s-%s", e.A, e.B)
}

func (e *UnsupportedPairError) Unwrap() error {
	return ErrUnsupportedPair
}
