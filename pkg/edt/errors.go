package edt

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidInputKind is returned when the input volume is not a binary
	// (bit representation) volume, or holds samples other than 0 and 1.
	ErrInvalidInputKind = errors.New("input volume must be of bit representation")

	// ErrInvalidOutputKind is returned for an output kind that is neither
	// ScaledFixedPoint nor FloatingPoint.
	ErrInvalidOutputKind = errors.New("output kind must be either scaled fixed point or floating point")

	// ErrAllocation is returned when the output or scratch buffers cannot be
	// sized to the input dimensions.
	ErrAllocation = errors.New("cannot allocate distance buffers")

	// ErrDimensionMismatch is returned when the volume's sample count does
	// not match its declared dimensions.
	ErrDimensionMismatch = errors.New("volume data does not match its dimensions")
)
