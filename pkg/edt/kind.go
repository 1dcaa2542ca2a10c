package edt

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// OutputKind selects the numeric representation of a distance field.
type OutputKind int

const (
	// ScaledFixedPoint stores round(10 * distance) as int16, saturating at
	// math.MaxInt16.
	ScaledFixedPoint OutputKind = iota + 1

	// FloatingPoint stores the distance as float32.
	FloatingPoint
)

// FixedPointScale is the factor applied to distances in ScaledFixedPoint
// fields.
const FixedPointScale = 10

func (k OutputKind) String() string {
	switch k {
	case ScaledFixedPoint:
		return "short"
	case FloatingPoint:
		return "float"
	default:
		return fmt.Sprintf("OutputKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the supported kinds.
func (k OutputKind) Valid() bool {
	return k == ScaledFixedPoint || k == FloatingPoint
}

// ParseOutputKind maps a configuration or command line name onto an
// OutputKind. Accepted names are "short"/"fixed" and "float".
func ParseOutputKind(s string) (OutputKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short", "fixed", "fixedpoint", "scaled":
		return ScaledFixedPoint, nil
	case "float", "float32", "floatingpoint":
		return FloatingPoint, nil
	}
	return 0, errors.Wrapf(ErrInvalidOutputKind, "unknown output kind %q", s)
}
