package spatialmath

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrBadGeometry is returned when a geometry cannot be built from the given dimensions.
var ErrBadGeometry = errors.New("invalid geometry dimensions")

func newBadGeometryDimensionsError(g Geometry) error {
	return errors.Wrapf(ErrBadGeometry, "%T", g)
}

func newBadCapsuleLengthError(capLength, radius float64) error {
	return errors.Wrapf(ErrBadGeometry, "capsule length %.4f must be at least twice its radius %.4f", capLength, radius)
}

func newCollisionTypeUnsupportedError(g1, g2 Geometry) error {
	return fmt.Errorf("collisions between %T and %T are not supported", g1, g2)
}
