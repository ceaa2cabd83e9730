package planningscene

import "github.com/pkg/errors"

// Malformed input.
var (
	ErrMalformed            = errors.New("malformed input")
	ErrPoseCountMismatch    = errors.New("pose count does not match shape count")
	ErrUnknownOperation     = errors.New("unknown operation")
	ErrNotOcTree            = errors.New("octomap is not an OcTree")
	ErrNoShapes             = errors.New("no shapes given")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Referential errors.
var (
	ErrReservedID     = errors.New("id is reserved for the octomap")
	ErrUnknownFrame   = errors.New("unknown frame")
	ErrUnknownLink    = errors.New("unknown link")
	ErrObjectNotFound = errors.New("object not found")
	ErrLinkMismatch   = errors.New("object is attached to a different link")
	ErrNoGeometry     = errors.New("no geometry to attach")
)
