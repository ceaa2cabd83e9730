package referenceframe

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrCircularReference is an error indicating that a circular path exists somewhere between the end effector and the world.
var ErrCircularReference = errors.New("infinite loop finding path from end effector to world")

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// ErrUnknownFrame is wrapped by errors about frames nobody knows.
var ErrUnknownFrame = errors.New("unknown frame")

// ErrUnknownLink is wrapped by errors about links that are not part of a model.
var ErrUnknownLink = errors.New("unknown link")

// NewIncorrectDoFError returns an error indicating that the length of an input slice does not match the DoF of a frame.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// NewReservedWordError returns an error indicating that a reserved word was used as a name.
func NewReservedWordError(configType, reservedWord string) error {
	return errors.Errorf("reserved word: cannot name a %s '%s'", configType, reservedWord)
}

// NewFrameMissingError returns an error indicating that the given frame is missing.
func NewFrameMissingError(frameName string) error {
	return fmt.Errorf("%w: frame with name %q not in frame system", ErrUnknownFrame, frameName)
}

// NewUnknownLinkError returns an error indicating that the given link is not part of the model.
func NewUnknownLinkError(modelName, linkName string) error {
	return fmt.Errorf("%w: model %q has no link %q", ErrUnknownLink, modelName, linkName)
}

// NewUnknownJointError returns an error indicating that the given joint is not part of the model.
func NewUnknownJointError(modelName, jointName string) error {
	return errors.Errorf("model %q has no joint %q", modelName, jointName)
}
