package depth

import (
	"errors"
	"fmt"

	"github.com/harism/ml-depth-pro/internal/tensor"
)

// ErrShapeMismatch reports a dimension or channel incompatibility
// between chained pipeline stages. All shape failures abort the run
// that triggers them; there are no retries.
var ErrShapeMismatch = errors.New("depth: shape mismatch between pipeline stages")

// ShapeError carries the stage that rejected its input and the
// expected versus observed shapes.
type ShapeError struct {
	Stage string
	Want  string
	Got   tensor.Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("depth: %s expected %s, got %s: %v", e.Stage, e.Want, e.Got, ErrShapeMismatch)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

func shapeError(stage, want string, got tensor.Shape) error {
	return &ShapeError{Stage: stage, Want: want, Got: got.Clone()}
}
