package algorithms

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is returned when algorithm options are out of range
var ErrInvalidOptions = errors.New("invalid algorithm options")

// ConvergenceWarning reports that an iterative engine stopped at its
// iteration cap before reaching its tolerance. The accompanying result is
// still usable.
type ConvergenceWarning struct {
	Engine     string
	Iterations int
}

// Error implements the error interface.
func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("%s did not converge after %d iterations", w.Engine, w.Iterations)
}
