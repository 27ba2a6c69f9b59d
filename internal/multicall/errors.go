package multicall

import "fmt"

// FatalError aborts a run: the underlying failure cannot be fixed by
// splitting the batch any further
type FatalError struct {
	BatchSize int
	Err       error
}

// Error implements the error interface
func (e *FatalError) Error() string {
	return fmt.Sprintf("multicall batch of %d failed fatally: %s", e.BatchSize, e.Err.Error())
}

// Unwrap returns the underlying cause
func (e *FatalError) Unwrap() error {
	return e.Err
}
