package shared

import "fmt"

var (
	// Store errors
	ErrNotFound        = fmt.Errorf("not found")
	ErrAlreadyArchived = fmt.Errorf("%w: song already archived", ErrNotFound)
	ErrValidation      = fmt.Errorf("validation failed")
	ErrStorage         = fmt.Errorf("storage failure")

	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// StorageError wraps a driver error so callers can match both [ErrStorage] and the underlying cause.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
