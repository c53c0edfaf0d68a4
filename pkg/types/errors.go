package types

import (
	"errors"
	"fmt"
)

// Domain errors for type validation
var (
	// Retrieval errors
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrLookupRequired    = errors.New("filters reference document metadata but no document lookup is configured")

	// Result validation errors
	ErrInvalidChunkID = errors.New("invalid chunk ID")
	ErrInvalidScore   = errors.New("score must be between 0 and 1")
	ErrScoreMismatch  = errors.New("score does not match breakdown")
)

// ValidationError reports an out-of-range retrieval option rejected at the
// call boundary
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid option %q: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
