package settings

import (
	"errors"
	"fmt"
)

// Setup-time failures. The engine itself is total; only configuration
// parsing and SDK construction can fail, and they fail fatally with no
// partial initialization.
//
// Check sentinels with errors.Is; wrap with fmt.Errorf("...: %w", err).
var (
	// ErrInvalidAPIKey indicates the resolved API key is missing or empty.
	ErrInvalidAPIKey = errors.New("invalid api key")

	// ErrInvalidDataCenter indicates the data-center code is blank or not
	// in the supported enumeration.
	ErrInvalidDataCenter = errors.New("invalid data center")
)

// InitializationError reports that SDK client construction failed after
// the settings themselves parsed cleanly.
type InitializationError struct {
	Cause error
}

// NewInitializationError wraps an SDK construction failure.
func NewInitializationError(cause error) *InitializationError {
	return &InitializationError{Cause: cause}
}

// Error implements the error interface.
func (e *InitializationError) Error() string {
	return fmt.Sprintf("sdk initialization failed: %v", e.Cause)
}

// Unwrap exposes the construction failure for errors.Is/As.
func (e *InitializationError) Unwrap() error {
	return e.Cause
}

// IsSetupError reports whether err belongs to the setup taxonomy, in any
// wrapping.
func IsSetupError(err error) bool {
	if errors.Is(err, ErrInvalidAPIKey) || errors.Is(err, ErrInvalidDataCenter) {
		return true
	}
	var ie *InitializationError
	return errors.As(err, &ie)
}
