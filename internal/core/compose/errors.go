package compose

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrEmptyArtifact = errors.New("compose artifact is empty")

	ErrInvalidYAML = errors.New("invalid YAML syntax")

	ErrNoServices = errors.New("compose file must define at least one service")

	ErrUnknownArtifact = errors.New("unknown compose artifact")

	// ErrTargetMismatch is returned when the bigboat compose file names an
	// application or version other than the upload target.
	ErrTargetMismatch = errors.New("compose file names a different application")
)

// ValidationError wraps errors with the artifact that failed validation.
type ValidationError struct {
	Artifact string // remote document key, e.g. "dockerCompose"
	Message  string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Artifact, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(artifact, message string, err error) *ValidationError {
	return &ValidationError{
		Artifact: artifact,
		Message:  message,
		Err:      err,
	}
}
