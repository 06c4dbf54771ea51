package prompts

import (
	"errors"
	"fmt"
)

var (
	ErrPromptNotFound = errors.New("prompt not found")
	ErrFolderNotFound = errors.New("folder not found")
	// ErrNotConfirmed is returned when a delete was not confirmed. Nothing
	// was written.
	ErrNotConfirmed = errors.New("deletion not confirmed")
)

// ValidationError rejects a change before anything is written
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }
