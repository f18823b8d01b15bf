package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when deck generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate deck")

	// ErrInvalidRequest is returned when the generation request is out of range
	ErrInvalidRequest = errors.New("invalid generation request")
)
