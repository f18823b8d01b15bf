package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-notes/internal/api/shared"
	"github.com/phrazzld/scry-notes/internal/domain"
	"github.com/phrazzld/scry-notes/internal/service"
	"github.com/phrazzld/scry-notes/internal/service/study"
	"github.com/phrazzld/scry-notes/internal/store"
)

// errBadRequest marks request decoding failures.
var errBadRequest = errors.New("bad request")

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case err == nil:
		return http.StatusOK

	// Not found errors
	case errors.Is(err, service.ErrDeckNotFound),
		errors.Is(err, study.ErrDeckNotFound),
		errors.Is(err, service.ErrCardNotFound),
		errors.Is(err, study.ErrCardNotFound),
		errors.Is(err, study.ErrSessionNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrDuplicate),
		errors.Is(err, store.ErrConflict):
		return http.StatusConflict

	// Unprocessable: the request is well formed but the deck cannot serve it
	case errors.Is(err, study.ErrEmptyDeck),
		errors.Is(err, study.ErrNotNoteCard):
		return http.StatusUnprocessableEntity

	// Bad request errors
	case errors.Is(err, errBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, study.ErrInvalidAnswer),
		errors.Is(err, domain.ErrValidation),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, service.ErrDeckNotFound), errors.Is(err, study.ErrDeckNotFound):
		return "Deck not found"
	case errors.Is(err, service.ErrCardNotFound), errors.Is(err, study.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, study.ErrSessionNotFound):
		return "No active study session"
	case errors.Is(err, service.ErrDuplicate):
		return "Resource already exists"
	case errors.Is(err, store.ErrConflict):
		return "Deck was modified concurrently, please retry"
	case errors.Is(err, study.ErrEmptyDeck):
		return "Deck has no cards"
	case errors.Is(err, study.ErrNotNoteCard):
		return "Card is not a note card"
	case errors.Is(err, study.ErrInvalidAnswer):
		return "Invalid answer"
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(err)
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, domain.ErrValidation):
		return "Invalid input"
	case errors.Is(err, errBadRequest):
		return "Invalid request format"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a message naming the
// first failing field, without struct or package names.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "Validation error"
	}

	fe := validationErrs[0]
	field := strings.ToLower(fe.Field())
	return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required", "required_without":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "gtefield":
		return "out of order"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status code and safe message for err. A
// non-empty fallback replaces the generic message of a 500.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
