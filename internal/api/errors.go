package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/lexis-api/internal/api/shared"
	"github.com/phrazzld/lexis-api/internal/domain"
	"github.com/phrazzld/lexis-api/internal/filter"
	"github.com/phrazzld/lexis-api/internal/service"
	"github.com/phrazzld/lexis-api/internal/service/auth"
	"github.com/phrazzld/lexis-api/internal/store"
)

// MsgWrongQueryParams is returned when group, page or wordsPerPage is not an integer.
const MsgWrongQueryParams = "Wrong query parameters: the group, page and words-per-page numbers should be valid integers"

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	// Store could not be reached
	case errors.Is(err, store.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *domain.ValidationError
	var notFound *store.NotFoundError

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required"

	case errors.Is(err, service.ErrNotOwned):
		return "Access to another user's words is forbidden"

	case errors.As(err, &notFound):
		return fmt.Sprintf("User word not found: wordId=%s", notFound.WordID)

	case errors.Is(err, store.ErrNotFound):
		return "User word not found"

	case errors.Is(err, domain.ErrInvalidQueryParams):
		return MsgWrongQueryParams

	// Filter messages only describe the caller's own document.
	case errors.Is(err, filter.ErrInvalidFilter):
		return filterMessage(err)

	case errors.As(err, &validationErr):
		if validationErr.Field == "" {
			return "Invalid request: " + validationErr.Message
		}
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"

	case errors.Is(err, domain.ErrValidation):
		return "Validation error"

	case errors.Is(err, store.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return "Service temporarily unavailable"

	default:
		return "An unexpected error occurred"
	}
}

func filterMessage(err error) string {
	const marker = "invalid filter"
	msg := err.Error()
	if i := strings.Index(msg, marker); i >= 0 {
		return "Invalid filter" + msg[i+len(marker):]
	}
	return "Invalid filter"
}

// HandleAPIError writes the error response for err. defaultMsg, when not
// empty, replaces the generic message of server errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if defaultMsg != "" && status == http.StatusInternalServerError {
		msg = defaultMsg
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}
