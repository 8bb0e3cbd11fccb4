package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/internx-match/internal/types"
)

// HTTPStatus returns the HTTP status code for an error. Ownership failures
// map to 401 like missing identity; 403 is never returned.
func HTTPStatus(err error) int {
	var validationErr *types.ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, types.ErrPrerequisiteNotMet):
		return http.StatusPreconditionFailed
	case errors.Is(err, types.ErrScoringUnavailable), errors.Is(err, types.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage is the error text safe to return to the caller. Internal
// failures are logged but not echoed.
func clientMessage(err error, status int) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusServiceUnavailable:
		if errors.Is(err, types.ErrScoringUnavailable) {
			return "scoring unavailable, retry later"
		}
		return "store unavailable, retry later"
	case http.StatusUnauthorized:
		return "not authorized"
	default:
		return err.Error()
	}
}
