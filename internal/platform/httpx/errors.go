// Package httpx writes the JSON responses served next to the HTML pages.
package httpx

import (
	"errors"
	"net/http"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// ErrUnauthorized is returned when no staff member is logged in.
var ErrUnauthorized = errors.New("login required")

// RespondError maps errors to problem responses.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, backend.ErrUnauthorized), errors.Is(err, shared.ErrSessionExpired):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrForbidden), errors.Is(err, backend.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, backend.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidInput):
		Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	case errors.Is(err, backend.ErrTransport), errors.Is(err, backend.ErrMalformed), errors.Is(err, backend.ErrStatus):
		Problem(w, http.StatusBadGateway, "Backend Unavailable", backend.Message(err))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
