package handler

import (
	"errors"
	"net/http"

	"parley/internal/domain"
	"parley/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	default:
		status := http.StatusInternalServerError
		var httpErr domain.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.StatusCode()
		}
		// Persistence failures and anything unexpected keep their detail out
		// of the response; the client may retry the whole request.
		httputil.RespondError(w, status, "internal server error")
	}
}
