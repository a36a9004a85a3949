package server

import (
	"net/http"

	apperrors "github.com/dtrwidget/designassist/internal/errors"
)

// HandleError writes err as the service's JSON error body.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	HandleError(w, r, apperrors.NewNotFoundError("No route for "+r.Method+" "+r.URL.Path))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	HandleError(w, r, apperrors.NewMethodNotAllowedError(r.Method+" is not supported on "+r.URL.Path))
}
