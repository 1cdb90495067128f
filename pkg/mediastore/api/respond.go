package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/parkroll/mediastore/pkg/mediastore"
)

// ErrorResponse is the JSON body for all error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError maps core error kinds to transport status codes. The core
// stays transport-agnostic; this function is the only place holding the
// mapping.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var storageErr *mediastore.StorageError
	var persistErr *mediastore.PersistenceError

	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, mediastore.ErrImageNotFound),
		errors.Is(err, mediastore.ErrLocationNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, mediastore.ErrForbidden):
		status = http.StatusForbidden
		message = "you are not authorized to perform this action"
	case errors.Is(err, mediastore.ErrNoFilesProvided),
		errors.Is(err, mediastore.ErrTooManyFiles),
		errors.Is(err, mediastore.ErrFileTooLarge),
		errors.Is(err, mediastore.ErrUnsupportedContentType),
		errors.Is(err, mediastore.ErrInvalidRating):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.As(err, &storageErr):
		message = "image upload failed"
	case errors.As(err, &persistErr):
		message = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}
