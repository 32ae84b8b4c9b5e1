package api

import (
	"errors"
	"net/http"

	"github.com/meur/tiermaker/internal/blob"
	"github.com/meur/tiermaker/internal/upload"
)

var errMalformed = errors.New("malformed multipart request")

// statusForError maps domain errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, upload.ErrUnsupportedType),
		errors.Is(err, upload.ErrEmptyFile),
		errors.Is(err, upload.ErrMissingFile),
		errors.Is(err, blob.ErrInvalidName),
		errors.Is(err, errMalformed):
		return http.StatusBadRequest
	case errors.Is(err, blob.ErrOutsideRoot):
		return http.StatusForbidden
	case errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// messageForError returns the user-facing message for err. Internal errors
// never leak their text
func messageForError(err error) string {
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		return "File too large (max 5MB)"
	case errors.Is(err, upload.ErrUnsupportedType):
		return "Unsupported file type; allowed: jpeg, png, gif, webp, avif, bmp"
	case errors.Is(err, upload.ErrEmptyFile):
		return "Empty file"
	case errors.Is(err, upload.ErrMissingFile):
		return "Missing file"
	case errors.Is(err, blob.ErrInvalidName):
		return "Invalid file name"
	case errors.Is(err, errMalformed):
		return "Malformed upload request"
	case errors.Is(err, blob.ErrOutsideRoot):
		return "Forbidden"
	case errors.Is(err, blob.ErrNotFound):
		return "File not found"
	default:
		return "Internal server error"
	}
}
