package middleware

import (
	"errors"
	"net/http"

	"github.com/Digiaroficial/digi-reparaciones-app/common"
)

// CodeFor maps the shared error taxonomy onto HTTP status codes so
// every handler reports failures the same way.
func CodeFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
