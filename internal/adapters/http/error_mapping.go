package httpadapter

import (
	"net/http"

	"github.com/psemenov/texify/internal/core/domain"
)

// Conversion, edit, storage and filesystem failures all surface to the
// client as a plain 500; the distinction lives in logs and metrics.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
