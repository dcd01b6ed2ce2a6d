package handler

import (
	"errors"
	"net/http"
	"strconv"

	"lunar-cancer-care/internal/usecase"
	"lunar-cancer-care/pkg/response"
)

// writeError maps usecase errors onto the response envelope. Anything not
// recognised is reported with the generic fallback message only.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *usecase.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.ValidationError(w, validationErr.Fields)
	case errors.Is(err, usecase.ErrPatientNotFound):
		response.NotFound(w, "Patient not found")
	case errors.Is(err, usecase.ErrStaffNotFound):
		response.NotFound(w, "Staff member not found")
	case errors.Is(err, usecase.ErrAuditLogNotFound):
		response.NotFound(w, "Audit log not found")
	case errors.Is(err, usecase.ErrForbidden):
		response.Forbidden(w, "You don't have permission to access this resource")
	default:
		response.InternalServerError(w, fallback)
	}
}

// queryInt reads an integer query parameter; missing or unparsable values yield 0.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
