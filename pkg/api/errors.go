package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/mklimuk/job-pilot/pkg/documents"
	"github.com/mklimuk/job-pilot/pkg/render"
	"github.com/mklimuk/job-pilot/pkg/tracker"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case tracker.IsStorage(err):
		return http.StatusInternalServerError
	case tracker.IsNotFound(err), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case tracker.IsValidation(err):
		return http.StatusBadRequest
	case render.IsRender(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, documents.ErrOutsideRoot):
		return http.StatusForbidden
	case errors.Is(err, documents.ErrExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// pathIndex parses the {index} path value.
func pathIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, &tracker.ValidationError{Field: "index", Msg: "must be a number"}
	}
	if i < 0 {
		return 0, &tracker.NotFoundError{Index: i}
	}
	return i, nil
}
