package httpapi

import (
	"errors"
	"net/http"

	"github.com/dreamware/kronos/internal/storage"
)

// writeError maps a storage error to the HTTP status code a caller should
// treat it as, per spec §7's "fatal to the owning handle" vs.
// "non-fatal, per-event" distinctions.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, new(*storage.ConfigError)):
		status = http.StatusBadRequest
	case errors.As(err, new(*storage.InvalidUUID)):
		status = http.StatusBadRequest
	case errors.As(err, new(*storage.InvalidEvent)):
		status = http.StatusBadRequest
	case errors.As(err, new(*storage.OverflowError)):
		status = http.StatusBadRequest
	case errors.As(err, new(*storage.SchemaMismatch)):
		status = http.StatusConflict
	case errors.As(err, new(*storage.StorageError)):
		status = http.StatusBadGateway
	}
	http.Error(w, err.Error(), status)
}
