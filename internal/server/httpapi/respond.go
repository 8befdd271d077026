package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/filekeeper/internal/common"
)

type message struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, message{Message: msg})
}

// writeServiceError maps the common sentinels onto status codes. notFound is
// the message used for common.ErrorNotFound. Anything unclassified is logged
// and answered with a generic 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case errors.Is(err, common.ErrorUnauthenticated):
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	case errors.Is(err, common.ErrorForbidden):
		writeError(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
	case errors.Is(err, common.ErrorInvalidCredentials):
		writeError(w, http.StatusForbidden, "Incorrect password")
	case errors.Is(err, common.ErrorDuplicateUser):
		writeError(w, http.StatusInternalServerError, common.ErrorDuplicateUser.Error())
	case errors.Is(err, common.ErrorBlobDeleteFailed):
		writeError(w, http.StatusInternalServerError, "Failed to delete file")
	default:
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, common.ErrorInternal.Error())
	}
}
