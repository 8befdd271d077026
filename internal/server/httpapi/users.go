package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/filekeeper/internal/common"
)

type credentials struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// decodeCredentials reports false for a malformed body or an empty id. The
// password is checked by the caller.
func decodeCredentials(r *http.Request) (credentials, bool) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		return c, false
	}
	return c, c.ID != ""
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(r)
	if !ok || c.Password == "" {
		writeError(w, http.StatusBadRequest, "id and password are required")
		return
	}

	pair, err := h.users.Signup(r.Context(), c.ID, c.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	c, ok := decodeCredentials(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	pair, err := h.users.Signin(r.Context(), c.ID, c.Password)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusBadRequest, "Cannot find user")
			return
		}
		h.writeServiceError(w, r, err, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *Handler) NewToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		return
	}

	access, err := h.users.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		h.writeServiceError(w, r, err, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), r.Header.Get(common.RefreshTokenHeaderName)); err != nil {
		h.writeServiceError(w, r, err, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Logged out successfully"})
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	user, err := h.users.Info(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err, "Cannot find user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": user.ID})
}
