package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/gardenhub/internal/apperror"
	"github.com/sakif/gardenhub/internal/auth"
	"github.com/sakif/gardenhub/internal/identity"
)

// ProfileHandler serves account-management routes. Unlike the collection
// routes, these do not verify the token locally: the token is forwarded to
// the auth platform for introspection, because email and password changes
// must be refused for revoked sessions, which a signature check alone
// cannot detect.
type ProfileHandler struct {
	bridge *identity.Bridge
	logger *slog.Logger
}

func NewProfileHandler(bridge *identity.Bridge, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{bridge: bridge, logger: logger}
}

// HandleGet returns the caller's account info.
//
// HTTP: GET /api/v1/profile
// RESPONSE: {"id": "...", "email": "...", "created_at": "..."}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}

	user, err := h.bridge.GetUser(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateEmail changes the caller's login email.
//
// HTTP: PUT /api/v1/profile/email
// REQUEST BODY: {"email": "new@example.com"}
func (h *ProfileHandler) HandleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "New email is required",
		})
		return
	}

	if err := h.bridge.UpdateEmail(r.Context(), token, req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Email updated successfully!",
		"email":   req.Email,
	})
}

// HandleUpdatePassword changes the caller's password.
//
// HTTP: PUT /api/v1/profile/password
// REQUEST BODY: {"password": "at least six chars"}
func (h *ProfileHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	token, ok := h.token(w, r)
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "New password is required",
		})
		return
	}

	if err := h.bridge.UpdatePassword(r.Context(), token, req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password updated successfully",
	})
}

func (h *ProfileHandler) token(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, err := auth.BearerToken(r)
	if err != nil {
		writeError(w, apperror.Unauthorized(err, "Missing or invalid authorization header"))
		return "", false
	}
	return token, true
}
