package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/gardenhub/internal/identity"
)

// AuthHandler exposes signup and login. Both delegate entirely to the
// identity bridge; no credential ever touches local storage.
type AuthHandler struct {
	bridge *identity.Bridge
	logger *slog.Logger
}

func NewAuthHandler(bridge *identity.Bridge, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{bridge: bridge, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignUp registers a new user.
//
// HTTP: POST /api/v1/auth/signup
// REQUEST BODY: {"email": "...", "password": "..."}
//
// The success body is the platform's own signup response, passed through
// verbatim — depending on project settings it is either a full session or
// a pending-confirmation user object, and the frontend handles both.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	body, err := h.bridge.SignUp(r.Context(), creds.Email, creds.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("user signed up", slog.String("email", creds.Email))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// HandleLogin signs a user in.
//
// HTTP: POST /api/v1/auth/login
// RESPONSE: {"message": "Login successful", "token": "...", "user_id": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	session, err := h.bridge.SignIn(r.Context(), creds.Email, creds.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("user logged in", slog.String("user_id", session.User.ID))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Login successful",
		"token":   session.AccessToken,
		"user_id": session.User.ID,
	})
}

// decodeCredentials reads and validates the shared signup/login body,
// writing the 400 itself when something is wrong.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var creds credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid JSON body",
		})
		return creds, false
	}
	if creds.Email == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Missing email or password",
		})
		return creds, false
	}
	return creds, true
}
