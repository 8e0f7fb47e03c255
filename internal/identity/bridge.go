// Package identity bridges signup, login, and profile management to the
// hosted platform's GoTrue auth API. This service never stores passwords
// or issues tokens itself — it forwards credentials, relays the platform's
// verdict, and keeps the local profiles table in sync.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/gardenhub/internal/apperror"
	"github.com/sakif/gardenhub/internal/model"
	"github.com/sakif/gardenhub/internal/supabase"
)

const (
	// authTimeout bounds calls to the auth endpoints themselves.
	authTimeout = 10 * time.Second

	// mirrorTimeout bounds the profiles-table writes that shadow auth
	// changes. Tighter than authTimeout: a slow mirror must not hold a
	// signup hostage.
	mirrorTimeout = 5 * time.Second
)

// Bridge talks to /auth/v1 with the anonymous key for user-initiated calls
// and the service key for admin updates and profile mirroring.
type Bridge struct {
	baseURL    string
	anonKey    string
	serviceKey string
	authHTTP   *http.Client
	mirrorHTTP *http.Client
	logger     *slog.Logger
}

func NewBridge(cfg supabase.Config, logger *slog.Logger) (*Bridge, error) {
	if cfg.BaseURL == "" || cfg.AnonKey == "" || cfg.ServiceKey == "" {
		return nil, errors.New("identity: base URL, anon key, and service key are required")
	}
	return &Bridge{
		baseURL:    cfg.BaseURL,
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		authHTTP:   &http.Client{Timeout: authTimeout},
		mirrorHTTP: &http.Client{Timeout: mirrorTimeout},
		logger:     logger,
	}, nil
}

// gotrueError is the error body the auth API returns. Which field carries
// the human-readable message varies by endpoint and failure class.
type gotrueError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.Msg, e.ErrorDescription, e.Message} {
		if s != "" {
			return s
		}
	}
	return ""
}

// signUpResult covers both response shapes GoTrue uses for signup: with
// email confirmation enabled the user object is the top level; without it
// the user is nested inside a full session.
type signUpResult struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	User  *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// SignUp registers a new user and mirrors a row into the profiles table.
// The raw auth response is passed through so the frontend sees whatever
// the platform decided to include (a session, or just the pending user).
//
// The profile mirror is best-effort: a failure there is logged but never
// fails the signup — the auth record is the source of truth and the row
// can be backfilled.
func (b *Bridge) SignUp(ctx context.Context, email, password string) (json.RawMessage, error) {
	body, err := b.postAuth(ctx, "signup", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	var result signUpResult
	if err := json.Unmarshal(body, &result); err == nil {
		userID, userEmail := result.ID, result.Email
		if result.User != nil {
			userID, userEmail = result.User.ID, result.User.Email
		}
		if userID != "" {
			b.mirrorProfile(ctx, userID, userEmail)
		}
	}

	return body, nil
}

// SignIn exchanges credentials for a session via the password grant.
func (b *Bridge) SignIn(ctx context.Context, email, password string) (*model.AuthSession, error) {
	body, err := b.postAuth(ctx, "token?grant_type=password", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	var session model.AuthSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, apperror.Upstream(
			fmt.Errorf("identity: decoding sign-in response: %w", err),
			"Authentication failed due to external server error.",
		)
	}
	if session.AccessToken == "" {
		return nil, apperror.Upstream(
			errors.New("identity: sign-in response without access token"),
			"Authentication failed due to external server error.",
		)
	}
	return &session, nil
}

// GetUser introspects an access token against the auth API and returns the
// platform's view of the user. Any rejection maps to an unauthorized error;
// the caller cannot distinguish expired from revoked, and does not need to.
func (b *Bridge) GetUser(ctx context.Context, token string) (*model.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("identity: building user request: %w", err)
	}
	req.Header.Set("apikey", b.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := b.authHTTP.Do(req)
	if err != nil {
		return nil, apperror.Upstream(err, "Network error communicating with the authentication service.")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Unauthorized(nil, "Invalid or expired token.")
	}

	var user model.UserInfo
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, apperror.Upstream(
			fmt.Errorf("identity: decoding user response: %w", err),
			"Authentication failed due to external server error.",
		)
	}
	return &user, nil
}

// UpdateEmail changes the user's login email through the admin API, then
// mirrors the change into the profiles table. The admin update and the
// mirror are not atomic; if the mirror fails the caller gets an explicit
// error so support can reconcile.
func (b *Bridge) UpdateEmail(ctx context.Context, token, newEmail string) error {
	if strings.TrimSpace(newEmail) == "" {
		return apperror.ValidationFailed("email", "New email is required")
	}

	user, err := b.GetUser(ctx, token)
	if err != nil {
		return err
	}
	if strings.EqualFold(newEmail, user.Email) {
		return apperror.ValidationFailed("email", "New email must be different from current email")
	}

	if err := b.adminUpdate(ctx, user.ID, map[string]string{"email": newEmail}, "Failed to update email"); err != nil {
		return err
	}

	if err := b.patchProfile(ctx, user.ID, newEmail); err != nil {
		b.logger.Error("profile email sync failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return apperror.Upstream(err, "Email updated in auth but profile sync failed. Please contact support.")
	}

	b.logger.Info("user email updated", slog.String("user_id", user.ID))
	return nil
}

// UpdatePassword changes the user's password through the admin API.
func (b *Bridge) UpdatePassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return apperror.ValidationFailed("password", "New password is required")
	}
	if len(newPassword) < 6 {
		return apperror.ValidationFailed("password", "Password must be at least 6 characters")
	}

	user, err := b.GetUser(ctx, token)
	if err != nil {
		return err
	}

	if err := b.adminUpdate(ctx, user.ID, map[string]string{"password": newPassword}, "Failed to update password"); err != nil {
		return err
	}

	b.logger.Info("user password updated", slog.String("user_id", user.ID))
	return nil
}

// postAuth sends one anonymous-tier POST to an auth endpoint and returns
// the raw success body.
func (b *Bridge) postAuth(ctx context.Context, endpoint string, payload map[string]string) (json.RawMessage, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("identity: encoding %s body: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/auth/v1/"+endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("identity: building %s request: %w", endpoint, err)
	}
	req.Header.Set("apikey", b.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.authHTTP.Do(req)
	if err != nil {
		return nil, apperror.Upstream(err, "Network error communicating with the authentication service.")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperror.Upstream(err, "Authentication failed due to external server error.")
	}

	if resp.StatusCode >= 400 {
		return nil, b.classifyAuthFailure(endpoint, resp.StatusCode, body)
	}
	return body, nil
}

// adminUpdate PUTs a change to one user through the privileged admin API.
func (b *Bridge) adminUpdate(ctx context.Context, userID string, change map[string]string, failMessage string) error {
	encoded, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("identity: encoding admin update: %w", err)
	}

	endpoint := b.baseURL + "/auth/v1/admin/users/" + userID
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("identity: building admin request: %w", err)
	}
	req.Header.Set("apikey", b.serviceKey)
	req.Header.Set("Authorization", "Bearer "+b.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.authHTTP.Do(req)
	if err != nil {
		return apperror.Upstream(err, failMessage)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return b.classifyAuthFailure("admin/users", resp.StatusCode, body)
	}
	return nil
}

// mirrorProfile inserts the signup shadow row into profiles. Best-effort:
// errors are logged, never returned.
func (b *Bridge) mirrorProfile(ctx context.Context, userID, email string) {
	record := map[string]string{"id": userID, "email": email}
	encoded, err := json.Marshal(record)
	if err != nil {
		b.logger.Error("profile mirror encode failed", slog.String("error", err.Error()))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/rest/v1/profiles", bytes.NewReader(encoded))
	if err != nil {
		b.logger.Error("profile mirror request failed", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("apikey", b.serviceKey)
	req.Header.Set("Authorization", "Bearer "+b.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := b.mirrorHTTP.Do(req)
	if err != nil {
		b.logger.Error("profile mirror failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		b.logger.Error("profile mirror rejected",
			slog.String("user_id", userID),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return
	}

	b.logger.Info("profile created", slog.String("user_id", userID))
}

// patchProfile mirrors an email change into the profiles row.
func (b *Bridge) patchProfile(ctx context.Context, userID, email string) error {
	encoded, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return fmt.Errorf("identity: encoding profile patch: %w", err)
	}

	query := url.Values{"id": {supabase.Eq(userID)}}
	endpoint := b.baseURL + "/rest/v1/profiles?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("identity: building profile patch: %w", err)
	}
	req.Header.Set("apikey", b.serviceKey)
	req.Header.Set("Authorization", "Bearer "+b.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := b.mirrorHTTP.Do(req)
	if err != nil {
		return fmt.Errorf("identity: profile patch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("identity: profile patch: status %d", resp.StatusCode)
	}
	return nil
}

// classifyAuthFailure maps an auth-API error response onto domain errors.
// The platform's own message is preserved where it exists — "User already
// registered" and friends are written for end users.
func (b *Bridge) classifyAuthFailure(endpoint string, status int, body []byte) error {
	var ge gotrueError
	_ = json.Unmarshal(body, &ge)
	message := ge.text()

	b.logger.Error("auth call failed",
		slog.String("endpoint", endpoint),
		slog.Int("status", status),
		slog.String("message", message),
	)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if message == "" {
			message = "Invalid or expired token."
		}
		return apperror.Unauthorized(nil, message)
	case status >= 500:
		return apperror.Upstream(
			fmt.Errorf("identity: %s: status %d", endpoint, status),
			"Authentication failed due to external server error.",
		)
	default:
		if message == "" {
			message = "Authentication request rejected."
		}
		return &apperror.AppError{Err: apperror.ErrValidation, Message: message}
	}
}
