package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "userID", id), ANY package that knows the string "userID"
// can read or shadow your value. Using a package-private type prevents collisions:
// only THIS package can create a key of type contextKey, so only this package
// can read or write userID values in the context.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the bearer token from the Authorization header, verifies it, and
// stores the user ID in the request context. If the token is missing or
// fails verification, it returns 401 with a message naming the failure kind
// and stops the request chain. The messages are deliberately specific
// (expired vs bad signature vs wrong audience) — the frontend uses "expired"
// to trigger a re-login instead of showing a generic error.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler that wraps it. Chi applies middlewares in a chain:
// req → M1 → M2 → Handler → M2 → M1 → resp. This replaces the decorator
// that guarded routes in earlier iterations of this service: the identity is
// passed forward explicitly through the request context, never injected
// into shared state.
func RequireAuth(verifier *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r)
			if err != nil {
				writeUnauthorized(w, err)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("token rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeUnauthorized(w, err)
				return
			}

			// Store userID in context so handlers can read it
			ctx := ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithUserID returns a context carrying the authenticated user's ID.
// RequireAuth calls this after verification; handler tests use it to stand
// in for the middleware.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) if RequireAuth never ran on this request.
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // route was wired without RequireAuth — a programming error
//	}
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// BearerToken extracts and trims the token from the Authorization header.
// A missing header and a non-Bearer scheme are the same failure: the caller
// did not present a usable credential. Exported because the profile routes
// forward the raw token for introspection instead of verifying it locally.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// writeUnauthorized sends a 401 with a message matching the failure kind.
func writeUnauthorized(w http.ResponseWriter, err error) {
	message := "Authentication failed."
	switch {
	case errors.Is(err, ErrMissingToken):
		message = "Unauthorized access: Missing or invalid Authorization header."
	case errors.Is(err, ErrTokenExpired):
		message = "Token has expired."
	case errors.Is(err, ErrInvalidSignature):
		message = "Invalid token signature."
	case errors.Is(err, ErrWrongAudience):
		message = "Invalid token audience."
	case errors.Is(err, ErrMalformedToken):
		message = "Authentication failed (malformed token)."
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
