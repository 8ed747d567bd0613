package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "userID", id), ANY package that knows the string
// "userID" can read or shadow your value. A package-private type prevents
// collisions: only this package can create a key of type contextKey.
type contextKey string

const userIDKey contextKey = "userID"

// unauthorizedBody is the JSON shape of every 401 this middleware writes.
// Detail carries the token-validation reason for diagnostics and is omitted
// for the structural header checks.
type unauthorizedBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the Authorization header, checks its structure, validates the
// bearer token, and stores the userID in the request context. Each failure
// mode is a distinct 401 so clients can tell a malformed header from a bad
// token. The checks run in order:
//
//  1. header absent
//  2. scheme is not "Bearer" (case-insensitive)
//  3. token missing after the scheme
//  4. more than two whitespace-separated fields
//  5. token fails validation (signature, structure, or expiry)
//  6. token subject is empty
//
// This is a pure gate — it never creates or mutates any stored entity, it
// only authorizes and annotates the request context.
func RequireAuth(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeUnauthorized(w, "no authorization header", "")
				return
			}

			parts := strings.Fields(header)
			if len(parts) == 0 {
				// Header present but all whitespace — same as absent.
				writeUnauthorized(w, "no authorization header", "")
				return
			}
			if !strings.EqualFold(parts[0], "Bearer") {
				writeUnauthorized(w, "authorization header must start with Bearer", "")
				return
			}
			if len(parts) == 1 {
				writeUnauthorized(w, "token missing", "")
				return
			}
			if len(parts) > 2 {
				writeUnauthorized(w, "authorization header must be a single Bearer token", "")
				return
			}

			userID, err := tokens.Validate(parts[1])
			if err != nil {
				logger.Warn("token validation failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeUnauthorized(w, "invalid token", err.Error())
				return
			}
			if userID == "" {
				writeUnauthorized(w, "invalid user in token", "")
				return
			}

			// Store userID in context so handlers can read it
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context.
//
// Returns ("", false) if the request was not authenticated.
// On a RequireAuth-protected route it always returns (id, true).
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func writeUnauthorized(w http.ResponseWriter, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(unauthorizedBody{
		Error:   "unauthorized",
		Message: message,
		Detail:  detail,
	})
}
