package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/code-mentor/internal/apperror"
	"github.com/sakif/code-mentor/internal/model"
	"github.com/sakif/code-mentor/internal/service"
)

// AuthHandler exposes registration and login.
//
// Both endpoints return the same success shape — a token plus the public
// user fields (model.User's json tags keep the password hash out).
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string      `json:"message,omitempty"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/auth/register
// Body: {"username": ..., "email": ..., "password": ...}
//
// 201 with token+user on success; 400 when a field is missing or the
// username/email is already taken (the message names which).
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("registration failed",
			slog.String("username", req.Username),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Message: "user registered successfully",
		Token:   result.Token,
		User:    result.User,
	})
}

// HandleLogin authenticates an existing account.
//
// HTTP: POST /api/auth/login
// Body: {"username": ..., "password": ...}
//
// 200 with a fresh token on success. Every failure — unknown username or
// wrong password — is the same 401 "invalid credentials"; the handler must
// not reveal which part was wrong.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		// Log the username, never the password.
		h.logger.Info("login failed", slog.String("username", req.Username))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token: result.Token,
		User:  result.User,
	})
}
