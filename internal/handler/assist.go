package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/code-mentor/internal/apperror"
	"github.com/sakif/code-mentor/internal/assistant"
	"github.com/sakif/code-mentor/internal/auth"
	"github.com/sakif/code-mentor/internal/model"
	"github.com/sakif/code-mentor/internal/service"
)

// defaultLanguage is assumed when the request omits a language tag.
const defaultLanguage = "python"

// AssistHandler forwards programming questions to the assistant and records
// the exchange as the caller's history.
type AssistHandler struct {
	assistant assistant.Assistant
	sessions  *service.SessionService
	logger    *slog.Logger
}

// NewAssistHandler creates an AssistHandler.
func NewAssistHandler(a assistant.Assistant, sessions *service.SessionService, logger *slog.Logger) *AssistHandler {
	return &AssistHandler{
		assistant: a,
		sessions:  sessions,
		logger:    logger,
	}
}

type assistRequest struct {
	Query       string `json:"query"`
	CodeContext string `json:"code_context"`
	Language    string `json:"language"`
}

type assistResponse struct {
	Success    bool    `json:"success"`
	Response   string  `json:"response"`
	TokensUsed int     `json:"tokens_used"`
	SessionID  *string `json:"session_id"` // null when persistence failed
}

// HandleAssist processes one question.
//
// HTTP: POST /api/code-assist
// Auth: required (RequireAuth sets userID in context)
// Body: {"query": ..., "code_context"?: ..., "language"?: ...}
//
// Pipeline: validate input → call assistant → persist best-effort → respond.
// The query is rejected with 400 before the assistant is ever invoked.
// Assistant failures are 500 with the client's classified message. A failed
// session insert is logged but does NOT fail the request — the user still
// gets their answer, with session_id null.
func (h *AssistHandler) HandleAssist(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't trust route wiring.
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req assistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if req.Query == "" {
		writeError(w, apperror.ValidationFailed("query", "query is required"))
		return
	}
	if req.Language == "" {
		req.Language = defaultLanguage
	}

	// Advisory only — unknown tags are logged, not rejected. Enforcing the
	// allow-list would break clients that already send unlisted tags.
	if !assistant.SupportedLanguage(req.Language) {
		h.logger.Warn("unrecognized language tag",
			slog.String("language", req.Language),
			slog.String("userID", userID),
		)
	}

	result := h.assistant.Process(r.Context(), assistant.Request{
		Query:       req.Query,
		CodeContext: req.CodeContext,
		Language:    req.Language,
	})

	if !result.Success {
		h.logger.Error("assistant processing failed",
			slog.String("userID", userID),
			slog.String("error", result.Error),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "assistant_error",
			Message: result.Error,
		})
		return
	}

	// Best-effort persistence: the answer is already in hand, so a storage
	// failure downgrades to a null session_id rather than a 500.
	var sessionID *string
	session, err := h.sessions.Record(r.Context(), &model.CodeSession{
		UserID:      userID,
		Query:       req.Query,
		CodeContext: req.CodeContext,
		Response:    result.Response,
		Language:    req.Language,
		TokensUsed:  result.TokensUsed,
	})
	if err != nil {
		h.logger.Error("failed to persist code session",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
	} else {
		sessionID = &session.ID
	}

	writeJSON(w, http.StatusOK, assistResponse{
		Success:    true,
		Response:   result.Response,
		TokensUsed: result.TokensUsed,
		SessionID:  sessionID,
	})
}
