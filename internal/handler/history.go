package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/code-mentor/internal/apperror"
	"github.com/sakif/code-mentor/internal/auth"
	"github.com/sakif/code-mentor/internal/model"
	"github.com/sakif/code-mentor/internal/service"
)

// HistoryHandler exposes the caller's session history. Every operation runs
// against the authenticated user's own sessions only — the service and
// repository scope each query by owner, so a foreign session ID behaves
// exactly like a nonexistent one (404).
type HistoryHandler struct {
	sessions *service.SessionService
	logger   *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(sessions *service.SessionService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{sessions: sessions, logger: logger}
}

type historyListResponse struct {
	Success  bool                `json:"success"`
	Sessions []model.CodeSession `json:"sessions"`
}

type historyDetailResponse struct {
	Success bool               `json:"success"`
	Session *model.CodeSession `json:"session"`
}

type historyMessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleList returns all of the caller's sessions, newest first.
//
// HTTP: GET /api/history
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	sessions, err := h.sessions.History(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to fetch history",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, historyListResponse{
		Success:  true,
		Sessions: sessions,
	})
}

// HandleGet returns one session's detail.
//
// HTTP: GET /api/history/{id}
// 404 when the session doesn't exist or belongs to another user.
func (h *HistoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	session, err := h.sessions.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, historyDetailResponse{
		Success: true,
		Session: session,
	})
}

// HandleDelete removes one session.
//
// HTTP: DELETE /api/history/{id}
// Same 404 rule as HandleGet.
func (h *HistoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	id := r.PathValue("id")
	if err := h.sessions.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, historyMessageResponse{
		Success: true,
		Message: fmt.Sprintf("session %s deleted successfully", id),
	})
}

// HandleClear removes all of the caller's sessions.
//
// HTTP: DELETE /api/history/clear
// Always succeeds, even when there was nothing to remove.
func (h *HistoryHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	if _, err := h.sessions.Clear(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, historyMessageResponse{
		Success: true,
		Message: "history cleared successfully",
	})
}
