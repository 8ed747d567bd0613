package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/code-mentor/internal/apperror"
	"github.com/sakif/code-mentor/internal/model"
	"github.com/sakif/code-mentor/internal/repository"
)

// SessionService owns the history rules: every operation is scoped to the
// calling user, and sessions are append-only — recorded once, then read or
// deleted, never edited.
type SessionService struct {
	sessions repository.SessionRepository
	logger   *slog.Logger
}

// NewSessionService creates a SessionService.
func NewSessionService(sessions repository.SessionRepository, logger *slog.Logger) *SessionService {
	return &SessionService{
		sessions: sessions,
		logger:   logger,
	}
}

// Record persists one completed question/answer exchange for userID and
// returns it with ID and CreatedAt populated.
func (s *SessionService) Record(ctx context.Context, session *model.CodeSession) (*model.CodeSession, error) {
	if session.UserID == "" {
		return nil, apperror.ValidationFailed("userId", "session owner is required")
	}
	if session.Query == "" {
		return nil, apperror.ValidationFailed("query", "session query is required")
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error("failed to record session",
			slog.String("userID", session.UserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("recording session: %w", err)
	}

	s.logger.Debug("session recorded",
		slog.String("sessionID", session.ID),
		slog.String("userID", session.UserID),
	)

	return session, nil
}

// History lists the caller's sessions, newest first. An empty history is a
// normal empty slice, never nil-as-error.
func (s *SessionService) History(ctx context.Context, userID string) ([]model.CodeSession, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list sessions",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	return sessions, nil
}

// Get returns one of the caller's sessions. A foreign or nonexistent ID is
// the same apperror.ErrNotFound — ownership is enforced by the repository's
// owner-scoped lookup.
func (s *SessionService) Get(ctx context.Context, userID, id string) (*model.CodeSession, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "session ID is required")
	}

	return s.sessions.GetByID(ctx, userID, id)
}

// Delete removes one of the caller's sessions.
func (s *SessionService) Delete(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "session ID is required")
	}

	if err := s.sessions.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.logger.Info("session deleted",
		slog.String("sessionID", id),
		slog.String("userID", userID),
	)
	return nil
}

// Clear removes all of the caller's sessions and returns how many were
// removed. Idempotent: clearing an empty history succeeds with count 0.
func (s *SessionService) Clear(ctx context.Context, userID string) (int64, error) {
	removed, err := s.sessions.DeleteAllByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to clear history",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("clearing history: %w", err)
	}

	s.logger.Info("history cleared",
		slog.String("userID", userID),
		slog.Int64("removed", removed),
	)
	return removed, nil
}
