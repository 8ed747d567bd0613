package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/code-mentor/internal/apperror"
	"github.com/sakif/code-mentor/internal/model"
	"github.com/sakif/code-mentor/internal/repository"
)

// compile-time check that *DB implements repository.SessionRepository
var _ repository.SessionRepository = (*DB)(nil)

// Create inserts a new code session. ID and CreatedAt are generated here and
// written back through the pointer.
func (db *DB) Create(ctx context.Context, session *model.CodeSession) error {
	session.ID = xid.New().String()
	session.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO code_sessions
		   (id, user_id, query, code_context, response, language, tokens_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.Query,
		session.CodeContext,
		session.Response,
		session.Language,
		session.TokensUsed,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating code session: %w", err)
	}

	return nil
}

// ListByUser returns all sessions owned by userID, newest first.
func (db *DB) ListByUser(ctx context.Context, userID string) ([]model.CodeSession, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, query, code_context, response, language, tokens_used, created_at
		 FROM code_sessions
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing sessions for user %s: %w", userID, err)
	}
	defer rows.Close()

	sessions := []model.CodeSession{}
	for rows.Next() {
		var s model.CodeSession
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.Query, &s.CodeContext,
			&s.Response, &s.Language, &s.TokensUsed, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning session row: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating sessions: %w", err)
	}

	return sessions, nil
}

// GetByID retrieves one session. The WHERE clause filters on BOTH the
// session ID and the owner — a session that exists but belongs to another
// user is indistinguishable from one that doesn't exist.
func (db *DB) GetByID(ctx context.Context, userID, id string) (*model.CodeSession, error) {
	var s model.CodeSession

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, query, code_context, response, language, tokens_used, created_at
		 FROM code_sessions
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(
		&s.ID, &s.UserID, &s.Query, &s.CodeContext,
		&s.Response, &s.Language, &s.TokensUsed, &s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session")
		}
		return nil, fmt.Errorf("sqlite: getting session %s: %w", id, err)
	}

	return &s, nil
}

// Delete removes one session, owner-scoped like GetByID. RowsAffected
// distinguishes "deleted" from "not found / not owned".
func (db *DB) Delete(ctx context.Context, userID, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM code_sessions WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting session %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("session")
	}

	return nil
}

// DeleteAllByUser removes every session owned by userID and returns the
// count. Zero removals is a normal outcome, not an error — clearing an
// already-empty history succeeds.
func (db *DB) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM code_sessions WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: clearing sessions for user %s: %w", userID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	return rowsAffected, nil
}
