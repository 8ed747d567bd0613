package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/code-mentor/internal/apperror"
	"github.com/sakif/code-mentor/internal/model"
	"github.com/sakif/code-mentor/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user. The ID (xid — 20 chars, URL-safe, sortable by
// creation time) and CreatedAt are generated here and written back through
// the pointer.
//
// RACING REGISTRATIONS:
// The service checks for duplicate username/email before calling Create, but
// two concurrent registrations can both pass that check. The UNIQUE
// constraints are the real arbiter, so constraint violations are translated
// here into the same field-level validation errors the pre-check produces —
// a race surfaces to the client as an ordinary "already exists" 400.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		if constraintErr := translateUserConstraint(err); constraintErr != nil {
			return constraintErr
		}
		return fmt.Errorf("sqlite: creating user %s: %w", user.Username, err)
	}

	return nil
}

// translateUserConstraint maps UNIQUE violations on users.username /
// users.email to validation errors, or returns nil for unrelated errors.
// modernc.org/sqlite reports constraint failures as
// "constraint failed: UNIQUE constraint failed: users.username", so string
// matching is the only hook available without driver-specific error codes.
func translateUserConstraint(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	switch {
	case strings.Contains(msg, "users.username"):
		return apperror.ValidationFailed("username", "username already exists")
	case strings.Contains(msg, "users.email"):
		return apperror.ValidationFailed("email", "email already exists")
	}
	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

// GetByUsername retrieves a user by their unique username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUser(ctx, `WHERE username = ?`, username)
}

// GetByEmail retrieves a user by their unique email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, email)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User
	var lastLogin sql.NullTime

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at, last_login_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}

	return &u, nil
}

// UpdateLastLogin stamps the user's last_login_at with the current time.
func (db *DB) UpdateLastLogin(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating last login for user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user")
	}

	return nil
}
