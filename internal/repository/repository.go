// Package repository declares the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/sakif/code-mentor/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

// SessionRepository stores question/answer exchanges. Every lookup and
// mutation takes the owning userID and filters on it — a session is only
// ever visible to its owner, enforced here rather than in each caller.
type SessionRepository interface {
	Create(ctx context.Context, session *model.CodeSession) error
	ListByUser(ctx context.Context, userID string) ([]model.CodeSession, error)
	GetByID(ctx context.Context, userID, id string) (*model.CodeSession, error)
	Delete(ctx context.Context, userID, id string) error
	// DeleteAllByUser removes every session owned by userID and returns how
	// many were removed. Removing zero is not an error.
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)
}
