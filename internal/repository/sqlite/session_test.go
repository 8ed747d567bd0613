package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sakif/code-mentor/internal/apperror"
	"github.com/sakif/code-mentor/internal/model"
)

// createTestSession records a session for userID and fails the test on error.
func createTestSession(t *testing.T, db *DB, userID, query string) *model.CodeSession {
	t.Helper()
	session := &model.CodeSession{
		UserID:   userID,
		Query:    query,
		Response: "answer to: " + query,
		Language: "python",
	}
	if err := db.Create(context.Background(), session); err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}
	return session
}

func TestSessionCreate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice", "a@x.com")

	session := &model.CodeSession{
		UserID:      user.ID,
		Query:       "How to sort a list?",
		CodeContext: "my_list = [3, 1]",
		Response:    "Use sorted().",
		Language:    "python",
		TokensUsed:  42,
	}

	if err := db.Create(context.Background(), session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if session.ID == "" {
		t.Error("Create() did not set session.ID")
	}
	if session.CreatedAt.IsZero() {
		t.Error("Create() did not set session.CreatedAt")
	}
}

func TestSessionCreate_UnknownOwnerRejected(t *testing.T) {
	db := newTestDB(t)

	// foreign_keys=ON makes the dangling user_id a constraint violation
	session := &model.CodeSession{UserID: "no-such-user", Query: "q", Response: "a"}
	if err := db.Create(context.Background(), session); err == nil {
		t.Fatal("Create() should reject a session for a nonexistent user")
	}
}

func TestSessionListByUser_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice", "a@x.com")

	for i := 1; i <= 3; i++ {
		createTestSession(t, db, user.ID, fmt.Sprintf("question %d", i))
	}

	sessions, err := db.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("len(sessions) = %d, want 3", len(sessions))
	}
	if sessions[0].Query != "question 3" || sessions[2].Query != "question 1" {
		t.Errorf("sessions not newest-first: got %q...%q", sessions[0].Query, sessions[2].Query)
	}
}

func TestSessionListByUser_OnlyOwnSessions(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice", "a@x.com")
	bob := createTestUser(t, db, "bob", "b@x.com")

	createTestSession(t, db, alice.ID, "alice question")
	createTestSession(t, db, bob.ID, "bob question")

	sessions, err := db.ListByUser(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(sessions))
	}
	if sessions[0].UserID != alice.ID {
		t.Errorf("session owned by %q leaked into %q's history", sessions[0].UserID, alice.ID)
	}
}

func TestSessionListByUser_EmptyHistory(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice", "a@x.com")

	sessions, err := db.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if sessions == nil || len(sessions) != 0 {
		t.Errorf("ListByUser() = %v, want empty non-nil slice", sessions)
	}
}

func TestSessionGetByID_OwnerScoped(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice", "a@x.com")
	bob := createTestUser(t, db, "bob", "b@x.com")
	bobSession := createTestSession(t, db, bob.ID, "bob question")

	// Owner sees it
	found, err := db.GetByID(context.Background(), bob.ID, bobSession.ID)
	if err != nil {
		t.Fatalf("GetByID() as owner error = %v", err)
	}
	if found.Query != "bob question" {
		t.Errorf("Query = %q, want %q", found.Query, "bob question")
	}

	// A foreign session ID behaves exactly like a missing one
	_, err = db.GetByID(context.Background(), alice.ID, bobSession.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() on foreign session: error = %v, want ErrNotFound", err)
	}
}

func TestSessionDelete(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice", "a@x.com")
	keep := createTestSession(t, db, user.ID, "keep me")
	remove := createTestSession(t, db, user.ID, "remove me")

	if err := db.Delete(context.Background(), user.ID, remove.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// Exactly that row is gone, the other remains
	if _, err := db.GetByID(context.Background(), user.ID, remove.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("deleted session still readable: %v", err)
	}
	if _, err := db.GetByID(context.Background(), user.ID, keep.ID); err != nil {
		t.Errorf("unrelated session was removed: %v", err)
	}
}

func TestSessionDelete_ForeignSessionIsNotFound(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice", "a@x.com")
	bob := createTestUser(t, db, "bob", "b@x.com")
	bobSession := createTestSession(t, db, bob.ID, "bob question")

	err := db.Delete(context.Background(), alice.ID, bobSession.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Delete() on foreign session: error = %v, want ErrNotFound", err)
	}

	// Bob's session must be untouched
	if _, err := db.GetByID(context.Background(), bob.ID, bobSession.ID); err != nil {
		t.Errorf("foreign delete attempt removed the session: %v", err)
	}
}

func TestSessionDeleteAllByUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice", "a@x.com")
	bob := createTestUser(t, db, "bob", "b@x.com")

	createTestSession(t, db, alice.ID, "q1")
	createTestSession(t, db, alice.ID, "q2")
	bobSession := createTestSession(t, db, bob.ID, "bob question")

	removed, err := db.DeleteAllByUser(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("DeleteAllByUser() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	// Idempotent: clearing again succeeds with zero removals
	removed, err = db.DeleteAllByUser(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("second DeleteAllByUser() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("second clear removed = %d, want 0", removed)
	}

	// Bob's history is untouched
	if _, err := db.GetByID(context.Background(), bob.ID, bobSession.ID); err != nil {
		t.Errorf("clear removed another user's session: %v", err)
	}
}
