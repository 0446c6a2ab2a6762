package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/flashcards/internal/apperror"
	"github.com/sakif/flashcards/internal/model"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "hash",
	}

	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Verify the user was modified in-place (pointer receiver)
	if user.ID == 0 {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	duplicate := &model.User{Username: "alice", Email: "b@y.com", PasswordHash: "hash"}
	err := db.Users().Create(context.Background(), duplicate)

	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "username" {
		t.Errorf("Field = %q, want %q", appErr.Field, "username")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice") // alice@example.com

	duplicate := &model.User{Username: "bob", Email: "alice@example.com", PasswordHash: "hash"}
	err := db.Users().Create(context.Background(), duplicate)

	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "email" {
		t.Errorf("Field = %q, want %q", appErr.Field, "email")
	}
}

// A failed insert must leave prior state untouched.
func TestUserCreate_ConflictLeavesStateUnchanged(t *testing.T) {
	db := newTestDB(t)
	original := createTestUser(t, db, "alice")

	_ = db.Users().Create(context.Background(), &model.User{Username: "alice", Email: "other@x.com", PasswordHash: "h"})

	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		t.Fatalf("counting users: %v", err)
	}
	if count != 1 {
		t.Errorf("users = %d, want 1", count)
	}

	found, err := db.Users().GetByID(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Email != original.Email {
		t.Errorf("Email = %q, want %q", found.Email, original.Email)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "getbyid_user")

	found, err := db.Users().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
	if found.Username != "getbyid_user" {
		t.Errorf("Username = %q, want %q", found.Username, "getbyid_user")
	}
	if found.PasswordHash != created.PasswordHash {
		t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, created.PasswordHash)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), 9999)

	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "lookup")

	found, err := db.Users().GetByUsername(context.Background(), "lookup")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %d, want %d", found.ID, created.ID)
	}
}

func TestUserGetByUsername_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByUsername(context.Background(), "ghost")

	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByUsername() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestUserDelete_CascadesToDecksAndCards(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")
	createTestDeck(t, db, owner.ID, "first", model.CardInput{Question: "q1", Answer: "a1"})
	createTestDeck(t, db, owner.ID, "second", model.CardInput{Question: "q2", Answer: "a2"})
	kept := createTestDeck(t, db, other.ID, "kept", model.CardInput{Question: "q3", Answer: "a3"})

	if err := db.Users().Delete(ctx, owner.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var decks, cards int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM decks`).Scan(&decks); err != nil {
		t.Fatalf("counting decks: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&cards); err != nil {
		t.Fatalf("counting cards: %v", err)
	}
	if decks != 1 || cards != 1 {
		t.Errorf("after cascade: decks = %d, cards = %d, want 1 and 1", decks, cards)
	}

	if _, err := db.Decks().GetByID(ctx, kept.ID); err != nil {
		t.Errorf("other user's deck should survive: %v", err)
	}
}

func TestUserDelete_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Users().Delete(context.Background(), 12345)

	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
