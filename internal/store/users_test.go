package store

import (
	"context"
	"errors"
	"testing"

	"github.com/goodfinds/goodfinds/internal/db"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "alice", "alice@example.com", "hash123")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == 0 {
		t.Error("expected assigned id")
	}
	if user.Reputation != 0.0 || user.ReviewCount != 0 {
		t.Errorf("expected zero reputation defaults, got %.2f/%d", user.Reputation, user.ReviewCount)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "alice" || got.Email != "alice@example.com" || got.PasswordHash != "hash123" {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	byEmail, err := GetUserByEmail(ctx, database, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("expected same user by email, got %d", byEmail.ID)
	}
}

func TestGetUserAbsent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := GetUser(ctx, database, 999)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for absent user, got %+v", user)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "alice", "alice@example.com", "h"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, err := CreateUser(ctx, database, "alice2", "alice@example.com", "h")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "alice@example.com", "old")
	if err := UpdateUserPassword(ctx, database, user.ID, "new"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "new" {
		t.Errorf("expected updated hash, got %q", got.PasswordHash)
	}
}
