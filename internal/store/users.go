package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goodfinds/goodfinds/internal/model"
)

// CreateUser registers a new user. Returns ErrConflict if the email is
// already registered.
func CreateUser(ctx context.Context, db *sql.DB, username, email, passwordHash string) (*model.User, error) {
	existing, err := GetUserByEmail(ctx, db, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		username, email, passwordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID, or nil if absent.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, reputation, review_count, created_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Reputation, &u.ReviewCount, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email, or nil if absent.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, reputation, review_count, created_at
		 FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Reputation, &u.ReviewCount, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// GetReputation returns a user's reputation summary. Unknown users get the
// zero-valued default; absence of reputation is a normal state, not an error.
func GetReputation(ctx context.Context, db *sql.DB, userID int64) (*model.Reputation, error) {
	user, err := GetUser(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &model.Reputation{UserID: userID}, nil
	}
	return &model.Reputation{
		UserID:      user.ID,
		Username:    user.Username,
		Reputation:  user.Reputation,
		ReviewCount: user.ReviewCount,
	}, nil
}
