package model

import "time"

// User represents a registered account. The reputation fields are a derived
// aggregate maintained by the review store, never edited directly.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Reputation   float64   `json:"reputation"`
	ReviewCount  int       `json:"review_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Reputation is the public reputation summary for a user. Users with no
// recorded reviews get the zero value rather than an error.
type Reputation struct {
	UserID      int64   `json:"user_id"`
	Username    string  `json:"username,omitempty"`
	Reputation  float64 `json:"reputation"`
	ReviewCount int     `json:"review_count"`
}
