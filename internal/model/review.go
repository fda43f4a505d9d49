package model

import "time"

// Review is a rating a claimant leaves for a poster after a transaction.
// PostID is kept as a plain reference rather than a foreign key: the post is
// deleted when the transaction completes, but its reviews must survive it.
type Review struct {
	ID         int64     `json:"id"`
	ReviewerID int64     `json:"reviewer_id"`
	PosterID   int64     `json:"poster_id"`
	PostID     int64     `json:"post_id"`
	Rating     float64   `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Rating bounds.
const (
	MinRating = 1.0
	MaxRating = 5.0
)
