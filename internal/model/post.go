package model

import "time"

// Post represents a giveaway listing. A post is either available or claimed;
// completed transactions are deleted outright, so the set of stored posts is
// exactly the set of active listings.
type Post struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	OwnerID     int64     `json:"owner_id"`
	Category    string    `json:"category,omitempty"`
	Condition   string    `json:"condition"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	ClaimedBy   *int64    `json:"claimed_by"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Post statuses. ClaimedBy is set if and only if the status is claimed.
const (
	PostStatusAvailable = "available"
	PostStatusClaimed   = "claimed"
)

// MaxPostImages is the maximum number of images per post.
const MaxPostImages = 9

// CategoryAll is the list-filter wildcard meaning "no category filter".
const CategoryAll = "All"
