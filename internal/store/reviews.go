package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/goodfinds/goodfinds/internal/model"
)

// DefaultReviewLimit is used when a caller asks for a poster's reviews
// without a limit, MaxReviewLimit caps what they may ask for.
const (
	DefaultReviewLimit = 50
	MaxReviewLimit     = 200
)

// CreateReview records a claimant's review of a poster and recomputes the
// poster's reputation. Validation is fail-fast and ordered: the post must
// exist, the reviewer must be its claimant, the declared poster must be its
// owner, the review must not be a duplicate, and the rating must be in range.
// Nothing is written unless every check passes.
func CreateReview(ctx context.Context, db *sql.DB, reviewerID, postID, posterID int64, rating float64, comment string) (*model.Review, error) {
	post, err := GetPost(ctx, db, postID)
	if err != nil {
		return nil, err
	}
	if post.ClaimedBy == nil || *post.ClaimedBy != reviewerID {
		return nil, fmt.Errorf("%w: you can only review items you claimed", ErrForbidden)
	}
	if post.OwnerID != posterID {
		return nil, fmt.Errorf("%w: poster does not match the post owner", ErrInvalidArgument)
	}

	var existing int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE reviewer_id = ? AND post_id = ?`,
		reviewerID, postID,
	).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("checking for existing review: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: you have already reviewed this post", ErrConflict)
	}

	if rating < model.MinRating || rating > model.MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %.1f and %.1f",
			ErrInvalidArgument, model.MinRating, model.MaxRating)
	}

	// Insert and recompute in one transaction so the stored aggregate never
	// drifts from the recorded reviews.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reviews (reviewer_id, poster_id, post_id, rating, comment)
		 VALUES (?, ?, ?, ?, ?)`,
		reviewerID, posterID, postID, rating, comment,
	)
	if err != nil {
		return nil, fmt.Errorf("creating review: %w", err)
	}

	if err := recomputeReputation(ctx, tx, posterID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing review: %w", err)
	}

	reviewID, _ := result.LastInsertId()
	return GetReview(ctx, db, reviewID)
}

// recomputeReputation replaces a poster's aggregate with a full scan of their
// reviews: mean rating rounded to 2 decimals, plus the count. A full
// reread-and-replace rather than a running average, so out-of-order writes
// always converge on the correct value.
func recomputeReputation(ctx context.Context, tx *sql.Tx, posterID int64) error {
	var count int
	var mean sql.NullFloat64
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(rating) FROM reviews WHERE poster_id = ?`, posterID,
	).Scan(&count, &mean)
	if err != nil {
		return fmt.Errorf("recomputing reputation: %w", err)
	}

	rounded := math.Round(mean.Float64*100) / 100
	_, err = tx.ExecContext(ctx,
		`UPDATE users SET reputation = ?, review_count = ? WHERE id = ?`,
		rounded, count, posterID,
	)
	if err != nil {
		return fmt.Errorf("storing reputation: %w", err)
	}
	return nil
}

// GetReview returns a review by ID.
func GetReview(ctx context.Context, db *sql.DB, id int64) (*model.Review, error) {
	r := &model.Review{}
	var comment sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, reviewer_id, poster_id, post_id, rating, comment, created_at
		 FROM reviews WHERE id = ?`, id,
	).Scan(&r.ID, &r.ReviewerID, &r.PosterID, &r.PostID, &r.Rating, &comment, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: review %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting review: %w", err)
	}
	r.Comment = comment.String
	return r, nil
}

// ListPosterReviews returns a poster's reviews, newest first. A non-positive
// limit falls back to DefaultReviewLimit.
func ListPosterReviews(ctx context.Context, db *sql.DB, posterID int64, limit int) ([]model.Review, error) {
	if limit <= 0 {
		limit = DefaultReviewLimit
	}
	if limit > MaxReviewLimit {
		limit = MaxReviewLimit
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, reviewer_id, poster_id, post_id, rating, comment, created_at
		 FROM reviews WHERE poster_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		posterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var r model.Review
		var comment sql.NullString
		if err := rows.Scan(&r.ID, &r.ReviewerID, &r.PosterID, &r.PostID, &r.Rating, &comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		r.Comment = comment.String
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
