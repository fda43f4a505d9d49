package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/goodfinds/goodfinds/internal/db"
	"github.com/goodfinds/goodfinds/internal/model"
)

// claimedPost creates a post owned by owner and claimed by claimant.
func claimedPost(t *testing.T, database *sql.DB, owner, claimant *model.User, title string) *model.Post {
	t.Helper()
	ctx := context.Background()
	post, err := CreatePost(ctx, database, owner.ID, title, "", "", "used", "Boston")
	if err != nil {
		t.Fatalf("creating post: %v", err)
	}
	post, err = ClaimPost(ctx, database, post.ID, claimant.ID)
	if err != nil {
		t.Fatalf("claiming post: %v", err)
	}
	return post
}

func TestCreateReview(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := testUser(t, database, "alice")
	claimant := testUser(t, database, "bob")
	post := claimedPost(t, database, poster, claimant, "Couch")

	review, err := CreateReview(ctx, database, claimant.ID, post.ID, poster.ID, 4.5, "Great experience!")
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	if review.Rating != 4.5 || review.Comment != "Great experience!" {
		t.Errorf("review mismatch: %+v", review)
	}
	if review.ReviewerID != claimant.ID || review.PosterID != poster.ID {
		t.Errorf("review identities wrong: %+v", review)
	}

	rep, err := GetReputation(ctx, database, poster.ID)
	if err != nil {
		t.Fatalf("GetReputation: %v", err)
	}
	if rep.Reputation != 4.5 || rep.ReviewCount != 1 {
		t.Errorf("expected reputation 4.5/1, got %.2f/%d", rep.Reputation, rep.ReviewCount)
	}
}

func TestCreateReviewPostNotFound(t *testing.T) {
	database := db.NewTestDB(t)
	bob := testUser(t, database, "bob")

	_, err := CreateReview(context.Background(), database, bob.ID, 999, 1, 4.0, "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateReviewNotClaimant(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := testUser(t, database, "alice")
	claimant := testUser(t, database, "bob")
	stranger := testUser(t, database, "carol")
	post := claimedPost(t, database, poster, claimant, "Couch")

	_, err := CreateReview(ctx, database, stranger.ID, post.ID, poster.ID, 5.0, "")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-claimant, got %v", err)
	}
}

func TestCreateReviewPosterMismatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := testUser(t, database, "alice")
	claimant := testUser(t, database, "bob")
	other := testUser(t, database, "carol")
	post := claimedPost(t, database, poster, claimant, "Couch")

	_, err := CreateReview(ctx, database, claimant.ID, post.ID, other.ID, 5.0, "")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for poster mismatch, got %v", err)
	}
}

func TestCreateReviewDuplicate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := testUser(t, database, "alice")
	claimant := testUser(t, database, "bob")
	post := claimedPost(t, database, poster, claimant, "Couch")

	if _, err := CreateReview(ctx, database, claimant.ID, post.ID, poster.ID, 5.0, ""); err != nil {
		t.Fatalf("first review: %v", err)
	}

	_, err := CreateReview(ctx, database, claimant.ID, post.ID, poster.ID, 4.0, "again")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate, got %v", err)
	}

	// The duplicate must not have touched the aggregate.
	rep, _ := GetReputation(ctx, database, poster.ID)
	if rep.Reputation != 5.0 || rep.ReviewCount != 1 {
		t.Errorf("duplicate changed reputation: %.2f/%d", rep.Reputation, rep.ReviewCount)
	}
}

func TestCreateReviewRatingBounds(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := testUser(t, database, "alice")
	claimant := testUser(t, database, "bob")
	post := claimedPost(t, database, poster, claimant, "Couch")

	for _, rating := range []float64{0.5, 5.5, -1, 0} {
		_, err := CreateReview(ctx, database, claimant.ID, post.ID, poster.ID, rating, "")
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("rating %.1f: expected ErrInvalidArgument, got %v", rating, err)
		}
	}

	// Bounds themselves are valid.
	if _, err := CreateReview(ctx, database, claimant.ID, post.ID, poster.ID, 1.0, ""); err != nil {
		t.Errorf("rating 1.0 should be accepted: %v", err)
	}
}

func TestReputationMeanRounding(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := testUser(t, database, "alice")
	ratings := []float64{1.0, 2.0, 2.0} // mean 1.666... rounds to 1.67

	for i, rating := range ratings {
		claimant := testUser(t, database, "claimant"+string(rune('a'+i)))
		post := claimedPost(t, database, poster, claimant, "Item")
		if _, err := CreateReview(ctx, database, claimant.ID, post.ID, poster.ID, rating, ""); err != nil {
			t.Fatalf("review %d: %v", i, err)
		}
	}

	rep, err := GetReputation(ctx, database, poster.ID)
	if err != nil {
		t.Fatalf("GetReputation: %v", err)
	}
	if rep.Reputation != 1.67 {
		t.Errorf("expected mean rounded to 1.67, got %v", rep.Reputation)
	}
	if rep.ReviewCount != 3 {
		t.Errorf("expected count 3, got %d", rep.ReviewCount)
	}
}

func TestReputationZeroDefault(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// Unknown users and users without reviews both get the zero summary,
	// no matter how many times it is fetched.
	for i := 0; i < 3; i++ {
		rep, err := GetReputation(ctx, database, 424242)
		if err != nil {
			t.Fatalf("GetReputation: %v", err)
		}
		if rep.Reputation != 0.0 || rep.ReviewCount != 0 {
			t.Errorf("expected zero default, got %.2f/%d", rep.Reputation, rep.ReviewCount)
		}
	}

	alice := testUser(t, database, "alice")
	rep, _ := GetReputation(ctx, database, alice.ID)
	if rep.Reputation != 0.0 || rep.ReviewCount != 0 || rep.Username != "alice" {
		t.Errorf("expected zero default with username, got %+v", rep)
	}
}

func TestReviewSurvivesPickup(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := testUser(t, database, "alice")
	claimant := testUser(t, database, "bob")
	post := claimedPost(t, database, poster, claimant, "Couch")

	review, err := CreateReview(ctx, database, claimant.ID, post.ID, poster.ID, 4.0, "")
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}

	if err := ConfirmPickup(ctx, database, post.ID, claimant.ID); err != nil {
		t.Fatalf("ConfirmPickup: %v", err)
	}

	// The post is gone but the review and reputation remain.
	if _, err := GetReview(ctx, database, review.ID); err != nil {
		t.Errorf("review should survive pickup: %v", err)
	}
	rep, _ := GetReputation(ctx, database, poster.ID)
	if rep.Reputation != 4.0 || rep.ReviewCount != 1 {
		t.Errorf("reputation should survive pickup, got %.2f/%d", rep.Reputation, rep.ReviewCount)
	}
}

func TestGetReviewNotFound(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := GetReview(context.Background(), database, 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPosterReviews(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	poster := testUser(t, database, "alice")
	first := testUser(t, database, "bob")
	second := testUser(t, database, "carol")

	p1 := claimedPost(t, database, poster, first, "Couch")
	CreateReview(ctx, database, first.ID, p1.ID, poster.ID, 5.0, "Great!")
	p2 := claimedPost(t, database, poster, second, "Table")
	CreateReview(ctx, database, second.ID, p2.ID, poster.ID, 4.0, "Good")

	reviews, err := ListPosterReviews(ctx, database, poster.ID, 0)
	if err != nil {
		t.Fatalf("ListPosterReviews: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
	if reviews[0].Rating != 4.0 {
		t.Errorf("expected newest review first, got rating %.1f", reviews[0].Rating)
	}

	limited, _ := ListPosterReviews(ctx, database, poster.ID, 1)
	if len(limited) != 1 {
		t.Errorf("expected 1 review with limit, got %d", len(limited))
	}
}
