package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goodfinds/goodfinds/internal/model"
)

// PostFilter narrows ListPosts results. Zero values mean "no filter".
// The literal category "All" also means no category filter.
type PostFilter struct {
	Category  string
	Status    string
	Location  string
	Condition string
	Limit     int
}

// PostUpdate carries the fields of an edit request. Nil fields are left
// untouched; at least one field must be set.
type PostUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Condition   *string
	Location    *string
}

// CreatePost creates a new available listing owned by the caller.
func CreatePost(ctx context.Context, db *sql.DB, ownerID int64, title, description, category, condition, location string) (*model.Post, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO posts (title, description, owner_id, category, condition, location)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		title, description, ownerID, category, condition, location,
	)
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting post id: %w", err)
	}

	return GetPost(ctx, db, id)
}

// GetPost returns a post by ID, including its image references.
func GetPost(ctx context.Context, db *sql.DB, id int64) (*model.Post, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, title, description, owner_id, category, condition, location,
		        status, claimed_by, created_at, updated_at
		 FROM posts WHERE id = ?`, id,
	)
	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: post %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting post: %w", err)
	}

	if err := loadImages(ctx, db, []*model.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// ListPosts returns posts matching the filter, newest first.
func ListPosts(ctx context.Context, db *sql.DB, filter PostFilter) ([]model.Post, error) {
	query := `SELECT id, title, description, owner_id, category, condition, location,
	                 status, claimed_by, created_at, updated_at
	          FROM posts WHERE 1=1`
	var args []any

	if filter.Category != "" && filter.Category != model.CategoryAll {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Location != "" {
		query += ` AND location = ?`
		args = append(args, filter.Location)
	}
	if filter.Condition != "" {
		query += ` AND condition = ?`
		args = append(args, filter.Condition)
	}

	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*model.Post, len(posts))
	for i := range posts {
		refs[i] = &posts[i]
	}
	if err := loadImages(ctx, db, refs); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost merges the provided fields into an available post. Only the
// owner may edit, and only while the post is unclaimed.
func UpdatePost(ctx context.Context, db *sql.DB, id, callerID int64, upd PostUpdate) (*model.Post, error) {
	post, err := GetPost(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != callerID {
		return nil, fmt.Errorf("%w: only the owner may edit a post", ErrForbidden)
	}
	if post.Status != model.PostStatusAvailable {
		return nil, fmt.Errorf("%w: cannot edit a claimed post", ErrInvalidState)
	}

	var sets []string
	var args []any
	set := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *value)
		}
	}
	set("title", upd.Title)
	set("description", upd.Description)
	set("category", upd.Category)
	set("condition", upd.Condition)
	set("location", upd.Location)

	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidArgument)
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	_, err = db.ExecContext(ctx,
		`UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ? AND status = 'available'`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating post: %w", err)
	}

	return GetPost(ctx, db, id)
}

// ClaimPost reserves an available post for the caller. The claim is a guarded
// conditional update: it succeeds only if the post was still available at the
// moment of the write, so two concurrent claims produce exactly one winner.
func ClaimPost(ctx context.Context, db *sql.DB, id, callerID int64) (*model.Post, error) {
	post, err := GetPost(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if post.Status != model.PostStatusAvailable {
		return nil, fmt.Errorf("%w: post is not available", ErrInvalidState)
	}
	if post.OwnerID == callerID {
		return nil, ErrSelfClaim
	}

	result, err := db.ExecContext(ctx,
		`UPDATE posts SET claimed_by = ?, status = 'claimed', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'available'`,
		callerID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("claiming post: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// Someone else claimed it between the read and the write.
		return nil, fmt.Errorf("%w: post is not available", ErrInvalidState)
	}

	return GetPost(ctx, db, id)
}

// UnclaimPost releases the caller's claim, making the post available again.
func UnclaimPost(ctx context.Context, db *sql.DB, id, callerID int64) (*model.Post, error) {
	post, err := GetPost(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if post.Status != model.PostStatusClaimed {
		return nil, fmt.Errorf("%w: post is not claimed", ErrInvalidState)
	}
	if post.ClaimedBy == nil || *post.ClaimedBy != callerID {
		return nil, fmt.Errorf("%w: only the claimant may unclaim a post", ErrForbidden)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE posts SET claimed_by = NULL, status = 'available', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'claimed' AND claimed_by = ?`,
		id, callerID,
	)
	if err != nil {
		return nil, fmt.Errorf("unclaiming post: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: post is not claimed", ErrInvalidState)
	}

	return GetPost(ctx, db, id)
}

// ConfirmPickup completes a transaction. Either party may confirm; the post
// is deleted, so the stored set stays exactly the set of active listings.
func ConfirmPickup(ctx context.Context, db *sql.DB, id, callerID int64) error {
	post, err := GetPost(ctx, db, id)
	if err != nil {
		return err
	}
	if post.Status != model.PostStatusClaimed {
		return fmt.Errorf("%w: post is not claimed", ErrInvalidState)
	}
	if callerID != post.OwnerID && (post.ClaimedBy == nil || *post.ClaimedBy != callerID) {
		return fmt.Errorf("%w: only the owner or claimant may confirm pickup", ErrForbidden)
	}

	return deleteClaimed(ctx, db, id)
}

// ReportMissing lets the claimant report that the item was gone. The post is
// deleted, same as a completed pickup.
func ReportMissing(ctx context.Context, db *sql.DB, id, callerID int64) error {
	post, err := GetPost(ctx, db, id)
	if err != nil {
		return err
	}
	if post.Status != model.PostStatusClaimed {
		return fmt.Errorf("%w: post is not claimed", ErrInvalidState)
	}
	if post.ClaimedBy == nil {
		// Unreachable given the schema CHECK, but don't mask corruption.
		return fmt.Errorf("post %d is claimed but has no claimant", id)
	}
	if *post.ClaimedBy != callerID {
		return fmt.Errorf("%w: only the claimant may report a missing item", ErrForbidden)
	}

	return deleteClaimed(ctx, db, id)
}

// DeletePost removes a post unconditionally. Owner only.
func DeletePost(ctx context.Context, db *sql.DB, id, callerID int64) error {
	post, err := GetPost(ctx, db, id)
	if err != nil {
		return err
	}
	if post.OwnerID != callerID {
		return fmt.Errorf("%w: only the owner may delete a post", ErrForbidden)
	}

	_, err = db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	return nil
}

// deleteClaimed removes a post, guarded on it still being claimed.
func deleteClaimed(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM posts WHERE id = ? AND status = 'claimed'`, id,
	)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: post is not claimed", ErrInvalidState)
	}
	return nil
}

// AddPostImage stores a processed image for a post and returns its reference.
// Owner only, capped at MaxPostImages per post.
func AddPostImage(ctx context.Context, db *sql.DB, postID, callerID int64, data []byte, mime string) (string, error) {
	post, err := GetPost(ctx, db, postID)
	if err != nil {
		return "", err
	}
	if post.OwnerID != callerID {
		return "", fmt.Errorf("%w: only the owner may add images", ErrForbidden)
	}
	if len(post.Images) >= model.MaxPostImages {
		return "", fmt.Errorf("%w: a post may have at most %d images", ErrInvalidArgument, model.MaxPostImages)
	}

	ref := uuid.NewString()
	_, err = db.ExecContext(ctx,
		`INSERT INTO post_images (ref, post_id, data, mime) VALUES (?, ?, ?, ?)`,
		ref, postID, data, mime,
	)
	if err != nil {
		return "", fmt.Errorf("adding post image: %w", err)
	}
	return ref, nil
}

// GetPostImage returns the image data and MIME type for a reference.
func GetPostImage(ctx context.Context, db *sql.DB, ref string) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM post_images WHERE ref = ?`, ref,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("%w: image %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting post image: %w", err)
	}
	return data, mime, nil
}

// RemovePostImage deletes an image from a post. Owner only.
func RemovePostImage(ctx context.Context, db *sql.DB, postID int64, ref string, callerID int64) error {
	post, err := GetPost(ctx, db, postID)
	if err != nil {
		return err
	}
	if post.OwnerID != callerID {
		return fmt.Errorf("%w: only the owner may remove images", ErrForbidden)
	}

	result, err := db.ExecContext(ctx,
		`DELETE FROM post_images WHERE ref = ? AND post_id = ?`, ref, postID,
	)
	if err != nil {
		return fmt.Errorf("removing post image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: image %s", ErrNotFound, ref)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*model.Post, error) {
	post := &model.Post{}
	var description, category sql.NullString
	err := s.Scan(&post.ID, &post.Title, &description, &post.OwnerID, &category,
		&post.Condition, &post.Location, &post.Status, &post.ClaimedBy,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	post.Description = description.String
	post.Category = category.String
	post.Images = []string{}
	return post, nil
}

// loadImages fills the Images field for each post with its image references,
// oldest first, using a single query.
func loadImages(ctx context.Context, db *sql.DB, posts []*model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	placeholders := make([]string, len(posts))
	args := make([]any, len(posts))
	byID := make(map[int64]*model.Post, len(posts))
	for i, p := range posts {
		placeholders[i] = "?"
		args[i] = p.ID
		byID[p.ID] = p
	}

	rows, err := db.QueryContext(ctx,
		`SELECT post_id, ref FROM post_images
		 WHERE post_id IN (`+strings.Join(placeholders, ", ")+`)
		 ORDER BY created_at, ref`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("loading post images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		var ref string
		if err := rows.Scan(&postID, &ref); err != nil {
			return fmt.Errorf("scanning post image: %w", err)
		}
		if p := byID[postID]; p != nil {
			p.Images = append(p.Images, ref)
		}
	}
	return rows.Err()
}
