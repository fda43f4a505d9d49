package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/goodfinds/goodfinds/internal/imaging"
	"github.com/goodfinds/goodfinds/internal/model"
	"github.com/goodfinds/goodfinds/internal/store"
)

// PostsHandler handles listing lifecycle endpoints.
type PostsHandler struct {
	DB *sql.DB
}

type createPostRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Condition   string `json:"condition"`
	Location    string `json:"location"`
}

type updatePostRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Condition   *string `json:"condition"`
	Location    *string `json:"location"`
}

// List handles GET /api/posts.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.PostFilter{
		Category:  q.Get("category"),
		Status:    q.Get("status"),
		Location:  q.Get("location"),
		Condition: q.Get("condition"),
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	posts, err := store.ListPosts(r.Context(), h.DB, filter)
	if err != nil {
		storeError(w, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	jsonResponse(w, http.StatusOK, posts)
}

// Create handles POST /api/posts.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" || req.Condition == "" || req.Location == "" {
		jsonError(w, http.StatusBadRequest, "title, condition and location required")
		return
	}

	post, err := store.CreatePost(r.Context(), h.DB, claims.UserID,
		req.Title, req.Description, req.Category, req.Condition, req.Location)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, post)
}

// Get handles GET /api/posts/{id}.
func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := store.GetPost(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, post)
}

// Update handles PUT /api/posts/{id}.
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := postID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	var req updatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	post, err := store.UpdatePost(r.Context(), h.DB, id, claims.UserID, store.PostUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
		Location:    req.Location,
	})
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, post)
}

// Delete handles DELETE /api/posts/{id}.
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := postID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	if err := store.DeletePost(r.Context(), h.DB, id, claims.UserID); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

// Claim handles POST /api/posts/{id}/claim.
func (h *PostsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := postID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := store.ClaimPost(r.Context(), h.DB, id, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, post)
}

// Unclaim handles POST /api/posts/{id}/unclaim.
func (h *PostsHandler) Unclaim(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := postID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := store.UnclaimPost(r.Context(), h.DB, id, claims.UserID)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, post)
}

// Pickup handles POST /api/posts/{id}/pickup.
func (h *PostsHandler) Pickup(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := postID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	if err := store.ConfirmPickup(r.Context(), h.DB, id, claims.UserID); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "pickup confirmed"})
}

// Missing handles POST /api/posts/{id}/missing.
func (h *PostsHandler) Missing(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := postID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	if err := store.ReportMissing(r.Context(), h.DB, id, claims.UserID); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "missing item reported"})
}

// UploadImage handles POST /api/posts/{id}/images.
func (h *PostsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := postID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	data, mime, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref, err := store.AddPostImage(r.Context(), h.DB, id, claims.UserID, data, mime)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]string{"ref": ref})
}

// GetImage handles GET /api/posts/{id}/images/{ref}.
func (h *PostsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetPostImage(r.Context(), h.DB, r.PathValue("ref"))
	if err != nil {
		storeError(w, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// DeleteImage handles DELETE /api/posts/{id}/images/{ref}.
func (h *PostsHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := postID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	if err := store.RemovePostImage(r.Context(), h.DB, id, r.PathValue("ref"), claims.UserID); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

func postID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
