package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/goodfinds/goodfinds/internal/model"
	"github.com/goodfinds/goodfinds/internal/store"
)

// ReviewsHandler handles review endpoints.
type ReviewsHandler struct {
	DB *sql.DB
}

type createReviewRequest struct {
	PosterID int64   `json:"poster_id"`
	PostID   int64   `json:"post_id"`
	Rating   float64 `json:"rating"`
	Comment  string  `json:"comment"`
}

// Create handles POST /api/reviews.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.PostID == 0 || req.PosterID == 0 {
		jsonError(w, http.StatusBadRequest, "post_id and poster_id required")
		return
	}

	review, err := store.CreateReview(r.Context(), h.DB, claims.UserID,
		req.PostID, req.PosterID, req.Rating, req.Comment)
	if err != nil {
		storeError(w, err)
		return
	}

	jsonResponse(w, http.StatusCreated, review)
}

// Get handles GET /api/reviews/{id}.
func (h *ReviewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	review, err := store.GetReview(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, review)
}

// ListForPoster handles GET /api/reviews/poster/{id}.
func (h *ReviewsHandler) ListForPoster(w http.ResponseWriter, r *http.Request) {
	posterID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid poster id")
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	reviews, err := store.ListPosterReviews(r.Context(), h.DB, posterID, limit)
	if err != nil {
		storeError(w, err)
		return
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	jsonResponse(w, http.StatusOK, reviews)
}
