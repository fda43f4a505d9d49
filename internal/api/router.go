package api

import (
	"database/sql"
	"net/http"
)

// NewRouter creates the API router with all endpoints registered. Reads of
// posts, reviews and reputation are public; anything that mutates state
// requires authentication.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	postsHandler := &PostsHandler{DB: db}
	reviewsHandler := &ReviewsHandler{DB: db}
	usersHandler := &UsersHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)

	// Auth.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Posts: reads are public, writes and transitions need a caller identity.
	mux.HandleFunc("GET /api/posts", postsHandler.List)
	mux.HandleFunc("GET /api/posts/{id}", postsHandler.Get)
	mux.HandleFunc("GET /api/posts/{id}/images/{ref}", postsHandler.GetImage)
	mux.Handle("POST /api/posts", authMW(http.HandlerFunc(postsHandler.Create)))
	mux.Handle("PUT /api/posts/{id}", authMW(http.HandlerFunc(postsHandler.Update)))
	mux.Handle("DELETE /api/posts/{id}", authMW(http.HandlerFunc(postsHandler.Delete)))
	mux.Handle("POST /api/posts/{id}/claim", authMW(http.HandlerFunc(postsHandler.Claim)))
	mux.Handle("POST /api/posts/{id}/unclaim", authMW(http.HandlerFunc(postsHandler.Unclaim)))
	mux.Handle("POST /api/posts/{id}/pickup", authMW(http.HandlerFunc(postsHandler.Pickup)))
	mux.Handle("POST /api/posts/{id}/missing", authMW(http.HandlerFunc(postsHandler.Missing)))
	mux.Handle("POST /api/posts/{id}/images", authMW(http.HandlerFunc(postsHandler.UploadImage)))
	mux.Handle("DELETE /api/posts/{id}/images/{ref}", authMW(http.HandlerFunc(postsHandler.DeleteImage)))

	// Reviews.
	mux.Handle("POST /api/reviews", authMW(http.HandlerFunc(reviewsHandler.Create)))
	mux.HandleFunc("GET /api/reviews/{id}", reviewsHandler.Get)
	mux.HandleFunc("GET /api/reviews/poster/{id}", reviewsHandler.ListForPoster)

	// Users.
	mux.HandleFunc("GET /api/users/{id}/reputation", usersHandler.GetReputation)
	mux.Handle("GET /api/users/me", authMW(http.HandlerFunc(usersHandler.Me)))

	// Health check: verifies the database connection.
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "unhealthy",
				"database": "disconnected",
			})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	return mux
}
