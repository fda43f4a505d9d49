package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/goodfinds/goodfinds/internal/api"
	"github.com/goodfinds/goodfinds/internal/db"
)

func main() {
	// Load .env if present; flags still win over the environment.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("server", flag.ExitOnError)
	dbPath := fs.String("db", envOr("GOODFINDS_DB", "goodfinds.sqlite3"), "path to SQLite database file")
	addr := fs.String("addr", envOr("GOODFINDS_ADDR", ":8080"), "listen address")
	jwtSecret := fs.String("jwt-secret", os.Getenv("GOODFINDS_JWT_SECRET"), "JWT signing key (auto-generated if empty)")
	origins := fs.String("allowed-origins", envOr("GOODFINDS_ALLOWED_ORIGINS", "http://localhost:3000"), "comma-separated CORS origins")
	fs.Parse(os.Args[1:])

	if *jwtSecret == "" {
		secret, err := generateSecret()
		if err != nil {
			log.Fatalf("Failed to generate JWT secret: %v", err)
		}
		*jwtSecret = secret
		slog.Warn("JWT secret auto-generated, tokens will be invalidated on restart")
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Run migrations (idempotent).
	if err := db.Migrate(database); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	router := api.NewRouter(database, *jwtSecret)
	cors := api.CORSMiddleware(strings.Split(*origins, ","))
	handler := api.LoggingMiddleware(cors(router))

	fmt.Printf("Server listening on %s\n", *addr)
	if err := http.ListenAndServe(*addr, handler); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// generateSecret creates a random signing key.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
