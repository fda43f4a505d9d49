package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, 1, "alice@example.com", "alice")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("expected email 'alice@example.com', got %q", claims.Email)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username 'alice', got %q", claims.Username)
	}
	if claims.ID == "" {
		t.Error("expected non-empty JTI")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", 1, "alice@example.com", "alice")

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestTokenExpiry(t *testing.T) {
	// Just verify the expiry is set correctly.
	secret := "test"
	token, _ := GenerateToken(secret, 1, "a@b.c", "a")
	claims, _ := ValidateToken(secret, token)

	expiresAt := claims.ExpiresAt.Time
	expectedExpiry := time.Now().Add(TokenExpiry)

	// Should be within a few seconds.
	diff := expectedExpiry.Sub(expiresAt)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
