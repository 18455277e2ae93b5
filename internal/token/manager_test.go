package token

import (
	"errors"
	"testing"
	"time"
)

func TestManager_GenerateAndValidate(t *testing.T) {
	m := NewManager("test-secret", time.Hour, "ezchat-cam")

	signed, expiresAt, err := m.GenerateAccessToken("user-1", "alice@example.com", "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if expiresAt <= time.Now().Unix() {
		t.Errorf("expected a future expiry, got %d", expiresAt)
	}

	claims, err := m.ValidateToken(signed)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "alice@example.com" || claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.Type != "access" {
		t.Errorf("expected access type, got %q", claims.Type)
	}
	if claims.Issuer != "ezchat-cam" {
		t.Errorf("expected issuer ezchat-cam, got %q", claims.Issuer)
	}
}

func TestManager_RejectsWrongSecret(t *testing.T) {
	m := NewManager("test-secret", time.Hour, "ezchat-cam")
	other := NewManager("other-secret", time.Hour, "ezchat-cam")

	signed, _, err := other.GenerateAccessToken("user-1", "a@b.c", "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := m.ValidateToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, "ezchat-cam")

	signed, _, err := m.GenerateAccessToken("user-1", "a@b.c", "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := m.ValidateToken(signed); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestManager_RejectsGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour, "ezchat-cam")

	if _, err := m.ValidateToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
