package utils

import (
	"errors"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("s3cret", "admin", "ADMIN", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseJWT("s3cret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Username != "admin" || claims.Role != "ADMIN" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestParseJWTRejects(t *testing.T) {
	good, _ := GenerateJWT("s3cret", "admin", "ADMIN", time.Hour)
	expired, _ := GenerateJWT("s3cret", "admin", "ADMIN", -time.Minute)

	cases := map[string]struct {
		secret string
		token  string
	}{
		"wrong secret": {"other", good},
		"expired":      {"s3cret", expired},
		"garbage":      {"s3cret", "not.a.token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseJWT(tc.secret, tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestGenerateJWTRequiresSecret(t *testing.T) {
	if _, err := GenerateJWT("", "admin", "ADMIN", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword("hunter2", hash) {
		t.Error("expected password to match")
	}
	if CheckPassword("hunter3", hash) {
		t.Error("expected mismatch")
	}
}
