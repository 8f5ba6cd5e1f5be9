package auth

import (
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")

	token, err := issuer.GenerateToken(42, "alice")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := issuer.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want %q", claims.Username, "alice")
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		t.Error("token should expire after it was issued")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a").GenerateToken(1, "bob")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := NewTokenIssuer("secret-b").ParseToken(token); err == nil {
		t.Error("expected error parsing token signed with a different secret")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := issuer.ParseToken(tok); err == nil {
			t.Errorf("ParseToken(%q) should fail", tok)
		}
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword("hunter22", hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("hunter23", hash) {
		t.Error("wrong password accepted")
	}
}
