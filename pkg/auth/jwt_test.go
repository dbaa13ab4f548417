package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, err := m.GenerateToken("demo", "Demo User", "user")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Username != "demo" || claims.FullName != "Demo User" || claims.Role != "user" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenWrongKey(t *testing.T) {
	token, err := NewJWTManager("secret", time.Hour).GenerateToken("demo", "Demo User", "user")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewJWTManager("other", time.Hour).ValidateToken(token); err == nil {
		t.Fatal("token signed with a different key should be rejected")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := NewJWTManager("secret", time.Hour).ValidateToken("not-a-token"); err == nil {
		t.Fatal("garbage token should be rejected")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("admin123")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPasswordHash("admin123", hash) {
		t.Error("correct password should match")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Error("wrong password should not match")
	}
}
