package api

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPlainVerifier(t *testing.T) {
	v := NewPlainVerifier("topsecret")

	t.Run("accepts the exact secret", func(t *testing.T) {
		if !v.Verify("topsecret") {
			t.Error("expected matching token to verify")
		}
	})

	t.Run("rejects a wrong token", func(t *testing.T) {
		if v.Verify("topsecreT") {
			t.Error("expected mismatched token to fail")
		}
	})

	t.Run("rejects an empty token", func(t *testing.T) {
		if v.Verify("") {
			t.Error("expected empty token to fail")
		}
	})
}

func TestBcryptVerifier(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("topsecret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash secret: %v", err)
	}
	v := NewBcryptVerifier(string(hash))

	t.Run("accepts the hashed secret", func(t *testing.T) {
		if !v.Verify("topsecret") {
			t.Error("expected matching token to verify")
		}
	})

	t.Run("rejects a wrong token", func(t *testing.T) {
		if v.Verify("nope") {
			t.Error("expected mismatched token to fail")
		}
	})

	t.Run("rejects an empty token", func(t *testing.T) {
		if v.Verify("") {
			t.Error("expected empty token to fail")
		}
	})
}
