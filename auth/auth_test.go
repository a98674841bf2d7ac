// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func TestIssueAndVerifyToken(t *testing.T) {
	token, err := IssueToken("user-1", "alice@example.com", "Alice", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	claims, err := VerifyToken(token, testSecret)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}

	if claims.UserID() != "user-1" {
		t.Errorf("UserID = %q, want user-1", claims.UserID())
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
	if claims.Name != "Alice" {
		t.Errorf("Name = %q", claims.Name)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := IssueToken("user-1", "a@b.c", "A", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	if _, err := VerifyToken(token, "some-other-secret"); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	token, err := IssueToken("user-1", "a@b.c", "A", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	if _, err := VerifyToken(token, testSecret); err != ErrTokenExpired {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyTokenGarbage(t *testing.T) {
	cases := []string{
		"",
		"not-a-token",
		"aaaa.bbbb.cccc",
	}

	for _, tokenStr := range cases {
		if _, err := VerifyToken(tokenStr, testSecret); err != ErrInvalidToken {
			t.Errorf("VerifyToken(%q): expected ErrInvalidToken, got %v", tokenStr, err)
		}
	}
}

func TestVerifyTokenMissingSubject(t *testing.T) {
	token, err := IssueToken("", "a@b.c", "A", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	if _, err := VerifyToken(token, testSecret); err != ErrInvalidToken {
		t.Errorf("Expected ErrInvalidToken for empty subject, got %v", err)
	}
}
