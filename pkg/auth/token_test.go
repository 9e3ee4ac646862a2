package auth

import (
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T, now time.Time) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret", "merchantry")
	if err != nil {
		t.Fatalf("failed to build token manager: %v", err)
	}
	m.now = func() time.Time { return now }
	return m
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", "merchantry"); err == nil {
		t.Fatalf("expected empty secret to be rejected")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)
	m := newTestManager(t, now)
	id := Identity{ID: "user-1", Email: "a@b.co", Role: RoleVendor}

	token, err := m.SignAccess(id)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	got := claims.Identity()
	if got.ID != id.ID || got.Email != id.Email || got.Role != id.Role {
		t.Fatalf("expected identity %+v, got %+v", id, got)
	}
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	now := time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)
	m := newTestManager(t, now)

	token, err := m.SignAccess(Identity{ID: "user-1", Email: "a@b.co", Role: RoleUser})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	m.now = func() time.Time { return now.Add(AccessTokenTTL + time.Minute) }
	if _, err := m.Verify(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestVerify_RejectsForeignSecret(t *testing.T) {
	now := time.Now()
	signer := newTestManager(t, now)
	token, err := signer.SignAccess(Identity{ID: "user-1"})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	verifier, err := NewTokenManager("another-secret", "merchantry")
	if err != nil {
		t.Fatalf("failed to build verifier: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("expected cross-secret verification to fail")
	}
}

func TestVerify_RejectsWrongIssuer(t *testing.T) {
	now := time.Now()
	signer, err := NewTokenManager("test-secret", "someone-else")
	if err != nil {
		t.Fatalf("failed to build signer: %v", err)
	}
	token, err := signer.SignAccess(Identity{ID: "user-1"})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	verifier := newTestManager(t, now)
	if _, err := verifier.Verify(token); err == nil {
		t.Fatalf("expected wrong issuer to be rejected")
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	m := newTestManager(t, time.Now())
	if _, err := m.Verify("not.a.token"); err == nil {
		t.Fatalf("expected malformed token to be rejected")
	}
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	now := time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)
	m := newTestManager(t, now)
	id := Identity{ID: "user-1", Email: "a@b.co", Role: RoleUser}

	refresh, err := m.SignRefresh(id)
	if err != nil {
		t.Fatalf("sign refresh failed: %v", err)
	}

	m.now = func() time.Time { return now.Add(AccessTokenTTL + time.Hour) }
	if _, err := m.Verify(refresh); err != nil {
		t.Fatalf("expected refresh token to outlive access lifetime: %v", err)
	}
}

func TestRemainingValidity(t *testing.T) {
	now := time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)
	m := newTestManager(t, now)

	token, err := m.SignAccess(Identity{ID: "user-1"})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	m.now = func() time.Time { return now.Add(10 * time.Minute) }
	if got := m.RemainingValidity(claims); got != 20*time.Minute {
		t.Fatalf("expected 20m remaining, got %v", got)
	}

	m.now = func() time.Time { return now.Add(time.Hour) }
	if got := m.RemainingValidity(claims); got != 0 {
		t.Fatalf("expected zero for expired claims, got %v", got)
	}
}

func TestTokensHaveJWTShape(t *testing.T) {
	m := newTestManager(t, time.Now())
	token, err := m.SignAccess(Identity{ID: "user-1"})
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected three-part token, got %q", token)
	}
}
