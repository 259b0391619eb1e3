package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestJWTSessionRoundTrip(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Minute, nil)

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	uid, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok {
		t.Fatalf("resolve token: ok=%v err=%v", ok, err)
	}
	if uid != "user-1" {
		t.Fatalf("unexpected user id: %q", uid)
	}
}

func TestJWTSessionRejectsTampering(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Minute, nil)
	other := NewJWTSessionStore("other-secret", time.Minute, nil)

	token, err := other.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
	if _, ok, _ := s.GetUserIDByToken("not-a-token"); ok {
		t.Fatalf("expected malformed token to be rejected")
	}
}

func TestJWTSessionExpires(t *testing.T) {
	s := NewJWTSessionStore("test-secret", -time.Minute, nil)

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestDeleteSessionRevokesToken(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Minute, nil)

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("expected logged-out token to be rejected")
	}

	// Other sessions of the same user survive the logout.
	second, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(second); !ok {
		t.Fatalf("logout revoked an unrelated session")
	}
}

func TestDeleteSessionIgnoresGarbage(t *testing.T) {
	s := NewJWTSessionStore("test-secret", time.Minute, nil)
	if err := s.DeleteSession("not-a-token"); err != nil {
		t.Fatalf("delete of malformed token: %v", err)
	}
}

func TestRedisTokenRevoker(t *testing.T) {
	mr := miniredis.RunT(t)
	revoker := NewRedisTokenRevoker(mr.Addr(), "")
	s := NewJWTSessionStore("test-secret", time.Minute, revoker)

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("expected logged-out token to be rejected")
	}

	// Redis expires the revocation with the token itself.
	mr.FastForward(2 * time.Minute)
	if revoked, err := revoker.IsRevoked(token); err != nil || revoked {
		t.Fatalf("revocation outlived the token: revoked=%v err=%v", revoked, err)
	}
}
