package auth

import (
	"strings"
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	sm := NewSessionManager("secret", "personnelapi", time.Hour, false)

	value, err := sm.Issue("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := sm.Verify(value)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", claims.UserID)
	}
	if claims.Issuer != "personnelapi" {
		t.Errorf("unexpected issuer %s", claims.Issuer)
	}
}

func TestSessionRejectsEmptyUser(t *testing.T) {
	sm := NewSessionManager("secret", "", time.Hour, false)
	if _, err := sm.Issue(""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestSessionRejectsTamperedValue(t *testing.T) {
	sm := NewSessionManager("secret", "", time.Hour, false)
	value, err := sm.Issue("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	tampered := value[:len(value)-2] + "xx"
	if _, err := sm.Verify(tampered); err == nil {
		t.Fatal("expected verification failure for tampered value")
	}
}

func TestSessionRejectsWrongKey(t *testing.T) {
	value, err := NewSessionManager("secret-a", "", time.Hour, false).Issue("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := NewSessionManager("secret-b", "", time.Hour, false).Verify(value); err == nil {
		t.Fatal("expected verification failure with different key")
	}
}

func TestSessionRejectsExpired(t *testing.T) {
	sm := NewSessionManager("secret", "", -time.Minute, false)
	value, err := sm.Issue("user-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := sm.Verify(value); err == nil {
		t.Fatal("expected verification failure for expired session")
	}
}

func TestCookies(t *testing.T) {
	sm := NewSessionManager("secret", "", time.Hour, true)

	c := sm.Cookie("abc")
	if c.Name != CookieName || c.Value != "abc" {
		t.Errorf("unexpected cookie %v", c)
	}
	if !c.HttpOnly || !c.Secure {
		t.Error("session cookie must be HttpOnly and Secure")
	}
	if c.MaxAge != 3600 {
		t.Errorf("expected MaxAge 3600, got %d", c.MaxAge)
	}

	clear := sm.ClearCookie()
	if clear.MaxAge != -1 || clear.Value != "" {
		t.Errorf("clear cookie should expire immediately, got %v", clear)
	}
	if strings.Contains(clear.Value, "abc") {
		t.Error("clear cookie must not carry a session value")
	}
}

func TestBearerKey(t *testing.T) {
	cases := []struct {
		header string
		key    string
		ok     bool
	}{
		{header: "Bearer abc123", key: "abc123", ok: true},
		{header: "bearer abc123", key: "abc123", ok: true},
		{header: "Bearer   abc123  ", key: "abc123", ok: true},
		{header: "", ok: false},
		{header: "Bearer ", ok: false},
		{header: "Basic dXNlcjpwYXNz", ok: false},
	}
	for _, tc := range cases {
		key, ok := BearerKey(tc.header)
		if key != tc.key || ok != tc.ok {
			t.Errorf("BearerKey(%q) = %q, %v; want %q, %v", tc.header, key, ok, tc.key, tc.ok)
		}
	}
}
