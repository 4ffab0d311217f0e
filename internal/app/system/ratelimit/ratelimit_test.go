package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllow_WithinLimit(t *testing.T) {
	l := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("key") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("key") {
		t.Error("fourth request should be limited")
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)
	if !l.Allow("a") {
		t.Fatal("first request for a should pass")
	}
	if !l.Allow("b") {
		t.Error("b should not share a's window")
	}
}

func TestAllow_WindowExpires(t *testing.T) {
	l := New(1, 10*time.Millisecond)
	if !l.Allow("key") {
		t.Fatal("first request should pass")
	}
	if l.Allow("key") {
		t.Fatal("second request should be limited")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Allow("key") {
		t.Error("request after window expiry should pass")
	}
}

func TestRemaining(t *testing.T) {
	l := New(2, time.Minute)
	if got := l.Remaining("key"); got != 2 {
		t.Errorf("Remaining = %d, want 2", got)
	}
	l.Allow("key")
	if got := l.Remaining("key"); got != 1 {
		t.Errorf("Remaining = %d, want 1", got)
	}
}

func TestReset(t *testing.T) {
	l := New(1, time.Minute)
	l.Allow("key")
	if l.Allow("key") {
		t.Fatal("should be limited before reset")
	}
	l.Reset("key")
	if !l.Allow("key") {
		t.Error("should be allowed after reset")
	}
}

func TestClientIP_XForwardedFor(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Errorf("ClientIP = %q, want 203.0.113.9", got)
	}
}

func TestLoginLimiter_EmailThrottle(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)

	r := httptest.NewRequest("POST", "/login", nil)
	for i := 0; i < 2; i++ {
		if ok, _ := ll.Check(r, "user@example.com"); !ok {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	if ok, reason := ll.Check(r, "user@example.com"); ok {
		t.Error("third attempt for the same email should be limited")
	} else if reason == "" {
		t.Error("expected a reason when limited")
	}

	ll.ResetEmail("user@example.com")
	if ok, _ := ll.Check(r, "user@example.com"); !ok {
		t.Error("attempt after ResetEmail should pass")
	}
}
