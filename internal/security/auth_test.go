package security

import (
	"testing"
	"time"
)

func TestAuthorizerAllowlist(t *testing.T) {
	open := NewAuthorizer(nil)
	if !open.IsAllowed("42") {
		t.Fatal("empty allowlist should allow everyone")
	}

	a := NewAuthorizer([]int64{42})
	if !a.IsAllowed("42") {
		t.Fatal("expected 42 to be allowed")
	}
	if a.IsAllowed("7") || a.Admit("7") {
		t.Fatal("expected 7 to be rejected")
	}
}

func TestAuthorizerRateLimit(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	a := NewAuthorizer(nil).WithRateLimit(2, time.Minute)
	a.now = func() time.Time { return now }

	if !a.Admit("u") || !a.Admit("u") {
		t.Fatal("first two requests should pass")
	}
	if a.Admit("u") {
		t.Fatal("third request inside the window should be rejected")
	}
	if !a.Admit("other") {
		t.Fatal("budgets are per sender")
	}

	now = now.Add(61 * time.Second)
	if !a.Admit("u") {
		t.Fatal("budget should refill after the window")
	}
}
