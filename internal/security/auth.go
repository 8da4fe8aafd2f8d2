package security

import (
	"strconv"
	"sync"
	"time"
)

// Authorizer decides whether a channel user may talk to the assistant. It
// combines an optional allowlist with a per-sender request budget so one
// chat cannot drain the LLM quota.
type Authorizer struct {
	mu         sync.Mutex
	allowedIDs map[string]bool
	limit      int
	window     time.Duration
	recent     map[string][]time.Time
	now        func() time.Time
}

// NewAuthorizer creates an authorizer with the given allowed user IDs.
// If the list is empty, all users are allowed.
func NewAuthorizer(allowedIDs []int64) *Authorizer {
	m := make(map[string]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		m[strconv.FormatInt(id, 10)] = true
	}
	return &Authorizer{
		allowedIDs: m,
		recent:     make(map[string][]time.Time),
		now:        time.Now,
	}
}

// WithRateLimit caps each sender at n requests per window. n <= 0 disables
// the cap.
func (a *Authorizer) WithRateLimit(n int, window time.Duration) *Authorizer {
	a.limit = n
	a.window = window
	return a
}

// IsAllowed returns true if the user is on the allowlist.
func (a *Authorizer) IsAllowed(userID string) bool {
	if len(a.allowedIDs) == 0 {
		return true // no allowlist = allow all
	}
	return a.allowedIDs[userID]
}

// Admit reports whether userID may send another request now, and records it
// if so.
func (a *Authorizer) Admit(userID string) bool {
	if !a.IsAllowed(userID) {
		return false
	}
	if a.limit <= 0 {
		return true
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	cutoff := now.Add(-a.window)
	kept := a.recent[userID][:0]
	for _, ts := range a.recent[userID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= a.limit {
		a.recent[userID] = kept
		return false
	}
	a.recent[userID] = append(kept, now)
	return true
}
