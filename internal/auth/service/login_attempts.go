package service

import (
	"sync"
	"time"
)

// LoginAttemptTracker counts failed logins per account key and locks the key once the
// limit is reached.
type LoginAttemptTracker interface {
	// LockedUntil returns the end of the lock on key and whether it is active at now.
	LockedUntil(key string, now time.Time) (time.Time, bool)

	// RecordFailure counts a failed login at now and reports whether key became locked.
	RecordFailure(key string, now time.Time) bool

	// Reset forgets the failures of key.
	Reset(key string)
}

type attemptEntry struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
}

// MemoryLoginAttemptTracker keeps failure counters in process memory. Counters are lost
// on restart and are not shared between instances.
type MemoryLoginAttemptTracker struct {
	mu          sync.Mutex
	entries     map[string]*attemptEntry
	maxFailures int
	window      time.Duration
	lockout     time.Duration
	lastPrune   time.Time
}

// NewMemoryLoginAttemptTracker locks a key for lockout after maxFailures failures within window.
func NewMemoryLoginAttemptTracker(maxFailures int, window, lockout time.Duration) *MemoryLoginAttemptTracker {
	return &MemoryLoginAttemptTracker{
		entries:     make(map[string]*attemptEntry),
		maxFailures: maxFailures,
		window:      window,
		lockout:     lockout,
	}
}

func (m *MemoryLoginAttemptTracker) LockedUntil(key string, now time.Time) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || !now.Before(entry.lockedUntil) {
		return time.Time{}, false
	}
	return entry.lockedUntil, true
}

func (m *MemoryLoginAttemptTracker) RecordFailure(key string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prune(now)

	entry, ok := m.entries[key]
	if !ok || now.Sub(entry.windowStart) >= m.window {
		entry = &attemptEntry{windowStart: now}
		m.entries[key] = entry
	}

	entry.failures++
	if entry.failures < m.maxFailures {
		return false
	}

	entry.lockedUntil = now.Add(m.lockout)
	entry.failures = 0
	entry.windowStart = entry.lockedUntil
	return true
}

func (m *MemoryLoginAttemptTracker) Reset(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}

// prune drops entries whose window and lock are both over. It runs at most once per window.
func (m *MemoryLoginAttemptTracker) prune(now time.Time) {
	if now.Sub(m.lastPrune) < m.window {
		return
	}
	m.lastPrune = now

	for key, entry := range m.entries {
		if !now.Before(entry.lockedUntil) && now.Sub(entry.windowStart) >= m.window {
			delete(m.entries, key)
		}
	}
}
