package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithCapacity bounds the number of live sessions. Zero or negative means
// unbounded.
func WithCapacity(n int) Option {
	return func(s *MemoryStore) {
		s.capacity = n
	}
}

// WithTTL sets how long an untouched session survives. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *MemoryStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often the janitor looks for expired sessions.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
