package cache

import (
	"sync"
	"time"
)

// entry stores a cached value together with its lifecycle timestamps.
// Expiry is absolute: reads refresh lastAccessedAt only.
type entry struct {
	value          any
	createdAt      time.Time
	expiresAt      time.Time
	lastAccessedAt time.Time
}

// Stats is a snapshot of the store's counters. Hits and Misses are
// cumulative over the process lifetime; ActiveEntries reflects live
// entries at observation time.
type Stats struct {
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	TotalEntries  int     `json:"totalEntries"`
	ActiveEntries int     `json:"activeEntries"`
	HitRate       float64 `json:"hitRate"`
}

// Options controls construction of a Store.
type Options struct {
	// DefaultTTL is used by SetDefault. Zero falls back to 5 minutes.
	DefaultTTL time.Duration

	// Clock supplies the current time; nil means time.Now.
	// Tests inject a frozen clock here.
	Clock func() time.Time
}

// Store is a process-wide in-memory TTL cache. All operations are pure
// in-memory and safe for concurrent use; none of them block on I/O.
// Growth between sweeps is unbounded (TTL-only, no size eviction).
type Store struct {
	mu         sync.RWMutex
	entries    map[string]entry
	hits       uint64
	misses     uint64
	defaultTTL time.Duration
	now        func() time.Time
}

// New constructs an empty Store.
func New(opts Options) *Store {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		entries:    make(map[string]entry),
		defaultTTL: ttl,
		now:        clock,
	}
}

// DefaultTTL returns the store-level default TTL.
func (s *Store) DefaultTTL() time.Duration {
	return s.defaultTTL
}

// Get returns the value for key if a live entry exists. A hit refreshes
// lastAccessedAt; it never extends expiry. Misses (absent or expired)
// increment the miss counter and never trigger computation.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.misses++
		return nil, false
	}
	now := s.now()
	if !now.Before(e.expiresAt) {
		// Expired but not yet swept; treat as a miss and drop it so a
		// racing Set is never shadowed by the stale entry.
		delete(s.entries, key)
		s.misses++
		return nil, false
	}
	e.lastAccessedAt = now
	s.entries[key] = e
	s.hits++
	return e.value, true
}

// Set inserts or overwrites an entry expiring ttl from now. A zero or
// negative ttl stores nothing; use Invalidate to remove entries.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entries[key] = entry{
		value:          value,
		createdAt:      now,
		expiresAt:      now.Add(ttl),
		lastAccessedAt: now,
	}
}

// SetDefault is Set with the store-level default TTL.
func (s *Store) SetDefault(key string, value any) {
	s.Set(key, value, s.defaultTTL)
}

// Invalidate removes every entry whose key equals or is prefixed by
// keyOrPrefix and returns the number removed. Deletion always wins over
// a racing Set observed before the lock was taken: whatever is in the
// table when we hold the lock and matches the prefix is dropped.
func (s *Store) Invalidate(keyOrPrefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k := range s.entries {
		if len(k) >= len(keyOrPrefix) && k[:len(keyOrPrefix)] == keyOrPrefix {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// SweepExpired removes every expired entry and returns the count.
// It never removes a live entry and is safe to call concurrently with
// Get/Set; calling it twice with no intervening writes removes nothing
// the second time.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	count := 0
	for _, e := range s.entries {
		if now.Before(e.expiresAt) {
			count++
		}
	}
	return count
}

// Stats returns a snapshot of the store's counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	active := 0
	for _, e := range s.entries {
		if now.Before(e.expiresAt) {
			active++
		}
	}
	st := Stats{
		Hits:          s.hits,
		Misses:        s.misses,
		TotalEntries:  len(s.entries),
		ActiveEntries: active,
	}
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total)
	}
	return st
}

// Clear removes all entries. Counters are preserved.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.entries)
	s.entries = make(map[string]entry)
	return count
}
