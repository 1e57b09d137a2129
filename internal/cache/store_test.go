package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// frozenClock returns a clock function plus a way to advance it.
func frozenClock() (func() time.Time, func(d time.Duration)) {
	base := time.Now()
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return base
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		base = base.Add(d)
	}
	return clock, advance
}

func TestStore_SetGet_HitAndExpiry(t *testing.T) {
	clock, advance := frozenClock()
	s := New(Options{Clock: clock})

	s.Set("k", "v", 60*time.Second)
	if v, ok := s.Get("k"); !ok || v != "v" {
		t.Fatalf("expected hit with value v, got ok=%v v=%v", ok, v)
	}
	if st := s.Stats(); st.Hits != 1 || st.Misses != 0 {
		t.Fatalf("expected hits=1 misses=0, got %+v", st)
	}

	advance(61 * time.Second)
	if _, ok := s.Get("k"); ok {
		t.Fatalf("expected miss after TTL elapsed")
	}
	if st := s.Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("expected hits=1 misses=1, got %+v", st)
	}
}

func TestStore_ZeroOrNegativeTTL_StoresNothing(t *testing.T) {
	s := New(Options{})
	s.Set("a", 1, 0)
	s.Set("b", 2, -time.Second)
	if _, ok := s.Get("a"); ok {
		t.Fatalf("zero TTL must not store")
	}
	if _, ok := s.Get("b"); ok {
		t.Fatalf("negative TTL must not store")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got Len=%d", s.Len())
	}
}

func TestStore_Invalidate_PrefixOnly(t *testing.T) {
	s := New(Options{})
	s.Set("folder:/A", "listing1", time.Minute)
	s.Set("folder:/A/sub", "listing2", time.Minute)
	s.Set("folder:/B", "listing3", time.Minute)

	if removed := s.Invalidate("folder:/A"); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, ok := s.Get("folder:/A"); ok {
		t.Fatalf("expected folder:/A invalidated")
	}
	if _, ok := s.Get("folder:/A/sub"); ok {
		t.Fatalf("expected folder:/A/sub invalidated")
	}
	if v, ok := s.Get("folder:/B"); !ok || v != "listing3" {
		t.Fatalf("expected folder:/B untouched")
	}
}

func TestStore_SweepExpired_RemovesOnlyExpired(t *testing.T) {
	clock, advance := frozenClock()
	s := New(Options{Clock: clock})

	s.Set("short", 1, 10*time.Second)
	s.Set("long", 2, 10*time.Minute)

	advance(30 * time.Second)
	if removed := s.SweepExpired(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if removed := s.SweepExpired(); removed != 0 {
		t.Fatalf("expected idempotent second sweep, got %d", removed)
	}
	if v, ok := s.Get("long"); !ok || v != 2 {
		t.Fatalf("sweep must not remove live entries")
	}
}

func TestStore_Stats_ActiveVsTotal(t *testing.T) {
	clock, advance := frozenClock()
	s := New(Options{Clock: clock})

	s.Set("a", 1, 10*time.Second)
	s.Set("b", 2, 10*time.Minute)
	advance(30 * time.Second)

	st := s.Stats()
	if st.TotalEntries != 2 {
		t.Fatalf("expected TotalEntries=2, got %d", st.TotalEntries)
	}
	if st.ActiveEntries != 1 {
		t.Fatalf("expected ActiveEntries=1, got %d", st.ActiveEntries)
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := New(Options{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k-%d", i%10)
			for r := 0; r < 100; r++ {
				s.Set(key, r, time.Minute)
				s.Get(key)
				if r%25 == 0 {
					s.Invalidate("k-")
					s.SweepExpired()
				}
			}
		}()
	}
	wg.Wait()
}

func TestRouter_UploadInvalidatesListing(t *testing.T) {
	s := New(Options{})
	r := NewRouter(s)

	s.Set(FileListKey("documents/clientA", "name", "asc"), "listing", ListingTTL)
	s.Set(FileListKey("documents", "name", "asc"), "parent listing", ListingTTL)
	s.Set(SearchKey("documents", "plan"), "results", ListingTTL)
	s.Set(FileListKey("documents/clientB", "name", "asc"), "other", ListingTTL)

	r.OnMutation("documents/clientA/notes.txt", MutationCreate)

	if _, ok := s.Get(FileListKey("documents/clientA", "name", "asc")); ok {
		t.Fatalf("expected affected folder listing invalidated")
	}
	if _, ok := s.Get(SearchKey("documents", "plan")); ok {
		t.Fatalf("expected search results invalidated")
	}
	if _, ok := s.Get(FileListKey("documents/clientB", "name", "asc")); !ok {
		t.Fatalf("expected sibling folder listing untouched")
	}
}

func TestRouter_SessionMutation(t *testing.T) {
	s := New(Options{})
	r := NewRouter(s)

	s.Set(SessionKey("s-1", "history"), "h", SessionTTL)
	s.Set(SessionKey("s-1", "stats"), "st", SessionTTL)
	s.Set(SessionKey("s-2", "history"), "other", SessionTTL)

	if removed := r.OnSessionMutation("s-1"); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, ok := s.Get(SessionKey("s-2", "history")); !ok {
		t.Fatalf("expected other session untouched")
	}
}

func TestSweeper_RemovesExpiredInBackground(t *testing.T) {
	clock, advance := frozenClock()
	s := New(Options{Clock: clock})
	s.Set("k", "v", time.Second)
	advance(2 * time.Second)

	sw := NewSweeper(s, 10*time.Millisecond)
	sw.Start()
	defer sw.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st := s.Stats()
		if st.TotalEntries == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sweeper did not remove expired entry in time")
}
