package cache

import (
	"context"
	"log"
	"sync"
	"time"
)

// Sweeper periodically drops expired entries from a Store. It owns its
// goroutine: Start launches it, Stop cancels and waits for the current
// tick to finish, so shutdown never interrupts a sweep mid-way.
type Sweeper struct {
	store    *Store
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper constructs a Sweeper. An interval <= 0 defaults to 5 minutes.
func NewSweeper(store *Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		store:    store,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop cancels the loop and blocks until the in-flight tick returns.
// Safe to call once after Start.
func (s *Sweeper) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if removed := s.store.SweepExpired(); removed > 0 {
				log.Printf("cache sweeper: removed %d expired entries", removed)
			}
		}
	}
}
