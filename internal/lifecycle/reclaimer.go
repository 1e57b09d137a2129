package lifecycle

import (
	"context"
	"log"
	"sync"
	"time"
)

// SessionRecord is the durable (non-authoritative) copy of a session's
// resource binding, read back for startup reconciliation.
type SessionRecord struct {
	ScopeID        string
	ResourceID     string
	LastActivityAt time.Time
	Active         bool
}

// DurableSessions exposes the persistence collaborator's session records.
type DurableSessions interface {
	SessionsWithResources(ctx context.Context) ([]SessionRecord, error)
}

// ReclaimerOptions configures the orphan reclaimer.
type ReclaimerOptions struct {
	// Interval between scans. <= 0 defaults to 10 minutes.
	Interval time.Duration

	// StaleAfter is how long an Active binding may go untouched before
	// it is reclaimed. <= 0 defaults to 30 minutes.
	StaleAfter time.Duration

	// MaxAttempts bounds destroy retries; <= 0 means MaxDestroyAttempts.
	MaxAttempts int

	// Sessions is consulted by ReconcileStartup; may be nil.
	Sessions DurableSessions
}

// Reclaimer is the background loop that self-heals bindings handlers
// failed to clean up: stale Active bindings are destroyed, and failed
// destructions are retried with bounded backoff.
type Reclaimer struct {
	manager     *Manager
	interval    time.Duration
	staleAfter  time.Duration
	maxAttempts int
	sessions    DurableSessions

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReclaimer constructs a Reclaimer over a Manager.
func NewReclaimer(manager *Manager, opts ReclaimerOptions) *Reclaimer {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Minute
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 30 * time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = MaxDestroyAttempts
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Reclaimer{
		manager:     manager,
		interval:    opts.Interval,
		staleAfter:  opts.StaleAfter,
		maxAttempts: opts.MaxAttempts,
		sessions:    opts.Sessions,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the background scan loop.
func (r *Reclaimer) Start() {
	r.wg.Add(1)
	go r.loop()
}

// Stop cancels the loop and waits for the in-flight tick to complete.
func (r *Reclaimer) Stop() {
	r.cancel()
	r.wg.Wait()
}

func (r *Reclaimer) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Tick runs one reclamation pass: stale Active bindings move to the
// destroy queue, then every due destruction is attempted once. A failed
// attempt reschedules itself per DestroyBackoff; exhausted bindings are
// force-cleared. Exported so an operations endpoint or test can trigger
// a pass directly.
func (r *Reclaimer) Tick() {
	if n := r.manager.collectStale(r.staleAfter); n > 0 {
		log.Printf("reclaimer: queued %d stale bindings for destruction", n)
	}
	for _, id := range r.manager.dueDestroys(r.maxAttempts) {
		r.manager.destroyOnce(id)
	}
}

// ReconcileStartup sweeps resources recorded by a previous process.
// Sessions that are inactive, or idle beyond the staleness threshold,
// get their durable resource queued for destruction; live sessions are
// left alone and re-acquire lazily.
func (r *Reclaimer) ReconcileStartup(ctx context.Context) error {
	if r.sessions == nil {
		return nil
	}
	records, err := r.sessions.SessionsWithResources(ctx)
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-r.staleAfter)
	queued := 0
	for _, rec := range records {
		if rec.ResourceID == "" {
			continue
		}
		if !rec.Active || rec.LastActivityAt.Before(cutoff) {
			r.manager.TrackDestroy(rec.ScopeID, rec.ResourceID)
			queued++
		}
	}
	if queued > 0 {
		log.Printf("reclaimer: startup reconciliation queued %d orphaned resources", queued)
	}
	return nil
}

// collectStale moves Active bindings untouched for longer than
// olderThan into the destroy queue and reports how many moved.
func (m *Manager) collectStale(olderThan time.Duration) int {
	cutoff := m.now().Add(-olderThan)
	m.mu.Lock()
	defer m.mu.Unlock()

	moved := 0
	for _, b := range m.active {
		if b.State == StateActive && b.LastTouchedAt.Before(cutoff) {
			m.markDestroyingLocked(b)
			moved++
		}
	}
	return moved
}

// dueDestroys returns the resource IDs whose next destruction attempt
// is due. Bindings past maxAttempts are force-marked Destroyed and
// dropped from tracking here, with a log line for manual remediation.
func (m *Manager) dueDestroys(maxAttempts int) []string {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []string
	for id, b := range m.pending {
		if b.DestroyAttempts >= maxAttempts {
			b.State = StateDestroyed
			delete(m.pending, id)
			log.Printf("reclaimer: destroy of %s exhausted after %d attempts; resource leaked externally, requires manual remediation", id, b.DestroyAttempts)
			continue
		}
		if !b.NextAttemptAt.After(now) {
			due = append(due, id)
		}
	}
	return due
}
