package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// State of a resource binding.
type State string

const (
	StateProvisioning State = "provisioning"
	StateActive       State = "active"
	StateDestroying   State = "destroying"
	StateDestroyed    State = "destroyed"
)

// ErrAcquireCanceled is returned when an Acquire caller stops waiting
// for an in-flight provisioning. The provisioning itself keeps running
// for the benefit of other waiters.
var ErrAcquireCanceled = errors.New("acquire canceled while provisioning in flight")

// Provisioner creates and destroys externally hosted retrieval
// resources. Destroy must treat an already-destroyed ID as success so
// retries stay safe.
type Provisioner interface {
	Create(ctx context.Context, fingerprint string) (string, error)
	Destroy(ctx context.Context, resourceID string) error
}

// Binding is the tracked association between a scope (a chat session)
// and an externally hosted vector store. ResourceID is immutable once
// Active; replacing the resource for a scope destroys the old binding
// and creates a new one.
type Binding struct {
	ScopeID         string    `json:"scopeId"`
	ResourceID      string    `json:"resourceId"`
	Fingerprint     string    `json:"fingerprint"`
	State           State     `json:"state"`
	BoundAt         time.Time `json:"boundAt"`
	LastTouchedAt   time.Time `json:"lastTouchedAt"`
	DestroyAttempts int       `json:"destroyAttempts,omitempty"`
	NextAttemptAt   time.Time `json:"nextAttemptAt,omitempty"`
}

// Options controls construction of a Manager.
type Options struct {
	Provisioner Provisioner

	// Clock supplies the current time; nil means time.Now.
	Clock func() time.Time
}

// Manager owns the authoritative in-memory binding table: at most one
// binding in {Provisioning, Active} per scope. The table lock is never
// held across provisioning or destruction I/O; the single-flight group
// is the in-progress marker that dedups concurrent provisioning.
type Manager struct {
	mu       sync.Mutex
	active   map[string]*Binding // scopeID -> Provisioning/Active binding
	pending  map[string]*Binding // resourceID -> Destroying binding awaiting retry
	prov     Provisioner
	inflight singleflight.Group
	now      func() time.Time
}

// NewManager constructs a Manager around a provisioner.
func NewManager(opts Options) *Manager {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		active:  make(map[string]*Binding),
		pending: make(map[string]*Binding),
		prov:    opts.Provisioner,
		now:     clock,
	}
}

// Acquire returns the resource ID bound to scopeID for the given
// content fingerprint, provisioning one if needed. An Active binding
// with the same fingerprint is reused without any external call. A
// fingerprint change destroys the old resource asynchronously and
// provisions a fresh one. Concurrent callers for the same scope and
// fingerprint share a single provisioning; ctx cancellation stops the
// caller's wait (ErrAcquireCanceled) without aborting the shared work.
func (m *Manager) Acquire(ctx context.Context, scopeID, fingerprint string) (string, error) {
	m.mu.Lock()
	if b, ok := m.active[scopeID]; ok && b.State == StateActive && b.Fingerprint == fingerprint {
		b.LastTouchedAt = m.now()
		id := b.ResourceID
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	key := scopeID + "\x00" + fingerprint
	ch := m.inflight.DoChan(key, func() (any, error) {
		return m.provision(scopeID, fingerprint)
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrAcquireCanceled, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// provision runs at most once per in-flight scope+fingerprint pair.
// It re-checks the table, calls the external create without holding the
// lock, then publishes the result to the table.
func (m *Manager) provision(scopeID, fingerprint string) (string, error) {
	m.mu.Lock()
	if b, ok := m.active[scopeID]; ok && b.State == StateActive && b.Fingerprint == fingerprint {
		// A previous flight published while we queued.
		b.LastTouchedAt = m.now()
		id := b.ResourceID
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	// The caller's ctx must not cancel a provisioning other waiters
	// share, so the external call runs on its own context.
	resourceID, err := m.prov.Create(context.Background(), fingerprint)
	if err != nil {
		// Nothing was published; the binding is discarded, not left in
		// Provisioning.
		return "", fmt.Errorf("provisioning failed for scope %s: %w", scopeID, err)
	}

	now := m.now()
	var displaced string
	m.mu.Lock()
	if old, ok := m.active[scopeID]; ok && old.ResourceID != resourceID {
		// The scope switched content while we provisioned, or a racing
		// flight with another fingerprint won. Single-active-per-scope:
		// the older binding goes to the destroy queue.
		m.markDestroyingLocked(old)
		displaced = old.ResourceID
	}
	m.active[scopeID] = &Binding{
		ScopeID:       scopeID,
		ResourceID:    resourceID,
		Fingerprint:   fingerprint,
		State:         StateActive,
		BoundAt:       now,
		LastTouchedAt: now,
	}
	m.mu.Unlock()

	if displaced != "" {
		go m.destroyOnce(displaced)
	}
	return resourceID, nil
}

// Release marks the scope's binding Destroying and destroys the
// resource in the background. Fire-and-forget from the caller's view;
// failures stay tracked in the destroy queue for the reclaimer's
// retries. Releasing an unbound scope is a no-op.
func (m *Manager) Release(scopeID string) {
	m.mu.Lock()
	b, ok := m.active[scopeID]
	if !ok {
		m.mu.Unlock()
		return
	}
	m.markDestroyingLocked(b)
	m.mu.Unlock()

	go m.destroyOnce(b.ResourceID)
}

// Touch records activity for a scope so the reclaimer does not treat it
// as stale. Unknown scopes are ignored.
func (m *Manager) Touch(scopeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.active[scopeID]; ok {
		b.LastTouchedAt = m.now()
	}
}

// ResourceFor returns the resource currently bound to scopeID, if any.
func (m *Manager) ResourceFor(scopeID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.active[scopeID]
	if !ok || b.State != StateActive {
		return "", false
	}
	return b.ResourceID, true
}

// TrackDestroy queues destruction of a resource that has no live
// binding, e.g. one recorded durably by a previous process. The destroy
// queue's retry machinery applies.
func (m *Manager) TrackDestroy(scopeID, resourceID string) {
	now := m.now()
	m.mu.Lock()
	if _, dup := m.pending[resourceID]; dup {
		m.mu.Unlock()
		return
	}
	m.pending[resourceID] = &Binding{
		ScopeID:       scopeID,
		ResourceID:    resourceID,
		State:         StateDestroying,
		BoundAt:       now,
		LastTouchedAt: now,
		NextAttemptAt: now,
	}
	m.mu.Unlock()

	go m.destroyOnce(resourceID)
}

// Bindings returns a snapshot of the table, active bindings first.
func (m *Manager) Bindings() []Binding {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Binding, 0, len(m.active)+len(m.pending))
	for _, b := range m.active {
		out = append(out, *b)
	}
	for _, b := range m.pending {
		out = append(out, *b)
	}
	return out
}

// markDestroyingLocked moves a binding from the active table to the
// destroy queue. Caller holds m.mu.
func (m *Manager) markDestroyingLocked(b *Binding) {
	b.State = StateDestroying
	b.NextAttemptAt = m.now()
	delete(m.active, b.ScopeID)
	m.pending[b.ResourceID] = b
}

// destroyOnce performs a single destruction attempt outside the lock.
// Success removes the binding from tracking; failure records the
// attempt and schedules the next one for the reclaimer.
func (m *Manager) destroyOnce(resourceID string) {
	err := m.prov.Destroy(context.Background(), resourceID)

	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.pending[resourceID]
	if !ok {
		return
	}
	if err == nil {
		b.State = StateDestroyed
		delete(m.pending, resourceID)
		return
	}
	b.DestroyAttempts++
	b.NextAttemptAt = m.now().Add(DestroyBackoff(b.DestroyAttempts))
	log.Printf("lifecycle: destroy of %s failed (attempt %d): %v", resourceID, b.DestroyAttempts, err)
}
