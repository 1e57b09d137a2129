package cache

import (
	"path"
	"strings"
)

// MutationKind classifies a domain mutation for invalidation purposes.
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationDelete MutationKind = "delete"
	MutationMove   MutationKind = "move"
	MutationCopy   MutationKind = "copy"
)

// Router maps mutating domain operations to the cache prefixes that
// could now hold stale views. It is deliberately conservative: an
// unnecessary invalidation costs one extra miss, a missed one serves
// stale data. Handlers must call OnMutation before reporting success so
// a reader that observed the mutation can never observe the old cache.
type Router struct {
	store *Store
}

// NewRouter binds a Router to a store.
func NewRouter(store *Store) *Router {
	return &Router{store: store}
}

// OnMutation invalidates every cached view that the mutation at scope
// (a storage path) could have made stale: listings of the parent
// folder, listings anywhere under the affected subtree, and all cached
// search results. Move and Copy handlers call this once per endpoint
// (source and destination).
func (r *Router) OnMutation(scope string, kind MutationKind) int {
	removed := r.store.Invalidate(FileListPrefix(parentPath(scope)))
	removed += r.store.Invalidate(FileListPrefix(scope))
	removed += r.store.Invalidate(SearchPrefix)
	return removed
}

// OnSessionMutation invalidates every cached view of one session after
// its metadata or history changed.
func (r *Router) OnSessionMutation(sessionID string) int {
	return r.store.Invalidate(SessionPrefix(sessionID))
}

func parentPath(p string) string {
	p = strings.TrimSuffix(p, "/")
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
