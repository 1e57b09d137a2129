package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// TTL classes. Callers pick the class for the data they cache; the
// store itself is TTL-agnostic.
const (
	// ListingTTL covers folder listings and search results, which go
	// stale on every upload/delete/move.
	ListingTTL = 60 * time.Second

	// SessionTTL covers session metadata, which changes rarely.
	SessionTTL = 5 * time.Minute
)

// FileListKey is the cache key for a folder listing.
func FileListKey(path, sortBy, sortOrder string) string {
	return fmt.Sprintf("file_list:%s:%s:%s", path, sortBy, sortOrder)
}

// FileListPrefix covers every listing variant for a path, regardless of
// sort options.
func FileListPrefix(path string) string {
	return "file_list:" + path
}

// SearchKey is the cache key for a file search under a path.
func SearchKey(path, query string) string {
	return fmt.Sprintf("search:%s:%s", path, query)
}

// SearchPrefix covers every cached search result.
const SearchPrefix = "search:"

// SessionKey is the cache key for a session-scoped lookup.
func SessionKey(sessionID, operation string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, operation)
}

// SessionPrefix covers every cached view of one session.
func SessionPrefix(sessionID string) string {
	return "session:" + sessionID + ":"
}

// VectorStoreKey is the cache key for vector-store lookups by folder.
// The folder path is hashed so the key stays fixed-width.
func VectorStoreKey(folderPath string) string {
	sum := md5.Sum([]byte(folderPath))
	return "vector_store:" + hex.EncodeToString(sum[:])
}
