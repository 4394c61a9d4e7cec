// Package cache provides pluggable caching for compile results and rendered
// artifacts.
//
// The compiler is deterministic, so cache keys derive from content hashes:
// the document hash keys the compiled graph and layout, and the layout hash
// plus render options keys each artifact. Backends:
//   - FileCache: directory-backed, for CLI usage
//   - MemoryCache: process-local, for tests and the embedded server
//   - RedisCache: shared cache for multi-instance deployments
//   - NullCache: caching disabled
package cache

import (
	"context"
	"time"
)

// TTLs for the different cached value classes. Compiled graphs and layouts
// are pure functions of the document, so long TTLs are safe; they exist only
// to bound disk/redis growth.
const (
	TTLGraph    = 30 * 24 * time.Hour
	TTLLayout   = 30 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with TTL support.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// GraphKey keys a compiled graph by the document content hash.
	GraphKey(docHash string) string

	// LayoutKey keys a computed layout by the document content hash.
	LayoutKey(docHash string) string

	// ArtifactKey keys a rendered artifact by the layout hash and format.
	ArtifactKey(layoutHash, format string) string
}

// DefaultKeyer generates namespaced, hash-based keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for compiled graph caching.
func (k *DefaultKeyer) GraphKey(docHash string) string {
	return hashKey("graph", docHash)
}

// LayoutKey generates a key for layout caching.
func (k *DefaultKeyer) LayoutKey(docHash string) string {
	return hashKey("layout", docHash)
}

// ArtifactKey generates a key for rendered artifact caching.
func (k *DefaultKeyer) ArtifactKey(layoutHash, format string) string {
	return hashKey("artifact", layoutHash, format)
}

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation, e.g.
// per-user namespaces when the compiler runs as a shared service.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// GraphKey generates a prefixed key for compiled graph caching.
func (k *ScopedKeyer) GraphKey(docHash string) string {
	return k.prefix + k.inner.GraphKey(docHash)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(docHash string) string {
	return k.prefix + k.inner.LayoutKey(docHash)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, format)
}
