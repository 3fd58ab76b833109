// Package cache provides content-addressed caching for computed
// layouts and rendered artifacts.
//
// Laying out and rendering a tree is deterministic in the tree text and
// the layout options, so results are cached under SHA-256 content keys.
// Three backends implement the same interface:
//   - FileCache: directory of JSON entries, for CLI usage
//   - RedisCache: shared cache for the HTTP service
//   - NullCache: no-op, for tests and --no-cache runs
package cache

import (
	"context"
	"time"
)

// DefaultTTL is the expiration applied when the caller passes no
// explicit TTL. Layouts are pure functions of their key, so the TTL
// exists only to bound disk usage.
const DefaultTTL = 30 * 24 * time.Hour

// Cache stores opaque byte values under string keys with optional
// expiration. Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was present.
	// An expired or missing entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry for key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts carries the layout parameters that participate in the
// layout cache key.
type LayoutKeyOpts struct {
	Width       float64
	Height      float64
	Margin      float64
	Orientation string
	Ladderize   string
}

// ArtifactKeyOpts carries the render parameters that participate in the
// artifact cache key.
type ArtifactKeyOpts struct {
	Format    string
	Labels    bool
	Bootstrap bool
}

// Keyer derives cache keys. The default implementation hashes its
// inputs; [NewScopedKeyer] prefixes another keyer for namespace
// isolation.
type Keyer interface {
	// TreeKey identifies a parsed tree by its Newick text.
	TreeKey(newick string) string

	// LayoutKey identifies a computed layout by tree hash and options.
	LayoutKey(treeHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered artifact by layout hash and
	// options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard content-hash keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// TreeKey generates a key for a Newick tree text.
func (k *DefaultKeyer) TreeKey(newick string) string {
	return hashKey("tree", newick)
}

// LayoutKey generates a key for a computed layout.
func (k *DefaultKeyer) LayoutKey(treeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", treeHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// NullCache misses every Get and discards every Set. It backs
// --no-cache runs and stands in when a configured backend cannot be
// opened, so render paths never need a nil check.
type NullCache struct{}

// NewNullCache returns the no-op cache.
func NewNullCache() Cache { return &NullCache{} }

// Get always misses.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the value.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (c *NullCache) Delete(ctx context.Context, key string) error { return nil }

// Close does nothing.
func (c *NullCache) Close() error { return nil }

// Ensure NullCache implements Cache.
var _ Cache = (*NullCache)(nil)
