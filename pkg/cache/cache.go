// Package cache stores arrangement results and rendered artifacts.
//
// # Backends
//
//   - [FileCache]: JSON entries under a local directory, used by the CLI
//   - [RedisCache]: shared cache for multi-instance server deployments
//   - [NullCache]: never stores anything, used when caching is disabled
//
// # Keys
//
// Keys are built by a [Keyer] so every backend sees the same layout:
//
//	layout:<sha256(config hash, seed, attempts, ...)>
//	artifact:<sha256(layout hash, format, style, ...)>
//
// A [ScopedKeyer] prefixes every key, which lets several tenants share one
// Redis instance.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	// TTLLayout is how long an arranged layout stays cached. Arrangement is
	// deterministic, so layouts only expire to bound cache size.
	TTLLayout = 30 * 24 * time.Hour

	// TTLArtifact is how long a rendered artifact stays cached.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the cached value and whether it was found. Expired and
	// corrupt entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero or less never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// LayoutKeyOpts are the inputs besides the configuration that change an
// arrangement.
type LayoutKeyOpts struct {
	Seed        string `json:"seed"`
	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"max_attempts"`
	Margin      int    `json:"margin"`
}

// ArtifactKeyOpts are the inputs that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Style    string  `json:"style,omitempty"`
	CellSize int     `json:"cell_size,omitempty"`
	Labels   bool    `json:"labels,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies the layout arranged from a configuration.
	LayoutKey(configHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendering of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes every key component.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(configHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", configHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
