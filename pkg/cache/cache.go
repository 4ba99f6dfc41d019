// Package cache provides content-addressed caching of pipeline artifacts.
//
// Decompositions are expensive to compute at continental scale, so the
// pipeline caches them keyed by a hash of the source table plus the options
// that affect the result. Rendered artifacts (DOT, SVG, PNG) are cached by
// the hash of the decomposition document they were rendered from.
//
// Backends:
//   - file: entries on disk under a hashed directory layout (CLI default)
//   - redis: shared cache for multi-instance API deployments
//   - null: caching disabled
//
// All backends implement the Cache interface and are safe for concurrent
// use.
package cache

import (
	"context"
	"time"
)

// TTLs for the different artifact classes. A decomposition is a pure
// function of its inputs, so the TTL only bounds disk usage, not staleness.
const (
	// TTLDecomposition is the lifetime of cached decomposition documents.
	TTLDecomposition = 30 * 24 * time.Hour

	// TTLArtifact is the lifetime of cached rendered artifacts.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DecompositionKeyOpts are the option values that change a decomposition
// result and therefore must be part of its cache key.
type DecompositionKeyOpts struct {
	Sentinel int64  // Terminal sentinel value
	MaskHash string // Hash of the mask table, empty when unmasked
}

// ArtifactKeyOpts are the option values that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string  // "svg", "png", or "pdf"
	Reaches  bool    // Whether reaches are grouped in the rendering
	Detailed bool    // Whether node labels carry reach positions
	Scale    float64 // PNG scale factor, zero for other formats
}

// Keyer generates cache keys. Implementations must be deterministic:
// identical inputs produce identical keys across processes.
type Keyer interface {
	// DecompositionKey generates a key for a decomposition document.
	DecompositionKey(tableHash string, opts DecompositionKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(docHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key generator: a namespaced SHA-256 over
// the inputs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DecompositionKey generates a key for a decomposition document.
func (k *DefaultKeyer) DecompositionKey(tableHash string, opts DecompositionKeyOpts) string {
	return hashKey("topo", tableHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", docHash, opts)
}
