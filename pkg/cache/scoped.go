package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The API server uses this to separate cache entries per deployment
// environment without backend-level configuration.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DecompositionKey generates a prefixed key for a decomposition document.
func (k *ScopedKeyer) DecompositionKey(tableHash string, opts DecompositionKeyOpts) string {
	return k.prefix + k.inner.DecompositionKey(tableHash, opts)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(docHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(docHash, opts)
}
