package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestHashReader(t *testing.T) {
	h, err := HashReader(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("HashReader error: %v", err)
	}
	if h != Hash([]byte("hello")) {
		t.Error("HashReader should match Hash for the same bytes")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// DecompositionKey should include options in hash
	dk1 := k.DecompositionKey("tablehash", DecompositionKeyOpts{Sentinel: 0})
	dk2 := k.DecompositionKey("tablehash", DecompositionKeyOpts{Sentinel: -9999})
	if dk1 == dk2 {
		t.Error("Different DecompositionKeyOpts should produce different keys")
	}
	dk3 := k.DecompositionKey("tablehash", DecompositionKeyOpts{Sentinel: 0, MaskHash: "m"})
	if dk1 == dk3 {
		t.Error("Mask hash should be part of the decomposition key")
	}
	if !strings.HasPrefix(dk1, "topo:") {
		t.Errorf("DecompositionKey should be namespaced: %s", dk1)
	}

	// ArtifactKey
	ak1 := k.ArtifactKey("dochash", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("dochash", ArtifactKeyOpts{Format: "png"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "staging:")

	dk := scoped.DecompositionKey("tablehash", DecompositionKeyOpts{})
	if !strings.HasPrefix(dk, "staging:topo:") {
		t.Errorf("ScopedKeyer DecompositionKey should be prefixed: %s", dk)
	}

	ak := scoped.ArtifactKey("dochash", ArtifactKeyOpts{Format: "dot"})
	if !strings.HasPrefix(ak, "staging:") {
		t.Errorf("ScopedKeyer ArtifactKey should be prefixed: %s", ak)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should fall back to DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.DecompositionKey("h", DecompositionKeyOpts{})
	if !strings.HasPrefix(key, "prefix:topo:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit || string(data) != "payload" {
		t.Errorf("Get = %q, %v, want payload hit", data, hit)
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get after Delete should miss")
	}

	// Deleting a missing key is not an error.
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete missing key error: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("stale"), -time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("expired entry should be a miss")
	}
}

func TestFileCacheLen(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	fc := c.(*FileCache)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("Set error: %v", err)
		}
	}
	n, err := fc.Len()
	if err != nil {
		t.Fatalf("Len error: %v", err)
	}
	if n != 3 {
		t.Errorf("Len() = %d, want 3", n)
	}
}
