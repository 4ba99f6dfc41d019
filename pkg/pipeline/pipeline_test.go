package pipeline

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/matzehuels/tailwater/pkg/cache"
	"github.com/matzehuels/tailwater/pkg/network"
	"github.com/matzehuels/tailwater/pkg/source"
)

func mustTable(t *testing.T, ids, downs []network.SegmentID) *network.Table {
	t.Helper()
	table, err := network.NewTable(ids, downs)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return table
}

// twoNetworks is two independent chains: 1→2→outlet and 3→outlet.
func twoNetworks(t *testing.T) *network.Table {
	t.Helper()
	return mustTable(t,
		[]network.SegmentID{1, 2, 3},
		[]network.SegmentID{2, 0, 0},
	)
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{Table: twoNetworks(t)}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Workers <= 0 {
		t.Errorf("Workers = %d, want positive default", opts.Workers)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent
	workers := opts.Workers
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second call error = %v", err)
	}
	if opts.Workers != workers {
		t.Error("Workers changed on second call")
	}
}

func TestOptionsValidateMissingTable(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("Missing table should fail")
	}
}

func TestOptionsWorkersCapped(t *testing.T) {
	opts := Options{Table: twoNetworks(t), Workers: 10000}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Workers != MaxWorkers {
		t.Errorf("Workers = %d, want capped at %d", opts.Workers, MaxWorkers)
	}
}

func TestExecute(t *testing.T) {
	runner := NewRunner(cache.NewNullCache(), nil, nil)
	result, err := runner.Execute(context.Background(), Options{Table: twoNetworks(t)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Stats.SegmentCount != 3 {
		t.Errorf("SegmentCount = %d, want 3", result.Stats.SegmentCount)
	}
	if result.Stats.NetworkCount != 2 {
		t.Errorf("NetworkCount = %d, want 2", result.Stats.NetworkCount)
	}
	if got := result.Decomposition.Tailwaters; !slices.Equal(got, []network.SegmentID{2, 3}) {
		t.Errorf("Tailwaters = %v, want [2 3]", got)
	}
	if result.TableHash == "" || result.DocHash == "" {
		t.Error("TableHash and DocHash should be set")
	}
	if result.CacheInfo.DecompositionHit {
		t.Error("First run should not hit the cache")
	}
	if len(result.Failures) != 0 {
		t.Errorf("Failures = %v, want none", result.Failures)
	}
}

func TestExecuteCaches(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	runner := NewRunner(fc, nil, nil)

	first, err := runner.Execute(context.Background(), Options{Table: twoNetworks(t)})
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if first.CacheInfo.DecompositionHit {
		t.Error("first run should miss")
	}

	second, err := runner.Execute(context.Background(), Options{Table: twoNetworks(t)})
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !second.CacheInfo.DecompositionHit {
		t.Error("second run should hit")
	}
	if second.DocHash != first.DocHash {
		t.Errorf("DocHash changed across cache hit: %s vs %s", second.DocHash, first.DocHash)
	}

	// Refresh bypasses the cache
	third, err := runner.Execute(context.Background(), Options{Table: twoNetworks(t), Refresh: true})
	if err != nil {
		t.Fatalf("refresh Execute() error = %v", err)
	}
	if third.CacheInfo.DecompositionHit {
		t.Error("refresh run should not hit")
	}
}

func TestExecuteMask(t *testing.T) {
	table := mustTable(t,
		[]network.SegmentID{1, 2, 3, 4},
		[]network.SegmentID{2, 0, 4, 0},
	)
	runner := NewRunner(cache.NewNullCache(), nil, nil)

	result, err := runner.Execute(context.Background(), Options{
		Table: table,
		Mask:  source.Mask{1: true, 2: true},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Stats.SegmentCount != 2 {
		t.Errorf("SegmentCount = %d, want 2 after mask", result.Stats.SegmentCount)
	}
	if _, ok := result.Decomposition.Networks[4]; ok {
		t.Error("masked-out network 4 should not be present")
	}
}

func TestExecuteCycle(t *testing.T) {
	table := mustTable(t,
		[]network.SegmentID{1, 2},
		[]network.SegmentID{2, 1},
	)
	runner := NewRunner(cache.NewNullCache(), nil, nil)
	_, err := runner.Execute(context.Background(), Options{Table: table})
	if err == nil {
		t.Fatal("cyclic table should fail")
	}
	if !errors.Is(err, network.ErrCyclic) {
		t.Errorf("error = %v, want ErrCyclic in chain", err)
	}
}

func TestHashTable(t *testing.T) {
	a := mustTable(t, []network.SegmentID{1, 2}, []network.SegmentID{2, 0})
	b := mustTable(t, []network.SegmentID{1, 2}, []network.SegmentID{2, 0})
	c := mustTable(t, []network.SegmentID{2, 1}, []network.SegmentID{0, 2})

	if HashTable(a) != HashTable(b) {
		t.Error("identical tables should hash equal")
	}
	if HashTable(a) == HashTable(c) {
		t.Error("row order should change the hash")
	}
}

func TestHashMask(t *testing.T) {
	if got := hashMask(nil); got != "" {
		t.Errorf("hashMask(nil) = %q, want empty", got)
	}
	a := hashMask(source.Mask{1: true, 2: true})
	b := hashMask(source.Mask{2: true, 1: true})
	if a != b {
		t.Error("mask hash should be independent of map order")
	}
	if a == hashMask(source.Mask{1: true}) {
		t.Error("different masks should hash differently")
	}
}

func TestExecuteSentinelKeysCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	table := mustTable(t, []network.SegmentID{1, 2}, []network.SegmentID{2, 0})

	if _, err := runner.Execute(context.Background(), Options{Table: table}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	// Different sentinel must not reuse the sentinel-0 document.
	result, err := runner.Execute(context.Background(), Options{Table: table, Sentinel: -999})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.CacheInfo.DecompositionHit {
		t.Error("different sentinel should not hit the cache")
	}
}
