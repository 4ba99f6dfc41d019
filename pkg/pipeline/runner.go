package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tailwater/pkg/cache"
	"github.com/matzehuels/tailwater/pkg/errors"
	"github.com/matzehuels/tailwater/pkg/network"
	"github.com/matzehuels/tailwater/pkg/observability"
	"github.com/matzehuels/tailwater/pkg/source"
	"github.com/matzehuels/tailwater/pkg/topology"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → organize → decompose pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.TablePath)
	table, err := r.Load(opts)
	observability.Pipeline().OnLoadComplete(ctx, opts.TablePath, tableLen(table), time.Since(loadStart), err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.SegmentCount = table.Len()
	result.TableHash = HashTable(table)

	r.Logger.Info("loaded segment table",
		"segments", table.Len(),
		"duration", result.Stats.LoadTime)

	// Stages 2+3: Organize and decompose, cached as one document
	d, failures, hit, err := r.DecomposeWithCacheInfo(ctx, table, result.TableHash, opts, &result.Stats)
	if err != nil {
		return nil, err
	}
	result.Decomposition = d
	result.Failures = failures
	result.CacheInfo.DecompositionHit = hit
	result.Stats.NetworkCount = len(d.Networks)
	for _, reaches := range d.Reaches {
		result.Stats.ReachCount += len(reaches)
	}

	if data, err := topology.MarshalDocument(d); err == nil {
		result.DocHash = cache.Hash(data)
	}

	r.Logger.Info("decomposed networks",
		"networks", result.Stats.NetworkCount,
		"reaches", result.Stats.ReachCount,
		"cached", hit,
		"duration", result.Stats.OrganizeTime+result.Stats.DecomposeTime)

	return result, nil
}

// Load reads the segment table and applies the mask, if any. A pre-loaded
// table in the options short-circuits the file read; the mask is applied
// either way.
func (r *Runner) Load(opts Options) (*network.Table, error) {
	table := opts.Table
	if table == nil {
		var err error
		table, err = source.LoadTable(opts.TablePath, opts.SourceOptions())
		if err != nil {
			return nil, err
		}
	}

	mask := opts.Mask
	if mask == nil && opts.MaskPath != "" {
		var err error
		mask, err = source.LoadMask(opts.MaskPath, opts.MaskColumn)
		if err != nil {
			return nil, err
		}
	}
	return mask.Apply(table), nil
}

// DecomposeWithCacheInfo runs the organize and decompose stages with
// caching and returns cache hit info. Stage timings are recorded into
// stats when non-nil.
func (r *Runner) DecomposeWithCacheInfo(ctx context.Context, table *network.Table, tableHash string, opts Options, stats *Stats) (*topology.Decomposition, []NetworkFailure, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, false, err
	}
	r.applyLogger(&opts)
	if stats == nil {
		stats = &Stats{}
	}

	cacheKey := r.Keyer.DecompositionKey(tableHash, opts.DecompositionKeyOpts(hashMask(opts.Mask)))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			d, err := topology.ReadDocument(bytes.NewReader(data))
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "topo")
				return d, nil, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		}
	}
	observability.Cache().OnCacheMiss(ctx, "topo")

	computeStart := time.Now()
	observability.Pipeline().OnDecomposeStart(ctx, table.Len())
	d, failures, err := r.compute(ctx, table, opts, stats)
	networks, reaches := decompositionCounts(d)
	observability.Pipeline().OnDecomposeComplete(ctx, networks, reaches, time.Since(computeStart), err)
	if err != nil {
		return nil, nil, false, err
	}

	// Cache the result, but only when every network decomposed: a partial
	// document must not satisfy a later non-partial run.
	if len(failures) == 0 {
		if data, err := topology.MarshalDocument(d); err == nil {
			if r.Cache.Set(ctx, cacheKey, data, cache.TTLDecomposition) == nil {
				observability.Cache().OnCacheSet(ctx, "topo", len(data))
			}
		}
	}

	return d, failures, false, nil // Cache miss
}

// compute runs the organize and decompose stages without caching.
func (r *Runner) compute(ctx context.Context, table *network.Table, opts Options, stats *Stats) (*topology.Decomposition, []NetworkFailure, error) {
	organizeStart := time.Now()

	normalized, warnings := topology.NormalizeTerminals(table, network.SegmentID(opts.Sentinel))

	net, err := network.Build(normalized)
	if err != nil {
		return nil, nil, fmt.Errorf("organize: %w", err)
	}
	if err := net.Validate(); err != nil {
		seg, _ := network.CycleSegment(err)
		return nil, nil, errors.Wrap(errors.ErrCodeStructural, err, "cycle detected at segment %d", seg)
	}

	subnets, tailwaters, err := topology.Partition(net)
	if err != nil {
		return nil, nil, fmt.Errorf("organize: %w", err)
	}
	stats.OrganizeTime = time.Since(organizeStart)

	r.Logger.Debug("partitioned networks",
		"networks", len(subnets),
		"warnings", len(warnings))

	// Networks are independent, so decompose them in parallel.
	decomposeStart := time.Now()
	var (
		mu      sync.Mutex
		reaches = make(map[network.SegmentID][]topology.Reach, len(subnets))
		failed  = make(map[network.SegmentID]error)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, tw := range tailwaters {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rs, err := topology.Decompose(subnets[tw])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if opts.Partial {
					failed[tw] = err
					return nil
				}
				return fmt.Errorf("decompose network %d: %w", tw, err)
			}
			reaches[tw] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	stats.DecomposeTime = time.Since(decomposeStart)

	var failures []NetworkFailure
	if len(failed) > 0 {
		kept := tailwaters[:0]
		for _, tw := range tailwaters {
			if err, ok := failed[tw]; ok {
				failures = append(failures, NetworkFailure{Tailwater: tw, Err: err})
				delete(subnets, tw)
				continue
			}
			kept = append(kept, tw)
		}
		tailwaters = kept
		r.Logger.Warn("skipped networks that failed to decompose", "count", len(failures))
	}

	return &topology.Decomposition{
		Connections: net.Connections(),
		Networks:    subnets,
		Reaches:     reaches,
		Tailwaters:  tailwaters,
		Warnings:    warnings,
	}, failures, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// tableLen tolerates a nil table for hook reporting on load failures.
func tableLen(t *network.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}

// decompositionCounts tolerates a nil decomposition for hook reporting.
func decompositionCounts(d *topology.Decomposition) (networks, reaches int) {
	if d == nil {
		return 0, 0
	}
	networks = len(d.Networks)
	for _, rs := range d.Reaches {
		reaches += len(rs)
	}
	return networks, reaches
}

// HashTable computes the content hash of a table's connectivity columns.
// Attribute columns do not participate: the decomposition depends only on
// ids and downstream references.
func HashTable(t *network.Table) string {
	buf := make([]byte, 0, 16*t.Len())
	for i := 0; i < t.Len(); i++ {
		buf = binary.BigEndian.AppendUint64(buf, uint64(t.ID(i)))
		buf = binary.BigEndian.AppendUint64(buf, uint64(t.Downstream(i)))
	}
	return cache.Hash(buf)
}

// hashMask computes a deterministic hash of a mask's member set.
// Returns empty for an empty mask, which keys the unmasked decomposition.
func hashMask(m source.Mask) string {
	if len(m) == 0 {
		return ""
	}
	ids := make([]network.SegmentID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	buf := make([]byte, 0, 8*len(ids))
	for _, id := range ids {
		buf = binary.BigEndian.AppendUint64(buf, uint64(id))
	}
	return cache.Hash(buf)
}
