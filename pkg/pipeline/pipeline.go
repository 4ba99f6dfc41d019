// Package pipeline provides the core decomposition pipeline for tailwater.
//
// This package implements the complete load → organize → decompose pipeline
// that can be used by CLI and API components. By centralizing this logic,
// we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read the segment table (and optional mask) from CSV
//  2. Organize: Normalize terminals, build the connectivity arena, and
//     partition it into independent tailwater-rooted networks
//  3. Decompose: Cut each network into topologically ordered reaches,
//     networks processed in parallel
//
// The organize and decompose stages are cached together as a single
// decomposition document, since a decomposition is a pure function of the
// table, the sentinel, and the mask.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    TablePath: "flows.csv",
//	    Sentinel:  0,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc := result.Decomposition
package pipeline

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tailwater/pkg/cache"
	"github.com/matzehuels/tailwater/pkg/network"
	"github.com/matzehuels/tailwater/pkg/source"
	"github.com/matzehuels/tailwater/pkg/topology"
)

const (
	// DefaultSentinel is the downstream value meaning "no real downstream".
	// Zero matches common NHDPlus-derived exports.
	DefaultSentinel = 0

	// MaxWorkers caps parallel network decomposition. Networks are cheap
	// to decompose individually; beyond this, scheduling overhead wins.
	MaxWorkers = 32
)

// Options contains all configuration for the decomposition pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	TablePath        string `json:"table_path,omitempty"`
	IDColumn         string `json:"id_column,omitempty"`
	DownstreamColumn string `json:"downstream_column,omitempty"`
	MaskPath         string `json:"mask_path,omitempty"`
	MaskColumn       string `json:"mask_column,omitempty"`

	// Organize options
	Sentinel int64 `json:"sentinel"`

	// Decompose options
	Workers int  `json:"workers,omitempty"`
	Partial bool `json:"partial,omitempty"` // Keep going past failing networks

	// Refresh bypasses the cache and recomputes.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Table  *network.Table `json:"-"` // Pre-loaded table, skips the load stage
	Mask   source.Mask    `json:"-"` // Pre-loaded mask
	Logger *log.Logger    `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Decomposition is the consistent networks/reaches triple.
	Decomposition *topology.Decomposition

	// TableHash is the content hash of the (masked) input table.
	TableHash string

	// DocHash is the content hash of the serialized decomposition.
	DocHash string

	// Failures lists networks that could not be decomposed, in tailwater
	// order. Only populated when Options.Partial is set; otherwise the
	// first failure aborts the run.
	Failures []NetworkFailure

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the decomposition came from cache.
	CacheInfo CacheInfo
}

// NetworkFailure records a network whose reach decomposition failed.
type NetworkFailure struct {
	Tailwater network.SegmentID
	Err       error
}

// Stats contains pipeline execution statistics.
type Stats struct {
	SegmentCount  int
	NetworkCount  int
	ReachCount    int
	LoadTime      time.Duration
	OrganizeTime  time.Duration
	DecomposeTime time.Duration
}

// CacheInfo tracks cache hits for the pipeline.
type CacheInfo struct {
	DecompositionHit bool // Whether the decomposition came from cache
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Table == nil && o.TablePath == "" {
		return fmt.Errorf("table or table_path is required")
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Workers > MaxWorkers {
		o.Workers = MaxWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// SourceOptions returns the CSV parsing options for the load stage.
func (o *Options) SourceOptions() source.Options {
	return source.Options{
		IDColumn:         o.IDColumn,
		DownstreamColumn: o.DownstreamColumn,
	}
}

// DecompositionKeyOpts returns cache key options for the decomposition.
func (o *Options) DecompositionKeyOpts(maskHash string) cache.DecompositionKeyOpts {
	return cache.DecompositionKeyOpts{
		Sentinel: o.Sentinel,
		MaskHash: maskHash,
	}
}
