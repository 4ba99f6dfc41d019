// Package pkg provides the core libraries for Tailwater river-network
// decomposition.
//
// # Overview
//
// Tailwater partitions a continental-scale drainage connectivity table into
// independent sub-networks, one per tailwater outlet, and decomposes each
// sub-network into topologically ordered unbranched reaches. The pkg
// directory is organized into five main areas:
//
//  1. [source] - Input handling (CSV connectivity tables, segment masks)
//  2. [network] - Core domain types (segment tables, connectivity maps)
//  3. [topology] - Decomposition algorithms (normalize, partition, reach)
//  4. [pipeline] - Orchestration (load → organize → decompose) with caching
//  5. [render] - Visualization (DOT, SVG, PNG, PDF)
//
// # Architecture
//
// The typical data flow through Tailwater:
//
//	Connectivity CSV (+ optional mask)
//	         ↓
//	    [source] package (parse, validate, filter)
//	         ↓
//	    [network] package (build connectivity + reverse maps)
//	         ↓
//	    [topology] package (normalize terminals, partition, decompose reaches)
//	         ↓
//	    JSON document / DOT / SVG / PNG / PDF output
//
// # Quick Start
//
// Decompose a connectivity table into reaches:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/tailwater/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, _ := runner.Execute(context.Background(), pipeline.Options{
//	    TablePath: "flowpaths.csv",
//	})
//	for _, tw := range result.Decomposition.Tailwaters {
//	    reaches := result.Decomposition.Reaches[tw]
//	    // leaf-first order: every reach appears after its upstream reaches
//	}
//
// # Main Packages
//
// ## Domain
//
// [source] - CSV connectivity table loading with configurable id/downstream
// columns, numeric attribute columns, and optional segment masks for
// sub-domain extraction.
//
// [network] - Segment tables and immutable connectivity networks with
// downstream/upstream lookup, junction and tailwater classification, and
// cycle detection.
//
// [topology] - The decomposition algorithms: terminal normalization
// (sentinel and dangling references become self-loops), tailwater-rooted
// partitioning, and unbranched reach extraction in leaf-first topological
// order. Results serialize through [topology.Document].
//
// ## Infrastructure
//
// [pipeline] - Complete decomposition pipeline used by CLI and API. Caches
// whole decomposition documents keyed by table content, sentinel, and mask.
//
// [cache] - Backends for pipeline caching: file (sharded, TTL envelopes),
// Redis, and null. Content hashing lives here too.
//
// [observability] - Optional hooks for metrics and tracing. No-op by
// default; register implementations at startup.
//
// [errors] - Error codes shared by CLI and API, with structural errors that
// carry offending segment ids.
//
// ## Visualization
//
// [render] - DOT generation for decompositions (networks colored, reaches
// clustered) plus SVG rendering via Graphviz and PNG/PDF conversion.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/topology/...   # Specific package
//
// [source]: https://pkg.go.dev/github.com/matzehuels/tailwater/pkg/source
// [network]: https://pkg.go.dev/github.com/matzehuels/tailwater/pkg/network
// [topology]: https://pkg.go.dev/github.com/matzehuels/tailwater/pkg/topology
// [topology.Document]: https://pkg.go.dev/github.com/matzehuels/tailwater/pkg/topology#Document
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/tailwater/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/tailwater/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/tailwater/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/tailwater/pkg/errors
// [render]: https://pkg.go.dev/github.com/matzehuels/tailwater/pkg/render
package pkg
