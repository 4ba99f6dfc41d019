package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tailwater/pkg/errors"
	"github.com/matzehuels/tailwater/pkg/pipeline"
	"github.com/matzehuels/tailwater/pkg/topology"
)

// maxShownWarnings bounds ambiguity output so a messy table doesn't flood
// the terminal.
const maxShownWarnings = 5

// partitionFlags holds the command-line flags shared by partition and
// visualize, mirroring pipeline.Options.
type partitionFlags struct {
	sentinel   int64
	idColumn   string
	downColumn string
	mask       string
	maskColumn string
	workers    int
	partial    bool
	refresh    bool
	noCache    bool
}

// register binds the shared flags to cmd, seeding defaults from config.
func (f *partitionFlags) register(cmd *cobra.Command, cfg *Config) {
	f.sentinel = cfg.Defaults.Sentinel
	f.idColumn = cfg.Defaults.IDColumn
	f.downColumn = cfg.Defaults.DownstreamColumn

	cmd.Flags().Int64Var(&f.sentinel, "sentinel", f.sentinel, "downstream value meaning no real downstream")
	cmd.Flags().StringVar(&f.idColumn, "id-column", f.idColumn, "segment id column name (default \"id\")")
	cmd.Flags().StringVar(&f.downColumn, "downstream-column", f.downColumn, "downstream reference column name (default \"to\")")
	cmd.Flags().StringVar(&f.mask, "mask", "", "CSV file restricting the run to a subset of segments")
	cmd.Flags().StringVar(&f.maskColumn, "mask-column", "", "mask column name (first column if empty)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel network decompositions (0 = number of CPUs)")
	cmd.Flags().BoolVar(&f.partial, "partial", false, "skip networks that fail to decompose instead of aborting")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass cache")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// options converts the flags into pipeline options for the given table.
func (f *partitionFlags) options(table string) pipeline.Options {
	return pipeline.Options{
		TablePath:        table,
		IDColumn:         f.idColumn,
		DownstreamColumn: f.downColumn,
		MaskPath:         f.mask,
		MaskColumn:       f.maskColumn,
		Sentinel:         f.sentinel,
		Workers:          f.workers,
		Partial:          f.partial,
		Refresh:          f.refresh,
	}
}

// partitionCommand creates the partition command, the main entry point.
func (c *CLI) partitionCommand() *cobra.Command {
	var (
		flags  partitionFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "partition <table.csv>",
		Short: "Partition a connectivity table into networks and ordered reaches",
		Long: `Partition a river connectivity table into independent tailwater-rooted
networks and decompose each into topologically ordered reaches.

The table is a CSV with a segment id column and a downstream reference
column. Rows whose downstream value equals the sentinel (or points outside
the table) become tailwaters. The result is written as a JSON document
containing the normalized connectivity, the networks, and their reaches.

Results are cached locally for faster subsequent runs.

Examples:
  tailwater partition flows.csv                      # Full domain to stdout
  tailwater partition flows.csv -o topo.json         # Write document
  tailwater partition flows.csv --mask texas.csv     # Restrict to a subset
  tailwater partition flows.csv --sentinel -9999`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				if err := errors.ValidateOutputPath(output); err != nil {
					return err
				}
			}
			return c.runPartition(cmd.Context(), args[0], flags, output)
		},
	}

	flags.register(cmd, c.Config)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")

	return cmd
}

// runPartition executes the pipeline and writes the decomposition document.
func (c *CLI) runPartition(ctx context.Context, table string, flags partitionFlags, output string) error {
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := flags.options(table)
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Decomposing %s...", table))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Decomposition failed")
		return err
	}
	spinner.Stop()

	reportRun(result)

	if err := writeDocument(result.Decomposition, output); err != nil {
		return err
	}
	if output != "" {
		printFile(output)
		printNextStep("Visualize it", fmt.Sprintf("%s visualize %s", appName, output))
	}
	return nil
}

// reportRun prints stats, normalization warnings, and partial failures.
func reportRun(result *pipeline.Result) {
	printSuccess("Decomposed %d networks", result.Stats.NetworkCount)
	printStats(result.Stats.SegmentCount, result.Stats.NetworkCount, result.Stats.ReachCount,
		result.CacheInfo.DecompositionHit)

	for i, w := range result.Decomposition.Warnings {
		if i == maxShownWarnings {
			printDetail("... and %d more", len(result.Decomposition.Warnings)-maxShownWarnings)
			break
		}
		printWarning("segment %d: downstream %d is ambiguous, treated as terminal (%d)",
			w.Segment, w.Original, w.Resolved)
	}
	for _, f := range result.Failures {
		printWarning("network %d skipped: %v", f.Tailwater, f.Err)
	}
}

// writeDocument serializes the decomposition as JSON to path (or stdout if empty).
func writeDocument(d *topology.Decomposition, path string) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return topology.WriteDocument(d, out)
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
