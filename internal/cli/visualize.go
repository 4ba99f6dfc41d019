package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tailwater/pkg/cache"
	"github.com/matzehuels/tailwater/pkg/pipeline"
	"github.com/matzehuels/tailwater/pkg/render"
	"github.com/matzehuels/tailwater/pkg/topology"
)

// Supported visualization output formats.
var visualizeFormats = map[string]bool{
	"dot": true,
	"svg": true,
	"png": true,
	"pdf": true,
}

// visualizeCommand creates the visualize command for drawing networks.
func (c *CLI) visualizeCommand() *cobra.Command {
	var (
		flags    partitionFlags
		format   string
		output   string
		reaches  bool
		detailed bool
		scale    float64
	)

	cmd := &cobra.Command{
		Use:   "visualize <table.csv|topo.json>",
		Short: "Draw the decomposed networks as a Graphviz diagram",
		Long: `Draw the decomposed networks as a Graphviz diagram.

The input is either a connectivity table CSV (decomposed first, with the
same flags as 'partition') or a decomposition document JSON produced by
'partition -o'. Water flows top to bottom with one color per network.

PNG and PDF output require librsvg (rsvg-convert).

Examples:
  tailwater visualize topo.json -o rivers.svg
  tailwater visualize flows.csv -f png --reaches -o rivers.png
  tailwater visualize topo.json -f dot                # DOT to stdout`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !visualizeFormats[format] {
				return fmt.Errorf("invalid format: %q (must be one of: dot, svg, png, pdf)", format)
			}
			return c.runVisualize(cmd.Context(), args[0], flags, visualizeOpts{
				format:   format,
				output:   output,
				reaches:  reaches,
				detailed: detailed,
				scale:    scale,
			})
		},
	}

	flags.register(cmd, c.Config)
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: dot, svg, png, pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&reaches, "reaches", false, "group reaches into labeled clusters")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include reach position in node labels")
	cmd.Flags().Float64Var(&scale, "scale", 2.0, "PNG scale factor")

	return cmd
}

type visualizeOpts struct {
	format   string
	output   string
	reaches  bool
	detailed bool
	scale    float64
}

// runVisualize obtains a decomposition and renders it.
func (c *CLI) runVisualize(ctx context.Context, input string, flags partitionFlags, vo visualizeOpts) error {
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	d, err := c.loadDecomposition(ctx, runner, input, flags)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	data, err := c.renderArtifact(ctx, runner, d, vo)
	if err != nil {
		return fmt.Errorf("render %s: %w", vo.format, err)
	}
	prog.done(fmt.Sprintf("Rendered %d networks as %s", len(d.Tailwaters), vo.format))

	out, err := openOutput(vo.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return err
	}
	if vo.output != "" {
		printFile(vo.output)
	}
	return nil
}

// renderArtifact renders the decomposition in the requested format. The
// rendered bytes are cached by document hash; DOT output is cheap enough
// to skip the cache.
func (c *CLI) renderArtifact(ctx context.Context, runner *pipeline.Runner, d *topology.Decomposition, vo visualizeOpts) ([]byte, error) {
	dot := render.ToDOT(d, render.Options{Reaches: vo.reaches, Detailed: vo.detailed})
	if vo.format == "dot" {
		return []byte(dot), nil
	}

	scale := 0.0
	if vo.format == "png" {
		scale = vo.scale
	}
	var key string
	if docBytes, err := topology.MarshalDocument(d); err == nil {
		key = runner.Keyer.ArtifactKey(cache.Hash(docBytes), cache.ArtifactKeyOpts{
			Format:   vo.format,
			Reaches:  vo.reaches,
			Detailed: vo.detailed,
			Scale:    scale,
		})
		if data, hit, err := runner.Cache.Get(ctx, key); err == nil && hit {
			return data, nil
		}
	}

	svg, err := render.RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	data := svg
	switch vo.format {
	case "png":
		data, err = render.ToPNG(svg, vo.scale)
	case "pdf":
		data, err = render.ToPDF(svg)
	}
	if err != nil {
		return nil, err
	}
	if key != "" {
		_ = runner.Cache.Set(ctx, key, data, cache.TTLArtifact)
	}
	return data, nil
}

// loadDecomposition reads a document file or decomposes a table, depending
// on the input extension.
func (c *CLI) loadDecomposition(ctx context.Context, runner *pipeline.Runner, input string, flags partitionFlags) (*topology.Decomposition, error) {
	if strings.EqualFold(filepath.Ext(input), ".json") {
		return topology.ReadDocumentFile(input)
	}

	opts := flags.options(input)
	opts.Logger = c.Logger
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return nil, err
	}
	return result.Decomposition, nil
}
