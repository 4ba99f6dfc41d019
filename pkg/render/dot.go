package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/tailwater/pkg/topology"
)

// Options configures network diagram rendering.
type Options struct {
	// Reaches groups each reach into a labeled cluster so the unbranched
	// chains are visible. When false, segments are drawn individually.
	Reaches bool

	// Detailed includes the reach index and in-reach position in node
	// labels. When false, only the segment id is shown.
	Detailed bool
}

// palette assigns one border color per independent network, cycling when
// there are more networks than colors.
var palette = []string{
	"#1f77b4", "#2ca02c", "#9467bd", "#d62728",
	"#8c564b", "#e377c2", "#17becf", "#bcbd22",
}

// ToDOT converts a decomposition to Graphviz DOT format. Water flows top
// to bottom: edges point from each segment to its downstream neighbor,
// with the tailwater ending in a small terminal marker.
//
// Output is deterministic: networks in tailwater order, reaches in
// decomposition order, segments in reach order. The resulting DOT string
// can be rendered using [RenderSVG], [ToPNG], or [ToPDF].
func ToDOT(d *topology.Decomposition, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph rivers {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")

	for ni, tw := range d.Tailwaters {
		color := palette[ni%len(palette)]
		subnet := d.Networks[tw]
		net := subnet.Net()

		buf.WriteString("\n")
		fmt.Fprintf(&buf, "  // network %d\n", tw)
		for ri, reach := range d.Reaches[tw] {
			if opts.Reaches {
				fmt.Fprintf(&buf, "  subgraph cluster_%d_%d {\n", tw, ri)
				fmt.Fprintf(&buf, "    label=\"reach %d\";\n", ri)
				fmt.Fprintf(&buf, "    color=%q;\n", color)
				buf.WriteString("    style=rounded;\n")
			}
			for pos, seg := range reach {
				label := strconv.FormatInt(int64(seg), 10)
				if opts.Detailed {
					label = fmt.Sprintf("%d\nreach %d, pos %d", seg, ri, pos)
				}
				attrs := fmt.Sprintf("label=%q, color=%q", label, color)
				idx, _ := net.Index(seg)
				switch {
				case seg == tw:
					attrs += ", fillcolor=\"#d6e8f5\", penwidth=2"
				case net.IsJunction(idx):
					attrs += ", shape=hexagon, style=filled"
				}
				indent := "  "
				if opts.Reaches {
					indent = "    "
				}
				fmt.Fprintf(&buf, "%s\"%d\" [%s];\n", indent, seg, attrs)
			}
			if opts.Reaches {
				buf.WriteString("  }\n")
			}
		}

		// Terminal marker below the tailwater
		fmt.Fprintf(&buf, "  \"out_%d\" [shape=point, width=0.12, color=%q];\n", tw, color)

		for _, reach := range d.Reaches[tw] {
			for _, seg := range reach {
				to := d.Connections[seg]
				if to == seg || !subnet.Contains(to) {
					fmt.Fprintf(&buf, "  \"%d\" -> \"out_%d\";\n", seg, tw)
					continue
				}
				fmt.Fprintf(&buf, "  \"%d\" -> \"%d\";\n", seg, to)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [ToPDF] or [ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
