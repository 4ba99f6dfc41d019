// Package render draws decomposed river networks as Graphviz diagrams.
//
// # Overview
//
// This package transforms a [topology.Decomposition] into visual outputs:
//
//   - DOT source ([ToDOT]) for downstream tooling
//   - SVG ([RenderSVG]) via the embedded Graphviz engine
//   - PNG and PDF ([ToPNG], [ToPDF]) via the external rsvg-convert tool
//
// Segments are drawn flowing top to bottom, tailwater at the bottom.
// Each independent network gets its own color; with reach grouping
// enabled, every reach becomes a labeled cluster so the unbranched
// chains are visible at a glance.
//
//	dot := render.ToDOT(d, render.Options{Reaches: true})
//	svg, err := render.RenderSVG(dot)
//	png, err := render.ToPNG(svg, 2.0) // 2x scale
//
// PNG and PDF conversion requires librsvg (rsvg-convert).
//
// [topology.Decomposition]: github.com/matzehuels/tailwater/pkg/topology.Decomposition
package render
