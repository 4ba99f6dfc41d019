package render

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
)

// converterBin is the external SVG converter. librsvg handles the large,
// text-heavy SVGs Graphviz emits for continental networks better than pure
// Go rasterizers.
const converterBin = "rsvg-convert"

// ToPDF converts SVG bytes to PDF.
// Requires librsvg (rsvg-convert on PATH).
func ToPDF(svg []byte) ([]byte, error) {
	return convert(svg, "pdf")
}

// ToPNG converts SVG bytes to PNG at the given scale factor. A scale of
// 2.0 doubles the pixel dimensions.
// Requires librsvg (rsvg-convert on PATH).
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1.0
	}
	return convert(svg, "png", "-z", strconv.FormatFloat(scale, 'f', 2, 64))
}

// convert pipes the SVG through the external converter.
func convert(svg []byte, format string, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(converterBin)
	if err != nil {
		return nil, fmt.Errorf("%s output needs librsvg (%s not found); install librsvg2-bin (Linux) or librsvg (macOS)", format, converterBin)
	}

	cmd := exec.Command(bin, append([]string{"-f", format}, args...)...)
	cmd.Stdin = bytes.NewReader(svg)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %v: %s", converterBin, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}
