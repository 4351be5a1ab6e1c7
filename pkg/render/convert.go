package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/matzehuels/warren/pkg/errors"
)

// rsvgConvert is the librsvg converter binary.
const rsvgConvert = "rsvg-convert"

// ToPDF converts an SVG floor plan to PDF.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convert(ctx, svg, FormatPDF)
}

// ToPNG converts an SVG floor plan to PNG. A scale of 2 doubles the resolution.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return convert(ctx, svg, FormatPNG, "-z", fmt.Sprintf("%.2f", scale))
}

func convert(ctx context.Context, svg []byte, format string, extra ...string) ([]byte, error) {
	bin, err := exec.LookPath(rsvgConvert)
	if err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s output requires librsvg (brew install librsvg, apt install librsvg2-bin)", format)
	}

	cmd := exec.CommandContext(ctx, bin, append([]string{"-f", format}, extra...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", rsvgConvert, err, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}
