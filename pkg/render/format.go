package render

import (
	"context"

	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/layout"
)

// Output formats understood by [Render].
const (
	FormatASCII = "ascii"
	FormatSVG   = "svg"
	FormatDOT   = "dot"
	FormatTree  = "tree" // Arm tree outline as SVG
	FormatPNG   = "png"
	FormatPDF   = "pdf"
	FormatJSON  = "json"
)

var formats = map[string]struct {
	contentType string
	ext         string
}{
	FormatASCII: {"text/plain; charset=utf-8", ".txt"},
	FormatSVG:   {"image/svg+xml", ".svg"},
	FormatDOT:   {"text/vnd.graphviz", ".dot"},
	FormatTree:  {"image/svg+xml", ".tree.svg"},
	FormatPNG:   {"image/png", ".png"},
	FormatPDF:   {"application/pdf", ".pdf"},
	FormatJSON:  {"application/json", ".json"},
}

// Formats lists every supported format in a stable order.
func Formats() []string {
	return []string{FormatASCII, FormatSVG, FormatDOT, FormatTree, FormatPNG, FormatPDF, FormatJSON}
}

// ValidFormat reports whether Render supports format.
func ValidFormat(format string) bool {
	_, ok := formats[format]
	return ok
}

// ContentType returns the MIME type of format.
func ContentType(format string) string {
	return formats[format].contentType
}

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	return formats[format].ext
}

// Options configures [Render]. The zero value uses the simple style.
type Options struct {
	Style    string  // Built-in style name for SVG, PNG and PDF
	CellSize int     // SVG cell size, 0 for DefaultCellSize
	Labels   bool    // Write template names into rooms
	Scale    float64 // PNG scale, 0 for 2x
}

// Render draws l in the given format.
func Render(ctx context.Context, l *layout.Layout, format string, opts Options) ([]byte, error) {
	if l == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "render: layout is nil")
	}

	switch format {
	case FormatASCII:
		return []byte(ASCII(l)), nil
	case FormatDOT:
		return []byte(DOT(l)), nil
	case FormatTree:
		return DOTToSVG(ctx, DOT(l))
	case FormatJSON:
		return layout.Marshal(l)
	case FormatSVG, FormatPNG, FormatPDF:
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}

	svgOpts, err := opts.svgOptions()
	if err != nil {
		return nil, err
	}
	svg := SVG(l, svgOpts...)
	switch format {
	case FormatPNG:
		scale := opts.Scale
		if scale == 0 {
			scale = 2
		}
		return ToPNG(ctx, svg, scale)
	case FormatPDF:
		return ToPDF(ctx, svg)
	}
	return svg, nil
}

func (o Options) svgOptions() ([]SVGOption, error) {
	var out []SVGOption
	if o.Style != "" {
		s, ok := LookupStyle(o.Style)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidStyle, "unknown style %q (want one of %v)", o.Style, StyleNames())
		}
		out = append(out, WithStyle(s))
	}
	if o.CellSize > 0 {
		out = append(out, WithCellSize(o.CellSize))
	}
	if o.Labels {
		out = append(out, WithLabels())
	}
	return out, nil
}
