// Package render draws trimmed dungeon layouts.
//
// # Formats
//
//   - [ASCII]: a character grid, one cell per character
//   - [SVG]: a floor plan with walls, floors, doors and items
//   - [DOT]: the arm tree outline in Graphviz DOT, rendered with [DOTToSVG]
//   - [ToPNG], [ToPDF]: raster and print conversions of any SVG
//
// [Render] dispatches on a format name and is what the CLI, the pipeline and
// the HTTP server use.
//
// # Partial Layouts
//
// Layouts built from incomplete arrangements are drawn as far as they go.
// The SVG and DOT outputs mark them as incomplete so a partial dungeon is
// never mistaken for a finished one.
//
// # Format Conversion
//
// PNG and PDF output shell out to rsvg-convert from librsvg:
//
//	svg := render.SVG(l, render.WithCellSize(12))
//	png, err := render.ToPNG(svg, 2.0)
package render
