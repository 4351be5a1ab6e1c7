package render

import (
	"strings"

	"github.com/matzehuels/warren/pkg/geom"
	"github.com/matzehuels/warren/pkg/layout"
)

// ASCII cell glyphs.
const (
	GlyphEmpty = ' '
	GlyphWall  = '#'
	GlyphFloor = '.'
	GlyphDoor  = '+'
	GlyphItem  = '$'
)

// ASCII draws l as a character grid. Walls are drawn first, then floors,
// doors and items, so later glyphs win where they share a cell. Trailing
// blanks are trimmed from every line.
func ASCII(l *layout.Layout) string {
	if l == nil || l.Width <= 0 || l.Height <= 0 {
		return ""
	}

	grid := make([][]rune, l.Height)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(string(GlyphEmpty), l.Width))
	}
	set := func(p geom.Point, c rune) {
		if p.Y >= 0 && p.Y < l.Height && p.X >= 0 && p.X < l.Width {
			grid[p.Y][p.X] = c
		}
	}
	fill := func(r geom.Rect, c rune) {
		for y := r.Y; y < r.Bottom(); y++ {
			for x := r.X; x < r.Right(); x++ {
				set(geom.Point{X: x, Y: y}, c)
			}
		}
	}

	for _, r := range l.Rooms {
		fill(r.Rect, GlyphWall)
	}
	for _, r := range l.Rooms {
		fill(r.Floor, GlyphFloor)
	}
	for _, r := range l.Rooms {
		for _, d := range r.Doors {
			set(d, GlyphDoor)
		}
	}
	for _, it := range l.Items {
		set(it.At, GlyphItem)
	}

	var b strings.Builder
	for _, row := range grid {
		b.WriteString(strings.TrimRight(string(row), string(GlyphEmpty)))
		b.WriteByte('\n')
	}
	return b.String()
}
