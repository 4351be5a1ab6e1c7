package render

import (
	"bytes"
	"fmt"
	"html"
	"maps"
	"slices"

	"github.com/matzehuels/warren/pkg/layout"
)

// DefaultCellSize is the side of one grid cell in SVG user units.
const DefaultCellSize = 16

// Style is a color scheme for [SVG].
type Style struct {
	Name       string
	Background string
	Wall       string
	Floor      string
	Door       string
	Item       string
	Text       string
}

// Built-in styles.
var (
	StyleSimple = Style{
		Name:       "simple",
		Background: "#ffffff",
		Wall:       "#3a3a3a",
		Floor:      "#f2efe6",
		Door:       "#b5651d",
		Item:       "#d4a017",
		Text:       "#3a3a3a",
	}
	StyleBlueprint = Style{
		Name:       "blueprint",
		Background: "#123a6b",
		Wall:       "#dce8f5",
		Floor:      "#1d4f8c",
		Door:       "#f5d76e",
		Item:       "#ff8c69",
		Text:       "#dce8f5",
	}
)

var styles = map[string]Style{
	StyleSimple.Name:    StyleSimple,
	StyleBlueprint.Name: StyleBlueprint,
}

// LookupStyle returns the built-in style with the given name.
func LookupStyle(name string) (Style, bool) {
	s, ok := styles[name]
	return s, ok
}

// StyleNames returns the built-in style names in sorted order.
func StyleNames() []string {
	return slices.Sorted(maps.Keys(styles))
}

// SVGOption configures [SVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	cell   int
	style  Style
	labels bool
}

// WithCellSize sets the side of one grid cell.
func WithCellSize(n int) SVGOption {
	return func(r *svgRenderer) {
		if n > 0 {
			r.cell = n
		}
	}
}

// WithStyle sets the color scheme.
func WithStyle(s Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithLabels writes each room's template name inside its floor.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// SVG draws l as a floor plan.
func SVG(l *layout.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{cell: DefaultCellSize, style: StyleSimple}
	for _, opt := range opts {
		opt(&r)
	}
	c := float64(r.cell)
	w, h := float64(l.Width)*c, float64(l.Height)*c

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		w, h, w, h)
	fmt.Fprintf(&buf, `  <rect class="background" x="0" y="0" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
		w, h, r.style.Background)

	for _, room := range l.Rooms {
		fmt.Fprintf(&buf, `  <g class="room %s" id="room-%d-%d">`+"\n", room.Kind, room.Node, room.Step)
		fmt.Fprintf(&buf, `    <title>%s</title>`+"\n", html.EscapeString(roomTitle(room)))
		r.rect(&buf, "wall", float64(room.Rect.X), float64(room.Rect.Y), float64(room.Rect.W), float64(room.Rect.H), r.style.Wall)
		r.rect(&buf, "floor", float64(room.Floor.X), float64(room.Floor.Y), float64(room.Floor.W), float64(room.Floor.H), r.style.Floor)
		for _, d := range room.Doors {
			r.rect(&buf, "door", float64(d.X), float64(d.Y), 1, 1, r.style.Door)
		}
		if r.labels {
			fmt.Fprintf(&buf, `    <text x="%.1f" y="%.1f" font-size="%.1f" text-anchor="middle" dominant-baseline="middle" fill="%s">%s</text>`+"\n",
				(float64(room.Floor.X)+float64(room.Floor.W)/2)*c, (float64(room.Floor.Y)+float64(room.Floor.H)/2)*c,
				c*0.6, r.style.Text, html.EscapeString(room.Template))
		}
		buf.WriteString("  </g>\n")
	}

	for _, it := range l.Items {
		fmt.Fprintf(&buf, `  <circle class="item" cx="%.1f" cy="%.1f" r="%.1f" fill="%s"><title>%s</title></circle>`+"\n",
			(float64(it.At.X)+0.5)*c, (float64(it.At.Y)+0.5)*c, c*0.35, r.style.Item, html.EscapeString(it.Type))
	}

	if !l.Complete {
		fmt.Fprintf(&buf, `  <text class="incomplete" x="%.1f" y="%.1f" font-size="%.1f" fill="%s">incomplete</text>`+"\n",
			c*0.25, c*0.8, c*0.7, r.style.Text)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) rect(buf *bytes.Buffer, class string, x, y, w, h float64, fill string) {
	c := float64(r.cell)
	fmt.Fprintf(buf, `    <rect class="%s" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
		class, x*c, y*c, w*c, h*c, fill)
}

func roomTitle(room layout.Room) string {
	title := fmt.Sprintf("%s (arm %d, step %d)", room.Template, room.Node, room.Step)
	if room.Item != "" {
		title += ": " + room.Item
	}
	return title
}
