// Package geom holds the integer grid geometry shared by templates, the
// geometry oracle and the layout step.
//
// Coordinates are cells on a screen-oriented grid: x grows to the right and y
// grows downward. Templates are authored in a local frame where the room is
// entered at the origin while heading [North]; a [Frame] maps that local
// space onto the world for any entry point and heading.
package geom

import "fmt"

// Point is a grid cell.
type Point struct {
	X int `json:"x" toml:"x" yaml:"x" bson:"x"`
	Y int `json:"y" toml:"y" yaml:"y" bson:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Step returns the neighbouring cell of p in direction d.
func (p Point) Step(d Direction) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Rect is an axis-aligned block of cells [X, X+W) x [Y, Y+H).
type Rect struct {
	X int `json:"x" toml:"x" yaml:"x" bson:"x"`
	Y int `json:"y" toml:"y" yaml:"y" bson:"y"`
	W int `json:"w" toml:"w" yaml:"w" bson:"w"`
	H int `json:"h" toml:"h" yaml:"h" bson:"h"`
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate one past the right edge.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the y-coordinate one past the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.H }

// Empty reports whether the rectangle covers no cells.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Intersects returns true if this rectangle shares at least one cell with other.
func (r Rect) Intersects(other Rect) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	if r.X >= other.Right() || other.X >= r.Right() {
		return false
	}
	if r.Y >= other.Bottom() || other.Y >= r.Bottom() {
		return false
	}
	return true
}

// Contains returns true if the cell p is inside this rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Union returns the smallest rectangle containing both r and other.
// An empty rectangle is the identity.
func (r Rect) Union(other Rect) Rect {
	if r.Empty() {
		return other
	}
	if other.Empty() {
		return r
	}
	x, y := min(r.X, other.X), min(r.Y, other.Y)
	return Rect{X: x, Y: y, W: max(r.Right(), other.Right()) - x, H: max(r.Bottom(), other.Bottom()) - y}
}

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, W: r.W, H: r.H}
}

// Inset returns r shrunk by n cells on every side. The result may be empty.
func (r Rect) Inset(n int) Rect {
	return Rect{X: r.X + n, Y: r.Y + n, W: r.W - 2*n, H: r.H - 2*n}
}

func (r Rect) String() string { return fmt.Sprintf("[%d,%d %dx%d]", r.X, r.Y, r.W, r.H) }

// Bounds returns the union of rects.
func Bounds(rects []Rect) Rect {
	var b Rect
	for _, r := range rects {
		b = b.Union(r)
	}
	return b
}

// Exit is a connection out of a placed room: At is the first cell of the next
// room and Dir is the heading used to enter it.
type Exit struct {
	At  Point     `json:"at" toml:"at" yaml:"at" bson:"at"`
	Dir Direction `json:"dir" toml:"dir" yaml:"dir" bson:"dir"`
}

func (e Exit) String() string { return fmt.Sprintf("%s->%s", e.At, e.Dir) }
