// Package oracle decides whether an oriented template fits at an exit.
//
// The arrangement search treats the oracle as an opaque, possibly expensive,
// pure function: given a template, the exit it is entered through and the
// rectangles already placed on the current search path, it reports the world
// geometry the template would occupy or refuses the placement.
//
// [Grid] is the default implementation. It maps the template's local shape
// into the world with a [geom.Frame] and rejects any footprint that overlaps
// an earlier one or leaves the optional bounds.
package oracle

import (
	"github.com/matzehuels/warren/pkg/builder"
	"github.com/matzehuels/warren/pkg/geom"
)

// Placement is the world geometry of an accepted template.
type Placement struct {
	Rects []geom.Rect
	Rooms []builder.Room
	Exits []geom.Exit
}

// Oracle tests candidate placements. Implementations must not retain or
// modify placed.
type Oracle interface {
	TryPlace(t builder.Template, entry geom.Exit, placed []geom.Rect) (*Placement, bool)
}

// Func adapts an ordinary function to the [Oracle] interface.
type Func func(t builder.Template, entry geom.Exit, placed []geom.Rect) (*Placement, bool)

// TryPlace calls f.
func (f Func) TryPlace(t builder.Template, entry geom.Exit, placed []geom.Rect) (*Placement, bool) {
	return f(t, entry, placed)
}

// Grid is an [Oracle] on the integer cell grid.
// The zero value is unbounded and ready to use.
type Grid struct {
	// Bounds, when non-empty, is the region every footprint must stay inside.
	Bounds geom.Rect
}

// TryPlace maps t's shape into the world at entry and checks it against placed.
func (g Grid) TryPlace(t builder.Template, entry geom.Exit, placed []geom.Rect) (*Placement, bool) {
	shape := t.Shape()
	f := geom.FrameAt(entry)

	rects := make([]geom.Rect, len(shape.Rects))
	for i, r := range shape.Rects {
		w := f.Rect(r)
		if !g.inBounds(w) || overlaps(w, placed) {
			return nil, false
		}
		rects[i] = w
	}

	rooms := make([]builder.Room, len(shape.Rooms))
	for i, room := range shape.Rooms {
		rooms[i] = worldRoom(f, room)
	}

	exits := make([]geom.Exit, len(shape.Exits))
	for i, e := range shape.Exits {
		exits[i] = f.Exit(e)
	}

	return &Placement{Rects: rects, Rooms: rooms, Exits: exits}, true
}

func (g Grid) inBounds(r geom.Rect) bool {
	if g.Bounds.Empty() {
		return true
	}
	return r.X >= g.Bounds.X && r.Y >= g.Bounds.Y &&
		r.Right() <= g.Bounds.Right() && r.Bottom() <= g.Bounds.Bottom()
}

func overlaps(r geom.Rect, placed []geom.Rect) bool {
	for _, p := range placed {
		if r.Intersects(p) {
			return true
		}
	}
	return false
}

func worldRoom(f geom.Frame, room builder.Room) builder.Room {
	out := room
	out.Rect = f.Rect(room.Rect)
	out.Floor = f.Rect(room.Floor)
	out.Doors = make([]geom.Point, len(room.Doors))
	for i, d := range room.Doors {
		out.Doors[i] = f.Point(d)
	}
	return out
}
