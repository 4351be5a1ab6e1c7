package geom

// Frame maps template-local coordinates to world coordinates.
// Local space has the entry cell at the origin and the heading pointing North;
// the frame rotates clockwise to Heading and then translates to Origin.
type Frame struct {
	Origin  Point
	Heading Direction
}

// FrameAt returns the frame for a room entered through e.
func FrameAt(e Exit) Frame {
	return Frame{Origin: e.At, Heading: e.Dir}
}

// Point maps a local cell to the world.
func (f Frame) Point(p Point) Point {
	return rotatePoint(p, int(f.Heading)).Add(f.Origin)
}

// Rect maps a local rectangle to the world.
func (f Frame) Rect(r Rect) Rect {
	for range int(f.Heading) {
		r = rotateRect(r)
	}
	return r.Translate(f.Origin)
}

// Exit maps a local exit to the world.
func (f Frame) Exit(e Exit) Exit {
	return Exit{At: f.Point(e.At), Dir: e.Dir.Rotate(int(f.Heading))}
}

// rotatePoint turns p clockwise by k quarter turns about the origin.
func rotatePoint(p Point, k int) Point {
	for range ((k % 4) + 4) % 4 {
		p = Point{X: -p.Y, Y: p.X}
	}
	return p
}

// rotateRect turns the cells of r a quarter turn clockwise about the origin.
func rotateRect(r Rect) Rect {
	return Rect{X: -(r.Y + r.H - 1), Y: r.X, W: r.H, H: r.W}
}
