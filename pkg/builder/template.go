package builder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/warren/pkg/geom"
)

// ArmContext describes where in the arm tree a template is being considered.
// Templates may use it to refuse placements they cannot satisfy.
type ArmContext struct {
	Node     int    // Arena index of the arm node being filled
	Step     int    // Stack slot being filled (0 = first room of the arm)
	Terminal bool   // True for the last slot of the arm
	Branches int    // Number of child arms the terminal room must feed
	ItemType string // Reward placed in the terminal room of an item arm
}

// Room is one room of a template, in template-local or world coordinates
// depending on who holds it.
type Room struct {
	Name  string       `json:"name" bson:"name"`
	Kind  string       `json:"kind" bson:"kind"`
	Rect  geom.Rect    `json:"rect" bson:"rect"`   // Footprint including walls
	Floor geom.Rect    `json:"floor" bson:"floor"` // Walkable interior
	Doors []geom.Point `json:"doors,omitempty" bson:"doors,omitempty"`
	Item  string       `json:"item,omitempty" bson:"item,omitempty"`
}

// Shape is the local geometry of an oriented template: the room is entered at
// the origin while heading North. The geometry oracle maps it to the world.
type Shape struct {
	Rects []geom.Rect // Cells reserved against overlap
	Rooms []Room
	Exits []geom.Exit // One per outgoing connection, in branch order
}

// Template is a placeable room generator consulted by the arrangement search.
//
// Templates held by a [Pool] are shared between search branches and must be
// treated as immutable. Orient returns a private copy that the search owns.
type Template interface {
	// Name identifies the template. Names are unique within a pool.
	Name() string

	// Kind is the variant name ("corridor", "turn", "chamber", "vault", ...).
	Kind() string

	// ExitCount is the number of outgoing connections the template provides.
	ExitCount() int

	// Orient prepares an owned copy of the template for entry heading in.
	// Returning false refuses the placement; the search treats a refusal as a
	// rejection of this candidate, never as an error.
	Orient(in geom.Direction, terminal bool, ctx ArmContext) (Template, bool)

	// Shape returns the local geometry of the template.
	Shape() Shape
}

// Use controls which stack slots a template may fill.
type Use int

const (
	// UseAnywhere allows both inner and terminal slots.
	UseAnywhere Use = iota
	// UseInner forbids the terminal slot of an arm.
	UseInner
	// UseTerminal allows only the terminal slot of an arm.
	UseTerminal
)

func (u Use) String() string {
	switch u {
	case UseInner:
		return "inner"
	case UseTerminal:
		return "terminal"
	default:
		return "anywhere"
	}
}

// ParseUse parses "anywhere", "inner" or "terminal". The empty string is
// [UseAnywhere].
func ParseUse(s string) (Use, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "anywhere", "any":
		return UseAnywhere, nil
	case "inner":
		return UseInner, nil
	case "terminal", "end":
		return UseTerminal, nil
	}
	return UseAnywhere, fmt.Errorf("unknown use %q", s)
}

// Rules are the orientation constraints shared by all template variants.
type Rules struct {
	// Headings restricts the entry headings the template accepts.
	// Empty accepts every heading.
	Headings []geom.Direction
	// Use restricts the stack slots the template may fill.
	Use Use
}

// Allows reports whether a template with the given exit count may be entered
// heading in at a terminal or inner slot. An inner slot continues the arm
// through exactly one exit.
func (r Rules) Allows(in geom.Direction, terminal bool, exits int) bool {
	if len(r.Headings) > 0 && !slices.Contains(r.Headings, in) {
		return false
	}
	switch {
	case terminal && r.Use == UseInner:
		return false
	case !terminal && r.Use == UseTerminal:
		return false
	case !terminal && exits != 1:
		return false
	}
	return true
}
