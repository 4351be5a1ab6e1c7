package builder

import (
	"github.com/matzehuels/warren/pkg/geom"
)

// Template kinds understood by the [Registry].
const (
	KindCorridor = "corridor"
	KindTurn     = "turn"
	KindChamber  = "chamber"
	KindVault    = "vault"
)

// =============================================================================
// Corridor
// =============================================================================

// Corridor is a one-cell-wide passage running straight ahead of the entry.
type Corridor struct {
	rules  Rules
	name   string
	length int
	item   string
}

// NewCorridor returns a corridor with a floor length cells long.
// Lengths below 1 are raised to 1.
func NewCorridor(name string, length int, rules Rules) *Corridor {
	return &Corridor{rules: rules, name: name, length: max(length, 1)}
}

func (c *Corridor) Name() string   { return c.name }
func (c *Corridor) Kind() string   { return KindCorridor }
func (c *Corridor) ExitCount() int { return 1 }

func (c *Corridor) Orient(in geom.Direction, terminal bool, ctx ArmContext) (Template, bool) {
	if !c.rules.Allows(in, terminal, c.ExitCount()) {
		return nil, false
	}
	o := *c
	o.item = terminalItem(terminal, ctx)
	return &o, true
}

func (c *Corridor) Shape() Shape {
	return box(c.name, KindCorridor, 1, c.length, []geom.Direction{geom.North}, c.item)
}

// =============================================================================
// Turn
// =============================================================================

// Turn is a square room whose single exit leaves through the left or right wall.
type Turn struct {
	rules Rules
	name  string
	size  int
	side  geom.Direction
	item  string
}

// NewTurn returns a size x size room turning toward side, which must be
// [geom.East] (right) or [geom.West] (left); anything else turns right.
func NewTurn(name string, size int, side geom.Direction, rules Rules) *Turn {
	if side != geom.West {
		side = geom.East
	}
	return &Turn{rules: rules, name: name, size: max(size, 1), side: side}
}

func (t *Turn) Name() string   { return t.name }
func (t *Turn) Kind() string   { return KindTurn }
func (t *Turn) ExitCount() int { return 1 }

func (t *Turn) Orient(in geom.Direction, terminal bool, ctx ArmContext) (Template, bool) {
	if !t.rules.Allows(in, terminal, t.ExitCount()) {
		return nil, false
	}
	o := *t
	o.item = terminalItem(terminal, ctx)
	return &o, true
}

func (t *Turn) Shape() Shape {
	return box(t.name, KindTurn, t.size, t.size, []geom.Direction{t.side}, t.item)
}

// =============================================================================
// Chamber
// =============================================================================

// Chamber is a rectangular room with one exit per wall listed, used to fork
// an arm into child arms. Exits are reported in the order given.
type Chamber struct {
	rules Rules
	name  string
	w, h  int
	exits []geom.Direction
	item  string
}

// NewChamber returns a w x h chamber. Exit sides are relative to the entry
// heading; South is the entry wall and is dropped, as are repeated sides.
func NewChamber(name string, w, h int, exits []geom.Direction, rules Rules) *Chamber {
	var sides []geom.Direction
	seen := map[geom.Direction]bool{geom.South: true}
	for _, d := range exits {
		if !d.IsValid() || seen[d] {
			continue
		}
		seen[d] = true
		sides = append(sides, d)
	}
	return &Chamber{rules: rules, name: name, w: max(w, 1), h: max(h, 1), exits: sides}
}

func (c *Chamber) Name() string   { return c.name }
func (c *Chamber) Kind() string   { return KindChamber }
func (c *Chamber) ExitCount() int { return len(c.exits) }

func (c *Chamber) Orient(in geom.Direction, terminal bool, ctx ArmContext) (Template, bool) {
	if !c.rules.Allows(in, terminal, c.ExitCount()) {
		return nil, false
	}
	o := *c
	o.item = terminalItem(terminal, ctx)
	return &o, true
}

func (c *Chamber) Shape() Shape {
	return box(c.name, KindChamber, c.w, c.h, c.exits, c.item)
}

// =============================================================================
// Vault
// =============================================================================

// Vault is a dead-end room that holds the arm's reward. It only fills the
// terminal slot of an arm.
type Vault struct {
	rules Rules
	name  string
	w, h  int
	item  string
}

// NewVault returns a w x h vault. rules.Use is forced to [UseTerminal].
func NewVault(name string, w, h int, rules Rules) *Vault {
	rules.Use = UseTerminal
	return &Vault{rules: rules, name: name, w: max(w, 1), h: max(h, 1)}
}

func (v *Vault) Name() string   { return v.name }
func (v *Vault) Kind() string   { return KindVault }
func (v *Vault) ExitCount() int { return 0 }

func (v *Vault) Orient(in geom.Direction, terminal bool, ctx ArmContext) (Template, bool) {
	if !v.rules.Allows(in, terminal, v.ExitCount()) {
		return nil, false
	}
	o := *v
	o.item = terminalItem(terminal, ctx)
	return &o, true
}

func (v *Vault) Shape() Shape {
	return box(v.name, KindVault, v.w, v.h, nil, v.item)
}

// =============================================================================
// Shared geometry
// =============================================================================

func terminalItem(terminal bool, ctx ArmContext) string {
	if terminal && ctx.Branches == 0 {
		return ctx.ItemType
	}
	return ""
}

// box builds a walled room with a w x h floor, entered through a door at the
// origin in its south wall. Each side in exits gets a door in the middle of
// that wall and an exit on the cell beyond it.
func box(name, kind string, w, h int, exits []geom.Direction, item string) Shape {
	left := -(w - 1) / 2
	floor := geom.NewRect(left, -h, w, h)
	room := Room{
		Name:  name,
		Kind:  kind,
		Rect:  floor.Inset(-1),
		Floor: floor,
		Doors: []geom.Point{{X: 0, Y: 0}},
		Item:  item,
	}

	mid := -(h + 1) / 2
	var out []geom.Exit
	for _, side := range exits {
		var door geom.Point
		switch side {
		case geom.North:
			door = geom.Point{X: 0, Y: -h - 1}
		case geom.East:
			door = geom.Point{X: left + w, Y: mid}
		case geom.West:
			door = geom.Point{X: left - 1, Y: mid}
		default:
			continue
		}
		room.Doors = append(room.Doors, door)
		out = append(out, geom.Exit{At: door.Step(side), Dir: side})
	}

	return Shape{
		Rects: []geom.Rect{room.Rect},
		Rooms: []Room{room},
		Exits: out,
	}
}
