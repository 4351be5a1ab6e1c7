// Package layout turns an arrangement result into a trimmed, serializable
// dungeon layout.
//
// Arrangement works in unbounded world coordinates around the start exit.
// [Build] computes the bounding box of every placed rectangle, translates the
// whole arrangement so the box starts at a small margin from the origin and
// flattens the arm tree into plain records that renderers, caches and stores
// can handle without knowing about templates or pools.
//
// A layout built from a partial result keeps Complete set to false. Callers
// must not present such a layout as a finished dungeon.
package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/warren/pkg/arm"
	"github.com/matzehuels/warren/pkg/arrange"
	"github.com/matzehuels/warren/pkg/geom"
)

// DefaultMargin is the number of empty cells kept around the layout.
const DefaultMargin = 1

// Layout is a trimmed arrangement in layout coordinates: (0,0) is the top-left
// corner and every rectangle lies inside Width x Height.
type Layout struct {
	ID       string     `json:"id,omitempty" bson:"_id,omitempty"`
	Seed     string     `json:"seed" bson:"seed"`
	Complete bool       `json:"complete" bson:"complete"`
	Width    int        `json:"width" bson:"width"`
	Height   int        `json:"height" bson:"height"`
	Margin   int        `json:"margin" bson:"margin"`
	Offset   geom.Point `json:"offset" bson:"offset"` // Added to world coordinates
	Start    geom.Exit  `json:"start" bson:"start"`
	Rooms    []Room     `json:"rooms" bson:"rooms"`
	Exits    []Exit     `json:"exits,omitempty" bson:"exits,omitempty"`
	Items    []Item     `json:"items,omitempty" bson:"items,omitempty"`
	Arms     []Arm      `json:"arms" bson:"arms"`
	Stats    Stats      `json:"stats" bson:"stats"`
}

// Room is one placed room.
type Room struct {
	Node     int          `json:"node" bson:"node"`
	Step     int          `json:"step" bson:"step"`
	Terminal bool         `json:"terminal,omitempty" bson:"terminal,omitempty"`
	Template string       `json:"template" bson:"template"`
	Name     string       `json:"name" bson:"name"`
	Kind     string       `json:"kind" bson:"kind"`
	Rect     geom.Rect    `json:"rect" bson:"rect"`
	Floor    geom.Rect    `json:"floor" bson:"floor"`
	Doors    []geom.Point `json:"doors,omitempty" bson:"doors,omitempty"`
	Item     string       `json:"item,omitempty" bson:"item,omitempty"`
}

// Exit is an outgoing connection of a placed room. Open exits lead nowhere:
// nothing was placed beyond them, which only happens in partial layouts.
type Exit struct {
	Node int       `json:"node" bson:"node"`
	Step int       `json:"step" bson:"step"`
	Exit geom.Exit `json:"exit" bson:"exit"`
	Open bool      `json:"open,omitempty" bson:"open,omitempty"`
}

// Item is a reward placed at the end of an item arm.
type Item struct {
	Node int        `json:"node" bson:"node"`
	Type string     `json:"type" bson:"type"`
	At   geom.Point `json:"at" bson:"at"`
}

// Arm is the outline of one arm of the tree.
type Arm struct {
	ID          int    `json:"id" bson:"id"`
	Parent      int    `json:"parent" bson:"parent"`
	ParentIndex int    `json:"parent_index" bson:"parent_index"`
	Depth       int    `json:"depth" bson:"depth"`
	Length      int    `json:"length" bson:"length"`
	End         string `json:"end" bson:"end"`
	ItemType    string `json:"item_type,omitempty" bson:"item_type,omitempty"`
	Placed      int    `json:"placed" bson:"placed"`
	Filled      bool   `json:"filled" bson:"filled"`
	Children    []int  `json:"children,omitempty" bson:"children,omitempty"`
}

// Stats mirrors the search statistics of the arrangement.
type Stats struct {
	Attempts   int `json:"attempts" bson:"attempts"`
	Rejections int `json:"rejections" bson:"rejections"`
	Backtracks int `json:"backtracks" bson:"backtracks"`
	MaxDepth   int `json:"max_depth" bson:"max_depth"`
	Placed     int `json:"placed" bson:"placed"`
}

// Option configures [Build].
type Option func(*options)

type options struct {
	margin int
}

// WithMargin sets the number of empty cells around the layout. Negative
// values are treated as zero.
func WithMargin(n int) Option {
	return func(b *options) { b.margin = max(n, 0) }
}

// Build trims res into a layout. Complete and Seed are copied from res, so a
// partial result yields a partial layout.
func Build(res *arrange.Result, opts ...Option) *Layout {
	b := options{margin: DefaultMargin}
	for _, opt := range opts {
		opt(&b)
	}

	l := &Layout{
		Margin: b.margin,
		Rooms:  []Room{},
		Arms:   []Arm{},
	}
	if res == nil {
		l.Width, l.Height = 2*b.margin, 2*b.margin
		return l
	}
	l.Seed = res.Seed
	l.Complete = res.Complete
	l.Stats = Stats(res.Stats)

	bounds := geom.Bounds(res.Rects())
	if bounds.Empty() {
		bounds = geom.Rect{X: res.Start.At.X, Y: res.Start.At.Y}
	}
	l.Offset = geom.Point{X: b.margin - bounds.X, Y: b.margin - bounds.Y}
	l.Width = bounds.W + 2*b.margin
	l.Height = bounds.H + 2*b.margin
	l.Start = geom.Exit{At: res.Start.At.Add(l.Offset), Dir: res.Start.Dir}

	res.Root.Walk(func(a *arm.Arm) {
		l.addArm(a)
	})
	return l
}

// Bounds returns the layout rectangle.
func (l *Layout) Bounds() geom.Rect {
	return geom.Rect{W: l.Width, H: l.Height}
}

// Arm returns the outline of the arm with the given ID.
func (l *Layout) Arm(id int) (Arm, bool) {
	for _, a := range l.Arms {
		if a.ID == id {
			return a, true
		}
	}
	return Arm{}, false
}

func (l *Layout) addArm(a *arm.Arm) {
	n := a.Node
	outline := Arm{
		ID:          n.ID,
		Parent:      n.Parent,
		ParentIndex: n.ParentIndex,
		Depth:       n.Depth,
		Length:      n.Length,
		End:         n.End.String(),
		ItemType:    n.ItemType,
		Placed:      len(a.Stack),
		Filled:      a.Filled,
		Children:    n.Children,
	}
	l.Arms = append(l.Arms, outline)

	for i, e := range a.Stack {
		for _, r := range e.Rooms {
			room := Room{
				Node:     e.Node,
				Step:     e.Step,
				Terminal: e.Terminal,
				Template: e.Template.Name(),
				Name:     r.Name,
				Kind:     r.Kind,
				Rect:     r.Rect.Translate(l.Offset),
				Floor:    r.Floor.Translate(l.Offset),
				Item:     r.Item,
			}
			for _, d := range r.Doors {
				room.Doors = append(room.Doors, d.Add(l.Offset))
			}
			l.Rooms = append(l.Rooms, room)

			if r.Item != "" {
				l.Items = append(l.Items, Item{Node: e.Node, Type: r.Item, At: center(room.Floor)})
			}
		}

		for j, x := range e.Exits {
			l.Exits = append(l.Exits, Exit{
				Node: e.Node,
				Step: e.Step,
				Exit: geom.Exit{At: x.At.Add(l.Offset), Dir: x.Dir},
				Open: !continues(a, i, j),
			})
		}
	}
}

// continues reports whether something was placed beyond exit j of the i-th
// entry of a.
func continues(a *arm.Arm, i, j int) bool {
	if !a.Stack[i].Terminal {
		return i+1 < len(a.Stack)
	}
	return j < len(a.Arms) && len(a.Arms[j].Stack) > 0
}

func center(r geom.Rect) geom.Point {
	return geom.Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Marshal encodes l as indented JSON.
func Marshal(l *Layout) ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a layout produced by [Marshal].
func Unmarshal(data []byte) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return &l, nil
}

// Write encodes l as JSON to w.
func Write(l *Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return nil
}

// WriteFile writes l as JSON to path.
func WriteFile(l *Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(l, f)
}

// ReadFile reads a layout JSON file.
func ReadFile(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
