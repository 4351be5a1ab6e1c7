package oracle

import (
	"testing"

	"github.com/matzehuels/warren/pkg/builder"
	"github.com/matzehuels/warren/pkg/geom"
)

func TestGridPlacesAtEntry(t *testing.T) {
	corridor := builder.NewCorridor("hall", 3, builder.Rules{})
	entry := geom.Exit{At: geom.Point{X: 5, Y: 5}, Dir: geom.East}

	p, ok := Grid{}.TryPlace(corridor, entry, nil)
	if !ok {
		t.Fatal("placement on an empty grid was refused")
	}

	if want := geom.NewRect(5, 4, 5, 3); p.Rects[0] != want {
		t.Errorf("footprint = %v, want %v", p.Rects[0], want)
	}
	if want := (geom.Exit{At: geom.Point{X: 10, Y: 5}, Dir: geom.East}); p.Exits[0] != want {
		t.Errorf("exit = %v, want %v", p.Exits[0], want)
	}
	if got := p.Rooms[0].Doors[0]; got != entry.At {
		t.Errorf("entry door = %v, want %v", got, entry.At)
	}
	if p.Rooms[0].Rect != p.Rects[0] {
		t.Error("room footprint should match the reserved rect")
	}
}

func TestGridRejectsOverlap(t *testing.T) {
	corridor := builder.NewCorridor("hall", 3, builder.Rules{})
	entry := geom.Exit{At: geom.Point{}, Dir: geom.North}

	tests := []struct {
		name   string
		placed []geom.Rect
		want   bool
	}{
		{"empty", nil, true},
		{"far away", []geom.Rect{geom.NewRect(50, 50, 3, 3)}, true},
		{"adjacent below", []geom.Rect{geom.NewRect(-1, 1, 3, 3)}, true},
		{"overlapping", []geom.Rect{geom.NewRect(0, -2, 1, 1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Grid{}.TryPlace(corridor, entry, tt.placed)
			if ok != tt.want {
				t.Errorf("TryPlace() ok = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestGridBounds(t *testing.T) {
	g := Grid{Bounds: geom.NewRect(-10, -10, 20, 20)}
	vault := builder.NewVault("v", 3, 3, builder.Rules{})

	if _, ok := g.TryPlace(vault, geom.Exit{At: geom.Point{}, Dir: geom.North}, nil); !ok {
		t.Error("placement inside bounds refused")
	}
	if _, ok := g.TryPlace(vault, geom.Exit{At: geom.Point{X: 0, Y: -8}, Dir: geom.North}, nil); ok {
		t.Error("placement crossing bounds accepted")
	}
}

func TestConsecutiveRoomsDoNotOverlap(t *testing.T) {
	templates := []builder.Template{
		builder.NewCorridor("a", 2, builder.Rules{}),
		builder.NewTurn("b", 3, geom.West, builder.Rules{}),
		builder.NewCorridor("c", 4, builder.Rules{}),
		builder.NewTurn("d", 2, geom.East, builder.Rules{}),
	}

	var placed []geom.Rect
	at := geom.Exit{At: geom.Point{}, Dir: geom.South}
	for _, tmpl := range templates {
		p, ok := Grid{}.TryPlace(tmpl, at, placed)
		if !ok {
			t.Fatalf("%s refused at %v", tmpl.Name(), at)
		}
		placed = append(placed, p.Rects...)
		at = p.Exits[0]
	}
}

func TestFuncAdapter(t *testing.T) {
	var called bool
	var o Oracle = Func(func(builder.Template, geom.Exit, []geom.Rect) (*Placement, bool) {
		called = true
		return nil, false
	})
	if _, ok := o.TryPlace(nil, geom.Exit{}, nil); ok || !called {
		t.Error("Func adapter did not delegate")
	}
}
