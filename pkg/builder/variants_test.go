package builder

import (
	"errors"
	"testing"

	"github.com/matzehuels/warren/pkg/geom"
)

func TestRulesAllows(t *testing.T) {
	tests := []struct {
		name     string
		rules    Rules
		in       geom.Direction
		terminal bool
		exits    int
		want     bool
	}{
		{"open inner", Rules{}, geom.North, false, 1, true},
		{"open terminal", Rules{}, geom.West, true, 3, true},
		{"heading allowed", Rules{Headings: []geom.Direction{geom.East}}, geom.East, false, 1, true},
		{"heading refused", Rules{Headings: []geom.Direction{geom.East}}, geom.South, false, 1, false},
		{"inner only at end", Rules{Use: UseInner}, geom.North, true, 1, false},
		{"terminal only inside", Rules{Use: UseTerminal}, geom.North, false, 1, false},
		{"fork inside arm", Rules{}, geom.North, false, 2, false},
		{"dead end inside arm", Rules{}, geom.North, false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rules.Allows(tt.in, tt.terminal, tt.exits); got != tt.want {
				t.Errorf("Allows() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrientReturnsCopy(t *testing.T) {
	c := NewCorridor("hall", 3, Rules{})

	o, ok := c.Orient(geom.North, true, ArmContext{ItemType: "sword"})
	if !ok {
		t.Fatal("Orient refused")
	}
	if o == Template(c) {
		t.Fatal("Orient must return a copy")
	}
	if got := o.Shape().Rooms[0].Item; got != "sword" {
		t.Errorf("oriented item = %q, want sword", got)
	}
	if got := c.Shape().Rooms[0].Item; got != "" {
		t.Errorf("pool template was mutated: item = %q", got)
	}
}

func TestOrientNoItemWhenBranching(t *testing.T) {
	c := NewChamber("fork", 3, 3, []geom.Direction{geom.West, geom.East}, Rules{})
	o, ok := c.Orient(geom.North, true, ArmContext{Branches: 2, ItemType: "gold"})
	if !ok {
		t.Fatal("Orient refused")
	}
	if got := o.Shape().Rooms[0].Item; got != "" {
		t.Errorf("branching room got item %q", got)
	}
}

func TestVaultIsTerminalOnly(t *testing.T) {
	v := NewVault("vault", 2, 2, Rules{Use: UseInner})
	if _, ok := v.Orient(geom.North, false, ArmContext{}); ok {
		t.Error("vault accepted an inner slot")
	}
	if _, ok := v.Orient(geom.North, true, ArmContext{}); !ok {
		t.Error("vault refused a terminal slot")
	}
	if v.ExitCount() != 0 || len(v.Shape().Exits) != 0 {
		t.Error("vault should have no exits")
	}
}

func TestShapes(t *testing.T) {
	tests := []struct {
		name      string
		tmpl      Template
		wantExits []geom.Exit
		wantRect  geom.Rect
	}{
		{
			name:      "corridor",
			tmpl:      NewCorridor("c", 3, Rules{}),
			wantExits: []geom.Exit{{At: geom.Point{X: 0, Y: -5}, Dir: geom.North}},
			wantRect:  geom.NewRect(-1, -4, 3, 5),
		},
		{
			name:      "right turn",
			tmpl:      NewTurn("t", 3, geom.East, Rules{}),
			wantExits: []geom.Exit{{At: geom.Point{X: 3, Y: -2}, Dir: geom.East}},
			wantRect:  geom.NewRect(-2, -4, 5, 5),
		},
		{
			name:      "left turn",
			tmpl:      NewTurn("t", 3, geom.West, Rules{}),
			wantExits: []geom.Exit{{At: geom.Point{X: -3, Y: -2}, Dir: geom.West}},
			wantRect:  geom.NewRect(-2, -4, 5, 5),
		},
		{
			name: "chamber",
			tmpl: NewChamber("ch", 3, 2, []geom.Direction{geom.West, geom.North, geom.South, geom.West}, Rules{}),
			wantExits: []geom.Exit{
				{At: geom.Point{X: -3, Y: -1}, Dir: geom.West},
				{At: geom.Point{X: 0, Y: -4}, Dir: geom.North},
			},
			wantRect: geom.NewRect(-2, -3, 5, 4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.tmpl.Shape()
			if tt.tmpl.ExitCount() != len(tt.wantExits) {
				t.Errorf("ExitCount() = %d, want %d", tt.tmpl.ExitCount(), len(tt.wantExits))
			}
			if len(s.Exits) != len(tt.wantExits) {
				t.Fatalf("exits = %v, want %v", s.Exits, tt.wantExits)
			}
			for i := range s.Exits {
				if s.Exits[i] != tt.wantExits[i] {
					t.Errorf("exit %d = %v, want %v", i, s.Exits[i], tt.wantExits[i])
				}
			}
			if s.Rects[0] != tt.wantRect {
				t.Errorf("footprint = %v, want %v", s.Rects[0], tt.wantRect)
			}
			if !s.Rects[0].Contains(geom.Point{}) {
				t.Error("footprint must contain the entry door")
			}
			for _, e := range s.Exits {
				if s.Rects[0].Contains(e.At) {
					t.Errorf("exit %v lies inside the footprint", e)
				}
			}
			room := s.Rooms[0]
			if len(room.Doors) != 1+len(s.Exits) {
				t.Errorf("doors = %v, want entry plus one per exit", room.Doors)
			}
		})
	}
}

func TestRegistryBuild(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name     string
		spec     TemplateSpec
		wantKind string
		wantErr  error
	}{
		{"corridor", TemplateSpec{Kind: "corridor", Name: "c", Length: 4}, KindCorridor, nil},
		{"turn", TemplateSpec{Kind: "Turn", Name: "t", Width: 3, Side: "left"}, KindTurn, nil},
		{"chamber", TemplateSpec{Kind: "chamber", Name: "f", Width: 3, Height: 3, Exits: []geom.Direction{geom.East, geom.West}}, KindChamber, nil},
		{"vault", TemplateSpec{Kind: "vault", Name: "v", Width: 2, Height: 2}, KindVault, nil},
		{"unknown kind", TemplateSpec{Kind: "spiral", Name: "s"}, "", ErrUnknownKind},
		{"no name", TemplateSpec{Kind: "corridor"}, "", ErrInvalidTemplate},
		{"bad side", TemplateSpec{Kind: "turn", Name: "t", Side: "up"}, "", ErrInvalidTemplate},
		{"bad use", TemplateSpec{Kind: "corridor", Name: "c", Use: "sometimes"}, "", ErrInvalidTemplate},
		{"chamber without exits", TemplateSpec{Kind: "chamber", Name: "f"}, "", ErrInvalidTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := r.Build(tt.spec)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Build() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if tmpl.Kind() != tt.wantKind {
				t.Errorf("Kind() = %q, want %q", tmpl.Kind(), tt.wantKind)
			}
			if tmpl.Name() != tt.spec.Name {
				t.Errorf("Name() = %q, want %q", tmpl.Name(), tt.spec.Name)
			}
		})
	}
}

func TestRegistryPool(t *testing.T) {
	r := NewRegistry()

	p, err := r.Pool(PoolSpec{
		Name:      "rooms",
		Randomize: true,
		Templates: []TemplateSpec{
			{Kind: "corridor", Name: "a", Length: 2},
			{Kind: "vault", Name: "b", Exclusive: true},
		},
	})
	if err != nil {
		t.Fatalf("Pool() error = %v", err)
	}
	if !p.Randomize || p.Len() != 2 || p.Entries[0].Exclusive || !p.Entries[1].Exclusive {
		t.Errorf("unexpected pool %+v", p)
	}

	_, err = r.Pool(PoolSpec{Name: "dup", Templates: []TemplateSpec{
		{Kind: "corridor", Name: "a"},
		{Kind: "corridor", Name: "a"},
	}})
	if !errors.Is(err, ErrDuplicateTemplate) {
		t.Errorf("duplicate names error = %v, want %v", err, ErrDuplicateTemplate)
	}
}

func TestRegistryCustomKind(t *testing.T) {
	r := NewRegistry()
	r.Register("Hall", func(s TemplateSpec, rules Rules) (Template, error) {
		return NewCorridor(s.Name, 10, rules), nil
	})
	if _, err := r.Build(TemplateSpec{Kind: "hall", Name: "long"}); err != nil {
		t.Fatalf("custom kind: %v", err)
	}
	kinds := r.Kinds()
	if len(kinds) != 5 || kinds[0] != "chamber" {
		t.Errorf("Kinds() = %v", kinds)
	}
}
