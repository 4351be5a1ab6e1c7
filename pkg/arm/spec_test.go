package arm

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/warren/pkg/builder"
	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/rng"
)

func TestSpecValidate(t *testing.T) {
	item := func() *Spec { return &Spec{Length: Fixed(1), End: EndItem} }

	tests := []struct {
		name    string
		spec    *Spec
		wantErr bool
	}{
		{"item arm", item(), false},
		{"zero length", &Spec{Length: Fixed(0)}, false},
		{"range", &Spec{Length: Range(1, 4)}, false},
		{"branching", &Spec{Length: Fixed(2), End: EndArm, Arms: []*Spec{item(), item()}}, false},
		{"nil", nil, true},
		{"negative length", &Spec{Length: Fixed(-1)}, true},
		{"min above max", &Spec{Length: Range(5, 2)}, true},
		{"longest allowed", &Spec{Length: Fixed(MaxLength)}, false},
		{"too long", &Spec{Length: Fixed(MaxLength + 1)}, true},
		{"unbounded range", &Spec{Length: Range(0, math.MaxInt)}, true},
		{"negative pool", &Spec{Length: Fixed(1), BuilderPool: -1}, true},
		{"arm without arms", &Spec{Length: Fixed(1), End: EndArm}, true},
		{"item with arms", &Spec{Length: Fixed(1), End: EndItem, Arms: []*Spec{item()}}, true},
		{"unknown end", &Spec{Length: Fixed(1), End: End(7)}, true},
		{"nil pool", &Spec{Length: Fixed(1), Pools: map[int]*builder.Pool{0: nil}}, true},
		{"bad child", &Spec{Length: Fixed(1), End: EndArm, Arms: []*Spec{{Length: Range(3, 1)}}}, true},
		{"nil child", &Spec{Length: Fixed(1), End: EndArm, Arms: []*Spec{nil}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Validate() code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestNormalizeRejectsUnboundedLength(t *testing.T) {
	spec := &Spec{Length: Range(0, math.MaxInt), End: EndItem}
	tree, err := Normalize(spec, rng.New("x"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Fatalf("Normalize() = %v, %v; want INVALID_CONFIG", tree, err)
	}
}

func TestLengthJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    Length
		wantErr bool
	}{
		{`3`, Fixed(3), false},
		{`[2, 4]`, Range(2, 4), false},
		{`[5]`, Fixed(5), false},
		{`[1, 2, 3]`, Length{}, true},
		{`"three"`, Length{}, true},
	}

	for _, tt := range tests {
		var l Length
		err := json.Unmarshal([]byte(tt.in), &l)
		if (err != nil) != tt.wantErr {
			t.Errorf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && l != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, l, tt.want)
		}
	}

	out, err := json.Marshal(struct{ A, B Length }{Fixed(2), Range(1, 3)})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(out), `{"A":2,"B":[1,3]}`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestSpecTOML(t *testing.T) {
	const doc = `
length = [1, 3]
end = "arm"
builder_pool = 0
end_builder_pool = 1

[[arms]]
length = 2
end = "item"
item_type = "key"

[[arms]]
length = 0
item_type = "gold"
overrides = [{ index = 1, pool = "treasure" }]
`
	var s Spec
	if _, err := toml.Decode(doc, &s); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Length != Range(1, 3) || s.End != EndArm || s.EndBuilderPool != 1 {
		t.Errorf("root = %+v", s)
	}
	if len(s.Arms) != 2 || s.Arms[0].Length != Fixed(2) || s.Arms[0].ItemType != "key" {
		t.Fatalf("arms = %+v", s.Arms)
	}
	if got := s.Arms[1].Overrides; len(got) != 1 || got[0] != (Override{Index: 1, Pool: "treasure"}) {
		t.Errorf("overrides = %+v", got)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestSpecYAML(t *testing.T) {
	const doc = `
length: 2
end: arm
arms:
  - length: [0, 1]
    item_type: key
  - length: 1
    end: item
`
	var s Spec
	if err := yaml.Unmarshal([]byte(doc), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s.Length != Fixed(2) || s.End != EndArm || len(s.Arms) != 2 {
		t.Fatalf("root = %+v", s)
	}
	if s.Arms[0].Length != Range(0, 1) {
		t.Errorf("arms[0].length = %v", s.Arms[0].Length)
	}
	if s.Count() != 3 {
		t.Errorf("Count() = %d, want 3", s.Count())
	}
}

func TestEndText(t *testing.T) {
	var e End
	if err := e.UnmarshalText([]byte("Branch")); err != nil || e != EndArm {
		t.Errorf("UnmarshalText(Branch) = %v, %v", e, err)
	}
	if err := e.UnmarshalText([]byte("portal")); err == nil {
		t.Error("unknown end accepted")
	}
}
