package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/warren/pkg/arm"
	"github.com/matzehuels/warren/pkg/builder"
	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/geom"
)

const tomlConfig = `
seed = "crypt"
start = { at = { x = 2, y = 3 }, dir = "east" }

[[pools]]
name = "halls"
randomize = true
templates = [
  { kind = "corridor", name = "short", length = 2 },
  { kind = "turn", name = "left", width = 3, side = "left", exclusive = true },
]

[[pools]]
name = "ends"
templates = [{ kind = "vault", name = "safe", width = 3, height = 3 }]

[[pools]]
name = "wide"
templates = [{ kind = "corridor", name = "long", length = 5 }]

[arm]
length = [2, 4]
end = "arm"
end_builder_pool = 1

[[arm.arms]]
length = 1
end = "item"
item_type = "key"
end_builder_pool = 1
overrides = [{ index = 0, pool = "wide" }]
`

const yamlConfig = `
seed: crypt
start:
  at: {x: 2, y: 3}
  dir: east
pools:
  - name: halls
    randomize: true
    templates:
      - {kind: corridor, name: short, length: 2}
      - {kind: turn, name: left, width: 3, side: left, exclusive: true}
  - name: ends
    templates:
      - {kind: vault, name: safe, width: 3, height: 3}
  - name: wide
    templates:
      - {kind: corridor, name: long, length: 5}
arm:
  length: [2, 4]
  end: arm
  end_builder_pool: 1
  arms:
    - length: 1
      end: item
      item_type: key
      end_builder_pool: 1
      overrides:
        - {index: 0, pool: wide}
`

const jsonConfig = `{
  "seed": "crypt",
  "start": {"at": {"x": 2, "y": 3}, "dir": "east"},
  "pools": [
    {"name": "halls", "randomize": true, "templates": [
      {"kind": "corridor", "name": "short", "length": 2},
      {"kind": "turn", "name": "left", "width": 3, "side": "left", "exclusive": true}
    ]},
    {"name": "ends", "templates": [{"kind": "vault", "name": "safe", "width": 3, "height": 3}]},
    {"name": "wide", "templates": [{"kind": "corridor", "name": "long", "length": 5}]}
  ],
  "arm": {
    "length": [2, 4],
    "end": "arm",
    "end_builder_pool": 1,
    "arms": [
      {"length": 1, "end": "item", "item_type": "key", "end_builder_pool": 1,
       "overrides": [{"index": 0, "pool": "wide"}]}
    ]
  }
}`

func wantConfig() *Configuration {
	return &Configuration{
		Seed:  "crypt",
		Start: geom.Exit{At: geom.Point{X: 2, Y: 3}, Dir: geom.East},
		Pools: []builder.PoolSpec{
			{Name: "halls", Randomize: true, Templates: []builder.TemplateSpec{
				{Kind: "corridor", Name: "short", Length: 2},
				{Kind: "turn", Name: "left", Width: 3, Side: "left", Exclusive: true},
			}},
			{Name: "ends", Templates: []builder.TemplateSpec{
				{Kind: "vault", Name: "safe", Width: 3, Height: 3},
			}},
			{Name: "wide", Templates: []builder.TemplateSpec{
				{Kind: "corridor", Name: "long", Length: 5},
			}},
		},
		Arm: arm.Spec{
			Length:         arm.Range(2, 4),
			End:            arm.EndArm,
			EndBuilderPool: 1,
			Arms: []*arm.Spec{{
				Length:         arm.Fixed(1),
				End:            arm.EndItem,
				ItemType:       "key",
				EndBuilderPool: 1,
				Overrides:      []arm.Override{{Index: 0, Pool: "wide"}},
			}},
		},
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		format string
		data   string
	}{
		{FormatTOML, tomlConfig},
		{FormatYAML, yamlConfig},
		{FormatJSON, jsonConfig},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if diff := cmp.Diff(wantConfig(), got); diff != "" {
				t.Errorf("Parse mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		format string
		data   string
	}{
		{FormatTOML, "seed = \"x\"\nsede = \"typo\"\n"},
		{FormatYAML, "seed: x\nsede: typo\n"},
		{FormatJSON, `{"seed": "x", "sede": "typo"}`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Parse() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte(`{"arm": {"length": 1}}`), FormatJSON)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Seed != DefaultSeed {
		t.Errorf("Seed = %q, want %q", c.Seed, DefaultSeed)
	}
	if c.Start.Dir != geom.North {
		t.Errorf("Start.Dir = %v, want north", c.Start.Dir)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"dungeon.toml", FormatTOML, false},
		{"dungeon.yaml", FormatYAML, false},
		{"DUNGEON.YML", FormatYAML, false},
		{"a/b/dungeon.json", FormatJSON, false},
		{"dungeon.ini", "", true},
		{"dungeon", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dungeon.toml")
	if err := os.WriteFile(path, []byte(tomlConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Seed != "crypt" {
		t.Errorf("Seed = %q, want crypt", c.Seed)
	}

	_, err = Load(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestResolve(t *testing.T) {
	c := wantConfig()
	spec, err := c.Resolve(nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got := len(spec.Pools); got != 3 {
		t.Fatalf("root pools = %d, want 3", got)
	}
	if got := spec.Pools[0].Names(); !cmp.Equal(got, []string{"short", "left"}) {
		t.Errorf("pool 0 = %v", got)
	}
	if !spec.Pools[0].Randomize {
		t.Error("pool 0 lost Randomize")
	}
	if !spec.Pools[0].Entries[1].Exclusive {
		t.Error("left should be exclusive")
	}

	child := spec.Arms[0]
	if got := child.Pools[0].Names(); !cmp.Equal(got, []string{"long"}) {
		t.Errorf("child override pool = %v, want [long]", got)
	}
	if len(child.Pools) != 1 {
		t.Errorf("child pools = %d, want only the override", len(child.Pools))
	}

	if c.Arm.Pools != nil || c.Arm.Arms[0].Pools != nil {
		t.Error("Resolve modified the configuration")
	}
	if spec.Arms[0] == c.Arm.Arms[0] {
		t.Error("Resolve shares arm specs with the configuration")
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
		code   errors.Code
	}{
		{"empty seed", func(c *Configuration) { c.Seed = "" }, errors.ErrCodeInvalidSeed},
		{"unknown kind", func(c *Configuration) { c.Pools[0].Templates[0].Kind = "spiral" }, errors.ErrCodeInvalidConfig},
		{"duplicate template", func(c *Configuration) { c.Pools[0].Templates[1].Name = "short" }, errors.ErrCodeInvalidConfig},
		{"duplicate pool name", func(c *Configuration) { c.Pools[2].Name = "halls" }, errors.ErrCodeInvalidConfig},
		{"unknown builder pool", func(c *Configuration) { c.Arm.BuilderPool = 7 }, errors.ErrCodeInvalidConfig},
		{"unknown end pool", func(c *Configuration) { c.Arm.Arms[0].EndBuilderPool = 9 }, errors.ErrCodeInvalidConfig},
		{"unknown override pool", func(c *Configuration) { c.Arm.Arms[0].Overrides[0].Pool = "nope" }, errors.ErrCodeInvalidConfig},
		{"negative override", func(c *Configuration) { c.Arm.Arms[0].Overrides[0].Index = -1 }, errors.ErrCodeInvalidConfig},
		{"nil child", func(c *Configuration) { c.Arm.Arms[0] = nil }, errors.ErrCodeInvalidConfig},
		{"bad length", func(c *Configuration) { c.Arm.Length = arm.Range(4, 2) }, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := wantConfig()
			tt.mutate(c)
			err := c.Validate(nil)
			if !errors.Is(err, tt.code) {
				t.Errorf("Validate() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestResolveOverrideDefinesIndex(t *testing.T) {
	c := wantConfig()
	// Index 5 only exists below the override.
	c.Arm.Arms[0].Overrides = append(c.Arm.Arms[0].Overrides, arm.Override{Index: 5, Pool: "ends"})
	c.Arm.Arms[0].EndBuilderPool = 5
	if err := c.Validate(nil); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	c.Arm.EndBuilderPool = 5
	if err := c.Validate(nil); err == nil {
		t.Error("root may not use an index defined only by a child override")
	}
}

func TestExamples(t *testing.T) {
	want := map[string]int{"crypt.toml": 3, "catacombs.yaml": 6}

	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "*"))
	if err != nil || len(paths) == 0 {
		t.Fatalf("no examples found: %v", err)
	}
	for _, path := range paths {
		name := filepath.Base(path)
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			spec, err := cfg.Resolve(nil)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if n, ok := want[name]; ok && spec.Count() != n {
				t.Errorf("arms = %d, want %d", spec.Count(), n)
			}
		})
	}
}
