// Package config loads arrangement configurations from TOML, YAML or JSON.
//
// A configuration names the seed, the start exit, the pools (declared as
// template specs and resolved through a [builder.Registry]) and the arm tree.
// Pools are indexed by their position in the file; arms refer to them by
// index and may swap a pool for a named one in their subtree with overrides.
//
//	seed = "crypt"
//	start = { at = { x = 0, y = 0 }, dir = "north" }
//
//	[[pools]]
//	name = "halls"
//	randomize = true
//	templates = [
//	  { kind = "corridor", name = "short", length = 2 },
//	  { kind = "turn", name = "left", width = 3, side = "left" },
//	]
//
//	[arm]
//	length = [2, 4]
//	end = "item"
//	item_type = "key"
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/warren/pkg/arm"
	"github.com/matzehuels/warren/pkg/builder"
	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/geom"
	"github.com/matzehuels/warren/pkg/oracle"
)

// DefaultSeed is used when a configuration does not name a seed.
const DefaultSeed = "warren"

// Supported configuration formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Configuration is an arrangement request.
type Configuration struct {
	Seed   string             `json:"seed" toml:"seed" yaml:"seed"`
	Start  geom.Exit          `json:"start" toml:"start" yaml:"start"`
	Bounds geom.Rect          `json:"bounds" toml:"bounds" yaml:"bounds"` // Optional oracle bounds
	Pools  []builder.PoolSpec `json:"pools" toml:"pools" yaml:"pools"`
	Arm    arm.Spec           `json:"arm" toml:"arm" yaml:"arm"`
}

// DetectFormat returns the configuration format implied by path's extension.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported config file %q (want .toml, .yaml or .json)", path)
}

// Load reads and parses the configuration at path. The format is chosen by
// file extension. Defaults are applied but the configuration is not validated.
func Load(path string) (*Configuration, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes a configuration in the given format. Unknown keys are
// rejected so typos in hand-written files surface early.
func Parse(data []byte, format string) (*Configuration, error) {
	var c Configuration
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &c)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %v", undecoded)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse yaml")
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q", format)
	}
	c.SetDefaults()
	return &c, nil
}

// SetDefaults fills in the seed and start heading when they are missing.
func (c *Configuration) SetDefaults() {
	if strings.TrimSpace(c.Seed) == "" {
		c.Seed = DefaultSeed
	}
	if !c.Start.Dir.IsValid() {
		c.Start.Dir = geom.North
	}
}

// Validate checks the configuration without arranging it.
func (c *Configuration) Validate(reg *builder.Registry) error {
	_, err := c.Resolve(reg)
	return err
}

// Oracle returns the geometry oracle described by the configuration.
func (c *Configuration) Oracle() oracle.Oracle {
	return oracle.Grid{Bounds: c.Bounds}
}

// Resolve builds every pool with reg and returns a copy of the arm spec with
// pools attached: all pools on the root, and each override on the arm that
// declares it. The configuration itself is not modified. A nil reg uses
// [builder.NewRegistry].
func (c *Configuration) Resolve(reg *builder.Registry) (*arm.Spec, error) {
	if err := errors.ValidateSeed(c.Seed); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = builder.NewRegistry()
	}

	pools := make(map[int]*builder.Pool, len(c.Pools))
	byName := make(map[string]*builder.Pool, len(c.Pools))
	for i, ps := range c.Pools {
		p, err := reg.Pool(ps)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "pools[%d]", i)
		}
		if ps.Name != "" {
			if _, dup := byName[ps.Name]; dup {
				return nil, errors.New(errors.ErrCodeInvalidConfig, "pools[%d]: duplicate pool name %q", i, ps.Name)
			}
			byName[ps.Name] = p
		}
		pools[i] = p
	}

	spec := cloneSpec(&c.Arm)
	if err := attach(spec, "arm", byName, pools, nil); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// attach resolves the overrides of s and checks that every pool index it
// draws from exists in its subtree. inherited lists the indices visible from
// the parent; the root receives base instead.
func attach(s *arm.Spec, path string, byName map[string]*builder.Pool, base map[int]*builder.Pool, inherited []int) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: arm is empty", path)
	}

	visible := slices.Clone(inherited)
	if base != nil {
		s.Pools = make(map[int]*builder.Pool, len(base)+len(s.Overrides))
		for i, p := range base {
			s.Pools[i] = p
			visible = append(visible, i)
		}
	}
	for _, o := range s.Overrides {
		p, ok := byName[o.Pool]
		if !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "%s: override references unknown pool %q", path, o.Pool)
		}
		if o.Index < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s: override index %d is negative", path, o.Index)
		}
		if s.Pools == nil {
			s.Pools = make(map[int]*builder.Pool, len(s.Overrides))
		}
		s.Pools[o.Index] = p
		visible = append(visible, o.Index)
	}

	if s.Length.Max > 0 && !slices.Contains(visible, s.BuilderPool) {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: builder_pool %d is not defined", path, s.BuilderPool)
	}
	if !slices.Contains(visible, s.EndBuilderPool) {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: end_builder_pool %d is not defined", path, s.EndBuilderPool)
	}

	for i, child := range s.Arms {
		if err := attach(child, fmt.Sprintf("%s.arms[%d]", path, i), byName, nil, visible); err != nil {
			return err
		}
	}
	return nil
}

func cloneSpec(s *arm.Spec) *arm.Spec {
	if s == nil {
		return nil
	}
	c := *s
	c.Pools = nil
	c.Overrides = slices.Clone(s.Overrides)
	c.Arms = make([]*arm.Spec, len(s.Arms))
	for i, child := range s.Arms {
		c.Arms[i] = cloneSpec(child)
	}
	if len(c.Arms) == 0 {
		c.Arms = nil
	}
	return &c
}
