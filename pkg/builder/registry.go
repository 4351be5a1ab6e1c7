package builder

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/warren/pkg/geom"
)

var (
	// ErrUnknownKind is returned by [Registry.Build] when no factory is
	// registered for the template kind.
	ErrUnknownKind = errors.New("unknown template kind")

	// ErrDuplicateTemplate is returned by [Registry.Pool] when two templates
	// in one pool share a name.
	ErrDuplicateTemplate = errors.New("duplicate template name")

	// ErrInvalidTemplate is returned when a template declaration is malformed.
	ErrInvalidTemplate = errors.New("invalid template")
)

// TemplateSpec is the declarative form of a template, as found in
// configuration files.
type TemplateSpec struct {
	Kind      string           `json:"kind" toml:"kind" yaml:"kind"`
	Name      string           `json:"name" toml:"name" yaml:"name"`
	Width     int              `json:"width,omitempty" toml:"width" yaml:"width,omitempty"`
	Height    int              `json:"height,omitempty" toml:"height" yaml:"height,omitempty"`
	Length    int              `json:"length,omitempty" toml:"length" yaml:"length,omitempty"`
	Side      string           `json:"side,omitempty" toml:"side" yaml:"side,omitempty"` // "left" or "right" for turns
	Exits     []geom.Direction `json:"exits,omitempty" toml:"exits" yaml:"exits,omitempty"`
	Headings  []geom.Direction `json:"headings,omitempty" toml:"headings" yaml:"headings,omitempty"`
	Use       string           `json:"use,omitempty" toml:"use" yaml:"use,omitempty"`
	Exclusive bool             `json:"exclusive,omitempty" toml:"exclusive" yaml:"exclusive,omitempty"`
}

// PoolSpec is the declarative form of a [Pool].
type PoolSpec struct {
	Name      string         `json:"name" toml:"name" yaml:"name"`
	Randomize bool           `json:"randomize,omitempty" toml:"randomize" yaml:"randomize,omitempty"`
	Templates []TemplateSpec `json:"templates" toml:"templates" yaml:"templates"`
}

// Factory builds a template from its declaration. The rules have already been
// parsed from the spec's Headings and Use fields.
type Factory func(spec TemplateSpec, rules Rules) (Template, error)

// Registry maps template kinds to factories.
// The zero value is not usable - use NewRegistry.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in corridor, turn, chamber and
// vault kinds registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(KindCorridor, func(s TemplateSpec, rules Rules) (Template, error) {
		return NewCorridor(s.Name, s.Length, rules), nil
	})
	r.Register(KindTurn, func(s TemplateSpec, rules Rules) (Template, error) {
		side, err := parseSide(s.Side)
		if err != nil {
			return nil, err
		}
		return NewTurn(s.Name, max(s.Width, s.Height), side, rules), nil
	})
	r.Register(KindChamber, func(s TemplateSpec, rules Rules) (Template, error) {
		c := NewChamber(s.Name, s.Width, s.Height, s.Exits, rules)
		if c.ExitCount() == 0 {
			return nil, fmt.Errorf("%w: chamber %q needs at least one exit", ErrInvalidTemplate, s.Name)
		}
		return c, nil
	})
	r.Register(KindVault, func(s TemplateSpec, rules Rules) (Template, error) {
		return NewVault(s.Name, s.Width, s.Height, rules), nil
	})
	return r
}

// Register adds or replaces the factory for kind. Kinds are case-insensitive.
func (r *Registry) Register(kind string, f Factory) {
	r.factories[strings.ToLower(kind)] = f
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	return slices.Sorted(maps.Keys(r.factories))
}

// Build constructs a template from its declaration.
func (r *Registry) Build(spec TemplateSpec) (Template, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("%w: template name must not be empty", ErrInvalidTemplate)
	}
	f, ok := r.factories[strings.ToLower(spec.Kind)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (template %q)", ErrUnknownKind, spec.Kind, spec.Name)
	}
	use, err := ParseUse(spec.Use)
	if err != nil {
		return nil, fmt.Errorf("%w: template %q: %v", ErrInvalidTemplate, spec.Name, err)
	}
	t, err := f(spec, Rules{Headings: spec.Headings, Use: use})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Pool builds every template of spec into a pool, preserving order.
func (r *Registry) Pool(spec PoolSpec) (*Pool, error) {
	p := &Pool{Name: spec.Name, Randomize: spec.Randomize}
	seen := make(map[string]bool, len(spec.Templates))
	for _, ts := range spec.Templates {
		if seen[ts.Name] {
			return nil, fmt.Errorf("%w: %q in pool %q", ErrDuplicateTemplate, ts.Name, spec.Name)
		}
		seen[ts.Name] = true

		t, err := r.Build(ts)
		if err != nil {
			return nil, fmt.Errorf("pool %q: %w", spec.Name, err)
		}
		p.Entries = append(p.Entries, Entry{Template: t, Exclusive: ts.Exclusive})
	}
	return p, nil
}

func parseSide(s string) (geom.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "right", "r", "east":
		return geom.East, nil
	case "left", "l", "west":
		return geom.West, nil
	}
	return geom.East, fmt.Errorf("%w: unknown turn side %q", ErrInvalidTemplate, s)
}
