package arm

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/warren/pkg/builder"
	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/rng"
)

// End is the terminal behaviour of an arm.
type End int

const (
	// EndItem ends the arm in a dead end holding a reward item.
	EndItem End = iota
	// EndArm ends the arm by forking into child arms, one per exit of the
	// final room.
	EndArm
)

func (e End) String() string {
	if e == EndArm {
		return "arm"
	}
	return "item"
}

// MarshalText implements encoding.TextMarshaler.
func (e End) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *End) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "item":
		*e = EndItem
	case "arm", "arms", "branch":
		*e = EndArm
	default:
		return fmt.Errorf("unknown arm end %q", text)
	}
	return nil
}

// MaxLength bounds the inner rooms of a single arm.
const MaxLength = 1024

// Length is the number of inner rooms of an arm: a fixed count or an
// inclusive range resolved once at normalization. The arm's stack holds one
// more entry than its length, the terminal room.
//
// Configuration files write a fixed length as a number (3) and a range as a
// two element list ([2, 4]).
type Length struct {
	Min int
	Max int
}

// Fixed returns a length of exactly n.
func Fixed(n int) Length { return Length{Min: n, Max: n} }

// Range returns a length between lo and hi inclusive.
func Range(lo, hi int) Length { return Length{Min: lo, Max: hi} }

// IsFixed reports whether the length needs no random draw.
func (l Length) IsFixed() bool { return l.Min == l.Max }

// Resolve draws a concrete length from src. Fixed lengths consume no draw.
func (l Length) Resolve(src *rng.Source) int { return src.Int(l.Min, l.Max) }

func (l Length) String() string {
	if l.IsFixed() {
		return fmt.Sprint(l.Min)
	}
	return fmt.Sprintf("[%d,%d]", l.Min, l.Max)
}

func (l *Length) set(values []int64) error {
	switch len(values) {
	case 1:
		*l = Fixed(int(values[0]))
	case 2:
		*l = Range(int(values[0]), int(values[1]))
	default:
		return fmt.Errorf("length range needs 1 or 2 values, got %d", len(values))
	}
	return nil
}

// MarshalJSON writes fixed lengths as a number and ranges as a pair.
func (l Length) MarshalJSON() ([]byte, error) {
	if l.IsFixed() {
		return json.Marshal(l.Min)
	}
	return json.Marshal([2]int{l.Min, l.Max})
}

// UnmarshalJSON accepts a number or a one or two element array.
func (l *Length) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*l = Fixed(int(n))
		return nil
	}
	var values []int64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("length must be a number or [min, max]: %w", err)
	}
	return l.set(values)
}

// UnmarshalTOML implements toml.Unmarshaler.
func (l *Length) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case int64:
		*l = Fixed(int(v))
		return nil
	case []any:
		values := make([]int64, len(v))
		for i, x := range v {
			n, ok := x.(int64)
			if !ok {
				return fmt.Errorf("length range values must be integers, got %T", x)
			}
			values[i] = n
		}
		return l.set(values)
	}
	return fmt.Errorf("length must be a number or [min, max], got %T", v)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Length) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var n int64
		if err := node.Decode(&n); err != nil {
			return err
		}
		*l = Fixed(int(n))
		return nil
	case yaml.SequenceNode:
		var values []int64
		if err := node.Decode(&values); err != nil {
			return err
		}
		return l.set(values)
	}
	return fmt.Errorf("line %d: length must be a number or [min, max]", node.Line)
}

// Override replaces the pool at Index with a named pool for the subtree of
// the arm that declares it.
type Override struct {
	Index int    `json:"index" toml:"index" yaml:"index"`
	Pool  string `json:"pool" toml:"pool" yaml:"pool"`
}

// Spec is the author-supplied description of an arm and its children.
// Specs are never modified by normalization or arrangement.
type Spec struct {
	Length         Length     `json:"length" toml:"length" yaml:"length"`
	End            End        `json:"end" toml:"end" yaml:"end"`
	ItemType       string     `json:"item_type,omitempty" toml:"item_type" yaml:"item_type,omitempty"`
	Arms           []*Spec    `json:"arms,omitempty" toml:"arms" yaml:"arms,omitempty"`
	BuilderPool    int        `json:"builder_pool" toml:"builder_pool" yaml:"builder_pool"`
	EndBuilderPool int        `json:"end_builder_pool" toml:"end_builder_pool" yaml:"end_builder_pool"`
	Overrides      []Override `json:"overrides,omitempty" toml:"overrides" yaml:"overrides,omitempty"`

	// Pools are merged over the inherited pool snapshot when the arm places
	// its first room. Normally only the root arm carries pools.
	Pools map[int]*builder.Pool `json:"-" toml:"-" yaml:"-"`
}

// Validate checks the spec tree for configuration errors. All errors carry
// [errors.ErrCodeInvalidConfig].
func (s *Spec) Validate() error {
	return s.validate("arm")
}

func (s *Spec) validate(path string) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: arm is empty", path)
	}
	if s.Length.Min < 0 || s.Length.Max < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: length %s is negative", path, s.Length)
	}
	if s.Length.Min > s.Length.Max {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: length %s has min > max", path, s.Length)
	}
	if s.Length.Max > MaxLength {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: length %s exceeds %d", path, s.Length, MaxLength)
	}
	if s.BuilderPool < 0 || s.EndBuilderPool < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s: pool indices must not be negative", path)
	}
	switch s.End {
	case EndArm:
		if len(s.Arms) == 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s: end=arm needs at least one child arm", path)
		}
	case EndItem:
		if len(s.Arms) > 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s: end=item must not have child arms", path)
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown end %d", path, int(s.End))
	}
	for i, p := range s.Pools {
		if p == nil {
			return errors.New(errors.ErrCodeInvalidConfig, "%s: pool %d is nil", path, i)
		}
	}
	for i, child := range s.Arms {
		if err := child.validate(fmt.Sprintf("%s.arms[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of arms in the tree rooted at s.
func (s *Spec) Count() int {
	if s == nil {
		return 0
	}
	n := 1
	for _, child := range s.Arms {
		n += child.Count()
	}
	return n
}
