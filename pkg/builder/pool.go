package builder

import (
	"maps"
	"slices"

	"github.com/matzehuels/warren/pkg/rng"
)

// Entry is one candidate of a pool.
type Entry struct {
	Template  Template
	Exclusive bool // Removed from the pool after its first committed placement
}

// Pool is a named, ordered list of candidate templates.
//
// Pools are values: once a pool is reachable from a [PoolSet] it is never
// mutated. Clone, Without and Shuffled all return new pools.
type Pool struct {
	Name      string
	Entries   []Entry
	Randomize bool // Shuffle the candidate order once per arrangement
}

// Len returns the number of candidates. A nil pool has none.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Entries)
}

// Clone returns a copy of p with its own entry slice.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	c := *p
	c.Entries = slices.Clone(p.Entries)
	return &c
}

// Without returns a copy of p with the entry at index i removed.
// Out-of-range indices return an unmodified copy.
func (p *Pool) Without(i int) *Pool {
	c := p.Clone()
	if c == nil || i < 0 || i >= len(c.Entries) {
		return c
	}
	c.Entries = slices.Delete(c.Entries, i, i+1)
	return c
}

// Shuffled returns a copy of p with its entries permuted by src.
func (p *Pool) Shuffled(src *rng.Source) *Pool {
	c := p.Clone()
	if c == nil {
		return nil
	}
	c.Entries = rng.Shuffle(src, p.Entries)
	return c
}

// Index returns the position of the entry whose template is named name, or -1.
func (p *Pool) Index(name string) int {
	if p == nil {
		return -1
	}
	return slices.IndexFunc(p.Entries, func(e Entry) bool { return e.Template.Name() == name })
}

// Names returns the template names in candidate order.
func (p *Pool) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		names[i] = e.Template.Name()
	}
	return names
}

// PoolSet is an immutable snapshot of every pool visible at one point of the
// search, keyed by pool index.
//
// Every operation returns a new set and leaves the receiver untouched, so a
// snapshot published into a placement entry stays valid for every sibling
// branch that inherits it. Only pools that actually change are copied.
// The zero value is an empty set.
type PoolSet struct {
	pools map[int]*Pool
}

// NewPoolSet returns a set holding pools. The map is copied; the pools are
// taken over and must not be mutated by the caller afterwards.
func NewPoolSet(pools map[int]*Pool) PoolSet {
	return PoolSet{pools: maps.Clone(pools)}
}

// Get returns the pool at index i.
func (s PoolSet) Get(i int) (*Pool, bool) {
	p, ok := s.pools[i]
	return p, ok
}

// Len returns the number of pools in the set.
func (s PoolSet) Len() int { return len(s.pools) }

// Indices returns the pool indices in ascending order.
func (s PoolSet) Indices() []int {
	return slices.Sorted(maps.Keys(s.pools))
}

// Merge returns a set where every pool in overrides replaces the pool at the
// same index entirely. Overrides are not copied; they must be immutable.
func (s PoolSet) Merge(overrides map[int]*Pool) PoolSet {
	if len(overrides) == 0 {
		return s
	}
	merged := make(map[int]*Pool, len(s.pools)+len(overrides))
	maps.Copy(merged, s.pools)
	maps.Copy(merged, overrides)
	return PoolSet{pools: merged}
}

// Consume returns a set where the entry at entryIdx of pool poolIdx has been
// removed. Only that pool is copied; every other pool is shared with s.
func (s PoolSet) Consume(poolIdx, entryIdx int) PoolSet {
	p, ok := s.pools[poolIdx]
	if !ok {
		return s
	}
	next := maps.Clone(s.pools)
	next[poolIdx] = p.Without(entryIdx)
	return PoolSet{pools: next}
}

// Has reports whether pool poolIdx still offers a template named name.
func (s PoolSet) Has(poolIdx int, name string) bool {
	return s.pools[poolIdx].Index(name) >= 0
}
