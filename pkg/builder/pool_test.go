package builder

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/warren/pkg/rng"
)

func testPool(name string, exclusive bool, templates ...string) *Pool {
	p := &Pool{Name: name}
	for _, t := range templates {
		p.Entries = append(p.Entries, Entry{Template: NewCorridor(t, 1, Rules{}), Exclusive: exclusive})
	}
	return p
}

func TestPoolWithoutDoesNotMutate(t *testing.T) {
	p := testPool("rooms", true, "a", "b", "c")

	q := p.Without(1)

	if diff := cmp.Diff([]string{"a", "b", "c"}, p.Names()); diff != "" {
		t.Errorf("original pool changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "c"}, q.Names()); diff != "" {
		t.Errorf("Without(1) (-want +got):\n%s", diff)
	}
}

func TestPoolWithoutOutOfRange(t *testing.T) {
	p := testPool("rooms", false, "a")
	for _, i := range []int{-1, 1, 5} {
		if got := p.Without(i).Len(); got != 1 {
			t.Errorf("Without(%d).Len() = %d, want 1", i, got)
		}
	}
}

func TestNilPool(t *testing.T) {
	var p *Pool
	if p.Len() != 0 || p.Clone() != nil || p.Index("x") != -1 || p.Names() != nil {
		t.Error("nil pool should behave as empty")
	}
}

func TestPoolShuffled(t *testing.T) {
	p := testPool("rooms", false, "a", "b", "c", "d", "e", "f")

	x := p.Shuffled(rng.New("seed"))
	y := p.Shuffled(rng.New("seed"))

	if !slices.Equal(x.Names(), y.Names()) {
		t.Errorf("same seed, different order: %v vs %v", x.Names(), y.Names())
	}
	if !slices.Equal(p.Names(), []string{"a", "b", "c", "d", "e", "f"}) {
		t.Errorf("Shuffled mutated source pool: %v", p.Names())
	}
	got := slices.Sorted(slices.Values(x.Names()))
	if !slices.Equal(got, p.Names()) {
		t.Errorf("Shuffled lost entries: %v", x.Names())
	}
}

func TestPoolSetConsumeIsolation(t *testing.T) {
	rooms := testPool("rooms", true, "a", "b")
	ends := testPool("ends", false, "z")
	base := NewPoolSet(map[int]*Pool{0: rooms, 1: ends})

	left := base.Consume(0, 0)
	right := base.Consume(0, 1)

	if !base.Has(0, "a") || !base.Has(0, "b") {
		t.Error("Consume mutated the parent snapshot")
	}
	if left.Has(0, "a") || !left.Has(0, "b") {
		t.Errorf("left branch pool = %v", mustGet(t, left, 0).Names())
	}
	if !right.Has(0, "a") || right.Has(0, "b") {
		t.Errorf("right branch pool = %v", mustGet(t, right, 0).Names())
	}

	// Untouched pools are shared, not copied.
	if mustGet(t, left, 1) != ends || mustGet(t, right, 1) != ends {
		t.Error("untouched pool was copied")
	}
}

func TestPoolSetConsumeUnknownPool(t *testing.T) {
	base := NewPoolSet(map[int]*Pool{0: testPool("rooms", true, "a")})
	if got := base.Consume(7, 0); got.Len() != 1 || !got.Has(0, "a") {
		t.Error("Consume of unknown pool should be a no-op")
	}
}

func TestPoolSetMerge(t *testing.T) {
	base := NewPoolSet(map[int]*Pool{
		0: testPool("rooms", false, "a"),
		1: testPool("ends", false, "z"),
	})
	override := testPool("special", false, "s1", "s2")

	merged := base.Merge(map[int]*Pool{1: override, 2: testPool("extra", false, "x")})

	if diff := cmp.Diff([]int{0, 1, 2}, merged.Indices()); diff != "" {
		t.Errorf("Indices() (-want +got):\n%s", diff)
	}
	if mustGet(t, merged, 1) != override {
		t.Error("override should replace the pool entirely")
	}
	if base.Has(1, "s1") || base.Len() != 2 {
		t.Error("Merge mutated the receiver")
	}
	if same := base.Merge(nil); same.Len() != base.Len() {
		t.Error("Merge(nil) should return the receiver")
	}
}

func TestNewPoolSetCopiesMap(t *testing.T) {
	m := map[int]*Pool{0: testPool("rooms", false, "a")}
	s := NewPoolSet(m)
	delete(m, 0)
	if _, ok := s.Get(0); !ok {
		t.Error("NewPoolSet should copy the map")
	}
}

func TestZeroPoolSet(t *testing.T) {
	var s PoolSet
	if _, ok := s.Get(0); ok {
		t.Error("zero set should be empty")
	}
	if s.Has(0, "a") {
		t.Error("zero set should not have templates")
	}
	merged := s.Merge(map[int]*Pool{3: testPool("p", false, "a")})
	if !merged.Has(3, "a") {
		t.Error("Merge into zero set failed")
	}
}

func mustGet(t *testing.T, s PoolSet, i int) *Pool {
	t.Helper()
	p, ok := s.Get(i)
	if !ok {
		t.Fatalf("pool %d missing", i)
	}
	return p
}
