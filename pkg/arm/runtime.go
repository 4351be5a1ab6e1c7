package arm

import (
	"maps"
	"slices"

	"github.com/matzehuels/warren/pkg/builder"
	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/geom"
	"github.com/matzehuels/warren/pkg/rng"
)

// NoParent marks the root node's Parent and ParentIndex.
const NoParent = -1

// Node is one arm of a normalized tree. Lengths are resolved and pools are in
// their final candidate order. Nodes never change during arrangement; the
// search keeps its placements in separate per-node stacks.
type Node struct {
	ID             int // Index into Tree.Nodes
	Length         int // Inner rooms; the stack is filled at Length+1 entries
	End            End
	ItemType       string
	BuilderPool    int
	EndBuilderPool int
	Pools          map[int]*builder.Pool // Overrides merged at the first placement

	Children    []int // Child node IDs in exit order
	Parent      int   // Parent node ID, or NoParent
	ParentIndex int   // Exit slot of the parent this arm fills, or NoParent
	Root        bool
	Depth       int // Distance from the root
}

// Slots returns the number of rooms the arm holds once filled.
func (n *Node) Slots() int { return n.Length + 1 }

// Tree is an arena of normalized arms. Parent links are indices into Nodes,
// so the tree has no pointer cycles. Nodes[0] is the root.
type Tree struct {
	Nodes []*Node
	Seed  string
}

// Root returns the top-level arm.
func (t *Tree) Root() *Node {
	if t == nil || len(t.Nodes) == 0 {
		return nil
	}
	return t.Nodes[0]
}

// Len returns the number of arms in the tree.
func (t *Tree) Len() int { return len(t.Nodes) }

// Node returns the arm with the given ID, or nil if out of range.
func (t *Tree) Node(id int) *Node {
	if id < 0 || id >= len(t.Nodes) {
		return nil
	}
	return t.Nodes[id]
}

// Rooms returns the number of rooms a complete arrangement places.
func (t *Tree) Rooms() int {
	total := 0
	for _, n := range t.Nodes {
		total += n.Slots()
	}
	return total
}

// Normalize validates spec and converts it into a runtime tree, drawing every
// random decision from src.
//
// The walk is depth first in declaration order. For each arm the length range
// is resolved first, then every pool flagged Randomize is replaced by a
// shuffled copy (in ascending pool index order), then the children follow.
// Shuffling fixes the order candidates are tried in for the whole
// arrangement; it never changes which candidates exist.
func Normalize(spec *Spec, src *rng.Source) (*Tree, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "normalize: random source is nil")
	}

	t := &Tree{Seed: src.Seed()}
	t.add(spec, src, NoParent, NoParent, 0)
	t.Nodes[0].Root = true
	return t, nil
}

func (t *Tree) add(spec *Spec, src *rng.Source, parent, slot, depth int) int {
	id := len(t.Nodes)
	n := &Node{
		ID:             id,
		Length:         spec.Length.Resolve(src),
		End:            spec.End,
		ItemType:       spec.ItemType,
		BuilderPool:    spec.BuilderPool,
		EndBuilderPool: spec.EndBuilderPool,
		Parent:         parent,
		ParentIndex:    slot,
		Depth:          depth,
	}
	t.Nodes = append(t.Nodes, n)

	if len(spec.Pools) > 0 {
		n.Pools = make(map[int]*builder.Pool, len(spec.Pools))
		for _, idx := range slices.Sorted(maps.Keys(spec.Pools)) {
			p := spec.Pools[idx]
			if p.Randomize {
				p = p.Shuffled(src)
			}
			n.Pools[idx] = p
		}
	}

	for i, child := range spec.Arms {
		n.Children = append(n.Children, t.add(child, src, id, i, depth+1))
	}
	return id
}

// Entry is one committed placement of the search.
//
// Entries are immutable once created: Template is the entry's own oriented
// copy and Pools is the pool snapshot as it stood right after this placement.
type Entry struct {
	Template builder.Template
	Rects    []geom.Rect
	Rooms    []builder.Room
	Exits    []geom.Exit
	Pools    builder.PoolSet

	Node     int  // Arm the entry belongs to
	Step     int  // Stack slot, 0 = first room after the arm's entry point
	Terminal bool // Last slot of the arm
	Pool     int  // Pool index the template was drawn from
}

// Arm is the result view of one arm: the normalized node plus the stack of
// entries the search committed for it. Result trees are isomorphic to the
// spec they were normalized from.
type Arm struct {
	Node     *Node
	Stack    []*Entry
	Filled   bool // Stack holds exactly Length+1 entries
	Arms     []*Arm
	Complete bool // This arm and every descendant are filled
}

// Materialize builds the result tree from per-node stacks, indexed by node ID.
// Missing stacks are treated as empty.
func Materialize(t *Tree, stacks [][]*Entry) *Arm {
	if t.Root() == nil {
		return nil
	}
	return materialize(t, stacks, 0)
}

func materialize(t *Tree, stacks [][]*Entry, id int) *Arm {
	n := t.Nodes[id]
	var stack []*Entry
	if id < len(stacks) {
		stack = slices.Clone(stacks[id])
	}
	a := &Arm{Node: n, Stack: stack, Filled: len(stack) == n.Slots()}
	a.Complete = a.Filled
	for _, c := range n.Children {
		child := materialize(t, stacks, c)
		a.Arms = append(a.Arms, child)
		a.Complete = a.Complete && child.Complete
	}
	return a
}

// Walk calls fn for a and every descendant in depth-first declaration order.
func (a *Arm) Walk(fn func(*Arm)) {
	if a == nil {
		return
	}
	fn(a)
	for _, c := range a.Arms {
		c.Walk(fn)
	}
}

// Entries returns every committed entry of the tree in depth-first order.
func (a *Arm) Entries() []*Entry {
	var out []*Entry
	a.Walk(func(x *Arm) { out = append(out, x.Stack...) })
	return out
}
