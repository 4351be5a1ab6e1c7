package arrange

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/warren/pkg/arm"
	"github.com/matzehuels/warren/pkg/builder"
	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/geom"
	"github.com/matzehuels/warren/pkg/oracle"
)

// Result is the outcome of an arrangement.
//
// A complete result has every arm filled. An incomplete result carries the
// deepest placement the search reached and is returned together with an
// error; it must never be presented as a finished layout.
type Result struct {
	Seed     string
	Start    geom.Exit
	Complete bool
	Tree     *arm.Tree
	Root     *arm.Arm     // Result tree, isomorphic to the arm spec
	Entries  []*arm.Entry // Committed entries in placement order
	Stats    Stats
}

// Rects returns every reserved rectangle of the result in placement order.
func (r *Result) Rects() []geom.Rect {
	var out []geom.Rect
	for _, e := range r.Entries {
		out = append(out, e.Rects...)
	}
	return out
}

// Arranger fills arm trees with a depth-first backtracking search.
//
// An Arranger holds only configuration and may be reused, but a single call
// to Arrange is synchronous and single-threaded.
type Arranger struct {
	oracle        oracle.Oracle
	maxAttempts   int
	progressEvery int
	progress      func(Stats)
	trace         func(Event)
	logger        *log.Logger
}

// New returns an arranger that tests placements with o.
func New(o oracle.Oracle, opts ...Option) *Arranger {
	a := &Arranger{
		oracle:        o,
		progressEvery: DefaultProgressInterval,
		logger:        discardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Arrange places one room per stack slot of every arm in tree, starting at
// start, and returns the filled result tree.
//
// Candidates are tried in pool order; the first one whose whole remaining
// search succeeds wins. Template refusals and oracle overlaps are ordinary
// rejections. When every candidate is exhausted, Arrange returns the deepest
// partial result together with a GENERATION_FAILED error. Hitting the attempt
// budget (BUDGET_EXHAUSTED) or ctx cancellation (TIMEOUT) also returns the
// best partial result.
//
// Inconsistent configurations abort immediately with a nil result:
// POOL_EMPTY when a draw finds no candidates, BRANCH_MISMATCH when a forking
// room's exit count differs from the number of child arms and INVALID_STATE
// when the tree's parent links are broken.
func (a *Arranger) Arrange(ctx context.Context, tree *arm.Tree, start geom.Exit) (*Result, error) {
	if tree.Root() == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "arrange: arm tree is empty")
	}
	if a.oracle == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "arrange: geometry oracle is nil")
	}

	s := &search{
		Arranger: a,
		ctx:      ctx,
		tree:     tree,
		start:    start,
	}
	initial := &state{stacks: make([][]*arm.Entry, tree.Len())}
	s.best = initial

	a.logger.Debugf("Arranging %d arms, %d rooms (seed %q)", tree.Len(), tree.Rooms(), tree.Seed)

	final, err := s.step(initial, tree.Root().ID, func(st *state) (*state, error) { return st, nil })
	if err != nil && !errors.IsIncomplete(err) {
		a.logger.Debugf("Arrangement aborted after %d attempts: %v", s.stats.Attempts, err)
		return nil, err
	}

	out := final
	if out == nil {
		out = s.best
	}
	res := s.result(out, final != nil)
	a.report(res.Stats)

	if err != nil {
		return res, err
	}
	if final == nil {
		return res, errors.New(errors.ErrCodeGenerationFailed,
			"no complete arrangement for seed %q (best %d/%d rooms); retry with a different seed",
			tree.Seed, res.Stats.Placed, tree.Rooms())
	}

	a.logger.Debugf("Arranged %d rooms: %d attempts, %d rejections, %d backtracks",
		res.Stats.Placed, res.Stats.Attempts, res.Stats.Rejections, res.Stats.Backtracks)
	return res, nil
}

func (a *Arranger) report(st Stats) {
	if a.progress != nil {
		a.progress(st)
	}
}

// =============================================================================
// Search state
// =============================================================================

// state is one immutable point of the search. Every committed placement
// builds a new state; backtracking simply drops it.
type state struct {
	stacks [][]*arm.Entry // Per-node placement stacks, indexed by node ID
	placed []geom.Rect    // Every rect on this path, for the oracle
	trail  *trail         // Committed entries, newest first
	depth  int            // Number of committed entries
}

type trail struct {
	entry *arm.Entry
	prev  *trail
}

// pools returns the snapshot of the most recently committed entry.
func (st *state) pools() builder.PoolSet {
	if st.trail == nil {
		return builder.PoolSet{}
	}
	return st.trail.entry.Pools
}

// push returns a new state with e committed. The receiver is not modified.
func (st *state) push(e *arm.Entry) *state {
	stacks := slices.Clone(st.stacks)
	stacks[e.Node] = append(slices.Clip(st.stacks[e.Node]), e)
	return &state{
		stacks: stacks,
		placed: append(slices.Clip(st.placed), e.Rects...),
		trail:  &trail{entry: e, prev: st.trail},
		depth:  st.depth + 1,
	}
}

// entries returns the committed entries in placement order.
func (st *state) entries() []*arm.Entry {
	out := make([]*arm.Entry, st.depth)
	i := st.depth
	for t := st.trail; t != nil; t = t.prev {
		i--
		out[i] = t.entry
	}
	return out
}

// next continues the search once an arm and its subtree are filled.
type next func(*state) (*state, error)

// slot is the draw being made for one stack position.
type slot struct {
	node     *arm.Node
	step     int
	terminal bool
	exit     geom.Exit
	pools    builder.PoolSet
	poolIdx  int
	ctx      builder.ArmContext
}

// =============================================================================
// Search
// =============================================================================

type search struct {
	*Arranger
	ctx   context.Context
	tree  *arm.Tree
	start geom.Exit
	stats Stats
	best  *state
}

// step fills the next stack slot of node n, then continues with k once the
// arm and all its child arms are filled. It returns the first successful
// final state, nil when every candidate failed, or an error that stops the
// whole search.
func (s *search) step(st *state, n int, k next) (*state, error) {
	node := s.tree.Nodes[n]
	filled := len(st.stacks[n])
	switch {
	case filled == node.Slots():
		return s.complete(st, node, k)
	case filled > node.Slots():
		return nil, errors.New(errors.ErrCodeInvalidState, "arm %d holds %d rooms, more than %d", n, filled, node.Slots())
	}

	sl, err := s.slot(st, node, filled)
	if err != nil {
		return nil, err
	}
	pool, _ := sl.pools.Get(sl.poolIdx)
	if pool.Len() == 0 {
		return nil, errors.New(errors.ErrCodePoolEmpty, "arm %d slot %d: pool %d has no candidates", n, filled, sl.poolIdx)
	}

	for i, cand := range pool.Entries {
		if err := s.tick(); err != nil {
			return nil, err
		}
		child, ok := s.attempt(st, sl, i, cand)
		if !ok {
			continue
		}
		res, err := s.step(child, n, k)
		if err != nil || res != nil {
			return res, err
		}
		s.stats.Backtracks++
		s.emit(EventBacktrack, sl, cand, child.depth)
	}
	return nil, nil
}

// slot resolves the exit, pool snapshot and pool index for the next draw.
func (s *search) slot(st *state, node *arm.Node, filled int) (slot, error) {
	exit, err := s.entryExit(st, node)
	if err != nil {
		return slot{}, err
	}

	terminal := filled == node.Length
	sl := slot{
		node:     node,
		step:     filled,
		terminal: terminal,
		exit:     exit,
		pools:    st.pools(),
		poolIdx:  node.BuilderPool,
		ctx: builder.ArmContext{
			Node:     node.ID,
			Step:     filled,
			Terminal: terminal,
		},
	}
	if terminal {
		sl.poolIdx = node.EndBuilderPool
		if node.End == arm.EndArm {
			sl.ctx.Branches = len(node.Children)
		} else {
			sl.ctx.ItemType = node.ItemType
		}
	}
	if filled == 0 && len(node.Pools) > 0 {
		sl.pools = sl.pools.Merge(node.Pools)
	}
	return sl, nil
}

// entryExit returns the exit the next room of node is entered through: the
// previous room of the same arm, the parent's exit slot for the first room of
// a child arm, or the start exit for the first room of the root.
func (s *search) entryExit(st *state, node *arm.Node) (geom.Exit, error) {
	if stack := st.stacks[node.ID]; len(stack) > 0 {
		return stack[len(stack)-1].Exits[0], nil
	}
	if node.Root {
		return s.start, nil
	}

	parent := s.tree.Node(node.Parent)
	if parent == nil {
		return geom.Exit{}, errors.New(errors.ErrCodeInvalidState, "arm %d has no parent link", node.ID)
	}
	ps := st.stacks[parent.ID]
	if len(ps) != parent.Slots() {
		return geom.Exit{}, errors.New(errors.ErrCodeInvalidState, "arm %d entered before parent %d was filled", node.ID, parent.ID)
	}
	last := ps[len(ps)-1]
	if node.ParentIndex < 0 || node.ParentIndex >= len(last.Exits) {
		return geom.Exit{}, errors.New(errors.ErrCodeInvalidState, "arm %d fills missing exit %d of arm %d", node.ID, node.ParentIndex, parent.ID)
	}
	return last.Exits[node.ParentIndex], nil
}

// attempt tries a single candidate. On acceptance it returns the new state
// with the placement committed; the receiver state is never modified.
func (s *search) attempt(st *state, sl slot, i int, cand builder.Entry) (*state, bool) {
	oriented, ok := cand.Template.Orient(sl.exit.Dir, sl.terminal, sl.ctx)
	if !ok || oriented == nil {
		s.reject(sl, cand, st.depth)
		return nil, false
	}
	pl, ok := s.oracle.TryPlace(oriented, sl.exit, st.placed)
	if !ok || pl == nil || (!sl.terminal && len(pl.Exits) == 0) {
		s.reject(sl, cand, st.depth)
		return nil, false
	}

	pools := sl.pools
	if cand.Exclusive {
		pools = pools.Consume(sl.poolIdx, i)
	}
	entry := &arm.Entry{
		Template: oriented,
		Rects:    slices.Clone(pl.Rects),
		Rooms:    slices.Clone(pl.Rooms),
		Exits:    slices.Clone(pl.Exits),
		Pools:    pools,
		Node:     sl.node.ID,
		Step:     sl.step,
		Terminal: sl.terminal,
		Pool:     sl.poolIdx,
	}

	child := st.push(entry)
	if child.depth > s.best.depth {
		s.best = child
	}
	s.stats.MaxDepth = max(s.stats.MaxDepth, child.depth)
	s.emit(EventPlaced, sl, cand, child.depth)
	return child, true
}

// complete runs once node's stack is filled: an item arm continues with k, a
// forking arm verifies its exit count and fills its children left to right.
func (s *search) complete(st *state, node *arm.Node, k next) (*state, error) {
	if node.End != arm.EndArm {
		return k(st)
	}
	stack := st.stacks[node.ID]
	last := stack[len(stack)-1]
	if len(last.Exits) != len(node.Children) {
		return nil, errors.New(errors.ErrCodeBranchMismatch,
			"arm %d: room %q has %d exits but the arm has %d branches",
			node.ID, last.Template.Name(), len(last.Exits), len(node.Children))
	}
	return s.branch(st, node, 0, k)
}

// branch fills child arm i of parent. The child draws from the pool snapshot
// of the most recent placement, so branches consume exclusive templates left
// to right. A filled child continues into its next sibling, and the last
// sibling continues with k.
func (s *search) branch(st *state, parent *arm.Node, i int, k next) (*state, error) {
	child := s.tree.Node(parent.Children[i])
	if child == nil || child.Parent != parent.ID || child.ParentIndex != i {
		return nil, errors.New(errors.ErrCodeInvalidState, "arm %d: branch %d is not linked to its parent", parent.ID, i)
	}
	return s.step(st, child.ID, func(filled *state) (*state, error) {
		if i+1 < len(parent.Children) {
			return s.branch(filled, parent, i+1, k)
		}
		return k(filled)
	})
}

// tick accounts for one attempt and enforces the budget and cancellation.
func (s *search) tick() error {
	if s.maxAttempts > 0 && s.stats.Attempts >= s.maxAttempts {
		return errors.New(errors.ErrCodeBudgetExhausted, "arrangement stopped after %d attempts", s.stats.Attempts)
	}
	select {
	case <-s.ctx.Done():
		return errors.Wrap(errors.ErrCodeTimeout, s.ctx.Err(), "arrangement stopped after %d attempts", s.stats.Attempts)
	default:
	}

	s.stats.Attempts++
	if s.progress != nil && s.stats.Attempts%s.progressEvery == 0 {
		s.progress(s.stats)
	}
	return nil
}

func (s *search) reject(sl slot, cand builder.Entry, depth int) {
	s.stats.Rejections++
	s.emit(EventRejected, sl, cand, depth)
}

func (s *search) emit(kind EventKind, sl slot, cand builder.Entry, depth int) {
	if s.trace == nil {
		return
	}
	s.trace(Event{
		Kind:     kind,
		Node:     sl.node.ID,
		Step:     sl.step,
		Pool:     sl.poolIdx,
		Template: cand.Template.Name(),
		Depth:    depth,
	})
}

func (s *search) result(st *state, complete bool) *Result {
	root := arm.Materialize(s.tree, st.stacks)
	stats := s.stats
	stats.Placed = st.depth
	return &Result{
		Seed:     s.tree.Seed,
		Start:    s.start,
		Complete: complete && root.Complete,
		Tree:     s.tree,
		Root:     root,
		Entries:  st.entries(),
		Stats:    stats,
	}
}
