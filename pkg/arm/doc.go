// Package arm describes the tree of linear room sequences ("arms") that the
// arranger fills.
//
// A [Spec] is what an author writes: each arm has a [Length] (fixed or a
// range), ends either in a reward item or in child arms, and names the pools
// its inner and terminal rooms are drawn from. [Normalize] resolves every
// random choice with a seeded [rng.Source] and produces a [Tree], an arena of
// [Node] values linked by index rather than by pointer.
//
// The arranger records its placements as [Entry] values in per-node stacks and
// hands them back through [Materialize], which rebuilds a result tree of [Arm]
// values isomorphic to the spec.
package arm
