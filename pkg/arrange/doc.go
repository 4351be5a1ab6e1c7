// Package arrange fills a normalized arm tree with rooms using a recursive,
// depth-first backtracking search.
//
// # Algorithm
//
// The search fills one stack slot at a time. Inner slots draw from the arm's
// builder pool and the terminal slot from its end pool. Candidates are tried
// in pool order: each is oriented to the incoming exit, then checked by the
// geometry [oracle.Oracle] against every rectangle on the current path. The
// first candidate whose whole remaining search succeeds wins. A candidate that
// is accepted but leads nowhere is abandoned and the next one is tried.
//
// Once an arm is filled it either ends (item arms) or forks: the exit count of
// its last room must equal its number of child arms, and children are filled
// left to right, each starting at its own exit of the forking room. A filled
// child continues into its next sibling, and the last sibling hands control
// back to whatever follows the parent. A failure anywhere after a choice
// therefore backtracks into that choice, including choices made in earlier
// sibling arms.
//
// # Search State
//
// Every committed placement produces a new immutable state: the per-arm
// stacks, the placed rectangles and the pool snapshot are copied on write, so
// backtracking is just returning to the previous state. Exclusive templates
// are removed from a private copy of their pool only, which keeps sibling
// candidates isolated.
//
// # Outcomes
//
// A successful search returns a complete [Result]. When all candidates are
// exhausted, or the attempt budget or context stops the search, Arrange
// returns the deepest partial result together with an error for which
// [errors.IsIncomplete] holds. Configuration mistakes found mid-search (an
// empty pool, a fork whose exit count differs from its branch count, broken
// parent links) abort the attempt with a fatal error and no result.
package arrange
