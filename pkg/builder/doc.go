// Package builder defines the room templates consulted by the arrangement
// search and the pools they are drawn from.
//
// # Templates
//
// A [Template] is a capability interface: the search only needs its exit count,
// its willingness to be entered from a given heading ([Template.Orient]) and its
// local [Shape]. Four variants ship with the package:
//
//   - [Corridor]: a straight one-cell passage with a single exit ahead
//   - [Turn]: a square room leaving through its left or right wall
//   - [Chamber]: a room with several exits, used to fork an arm
//   - [Vault]: a dead end holding the arm's reward item
//
// Every variant accepts [Rules] restricting the entry headings and the stack
// slots (inner or terminal) it may fill. A [Registry] builds templates from
// declarative [TemplateSpec] records so configuration files can describe pools.
//
// # Pools
//
// A [Pool] is an ordered candidate list whose entries are either exclusive
// (consumed on first placement) or reusable. A [PoolSet] is an immutable
// snapshot of all pools at one point of the search. Consuming an exclusive
// entry yields a new set that shares every untouched pool with its parent,
// which keeps sibling search branches isolated without copying the world.
package builder
