// Package concord resolves many-to-many key relations into groups.
//
// Given rows linking a key A to a key B, optionally scoped within further
// columns, the Resolver assigns every row a group id so that rows sharing a
// key A value or a key B value inside the same scope end up in one group.
// The groups are the connected components of the bipartite A/B graph,
// computed by label propagation until every label has settled.
//
// The group id of a component is the smallest A index in it, where A indexes
// are dense integers handed out in order of first appearance.
package concord
