// Package containment models how group boxes nest and which nodes they own.
//
// [Build] derives a forest from every group node's Contains list:
//
//   - each group's enclosed set is the transitive closure of Contains
//   - height is 0 for groups with no nested group, else one more than the
//     tallest nested group
//   - a group's parent is the tightest enclosing group, chosen by walking
//     groups from tallest to shortest and preferring a parent exactly one
//     level taller
//   - every non-group node is owned by exactly one group, the shortest
//     group that encloses it
//
// Nodes may legitimately appear in several overlapping groups; ownership
// breaks the tie deterministically. Cycles in Contains lists are tolerated
// and never produce a cyclic parent chain.
//
// The layout engine keeps one master graph per formatting pass and derives a
// [Graph.Subset] holding only the groups it can move safely.
package containment
