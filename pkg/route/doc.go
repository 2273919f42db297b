// Package route finds minimum-cost routes through a [graph.Global].
//
// A route request is an explicit value:
//
//	req := route.Request{Graph: g, Start: "g:zara", Goal: "l1:uniqlo", Mode: route.ModeEscalator}
//	path, err := route.Find(ctx, req, route.DefaultOptions())
//
// The engine keeps no state between calls. Callers that need to re-run a
// route after a mode change keep the last Request themselves and call Find
// again with the new mode.
//
// # Search
//
// [Find] runs A* over node labels. Arc costs are Euclidean distances on a
// floor and non-negative constants across floors. The heuristic is the
// straight-line distance to the goal when a node lies on the goal's floor and
// zero otherwise, since coordinates of different floors are not aligned.
// Nodes whose cost improves are pushed again; stale queue entries are skipped
// when popped.
//
// # Admission
//
// Before a neighbour is relaxed it must pass, in order:
//
//  1. the mode filter (escalator mode never enters elevator landings and
//     vice versa),
//  2. boundary exclusion (outline points are never routed through),
//  3. junction gating (a junction created by a store entrance only leads
//     into that store when the store is the start or goal),
//  4. storepath gating (private aisles are only used near the start or goal
//     and at most [Options.StorepathCap] distinct aisles are committed to),
//  5. rectangle-corner gating (corners only belong to routes into or out of
//     their own place).
//
// The start and goal nodes are always admissible.
//
// Junction gating blocks the spur between a junction and the store entrance
// that created it, not the junction itself. The junction sits on the
// corridor edge it split, so blocking it would cut the corridor for every
// route walking past the store. Blocking the spur keeps such routes out of
// the store while leaving the corridor intact.
//
// Options are validated before the search starts; invalid tunables fail
// with INVALID_CONFIG.
//
// # Errors
//
// Find distinguishes an unknown start or goal (MISSING_LABEL, no search is
// attempted), an exhausted frontier (NO_PATH, a normal outcome) and a broken
// predecessor chain (RECONSTRUCTION, an invariant violation). Cancelling the
// context aborts the search with the context's error.
package route
