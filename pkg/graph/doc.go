// Package graph turns raw floor plans into routable graphs and stitches them
// into one building-wide graph.
//
// # Architecture
//
// The package implements the first two stages of the routing pipeline:
//
//	floorplan.Plan (per floor)
//	         ↓
//	    [Build]  → [FloorGraph]  (label-addressed, junctions inserted)
//	         ↓
//	    [Unify]  → [Global]      (floor-qualified labels, vertical connectors)
//
// # Graph Builder
//
// [Build] seeds one [Node] per raw node, then lets every non-boundary node
// "split" the closest walkway edge it lies near (closer than
// Options.SplitThreshold). Splitting removes the edge, inserts a synthetic
// junction at the projected point and links the triggering node to it. Each
// raw node triggers at most one split. Arc costs are Euclidean distances and
// adjacency is always symmetric.
//
// Candidates are processed in label order, so building the same plan twice
// yields identical graphs.
//
// # Floor Unifier
//
// [Unify] prefixes every label with its floor (see [floor.Floor.Qualify]),
// tags escalator/elevator landings through a [ConnectorTable] and links
// landings that share a connector key across floors with [ArcVertical] arcs.
// A connector present on a single floor adds nothing.
//
// # Concurrency
//
// A [Global] is never modified after Unify returns. Any number of goroutines
// may read it concurrently without locking.
package graph
