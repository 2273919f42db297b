// Package pkg holds the wayfinder libraries.
//
// # Overview
//
// Wayfinder computes walking routes and turn-by-turn directions inside
// multi-floor buildings. Each floor is described by a vector floor plan; the
// floors are linked through escalators and elevators into one graph.
//
// # Architecture
//
//	floor assets (JSON, one per floor)
//	         ↓
//	    [floorplan] decode and classify places
//	         ↓
//	    [graph] build per-floor graphs, unify floors
//	         ↓
//	    [route] A* search under the travel mode
//	         ↓
//	    [clean] drop redundant points
//	         ↓
//	    [directions] instructions, distance and time
//
// [pipeline] runs these stages with caching ([cache]) and hooks
// ([observability]); [config] reads the building file; [render] draws a
// floor as DOT or SVG; [watch] reports asset edits.
package pkg
