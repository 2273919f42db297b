// Package render draws floor graphs as Graphviz diagrams.
//
// Nodes are pinned at their asset coordinates and laid out with neato, so
// the diagram matches the floor plan. A route can be overlaid: its edges on
// the rendered floor are drawn thick and red, and its start and goal are
// marked.
//
//	dot := render.ToDOT(g, floor.Ground, render.Options{Path: res.Path})
//	svg, err := render.RenderSVG(ctx, dot)
//
// Node styling follows the node type: place entrances are labelled boxes,
// split junctions are orange, connector landings are blue, and plain path
// points are small grey dots. Boundary nodes are drawn faded since routes
// never pass through them.
package render
