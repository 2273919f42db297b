package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/wayfinder/pkg/directions"
	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/floorplan"
	"github.com/matzehuels/wayfinder/pkg/graph"
	"github.com/matzehuels/wayfinder/pkg/route"
)

// DefaultScale converts asset units to Graphviz points.
const DefaultScale = 1.0

// Options configures floor diagram generation.
type Options struct {
	// Path is overlaid when set. Points on other floors are ignored.
	Path []route.Point
	// Detailed labels every node with its raw label, not only places.
	Detailed bool
	// Scale multiplies coordinates. Zero means DefaultScale.
	Scale float64
}

// ToDOT converts one floor of g to Graphviz DOT source with pinned node
// positions. The result can be rendered with [RenderSVG].
func ToDOT(g *graph.Global, f floor.Floor, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	onPath, pathEdges := overlay(opts.Path, f)

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  label=%q;\n", f.Name())
	buf.WriteString("  labelloc=t;\n")
	buf.WriteString("  node [shape=point, width=0.08, color=grey50, fontsize=10];\n")
	buf.WriteString("  edge [color=grey70];\n")
	buf.WriteString("\n")

	nodes := g.NodesOn(f)
	for _, n := range nodes {
		attrs := fmtAttrs(n, opts.Detailed)
		x, y := n.Point.X()*scale, 0-n.Point.Y()*scale // screen y grows downward
		attrs = append(attrs, fmt.Sprintf("pos=\"%.2f,%.2f!\"", x, y))
		if onPath[n.Label] {
			attrs = append(attrs, "color=red")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Label, strings.Join(attrs, ", "))
	}
	if len(opts.Path) > 0 {
		for _, label := range endpoints(opts.Path, f) {
			fmt.Fprintf(&buf, "  %q [color=red, penwidth=3];\n", label)
		}
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		for _, a := range n.Arcs {
			if a.Kind != graph.ArcWalk || a.To <= n.Label {
				continue
			}
			if pathEdges[edgeKey(n.Label, a.To)] {
				fmt.Fprintf(&buf, "  %q -- %q [color=red, penwidth=3];\n", n.Label, a.To)
				continue
			}
			fmt.Fprintf(&buf, "  %q -- %q;\n", n.Label, a.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(n *graph.Node, detailed bool) []string {
	var attrs []string
	switch {
	case n.Type == floorplan.Center:
		attrs = append(attrs,
			"shape=box", "style=\"rounded,filled\"", "width=0", "height=0", "margin=\"0.05,0.02\"",
			fmt.Sprintf("label=%q", directions.Name(n.Location())))
		if n.Connector != nil || n.Place.IsConnector() {
			attrs = append(attrs, "fillcolor=lightblue")
		} else {
			attrs = append(attrs, "fillcolor=white")
		}
		return attrs
	case n.Connector != nil:
		attrs = append(attrs, "color=blue", "width=0.12")
	case n.Type == floorplan.Junction:
		attrs = append(attrs, "color=orange", "width=0.1")
	case n.Type == floorplan.Boundary:
		attrs = append(attrs, "color=grey85")
	}
	if detailed {
		_, raw, _ := floor.SplitLabel(n.Label)
		attrs = append(attrs, fmt.Sprintf("xlabel=%q", raw))
	}
	return attrs
}

// overlay returns the path labels and undirected path edges on floor f.
func overlay(path []route.Point, f floor.Floor) (map[string]bool, map[string]bool) {
	labels := make(map[string]bool)
	edges := make(map[string]bool)
	for i, p := range path {
		if p.Floor != f {
			continue
		}
		labels[p.Label] = true
		if i > 0 && path[i-1].Floor == f {
			edges[edgeKey(path[i-1].Label, p.Label)] = true
		}
	}
	return labels, edges
}

// endpoints returns the route's start and goal if they lie on floor f.
func endpoints(path []route.Point, f floor.Floor) []string {
	var out []string
	for _, p := range []route.Point{path[0], path[len(path)-1]} {
		if p.Floor == f && (len(out) == 0 || out[0] != p.Label) {
			out = append(out, p.Label)
		}
	}
	return out
}

func edgeKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}
