package graph

import (
	"slices"

	"github.com/paulmach/orb"

	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/floorplan"
)

// ArcKind distinguishes walkable arcs from floor changes.
type ArcKind int

const (
	// ArcWalk is a same-floor arc whose cost is the Euclidean distance.
	ArcWalk ArcKind = iota
	// ArcVertical links two landings of one connector on different floors.
	ArcVertical
)

// Arc is one directed half of an undirected connection.
type Arc struct {
	To   string
	Cost float64
	Kind ArcKind
}

// ConnectorKind is the kind of vertical transport a connector provides.
type ConnectorKind int

const (
	Escalator ConnectorKind = iota + 1
	Elevator
)

func (k ConnectorKind) String() string {
	switch k {
	case Escalator:
		return "escalator"
	case Elevator:
		return "elevator"
	default:
		return "none"
	}
}

// Connector identifies the physical device a landing node belongs to.
type Connector struct {
	Key  string
	Kind ConnectorKind
}

// Node is a routable node.
//
// Parent and Trigger hold labels in the same namespace as Label: raw labels
// inside a [FloorGraph], floor-qualified labels inside a [Global].
type Node struct {
	Label       string
	Floor       floor.Floor
	Point       orb.Point
	Type        floorplan.NodeType
	Parent      string
	Place       floorplan.PlaceKind
	ConnectorID string     // raw connector identity from the asset, if any
	Connector   *Connector // set by Unify
	Trigger     string     // junctions only: the node that caused the split
	Arcs        []Arc
}

// Location returns the label of the logical place this node stands for: the
// parent label if set, otherwise the node's own label.
func (n *Node) Location() string {
	if n.Parent != "" {
		return n.Parent
	}
	return n.Label
}

// StorepathGroup returns the storepath group the node belongs to, or "".
func (n *Node) StorepathGroup() string {
	if n.Place == floorplan.PlaceStorepath {
		return n.Parent
	}
	return ""
}

// ConnectorKind returns the vertical transport kind the node belongs to,
// either from its connector tag or from its place classification.
func (n *Node) ConnectorKind() ConnectorKind {
	if n.Connector != nil {
		return n.Connector.Kind
	}
	switch n.Place {
	case floorplan.PlaceEscalator:
		return Escalator
	case floorplan.PlaceElevator:
		return Elevator
	}
	return 0
}

// Neighbor returns the arc towards label, if any.
func (n *Node) Neighbor(label string) (Arc, bool) {
	for _, a := range n.Arcs {
		if a.To == label {
			return a, true
		}
	}
	return Arc{}, false
}

// Segment is a named path segment: every node sharing one parent label.
// A and B are its declared endpoints ("point 0" and "point 1"), the two
// members that lie farthest apart.
type Segment struct {
	Key     string
	Floor   floor.Floor
	A, B    orb.Point
	Members []string
}

// Endpoints returns the segment endpoints as a slice.
func (s *Segment) Endpoints() []orb.Point { return []orb.Point{s.A, s.B} }

// index is the label-addressed storage shared by FloorGraph and Global.
type index struct {
	nodes    map[string]*Node
	segments map[string]*Segment
}

func newIndex() index {
	return index{
		nodes:    make(map[string]*Node),
		segments: make(map[string]*Segment),
	}
}

// Node returns the node with the given label.
func (ix *index) Node(label string) (*Node, bool) {
	n, ok := ix.nodes[label]
	return n, ok
}

// Segment returns the path segment with the given key.
func (ix *index) Segment(key string) (*Segment, bool) {
	s, ok := ix.segments[key]
	return s, ok
}

// Labels returns all node labels in sorted order.
func (ix *index) Labels() []string {
	labels := make([]string, 0, len(ix.nodes))
	for l := range ix.nodes {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// Nodes returns all nodes ordered by label.
func (ix *index) Nodes() []*Node {
	out := make([]*Node, 0, len(ix.nodes))
	for _, l := range ix.Labels() {
		out = append(out, ix.nodes[l])
	}
	return out
}

// NodeCount returns the number of nodes.
func (ix *index) NodeCount() int { return len(ix.nodes) }

// ArcCount returns the number of directed arcs.
func (ix *index) ArcCount() int {
	count := 0
	for _, n := range ix.nodes {
		count += len(n.Arcs)
	}
	return count
}

// SegmentCount returns the number of named path segments.
func (ix *index) SegmentCount() int { return len(ix.segments) }

// FloorGraph is the routable graph of a single floor, keyed by raw label.
type FloorGraph struct {
	Floor floor.Floor
	index

	splits int
}

// Splits returns how many junctions the builder inserted.
func (g *FloorGraph) Splits() int { return g.splits }

// Global is the building-wide graph keyed by floor-qualified label.
// It is immutable once returned by Unify.
type Global struct {
	index
	floors   []floor.Floor
	vertical int
}

// Floors returns the floors present in the graph, lowest level first.
func (g *Global) Floors() []floor.Floor { return slices.Clone(g.floors) }

// VerticalArcCount returns the number of directed cross-floor arcs.
func (g *Global) VerticalArcCount() int { return g.vertical }

// Places returns every place entrance (Center node) in label order.
func (g *Global) Places() []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if n.Type == floorplan.Center {
			out = append(out, n)
		}
	}
	return out
}

// NodesOn returns all nodes of floor f ordered by label.
func (g *Global) NodesOn(f floor.Floor) []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if n.Floor == f {
			out = append(out, n)
		}
	}
	return out
}

// PlaceLabels returns the labels of every place entrance in label order.
func (g *Global) PlaceLabels() []string {
	places := g.Places()
	out := make([]string, len(places))
	for i, n := range places {
		out[i] = n.Label
	}
	return out
}
