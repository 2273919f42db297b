package route

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/floorplan"
	"github.com/matzehuels/wayfinder/pkg/graph"
)

// Default tunables for route admission.
const (
	DefaultStorepathProximity = 30.0
	DefaultStorepathCap       = 3
)

// cancelCheckInterval is how many expansions pass between context checks.
const cancelCheckInterval = 256

// Point is one step of a route: a node coordinate and its qualified label.
type Point struct {
	Point orb.Point
	Label string
	Floor floor.Floor
}

// Request is a single route query.
type Request struct {
	Graph *graph.Global
	Start string
	Goal  string
	Mode  Mode
}

// Options tunes neighbour admission.
type Options struct {
	// StorepathProximity is how close a private aisle must come to the start
	// or goal to be usable.
	StorepathProximity float64
	// StorepathCap is the number of distinct aisles a search may commit to.
	StorepathCap int
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		StorepathProximity: DefaultStorepathProximity,
		StorepathCap:       DefaultStorepathCap,
	}
}

// Validate rejects negative tunables.
func (o Options) Validate() error {
	if o.StorepathProximity < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "storepath proximity must not be negative, got %v", o.StorepathProximity)
	}
	if o.StorepathCap < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "storepath cap must not be negative, got %d", o.StorepathCap)
	}
	return nil
}

// Stats describes the work done by one search.
type Stats struct {
	Expanded int     // nodes popped and expanded
	Pushed   int     // queue pushes, including re-pushes on improvement
	Cost     float64 // cost of the returned path
}

// Find returns the minimum-cost admissible path from req.Start to req.Goal.
func Find(ctx context.Context, req Request, opts Options) ([]Point, error) {
	path, _, err := FindWithStats(ctx, req, opts)
	return path, err
}

// FindWithStats is [Find] with search statistics.
func FindWithStats(ctx context.Context, req Request, opts Options) ([]Point, Stats, error) {
	var stats Stats
	if err := opts.Validate(); err != nil {
		return nil, stats, err
	}
	if req.Graph == nil {
		return nil, stats, errors.New(errors.ErrCodeInvalidInput, "route request has no graph")
	}
	start, ok := req.Graph.Node(req.Start)
	if !ok {
		return nil, stats, errors.New(errors.ErrCodeMissingLabel, "start label %q not in graph", req.Start)
	}
	goal, ok := req.Graph.Node(req.Goal)
	if !ok {
		return nil, stats, errors.New(errors.ErrCodeMissingLabel, "goal label %q not in graph", req.Goal)
	}

	s := &search{
		g:         req.Graph,
		mode:      req.Mode,
		opts:      opts,
		start:     start,
		goal:      goal,
		storepath: make(map[string]bool),
	}
	return s.run(ctx)
}

type search struct {
	g     *graph.Global
	mode  Mode
	opts  Options
	start *graph.Node
	goal  *graph.Node

	// storepath holds the aisle groups the search has committed to.
	storepath map[string]bool
}

func (s *search) heuristic(n *graph.Node) float64 {
	if n.Floor != s.goal.Floor {
		return 0
	}
	return planar.Distance(n.Point, s.goal.Point)
}

func (s *search) run(ctx context.Context) ([]Point, Stats, error) {
	var stats Stats
	gScore := map[string]float64{s.start.Label: 0}
	came := make(map[string]string)

	open := &frontier{}
	seq := 0
	open.push(&item{label: s.start.Label, g: 0, f: s.heuristic(s.start), seq: seq})
	stats.Pushed++

	for open.Len() > 0 {
		cur := open.pop()
		if cur.g > gScore[cur.label] {
			continue
		}
		if cur.label == s.goal.Label {
			path, err := s.reconstruct(came)
			if err != nil {
				return nil, stats, err
			}
			stats.Cost = cur.g
			return path, stats, nil
		}

		stats.Expanded++
		if stats.Expanded%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		node, ok := s.g.Node(cur.label)
		if !ok {
			return nil, stats, errors.New(errors.ErrCodeReconstruction, "expanded label %q not in graph", cur.label)
		}
		for _, arc := range node.Arcs {
			next, ok := s.g.Node(arc.To)
			if !ok || !s.admit(node, next) {
				continue
			}
			tentative := cur.g + arc.Cost
			if old, seen := gScore[next.Label]; seen && tentative >= old {
				continue
			}
			gScore[next.Label] = tentative
			came[next.Label] = node.Label
			seq++
			open.push(&item{label: next.Label, g: tentative, f: tentative + s.heuristic(next), seq: seq})
			stats.Pushed++
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	return nil, stats, errors.New(errors.ErrCodeNoPath, "no route from %s to %s in %s mode", s.start.Label, s.goal.Label, s.mode)
}

// admit applies the neighbour admission rules in order.
func (s *search) admit(cur, next *graph.Node) bool {
	if next == s.start || next == s.goal {
		return true
	}
	if s.mode.excludes(next.ConnectorKind()) {
		return false
	}
	if next.Type == floorplan.Boundary {
		return false
	}
	if !s.junctionAllowed(cur, next) {
		return false
	}
	if !s.storepathAllowed(cur, next) {
		return false
	}
	if next.Type == floorplan.RectCorner && !s.isEndpointPlace(next.Parent) {
		return false
	}
	return true
}

// junctionAllowed blocks the step between a store junction and the store
// that created it unless that store is where the route starts or ends.
func (s *search) junctionAllowed(cur, next *graph.Node) bool {
	var trigger string
	switch {
	case next.Type == floorplan.Junction && next.Trigger == cur.Label:
		trigger = cur.Label
	case cur.Type == floorplan.Junction && cur.Trigger == next.Label:
		trigger = next.Label
	default:
		return true
	}
	t, ok := s.g.Node(trigger)
	if !ok || !t.Place.IsLandmark() {
		return true
	}
	return s.isEndpointPlace(t.Location())
}

// storepathAllowed gates entry into a private aisle group.
func (s *search) storepathAllowed(cur, next *graph.Node) bool {
	group := next.StorepathGroup()
	if group == "" || group == cur.StorepathGroup() || s.storepath[group] {
		return true
	}
	if len(s.storepath) >= s.opts.StorepathCap {
		return false
	}
	if !s.nearEndpoint(group, next) {
		return false
	}
	s.storepath[group] = true
	return true
}

// nearEndpoint reports whether an endpoint of the aisle segment lies within
// StorepathProximity of the start or the goal.
func (s *search) nearEndpoint(group string, n *graph.Node) bool {
	ends := []orb.Point{n.Point}
	if seg, ok := s.g.Segment(group); ok {
		ends = seg.Endpoints()
	}
	for _, anchor := range []*graph.Node{s.start, s.goal} {
		if anchor.Floor != n.Floor {
			continue
		}
		for _, p := range ends {
			if planar.Distance(p, anchor.Point) <= s.opts.StorepathProximity {
				return true
			}
		}
	}
	return false
}

// isEndpointPlace reports whether location is the start or goal, either by
// label or by the place the endpoint belongs to.
func (s *search) isEndpointPlace(location string) bool {
	if location == "" {
		return false
	}
	return location == s.start.Label || location == s.goal.Label ||
		location == s.start.Location() || location == s.goal.Location()
}

func (s *search) reconstruct(came map[string]string) ([]Point, error) {
	var rev []Point
	label := s.goal.Label
	for steps := 0; ; steps++ {
		if steps > s.g.NodeCount() {
			return nil, errors.New(errors.ErrCodeReconstruction, "predecessor chain from %s does not terminate", s.goal.Label)
		}
		n, ok := s.g.Node(label)
		if !ok {
			return nil, errors.New(errors.ErrCodeReconstruction, "predecessor %q not in graph", label)
		}
		rev = append(rev, Point{Point: n.Point, Label: n.Label, Floor: n.Floor})
		if label == s.start.Label {
			break
		}
		prev, ok := came[label]
		if !ok {
			return nil, errors.New(errors.ErrCodeReconstruction, "no predecessor recorded for %q", label)
		}
		label = prev
	}
	path := make([]Point, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path, nil
}

// Cost sums the arc costs along path. It returns +Inf if two consecutive
// points are not adjacent in g.
func Cost(g *graph.Global, path []Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		n, ok := g.Node(path[i-1].Label)
		if !ok {
			return math.Inf(1)
		}
		a, ok := n.Neighbor(path[i].Label)
		if !ok {
			return math.Inf(1)
		}
		total += a.Cost
	}
	return total
}

// Labels returns the labels of path in order.
func Labels(path []Point) []string {
	out := make([]string, len(path))
	for i, p := range path {
		out[i] = p.Label
	}
	return out
}
