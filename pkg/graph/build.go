package graph

import (
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/floorplan"
)

// Default tunables for graph construction.
const (
	DefaultSplitThreshold  = 30.0
	DefaultFloorChangeCost = 0.0
)

// Options configures [Build] and [Unify].
type Options struct {
	// SplitThreshold is the distance below which a node splits a nearby edge.
	SplitThreshold float64
	// FloorChangeCost is the arc cost per level crossed by a vertical
	// connector. Zero models directly aligned landings.
	FloorChangeCost float64
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		SplitThreshold:  DefaultSplitThreshold,
		FloorChangeCost: DefaultFloorChangeCost,
	}
}

// Validate rejects negative tunables.
func (o Options) Validate() error {
	if o.SplitThreshold < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "split threshold must be >= 0, got %v", o.SplitThreshold)
	}
	if o.FloorChangeCost < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "floor change cost must be >= 0, got %v", o.FloorChangeCost)
	}
	return nil
}

// storepathPrefix names groups derived from untagged storepath edges.
const storepathPrefix = "storepath_"

// edge is an undirected working edge of the builder.
type edge struct {
	a, b string
	typ  floorplan.EdgeType
	dead bool
}

func (e *edge) touches(label string) bool { return e.a == label || e.b == label }

// builder holds the mutable state of one Build call.
type builder struct {
	g     *FloorGraph
	opts  Options
	edges []*edge
	adj   map[string]map[string]struct{}
	seq   int
}

// Build converts one floor plan into a routable graph.
//
// Nodes are keyed by [floorplan.Node.Key]. Every non-boundary node may split
// the closest walkway edge it lies near, see the package documentation. The
// result is deterministic: building the same plan twice produces graphs with
// identical labels and arc costs.
func Build(plan *floorplan.Plan, opts Options) (*FloorGraph, error) {
	if plan == nil {
		return nil, errors.New(errors.ErrCodeBuildFailed, "nil floor plan")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBuildFailed, err, "floor %s", plan.Floor)
	}

	b := &builder{
		g:    &FloorGraph{Floor: plan.Floor, index: newIndex()},
		opts: opts,
		adj:  make(map[string]map[string]struct{}),
	}
	if err := b.seed(plan); err != nil {
		return nil, err
	}
	b.markStorepaths()
	b.split()
	b.link()
	b.g.segments = buildSegments(b.g.Floor, b.g.nodes)
	return b.g, nil
}

func (b *builder) seed(plan *floorplan.Plan) error {
	keys := make(map[string]string, len(plan.Nodes))
	for _, rn := range plan.Nodes {
		key := rn.Key()
		if _, dup := b.g.nodes[key]; dup {
			return errors.New(errors.ErrCodeBuildFailed, "floor %s: duplicate label %q", plan.Floor, key)
		}
		keys[rn.ID] = key
		b.g.nodes[key] = &Node{
			Label:       key,
			Floor:       plan.Floor,
			Point:       orb.Point{rn.X, rn.Y},
			Type:        rn.Type,
			Parent:      rn.Parent,
			Place:       rn.Place,
			ConnectorID: rn.Connector,
		}
	}

	seen := make(map[[2]string]struct{}, len(plan.Edges))
	for _, re := range plan.Edges {
		a, c := keys[re.From], keys[re.To]
		if a == c {
			continue
		}
		k := [2]string{min(a, c), max(a, c)}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		b.addEdge(a, c, re.Type)
	}
	return nil
}

func (b *builder) addEdge(a, c string, typ floorplan.EdgeType) {
	b.edges = append(b.edges, &edge{a: a, b: c, typ: typ})
	b.connect(a, c)
}

func (b *builder) connect(a, c string) {
	for _, p := range [][2]string{{a, c}, {c, a}} {
		set, ok := b.adj[p[0]]
		if !ok {
			set = make(map[string]struct{})
			b.adj[p[0]] = set
		}
		set[p[1]] = struct{}{}
	}
}

func (b *builder) disconnect(a, c string) {
	delete(b.adj[a], c)
	delete(b.adj[c], a)
}

func (b *builder) adjacent(a, c string) bool {
	_, ok := b.adj[a][c]
	return ok
}

// markStorepaths groups parentless nodes that are only reachable through
// storepath edges. Each connected group is named after its smallest label.
func (b *builder) markStorepaths() {
	walkway := make(map[string]bool)
	for _, e := range b.edges {
		if e.typ != floorplan.Storepath {
			walkway[e.a] = true
			walkway[e.b] = true
		}
	}
	eligible := func(label string) bool {
		n := b.g.nodes[label]
		return n.Parent == "" && !walkway[label]
	}

	parent := make(map[string]string)
	var find func(string) string
	find = func(x string) string {
		if p, ok := parent[x]; ok && p != x {
			r := find(p)
			parent[x] = r
			return r
		}
		parent[x] = x
		return x
	}
	for _, e := range b.edges {
		if e.typ != floorplan.Storepath || !eligible(e.a) || !eligible(e.b) {
			continue
		}
		ra, rb := find(e.a), find(e.b)
		if ra != rb {
			// Keep the smaller label as root so the group name is stable.
			if rb < ra {
				ra, rb = rb, ra
			}
			parent[rb] = ra
		}
	}
	for label := range parent {
		n := b.g.nodes[label]
		n.Parent = storepathPrefix + find(label)
		n.Place = floorplan.PlaceStorepath
	}
}

// split lets every candidate node split its closest eligible edge.
func (b *builder) split() {
	labels := make([]string, 0, len(b.g.nodes))
	for l, n := range b.g.nodes {
		if n.Type != floorplan.Boundary {
			labels = append(labels, l)
		}
	}
	slices.Sort(labels)

	for _, label := range labels {
		cand := b.g.nodes[label]
		best, bestDist := -1, b.opts.SplitThreshold
		for i, e := range b.edges {
			if e.dead || e.touches(label) {
				continue
			}
			d := planar.DistanceFromSegment(b.g.nodes[e.a].Point, b.g.nodes[e.b].Point, cand.Point)
			if d < bestDist {
				best, bestDist = i, d
			}
		}
		if best < 0 {
			continue
		}
		b.splitEdge(b.edges[best], cand)
	}
}

func (b *builder) splitEdge(e *edge, cand *Node) {
	a, c := b.g.nodes[e.a], b.g.nodes[e.b]
	p, t := project(a.Point, c.Point, cand.Point)
	switch {
	case t <= 0:
		b.linkEndpoint(cand.Label, a.Label)
		return
	case t >= 1:
		b.linkEndpoint(cand.Label, c.Label)
		return
	}

	j := &Node{
		Label:   b.nextSplitLabel(),
		Floor:   b.g.Floor,
		Point:   p,
		Type:    floorplan.Junction,
		Trigger: cand.Label,
	}
	if a.Parent != "" && a.Parent == c.Parent {
		j.Parent, j.Place = a.Parent, a.Place
	}
	b.g.nodes[j.Label] = j

	e.dead = true
	b.disconnect(e.a, e.b)
	b.addEdge(e.a, j.Label, e.typ)
	b.addEdge(j.Label, e.b, e.typ)
	b.addEdge(cand.Label, j.Label, floorplan.Walkway)
}

// linkEndpoint adds a walkway between a candidate and an endpoint it clamped onto,
// unless the two are already linked.
func (b *builder) linkEndpoint(cand, end string) {
	if !b.adjacent(cand, end) {
		b.addEdge(cand, end, floorplan.Walkway)
	}
}

func (b *builder) nextSplitLabel() string {
	for {
		label := fmt.Sprintf("split_%d", b.seq)
		b.seq++
		if _, taken := b.g.nodes[label]; !taken {
			b.g.splits++
			return label
		}
	}
}

// link materialises arcs from the surviving edge set.
func (b *builder) link() {
	for _, e := range b.edges {
		if e.dead {
			continue
		}
		a, c := b.g.nodes[e.a], b.g.nodes[e.b]
		cost := planar.Distance(a.Point, c.Point)
		a.Arcs = append(a.Arcs, Arc{To: c.Label, Cost: cost, Kind: ArcWalk})
		c.Arcs = append(c.Arcs, Arc{To: a.Label, Cost: cost, Kind: ArcWalk})
	}
	for _, n := range b.g.nodes {
		sortArcs(n.Arcs)
	}
}

func sortArcs(arcs []Arc) {
	slices.SortFunc(arcs, func(x, y Arc) int {
		switch {
		case x.To < y.To:
			return -1
		case x.To > y.To:
			return 1
		}
		return int(x.Kind) - int(y.Kind)
	})
}

// project returns the orthogonal projection of p onto segment ab and the
// unclamped segment parameter t. Degenerate segments project onto a.
func project(a, b, p orb.Point) (orb.Point, float64) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return a, 0
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	return orb.Point{a[0] + t*dx, a[1] + t*dy}, t
}

// buildSegments groups nodes by parent label. A segment's endpoints are the
// two members farthest apart.
func buildSegments(f floor.Floor, nodes map[string]*Node) map[string]*Segment {
	segs := make(map[string]*Segment)
	for _, n := range nodes {
		if n.Parent == "" {
			continue
		}
		s, ok := segs[n.Parent]
		if !ok {
			s = &Segment{Key: n.Parent, Floor: f}
			segs[n.Parent] = s
		}
		s.Members = append(s.Members, n.Label)
	}
	for _, s := range segs {
		slices.Sort(s.Members)
		s.A = nodes[s.Members[0]].Point
		s.B = s.A
		best := -1.0
		for i := range s.Members {
			for j := i + 1; j < len(s.Members); j++ {
				p, q := nodes[s.Members[i]].Point, nodes[s.Members[j]].Point
				if d := planar.Distance(p, q); d > best {
					best, s.A, s.B = d, p, q
				}
			}
		}
	}
	return segs
}
