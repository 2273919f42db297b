package graph

import (
	"slices"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/floorplan"
)

// ConnectorTable maps raw node labels (or raw connector identities) onto the
// shared key of the physical device they belong to, for example
// "escalator_mid_bw_to_g" → {Key: "escalator_mid_bw", Kind: Escalator}.
type ConnectorTable map[string]Connector

// Add registers labels as landings of the connector key.
func (t ConnectorTable) Add(key string, kind ConnectorKind, labels ...string) {
	for _, l := range labels {
		t[l] = Connector{Key: key, Kind: kind}
	}
}

// resolve finds the connector a raw node belongs to. The label wins over the
// node's own connector identity; an identity missing from the table is used
// as its own key.
func (t ConnectorTable) resolve(rawLabel string, n *Node) (Connector, bool) {
	if c, ok := t[rawLabel]; ok {
		return c, true
	}
	if n.ConnectorID == "" {
		return Connector{}, false
	}
	if c, ok := t[n.ConnectorID]; ok {
		return c, true
	}
	kind := n.ConnectorKind()
	if kind == 0 {
		switch floorplan.ClassifyPlace(n.ConnectorID, "") {
		case floorplan.PlaceEscalator:
			kind = Escalator
		case floorplan.PlaceElevator:
			kind = Elevator
		default:
			return Connector{}, false
		}
	}
	return Connector{Key: n.ConnectorID, Kind: kind}, true
}

// Unify merges per-floor graphs into one global graph.
//
// Labels are floor-qualified, connector landings are tagged through table,
// and every pair of landings sharing a connector key on different floors is
// linked in both directions with cost FloorChangeCost × level difference.
// The input graphs are not modified.
func Unify(floors []*FloorGraph, table ConnectorTable, opts Options) (*Global, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	g := &Global{index: newIndex()}

	seen := make(map[floor.Floor]bool, len(floors))
	for _, fg := range floors {
		if fg == nil {
			continue
		}
		if !fg.Floor.Valid() {
			return nil, errors.New(errors.ErrCodeInvalidFloor, "floor graph has no valid floor")
		}
		if seen[fg.Floor] {
			return nil, errors.New(errors.ErrCodeInvalidFloor, "floor %s supplied twice", fg.Floor)
		}
		seen[fg.Floor] = true
		g.floors = append(g.floors, fg.Floor)
	}
	slices.SortFunc(g.floors, func(a, b floor.Floor) int { return a.Level() - b.Level() })

	groups := make(map[string][]*Node)
	for _, fg := range floors {
		if fg == nil {
			continue
		}
		f := fg.Floor
		for raw, n := range fg.nodes {
			q := cloneQualified(f, n)
			if c, ok := table.resolve(raw, n); ok && n.Type != floorplan.Boundary {
				conn := c
				q.Connector = &conn
				groups[c.Key] = append(groups[c.Key], q)
			}
			g.nodes[q.Label] = q
		}
		for key, s := range fg.segments {
			members := make([]string, len(s.Members))
			for i, m := range s.Members {
				members[i] = f.Qualify(m)
			}
			qk := f.Qualify(key)
			g.segments[qk] = &Segment{Key: qk, Floor: f, A: s.A, B: s.B, Members: members}
		}
	}

	for _, members := range groups {
		for i, a := range members {
			for _, b := range members[i+1:] {
				if a.Floor == b.Floor {
					continue
				}
				cost := opts.FloorChangeCost * float64(a.Floor.LevelDiff(b.Floor))
				if _, dup := a.Neighbor(b.Label); dup {
					continue
				}
				a.Arcs = append(a.Arcs, Arc{To: b.Label, Cost: cost, Kind: ArcVertical})
				b.Arcs = append(b.Arcs, Arc{To: a.Label, Cost: cost, Kind: ArcVertical})
				g.vertical += 2
			}
		}
	}
	for _, n := range g.nodes {
		sortArcs(n.Arcs)
	}
	return g, nil
}

func cloneQualified(f floor.Floor, n *Node) *Node {
	q := *n
	q.Label = f.Qualify(n.Label)
	q.Floor = f
	if n.Parent != "" {
		q.Parent = f.Qualify(n.Parent)
	}
	if n.Trigger != "" {
		q.Trigger = f.Qualify(n.Trigger)
	}
	q.Connector = nil
	q.Arcs = make([]Arc, len(n.Arcs), len(n.Arcs)+1)
	for i, a := range n.Arcs {
		q.Arcs[i] = Arc{To: f.Qualify(a.To), Cost: a.Cost, Kind: a.Kind}
	}
	return &q
}

// FloorFailure records a floor that could not be built.
type FloorFailure struct {
	Floor floor.Floor
	Err   error
}

// BuildGlobal builds every plan and unifies the results.
//
// A plan that fails to build is reported in the returned failures and left
// out of the graph; the load only fails as a whole when no floor builds.
func BuildGlobal(plans []*floorplan.Plan, table ConnectorTable, opts Options) (*Global, []FloorFailure, error) {
	var (
		built    []*FloorGraph
		failures []FloorFailure
	)
	for _, p := range plans {
		fg, err := Build(p, opts)
		if err != nil {
			var f floor.Floor
			if p != nil {
				f = p.Floor
			}
			failures = append(failures, FloorFailure{Floor: f, Err: err})
			continue
		}
		built = append(built, fg)
	}
	if len(built) == 0 {
		if len(failures) > 0 {
			return nil, failures, errors.Wrap(errors.ErrCodeBuildFailed, failures[0].Err, "no floor could be built")
		}
		return nil, nil, errors.New(errors.ErrCodeBuildFailed, "no floor plans supplied")
	}
	g, err := Unify(built, table, opts)
	if err != nil {
		return nil, failures, err
	}
	return g, failures, nil
}
