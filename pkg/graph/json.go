package graph

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/paulmach/orb"

	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/floorplan"
)

type globalJSON struct {
	Floors   []floor.Floor `json:"floors"`
	Nodes    []nodeJSON    `json:"nodes"`
	Segments []segmentJSON `json:"segments,omitempty"`
}

type nodeJSON struct {
	Label       string              `json:"label"`
	Floor       floor.Floor         `json:"floor"`
	X           float64             `json:"x"`
	Y           float64             `json:"y"`
	Type        floorplan.NodeType  `json:"type"`
	Parent      string              `json:"parent,omitempty"`
	Place       floorplan.PlaceKind `json:"place"`
	ConnectorID string              `json:"connector_id,omitempty"`
	Connector   *connectorJSON      `json:"connector,omitempty"`
	Trigger     string              `json:"trigger,omitempty"`
	Arcs        []arcJSON           `json:"arcs,omitempty"`
}

type connectorJSON struct {
	Key  string        `json:"key"`
	Kind ConnectorKind `json:"kind"`
}

type arcJSON struct {
	To   string  `json:"to"`
	Cost float64 `json:"cost"`
	Kind ArcKind `json:"kind,omitempty"`
}

type segmentJSON struct {
	Key     string      `json:"key"`
	Floor   floor.Floor `json:"floor"`
	A       [2]float64  `json:"a"`
	B       [2]float64  `json:"b"`
	Members []string    `json:"members"`
}

// MarshalJSON encodes the graph with nodes and segments in label order.
func (g *Global) MarshalJSON() ([]byte, error) {
	out := globalJSON{
		Floors: g.floors,
		Nodes:  make([]nodeJSON, 0, len(g.nodes)),
	}
	for _, n := range g.Nodes() {
		nj := nodeJSON{
			Label: n.Label, Floor: n.Floor, X: n.Point.X(), Y: n.Point.Y(),
			Type: n.Type, Parent: n.Parent, Place: n.Place,
			ConnectorID: n.ConnectorID, Trigger: n.Trigger,
		}
		if n.Connector != nil {
			nj.Connector = &connectorJSON{Key: n.Connector.Key, Kind: n.Connector.Kind}
		}
		for _, a := range n.Arcs {
			nj.Arcs = append(nj.Arcs, arcJSON{To: a.To, Cost: a.Cost, Kind: a.Kind})
		}
		out.Nodes = append(out.Nodes, nj)
	}
	for _, key := range sortedKeys(g.segments) {
		s := g.segments[key]
		out.Segments = append(out.Segments, segmentJSON{
			Key: s.Key, Floor: s.Floor, A: s.A, B: s.B, Members: s.Members,
		})
	}
	return json.Marshal(out)
}

// UnmarshalGlobal decodes a graph produced by [Global.MarshalJSON] and checks
// that every arc points at a known node.
func UnmarshalGlobal(data []byte) (*Global, error) {
	var in globalJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	g := &Global{index: newIndex(), floors: in.Floors}
	for _, nj := range in.Nodes {
		if _, dup := g.nodes[nj.Label]; dup {
			return nil, fmt.Errorf("decode graph: duplicate label %q", nj.Label)
		}
		n := &Node{
			Label: nj.Label, Floor: nj.Floor, Point: orb.Point{nj.X, nj.Y},
			Type: nj.Type, Parent: nj.Parent, Place: nj.Place,
			ConnectorID: nj.ConnectorID, Trigger: nj.Trigger,
		}
		if nj.Connector != nil {
			n.Connector = &Connector{Key: nj.Connector.Key, Kind: nj.Connector.Kind}
		}
		for _, a := range nj.Arcs {
			n.Arcs = append(n.Arcs, Arc{To: a.To, Cost: a.Cost, Kind: a.Kind})
			if a.Kind == ArcVertical {
				g.vertical++
			}
		}
		g.nodes[n.Label] = n
	}
	for _, n := range g.nodes {
		for _, a := range n.Arcs {
			if _, ok := g.nodes[a.To]; !ok {
				return nil, fmt.Errorf("decode graph: arc %s -> %s points at unknown node", n.Label, a.To)
			}
		}
	}
	for _, sj := range in.Segments {
		g.segments[sj.Key] = &Segment{Key: sj.Key, Floor: sj.Floor, A: sj.A, B: sj.B, Members: sj.Members}
	}
	return g, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
