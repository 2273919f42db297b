package pipeline

import (
	"strings"

	"github.com/matzehuels/wayfinder/pkg/directions"
	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/floorplan"
	"github.com/matzehuels/wayfinder/pkg/graph"
)

// Place is a routable destination as listed to users.
type Place struct {
	Label string              `json:"label"`
	Name  string              `json:"name"`
	Floor floor.Floor         `json:"floor"`
	Kind  floorplan.PlaceKind `json:"kind"`
}

// Places lists every place entrance of g in label order.
func Places(g *graph.Global) []Place {
	nodes := g.Places()
	out := make([]Place, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Place{
			Label: n.Label,
			Name:  directions.Name(n.Location()),
			Floor: n.Floor,
			Kind:  n.Place,
		})
	}
	return out
}

// Resolve maps a user query to a graph label. It accepts, in order:
//
//   - a qualified label ("l1:zara")
//   - a raw label, optionally floor-prefixed, unique across floors ("zara")
//   - a display name of a place, case-insensitive ("Zara Home")
//
// When several nodes match, place entrances win over other nodes. A query
// still matching more than one node is rejected as ambiguous.
func Resolve(g *graph.Global, query string) (string, error) {
	if err := errors.ValidateLabel(query); err != nil {
		return "", err
	}
	if _, ok := g.Node(query); ok {
		return query, nil
	}

	want := floor.Floor(0)
	term := query
	if f, raw, err := floor.SplitLabel(query); err == nil {
		want, term = f, raw
	}

	var byLabel, byName []*graph.Node
	for _, n := range g.Nodes() {
		if want.Valid() && n.Floor != want {
			continue
		}
		_, raw, err := floor.SplitLabel(n.Label)
		if err == nil && raw == term {
			byLabel = append(byLabel, n)
			continue
		}
		if n.Type == floorplan.Center && strings.EqualFold(directions.Name(n.Location()), term) {
			byName = append(byName, n)
		}
	}
	for _, set := range [][]*graph.Node{byLabel, byName} {
		if len(set) == 0 {
			continue
		}
		return pick(query, set)
	}
	return "", errors.New(errors.ErrCodeMissingLabel, "no location matches %q", query)
}

func pick(query string, set []*graph.Node) (string, error) {
	if len(set) == 1 {
		return set[0].Label, nil
	}
	var centers []*graph.Node
	for _, n := range set {
		if n.Type == floorplan.Center {
			centers = append(centers, n)
		}
	}
	if len(centers) == 1 {
		return centers[0].Label, nil
	}
	if len(centers) > 1 {
		set = centers
	}
	labels := make([]string, len(set))
	for i, n := range set {
		labels[i] = n.Label
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "%q is ambiguous: %s", query, strings.Join(labels, ", "))
}
