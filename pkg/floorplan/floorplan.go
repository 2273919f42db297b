// Package floorplan models the raw per-floor vector graph that wayfinder
// consumes.
//
// A [Plan] is the parsed form of one floor asset: geometry nodes (path
// points, place entrances, outline points, rectangle corners) and the
// walkable edges between them. Plans are decoded once per asset load and are
// not modified afterwards; [graph.Build] turns them into routable graphs.
//
// Free-form type strings from the assets are mapped onto closed enumerations
// ([NodeType], [EdgeType], [PlaceKind]) at decode time so that downstream
// components can switch exhaustively instead of matching substrings.
package floorplan

import (
	"errors"
	"fmt"

	"github.com/matzehuels/wayfinder/pkg/floor"
)

var (
	// ErrEmptyNodeID is returned by [Plan.Validate] when a node has no id.
	ErrEmptyNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Plan.Validate] when two nodes share an id.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownEndpoint is returned by [Plan.Validate] when an edge references
	// a node id that is not part of the plan.
	ErrUnknownEndpoint = errors.New("edge references unknown node")
)

// Node is one geometry node of a floor asset.
//
// RX, RY and Angle describe the ellipse a Center/Boundary node belongs to.
// They are decorative and never used for routing.
type Node struct {
	ID        string
	X, Y      float64
	Type      NodeType
	RX, RY    float64
	Angle     float64
	Label     string // routing label; defaults to ID
	Parent    string // logical place the node belongs to
	Category  string // optional explicit place category
	Connector string // optional vertical-connector identity
	Place     PlaceKind
}

// Key returns the label the node is addressed by in a routable graph.
func (n Node) Key() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is an undirected walkable connection between two nodes.
type Edge struct {
	From string
	To   string
	Type EdgeType
}

// Plan is the raw vector graph of a single floor.
type Plan struct {
	Floor floor.Floor
	Nodes []Node
	Edges []Edge
}

// NodeCount returns the number of raw nodes.
func (p *Plan) NodeCount() int { return len(p.Nodes) }

// EdgeCount returns the number of raw edges.
func (p *Plan) EdgeCount() int { return len(p.Edges) }

// Validate checks structural integrity: non-empty unique ids and edges whose
// endpoints exist. It does not check geometry.
func (p *Plan) Validate() error {
	if !p.Floor.Valid() {
		return fmt.Errorf("plan has no valid floor")
	}
	ids := make(map[string]struct{}, len(p.Nodes))
	for _, n := range p.Nodes {
		if n.ID == "" {
			return ErrEmptyNodeID
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateNodeID)
		}
		ids[n.ID] = struct{}{}
	}
	for _, e := range p.Edges {
		if _, ok := ids[e.From]; !ok {
			return fmt.Errorf("edge %s->%s: %w", e.From, e.To, ErrUnknownEndpoint)
		}
		if _, ok := ids[e.To]; !ok {
			return fmt.Errorf("edge %s->%s: %w", e.From, e.To, ErrUnknownEndpoint)
		}
	}
	return nil
}
