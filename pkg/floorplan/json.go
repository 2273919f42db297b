package floorplan

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/wayfinder/pkg/floor"
)

type planJSON struct {
	Floor floor.Floor `json:"floor"`
	Nodes []nodeJSON  `json:"nodes"`
	Edges []edgeJSON  `json:"edges"`
}

type nodeJSON struct {
	ID        string   `json:"id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Type      NodeType `json:"type"`
	RX        float64  `json:"rx,omitempty"`
	RY        float64  `json:"ry,omitempty"`
	Angle     float64  `json:"angle,omitempty"`
	Label     string   `json:"label,omitempty"`
	Parent    string   `json:"parent,omitempty"`
	Category  string   `json:"category,omitempty"`
	Connector string   `json:"connector,omitempty"`
}

type edgeJSON struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Type EdgeType `json:"type,omitempty"`
}

// ReadJSON decodes one floor asset from r.
//
// The input must be a JSON object with "floor", "nodes" and "edges":
//
//	{
//	  "floor": "g",
//	  "nodes": [{"id": "p1", "x": 0, "y": 0, "type": "path-point"}],
//	  "edges": [{"from": "p1", "to": "p2"}]
//	}
//
// Each node must have an "id". Optional fields: type (defaults to
// path-point), rx, ry, angle, label, parent, category, connector. Edges may
// carry a "type" of walkway (default), storepath or connector.
//
// The place kind of every node is classified during decoding. ReadJSON
// returns an error if the JSON is malformed, a type string is unknown, or
// [Plan.Validate] fails. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Plan, error) {
	var data planJSON
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	p := &Plan{
		Floor: data.Floor,
		Nodes: make([]Node, 0, len(data.Nodes)),
		Edges: make([]Edge, 0, len(data.Edges)),
	}
	for _, n := range data.Nodes {
		p.Nodes = append(p.Nodes, Node{
			ID:        n.ID,
			X:         n.X,
			Y:         n.Y,
			Type:      n.Type,
			RX:        n.RX,
			RY:        n.RY,
			Angle:     n.Angle,
			Label:     n.Label,
			Parent:    n.Parent,
			Category:  n.Category,
			Connector: n.Connector,
			Place:     ClassifyPlace(n.Parent, n.Category),
		})
	}
	for _, e := range data.Edges {
		p.Edges = append(p.Edges, Edge{From: e.From, To: e.To, Type: e.Type})
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ImportJSON reads the floor asset at path.
// Errors wrap the underlying cause with the file path for context.
func ImportJSON(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	p, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// WriteJSON encodes p in the asset schema accepted by [ReadJSON].
func WriteJSON(w io.Writer, p *Plan) error {
	data := planJSON{
		Floor: p.Floor,
		Nodes: make([]nodeJSON, 0, len(p.Nodes)),
		Edges: make([]edgeJSON, 0, len(p.Edges)),
	}
	for _, n := range p.Nodes {
		data.Nodes = append(data.Nodes, nodeJSON{
			ID: n.ID, X: n.X, Y: n.Y, Type: n.Type,
			RX: n.RX, RY: n.RY, Angle: n.Angle,
			Label: n.Label, Parent: n.Parent, Category: n.Category, Connector: n.Connector,
		})
	}
	for _, e := range p.Edges {
		data.Edges = append(data.Edges, edgeJSON{From: e.From, To: e.To, Type: e.Type})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
