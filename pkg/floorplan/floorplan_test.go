package floorplan

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/wayfinder/pkg/floor"
)

const groundAsset = `{
  "floor": "g",
  "nodes": [
    {"id": "p1", "x": 0, "y": 0, "type": "path-point"},
    {"id": "p2", "x": 100, "y": 0},
    {"id": "z", "x": 50, "y": 20, "type": "circle-center", "label": "zara", "parent": "zara"},
    {"id": "z1", "x": 60, "y": 20, "type": "ellipse-point", "parent": "zara"},
    {"id": "t", "x": 90, "y": 30, "type": "rect-corner", "parent": "toilet_north"}
  ],
  "edges": [
    {"from": "p1", "to": "p2"},
    {"from": "z", "to": "z1", "type": "storepath"}
  ]
}`

func TestReadJSON(t *testing.T) {
	p, err := ReadJSON(strings.NewReader(groundAsset))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if p.Floor != floor.Ground {
		t.Errorf("Floor = %v, want g", p.Floor)
	}
	if p.NodeCount() != 5 || p.EdgeCount() != 2 {
		t.Fatalf("counts = %d/%d, want 5/2", p.NodeCount(), p.EdgeCount())
	}

	byID := map[string]Node{}
	for _, n := range p.Nodes {
		byID[n.ID] = n
	}
	if byID["p2"].Type != PathPoint {
		t.Errorf("default type = %v, want path-point", byID["p2"].Type)
	}
	if byID["z"].Type != Center || byID["z"].Key() != "zara" {
		t.Errorf("z = %+v", byID["z"])
	}
	if byID["z1"].Type != Boundary || byID["z1"].Key() != "z1" {
		t.Errorf("z1 = %+v", byID["z1"])
	}
	if byID["z"].Place != PlaceStore {
		t.Errorf("zara place = %v, want store", byID["z"].Place)
	}
	if byID["t"].Place != PlaceFacility {
		t.Errorf("toilet place = %v, want facility", byID["t"].Place)
	}
	if p.Edges[1].Type != Storepath {
		t.Errorf("edge type = %v, want storepath", p.Edges[1].Type)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"malformed", `{"floor": "g", "nodes": [`, nil},
		{"unknown floor", `{"floor": "x", "nodes": []}`, nil},
		{"unknown type", `{"floor": "g", "nodes": [{"id": "a", "type": "hexagon"}]}`, nil},
		{"empty id", `{"floor": "g", "nodes": [{"id": ""}]}`, ErrEmptyNodeID},
		{"duplicate", `{"floor": "g", "nodes": [{"id": "a"}, {"id": "a"}]}`, ErrDuplicateNodeID},
		{"dangling edge", `{"floor": "g", "nodes": [{"id": "a"}], "edges": [{"from": "a", "to": "b"}]}`, ErrUnknownEndpoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestImportJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ground.json")
	if err := os.WriteFile(path, []byte(groundAsset), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if p.NodeCount() != 5 {
		t.Errorf("NodeCount = %d", p.NodeCount())
	}

	if _, err := ImportJSON(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	p, err := ReadJSON(strings.NewReader(groundAsset))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, p); err != nil {
		t.Fatal(err)
	}
	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if back.NodeCount() != p.NodeCount() || back.EdgeCount() != p.EdgeCount() {
		t.Errorf("round trip changed counts")
	}
	if back.Nodes[2].Type != Center {
		t.Errorf("type lost in round trip: %v", back.Nodes[2].Type)
	}
}

func TestClassifyPlace(t *testing.T) {
	tests := []struct {
		parent, category string
		want             PlaceKind
	}{
		{"", "", PlacePath},
		{"zara", "", PlaceStore},
		{"escalator_mid_g_to_l1", "", PlaceEscalator},
		{"Lift-2", "", PlaceElevator},
		{"central_atrium", "", PlaceAtrium},
		{"storepath_zara", "", PlaceStorepath},
		{"corridor_east", "", PlacePath},
		{"batman_store", "", PlaceStore},
		{"zara", "facility", PlaceFacility},
		{"zara", "nonsense", PlaceStore},
	}
	for _, tt := range tests {
		t.Run(tt.parent+"/"+tt.category, func(t *testing.T) {
			if got := ClassifyPlace(tt.parent, tt.category); got != tt.want {
				t.Errorf("ClassifyPlace(%q, %q) = %v, want %v", tt.parent, tt.category, got, tt.want)
			}
		})
	}
}
