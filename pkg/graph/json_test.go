package graph

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/wayfinder/pkg/floor"
	"github.com/matzehuels/wayfinder/pkg/floorplan"
)

func TestGlobalJSONRoundTrip(t *testing.T) {
	table := ConnectorTable{}
	table.Add("escalator_mid", Escalator, "esc_g", "esc_l1")
	g, _, err := BuildGlobal([]*floorplan.Plan{
		landingPlan(floor.Ground, "esc_g"),
		landingPlan(floor.First, "esc_l1"),
	}, table, Options{SplitThreshold: 30, FloorChangeCost: 2})
	if err != nil {
		t.Fatal(err)
	}

	data, err := g.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	got, err := UnmarshalGlobal(data)
	if err != nil {
		t.Fatalf("UnmarshalGlobal: %v", err)
	}

	if !reflect.DeepEqual(got.Labels(), g.Labels()) {
		t.Errorf("labels = %v, want %v", got.Labels(), g.Labels())
	}
	if !reflect.DeepEqual(got.Floors(), g.Floors()) {
		t.Errorf("floors = %v, want %v", got.Floors(), g.Floors())
	}
	if got.VerticalArcCount() != g.VerticalArcCount() {
		t.Errorf("vertical arcs = %d, want %d", got.VerticalArcCount(), g.VerticalArcCount())
	}
	for _, n := range g.Nodes() {
		m, _ := got.Node(n.Label)
		if !reflect.DeepEqual(m, n) {
			t.Errorf("node %s = %+v, want %+v", n.Label, m, n)
		}
	}
	seg, ok := got.Segment("l1:corridor")
	if !ok || len(seg.Members) != 2 {
		t.Errorf("segment l1:corridor = %+v", seg)
	}
}

func TestUnmarshalGlobalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"Malformed", `{"nodes": [`, "decode graph"},
		{
			name: "DanglingArc",
			data: `{"floors":["g"],"nodes":[{"label":"g:a","floor":"g","x":0,"y":0,"type":"path-point","place":"path","arcs":[{"to":"g:b","cost":1}]}]}`,
			want: "unknown node",
		},
		{
			name: "DuplicateLabel",
			data: `{"floors":["g"],"nodes":[{"label":"g:a","floor":"g","type":"path-point","place":"path"},{"label":"g:a","floor":"g","type":"path-point","place":"path"}]}`,
			want: "duplicate label",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalGlobal([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
