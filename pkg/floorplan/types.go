package floorplan

import (
	"fmt"
	"strings"
)

// NodeType is the geometric role of a node.
type NodeType int

const (
	// PathPoint is a point on a walkway polyline.
	PathPoint NodeType = iota
	// Center is the centre of a place's circle or ellipse; it acts as the
	// place's entrance.
	Center
	// Boundary is a point on a place outline. Boundary points only anchor
	// geometry and are never routed through.
	Boundary
	// RectCorner is a corner of a rectangular place outline.
	RectCorner
	// Junction is a synthetic split node created by the graph builder.
	Junction
)

var nodeTypeNames = map[NodeType]string{
	PathPoint:  "path-point",
	Center:     "center",
	Boundary:   "boundary",
	RectCorner: "rect-corner",
	Junction:   "junction",
}

// nodeTypeAliases lists every spelling found in floor assets.
var nodeTypeAliases = map[string]NodeType{
	"":               PathPoint,
	"point":          PathPoint,
	"path-point":     PathPoint,
	"path":           PathPoint,
	"center":         Center,
	"circle-center":  Center,
	"ellipse-center": Center,
	"boundary":       Boundary,
	"circle-point":   Boundary,
	"ellipse-point":  Boundary,
	"rect-corner":    RectCorner,
	"rect-point":     RectCorner,
	"junction":       Junction,
	"split":          Junction,
}

// ParseNodeType maps an asset type string onto a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	if t, ok := nodeTypeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return PathPoint, fmt.Errorf("unknown node type %q", s)
}

func (t NodeType) String() string {
	if s, ok := nodeTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// MarshalText encodes the canonical name.
func (t NodeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText accepts any alias understood by ParseNodeType.
func (t *NodeType) UnmarshalText(b []byte) error {
	v, err := ParseNodeType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// EdgeType tags a raw edge.
type EdgeType int

const (
	// Walkway is a public walkable segment.
	Walkway EdgeType = iota
	// Storepath is a segment privately serving one store's aisle.
	Storepath
	// ConnectorEdge links geometry that belongs to an escalator or elevator.
	ConnectorEdge
)

var edgeTypeNames = map[EdgeType]string{
	Walkway:       "walkway",
	Storepath:     "storepath",
	ConnectorEdge: "connector",
}

// ParseEdgeType maps an asset edge type onto an EdgeType. Unknown or empty
// tags are treated as walkways.
func ParseEdgeType(s string) EdgeType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "storepath", "store-path":
		return Storepath
	case "connector", "escalator", "elevator":
		return ConnectorEdge
	default:
		return Walkway
	}
}

func (t EdgeType) String() string {
	if s, ok := edgeTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("EdgeType(%d)", int(t))
}

// MarshalText encodes the canonical name.
func (t EdgeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes an edge type tag.
func (t *EdgeType) UnmarshalText(b []byte) error {
	*t = ParseEdgeType(string(b))
	return nil
}

// PlaceKind classifies the logical place a node belongs to.
type PlaceKind int

const (
	// PlacePath means the node belongs to no place (plain walkway).
	PlacePath PlaceKind = iota
	PlaceStore
	PlaceFacility
	PlaceAtrium
	PlaceEscalator
	PlaceElevator
	PlaceStorepath
)

var placeNames = map[PlaceKind]string{
	PlacePath:      "path",
	PlaceStore:     "store",
	PlaceFacility:  "facility",
	PlaceAtrium:    "atrium",
	PlaceEscalator: "escalator",
	PlaceElevator:  "elevator",
	PlaceStorepath: "storepath",
}

func (k PlaceKind) String() string {
	if s, ok := placeNames[k]; ok {
		return s
	}
	return fmt.Sprintf("PlaceKind(%d)", int(k))
}

// MarshalText encodes the canonical name.
func (k PlaceKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a canonical place name.
func (k *PlaceKind) UnmarshalText(b []byte) error {
	for kind, name := range placeNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown place kind %q", b)
}

// IsConnector reports whether the place is an escalator or elevator.
func (k PlaceKind) IsConnector() bool { return k == PlaceEscalator || k == PlaceElevator }

// IsLandmark reports whether a place of this kind may be named in directions.
func (k PlaceKind) IsLandmark() bool { return k == PlaceStore || k == PlaceFacility }

// placeKeywords is checked in order; the first keyword matching a token of
// the parent label decides the kind.
var placeKeywords = []struct {
	keyword string
	kind    PlaceKind
}{
	{"storepath", PlaceStorepath},
	{"escalator", PlaceEscalator},
	{"elevator", PlaceElevator},
	{"lift", PlaceElevator},
	{"atrium", PlaceAtrium},
	{"toilet", PlaceFacility},
	{"restroom", PlaceFacility},
	{"washroom", PlaceFacility},
	{"atm", PlaceFacility},
	{"information", PlaceFacility},
	{"info", PlaceFacility},
	{"prayer", PlaceFacility},
	{"nursery", PlaceFacility},
	{"corridor", PlacePath},
	{"walkway", PlacePath},
	{"path", PlacePath},
}

// ClassifyPlace decides the place kind of a node from its parent label and
// optional explicit category. An explicit category always wins.
func ClassifyPlace(parent, category string) PlaceKind {
	if category != "" {
		var k PlaceKind
		if err := k.UnmarshalText([]byte(strings.ToLower(category))); err == nil {
			return k
		}
	}
	if parent == "" {
		return PlacePath
	}
	tokens := labelTokens(parent)
	for _, kw := range placeKeywords {
		for _, tok := range tokens {
			if tok == kw.keyword {
				return kw.kind
			}
		}
	}
	return PlaceStore
}

// labelTokens splits a label on separators and strips trailing digits, so
// "Escalator_Mid2" yields ["escalator", "mid"].
func labelTokens(label string) []string {
	fields := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.' || r == ':'
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimRight(f, "0123456789")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
