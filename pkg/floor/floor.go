// Package floor enumerates the building levels known to wayfinder.
//
// Every floor carries its canonical label prefix, a display name and its
// numeric level as data. Floor-qualified labels have the form
// "<prefix>:<label>" (for example "g:zara"); [Parse] and [SplitLabel] are the
// only places where prefixes are interpreted.
package floor

import (
	"fmt"
	"strings"
)

// Floor identifies one building level. The zero value is invalid.
type Floor int

const (
	invalid Floor = iota
	// LowerGround is the level below the street entrance.
	LowerGround
	// Ground is the street-level floor.
	Ground
	// First is the first floor above ground.
	First
	// Second is the second floor above ground.
	Second
	// Third is the third floor above ground.
	Third
)

// Separator joins a floor prefix and a raw label.
const Separator = ":"

type info struct {
	prefix string
	name   string
	level  int
}

var floors = [...]info{
	invalid:     {},
	LowerGround: {prefix: "lg", name: "Lower Ground", level: -1},
	Ground:      {prefix: "g", name: "Ground Floor", level: 0},
	First:       {prefix: "l1", name: "Level 1", level: 1},
	Second:      {prefix: "l2", name: "Level 2", level: 2},
	Third:       {prefix: "l3", name: "Level 3", level: 3},
}

var byPrefix = func() map[string]Floor {
	m := make(map[string]Floor, len(floors))
	for f := LowerGround; f <= Third; f++ {
		m[floors[f].prefix] = f
	}
	return m
}()

// All returns every valid floor ordered from the lowest level upwards.
func All() []Floor {
	return []Floor{LowerGround, Ground, First, Second, Third}
}

// Parse maps a canonical prefix (case-insensitive) to its floor.
func Parse(prefix string) (Floor, error) {
	if f, ok := byPrefix[strings.ToLower(strings.TrimSpace(prefix))]; ok {
		return f, nil
	}
	return invalid, fmt.Errorf("unknown floor prefix %q", prefix)
}

// Valid reports whether f is one of the enumerated floors.
func (f Floor) Valid() bool { return f >= LowerGround && f <= Third }

// Prefix returns the canonical label prefix ("g", "l1", ...).
func (f Floor) Prefix() string {
	if !f.Valid() {
		return ""
	}
	return floors[f].prefix
}

// Name returns the human-readable floor name.
func (f Floor) Name() string {
	if !f.Valid() {
		return "unknown floor"
	}
	return floors[f].name
}

// Level returns the numeric level, 0 being the ground floor.
func (f Floor) Level() int {
	if !f.Valid() {
		return 0
	}
	return floors[f].level
}

// String implements fmt.Stringer using the prefix.
func (f Floor) String() string {
	if !f.Valid() {
		return "invalid"
	}
	return floors[f].prefix
}

// LevelDiff returns the absolute number of levels between f and g.
func (f Floor) LevelDiff(g Floor) int {
	d := f.Level() - g.Level()
	if d < 0 {
		return -d
	}
	return d
}

// Qualify returns the floor-qualified form of a raw label.
func (f Floor) Qualify(label string) string {
	return f.Prefix() + Separator + label
}

// SplitLabel is the inverse of [Floor.Qualify].
func SplitLabel(qualified string) (Floor, string, error) {
	prefix, raw, ok := strings.Cut(qualified, Separator)
	if !ok {
		return invalid, "", fmt.Errorf("label %q is not floor-qualified", qualified)
	}
	f, err := Parse(prefix)
	if err != nil {
		return invalid, "", err
	}
	return f, raw, nil
}

// MarshalText encodes the floor as its prefix.
func (f Floor) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid floor %d", int(f))
	}
	return []byte(f.Prefix()), nil
}

// UnmarshalText decodes a floor prefix.
func (f *Floor) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
