package route

import (
	"strings"

	"github.com/matzehuels/wayfinder/pkg/errors"
	"github.com/matzehuels/wayfinder/pkg/graph"
)

// Mode is the travel mode of a route request.
type Mode int

const (
	// ModeEscalator prefers escalators and never enters elevators.
	ModeEscalator Mode = iota
	// ModeElevator prefers elevators and never enters escalators.
	ModeElevator
)

// ParseMode parses "escalator" or "elevator" (case-insensitive). The empty
// string selects the default escalator mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "escalator":
		return ModeEscalator, nil
	case "elevator", "lift":
		return ModeElevator, nil
	}
	return ModeEscalator, errors.New(errors.ErrCodeInvalidMode, "unknown travel mode %q (want escalator or elevator)", s)
}

func (m Mode) String() string {
	if m == ModeElevator {
		return "elevator"
	}
	return "escalator"
}

// Connector returns the connector kind the mode travels with.
func (m Mode) Connector() graph.ConnectorKind {
	if m == ModeElevator {
		return graph.Elevator
	}
	return graph.Escalator
}

// excludes reports whether nodes of connector kind k are off limits.
func (m Mode) excludes(k graph.ConnectorKind) bool {
	return k != 0 && k != m.Connector()
}

// MarshalText encodes the mode name.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
