package directions

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// turn is a classified change of heading.
type turn int

const (
	straight turn = iota
	bearRight
	turnRight
	bearLeft
	turnLeft
)

// classify maps a signed angle in degrees onto a turn.
func classify(deg float64) turn {
	switch {
	case deg >= 45:
		return turnRight
	case deg >= 30:
		return bearRight
	case deg <= -45:
		return turnLeft
	case deg <= -30:
		return bearLeft
	}
	return straight
}

func (t turn) verb() string {
	switch t {
	case turnRight:
		return "turn right"
	case bearRight:
		return "bear right"
	case turnLeft:
		return "turn left"
	case bearLeft:
		return "bear left"
	}
	return "continue straight"
}

// side is where a place appears after the turn.
func (t turn) side() string {
	switch t {
	case turnRight:
		return "On your right"
	case bearRight:
		return "Slightly to your right"
	case turnLeft:
		return "On your left"
	case bearLeft:
		return "Slightly to your left"
	}
	return ""
}

// arrival phrases the final step for a destination reached after t.
func (t turn) arrival(dest string) string {
	if side := t.side(); side != "" {
		return fmt.Sprintf("%s should be %s", side, dest)
	}
	return fmt.Sprintf("Your destination %s is ahead", dest)
}

func (t turn) icon() Icon {
	switch t {
	case turnRight:
		return IconTurnRight
	case bearRight:
		return IconBearRight
	case turnLeft:
		return IconTurnLeft
	case bearLeft:
		return IconBearLeft
	}
	return IconStraight
}

// signedAngle returns the angle in degrees from heading in to heading out,
// normalised to [-180, 180]. It returns 0 if either vector is degenerate.
func signedAngle(in, out orb.Point) float64 {
	if isZero(in) || isZero(out) {
		return 0
	}
	d := math.Atan2(out[1], out[0]) - math.Atan2(in[1], in[0])
	deg := d * 180 / math.Pi
	for deg > 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}

func sub(a, b orb.Point) orb.Point { return orb.Point{a[0] - b[0], a[1] - b[1]} }

func isZero(v orb.Point) bool { return math.Abs(v[0]) < 1e-9 && math.Abs(v[1]) < 1e-9 }
