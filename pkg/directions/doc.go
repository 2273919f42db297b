// Package directions turns a cleaned route into turn-by-turn instructions.
//
// [Synthesize] splits the route into floor segments and, within each floor,
// into groups of consecutive points sharing a controlling label (the parent
// place, or the node itself). Every change of group is a potential turn:
// the junction is the closest pair of group endpoints, and the signed angle
// between the incoming and outgoing bearings decides the wording.
//
// Coordinates are screen coordinates with y growing downwards, so a positive
// angle is a clockwise turn, which is a turn to the right:
//
//	angle >= 45        turn right
//	30 <= angle < 45   bear right
//	angle <= -45       turn left
//	-45 < angle <= -30 bear left
//	otherwise          continue straight
//
// The first group change on each floor is folded into the exit instruction
// ("Exit from the store and turn right"). Later changes become navigation
// steps, optionally naming a nearby store or facility, until the route
// enters the destination's group, which yields the arrival step. Between
// floors a floor-change step names the connector and the target floor.
//
// # Metrics
//
// Every step carries the cumulative distance and time from the start of the
// route, measured at its anchor point. Walking hops count their Euclidean
// length times Options.MetersPerUnit; hops between floors count
// Options.FloorChangeMeters per level instead, since coordinates of
// different floors are unrelated. Time is distance over the speed of the
// travel mode.
package directions
