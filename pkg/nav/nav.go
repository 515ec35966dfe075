// Package nav implements the reactive navigation loops: following a person
// with voice-triggered stop, and approaching whoever raises a hand.
//
// Both loops issue non-blocking goals every tick; later goals supersede
// earlier ones, which makes each loop a continuous pursuit controller
// rather than a waypoint planner. The loops are mutually exclusive by
// application convention: callers must not run both at once.
package nav

import (
	"math"
	"time"

	"github.com/walkielabs/go-walkie/pkg/geometry"
)

// Loop parameters.
const (
	// TickInterval is the sleep between control iterations.
	TickInterval = 100 * time.Millisecond

	// FollowStopDistance is the standoff kept from a followed person.
	FollowStopDistance = 0.7 // meters

	// ApproachDistance ends the raised-hand approach when reached.
	ApproachDistance = 0.7 // meters

	// RaisedHandTimeout bounds the raised-hand search.
	RaisedHandTimeout = 60 * time.Second

	// listenWindow and listenMinSpeech parameterize each voice capture.
	listenWindow    = 5 * time.Second
	listenMinSpeech = 1 * time.Second

	// listenRetryBackoff delays the next capture after a listener error.
	listenRetryBackoff = 500 * time.Millisecond
)

// StandoffGoal computes the point standoff meters from target along the
// target→robot line, with a heading that faces the target. This keeps the
// robot on its current side of the target instead of pushing through it.
func StandoffGoal(target [3]float64, robot geometry.Pose2D, standoff float64) (x, y, heading float64) {
	dx := robot.X - target[0]
	dy := robot.Y - target[1]
	dist := math.Hypot(dx, dy)

	if dist == 0 {
		// Robot is on top of the target; hold position, keep heading.
		return robot.X, robot.Y, robot.Heading
	}

	ratio := standoff / dist
	x = target[0] + dx*ratio
	y = target[1] + dy*ratio
	heading = math.Atan2(-dy, -dx)
	return x, y, heading
}
