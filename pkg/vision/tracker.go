package vision

import (
	"fmt"
	"math"

	"github.com/gwillem/armctl/pkg/robot"
)

// Behavior selects what the arm does with a detection.
type Behavior int

const (
	// Trace turns the base and wrist to keep the target centered.
	Trace Behavior = iota
	// Clamp traces and also closes the gripper on a near target.
	Clamp
)

func (b Behavior) String() string {
	if b == Clamp {
		return "clamp"
	}
	return "trace"
}

// ParseBehavior parses "trace" or "clamp".
func ParseBehavior(s string) (Behavior, error) {
	switch s {
	case "trace":
		return Trace, nil
	case "clamp":
		return Clamp, nil
	}
	return Trace, fmt.Errorf("unknown vision behavior %q", s)
}

// TrackerOptions tunes a Tracker. Zero fields take the defaults below.
type TrackerOptions struct {
	Behavior Behavior
	Home     robot.Angles
	CenterX  int     // frame center, default 80
	CenterY  int     // default 60
	Gain     float64 // degrees per pixel of offset, default 0.1
	Deadband int     // pixels, default 8

	GripOpen   int   // default 90
	GripClosed int   // default 150
	GripWidth  uint8 // box width that closes the gripper, default 60

	LostFrames int // misses before returning home, default 10
}

func (o *TrackerOptions) setDefaults() {
	if o.CenterX == 0 {
		o.CenterX = 80
	}
	if o.CenterY == 0 {
		o.CenterY = 60
	}
	if o.Gain == 0 {
		o.Gain = 0.1
	}
	if o.Deadband == 0 {
		o.Deadband = 8
	}
	if o.GripOpen == 0 {
		o.GripOpen = 90
	}
	if o.GripClosed == 0 {
		o.GripClosed = 150
	}
	if o.GripWidth == 0 {
		o.GripWidth = 60
	}
	if o.LostFrames == 0 {
		o.LostFrames = 10
	}
}

// Tracker keeps the pose that follows the target.
type Tracker struct {
	opts    TrackerOptions
	pose    robot.Angles
	misses  int
	tracked bool
}

// NewTracker starts at opts.Home.
func NewTracker(opts TrackerOptions) *Tracker {
	opts.setDefaults()
	t := &Tracker{opts: opts, pose: opts.Home}
	if opts.Behavior == Clamp {
		t.pose[robot.Gripper] = opts.GripOpen
	}
	return t
}

// Pose returns the current pose.
func (t *Tracker) Pose() robot.Angles {
	return t.pose
}

// Update folds one detection into the pose. It reports true when the pose
// should be sent: on the first detection, on every change, and when the
// target has been lost for LostFrames reads and the arm goes home.
func (t *Tracker) Update(b Blob) (robot.Angles, bool) {
	if !b.Found() {
		if !t.tracked {
			return t.pose, false
		}
		t.misses++
		if t.misses < t.opts.LostFrames {
			return t.pose, false
		}
		t.tracked = false
		t.pose = NewTracker(t.opts).pose
		return t.pose, true
	}

	first := !t.tracked
	t.tracked = true
	t.misses = 0
	prev := t.pose

	x, y := b.Center()
	if dx := x - t.opts.CenterX; abs(dx) > t.opts.Deadband {
		t.pose[robot.Base] = clampAngle(t.pose[robot.Base] - t.step(dx))
	}
	if dy := y - t.opts.CenterY; abs(dy) > t.opts.Deadband {
		t.pose[robot.Wrist] = clampAngle(t.pose[robot.Wrist] + t.step(dy))
	}
	if t.opts.Behavior == Clamp {
		if b.W >= t.opts.GripWidth {
			t.pose[robot.Gripper] = t.opts.GripClosed
		} else {
			t.pose[robot.Gripper] = t.opts.GripOpen
		}
	}
	return t.pose, first || t.pose != prev
}

func (t *Tracker) step(offset int) int {
	s := int(math.Round(t.opts.Gain * float64(offset)))
	if s == 0 {
		if offset > 0 {
			return 1
		}
		return -1
	}
	return s
}

func clampAngle(deg int) int {
	return min(max(deg, 0), robot.MaxAngle)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
