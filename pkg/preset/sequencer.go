package preset

import (
	"time"

	"github.com/gwillem/armctl/pkg/robot"
)

// Sequencer steps through a Group, holding each pose for its duration.
// After the last pose has been held it stops; the last pose stays current.
type Sequencer struct {
	group   Group
	idx     int
	nextAt  time.Time
	running bool
	pose    robot.Angles
}

// Start begins playing g at now.
func (s *Sequencer) Start(g Group, now time.Time) {
	s.group = g
	s.idx = 0
	s.nextAt = now
	s.running = len(g.Poses) > 0
}

// Stop ends playback.
func (s *Sequencer) Stop() {
	s.running = false
}

// Running reports whether a group is playing.
func (s *Sequencer) Running() bool {
	return s.running
}

// Group returns the group being played.
func (s *Sequencer) Group() Group {
	return s.group
}

// Pose returns the current pose.
func (s *Sequencer) Pose() robot.Angles {
	return s.pose
}

// Tick advances playback. It returns true when a new pose was emitted.
func (s *Sequencer) Tick(now time.Time) bool {
	if !s.running || now.Before(s.nextAt) {
		return false
	}
	if s.idx >= len(s.group.Poses) {
		s.running = false
		return false
	}
	p := s.group.Poses[s.idx]
	s.pose = p.Target()
	s.nextAt = now.Add(p.Hold())
	s.idx++
	return true
}
