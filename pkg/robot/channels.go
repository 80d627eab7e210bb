// Package robot provides abstractions for the six servo channels of the arm
// and the hardware back-ends that drive them.
package robot

import "fmt"

// NumChannels is the number of servo channels on the arm.
const NumChannels = 6

// MaxAngle is the upper bound of every servo channel in degrees.
const MaxAngle = 180

// Channel identifies a servo channel by index 0-5.
type Channel int

// Channels of the arm, in servo order.
const (
	Base Channel = iota
	Shoulder
	Elbow
	Wrist
	WristRoll
	Gripper
)

var channelNames = [NumChannels]string{
	"base",
	"shoulder",
	"elbow",
	"wrist",
	"wrist_roll",
	"gripper",
}

// String returns the channel name.
func (c Channel) String() string {
	if c < 0 || int(c) >= NumChannels {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// Valid reports whether c is one of the arm's channels.
func (c Channel) Valid() bool {
	return c >= 0 && int(c) < NumChannels
}

// AllChannels returns all channels in order (matching servo IDs 1-6).
func AllChannels() []Channel {
	return []Channel{
		Base,
		Shoulder,
		Elbow,
		Wrist,
		WristRoll,
		Gripper,
	}
}

// ChannelByName looks a channel up by its name.
func ChannelByName(name string) (Channel, bool) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), true
		}
	}
	return 0, false
}

// Angles holds one raw angle per channel, in degrees.
type Angles [NumChannels]int

// Uniform returns Angles with every channel set to deg.
func Uniform(deg int) Angles {
	var a Angles
	for i := range a {
		a[i] = deg
	}
	return a
}

// Commands holds one actuator command per channel, in degrees.
type Commands [NumChannels]float64
