// Package filter turns raw target angles into smoothed actuator commands.
//
// Each channel is an independent first-order IIR low-pass:
//
//	filtered = filtered*alpha + raw*(1-alpha)
//
// The filtered angle is kept inside [0, 180] and inside the channel's limit
// range, if one is configured. Mirrored channels are driven with
// 180 - filtered.
package filter

import "github.com/gwillem/armctl/pkg/robot"

// DefaultAlpha is the smoothing factor used when none is configured.
const DefaultAlpha = 0.85

// Options configures a Filter.
type Options struct {
	// Alpha is the weight of the previous value, in [0, 1). Values outside
	// that range select DefaultAlpha.
	Alpha    float64
	Mirrored [robot.NumChannels]bool
	Limits   [robot.NumChannels]*robot.LimitRange
	Initial  robot.Angles
}

// Filter smooths the six channels.
type Filter struct {
	alpha    float64
	mirrored [robot.NumChannels]bool
	limits   [robot.NumChannels]*robot.LimitRange
	angles   [robot.NumChannels]float64
}

// New creates a Filter starting at opts.Initial.
func New(opts Options) *Filter {
	f := &Filter{
		alpha:    opts.Alpha,
		mirrored: opts.Mirrored,
		limits:   opts.Limits,
	}
	if f.alpha < 0 || f.alpha >= 1 {
		f.alpha = DefaultAlpha
	}
	f.Reset(opts.Initial)
	return f
}

// Alpha returns the smoothing factor in use.
func (f *Filter) Alpha() float64 {
	return f.alpha
}

// Reset sets every filtered angle directly, bypassing smoothing.
func (f *Filter) Reset(angles robot.Angles) {
	for i, a := range angles {
		f.angles[i] = f.clamp(robot.Channel(i), float64(a))
	}
}

// Update feeds one raw target into a channel and returns its actuator command.
func (f *Filter) Update(ch robot.Channel, raw int) float64 {
	if !ch.Valid() {
		return 0
	}
	target := f.clamp(ch, float64(raw))
	f.angles[ch] = f.clamp(ch, f.angles[ch]*f.alpha+target*(1-f.alpha))
	return f.Command(ch)
}

// Step updates every channel and returns the actuator commands.
func (f *Filter) Step(raw robot.Angles) robot.Commands {
	var cmds robot.Commands
	for _, ch := range robot.AllChannels() {
		cmds[ch] = f.Update(ch, raw[ch])
	}
	return cmds
}

// Angle returns the filtered angle of a channel.
func (f *Filter) Angle(ch robot.Channel) float64 {
	if !ch.Valid() {
		return 0
	}
	return f.angles[ch]
}

// Angles returns all filtered angles.
func (f *Filter) Angles() [robot.NumChannels]float64 {
	return f.angles
}

// Rounded returns the filtered angles rounded to whole degrees.
func (f *Filter) Rounded() robot.Angles {
	var out robot.Angles
	for i, a := range f.angles {
		out[i] = int(a + 0.5)
	}
	return out
}

// Command returns the actuator command of a channel without updating it.
func (f *Filter) Command(ch robot.Channel) float64 {
	if !ch.Valid() {
		return 0
	}
	cmd := f.angles[ch]
	if f.mirrored[ch] {
		cmd = robot.MaxAngle - cmd
	}
	return clampDegrees(cmd)
}

// Commands returns the actuator commands of all channels.
func (f *Filter) Commands() robot.Commands {
	var cmds robot.Commands
	for _, ch := range robot.AllChannels() {
		cmds[ch] = f.Command(ch)
	}
	return cmds
}

func (f *Filter) clamp(ch robot.Channel, deg float64) float64 {
	deg = clampDegrees(deg)
	if r := f.limits[ch]; r != nil {
		deg = r.Clamp(deg)
	}
	return deg
}

func clampDegrees(deg float64) float64 {
	if deg < 0 {
		return 0
	}
	if deg > robot.MaxAngle {
		return robot.MaxAngle
	}
	return deg
}
