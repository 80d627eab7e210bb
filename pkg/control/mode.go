package control

import "github.com/gwillem/armctl/pkg/indicator"

// Mode selects which source supplies the raw target angles. It is one of
// KnobMode, HostMode, ActionGroupMode or ExtendedMode.
type Mode interface {
	isMode()
	String() string
}

// KnobMode follows the potentiometers. It is the initial mode.
type KnobMode struct{}

// HostMode follows the host command stream.
type HostMode struct{}

// ActionGroupMode follows the action player.
type ActionGroupMode struct {
	Loop bool
}

// ExtendedMode follows programmatic angles, optionally from a preset group.
type ExtendedMode struct {
	Preset string
}

func (KnobMode) isMode()        {}
func (HostMode) isMode()        {}
func (ActionGroupMode) isMode() {}
func (ExtendedMode) isMode()    {}

func (KnobMode) String() string { return "knob" }
func (HostMode) String() string { return "host" }

func (m ActionGroupMode) String() string {
	if m.Loop {
		return "action-group(loop)"
	}
	return "action-group"
}

func (m ExtendedMode) String() string {
	if m.Preset != "" {
		return "extended(" + m.Preset + ")"
	}
	return "extended"
}

// statusFor returns the indicator status shown while m is active.
func statusFor(m Mode) indicator.Status {
	switch m.(type) {
	case KnobMode:
		return indicator.Ready
	case HostMode:
		return indicator.Host
	case ActionGroupMode:
		return indicator.Playing
	case ExtendedMode:
		return indicator.Extended
	}
	panic("control: unhandled mode " + m.String())
}
