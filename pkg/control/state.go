package control

import "github.com/gwillem/armctl/pkg/robot"

// ControllerState is the shared per-channel angle state. Each array has a
// single writer; the filter task reads the one selected by Mode.
type ControllerState struct {
	Mode Mode

	Knob     robot.Angles
	Command  robot.Angles
	Action   robot.Angles
	Extended robot.Angles

	// RGB holds the host's pending light color until a light-apply command.
	RGB [3]uint8
}

// NewControllerState starts in KnobMode with every source at initial.
func NewControllerState(initial robot.Angles) *ControllerState {
	return &ControllerState{
		Mode:     KnobMode{},
		Knob:     initial,
		Command:  initial,
		Action:   initial,
		Extended: initial,
	}
}

// RawTargets returns the angles of the authoritative source.
func (s *ControllerState) RawTargets() robot.Angles {
	switch s.Mode.(type) {
	case KnobMode:
		return s.Knob
	case HostMode:
		return s.Command
	case ActionGroupMode:
		return s.Action
	case ExtendedMode:
		return s.Extended
	}
	panic("control: unhandled mode " + s.Mode.String())
}
