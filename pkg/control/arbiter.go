package control

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gwillem/armctl/pkg/action"
	"github.com/gwillem/armctl/pkg/filter"
	"github.com/gwillem/armctl/pkg/host"
	"github.com/gwillem/armctl/pkg/indicator"
	"github.com/gwillem/armctl/pkg/input"
	"github.com/gwillem/armctl/pkg/preset"
	"github.com/gwillem/armctl/pkg/robot"
)

// Button indexes.
const (
	RecordButton = 0
	PlayButton   = 1
)

// Arbiter owns every Mode transition. All of its methods run on the
// control loop goroutine.
type Arbiter struct {
	state    *ControllerState
	filter   *filter.Filter
	player   *action.Player
	recorder *action.Recorder
	seq      *preset.Sequencer
	presets  *preset.Library
	ind      indicator.Indicator
	light    indicator.Light
	buzzer   indicator.Buzzer
	log      zerolog.Logger
}

// Mode returns the active mode.
func (a *Arbiter) Mode() Mode {
	return a.state.Mode
}

// HandleHost applies one host command. Any command switches to HostMode.
func (a *Arbiter) HandleHost(cmd host.Command) {
	a.setMode(HostMode{})

	switch cmd.Kind {
	case host.Servo:
		a.state.Command[cmd.Channel] = cmd.Value
	case host.Red, host.Green, host.Blue:
		a.state.RGB[cmd.Kind-host.Red] = uint8(min(max(cmd.Value, 0), 255))
	case host.LightApply:
		if a.light != nil {
			c := a.state.RGB
			if err := a.light.SetRGB(c[0], c[1], c[2]); err != nil {
				a.log.Warn().Err(err).Msg("host light")
			}
		}
	case host.Tone:
		if a.buzzer != nil {
			if err := a.buzzer.Tone(cmd.Value == 1); err != nil {
				a.log.Warn().Err(err).Msg("host tone")
			}
		}
	}
}

// HandleKnobs stores the knob readings. Motion past the threshold is a
// manual override: the mode reverts to KnobMode and any playback stops,
// including a group still loading.
func (a *Arbiter) HandleKnobs(angles robot.Angles, moved bool) {
	a.state.Knob = angles
	if !moved {
		return
	}
	if _, ok := a.state.Mode.(KnobMode); ok {
		if a.player.Running() {
			a.log.Info().Stringer("player", a.player.State()).Msg("manual override")
			a.player.Cancel()
		}
		return
	}
	a.log.Info().Stringer("from", a.state.Mode).Msg("manual override")
	a.setMode(KnobMode{})
	a.player.Cancel()
}

// HandleButton maps button events to recorder and player commands.
//
//	button 1 short: stop playback, else record a pose, else start learning
//	button 1 long:  commit while learning
//	button 2 short: play once
//	button 2 long:  cancel learning, else play in a loop
func (a *Arbiter) HandleButton(ev input.Event) {
	switch ev.Button {
	case RecordButton:
		switch ev.Kind {
		case input.ShortPress:
			switch {
			case a.player.Running():
				a.player.Cancel()
				a.setMode(KnobMode{})
			case a.recorder.Learning():
				a.recorder.RecordPose(a.state.Knob)
			default:
				a.setMode(KnobMode{})
				a.recorder.StartLearning()
			}
		case input.LongPress:
			if !a.recorder.Learning() {
				return
			}
			if err := a.recorder.Commit(); err != nil {
				a.log.Error().Err(err).Msg("action group not saved")
			}
		}

	case PlayButton:
		switch ev.Kind {
		case input.ShortPress:
			a.requestPlay(false)
		case input.LongPress:
			if a.recorder.Learning() {
				a.recorder.Cancel()
				return
			}
			a.requestPlay(true)
		}
	}
}

// requestPlay is accepted only in KnobMode outside a learning session. A
// second request while a group is already playing is ignored.
func (a *Arbiter) requestPlay(loop bool) {
	if _, ok := a.state.Mode.(KnobMode); !ok {
		a.log.Debug().Stringer("mode", a.state.Mode).Msg("play ignored")
		return
	}
	if a.recorder.Learning() {
		a.log.Debug().Msg("play ignored while learning")
		return
	}
	a.player.Play(loop)
}

// HandlePlayer reacts to the outcome of a player tick.
func (a *Arbiter) HandlePlayer(ev action.Event) {
	switch ev {
	case action.Started:
		if _, ok := a.state.Mode.(KnobMode); !ok {
			// the mode changed between the request and the load
			a.player.Cancel()
			return
		}
		a.state.Action = a.player.Pose()
		a.setMode(ActionGroupMode{Loop: a.player.Looping()})
	case action.Stepped:
		a.state.Action = a.player.Pose()
	case action.Finished:
		if _, ok := a.state.Mode.(ActionGroupMode); ok {
			a.setMode(KnobMode{})
		}
	}
}

// SetExtended switches to ExtendedMode holding angles.
func (a *Arbiter) SetExtended(angles robot.Angles) {
	a.setMode(ExtendedMode{})
	a.seq.Stop()
	a.state.Extended = angles
}

// RunPreset switches to ExtendedMode and plays the named preset group.
func (a *Arbiter) RunPreset(name string, now time.Time) bool {
	if a.presets == nil {
		a.log.Warn().Str("preset", name).Msg("no preset library loaded")
		return false
	}
	g, ok := a.presets.Get(name)
	if !ok {
		a.log.Warn().Str("preset", name).Msg("unknown preset")
		return false
	}
	a.setMode(ExtendedMode{Preset: name})
	a.seq.Start(g, now)
	a.TickPreset(now)
	return true
}

// TickPreset advances the preset sequencer.
func (a *Arbiter) TickPreset(now time.Time) {
	if !a.seq.Running() {
		return
	}
	if a.seq.Tick(now) {
		a.state.Extended = a.seq.Pose()
		return
	}
	if !a.seq.Running() {
		a.log.Info().Str("preset", a.seq.Group().Name).Msg("preset finished")
	}
}

// setMode performs a transition: the producer of the old mode is stopped
// and the new source is seeded with the current filtered angles.
func (a *Arbiter) setMode(next Mode) {
	prev := a.state.Mode
	if prev == next {
		return
	}

	switch prev.(type) {
	case ActionGroupMode:
		if a.player.Running() {
			a.player.Cancel()
		}
	case ExtendedMode:
		a.seq.Stop()
	}

	switch next.(type) {
	case HostMode:
		a.state.Command = a.filter.Rounded()
	case ExtendedMode:
		a.state.Extended = a.filter.Rounded()
	}

	a.state.Mode = next
	a.log.Info().Stringer("from", prev).Stringer("to", next).Msg("mode")

	status := statusFor(next)
	if _, ok := next.(KnobMode); ok && a.recorder.Learning() {
		status = indicator.Learning
	}
	a.ind.Indicate(status)
}
