package action

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gwillem/armctl/pkg/indicator"
	"github.com/gwillem/armctl/pkg/robot"
	"github.com/gwillem/armctl/pkg/store"
)

// State of the Player.
type State int

const (
	Idle State = iota
	Loading
	PlayingOnce
	PlayingLoop
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case PlayingOnce:
		return "playing-once"
	case PlayingLoop:
		return "playing-loop"
	case Done:
		return "done"
	}
	return "unknown"
}

// Event is what a Tick did.
type Event int

const (
	None Event = iota
	// Started: the store was valid, playback began and the first pose is out.
	Started
	// Stepped: the next pose is out.
	Stepped
	// Rejected: the store was invalid or empty; the player is idle again.
	Rejected
	// Finished: a single pass ran out of poses, or the store failed mid-play.
	Finished
)

// Default cadences.
const (
	DefaultStepInterval = time.Second
	DefaultPollInterval = 20 * time.Millisecond
)

// PlayerOptions configures a Player.
type PlayerOptions struct {
	// StepInterval is the time each pose is held while playing.
	StepInterval time.Duration
	// PollInterval is the cadence while idle or loading.
	PollInterval time.Duration
	Indicator    indicator.Indicator
	Log          zerolog.Logger
}

// Player streams the stored action group, one pose per tick.
type Player struct {
	store *store.Store
	opts  PlayerOptions

	state State
	loop  bool
	idx   int
	count int
	pose  robot.Angles
}

// NewPlayer creates an idle Player reading from st.
func NewPlayer(st *store.Store, opts PlayerOptions) *Player {
	if opts.StepInterval <= 0 {
		opts.StepInterval = DefaultStepInterval
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Indicator == nil {
		opts.Indicator = indicator.Nop{}
	}
	return &Player{store: st, opts: opts}
}

// State returns the current state.
func (p *Player) State() State {
	return p.state
}

// Running reports whether a group is loading or playing.
func (p *Player) Running() bool {
	switch p.state {
	case Loading, PlayingOnce, PlayingLoop:
		return true
	}
	return false
}

// Looping reports whether the current run is the loop variant.
func (p *Player) Looping() bool {
	return p.loop
}

// Pose returns the last pose played.
func (p *Player) Pose() robot.Angles {
	return p.pose
}

// Position returns the index of the next pose and the number of poses.
func (p *Player) Position() (next, count int) {
	return p.idx, p.count
}

// Interval returns how long until the player wants its next Tick.
func (p *Player) Interval() time.Duration {
	switch p.state {
	case PlayingOnce, PlayingLoop:
		return p.opts.StepInterval
	}
	return p.opts.PollInterval
}

// Play requests playback; loop selects the looping variant. The store is
// checked on the next Tick. Requests while busy are ignored.
func (p *Player) Play(loop bool) bool {
	switch p.state {
	case Idle, Done:
	default:
		return false
	}
	p.state = Loading
	p.loop = loop
	return true
}

// Cancel stops playback immediately from any state.
func (p *Player) Cancel() {
	if p.state == Idle {
		return
	}
	wasRunning := p.Running()
	p.state = Idle
	p.idx = 0
	if wasRunning {
		p.opts.Indicator.Indicate(indicator.Ready)
		p.opts.Log.Info().Msg("playback cancelled")
	}
}

// Tick advances the state machine by one step.
func (p *Player) Tick() Event {
	switch p.state {
	case Idle:
		return None

	case Done:
		p.state = Idle
		return None

	case Loading:
		n := p.store.Count()
		if n == 0 {
			p.state = Idle
			p.opts.Log.Info().Msg("no stored action group, play ignored")
			return Rejected
		}
		p.count = n
		p.idx = 0
		if p.loop {
			p.state = PlayingLoop
		} else {
			p.state = PlayingOnce
		}
		if !p.advance() {
			return Rejected
		}
		p.opts.Indicator.Indicate(indicator.Playing)
		p.opts.Log.Info().Int("count", n).Bool("loop", p.loop).Msg("playback started")
		return Started

	case PlayingOnce, PlayingLoop:
		if p.idx >= p.count {
			if p.state == PlayingOnce {
				p.state = Done
				p.opts.Indicator.Indicate(indicator.Ready)
				p.opts.Log.Info().Int("count", p.count).Msg("playback finished")
				return Finished
			}
			p.idx = 0
		}
		if !p.advance() {
			p.opts.Indicator.Indicate(indicator.Ready)
			return Finished
		}
		return Stepped
	}
	return None
}

func (p *Player) advance() bool {
	r, err := p.store.Record(p.idx)
	if err != nil {
		p.opts.Log.Error().Err(err).Int("index", p.idx).Msg("read action record")
		p.state = Idle
		return false
	}
	p.pose = r.Angles()
	p.idx++
	return true
}
