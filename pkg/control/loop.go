// Package control runs the arm's cooperative control loop: a scheduler of
// fixed-cadence tasks (host drain, knob scan, button scan, action playback,
// preset playback, filter) sharing one ControllerState. Every mutation
// happens on the loop goroutine; other goroutines talk to it through
// channels.
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gwillem/armctl/pkg/action"
	"github.com/gwillem/armctl/pkg/filter"
	"github.com/gwillem/armctl/pkg/host"
	"github.com/gwillem/armctl/pkg/indicator"
	"github.com/gwillem/armctl/pkg/input"
	"github.com/gwillem/armctl/pkg/preset"
	"github.com/gwillem/armctl/pkg/robot"
	"github.com/gwillem/armctl/pkg/store"
)

// DefaultHz is the loop poll rate. It only bounds how late a task can run;
// each task keeps its own cadence.
const DefaultHz = 200

// requestQueue bounds the requests queued through Do between steps.
const requestQueue = 16

// Actuator receives the six actuator commands once per filter tick.
type Actuator interface {
	Write(ctx context.Context, cmds robot.Commands) error
}

// Options configures a ControlLoop. Config and Actuator are required.
type Options struct {
	Config   *robot.Config
	Clock    Clock
	Actuator Actuator
	Knobs    input.KnobReader
	Pins     input.Pins
	Light    indicator.Light
	Buzzer   indicator.Buzzer
	Store    *store.Store
	Presets  *preset.Library
	Hz       int
	Log      zerolog.Logger
}

// Snapshot is the loop state published after every filter tick.
type Snapshot struct {
	Mode     string                     `json:"mode"`
	Raw      robot.Angles               `json:"raw"`
	Filtered [robot.NumChannels]float64 `json:"filtered"`
	Commands robot.Commands             `json:"commands"`
	Player   string                     `json:"player"`
	Learning bool                       `json:"learning"`
	Poses    int                        `json:"poses"`
	Stored   int                        `json:"stored"`
	At       time.Time                  `json:"at"`
}

// ControlLoop owns the controller state and the tasks that mutate it.
type ControlLoop struct {
	opts  Options
	clock Clock
	log   zerolog.Logger

	state    *ControllerState
	filter   *filter.Filter
	knobs    *input.KnobTracker
	scanner  *input.Scanner
	player   *action.Player
	recorder *action.Recorder
	seq      preset.Sequencer
	panel    *indicator.Panel
	arbiter  *Arbiter

	sched      Scheduler
	playerTask *Task
	last       robot.Commands

	hostCh  chan host.Command
	reqCh   chan func()
	stateCh chan Snapshot

	mu      sync.Mutex
	running bool
}

// New creates a ControlLoop in KnobMode with the filter at the configured
// initial angles.
func New(opts Options) (*ControlLoop, error) {
	if opts.Config == nil {
		return nil, errors.New("control: no config")
	}
	if opts.Actuator == nil {
		return nil, errors.New("control: no actuator")
	}
	cfg := opts.Config
	limits, err := cfg.Filter.LimitRanges()
	if err != nil {
		return nil, fmt.Errorf("filter limits: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = WallClock()
	}
	if opts.Knobs == nil {
		opts.Knobs = restingKnobs(cfg.Filter.Initial)
	}
	if opts.Pins == nil {
		opts.Pins = releasedPins{}
	}
	if opts.Store == nil {
		opts.Store = store.New(store.NewMemDevice(store.Size))
	}
	if opts.Hz <= 0 {
		opts.Hz = DefaultHz
	}

	l := &ControlLoop{
		opts:    opts,
		clock:   opts.Clock,
		log:     opts.Log,
		state:   NewControllerState(cfg.Filter.Initial),
		hostCh:  make(chan host.Command, 64),
		reqCh:   make(chan func(), requestQueue),
		stateCh: make(chan Snapshot, 1),
	}
	l.filter = filter.New(filter.Options{
		Alpha:    cfg.Filter.Alpha,
		Mirrored: cfg.Filter.Mirrored,
		Limits:   limits,
		Initial:  cfg.Filter.Initial,
	})
	l.panel = indicator.NewPanel(opts.Light, opts.Buzzer, l.log)
	l.knobs = input.NewKnobTracker(opts.Knobs, input.DefaultKnobThreshold)
	l.scanner = input.NewScanner(opts.Pins, input.ScannerOptions{
		LongPress: robot.Duration(cfg.Timing.LongPressMs),
	})
	l.player = action.NewPlayer(opts.Store, action.PlayerOptions{
		StepInterval: robot.Duration(cfg.Timing.PlaybackMs),
		PollInterval: robot.Duration(cfg.Timing.PollMs),
		Indicator:    l.panel,
		Log:          l.log,
	})
	l.recorder = action.NewRecorder(opts.Store, l.player, l.panel, l.log)
	l.arbiter = &Arbiter{
		state:    l.state,
		filter:   l.filter,
		player:   l.player,
		recorder: l.recorder,
		seq:      &l.seq,
		presets:  opts.Presets,
		ind:      l.panel,
		light:    opts.Light,
		buzzer:   opts.Buzzer,
		log:      l.log,
	}

	l.sched.Every("host", 0, l.drainHost)
	l.sched.Every("knob", robot.Duration(cfg.Timing.KnobMs), l.scanKnobs)
	l.sched.Every("buttons", robot.Duration(cfg.Timing.ScanMs), l.scanButtons)
	l.playerTask = l.sched.Every("player", l.player.Interval(), l.tickPlayer)
	l.sched.Every("preset", robot.Duration(cfg.Timing.PresetMs), l.tickPreset)
	l.sched.Every("filter", robot.Duration(cfg.Timing.FilterMs), l.tickFilter)

	return l, nil
}

// HostCommands returns the channel host command sources send into.
func (l *ControlLoop) HostCommands() chan<- host.Command {
	return l.hostCh
}

// States returns a channel that receives the latest snapshot. Old
// snapshots are dropped when the reader falls behind.
func (l *ControlLoop) States() <-chan Snapshot {
	return l.stateCh
}

// Hz returns the loop poll rate.
func (l *ControlLoop) Hz() int {
	return l.opts.Hz
}

// Mode returns the active mode. Call it from the loop goroutine or while
// the loop is stopped.
func (l *ControlLoop) Mode() Mode {
	return l.state.Mode
}

// Do queues fn to run on the loop goroutine at the start of the next step.
// It never blocks: when the queue is full the request is dropped and Do
// returns false.
func (l *ControlLoop) Do(fn func()) bool {
	select {
	case l.reqCh <- fn:
		return true
	default:
		l.log.Warn().Msg("request queue full, request dropped")
		return false
	}
}

// SetExtended switches to ExtendedMode holding angles. It reports whether
// the request was queued.
func (l *ControlLoop) SetExtended(angles robot.Angles) bool {
	return l.Do(func() { l.arbiter.SetExtended(angles) })
}

// RunPreset switches to ExtendedMode and plays the named preset group.
// Unknown names are logged and ignored.
func (l *ControlLoop) RunPreset(name string) bool {
	return l.Do(func() { l.arbiter.RunPreset(name, l.clock.Now()) })
}

// Run polls the scheduler until ctx is done.
func (l *ControlLoop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("already running")
	}
	l.running = true
	l.mu.Unlock()

	l.log.Info().Int("hz", l.opts.Hz).Msg("control loop started")

	ticker := time.NewTicker(time.Second / time.Duration(l.opts.Hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.running = false
			l.mu.Unlock()
			l.log.Info().Msg("control loop stopped")
			return ctx.Err()
		case <-ticker.C:
			l.Step(ctx)
		}
	}
}

// Step runs queued requests and then every task that is due.
func (l *ControlLoop) Step(ctx context.Context) {
	for drained := false; !drained; {
		select {
		case fn := <-l.reqCh:
			fn()
		default:
			drained = true
		}
	}
	l.sched.Poll(ctx, l.clock.Now())
	l.playerTask.SetInterval(l.player.Interval())
}

// Snapshot returns the current state. Call it from the loop goroutine or
// while the loop is stopped.
func (l *ControlLoop) Snapshot() Snapshot {
	_, count := l.player.Position()
	if !l.player.Running() {
		count = l.opts.Store.Count()
	}
	return Snapshot{
		Mode:     l.state.Mode.String(),
		Raw:      l.state.RawTargets(),
		Filtered: l.filter.Angles(),
		Commands: l.last,
		Player:   l.player.State().String(),
		Learning: l.recorder.Learning(),
		Poses:    l.recorder.Len(),
		Stored:   count,
		At:       l.clock.Now(),
	}
}

func (l *ControlLoop) drainHost(ctx context.Context, now time.Time) {
	for {
		select {
		case cmd := <-l.hostCh:
			l.log.Debug().Stringer("cmd", cmd).Msg("host command")
			l.arbiter.HandleHost(cmd)
		default:
			return
		}
	}
}

func (l *ControlLoop) scanKnobs(ctx context.Context, now time.Time) {
	l.arbiter.HandleKnobs(l.knobs.Scan())
}

func (l *ControlLoop) scanButtons(ctx context.Context, now time.Time) {
	for _, ev := range l.scanner.Scan(now) {
		l.log.Debug().Stringer("event", ev).Msg("button")
		l.arbiter.HandleButton(ev)
	}
}

func (l *ControlLoop) tickPlayer(ctx context.Context, now time.Time) {
	l.arbiter.HandlePlayer(l.player.Tick())
}

func (l *ControlLoop) tickPreset(ctx context.Context, now time.Time) {
	l.arbiter.TickPreset(now)
}

func (l *ControlLoop) tickFilter(ctx context.Context, now time.Time) {
	l.filter.Step(l.state.RawTargets())
	l.last = l.filter.Commands()
	if err := l.opts.Actuator.Write(ctx, l.last); err != nil {
		l.log.Warn().Err(err).Msg("actuator write")
	}
	l.sendState(l.Snapshot())
}

func (l *ControlLoop) sendState(s Snapshot) {
	select {
	case l.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-l.stateCh:
		default:
		}
		l.stateCh <- s
	}
}

type restingKnobs robot.Angles

func (k restingKnobs) ReadKnobs() robot.Angles { return robot.Angles(k) }

type releasedPins struct{}

func (releasedPins) Read(int) bool { return true }
