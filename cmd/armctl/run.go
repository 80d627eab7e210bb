package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"go.bug.st/serial"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/armctl/pkg/control"
	"github.com/gwillem/armctl/pkg/host"
	"github.com/gwillem/armctl/pkg/preset"
	"github.com/gwillem/armctl/pkg/robot"
	"github.com/gwillem/armctl/pkg/telemetry"
	"github.com/gwillem/armctl/pkg/vision"
)

type RunCommand struct {
	Sim    bool   `long:"sim" description:"Simulate servos and buttons regardless of the configured driver"`
	Hz     int    `long:"hz" default:"200" description:"Control loop poll rate"`
	Host   string `long:"host" description:"Serial port carrying host commands (overrides config)"`
	Listen string `long:"listen" description:"Telemetry websocket address, e.g. :8080 (overrides config)"`
	Preset string `long:"preset" description:"Preset group to run with the 'p' key"`
	Vision string `long:"vision" choice:"trace" choice:"clamp" description:"Drive extended mode from the camera module"`
}

const (
	headerHeight = 3 // title, status, blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border

	knobStep   = 5
	targetStep = 10
	shortPress = 100 * time.Millisecond
	longPress  = 1500 * time.Millisecond
)

// Channel colors - distinct colors for each channel
var channelColors = [robot.NumChannels]string{
	robot.Base:      "196", // red
	robot.Shoulder:  "208", // orange
	robot.Elbow:     "226", // yellow
	robot.Wrist:     "46",  // green
	robot.WristRoll: "51",  // cyan
	robot.Gripper:   "201", // magenta
}

// Knob keys: raise, lower.
var knobKeys = [robot.NumChannels][2]string{
	{"a", "z"}, {"s", "x"}, {"d", "c"}, {"f", "v"}, {"g", "b"}, {"h", "n"},
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	modeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)

type runModel struct {
	loop     *control.ControlLoop
	hw       *hardware
	states   <-chan control.Snapshot
	logs     <-chan string
	preset   string
	chart    *streamlinechart.Model
	width    int
	height   int
	lines    []string
	last     control.Snapshot
	lastCmds robot.Commands
	quitting bool

	visionReg uint8
	target    int // index into simTargets
}

func (m *runModel) addLog(msg string) {
	m.lines = append(m.lines, msg)
	if len(m.lines) > maxLogs {
		m.lines = m.lines[len(m.lines)-maxLogs:]
	}
}

// Messages from the control loop
type stateMsg control.Snapshot
type logMsg string

func waitForState(states <-chan control.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-states)
	}
}

func waitForLog(logs <-chan string) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-logs)
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-footerHeight-borderSize, 10)
	return width, height
}

func newRunModel(loop *control.ControlLoop, hw *hardware, states <-chan control.Snapshot, logs <-chan string, presetName string) runModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(0, robot.MaxAngle),
	)
	for _, ch := range robot.AllChannels() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(channelColors[ch]))
		chart.SetDataSetStyles(ch.String(), runes.ThinLineStyle, style)
	}
	return runModel{
		loop:   loop,
		hw:     hw,
		states: states,
		logs:   logs,
		preset: presetName,
		chart:  &chart,
	}
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.states),
		waitForLog(m.logs),
	)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := m.chartSize()
		m.chart.Resize(w, h)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case stateMsg:
		s := control.Snapshot(msg)
		m.last = s
		// Only update chart if there's movement (freeze when idle)
		if s.Commands != m.lastCmds {
			for _, ch := range robot.AllChannels() {
				m.chart.PushDataSet(ch.String(), s.Commands[ch])
			}
			m.chart.DrawAll()
			m.lastCmds = s.Commands
		}
		return m, waitForState(m.states)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.logs)
	}

	return m, nil
}

func (m runModel) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "p":
		if m.preset != "" {
			m.loop.RunPreset(m.preset)
		}
		return m, nil
	}

	if cam := m.hw.simCamera; cam != nil {
		reg := m.visionReg
		switch key {
		case "[":
			cam.Move(reg, -targetStep, 0)
		case "]":
			cam.Move(reg, targetStep, 0)
		case "{":
			cam.Move(reg, 0, -targetStep)
		case "}":
			cam.Move(reg, 0, targetStep)
		case "o":
			m.target = (m.target + 1) % len(simTargets)
			cam.Set(reg, simTargets[m.target])
		}
	}

	if b := m.hw.buttons; b != nil {
		switch key {
		case "1":
			b.Press(control.RecordButton, shortPress)
		case "2":
			b.Press(control.PlayButton, shortPress)
		case "!":
			b.Press(control.RecordButton, longPress)
		case "@":
			b.Press(control.PlayButton, longPress)
		}
	}
	for ch, keys := range knobKeys {
		switch key {
		case keys[0]:
			m.hw.knobs.Nudge(robot.Channel(ch), knobStep)
		case keys[1]:
			m.hw.knobs.Nudge(robot.Channel(ch), -knobStep)
		}
	}
	return m, nil
}

func (m runModel) View() string {
	if m.quitting {
		return "Control loop stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("armctl"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.loop.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20)).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.lines) == 0 {
		logLines = statusStyle.Render(m.helpText())
	} else {
		logLines = strings.Join(m.lines, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m runModel) renderStatus() string {
	s := m.last
	parts := []string{
		"mode " + modeStyle.Render(s.Mode),
		"player " + s.Player,
		fmt.Sprintf("stored %d", s.Stored),
	}
	if s.Learning {
		parts = append(parts, fmt.Sprintf("learning (%d poses)", s.Poses))
	}
	c := m.hw.light.Color()
	light := lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))).Render("●")
	parts = append(parts, "light "+light)
	if m.hw.buzzer.On() {
		parts = append(parts, "tone")
	}
	return strings.Join(parts, "  ")
}

func (m runModel) helpText() string {
	help := "q quit  a/z s/x d/c f/v g/b h/n knobs"
	if m.hw.buttons != nil {
		help += "  1/2 buttons  !/@ long press"
	}
	if m.preset != "" {
		help += "  p preset " + m.preset
	}
	if m.hw.simCamera != nil {
		help += "  [ ] { } move target  o target far/near/gone"
	}
	return help
}

func renderLegend() string {
	var items []string
	for _, ch := range robot.AllChannels() {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(channelColors[ch])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+ch.String())
	}
	return strings.Join(items, "  ")
}

// lineWriter feeds formatted log lines to the TUI, dropping them when the
// view falls behind.
type lineWriter chan string

func (w lineWriter) Write(p []byte) (int, error) {
	select {
	case w <- strings.TrimRight(string(p), "\n"):
	default:
	}
	return len(p), nil
}

// tee copies snapshots to every output, replacing unread ones.
func tee(ctx context.Context, in <-chan control.Snapshot, outs ...chan control.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-in:
			for _, out := range outs {
				select {
				case out <- s:
				default:
					select {
					case <-out:
					default:
					}
					out <- s
				}
			}
		}
	}
}

// Simulated target cycle for the 'o' key.
var simTargets = []vision.Blob{simFar, simNear, {}}

func (c *RunCommand) startVision(ctx context.Context, cfg *robot.Config, hw *hardware, loop *control.ControlLoop, logger zerolog.Logger) error {
	behavior, err := vision.ParseBehavior(c.Vision)
	if err != nil {
		return err
	}
	if err := hw.openCamera(cfg.Vision, c.Sim || cfg.Servo.Driver == robot.DriverSim || cfg.Servo.Driver == ""); err != nil {
		return err
	}
	tracker := vision.NewTracker(vision.TrackerOptions{
		Behavior: behavior,
		Home:     cfg.Filter.Initial,
	})
	go func() {
		err := vision.Run(ctx, hw.camera, cfg.Vision.Register, tracker, robot.Duration(cfg.Vision.PeriodMs), loop.SetExtended, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("vision")
		}
	}()
	logger.Info().Stringer("behavior", behavior).Msg("vision started")
	return nil
}

func (c *RunCommand) Execute(args []string) error {
	cfg := robot.DefaultConfig()
	if robot.ConfigExistsAt(opts.Config) {
		loaded, err := robot.LoadConfigFrom(opts.Config)
		if err != nil {
			return fmt.Errorf("load %s: %w", opts.Config, err)
		}
		cfg = loaded
		fmt.Printf("Loaded configuration from %s\n", opts.Config)
	} else if !c.Sim {
		fmt.Fprintf(os.Stderr, "No configuration found. Run 'armctl setup' first, or use --sim.\n")
		os.Exit(1)
	}
	if c.Host != "" {
		cfg.Host.Port = c.Host
	}
	if c.Listen != "" {
		cfg.Host.Listen = c.Listen
	}

	logs := make(chan string, 64)
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        lineWriter(logs),
		NoColor:    true,
		TimeFormat: "15:04:05",
	}).With().Timestamp().Logger()

	var presets *preset.Library
	if cfg.Presets != "" {
		lib, err := preset.Load(cfg.Presets)
		if err != nil {
			return err
		}
		presets = lib
	}
	if c.Preset != "" && presets == nil {
		return errors.New("--preset needs a preset library in the configuration")
	}

	hw, err := openHardware(cfg, c.Sim, logger)
	if err != nil {
		return err
	}
	defer hw.Close()

	loop, err := control.New(control.Options{
		Config:   cfg,
		Actuator: hw.actuator,
		Knobs:    hw.knobs,
		Pins:     hw.pins,
		Light:    hw.lightOut,
		Buzzer:   hw.buzzerOut,
		Store:    hw.store,
		Presets:  presets,
		Hz:       c.Hz,
		Log:      logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := hw.Start(ctx); err != nil {
		return err
	}

	if c.Vision != "" {
		if err := c.startVision(ctx, cfg, hw, loop, logger); err != nil {
			return err
		}
	}

	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("control loop")
		}
	}()

	if cfg.Host.Port != "" {
		port, err := serial.Open(cfg.Host.Port, &serial.Mode{BaudRate: cfg.Host.Baud})
		if err != nil {
			return fmt.Errorf("open host port %s: %w", cfg.Host.Port, err)
		}
		defer port.Close()
		go func() {
			if err := host.NewReader(port, logger).Run(ctx, loop.HostCommands()); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn().Err(err).Msg("host stream")
			}
		}()
	}

	view := make(chan control.Snapshot, 1)
	outs := []chan control.Snapshot{view}
	if cfg.Host.Listen != "" {
		wire := make(chan control.Snapshot, 1)
		outs = append(outs, wire)
		hub := telemetry.NewHub(loop.HostCommands(), logger)
		go hub.Run(ctx, wire)
		go func() {
			if err := hub.ListenAndServe(ctx, cfg.Host.Listen); err != nil {
				logger.Error().Err(err).Msg("telemetry")
			}
		}()
	}
	go tee(ctx, loop.States(), outs...)

	model := newRunModel(loop, hw, view, logs, c.Preset)
	model.visionReg = cfg.Vision.Register
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	return nil
}
