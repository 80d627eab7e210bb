package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/armctl/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const noPort = "none"

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("armctl Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()

	cfg := robot.DefaultConfig()
	if robot.ConfigExistsAt(opts.Config) {
		loaded, err := robot.LoadConfigFrom(opts.Config)
		if err != nil {
			return fmt.Errorf("load %s: %w", opts.Config, err)
		}
		cfg = loaded
	}

	// Step 1: servo driver
	cfg.Servo.Driver = chooseDriver(cfg.Servo.Driver)

	// Step 2: driver specifics
	switch cfg.Servo.Driver {
	case robot.DriverFeetech:
		port := scanForArm()
		cfg.Servo.Port = port
		fmt.Println()
		fmt.Println(subHeaderStyle.Render("━━━ Calibrating Arm ━━━"))
		fmt.Println()
		calibrateArm(&cfg.Servo)
	case robot.DriverPCA9685:
		configurePCA9685(&cfg.Servo)
	}

	// Step 3: host command stream
	cfg.Host.Port = chooseHostPort(cfg.Host.Port, cfg.Servo.Port)

	if err := cfg.SaveTo(opts.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Start the controller with: " + headerStyle.Render("armctl run"))

	return nil
}

func chooseDriver(current string) string {
	driver := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Servo driver").
				Description("How the six channels are actuated").
				Options(
					huh.NewOption("Feetech bus servos (serial)", robot.DriverFeetech),
					huh.NewOption("PCA9685 PWM board (I2C)", robot.DriverPCA9685),
					huh.NewOption("Simulated", robot.DriverSim),
				).
				Value(&driver),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return driver
}

func configurePCA9685(servo *robot.ServoConfig) {
	bus := servo.I2CBus
	addr := fmt.Sprintf("0x%02x", servo.I2CAddr)
	if servo.I2CAddr == 0 {
		addr = "0x40"
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("I2C bus").
				Description("Leave empty for the first bus").
				Value(&bus),
			huh.NewInput().
				Title("I2C address").
				Value(&addr).
				Validate(func(s string) error {
					_, err := strconv.ParseUint(s, 0, 7)
					return err
				}),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	a, _ := strconv.ParseUint(addr, 0, 7)
	servo.I2CBus = bus
	servo.I2CAddr = uint16(a)
}

func chooseHostPort(current, servoPort string) string {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return current
	}

	options := []huh.Option[string]{huh.NewOption("No host connection", noPort)}
	for _, port := range ports {
		if port == servoPort || strings.Contains(port, "Bluetooth") {
			continue
		}
		options = append(options, huh.NewOption(port, port))
	}

	choice := current
	if choice == "" {
		choice = noPort
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Host command port").
				Description("Serial port that sends A45$ style commands").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	if choice == noPort {
		return ""
	}
	return choice
}

func scanForArm() string {
	fmt.Println("Scanning for servo buses...")
	fmt.Println()

	arms := findArms()

	if len(arms) == 0 {
		fmt.Println("No six-servo arm found.")
		fmt.Println("Make sure the arm is connected and powered on.")
		os.Exit(1)
	}

	if len(arms) == 1 {
		arms[0].bus.Close()
		fmt.Printf("Using arm on %s\n", arms[0].port)
		return arms[0].port
	}

	fmt.Printf("Found %d arms. Let's pick one...\n\n", len(arms))
	var chosen string
	for _, arm := range arms {
		if chosen != "" {
			arm.bus.Close()
			continue
		}
		if confirmArmWithWiggle(arm) {
			chosen = arm.port
		}
	}
	if chosen == "" {
		fmt.Println("No arm selected.")
		os.Exit(1)
	}
	return chosen
}

func calibrateArm(servoConfig *robot.ServoConfig) {
	fmt.Printf("Calibrating arm on %s\n", servoConfig.Port)
	fmt.Println()

	// Connect to arm
	bus, servos, err := connectToArm(servoConfig.Port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to arm: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	// Create servos map by ID
	servoMap := make(map[int]*feetech.Servo)
	for _, s := range servos {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}

	// Disable all servos so user can move arm freely
	ctx := context.Background()
	for _, servo := range servoMap {
		servo.Disable(ctx)
	}

	channels := robot.AllChannels()

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Move each joint from 0 to 180 degrees of its travel.")
	fmt.Println()

	var cur, lo, hi [robot.NumChannels]int
	for _, ch := range channels {
		pos, _ := servoMap[servoID(ch)].Position(ctx)
		cur[ch], lo[ch], hi[ch] = pos, pos, pos
	}

	p := tea.NewProgram(calibrationModel{servoMap: servoMap, cur: cur, lo: lo, hi: hi})
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running calibration: %v\n", err)
		os.Exit(1)
	}
	cm := finalModel.(calibrationModel)

	calibration := make(robot.Calibration, len(channels))
	for _, ch := range channels {
		calibration[ch.String()] = robot.MotorCalibration{
			ID:       servoID(ch),
			RangeMin: cm.lo[ch],
			RangeMax: cm.hi[ch],
		}
	}

	servoConfig.Calibration = calibration
	fmt.Println()
	fmt.Println("Arm calibrated.")
}

// servoID is the bus ID of a channel: channel 0 is servo 1.
func servoID(ch robot.Channel) int {
	return int(ch) + 1
}

type armInfo struct {
	port   string
	servos []feetech.FoundServo
	bus    *feetech.Bus
}

func openBus(port string) (*feetech.Bus, error) {
	return feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
}

func findArms() []armInfo {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var arms []armInfo

	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)

		bus, err := openBus(port)
		if err != nil {
			cancel()
			continue
		}

		servos, err := bus.Scan(ctx, 1, robot.NumChannels)
		cancel()

		if err != nil {
			bus.Close()
			continue
		}

		if isSixServoArm(servos) {
			fmt.Printf("  Found arm on %s\n", port)
			arms = append(arms, armInfo{
				port:   port,
				servos: servos,
				bus:    bus,
			})
		} else {
			bus.Close()
		}
	}

	return arms
}

func isSixServoArm(servos []feetech.FoundServo) bool {
	if len(servos) != robot.NumChannels {
		return false
	}

	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}

	for i := 1; i <= robot.NumChannels; i++ {
		if !ids[i] {
			return false
		}
	}

	return true
}

func confirmArmWithWiggle(arm armInfo) bool {
	defer arm.bus.Close()

	ctx := context.Background()

	// Wiggle the base servo so the user can tell the arms apart
	var servo *feetech.Servo
	for _, s := range arm.servos {
		if s.ID == servoID(robot.Base) {
			servo = feetech.NewServo(arm.bus, s.ID, s.Model)
			break
		}
	}
	if servo == nil {
		return false
	}

	originalPos, err := servo.Position(ctx)
	if err != nil {
		fmt.Printf("  Error reading position: %v\n", err)
		return false
	}

	if err := servo.Enable(ctx); err != nil {
		fmt.Printf("  Error enabling servo: %v\n", err)
		return false
	}

	fmt.Printf("\n  Wiggling arm on %s...\n", arm.port)

	wiggleAmount := 30
	moveTimeMs := 500
	servo.SetPositionWithTime(ctx, originalPos+wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos-wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)

	servo.Disable(ctx)

	var use bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Use the arm on %s?", arm.port)).
				Description("The arm that just wiggled").
				Affirmative("Use it").
				Negative("Next").
				Value(&use),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return use
}

func connectToArm(port string) (*feetech.Bus, []feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := openBus(port)
	if err != nil {
		return nil, nil, err
	}

	servos, err := bus.Scan(ctx, 1, robot.NumChannels)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}

	if !isSixServoArm(servos) {
		bus.Close()
		return nil, nil, fmt.Errorf("expected %d servos with IDs 1-%d", robot.NumChannels, robot.NumChannels)
	}

	return bus, servos, nil
}

// Calibration TUI model
type calibrationModel struct {
	servoMap    map[int]*feetech.Servo
	cur, lo, hi [robot.NumChannels]int
	quitting    bool
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for _, ch := range robot.AllChannels() {
			pos, err := m.servoMap[servoID(ch)].Position(ctx)
			if err != nil {
				continue
			}
			m.cur[ch] = pos
			m.lo[ch] = min(m.lo[ch], pos)
			m.hi[ch] = max(m.hi[ch], pos)
		}
		return m, tick()
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	// Table styles
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableChannelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	channels := robot.AllChannels()
	rows := make([][]string, 0, len(channels))
	var ranges [robot.NumChannels]int
	for _, ch := range channels {
		ranges[ch] = m.hi[ch] - m.lo[ch]
		rows = append(rows, []string{
			ch.String(),
			strconv.Itoa(m.cur[ch]),
			strconv.Itoa(m.lo[ch]),
			strconv.Itoa(m.hi[ch]),
			strconv.Itoa(ranges[ch]),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Channel", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableChannelStyle
			case 1:
				return tableCurrentStyle
			case 4:
				if row >= 0 && row < len(ranges) && ranges[row] > 500 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done"))

	return sb.String()
}
