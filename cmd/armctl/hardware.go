package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gwillem/armctl/pkg/control"
	"github.com/gwillem/armctl/pkg/indicator"
	"github.com/gwillem/armctl/pkg/input"
	"github.com/gwillem/armctl/pkg/robot"
	"github.com/gwillem/armctl/pkg/sim"
	"github.com/gwillem/armctl/pkg/store"
	"github.com/gwillem/armctl/pkg/vision"
)

// hardware is everything the control loop talks to. Knobs are always
// simulated: there is no ADC back-end, so on real hardware they rest at the
// initial angles unless moved from the keyboard. The sim light and buzzer
// mirror the real outputs for the TUI.
type hardware struct {
	actuator  control.Actuator
	knobs     *sim.Knobs
	pins      input.Pins
	buttons   *sim.Buttons // nil with GPIO buttons
	light     *sim.Light
	buzzer    *sim.Buzzer
	lightOut  indicator.Light
	buzzerOut indicator.Buzzer
	store     *store.Store
	camera    vision.Camera
	simCamera *sim.Camera // nil with a real camera

	arm     *robot.Arm
	closers []func() error
}

func openHardware(cfg *robot.Config, simulate bool, log zerolog.Logger) (*hardware, error) {
	hw := &hardware{
		knobs:  sim.NewKnobs(cfg.Filter.Initial),
		light:  &sim.Light{},
		buzzer: &sim.Buzzer{},
	}
	hw.lightOut = hw.light
	hw.buzzerOut = hw.buzzer

	dev, err := store.OpenFile(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open action store: %w", err)
	}
	hw.store = store.New(dev)
	hw.closers = append(hw.closers, dev.Close)

	driver := cfg.Servo.Driver
	if simulate || driver == "" {
		driver = robot.DriverSim
	}

	switch driver {
	case robot.DriverFeetech:
		arm, err := robot.NewArm(cfg.Servo.Port, cfg.Servo.Calibration)
		if err != nil {
			hw.Close()
			return nil, err
		}
		hw.arm = arm
		hw.actuator = arm
		hw.closers = append(hw.closers, arm.Close)
	case robot.DriverPCA9685:
		pca, err := robot.NewPCA9685(cfg.Servo.I2CBus, cfg.Servo.I2CAddr)
		if err != nil {
			hw.Close()
			return nil, err
		}
		hw.actuator = pca
		hw.closers = append(hw.closers, pca.Close)
	case robot.DriverSim:
		hw.actuator = &sim.Servos{}
	default:
		hw.Close()
		return nil, fmt.Errorf("unknown servo driver %q", driver)
	}

	if driver == robot.DriverSim {
		hw.buttons = sim.NewButtons(time.Now)
		hw.pins = hw.buttons
		return hw, nil
	}
	hw.openIndicators(cfg.Indicator, log)
	gpio, err := robot.NewGPIOButtons(cfg.Buttons.Pins[:]...)
	if err != nil {
		log.Warn().Err(err).Msg("gpio buttons unavailable, using keyboard")
		hw.buttons = sim.NewButtons(time.Now)
		hw.pins = hw.buttons
		return hw, nil
	}
	hw.pins = gpio
	return hw, nil
}

// openIndicators adds the configured status light and buzzer. Failures
// leave only the on-screen mirror.
func (hw *hardware) openIndicators(cfg robot.IndicatorConfig, log zerolog.Logger) {
	switch cfg.Light {
	case robot.LightNRZ:
		strip, err := robot.NewNRZLight(cfg.SPIPort, cfg.Pixels)
		if err != nil {
			log.Warn().Err(err).Msg("led strip unavailable")
			break
		}
		hw.lightOut = indicator.Lights{hw.light, strip}
		hw.closers = append(hw.closers, strip.Close)
	case robot.LightSim, "":
	default:
		log.Warn().Str("light", cfg.Light).Msg("unknown status light, using screen only")
	}

	if cfg.BuzzerPin != "" {
		bz, err := robot.NewGPIOBuzzer(cfg.BuzzerPin)
		if err != nil {
			log.Warn().Err(err).Msg("buzzer unavailable")
			return
		}
		hw.buzzerOut = indicator.Buzzers{hw.buzzer, bz}
		hw.closers = append(hw.closers, bz.Close)
	}
}

// openCamera opens the camera module, or a simulated one that starts with
// a far target in the middle of the frame.
func (hw *hardware) openCamera(cfg robot.VisionConfig, simulate bool) error {
	if simulate {
		hw.simCamera = sim.NewCamera()
		hw.simCamera.Set(cfg.Register, simFar)
		hw.camera = hw.simCamera
		return nil
	}
	cam, err := vision.OpenESP32Cam(cfg.I2CBus, cfg.I2CAddr)
	if err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	hw.camera = cam
	hw.closers = append(hw.closers, cam.Close)
	return nil
}

// Simulated targets, centered in the default frame.
var (
	simFar  = vision.Blob{X: 70, Y: 50, W: 20, H: 20}
	simNear = vision.Blob{X: 45, Y: 25, W: 70, H: 70}
)

// Start enables torque on bus servos.
func (hw *hardware) Start(ctx context.Context) error {
	if hw.arm == nil {
		return nil
	}
	if err := hw.arm.Enable(ctx); err != nil {
		return fmt.Errorf("enable servos: %w", err)
	}
	return nil
}

// Close disables bus servos and releases every device.
func (hw *hardware) Close() error {
	var errs []error
	if hw.arm != nil {
		if err := hw.arm.Disable(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(hw.closers) - 1; i >= 0; i-- {
		if err := hw.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
