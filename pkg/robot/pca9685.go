package robot

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"
)

// Standard hobby servo timing at 50 Hz.
const (
	servoFrequency = 50 * physic.Hertz
	servoPeriod    = 20 * time.Millisecond
	servoMinPulse  = 500 * time.Microsecond
	servoMaxPulse  = 2500 * time.Microsecond
	pcaResolution  = 4096
)

type pwmSetter interface {
	SetPwm(channel int, on, off gpio.Duty) error
}

// PCA9685 drives the six channels as PWM hobby servos on a PCA9685 board,
// servo channel i on PWM output i.
type PCA9685 struct {
	bus i2c.BusCloser
	dev pwmSetter
}

// NewPCA9685 opens the I2C bus and configures the board for 50 Hz servos.
// An empty bus name selects the first available bus.
func NewPCA9685(busName string, addr uint16) (*PCA9685, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	if addr == 0 {
		addr = pca9685.I2CAddr
	}
	dev, err := pca9685.NewI2C(bus, addr)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("open pca9685: %w", err)
	}
	if err := dev.SetPwmFreq(servoFrequency); err != nil {
		bus.Close()
		return nil, fmt.Errorf("set pwm frequency: %w", err)
	}
	return &PCA9685{bus: bus, dev: dev}, nil
}

// Close releases the I2C bus.
func (p *PCA9685) Close() error {
	return p.bus.Close()
}

// Write sets the pulse width of every channel.
func (p *PCA9685) Write(ctx context.Context, cmds Commands) error {
	for _, ch := range AllChannels() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.dev.SetPwm(int(ch), 0, pulseTicks(cmds[ch])); err != nil {
			return fmt.Errorf("set pwm %s: %w", ch, err)
		}
	}
	return nil
}

// pulseTicks converts an angle to the PCA9685 off-count for a 50 Hz frame.
func pulseTicks(deg float64) gpio.Duty {
	if deg < 0 {
		deg = 0
	} else if deg > MaxAngle {
		deg = MaxAngle
	}
	pulse := float64(servoMinPulse) + deg/MaxAngle*float64(servoMaxPulse-servoMinPulse)
	return gpio.Duty(pulse/float64(servoPeriod)*pcaResolution + 0.5)
}
