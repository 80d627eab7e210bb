package robot

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOButtons reads the push-buttons from GPIO pins. Buttons are wired
// active-low with the internal pull-up enabled.
type GPIOButtons struct {
	pins []gpio.PinIn
}

// NewGPIOButtons configures the named pins as pulled-up inputs.
func NewGPIOButtons(names ...string) (*GPIOButtons, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	b := &GPIOButtons{}
	for _, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("unknown gpio pin %q", name)
		}
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure %s: %w", name, err)
		}
		b.pins = append(b.pins, p)
	}
	return b, nil
}

// Read returns the raw level of button i; true means the line is high
// (released).
func (b *GPIOButtons) Read(i int) bool {
	if i < 0 || i >= len(b.pins) {
		return true
	}
	return b.pins[i].Read() == gpio.High
}
