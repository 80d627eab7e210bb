package robot

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Beep timing of the GPIO buzzer.
const (
	beepOn  = 80 * time.Millisecond
	beepOff = 80 * time.Millisecond
)

type levelOut interface {
	Out(l gpio.Level) error
}

// GPIOBuzzer drives an active buzzer wired to a GPIO pin, high for sound.
// Beeps play on their own goroutine so callers never wait for them.
type GPIOBuzzer struct {
	pin   levelOut
	sleep func(time.Duration)

	mu   sync.Mutex
	tone bool
	gen  int
	wg   sync.WaitGroup
}

// NewGPIOBuzzer configures the named pin as a low output.
func NewGPIOBuzzer(name string) (*GPIOBuzzer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown gpio pin %q", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("configure %s: %w", name, err)
	}
	return newGPIOBuzzer(p, time.Sleep), nil
}

func newGPIOBuzzer(pin levelOut, sleep func(time.Duration)) *GPIOBuzzer {
	return &GPIOBuzzer{pin: pin, sleep: sleep}
}

// Tone starts or stops a continuous tone. It interrupts any beeps.
func (b *GPIOBuzzer) Tone(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.tone = on
	return b.pin.Out(gpio.Level(on))
}

// Beep queues count short beeps. Beeps are skipped while a tone plays.
func (b *GPIOBuzzer) Beep(count int) error {
	b.mu.Lock()
	if b.tone || count <= 0 {
		b.mu.Unlock()
		return nil
	}
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for range count {
			if !b.set(gen, gpio.High) {
				return
			}
			b.sleep(beepOn)
			if !b.set(gen, gpio.Low) {
				return
			}
			b.sleep(beepOff)
		}
	}()
	return nil
}

// set drives the pin unless a newer request took over.
func (b *GPIOBuzzer) set(gen int, l gpio.Level) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return false
	}
	return b.pin.Out(l) == nil
}

// Close waits for pending beeps and silences the buzzer.
func (b *GPIOBuzzer) Close() error {
	b.mu.Lock()
	b.gen++
	b.tone = false
	b.mu.Unlock()
	b.wg.Wait()
	return b.pin.Out(gpio.Low)
}
