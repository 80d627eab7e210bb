// Package input debounces the push-buttons and tracks the knobs.
package input

import (
	"fmt"
	"time"
)

// Pins reads the raw line level of a button; buttons are active-low, so
// false means pressed.
type Pins interface {
	Read(i int) bool
}

// Kind classifies a button event.
type Kind int

const (
	ShortPress Kind = iota
	LongPress
	Release
)

func (k Kind) String() string {
	switch k {
	case ShortPress:
		return "short"
	case LongPress:
		return "long"
	case Release:
		return "release"
	}
	return "unknown"
}

// Event is a debounced button event.
type Event struct {
	Button int
	Kind   Kind
}

func (e Event) String() string {
	return fmt.Sprintf("button%d:%s", e.Button+1, e.Kind)
}

// Defaults for ScannerOptions.
const (
	DefaultButtons   = 2
	DefaultStable    = 2
	DefaultLongPress = time.Second
)

// ScannerOptions configures a Scanner.
type ScannerOptions struct {
	Buttons int
	// Stable is the number of consecutive identical reads needed to accept
	// a level change.
	Stable int
	// LongPress is how long a button must be held to count as a long press.
	LongPress time.Duration
}

type buttonState struct {
	pressed   bool
	candidate bool
	count     int
	pressedAt time.Time
	longFired bool
}

// Scanner turns raw button reads into press events. Call Scan at a fixed
// poll interval.
type Scanner struct {
	pins    Pins
	opts    ScannerOptions
	buttons []buttonState
}

// NewScanner creates a Scanner over pins.
func NewScanner(pins Pins, opts ScannerOptions) *Scanner {
	if opts.Buttons <= 0 {
		opts.Buttons = DefaultButtons
	}
	if opts.Stable <= 0 {
		opts.Stable = DefaultStable
	}
	if opts.LongPress <= 0 {
		opts.LongPress = DefaultLongPress
	}
	return &Scanner{
		pins:    pins,
		opts:    opts,
		buttons: make([]buttonState, opts.Buttons),
	}
}

// Pressed reports the debounced state of button i.
func (s *Scanner) Pressed(i int) bool {
	if i < 0 || i >= len(s.buttons) {
		return false
	}
	return s.buttons[i].pressed
}

// Scan polls every button once and returns the events it produced.
func (s *Scanner) Scan(now time.Time) []Event {
	var events []Event
	for i := range s.buttons {
		b := &s.buttons[i]
		raw := !s.pins.Read(i)

		switch {
		case raw == b.pressed:
			b.count = 0
		case b.count > 0 && raw == b.candidate:
			b.count++
		default:
			b.candidate = raw
			b.count = 1
		}

		if b.count >= s.opts.Stable {
			b.count = 0
			b.pressed = raw
			if raw {
				b.pressedAt = now
				b.longFired = false
			} else {
				if !b.longFired {
					events = append(events, Event{Button: i, Kind: ShortPress})
				}
				events = append(events, Event{Button: i, Kind: Release})
			}
		}

		if b.pressed && !b.longFired && now.Sub(b.pressedAt) >= s.opts.LongPress {
			b.longFired = true
			events = append(events, Event{Button: i, Kind: LongPress})
		}
	}
	return events
}
