// Package indicator maps controller status to the status light and buzzer.
package indicator

import (
	"errors"

	"github.com/rs/zerolog"
)

// Status is a user-visible controller state.
type Status int

const (
	Ready Status = iota
	Host
	Learning
	PoseCaptured
	Recorded
	Cancelled
	Playing
	Extended
)

var statusNames = [...]string{
	Ready:        "ready",
	Host:         "host",
	Learning:     "learning",
	PoseCaptured: "pose-captured",
	Recorded:     "recorded",
	Cancelled:    "cancelled",
	Playing:      "playing",
	Extended:     "extended",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// Indicator shows a status to the user.
type Indicator interface {
	Indicate(Status)
}

// Nop discards every status.
type Nop struct{}

func (Nop) Indicate(Status) {}

// Light is the RGB status light.
type Light interface {
	SetRGB(r, g, b uint8) error
}

// Buzzer is the tone output. Melody playback lives behind Beep.
type Buzzer interface {
	Tone(on bool) error
	Beep(count int) error
}

// Lights shows one color on several lights.
type Lights []Light

func (ls Lights) SetRGB(r, g, b uint8) error {
	var errs []error
	for _, l := range ls {
		if err := l.SetRGB(r, g, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Buzzers sounds several buzzers together.
type Buzzers []Buzzer

func (bs Buzzers) Tone(on bool) error {
	var errs []error
	for _, b := range bs {
		if err := b.Tone(on); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (bs Buzzers) Beep(count int) error {
	var errs []error
	for _, b := range bs {
		if err := b.Beep(count); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type cue struct {
	r, g, b uint8
	beeps   int
}

var cues = map[Status]cue{
	Ready:        {0, 0, 255, 0},
	Host:         {0, 255, 0, 0},
	Learning:     {255, 0, 0, 1},
	PoseCaptured: {255, 0, 0, 1},
	Recorded:     {0, 0, 255, 2},
	Cancelled:    {0, 0, 255, 0},
	Playing:      {255, 0, 255, 0},
	Extended:     {255, 160, 0, 0},
}

// Panel drives a Light and a Buzzer. Either may be nil.
type Panel struct {
	light   Light
	buzzer  Buzzer
	log     zerolog.Logger
	current Status
}

// NewPanel creates a Panel showing Ready.
func NewPanel(light Light, buzzer Buzzer, log zerolog.Logger) *Panel {
	p := &Panel{light: light, buzzer: buzzer, log: log}
	p.Indicate(Ready)
	return p
}

// Current returns the last status shown.
func (p *Panel) Current() Status {
	return p.current
}

// Indicate shows s. Hardware failures are logged and otherwise ignored.
func (p *Panel) Indicate(s Status) {
	p.current = s
	c, ok := cues[s]
	if !ok {
		return
	}
	if p.light != nil {
		if err := p.light.SetRGB(c.r, c.g, c.b); err != nil {
			p.log.Warn().Err(err).Stringer("status", s).Msg("status light")
		}
	}
	if p.buzzer != nil && c.beeps > 0 {
		if err := p.buzzer.Beep(c.beeps); err != nil {
			p.log.Warn().Err(err).Stringer("status", s).Msg("status beep")
		}
	}
}
