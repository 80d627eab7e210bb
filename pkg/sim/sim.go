// Package sim provides in-memory stand-ins for the arm's hardware: knobs,
// push-buttons, servos, status light, buzzer and camera. All types are safe
// for use from several goroutines.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/gwillem/armctl/pkg/robot"
	"github.com/gwillem/armctl/pkg/vision"
)

// Knobs simulates the six potentiometers.
type Knobs struct {
	mu     sync.Mutex
	angles robot.Angles
}

// NewKnobs returns knobs resting at initial.
func NewKnobs(initial robot.Angles) *Knobs {
	return &Knobs{angles: initial}
}

// Set turns one knob.
func (k *Knobs) Set(ch robot.Channel, deg int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if ch.Valid() {
		k.angles[ch] = deg
	}
}

// Nudge turns one knob by delta, staying in [0, 180].
func (k *Knobs) Nudge(ch robot.Channel, delta int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !ch.Valid() {
		return
	}
	v := k.angles[ch] + delta
	v = max(0, min(robot.MaxAngle, v))
	k.angles[ch] = v
}

// SetAll turns every knob.
func (k *Knobs) SetAll(a robot.Angles) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.angles = a
}

// ReadKnobs returns the current knob angles.
func (k *Knobs) ReadKnobs() robot.Angles {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.angles
}

// Buttons simulates active-low push-buttons.
type Buttons struct {
	mu    sync.Mutex
	now   func() time.Time
	held  map[int]bool
	until map[int]time.Time
}

// NewButtons returns released buttons; now drives timed presses.
func NewButtons(now func() time.Time) *Buttons {
	return &Buttons{now: now, held: map[int]bool{}, until: map[int]time.Time{}}
}

// Hold presses or releases button i until changed again.
func (b *Buttons) Hold(i int, pressed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.held[i] = pressed
	delete(b.until, i)
}

// Press holds button i for d.
func (b *Buttons) Press(i int, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.held[i] = false
	b.until[i] = b.now().Add(d)
}

// Read returns the line level of button i: false while pressed.
func (b *Buttons) Read(i int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.held[i] {
		return false
	}
	if t, ok := b.until[i]; ok && b.now().Before(t) {
		return false
	}
	return true
}

// Servos records the actuator commands written to it.
type Servos struct {
	mu     sync.Mutex
	last   robot.Commands
	writes int
	err    error
}

// Write records cmds.
func (s *Servos) Write(ctx context.Context, cmds robot.Commands) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.last = cmds
	s.writes++
	return nil
}

// FailWith makes subsequent writes return err; nil restores them.
func (s *Servos) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Last returns the most recent commands.
func (s *Servos) Last() robot.Commands {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Writes returns the number of successful writes.
func (s *Servos) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// RGB is a light color.
type RGB struct {
	R, G, B uint8
}

// Light records the status light color.
type Light struct {
	mu      sync.Mutex
	color   RGB
	changes int
}

func (l *Light) SetRGB(r, g, b uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = RGB{r, g, b}
	l.changes++
	return nil
}

// Color returns the current color.
func (l *Light) Color() RGB {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

// Changes returns how often the color was set.
func (l *Light) Changes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.changes
}

// Buzzer records tone and beep requests.
type Buzzer struct {
	mu    sync.Mutex
	on    bool
	beeps int
}

func (b *Buzzer) Tone(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.on = on
	return nil
}

func (b *Buzzer) Beep(count int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beeps += count
	return nil
}

// On reports whether a continuous tone is playing.
func (b *Buzzer) On() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on
}

// Beeps returns the total number of beeps requested.
func (b *Buzzer) Beeps() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.beeps
}

// Camera simulates the camera module: one box per detection register.
type Camera struct {
	mu    sync.Mutex
	blobs map[uint8]vision.Blob
	err   error
	reads int
}

// NewCamera returns a camera that sees nothing.
func NewCamera() *Camera {
	return &Camera{blobs: map[uint8]vision.Blob{}}
}

// Set places a box in register reg. A zero box clears it.
func (c *Camera) Set(reg uint8, b vision.Blob) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blobs[reg] = b
}

// Move shifts the box in register reg, staying inside the byte range.
func (c *Camera) Move(reg uint8, dx, dy int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.blobs[reg]
	b.X = uint8(min(max(int(b.X)+dx, 0), 255))
	b.Y = uint8(min(max(int(b.Y)+dy, 0), 255))
	c.blobs[reg] = b
}

// FailWith makes reads return err until called with nil.
func (c *Camera) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Reads returns the number of register reads.
func (c *Camera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func (c *Camera) Blob(reg uint8) (vision.Blob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.err != nil {
		return vision.Blob{}, c.err
	}
	return c.blobs[reg], nil
}
