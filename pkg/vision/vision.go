// Package vision turns detections from an ESP32-Cam style camera module
// into extended-mode poses: the arm follows a colored blob or a face, and
// in clamp mode closes the gripper once the target is close enough.
package vision

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gwillem/armctl/pkg/robot"
)

// Blob is a detection box in camera coordinates. W is zero when nothing
// was detected.
type Blob struct {
	X, Y, W, H uint8
}

// Found reports whether the camera saw a target.
func (b Blob) Found() bool {
	return b.W > 0
}

// Center returns the middle of the box.
func (b Blob) Center() (x, y int) {
	return int(b.X) + int(b.W)/2, int(b.Y) + int(b.H)/2
}

// Detection registers of the camera module. Which target a register holds
// depends on the camera firmware; the color firmware uses one register per
// color and the face firmware reports faces in RegFace.
const (
	RegRed   uint8 = 0x00
	RegGreen uint8 = 0x01
	RegBlue  uint8 = 0x02
	RegFace  uint8 = 0x01
)

// Color is a color reported by the camera's color firmware.
type Color int

const (
	NoColor Color = iota
	Red
	Green
	Blue
)

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return "none"
}

// Camera reads one detection register.
type Camera interface {
	Blob(reg uint8) (Blob, error)
}

// DetectColor returns the first color the camera sees, checking red, green
// and blue in that order.
func DetectColor(cam Camera) (Color, Blob, error) {
	for i, reg := range []uint8{RegRed, RegGreen, RegBlue} {
		b, err := cam.Blob(reg)
		if err != nil {
			return NoColor, Blob{}, err
		}
		if b.Found() {
			return Color(i + 1), b, nil
		}
	}
	return NoColor, Blob{}, nil
}

// Sink receives a pose. It reports whether the pose was accepted.
type Sink func(robot.Angles) bool

// Run polls reg every period and sends the tracker's pose to sink whenever
// it changes. Read errors are logged and polling continues. Run returns
// when ctx is done.
func Run(ctx context.Context, cam Camera, reg uint8, t *Tracker, period time.Duration, sink Sink, log zerolog.Logger) error {
	if period <= 0 {
		return fmt.Errorf("vision: invalid period %s", period)
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		b, err := cam.Blob(reg)
		if err != nil {
			if !failing {
				log.Warn().Err(err).Msg("camera read")
			}
			failing = true
			continue
		}
		if failing {
			log.Info().Msg("camera back")
			failing = false
		}
		if pose, ok := t.Update(b); ok && !sink(pose) {
			log.Debug().Msg("vision pose dropped")
		}
	}
}
