package robot

import (
	"encoding/json"
	"fmt"
	"os"
)

// MotorCalibration holds calibration data for a single bus servo.
type MotorCalibration struct {
	ID       int `json:"id"`
	RangeMin int `json:"range_min"`
	RangeMax int `json:"range_max"`
}

// Calibration holds calibration data for all channels, keyed by channel name.
type Calibration map[string]MotorCalibration

// LoadCalibration loads calibration data from a JSON file.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	var cal Calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("parse calibration JSON: %w", err)
	}
	for name := range cal {
		if _, ok := ChannelByName(name); !ok {
			return nil, fmt.Errorf("unknown channel %q in calibration", name)
		}
	}

	return cal, nil
}

// Degrees converts a raw servo position to an angle in [0, 180].
func (c MotorCalibration) Degrees(raw int) float64 {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return 0
	}
	return float64(raw-c.RangeMin) / rangeSize * MaxAngle
}

// Raw converts an angle in [0, 180] to a raw servo position.
func (c MotorCalibration) Raw(deg float64) int {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	return int(deg/MaxAngle*rangeSize+0.5) + c.RangeMin
}

// For returns the calibration of a channel.
func (c Calibration) For(ch Channel) (MotorCalibration, bool) {
	mc, ok := c[ch.String()]
	return mc, ok
}

// MotorIDs returns the servo IDs for all calibrated channels in channel order.
func (c Calibration) MotorIDs() []int {
	ids := make([]int, 0, len(c))
	for _, ch := range AllChannels() {
		if mc, ok := c.For(ch); ok {
			ids = append(ids, mc.ID)
		}
	}
	return ids
}

// ByID returns the channel and calibration for a given servo ID.
func (c Calibration) ByID(id int) (Channel, MotorCalibration, bool) {
	for _, ch := range AllChannels() {
		if mc, ok := c.For(ch); ok && mc.ID == id {
			return ch, mc, true
		}
	}
	return 0, MotorCalibration{}, false
}

// LimitRange bounds a channel's filtered angle, in degrees.
type LimitRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Clamp restricts deg to the range.
func (r LimitRange) Clamp(deg float64) float64 {
	if deg < float64(r.Min) {
		return float64(r.Min)
	}
	if deg > float64(r.Max) {
		return float64(r.Max)
	}
	return deg
}

// Valid reports whether the range is ordered and inside [0, 180].
func (r LimitRange) Valid() bool {
	return r.Min >= 0 && r.Max <= MaxAngle && r.Min <= r.Max
}
