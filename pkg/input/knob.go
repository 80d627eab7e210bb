package input

import "github.com/gwillem/armctl/pkg/robot"

// DefaultKnobThreshold is the knob movement, in degrees, that counts as a
// manual override.
const DefaultKnobThreshold = 5

// KnobReader returns the potentiometer positions as angles.
type KnobReader interface {
	ReadKnobs() robot.Angles
}

// KnobTracker detects deliberate knob motion. A channel moves when its
// reading differs from the last accepted value by more than the threshold;
// the accepted value then follows the reading.
type KnobTracker struct {
	reader    KnobReader
	threshold int
	last      robot.Angles
	primed    bool
}

// NewKnobTracker creates a tracker; threshold <= 0 selects the default.
func NewKnobTracker(reader KnobReader, threshold int) *KnobTracker {
	if threshold <= 0 {
		threshold = DefaultKnobThreshold
	}
	return &KnobTracker{reader: reader, threshold: threshold}
}

// Accepted returns the last accepted angles.
func (k *KnobTracker) Accepted() robot.Angles {
	return k.last
}

// Scan reads the knobs. It returns the current readings and whether any
// channel moved past the threshold. The first scan only primes the tracker.
func (k *KnobTracker) Scan() (robot.Angles, bool) {
	a := k.reader.ReadKnobs()
	if !k.primed {
		k.primed = true
		k.last = a
		return a, false
	}
	moved := false
	for i, v := range a {
		d := v - k.last[i]
		if d < 0 {
			d = -d
		}
		if d > k.threshold {
			k.last[i] = v
			moved = true
		}
	}
	return a, moved
}
