// Package action records poses into the persistent action store and plays
// them back.
package action

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gwillem/armctl/pkg/indicator"
	"github.com/gwillem/armctl/pkg/robot"
	"github.com/gwillem/armctl/pkg/store"
)

// Playback reports whether an action group is being played.
type Playback interface {
	Running() bool
}

// Recorder captures poses during a learning session and commits them to
// the store.
type Recorder struct {
	store    *store.Store
	playback Playback
	ind      indicator.Indicator
	log      zerolog.Logger

	learning bool
	buf      []store.ActionRecord
}

// NewRecorder creates a Recorder. Learning cannot start while playback
// reports running.
func NewRecorder(st *store.Store, playback Playback, ind indicator.Indicator, log zerolog.Logger) *Recorder {
	if ind == nil {
		ind = indicator.Nop{}
	}
	return &Recorder{
		store:    st,
		playback: playback,
		ind:      ind,
		log:      log,
		buf:      make([]store.ActionRecord, 0, store.Capacity),
	}
}

// Learning reports whether a learning session is open.
func (r *Recorder) Learning() bool {
	return r.learning
}

// Len returns the number of buffered poses.
func (r *Recorder) Len() int {
	return len(r.buf)
}

// Poses returns a copy of the buffered poses.
func (r *Recorder) Poses() []store.ActionRecord {
	return append([]store.ActionRecord(nil), r.buf...)
}

// StartLearning opens a learning session with an empty buffer. It does
// nothing while an action group is playing.
func (r *Recorder) StartLearning() bool {
	if r.playback != nil && r.playback.Running() {
		r.log.Debug().Msg("learning refused during playback")
		return false
	}
	r.buf = r.buf[:0]
	r.learning = true
	r.ind.Indicate(indicator.Learning)
	r.log.Info().Msg("learning started")
	return true
}

// RecordPose appends a pose. Poses past capacity are dropped.
func (r *Recorder) RecordPose(a robot.Angles) bool {
	if !r.learning {
		return false
	}
	if len(r.buf) >= store.Capacity {
		r.log.Warn().Int("capacity", store.Capacity).Msg("pose dropped, buffer full")
		return false
	}
	r.buf = append(r.buf, store.RecordFrom(a))
	r.ind.Indicate(indicator.PoseCaptured)
	r.log.Info().Int("pose", len(r.buf)).Ints("angles", a[:]).Msg("pose recorded")
	return true
}

// Commit writes the buffered poses to the store and closes the session.
func (r *Recorder) Commit() error {
	if !r.learning {
		return nil
	}
	r.learning = false
	if err := r.store.Commit(r.buf); err != nil {
		r.ind.Indicate(indicator.Cancelled)
		return fmt.Errorf("commit %d poses: %w", len(r.buf), err)
	}
	r.ind.Indicate(indicator.Recorded)
	r.log.Info().Int("count", len(r.buf)).Msg("action group committed")
	return nil
}

// Cancel discards the buffered poses and closes the session.
func (r *Recorder) Cancel() {
	if !r.learning {
		return
	}
	r.learning = false
	r.buf = r.buf[:0]
	r.ind.Indicate(indicator.Cancelled)
	r.log.Info().Msg("learning cancelled")
}
