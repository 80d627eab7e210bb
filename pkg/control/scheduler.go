package control

import (
	"context"
	"time"
)

// TaskFunc is the body of a scheduled task.
type TaskFunc func(ctx context.Context, now time.Time)

// Task runs its body at most once per interval.
type Task struct {
	name     string
	interval time.Duration
	fn       TaskFunc
	last     time.Time
	ran      bool
	runs     int
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Interval returns the current interval.
func (t *Task) Interval() time.Duration { return t.interval }

// SetInterval changes the interval; it applies from the next poll.
func (t *Task) SetInterval(d time.Duration) { t.interval = d }

// Runs returns how often the task has run.
func (t *Task) Runs() int { return t.runs }

func (t *Task) due(now time.Time) bool {
	return !t.ran || now.Sub(t.last) >= t.interval
}

// Scheduler polls tasks in registration order. Nothing blocks: a task that
// is not due is skipped until a later poll.
type Scheduler struct {
	tasks []*Task
}

// Every registers fn to run every d. A zero interval runs on every poll.
func (s *Scheduler) Every(name string, d time.Duration, fn TaskFunc) *Task {
	t := &Task{name: name, interval: d, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// Tasks returns the registered tasks.
func (s *Scheduler) Tasks() []*Task {
	return s.tasks
}

// Poll runs every due task once and returns how many ran.
func (s *Scheduler) Poll(ctx context.Context, now time.Time) int {
	n := 0
	for _, t := range s.tasks {
		if !t.due(now) {
			continue
		}
		t.last = now
		t.ran = true
		t.runs++
		t.fn(ctx, now)
		n++
	}
	return n
}
