package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gwillem/armctl/pkg/indicator"
	"github.com/gwillem/armctl/pkg/robot"
)

func TestScheduler_Cadence(t *testing.T) {
	var s Scheduler
	clk := NewVirtualClock(time.Unix(0, 0))

	var every, fast, slow []time.Duration
	start := clk.Now()
	s.Every("every", 0, func(_ context.Context, now time.Time) { every = append(every, now.Sub(start)) })
	s.Every("fast", 10*time.Millisecond, func(_ context.Context, now time.Time) { fast = append(fast, now.Sub(start)) })
	s.Every("slow", 25*time.Millisecond, func(_ context.Context, now time.Time) { slow = append(slow, now.Sub(start)) })

	for range 10 {
		s.Poll(context.Background(), clk.Now())
		clk.Advance(5 * time.Millisecond)
	}

	ms := time.Millisecond
	assert.Len(t, every, 10)
	assert.Equal(t, []time.Duration{0, 10 * ms, 20 * ms, 30 * ms, 40 * ms}, fast)
	assert.Equal(t, []time.Duration{0, 25 * ms}, slow)
}

func TestScheduler_Order(t *testing.T) {
	var s Scheduler
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		s.Every(name, time.Second, func(context.Context, time.Time) { order = append(order, name) })
	}
	assert.Equal(t, 3, s.Poll(context.Background(), time.Unix(0, 0)))
	assert.Equal(t, 0, s.Poll(context.Background(), time.Unix(0, 1)))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestTask_SetInterval(t *testing.T) {
	var s Scheduler
	clk := NewVirtualClock(time.Unix(0, 0))
	task := s.Every("t", time.Second, func(context.Context, time.Time) {})

	s.Poll(context.Background(), clk.Now())
	clk.Advance(20 * time.Millisecond)
	s.Poll(context.Background(), clk.Now())
	assert.Equal(t, 1, task.Runs())

	task.SetInterval(20 * time.Millisecond)
	s.Poll(context.Background(), clk.Now())
	assert.Equal(t, 2, task.Runs())
	assert.Equal(t, "t", task.Name())
	assert.Equal(t, 20*time.Millisecond, task.Interval())
}

func TestMode_String(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{KnobMode{}, "knob"},
		{HostMode{}, "host"},
		{ActionGroupMode{}, "action-group"},
		{ActionGroupMode{Loop: true}, "action-group(loop)"},
		{ExtendedMode{}, "extended"},
		{ExtendedMode{Preset: "wave"}, "extended(wave)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mode.String())
	}
	assert.Equal(t, indicator.Host, statusFor(HostMode{}))
}

func TestControllerState_RawTargets(t *testing.T) {
	s := NewControllerState(robot.Uniform(90))
	s.Knob = robot.Uniform(1)
	s.Command = robot.Uniform(2)
	s.Action = robot.Uniform(3)
	s.Extended = robot.Uniform(4)

	for mode, want := range map[Mode]int{
		KnobMode{}:        1,
		HostMode{}:        2,
		ActionGroupMode{}: 3,
		ExtendedMode{}:    4,
	} {
		s.Mode = mode
		assert.Equal(t, robot.Uniform(want), s.RawTargets(), mode.String())
	}
}
