package filter

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/armctl/pkg/robot"
)

func TestFilter_Convergence(t *testing.T) {
	f := New(Options{Alpha: 0.85, Initial: robot.Uniform(0)})

	const target = 120
	start := math.Abs(f.Angle(robot.Elbow) - target)
	prev := start
	for n := 1; n <= 40; n++ {
		f.Update(robot.Elbow, target)
		dist := math.Abs(f.Angle(robot.Elbow) - target)

		assert.LessOrEqual(t, dist, prev, "tick %d moved away from target", n)
		assert.InDelta(t, start*math.Pow(0.85, float64(n)), dist, 1e-9, "tick %d", n)
		prev = dist
	}
}

func TestFilter_DefaultAlpha(t *testing.T) {
	for _, alpha := range []float64{-0.1, 1, 2} {
		f := New(Options{Alpha: alpha})
		assert.Equal(t, DefaultAlpha, f.Alpha())
	}
	assert.Equal(t, 0.0, New(Options{Alpha: 0}).Alpha())
}

func TestFilter_StaysInRange(t *testing.T) {
	gripper := robot.LimitRange{Min: 30, Max: 150}
	var limits [robot.NumChannels]*robot.LimitRange
	limits[robot.Gripper] = &gripper

	f := New(Options{
		Alpha:    0.85,
		Mirrored: [robot.NumChannels]bool{true, false, false, false, false, true},
		Limits:   limits,
		Initial:  robot.Uniform(90),
	})

	rng := rand.New(rand.NewSource(1))
	for tick := 0; tick < 2000; tick++ {
		var raw robot.Angles
		for i := range raw {
			raw[i] = rng.Intn(600) - 200 // well outside [0, 180]
		}
		cmds := f.Step(raw)

		for _, ch := range robot.AllChannels() {
			a := f.Angle(ch)
			require.GreaterOrEqual(t, a, 0.0)
			require.LessOrEqual(t, a, 180.0)
			require.GreaterOrEqual(t, cmds[ch], 0.0)
			require.LessOrEqual(t, cmds[ch], 180.0)
		}
		require.GreaterOrEqual(t, f.Angle(robot.Gripper), 30.0)
		require.LessOrEqual(t, f.Angle(robot.Gripper), 150.0)
	}
}

func TestFilter_Mirrored(t *testing.T) {
	f := New(Options{
		Alpha:    0,
		Mirrored: [robot.NumChannels]bool{true, false, false, false, false, true},
	})

	cmds := f.Step(robot.Angles{45, 45, 45, 45, 45, 10})
	assert.Equal(t, 135.0, cmds[robot.Base])
	assert.Equal(t, 45.0, cmds[robot.Shoulder])
	assert.Equal(t, 170.0, cmds[robot.Gripper])
	assert.Equal(t, 45.0, f.Angle(robot.Base))
	assert.Equal(t, cmds, f.Commands())
}

func TestFilter_InitialClamped(t *testing.T) {
	wrist := robot.LimitRange{Min: 40, Max: 100}
	var limits [robot.NumChannels]*robot.LimitRange
	limits[robot.Wrist] = &wrist

	f := New(Options{Limits: limits, Initial: robot.Angles{-5, 200, 90, 10, 90, 90}})
	assert.Equal(t, 0.0, f.Angle(robot.Base))
	assert.Equal(t, 180.0, f.Angle(robot.Shoulder))
	assert.Equal(t, 40.0, f.Angle(robot.Wrist))
}

func TestFilter_InvalidChannel(t *testing.T) {
	f := New(Options{Initial: robot.Uniform(90)})
	assert.Equal(t, 0.0, f.Update(robot.Channel(7), 10))
	assert.Equal(t, 0.0, f.Angle(robot.Channel(-1)))
	assert.Equal(t, robot.Uniform(90), f.Rounded())
}
