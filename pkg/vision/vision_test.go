package vision_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/gwillem/armctl/pkg/robot"
	"github.com/gwillem/armctl/pkg/sim"
	"github.com/gwillem/armctl/pkg/vision"
)

func TestESP32Cam_Blob(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: vision.ESP32CamAddr, W: []byte{0x01}, R: []byte{10, 20, 30, 40}},
		{Addr: vision.ESP32CamAddr, W: []byte{0x01}, R: []byte{0, 0, 0, 0}},
	}}
	cam := vision.NewESP32Cam(bus, 0)

	b, err := cam.Blob(vision.RegGreen)
	require.NoError(t, err)
	assert.Equal(t, vision.Blob{X: 10, Y: 20, W: 30, H: 40}, b)
	x, y := b.Center()
	assert.Equal(t, 25, x)
	assert.Equal(t, 40, y)

	face, err := cam.FaceDetected()
	require.NoError(t, err)
	assert.False(t, face)
	assert.NoError(t, cam.Close())
}

func TestESP32Cam_BusError(t *testing.T) {
	cam := vision.NewESP32Cam(&i2ctest.Playback{DontPanic: true}, 0x30)
	_, err := cam.Blob(vision.RegRed)
	assert.Error(t, err)
}

func TestDetectColor(t *testing.T) {
	cam := sim.NewCamera()
	c, _, err := vision.DetectColor(cam)
	require.NoError(t, err)
	assert.Equal(t, vision.NoColor, c)

	cam.Set(vision.RegBlue, vision.Blob{X: 1, W: 5, H: 5})
	c, b, err := vision.DetectColor(cam)
	require.NoError(t, err)
	assert.Equal(t, vision.Blue, c)
	assert.Equal(t, uint8(1), b.X)

	cam.Set(vision.RegRed, vision.Blob{W: 2, H: 2})
	c, _, _ = vision.DetectColor(cam)
	assert.Equal(t, vision.Red, c, "red wins over blue")

	cam.FailWith(errors.New("nack"))
	_, _, err = vision.DetectColor(cam)
	assert.Error(t, err)
}

func TestParseBehavior(t *testing.T) {
	b, err := vision.ParseBehavior("clamp")
	require.NoError(t, err)
	assert.Equal(t, vision.Clamp, b)
	assert.Equal(t, "clamp", b.String())

	_, err = vision.ParseBehavior("dance")
	assert.Error(t, err)
}

func TestTracker_Trace(t *testing.T) {
	tr := vision.NewTracker(vision.TrackerOptions{Home: robot.Uniform(90)})

	_, ok := tr.Update(vision.Blob{})
	assert.False(t, ok, "nothing seen yet")

	// centered box: first detection is sent unchanged
	pose, ok := tr.Update(vision.Blob{X: 70, Y: 50, W: 20, H: 20})
	require.True(t, ok)
	assert.Equal(t, robot.Uniform(90), pose)

	_, ok = tr.Update(vision.Blob{X: 72, Y: 52, W: 20, H: 20})
	assert.False(t, ok, "inside the deadband")

	// target 40 px to the right and 20 px low
	pose, ok = tr.Update(vision.Blob{X: 110, Y: 70, W: 20, H: 20})
	require.True(t, ok)
	assert.Equal(t, 86, pose[robot.Base])
	assert.Equal(t, 92, pose[robot.Wrist])
	assert.Equal(t, 90, pose[robot.Gripper], "trace leaves the gripper alone")
}

func TestTracker_TraceClampsToRange(t *testing.T) {
	tr := vision.NewTracker(vision.TrackerOptions{Home: robot.Uniform(90), Gain: 10})
	pose, _ := tr.Update(vision.Blob{X: 200, Y: 60, W: 10, H: 0})
	assert.Equal(t, 0, pose[robot.Base])
}

func TestTracker_Clamp(t *testing.T) {
	tr := vision.NewTracker(vision.TrackerOptions{Behavior: vision.Clamp, Home: robot.Uniform(90), LostFrames: 3})
	assert.Equal(t, 90, tr.Pose()[robot.Gripper])

	pose, ok := tr.Update(vision.Blob{X: 60, Y: 40, W: 40, H: 40})
	require.True(t, ok)
	assert.Equal(t, 90, pose[robot.Gripper], "far target keeps the gripper open")

	pose, ok = tr.Update(vision.Blob{X: 50, Y: 30, W: 60, H: 60})
	require.True(t, ok)
	assert.Equal(t, 150, pose[robot.Gripper], "near target closes the gripper")

	for range 2 {
		_, ok = tr.Update(vision.Blob{})
		assert.False(t, ok)
	}
	pose, ok = tr.Update(vision.Blob{})
	require.True(t, ok, "lost target returns home")
	assert.Equal(t, robot.Uniform(90), pose)
}

type poses struct {
	mu  sync.Mutex
	got []robot.Angles
}

func (p *poses) sink(a robot.Angles) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, a)
	return true
}

func (p *poses) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func TestRun(t *testing.T) {
	cam := sim.NewCamera()
	cam.FailWith(errors.New("nack"))
	tr := vision.NewTracker(vision.TrackerOptions{Home: robot.Uniform(90)})
	out := &poses{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- vision.Run(ctx, cam, vision.RegGreen, tr, time.Millisecond, out.sink, zerolog.Nop())
	}()

	require.Eventually(t, func() bool { return cam.Reads() >= 3 }, time.Second, time.Millisecond)
	assert.Zero(t, out.len(), "read errors send nothing")

	cam.FailWith(nil)
	cam.Set(vision.RegGreen, vision.Blob{X: 120, Y: 50, W: 20, H: 20})
	require.Eventually(t, func() bool { return out.len() >= 2 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	out.mu.Lock()
	defer out.mu.Unlock()
	assert.Less(t, out.got[1][robot.Base], out.got[0][robot.Base], "base turns toward the target")
}

func TestRun_InvalidPeriod(t *testing.T) {
	err := vision.Run(context.Background(), sim.NewCamera(), 0, vision.NewTracker(vision.TrackerOptions{}), 0, nil, zerolog.Nop())
	assert.Error(t, err)
}
