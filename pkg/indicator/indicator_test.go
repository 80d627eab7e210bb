package indicator

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/gwillem/armctl/pkg/sim"
)

func TestPanel_Indicate(t *testing.T) {
	light := &sim.Light{}
	buzzer := &sim.Buzzer{}
	p := NewPanel(light, buzzer, zerolog.Nop())

	assert.Equal(t, Ready, p.Current())
	assert.Equal(t, sim.RGB{B: 255}, light.Color())
	assert.Equal(t, 0, buzzer.Beeps())

	p.Indicate(Learning)
	assert.Equal(t, sim.RGB{R: 255}, light.Color())
	assert.Equal(t, 1, buzzer.Beeps())

	p.Indicate(Recorded)
	assert.Equal(t, 3, buzzer.Beeps())
	assert.Equal(t, Recorded, p.Current())
}

func TestPanel_NilOutputs(t *testing.T) {
	p := NewPanel(nil, nil, zerolog.Nop())
	p.Indicate(Host)
	assert.Equal(t, Host, p.Current())
}

type brokenLight struct{}

func (brokenLight) SetRGB(r, g, b uint8) error { return errors.New("spi busy") }

func TestPanel_FanOut(t *testing.T) {
	shown, mirror := &sim.Light{}, &sim.Light{}
	b1, b2 := &sim.Buzzer{}, &sim.Buzzer{}
	p := NewPanel(Lights{brokenLight{}, shown, mirror}, Buzzers{b1, b2}, zerolog.Nop())

	p.Indicate(Recorded)
	assert.Equal(t, sim.RGB{B: 255}, shown.Color(), "a failing light does not stop the others")
	assert.Equal(t, shown.Color(), mirror.Color())
	assert.Equal(t, 2, b1.Beeps())
	assert.Equal(t, 2, b2.Beeps())

	assert.Error(t, Lights{brokenLight{}, shown}.SetRGB(1, 2, 3))
	assert.Equal(t, sim.RGB{R: 1, G: 2, B: 3}, shown.Color())
	assert.NoError(t, Buzzers{b1, b2}.Tone(true))
	assert.True(t, b2.On())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "pose-captured", PoseCaptured.String())
	assert.Equal(t, "unknown", Status(42).String())
}
