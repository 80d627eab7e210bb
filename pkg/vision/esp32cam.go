package vision

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// ESP32CamAddr is the module's default I2C address.
const ESP32CamAddr = 0x52

// ESP32Cam reads detections from the camera module over I2C. Each register
// holds a 4-byte x, y, w, h box.
type ESP32Cam struct {
	dev *i2c.Dev
	bus i2c.BusCloser
}

// NewESP32Cam talks to the module on an already open bus.
func NewESP32Cam(bus i2c.Bus, addr uint16) *ESP32Cam {
	if addr == 0 {
		addr = ESP32CamAddr
	}
	return &ESP32Cam{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// OpenESP32Cam opens the named I2C bus. An empty name selects the first
// available bus.
func OpenESP32Cam(busName string, addr uint16) (*ESP32Cam, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	c := NewESP32Cam(bus, addr)
	c.bus = bus
	return c, nil
}

// Blob reads one detection register.
func (c *ESP32Cam) Blob(reg uint8) (Blob, error) {
	var box [4]byte
	if err := c.dev.Tx([]byte{reg}, box[:]); err != nil {
		return Blob{}, fmt.Errorf("read camera register %#02x: %w", reg, err)
	}
	return Blob{X: box[0], Y: box[1], W: box[2], H: box[3]}, nil
}

// FaceDetected reports whether the face firmware sees a face.
func (c *ESP32Cam) FaceDetected() (bool, error) {
	b, err := c.Blob(RegFace)
	if err != nil {
		return false, err
	}
	return b.Found(), nil
}

// Close releases the bus when the camera opened it.
func (c *ESP32Cam) Close() error {
	if c.bus == nil {
		return nil
	}
	return c.bus.Close()
}
