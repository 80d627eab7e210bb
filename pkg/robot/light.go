package robot

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// nrzSPIFreq is the only SPI clock nrzled accepts.
const nrzSPIFreq = 2500 * physic.KiloHertz

// NRZLight drives a WS2812-style LED strip over SPI as the status light.
// Every pixel shows the same color.
type NRZLight struct {
	port spi.PortCloser
	dev  *nrzled.Dev
	buf  []byte
}

// NewNRZLight opens the named SPI port. An empty name selects the first
// available port.
func NewNRZLight(portName string, pixels int) (*NRZLight, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open spi port: %w", err)
	}
	l, err := newNRZLight(port, pixels)
	if err != nil {
		port.Close()
		return nil, err
	}
	return l, nil
}

func newNRZLight(port spi.PortCloser, pixels int) (*NRZLight, error) {
	if pixels <= 0 {
		pixels = 1
	}
	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: pixels,
		Channels:  3,
		Freq:      nrzSPIFreq,
	})
	if err != nil {
		return nil, fmt.Errorf("open nrzled: %w", err)
	}
	return &NRZLight{port: port, dev: dev, buf: make([]byte, 3*pixels)}, nil
}

// SetRGB paints the whole strip.
func (l *NRZLight) SetRGB(r, g, b uint8) error {
	for i := 0; i < len(l.buf); i += 3 {
		l.buf[i], l.buf[i+1], l.buf[i+2] = r, g, b
	}
	if _, err := l.dev.Write(l.buf); err != nil {
		return fmt.Errorf("write led strip: %w", err)
	}
	return nil
}

// Close turns the strip off and releases the SPI port.
func (l *NRZLight) Close() error {
	if err := l.dev.Halt(); err != nil {
		l.port.Close()
		return fmt.Errorf("halt led strip: %w", err)
	}
	return l.port.Close()
}
