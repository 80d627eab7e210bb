package robot

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const DefaultConfigFile = "armctl.json"

// Servo driver names.
const (
	DriverFeetech = "feetech"
	DriverPCA9685 = "pca9685"
	DriverSim     = "sim"
)

// Status light back-ends.
const (
	LightSim = "sim"
	LightNRZ = "nrzled"
)

// Config holds the controller configuration
type Config struct {
	Servo     ServoConfig     `json:"servo"`
	Host      HostConfig      `json:"host"`
	Buttons   ButtonConfig    `json:"buttons"`
	Filter    FilterConfig    `json:"filter"`
	Timing    TimingConfig    `json:"timing"`
	Store     StoreConfig     `json:"store"`
	Indicator IndicatorConfig `json:"indicator"`
	Vision    VisionConfig    `json:"vision"`
	Presets   string          `json:"presets,omitempty"`
}

// ServoConfig selects and configures the servo back-end
type ServoConfig struct {
	Driver      string      `json:"driver"`
	Port        string      `json:"port,omitempty"`
	I2CBus      string      `json:"i2c_bus,omitempty"`
	I2CAddr     uint16      `json:"i2c_addr,omitempty"`
	Calibration Calibration `json:"calibration,omitempty"`
}

// HostConfig configures the host command stream
type HostConfig struct {
	Port   string `json:"port,omitempty"`
	Baud   int    `json:"baud,omitempty"`
	Listen string `json:"listen,omitempty"`
}

// ButtonConfig names the GPIO pins of the two push-buttons
type ButtonConfig struct {
	Pins [2]string `json:"pins"`
}

// FilterConfig holds smoothing and clamping parameters
type FilterConfig struct {
	Alpha    float64               `json:"alpha"`
	Mirrored [NumChannels]bool     `json:"mirrored"`
	Limits   map[string]LimitRange `json:"limits,omitempty"`
	Initial  Angles                `json:"initial"`
}

// TimingConfig holds subsystem cadences in milliseconds
type TimingConfig struct {
	KnobMs      int `json:"knob_ms"`
	FilterMs    int `json:"filter_ms"`
	ScanMs      int `json:"scan_ms"`
	PlaybackMs  int `json:"playback_ms"`
	PollMs      int `json:"poll_ms"`
	PresetMs    int `json:"preset_ms"`
	LongPressMs int `json:"long_press_ms"`
}

// IndicatorConfig selects the status light and buzzer outputs
type IndicatorConfig struct {
	Light     string `json:"light,omitempty"`
	SPIPort   string `json:"spi_port,omitempty"`
	Pixels    int    `json:"pixels,omitempty"`
	BuzzerPin string `json:"buzzer_pin,omitempty"`
}

// VisionConfig locates the camera module that feeds extended mode
type VisionConfig struct {
	I2CBus   string `json:"i2c_bus,omitempty"`
	I2CAddr  uint16 `json:"i2c_addr,omitempty"`
	Register uint8  `json:"register,omitempty"`
	PeriodMs int    `json:"period_ms,omitempty"`
}

// StoreConfig locates the persistent action store
type StoreConfig struct {
	Path string `json:"path"`
}

// DefaultConfig returns a config with the stock cadences and a simulated arm
func DefaultConfig() *Config {
	return &Config{
		Servo: ServoConfig{Driver: DriverSim},
		Host:  HostConfig{Baud: 115200},
		Buttons: ButtonConfig{
			Pins: [2]string{"GPIO17", "GPIO27"},
		},
		Filter: FilterConfig{
			Alpha:    0.85,
			Mirrored: [NumChannels]bool{true, false, false, false, false, true},
			Initial:  Uniform(90),
		},
		Timing: TimingConfig{
			KnobMs:      10,
			FilterMs:    20,
			ScanMs:      20,
			PlaybackMs:  1000,
			PollMs:      20,
			PresetMs:    100,
			LongPressMs: 1000,
		},
		Store:     StoreConfig{Path: "actions.bin"},
		Indicator: IndicatorConfig{Light: LightSim, Pixels: 1},
		Vision:    VisionConfig{Register: 1, PeriodMs: 100},
	}
}

// LimitRanges returns the per-channel limit ranges; channels without one are nil.
func (f FilterConfig) LimitRanges() ([NumChannels]*LimitRange, error) {
	var out [NumChannels]*LimitRange
	for name, r := range f.Limits {
		ch, ok := ChannelByName(name)
		if !ok {
			return out, fmt.Errorf("unknown channel %q in limits", name)
		}
		if !r.Valid() {
			return out, fmt.Errorf("invalid limit range for %s: %d..%d", name, r.Min, r.Max)
		}
		r := r
		out[ch] = &r
	}
	return out, nil
}

// Duration converts a millisecond setting.
func Duration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// IsCalibrated returns true if the servo back-end has calibration data
func (s *ServoConfig) IsCalibrated() bool {
	return len(s.Calibration) > 0
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Missing sections
// keep their defaults.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	return ConfigExistsAt(DefaultConfigFile)
}

// ConfigExistsAt returns true if a config file exists at path
func ConfigExistsAt(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
