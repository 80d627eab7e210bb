package robot

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armctl.json")

	cfg := DefaultConfig()
	cfg.Servo.Driver = DriverFeetech
	cfg.Servo.Port = "/dev/ttyUSB0"
	cfg.Servo.Calibration = Calibration{"base": {ID: 1, RangeMin: 100, RangeMax: 4000}}
	cfg.Filter.Limits = map[string]LimitRange{"gripper": {Min: 30, Max: 150}}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}

	if got.Servo.Port != "/dev/ttyUSB0" || !got.Servo.IsCalibrated() {
		t.Errorf("servo section not restored: %+v", got.Servo)
	}
	if got.Filter.Limits["gripper"].Min != 30 {
		t.Errorf("limits not restored: %+v", got.Filter.Limits)
	}
	if got.Filter.Mirrored != cfg.Filter.Mirrored {
		t.Errorf("mirrored = %v, want %v", got.Filter.Mirrored, cfg.Filter.Mirrored)
	}
}

func TestLoadConfigFrom_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armctl.json")
	if err := os.WriteFile(path, []byte(`{"servo": {"driver": "pca9685"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Servo.Driver != DriverPCA9685 {
		t.Errorf("driver = %q", cfg.Servo.Driver)
	}
	if cfg.Filter.Alpha != 0.85 {
		t.Errorf("alpha default lost: %v", cfg.Filter.Alpha)
	}
	if Duration(cfg.Timing.PlaybackMs) != time.Second {
		t.Errorf("playback cadence default lost: %v", cfg.Timing.PlaybackMs)
	}
}

func TestFilterConfig_LimitRanges(t *testing.T) {
	f := FilterConfig{Limits: map[string]LimitRange{"elbow": {Min: 10, Max: 170}}}
	ranges, err := f.LimitRanges()
	if err != nil {
		t.Fatalf("LimitRanges: %v", err)
	}
	if ranges[Elbow] == nil || ranges[Elbow].Max != 170 {
		t.Errorf("elbow range = %v", ranges[Elbow])
	}
	if ranges[Base] != nil {
		t.Errorf("base should have no range")
	}

	f.Limits = map[string]LimitRange{"tail": {Min: 0, Max: 10}}
	if _, err := f.LimitRanges(); err == nil {
		t.Error("unknown channel should fail")
	}
	f.Limits = map[string]LimitRange{"elbow": {Min: 170, Max: 10}}
	if _, err := f.LimitRanges(); err == nil {
		t.Error("inverted range should fail")
	}
}

func TestChannel_String(t *testing.T) {
	if WristRoll.String() != "wrist_roll" {
		t.Errorf("WristRoll = %s", WristRoll)
	}
	if Channel(9).Valid() {
		t.Error("channel 9 should be invalid")
	}
	ch, ok := ChannelByName("gripper")
	if !ok || ch != Gripper {
		t.Errorf("ChannelByName(gripper) = %v, %v", ch, ok)
	}
}

func TestConfigExistsAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armctl.json")
	if ConfigExistsAt(path) {
		t.Fatal("config reported before it was written")
	}
	if err := DefaultConfig().SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if !ConfigExistsAt(path) {
		t.Error("config not found after SaveTo")
	}
}
