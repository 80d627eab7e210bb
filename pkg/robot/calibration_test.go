package robot

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestMotorCalibration_Degrees(t *testing.T) {
	cal := MotorCalibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		raw      int
		expected float64
	}{
		{1000, 0},    // min -> 0
		{3000, 180},  // max -> 180
		{2000, 90},   // mid -> 90
		{1500, 45},   // quarter -> 45
		{2500, 135},  // three-quarter -> 135
	}

	for _, tt := range tests {
		got := cal.Degrees(tt.raw)
		if math.Abs(got-tt.expected) > 0.001 {
			t.Errorf("Degrees(%d) = %f, want %f", tt.raw, got, tt.expected)
		}
	}
}

func TestMotorCalibration_Raw(t *testing.T) {
	cal := MotorCalibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		deg      float64
		expected int
	}{
		{0, 1000},
		{180, 3000},
		{90, 2000},
		{45, 1500},
		{135, 2500},
	}

	for _, tt := range tests {
		got := cal.Raw(tt.deg)
		if got != tt.expected {
			t.Errorf("Raw(%f) = %d, want %d", tt.deg, got, tt.expected)
		}
	}
}

func TestMotorCalibration_RoundTrip(t *testing.T) {
	cal := MotorCalibration{
		RangeMin: 823,
		RangeMax: 3540,
	}

	for raw := cal.RangeMin; raw <= cal.RangeMax; raw += 100 {
		deg := cal.Degrees(raw)
		back := cal.Raw(deg)
		if math.Abs(float64(back-raw)) > 1 {
			t.Errorf("Round-trip failed: %d -> %f -> %d", raw, deg, back)
		}
	}
}

func TestMotorCalibration_ZeroRange(t *testing.T) {
	cal := MotorCalibration{RangeMin: 2048, RangeMax: 2048}
	if got := cal.Degrees(2100); got != 0 {
		t.Errorf("Degrees on empty range = %f, want 0", got)
	}
}

func TestCalibration_MotorIDs(t *testing.T) {
	cal := Calibration{
		"base":       MotorCalibration{ID: 1},
		"shoulder":   MotorCalibration{ID: 2},
		"elbow":      MotorCalibration{ID: 3},
		"wrist":      MotorCalibration{ID: 4},
		"wrist_roll": MotorCalibration{ID: 5},
		"gripper":    MotorCalibration{ID: 6},
	}

	ids := cal.MotorIDs()
	expected := []int{1, 2, 3, 4, 5, 6}

	if len(ids) != len(expected) {
		t.Fatalf("MotorIDs returned %d IDs, want %d", len(ids), len(expected))
	}

	for i, id := range ids {
		if id != expected[i] {
			t.Errorf("MotorIDs()[%d] = %d, want %d", i, id, expected[i])
		}
	}
}

func TestCalibration_ByID(t *testing.T) {
	cal := Calibration{
		"base":    MotorCalibration{ID: 1, RangeMin: 100, RangeMax: 200},
		"gripper": MotorCalibration{ID: 6, RangeMin: 300, RangeMax: 400},
	}

	ch, mc, ok := cal.ByID(1)
	if !ok {
		t.Fatal("ByID(1) returned false")
	}
	if ch != Base {
		t.Errorf("ByID(1) returned channel %s, want base", ch)
	}
	if mc.RangeMin != 100 {
		t.Errorf("ByID(1) returned wrong calibration: %+v", mc)
	}

	_, _, ok = cal.ByID(99)
	if ok {
		t.Error("ByID(99) should return false")
	}
}

func TestLoadCalibration_UnknownChannel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	if err := os.WriteFile(path, []byte(`{"pinky": {"id": 7}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCalibration(path); err == nil {
		t.Error("LoadCalibration should reject unknown channel names")
	}
}

func TestLimitRange_Clamp(t *testing.T) {
	r := LimitRange{Min: 20, Max: 160}

	tests := []struct {
		in, want float64
	}{
		{10, 20},
		{20, 20},
		{90.5, 90.5},
		{170, 160},
	}
	for _, tt := range tests {
		if got := r.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if (LimitRange{Min: 100, Max: 50}).Valid() {
		t.Error("inverted range should be invalid")
	}
	if (LimitRange{Min: 0, Max: 200}).Valid() {
		t.Error("range past 180 should be invalid")
	}
}
