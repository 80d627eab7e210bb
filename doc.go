// Package armctl controls a six-channel servo arm.
//
// A single cooperative control loop arbitrates between four sources of
// target angles (knobs, a host command stream, a recorded action group and
// programmatic presets), smooths them with a first-order filter and drives
// the servos. Action groups are recorded with two push-buttons and kept in
// a signature-guarded store that survives power cycles.
//
// # Installation
//
//	go install github.com/gwillem/armctl/cmd/armctl@latest
//
// # Usage
//
// First, run setup to pick the servo driver and calibrate bus servos:
//
//	armctl setup
//
// Then start the controller, or try it without hardware:
//
//	armctl run
//	armctl run --sim
//
// Follow a colored target with the camera module:
//
//	armctl run --vision trace
//
// Inspect, erase or export the stored action group:
//
//	armctl actions
//	armctl actions --export presets.yaml --name wave
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/armctl: CLI with setup, run and actions commands
//   - pkg/robot: channels, calibration, configuration, servo back-ends and status outputs
//   - pkg/filter: per-channel smoothing, clamping and mirroring
//   - pkg/store: persistent action store layout and devices
//   - pkg/action: action group recorder and player
//   - pkg/input: button debouncing and knob override detection
//   - pkg/host: host command parser and stream reader
//   - pkg/indicator: status light and buzzer cues
//   - pkg/preset: YAML preset groups and their sequencer
//   - pkg/control: mode arbiter, scheduler and control loop
//   - pkg/telemetry: websocket snapshots and remote host commands
//   - pkg/vision: camera detections driving extended mode
//   - pkg/sim: simulated hardware
package armctl
