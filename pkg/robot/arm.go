package robot

import (
	"context"
	"fmt"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// Arm drives the six channels as feetech bus servos.
type Arm struct {
	bus         *feetech.Bus
	group       *feetech.ServoGroup
	calibration Calibration
}

// NewArm opens the servo bus on port.
func NewArm(port string, cal Calibration) (*Arm, error) {
	if len(cal) == 0 {
		return nil, fmt.Errorf("arm on %s is not calibrated", port)
	}

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	group := feetech.NewServoGroupByIDs(bus, cal.MotorIDs()...)

	return &Arm{
		bus:         bus,
		group:       group,
		calibration: cal,
	}, nil
}

// Close closes the arm's bus connection.
func (a *Arm) Close() error {
	return a.bus.Close()
}

// Enable enables torque on all servos.
func (a *Arm) Enable(ctx context.Context) error {
	return a.group.EnableAll(ctx)
}

// Disable disables torque on all servos.
func (a *Arm) Disable(ctx context.Context) error {
	return a.group.DisableAll(ctx)
}

// ReadAngles reads the current angle of every calibrated channel.
func (a *Arm) ReadAngles(ctx context.Context) (map[Channel]float64, error) {
	rawPositions, err := a.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	angles := make(map[Channel]float64, len(rawPositions))
	for id, raw := range rawPositions {
		ch, cal, ok := a.calibration.ByID(id)
		if !ok {
			continue
		}
		angles[ch] = cal.Degrees(raw)
	}
	return angles, nil
}

// Write sends one actuator command per channel in a single sync write.
func (a *Arm) Write(ctx context.Context, cmds Commands) error {
	rawPositions := make(feetech.PositionMap, NumChannels)
	for _, ch := range AllChannels() {
		cal, ok := a.calibration.For(ch)
		if !ok {
			continue
		}
		rawPositions[cal.ID] = cal.Raw(cmds[ch])
	}

	if err := a.group.SetPositions(ctx, rawPositions); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}
