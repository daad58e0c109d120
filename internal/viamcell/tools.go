package viamcell

import (
	"context"
	"fmt"

	toggleswitch "go.viam.com/rdk/components/switch"
	"go.viam.com/rdk/robot"
)

// Toggle adapts a two-position switch component (laser, vacuum pump) to the
// pipeline's on/off tool contract. Position 0 is off, 1 is on.
type Toggle struct {
	name string
	sw   toggleswitch.Switch
}

// NewToggle looks up a switch component by name.
func NewToggle(machine robot.Robot, name string) (*Toggle, error) {
	sw, err := toggleswitch.FromRobot(machine, name)
	if err != nil {
		return nil, fmt.Errorf("switch (%s): %w", name, err)
	}
	return &Toggle{name: name, sw: sw}, nil
}

// TurnOn sets the switch to its on position.
func (t *Toggle) TurnOn(ctx context.Context) error {
	if err := t.sw.SetPosition(ctx, 1, nil); err != nil {
		return fmt.Errorf("turning %s on: %w", t.name, err)
	}
	return nil
}

// TurnOff sets the switch to its off position.
func (t *Toggle) TurnOff(ctx context.Context) error {
	if err := t.sw.SetPosition(ctx, 0, nil); err != nil {
		return fmt.Errorf("turning %s off: %w", t.name, err)
	}
	return nil
}
