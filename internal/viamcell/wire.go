package viamcell

import (
	"context"
	"fmt"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/robot"

	nesting "github.com/danailatanasov3333-lab/cobot-nesting"
)

// BuildDeps looks up every machine resource the nesting cell needs and wires
// the collaborator bundle. All resources are required.
func BuildDeps(ctx context.Context, machine robot.Robot, cfg Config, logger logging.Logger) (nesting.CellDeps, error) {
	var deps nesting.CellDeps

	cobot, err := NewRobot(ctx, machine, cfg, logger)
	if err != nil {
		return deps, fmt.Errorf("robot: %w", err)
	}

	vision, err := NewVision(machine, cfg, logger)
	if err != nil {
		return deps, fmt.Errorf("vision: %w", err)
	}

	matcher, err := NewMatcher(machine, cfg, logger)
	if err != nil {
		return deps, fmt.Errorf("matcher: %w", err)
	}

	tracker, err := NewLaserTracker(machine, cfg, logger)
	if err != nil {
		return deps, fmt.Errorf("laser tracker: %w", err)
	}

	broker, err := NewBroker(machine, cfg, logger)
	if err != nil {
		return deps, fmt.Errorf("broker: %w", err)
	}

	laser, err := NewToggle(machine, cfg.LaserName)
	if err != nil {
		return deps, fmt.Errorf("laser: %w", err)
	}

	pump, err := NewToggle(machine, cfg.PumpName)
	if err != nil {
		return deps, fmt.Errorf("pump: %w", err)
	}

	deps = nesting.CellDeps{
		Robot:   cobot,
		Station: cobot,
		Vision:  vision,
		Matcher: matcher,
		Ranger:  tracker,
		Broker:  broker,
		Laser:   laser,
		Pump:    pump,
	}
	return deps, nil
}
