package nesting

import (
	"context"
	"testing"

	"go.viam.com/rdk/logging"
)

func testRobotWorkflow(t *testing.T, robot *fakeRobot, station *fakeStation) *RobotWorkflow {
	t.Helper()
	return &RobotWorkflow{robot: robot, station: station, logger: logging.NewTestLogger(t)}
}

func TestChangeGripperIfNeeded_AlreadyMounted(t *testing.T) {
	robot := &fakeRobot{currentTool: 2, hasTool: true}
	laser := &fakeSwitch{on: true}
	wf := testRobotWorkflow(t, robot, &fakeStation{})

	result := wf.ChangeGripperIfNeeded(context.Background(), 2, laser)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if len(robot.dropoffs) != 0 || len(robot.pickups) != 0 {
		t.Errorf("no-op change performed %d dropoffs and %d pickups, want zero",
			len(robot.dropoffs), len(robot.pickups))
	}
	if !laser.on {
		t.Error("no-op change turned the laser off")
	}
}

func TestChangeGripperIfNeeded_SwapsTool(t *testing.T) {
	robot := &fakeRobot{currentTool: 1, hasTool: true}
	wf := testRobotWorkflow(t, robot, &fakeStation{})

	result := wf.ChangeGripperIfNeeded(context.Background(), 2, &fakeSwitch{})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if len(robot.dropoffs) != 1 || robot.dropoffs[0] != 1 {
		t.Errorf("dropoffs = %v, want [1]", robot.dropoffs)
	}
	if len(robot.pickups) != 1 || robot.pickups[0] != 2 {
		t.Errorf("pickups = %v, want [2]", robot.pickups)
	}
	if len(robot.verifies) != 1 || robot.verifies[0] != 2 {
		t.Errorf("verifies = %v, want [2]", robot.verifies)
	}
}

func TestChangeGripperIfNeeded_NoToolMounted(t *testing.T) {
	robot := &fakeRobot{}
	wf := testRobotWorkflow(t, robot, &fakeStation{})

	result := wf.ChangeGripperIfNeeded(context.Background(), 1, &fakeSwitch{})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if len(robot.dropoffs) != 0 {
		t.Errorf("dropoffs = %v, want none with no tool mounted", robot.dropoffs)
	}
}

func TestChangeGripperIfNeeded_FailureTurnsLaserOff(t *testing.T) {
	cases := []struct {
		name  string
		robot *fakeRobot
	}{
		{"dropoff fails", &fakeRobot{currentTool: 1, hasTool: true, failDropoff: true}},
		{"pickup fails", &fakeRobot{failPickup: true}},
		{"verify fails", &fakeRobot{failVerify: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			laser := &fakeSwitch{on: true}
			wf := testRobotWorkflow(t, tc.robot, &fakeStation{})

			result := wf.ChangeGripperIfNeeded(context.Background(), 2, laser)
			if result.Success {
				t.Fatal("expected failure")
			}
			if laser.on {
				t.Error("laser left on after gripper failure")
			}
		})
	}
}

func TestMoveToCapture_FailureTurnsLaserOff(t *testing.T) {
	laser := &fakeSwitch{on: true}
	wf := testRobotWorkflow(t, &fakeRobot{}, &fakeStation{failMove: true})

	if err := wf.MoveToCapture(context.Background(), laser); err == nil {
		t.Fatal("expected error")
	}
	if laser.on {
		t.Error("laser left on after capture move failure")
	}
}

func TestFinishNesting_NothingFound(t *testing.T) {
	robot := &fakeRobot{currentTool: 1, hasTool: true}
	laser := &fakeSwitch{on: true}
	wf := testRobotWorkflow(t, robot, &fakeStation{})

	result := wf.FinishNesting(context.Background(), laser, false, "done", "nothing found", true)
	if result.Success {
		t.Fatal("expected failure when no part was ever found")
	}
	if result.Message != "nothing found" {
		t.Errorf("message = %q, want the failure message", result.Message)
	}
	if laser.on {
		t.Error("laser left on")
	}
	if len(robot.dropoffs) != 0 {
		t.Error("gripper dropped off on the nothing-found path")
	}
}

func TestFinishNesting_Success(t *testing.T) {
	robot := &fakeRobot{currentTool: 2, hasTool: true}
	station := &fakeStation{}
	laser := &fakeSwitch{on: true}
	wf := testRobotWorkflow(t, robot, station)

	result := wf.FinishNesting(context.Background(), laser, true, "done", "nothing found", true)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if len(robot.dropoffs) != 1 || robot.dropoffs[0] != 2 {
		t.Errorf("dropoffs = %v, want [2]", robot.dropoffs)
	}
	if station.moves != 1 {
		t.Errorf("capture moves = %d, want 1", station.moves)
	}
	if laser.on {
		t.Error("laser left on after finish")
	}
}
