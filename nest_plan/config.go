package nestplan

// GripperGeometry holds the static calibration offsets between the laser
// transducer and the gripper tip, measured on the rig at rz = 0. Read-only
// for the lifetime of a nesting run.
type GripperGeometry struct {
	XOffsetMm       float64 // transducer-to-tip X at rz = 0
	YOffsetMm       float64 // transducer-to-tip Y at rz = 0
	DoubleZOffsetMm float64
	SingleZOffsetMm float64
}

// PlaneConfig holds the staging-plane bounds and packing spacing in robot
// millimeters.
type PlaneConfig struct {
	XMin    float64
	XMax    float64
	YMin    float64
	YMax    float64
	Spacing float64
}

// DefaultGripperGeometry returns the offsets measured on the production rig.
func DefaultGripperGeometry() GripperGeometry {
	return GripperGeometry{
		XOffsetMm:       100.429,
		YOffsetMm:       1.991,
		DoubleZOffsetMm: 14,
		SingleZOffsetMm: 19,
	}
}

// DefaultPlaneConfig returns the staging-plane bounds measured on the
// production rig.
func DefaultPlaneConfig() PlaneConfig {
	return PlaneConfig{
		XMin:    -450,
		XMax:    350,
		YMin:    300,
		YMax:    700,
		Spacing: 30,
	}
}
