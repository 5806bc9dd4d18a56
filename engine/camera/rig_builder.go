package camera

type RigBuilderOption func(*rigImpl)

// WithRigPosition sets the rig's initial world-space position.
//
// Parameters:
//   - x, y, z: position components
//
// Returns:
//   - RigBuilderOption: a function that sets the rig's position
func WithRigPosition(x, y, z float32) RigBuilderOption {
	return func(r *rigImpl) {
		r.position = [3]float32{x, y, z}
	}
}

// WithRigTarget sets the rig's initial look target.
//
// Parameters:
//   - x, y, z: target components
//
// Returns:
//   - RigBuilderOption: a function that sets the rig's target
func WithRigTarget(x, y, z float32) RigBuilderOption {
	return func(r *rigImpl) {
		r.target = [3]float32{x, y, z}
	}
}

// WithRigTilt sets the rig's initial roll tilt in radians.
//
// Parameters:
//   - tilt: roll angle in radians
//
// Returns:
//   - RigBuilderOption: a function that sets the rig's tilt
func WithRigTilt(tilt float32) RigBuilderOption {
	return func(r *rigImpl) {
		r.tilt = tilt
	}
}
