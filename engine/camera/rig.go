package camera

import (
	"sync"
)

// rigImpl is the single implementation of Rig.
type rigImpl struct {
	mu *sync.Mutex

	position [3]float32
	target   [3]float32
	tilt     float32
}

// Rig is the camera pose holder: world-space position, look target, and a
// roll tilt around the view axis. A Rig carries no behavior of its own — it
// is mutated by the scene's choreography each frame and read by the Camera
// when recomputing matrices. Thread-safe.
type Rig interface {
	// Position returns the rig's world-space position.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// Target returns the world-space point the rig looks at.
	//
	// Returns:
	//   - x, y, z: target components
	Target() (x, y, z float32)

	// Tilt returns the roll angle around the view axis in radians.
	//
	// Returns:
	//   - float32: tilt in radians
	Tilt() float32

	// Pose returns position, target, and tilt in a single locked read so a
	// frame never observes a half-applied pose.
	//
	// Returns:
	//   - position: world-space position
	//   - target: look target
	//   - tilt: roll angle in radians
	Pose() (position, target [3]float32, tilt float32)

	// SetPosition sets the rig's world-space position.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetTarget sets the world-space look target.
	//
	// Parameters:
	//   - x, y, z: target components
	SetTarget(x, y, z float32)

	// SetTilt sets the roll angle around the view axis in radians.
	//
	// Parameters:
	//   - tilt: roll angle in radians
	SetTilt(tilt float32)

	// SetPose sets position, target, and tilt in a single locked write.
	//
	// Parameters:
	//   - position: world-space position
	//   - target: look target
	//   - tilt: roll angle in radians
	SetPose(position, target [3]float32, tilt float32)
}

var _ Rig = &rigImpl{}

// NewRig creates a new Rig with the provided options applied.
// Defaults to the origin looking down the negative z axis with no tilt.
//
// Parameters:
//   - options: functional options to configure the rig
//
// Returns:
//   - Rig: the newly created rig
func NewRig(options ...RigBuilderOption) Rig {
	r := &rigImpl{
		mu:       &sync.Mutex{},
		position: [3]float32{0, 0, 0},
		target:   [3]float32{0, 0, -1},
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *rigImpl) Position() (x, y, z float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position[0], r.position[1], r.position[2]
}

func (r *rigImpl) Target() (x, y, z float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target[0], r.target[1], r.target[2]
}

func (r *rigImpl) Tilt() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tilt
}

func (r *rigImpl) Pose() (position, target [3]float32, tilt float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position, r.target, r.tilt
}

func (r *rigImpl) SetPosition(x, y, z float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = [3]float32{x, y, z}
}

func (r *rigImpl) SetTarget(x, y, z float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = [3]float32{x, y, z}
}

func (r *rigImpl) SetTilt(tilt float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tilt = tilt
}

func (r *rigImpl) SetPose(position, target [3]float32, tilt float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = position
	r.target = target
	r.tilt = tilt
}
