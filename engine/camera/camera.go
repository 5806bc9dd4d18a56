package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/wisp-go/common"
	"github.com/chewxy/math32"
)

type cameraImpl struct {
	mu *sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	rig Rig
}

// Camera holds perspective settings and computes view/projection matrices
// from an attached Rig each frame via Update(). The rig carries the pose;
// the camera only turns that pose into matrices for the renderer.
type Camera interface {
	// Fov returns the field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// ViewMatrix returns the current 4x4 view matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the current combined view-projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the combined view-projection matrix
	ViewProjectionMatrix() [16]float32

	// Rig returns the attached Rig, or nil if none is attached.
	//
	// Returns:
	//   - Rig: the attached rig or nil
	Rig() Rig

	// Uniform packs the camera's current state into its GPU-aligned
	// representation for upload to the renderer's camera uniform buffer.
	//
	// Returns:
	//   - GPUCamera: the packed uniform data
	Uniform() GPUCamera

	// Update reads the pose from the rig and recomputes matrices.
	// Should be called once per frame after the choreography has applied its
	// interpolated pose. If no rig is attached, this method does nothing.
	Update()

	// SetFov sets the field of view in radians and recomputes matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// SetRig attaches a Rig to the camera.
	//
	// Parameters:
	//   - rig: the rig to attach
	SetRig(rig Rig)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings.
// A rig must be attached via SetRig or WithRig before pose data is available.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:                   &sync.Mutex{},
		fov:                  45.0 * (math.Pi / 180.0), // radians
		aspect:               1.0,
		near:                 0.1,
		far:                  100.0,
		viewMatrix:           [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
		projectionMatrix:     [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
		viewProjectionMatrix: [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
	}
	for _, option := range options {
		option(c)
	}
	if c.rig != nil {
		c.updateMatrices()
	}
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Rig() Rig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rig
}

func (c *cameraImpl) Uniform() GPUCamera {
	c.mu.Lock()
	defer c.mu.Unlock()

	u := GPUCamera{
		ViewProjection: c.viewProjectionMatrix,
		Right:          [3]float32{c.viewMatrix[0], c.viewMatrix[4], c.viewMatrix[8]},
		Up:             [3]float32{c.viewMatrix[1], c.viewMatrix[5], c.viewMatrix[9]},
	}
	if c.rig != nil {
		pos, _, _ := c.rig.Pose()
		u.Position = pos
	}
	return u
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rig == nil {
		return
	}
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) SetRig(rig Rig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rig = rig
}

// updateMatrices recalculates the view, projection, and view-projection
// matrices from the rig's pose. The up vector is the world up rotated around
// the view axis by the rig's tilt (Rodrigues rotation), which keeps small
// roll tilts stable without a full quaternion representation.
// This is a no-op when the rig is nil. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.rig == nil {
		return
	}

	pos, target, tilt := c.rig.Pose()

	upX, upY, upZ := tiltedUp(pos, target, tilt)

	common.LookAt(c.viewMatrix[:],
		pos[0], pos[1], pos[2],
		target[0], target[1], target[2],
		upX, upY, upZ,
	)

	common.Perspective(c.projectionMatrix[:],
		c.fov, c.aspect, c.near, c.far,
	)

	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}

// tiltedUp rotates the world up vector (0,1,0) around the normalized view
// direction by tilt radians. Falls back to world up when the view direction
// is degenerate (position equals target).
func tiltedUp(pos, target [3]float32, tilt float32) (x, y, z float32) {
	if tilt == 0 {
		return 0, 1, 0
	}

	fx := target[0] - pos[0]
	fy := target[1] - pos[1]
	fz := target[2] - pos[2]
	fLen := math32.Sqrt(fx*fx + fy*fy + fz*fz)
	if fLen < 1e-8 {
		return 0, 1, 0
	}
	fx /= fLen
	fy /= fLen
	fz /= fLen

	// Rodrigues: up' = up*cos + (axis × up)*sin + axis*(axis · up)*(1 - cos)
	cosT := math32.Cos(tilt)
	sinT := math32.Sin(tilt)

	// axis × (0,1,0) = (-fz, 0, fx)
	x = -fz*sinT + fx*fy*(1-cosT)
	y = cosT + fy*fy*(1-cosT)
	z = fx*sinT + fz*fy*(1-cosT)
	return x, y, z
}
