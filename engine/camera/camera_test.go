package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/chewxy/math32"
)

func approx3(got, want [3]float32, tolerance float32) bool {
	for i := range got {
		if math32.Abs(got[i]-want[i]) > tolerance {
			return false
		}
	}
	return true
}

func TestRigPose(t *testing.T) {
	rig := NewRig(
		WithRigPosition(0, 6, 24),
		WithRigTarget(0, 2, 0),
		WithRigTilt(0.1),
	)

	pos, target, tilt := rig.Pose()
	if pos != [3]float32{0, 6, 24} || target != [3]float32{0, 2, 0} || tilt != 0.1 {
		t.Fatalf("Pose() = %v %v %v", pos, target, tilt)
	}

	rig.SetPose([3]float32{1, 2, 3}, [3]float32{0, 1, 0}, -0.05)
	pos, target, tilt = rig.Pose()
	if pos != [3]float32{1, 2, 3} || target != [3]float32{0, 1, 0} || tilt != -0.05 {
		t.Fatalf("Pose() after SetPose = %v %v %v", pos, target, tilt)
	}
}

func TestUniformBasisVectors(t *testing.T) {
	rig := NewRig(
		WithRigPosition(0, 0, 5),
		WithRigTarget(0, 0, 0),
	)
	cam := NewCamera(WithRig(rig))
	cam.Update()

	u := cam.Uniform()
	if u.Position != [3]float32{0, 0, 5} {
		t.Errorf("uniform position = %v, want rig position", u.Position)
	}
	// Looking down -z from +z with no tilt, the camera basis is the world
	// basis.
	if !approx3(u.Right, [3]float32{1, 0, 0}, 1e-5) {
		t.Errorf("Right = %v, want (1,0,0)", u.Right)
	}
	if !approx3(u.Up, [3]float32{0, 1, 0}, 1e-5) {
		t.Errorf("Up = %v, want (0,1,0)", u.Up)
	}
}

func TestTiltRollsTheBasis(t *testing.T) {
	rig := NewRig(
		WithRigPosition(0, 0, 5),
		WithRigTarget(0, 0, 0),
		WithRigTilt(math32.Pi/2),
	)
	cam := NewCamera(WithRig(rig))
	cam.Update()

	// A quarter roll around the view axis carries world up onto the x axis.
	u := cam.Uniform()
	if !approx3(u.Up, [3]float32{1, 0, 0}, 1e-4) {
		t.Errorf("Up under quarter roll = %v, want (1,0,0)", u.Up)
	}
}

func TestAspectAffectsProjection(t *testing.T) {
	rig := NewRig(WithRigPosition(0, 0, 5))
	cam := NewCamera(WithRig(rig), WithAspect(1))
	cam.Update()
	square := cam.ProjectionMatrix()

	cam.SetAspect(2)
	wide := cam.ProjectionMatrix()

	// Perspective scales the x focal term by 1/aspect.
	if math32.Abs(wide[0]-square[0]/2) > 1e-5 {
		t.Errorf("proj[0] at aspect 2 = %v, want %v", wide[0], square[0]/2)
	}
}

func TestViewProjectionFinite(t *testing.T) {
	rig := NewRig(
		WithRigPosition(0.6, 0.9, 1.4),
		WithRigTarget(0, 0.6, 0),
		WithRigTilt(0.04),
	)
	cam := NewCamera(WithRig(rig))
	cam.Update()

	vp := cam.ViewProjectionMatrix()
	for i, v := range vp {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("view-projection[%d] = %v", i, v)
		}
	}
}

func TestGPUCameraMarshalLayout(t *testing.T) {
	g := GPUCamera{
		Position: [3]float32{1, 2, 3},
		Right:    [3]float32{1, 0, 0},
		Up:       [3]float32{0, 1, 0},
	}
	for i := range g.ViewProjection {
		g.ViewProjection[i] = float32(i)
	}
	if g.Size() != 112 {
		t.Fatalf("Size() = %d, want 112", g.Size())
	}

	buf := make([]byte, 112)
	g.Marshal(buf)

	readF32 := func(offset int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset : offset+4]))
	}
	if readF32(0) != 0 || readF32(60) != 15 {
		t.Errorf("matrix bytes wrong: %v %v", readF32(0), readF32(60))
	}
	if readF32(64) != 1 || readF32(72) != 3 {
		t.Errorf("position bytes wrong: %v %v", readF32(64), readF32(72))
	}
	if readF32(80) != 1 || readF32(96+4) != 1 {
		t.Errorf("basis bytes wrong: right.x %v up.y %v", readF32(80), readF32(100))
	}
	// The vec3 pad words must be written as zero, not left to the caller.
	for _, offset := range []int{76, 92, 108} {
		if got := binary.LittleEndian.Uint32(buf[offset : offset+4]); got != 0 {
			t.Errorf("pad word at offset %d = %d, want 0", offset, got)
		}
	}
}
