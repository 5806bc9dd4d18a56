package choreo

import (
	"github.com/Carmen-Shannon/wisp-go/common"
	"github.com/Carmen-Shannon/wisp-go/engine/swarm"
)

// CameraKeyframe is one camera pose sample inside a phase. LocalT positions
// the keyframe within the phase's normalized [0, 1] sub-range. Easing shapes
// the segment that starts at this keyframe and ends at the next one; the last
// keyframe's easing is unused.
type CameraKeyframe struct {
	LocalT   float32
	Position [3]float32
	Target   [3]float32
	Tilt     float32
	Easing   common.Ease
}

// LightTarget is the light parameter set a phase drives a named light toward.
// The light reaches these values exactly when progress reaches the phase's
// end boundary.
type LightTarget struct {
	Intensity float32
	Color     [3]float32
	Position  [3]float32
}

// Phase is one contiguous progress sub-range of the experience. Immutable
// after the choreography is constructed.
//
// Start and End are fractions of overall progress; the ranges of all phases
// must partition [0, 1] with no gaps. A phase's camera keyframes interpolate
// within the range, its light targets are reached at End, and its force model
// governs the swarm while progress is inside [Start, End).
type Phase struct {
	// Name identifies the phase in logs and scene scripts.
	Name string

	// Start and End bound the phase's progress sub-range: [Start, End).
	Start float32
	End   float32

	// CameraKeyframes is the ordered pose track for this phase. Must contain
	// at least one keyframe with non-decreasing LocalT values in [0, 1].
	CameraKeyframes []CameraKeyframe

	// LightTargets maps light names to the parameter set each light reaches
	// at the phase's end. Lights omitted here hold whatever target the most
	// recent earlier phase set for them.
	LightTargets map[string]LightTarget

	// ForceModel is the swarm behavior active while this phase is current.
	ForceModel swarm.ForceModel

	// SwarmIntensity is the intensity scalar the swarm reaches at the phase's
	// end. Nil carries the previous phase's value forward unchanged.
	SwarmIntensity *float32

	// OnEnter and OnExit fire when progress crosses into or out of the phase,
	// in either scroll direction. Both must be idempotent: scroll reversal
	// legitimately re-fires them.
	OnEnter func()
	OnExit  func()
}

// lightSegment is the construction-time resolved interpolation span for one
// light within one phase: the value at the phase's start and at its end.
type lightSegment struct {
	from LightTarget
	to   LightTarget
}

// intensitySegment is the resolved swarm intensity span within one phase.
type intensitySegment struct {
	from float32
	to   float32
}
