package choreo

import (
	"math"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/wisp-go/common"
	"github.com/Carmen-Shannon/wisp-go/engine/camera"
	"github.com/Carmen-Shannon/wisp-go/engine/light"
	"github.com/Carmen-Shannon/wisp-go/engine/swarm"
)

func f32ptr(v float32) *float32 { return &v }

func poseKF(localT, z float32, ease common.Ease) CameraKeyframe {
	return CameraKeyframe{
		LocalT:   localT,
		Position: [3]float32{0, 2, z},
		Target:   [3]float32{0, 1, 0},
		Easing:   ease,
	}
}

// twoLinearPhases builds a track whose camera z runs 15 → 5 over the first
// half and 5 → 1 over the second, all linear so expected values are exact.
func twoLinearPhases() []Phase {
	return []Phase{
		{
			Name:  "far",
			Start: 0, End: 0.5,
			CameraKeyframes: []CameraKeyframe{
				poseKF(0, 15, common.EaseLinear),
				poseKF(1, 5, common.EaseLinear),
			},
		},
		{
			Name:  "near",
			Start: 0.5, End: 1,
			CameraKeyframes: []CameraKeyframe{
				poseKF(0, 5, common.EaseLinear),
				poseKF(1, 1, common.EaseLinear),
			},
		},
	}
}

func mustChoreography(t *testing.T, options ...ChoreographyBuilderOption) Choreography {
	t.Helper()
	c, err := NewChoreography(options...)
	if err != nil {
		t.Fatalf("NewChoreography: %v", err)
	}
	return c
}

func TestNewChoreographyValidation(t *testing.T) {
	valid := func() []Phase { return twoLinearPhases() }

	cases := []struct {
		name   string
		mutate func([]Phase) []Phase
		extra  []ChoreographyBuilderOption
	}{
		{"no phases", func([]Phase) []Phase { return nil }, nil},
		{"first phase not at zero", func(p []Phase) []Phase {
			p[0].Start = 0.1
			return p
		}, nil},
		{"last phase not at one", func(p []Phase) []Phase {
			p[1].End = 0.9
			return p
		}, nil},
		{"gap between phases", func(p []Phase) []Phase {
			p[1].Start = 0.6
			return p
		}, nil},
		{"reversed range", func(p []Phase) []Phase {
			p[0].Start, p[0].End = 0.5, 0
			p[1].Start = 0
			return p
		}, nil},
		{"no keyframes", func(p []Phase) []Phase {
			p[0].CameraKeyframes = nil
			return p
		}, nil},
		{"keyframe localT out of range", func(p []Phase) []Phase {
			p[0].CameraKeyframes[1].LocalT = 1.5
			return p
		}, nil},
		{"keyframe localT decreases", func(p []Phase) []Phase {
			p[0].CameraKeyframes = []CameraKeyframe{
				poseKF(0.8, 15, nil),
				poseKF(0.2, 5, nil),
			}
			return p
		}, nil},
		{"zero threshold", func(p []Phase) []Phase { return p },
			[]ChoreographyBuilderOption{WithCompletionThreshold(0)}},
		{"threshold above one", func(p []Phase) []Phase { return p },
			[]ChoreographyBuilderOption{WithCompletionThreshold(1.5)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			options := append([]ChoreographyBuilderOption{
				WithPhases(tc.mutate(valid())...),
			}, tc.extra...)
			if _, err := NewChoreography(options...); err == nil {
				t.Fatal("NewChoreography accepted invalid configuration")
			}
		})
	}
}

func TestCameraInterpolation(t *testing.T) {
	c := mustChoreography(t, WithPhases(twoLinearPhases()...))

	cases := []struct {
		progress float32
		wantZ    float32
	}{
		{0, 15},
		{0.25, 10},
		{0.5, 5},
		{0.75, 3},
		{1, 1},
	}
	for _, tc := range cases {
		c.Advance(tc.progress, 1.0/60.0)
		pos, _, _ := c.CameraPose()
		if math32.Abs(pos[2]-tc.wantZ) > 1e-4 {
			t.Errorf("camera z at progress %v = %v, want %v", tc.progress, pos[2], tc.wantZ)
		}
	}
}

func TestAdvanceIsPureInProgress(t *testing.T) {
	c := mustChoreography(t, WithPhases(twoLinearPhases()...))

	c.Advance(0.4, 1.0/60.0)
	pos1, target1, tilt1 := c.CameraPose()

	// Same progress again, then a detour and back: the pose must depend only
	// on the progress value, never on the path taken to it.
	c.Advance(0.4, 1.0/60.0)
	c.Advance(0.9, 1.0/60.0)
	c.Advance(0.4, 1.0/60.0)
	pos2, target2, tilt2 := c.CameraPose()

	if pos1 != pos2 || target1 != target2 || tilt1 != tilt2 {
		t.Fatalf("pose at progress 0.4 changed with history: %v/%v/%v vs %v/%v/%v",
			pos1, target1, tilt1, pos2, target2, tilt2)
	}
}

func callbackPhases(log *[]string) []Phase {
	named := func(name string, start, end float32) Phase {
		return Phase{
			Name:  name,
			Start: start, End: end,
			CameraKeyframes: []CameraKeyframe{poseKF(0, 10, nil)},
			OnEnter:         func() { *log = append(*log, "enter:"+name) },
			OnExit:          func() { *log = append(*log, "exit:"+name) },
		}
	}
	return []Phase{
		named("a", 0, 0.3),
		named("b", 0.3, 0.6),
		named("c", 0.6, 1),
	}
}

func TestPhaseCallbacksFireInOrderBothDirections(t *testing.T) {
	var log []string
	c := mustChoreography(t,
		WithPhases(callbackPhases(&log)...),
		WithCompletionThreshold(1),
	)

	c.Advance(0.1, 0)  // first ever update enters phase a
	c.Advance(0.2, 0)  // still in a: no callbacks
	c.Advance(0.95, 0) // jumps a -> c, crossing b
	c.Advance(0.1, 0)  // reverses c -> a, crossing b again

	want := []string{
		"enter:a",
		"exit:a", "enter:b", "exit:b", "enter:c",
		"exit:c", "enter:b", "exit:b", "enter:a",
	}
	if len(log) != len(want) {
		t.Fatalf("callback log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("callback log = %v, want %v", log, want)
		}
	}
}

func TestRepeatedAdvanceDoesNotRefireCallbacks(t *testing.T) {
	var log []string
	c := mustChoreography(t,
		WithPhases(callbackPhases(&log)...),
		WithCompletionThreshold(1),
	)

	c.Advance(0.4, 0)
	seen := len(log)
	c.Advance(0.4, 0)
	c.Advance(0.45, 0)
	if len(log) != seen {
		t.Fatalf("callbacks re-fired without a boundary crossing: %v", log)
	}
}

func TestZeroLengthPhaseCallbacks(t *testing.T) {
	var log []string
	mark := func(s string) func() {
		return func() { log = append(log, s) }
	}
	phases := []Phase{
		{
			Name: "before", Start: 0, End: 0.5,
			CameraKeyframes: []CameraKeyframe{poseKF(0, 10, nil)},
			OnExit:          mark("exit:before"),
		},
		{
			Name: "beat", Start: 0.5, End: 0.5,
			CameraKeyframes: []CameraKeyframe{poseKF(0, 8, nil)},
			OnEnter:         mark("enter:beat"),
			OnExit:          mark("exit:beat"),
		},
		{
			Name: "after", Start: 0.5, End: 1,
			CameraKeyframes: []CameraKeyframe{poseKF(0, 6, nil)},
			OnEnter:         mark("enter:after"),
		},
	}
	c := mustChoreography(t, WithPhases(phases...), WithCompletionThreshold(1))

	c.Advance(0.1, 0)
	c.Advance(0.8, 0)

	want := []string{"exit:before", "enter:beat", "exit:beat", "enter:after"}
	if len(log) != len(want) {
		t.Fatalf("callback log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("callback log = %v, want %v", log, want)
		}
	}

	// The zero-length phase fires its one-shots but is never the resolved
	// active phase, even at its exact boundary.
	c.Advance(0.5, 0)
	if got := c.ActivePhaseIndex(); got == 1 {
		t.Fatalf("zero-length phase resolved as active at its boundary")
	}
}

func TestTerminalActionFiresExactlyOnce(t *testing.T) {
	fired := 0
	c := mustChoreography(t,
		WithPhases(twoLinearPhases()...),
		WithTerminalAction(func() { fired++ }),
	)

	c.Advance(0.96, 0)
	if fired != 1 {
		t.Fatalf("terminal fired %d times after crossing threshold, want 1", fired)
	}
	if got := c.State(); got != StateCompleted {
		t.Fatalf("State() = %v after terminal, want StateCompleted", got)
	}

	// Oscillating back below and above the threshold must not re-fire.
	c.Advance(0.90, 0)
	c.Advance(0.97, 0)
	c.Complete()
	if fired != 1 {
		t.Fatalf("terminal fired %d times under oscillation, want 1", fired)
	}
}

func TestCompleteSharesTheOneShotGuard(t *testing.T) {
	fired := 0
	c := mustChoreography(t,
		WithPhases(twoLinearPhases()...),
		WithTerminalAction(func() { fired++ }),
	)

	c.Complete()
	c.Complete()
	if fired != 1 {
		t.Fatalf("Complete fired terminal %d times, want 1", fired)
	}
	if got := c.State(); got != StateCompleted {
		t.Fatalf("State() = %v after Complete, want StateCompleted", got)
	}

	// The threshold path finds the trigger already spent.
	c.Advance(0.99, 0)
	if fired != 1 {
		t.Fatalf("threshold re-fired terminal after Complete: %d", fired)
	}
}

func TestResetRearmsTerminal(t *testing.T) {
	fired := 0
	c := mustChoreography(t,
		WithPhases(twoLinearPhases()...),
		WithTerminalAction(func() { fired++ }),
	)

	c.Advance(0.96, 0)
	c.Reset()
	if got := c.State(); got != StateIdle {
		t.Fatalf("State() = %v after Reset, want StateIdle", got)
	}
	if got := c.Progress(); got != 0 {
		t.Fatalf("Progress() = %v after Reset, want 0", got)
	}

	c.Advance(0.2, 0)
	if got := c.State(); got != StateInPhase {
		t.Fatalf("State() = %v mid-replay, want StateInPhase", got)
	}
	c.Advance(0.96, 0)
	if fired != 2 {
		t.Fatalf("terminal fired %d times across a reset, want 2", fired)
	}
}

func TestLightCarryForward(t *testing.T) {
	phases := twoLinearPhases()
	phases[0].LightTargets = map[string]LightTarget{
		"glade": {Intensity: 0.5, Color: [3]float32{1, 0.8, 0.5}, Position: [3]float32{0, 1, 0}},
		"moon":  {Intensity: 0.3, Color: [3]float32{0.5, 0.6, 0.8}, Position: [3]float32{0, 30, 0}},
	}
	phases[1].LightTargets = map[string]LightTarget{
		"glade": {Intensity: 2.0, Color: [3]float32{1, 0.9, 0.7}, Position: [3]float32{0, 0.8, 0}},
	}
	c := mustChoreography(t, WithPhases(phases...))

	// With no attached light the first phase starts from its own target, so
	// the glade holds a constant 0.5 throughout phase 0.
	c.Advance(0.25, 0)
	st, ok := c.LightState("glade")
	if !ok || math32.Abs(st.Intensity-0.5) > 1e-5 {
		t.Fatalf("glade at 0.25 = %+v (ok=%v), want constant 0.5", st, ok)
	}

	// Phase 1 fades the glade from the carried 0.5 to 2.0; halfway in it sits
	// at the midpoint.
	c.Advance(0.75, 0)
	st, _ = c.LightState("glade")
	if math32.Abs(st.Intensity-1.25) > 1e-4 {
		t.Fatalf("glade at 0.75 = %v, want 1.25", st.Intensity)
	}

	// The moon is untargeted in phase 1 and holds its phase-0 target.
	st, ok = c.LightState("moon")
	if !ok || math32.Abs(st.Intensity-0.3) > 1e-5 {
		t.Fatalf("moon at 0.75 = %+v (ok=%v), want held 0.3", st, ok)
	}
}

func TestAttachedLightSeedsFirstSegment(t *testing.T) {
	glade := light.NewLight("glade", light.LightTypePoint,
		light.WithPosition(0, 1, 0),
		light.WithColor(1, 0.85, 0.55),
		light.WithIntensity(0),
	)
	phases := twoLinearPhases()
	phases[0].LightTargets = map[string]LightTarget{
		"glade": {Intensity: 0.5, Color: glade.Color(), Position: glade.Position()},
	}
	c := mustChoreography(t,
		WithPhases(phases...),
		WithLight("glade", glade),
	)

	// The first phase fades in from the light's constructed intensity of 0
	// instead of snapping to the target.
	c.Advance(0.25, 0)
	st, _ := c.LightState("glade")
	if math32.Abs(st.Intensity-0.25) > 1e-4 {
		t.Fatalf("glade at 0.25 = %v, want fade-in midpoint 0.25", st.Intensity)
	}
	if got := glade.Intensity(); math32.Abs(got-0.25) > 1e-4 {
		t.Fatalf("attached light intensity = %v, want 0.25", got)
	}
}

func TestSwarmIntensitySegments(t *testing.T) {
	phases := twoLinearPhases()
	phases[0].SwarmIntensity = f32ptr(0.5)
	// Phase 1 leaves intensity nil: the 0.5 carries forward unchanged.
	c := mustChoreography(t, WithPhases(phases...))

	c.Advance(0.25, 0)
	if got := c.SwarmIntensity(); math32.Abs(got-0.75) > 1e-4 {
		t.Fatalf("intensity at 0.25 = %v, want 0.75 (fading 1.0 -> 0.5)", got)
	}
	c.Advance(0.75, 0)
	if got := c.SwarmIntensity(); math32.Abs(got-0.5) > 1e-5 {
		t.Fatalf("intensity at 0.75 = %v, want carried 0.5", got)
	}
}

func TestCollaboratorsApplied(t *testing.T) {
	rig := camera.NewRig()
	sw, err := swarm.NewSwarm(swarm.WithCount(8), swarm.WithSeed(1))
	if err != nil {
		t.Fatalf("NewSwarm: %v", err)
	}

	phases := twoLinearPhases()
	phases[1].ForceModel = swarm.ForceModel{
		Type:     swarm.ForceModelAttract,
		Target:   [3]float32{0, 0.7, 0},
		Strength: 0.9,
	}
	phases[1].SwarmIntensity = f32ptr(1.3)

	c := mustChoreography(t,
		WithPhases(phases...),
		WithRig(rig),
		WithSwarm(sw),
	)

	c.Advance(0.25, 0)
	pos, _, _ := rig.Pose()
	if math32.Abs(pos[2]-10) > 1e-4 {
		t.Fatalf("rig z at 0.25 = %v, want 10", pos[2])
	}
	if got := sw.ForceModel().Type; got != swarm.ForceModelFree {
		t.Fatalf("swarm force model in phase 0 = %v, want free", got)
	}

	c.Advance(0.75, 0)
	if got := sw.ForceModel().Type; got != swarm.ForceModelAttract {
		t.Fatalf("swarm force model in phase 1 = %v, want attract", got)
	}
	if got := sw.IntensityScalar(); math32.Abs(got-c.SwarmIntensity()) > 1e-5 {
		t.Fatalf("swarm intensity %v diverges from choreography %v", got, c.SwarmIntensity())
	}
}

func TestProgressClamped(t *testing.T) {
	c := mustChoreography(t, WithPhases(twoLinearPhases()...))

	c.Advance(2.5, 0)
	if got := c.Progress(); got != 1 {
		t.Fatalf("Progress() = %v after overscroll, want 1", got)
	}
	if got := c.ActivePhaseIndex(); got != 1 {
		t.Fatalf("ActivePhaseIndex() = %v at progress 1, want last phase", got)
	}

	c.Advance(-3, 0)
	if got := c.Progress(); got != 0 {
		t.Fatalf("Progress() = %v after underscroll, want 0", got)
	}
	if got := c.ActivePhaseIndex(); got != 0 {
		t.Fatalf("ActivePhaseIndex() = %v at progress 0, want first phase", got)
	}
}

func TestSweepProducesFiniteOutput(t *testing.T) {
	phases := twoLinearPhases()
	// Default easings plus a tilt that crosses the ±π seam, the spots most
	// likely to produce a stray NaN.
	phases[0].CameraKeyframes = []CameraKeyframe{
		{LocalT: 0, Position: [3]float32{0, 6, 24}, Target: [3]float32{0, 2, 0}, Tilt: 3.0},
		{LocalT: 1, Position: [3]float32{0, 4, 10}, Target: [3]float32{0, 1.5, 0}, Tilt: -3.0},
	}
	c := mustChoreography(t, WithPhases(phases...))

	finite := func(v float32) bool {
		return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
	}
	for i := 0; i <= 1000; i++ {
		p := float32(i) / 1000
		c.Advance(p, 1.0/60.0)
		pos, target, tilt := c.CameraPose()
		for axis := 0; axis < 3; axis++ {
			if !finite(pos[axis]) || !finite(target[axis]) {
				t.Fatalf("non-finite pose at progress %v: pos %v target %v", p, pos, target)
			}
		}
		if !finite(tilt) || !finite(c.SwarmIntensity()) {
			t.Fatalf("non-finite tilt/intensity at progress %v", p)
		}
	}
}
