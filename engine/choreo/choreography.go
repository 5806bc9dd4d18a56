package choreo

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/wisp-go/common"
	"github.com/Carmen-Shannon/wisp-go/engine/camera"
	"github.com/Carmen-Shannon/wisp-go/engine/light"
	"github.com/Carmen-Shannon/wisp-go/engine/swarm"
)

// State identifies where the choreography is in its lifecycle.
type State int

const (
	// StateIdle means Advance has never been called.
	StateIdle State = iota

	// StateInPhase means the choreography is tracking progress through its
	// phase table.
	StateInPhase

	// StateCompleted means the terminal action has fired. Rendering and phase
	// tracking continue; only the one-shot trigger is spent. Reset re-arms it.
	StateCompleted
)

// DefaultCompletionThreshold is the progress at which the terminal action
// fires when no threshold is configured.
const DefaultCompletionThreshold = 0.95

type choreographyImpl struct {
	mu *sync.Mutex

	phases        []Phase
	lightSegs     []map[string]lightSegment
	intensitySegs []intensitySegment

	completionThreshold float32
	terminalAction      func()

	rig    camera.Rig
	lights map[string]light.Light
	sw     swarm.Swarm

	state            State
	activePhase      int
	hasFiredTerminal bool
	progress         float32

	// Interpolated outputs of the most recent Advance. lightStates is
	// allocated once and reused; Advance never allocates.
	camPosition [3]float32
	camTarget   [3]float32
	camTilt     float32
	lightStates map[string]LightTarget
	forceModel  swarm.ForceModel
	intensity   float32
}

// Choreography maps a normalized scroll progress value to an interpolated
// camera pose, light parameters, and swarm force model, firing phase
// enter/exit one-shots at boundaries and a terminal action exactly once at
// completion.
//
// Advance is a pure function of progress for its interpolated outputs:
// calling it twice with the same value yields the same pose, and no implicit
// deltas accumulate. Attached collaborators (rig, lights, swarm) are mutated
// as a side effect of Advance; a choreography constructed without them is
// fully inspectable through the read accessors, which is how the tests
// exercise it.
type Choreography interface {
	// Advance consumes a new progress value: clamps it to [0, 1], resolves
	// the containing phase, fires any enter/exit one-shots for boundaries
	// crossed since the previous call (in order, in either direction),
	// interpolates the camera pose and light targets, selects the swarm
	// force model and intensity, pushes all of it to attached collaborators,
	// and fires the terminal action if the completion threshold is reached
	// for the first time.
	//
	// Phase callbacks and the terminal action run on the caller's goroutine
	// after internal state is settled, so they may safely read back into the
	// choreography.
	//
	// Parameters:
	//   - progress: normalized scroll progress (clamped to [0, 1])
	//   - dt: elapsed time since the previous frame in seconds
	Advance(progress, dt float32)

	// Progress returns the clamped progress of the most recent Advance.
	//
	// Returns:
	//   - float32: the current progress
	Progress() float32

	// State returns the lifecycle state.
	//
	// Returns:
	//   - State: Idle, InPhase, or Completed
	State() State

	// ActivePhaseIndex returns the index of the phase containing the current
	// progress. Meaningful only after the first Advance.
	//
	// Returns:
	//   - int: the active phase index
	ActivePhaseIndex() int

	// CameraPose returns the interpolated camera pose from the most recent
	// Advance.
	//
	// Returns:
	//   - position: world-space camera position
	//   - target: look target
	//   - tilt: roll angle in radians
	CameraPose() (position, target [3]float32, tilt float32)

	// LightState returns the interpolated parameters for a named light from
	// the most recent Advance.
	//
	// Parameters:
	//   - name: the light identifier
	//
	// Returns:
	//   - LightTarget: the interpolated parameters
	//   - bool: false if no phase up to the current one addresses this light
	LightState(name string) (LightTarget, bool)

	// ForceModel returns the swarm force model selected by the active phase.
	//
	// Returns:
	//   - swarm.ForceModel: the selected model
	ForceModel() swarm.ForceModel

	// SwarmIntensity returns the interpolated swarm intensity scalar.
	//
	// Returns:
	//   - float32: the intensity scalar
	SwarmIntensity() float32

	// Complete force-fires the terminal action through the same exactly-once
	// guard Advance uses. This is the end-of-scrollable-range detection path;
	// calling it after the threshold path has already fired is a no-op.
	Complete()

	// Reset returns the choreography to StateIdle and re-arms the terminal
	// action. This is the explicit "replay" re-initialization; nothing else
	// un-fires the trigger.
	Reset()
}

var _ Choreography = &choreographyImpl{}

// NewChoreography creates a Choreography from the provided options and
// validates the phase table: ranges must partition [0, 1] contiguously, every
// phase needs an ordered keyframe track, and the completion threshold must
// sit in (0, 1]. All validation happens here — Advance is total and never
// fails mid-animation.
//
// Parameters:
//   - options: functional options to configure the choreography
//
// Returns:
//   - Choreography: the newly created choreography
//   - error: error describing the first configuration problem found
func NewChoreography(options ...ChoreographyBuilderOption) (Choreography, error) {
	c := &choreographyImpl{
		mu:                  &sync.Mutex{},
		completionThreshold: DefaultCompletionThreshold,
		lights:              make(map[string]light.Light),
		state:               StateIdle,
		intensity:           1.0,
	}
	for _, option := range options {
		option(c)
	}

	if err := c.validatePhases(); err != nil {
		return nil, err
	}
	c.resolveSegments()
	c.lightStates = make(map[string]LightTarget, len(c.lights)+4)

	// Seed the camera outputs from the first keyframe so readers see a sane
	// pose even before the first Advance.
	first := c.phases[0].CameraKeyframes[0]
	c.camPosition = first.Position
	c.camTarget = first.Target
	c.camTilt = first.Tilt
	c.forceModel = c.phases[0].ForceModel

	return c, nil
}

// validatePhases rejects malformed phase tables: empty tables, ranges that do
// not start at 0 / end at 1 / meet each other exactly, reversed ranges,
// missing keyframes, and keyframe tracks that leave [0, 1] or go backwards.
// Nil keyframe easings default to EaseInOutSine.
func (c *choreographyImpl) validatePhases() error {
	if len(c.phases) == 0 {
		return fmt.Errorf("choreo: at least one phase is required")
	}
	if c.completionThreshold <= 0 || c.completionThreshold > 1 {
		return fmt.Errorf("choreo: completion threshold %v outside (0, 1]", c.completionThreshold)
	}

	const eps = 1e-6
	if diff := c.phases[0].Start; diff > eps || diff < -eps {
		return fmt.Errorf("choreo: phase %q must start at 0, starts at %v", c.phases[0].Name, c.phases[0].Start)
	}
	if diff := c.phases[len(c.phases)-1].End - 1; diff > eps || diff < -eps {
		return fmt.Errorf("choreo: phase %q must end at 1, ends at %v", c.phases[len(c.phases)-1].Name, c.phases[len(c.phases)-1].End)
	}

	for i := range c.phases {
		ph := &c.phases[i]
		if ph.End < ph.Start {
			return fmt.Errorf("choreo: phase %q range [%v, %v) is reversed", ph.Name, ph.Start, ph.End)
		}
		if i > 0 {
			prev := &c.phases[i-1]
			if diff := ph.Start - prev.End; diff > eps || diff < -eps {
				return fmt.Errorf("choreo: gap between phase %q (ends %v) and %q (starts %v)",
					prev.Name, prev.End, ph.Name, ph.Start)
			}
		}
		if len(ph.CameraKeyframes) == 0 {
			return fmt.Errorf("choreo: phase %q has no camera keyframes", ph.Name)
		}
		lastT := float32(-1)
		for k := range ph.CameraKeyframes {
			kf := &ph.CameraKeyframes[k]
			if kf.LocalT < 0 || kf.LocalT > 1 {
				return fmt.Errorf("choreo: phase %q keyframe %d localT %v outside [0, 1]", ph.Name, k, kf.LocalT)
			}
			if kf.LocalT < lastT {
				return fmt.Errorf("choreo: phase %q keyframe %d localT %v decreases", ph.Name, k, kf.LocalT)
			}
			lastT = kf.LocalT
			if kf.Easing == nil {
				kf.Easing = common.EaseInOutSine
			}
		}
	}
	return nil
}

// resolveSegments builds the per-phase light and intensity interpolation
// spans. Each phase's starting values are the previous phase's targets, so a
// light named in phase 2 but not phase 3 holds steady through phase 3 instead
// of snapping. Phase 0 starts from the attached light's constructed state
// when one is registered, otherwise from its own target (constant).
func (c *choreographyImpl) resolveSegments() {
	c.lightSegs = make([]map[string]lightSegment, len(c.phases))
	c.intensitySegs = make([]intensitySegment, len(c.phases))

	carry := make(map[string]LightTarget)
	intensityCarry := float32(1.0)
	if c.sw != nil {
		intensityCarry = c.sw.IntensityScalar()
	}

	for i := range c.phases {
		ph := &c.phases[i]
		segs := make(map[string]lightSegment, len(carry)+len(ph.LightTargets))
		for name, held := range carry {
			segs[name] = lightSegment{from: held, to: held}
		}
		for name, target := range ph.LightTargets {
			from, seen := carry[name]
			if !seen {
				if l, attached := c.lights[name]; attached {
					from = LightTarget{
						Intensity: l.Intensity(),
						Color:     l.Color(),
						Position:  l.Position(),
					}
				} else {
					from = target
				}
			}
			segs[name] = lightSegment{from: from, to: target}
			carry[name] = target
		}
		c.lightSegs[i] = segs

		to := intensityCarry
		if ph.SwarmIntensity != nil {
			to = *ph.SwarmIntensity
		}
		c.intensitySegs[i] = intensitySegment{from: intensityCarry, to: to}
		intensityCarry = to
	}
}

func (c *choreographyImpl) Advance(progress, dt float32) {
	_ = dt

	c.mu.Lock()
	callbacks := c.advanceLocked(progress)
	c.mu.Unlock()

	// One-shots run after the lock is released so a callback can read the
	// choreography (or even drive a collaborator) without deadlocking.
	for _, cb := range callbacks {
		cb()
	}
}

// advanceLocked performs the full progress update and returns the one-shot
// callbacks to fire, in crossing order. Caller must hold the mutex.
func (c *choreographyImpl) advanceLocked(progress float32) []func() {
	progress = common.Clamp01(progress)
	c.progress = progress

	idx := c.resolvePhase(progress)

	var callbacks []func()
	if c.state == StateIdle {
		c.state = StateInPhase
		c.activePhase = 0
		if enter := c.phases[0].OnEnter; enter != nil {
			callbacks = append(callbacks, enter)
		}
	}

	// A large scroll jump can cross several boundaries in one update; walk
	// one phase at a time so every enter/exit on the path fires, in order,
	// forward or backward.
	for c.activePhase != idx {
		step := 1
		if idx < c.activePhase {
			step = -1
		}
		if exit := c.phases[c.activePhase].OnExit; exit != nil {
			callbacks = append(callbacks, exit)
		}
		c.activePhase += step
		if enter := c.phases[c.activePhase].OnEnter; enter != nil {
			callbacks = append(callbacks, enter)
		}
	}

	c.interpolate(idx, progress)
	c.apply(idx)

	if !c.hasFiredTerminal && progress >= c.completionThreshold {
		c.hasFiredTerminal = true
		c.state = StateCompleted
		if c.terminalAction != nil {
			callbacks = append(callbacks, c.terminalAction)
		}
	}

	return callbacks
}

// resolvePhase returns the index of the phase whose [Start, End) range
// contains progress. Progress of exactly 1 resolves to the last phase.
// Zero-length phases are never resolved as active; their targets still land
// through the segment carry-forward.
func (c *choreographyImpl) resolvePhase(progress float32) int {
	lo, hi := 0, len(c.phases)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if progress < c.phases[mid].End {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// interpolate refreshes the camera, light, and intensity outputs for the
// given phase and progress. Caller must hold the mutex.
func (c *choreographyImpl) interpolate(idx int, progress float32) {
	ph := &c.phases[idx]

	span := ph.End - ph.Start
	var localT float32
	if span <= 0 {
		// Degenerate phase: treat the whole range as its end point.
		localT = 1
	} else {
		localT = common.Clamp01((progress - ph.Start) / span)
	}

	c.camPosition, c.camTarget, c.camTilt = samplePose(ph, localT)

	for name, seg := range c.lightSegs[idx] {
		c.lightStates[name] = LightTarget{
			Intensity: common.Lerp(seg.from.Intensity, seg.to.Intensity, localT),
			Color:     common.Lerp3(seg.from.Color, seg.to.Color, localT),
			Position:  common.Lerp3(seg.from.Position, seg.to.Position, localT),
		}
	}

	iseg := c.intensitySegs[idx]
	c.intensity = common.Lerp(iseg.from, iseg.to, localT)
	c.forceModel = ph.ForceModel
}

// apply pushes the interpolated outputs to the attached collaborators.
// Caller must hold the mutex.
func (c *choreographyImpl) apply(idx int) {
	if c.rig != nil {
		c.rig.SetPose(c.camPosition, c.camTarget, c.camTilt)
	}
	for name := range c.lightSegs[idx] {
		if l, ok := c.lights[name]; ok {
			st := c.lightStates[name]
			l.SetIntensity(st.Intensity)
			l.SetColor(st.Color[0], st.Color[1], st.Color[2])
			l.SetPosition(st.Position[0], st.Position[1], st.Position[2])
		}
	}
	if c.sw != nil {
		c.sw.SetForceModel(c.forceModel)
		c.sw.SetIntensityScalar(c.intensity)
	}
}

// samplePose interpolates the phase's keyframe track at localT. Before the
// first keyframe or past the last one the track clamps to the end poses;
// zero-length segments resolve to their end keyframe.
func samplePose(ph *Phase, localT float32) (position, target [3]float32, tilt float32) {
	kfs := ph.CameraKeyframes
	if localT <= kfs[0].LocalT || len(kfs) == 1 {
		return kfs[0].Position, kfs[0].Target, kfs[0].Tilt
	}
	last := &kfs[len(kfs)-1]
	if localT >= last.LocalT {
		return last.Position, last.Target, last.Tilt
	}

	seg := 0
	for seg < len(kfs)-2 && localT >= kfs[seg+1].LocalT {
		seg++
	}
	k0, k1 := &kfs[seg], &kfs[seg+1]

	span := k1.LocalT - k0.LocalT
	var segT float32
	if span <= 0 {
		segT = 1
	} else {
		segT = (localT - k0.LocalT) / span
	}
	t := k0.Easing(segT)

	position = common.Lerp3(k0.Position, k1.Position, t)
	target = common.Lerp3(k0.Target, k1.Target, t)
	tilt = common.LerpAngle(k0.Tilt, k1.Tilt, t)
	return position, target, tilt
}

func (c *choreographyImpl) Progress() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

func (c *choreographyImpl) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *choreographyImpl) ActivePhaseIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activePhase
}

func (c *choreographyImpl) CameraPose() (position, target [3]float32, tilt float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.camPosition, c.camTarget, c.camTilt
}

func (c *choreographyImpl) LightState(name string) (LightTarget, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.lightStates[name]
	return st, ok
}

func (c *choreographyImpl) ForceModel() swarm.ForceModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forceModel
}

func (c *choreographyImpl) SwarmIntensity() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intensity
}

func (c *choreographyImpl) Complete() {
	c.mu.Lock()
	fire := !c.hasFiredTerminal
	if fire {
		c.hasFiredTerminal = true
		c.state = StateCompleted
	}
	action := c.terminalAction
	c.mu.Unlock()

	if fire && action != nil {
		action()
	}
}

func (c *choreographyImpl) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.activePhase = 0
	c.hasFiredTerminal = false
	c.progress = 0

	first := c.phases[0].CameraKeyframes[0]
	c.camPosition = first.Position
	c.camTarget = first.Target
	c.camTilt = first.Tilt
	c.forceModel = c.phases[0].ForceModel
	c.intensity = c.intensitySegs[0].from
	clear(c.lightStates)
}
