package choreo

import (
	"github.com/Carmen-Shannon/wisp-go/engine/camera"
	"github.com/Carmen-Shannon/wisp-go/engine/light"
	"github.com/Carmen-Shannon/wisp-go/engine/swarm"
)

type ChoreographyBuilderOption func(*choreographyImpl)

// WithPhases sets the phase table. Phases must be ordered and their ranges
// must partition [0, 1] contiguously; NewChoreography validates this.
//
// Parameters:
//   - phases: the ordered phase table
//
// Returns:
//   - ChoreographyBuilderOption: a function that sets the phases
func WithPhases(phases ...Phase) ChoreographyBuilderOption {
	return func(c *choreographyImpl) {
		c.phases = phases
	}
}

// WithCompletionThreshold sets the progress value at which the terminal
// action fires. Must be in (0, 1]; defaults to DefaultCompletionThreshold.
//
// Parameters:
//   - threshold: the completion threshold
//
// Returns:
//   - ChoreographyBuilderOption: a function that sets the threshold
func WithCompletionThreshold(threshold float32) ChoreographyBuilderOption {
	return func(c *choreographyImpl) {
		c.completionThreshold = threshold
	}
}

// WithTerminalAction sets the one-shot fired when progress first reaches the
// completion threshold (or when Complete is called). Fires at most once until
// Reset.
//
// Parameters:
//   - action: the terminal action
//
// Returns:
//   - ChoreographyBuilderOption: a function that sets the action
func WithTerminalAction(action func()) ChoreographyBuilderOption {
	return func(c *choreographyImpl) {
		c.terminalAction = action
	}
}

// WithRig attaches a camera rig. Advance pushes the interpolated pose to it
// every call.
//
// Parameters:
//   - rig: the camera rig to drive
//
// Returns:
//   - ChoreographyBuilderOption: a function that attaches the rig
func WithRig(rig camera.Rig) ChoreographyBuilderOption {
	return func(c *choreographyImpl) {
		c.rig = rig
	}
}

// WithLight attaches a named light. Phases addressing this name drive its
// parameters; its constructed state seeds the first interpolation span.
//
// Parameters:
//   - name: the name phases use to address the light
//   - l: the light to drive
//
// Returns:
//   - ChoreographyBuilderOption: a function that attaches the light
func WithLight(name string, l light.Light) ChoreographyBuilderOption {
	return func(c *choreographyImpl) {
		c.lights[name] = l
	}
}

// WithSwarm attaches a particle swarm. Advance pushes the active force model
// and interpolated intensity scalar to it every call.
//
// Parameters:
//   - sw: the swarm to drive
//
// Returns:
//   - ChoreographyBuilderOption: a function that attaches the swarm
func WithSwarm(sw swarm.Swarm) ChoreographyBuilderOption {
	return func(c *choreographyImpl) {
		c.sw = sw
	}
}
