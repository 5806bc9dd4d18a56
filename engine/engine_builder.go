package engine

import (
	"github.com/Carmen-Shannon/wisp-go/engine/progress"
	"github.com/Carmen-Shannon/wisp-go/engine/renderer"
	"github.com/Carmen-Shannon/wisp-go/engine/scene"
	"github.com/Carmen-Shannon/wisp-go/engine/window"
)

// EngineBuilderOption is a functional option for configuring the engine.
type EngineBuilderOption func(*engine)

// WithWindow sets the window the engine runs in. Required.
//
// Parameters:
//   - win: the window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(win window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.win = win
	}
}

// WithRenderer sets the renderer the engine drives. Required.
//
// Parameters:
//   - rend: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(rend renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.rend = rend
	}
}

// WithScene sets the scene the engine advances and renders. Required.
//
// Parameters:
//   - sc: the scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(sc scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.sc = sc
	}
}

// WithProgressSource sets the scroll progress source. A default source is
// created when this option is omitted.
//
// Parameters:
//   - prog: the progress source
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProgressSource(prog progress.Source) EngineBuilderOption {
	return func(e *engine) {
		e.prog = prog
	}
}

// WithProfiling enables profiler output from the first frame.
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling() EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = true
	}
}
