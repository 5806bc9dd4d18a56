package engine

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/wisp-go/engine/profiler"
	"github.com/Carmen-Shannon/wisp-go/engine/progress"
	"github.com/Carmen-Shannon/wisp-go/engine/renderer"
	"github.com/Carmen-Shannon/wisp-go/engine/scene"
	"github.com/Carmen-Shannon/wisp-go/engine/window"
)

// engine implements the Engine interface.
// Coordinates the window message loop and the frame goroutine.
type engine struct {
	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	win  window.Window
	rend renderer.Renderer
	sc   scene.Scene
	prog progress.Source

	profiler         *profiler.Profiler
	profilingEnabled bool

	frameCallback func(deltaTime float32)
	frameLimit    time.Duration // minimum frame duration; 0 = uncapped

	// pendingResize stages a framebuffer resize from the window event thread
	// for the frame goroutine to apply (width in the high 32 bits, height in
	// the low). Zero means no resize pending.
	pendingResize atomic.Uint64
}

// Engine is the main entry point. It wires the window's scroll input into the
// progress source and runs the frame loop: sample progress, advance the
// scene (choreography, swarm, camera), and render.
//
// Every mutation on the frame path — progress smoothing, phase transitions,
// particle integration, buffer uploads — happens on the single frame
// goroutine, in that order, once per frame. Input callbacks only stage data
// (scroll deltas, resize dimensions) for the frame goroutine to consume.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Scene returns the scene the engine drives.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// Progress returns the scroll progress source.
	//
	// Returns:
	//   - progress.Source: the progress source
	Progress() progress.Source

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetFrameCallback registers a function called at the end of every frame,
	// on the frame goroutine. Useful for input handling that needs frame
	// ordering, such as replay resets.
	//
	// Parameters:
	//   - callback: function receiving the frame delta time in seconds
	SetFrameCallback(callback func(deltaTime float32))

	// SetFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the frame loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetFrameLimit(fps float64)

	// Run configures the surface, starts the frame goroutine, and blocks in
	// the window message loop until the window closes. GPU resources are
	// released only after the frame goroutine has fully stopped.
	Run()

	// Quit signals the frame goroutine to stop and closes the window.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine with the provided options. Panics when the
// window, renderer, or scene is missing — the engine cannot run without them.
// A progress source is created with defaults when none is supplied.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel: make(chan struct{}),
		profiler:    profiler.NewProfiler(),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.win == nil {
		panic("engine requires a window")
	}
	if e.rend == nil {
		panic("engine requires a renderer")
	}
	if e.sc == nil {
		panic("engine requires a scene")
	}
	if e.prog == nil {
		e.prog = progress.NewSource()
	}

	e.win.SetScrollCallback(func(delta float32) {
		e.prog.AddDelta(delta)
	})
	e.win.SetResizeCallback(func(width, height int) {
		if width <= 0 || height <= 0 {
			return
		}
		e.pendingResize.Store(uint64(width)<<32 | uint64(height))
	})

	return e
}

func (e *engine) Window() window.Window {
	return e.win
}

func (e *engine) Scene() scene.Scene {
	return e.sc
}

func (e *engine) Progress() progress.Source {
	return e.prog
}

func (e *engine) Run() {
	e.rend.ConfigureSurface(e.win.Width(), e.win.Height())
	e.applyAspect(e.win.Width(), e.win.Height())
	if sw := e.sc.Swarm(); sw != nil {
		if err := e.rend.SetParticleCapacity(sw.Count()); err != nil {
			panic(err)
		}
	}

	e.running = true
	e.wg.Add(2)
	go e.handleFrames()
	go e.handleQuit()

	e.win.ProcessMessages()

	// Window closed: stop the frame goroutine before touching GPU state so
	// no frame is in flight when buffers are released.
	e.signalQuit()
	e.wg.Wait()
	e.rend.Release()
}

// Quit signals the frame goroutine to stop and closes the window.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
	if err := e.win.Close(); err != nil {
		log.Printf("closing window: %v", err)
	}
}

// signalQuit closes the quit channel to signal the frame goroutine to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

// handleFrames runs the frame loop in its own goroutine: apply any staged
// resize, sample smoothed progress, advance the scene, sync prop changes,
// and render. Recovers from panics to avoid crashing the process and signals
// quit on recovery.
func (e *engine) handleFrames() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("frame goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastFrame := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastFrame).Seconds())
			lastFrame = now

			if packed := e.pendingResize.Swap(0); packed != 0 {
				width := int(packed >> 32)
				height := int(packed & 0xFFFFFFFF)
				e.rend.ConfigureSurface(width, height)
				e.applyAspect(width, height)
			}

			p := e.prog.Sample(dt)
			e.sc.Advance(p, dt)

			if err := e.sc.Sync(e.rend); err != nil {
				log.Printf("scene sync failed: %v", err)
			}

			cam := e.sc.Camera().Uniform()
			lights := e.sc.PackLights()
			particles := e.sc.ParticleInstances()
			if err := e.rend.RenderFrame(cam, lights, particles); err != nil {
				// Transient surface errors (resize races, occlusion) resolve
				// on a later frame; log and keep going.
				log.Printf("render frame failed: %v", err)
			}

			if e.frameCallback != nil {
				e.frameCallback(dt)
			}

			if e.profilingEnabled && e.profiler != nil {
				e.profiler.Tick()
			}

			if e.frameLimit > 0 {
				elapsed := time.Since(lastFrame)
				if remaining := e.frameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

func (e *engine) applyAspect(width, height int) {
	if height <= 0 {
		return
	}
	e.sc.Camera().SetAspect(float32(width) / float32(height))
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetFrameCallback registers the function called at the end of every frame.
func (e *engine) SetFrameCallback(callback func(deltaTime float32)) {
	e.frameCallback = callback
}

// SetFrameLimit sets an optional frame rate cap.
// Pass 0 to uncap the frame loop.
func (e *engine) SetFrameLimit(fps float64) {
	if fps <= 0 {
		e.frameLimit = 0
		return
	}
	e.frameLimit = time.Second / time.Duration(fps)
}
