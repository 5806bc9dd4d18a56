package renderer

import "github.com/cogentcore/webgpu/wgpu"

type RendererBuilderOption func(*rendererImpl)

// WithSurfaceDescriptor sets the surface descriptor the renderer presents to.
// Required.
//
// Parameters:
//   - descriptor: the wgpu surface descriptor from the window layer
//
// Returns:
//   - RendererBuilderOption: a function that sets the surface descriptor
func WithSurfaceDescriptor(descriptor *wgpu.SurfaceDescriptor) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.surfaceDescriptor = descriptor
	}
}

// WithForceFallbackAdapter forces selection of the software fallback adapter.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - RendererBuilderOption: a function that sets the fallback flag
func WithForceFallbackAdapter(force bool) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.forceFallbackAdapter = force
	}
}

// WithClearColor sets the background color the render pass clears to.
//
// Parameters:
//   - red, green, blue, alpha: the clear color components in [0, 1]
//
// Returns:
//   - RendererBuilderOption: a function that sets the clear color
func WithClearColor(red, green, blue, alpha float64) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.clearColor = wgpu.Color{R: red, G: green, B: blue, A: alpha}
	}
}
