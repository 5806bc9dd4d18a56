package common

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Ease remaps a normalized interpolation factor t ∈ [0, 1] to a shaped
// factor, also in [0, 1]. Easing is applied to the local segment factor
// before any component blending so every pose component eases identically.
type Ease func(t float32) float32

// EaseLinear returns t unchanged.
func EaseLinear(t float32) float32 {
	return t
}

// EaseInQuad accelerates from zero velocity.
func EaseInQuad(t float32) float32 {
	return t * t
}

// EaseOutQuad decelerates to zero velocity.
func EaseOutQuad(t float32) float32 {
	return t * (2 - t)
}

// EaseInOutQuad accelerates through the first half and decelerates through
// the second.
func EaseInOutQuad(t float32) float32 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

// EaseInCubic accelerates from zero velocity, more sharply than quadratic.
func EaseInCubic(t float32) float32 {
	return t * t * t
}

// EaseOutCubic decelerates to zero velocity, more sharply than quadratic.
func EaseOutCubic(t float32) float32 {
	u := t - 1
	return u*u*u + 1
}

// EaseInOutCubic accelerates through the first half and decelerates through
// the second, with cubic curvature.
func EaseInOutCubic(t float32) float32 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := 2*t - 2
	return 0.5*u*u*u + 1
}

// EaseInOutSine follows half a cosine wave between the endpoints. The
// gentlest of the in-out curves; the default for camera keyframe segments.
func EaseInOutSine(t float32) float32 {
	return -(math32.Cos(math32.Pi*t) - 1) / 2
}

// easeRegistry maps scene-script easing names to their implementations.
var easeRegistry = map[string]Ease{
	"linear":       EaseLinear,
	"in-quad":      EaseInQuad,
	"out-quad":     EaseOutQuad,
	"in-out-quad":  EaseInOutQuad,
	"in-cubic":     EaseInCubic,
	"out-cubic":    EaseOutCubic,
	"in-out-cubic": EaseInOutCubic,
	"in-out-sine":  EaseInOutSine,
}

// ParseEase resolves an easing function by its scene-script name.
// An empty name resolves to EaseInOutSine, the default segment easing.
//
// Parameters:
//   - name: the easing identifier (e.g. "linear", "in-out-cubic")
//
// Returns:
//   - Ease: the resolved easing function
//   - error: error if the name is not registered
func ParseEase(name string) (Ease, error) {
	if name == "" {
		return EaseInOutSine, nil
	}
	e, ok := easeRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return e, nil
}
