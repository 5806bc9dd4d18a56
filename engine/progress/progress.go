package progress

import (
	"math"
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/wisp-go/common"
)

// Source turns raw scroll wheel deltas into a smoothed, normalized progress
// value in [0, 1].
//
// Deltas arrive on the window's event goroutine; the frame goroutine calls
// Sample once per frame to pull the smoothed value. The raw accumulated
// target crosses between the two through a single atomic word, so no lock is
// held on the scroll callback path.
type Source interface {
	// AddDelta accumulates a scroll delta into the raw target, clamped to
	// [0, 1]. Safe to call from any goroutine.
	//
	// Parameters:
	//   - delta: the scroll offset, positive scrolling forward
	AddDelta(delta float32)

	// Sample advances the smoothed value toward the raw target and returns
	// it. Must be called from a single goroutine, once per frame.
	//
	// Parameters:
	//   - dt: elapsed time since the previous frame in seconds
	//
	// Returns:
	//   - float32: the smoothed progress in [0, 1]
	Sample(dt float32) float32

	// Target returns the raw accumulated target in [0, 1].
	//
	// Returns:
	//   - float32: the raw target
	Target() float32

	// Value returns the smoothed value of the most recent Sample without
	// advancing it.
	//
	// Returns:
	//   - float32: the smoothed progress
	Value() float32

	// Jump sets both the raw target and the smoothed value immediately,
	// skipping the smoothing transient. Used when replaying from the start.
	//
	// Parameters:
	//   - value: the progress to jump to (clamped to [0, 1])
	Jump(value float32)
}

type sourceImpl struct {
	targetBits atomic.Uint32

	// Owned by the Sample goroutine.
	value float32

	sensitivity   float32
	smoothingRate float32
}

var _ Source = &sourceImpl{}

// NewSource creates a new Source with the provided options applied.
//
// Parameters:
//   - options: functional options to configure the source
//
// Returns:
//   - Source: the newly created source
func NewSource(options ...SourceBuilderOption) Source {
	s := &sourceImpl{
		sensitivity:   0.05,
		smoothingRate: 8.0,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *sourceImpl) AddDelta(delta float32) {
	for {
		old := s.targetBits.Load()
		next := common.Clamp01(math.Float32frombits(old) + delta*s.sensitivity)
		if s.targetBits.CompareAndSwap(old, math.Float32bits(next)) {
			return
		}
	}
}

func (s *sourceImpl) Sample(dt float32) float32 {
	target := math.Float32frombits(s.targetBits.Load())
	if dt <= 0 {
		return s.value
	}

	// Exponential approach: frame-rate independent, never overshoots.
	alpha := 1 - math32.Exp(-s.smoothingRate*dt)
	s.value += (target - s.value) * alpha

	// Snap once the residual is imperceptible so progress actually reaches
	// the endpoints instead of approaching them forever.
	if math32.Abs(target-s.value) < 1e-4 {
		s.value = target
	}
	return s.value
}

func (s *sourceImpl) Target() float32 {
	return math.Float32frombits(s.targetBits.Load())
}

func (s *sourceImpl) Value() float32 {
	return s.value
}

func (s *sourceImpl) Jump(value float32) {
	value = common.Clamp01(value)
	s.targetBits.Store(math.Float32bits(value))
	s.value = value
}
