package progress

type SourceBuilderOption func(*sourceImpl)

// WithSensitivity sets how much progress one scroll unit contributes.
//
// Parameters:
//   - sensitivity: progress per scroll unit
//
// Returns:
//   - SourceBuilderOption: a function that sets the sensitivity
func WithSensitivity(sensitivity float32) SourceBuilderOption {
	return func(s *sourceImpl) {
		s.sensitivity = sensitivity
	}
}

// WithSmoothingRate sets the exponential approach rate toward the raw target.
// Higher values track the wheel more tightly; lower values glide.
//
// Parameters:
//   - rate: the approach rate in 1/seconds
//
// Returns:
//   - SourceBuilderOption: a function that sets the smoothing rate
func WithSmoothingRate(rate float32) SourceBuilderOption {
	return func(s *sourceImpl) {
		s.smoothingRate = rate
	}
}
