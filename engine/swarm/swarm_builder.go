package swarm

type SwarmBuilderOption func(*swarmImpl)

// WithCount sets the fixed particle population size.
//
// Parameters:
//   - count: the number of particles (must be positive)
//
// Returns:
//   - SwarmBuilderOption: a function that sets the particle count
func WithCount(count int) SwarmBuilderOption {
	return func(s *swarmImpl) {
		s.count = count
	}
}

// WithBounds sets the bounding box particle positions are confined to.
//
// Parameters:
//   - bounds: the axis-aligned bounds (min must be below max on every axis)
//
// Returns:
//   - SwarmBuilderOption: a function that sets the bounds
func WithBounds(bounds Bounds) SwarmBuilderOption {
	return func(s *swarmImpl) {
		s.bounds = bounds
	}
}

// WithVelocityRange sets the per-axis uniform sampling range used for initial
// velocities and stochastic direction resampling.
//
// Parameters:
//   - velMin: per-axis lower bounds
//   - velMax: per-axis upper bounds
//
// Returns:
//   - SwarmBuilderOption: a function that sets the velocity range
func WithVelocityRange(velMin, velMax [3]float32) SwarmBuilderOption {
	return func(s *swarmImpl) {
		s.velocityMin = velMin
		s.velocityMax = velMax
	}
}

// WithVelocityClamp sets the per-axis velocity magnitude cap applied under
// the attraction force model.
//
// Parameters:
//   - clamp: per-axis maximum velocity magnitude (must be positive)
//
// Returns:
//   - SwarmBuilderOption: a function that sets the velocity clamp
func WithVelocityClamp(clamp [3]float32) SwarmBuilderOption {
	return func(s *swarmImpl) {
		s.velocityClamp = clamp
	}
}

// WithDirectionChangeProbability sets the per-particle, per-step probability
// of resampling velocity to a fresh random direction.
//
// Parameters:
//   - p: the probability in [0, 1]
//
// Returns:
//   - SwarmBuilderOption: a function that sets the probability
func WithDirectionChangeProbability(p float32) SwarmBuilderOption {
	return func(s *swarmImpl) {
		s.dirChangeProb = p
	}
}

// WithSizeRange sets the uniform sampling range for particle sizes.
//
// Parameters:
//   - sizeMin: smallest particle size (must be positive)
//   - sizeMax: largest particle size
//
// Returns:
//   - SwarmBuilderOption: a function that sets the size range
func WithSizeRange(sizeMin, sizeMax float32) SwarmBuilderOption {
	return func(s *swarmImpl) {
		s.sizeMin = sizeMin
		s.sizeMax = sizeMax
	}
}

// WithWander sets the frequencies and amplitudes of the sinusoidal bob and
// sway offsets layered on top of particle velocities.
//
// Parameters:
//   - bobFreq, bobAmp: vertical bob frequency (rad/s) and amplitude
//   - swayFreq, swayAmp: horizontal sway frequency (rad/s) and amplitude
//
// Returns:
//   - SwarmBuilderOption: a function that sets the wander parameters
func WithWander(bobFreq, bobAmp, swayFreq, swayAmp float32) SwarmBuilderOption {
	return func(s *swarmImpl) {
		s.bobFrequency = bobFreq
		s.bobAmplitude = bobAmp
		s.swayFrequency = swayFreq
		s.swayAmplitude = swayAmp
	}
}

// WithPulse sets the opacity pulse frequency and the base opacity it
// modulates.
//
// Parameters:
//   - frequency: pulse frequency in rad/s
//   - baseOpacity: opacity at full intensity before pulsing
//
// Returns:
//   - SwarmBuilderOption: a function that sets the pulse parameters
func WithPulse(frequency, baseOpacity float32) SwarmBuilderOption {
	return func(s *swarmImpl) {
		s.pulseFrequency = frequency
		s.baseOpacity = baseOpacity
	}
}

// WithSeed sets the seed for all random sampling, making the swarm fully
// deterministic. Defaults to the current time.
//
// Parameters:
//   - seed: the rand source seed
//
// Returns:
//   - SwarmBuilderOption: a function that sets the seed
func WithSeed(seed int64) SwarmBuilderOption {
	return func(s *swarmImpl) {
		s.seed = seed
	}
}

// WithWorkers sets the number of worker goroutines used to update particle
// chunks in parallel. Values above 1 enable the pooled path; the default of 1
// updates inline on the frame goroutine.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - SwarmBuilderOption: a function that sets the worker count
func WithWorkers(workers int) SwarmBuilderOption {
	return func(s *swarmImpl) {
		s.workers = workers
	}
}
