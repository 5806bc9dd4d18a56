package swarm

import (
	"testing"

	"github.com/chewxy/math32"
)

func newTestSwarm(t *testing.T, options ...SwarmBuilderOption) Swarm {
	t.Helper()
	base := []SwarmBuilderOption{
		WithCount(64),
		WithSeed(1773),
	}
	s, err := NewSwarm(append(base, options...)...)
	if err != nil {
		t.Fatalf("NewSwarm: %v", err)
	}
	return s
}

func TestNewSwarmValidation(t *testing.T) {
	cases := []struct {
		name    string
		options []SwarmBuilderOption
	}{
		{"zero count", []SwarmBuilderOption{WithCount(0)}},
		{"negative count", []SwarmBuilderOption{WithCount(-5)}},
		{"inverted bounds", []SwarmBuilderOption{WithBounds(Bounds{
			Min: [3]float32{10, 0, -10},
			Max: [3]float32{-10, 8, 10},
		})}},
		{"inverted velocity range", []SwarmBuilderOption{WithVelocityRange(
			[3]float32{0.5, 0, 0},
			[3]float32{-0.5, 0.1, 0.3},
		)}},
		{"zero velocity clamp", []SwarmBuilderOption{WithVelocityClamp([3]float32{0, 1, 1})}},
		{"probability above one", []SwarmBuilderOption{WithDirectionChangeProbability(1.5)}},
		{"zero size min", []SwarmBuilderOption{WithSizeRange(0, 0.1)}},
		{"inverted size range", []SwarmBuilderOption{WithSizeRange(0.2, 0.1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSwarm(tc.options...); err == nil {
				t.Fatal("NewSwarm accepted invalid configuration")
			}
		})
	}
}

func TestStepKeepsParticlesInBounds(t *testing.T) {
	s := newTestSwarm(t,
		WithDirectionChangeProbability(0.05),
	)
	bounds := s.Bounds()

	const epsilon = 0.05
	for step := 0; step < 500; step++ {
		s.Step(1.0 / 60.0)
	}
	for i := 0; i < s.Count(); i++ {
		pos := s.Particle(i).Position
		for axis := 0; axis < 3; axis++ {
			if pos[axis] < bounds.Min[axis]-epsilon || pos[axis] > bounds.Max[axis]+epsilon {
				t.Fatalf("particle %d escaped on axis %d: %v outside [%v, %v]",
					i, axis, pos[axis], bounds.Min[axis], bounds.Max[axis])
			}
		}
	}
}

func TestZeroDtIsNoOp(t *testing.T) {
	s := newTestSwarm(t)
	s.Step(1.0 / 60.0)

	before := make([]ParticleState, s.Count())
	for i := range before {
		before[i] = s.Particle(i)
	}

	s.Step(0)
	s.Step(-0.016)

	for i := range before {
		if got := s.Particle(i); got != before[i] {
			t.Fatalf("particle %d changed on non-positive dt: %+v != %+v", i, got, before[i])
		}
	}
}

func TestAttractionPullsTowardTarget(t *testing.T) {
	s := newTestSwarm(t,
		WithBounds(Bounds{
			Min: [3]float32{-40, -40, -40},
			Max: [3]float32{40, 40, 40},
		}),
		WithVelocityRange(
			[3]float32{-0.05, -0.05, -0.05},
			[3]float32{0.05, 0.05, 0.05},
		),
		WithVelocityClamp([3]float32{1, 1, 1}),
		WithDirectionChangeProbability(0),
		WithWander(1.7, 0, 0.9, 0),
	)
	s.SetForceModel(ForceModel{
		Type:     ForceModelAttract,
		Target:   [3]float32{0, 0, 0},
		Strength: 0.01,
	})

	meanDistance := func() float32 {
		var sum float32
		for i := 0; i < s.Count(); i++ {
			pos := s.Particle(i).Position
			sum += math32.Sqrt(pos[0]*pos[0] + pos[1]*pos[1] + pos[2]*pos[2])
		}
		return sum / float32(s.Count())
	}

	before := meanDistance()
	for step := 0; step < 200; step++ {
		s.Step(1.0 / 60.0)
	}
	after := meanDistance()

	if after >= before-1.0 {
		t.Fatalf("attraction did not pull swarm inward: mean distance %v -> %v", before, after)
	}
	for i := 0; i < s.Count(); i++ {
		vel := s.Particle(i).Velocity
		for axis := 0; axis < 3; axis++ {
			if math32.Abs(vel[axis]) > 1+1e-4 {
				t.Fatalf("particle %d velocity exceeds clamp on axis %d: %v", i, axis, vel[axis])
			}
		}
	}
}

func TestForceModelSwapDoesNotSnapPositions(t *testing.T) {
	s := newTestSwarm(t)
	s.Step(1.0 / 60.0)
	before := s.Particle(0).Position

	s.SetForceModel(ForceModel{
		Type:     ForceModelAttract,
		Target:   [3]float32{0, 4, 0},
		Strength: 0.5,
	})
	if got := s.Particle(0).Position; got != before {
		t.Fatalf("SetForceModel moved a particle: %v != %v", got, before)
	}
	if got := s.ForceModel().Type; got != ForceModelAttract {
		t.Fatalf("ForceModel().Type = %v, want ForceModelAttract", got)
	}
}

func TestInstancesBufferReused(t *testing.T) {
	s := newTestSwarm(t)

	first := s.Instances()
	if len(first) != s.Count() {
		t.Fatalf("len(Instances()) = %d, want %d", len(first), s.Count())
	}
	p0 := &first[0]

	for step := 0; step < 10; step++ {
		s.Step(1.0 / 60.0)
		if &s.Instances()[0] != p0 {
			t.Fatal("Step reallocated the instance buffer")
		}
	}
}

func TestIntensityScalarModulatesOpacity(t *testing.T) {
	s := newTestSwarm(t)
	s.Step(1.0 / 60.0)
	for _, inst := range s.Instances() {
		if inst.Opacity <= 0 {
			t.Fatalf("opacity %v not positive at full intensity", inst.Opacity)
		}
	}

	s.SetIntensityScalar(0)
	s.Step(1.0 / 60.0)
	for _, inst := range s.Instances() {
		if inst.Opacity != 0 {
			t.Fatalf("opacity %v not zero at zero intensity", inst.Opacity)
		}
	}

	// Negative scalars clamp to zero rather than inverting the pulse.
	s.SetIntensityScalar(-2)
	if got := s.IntensityScalar(); got != 0 {
		t.Fatalf("IntensityScalar() = %v after negative set, want 0", got)
	}
}

func TestSeededSwarmIsDeterministic(t *testing.T) {
	build := func() Swarm {
		return newTestSwarm(t, WithDirectionChangeProbability(0.05))
	}
	a := build()
	b := build()

	for step := 0; step < 50; step++ {
		a.Step(1.0 / 60.0)
		b.Step(1.0 / 60.0)
	}
	for i := 0; i < a.Count(); i++ {
		if a.Particle(i) != b.Particle(i) {
			t.Fatalf("particle %d diverged between identically seeded swarms:\n%+v\n%+v",
				i, a.Particle(i), b.Particle(i))
		}
	}
}

func TestParallelWorkersDeterministic(t *testing.T) {
	build := func() Swarm {
		return newTestSwarm(t,
			WithCount(97), // deliberately not a multiple of the worker count
			WithWorkers(4),
			WithDirectionChangeProbability(0.05),
		)
	}
	a := build()
	b := build()

	for step := 0; step < 50; step++ {
		a.Step(1.0 / 60.0)
		b.Step(1.0 / 60.0)
	}
	for i := 0; i < a.Count(); i++ {
		if a.Particle(i) != b.Particle(i) {
			t.Fatalf("particle %d diverged between identically seeded parallel swarms", i)
		}
	}
}
