package swarm

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/chewxy/math32"
)

// ForceModelType selects the rule governing per-step velocity changes.
type ForceModelType int

const (
	// ForceModelFree lets particles wander under their own velocity plus the
	// sinusoidal bob/sway offsets. The default model.
	ForceModelFree ForceModelType = iota

	// ForceModelAttract pulls every particle toward a world-space target each
	// step, with velocity clamped per-axis to prevent runaway acceleration.
	ForceModelAttract
)

// ForceModel describes the active velocity rule. Target and Strength are
// meaningful only for ForceModelAttract.
type ForceModel struct {
	Type     ForceModelType
	Target   [3]float32
	Strength float32
}

// Bounds is the axis-aligned box every particle position stays inside.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// particle is the per-agent simulation state. Allocated once at construction;
// a respawn is a position/velocity reset, never a reallocation.
type particle struct {
	position [3]float32
	velocity [3]float32
	phase    float32 // random seed in [0, 2π), offsets the wander/pulse trig
	size     float32
	opacity  float32
}

// ParticleState is a read-only snapshot of a single particle, exposed for
// tests and debug tooling. The renderer consumes the packed Instances buffer
// instead.
type ParticleState struct {
	Position [3]float32
	Velocity [3]float32
	Size     float32
	Opacity  float32
}

// chunk is a contiguous particle range updated by one worker task, with its
// own rand source so parallel chunks never contend on a shared generator.
type chunk struct {
	start, end int
	rng        *rand.Rand
}

type swarmImpl struct {
	mu *sync.Mutex

	particles []particle
	instances []GPUParticle

	bounds          Bounds
	velocityMin     [3]float32
	velocityMax     [3]float32
	velocityClamp   [3]float32
	dirChangeProb   float32
	sizeMin         float32
	sizeMax         float32
	baseOpacity     float32
	bobFrequency    float32
	bobAmplitude    float32
	swayFrequency   float32
	swayAmplitude   float32
	pulseFrequency  float32
	intensityScalar float32

	forceModel ForceModel

	count   int
	workers int

	// elapsed is the single monotonic time source for all trig phase math.
	// Accumulated from per-step dt; wall-clock time is never read here.
	elapsed float32

	seed   int64
	chunks []chunk
	pool   worker.DynamicWorkerPool
}

// Swarm owns a fixed population of particle agents and advances them each
// frame. The force model and intensity scalar are swapped by the choreography
// between frames and take effect on the next Step without snapping positions.
//
// Step never allocates: the particle array and the packed instance buffer are
// sized once at construction and reused for the swarm's lifetime.
type Swarm interface {
	// Count returns the fixed particle population size.
	//
	// Returns:
	//   - int: the number of particles
	Count() int

	// Bounds returns the bounding box particle positions are confined to.
	//
	// Returns:
	//   - Bounds: the configured bounds
	Bounds() Bounds

	// Step advances every particle by dt seconds: velocity integration plus
	// sinusoidal bob/sway wander, boundary wrap/reflect, stochastic direction
	// resampling, and the active force model. Also repacks the GPU instance
	// buffer.
	//
	// Parameters:
	//   - dt: elapsed simulation time in seconds (non-positive dt is a no-op)
	Step(dt float32)

	// ForceModel returns the force model applied on the next Step.
	//
	// Returns:
	//   - ForceModel: the active force model
	ForceModel() ForceModel

	// SetForceModel replaces the active force model. Takes effect on the next
	// Step call; existing positions and velocities are never snapped.
	//
	// Parameters:
	//   - fm: the force model to apply
	SetForceModel(fm ForceModel)

	// IntensityScalar returns the scalar applied to particle opacity and size.
	//
	// Returns:
	//   - float32: the intensity scalar
	IntensityScalar() float32

	// SetIntensityScalar sets the scalar applied to particle opacity and size.
	// Takes effect on the next Step call.
	//
	// Parameters:
	//   - scalar: the intensity scalar (clamped to >= 0)
	SetIntensityScalar(scalar float32)

	// Instances returns the packed per-particle instance data refreshed by the
	// most recent Step. The slice is reused across frames — the renderer must
	// upload it before the next Step runs.
	//
	// Returns:
	//   - []GPUParticle: the packed instance buffer
	Instances() []GPUParticle

	// Particle returns a read-only snapshot of particle i.
	//
	// Parameters:
	//   - i: the particle index
	//
	// Returns:
	//   - ParticleState: the particle's current state
	Particle(i int) ParticleState
}

var _ Swarm = &swarmImpl{}

// NewSwarm creates a Swarm with the provided options applied and all
// particles seeded at random positions inside the bounds. Configuration is
// validated once here; Step never fails.
//
// Parameters:
//   - options: functional options to configure the swarm
//
// Returns:
//   - Swarm: the newly created swarm
//   - error: error if the configuration is invalid
func NewSwarm(options ...SwarmBuilderOption) (Swarm, error) {
	s := &swarmImpl{
		mu: &sync.Mutex{},
		bounds: Bounds{
			Min: [3]float32{-10, 0, -10},
			Max: [3]float32{10, 8, 10},
		},
		velocityMin:     [3]float32{-0.3, -0.1, -0.3},
		velocityMax:     [3]float32{0.3, 0.1, 0.3},
		velocityClamp:   [3]float32{1.5, 1.5, 1.5},
		dirChangeProb:   0.005,
		sizeMin:         0.05,
		sizeMax:         0.15,
		baseOpacity:     0.9,
		bobFrequency:    1.7,
		bobAmplitude:    0.35,
		swayFrequency:   0.9,
		swayAmplitude:   0.2,
		pulseFrequency:  2.3,
		intensityScalar: 1.0,
		forceModel:      ForceModel{Type: ForceModelFree},
		count:           300,
		workers:         1,
		seed:            time.Now().UnixNano(),
	}
	for _, option := range options {
		option(s)
	}

	count := s.count
	workers := s.workers
	if count <= 0 {
		return nil, fmt.Errorf("swarm: particle count must be positive, got %d", count)
	}
	for axis := 0; axis < 3; axis++ {
		if s.bounds.Min[axis] >= s.bounds.Max[axis] {
			return nil, fmt.Errorf("swarm: bounds min must be below max on axis %d (%v >= %v)",
				axis, s.bounds.Min[axis], s.bounds.Max[axis])
		}
		if s.velocityMin[axis] > s.velocityMax[axis] {
			return nil, fmt.Errorf("swarm: velocity range inverted on axis %d", axis)
		}
		if s.velocityClamp[axis] <= 0 {
			return nil, fmt.Errorf("swarm: velocity clamp must be positive on axis %d", axis)
		}
	}
	if s.dirChangeProb < 0 || s.dirChangeProb > 1 {
		return nil, fmt.Errorf("swarm: direction change probability %v outside [0, 1]", s.dirChangeProb)
	}
	if s.sizeMin <= 0 || s.sizeMax < s.sizeMin {
		return nil, fmt.Errorf("swarm: size range [%v, %v] invalid", s.sizeMin, s.sizeMax)
	}

	s.particles = make([]particle, count)
	s.instances = make([]GPUParticle, count)

	seedRNG := rand.New(rand.NewSource(s.seed))
	for i := range s.particles {
		s.respawn(&s.particles[i], seedRNG)
	}

	if workers < 1 {
		workers = 1
	}
	if workers > count {
		workers = count
	}
	s.chunks = make([]chunk, workers)
	per := (count + workers - 1) / workers
	for c := range s.chunks {
		start := c * per
		end := min(start+per, count)
		s.chunks[c] = chunk{
			start: start,
			end:   end,
			rng:   rand.New(rand.NewSource(s.seed + int64(c) + 1)),
		}
	}
	if workers > 1 {
		// Queue depth matches chunk count; tasks are submitted once per frame
		// and gated by a WaitGroup, so the queue never backs up.
		s.pool = worker.NewDynamicWorkerPool(workers, workers*2, 1*time.Second)
	}

	return s, nil
}

// respawn resets a particle to a random position inside the bounds with a
// freshly sampled velocity, phase, and size.
func (s *swarmImpl) respawn(p *particle, rng *rand.Rand) {
	for axis := 0; axis < 3; axis++ {
		span := s.bounds.Max[axis] - s.bounds.Min[axis]
		p.position[axis] = s.bounds.Min[axis] + rng.Float32()*span
		p.velocity[axis] = s.sampleVelocity(rng, axis)
	}
	p.phase = rng.Float32() * 2 * math32.Pi
	p.size = s.sizeMin + rng.Float32()*(s.sizeMax-s.sizeMin)
	p.opacity = s.baseOpacity
}

// sampleVelocity draws a uniform velocity component from the configured range.
func (s *swarmImpl) sampleVelocity(rng *rand.Rand, axis int) float32 {
	span := s.velocityMax[axis] - s.velocityMin[axis]
	return s.velocityMin[axis] + rng.Float32()*span
}

func (s *swarmImpl) Count() int {
	return len(s.particles)
}

func (s *swarmImpl) Bounds() Bounds {
	return s.bounds
}

func (s *swarmImpl) ForceModel() ForceModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forceModel
}

func (s *swarmImpl) SetForceModel(fm ForceModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceModel = fm
}

func (s *swarmImpl) IntensityScalar() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intensityScalar
}

func (s *swarmImpl) SetIntensityScalar(scalar float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scalar < 0 {
		scalar = 0
	}
	s.intensityScalar = scalar
}

func (s *swarmImpl) Instances() []GPUParticle {
	return s.instances
}

func (s *swarmImpl) Particle(i int) ParticleState {
	p := &s.particles[i]
	return ParticleState{
		Position: p.position,
		Velocity: p.velocity,
		Size:     p.size,
		Opacity:  p.opacity,
	}
}

func (s *swarmImpl) Step(dt float32) {
	if dt <= 0 {
		return
	}

	// Snapshot the frame-constant inputs once so a mid-step SetForceModel or
	// SetIntensityScalar call never tears a single integration pass.
	s.mu.Lock()
	fm := s.forceModel
	intensity := s.intensityScalar
	s.mu.Unlock()

	s.elapsed += dt
	now := s.elapsed

	if s.pool == nil || len(s.chunks) == 1 {
		c := &s.chunks[0]
		s.stepRange(c.start, c.end, dt, now, fm, intensity, c.rng)
		return
	}

	// Parallel path: one task per chunk, barrier-synced by a WaitGroup since
	// the frame must not end with a half-updated particle buffer.
	var wg sync.WaitGroup
	for i := range s.chunks {
		c := &s.chunks[i]
		wg.Add(1)
		s.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				s.stepRange(c.start, c.end, dt, now, fm, intensity, c.rng)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// stepRange integrates particles [start, end). Runs either inline or on a
// pool worker; each invocation owns its index range and rand source
// exclusively, so no locking is needed inside the hot loop.
func (s *swarmImpl) stepRange(start, end int, dt, now float32, fm ForceModel, intensity float32, rng *rand.Rand) {
	for i := start; i < end; i++ {
		p := &s.particles[i]

		if fm.Type == ForceModelAttract {
			p.velocity[0] += fm.Strength * (fm.Target[0] - p.position[0])
			p.velocity[1] += fm.Strength * (fm.Target[1] - p.position[1])
			p.velocity[2] += fm.Strength * (fm.Target[2] - p.position[2])
			for axis := 0; axis < 3; axis++ {
				if p.velocity[axis] > s.velocityClamp[axis] {
					p.velocity[axis] = s.velocityClamp[axis]
				} else if p.velocity[axis] < -s.velocityClamp[axis] {
					p.velocity[axis] = -s.velocityClamp[axis]
				}
			}
		} else if rng.Float32() < s.dirChangeProb {
			for axis := 0; axis < 3; axis++ {
				p.velocity[axis] = s.sampleVelocity(rng, axis)
			}
		}

		// Velocity integration plus the layered wander offsets: a primary
		// vertical bob and a slower horizontal sway, both phase-shifted per
		// particle so the swarm never moves in lockstep.
		t := now + p.phase
		p.position[0] += (p.velocity[0] + math32.Cos(t*s.swayFrequency)*s.swayAmplitude) * dt
		p.position[1] += (p.velocity[1] + math32.Sin(t*s.bobFrequency)*s.bobAmplitude) * dt
		p.position[2] += (p.velocity[2] + math32.Sin(t*s.swayFrequency*0.8)*s.swayAmplitude) * dt

		// Horizontal axes wrap to the opposite bound; the vertical axis
		// reflects so a firefly drifting past the canopy turns back down
		// instead of popping in at the forest floor.
		for _, axis := range [2]int{0, 2} {
			span := s.bounds.Max[axis] - s.bounds.Min[axis]
			if p.position[axis] > s.bounds.Max[axis] {
				p.position[axis] -= span
			} else if p.position[axis] < s.bounds.Min[axis] {
				p.position[axis] += span
			}
		}
		if p.position[1] > s.bounds.Max[1] {
			p.position[1] = s.bounds.Max[1]
			p.velocity[1] = -math32.Abs(p.velocity[1])
		} else if p.position[1] < s.bounds.Min[1] {
			p.position[1] = s.bounds.Min[1]
			p.velocity[1] = math32.Abs(p.velocity[1])
		}

		// Pulse: opacity breathes on its own frequency, scaled by the
		// choreography's intensity scalar.
		pulse := 0.65 + 0.35*math32.Sin(now*s.pulseFrequency+p.phase)
		p.opacity = s.baseOpacity * pulse * intensity

		s.instances[i] = GPUParticle{
			Position: p.position,
			Size:     p.size * (0.8 + 0.2*intensity),
			Opacity:  p.opacity,
			Phase:    p.phase,
		}
	}
}
