package scene

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/wisp-go/engine/camera"
	"github.com/Carmen-Shannon/wisp-go/engine/choreo"
	"github.com/Carmen-Shannon/wisp-go/engine/light"
	"github.com/Carmen-Shannon/wisp-go/engine/renderer"
	"github.com/Carmen-Shannon/wisp-go/engine/swarm"
)

// PropGroup is one batch of identical meshes: shared geometry plus a list of
// placed instances. Groups are registered with the renderer once and their
// instance lists re-uploaded only when they change.
type PropGroup struct {
	Name      string
	Vertices  []renderer.Vertex
	Indices   []uint32
	Instances []renderer.PropInstance
	Visible   bool

	handle     renderer.MeshHandle
	registered bool
	dirty      bool
}

// Scene aggregates everything one frame needs: the camera and its rig, a
// named light registry, the particle swarm, the choreography that drives all
// of them from scroll progress, and the prop groups the renderer draws.
type Scene interface {
	// Camera returns the scene camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Swarm returns the particle swarm, or nil if none is attached.
	//
	// Returns:
	//   - swarm.Swarm: the swarm or nil
	Swarm() swarm.Swarm

	// Choreography returns the attached choreography, or nil if none.
	//
	// Returns:
	//   - choreo.Choreography: the choreography or nil
	Choreography() choreo.Choreography

	// AddLight registers a named light.
	//
	// Parameters:
	//   - name: the light identifier
	//   - l: the light
	AddLight(name string, l light.Light)

	// Light returns a registered light by name.
	//
	// Parameters:
	//   - name: the light identifier
	//
	// Returns:
	//   - light.Light: the light
	//   - bool: false if no light is registered under the name
	Light(name string) (light.Light, bool)

	// AddGroup registers a prop group. The group is uploaded to the renderer
	// on the next Sync.
	//
	// Parameters:
	//   - group: the prop group
	AddGroup(group *PropGroup)

	// Group returns a registered prop group by name.
	//
	// Parameters:
	//   - name: the group name
	//
	// Returns:
	//   - *PropGroup: the group
	//   - bool: false if no group is registered under the name
	Group(name string) (*PropGroup, bool)

	// SetGroupVisible shows or hides a prop group. The change reaches the GPU
	// on the next Sync. Unknown names are ignored.
	//
	// Parameters:
	//   - name: the group name
	//   - visible: the new visibility
	SetGroupVisible(name string, visible bool)

	// Advance drives one simulation step: feeds progress to the choreography
	// (which poses the rig, lights, and swarm), advances the swarm, and
	// refreshes the camera matrices. Call once per frame before Sync.
	//
	// Parameters:
	//   - progress: normalized scroll progress in [0, 1]
	//   - dt: elapsed time since the previous frame in seconds
	Advance(progress, dt float32)

	// Sync pushes pending prop group changes to the renderer: registers new
	// groups and re-uploads instance lists for groups whose visibility or
	// contents changed.
	//
	// Parameters:
	//   - r: the renderer to sync against
	//
	// Returns:
	//   - error: error if a GPU upload fails
	Sync(r renderer.Renderer) error

	// PackLights packs the enabled lights into their GPU representation,
	// ordered by name for stable shader indexing. The returned slice is
	// reused across calls.
	//
	// Returns:
	//   - []light.GPULight: the packed lights, valid until the next call
	PackLights() []light.GPULight

	// ParticleInstances returns the swarm's packed instance buffer, or nil
	// when no swarm is attached.
	//
	// Returns:
	//   - []swarm.GPUParticle: the packed particles
	ParticleInstances() []swarm.GPUParticle
}

type sceneImpl struct {
	mu *sync.Mutex

	cam camera.Camera
	sw  swarm.Swarm
	ch  choreo.Choreography

	lights     map[string]light.Light
	lightNames []string
	gpuLights  []light.GPULight

	groups     map[string]*PropGroup
	groupOrder []*PropGroup
}

var _ Scene = &sceneImpl{}

// NewScene creates a Scene from the provided options. Panics if no camera is
// attached — a scene without a camera cannot produce a frame.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &sceneImpl{
		mu:     &sync.Mutex{},
		lights: make(map[string]light.Light),
		groups: make(map[string]*PropGroup),
	}
	for _, option := range options {
		option(s)
	}
	if s.cam == nil {
		panic("scene requires a camera")
	}
	sort.Strings(s.lightNames)
	return s
}

func (s *sceneImpl) Camera() camera.Camera {
	return s.cam
}

func (s *sceneImpl) Swarm() swarm.Swarm {
	return s.sw
}

func (s *sceneImpl) Choreography() choreo.Choreography {
	return s.ch
}

func (s *sceneImpl) AddLight(name string, l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.lights[name]; !exists {
		s.lightNames = append(s.lightNames, name)
		sort.Strings(s.lightNames)
	}
	s.lights[name] = l
}

func (s *sceneImpl) Light(name string) (light.Light, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lights[name]
	return l, ok
}

func (s *sceneImpl) AddGroup(group *PropGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.groups[group.Name]; ok {
		// Re-adding replaces the instance list of the existing group.
		existing.Instances = group.Instances
		existing.Visible = group.Visible
		existing.dirty = true
		return
	}
	group.dirty = true
	s.groups[group.Name] = group
	s.groupOrder = append(s.groupOrder, group)
}

func (s *sceneImpl) Group(name string) (*PropGroup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[name]
	return g, ok
}

func (s *sceneImpl) SetGroupVisible(name string, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[name]
	if !ok || g.Visible == visible {
		return
	}
	g.Visible = visible
	g.dirty = true
}

func (s *sceneImpl) Advance(progress, dt float32) {
	if s.ch != nil {
		s.ch.Advance(progress, dt)
	}
	if s.sw != nil {
		s.sw.Step(dt)
	}
	s.cam.Update()
}

func (s *sceneImpl) Sync(r renderer.Renderer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groupOrder {
		if !g.registered {
			handle, err := r.RegisterMesh(g.Name, g.Vertices, g.Indices)
			if err != nil {
				return fmt.Errorf("registering group %q: %w", g.Name, err)
			}
			g.handle = handle
			g.registered = true
			g.dirty = true
		}
		if !g.dirty {
			continue
		}
		instances := g.Instances
		if !g.Visible {
			instances = nil
		}
		if err := r.SetMeshInstances(g.handle, instances); err != nil {
			return fmt.Errorf("uploading group %q: %w", g.Name, err)
		}
		g.dirty = false
	}
	return nil
}

func (s *sceneImpl) PackLights() []light.GPULight {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gpuLights = s.gpuLights[:0]
	for _, name := range s.lightNames {
		l := s.lights[name]
		if !l.Enabled() {
			continue
		}
		if len(s.gpuLights) == light.MaxGPULights {
			break
		}
		s.gpuLights = append(s.gpuLights, l.Pack())
	}
	return s.gpuLights
}

func (s *sceneImpl) ParticleInstances() []swarm.GPUParticle {
	if s.sw == nil {
		return nil
	}
	return s.sw.Instances()
}
