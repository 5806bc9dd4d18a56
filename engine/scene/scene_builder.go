package scene

import (
	"github.com/Carmen-Shannon/wisp-go/engine/camera"
	"github.com/Carmen-Shannon/wisp-go/engine/choreo"
	"github.com/Carmen-Shannon/wisp-go/engine/light"
	"github.com/Carmen-Shannon/wisp-go/engine/swarm"
)

type SceneBuilderOption func(*sceneImpl)

// WithSceneCamera sets the scene camera. Required.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - SceneBuilderOption: a function that sets the camera
func WithSceneCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.cam = cam
	}
}

// WithSceneSwarm attaches a particle swarm.
//
// Parameters:
//   - sw: the swarm
//
// Returns:
//   - SceneBuilderOption: a function that attaches the swarm
func WithSceneSwarm(sw swarm.Swarm) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.sw = sw
	}
}

// WithSceneChoreography attaches the choreography that drives the scene.
//
// Parameters:
//   - ch: the choreography
//
// Returns:
//   - SceneBuilderOption: a function that attaches the choreography
func WithSceneChoreography(ch choreo.Choreography) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.ch = ch
	}
}

// WithSceneLight registers a named light.
//
// Parameters:
//   - name: the light identifier
//   - l: the light
//
// Returns:
//   - SceneBuilderOption: a function that registers the light
func WithSceneLight(name string, l light.Light) SceneBuilderOption {
	return func(s *sceneImpl) {
		if _, exists := s.lights[name]; !exists {
			s.lightNames = append(s.lightNames, name)
		}
		s.lights[name] = l
	}
}

// WithSceneGroups registers prop groups.
//
// Parameters:
//   - groups: the prop groups to register
//
// Returns:
//   - SceneBuilderOption: a function that registers the groups
func WithSceneGroups(groups ...*PropGroup) SceneBuilderOption {
	return func(s *sceneImpl) {
		for _, g := range groups {
			g.dirty = true
			s.groups[g.Name] = g
			s.groupOrder = append(s.groupOrder, g)
		}
	}
}
