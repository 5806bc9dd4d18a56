package scene

import (
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/wisp-go/engine/camera"
	"github.com/Carmen-Shannon/wisp-go/engine/choreo"
	"github.com/Carmen-Shannon/wisp-go/engine/light"
	"github.com/Carmen-Shannon/wisp-go/engine/renderer"
	"github.com/Carmen-Shannon/wisp-go/engine/swarm"
)

// recordingRenderer satisfies renderer.Renderer without touching the GPU and
// records the mesh registrations and instance uploads Sync performs.
type recordingRenderer struct {
	registered []string
	uploads    map[renderer.MeshHandle][]renderer.PropInstance
	uploadLog  []renderer.MeshHandle
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{
		uploads: make(map[renderer.MeshHandle][]renderer.PropInstance),
	}
}

func (r *recordingRenderer) ConfigureSurface(width, height int) {}

func (r *recordingRenderer) SetPresentMode(mode renderer.PresentMode) {}

func (r *recordingRenderer) RegisterMesh(label string, vertices []renderer.Vertex, indices []uint32) (renderer.MeshHandle, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return 0, fmt.Errorf("empty mesh %q", label)
	}
	handle := renderer.MeshHandle(len(r.registered))
	r.registered = append(r.registered, label)
	return handle, nil
}

func (r *recordingRenderer) SetMeshInstances(handle renderer.MeshHandle, instances []renderer.PropInstance) error {
	r.uploads[handle] = instances
	r.uploadLog = append(r.uploadLog, handle)
	return nil
}

func (r *recordingRenderer) SetParticleCapacity(capacity int) error { return nil }

func (r *recordingRenderer) RenderFrame(cam camera.GPUCamera, lights []light.GPULight, particles []swarm.GPUParticle) error {
	return nil
}

func (r *recordingRenderer) Release() {}

var _ renderer.Renderer = &recordingRenderer{}

func newTestScene(options ...SceneBuilderOption) Scene {
	rig := camera.NewRig(camera.WithRigPosition(0, 4, 12))
	cam := camera.NewCamera(camera.WithRig(rig))
	return NewScene(append([]SceneBuilderOption{WithSceneCamera(cam)}, options...)...)
}

func TestNewSceneRequiresCamera(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewScene without a camera did not panic")
		}
	}()
	NewScene()
}

func TestSyncRegistersOnceAndUploadsDirtyOnly(t *testing.T) {
	sc := newTestScene(WithSceneGroups(ForestGroups(7)...))
	r := newRecordingRenderer()

	if err := sc.Sync(r); err != nil {
		t.Fatalf("first Sync: %v", err)
	}
	if len(r.registered) != 5 {
		t.Fatalf("registered %d meshes, want 5 (%v)", len(r.registered), r.registered)
	}
	firstUploads := len(r.uploadLog)
	if firstUploads != 5 {
		t.Fatalf("first Sync uploaded %d times, want 5", firstUploads)
	}

	// Nothing changed: a second Sync registers and uploads nothing.
	if err := sc.Sync(r); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if len(r.registered) != 5 || len(r.uploadLog) != firstUploads {
		t.Fatalf("clean Sync touched the renderer: %d registrations, %d uploads",
			len(r.registered), len(r.uploadLog))
	}

	// One visibility flip re-uploads exactly that group.
	sc.SetGroupVisible(FlowerGroupName, true)
	if err := sc.Sync(r); err != nil {
		t.Fatalf("third Sync: %v", err)
	}
	if len(r.uploadLog) != firstUploads+1 {
		t.Fatalf("visibility flip uploaded %d times, want 1", len(r.uploadLog)-firstUploads)
	}
}

func TestHiddenGroupUploadsNoInstances(t *testing.T) {
	sc := newTestScene(WithSceneGroups(ForestGroups(7)...))
	r := newRecordingRenderer()
	if err := sc.Sync(r); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	flower, ok := sc.Group(FlowerGroupName)
	if !ok {
		t.Fatal("flower group missing")
	}
	if flower.Visible {
		t.Fatal("flower group starts visible, want hidden")
	}
	if got := r.uploads[flower.handle]; got != nil {
		t.Fatalf("hidden group uploaded %d instances, want none", len(got))
	}

	sc.SetGroupVisible(FlowerGroupName, true)
	if err := sc.Sync(r); err != nil {
		t.Fatalf("Sync after reveal: %v", err)
	}
	if got := r.uploads[flower.handle]; len(got) == 0 {
		t.Fatal("revealed group uploaded no instances")
	}
}

func TestSetGroupVisibleIgnoresNoOps(t *testing.T) {
	sc := newTestScene(WithSceneGroups(ForestGroups(7)...))
	r := newRecordingRenderer()
	if err := sc.Sync(r); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	uploads := len(r.uploadLog)

	sc.SetGroupVisible("ground", true) // already visible
	sc.SetGroupVisible("no-such-group", true)
	if err := sc.Sync(r); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(r.uploadLog) != uploads {
		t.Fatalf("no-op visibility calls caused %d uploads", len(r.uploadLog)-uploads)
	}
}

func TestPackLightsSortedAndFiltered(t *testing.T) {
	mk := func(name string, intensity float32, enabled bool) light.Light {
		return light.NewLight(name, light.LightTypePoint,
			light.WithIntensity(intensity),
			light.WithEnabled(enabled),
		)
	}
	sc := newTestScene(
		WithSceneLight("zenith", mk("zenith", 3, true)),
		WithSceneLight("aurora", mk("aurora", 1, true)),
		WithSceneLight("marsh", mk("marsh", 2, false)),
	)

	packed := sc.PackLights()
	if len(packed) != 2 {
		t.Fatalf("packed %d lights, want 2 enabled", len(packed))
	}
	// Name order is the shader index order: aurora before zenith, marsh
	// dropped.
	if packed[0].Intensity != 1 || packed[1].Intensity != 3 {
		t.Fatalf("packed intensities = [%v, %v], want [1, 3]", packed[0].Intensity, packed[1].Intensity)
	}

	// Re-enabling through the registry shows up on the next pack.
	marsh, _ := sc.Light("marsh")
	marsh.SetEnabled(true)
	repacked := sc.PackLights()
	if len(repacked) != 3 {
		t.Fatalf("repacked %d lights, want 3", len(repacked))
	}

	// Once sized, repeated packs reuse the same backing buffer.
	again := sc.PackLights()
	if &repacked[0] != &again[0] {
		t.Fatal("PackLights reallocated its buffer between identical packs")
	}
}

func TestPackLightsCapped(t *testing.T) {
	options := make([]SceneBuilderOption, 0, light.MaxGPULights+4)
	for i := 0; i < light.MaxGPULights+4; i++ {
		name := fmt.Sprintf("light-%02d", i)
		options = append(options, WithSceneLight(name,
			light.NewLight(name, light.LightTypePoint, light.WithIntensity(1))))
	}
	sc := newTestScene(options...)

	if got := len(sc.PackLights()); got != light.MaxGPULights {
		t.Fatalf("packed %d lights, want cap %d", got, light.MaxGPULights)
	}
}

func TestAdvanceDrivesChoreographySwarmAndCamera(t *testing.T) {
	rig := camera.NewRig(camera.WithRigPosition(0, 6, 24))
	cam := camera.NewCamera(camera.WithRig(rig))
	sw, err := swarm.NewSwarm(swarm.WithCount(16), swarm.WithSeed(3))
	if err != nil {
		t.Fatalf("NewSwarm: %v", err)
	}
	ch, err := choreo.NewChoreography(
		choreo.WithPhases(choreo.Phase{
			Name: "drift", Start: 0, End: 1,
			CameraKeyframes: []choreo.CameraKeyframe{
				{LocalT: 0, Position: [3]float32{0, 6, 24}, Target: [3]float32{0, 2, 0}},
				{LocalT: 1, Position: [3]float32{0, 2, 4}, Target: [3]float32{0, 1, 0}},
			},
		}),
		choreo.WithRig(rig),
		choreo.WithSwarm(sw),
	)
	if err != nil {
		t.Fatalf("NewChoreography: %v", err)
	}

	sc := NewScene(
		WithSceneCamera(cam),
		WithSceneSwarm(sw),
		WithSceneChoreography(ch),
	)

	before := sw.Particle(0).Position
	sc.Advance(0.5, 1.0/60.0)

	pos, _, _ := rig.Pose()
	if pos == [3]float32{0, 6, 24} {
		t.Fatal("rig did not move from its starting pose")
	}
	if sw.Particle(0).Position == before {
		t.Fatal("swarm did not step")
	}
	u := cam.Uniform()
	if u.Position != pos {
		t.Fatalf("camera uniform position %v lags rig %v", u.Position, pos)
	}
	if len(sc.ParticleInstances()) != sw.Count() {
		t.Fatalf("ParticleInstances len = %d, want %d", len(sc.ParticleInstances()), sw.Count())
	}
}

func TestForestGroupsDeterministic(t *testing.T) {
	a := ForestGroups(1773)
	b := ForestGroups(1773)

	if len(a) != len(b) {
		t.Fatalf("group counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Name != b[i].Name || len(a[i].Instances) != len(b[i].Instances) {
			t.Fatalf("group %d differs: %q/%d vs %q/%d",
				i, a[i].Name, len(a[i].Instances), b[i].Name, len(b[i].Instances))
		}
		for j := range a[i].Instances {
			if a[i].Instances[j] != b[i].Instances[j] {
				t.Fatalf("group %q instance %d differs between identical seeds", a[i].Name, j)
			}
		}
	}
}

func TestForestGroupsKeepTheClearingClear(t *testing.T) {
	groups := ForestGroups(99)
	byName := make(map[string]*PropGroup, len(groups))
	for _, g := range groups {
		byName[g.Name] = g
	}

	for _, name := range []string{"trunks", "canopies"} {
		g, ok := byName[name]
		if !ok {
			t.Fatalf("missing group %q", name)
		}
		for i, inst := range g.Instances {
			// Translation lives in the last matrix column.
			x, z := inst.Model[12], inst.Model[14]
			if d := math.Sqrt(float64(x*x + z*z)); d < clearingRadius {
				t.Fatalf("%s instance %d at distance %.2f inside the clearing", name, i, d)
			}
		}
	}

	flower, ok := byName[FlowerGroupName]
	if !ok {
		t.Fatal("missing flower group")
	}
	if flower.Visible {
		t.Fatal("flower starts visible, want hidden")
	}
	if len(flower.Vertices) == 0 || len(flower.Indices) == 0 {
		t.Fatal("flower has no geometry")
	}
	if len(flower.Indices)%3 != 0 {
		t.Fatalf("flower index count %d is not a whole number of triangles", len(flower.Indices))
	}
}
