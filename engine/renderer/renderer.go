package renderer

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/wisp-go/engine/camera"
	"github.com/Carmen-Shannon/wisp-go/engine/light"
	"github.com/Carmen-Shannon/wisp-go/engine/swarm"
)

//go:embed shaders/prop.wgsl
var propShaderSource string

//go:embed shaders/particle.wgsl
var particleShaderSource string

// lightsUniformSize is the byte size of the lights uniform: a 16-byte header
// (count + padding) followed by MaxGPULights packed lights.
const lightsUniformSize = 16 + light.MaxGPULights*48

// MeshHandle identifies a registered mesh.
type MeshHandle int

type meshBuffers struct {
	vertexBuffer   *wgpu.Buffer
	indexBuffer    *wgpu.Buffer
	indexCount     int
	instanceBuffer *wgpu.Buffer
	instanceCap    int
	instanceCount  int
}

type rendererImpl struct {
	mu      *sync.Mutex
	backend wgpuBackend

	meshes []*meshBuffers

	propPipeline     *wgpu.RenderPipeline
	particlePipeline *wgpu.RenderPipeline
	sceneBindGroup   *wgpu.BindGroup

	cameraBuffer *wgpu.Buffer
	lightsBuffer *wgpu.Buffer

	quadVertexBuffer       *wgpu.Buffer
	quadIndexBuffer        *wgpu.Buffer
	particleInstanceBuffer *wgpu.Buffer
	particleCapacity       int

	// Scratch buffers reused every frame so RenderFrame never allocates.
	cameraScratch [112]byte
	lightsScratch [lightsUniformSize]byte

	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool
	clearColor           wgpu.Color
	pipelinesReady       bool
	released             bool
}

// Renderer draws the scene: registered prop meshes with instanced model
// matrices and tints, plus billboard particles, lit by up to
// light.MaxGPULights lights. One render pass per frame.
//
// All GPU work happens on the goroutine that calls RenderFrame; only mesh and
// particle uploads are guarded for callers that stage data from elsewhere.
type Renderer interface {
	// ConfigureSurface (re)configures the swapchain for the given size. Must
	// be called before the first RenderFrame and on every window resize.
	// Pipelines and shared GPU buffers are created on the first call.
	//
	// Parameters:
	//   - width: surface width in pixels
	//   - height: surface height in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode. Takes effect on the next
	// ConfigureSurface call.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// RegisterMesh uploads a static mesh and returns a handle for instancing.
	//
	// Parameters:
	//   - label: debug label attached to the GPU buffers
	//   - vertices: the mesh vertices
	//   - indices: the triangle index list
	//
	// Returns:
	//   - MeshHandle: handle for SetMeshInstances
	//   - error: error if a GPU buffer could not be created
	RegisterMesh(label string, vertices []Vertex, indices []uint32) (MeshHandle, error)

	// SetMeshInstances replaces the instance list for a registered mesh. The
	// instance buffer grows as needed and is reused otherwise.
	//
	// Parameters:
	//   - handle: the mesh handle from RegisterMesh
	//   - instances: the per-instance transforms and tints
	//
	// Returns:
	//   - error: error for an unknown handle or failed buffer creation
	SetMeshInstances(handle MeshHandle, instances []PropInstance) error

	// SetParticleCapacity allocates the particle instance buffer for a fixed
	// population size. Must be called once before particles are rendered.
	//
	// Parameters:
	//   - capacity: the particle count
	//
	// Returns:
	//   - error: error if the buffer could not be created
	SetParticleCapacity(capacity int) error

	// RenderFrame uploads the camera uniform, light table, and particle
	// instances, then encodes and submits one render pass drawing every mesh
	// batch followed by the particle billboards, and presents.
	//
	// Parameters:
	//   - cam: the packed camera uniform
	//   - lights: the packed lights (truncated at light.MaxGPULights)
	//   - particles: the packed particle instances, or nil for none
	//
	// Returns:
	//   - error: error if the swapchain texture could not be acquired
	RenderFrame(cam camera.GPUCamera, lights []light.GPULight, particles []swarm.GPUParticle) error

	// Release destroys all GPU buffers and the device. Must not be called
	// while a frame is in flight; stop the frame loop first.
	Release()
}

var _ Renderer = &rendererImpl{}

// NewRenderer creates a Renderer backed by wgpu. Panics if no surface
// descriptor is provided — a renderer without a surface has nothing to
// present to.
//
// Parameters:
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the newly created renderer
func NewRenderer(options ...RendererBuilderOption) Renderer {
	r := &rendererImpl{
		mu: &sync.Mutex{},
		clearColor: wgpu.Color{
			R: 0.012, G: 0.02, B: 0.035, A: 1.0,
		},
	}
	for _, option := range options {
		option(r)
	}
	if r.surfaceDescriptor == nil {
		panic("renderer requires a surface descriptor")
	}

	r.backend = newWGPUBackend(r.surfaceDescriptor, r.forceFallbackAdapter, r.clearColor)
	return r
}

func (r *rendererImpl) ConfigureSurface(width, height int) {
	r.backend.ConfigureSurface(width, height)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pipelinesReady {
		r.initSharedResources()
		r.initPipelines()
		r.pipelinesReady = true
	}
}

func (r *rendererImpl) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

// initSharedResources creates the camera and lights uniform buffers, the
// particle quad geometry, and the scene bind group. Caller must hold the
// mutex.
func (r *rendererImpl) initSharedResources() {
	device := r.backend.Device()
	queue := r.backend.Queue()

	var err error
	r.cameraBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Camera Uniform Buffer",
		Size:  uint64(len(r.cameraScratch)),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}

	r.lightsBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Lights Uniform Buffer",
		Size:  uint64(lightsUniformSize),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}

	// Unit quad for particle billboards, expanded in the vertex shader.
	quadVertices := []float32{
		-1, -1,
		1, -1,
		-1, 1,
		1, 1,
	}
	quadIndices := []uint32{0, 1, 2, 2, 1, 3}

	r.quadVertexBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Particle Quad Vertex Buffer",
		Size:  uint64(len(quadVertices) * 4),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	queue.WriteBuffer(r.quadVertexBuffer, 0, float32Bytes(quadVertices))

	r.quadIndexBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Particle Quad Index Buffer",
		Size:  uint64(len(quadIndices) * 4),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}
	queue.WriteBuffer(r.quadIndexBuffer, 0, uint32Bytes(quadIndices))
}

// initPipelines builds the prop and particle render pipelines against the
// configured surface format. Caller must hold the mutex.
func (r *rendererImpl) initPipelines() {
	device := r.backend.Device()
	surfaceFormat := r.backend.SurfaceFormat()

	bindGroupLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Scene Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(len(r.cameraScratch)),
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(lightsUniformSize),
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}

	r.sceneBindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Scene Bind Group",
		Layout: bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  r.cameraBuffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
			{
				Binding: 1,
				Buffer:  r.lightsBuffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		panic(err)
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Scene Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindGroupLayout},
	})
	if err != nil {
		panic(err)
	}

	propShader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "Prop Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: propShaderSource,
		},
	})
	if err != nil {
		panic(err)
	}

	particleShader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "Particle Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: particleShaderSource,
		},
	})
	if err != nil {
		panic(err)
	}

	r.propPipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Prop Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     propShader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(VertexSize),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
					},
				},
				{
					ArrayStride: uint64(PropInstanceSize),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 3},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 4},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 5},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 64, ShaderLocation: 6},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     propShader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		panic(err)
	}

	// Particles draw after the props: depth-tested against them but not
	// depth-written, blended additively so overlapping glows accumulate.
	r.particlePipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Particle Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     particleShader,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 8,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
				{
					ArrayStride: uint64(swarm.GPUParticleSize),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 1},
						{Format: wgpu.VertexFormatFloat32, Offset: 12, ShaderLocation: 2},
						{Format: wgpu.VertexFormatFloat32, Offset: 16, ShaderLocation: 3},
						{Format: wgpu.VertexFormatFloat32, Offset: 20, ShaderLocation: 4},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     particleShader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format: surfaceFormat,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOne,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOne,
						},
					},
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		panic(err)
	}
}

func (r *rendererImpl) RegisterMesh(label string, vertices []Vertex, indices []uint32) (MeshHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device := r.backend.Device()
	queue := r.backend.Queue()

	vertexData := VertexBytes(vertices)
	vertexBuffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, err
	}
	queue.WriteBuffer(vertexBuffer, 0, vertexData)

	indexData := uint32Bytes(indices)
	indexBuffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vertexBuffer.Release()
		return 0, err
	}
	queue.WriteBuffer(indexBuffer, 0, indexData)

	r.meshes = append(r.meshes, &meshBuffers{
		vertexBuffer: vertexBuffer,
		indexBuffer:  indexBuffer,
		indexCount:   len(indices),
	})
	return MeshHandle(len(r.meshes) - 1), nil
}

func (r *rendererImpl) SetMeshInstances(handle MeshHandle, instances []PropInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(handle) < 0 || int(handle) >= len(r.meshes) {
		return fmt.Errorf("unknown mesh handle %d", handle)
	}
	mesh := r.meshes[handle]

	if mesh.instanceBuffer == nil || mesh.instanceCap < len(instances) {
		if mesh.instanceBuffer != nil {
			mesh.instanceBuffer.Release()
		}
		buf, err := r.backend.Device().CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Prop Instance Buffer",
			Size:  uint64(len(instances) * PropInstanceSize),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		mesh.instanceBuffer = buf
		mesh.instanceCap = len(instances)
	}

	if len(instances) > 0 {
		r.backend.Queue().WriteBuffer(mesh.instanceBuffer, 0, PropInstanceBytes(instances))
	}
	mesh.instanceCount = len(instances)
	return nil
}

func (r *rendererImpl) SetParticleCapacity(capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if capacity <= 0 {
		return fmt.Errorf("particle capacity must be positive, got %d", capacity)
	}
	if r.particleInstanceBuffer != nil {
		r.particleInstanceBuffer.Release()
	}

	buf, err := r.backend.Device().CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Particle Instance Buffer",
		Size:  uint64(capacity * swarm.GPUParticleSize),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	r.particleInstanceBuffer = buf
	r.particleCapacity = capacity
	return nil
}

func (r *rendererImpl) RenderFrame(cam camera.GPUCamera, lights []light.GPULight, particles []swarm.GPUParticle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.pipelinesReady {
		return fmt.Errorf("surface not configured")
	}

	queue := r.backend.Queue()

	cam.Marshal(r.cameraScratch[:])
	queue.WriteBuffer(r.cameraBuffer, 0, r.cameraScratch[:])

	lightCount := len(lights)
	if lightCount > light.MaxGPULights {
		lightCount = light.MaxGPULights
	}
	binary.LittleEndian.PutUint32(r.lightsScratch[0:4], uint32(lightCount))
	for i := 0; i < lightCount; i++ {
		lights[i].Marshal(r.lightsScratch[16+i*48:])
	}
	queue.WriteBuffer(r.lightsBuffer, 0, r.lightsScratch[:])

	particleCount := len(particles)
	if particleCount > r.particleCapacity {
		particleCount = r.particleCapacity
	}
	if particleCount > 0 {
		queue.WriteBuffer(r.particleInstanceBuffer, 0, swarm.InstanceBytes(particles[:particleCount]))
	}

	if err := r.backend.BeginFrame(); err != nil {
		return err
	}
	pass := r.backend.Pass()

	pass.SetPipeline(r.propPipeline)
	pass.SetBindGroup(0, r.sceneBindGroup, nil)
	for _, mesh := range r.meshes {
		if mesh.instanceCount == 0 {
			continue
		}
		pass.SetVertexBuffer(0, mesh.vertexBuffer, 0, wgpu.WholeSize)
		pass.SetVertexBuffer(1, mesh.instanceBuffer, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(mesh.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(mesh.indexCount), uint32(mesh.instanceCount), 0, 0, 0)
	}

	if particleCount > 0 {
		pass.SetPipeline(r.particlePipeline)
		pass.SetBindGroup(0, r.sceneBindGroup, nil)
		pass.SetVertexBuffer(0, r.quadVertexBuffer, 0, wgpu.WholeSize)
		pass.SetVertexBuffer(1, r.particleInstanceBuffer, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(r.quadIndexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(6, uint32(particleCount), 0, 0, 0)
	}

	r.backend.EndFrame()
	r.backend.Present()
	return nil
}

func (r *rendererImpl) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true

	for _, mesh := range r.meshes {
		if mesh.vertexBuffer != nil {
			mesh.vertexBuffer.Release()
		}
		if mesh.indexBuffer != nil {
			mesh.indexBuffer.Release()
		}
		if mesh.instanceBuffer != nil {
			mesh.instanceBuffer.Release()
		}
	}
	r.meshes = nil

	for _, buf := range []*wgpu.Buffer{
		r.cameraBuffer, r.lightsBuffer,
		r.quadVertexBuffer, r.quadIndexBuffer, r.particleInstanceBuffer,
	} {
		if buf != nil {
			buf.Release()
		}
	}
	r.cameraBuffer = nil
	r.lightsBuffer = nil
	r.quadVertexBuffer = nil
	r.quadIndexBuffer = nil
	r.particleInstanceBuffer = nil

	r.backend.Release()
}
