package swarm

import (
	"unsafe"

	"github.com/Carmen-Shannon/wisp-go/common"
)

// GPUParticle is the GPU-aligned per-instance representation of a particle.
// Matches the particle pipeline's instance vertex buffer layout exactly
// (32 bytes: three vec-sized attributes plus padding).
type GPUParticle struct {
	Position [3]float32 // offset  0: world-space position
	Size     float32    // offset 12: billboard half-extent in world units
	Opacity  float32    // offset 16: premultiplied into the fragment alpha
	Phase    float32    // offset 20: per-particle phase for shader-side shimmer
	_pad     [2]float32 // offset 24: padding to 32-byte alignment
}

// GPUParticleSize is the stride of one packed particle instance in bytes.
const GPUParticleSize = int(unsafe.Sizeof(GPUParticle{}))

// InstanceBytes returns the packed instance slice as a raw byte view for GPU
// upload. The view shares memory with the instance buffer — upload before
// the next Step overwrites it.
//
// Parameters:
//   - instances: the packed instance slice from Swarm.Instances
//
// Returns:
//   - []byte: byte view of the instance data
func InstanceBytes(instances []GPUParticle) []byte {
	return common.SliceToBytes(instances)
}
