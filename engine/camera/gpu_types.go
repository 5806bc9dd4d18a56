package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCamera is the GPU-aligned representation of the camera uniform.
// Matches the WGSL Camera struct layout exactly (112 bytes, std140 aligned).
// Right and Up are the camera basis vectors used to billboard particles.
type GPUCamera struct {
	ViewProjection [16]float32 // offset  0: combined view-projection matrix, column-major
	Position       [3]float32  // offset 64: world-space camera position
	_pad0          float32     // offset 76
	Right          [3]float32  // offset 80: camera right in world space
	_pad1          float32     // offset 92
	Up             [3]float32  // offset 96: camera up in world space
	_pad2          float32     // offset 108
}

// Size returns the size of the GPUCamera struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (112)
func (g *GPUCamera) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCamera struct into a byte buffer suitable for GPU upload.
//
// Parameters:
//   - buf: destination buffer (must be at least 112 bytes)
func (g *GPUCamera) Marshal(buf []byte) {
	for i, v := range g.ViewProjection {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	putVec3 := func(offset int, v [3]float32) {
		binary.LittleEndian.PutUint32(buf[offset:offset+4], math.Float32bits(v[0]))
		binary.LittleEndian.PutUint32(buf[offset+4:offset+8], math.Float32bits(v[1]))
		binary.LittleEndian.PutUint32(buf[offset+8:offset+12], math.Float32bits(v[2]))
		binary.LittleEndian.PutUint32(buf[offset+12:offset+16], 0)
	}
	putVec3(64, g.Position)
	putVec3(80, g.Right)
	putVec3(96, g.Up)
}
