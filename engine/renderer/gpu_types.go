package renderer

import (
	"unsafe"

	"github.com/Carmen-Shannon/wisp-go/common"
)

// Vertex is one mesh vertex as laid out in the vertex buffer (24 bytes).
type Vertex struct {
	Position [3]float32 // offset  0
	Normal   [3]float32 // offset 12
}

// VertexSize is the stride of one vertex in bytes.
const VertexSize = int(unsafe.Sizeof(Vertex{}))

// PropInstance is the per-instance data for one placed prop (80 bytes):
// a column-major model matrix followed by an RGBA tint.
type PropInstance struct {
	Model [16]float32 // offset  0: model matrix, column-major
	Color [4]float32  // offset 64: RGBA tint, alpha currently unused
}

// PropInstanceSize is the stride of one prop instance in bytes.
const PropInstanceSize = int(unsafe.Sizeof(PropInstance{}))

// VertexBytes returns the vertex slice as a raw byte view for GPU upload.
//
// Parameters:
//   - vertices: the vertex slice
//
// Returns:
//   - []byte: byte view of the vertex data
func VertexBytes(vertices []Vertex) []byte {
	return common.SliceToBytes(vertices)
}

// PropInstanceBytes returns the instance slice as a raw byte view for GPU
// upload.
//
// Parameters:
//   - instances: the instance slice
//
// Returns:
//   - []byte: byte view of the instance data
func PropInstanceBytes(instances []PropInstance) []byte {
	return common.SliceToBytes(instances)
}

func float32Bytes(values []float32) []byte {
	return common.SliceToBytes(values)
}

func uint32Bytes(values []uint32) []byte {
	return common.SliceToBytes(values)
}
